package mongo

import "errors"

var (
	ErrFailedToConnectToMongo = errors.New("mongo: could not connect")
	ErrHealthcheckFailed      = errors.New("mongo: healthcheck failed")
	ErrFailedToCreateIndexes  = errors.New("mongo: could not create session ttl index")
)
