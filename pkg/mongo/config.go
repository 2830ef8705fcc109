package mongo

import "time"

// Config holds the connection settings and the location of the session collection.
type Config struct {
	ConnectionURL  string        `env:"MONGODB_URL,required"`
	ConnectTimeout time.Duration `env:"MONGODB_CONNECT_TIMEOUT" envDefault:"10s"`
	RetryAttempts  int           `env:"MONGODB_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"MONGODB_RETRY_INTERVAL" envDefault:"5s"`

	// Pool tuning.
	MaxPoolSize     uint64        `env:"MONGODB_MAX_POOL_SIZE" envDefault:"100"`
	MinPoolSize     uint64        `env:"MONGODB_MIN_POOL_SIZE" envDefault:"1"`
	MaxConnIdleTime time.Duration `env:"MONGODB_MAX_CONN_IDLE_TIME" envDefault:"300s"`

	// Driver level retries of single operations. They do not change store
	// semantics: every session write is idempotent under its filter.
	RetryWrites bool `env:"MONGODB_RETRY_WRITES" envDefault:"true"`
	RetryReads  bool `env:"MONGODB_RETRY_READS" envDefault:"true"`

	Database          string `env:"MONGODB_DATABASE" envDefault:"sessionkit"`
	SessionCollection string `env:"MONGODB_SESSION_COLLECTION" envDefault:"sessions"`
}
