package redis

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// Healthcheck returns a readiness probe for a session store backed by client.
// Besides a ping it loads the identifier cycling script, so a server with
// scripting disabled reports not ready instead of failing at login time.
func Healthcheck(client redis.UniversalClient) func(context.Context) error {
	return func(ctx context.Context) error {
		if err := client.Ping(ctx).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, err)
		}
		if err := cycleScript.Load(ctx, client).Err(); err != nil {
			return errors.Join(ErrHealthcheckFailed, ErrScriptUnavailable, err)
		}
		return nil
	}
}
