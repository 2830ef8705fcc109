package redis

import "time"

type Config struct {
	ConnectionURL  string        `env:"REDIS_URL,required" envDefault:"redis://localhost:6379/0"` // redis://:password@localhost:6379/0
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"5s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`

	// SessionPrefix namespaces session keys. On Redis Cluster wrap it in a
	// hash tag (for example "{session}:") so CycleID can rename within one slot.
	SessionPrefix string `env:"REDIS_SESSION_PREFIX" envDefault:"session:"`
}
