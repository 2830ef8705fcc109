package main

import "time"

type appConfig struct {
	Addr string `env:"SESSIOND_ADDR" envDefault:":8080"`

	// Backend is the authoritative store: memory, postgres or mongo.
	Backend string `env:"SESSIOND_BACKEND" envDefault:"memory"`
	// Cache is the tier in front of it: none, lru or redis.
	Cache     string `env:"SESSIOND_CACHE" envDefault:"none"`
	CacheSize int    `env:"SESSIOND_CACHE_SIZE" envDefault:"10000"`

	IdleTimeout   time.Duration `env:"SESSIOND_IDLE_TIMEOUT" envDefault:"30m"`
	PurgeInterval time.Duration `env:"SESSIOND_PURGE_INTERVAL" envDefault:"10m"`
}
