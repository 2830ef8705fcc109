// Package config loads typed configuration from environment variables.
//
// It wraps github.com/caarlos0/env/v11 for struct parsing and
// github.com/joho/godotenv for .env files. Each configuration type is parsed
// once and cached for the life of the process, so packages can call Load for
// their own settings without coordinating.
//
//	type Config struct {
//	    Addr    string `env:"SESSIOND_ADDR" envDefault:":8080"`
//	    Backend string `env:"SESSIOND_BACKEND" envDefault:"memory"`
//	}
//
//	var cfg Config
//	if err := config.Load(&cfg); err != nil {
//	    log.Fatal(err)
//	}
//
// LoadEnv reads extra .env files, ForceReloadConfig re-parses one type after
// the environment changed and ResetCache drops everything; the last two are
// mostly useful in tests.
//
// Failures wrap ErrParsingConfig or ErrLoadingEnvFile.
package config
