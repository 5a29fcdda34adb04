package config

import (
	"time"

	"github.com/caarlos0/env/v11"
)

type ServerConfig struct {
	// PostgresDSN empty means the in-memory store: useful for local play
	// and tests, state is lost on restart.
	PostgresDSN string `env:"POSTGRES_DSN"`

	TCPAddr  string `env:"TCP_ADDR" envDefault:":9000"`
	HTTPAddr string `env:"HTTP_ADDR" envDefault:":8080"`

	StartNewGameDelay time.Duration `env:"START_NEW_GAME_DELAY" envDefault:"7s"`
	AutoFoldTimeout   time.Duration `env:"AUTO_FOLD_TIMEOUT" envDefault:"10s"`

	// SeedUsers is a comma-separated username:token list created at boot
	// when missing, each starting at SeedBalance.
	SeedUsers   string `env:"SEED_USERS"`
	SeedBalance int64  `env:"SEED_BALANCE" envDefault:"1000"`
}

func LoadServer() (ServerConfig, error) {
	var cfg ServerConfig
	err := env.Parse(&cfg)
	return cfg, err
}
