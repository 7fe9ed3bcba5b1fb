package relayserver

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the relay's tunables, read from RELAY_* variables.
type Config struct {
	Addr string `env:"RELAY_ADDR" envDefault:":8000"`
	// SyncRounds is how many progress rounds a simulated sync emits.
	SyncRounds int `env:"RELAY_SYNC_ROUNDS" envDefault:"60"`
	// SyncInterval is the pause between rounds.
	SyncInterval time.Duration `env:"RELAY_SYNC_INTERVAL" envDefault:"50ms"`
	// SyncStartDelay separates sync_start from the first round.
	SyncStartDelay time.Duration `env:"RELAY_SYNC_START_DELAY" envDefault:"300ms"`
	// IdlePing is how long a connection may stay silent before the relay
	// pings it.
	IdlePing time.Duration `env:"RELAY_IDLE_PING" envDefault:"30s"`
	// WriteTimeout bounds one frame write.
	WriteTimeout time.Duration `env:"RELAY_WRITE_TIMEOUT" envDefault:"5s"`
}

// LoadConfig reads Config from the environment.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	switch {
	case c.SyncRounds < 1:
		return fmt.Errorf("RELAY_SYNC_ROUNDS must be positive, got %d", c.SyncRounds)
	case c.SyncInterval < 0 || c.SyncStartDelay < 0:
		return fmt.Errorf("sync delays must not be negative")
	case c.IdlePing <= 0:
		return fmt.Errorf("RELAY_IDLE_PING must be positive, got %s", c.IdlePing)
	}
	return nil
}
