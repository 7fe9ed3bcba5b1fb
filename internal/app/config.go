package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"

	"nexus/internal/crypto"
)

// Config holds runtime wiring options, read from NEXUS_* variables and then
// overridden by command-line flags.
type Config struct {
	RelayURL string `env:"NEXUS_RELAY_URL" envDefault:"http://127.0.0.1:8000"`
	// Home is the state directory; empty means $HOME/.nexus.
	Home      string `env:"NEXUS_HOME"`
	Cipher    string `env:"NEXUS_CIPHER" envDefault:"aes-256-gcm"`
	LogLevel  string `env:"NEXUS_LOG_LEVEL" envDefault:"info"`
	LogFormat string `env:"NEXUS_LOG_FORMAT" envDefault:"text"`

	HTTPTimeout time.Duration `env:"NEXUS_HTTP_TIMEOUT" envDefault:"10s"`
	DialTimeout time.Duration `env:"NEXUS_DIAL_TIMEOUT" envDefault:"10s"`

	// FatalErrorCodes lists relay error codes that end a session instead of
	// being logged and ignored.
	FatalErrorCodes []string `env:"NEXUS_FATAL_ERROR_CODES" envSeparator:","`
	// ErrorOnPeerLoss ends a synced session when its connection drops.
	ErrorOnPeerLoss bool `env:"NEXUS_ERROR_ON_PEER_LOSS"`
}

// LoadConfig parses the environment and fills derived defaults.
func LoadConfig() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("locate home: %w", err)
		}
		cfg.Home = filepath.Join(home, ".nexus")
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c Config) Validate() error {
	if c.RelayURL == "" {
		return errors.New("relay url is required")
	}
	if _, err := c.Suite(); err != nil {
		return err
	}
	if c.HTTPTimeout < 0 || c.DialTimeout < 0 {
		return errors.New("timeouts must not be negative")
	}
	return nil
}

// Suite resolves Cipher.
func (c Config) Suite() (crypto.Suite, error) {
	return crypto.ParseSuite(c.Cipher)
}
