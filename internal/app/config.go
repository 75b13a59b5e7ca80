package app

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds runtime wiring options for building the app.
type Config struct {
	Home                    string `toml:"home"`                      // data directory, e.g. $HOME/.piqrypt
	HandshakeTimeoutSeconds int    `toml:"handshake_timeout_seconds"` // per-pair budget during session start
	NonceCapacity           int    `toml:"nonce_capacity"`            // seen-nonce cache bound per agent
	LogLevel                string `toml:"log_level"`
}

// HandshakeTimeout returns the per-pair handshake budget as a duration.
func (c Config) HandshakeTimeout() time.Duration {
	return time.Duration(c.HandshakeTimeoutSeconds) * time.Second
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		HandshakeTimeoutSeconds: 10,
		NonceCapacity:           1024,
		LogLevel:                "info",
	}
}

// Load reads a TOML config from path, applying defaults for absent fields.
// A missing file yields the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("config load failed (%s): %w", path, err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config parse failed (%s): %w", path, err)
	}
	if err := validate(cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func validate(cfg Config) error {
	if cfg.HandshakeTimeoutSeconds <= 0 {
		return fmt.Errorf("handshake_timeout_seconds must be positive, got %d", cfg.HandshakeTimeoutSeconds)
	}
	if cfg.NonceCapacity <= 0 {
		return fmt.Errorf("nonce_capacity must be positive, got %d", cfg.NonceCapacity)
	}
	return nil
}
