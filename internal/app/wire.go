package app

import (
	"github.com/rs/zerolog"

	"piqrypt/internal/observability"
	"piqrypt/internal/session"
	"piqrypt/internal/store"
)

// Wire bundles the stores, logger and session settings for the CLI.
type Wire struct {
	Store   *store.FileStore
	Log     zerolog.Logger
	Session session.Config
}

// NewWire constructs the dependency graph from cfg.
func NewWire(cfg Config) *Wire {
	log := observability.NewLogger("piqrypt").Level(observability.ParseLevel(cfg.LogLevel))
	return &Wire{
		Store: store.NewFileStore(cfg.Home),
		Log:   log,
		Session: session.Config{
			HandshakeTimeout: cfg.HandshakeTimeout(),
			NonceCapacity:    cfg.NonceCapacity,
			Logger:           log,
		},
	}
}
