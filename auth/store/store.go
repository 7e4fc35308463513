// Package store persists OAuth token records keyed by account key. It ships
// with a durable JSON file backend and a SQL table backend; the backend is
// chosen once at construction from configuration and hidden behind the Store
// interface.
package store

import (
	"context"

	"github.com/viant/fitbit-mcp/auth"
)

// DefaultAccountKey partitions the store when the caller does not supply an
// explicit account key.
const DefaultAccountKey = "default"

// Store is a pluggable persistence layer for token records. Writes are
// last-write-wins per key; absence of a key is a valid non-error state.
type Store interface {
	// Get returns the most recently committed record for the key, with
	// ok=false when no record exists.
	Get(ctx context.Context, key string) (token *auth.Token, ok bool, err error)
	// Set commits the record under the key, replacing any previous record.
	Set(ctx context.Context, key string, token *auth.Token) error
	// Clear removes the record for the key; clearing an absent key is a no-op.
	Clear(ctx context.Context, key string) error
}

// Config selects and parameterizes a backend.
type Config struct {
	// Path locates the JSON document of the file backend.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// DSN, when set, selects the table backend.
	DSN string `yaml:"dsn,omitempty" json:"dsn,omitempty"`
	// Driver names the database/sql driver for the table backend.
	Driver string `yaml:"driver,omitempty" json:"driver,omitempty"`
	// KeyPrefix optionally prefixes account keys in the table backend so one
	// table can be shared across deployments.
	KeyPrefix string `yaml:"keyPrefix,omitempty" json:"keyPrefix,omitempty"`
}

// New creates the backend selected by the configuration: the table backend
// when a DSN is present, otherwise the file backend.
func New(ctx context.Context, config *Config) (Store, error) {
	if config.DSN != "" {
		driver := config.Driver
		if driver == "" {
			driver = "sqlite"
		}
		return NewTableStore(ctx, driver, config.DSN, config.KeyPrefix)
	}
	return NewFileStore(config.Path), nil
}
