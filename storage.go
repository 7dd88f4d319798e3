/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"

	"github.com/Seednode/greenlight/roster"
)

// openStore builds the roster store for the configured backend. The returned
// function releases whatever the backend holds open.
func openStore(cfg *Config) (*roster.Store, func() error, error) {
	var (
		backend roster.Storage
		closer  = func() error { return nil }
	)

	switch cfg.storage {
	case "file":
		files, err := roster.NewFileStorage(cfg.storagePath)
		if err != nil {
			return nil, nil, err
		}
		backend = files
	case "sqlite":
		db, err := roster.OpenSQLite(cfg.storagePath, cfg.pollInterval)
		if err != nil {
			return nil, nil, err
		}
		backend = db
		closer = db.Close
	case "memory", "":
		backend = roster.NewMemoryStorage()
	default:
		return nil, nil, fmt.Errorf("unknown storage backend %q", cfg.storage)
	}

	store, err := roster.New(backend,
		roster.WithSize(cfg.players),
		roster.WithKey(cfg.storageKey),
		roster.WithLogger(func(format string, args ...any) {
			logf(cfg, format, args...)
		}),
	)
	if err != nil {
		_ = closer()

		return nil, nil, err
	}

	return store, closer, nil
}
