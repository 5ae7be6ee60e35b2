package main

import (
	"fmt"

	"github.com/spf13/viper"

	"github.com/fluxwell/treasury-flow/internal/config"
	"github.com/fluxwell/treasury-flow/internal/engine"
	"github.com/fluxwell/treasury-flow/internal/service"
	"github.com/fluxwell/treasury-flow/internal/storage"
)

// initStore opens the workflow store configured under database.path.
// "memory" selects the non-durable in-memory store.
func initStore() (service.WorkflowStore, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/tflow/tflow.db"
	}
	if dbPath == "memory" {
		return storage.NewMemoryStore(), nil
	}
	dbPath = config.ExpandPath(dbPath)

	store, err := storage.NewSQLiteStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open workflow store: %w", err)
	}
	return store, nil
}

// initEngine wires the engine from configuration.
func initEngine() (*engine.Engine, service.WorkflowStore, error) {
	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return nil, nil, err
	}
	store, err := initStore()
	if err != nil {
		return nil, nil, err
	}
	return engine.New(store, cfg), store, nil
}
