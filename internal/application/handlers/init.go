package handlers

import (
	"context"
	"fmt"

	"github.com/ersonp/fishreg/internal/domain/ports"
	"github.com/ersonp/fishreg/internal/infrastructure/config"
)

// Connector opens the relational store described by a configuration.
type Connector func(ctx context.Context, cfg *config.Config) (ports.RelationalDB, error)

// InitHandler handles project initialization.
type InitHandler struct {
	connect Connector
}

// NewInitHandler creates a new init handler. A nil connector only writes
// the configuration file.
func NewInitHandler(connect Connector) *InitHandler {
	return &InitHandler{
		connect: connect,
	}
}

// InitResult contains the result of initialization.
type InitResult struct {
	ConfigPath string
	Driver     string
	Database   string // SQLite file, or "" for PostgreSQL
}

// Handle writes the default configuration and creates the database schema.
func (h *InitHandler) Handle(ctx context.Context, basePath string) (*InitResult, error) {
	if config.Exists(basePath) {
		return nil, fmt.Errorf("fishreg already initialized in %s", basePath)
	}

	if err := config.WriteDefault(basePath); err != nil {
		return nil, fmt.Errorf("writing default config: %w", err)
	}

	cfg, err := config.Load(basePath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	result := &InitResult{
		ConfigPath: config.ConfigFilePath(basePath),
		Driver:     cfg.Database.Driver,
	}
	if cfg.Database.Driver == config.DriverSQLite {
		result.Database = cfg.Database.SQLite.Path
	}

	if h.connect == nil {
		return result, nil
	}

	db, err := h.connect(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return result, nil
}
