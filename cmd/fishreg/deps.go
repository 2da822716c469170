package main

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/ersonp/fishreg/internal/application/handlers"
	"github.com/ersonp/fishreg/internal/domain/ports"
	"github.com/ersonp/fishreg/internal/domain/services"
	"github.com/ersonp/fishreg/internal/infrastructure/config"
	"github.com/ersonp/fishreg/internal/infrastructure/embedder/trigram"
	"github.com/ersonp/fishreg/internal/infrastructure/logging"
	"github.com/ersonp/fishreg/internal/infrastructure/relationaldb/postgres"
	"github.com/ersonp/fishreg/internal/infrastructure/relationaldb/sqlite"
	"github.com/ersonp/fishreg/internal/infrastructure/vectordb/qdrant"
)

// Deps holds high-level dependencies for commands.
// Only handlers are exposed - services and repositories are internal.
type Deps struct {
	Config     *config.Config
	Logger     zerolog.Logger
	Resolution *handlers.ResolutionHandler
	Duplicates *handlers.DuplicateHandler
	Merge      *handlers.MergeHandler
	Contacts   *handlers.ContactHandler
	Import     *handlers.ImportHandler
	Reindex    *handlers.ReindexHandler
}

// withDeps loads config and builds dependencies, then calls the provided function.
// It handles cleanup automatically.
func withDeps(ctx context.Context, fn func(*Deps) error) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting current directory: %w", err)
	}

	cfg, err := config.Load(cwd)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return fmt.Errorf("creating logger: %w", err)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}

	opts := []services.Option{
		services.WithLogger(logger),
		services.WithMatcherConfig(matcherConfig(cfg.Matching)),
		services.WithBlocking(cfg.Duplicates.Blocking),
	}

	if cfg.NameIndex.Enabled {
		index, err := qdrant.NewRepository(cfg.NameIndex)
		if err != nil {
			return fmt.Errorf("creating qdrant repository: %w", err)
		}
		defer index.Close()

		emb, err := trigram.NewEmbedder(cfg.NameIndex.Dimensions)
		if err != nil {
			return fmt.Errorf("creating embedder: %w", err)
		}
		if err := index.EnsureCollection(ctx, emb.Dimensions()); err != nil {
			return fmt.Errorf("ensuring name index: %w", err)
		}
		opts = append(opts, services.WithNameIndex(index, emb))
	}

	resolver := services.NewResolver(db, opts...)
	engagement := services.NewEngagementService(db, opts...)

	deps := &Deps{
		Config:     cfg,
		Logger:     logger,
		Resolution: handlers.NewResolutionHandler(resolver, logger),
		Duplicates: handlers.NewDuplicateHandler(services.NewDuplicateDetector(db, opts...), cfg.Duplicates.MinScore),
		Merge:      handlers.NewMergeHandler(services.NewMergeEngine(db, opts...)),
		Contacts:   handlers.NewContactHandler(db),
		Import:     handlers.NewImportHandler(services.NewImportService(resolver, engagement)),
		Reindex:    handlers.NewReindexHandler(services.NewIndexService(db, opts...)),
	}

	return fn(deps)
}

// openDatabase connects to the relational store selected by the config.
func openDatabase(ctx context.Context, cfg *config.Config) (ports.RelationalDB, error) {
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		repo, err := postgres.NewRepository(ctx, cfg.Database.Postgres, cfg.LogLevel)
		if err != nil {
			return nil, fmt.Errorf("creating postgres repository: %w", err)
		}
		return repo, nil
	case config.DriverSQLite, "":
		repo, err := sqlite.NewRepository(cfg.Database.SQLite)
		if err != nil {
			return nil, fmt.Errorf("creating sqlite repository: %w", err)
		}
		return repo, nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

func matcherConfig(m config.MatchingConfig) services.MatcherConfig {
	return services.MatcherConfig{
		ContactThreshold:      m.ContactThreshold,
		OrganizationThreshold: m.OrganizationThreshold,
		ActionThreshold:       m.ActionThreshold,
		ScopedScanLimit:       m.ScopedScanLimit,
		GlobalScanLimit:       m.GlobalScanLimit,
	}
}
