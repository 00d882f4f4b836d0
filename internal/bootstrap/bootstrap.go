// Package bootstrap wires the stores, providers and batch service shared by
// the API server and the CLI.
package bootstrap

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"stockmeta/internal/batch"
	"stockmeta/internal/imaging"
	"stockmeta/internal/infra"
	"stockmeta/internal/infra/credentials"
	"stockmeta/internal/infra/settings"
	"stockmeta/internal/metrics"
	"stockmeta/internal/pipeline"
	"stockmeta/internal/providers/registry"
)

// Deps holds the wired services.
type Deps struct {
	Keys     *credentials.Pool
	Settings settings.Store
	Batches  *batch.Service

	db *pgxpool.Pool
}

// Open builds Deps from cfg. With DATABASE_URL set, keys and settings live in
// Postgres; otherwise keys are kept in memory and settings in the YAML file.
func Open(ctx context.Context, cfg *infra.Config, logger *infra.Logger) (*Deps, error) {
	d := &Deps{}
	var ring credentials.Keyring

	if cfg.DatabaseURL != "" {
		pool, err := infra.NewDBPool(ctx, cfg)
		if err != nil {
			return nil, fmt.Errorf("connect database: %w", err)
		}
		runner := infra.NewSQLRunner(pool, *logger)
		if err := infra.EnsureSchema(ctx, runner); err != nil {
			pool.Close()
			return nil, fmt.Errorf("ensure schema: %w", err)
		}
		d.db = pool
		ring = credentials.NewStore(runner)
		d.Settings = settings.NewPGStore(runner)
		logger.Info().Msg("using postgres for keys and settings")
	} else {
		ring = credentials.NewMemoryStore()
		d.Settings = settings.NewFileStore(cfg.SettingsFile)
		logger.Info().Str("settings_file", cfg.SettingsFile).Msg("no database configured; keys come from the environment")
	}

	metrics.Register()
	d.Keys = credentials.NewPool(ring, cfg.EnvKeys)
	gen := pipeline.NewGenerator(pipeline.GeneratorOptions{
		Adapters: registry.New(cfg, logger),
		Logger:   logger,
	})
	d.Batches = batch.NewService(batch.Options{
		Generator: gen,
		Keys:      d.Keys,
		Image:     imaging.Options{MaxDimension: cfg.ImageMaxDimension, Quality: cfg.ImageJPEGQuality},
		Cooldown:  cfg.RotationCooldown,
		Stagger:   cfg.WorkerStagger,
		Logger:    logger,
	})
	return d, nil
}

// Close stops background runs and releases the database pool.
func (d *Deps) Close(ctx context.Context) error {
	err := d.Batches.Shutdown(ctx)
	if d.db != nil {
		d.db.Close()
	}
	return err
}
