// Package setup wires configuration into running components: the structured
// logger, the reference data provider chain and the evaluation pipeline.
package setup

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/icsr-triage-engine/internal/assess"
	"github.com/icsr-triage-engine/internal/config"
	"github.com/icsr-triage-engine/internal/database"
	"github.com/icsr-triage-engine/internal/domain"
	"github.com/icsr-triage-engine/internal/extract"
	"github.com/icsr-triage-engine/internal/meddra"
	"github.com/icsr-triage-engine/internal/pipeline"
	"github.com/icsr-triage-engine/internal/refdata"
)

// Logger builds a logrus logger from the logging configuration.
func Logger(cfg config.LoggingConfig) *logrus.Logger {
	logger := logrus.New()

	level, err := logrus.ParseLevel(strings.ToLower(cfg.Level))
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(cfg.Format, "json") {
		logger.SetFormatter(&logrus.JSONFormatter{})
	} else {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	}

	return logger
}

// Reference holds the assembled provider chain and its teardown hooks.
type Reference struct {
	Provider domain.ReferenceProvider
	Health   func(ctx context.Context) error
	closers  []func() error
}

// Close releases every backend resource in reverse construction order.
func (r *Reference) Close() error {
	var first error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// BuildReference assembles the provider chain for the configured backend.
// Remote backends (postgres) get a circuit breaker, the optional Redis layer
// and the in-process LRU cache; local ones only the LRU cache.
func BuildReference(ctx context.Context, cfg config.ReferenceConfig, logger *logrus.Logger) (*Reference, error) {
	ref := &Reference{}

	var provider domain.ReferenceProvider
	switch cfg.Backend {
	case "file":
		table, err := refdata.LoadFile(cfg.FilePath, logger)
		if err != nil {
			return nil, err
		}
		provider = table

	case "sqlite":
		store, err := refdata.NewSQLiteStore(cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		ref.closers = append(ref.closers, store.Close)
		provider = store

	case "postgres":
		db, err := database.NewConnection(ctx, cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		ref.closers = append(ref.closers, func() error { db.Close(); return nil })
		ref.Health = db.Health

		if cfg.Migrations != "" {
			runner, err := database.NewMigrationRunner(cfg.Database.URL(), cfg.Migrations, logger)
			if err != nil {
				ref.Close()
				return nil, err
			}
			if err := runner.Up(ctx); err != nil {
				runner.Close()
				ref.Close()
				return nil, err
			}
			runner.Close()
		}

		store, err := refdata.NewPostgresStoreFromURL(cfg.Database.URL())
		if err != nil {
			ref.Close()
			return nil, err
		}
		ref.closers = append(ref.closers, store.Close)

		provider = refdata.NewResilient(store, cfg.Breaker, logger)

		if cfg.Redis.Enabled {
			redisProvider, err := refdata.NewRedisProvider(provider, cfg.Redis.RedisConfig, logger)
			if err != nil {
				ref.Close()
				return nil, err
			}
			ref.closers = append(ref.closers, redisProvider.Close)
			provider = redisProvider
		}

	default:
		return nil, fmt.Errorf("unknown reference backend: %s", cfg.Backend)
	}

	if cfg.CacheSize > 0 {
		cached, err := refdata.NewCachedProvider(provider, cfg.CacheSize)
		if err != nil {
			ref.Close()
			return nil, err
		}
		provider = cached
	}

	ref.Provider = provider
	return ref, nil
}

// Terms loads the MedDRA mapping, or an empty mapping when no dictionary is
// configured.
func Terms(cfg config.MedDRAConfig, logger *logrus.Logger) (*meddra.Mapping, error) {
	if cfg.MappingPath == "" {
		logger.Warn("No MedDRA mapping configured, reaction codes will pass through unmapped")
		return meddra.NewMapping(nil), nil
	}
	return meddra.LoadFile(cfg.MappingPath, logger)
}

// BuildPipeline assembles the per-document evaluator and its batch runner.
func BuildPipeline(cfg *config.Config, provider domain.ReferenceProvider, terms *meddra.Mapping, logger *logrus.Logger) (*pipeline.Pipeline, *pipeline.BatchRunner) {
	p := pipeline.New(
		extract.New(logger, terms),
		assess.NewListednessAssessor(provider, terms, logger),
		assess.NewAnnotator(cfg.Annotator.Company, cfg.Annotator.Aliases...),
		logger,
	)
	return p, pipeline.NewBatchRunner(p, cfg.Pipeline.Workers, logger)
}
