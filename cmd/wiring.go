package cmd

import (
	"context"
	"fmt"

	"inventory-agent/core/config"
	"inventory-agent/core/database"
	"inventory-agent/core/logger"
	"inventory-agent/core/remote"
	"inventory-agent/core/runner"
	"inventory-agent/core/storage"
	"inventory-agent/feature/agent"
	"inventory-agent/feature/collect"

	"go.uber.org/zap"
)

// setup loads the configuration and builds the application logger.
func setup() (*config.Config, *zap.Logger, error) {
	cfg, err := config.LoadConfig(configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	logg, err := logger.New(&cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logg, nil
}

// newDriver wires the tool adapters, the remote client and the optional
// report sinks into a driver. A sink whose backend is unreachable is
// skipped with a warning so the run itself still happens.
func newDriver(ctx context.Context, cfg *config.Config, logg *zap.Logger) (*agent.Driver, error) {
	adapters, err := collect.NewAdapters(cfg.Tools, runner.New(logg), logg)
	if err != nil {
		return nil, fmt.Errorf("failed to create tool adapters: %w", err)
	}

	client, err := remote.New(cfg.Remote, logg)
	if err != nil {
		return nil, fmt.Errorf("failed to create remote client: %w", err)
	}

	var sinks []agent.Sink
	if cfg.Agent.ArchiveReports {
		if db, err := database.Connect(cfg.Database); err != nil {
			logg.Warn("Report archive disabled, database connection failed", zap.Error(err))
		} else if sink, err := agent.NewArchiveSink(db, cfg.Database.AutoMigrate); err != nil {
			logg.Warn("Report archive disabled", zap.Error(err))
		} else {
			sinks = append(sinks, sink)
		}
	}
	if cfg.Agent.UploadReports {
		if store, err := storage.NewClient(cfg.Storage); err != nil {
			logg.Warn("Report upload disabled, storage client failed", zap.Error(err))
		} else {
			sink := agent.NewUploadSink(store, cfg.Storage.Bucket, cfg.Agent.ReportPrefix, cfg.Agent.KeepReports)
			if err := sink.EnsureBucket(ctx); err != nil {
				logg.Warn("Report upload disabled", zap.Error(err))
			} else {
				sinks = append(sinks, sink)
			}
		}
	}

	logg.Info("Agent configured",
		zap.Int("adapters", len(adapters)),
		zap.Int("sinks", len(sinks)),
		zap.String("remote", cfg.Remote.URL),
		zap.Bool("authoritative_removals", cfg.Agent.AuthoritativeRemovals))

	return agent.NewDriver(cfg.Agent, adapters, client, logg, sinks...), nil
}
