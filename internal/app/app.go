// Package app is the composition root: it turns a Config into a running
// pipeline service and the surfaces around it.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"etlapi/internal/config"
	"etlapi/internal/dbclient"
	"etlapi/internal/etl"
	"etlapi/internal/etl/destinations"
	"etlapi/internal/etl/sources"
	"etlapi/internal/objectstore"
	"etlapi/internal/service"
)

// App owns the pipeline service and every resource opened to build it.
type App struct {
	cfg     *config.Config
	logger  *slog.Logger
	version string

	ETL *service.ETLService

	closers []func() error
}

// New wires the object stores, sources, destinations and service from cfg.
// Callers must Close the App.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger, version string) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	a := &App{cfg: cfg, logger: logger, version: version}

	store, err := a.buildStore(ctx)
	if err != nil {
		a.Close()
		return nil, err
	}

	engine := &etl.Engine{
		Sources: etl.NewRegistry(
			sources.NewAPISource(cfg.APISourceURL, cfg.APISourceDataPath, cfg.APISourceTimeout),
			sources.NewCSVSource(cfg.CSVSourcePath, store),
		),
		Destinations: &destinations.Router{
			CSVPath:   cfg.CSVDestPath,
			Store:     store,
			Databases: cfg.DatabaseTargets(),
			Connect:   dbclient.NewConnector,
		},
		Transform: etl.NewScaleTransform(etl.DefaultRandom),
		Logger:    logger,
	}

	a.ETL = service.NewETLService(engine, service.Options{
		DefaultDBName: cfg.DefaultDBName,
		RunTimeout:    cfg.RunTimeout,
		Logger:        logger,
	})
	return a, nil
}

// buildStore enables each cloud backend whose credentials are configured.
func (a *App) buildStore(ctx context.Context) (*objectstore.Router, error) {
	store := objectstore.NewLocalRouter()

	if a.cfg.S3.Configured() {
		s3, err := objectstore.NewS3(objectstore.S3Config{
			KeyID:        a.cfg.S3.KeyID,
			Secret:       a.cfg.S3.Secret,
			Region:       a.cfg.S3.Region,
			Endpoint:     a.cfg.S3.Endpoint,
			UsePathStyle: a.cfg.S3.UsePathStyle,
		})
		if err != nil {
			return nil, fmt.Errorf("s3 store: %w", err)
		}
		store.S3 = s3
	}

	if a.cfg.GCSKeyFile != "" {
		gcs, err := objectstore.NewGCS(ctx, a.cfg.GCSKeyFile)
		if err != nil {
			return nil, fmt.Errorf("gcs store: %w", err)
		}
		store.GCS = gcs
		a.closers = append(a.closers, gcs.Close)
	}

	if a.cfg.AzureAccount != "" {
		az, err := objectstore.NewAzure(a.cfg.AzureAccount, a.cfg.AzureKey, a.cfg.AzureEndpoint)
		if err != nil {
			return nil, fmt.Errorf("azure store: %w", err)
		}
		store.Azure = az
	}

	return store, nil
}

// LoadJobs reads the configured jobs file (path overrides it when set) and
// starts their triggers.
func (a *App) LoadJobs(ctx context.Context, path string) error {
	if path == "" {
		path = a.cfg.JobsFile
	}
	jobs, err := config.LoadJobs(path)
	if err != nil {
		return err
	}
	if len(jobs) == 0 {
		return nil
	}
	if err := a.ETL.SetJobs(ctx, jobs); err != nil {
		return fmt.Errorf("start jobs: %w", err)
	}
	a.logger.Info("scheduled jobs loaded", "file", path, "count", len(jobs))
	return nil
}

// Close stops scheduled jobs and releases cloud clients.
func (a *App) Close() error {
	if a.ETL != nil {
		a.ETL.Stop()
	}
	var errs []error
	for _, c := range a.closers {
		errs = append(errs, c())
	}
	a.closers = nil
	return errors.Join(errs...)
}
