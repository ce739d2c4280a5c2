package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YHTerrance/UniFrames/api"
	"github.com/YHTerrance/UniFrames/config"
	"github.com/YHTerrance/UniFrames/database"
	"github.com/YHTerrance/UniFrames/router"
	"github.com/YHTerrance/UniFrames/services/cron"
	"github.com/YHTerrance/UniFrames/utils"
	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
)

// Bootstrap loads configuration, builds the logger and opens the database.
// The API server and the CLI tools share it; tools that never reach the
// bucket pass needStorage=false.
func Bootstrap(needStorage bool) (*config.Config, *logrus.Logger, *database.GORMStore, error) {
	// Load ENV
	if err := config.LoadENV(); err != nil {
		return nil, nil, nil, err
	}

	cfg, err := config.Get()
	if err != nil {
		return nil, nil, nil, err
	}

	log := utils.NewLogger(cfg.LogLevel, cfg.IsProduction())

	validate := cfg.Database.Validate
	if needStorage {
		validate = cfg.Validate
	}
	if err := validate(); err != nil {
		return nil, nil, nil, err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM(cfg, log)
	if err != nil {
		log.Error("Check whether the database is running and DB_* variables are set")
		return nil, nil, nil, err
	}

	if cfg.Database.AutoMigrate {
		if err := store.Init(); err != nil {
			log.Error("Failed to initialize database tables")
			store.Close()
			return nil, nil, nil, err
		}
	}

	return cfg, log, store, nil
}

func SetupAndRunServer() error {
	cfg, log, store, err := Bootstrap(true)
	if err != nil {
		return err
	}

	fs := afero.NewOsFs()

	// Initialize Cron Manager (only if enabled)
	var cronManager *cron.CronManager
	if cfg.Cron.Enabled {
		cronManager = cron.NewCronManager(fs, cron.JobsConfig{
			CleanupSchedule: cfg.Cron.CleanupSchedule,
			Retention:       cfg.Media.Retention,
			MediaDirs:       []string{cfg.Media.UploadDir, cfg.Media.OutputDir},
		}, log)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.WithError(err).Warn("Failed to start cron jobs")
			cronManager = nil
		}
	}

	svc, err := router.NewServices(store, cfg, fs, log)
	if err != nil {
		store.Close()
		return err
	}

	// Defer closing DB, cache and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if svc.Cache != nil {
			svc.Cache.Close()
		}
		store.Close()
	}()

	// Init API
	server := api.NewAPIServer(fmt.Sprintf(":%d", cfg.Port), log)

	// Setup Routes
	if err := router.SetupRoutes(server.GetEngine(), store, cfg, svc, log); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.Run()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down API server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}
