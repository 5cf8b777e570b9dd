package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/beanmart/salesmart/internal/analytics"
	corecfg "github.com/beanmart/salesmart/internal/core/config"
	"github.com/beanmart/salesmart/internal/core/mart"
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/beanmart/salesmart/internal/core/storage/memory"
	"github.com/beanmart/salesmart/internal/core/storage/postgres"
	"github.com/beanmart/salesmart/internal/ingestion"
	"github.com/beanmart/salesmart/internal/loader"
	"github.com/beanmart/salesmart/internal/migrations"
	"github.com/beanmart/salesmart/internal/projection"
	"github.com/beanmart/salesmart/internal/report"
	"github.com/beanmart/salesmart/internal/server"
)

func main() {
	configPath := flag.String("config", "salesmart.yaml", "Path to configuration file")
	loadDir := flag.String("load", "", "Directory with customers.csv, products.csv and orders.csv to load on startup (overrides loader.data_dir)")
	flag.Parse()

	// 0. Initialize Logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	// 1. Load Configuration
	cfg, err := corecfg.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	slog.Info("Loaded config",
		"database", cfg.Database.Type,
		"report_enabled", cfg.Report.Enabled,
		"report_jobs", len(cfg.Jobs))

	high, low, err := cfg.Analytics.Thresholds()
	if err != nil {
		slog.Error("Invalid analytics thresholds", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 2. Initialize Storage; every fact mutation runs the mart maintainer in its transaction.
	maintainer := mart.NewMaintainer()
	var store storage.Store
	switch cfg.Database.Type {
	case "postgres":
		db, err := postgres.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			slog.Error("Failed to initialize database", "error", err)
			os.Exit(1)
		}

		// 2.1. Run Database Migrations
		if err := migrations.Run(db, cfg.Database.AutoMigrate); err != nil {
			slog.Error("Failed to run database migrations", "error", err)
			os.Exit(1)
		}

		adapter := postgres.NewAdapter(db, maintainer)
		if err := adapter.ValidateSchema(ctx); err != nil {
			slog.Error("Database schema is not ready", "error", err)
			os.Exit(1)
		}
		defer adapter.Close()
		store = adapter
	default:
		store = memory.NewStore(maintainer)
	}

	// 3. Optional startup load from the three CSV sources
	dataDir := cfg.Loader.DataDir
	if *loadDir != "" {
		dataDir = *loadDir
	}
	if dataDir != "" {
		res, err := loader.New(store, loader.UUIDGenerator).LoadDir(ctx, dataDir)
		if err != nil {
			slog.Error("Failed to load source data", "dir", dataDir, "error", err)
			os.Exit(1)
		}
		slog.Info("Source data loaded", "dir", dataDir, "inserted", res.Inserted)
	}

	// 4. Initialize Reports and Analytics
	reportSvc := report.NewService(store)
	archive := report.NewArchive()
	analyticsSvc := analytics.NewService(store, analytics.Thresholds{High: high, Low: low})

	// 5. Initialize Ingestion and Projection
	ingestionSvc := ingestion.NewService(store, cfg.Server.MaxBodySizeMB)
	projectionSvc := projection.NewService(store, reportSvc, archive, analyticsSvc)

	// 6. Initialize Server
	srv := server.New(fmtAddr(cfg.Server.Host, cfg.Server.Port), store, cfg.Database.Type, cfg.Server.Mode)
	ingestionSvc.RegisterRoutes(srv.Engine)
	projectionSvc.RegisterRoutes(srv.Engine)

	// 7. Start Services
	if cfg.Report.Enabled {
		scheduler := report.NewScheduler(cfg.Report.Interval(), reportSvc, cfg.Jobs, archive)
		go func() {
			if err := scheduler.Start(ctx); err != nil {
				slog.Error("Report scheduler stopped with error", "error", err)
			}
		}()
	} else {
		slog.Info("Report scheduler disabled by config")
	}

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		slog.Info("Signal received, shutting down...")
		cancel()
	}()

	// HTTP server blocks until ctx is cancelled.
	if err := srv.Run(ctx); err != nil {
		slog.Error("Server stopped with error", "error", err)
	}

	slog.Info("Shutdown complete")
}

func fmtAddr(host string, port int) string {
	return fmt.Sprintf("%s:%d", host, port)
}
