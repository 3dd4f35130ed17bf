package app

import (
	"database/sql"
	"fmt"

	"github.com/gin-gonic/gin"

	"github.com/guttosm/fiscalpulse/config"
	"github.com/guttosm/fiscalpulse/internal/api"
	"github.com/guttosm/fiscalpulse/internal/archive"
	"github.com/guttosm/fiscalpulse/internal/ingestion"
	"github.com/guttosm/fiscalpulse/internal/metrics"
	"github.com/guttosm/fiscalpulse/internal/render"
	"github.com/guttosm/fiscalpulse/internal/service"
	"github.com/guttosm/fiscalpulse/internal/storage"
	"github.com/guttosm/fiscalpulse/internal/tax"
)

// Settings translates the configuration into pipeline and rendering
// settings. Run progress goes to the structured log and to Prometheus.
func Settings(cfg config.Config) (service.Settings, error) {
	rates, err := tax.LoadNominalRates(cfg.Report.NominalRatesFile)
	if err != nil {
		return service.Settings{}, fmt.Errorf("nominal rates: %w", err)
	}
	return service.Settings{
		Archive: archive.Options{
			Ext:      cfg.Report.InputExt,
			Encoding: cfg.Report.SourceEncoding,
		},
		Run: ingestion.Options{
			NominalRates: rates,
			Sink:         ingestion.MultiSink{ingestion.LogSink{}, metrics.Default()},
		},
		Render: render.Options{FontPath: cfg.Report.PDFFont},
	}, nil
}

// InitializeApp sets up all application dependencies and returns
// a fully configured Gin router, a cleanup function for graceful shutdown,
// and any error encountered during initialization.
//
// Postgres is only connected when persistence is enabled; without it the
// summary endpoint answers 503 and /readyz skips the database check.
func InitializeApp() (*gin.Engine, func(), error) {
	cfg := config.AppConfig

	settings, err := Settings(cfg)
	if err != nil {
		return nil, nil, err
	}

	var (
		db   *sql.DB
		repo storage.ReportsRepository
	)
	if cfg.Persist {
		// indirection for unit testing
		db, err = postgresOpener(cfg)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize postgres: %w", err)
		}
		repo = storage.NewReportsRepository(db)
	}

	svc := service.NewReportService(repo, settings)
	handler := api.NewHandler(svc, cfg.Server.MaxUploadMB)
	router := api.NewRouter(handler)

	healthHandler := api.NewHealthHandler(nil)
	if db != nil {
		healthHandler = api.NewHealthHandler(db.PingContext)
	}
	healthHandler.Register(router)

	cleanup := func() {
		if db != nil {
			_ = db.Close()
		}
	}

	return router, cleanup, nil
}
