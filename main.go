package main

import (
	"context"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"

	"transitvet/adapters/forest"
	"transitvet/adapters/postgres"
	"transitvet/adapters/refstats"
	"transitvet/adapters/tabular"
	"transitvet/app"
	"transitvet/internal"
	"transitvet/internal/api"
	"transitvet/internal/config"
	"transitvet/internal/migration"
	"transitvet/ports"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Configuration error: %v", err)
	}
	logger := internal.DefaultLogger
	ctx := context.Background()

	runs := initRunRepository(ctx, cfg, logger)

	scoring := app.NewScoringService(
		tabular.NewReader(), refstats.NewStore(), forest.NewStore(), runs, logger,
	)
	if err := scoring.Load(ctx, cfg.Artifacts.ModelPath, cfg.Artifacts.StatsPath); err != nil {
		// The server still answers health and runs; scoring endpoints
		// report the missing model until artifacts appear and it restarts.
		logger.Warn("no model loaded: %v", err)
		logger.Warn("train one first: transitvet-cli train <catalog.csv>")
	}

	server := api.NewServer(scoring, tabular.NewReader(), runs, logger)
	httpServer := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("transitvet serving on port %s", cfg.Server.Port)
	if err := httpServer.ListenAndServe(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}

// initRunRepository connects the audit trail when a database is
// configured and degrades to the no-op repository otherwise. Audit is
// optional infrastructure: a missing or unreachable database is never
// fatal.
func initRunRepository(ctx context.Context, cfg *config.Config, logger *internal.Logger) ports.RunRepository {
	if cfg.Database.URL == "" {
		logger.Info("DATABASE_URL not set, run audit trail disabled")
		return postgres.NewNopRunRepository()
	}

	db, err := sqlx.Connect("postgres", cfg.Database.URL)
	if err != nil {
		logger.Warn("run audit trail disabled, database unreachable: %v", err)
		return postgres.NewNopRunRepository()
	}

	if cfg.Database.AutoMigrate {
		if err := migration.NewRunner().Run(ctx, db); err != nil {
			logger.Warn("run audit trail disabled, migration failed: %v", err)
			return postgres.NewNopRunRepository()
		}
	}

	logger.Info("run audit trail enabled")
	return postgres.NewRunRepository(db)
}
