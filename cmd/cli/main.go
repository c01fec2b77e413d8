package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"

	"github.com/jmoiron/sqlx"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"transitvet/adapters/forest"
	"transitvet/adapters/postgres"
	"transitvet/adapters/refstats"
	"transitvet/adapters/sampling"
	"transitvet/adapters/tabular"
	"transitvet/app"
	"transitvet/internal"
	"transitvet/internal/api"
	"transitvet/internal/config"
	"transitvet/internal/migration"
	"transitvet/ports"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "transitvet-cli",
		Short: "Train, run, and serve the transit-candidate disposition pipeline",
	}

	rootCmd.AddCommand(
		newTrainCmd(),
		newPreprocessCmd(),
		newPredictCmd(),
		newServeCmd(),
		newStatsCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newTrainCmd() *cobra.Command {
	var modelPath, statsPath, reportPath string
	var trees, maxDepth, minSplit, minLeaf int
	var seed int64

	cmd := &cobra.Command{
		Use:   "train [catalog-file]",
		Short: "Fit the classifier on a labeled catalog and freeze its paired artifacts",
		Long: `Run the full training path: quality report, cleaning pipeline with median
freezing, stratified split, oversampling, forest fit, holdout evaluation, and
the paired model + statistics artifact save.

Example: transitvet-cli train cumulative.csv --model artifacts/koi_classifier.gob --stats artifacts/reference_stats.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.DefaultLogger
			svc := app.NewTrainingService(
				tabular.NewReader(), refstats.NewStore(), forest.NewStore(),
				sampling.NewOversampler(seed), runRepository(logger), logger,
			)
			clf := forest.New(forest.Config{
				Trees: trees, MaxDepth: maxDepth, MinSplit: minSplit, MinLeaf: minLeaf, Seed: seed,
			})
			summary, err := svc.Train(cmd.Context(), clf, app.TrainRequest{
				InputPath:  args[0],
				ModelPath:  modelPath,
				StatsPath:  statsPath,
				ReportPath: reportPath,
			})
			if err != nil {
				return err
			}
			return printJSON(summary)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "artifacts/koi_classifier.gob", "Output path for the model bundle")
	cmd.Flags().StringVar(&statsPath, "stats", "artifacts/reference_stats.json", "Output path for the statistics artifact")
	cmd.Flags().StringVar(&reportPath, "report", "", "Optional output path for the dataset quality report")
	cmd.Flags().IntVar(&trees, "trees", 200, "Number of trees in the forest")
	cmd.Flags().IntVar(&maxDepth, "max-depth", 15, "Maximum tree depth")
	cmd.Flags().IntVar(&minSplit, "min-split", 5, "Minimum samples to split a node")
	cmd.Flags().IntVar(&minLeaf, "min-leaf", 2, "Minimum samples in a leaf")
	cmd.Flags().Int64Var(&seed, "seed", 42, "Random seed for deterministic training")

	return cmd
}

func newPreprocessCmd() *cobra.Command {
	var statsPath string

	cmd := &cobra.Command{
		Use:   "preprocess [input-file] [output-file]",
		Short: "Clean one table against frozen statistics and write the model-ready result",
		Long: `Run the serving pipeline file to file. The PipelineResult (row accounting
and ordered per-row diagnostics) prints to stdout as JSON; a structurally
failed run exits nonzero.

Example: transitvet-cli preprocess upload.csv clean.csv --stats artifacts/reference_stats.json`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.DefaultLogger
			svc := app.NewPreprocessService(
				tabular.NewReader(), tabular.NewWriter(), refstats.NewStore(),
				runRepository(logger), logger,
			)
			res, err := svc.Run(cmd.Context(), args[0], args[1], statsPath)
			if err != nil {
				return err
			}
			if err := printJSON(res); err != nil {
				return err
			}
			if !res.Success {
				os.Exit(1)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&statsPath, "stats", "artifacts/reference_stats.json", "Path to the statistics artifact")

	return cmd
}

func newPredictCmd() *cobra.Command {
	var modelPath, statsPath string

	cmd := &cobra.Command{
		Use:   "predict [input-file]",
		Short: "Score every candidate in a CSV or XLSX file",
		Long: `Load the paired model and statistics artifacts, run the input through the
pipeline, and print the batch prediction (result record plus one disposition
per surviving row) as JSON.

Example: transitvet-cli predict candidates.csv --model artifacts/koi_classifier.gob --stats artifacts/reference_stats.json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := internal.DefaultLogger
			svc := app.NewScoringService(
				tabular.NewReader(), refstats.NewStore(), forest.NewStore(),
				runRepository(logger), logger,
			)
			if err := svc.Load(cmd.Context(), modelPath, statsPath); err != nil {
				return err
			}
			batch, err := svc.ScoreFile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(batch)
		},
	}

	cmd.Flags().StringVar(&modelPath, "model", "artifacts/koi_classifier.gob", "Path to the model bundle")
	cmd.Flags().StringVar(&statsPath, "stats", "artifacts/reference_stats.json", "Path to the statistics artifact")

	return cmd
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the scoring HTTP API",
		Long: `Start the JSON API configured through the environment (PORT, MODEL_PATH,
STATS_PATH, DATABASE_URL). Equivalent to running the transitvet binary.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil {
				fmt.Fprintln(os.Stderr, "No .env file found, using environment variables")
			}
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger := internal.DefaultLogger
			runs := auditRepository(cmd.Context(), cfg, logger)

			svc := app.NewScoringService(
				tabular.NewReader(), refstats.NewStore(), forest.NewStore(),
				runs, logger,
			)
			if err := svc.Load(cmd.Context(), cfg.Artifacts.ModelPath, cfg.Artifacts.StatsPath); err != nil {
				logger.Warn("no model loaded: %v", err)
			}

			server := api.NewServer(svc, tabular.NewReader(), runs, logger)
			logger.Info("transitvet serving on port %s", cfg.Server.Port)
			httpServer := &http.Server{
				Addr:         ":" + cfg.Server.Port,
				Handler:      server.Handler(),
				ReadTimeout:  cfg.Server.ReadTimeout,
				WriteTimeout: cfg.Server.WriteTimeout,
			}
			return httpServer.ListenAndServe()
		},
	}
}

func newStatsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats [artifact-file]",
		Short: "Print a statistics artifact after validating it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			stats, err := refstats.NewStore().Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return printJSON(stats)
		},
	}
	return cmd
}

// runRepository is the one-shot commands' audit trail: always the no-op.
// Recording belongs to the long-running server; train, preprocess and
// predict report to stdout.
func runRepository(logger *internal.Logger) ports.RunRepository {
	logger.Debug("run audit trail disabled for CLI commands")
	return postgres.NewNopRunRepository()
}

// auditRepository connects the audit trail for serve when a database is
// configured, degrading to the no-op otherwise.
func auditRepository(ctx context.Context, cfg *config.Config, logger *internal.Logger) ports.RunRepository {
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
	return postgres.NewRunRepository(db)
}

func printJSON(v interface{}) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}
