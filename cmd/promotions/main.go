/*
main.go - Application entry point

PURPOSE:
  CLI of the promotion engine. One binary serves the HTTP API and runs the
  same reports from the command line against the configured database.

COMMANDS:
  serve                    HTTP API with graceful shutdown
  forecast [--corps QOEM]  Roster forecast
  vacancies                Vacancy report per corps
  board <corps> <rank>     Promotion board of one rank
  statute show             Rule and seat tables in force
  statute check <file>     Validate a statute file
  seed <scenario>          Load a demo roster (resets the database)

GLOBAL FLAGS:
  --config     YAML config file (missing file: defaults)
  --db         SQLite path, overrides database.path
  --statute    Statute file, overrides statute.path
  --log-level  Overrides logging.level
  --as-of      Reference date YYYY-MM-DD for reports
  --json       JSON output instead of tables

ENVIRONMENT:
  PROMO_PORT, PROMO_DB, PROMO_STATUTE, PROMO_LOG_LEVEL, PROMO_TZ

SEE ALSO:
  - config/config.go: configuration file and overrides
  - api/server.go: Router configuration
*/
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/cbm/promotion-engine/config"
	"github.com/cbm/promotion-engine/generic"
	"github.com/cbm/promotion-engine/logging"
)

var (
	// Global flags
	configPath  string
	dbPath      string
	statutePath string
	logLevel    string
	asOfFlag    string
	jsonOutput  bool

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "promotions",
	Short: "Promotion forecast engine for the fire department roster",
	Long: `Forecasts when each member becomes eligible for the next rank, accounts
statutory seats per corps and builds promotion boards.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if dbPath != "" {
			cfg.Database.Path = dbPath
		}
		if statutePath != "" {
			cfg.Statute.Path = statutePath
		}
		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		logger, err = logging.New(cfg.Logging)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "promotions.yaml", "config file")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "SQLite database path (\":memory:\" for in-memory)")
	rootCmd.PersistentFlags().StringVar(&statutePath, "statute", "", "statute file (YAML or JSON)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&asOfFlag, "as-of", "", "reference date YYYY-MM-DD (default: today)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "print JSON")

	rootCmd.AddCommand(serveCmd, forecastCmd, vacanciesCmd, boardCmd, statuteCmd, seedCmd)
}

// referenceTime parses --as-of. Zero means the service clock.
func referenceTime() (time.Time, error) {
	if asOfFlag == "" {
		return time.Time{}, nil
	}
	d, err := generic.ParseDate("as-of", asOfFlag)
	if err != nil {
		return time.Time{}, err
	}
	return d.Time, nil
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
