// Package cli provides the archivist command-line interface.
package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/thebtf/archivable/internal/config"
	gormdb "github.com/thebtf/archivable/internal/db/gorm"
)

// Version information (set at build time).
var Version = "dev"

// configKey is used to store config in context.
type configKey struct{}

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "archivist",
		Short: "Query archived records by date",
		Long: `archivist answers date-archive questions about journal entries and their
comments: everything on a day, in a month or year, between two dates, in the
last N days, and the oldest or newest record.

Dates may be written as 2007, 2007-07, 2007-07-04, 7/4/2007 or "July 4, 2007".`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.Load(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}
			setupLogging(cfg)

			cmd.SetContext(context.WithValue(cmd.Context(), configKey{}, cfg))
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./"+config.DefaultFile+")")
	flags.String("db", "", "SQLite database path")
	flags.String("dsn", "", "PostgreSQL DSN (used when --db is empty)")
	flags.String("log-level", "", "log level (debug|info|warn|error)")
	flags.Bool("day-first", false, "read 4/7/2007 as 4 July")
	flags.String("timezone", "", "time zone for parsing dates (default UTC)")
	flags.StringP("output", "o", "", "output format (table|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.OutputTable, config.OutputJSON}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(
		newMigrateCommand(),
		newSeedCommand(),
		newServeCommand(),
		newByDateCommand(),
		newBetweenCommand(),
		newRecentCommand(),
		newFirstCommand("oldest", "Show the record with the earliest archive date"),
		newFirstCommand("newest", "Show the record with the latest archive date"),
		newCountCommand(),
		newSummaryCommand(),
	)

	return rootCmd
}

// Execute runs the root command.
func Execute(ctx context.Context) error {
	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// setupLogging applies the configured level and console format.
func setupLogging(cfg *config.Config) {
	zerolog.SetGlobalLevel(cfg.LogLevel())
	if cfg.Log.Pretty {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}
}

// getConfig retrieves the config from the command context.
func getConfig(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.Default()
}

// openStore opens and migrates the configured database.
func openStore(cfg *config.Config) (*gormdb.Store, error) {
	if cfg.DB.Path != "" && cfg.DB.Path != ":memory:" {
		if dir := filepath.Dir(cfg.DB.Path); dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return nil, fmt.Errorf("create database directory: %w", err)
			}
		}
	}
	return gormdb.NewStore(cfg.StoreConfig())
}
