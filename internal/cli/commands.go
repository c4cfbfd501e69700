package cli

import (
	"context"
	"fmt"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	gormdb "github.com/thebtf/archivable/internal/db/gorm"
	"github.com/thebtf/archivable/internal/fixtures"
	"github.com/thebtf/archivable/internal/server"
)

// shutdownTimeout bounds graceful shutdown of the API server.
const shutdownTimeout = 30 * time.Second

func newMigrateCommand() *cobra.Command {
	var rollback bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the archive schema",
		Example: `  archivist migrate --db ./archive.db
  archivist migrate --rollback`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			store, err := openStore(getConfig(cmd))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if rollback {
				if err := store.RollbackLast(); err != nil {
					return fmt.Errorf("rollback: %w", err)
				}
				log.Info().Msg("Rolled back last migration")
				return nil
			}
			log.Info().Str("dialect", store.Dialect().Name()).Msg("Schema is up to date")
			return nil
		},
	}
	cmd.Flags().BoolVar(&rollback, "rollback", false, "revert the most recent migration")
	return cmd
}

func newSeedCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "seed <dir>",
		Short: "Load entries.yml and comments.yml fixtures",
		Long: `Load named YAML fixtures from a directory into the database.

Each file maps a fixture name to a record:

  first_entry:
    id: 1
    title: Hello
    created_at: 2006-09-15 12:00:00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			set, err := fixtures.Load(args[0])
			if err != nil {
				return err
			}

			store, err := openStore(getConfig(cmd))
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := fixtures.Seed(cmd.Context(), store, set); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "seeded %d entries and %d comments\n", len(set.Entries), len(set.Comments))
			return nil
		},
	}
}

func newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the archive query API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := getConfig(cmd)
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			svc := server.New(cfg, store)
			if err := svc.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			log.Info().Msg("Received shutdown signal")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			return svc.Shutdown(shutdownCtx)
		},
	}
	cmd.Flags().Int("port", 0, "HTTP port")
	return cmd
}

func newByDateCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "by-date <date>",
		Short: "List records archived on a year, month or day",
		Example: `  archivist by-date 2007
  archivist by-date 2007-07 --count
  archivist by-date 7/4/2007 --resource comments --entry 1`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, &f, query{intent: intentByDate, args: []any{args[0]}})
		},
	}
	f.register(cmd, true)
	return cmd
}

func newBetweenCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:     "between <start> <end>",
		Short:   "List records archived in an inclusive date range",
		Example: `  archivist between 6/6/2006 6/6/2007 --count`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, &f, query{intent: intentBetween, args: []any{args[0], args[1]}})
		},
	}
	f.register(cmd, true)
	return cmd
}

func newRecentCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "recent [days]",
		Short: "List records archived in the last N days",
		Long:  "List records archived in the last N days. N defaults to dates.recent_days (365).",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			days := getConfig(cmd).Dates.RecentDays
			if len(args) == 1 {
				n, err := strconv.Atoi(args[0])
				if err != nil || n < 0 {
					return fmt.Errorf("days must be a non-negative integer, got %q", args[0])
				}
				days = n
			}
			return runQuery(cmd, &f, query{intent: intentRecent, days: days})
		},
	}
	f.register(cmd, true)
	return cmd
}

func newFirstCommand(intent, short string) *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   intent,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, &f, query{intent: intent})
		},
	}
	f.register(cmd, false)
	return cmd
}

func newCountCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count all records of a resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runQuery(cmd, &f, query{intent: intentCount})
		},
	}
	f.register(cmd, false)
	return cmd
}

// Summary is an overview of one resource's archive.
type Summary struct {
	Oldest     *time.Time `json:"oldest"`
	Newest     *time.Time `json:"newest"`
	Resource   string     `json:"resource"`
	Total      int64      `json:"total"`
	Recent     int64      `json:"recent"`
	RecentDays int        `json:"recent_days"`
}

// summarize runs the four summary queries concurrently.
func summarize[T any](ctx context.Context, st *gormdb.ArchiveStore[T], resource string, days int, stamp func(*T) time.Time) (*Summary, error) {
	s := &Summary{Resource: resource, RecentDays: days}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		n, err := st.CountAll(ctx)
		s.Total = n
		return err
	})
	g.Go(func() error {
		n, err := st.CountRecent(ctx, days)
		s.Recent = n
		return err
	})
	g.Go(func() error {
		row, err := st.Oldest(ctx)
		if row != nil {
			t := stamp(row)
			s.Oldest = &t
		}
		return err
	})
	g.Go(func() error {
		row, err := st.Newest(ctx)
		if row != nil {
			t := stamp(row)
			s.Newest = &t
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s, nil
}

// summary dispatches summarize to the store selected by f.
func (s *stores) summary(ctx context.Context, f *queryFlags, days int) (*Summary, error) {
	if f.resource == gormdb.CommentTable {
		st := s.comments.ArchiveStore
		if f.entry > 0 {
			st = s.comments.ForEntry(f.entry)
		}
		return summarize(ctx, st, f.resource, days, func(c *gormdb.Comment) time.Time { return c.RepliedOn })
	}
	return summarize(ctx, s.entries.ArchiveStore, f.resource, days, func(e *gormdb.Entry) time.Time { return e.CreatedAt })
}

func newSummaryCommand() *cobra.Command {
	var f queryFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Show totals and the archive date span of a resource",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := f.validate(); err != nil {
				return err
			}
			cfg := getConfig(cmd)
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			s, err := newStores(cfg, store).summary(cmd.Context(), &f, cfg.Dates.RecentDays)
			if err != nil {
				return err
			}
			return render(cmd.OutOrStdout(), cfg.Output, s)
		},
	}
	f.register(cmd, false)
	return cmd
}
