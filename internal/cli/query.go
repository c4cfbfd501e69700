package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thebtf/archivable/internal/config"
	gormdb "github.com/thebtf/archivable/internal/db/gorm"
)

// Query intents understood by execute.
const (
	intentByDate  = "by-date"
	intentBetween = "between"
	intentRecent  = "recent"
	intentOldest  = "oldest"
	intentNewest  = "newest"
	intentCount   = "count"
)

// queryFlags are the flags shared by every query command.
type queryFlags struct {
	resource string
	entry    int64
	count    bool
	limit    int
	offset   int
}

func (f *queryFlags) register(cmd *cobra.Command, countable bool) {
	cmd.Flags().StringVarP(&f.resource, "resource", "r", gormdb.EntryTable, "record type to query (entries|comments)")
	cmd.Flags().Int64Var(&f.entry, "entry", 0, "restrict comments to one entry id")
	if countable {
		cmd.Flags().BoolVarP(&f.count, "count", "c", false, "print the number of matches instead of the records")
		cmd.Flags().IntVar(&f.limit, "limit", 0, "maximum number of records to print")
		cmd.Flags().IntVar(&f.offset, "offset", 0, "number of records to skip")
	}
	_ = cmd.RegisterFlagCompletionFunc("resource", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{gormdb.EntryTable, gormdb.CommentTable}, cobra.ShellCompDirectiveNoFileComp
	})
}

func (f *queryFlags) validate() error {
	switch f.resource {
	case gormdb.EntryTable:
		if f.entry != 0 {
			return fmt.Errorf("--entry only applies to %s", gormdb.CommentTable)
		}
	case gormdb.CommentTable:
		if f.entry < 0 {
			return fmt.Errorf("--entry must be positive, got %d", f.entry)
		}
	default:
		return fmt.Errorf("unknown resource %q (want %s or %s)", f.resource, gormdb.EntryTable, gormdb.CommentTable)
	}
	if f.limit < 0 || f.offset < 0 {
		return fmt.Errorf("--limit and --offset must not be negative")
	}
	return nil
}

func (f *queryFlags) options() []gormdb.QueryOption {
	var opts []gormdb.QueryOption
	if f.limit > 0 {
		opts = append(opts, gormdb.WithLimit(f.limit))
	}
	if f.offset > 0 {
		opts = append(opts, gormdb.WithOffset(f.offset))
	}
	return opts
}

// query is one resolved CLI request.
type query struct {
	intent string
	args   []any
	days   int
	count  bool
	opts   []gormdb.QueryOption
}

// execute runs q against st. The result is an int64 for counts, a *T for
// oldest and newest (nil when nothing matches) and a []T otherwise.
func execute[T any](ctx context.Context, st *gormdb.ArchiveStore[T], q query) (any, error) {
	switch q.intent {
	case intentByDate:
		if q.count {
			return st.CountByDate(ctx, q.args[0])
		}
		return st.ByDate(ctx, q.args[0], q.opts...)
	case intentBetween:
		if q.count {
			return st.CountBetween(ctx, q.args[0], q.args[1])
		}
		return st.Between(ctx, q.args[0], q.args[1], q.opts...)
	case intentRecent:
		if q.count {
			return st.CountRecent(ctx, q.days)
		}
		return st.Recent(ctx, q.days, q.opts...)
	case intentOldest:
		return st.Oldest(ctx)
	case intentNewest:
		return st.Newest(ctx)
	case intentCount:
		return st.CountAll(ctx)
	default:
		return nil, fmt.Errorf("unknown query %q", q.intent)
	}
}

// stores holds the record stores of one CLI invocation.
type stores struct {
	entries  *gormdb.EntryStore
	comments *gormdb.CommentStore
}

func newStores(cfg *config.Config, store *gormdb.Store) *stores {
	return &stores{
		entries:  gormdb.NewEntryStore(store, cfg.ArchiveOptions(gormdb.EntryTable)...),
		comments: gormdb.NewCommentStore(store, cfg.ArchiveOptions(gormdb.CommentTable)...),
	}
}

// run dispatches q to the store selected by f.
func (s *stores) run(ctx context.Context, f *queryFlags, q query) (any, error) {
	if f.resource == gormdb.CommentTable {
		st := s.comments.ArchiveStore
		if f.entry > 0 {
			st = s.comments.ForEntry(f.entry)
		}
		return execute(ctx, st, q)
	}
	return execute(ctx, s.entries.ArchiveStore, q)
}

// runQuery opens the store, runs q and renders the result.
func runQuery(cmd *cobra.Command, f *queryFlags, q query) error {
	if err := f.validate(); err != nil {
		return err
	}
	cfg := getConfig(cmd)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	q.count = q.count || f.count
	q.opts = f.options()

	result, err := newStores(cfg, store).run(cmd.Context(), f, q)
	if err != nil {
		return err
	}
	return render(cmd.OutOrStdout(), cfg.Output, result)
}
