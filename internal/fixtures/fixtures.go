// Package fixtures loads named YAML fixtures of entries and comments and
// seeds them into an archive store.
package fixtures

import (
	"cmp"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	gormdb "github.com/thebtf/archivable/internal/db/gorm"
)

const (
	// EntriesFile is the fixture file holding entries.
	EntriesFile = "entries.yml"
	// CommentsFile is the fixture file holding comments.
	CommentsFile = "comments.yml"
)

// timestampLayouts are tried in order. Zone-less layouts are read as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05Z07:00",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Timestamp is a fixture time value. It accepts the layouts in
// timestampLayouts regardless of how YAML would resolve the scalar.
type Timestamp struct {
	time.Time
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (t *Timestamp) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: timestamp must be a scalar", node.Line)
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.ParseInLocation(layout, node.Value, time.UTC); err == nil {
			t.Time = parsed.UTC()
			return nil
		}
	}
	return fmt.Errorf("line %d: unrecognized timestamp %q", node.Line, node.Value)
}

type entryFixture struct {
	Title     string    `yaml:"title"`
	Body      string    `yaml:"body"`
	CreatedAt Timestamp `yaml:"created_at"`
	ID        int64     `yaml:"id"`
}

type commentFixture struct {
	Body      string    `yaml:"body"`
	RepliedOn Timestamp `yaml:"replied_on"`
	ID        int64     `yaml:"id"`
	EntryID   int64     `yaml:"entry_id"`
}

// Set is a loaded fixture set, with records in id order.
type Set struct {
	Entries  []gormdb.Entry
	Comments []gormdb.Comment
}

// Load reads entries.yml and comments.yml from dir. A missing file yields an
// empty slice for that record type.
func Load(dir string) (*Set, error) {
	entries, err := readFile[entryFixture](filepath.Join(dir, EntriesFile))
	if err != nil {
		return nil, err
	}
	comments, err := readFile[commentFixture](filepath.Join(dir, CommentsFile))
	if err != nil {
		return nil, err
	}
	return build(entries, comments)
}

// Parse decodes fixture documents already in memory.
func Parse(entriesYAML, commentsYAML []byte) (*Set, error) {
	entries, err := decode[entryFixture](entriesYAML)
	if err != nil {
		return nil, fmt.Errorf("decode entries: %w", err)
	}
	comments, err := decode[commentFixture](commentsYAML)
	if err != nil {
		return nil, fmt.Errorf("decode comments: %w", err)
	}
	return build(entries, comments)
}

func readFile[T any](path string) (map[string]T, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		log.Debug().Str("path", path).Msg("Fixture file not found, skipping")
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	fixtures, err := decode[T](data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return fixtures, nil
}

func decode[T any](data []byte) (map[string]T, error) {
	var fixtures map[string]T
	if err := yaml.Unmarshal(data, &fixtures); err != nil {
		return nil, err
	}
	return fixtures, nil
}

func build(entries map[string]entryFixture, comments map[string]commentFixture) (*Set, error) {
	set := &Set{
		Entries:  make([]gormdb.Entry, 0, len(entries)),
		Comments: make([]gormdb.Comment, 0, len(comments)),
	}

	for name, f := range entries {
		if f.ID <= 0 {
			return nil, fmt.Errorf("entry fixture %q: id is required", name)
		}
		if f.CreatedAt.IsZero() {
			return nil, fmt.Errorf("entry fixture %q: created_at is required", name)
		}
		set.Entries = append(set.Entries, gormdb.Entry{
			ID:        f.ID,
			Title:     f.Title,
			Body:      f.Body,
			CreatedAt: f.CreatedAt.Time,
		})
	}

	for name, f := range comments {
		if f.ID <= 0 {
			return nil, fmt.Errorf("comment fixture %q: id is required", name)
		}
		if f.EntryID <= 0 {
			return nil, fmt.Errorf("comment fixture %q: entry_id is required", name)
		}
		set.Comments = append(set.Comments, gormdb.Comment{
			ID:        f.ID,
			EntryID:   f.EntryID,
			Body:      f.Body,
			RepliedOn: f.RepliedOn.Time,
		})
	}

	slices.SortFunc(set.Entries, func(a, b gormdb.Entry) int { return cmp.Compare(a.ID, b.ID) })
	slices.SortFunc(set.Comments, func(a, b gormdb.Comment) int { return cmp.Compare(a.ID, b.ID) })
	return set, nil
}

// Seed inserts every record of set, entries first.
func Seed(ctx context.Context, store *gormdb.Store, set *Set) error {
	if err := gormdb.NewEntryStore(store).CreateBatch(ctx, set.Entries); err != nil {
		return fmt.Errorf("seed entries: %w", err)
	}
	if err := gormdb.NewCommentStore(store).CreateBatch(ctx, set.Comments); err != nil {
		return fmt.Errorf("seed comments: %w", err)
	}
	log.Info().
		Int("entries", len(set.Entries)).
		Int("comments", len(set.Comments)).
		Msg("Fixtures seeded")
	return nil
}
