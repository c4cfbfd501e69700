package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/thebtf/archivable/pkg/archive"
)

// EntryTable is the table entries are archived in.
const EntryTable = "entries"

// EntryStore provides entry-related database operations using GORM.
// Archive queries are promoted from the embedded ArchiveStore.
type EntryStore struct {
	*ArchiveStore[Entry]
	db *gorm.DB
}

// NewEntryStore creates a new entry store. Entries are archived on
// created_at unless opts name another attribute.
func NewEntryStore(store *Store, opts ...archive.Option) *EntryStore {
	return &EntryStore{
		ArchiveStore: NewArchiveStore[Entry](store, archive.New(EntryTable, opts...)),
		db:           store.DB,
	}
}

// Create inserts an entry and returns its ID.
func (s *EntryStore) Create(ctx context.Context, e *Entry) (int64, error) {
	if err := s.db.WithContext(ctx).Create(e).Error; err != nil {
		return 0, fmt.Errorf("create entry: %w", err)
	}
	return e.ID, nil
}

// CreateBatch inserts entries in a single transaction.
func (s *EntryStore) CreateBatch(ctx context.Context, entries []Entry) error {
	if len(entries) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(entries, 100).Error
	})
}

// Get returns the entry with id, or nil if it does not exist.
func (s *EntryStore) Get(ctx context.Context, id int64) (*Entry, error) {
	var e Entry
	err := s.db.WithContext(ctx).First(&e, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get entry %d: %w", id, err)
	}
	return &e, nil
}
