package gorm

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/thebtf/archivable/pkg/archive"
)

// CommentTable is the table comments are archived in.
const CommentTable = "comments"

// CommentStore provides comment-related database operations using GORM.
type CommentStore struct {
	*ArchiveStore[Comment]
	db *gorm.DB
}

// NewCommentStore creates a new comment store. Comments are archived on
// replied_on unless opts name another attribute.
func NewCommentStore(store *Store, opts ...archive.Option) *CommentStore {
	opts = append([]archive.Option{archive.On("replied_on")}, opts...)
	return &CommentStore{
		ArchiveStore: NewArchiveStore[Comment](store, archive.New(CommentTable, opts...)),
		db:           store.DB,
	}
}

// ForEntry returns an archive store restricted to the comments of one entry.
// All date queries run on it are scoped to that entry.
func (s *CommentStore) ForEntry(entryID int64) *ArchiveStore[Comment] {
	return s.Where(BelongsTo(CommentTable, "entry_id", entryID))
}

// Create inserts a comment and returns its ID.
func (s *CommentStore) Create(ctx context.Context, c *Comment) (int64, error) {
	if err := s.db.WithContext(ctx).Create(c).Error; err != nil {
		return 0, fmt.Errorf("create comment: %w", err)
	}
	return c.ID, nil
}

// CreateBatch inserts comments in a single transaction.
func (s *CommentStore) CreateBatch(ctx context.Context, comments []Comment) error {
	if len(comments) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.CreateInBatches(comments, 100).Error
	})
}

// Get returns the comment with id, or nil if it does not exist.
func (s *CommentStore) Get(ctx context.Context, id int64) (*Comment, error) {
	var c Comment
	err := s.db.WithContext(ctx).First(&c, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get comment %d: %w", id, err)
	}
	return &c, nil
}
