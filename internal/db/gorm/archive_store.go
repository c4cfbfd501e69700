package gorm

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/archivable/pkg/archive"
)

// QueryOption adjusts a single archive query, like the options hash of a
// finder call.
type QueryOption func(*queryOptions)

type queryOptions struct {
	scopes []func(*gorm.DB) *gorm.DB
	limit  int
	offset int
}

// WithLimit caps the number of rows returned by list queries.
func WithLimit(n int) QueryOption {
	return func(o *queryOptions) { o.limit = n }
}

// WithOffset skips rows in list queries.
func WithOffset(n int) QueryOption {
	return func(o *queryOptions) { o.offset = n }
}

// WithScope adds an extra GORM scope to the query.
func WithScope(scope func(*gorm.DB) *gorm.DB) QueryOption {
	return func(o *queryOptions) { o.scopes = append(o.scopes, scope) }
}

// ArchiveStore executes archive predicates against the table of T.
type ArchiveStore[T any] struct {
	store   *Store
	db      *gorm.DB
	builder *archive.Builder
	scopes  []func(*gorm.DB) *gorm.DB
}

// NewArchiveStore creates an archive store for T using builder.
func NewArchiveStore[T any](store *Store, builder *archive.Builder) *ArchiveStore[T] {
	return &ArchiveStore[T]{store: store, db: store.DB, builder: builder}
}

// Builder returns the predicate builder of this record type.
func (s *ArchiveStore[T]) Builder() *archive.Builder {
	return s.builder
}

// Where returns a copy of the store whose queries are all narrowed by scopes.
func (s *ArchiveStore[T]) Where(scopes ...func(*gorm.DB) *gorm.DB) *ArchiveStore[T] {
	narrowed := *s
	narrowed.scopes = append(append([]func(*gorm.DB) *gorm.DB(nil), s.scopes...), scopes...)
	return &narrowed
}

func (s *ArchiveStore[T]) query(ctx context.Context, p archive.Predicate, opts []QueryOption, paged bool) *gorm.DB {
	var o queryOptions
	for _, opt := range opts {
		opt(&o)
	}

	q := s.db.WithContext(ctx).Model(new(T)).
		Scopes(s.scopes...).
		Scopes(o.scopes...).
		Scopes(Scope(p, s.store.dialect))

	if paged {
		if o.limit > 0 {
			q = q.Limit(o.limit)
		}
		if o.offset > 0 {
			q = q.Offset(o.offset)
		}
	}
	return q
}

// FindAll returns every row matching p, in p's order.
func (s *ArchiveStore[T]) FindAll(ctx context.Context, p archive.Predicate, opts ...QueryOption) ([]T, error) {
	ctx, done := s.store.WithTimeout(ctx, 0, s.builder.Table()+".find_all")
	defer done()

	start := time.Now()
	var rows []T
	err := s.query(ctx, p, opts, true).Find(&rows).Error
	s.store.observe(ctx, s.builder.Table(), "find_all", start, err)
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", s.builder.Table(), err)
	}
	return rows, nil
}

// FindFirst returns the first row under p's order, or nil if none matches.
func (s *ArchiveStore[T]) FindFirst(ctx context.Context, p archive.Predicate, opts ...QueryOption) (*T, error) {
	ctx, done := s.store.WithTimeout(ctx, 0, s.builder.Table()+".find_first")
	defer done()

	start := time.Now()
	var row T
	err := s.query(ctx, p, opts, false).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		s.store.observe(ctx, s.builder.Table(), "find_first", start, nil)
		return nil, nil
	}
	s.store.observe(ctx, s.builder.Table(), "find_first", start, err)
	if err != nil {
		return nil, fmt.Errorf("find first %s: %w", s.builder.Table(), err)
	}
	return &row, nil
}

// Count returns the number of rows matching p. Ordering and paging are ignored.
func (s *ArchiveStore[T]) Count(ctx context.Context, p archive.Predicate, opts ...QueryOption) (int64, error) {
	ctx, done := s.store.WithTimeout(ctx, 0, s.builder.Table()+".count")
	defer done()

	start := time.Now()
	var n int64
	err := s.query(ctx, p.Counting(), opts, false).Count(&n).Error
	s.store.observe(ctx, s.builder.Table(), "count", start, err)
	if err != nil {
		return 0, fmt.Errorf("count %s: %w", s.builder.Table(), err)
	}
	return n, nil
}

// ByDate returns rows dated on the given (partial) date.
func (s *ArchiveStore[T]) ByDate(ctx context.Context, date any, opts ...QueryOption) ([]T, error) {
	p, err := s.builder.ByDate(date)
	if err != nil {
		return nil, err
	}
	return s.FindAll(ctx, p, opts...)
}

// CountByDate counts rows dated on the given (partial) date.
func (s *ArchiveStore[T]) CountByDate(ctx context.Context, date any, opts ...QueryOption) (int64, error) {
	p, err := s.builder.CountByDate(date)
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, p, opts...)
}

// Recent returns rows dated within the last days.
func (s *ArchiveStore[T]) Recent(ctx context.Context, days int, opts ...QueryOption) ([]T, error) {
	return s.FindAll(ctx, s.builder.Recent(days), opts...)
}

// CountRecent counts rows dated within the last days.
func (s *ArchiveStore[T]) CountRecent(ctx context.Context, days int, opts ...QueryOption) (int64, error) {
	return s.Count(ctx, s.builder.CountRecent(days), opts...)
}

// Between returns rows dated in the inclusive range.
func (s *ArchiveStore[T]) Between(ctx context.Context, start, end any, opts ...QueryOption) ([]T, error) {
	p, err := s.builder.Between(start, end)
	if err != nil {
		return nil, err
	}
	return s.FindAll(ctx, p, opts...)
}

// CountBetween counts rows dated in the inclusive range.
func (s *ArchiveStore[T]) CountBetween(ctx context.Context, start, end any, opts ...QueryOption) (int64, error) {
	p, err := s.builder.CountBetween(start, end)
	if err != nil {
		return 0, err
	}
	return s.Count(ctx, p, opts...)
}

// Oldest returns the row with the earliest archive timestamp.
func (s *ArchiveStore[T]) Oldest(ctx context.Context, opts ...QueryOption) (*T, error) {
	return s.FindFirst(ctx, s.builder.Oldest(), opts...)
}

// Newest returns the row with the latest archive timestamp.
func (s *ArchiveStore[T]) Newest(ctx context.Context, opts ...QueryOption) (*T, error) {
	return s.FindFirst(ctx, s.builder.Newest(), opts...)
}

// CountAll counts every row visible to the store.
func (s *ArchiveStore[T]) CountAll(ctx context.Context, opts ...QueryOption) (int64, error) {
	return s.Count(ctx, archive.Predicate{}, opts...)
}
