// Package gorm provides GORM-based storage and date-scoped querying for
// archivable records.
//
// A Store wraps one SQLite or PostgreSQL connection. Record stores embed an
// ArchiveStore, which turns archive.Builder predicates into GORM scopes:
//
//	store, err := gorm.NewStore(gorm.Config{
//	    Path:     "/path/to/archive.db",
//	    LogLevel: logger.Silent,
//	})
//	entries := gorm.NewEntryStore(store, archive.Ordered(archive.Desc))
//	july4, err := entries.ByDate(ctx, "2007-07-04")
//	n, err := entries.CountBetween(ctx, "2006-06-06", "2007-06-06")
//
// Comments are archived on replied_on and can be narrowed to one entry:
//
//	comments := gorm.NewCommentStore(store)
//	n, err := comments.ForEntry(1).CountByDate(ctx, archive.MonthOf(2006, 10))
//
// # Testing
//
// Tests against a real SQLite file require the integration build tag:
//
//	go test -tags "integration" -v ./internal/db/gorm
package gorm
