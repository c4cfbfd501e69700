package gorm

import (
	"time"

	"gorm.io/gorm"

	"github.com/thebtf/archivable/pkg/archive"
)

// Scope is a GORM scope that applies an archive predicate: its clauses as a
// single WHERE expression and its ordering, if any. Time arguments are bound
// in UTC, the zone archive timestamps are stored in.
//
// Example usage:
//
//	p, _ := builder.ByDate("2007-07-04")
//	db.Scopes(gorm.Scope(p, archive.Postgres)).Find(&entries)
func Scope(p archive.Predicate, d archive.Dialect) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if cond, args := p.SQL(d); cond != "" {
			db = db.Where(cond, utcArgs(args)...)
		}
		if p.Order != nil {
			db = db.Order(p.Order.SQL())
		}
		return db
	}
}

// BelongsTo is a GORM scope restricting rows to one parent via a foreign key
// column qualified with table.
func BelongsTo(table, foreignKey string, id int64) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(table+"."+foreignKey+" = ?", id)
	}
}

func utcArgs(args []any) []any {
	out := make([]any, len(args))
	for i, arg := range args {
		if t, ok := arg.(time.Time); ok {
			arg = t.UTC()
		}
		out[i] = arg
	}
	return out
}
