// Package archive builds date-scoped query predicates for archivable record
// types.
//
// A record type gets one Builder, configured once with the timestamp
// attribute that dates its records and a default sort direction:
//
//	entries := archive.New("entries", archive.On("created_at"), archive.Ordered(archive.Desc))
//
// Query intents return a Predicate value that an executor applies:
//
//	p, err := entries.ByDate("2007-07-04")
//	cond, args := p.SQL(archive.Postgres)
//	// cond: EXTRACT(YEAR FROM entries.created_at) = ? AND EXTRACT(MONTH FROM ...) = ? AND ...
//	// args: [2007 7 4]
//
// Date inputs may be a DateSpec (year, year+month or full date), a date
// string understood by Parser, or a time.Time. Count variants (CountByDate,
// CountRecent, CountBetween) share the clauses of their find counterparts and
// carry no ordering.
package archive
