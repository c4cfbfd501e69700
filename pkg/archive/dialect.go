package archive

import (
	"fmt"
	"strings"
)

// Dialect renders date-part extraction for a SQL database.
type Dialect interface {
	Name() string
	Extract(part Part, column string) string
}

// Supported dialects.
var (
	MySQL    Dialect = mysqlDialect{}
	Postgres Dialect = postgresDialect{}
	SQLite   Dialect = sqliteDialect{}
)

// DialectFor maps a gorm dialector name to a Dialect.
func DialectFor(name string) (Dialect, error) {
	switch strings.ToLower(name) {
	case "mysql", "mariadb":
		return MySQL, nil
	case "postgres", "postgresql", "pgx":
		return Postgres, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", name)
	}
}

type mysqlDialect struct{}

func (mysqlDialect) Name() string { return "mysql" }

func (mysqlDialect) Extract(part Part, column string) string {
	return fmt.Sprintf("%s(%s)", part, column)
}

type postgresDialect struct{}

func (postgresDialect) Name() string { return "postgres" }

func (postgresDialect) Extract(part Part, column string) string {
	return fmt.Sprintf("EXTRACT(%s FROM %s)", strings.ToUpper(part.String()), column)
}

type sqliteDialect struct{}

func (sqliteDialect) Name() string { return "sqlite" }

var sqliteFormats = map[Part]string{
	PartYear:  "%Y",
	PartMonth: "%m",
	PartDay:   "%d",
}

func (sqliteDialect) Extract(part Part, column string) string {
	return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", sqliteFormats[part], column)
}
