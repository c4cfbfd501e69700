package gorm

import (
	"github.com/go-gormigrate/gormigrate/v2"
	"gorm.io/gorm"
)

// migrations lists every schema migration in application order.
func migrations() []*gormigrate.Migration {
	return []*gormigrate.Migration{
		{
			ID: "001_entries",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Entry{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("entries")
			},
		},
		{
			ID: "002_comments",
			Migrate: func(tx *gorm.DB) error {
				return tx.AutoMigrate(&Comment{})
			},
			Rollback: func(tx *gorm.DB) error {
				return tx.Migrator().DropTable("comments")
			},
		},
	}
}

// runMigrations runs all database migrations using gormigrate.
func runMigrations(db *gorm.DB) error {
	m := gormigrate.New(db, gormigrate.DefaultOptions, migrations())
	return m.Migrate()
}

// RollbackLast reverts the most recently applied migration.
func (s *Store) RollbackLast() error {
	m := gormigrate.New(s.DB, gormigrate.DefaultOptions, migrations())
	return m.RollbackLast()
}
