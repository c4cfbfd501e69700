package gorm

import (
	"time"

	"gorm.io/gorm"
)

// Entry is a dated journal entry. It is archived on created_at.
type Entry struct {
	CreatedAt time.Time `gorm:"index:idx_entries_created_at;not null" json:"created_at"`
	Title     string    `gorm:"type:text" json:"title"`
	Body      string    `gorm:"type:text" json:"body"`
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
}

func (Entry) TableName() string { return "entries" }

// BeforeCreate stores created_at in UTC, defaulting to now.
func (e *Entry) BeforeCreate(tx *gorm.DB) error {
	e.CreatedAt = utcOrNow(e.CreatedAt)
	return nil
}

// Comment is a reply to an entry. It is archived on replied_on.
type Comment struct {
	RepliedOn time.Time `gorm:"index:idx_comments_replied_on;not null" json:"replied_on"`
	Body      string    `gorm:"type:text" json:"body"`
	ID        int64     `gorm:"primaryKey;autoIncrement" json:"id"`
	EntryID   int64     `gorm:"index:idx_comments_entry;not null" json:"entry_id"`
}

func (Comment) TableName() string { return "comments" }

// BeforeCreate stores replied_on in UTC, defaulting to now.
func (c *Comment) BeforeCreate(tx *gorm.DB) error {
	c.RepliedOn = utcOrNow(c.RepliedOn)
	return nil
}

// utcOrNow keeps archive timestamps in one zone. SQLite compares stored
// timestamps as text, so mixed offsets would break range filters.
func utcOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}
