package fixtures

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	set, err := Load("testdata")
	require.NoError(t, err)

	require.Len(t, set.Entries, 6)
	require.Len(t, set.Comments, 4)

	for i, e := range set.Entries {
		assert.Equal(t, int64(i+1), e.ID, "entries are sorted by id")
	}
	assert.Equal(t, time.Date(2006, 9, 15, 12, 0, 0, 0, time.UTC), set.Entries[0].CreatedAt)
	assert.Equal(t, time.Date(2007, 7, 4, 18, 30, 0, 0, time.UTC), set.Entries[4].CreatedAt)
	assert.Equal(t, "Fireworks", set.Entries[4].Title)

	for _, c := range set.Comments {
		assert.Equal(t, int64(1), c.EntryID)
	}
	assert.Equal(t, time.Date(2007, 10, 2, 15, 0, 0, 0, time.UTC), set.Comments[3].RepliedOn)
}

func TestLoad_MissingDir(t *testing.T) {
	set, err := Load(t.TempDir())
	require.NoError(t, err)
	assert.Empty(t, set.Entries)
	assert.Empty(t, set.Comments)
}

func TestParse_Timestamps(t *testing.T) {
	entries := []byte(`
a: {id: 1, created_at: "2006-01-02"}
b: {id: 2, created_at: 2006-01-02T03:04:05Z}
c: {id: 3, created_at: "2006-01-02 03:04:05+02:00"}
d: {id: 4, created_at: 2006-01-02 03:04}
`)
	set, err := Parse(entries, nil)
	require.NoError(t, err)
	require.Len(t, set.Entries, 4)

	assert.Equal(t, time.Date(2006, 1, 2, 0, 0, 0, 0, time.UTC), set.Entries[0].CreatedAt)
	assert.Equal(t, time.Date(2006, 1, 2, 3, 4, 5, 0, time.UTC), set.Entries[1].CreatedAt)
	assert.Equal(t, time.Date(2006, 1, 2, 1, 4, 5, 0, time.UTC), set.Entries[2].CreatedAt)
	assert.Equal(t, time.Date(2006, 1, 2, 3, 4, 0, 0, time.UTC), set.Entries[3].CreatedAt)
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name     string
		entries  string
		comments string
		errMsg   string
	}{
		{"missing id", `x: {created_at: "2006-01-02"}`, ``, `entry fixture "x": id is required`},
		{"missing created_at", `x: {id: 1}`, ``, `entry fixture "x": created_at is required`},
		{"bad timestamp", `x: {id: 1, created_at: "yesterday"}`, ``, `unrecognized timestamp "yesterday"`},
		{"non-scalar timestamp", `x: {id: 1, created_at: [2006]}`, ``, `timestamp must be a scalar`},
		{"missing entry_id", ``, `y: {id: 1, replied_on: "2006-01-02"}`, `comment fixture "y": entry_id is required`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.entries), []byte(tt.comments))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}
