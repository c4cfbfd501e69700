//go:build integration

package cli

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCLI executes the root command against dbPath and returns stdout.
func runCLI(t *testing.T, dbPath string, args ...string) string {
	t.Helper()

	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs(append(args, "--db", dbPath, "--log-level", "error"))
	require.NoError(t, cmd.Execute(), "archivist %s", strings.Join(args, " "))
	return out.String()
}

func TestCLI_EndToEnd(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "archive.db")
	fixtureDir, err := filepath.Abs(filepath.Join("..", "fixtures", "testdata"))
	require.NoError(t, err)

	runCLI(t, dbPath, "migrate")
	assert.Equal(t, "seeded 6 entries and 4 comments\n", runCLI(t, dbPath, "seed", fixtureDir))

	tests := []struct {
		args []string
		want string
	}{
		{[]string{"count"}, "6"},
		{[]string{"by-date", "2007", "--count"}, "3"},
		{[]string{"by-date", "7/4/2007", "-c"}, "2"},
		{[]string{"between", "6/6/2006", "6/6/2007", "--count"}, "3"},
		{[]string{"count", "--resource", "comments"}, "4"},
		{[]string{"by-date", "2006", "-r", "comments", "--entry", "1", "-c"}, "3"},
		{[]string{"by-date", "2006-10", "-r", "comments", "--entry", "1", "-c"}, "2"},
		{[]string{"between", "10/3/2006", "12/1/2007", "-r", "comments", "--entry", "1", "-c"}, "3"},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			assert.Equal(t, tt.want, strings.TrimSpace(runCLI(t, dbPath, tt.args...)))
		})
	}

	oldest := runCLI(t, dbPath, "oldest", "-o", "json")
	assert.Contains(t, oldest, `"id": 2`)

	newest := runCLI(t, dbPath, "newest", "-o", "json")
	assert.Contains(t, newest, `"id": 5`)

	summary := runCLI(t, dbPath, "summary", "-r", "comments")
	assert.Contains(t, summary, "2006-10-02 10:00:00 UTC")
	assert.Contains(t, summary, "2007-10-02 15:00:00 UTC")
}
