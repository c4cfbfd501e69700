package cli

import (
	"fmt"
	"io"
	"time"

	json "github.com/goccy/go-json"
	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/thebtf/archivable/internal/config"
	gormdb "github.com/thebtf/archivable/internal/db/gorm"
)

// timeLayout is how archive dates are printed in tables.
const timeLayout = "2006-01-02 15:04:05 MST"

// maxBodyWidth truncates long bodies in table output.
const maxBodyWidth = 48

// render prints a query result in the configured format.
func render(w io.Writer, format string, result any) error {
	if format == config.OutputJSON {
		return renderJSON(w, jsonValue(result))
	}

	switch v := result.(type) {
	case int64:
		_, err := fmt.Fprintln(w, v)
		return err
	case []gormdb.Entry:
		return renderEntries(w, v)
	case []gormdb.Comment:
		return renderComments(w, v)
	case *gormdb.Entry:
		if v == nil {
			return renderEntries(w, nil)
		}
		return renderEntries(w, []gormdb.Entry{*v})
	case *gormdb.Comment:
		if v == nil {
			return renderComments(w, nil)
		}
		return renderComments(w, []gormdb.Comment{*v})
	case *Summary:
		return renderSummary(w, v)
	default:
		return fmt.Errorf("cannot render %T", result)
	}
}

// jsonValue normalizes results for JSON: counts become objects and typed nil
// records become null.
func jsonValue(result any) any {
	switch v := result.(type) {
	case int64:
		return map[string]int64{"count": v}
	case *gormdb.Entry:
		if v == nil {
			return nil
		}
	case *gormdb.Comment:
		if v == nil {
			return nil
		}
	case []gormdb.Entry:
		if v == nil {
			return []gormdb.Entry{}
		}
	case []gormdb.Comment:
		if v == nil {
			return []gormdb.Comment{}
		}
	}
	return result
}

func renderJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func renderEntries(w io.Writer, entries []gormdb.Entry) error {
	if len(entries) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"id", "created_at", "title", "body"})
	for _, e := range entries {
		t.AppendRow(table.Row{e.ID, e.CreatedAt.Format(timeLayout), e.Title, truncate(e.Body, maxBodyWidth)})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(entries))
	return nil
}

func renderComments(w io.Writer, comments []gormdb.Comment) error {
	if len(comments) == 0 {
		_, _ = fmt.Fprintln(w, "(0 rows)")
		return nil
	}

	t := newTable(w)
	t.AppendHeader(table.Row{"id", "entry_id", "replied_on", "body"})
	for _, c := range comments {
		t.AppendRow(table.Row{c.ID, c.EntryID, c.RepliedOn.Format(timeLayout), truncate(c.Body, maxBodyWidth)})
	}
	t.Render()
	_, _ = fmt.Fprintf(w, "(%d rows)\n", len(comments))
	return nil
}

func renderSummary(w io.Writer, s *Summary) error {
	t := newTable(w)
	t.AppendHeader(table.Row{"resource", "total", fmt.Sprintf("last %d days", s.RecentDays), "oldest", "newest"})
	t.AppendRow(table.Row{s.Resource, s.Total, s.Recent, formatTime(s.Oldest), formatTime(s.Newest)})
	t.Render()
	return nil
}

func formatTime(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return t.Format(timeLayout)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
