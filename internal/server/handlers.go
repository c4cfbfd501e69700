package server

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	gormdb "github.com/thebtf/archivable/internal/db/gorm"
	"github.com/thebtf/archivable/pkg/archive"
)

// errNotFound marks lookups that matched nothing.
var errNotFound = errors.New("not found")

// paramError is a malformed or missing query parameter.
type paramError struct {
	name   string
	reason string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("parameter %s: %s", e.name, e.reason)
}

// ErrorResponse is the JSON body of every failed request.
type ErrorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"request_id,omitempty"`
}

// CountResponse is the JSON body of count routes.
type CountResponse struct {
	Count int64 `json:"count"`
}

// writeJSON writes a JSON response with proper error handling.
func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// statusFor maps an error to its HTTP status.
func statusFor(err error) int {
	var pe *paramError
	switch {
	case errors.Is(err, archive.ErrDateParse),
		errors.Is(err, archive.ErrInvalidDateSpec),
		errors.As(err, &pe):
		return http.StatusBadRequest
	case errors.Is(err, errNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// writeError writes err as JSON with the status it maps to. Internal errors
// are logged and their details withheld.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", GetRequestID(r.Context())).
			Str("path", r.URL.Path).
			Msg("Archive request failed")
		msg = http.StatusText(status)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(ErrorResponse{Error: msg, RequestID: GetRequestID(r.Context())}); err != nil {
		log.Error().Err(err).Msg("Failed to encode JSON error")
	}
}

// handleHealth reports database health.
func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	info := s.store.HealthCheck(r.Context())
	if info.Status == "unhealthy" {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		_ = json.NewEncoder(w).Encode(info)
		return
	}
	writeJSON(w, info)
}

// scopeFunc resolves the archive store a request queries.
type scopeFunc[T any] func(r *http.Request) (*gormdb.ArchiveStore[T], error)

// mountArchive registers every query intent of one resource on r.
func mountArchive[T any](r chi.Router, s *Service, scope scopeFunc[T]) {
	list := func(query func(*http.Request, *gormdb.ArchiveStore[T], []gormdb.QueryOption) ([]T, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			store, err := scope(req)
			if err != nil {
				writeError(w, req, err)
				return
			}
			page := ParsePaginationParams(req, DefaultListLimit)
			opts := []gormdb.QueryOption{gormdb.WithLimit(page.Limit), gormdb.WithOffset(page.Offset)}
			rows, err := query(req, store, opts)
			if err != nil {
				writeError(w, req, err)
				return
			}
			if rows == nil {
				rows = []T{}
			}
			writeJSON(w, rows)
		}
	}

	count := func(query func(*http.Request, *gormdb.ArchiveStore[T]) (int64, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			store, err := scope(req)
			if err != nil {
				writeError(w, req, err)
				return
			}
			n, err := query(req, store)
			if err != nil {
				writeError(w, req, err)
				return
			}
			writeJSON(w, CountResponse{Count: n})
		}
	}

	first := func(query func(*http.Request, *gormdb.ArchiveStore[T]) (*T, error)) http.HandlerFunc {
		return func(w http.ResponseWriter, req *http.Request) {
			store, err := scope(req)
			if err != nil {
				writeError(w, req, err)
				return
			}
			row, err := query(req, store)
			if err != nil {
				writeError(w, req, err)
				return
			}
			if row == nil {
				writeError(w, req, errNotFound)
				return
			}
			writeJSON(w, row)
		}
	}

	r.Get("/count", count(func(req *http.Request, st *gormdb.ArchiveStore[T]) (int64, error) {
		return st.CountAll(req.Context())
	}))

	r.Get("/by-date", list(func(req *http.Request, st *gormdb.ArchiveStore[T], opts []gormdb.QueryOption) ([]T, error) {
		date, err := dateParam(req)
		if err != nil {
			return nil, err
		}
		return st.ByDate(req.Context(), date, opts...)
	}))
	r.Get("/by-date/count", count(func(req *http.Request, st *gormdb.ArchiveStore[T]) (int64, error) {
		date, err := dateParam(req)
		if err != nil {
			return 0, err
		}
		return st.CountByDate(req.Context(), date)
	}))

	r.Get("/between", list(func(req *http.Request, st *gormdb.ArchiveStore[T], opts []gormdb.QueryOption) ([]T, error) {
		start, end, err := rangeParams(req)
		if err != nil {
			return nil, err
		}
		return st.Between(req.Context(), start, end, opts...)
	}))
	r.Get("/between/count", count(func(req *http.Request, st *gormdb.ArchiveStore[T]) (int64, error) {
		start, end, err := rangeParams(req)
		if err != nil {
			return 0, err
		}
		return st.CountBetween(req.Context(), start, end)
	}))

	r.Get("/recent", list(func(req *http.Request, st *gormdb.ArchiveStore[T], opts []gormdb.QueryOption) ([]T, error) {
		days, err := s.daysParam(req)
		if err != nil {
			return nil, err
		}
		return st.Recent(req.Context(), days, opts...)
	}))
	r.Get("/recent/count", count(func(req *http.Request, st *gormdb.ArchiveStore[T]) (int64, error) {
		days, err := s.daysParam(req)
		if err != nil {
			return 0, err
		}
		return st.CountRecent(req.Context(), days)
	}))

	r.Get("/oldest", first(func(req *http.Request, st *gormdb.ArchiveStore[T]) (*T, error) {
		return st.Oldest(req.Context())
	}))
	r.Get("/newest", first(func(req *http.Request, st *gormdb.ArchiveStore[T]) (*T, error) {
		return st.Newest(req.Context())
	}))
}

// dateParam reads ?date= or the structured ?year=&month=&day= form.
func dateParam(r *http.Request) (any, error) {
	q := r.URL.Query()
	if date := q.Get("date"); date != "" {
		return date, nil
	}
	if q.Get("year") == "" {
		return nil, &paramError{name: "date", reason: "date or year is required"}
	}

	var spec archive.DateSpec
	for _, p := range []struct {
		name string
		dst  *int
	}{{"year", &spec.Year}, {"month", &spec.Month}, {"day", &spec.Day}} {
		v := q.Get(p.name)
		if v == "" {
			continue
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, &paramError{name: p.name, reason: "must be an integer"}
		}
		*p.dst = n
	}
	return spec, nil
}

func rangeParams(r *http.Request) (string, string, error) {
	q := r.URL.Query()
	start, end := q.Get("start"), q.Get("end")
	if start == "" {
		return "", "", &paramError{name: "start", reason: "is required"}
	}
	if end == "" {
		return "", "", &paramError{name: "end", reason: "is required"}
	}
	return start, end, nil
}

func (s *Service) daysParam(r *http.Request) (int, error) {
	v := r.URL.Query().Get("days")
	if v == "" {
		return s.cfg.Dates.RecentDays, nil
	}
	days, err := strconv.Atoi(v)
	if err != nil || days < 0 {
		return 0, &paramError{name: "days", reason: "must be a non-negative integer"}
	}
	return days, nil
}

func idParam(r *http.Request, name string) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, &paramError{name: name, reason: "must be a positive integer"}
	}
	return id, nil
}

// commentScope narrows comment queries to ?entry_id= when present.
func (s *Service) commentScope(r *http.Request) (*gormdb.ArchiveStore[gormdb.Comment], error) {
	v := r.URL.Query().Get("entry_id")
	if v == "" {
		return s.comments.ArchiveStore, nil
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil || id <= 0 {
		return nil, &paramError{name: "entry_id", reason: "must be a positive integer"}
	}
	return s.comments.ForEntry(id), nil
}

func (s *Service) handleGetEntry(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	e, err := s.entries.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if e == nil {
		writeError(w, r, fmt.Errorf("entry %d: %w", id, errNotFound))
		return
	}
	writeJSON(w, e)
}

func (s *Service) handleGetComment(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	c, err := s.comments.Get(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if c == nil {
		writeError(w, r, fmt.Errorf("comment %d: %w", id, errNotFound))
		return
	}
	writeJSON(w, c)
}
