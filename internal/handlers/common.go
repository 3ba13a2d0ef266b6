// Package handlers exposes the practice records and CA lookups over JSON.
package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/services"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/gorilla/mux"
)

// Clock is the time source of handlers that depend on "now".
type Clock func() time.Time

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	time.DateOnly,
}

// parseTime accepts RFC 3339, a naive local timestamp (read as UTC) or a bare
// date.
func parseTime(field, raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.InvalidFormat(field, "invalid date %q", raw)
}

// flexTime decodes any layout parseTime accepts. A JSON null or empty string
// leaves it zero.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		return nil
	}
	t, err := parseTime("date", s)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

// queryTime reads an optional date query parameter.
func queryTime(r *http.Request, name string) (*time.Time, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	t, err := parseTime(name, raw)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func queryFloat(r *http.Request, name string) (*float64, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(name))
	if raw == "" || raw == "null" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, apperr.InvalidFormat(name, "not a number")
	}
	return &f, nil
}

// filterFrom copies the named, non-empty query parameters into a store filter.
func filterFrom(r *http.Request, names ...string) store.Filter {
	f := store.Filter{}
	q := r.URL.Query()
	for _, n := range names {
		if v := q.Get(n); v != "" {
			f[n] = v
		}
	}
	return f
}

func pathID(r *http.Request) string { return pathVar(r, "id") }

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}

// formFile reads the multipart field "file", bounded by the upload limit.
// Callers defer cleanupForm once it succeeds.
func formFile(w http.ResponseWriter, r *http.Request) (multipart.File, *multipart.FileHeader, error) {
	r.Body = http.MaxBytesReader(w, r.Body, services.DefaultMaxUpload+1<<20)
	if err := r.ParseMultipartForm(1 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, nil, apperr.InvalidFormat("file", "upload too large")
		}
		return nil, nil, apperr.InvalidFormat("body", "expected multipart form data")
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		cleanupForm(r)
		return nil, nil, apperr.MissingField("file")
	}
	return file, header, nil
}

func cleanupForm(r *http.Request) {
	if r.MultipartForm != nil {
		_ = r.MultipartForm.RemoveAll()
	}
}
