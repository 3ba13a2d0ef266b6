package db

import (
	"strings"
	"testing"
)

func TestIsPostgres(t *testing.T) {
	tests := []struct {
		dsn  string
		want bool
	}{
		{"postgres://u:p@localhost:5432/ca", true},
		{"postgresql://localhost/ca", true},
		{"host=localhost user=ca dbname=ca", true},
		{"file:ca_practice?mode=memory&cache=shared", false},
		{"ca.db", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := IsPostgres(tt.dsn); got != tt.want {
			t.Errorf("IsPostgres(%q) = %v, want %v", tt.dsn, got, tt.want)
		}
	}
}

func TestNormalizeDSN(t *testing.T) {
	got := NormalizeDSN(`  "host=db   user=ca dbname=ca"  `)
	if got != "host=db user=ca dbname=ca sslmode=disable" {
		t.Errorf("NormalizeDSN = %q", got)
	}
	if got := NormalizeDSN("file:x?mode=memory"); got != "file:x?mode=memory" {
		t.Errorf("sqlite DSN changed: %q", got)
	}
}

func TestToURLDSN(t *testing.T) {
	got := ToURLDSN("host=db port=5432 user=ca password=secret dbname=practice sslmode=disable")
	want := "postgres://ca:secret@db:5432/practice?sslmode=disable"
	if got != want {
		t.Errorf("ToURLDSN = %q, want %q", got, want)
	}
	if got := ToURLDSN("host=db"); got != "host=db" {
		t.Errorf("partial DSN should be unchanged, got %q", got)
	}
}

func TestMaskDSN(t *testing.T) {
	if got := MaskDSN("host=db password=secret dbname=x"); got != "host=db password=*** dbname=x" {
		t.Errorf("MaskDSN kv = %q", got)
	}
	if got := MaskDSN("postgres://ca:secret@db/x"); strings.Contains(got, "secret") {
		t.Errorf("MaskDSN url leaked password: %q", got)
	}
}
