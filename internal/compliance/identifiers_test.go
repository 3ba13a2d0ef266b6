package compliance

import (
	"errors"
	"testing"

	"github.com/diewo77/ca-practice/internal/apperr"
)

func TestValidatePAN(t *testing.T) {
	tests := []struct {
		name   string
		in     string
		entity string
		ok     bool
	}{
		{"company", "AAACB1234C", "Company", true},
		{"individual lower case", " abcpd1234e ", "Individual", true},
		{"unknown holder letter", "ABCXD1234E", "Unknown", true},
		{"too short", "ABCPD1234", "", false},
		{"too long", "ABCPD1234EF", "", false},
		{"digit in letter slot", "AB1PD1234E", "", false},
		{"letter in digit slot", "ABCPD12X4E", "", false},
		{"digit at end", "ABCPD12345", "", false},
		{"non-ascii letter", "ABCıE1234F", "", false},
		{"fullwidth letter", "ＡBCPD1234E", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidatePAN(tt.in)
			if tt.ok {
				if err != nil {
					t.Fatalf("ValidatePAN(%q) unexpected error: %v", tt.in, err)
				}
				if got.EntityType != tt.entity {
					t.Errorf("EntityType = %q, want %q", got.EntityType, tt.entity)
				}
				return
			}
			if !errors.Is(err, apperr.ErrInvalidFormat) {
				t.Errorf("ValidatePAN(%q) err = %v, want invalid format", tt.in, err)
			}
		})
	}
}

func TestValidatePANEmpty(t *testing.T) {
	if _, err := ValidatePAN("  "); !errors.Is(err, apperr.ErrMissingField) {
		t.Fatalf("expected missing field, got %v", err)
	}
}

func TestValidateGSTIN(t *testing.T) {
	info, err := ValidateGSTIN("27AAPFU0939F1ZV")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if info.StateCode != "27" || info.StateName != "Maharashtra" {
		t.Errorf("state = %s/%s", info.StateCode, info.StateName)
	}
	if info.PAN != "AAPFU0939F" {
		t.Errorf("PAN = %q", info.PAN)
	}
	if info.EntityCode != "1" || info.CheckChar != "V" {
		t.Errorf("entity/check = %s/%s", info.EntityCode, info.CheckChar)
	}
}

func TestValidateGSTINRejectsEveryPosition(t *testing.T) {
	valid := "29ABCDE1234F2Z5"
	if _, err := ValidateGSTIN(valid); err != nil {
		t.Fatalf("base GSTIN must be valid: %v", err)
	}
	// A character of the wrong class for each position.
	wrong := []byte{
		'A', 'A', // state code digits
		'1', '1', '1', '1', '1', // PAN letters
		'X', 'X', 'X', 'X', // PAN digits
		'1', // PAN last letter
		'0', // entity code cannot be 0
		'Y', // must be Z
		'-', // check char
	}
	for i, c := range wrong {
		b := []byte(valid)
		b[i] = c
		if _, err := ValidateGSTIN(string(b)); !errors.Is(err, apperr.ErrInvalidFormat) {
			t.Errorf("position %d (%q): expected invalid format, got %v", i, string(b), err)
		}
	}
}

func TestValidateGSTINLength(t *testing.T) {
	for _, in := range []string{"29ABCDE1234F2Z", "29ABCDE1234F2Z55"} {
		if _, err := ValidateGSTIN(in); !errors.Is(err, apperr.ErrInvalidFormat) {
			t.Errorf("ValidateGSTIN(%q) = %v, want invalid format", in, err)
		}
	}
}
