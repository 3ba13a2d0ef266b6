// Package compliance holds the Indian tax-practice rules: identifier format
// checks, the business-type obligation table, late-fee arithmetic and
// financial-year conventions. Everything here is pure.
package compliance

import (
	"regexp"
	"strings"

	"github.com/diewo77/ca-practice/internal/apperr"
)

var (
	panPattern   = regexp.MustCompile(`^[A-Z]{5}[0-9]{4}[A-Z]$`)
	gstinPattern = regexp.MustCompile(`^[0-9]{2}[A-Z]{5}[0-9]{4}[A-Z][1-9A-Z]Z[0-9A-Z]$`)
)

// GSTINInfo is the decoded layout of a valid GSTIN.
type GSTINInfo struct {
	GSTIN      string `json:"gstin"`
	StateCode  string `json:"state_code"`
	StateName  string `json:"state_name,omitempty"`
	PAN        string `json:"pan"`
	EntityCode string `json:"entity_code"`
	CheckChar  string `json:"checksum"`
}

// PANInfo is the decoded layout of a valid PAN.
type PANInfo struct {
	PAN        string `json:"pan"`
	EntityType string `json:"entity_type"`
}

var panEntityTypes = map[byte]string{
	'P': "Individual",
	'C': "Company",
	'H': "HUF",
	'F': "Firm",
	'A': "AOP",
	'T': "Trust",
	'B': "BOI",
	'L': "Local Authority",
	'J': "Artificial Juridical Person",
	'G': "Government",
}

// GST state codes. 25 and 26 were merged in 2020; 25 is kept for old registrations.
var gstStates = map[string]string{
	"01": "Jammu and Kashmir",
	"02": "Himachal Pradesh",
	"03": "Punjab",
	"04": "Chandigarh",
	"05": "Uttarakhand",
	"06": "Haryana",
	"07": "Delhi",
	"08": "Rajasthan",
	"09": "Uttar Pradesh",
	"10": "Bihar",
	"11": "Sikkim",
	"12": "Arunachal Pradesh",
	"13": "Nagaland",
	"14": "Manipur",
	"15": "Mizoram",
	"16": "Tripura",
	"17": "Meghalaya",
	"18": "Assam",
	"19": "West Bengal",
	"20": "Jharkhand",
	"21": "Odisha",
	"22": "Chhattisgarh",
	"23": "Madhya Pradesh",
	"24": "Gujarat",
	"25": "Daman and Diu",
	"26": "Dadra and Nagar Haveli and Daman and Diu",
	"27": "Maharashtra",
	"28": "Andhra Pradesh (Old)",
	"29": "Karnataka",
	"30": "Goa",
	"31": "Lakshadweep",
	"32": "Kerala",
	"33": "Tamil Nadu",
	"34": "Puducherry",
	"35": "Andaman and Nicobar Islands",
	"36": "Telangana",
	"37": "Andhra Pradesh",
	"38": "Ladakh",
	"97": "Other Territory",
	"99": "Centre Jurisdiction",
}

// NormalizeIdentifier trims surrounding space and upper-cases ASCII letters.
// Other runes are kept so the layout checks reject them.
func NormalizeIdentifier(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' {
			return r - 'a' + 'A'
		}
		return r
	}, strings.TrimSpace(s))
}

// ValidatePAN checks the AAAAA9999A layout and classifies the holder from the
// fourth letter.
func ValidatePAN(raw string) (PANInfo, error) {
	pan := NormalizeIdentifier(raw)
	if pan == "" {
		return PANInfo{}, apperr.MissingField("pan")
	}
	if len(pan) != 10 {
		return PANInfo{}, apperr.InvalidFormat("pan", "PAN must be 10 characters")
	}
	if !panPattern.MatchString(pan) {
		return PANInfo{}, apperr.InvalidFormat("pan", "PAN must be 5 letters, 4 digits and 1 letter")
	}
	entity, ok := panEntityTypes[pan[3]]
	if !ok {
		entity = "Unknown"
	}
	return PANInfo{PAN: pan, EntityType: entity}, nil
}

// ValidateGSTIN checks the 15 character GSTIN layout. The check character is
// not verified against the official checksum.
func ValidateGSTIN(raw string) (GSTINInfo, error) {
	g := NormalizeIdentifier(raw)
	if g == "" {
		return GSTINInfo{}, apperr.MissingField("gstin")
	}
	if len(g) != 15 {
		return GSTINInfo{}, apperr.InvalidFormat("gstin", "GSTIN must be 15 characters")
	}
	if !gstinPattern.MatchString(g) {
		return GSTINInfo{}, gstinLayoutError(g)
	}
	return GSTINInfo{
		GSTIN:      g,
		StateCode:  g[:2],
		StateName:  gstStates[g[:2]],
		PAN:        g[2:12],
		EntityCode: g[12:13],
		CheckChar:  g[14:15],
	}, nil
}

// gstinLayoutError reports the first segment of a 15 character string that
// breaks the layout.
func gstinLayoutError(g string) error {
	switch {
	case !isDigits(g[:2]):
		return apperr.InvalidFormat("gstin", "invalid state code")
	case !panPattern.MatchString(g[2:12]):
		return apperr.InvalidFormat("gstin", "characters 3-12 must be a valid PAN")
	case !strings.ContainsRune("123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ", rune(g[12])):
		return apperr.InvalidFormat("gstin", "invalid entity code")
	case g[13] != 'Z':
		return apperr.InvalidFormat("gstin", "14th character must be Z")
	default:
		return apperr.InvalidFormat("gstin", "invalid check character")
	}
}

func isDigits(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return s != ""
}
