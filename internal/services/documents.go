package services

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/google/uuid"
)

type categoryRule struct {
	category string
	keywords []string
}

// Checked in order; the first category with a matching keyword wins.
var categoryRules = []categoryRule{
	{"GST", []string{"gst", "gstin", "gstr", "goods and services tax", "invoice"}},
	{"ITR", []string{"itr", "income tax", "form 16", "26as", "tds certificate"}},
	{"Audit", []string{"audit", "auditor", "financial statement", "balance sheet"}},
	{"ROC", []string{"roc", "mca", "annual return", "aoc", "mgt"}},
	{"Financial", []string{"bank statement", "ledger", "trial balance", "p&l", "profit"}},
	{"Legal", []string{"agreement", "contract", "mou", "legal", "court"}},
}

var filenameSeparators = strings.NewReplacer("_", " ", "-", " ", ".", " ")

// CategorizeDocument derives a document category from keywords in its
// filename, falling back to models.DefaultDocumentCategory.
func CategorizeDocument(filename string) string {
	name := strings.ToLower(filename)
	spaced := filenameSeparators.Replace(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(name, kw) || strings.Contains(spaced, kw) {
				return rule.category
			}
		}
	}
	return models.DefaultDocumentCategory
}

var (
	yearPattern    = regexp.MustCompile(`20\d\d`)
	filenameTokens = regexp.MustCompile(`[A-Za-z0-9]+`)
	monthNames     = []string{"jan", "feb", "mar", "apr", "may", "jun", "jul", "aug", "sep", "oct", "nov", "dec"}
	documentTypes  = []struct{ keyword, name string }{
		{"invoice", "Invoice"}, {"receipt", "Receipt"}, {"statement", "Statement"}, {"return", "Return"},
	}
)

// FilenameAnalysis is what a filename alone says about a document.
type FilenameAnalysis struct {
	Category string         `json:"category"`
	Tags     []string       `json:"tags"`
	Metadata map[string]any `json:"metadata"`
}

// AnalyzeFilename categorises filename, suggests tags and extracts metadata.
// An empty category is derived with CategorizeDocument. Tokens that pass
// GSTIN or PAN validation are reported under "gstin" and "pan".
func AnalyzeFilename(filename, category string) FilenameAnalysis {
	if strings.TrimSpace(category) == "" {
		category = CategorizeDocument(filename)
	}
	lower := strings.ToLower(filename)
	year := yearPattern.FindString(filename)

	tags := []string{category}
	if year != "" {
		tags = append(tags, "FY"+year)
	}
	for q := 1; q <= 4; q++ {
		if strings.Contains(lower, fmt.Sprintf("q%d", q)) || strings.Contains(lower, fmt.Sprintf("quarter %d", q)) {
			tags = append(tags, fmt.Sprintf("Q%d", q))
			break
		}
	}
	for _, stage := range []string{"Draft", "Final", "Revised"} {
		if strings.Contains(lower, strings.ToLower(stage)) {
			tags = append(tags, stage)
		}
	}

	meta := map[string]any{
		"original_name": filename,
		"extension":     filepath.Ext(filename),
	}
	for _, dt := range documentTypes {
		if strings.Contains(lower, dt.keyword) {
			meta["detected_type"] = dt.name
			break
		}
	}
	if year != "" {
		meta["detected_period"] = year
	}
	for _, m := range monthNames {
		if strings.Contains(lower, m) {
			meta["detected_month"] = strings.ToUpper(m[:1]) + m[1:]
			break
		}
	}
	for _, tok := range filenameTokens.FindAllString(filename, -1) {
		switch len(tok) {
		case 15:
			if _, ok := meta["gstin"]; ok {
				continue
			}
			if info, err := compliance.ValidateGSTIN(tok); err == nil {
				meta["gstin"] = info.GSTIN
			}
		case 10:
			if _, ok := meta["pan"]; ok {
				continue
			}
			if info, err := compliance.ValidatePAN(tok); err == nil {
				meta["pan"] = info.PAN
			}
		}
	}
	return FilenameAnalysis{Category: category, Tags: tags, Metadata: meta}
}

// DefaultMaxUpload bounds a single uploaded file.
const DefaultMaxUpload = 10 << 20

// URLPrefix is where stored files are served.
const URLPrefix = "/uploads/"

var unsafeSegment = regexp.MustCompile(`[^a-z0-9_-]+`)

// StoredFile describes a file written by FileStore.
type StoredFile struct {
	FileURL    string `json:"file_url"`
	Filename   string `json:"filename"`
	StoredName string `json:"stored_filename"`
	Category   string `json:"category"`
	Size       int64  `json:"size"`
}

// FileStore keeps uploaded files on local disk under dir/<category>/.
type FileStore struct {
	dir      string
	maxBytes int64
}

func NewFileStore(dir string, maxBytes int64) *FileStore {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxUpload
	}
	return &FileStore{dir: dir, maxBytes: maxBytes}
}

// Dir is the root directory files are written to.
func (f *FileStore) Dir() string { return f.dir }

// Save copies src to a new uniquely named file and returns its public URL.
func (f *FileStore) Save(src io.Reader, filename, category string) (*StoredFile, error) {
	base := filepath.Base(strings.TrimSpace(filename))
	if base == "" || base == "." || base == string(filepath.Separator) {
		return nil, apperr.MissingField("filename")
	}
	category = sanitizeSegment(category)
	if category == "" {
		category = "general"
	}
	ext := strings.ToLower(filepath.Ext(base))
	if sanitizeSegment(strings.TrimPrefix(ext, ".")) != strings.TrimPrefix(ext, ".") {
		ext = ""
	}
	stored := uuid.NewString() + ext

	dir := filepath.Join(f.dir, category)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	path := filepath.Join(dir, stored)
	out, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create upload: %w", err)
	}
	n, err := io.Copy(out, io.LimitReader(src, f.maxBytes+1))
	if cerr := out.Close(); err == nil {
		err = cerr
	}
	if err == nil && n > f.maxBytes {
		err = apperr.InvalidFormat("file", "larger than %d bytes", f.maxBytes)
	}
	if err != nil {
		_ = os.Remove(path)
		var ae *apperr.Error
		if errors.As(err, &ae) {
			return nil, err
		}
		return nil, fmt.Errorf("write upload: %w", err)
	}
	return &StoredFile{
		FileURL:    URLPrefix + category + "/" + stored,
		Filename:   base,
		StoredName: stored,
		Category:   category,
		Size:       n,
	}, nil
}

// Remove deletes a file previously returned by Save. URLs outside the
// upload prefix are ignored.
func (f *FileStore) Remove(fileURL string) error {
	rel, ok := strings.CutPrefix(fileURL, URLPrefix)
	if !ok {
		return nil
	}
	path := filepath.Join(f.dir, filepath.FromSlash(rel))
	if !strings.HasPrefix(path, filepath.Clean(f.dir)+string(filepath.Separator)) {
		return nil
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("remove upload: %w", err)
	}
	return nil
}

func sanitizeSegment(s string) string {
	return strings.Trim(unsafeSegment.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), "_"), "_")
}
