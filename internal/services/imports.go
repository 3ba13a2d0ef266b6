package services

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/diewo77/ca-practice/validation"
	"go.uber.org/zap"
)

var (
	clientImportColumns = []string{"name", "email", "phone"}
	taskImportColumns   = []string{"title", "client_email", "task_type", "due_date"}
	importDateLayouts   = []string{"2006-01-02", time.RFC3339, "2006-01-02 15:04:05", "02/01/2006"}
)

// ImportResult reports a bulk import. Rows are numbered as in a spreadsheet,
// the header being row 1.
type ImportResult struct {
	Success   bool     `json:"success"`
	Imported  int      `json:"imported"`
	TotalRows int      `json:"total_rows"`
	Errors    []string `json:"errors,omitempty"`
}

func (r *ImportResult) fail(row int, format string, args ...any) {
	r.Errors = append(r.Errors, fmt.Sprintf("Row %d: ", row)+fmt.Sprintf(format, args...))
}

// readCSV returns the data rows of src keyed by lower-case header name.
func readCSV(src io.Reader, required []string) ([]map[string]string, error) {
	cr := csv.NewReader(src)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, apperr.InvalidFormat("file", "empty CSV file")
	}
	if err != nil {
		return nil, apperr.InvalidFormat("file", "read CSV header: %v", err)
	}
	for i, h := range header {
		header[i] = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
	}
	var missing []string
	for _, col := range required {
		if !slices.Contains(header, col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, apperr.InvalidFormat("file", "Missing required columns: %s", strings.Join(missing, ", "))
	}

	var rows []map[string]string
	for {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.InvalidFormat("file", "read CSV: %v", err)
		}
		row := make(map[string]string, len(header))
		for i, h := range header {
			if i < len(rec) {
				row[h] = strings.TrimSpace(rec[i])
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// rowError names every field a row got wrong.
func rowError(err error) string {
	var v validation.Violations
	if errors.As(err, &v) {
		return v.Error()
	}
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Field != "" {
		return ae.Field + ": " + ae.Message
	}
	return err.Error()
}

// ImportService loads clients and tasks from CSV files. Each row goes
// through the same checks as a record created over the API; rows that fail
// are reported and skipped.
type ImportService struct {
	store *store.Store
	tasks *TaskService
	log   *zap.Logger
}

func NewImportService(s *store.Store, tasks *TaskService, log *zap.Logger) *ImportService {
	return &ImportService{store: s, tasks: tasks, log: log}
}

// ImportClients creates one client per row. Columns name, email and phone
// are required; gstin, pan, address, status, business_type are optional.
func (s *ImportService) ImportClients(ctx context.Context, src io.Reader) (*ImportResult, error) {
	rows, err := readCSV(src, clientImportColumns)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Success: true, TotalRows: len(rows)}
	for i, row := range rows {
		n := i + 2
		c := models.Client{
			Name:         row["name"],
			Email:        row["email"],
			Phone:        row["phone"],
			GSTIN:        row["gstin"],
			PAN:          row["pan"],
			Address:      row["address"],
			Status:       models.ClientStatus(strings.ToUpper(row["status"])),
			BusinessType: row["business_type"],
		}
		if err := ValidateClient(&c); err != nil {
			res.fail(n, "%s", rowError(err))
			continue
		}
		_, exists, err := s.store.ClientByEmail(ctx, c.Email)
		if err != nil {
			return nil, err
		}
		if exists {
			res.fail(n, "Client with email %s already exists", c.Email)
			continue
		}
		if err := s.store.Clients.Create(ctx, &c); err != nil {
			return nil, err
		}
		res.Imported++
	}
	s.log.Info("clients imported", zap.Int("imported", res.Imported), zap.Int("rows", res.TotalRows))
	return res, nil
}

// ImportTasks creates one task per row for the client named by
// client_email. Columns title, client_email, task_type and due_date are
// required; description, status, priority, assigned_to are optional.
func (s *ImportService) ImportTasks(ctx context.Context, src io.Reader) (*ImportResult, error) {
	rows, err := readCSV(src, taskImportColumns)
	if err != nil {
		return nil, err
	}
	res := &ImportResult{Success: true, TotalRows: len(rows)}
	for i, row := range rows {
		n := i + 2
		client, ok, err := s.store.ClientByEmail(ctx, row["client_email"])
		if err != nil {
			return nil, err
		}
		if !ok || row["client_email"] == "" {
			res.fail(n, "Client not found for email %s", row["client_email"])
			continue
		}
		due, err := parseImportDate(row["due_date"])
		if err != nil {
			res.fail(n, "invalid due_date %q", row["due_date"])
			continue
		}
		t := models.Task{
			Title:       row["title"],
			Description: row["description"],
			ClientID:    client.ID,
			TaskType:    models.TaskType(strings.ToUpper(row["task_type"])),
			DueDate:     due,
			Status:      models.TaskStatus(strings.ToUpper(row["status"])),
			Priority:    models.Priority(strings.ToUpper(row["priority"])),
			AssignedTo:  row["assigned_to"],
		}
		if err := s.tasks.Prepare(ctx, &t); err != nil {
			res.fail(n, "%s", rowError(err))
			continue
		}
		if err := s.store.Tasks.Create(ctx, &t); err != nil {
			return nil, err
		}
		res.Imported++
	}
	s.log.Info("tasks imported", zap.Int("imported", res.Imported), zap.Int("rows", res.TotalRows))
	return res, nil
}

func parseImportDate(raw string) (time.Time, error) {
	for _, layout := range importDateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, apperr.InvalidFormat("due_date", "invalid date %q", raw)
}

// WriteClientImportTemplate writes a client CSV with two sample rows.
func WriteClientImportTemplate(w io.Writer) error {
	return writeCSV(w, [][]string{
		{"name", "email", "phone", "gstin", "pan", "address", "status"},
		{"ABC Enterprises", "abc@example.com", "9876543210", "29ABCDE1234F1Z5", "ABCDE1234F", "123 Street, Mumbai", "ACTIVE"},
		{"XYZ Ltd", "xyz@example.com", "9876543211", "27XYZAB5678G2Z9", "XYZAB5678G", "456 Road, Delhi", "ACTIVE"},
	})
}

// WriteTaskImportTemplate writes a task CSV with two sample rows.
func WriteTaskImportTemplate(w io.Writer) error {
	return writeCSV(w, [][]string{
		{"title", "client_email", "task_type", "due_date", "description", "status", "priority", "assigned_to"},
		{"GST Filing Q1", "abc@example.com", "GST", "2025-04-20", "Quarterly GST return", "PENDING", "HIGH", ""},
		{"ITR Filing FY 2024-25", "xyz@example.com", "ITR", "2025-07-31", "Annual tax filing", "PENDING", "URGENT", ""},
	})
}

func writeCSV(w io.Writer, rows [][]string) error {
	cw := csv.NewWriter(w)
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}
