package store

import (
	"context"
	"fmt"
	"time"

	"github.com/diewo77/ca-practice/internal/models"
	"gorm.io/gorm"
)

// Store groups the repositories of every record type over one connection.
type Store struct {
	db        *gorm.DB
	Clients   *Repository[models.Client]
	Tasks     *Repository[models.Task]
	Invoices  *Repository[models.Invoice]
	Documents *Repository[models.Document]
	Staff     *Repository[models.Staff]
	Queries   *Repository[models.Query]
}

func New(db *gorm.DB) *Store {
	return &Store{
		db:        db,
		Clients:   NewRepository[models.Client](db, "client", "created_at DESC"),
		Tasks:     NewRepository[models.Task](db, "task", "due_date ASC", "Client", "Assignee"),
		Invoices:  NewRepository[models.Invoice](db, "invoice", "created_at DESC", "Client"),
		Documents: NewRepository[models.Document](db, "document", "uploaded_at DESC", "Client"),
		Staff:     NewRepository[models.Staff](db, "staff member", "name ASC"),
		Queries:   NewRepository[models.Query](db, "query", "raised_at DESC"),
	}
}

// DB exposes the connection for ad-hoc queries.
func (s *Store) DB() *gorm.DB { return s.db }

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.WithContext(ctx).Exec("SELECT 1").Error; err != nil {
		return fmt.Errorf("ping store: %w", err)
	}
	return nil
}

// Transaction runs fn against a Store bound to a single transaction.
func (s *Store) Transaction(ctx context.Context, fn func(tx *Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(New(tx))
	})
}

// StaffByName returns the staff member whose name matches exactly.
func (s *Store) StaffByName(ctx context.Context, name string) (*models.Staff, bool, error) {
	var st models.Staff
	res := s.db.WithContext(ctx).Where("name = ?", name).Limit(1).Find(&st)
	if res.Error != nil {
		return nil, false, fmt.Errorf("find staff by name: %w", res.Error)
	}
	return &st, res.RowsAffected > 0, nil
}

// StaffForLogin returns the staff member with the given email who has a
// password set. Emails compare case-insensitively.
func (s *Store) StaffForLogin(ctx context.Context, email string) (*models.Staff, bool, error) {
	var st models.Staff
	res := s.db.WithContext(ctx).
		Where("LOWER(email) = LOWER(?) AND password_hash IS NOT NULL AND password_hash <> ''", email).
		Order("created_at").Limit(1).Find(&st)
	if res.Error != nil {
		return nil, false, fmt.Errorf("find staff by email: %w", res.Error)
	}
	return &st, res.RowsAffected > 0, nil
}

// ClientByEmail returns the client with the given email, compared
// case-insensitively.
func (s *Store) ClientByEmail(ctx context.Context, email string) (*models.Client, bool, error) {
	var c models.Client
	res := s.db.WithContext(ctx).Where("LOWER(email) = LOWER(?)", email).Limit(1).Find(&c)
	if res.Error != nil {
		return nil, false, fmt.Errorf("find client by email: %w", res.Error)
	}
	return &c, res.RowsAffected > 0, nil
}

// ActiveTaskCounts returns the number of PENDING or IN_PROGRESS tasks per
// assignee id.
func (s *Store) ActiveTaskCounts(ctx context.Context) (map[string]int64, error) {
	var rows []struct {
		AssigneeID string
		N          int64
	}
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Select("assignee_id, COUNT(*) AS n").
		Where("assignee_id IS NOT NULL AND status IN ?", models.ActiveTaskStatuses).
		Group("assignee_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("count active tasks: %w", err)
	}
	out := make(map[string]int64, len(rows))
	for _, r := range rows {
		out[r.AssigneeID] = r.N
	}
	return out, nil
}

// MarkOverdueTasks flips active tasks due before now to OVERDUE.
func (s *Store) MarkOverdueTasks(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("status IN ? AND due_date < ?", models.ActiveTaskStatuses, now.UTC()).
		Update("status", models.TaskOverdue)
	if res.Error != nil {
		return 0, fmt.Errorf("mark overdue tasks: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// MarkOverdueInvoices flips SENT invoices due before now to OVERDUE.
func (s *Store) MarkOverdueInvoices(ctx context.Context, now time.Time) (int64, error) {
	res := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status = ? AND due_date < ?", models.InvoiceSent, now.UTC()).
		Update("status", models.InvoiceOverdue)
	if res.Error != nil {
		return 0, fmt.Errorf("mark overdue invoices: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// InvoiceNumbersWithPrefix returns every invoice number starting with prefix.
func (s *Store) InvoiceNumbersWithPrefix(ctx context.Context, prefix string) ([]string, error) {
	var nums []string
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("invoice_number LIKE ?", prefix+"%").
		Pluck("invoice_number", &nums).Error
	if err != nil {
		return nil, fmt.Errorf("list invoice numbers: %w", err)
	}
	return nums, nil
}

// PaidInvoiceTotals returns the totals of every PAID invoice.
func (s *Store) PaidInvoiceTotals(ctx context.Context) ([]float64, error) {
	var totals []float64
	err := s.db.WithContext(ctx).Model(&models.Invoice{}).
		Where("status = ?", models.InvoicePaid).
		Pluck("total", &totals).Error
	if err != nil {
		return nil, fmt.Errorf("list paid totals: %w", err)
	}
	return totals, nil
}

// TaskExists reports whether a task with this title already exists for the
// client.
func (s *Store) TaskExists(ctx context.Context, clientID, title string) (bool, error) {
	var n int64
	err := s.db.WithContext(ctx).Model(&models.Task{}).
		Where("client_id = ? AND title = ?", clientID, title).
		Count(&n).Error
	if err != nil {
		return false, fmt.Errorf("check task exists: %w", err)
	}
	return n > 0, nil
}
