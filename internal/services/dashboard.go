package services

import (
	"context"

	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"gorm.io/gorm"
)

// UpcomingLimit caps the deadlines listed on the dashboard.
const UpcomingLimit = 5

type DashboardStats struct {
	TotalClients      int64         `json:"total_clients"`
	ActiveTasks       int64         `json:"active_tasks"`
	PendingInvoices   int64         `json:"pending_invoices"`
	TotalRevenue      float64       `json:"total_revenue"`
	UpcomingDeadlines []models.Task `json:"upcoming_deadlines"`
}

type DashboardService struct {
	store    *store.Store
	invoices *InvoiceService
}

func NewDashboardService(s *store.Store, invoices *InvoiceService) *DashboardService {
	return &DashboardService{store: s, invoices: invoices}
}

func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	var st DashboardStats
	var err error
	if st.TotalClients, err = s.store.Clients.Count(ctx, store.Filter{"status": models.ClientActive}); err != nil {
		return nil, err
	}
	if st.ActiveTasks, err = s.store.Tasks.Count(ctx, store.Filter{"status": models.ActiveTaskStatuses}); err != nil {
		return nil, err
	}
	pending := []models.InvoiceStatus{models.InvoiceSent, models.InvoiceOverdue}
	if st.PendingInvoices, err = s.store.Invoices.Count(ctx, store.Filter{"status": pending}); err != nil {
		return nil, err
	}
	if st.TotalRevenue, err = s.invoices.Revenue(ctx); err != nil {
		return nil, err
	}
	st.UpcomingDeadlines, err = s.store.Tasks.Scoped(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("status IN ?", models.ActiveTaskStatuses).Limit(UpcomingLimit)
	})
	if err != nil {
		return nil, err
	}
	return &st, nil
}
