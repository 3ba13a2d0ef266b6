package services

import (
	"context"
	"testing"
	"time"

	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *store.Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(models.All()...))
	return store.New(db)
}

func createClient(t *testing.T, s *store.Store, c models.Client) models.Client {
	t.Helper()
	if c.Email == "" {
		c.Email = "office@example.in"
	}
	if c.Phone == "" {
		c.Phone = "9800000000"
	}
	require.NoError(t, s.Clients.Create(context.Background(), &c))
	return c
}

func createTask(t *testing.T, s *store.Store, task models.Task) models.Task {
	t.Helper()
	if task.Title == "" {
		task.Title = "Task"
	}
	if task.TaskType == "" {
		task.TaskType = models.TaskGeneral
	}
	require.NoError(t, s.Tasks.Create(context.Background(), &task))
	return task
}

func TestComputeTotals(t *testing.T) {
	items := []models.InvoiceItem{
		{Description: "GST filing", Quantity: 2, Rate: 1500},
		{Description: "Advisory", Quantity: 1, Rate: 999.99},
	}
	got := ComputeTotals(items)
	if got.Subtotal.String() != "3999.99" {
		t.Errorf("subtotal = %s", got.Subtotal)
	}
	if got.Tax.String() != "720" {
		t.Errorf("tax = %s", got.Tax)
	}
	if got.Total.String() != "4719.99" {
		t.Errorf("total = %s", got.Total)
	}
	if items[0].Amount != 3000 || items[1].Amount != 999.99 {
		t.Errorf("item amounts not set: %+v", items)
	}
}

func TestComputeTotalsRoundsSubtotalOnce(t *testing.T) {
	tests := []struct {
		name                 string
		items                []models.InvoiceItem
		subtotal, tax, total string
	}{
		{"sub-cent rates", []models.InvoiceItem{{Quantity: 1, Rate: 0.005}, {Quantity: 1, Rate: 0.005}}, "0.01", "0", "0.01"},
		{"three thirds", []models.InvoiceItem{{Quantity: 1, Rate: 33.333}, {Quantity: 1, Rate: 33.333}, {Quantity: 1, Rate: 33.334}}, "100", "18", "118"},
		{"fractional quantity", []models.InvoiceItem{{Quantity: 0.5, Rate: 0.03}, {Quantity: 0.5, Rate: 0.03}}, "0.03", "0.01", "0.04"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeTotals(tt.items)
			if got.Subtotal.String() != tt.subtotal || got.Tax.String() != tt.tax || got.Total.String() != tt.total {
				t.Errorf("got %s/%s/%s, want %s/%s/%s", got.Subtotal, got.Tax, got.Total, tt.subtotal, tt.tax, tt.total)
			}
		})
	}
}

func TestNextInvoiceNumber(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	svc := NewInvoiceService(s)
	now := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)

	num, err := svc.NextNumber(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0001", num)

	c := createClient(t, s, models.Client{Name: "Acme"})
	for _, n := range []string{"INV-2025-0001", "INV-2025-0007", "INV-2024-0042"} {
		inv := models.Invoice{ClientID: c.ID, InvoiceNumber: n, DueDate: now}
		require.NoError(t, s.Invoices.Create(ctx, &inv))
	}
	num, err = svc.NextNumber(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, "INV-2025-0008", num)

	// February still belongs to the financial year that started in April 2024.
	num, err = svc.NextNumber(ctx, time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, "INV-2024-0043", num)
}

func TestPrepareInvoice(t *testing.T) {
	s := setupStore(t)
	svc := NewInvoiceService(s)
	inv := models.Invoice{
		ClientID: "c1",
		Items:    []models.InvoiceItem{{Description: "Audit", Quantity: 1, Rate: 10000}},
		Total:    1,
	}
	require.NoError(t, svc.Prepare(context.Background(), &inv, time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, 10000.0, inv.Subtotal)
	assert.Equal(t, 1800.0, inv.Tax)
	assert.Equal(t, 11800.0, inv.Total)
	assert.Equal(t, models.InvoiceDraft, inv.Status)
	assert.Equal(t, "INV-2025-0001", inv.InvoiceNumber)
}

func TestAdvanceStage(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	svc := NewTaskService(s)
	c := createClient(t, s, models.Client{Name: "Acme"})
	task := createTask(t, s, models.Task{ClientID: c.ID, DueDate: time.Now(), WIPStage: compliance.StageFiling})

	got, err := svc.AdvanceStage(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.StageAcknowledged, got.WIPStage)
	assert.Equal(t, models.TaskPending, got.Status)

	got, err = svc.AdvanceStage(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.StageCompleted, got.WIPStage)
	assert.Equal(t, models.TaskCompleted, got.Status)

	got, err = svc.AdvanceStage(ctx, task.ID)
	require.NoError(t, err)
	assert.Equal(t, compliance.StageCompleted, got.WIPStage)
}

func TestResolveAssignee(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	svc := NewTaskService(s)
	st := models.Staff{Name: "Anita Rao", Email: "anita@example.in", Role: "Manager", Phone: "1"}
	require.NoError(t, s.Staff.Create(ctx, &st))

	task := models.Task{AssignedTo: "Anita Rao"}
	require.NoError(t, svc.ResolveAssignee(ctx, &task))
	require.NotNil(t, task.AssigneeID)
	assert.Equal(t, st.ID, *task.AssigneeID)

	label := models.Task{AssignedTo: "Outside consultant"}
	require.NoError(t, svc.ResolveAssignee(ctx, &label))
	assert.Nil(t, label.AssigneeID)
	assert.Equal(t, "Outside consultant", label.AssignedTo)
}

func TestDashboardStats(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	active := createClient(t, s, models.Client{Name: "Acme"})
	createClient(t, s, models.Client{Name: "Dormant", Status: models.ClientInactive})

	base := time.Now().UTC()
	for i := 0; i < 7; i++ {
		createTask(t, s, models.Task{ClientID: active.ID, DueDate: base.AddDate(0, 0, i+1)})
	}
	createTask(t, s, models.Task{ClientID: active.ID, DueDate: base, Status: models.TaskCompleted})

	for _, inv := range []models.Invoice{
		{InvoiceNumber: "A", Status: models.InvoicePaid, Total: 1180},
		{InvoiceNumber: "B", Status: models.InvoicePaid, Total: 590.5},
		{InvoiceNumber: "C", Status: models.InvoiceSent, Total: 100},
		{InvoiceNumber: "D", Status: models.InvoiceOverdue, Total: 100},
		{InvoiceNumber: "E", Status: models.InvoiceDraft, Total: 100},
	} {
		inv.ClientID = active.ID
		inv.DueDate = base
		require.NoError(t, s.Invoices.Create(ctx, &inv))
	}

	stats, err := NewDashboardService(s, NewInvoiceService(s)).Stats(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.TotalClients)
	assert.EqualValues(t, 7, stats.ActiveTasks)
	assert.EqualValues(t, 2, stats.PendingInvoices)
	assert.Equal(t, 1770.5, stats.TotalRevenue)
	require.Len(t, stats.UpcomingDeadlines, UpcomingLimit)
	assert.Equal(t, "Acme", stats.UpcomingDeadlines[0].ClientName)
	for i := 1; i < len(stats.UpcomingDeadlines); i++ {
		assert.False(t, stats.UpcomingDeadlines[i].DueDate.Before(stats.UpcomingDeadlines[i-1].DueDate))
	}
}

func TestComplianceReportAndCalendar(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	c := createClient(t, s, models.Client{Name: "Acme"})
	createTask(t, s, models.Task{ClientID: c.ID, TaskType: models.TaskGST, DueDate: time.Date(2025, 6, 20, 23, 59, 0, 0, time.UTC)})
	createTask(t, s, models.Task{ClientID: c.ID, TaskType: models.TaskGST, DueDate: time.Date(2025, 5, 20, 23, 59, 0, 0, time.UTC), Status: models.TaskOverdue})
	createTask(t, s, models.Task{ClientID: c.ID, TaskType: models.TaskITR, DueDate: time.Date(2025, 7, 31, 23, 59, 0, 0, time.UTC)})

	svc := NewReportService(s)
	rep, err := svc.Compliance(ctx, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, 3, rep.TotalTasks)
	assert.Equal(t, 2, rep.ByType["GST"])
	assert.Equal(t, 1, rep.Overdue)

	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 7, 31, 23, 59, 59, 0, time.UTC)
	rep, err = svc.Compliance(ctx, &start, &end)
	require.NoError(t, err)
	assert.Equal(t, 2, rep.TotalTasks)
	assert.Equal(t, 0, rep.Overdue)

	_, err = svc.Compliance(ctx, &end, &start)
	assert.Error(t, err)

	cal, err := svc.Calendar(ctx, 2025, 6)
	require.NoError(t, err)
	require.Len(t, cal.Tasks, 1)
	assert.Equal(t, models.TaskGST, cal.Tasks[0].TaskType)

	_, err = svc.Calendar(ctx, 2025, 13)
	assert.Error(t, err)
}
