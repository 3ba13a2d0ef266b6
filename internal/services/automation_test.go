package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/config"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu        sync.Mutex
	deadlines []string
	queries   []string
}

func (n *recordingNotifier) DeadlineReminder(_ context.Context, to string, task models.Task, _ int) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.deadlines = append(n.deadlines, to+"|"+task.Title)
	return nil
}

func (n *recordingNotifier) QueryReminder(_ context.Context, to string, q models.Query) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.queries = append(n.queries, to+"|"+q.ID)
	return nil
}

func newAutomation(t *testing.T, s *store.Store, now time.Time) (*Automation, *recordingNotifier) {
	t.Helper()
	n := &recordingNotifier{}
	a := NewAutomation(s, n, time.UTC, zap.NewNop())
	a.SetClock(func() time.Time { return now })
	return a, n
}

func TestMarkOverdue(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)
	c := createClient(t, s, models.Client{Name: "Acme"})

	late := createTask(t, s, models.Task{ClientID: c.ID, DueDate: now.Add(-time.Hour), Status: models.TaskInProgress})
	done := createTask(t, s, models.Task{ClientID: c.ID, DueDate: now.Add(-time.Hour), Status: models.TaskCompleted})
	future := createTask(t, s, models.Task{ClientID: c.ID, DueDate: now.Add(time.Hour)})

	sent := models.Invoice{ClientID: c.ID, InvoiceNumber: "S", Status: models.InvoiceSent, DueDate: now.AddDate(0, 0, -1)}
	draft := models.Invoice{ClientID: c.ID, InvoiceNumber: "D", Status: models.InvoiceDraft, DueDate: now.AddDate(0, 0, -1)}
	require.NoError(t, s.Invoices.Create(ctx, &sent))
	require.NoError(t, s.Invoices.Create(ctx, &draft))

	a, _ := newAutomation(t, s, now)
	res, err := a.Run(ctx, "overdue")
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)
	assert.Equal(t, JobOverdue, res.Job)

	want := map[string]models.TaskStatus{
		late.ID:   models.TaskOverdue,
		done.ID:   models.TaskCompleted,
		future.ID: models.TaskPending,
	}
	for id, status := range want {
		got, err := s.Tasks.Get(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, status, got.Status, id)
	}
	inv, err := s.Invoices.Get(ctx, sent.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceOverdue, inv.Status)
	inv, err = s.Invoices.Get(ctx, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InvoiceDraft, inv.Status)
}

func TestAutoAssignPicksLeastLoaded(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	c := createClient(t, s, models.Client{Name: "Acme"})

	anita := models.Staff{Name: "Anita", Email: "a@x.in", Role: "Manager", Phone: "1"}
	bala := models.Staff{Name: "Bala", Email: "b@x.in", Role: "Associate", Phone: "2"}
	require.NoError(t, s.Staff.Create(ctx, &bala))
	require.NoError(t, s.Staff.Create(ctx, &anita))

	due := time.Now().AddDate(0, 1, 0)
	for i := 0; i < 2; i++ {
		createTask(t, s, models.Task{ClientID: c.ID, DueDate: due, AssigneeID: &anita.ID})
	}
	labelled := createTask(t, s, models.Task{ClientID: c.ID, DueDate: due, AssignedTo: "External"})
	var open []models.Task
	for i := 0; i < 3; i++ {
		open = append(open, createTask(t, s, models.Task{ClientID: c.ID, DueDate: due.AddDate(0, 0, i)}))
	}

	a, _ := newAutomation(t, s, time.Now())
	res, err := a.Run(ctx, JobAssign)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Affected)

	wantAssignee := []string{"Bala", "Bala", "Anita"}
	for i, task := range open {
		got, err := s.Tasks.Get(ctx, task.ID)
		require.NoError(t, err)
		require.NotNil(t, got.AssigneeID)
		assert.Equal(t, wantAssignee[i], got.AssignedTo, "task %d", i)
	}
	got, err := s.Tasks.Get(ctx, labelled.ID)
	require.NoError(t, err)
	assert.Nil(t, got.AssigneeID)
	assert.Equal(t, "External", got.AssignedTo)
}

func TestAutoAssignWithoutStaff(t *testing.T) {
	s := setupStore(t)
	c := createClient(t, s, models.Client{Name: "Acme"})
	createTask(t, s, models.Task{ClientID: c.ID, DueDate: time.Now()})

	a, _ := newAutomation(t, s, time.Now())
	n, err := a.AutoAssign(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestGenerateRecurring(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 0, 30, 0, 0, time.UTC)
	full := createClient(t, s, models.Client{Name: "Acme", GSTIN: "27AAPFU0939F1ZV", PAN: "AAPFU0939F"})
	createClient(t, s, models.Client{Name: "Dormant", GSTIN: "27AAPFU0939F1ZV", Status: models.ClientInactive})
	createClient(t, s, models.Client{Name: "Bare"})

	a, _ := newAutomation(t, s, now)
	res, err := a.Run(ctx, JobRecurring)
	require.NoError(t, err)
	assert.EqualValues(t, 2, res.Affected)

	tasks, err := s.Tasks.List(ctx, store.Filter{"client_id": full.ID})
	require.NoError(t, err)
	require.Len(t, tasks, 2)

	gst, itr := tasks[0], tasks[1]
	assert.Equal(t, "GSTR-3B Filing - June 2025", gst.Title)
	assert.True(t, gst.DueDate.Equal(time.Date(2025, 7, 20, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, models.PriorityHigh, gst.Priority)
	assert.True(t, gst.AutoGenerated)
	assert.Len(t, gst.Checklist, 8)

	assert.Equal(t, "ITR Filing - FY 2024-25", itr.Title)
	assert.True(t, itr.DueDate.Equal(time.Date(2025, 7, 31, 23, 59, 0, 0, time.UTC)))
	assert.Equal(t, models.PriorityUrgent, itr.Priority)
	assert.Equal(t, "FY2024-25", itr.FinancialYear)

	res, err = a.Run(ctx, JobRecurring)
	require.NoError(t, err)
	assert.Zero(t, res.Affected)
}

func TestITRTaskOnlyWithinLeadTime(t *testing.T) {
	if _, ok := itrReturnTask("c", time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("ITR task generated more than 90 days ahead")
	}
	if _, ok := itrReturnTask("c", time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC)); ok {
		t.Error("ITR task generated a year ahead")
	}
	task, ok := itrReturnTask("c", time.Date(2025, 5, 15, 0, 0, 0, 0, time.UTC))
	if !ok || task.Title != "ITR Filing - FY 2024-25" {
		t.Errorf("got %q, %v", task.Title, ok)
	}
}

func TestSendReminders(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	c := createClient(t, s, models.Client{Name: "Acme", Email: "accounts@acme.in"})

	createTask(t, s, models.Task{Title: "In three days", ClientID: c.ID, DueDate: time.Date(2025, 6, 13, 23, 59, 0, 0, time.UTC)})
	createTask(t, s, models.Task{Title: "In two days", ClientID: c.ID, DueDate: time.Date(2025, 6, 12, 12, 0, 0, 0, time.UTC)})
	createTask(t, s, models.Task{Title: "Done", ClientID: c.ID, DueDate: time.Date(2025, 6, 11, 12, 0, 0, 0, time.UTC), Status: models.TaskCompleted})
	task := createTask(t, s, models.Task{Title: "Tomorrow", ClientID: c.ID, DueDate: time.Date(2025, 6, 11, 8, 0, 0, 0, time.UTC)})

	q := models.Query{TaskID: task.ID, ClientID: c.ID, QueryText: "Send bank statement", RaisedBy: "Anita",
		RaisedAt: now.AddDate(0, 0, -7)}
	fresh := models.Query{TaskID: task.ID, ClientID: c.ID, QueryText: "Confirm PAN", RaisedBy: "Anita",
		RaisedAt: now.AddDate(0, 0, -1)}
	require.NoError(t, s.Queries.Create(ctx, &q))
	require.NoError(t, s.Queries.Create(ctx, &fresh))

	a, n := newAutomation(t, s, now)
	res, err := a.Run(ctx, JobReminders)
	require.NoError(t, err)
	assert.EqualValues(t, 3, res.Affected)
	assert.ElementsMatch(t, []string{"accounts@acme.in|Tomorrow", "accounts@acme.in|In three days"}, n.deadlines)
	assert.Equal(t, []string{"accounts@acme.in|" + q.ID}, n.queries)

	got, err := s.Queries.Get(ctx, q.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.RemindersSent)
	require.NotNil(t, got.LastReminderAt)

	// A query reminded late is not reminded again on the same day.
	_, err = a.Run(ctx, JobReminders)
	require.NoError(t, err)
	assert.Len(t, n.queries, 1)

	a.SetClock(func() time.Time { return now.AddDate(0, 0, 1) })
	_, err = a.Run(ctx, JobReminders)
	require.NoError(t, err)
	assert.Len(t, n.queries, 2)
}

func TestRunUnknownJob(t *testing.T) {
	a := NewAutomation(nil, nil, nil, nil)
	_, err := a.Run(context.Background(), "payroll")
	assert.True(t, errors.Is(err, apperr.ErrUnknownCategory))
}

func TestSchedulerLifecycle(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sched := NewScheduler(time.UTC, zap.NewNop())
	a := NewAutomation(nil, nil, time.UTC, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, sched.RegisterAutomation(ctx, a, config.Default().Automation))
	assert.Equal(t, 4, sched.Entries())

	done := make(chan error, 1)
	go func() { done <- sched.Run(ctx) }()
	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestSchedulerStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	sched := NewScheduler(time.UTC, zap.NewNop())
	assert.False(t, sched.Running())
	assert.False(t, sched.Stop(), "stop before start")

	assert.True(t, sched.Start())
	assert.False(t, sched.Start(), "already running")
	assert.True(t, sched.Running())

	assert.True(t, sched.Stop())
	assert.False(t, sched.Running())

	assert.True(t, sched.Start(), "restart after stop")
	assert.True(t, sched.Stop())
}

func TestBuildDailySpec(t *testing.T) {
	spec, err := buildDailySpec("09:30")
	require.NoError(t, err)
	assert.Equal(t, "0 30 9 * * *", spec)
	for _, bad := range []string{"9", "24:00", "12:60", "ab:cd"} {
		_, err := buildDailySpec(bad)
		assert.Error(t, err, bad)
	}
}
