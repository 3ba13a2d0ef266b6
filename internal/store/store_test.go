package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(models.All()...))
	return New(db)
}

func TestCreateThenGetIsIdentical(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	c := models.Client{Name: "Acme", Email: "a@acme.in", Phone: "1", PAN: "AAPFU0939F"}
	require.NoError(t, s.Clients.Create(ctx, &c))

	got, err := s.Clients.Get(ctx, c.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(c, *got, cmpopts.EquateApproxTime(time.Millisecond)); diff != "" {
		t.Errorf("record mismatch (-created +got):\n%s", diff)
	}
}

func TestUnknownIDIsNotFound(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()

	_, err := s.Tasks.Get(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	err = s.Staff.Delete(ctx, "missing")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))

	_, err = s.Clients.Update(ctx, "missing", &models.Client{Name: "x"})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestUpdatePreservesIDAndCreatedAt(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	c := models.Client{Name: "Acme", Email: "a@acme.in", Phone: "1", Address: "Pune"}
	require.NoError(t, s.Clients.Create(ctx, &c))

	repl := models.Client{ID: "other", Name: "Acme Ltd", Email: "b@acme.in", Phone: "2", Status: models.ClientInactive}
	got, err := s.Clients.Update(ctx, c.ID, &repl)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
	assert.WithinDuration(t, c.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.Equal(t, "Acme Ltd", got.Name)
	assert.Equal(t, models.ClientInactive, got.Status)
	assert.Empty(t, got.Address, "update replaces every mutable field")
}

func TestListFilterAndDelete(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	due := time.Now().Add(48 * time.Hour)
	for _, tt := range []models.Task{
		{Title: "a", ClientID: "c1", TaskType: models.TaskGST, DueDate: due},
		{Title: "b", ClientID: "c1", TaskType: models.TaskITR, DueDate: due.Add(time.Hour)},
		{Title: "c", ClientID: "c2", TaskType: models.TaskGST, DueDate: due, Status: models.TaskCompleted},
	} {
		tt := tt
		require.NoError(t, s.Tasks.Create(ctx, &tt))
	}

	gst, err := s.Tasks.List(ctx, Filter{"task_type": models.TaskGST})
	require.NoError(t, err)
	assert.Len(t, gst, 2)

	active, err := s.Tasks.List(ctx, Filter{"status": models.ActiveTaskStatuses, "client_id": "c1"})
	require.NoError(t, err)
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].Title, "ordered by due date")

	n, err := s.Tasks.Count(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)

	require.NoError(t, s.Tasks.Delete(ctx, active[0].ID))
	n, _ = s.Tasks.Count(ctx, nil)
	assert.Equal(t, int64(2), n)
}

func TestMarkOverdue(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	now := time.Now().UTC()
	past := now.Add(-time.Hour)
	for _, tt := range []models.Task{
		{Title: "late", ClientID: "c", TaskType: models.TaskGST, DueDate: past},
		{Title: "late but done", ClientID: "c", TaskType: models.TaskGST, DueDate: past, Status: models.TaskCompleted},
		{Title: "future", ClientID: "c", TaskType: models.TaskGST, DueDate: now.Add(time.Hour)},
	} {
		tt := tt
		require.NoError(t, s.Tasks.Create(ctx, &tt))
	}
	n, err := s.MarkOverdueTasks(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	overdue, err := s.Tasks.List(ctx, Filter{"status": models.TaskOverdue})
	require.NoError(t, err)
	require.Len(t, overdue, 1)
	assert.Equal(t, "late", overdue[0].Title)
}

func TestActiveTaskCountsAndStaffByName(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	a := models.Staff{Name: "Asha", Email: "a@f", Role: "Associate", Phone: "1"}
	require.NoError(t, s.Staff.Create(ctx, &a))

	due := time.Now().Add(24 * time.Hour)
	for _, st := range []models.TaskStatus{models.TaskPending, models.TaskInProgress, models.TaskCompleted} {
		tk := models.Task{Title: string(st), ClientID: "c", TaskType: models.TaskROC, DueDate: due, Status: st, AssigneeID: &a.ID}
		require.NoError(t, s.Tasks.Create(ctx, &tk))
	}
	counts, err := s.ActiveTaskCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[string]int64{a.ID: 2}, counts)

	got, ok, err := s.StaffByName(ctx, "Asha")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, a.ID, got.ID)

	_, ok, err = s.StaffByName(ctx, "asha")
	require.NoError(t, err)
	assert.False(t, ok, "name match is exact")
}

func TestLookupsByEmail(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	noPass := models.Staff{Name: "No Pass", Email: "desk@firm.example", Role: "Clerk", Phone: "1"}
	require.NoError(t, s.Staff.Create(ctx, &noPass))
	_, ok, err := s.StaffForLogin(ctx, "desk@firm.example")
	require.NoError(t, err)
	assert.False(t, ok, "staff without a password cannot sign in")

	withPass := models.Staff{Name: "Partner", Email: "Partner@Firm.example", Role: "Partner", Phone: "2", PasswordHash: "hash"}
	require.NoError(t, s.Staff.Create(ctx, &withPass))
	got, ok, err := s.StaffForLogin(ctx, "partner@firm.example")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, withPass.ID, got.ID)

	c := models.Client{Name: "Acme", Email: "Accounts@Acme.example", Phone: "1"}
	require.NoError(t, s.Clients.Create(ctx, &c))
	found, ok, err := s.ClientByEmail(ctx, "accounts@acme.example")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, c.ID, found.ID)
	_, ok, err = s.ClientByEmail(ctx, "nobody@acme.example")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestTransactionRollsBack(t *testing.T) {
	s := setupStore(t)
	ctx := context.Background()
	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx *Store) error {
		c := models.Client{Name: "Temp", Email: "t@x", Phone: "1"}
		if err := tx.Clients.Create(ctx, &c); err != nil {
			return err
		}
		return boom
	})
	require.ErrorIs(t, err, boom)
	n, _ := s.Clients.Count(ctx, nil)
	assert.Zero(t, n)
}
