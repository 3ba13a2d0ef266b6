package models

import (
	"testing"
	"time"

	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{DisableForeignKeyConstraintWhenMigrating: true})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(All()...))
	return db
}

func TestClientDefaultsAndCompliance(t *testing.T) {
	db := setupTestDB(t)
	turnover := 5_000_000.0
	c := Client{Name: "Acme", Email: "a@acme.in", Phone: "1", GSTIN: " 27aapfu0939f1zv ", BusinessType: "proprietorship", Turnover: &turnover}
	require.NoError(t, db.Create(&c).Error)
	assert.Len(t, c.ID, 36)
	assert.Equal(t, ClientActive, c.Status)
	assert.Equal(t, "27AAPFU0939F1ZV", c.GSTIN)

	var got Client
	require.NoError(t, db.First(&got, "id = ?", c.ID).Error)
	require.NotNil(t, got.Compliance)
	assert.True(t, got.Compliance.RequiresGST)
	assert.Equal(t, compliance.BusinessType("PROPRIETORSHIP"), got.Compliance.BusinessType)
}

func TestClientWithoutBusinessTypeHasNoCompliance(t *testing.T) {
	db := setupTestDB(t)
	c := Client{Name: "Plain", Email: "p@x", Phone: "2"}
	require.NoError(t, db.Create(&c).Error)
	var got Client
	require.NoError(t, db.First(&got, "id = ?", c.ID).Error)
	assert.Nil(t, got.Compliance)
}

func TestTaskResolvesNames(t *testing.T) {
	db := setupTestDB(t)
	c := Client{Name: "Acme", Email: "a@acme.in", Phone: "1"}
	s := Staff{Name: "Priya", Email: "p@firm.in", Role: "Associate", Phone: "3"}
	require.NoError(t, db.Create(&c).Error)
	require.NoError(t, db.Create(&s).Error)

	due := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)
	task := Task{Title: "ITR", ClientID: c.ID, TaskType: TaskITR, DueDate: due, AssigneeID: &s.ID, AssignedTo: "stale"}
	require.NoError(t, db.Create(&task).Error)
	assert.Equal(t, TaskPending, task.Status)
	assert.Equal(t, PriorityMedium, task.Priority)
	assert.Equal(t, compliance.StageDataCollection, task.WIPStage)
	assert.Equal(t, "FY2025-26", task.FinancialYear)

	var got Task
	require.NoError(t, db.Preload("Client").Preload("Assignee").First(&got, "id = ?", task.ID).Error)
	assert.Equal(t, "Acme", got.ClientName)
	assert.Equal(t, "Priya", got.AssignedTo)
}

func TestTaskChecklistRoundTrip(t *testing.T) {
	db := setupTestDB(t)
	task := Task{Title: "GST", ClientID: "c1", TaskType: TaskGST, DueDate: time.Now(),
		Checklist: []ChecklistItem{{Item: "Sales register", Mandatory: "yes"}, {Item: "E-way bills", Completed: true}}}
	require.NoError(t, db.Create(&task).Error)
	var got Task
	require.NoError(t, db.First(&got, "id = ?", task.ID).Error)
	require.Len(t, got.Checklist, 2)
	assert.Equal(t, "Sales register", got.Checklist[0].Item)
	assert.True(t, got.Checklist[1].Completed)
}

func TestQueryDaysPending(t *testing.T) {
	db := setupTestDB(t)
	q := Query{TaskID: "t", ClientID: "c", QueryText: "Send Form 16", RaisedBy: "Priya", RaisedAt: time.Now().Add(-72 * time.Hour)}
	require.NoError(t, db.Create(&q).Error)
	assert.Equal(t, QueryOpen, q.Status)

	var got Query
	require.NoError(t, db.First(&got, "id = ?", q.ID).Error)
	assert.Equal(t, 3, got.DaysPending)
}

func TestDocumentDefaults(t *testing.T) {
	db := setupTestDB(t)
	d := Document{ClientID: "c", Filename: "notes.txt", FileURL: "/uploads/notes.txt"}
	require.NoError(t, db.Create(&d).Error)
	assert.Equal(t, DefaultDocumentCategory, d.Category)
	assert.False(t, d.UploadedAt.IsZero())
}
