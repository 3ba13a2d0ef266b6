package models

import (
	"time"

	"github.com/diewo77/ca-practice/internal/compliance"
	"gorm.io/gorm"
)

type QueryStatus string

const (
	QueryOpen          QueryStatus = "OPEN"
	QueryPendingClient QueryStatus = "PENDING_CLIENT"
	QueryResolved      QueryStatus = "RESOLVED"
	QueryClosed        QueryStatus = "CLOSED"
)

var QueryStatuses = []QueryStatus{QueryOpen, QueryPendingClient, QueryResolved, QueryClosed}

// Query is a question raised to a client while working on a task.
type Query struct {
	ID             string      `gorm:"primaryKey;size:36" json:"id"`
	TaskID         string      `gorm:"size:36;index;not null" json:"task_id"`
	ClientID       string      `gorm:"size:36;index;not null" json:"client_id"`
	QueryText      string      `gorm:"type:text;not null" json:"query_text"`
	RaisedBy       string      `gorm:"size:255;not null" json:"raised_by"`
	RaisedAt       time.Time   `json:"raised_at"`
	Status         QueryStatus `gorm:"size:20;index;not null" json:"status"`
	Response       string      `gorm:"type:text" json:"response,omitempty"`
	RespondedAt    *time.Time  `json:"responded_at,omitempty"`
	RemindersSent  int         `json:"reminders_sent"`
	LastReminderAt *time.Time  `json:"last_reminder_at,omitempty"`

	DaysPending int `gorm:"-" json:"days_pending"`
}

// IsPending reports whether the query still waits on the client.
func (q *Query) IsPending() bool {
	return q.Status == QueryOpen || q.Status == QueryPendingClient
}

func (q *Query) BeforeCreate(tx *gorm.DB) error {
	ensureID(&q.ID)
	if q.Status == "" {
		q.Status = QueryOpen
	}
	if q.RaisedAt.IsZero() {
		q.RaisedAt = time.Now()
	}
	q.RaisedAt = q.RaisedAt.UTC()
	return nil
}

func (q *Query) AfterFind(tx *gorm.DB) error {
	end := time.Now()
	if !q.IsPending() && q.RespondedAt != nil {
		end = *q.RespondedAt
	}
	q.DaysPending = compliance.DaysOverdue(q.RaisedAt, end)
	return nil
}
