package models

import (
	"time"

	"github.com/diewo77/ca-practice/internal/compliance"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type TaskType string

const (
	TaskGST     TaskType = "GST"
	TaskITR     TaskType = "ITR"
	TaskAudit   TaskType = "AUDIT"
	TaskROC     TaskType = "ROC"
	TaskGeneral TaskType = "GENERAL"
)

var TaskTypes = []TaskType{TaskGST, TaskITR, TaskAudit, TaskROC, TaskGeneral}

type TaskStatus string

const (
	TaskPending    TaskStatus = "PENDING"
	TaskInProgress TaskStatus = "IN_PROGRESS"
	TaskCompleted  TaskStatus = "COMPLETED"
	TaskOverdue    TaskStatus = "OVERDUE"
)

var TaskStatuses = []TaskStatus{TaskPending, TaskInProgress, TaskCompleted, TaskOverdue}

// ActiveTaskStatuses are the statuses counted as open work.
var ActiveTaskStatuses = []TaskStatus{TaskPending, TaskInProgress}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
	PriorityUrgent Priority = "URGENT"
)

var Priorities = []Priority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Task is a unit of compliance work for a client.
type Task struct {
	ID          string   `gorm:"primaryKey;size:36" json:"id"`
	Title       string   `gorm:"size:255;not null" json:"title"`
	Description string   `gorm:"type:text" json:"description,omitempty"`
	ClientID    string   `gorm:"size:36;index;not null" json:"client_id"`
	TaskType    TaskType `gorm:"size:20;index;not null" json:"task_type"`

	DueDate  time.Time  `gorm:"index;not null" json:"due_date"`
	Status   TaskStatus `gorm:"size:20;index;not null" json:"status"`
	Priority Priority   `gorm:"size:20;not null" json:"priority"`

	// AssigneeID references a Staff record. AssignedTo is the staff name on
	// read, or a free-text label when no staff record matched.
	AssigneeID *string `gorm:"size:36;index" json:"assignee_id,omitempty"`
	AssignedTo string  `gorm:"size:255" json:"assigned_to,omitempty"`

	WIPStage      compliance.WIPStage                `gorm:"size:40;not null" json:"wip_stage"`
	FinancialYear string                             `gorm:"size:12" json:"financial_year,omitempty"`
	Quarter       int                                `json:"quarter,omitempty"`
	Checklist     datatypes.JSONSlice[ChecklistItem] `json:"checklist,omitempty"`
	Template      string                             `gorm:"size:40" json:"template,omitempty"`
	AutoGenerated bool                               `json:"auto_generated"`

	Client   *Client `gorm:"foreignKey:ClientID" json:"-"`
	Assignee *Staff  `gorm:"foreignKey:AssigneeID" json:"-"`

	ClientName string `gorm:"-" json:"client_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize fills defaults.
func (t *Task) Normalize() {
	if t.Status == "" {
		t.Status = TaskPending
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if t.WIPStage == "" {
		t.WIPStage = compliance.StageDataCollection
	}
	t.DueDate = t.DueDate.UTC()
	if t.FinancialYear == "" && !t.DueDate.IsZero() {
		t.FinancialYear = compliance.FinancialYearOf(t.DueDate).Code
	}
	if t.AssigneeID != nil && *t.AssigneeID == "" {
		t.AssigneeID = nil
	}
}

// IsActive reports whether the task still counts as open work.
func (t *Task) IsActive() bool {
	return t.Status == TaskPending || t.Status == TaskInProgress
}

func (t *Task) BeforeCreate(tx *gorm.DB) error {
	ensureID(&t.ID)
	t.Normalize()
	return nil
}

// AfterFind resolves display names from preloaded relations.
func (t *Task) AfterFind(tx *gorm.DB) error {
	if t.Client != nil {
		t.ClientName = t.Client.Name
	}
	if t.Assignee != nil {
		t.AssignedTo = t.Assignee.Name
	}
	return nil
}
