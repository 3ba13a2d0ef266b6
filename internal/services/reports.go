package services

import (
	"context"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"gorm.io/gorm"
)

type ComplianceReport struct {
	TotalTasks int            `json:"total_tasks"`
	ByType     map[string]int `json:"by_type"`
	ByStatus   map[string]int `json:"by_status"`
	Overdue    int            `json:"overdue"`
	StartDate  *time.Time     `json:"start_date,omitempty"`
	EndDate    *time.Time     `json:"end_date,omitempty"`
}

type CalendarMonth struct {
	Month int           `json:"month"`
	Year  int           `json:"year"`
	Tasks []models.Task `json:"tasks"`
}

type ReportService struct {
	store *store.Store
}

func NewReportService(s *store.Store) *ReportService {
	return &ReportService{store: s}
}

// Compliance summarises tasks by type and status. The date range applies
// to due dates and is only used when both ends are given.
func (s *ReportService) Compliance(ctx context.Context, start, end *time.Time) (*ComplianceReport, error) {
	ranged := start != nil && end != nil
	if ranged && end.Before(*start) {
		return nil, apperr.InvalidFormat("end_date", "must not be before start_date")
	}
	tasks, err := s.store.Tasks.Scoped(ctx, func(q *gorm.DB) *gorm.DB {
		if ranged {
			q = q.Where("due_date >= ? AND due_date <= ?", start.UTC(), end.UTC())
		}
		return q
	})
	if err != nil {
		return nil, err
	}
	rep := &ComplianceReport{
		TotalTasks: len(tasks),
		ByType:     map[string]int{},
		ByStatus:   map[string]int{},
	}
	if ranged {
		rep.StartDate, rep.EndDate = start, end
	}
	for _, t := range tasks {
		rep.ByType[string(t.TaskType)]++
		rep.ByStatus[string(t.Status)]++
		if t.Status == models.TaskOverdue {
			rep.Overdue++
		}
	}
	return rep, nil
}

// Calendar lists the tasks due in the given month, evaluated in UTC.
func (s *ReportService) Calendar(ctx context.Context, year, month int) (*CalendarMonth, error) {
	if month < 1 || month > 12 {
		return nil, apperr.InvalidFormat("month", "must be between 1 and 12")
	}
	if year < 1900 || year > 9999 {
		return nil, apperr.InvalidFormat("year", "out of range")
	}
	first := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, time.UTC)
	next := first.AddDate(0, 1, 0)
	tasks, err := s.store.Tasks.Scoped(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("due_date >= ? AND due_date < ?", first, next)
	})
	if err != nil {
		return nil, err
	}
	return &CalendarMonth{Month: month, Year: year, Tasks: tasks}, nil
}
