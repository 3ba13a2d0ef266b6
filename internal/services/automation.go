package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Automation job names accepted by Run.
const (
	JobOverdue   = "overdue"
	JobReminders = "reminders"
	JobAssign    = "assign"
	JobRecurring = "recurring"
)

// Jobs lists every automation job.
var Jobs = []string{JobOverdue, JobReminders, JobAssign, JobRecurring}

// DeadlineReminderDays are the lead times, in days, of deadline reminders.
var DeadlineReminderDays = []int{1, 3, 7}

// ITRLeadDays is how close the ITR deadline must be before a task is created.
const ITRLeadDays = 90

// Notifier delivers reminders to clients.
type Notifier interface {
	DeadlineReminder(ctx context.Context, to string, task models.Task, daysAhead int) error
	QueryReminder(ctx context.Context, to string, q models.Query) error
}

// LogNotifier writes reminders to the log instead of sending them.
type LogNotifier struct {
	Log *zap.Logger
}

func (n LogNotifier) DeadlineReminder(_ context.Context, to string, task models.Task, daysAhead int) error {
	n.Log.Info("deadline reminder",
		zap.String("to", to),
		zap.String("task_id", task.ID),
		zap.String("title", task.Title),
		zap.Time("due_date", task.DueDate),
		zap.String("priority", string(task.Priority)),
		zap.Int("days_ahead", daysAhead),
	)
	return nil
}

func (n LogNotifier) QueryReminder(_ context.Context, to string, q models.Query) error {
	n.Log.Info("query reminder",
		zap.String("to", to),
		zap.String("query_id", q.ID),
		zap.String("task_id", q.TaskID),
		zap.Int("reminder", q.RemindersSent+1),
	)
	return nil
}

// JobResult reports one automation run.
type JobResult struct {
	Job      string    `json:"job"`
	Affected int64     `json:"affected"`
	RanAt    time.Time `json:"ran_at"`
}

// Automation holds the background jobs of the practice.
type Automation struct {
	store    *store.Store
	notifier Notifier
	log      *zap.Logger
	loc      *time.Location
	now      func() time.Time
}

func NewAutomation(s *store.Store, n Notifier, loc *time.Location, log *zap.Logger) *Automation {
	if loc == nil {
		loc = time.UTC
	}
	if log == nil {
		log = zap.NewNop()
	}
	if n == nil {
		n = LogNotifier{Log: log}
	}
	return &Automation{store: s, notifier: n, log: log, loc: loc, now: time.Now}
}

// SetClock replaces the time source.
func (a *Automation) SetClock(now func() time.Time) { a.now = now }

// Run executes job once.
func (a *Automation) Run(ctx context.Context, job string) (*JobResult, error) {
	now := a.now()
	var (
		n   int64
		err error
	)
	name := strings.ToLower(strings.TrimSpace(job))
	switch name {
	case JobOverdue:
		n, err = a.MarkOverdue(ctx, now)
	case JobReminders:
		n, err = a.SendReminders(ctx, now)
	case JobAssign:
		n, err = a.AutoAssign(ctx)
	case JobRecurring:
		n, err = a.GenerateRecurring(ctx, now)
	default:
		return nil, apperr.UnknownCategory("job", job)
	}
	if err != nil {
		return nil, err
	}
	return &JobResult{Job: name, Affected: n, RanAt: now.UTC()}, nil
}

// Func adapts job for the scheduler; failures are logged.
func (a *Automation) Func(ctx context.Context, job string) func() {
	return func() {
		res, err := a.Run(ctx, job)
		if err != nil {
			a.log.Error("automation job failed", zap.String("job", job), zap.Error(err))
			return
		}
		a.log.Info("automation job finished", zap.String("job", job), zap.Int64("affected", res.Affected))
	}
}

// MarkOverdue flips active tasks and sent invoices past their due date.
func (a *Automation) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	tasks, err := a.store.MarkOverdueTasks(ctx, now)
	if err != nil {
		return 0, err
	}
	invoices, err := a.store.MarkOverdueInvoices(ctx, now)
	if err != nil {
		return tasks, err
	}
	return tasks + invoices, nil
}

// SendReminders notifies clients of active tasks due in exactly 1, 3 or 7
// days and of pending queries that reached their next reminder age.
func (a *Automation) SendReminders(ctx context.Context, now time.Time) (int64, error) {
	deadlines, err := a.sendDeadlineReminders(ctx, now)
	if err != nil {
		return deadlines, err
	}
	queries, err := a.sendQueryReminders(ctx, now)
	return deadlines + queries, err
}

func (a *Automation) sendDeadlineReminders(ctx context.Context, now time.Time) (int64, error) {
	local := now.In(a.loc)
	var sent int64
	for _, days := range DeadlineReminderDays {
		day := local.AddDate(0, 0, days)
		start := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, a.loc)
		end := start.AddDate(0, 0, 1)
		tasks, err := a.store.Tasks.Scoped(ctx, func(q *gorm.DB) *gorm.DB {
			return q.Where("status IN ? AND due_date >= ? AND due_date < ?",
				models.ActiveTaskStatuses, start.UTC(), end.UTC())
		})
		if err != nil {
			return sent, err
		}
		for _, t := range tasks {
			if t.Client == nil || t.Client.Email == "" {
				continue
			}
			if err := a.notifier.DeadlineReminder(ctx, t.Client.Email, t, days); err != nil {
				a.log.Warn("deadline reminder failed", zap.String("task_id", t.ID), zap.Error(err))
				continue
			}
			sent++
		}
	}
	return sent, nil
}

func (a *Automation) sendQueryReminders(ctx context.Context, now time.Time) (int64, error) {
	queries, err := a.store.Queries.Scoped(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("status IN ?", []models.QueryStatus{models.QueryOpen, models.QueryPendingClient})
	})
	if err != nil {
		return 0, err
	}
	var sent int64
	for _, q := range queries {
		if !compliance.ShouldRemindQuery(q.RaisedAt, now, q.RemindersSent) {
			continue
		}
		// At most one reminder per query per day.
		if q.LastReminderAt != nil && now.Sub(*q.LastReminderAt) < 24*time.Hour {
			continue
		}
		client, err := a.store.Clients.Get(ctx, q.ClientID)
		if err != nil {
			a.log.Warn("query reminder skipped", zap.String("query_id", q.ID), zap.Error(err))
			continue
		}
		if err := a.notifier.QueryReminder(ctx, client.Email, q); err != nil {
			a.log.Warn("query reminder failed", zap.String("query_id", q.ID), zap.Error(err))
			continue
		}
		at := now.UTC()
		err = a.store.Queries.UpdateColumns(ctx, q.ID, map[string]any{
			"reminders_sent":   q.RemindersSent + 1,
			"last_reminder_at": &at,
		})
		if err != nil {
			return sent, err
		}
		sent++
	}
	return sent, nil
}

// AutoAssign gives every unassigned PENDING task to the staff member with the
// fewest active tasks. Ties go to the first name alphabetically.
func (a *Automation) AutoAssign(ctx context.Context) (int64, error) {
	staff, err := a.store.Staff.List(ctx, nil)
	if err != nil || len(staff) == 0 {
		return 0, err
	}
	tasks, err := a.store.Tasks.Scoped(ctx, func(q *gorm.DB) *gorm.DB {
		return q.Where("status = ? AND assignee_id IS NULL AND (assigned_to IS NULL OR assigned_to = '')", models.TaskPending)
	})
	if err != nil || len(tasks) == 0 {
		return 0, err
	}
	load, err := a.store.ActiveTaskCounts(ctx)
	if err != nil {
		return 0, err
	}

	var assigned int64
	for _, t := range tasks {
		pick := staff[0]
		for _, s := range staff[1:] {
			if load[s.ID] < load[pick.ID] {
				pick = s
			}
		}
		err := a.store.Tasks.UpdateColumns(ctx, t.ID, map[string]any{
			"assignee_id": pick.ID,
			"assigned_to": pick.Name,
		})
		if err != nil {
			return assigned, err
		}
		load[pick.ID]++
		assigned++
		a.log.Info("task auto-assigned", zap.String("task_id", t.ID), zap.String("staff", pick.Name))
	}
	return assigned, nil
}

// GenerateRecurring creates the monthly GSTR-3B task of every active client
// with a GSTIN and, within ITRLeadDays of 31 July, the ITR task of every
// active client with a PAN. Existing titles are not duplicated.
func (a *Automation) GenerateRecurring(ctx context.Context, now time.Time) (int64, error) {
	clients, err := a.store.Clients.List(ctx, store.Filter{"status": models.ClientActive})
	if err != nil {
		return 0, err
	}
	now = now.UTC()
	var created int64
	for _, c := range clients {
		var tasks []models.Task
		if c.GSTIN != "" {
			tasks = append(tasks, gstReturnTask(c.ID, now))
		}
		if c.PAN != "" {
			if t, ok := itrReturnTask(c.ID, now); ok {
				tasks = append(tasks, t)
			}
		}
		for i := range tasks {
			ok, err := a.createOnce(ctx, &tasks[i])
			if err != nil {
				return created, err
			}
			if ok {
				created++
				a.log.Info("recurring task generated",
					zap.String("client", c.Name), zap.String("title", tasks[i].Title))
			}
		}
	}
	return created, nil
}

func (a *Automation) createOnce(ctx context.Context, t *models.Task) (bool, error) {
	exists, err := a.store.TaskExists(ctx, t.ClientID, t.Title)
	if err != nil || exists {
		return false, err
	}
	if err := a.store.Tasks.Create(ctx, t); err != nil {
		return false, err
	}
	return true, nil
}

func gstReturnTask(clientID string, now time.Time) models.Task {
	due := time.Date(now.Year(), now.Month()+1, 20, 23, 59, 0, 0, time.UTC)
	var checklist []models.ChecklistItem
	if entries, err := compliance.ServiceChecklist("GST_MONTHLY"); err == nil {
		for _, e := range entries {
			checklist = append(checklist, models.ChecklistItem{Item: e.Item, Mandatory: e.Mandatory})
		}
	}
	return models.Task{
		Title:         fmt.Sprintf("GSTR-3B Filing - %s %d", now.Month(), now.Year()),
		Description:   "Monthly GST return filing",
		ClientID:      clientID,
		TaskType:      models.TaskGST,
		DueDate:       due,
		Priority:      models.PriorityHigh,
		Checklist:     checklist,
		Quarter:       compliance.QuarterOf(now),
		AutoGenerated: true,
	}
}

func itrReturnTask(clientID string, now time.Time) (models.Task, bool) {
	year := now.Year()
	if now.Month() > time.July {
		year++
	}
	due := time.Date(year, time.July, 31, 23, 59, 0, 0, time.UTC)
	days := int(due.Sub(now) / (24 * time.Hour))
	if days <= 0 || days > ITRLeadDays {
		return models.Task{}, false
	}
	// The return covers the financial year that ended before the deadline.
	fy := compliance.FinancialYearOf(time.Date(year-1, time.April, 1, 0, 0, 0, 0, time.UTC))
	return models.Task{
		Title:         "ITR Filing - FY " + fy.ShortCode(),
		Description:   "Annual Income Tax Return filing",
		ClientID:      clientID,
		TaskType:      models.TaskITR,
		DueDate:       due,
		Priority:      models.PriorityUrgent,
		FinancialYear: fy.Code,
		AutoGenerated: true,
	}, true
}
