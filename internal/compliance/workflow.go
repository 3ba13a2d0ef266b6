package compliance

import (
	"slices"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/internal/apperr"
)

// WIPStage is a step of the firm's work-in-progress pipeline.
type WIPStage string

const (
	StageDataCollection   WIPStage = "DATA_COLLECTION"
	StageUnderPreparation WIPStage = "UNDER_PREPARATION"
	StageReview           WIPStage = "REVIEW"
	StageClientApproval   WIPStage = "CLIENT_APPROVAL"
	StageFiling           WIPStage = "FILING"
	StageAcknowledged     WIPStage = "ACKNOWLEDGMENT_RECEIVED"
	StageCompleted        WIPStage = "COMPLETED"
)

var wipStages = []WIPStage{
	StageDataCollection,
	StageUnderPreparation,
	StageReview,
	StageClientApproval,
	StageFiling,
	StageAcknowledged,
	StageCompleted,
}

// WIPStages returns the stages in pipeline order.
func WIPStages() []WIPStage { return slices.Clone(wipStages) }

// ParseWIPStage validates a stage name. Empty input yields the first stage.
func ParseWIPStage(s string) (WIPStage, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return StageDataCollection, nil
	}
	if !slices.Contains(wipStages, WIPStage(s)) {
		return "", apperr.InvalidFormat("wip_stage", "unknown stage %q", s)
	}
	return WIPStage(s), nil
}

// NextStage returns the stage after s; the last stage is returned unchanged.
func NextStage(s WIPStage) (WIPStage, error) {
	i := slices.Index(wipStages, s)
	if i < 0 {
		return "", apperr.InvalidFormat("wip_stage", "unknown stage %q", s)
	}
	if i == len(wipStages)-1 {
		return s, nil
	}
	return wipStages[i+1], nil
}

// ChecklistEntry is one document or step a service needs.
type ChecklistEntry struct {
	Item string `json:"item"`
	// Mandatory is "yes", "no" or "conditional".
	Mandatory string `json:"mandatory"`
}

var serviceChecklists = map[string][]ChecklistEntry{
	"ITR_INDIVIDUAL": {
		{"Form 16 received from employer", "yes"},
		{"Form 26AS downloaded and verified", "yes"},
		{"Bank statements for all accounts", "yes"},
		{"Interest certificates from banks", "no"},
		{"House property details (rent, loan interest)", "no"},
		{"Capital gains computation", "no"},
		{"Investment proofs (80C, 80D, 80G)", "no"},
		{"Other income details (dividend, interest)", "no"},
		{"Previous year refund received confirmation", "no"},
	},
	"ITR_BUSINESS": {
		{"Books of accounts finalized", "yes"},
		{"Trial balance prepared", "yes"},
		{"Profit & Loss account", "yes"},
		{"Balance sheet", "yes"},
		{"Tax audit report (if applicable)", "conditional"},
		{"Advance tax payment challans", "no"},
		{"TDS certificates", "no"},
		{"Depreciation schedule", "yes"},
	},
	"GST_MONTHLY": {
		{"Sales register finalized", "yes"},
		{"Purchase register finalized", "yes"},
		{"GSTR-2A downloaded and reconciled", "yes"},
		{"E-way bills accounted for", "no"},
		{"Credit notes issued", "no"},
		{"Debit notes received", "no"},
		{"Exports documentation", "no"},
		{"HSN codes verified", "yes"},
	},
	"TDS_QUARTERLY": {
		{"TDS challan details collected", "yes"},
		{"Deductee details (PAN, amount) prepared", "yes"},
		{"Form 15G/15H collected (if applicable)", "no"},
		{"Late payment interest calculated", "no"},
		{"FVU file prepared", "yes"},
	},
	"AUDIT": {
		{"All vouchers collected", "yes"},
		{"Bank statements for full year", "yes"},
		{"Stock register", "yes"},
		{"Fixed assets register", "yes"},
		{"Loan agreements", "no"},
		{"Board resolutions", "conditional"},
		{"Related party transactions details", "no"},
	},
	"ROC_ANNUAL": {
		{"Board meeting for accounts approval", "yes"},
		{"AGM notice sent to members", "yes"},
		{"AGM conducted", "yes"},
		{"Financial statements finalized", "yes"},
		{"AOC-4 form prepared", "yes"},
		{"MGT-7 form prepared", "yes"},
		{"Digital signature certificates ready", "yes"},
	},
}

// ServiceChecklist returns the checklist of a service, or UnknownCategory.
func ServiceChecklist(service string) ([]ChecklistEntry, error) {
	key := strings.ToUpper(strings.TrimSpace(service))
	items, ok := serviceChecklists[key]
	if !ok {
		return nil, apperr.UnknownCategory("service_type", service)
	}
	return slices.Clone(items), nil
}

// QueryReminderDays are the ages (in days) at which a pending client query
// earns its first, second and third reminder.
var QueryReminderDays = []int{3, 7, 14}

// ShouldRemindQuery reports whether a query raised at raisedAt, having
// already received remindersSent reminders, is due for another one.
func ShouldRemindQuery(raisedAt, now time.Time, remindersSent int) bool {
	if remindersSent < 0 || remindersSent >= len(QueryReminderDays) {
		return false
	}
	return DaysOverdue(raisedAt, now) >= QueryReminderDays[remindersSent]
}
