package compliance

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// NotionalLiability is the tax amount interest is computed on when the real
// liability is unknown.
const NotionalLiability = 10_000

type feeSchedule struct {
	dailyFee     int64
	maxFee       int64 // 0 = uncapped
	flatFee      int64
	flatFeeLate  int64 // flat fee once more than a year late
	annualRate   string
	hasDailyRate bool
}

var lateFees = map[string]feeSchedule{
	"GST":   {dailyFee: 50, maxFee: 5_000, annualRate: "0.18", hasDailyRate: true},
	"ITR":   {flatFee: 5_000, flatFeeLate: 10_000, annualRate: "0.12"},
	"TDS":   {dailyFee: 200, annualRate: "0.18", hasDailyRate: true},
	"ROC":   {dailyFee: 100, maxFee: 200_000, annualRate: "0", hasDailyRate: true},
	"AUDIT": {annualRate: "0"},
}

// PenaltyBreakdown documents the inputs used for a late-fee result.
type PenaltyBreakdown struct {
	LateFeePerDay       float64 `json:"late_fee_per_day"`
	MaxLateFee          float64 `json:"max_late_fee,omitempty"`
	InterestRatePA      float64 `json:"interest_rate_pa"`
	AssumedTaxLiability float64 `json:"assumed_tax_liability"`
}

// LateFee is the penalty owed for a missed deadline.
type LateFee struct {
	TaskType     string           `json:"task_type"`
	DueDate      time.Time        `json:"due_date"`
	DaysOverdue  int              `json:"days_overdue"`
	Overdue      bool             `json:"overdue"`
	LateFee      float64          `json:"late_fee"`
	Interest     float64          `json:"interest"`
	TotalPenalty float64          `json:"total_penalty"`
	Breakdown    PenaltyBreakdown `json:"penalty_breakdown"`
}

// DaysOverdue counts whole days elapsed since due, never negative.
func DaysOverdue(due, now time.Time) int {
	if !now.After(due) {
		return 0
	}
	return int(now.Sub(due) / (24 * time.Hour))
}

// CalculateLateFee computes fee, simple interest on NotionalLiability and the
// total for a task category. Unknown categories owe nothing.
func CalculateLateFee(taskType string, due, now time.Time) LateFee {
	taskType = strings.ToUpper(strings.TrimSpace(taskType))
	sched, ok := lateFees[taskType]
	if !ok {
		sched = feeSchedule{annualRate: "0"}
	}
	rate := decimal.RequireFromString(sched.annualRate)
	res := LateFee{
		TaskType:    taskType,
		DueDate:     due,
		DaysOverdue: DaysOverdue(due, now),
		Breakdown: PenaltyBreakdown{
			LateFeePerDay:       float64(sched.dailyFee),
			MaxLateFee:          float64(sched.maxFee),
			InterestRatePA:      rate.Mul(decimal.NewFromInt(100)).InexactFloat64(),
			AssumedTaxLiability: NotionalLiability,
		},
	}
	if res.DaysOverdue == 0 {
		return res
	}
	res.Overdue = true
	days := decimal.NewFromInt(int64(res.DaysOverdue))

	var fee decimal.Decimal
	switch {
	case sched.hasDailyRate:
		fee = decimal.NewFromInt(sched.dailyFee).Mul(days)
		if sched.maxFee > 0 {
			fee = decimal.Min(fee, decimal.NewFromInt(sched.maxFee))
		}
	case sched.flatFeeLate > 0 && res.DaysOverdue > 365:
		fee = decimal.NewFromInt(sched.flatFeeLate)
	default:
		fee = decimal.NewFromInt(sched.flatFee)
	}

	interest := decimal.NewFromInt(NotionalLiability).
		Mul(rate).
		Mul(days).
		Div(decimal.NewFromInt(365))

	fee = fee.Round(2)
	interest = interest.Round(2)
	res.LateFee = fee.InexactFloat64()
	res.Interest = interest.InexactFloat64()
	res.TotalPenalty = fee.Add(interest).Round(2).InexactFloat64()
	return res
}
