package compliance

import (
	"testing"
	"time"
)

func TestLateFeeNotOverdue(t *testing.T) {
	now := time.Date(2025, 7, 1, 10, 0, 0, 0, time.UTC)
	for _, due := range []time.Time{now, now.Add(48 * time.Hour), now.Add(-23 * time.Hour)} {
		got := CalculateLateFee("GST", due, now)
		if got.Overdue || got.DaysOverdue != 0 || got.TotalPenalty != 0 || got.LateFee != 0 || got.Interest != 0 {
			t.Errorf("due=%s: expected zero penalty, got %+v", due, got)
		}
	}
}

func TestLateFeeGST30Days(t *testing.T) {
	now := time.Date(2025, 7, 31, 0, 0, 0, 0, time.UTC)
	due := now.AddDate(0, 0, -30)
	got := CalculateLateFee("GST", due, now)
	if got.DaysOverdue != 30 || !got.Overdue {
		t.Fatalf("days = %d overdue = %v", got.DaysOverdue, got.Overdue)
	}
	// 50/day * 30; 10000 * 0.18 * 30 / 365 = 147.945...
	if got.LateFee != 1500 {
		t.Errorf("LateFee = %v, want 1500", got.LateFee)
	}
	if got.Interest != 147.95 {
		t.Errorf("Interest = %v, want 147.95", got.Interest)
	}
	if got.TotalPenalty != 1647.95 {
		t.Errorf("TotalPenalty = %v, want 1647.95", got.TotalPenalty)
	}
	if got.Breakdown.InterestRatePA != 18 || got.Breakdown.LateFeePerDay != 50 {
		t.Errorf("breakdown = %+v", got.Breakdown)
	}
}

func TestLateFeeSchedules(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		taskType string
		days     int
		fee      float64
	}{
		{"GST", 200, 5000},    // capped
		{"ROC", 10, 1000},     // 100/day
		{"ROC", 5000, 200000}, // capped
		{"TDS", 10, 2000},     // uncapped
		{"ITR", 10, 5000},     // flat
		{"ITR", 400, 10000},   // flat, over a year
		{"AUDIT", 30, 0},
		{"GENERAL", 30, 0},
		{"gst", 2, 100},
	}
	for _, tt := range tests {
		got := CalculateLateFee(tt.taskType, now.AddDate(0, 0, -tt.days), now)
		if got.LateFee != tt.fee {
			t.Errorf("%s %d days: fee = %v, want %v", tt.taskType, tt.days, got.LateFee, tt.fee)
		}
		if got.TotalPenalty < got.LateFee || got.Interest < 0 {
			t.Errorf("%s: inconsistent totals %+v", tt.taskType, got)
		}
	}
}

func TestLateFeeNoInterestCategories(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for _, tt := range []string{"ROC", "AUDIT", "GENERAL"} {
		got := CalculateLateFee(tt, now.AddDate(0, 0, -100), now)
		if got.Interest != 0 {
			t.Errorf("%s: interest = %v, want 0", tt, got.Interest)
		}
	}
}

func TestDaysOverdueFloors(t *testing.T) {
	due := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	if got := DaysOverdue(due, due.Add(47*time.Hour)); got != 1 {
		t.Errorf("DaysOverdue = %d, want 1", got)
	}
}
