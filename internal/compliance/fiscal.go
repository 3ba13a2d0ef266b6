package compliance

import (
	"fmt"
	"time"
)

// FinancialYear is an Indian financial year (1 April to 31 March) and the
// assessment year that follows it.
type FinancialYear struct {
	Code      string    `json:"fy_code"`
	AYCode    string    `json:"ay_code"`
	StartDate time.Time `json:"start_date"`
	EndDate   time.Time `json:"end_date"`
	StartYear int       `json:"start_year"`
}

// FinancialYearOf returns the financial year containing t. The month is read
// in t's own location.
func FinancialYearOf(t time.Time) FinancialYear {
	start := t.Year()
	if t.Month() < time.April {
		start--
	}
	end := start + 1
	loc := t.Location()
	return FinancialYear{
		Code:      fmt.Sprintf("FY%d-%02d", start, end%100),
		AYCode:    fmt.Sprintf("AY%d-%02d", end, (end+1)%100),
		StartDate: time.Date(start, time.April, 1, 0, 0, 0, 0, loc),
		EndDate:   time.Date(end, time.March, 31, 23, 59, 59, 0, loc),
		StartYear: start,
	}
}

// ShortCode is the "2024-25" form used in task titles.
func (fy FinancialYear) ShortCode() string {
	return fmt.Sprintf("%d-%02d", fy.StartYear, (fy.StartYear+1)%100)
}

// QuarterOf returns the financial-year quarter of t: Q1 is April to June and
// Q4 is January to March.
func QuarterOf(t time.Time) int {
	m := int(t.Month())
	if m >= 4 {
		return (m-4)/3 + 1
	}
	return 4
}
