package compliance

import (
	"slices"
	"strings"

	"github.com/diewo77/ca-practice/internal/apperr"
)

// BusinessType is the legal form of a client.
type BusinessType string

const (
	Proprietorship BusinessType = "PROPRIETORSHIP"
	Partnership    BusinessType = "PARTNERSHIP"
	LLP            BusinessType = "LLP"
	PrivateLimited BusinessType = "PRIVATE_LIMITED"
	PublicLimited  BusinessType = "PUBLIC_LIMITED"
	Trust          BusinessType = "TRUST"
	HUF            BusinessType = "HUF"
	Individual     BusinessType = "INDIVIDUAL"
)

// Turnover thresholds in INR.
const (
	GSTTurnoverThreshold   = 4_000_000  // 40 lakh
	AuditTurnoverThreshold = 10_000_000 // 1 crore
	TDSTurnoverThreshold   = 5_000_000  // 50 lakh
)

// Obligation is a tri-state rule cell.
type Obligation string

const (
	Never       Obligation = "NO"
	Always      Obligation = "YES"
	Conditional Obligation = "CONDITIONAL"
)

// RuleRow is the static obligation row of one business type.
type RuleRow struct {
	BusinessType      BusinessType `json:"business_type"`
	GST               Obligation   `json:"gst"`
	Audit             Obligation   `json:"audit"`
	TDS               Obligation   `json:"tds"`
	ROCFiling         Obligation   `json:"roc_filing"`
	ApplicableReturns []string     `json:"applicable_returns"`
}

// Requirements is a resolved row for a concrete turnover.
type Requirements struct {
	BusinessType      BusinessType `json:"business_type"`
	Turnover          *float64     `json:"turnover,omitempty"`
	RequiresGST       bool         `json:"requires_gst"`
	RequiresAudit     bool         `json:"requires_audit"`
	RequiresTDS       bool         `json:"requires_tds"`
	RequiresROCFiling bool         `json:"requires_roc_filing"`
	ApplicableReturns []string     `json:"applicable_returns"`
	// Conditional lists obligations that depend on turnover but could not be
	// resolved because no turnover was given.
	Conditional []string `json:"conditional,omitempty"`
}

var businessTypeOrder = []BusinessType{
	Proprietorship, Partnership, LLP, PrivateLimited, PublicLimited, Trust, HUF, Individual,
}

var complianceMatrix = map[BusinessType]RuleRow{
	Proprietorship: {GST: Conditional, Audit: Conditional, TDS: Never, ROCFiling: Never,
		ApplicableReturns: []string{"ITR", "GST"}},
	Partnership: {GST: Conditional, Audit: Always, TDS: Conditional, ROCFiling: Never,
		ApplicableReturns: []string{"ITR", "GST", "TDS"}},
	LLP: {GST: Conditional, Audit: Always, TDS: Always, ROCFiling: Always,
		ApplicableReturns: []string{"ITR", "GST", "TDS", "ROC", "AUDIT"}},
	PrivateLimited: {GST: Conditional, Audit: Always, TDS: Always, ROCFiling: Always,
		ApplicableReturns: []string{"ITR", "GST", "TDS", "ROC", "AUDIT"}},
	PublicLimited: {GST: Always, Audit: Always, TDS: Always, ROCFiling: Always,
		ApplicableReturns: []string{"ITR", "GST", "TDS", "ROC", "AUDIT"}},
	Trust: {GST: Conditional, Audit: Conditional, TDS: Always, ROCFiling: Never,
		ApplicableReturns: []string{"ITR", "GST", "TDS"}},
	HUF: {GST: Conditional, Audit: Conditional, TDS: Never, ROCFiling: Never,
		ApplicableReturns: []string{"ITR", "GST"}},
	Individual: {GST: Never, Audit: Never, TDS: Never, ROCFiling: Never,
		ApplicableReturns: []string{"ITR"}},
}

var businessTypeAliases = map[string]BusinessType{
	"COMPANY":        PrivateLimited,
	"PVT_LTD":        PrivateLimited,
	"PUBLIC_COMPANY": PublicLimited,
	"PROPRIETOR":     Proprietorship,
	"FIRM":           Partnership,
}

// ParseBusinessType accepts the enum name case-insensitively, with spaces or
// dashes in place of underscores, plus a few common aliases.
func ParseBusinessType(raw string) (BusinessType, error) {
	s := strings.ToUpper(strings.TrimSpace(raw))
	if s == "" {
		return "", apperr.MissingField("business_type")
	}
	s = strings.NewReplacer(" ", "_", "-", "_").Replace(s)
	if _, ok := complianceMatrix[BusinessType(s)]; ok {
		return BusinessType(s), nil
	}
	if bt, ok := businessTypeAliases[s]; ok {
		return bt, nil
	}
	return "", apperr.UnknownCategory("business_type", raw)
}

// BusinessTypes returns every rule row in a stable order.
func BusinessTypes() []RuleRow {
	rows := make([]RuleRow, 0, len(businessTypeOrder))
	for _, bt := range businessTypeOrder {
		row := complianceMatrix[bt]
		row.BusinessType = bt
		row.ApplicableReturns = slices.Clone(row.ApplicableReturns)
		rows = append(rows, row)
	}
	return rows
}

// RequirementsFor resolves the obligations of a business type. A nil turnover
// leaves conditional obligations false and reports them in Conditional.
// Turnover above the GST threshold forces GST registration whatever the row says.
func RequirementsFor(bt BusinessType, turnover *float64) (Requirements, error) {
	row, ok := complianceMatrix[bt]
	if !ok {
		return Requirements{}, apperr.UnknownCategory("business_type", string(bt))
	}
	req := Requirements{
		BusinessType:      bt,
		Turnover:          turnover,
		ApplicableReturns: slices.Clone(row.ApplicableReturns),
	}
	resolve := func(name string, o Obligation, threshold float64) bool {
		switch o {
		case Always:
			return true
		case Conditional:
			if turnover == nil {
				req.Conditional = append(req.Conditional, name)
				return false
			}
			return *turnover > threshold
		default:
			return false
		}
	}
	req.RequiresGST = resolve("gst", row.GST, GSTTurnoverThreshold)
	req.RequiresAudit = resolve("audit", row.Audit, AuditTurnoverThreshold)
	req.RequiresTDS = resolve("tds", row.TDS, TDSTurnoverThreshold)
	req.RequiresROCFiling = resolve("roc_filing", row.ROCFiling, 0)

	if turnover != nil && *turnover > GSTTurnoverThreshold {
		req.RequiresGST = true
		if !slices.Contains(req.ApplicableReturns, "GST") {
			req.ApplicableReturns = append(req.ApplicableReturns, "GST")
		}
	}
	return req, nil
}
