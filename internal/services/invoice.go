// Package services holds the business operations that sit between the HTTP
// handlers and the store.
package services

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/shopspring/decimal"
)

// TaxRate is the GST applied to every invoice.
var TaxRate = decimal.RequireFromString("0.18")

// Totals are the derived amounts of an invoice.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// ComputeTotals sets each item's Amount to Quantity × Rate and returns the
// invoice totals. The subtotal is the exact sum of the line products, rounded
// once; tax and total derive from the rounded subtotal. Every amount is rounded
// half away from zero to 2 places.
func ComputeTotals(items []models.InvoiceItem) Totals {
	exact := decimal.Zero
	for i := range items {
		amount := decimal.NewFromFloat(items[i].Quantity).
			Mul(decimal.NewFromFloat(items[i].Rate))
		items[i].Amount = amount.Round(2).InexactFloat64()
		exact = exact.Add(amount)
	}
	subtotal := exact.Round(2)
	tax := subtotal.Mul(TaxRate).Round(2)
	return Totals{Subtotal: subtotal, Tax: tax, Total: subtotal.Add(tax)}
}

type InvoiceService struct {
	store *store.Store
}

func NewInvoiceService(s *store.Store) *InvoiceService {
	return &InvoiceService{store: s}
}

// ApplyTotals overwrites any client supplied amounts with derived ones.
func (s *InvoiceService) ApplyTotals(inv *models.Invoice) {
	t := ComputeTotals(inv.Items)
	inv.Subtotal = t.Subtotal.InexactFloat64()
	inv.Tax = t.Tax.InexactFloat64()
	inv.Total = t.Total.InexactFloat64()
}

// Prepare derives totals and, when empty, assigns the next invoice number.
func (s *InvoiceService) Prepare(ctx context.Context, inv *models.Invoice, now time.Time) error {
	s.ApplyTotals(inv)
	inv.Normalize()
	if strings.TrimSpace(inv.InvoiceNumber) != "" {
		return nil
	}
	num, err := s.NextNumber(ctx, now)
	if err != nil {
		return err
	}
	inv.InvoiceNumber = num
	return nil
}

// NextNumber returns INV-<FY start year>-<NNNN>, one above the highest number
// already issued in that financial year.
func (s *InvoiceService) NextNumber(ctx context.Context, now time.Time) (string, error) {
	prefix := fmt.Sprintf("INV-%d-", compliance.FinancialYearOf(now).StartYear)
	nums, err := s.store.InvoiceNumbersWithPrefix(ctx, prefix)
	if err != nil {
		return "", err
	}
	highest := 0
	for _, n := range nums {
		seq, err := strconv.Atoi(strings.TrimPrefix(n, prefix))
		if err == nil && seq > highest {
			highest = seq
		}
	}
	return fmt.Sprintf("%s%04d", prefix, highest+1), nil
}

// Revenue sums the totals of paid invoices.
func (s *InvoiceService) Revenue(ctx context.Context) (float64, error) {
	totals, err := s.store.PaidInvoiceTotals(ctx)
	if err != nil {
		return 0, err
	}
	sum := decimal.Zero
	for _, t := range totals {
		sum = sum.Add(decimal.NewFromFloat(t))
	}
	return sum.Round(2).InexactFloat64(), nil
}
