// Package pdf renders printable documents.
package pdf

import (
	"bytes"
	"fmt"

	"github.com/phpdave11/gofpdf"
	"github.com/shopspring/decimal"
)

type InvoiceItem struct {
	Description string
	Quantity    float64
	UnitPrice   float64
	Total       float64
}

type ClientData struct {
	Name    string
	Address string
	Email   string
	GSTIN   string
}

type CompanyData struct {
	Name    string
	Address string
}

// InvoiceData is everything printed on an invoice. Amounts are in INR.
type InvoiceData struct {
	InvoiceNumber string
	Date          string
	DueDate       string
	Status        string
	Items         []InvoiceItem
	Total         float64
	VAT           float64
	VATLabel      string
	GrandTotal    float64
	Client        ClientData
	Company       CompanyData
}

const (
	pageMargin = 15.0
	lineHeight = 6.0
)

var itemColumns = []struct {
	title string
	width float64
	align string
}{
	{"Description", 95, "L"},
	{"Qty", 20, "R"},
	{"Rate", 32, "R"},
	{"Amount", 33, "R"},
}

// InvoicePDF renders data as a single A4 document.
func InvoicePDF(data InvoiceData) ([]byte, error) {
	if data.InvoiceNumber == "" {
		return nil, fmt.Errorf("invoice number is required")
	}
	doc := gofpdf.New("P", "mm", "A4", "")
	doc.SetMargins(pageMargin, pageMargin, pageMargin)
	doc.SetAutoPageBreak(true, pageMargin)
	doc.SetTitle("Invoice "+data.InvoiceNumber, true)
	doc.AddPage()
	tr := doc.UnicodeTranslatorFromDescriptor("")

	doc.SetFont("Helvetica", "B", 16)
	doc.CellFormat(0, 10, tr(data.Company.Name), "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	if data.Company.Address != "" {
		doc.MultiCell(0, 5, tr(data.Company.Address), "", "L", false)
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 13)
	doc.CellFormat(0, 8, "INVOICE "+tr(data.InvoiceNumber), "", 1, "R", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	doc.CellFormat(0, 5, "Date: "+data.Date, "", 1, "R", false, 0, "")
	doc.CellFormat(0, 5, "Due: "+data.DueDate, "", 1, "R", false, 0, "")
	if data.Status != "" {
		doc.CellFormat(0, 5, "Status: "+data.Status, "", 1, "R", false, 0, "")
	}
	doc.Ln(4)

	doc.SetFont("Helvetica", "B", 10)
	doc.CellFormat(0, 5, "Bill to", "", 1, "L", false, 0, "")
	doc.SetFont("Helvetica", "", 10)
	for _, line := range []string{data.Client.Name, data.Client.Address, data.Client.Email} {
		if line != "" {
			doc.MultiCell(0, 5, tr(line), "", "L", false)
		}
	}
	if data.Client.GSTIN != "" {
		doc.CellFormat(0, 5, "GSTIN: "+data.Client.GSTIN, "", 1, "L", false, 0, "")
	}
	doc.Ln(6)

	doc.SetFont("Helvetica", "B", 10)
	doc.SetFillColor(235, 235, 235)
	for _, col := range itemColumns {
		doc.CellFormat(col.width, 7, col.title, "1", 0, col.align, true, 0, "")
	}
	doc.Ln(-1)

	doc.SetFont("Helvetica", "", 10)
	for _, it := range data.Items {
		cells := []string{
			tr(it.Description),
			decimal.NewFromFloat(it.Quantity).String(),
			money(it.UnitPrice),
			money(it.Total),
		}
		for i, col := range itemColumns {
			doc.CellFormat(col.width, lineHeight, cells[i], "1", 0, col.align, false, 0, "")
		}
		doc.Ln(-1)
	}
	doc.Ln(2)

	label := data.VATLabel
	if label == "" {
		label = "Tax"
	}
	labelWidth := itemColumns[0].width + itemColumns[1].width + itemColumns[2].width
	totals := []struct {
		label  string
		amount float64
		bold   bool
	}{
		{"Subtotal", data.Total, false},
		{label, data.VAT, false},
		{"Total (INR)", data.GrandTotal, true},
	}
	for _, row := range totals {
		style := ""
		if row.bold {
			style = "B"
		}
		doc.SetFont("Helvetica", style, 10)
		doc.CellFormat(labelWidth, lineHeight, row.label, "", 0, "R", false, 0, "")
		doc.CellFormat(itemColumns[3].width, lineHeight, money(row.amount), "", 1, "R", false, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, fmt.Errorf("render invoice pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}
