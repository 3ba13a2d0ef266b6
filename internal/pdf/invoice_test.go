package pdf

import (
	"bytes"
	"testing"
)

func TestInvoicePDF(t *testing.T) {
	data := InvoiceData{
		InvoiceNumber: "INV-2025-0001",
		Date:          "2025-06-01",
		DueDate:       "2025-06-30",
		Status:        "SENT",
		Items: []InvoiceItem{
			{Description: "GSTR-3B filing", Quantity: 3, UnitPrice: 1500, Total: 4500},
			{Description: "Advisory (Müller & Co)", Quantity: 1.5, UnitPrice: 2000, Total: 3000},
		},
		Total:      7500,
		VAT:        1350,
		VATLabel:   "GST 18%",
		GrandTotal: 8850,
		Client:     ClientData{Name: "Acme Traders", Email: "accounts@acme.in", GSTIN: "27AAPFU0939F1ZV"},
		Company:    CompanyData{Name: "Rao & Associates", Address: "12 MG Road\nPune"},
	}
	out, err := InvoicePDF(data)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.HasPrefix(out, []byte("%PDF-")) {
		t.Errorf("output does not start with a PDF header: %q", out[:min(len(out), 8)])
	}
	if len(out) < 500 {
		t.Errorf("suspiciously small PDF: %d bytes", len(out))
	}
}

func TestInvoicePDFRequiresNumber(t *testing.T) {
	if _, err := InvoicePDF(InvoiceData{}); err == nil {
		t.Error("expected an error for a missing invoice number")
	}
}

func TestMoney(t *testing.T) {
	tests := map[float64]string{0: "0.00", 1180: "1180.00", 147.945: "147.95", 0.1: "0.10"}
	for in, want := range tests {
		if got := money(in); got != want {
			t.Errorf("money(%v) = %s, want %s", in, got, want)
		}
	}
}
