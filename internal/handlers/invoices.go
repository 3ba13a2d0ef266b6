package handlers

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/diewo77/ca-practice/httpx"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/internal/pdf"
	"github.com/diewo77/ca-practice/internal/services"
	"github.com/diewo77/ca-practice/internal/store"
	"github.com/diewo77/ca-practice/validation"
	"go.uber.org/zap"
)

type InvoiceHandler struct {
	store    *store.Store
	svc      *services.InvoiceService
	practice pdf.CompanyData
	log      *zap.Logger
	now      Clock
}

func NewInvoiceHandler(s *store.Store, svc *services.InvoiceService, practice pdf.CompanyData, log *zap.Logger, now Clock) *InvoiceHandler {
	return &InvoiceHandler{store: s, svc: svc, practice: practice, log: log, now: now}
}

type invoiceRequest struct {
	models.Invoice
	DueDate flexTime `json:"due_date"`
}

// List: GET /api/invoices[?status=&client_id=]
func (h *InvoiceHandler) List(w http.ResponseWriter, r *http.Request) {
	invs, err := h.store.Invoices.List(r.Context(), filterFrom(r, "status", "client_id"))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, invs)
}

func (h *InvoiceHandler) Get(w http.ResponseWriter, r *http.Request) {
	inv, err := h.store.Invoices.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, inv)
}

// Create derives totals server-side and numbers the invoice when the request
// leaves invoice_number empty.
func (h *InvoiceHandler) Create(w http.ResponseWriter, r *http.Request) {
	inv, err := decodeInvoice(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.svc.Prepare(r.Context(), inv, h.now()); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	if err := h.store.Invoices.Create(r.Context(), inv); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	created, err := h.store.Invoices.Get(r.Context(), inv.ID)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, created)
}

// Update keeps the stored invoice number when the request omits one.
func (h *InvoiceHandler) Update(w http.ResponseWriter, r *http.Request) {
	inv, err := decodeInvoice(r)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	id := pathID(r)
	if strings.TrimSpace(inv.InvoiceNumber) == "" {
		existing, err := h.store.Invoices.Get(r.Context(), id)
		if err != nil {
			httpx.Error(w, h.log, err)
			return
		}
		inv.InvoiceNumber = existing.InvoiceNumber
	}
	if err := h.svc.Prepare(r.Context(), inv, h.now()); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	updated, err := h.store.Invoices.Update(r.Context(), id, inv)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.JSON(w, http.StatusOK, updated)
}

func (h *InvoiceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.store.Invoices.Delete(r.Context(), pathID(r)); err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	httpx.Message(w, "Invoice deleted successfully")
}

// PDF: GET /api/invoices/{id}/pdf
func (h *InvoiceHandler) PDF(w http.ResponseWriter, r *http.Request) {
	inv, err := h.store.Invoices.Get(r.Context(), pathID(r))
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	data := pdf.InvoiceData{
		InvoiceNumber: inv.InvoiceNumber,
		Date:          invoiceDate(inv.CreatedAt),
		DueDate:       invoiceDate(inv.DueDate),
		Status:        string(inv.Status),
		Total:         inv.Subtotal,
		VAT:           inv.Tax,
		VATLabel:      fmt.Sprintf("GST %s%%", services.TaxRate.Shift(2).String()),
		GrandTotal:    inv.Total,
		Company:       h.practice,
	}
	for _, it := range inv.Items {
		data.Items = append(data.Items, pdf.InvoiceItem{
			Description: it.Description,
			Quantity:    it.Quantity,
			UnitPrice:   it.Rate,
			Total:       it.Amount,
		})
	}
	if inv.Client != nil {
		data.Client = pdf.ClientData{
			Name:    inv.Client.Name,
			Address: inv.Client.Address,
			Email:   inv.Client.Email,
			GSTIN:   inv.Client.GSTIN,
		}
	}
	out, err := pdf.InvoicePDF(data)
	if err != nil {
		httpx.Error(w, h.log, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", `attachment; filename="invoice-`+inv.InvoiceNumber+`.pdf"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(out)
}

func decodeInvoice(r *http.Request) (*models.Invoice, error) {
	var req invoiceRequest
	if err := httpx.DecodeJSON(r, &req); err != nil {
		return nil, err
	}
	inv := req.Invoice
	inv.DueDate = req.DueDate.Time
	inv.ID = ""
	inv.ClientName = ""

	v := validation.Violations{}
	validation.Required("client_id", inv.ClientID, v)
	validation.RequiredFunc("due_date", !inv.DueDate.IsZero(), v)
	validation.RequiredFunc("items", len(inv.Items) > 0, v)
	validation.OneOf("status", inv.Status, models.InvoiceStatuses, v)
	for i, it := range inv.Items {
		field := fmt.Sprintf("items[%d]", i)
		validation.Required(field+".description", it.Description, v)
		validation.PositiveFloat(field+".quantity", it.Quantity, v)
		validation.NonNegativeFloat(field+".rate", it.Rate, v)
	}
	if err := v.Err(); err != nil {
		return nil, err
	}
	return &inv, nil
}

// invoiceDate is the date format printed on invoices.
func invoiceDate(t time.Time) string { return t.Format("January 02, 2006") }
