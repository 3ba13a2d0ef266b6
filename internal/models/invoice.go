package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceDraft   InvoiceStatus = "DRAFT"
	InvoiceSent    InvoiceStatus = "SENT"
	InvoicePaid    InvoiceStatus = "PAID"
	InvoiceOverdue InvoiceStatus = "OVERDUE"
)

var InvoiceStatuses = []InvoiceStatus{InvoiceDraft, InvoiceSent, InvoicePaid, InvoiceOverdue}

// Invoice is a bill raised to a client. Amounts are derived from Items.
type Invoice struct {
	ID            string                           `gorm:"primaryKey;size:36" json:"id"`
	ClientID      string                           `gorm:"size:36;index;not null" json:"client_id"`
	InvoiceNumber string                           `gorm:"size:50;uniqueIndex" json:"invoice_number"`
	Items         datatypes.JSONSlice[InvoiceItem] `json:"items"`
	Subtotal      float64                          `json:"subtotal"`
	Tax           float64                          `json:"tax"`
	Total         float64                          `json:"total"`
	Status        InvoiceStatus                    `gorm:"size:20;index;not null" json:"status"`
	DueDate       time.Time                        `gorm:"index;not null" json:"due_date"`

	Client     *Client `gorm:"foreignKey:ClientID" json:"-"`
	ClientName string  `gorm:"-" json:"client_name,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// InvoiceItem is one line of an invoice; Amount is Quantity × Rate.
type InvoiceItem struct {
	Description string  `json:"description"`
	Quantity    float64 `json:"quantity"`
	Rate        float64 `json:"rate"`
	Amount      float64 `json:"amount"`
}

func (i *Invoice) Normalize() {
	i.DueDate = i.DueDate.UTC()
	if i.Status == "" {
		i.Status = InvoiceDraft
	}
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) error {
	ensureID(&i.ID)
	i.Normalize()
	return nil
}

func (i *Invoice) AfterFind(tx *gorm.DB) error {
	if i.Client != nil {
		i.ClientName = i.Client.Name
	}
	return nil
}
