package models

import (
	"time"

	"github.com/diewo77/ca-practice/internal/compliance"
	"gorm.io/gorm"
)

type ClientStatus string

const (
	ClientActive   ClientStatus = "ACTIVE"
	ClientInactive ClientStatus = "INACTIVE"
)

var ClientStatuses = []ClientStatus{ClientActive, ClientInactive}

// Client is a customer of the practice.
type Client struct {
	ID      string       `gorm:"primaryKey;size:36" json:"id"`
	Name    string       `gorm:"size:255;not null" json:"name"`
	Email   string       `gorm:"size:255;not null" json:"email"`
	Phone   string       `gorm:"size:50;not null" json:"phone"`
	GSTIN   string       `gorm:"column:gstin;size:15;index" json:"gstin,omitempty"`
	PAN     string       `gorm:"column:pan;size:10;index" json:"pan,omitempty"`
	Address string       `gorm:"type:text" json:"address,omitempty"`
	Status  ClientStatus `gorm:"size:20;index;not null" json:"status"`

	BusinessType string   `gorm:"size:40" json:"business_type,omitempty"`
	Turnover     *float64 `json:"turnover,omitempty"`

	// Compliance is derived from BusinessType and Turnover on read.
	Compliance *compliance.Requirements `gorm:"-" json:"compliance,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Normalize fills defaults and canonicalises identifiers.
func (c *Client) Normalize() {
	if c.Status == "" {
		c.Status = ClientActive
	}
	c.GSTIN = compliance.NormalizeIdentifier(c.GSTIN)
	c.PAN = compliance.NormalizeIdentifier(c.PAN)
}

func (c *Client) BeforeCreate(tx *gorm.DB) error {
	ensureID(&c.ID)
	c.Normalize()
	return nil
}

func (c *Client) AfterFind(tx *gorm.DB) error {
	c.deriveCompliance()
	return nil
}

func (c *Client) deriveCompliance() {
	c.Compliance = nil
	if c.BusinessType == "" {
		return
	}
	bt, err := compliance.ParseBusinessType(c.BusinessType)
	if err != nil {
		return
	}
	req, err := compliance.RequirementsFor(bt, c.Turnover)
	if err != nil {
		return
	}
	c.Compliance = &req
}
