package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// DefaultDocumentCategory is used when no keyword matches a filename.
const DefaultDocumentCategory = "General"

// Document is a file kept on behalf of a client.
type Document struct {
	ID         string                      `gorm:"primaryKey;size:36" json:"id"`
	ClientID   string                      `gorm:"size:36;index;not null" json:"client_id"`
	Filename   string                      `gorm:"size:255;not null" json:"filename"`
	FileURL    string                      `gorm:"size:1024;not null" json:"file_url"`
	Category   string                      `gorm:"size:40;index;not null" json:"category"`
	Tags       datatypes.JSONSlice[string] `json:"tags,omitempty"`
	Metadata   datatypes.JSONMap           `json:"metadata,omitempty"`
	UploadedAt time.Time                   `json:"uploaded_at"`

	Client     *Client `gorm:"foreignKey:ClientID" json:"-"`
	ClientName string  `gorm:"-" json:"client_name,omitempty"`
}

func (d *Document) BeforeCreate(tx *gorm.DB) error {
	ensureID(&d.ID)
	if d.Category == "" {
		d.Category = DefaultDocumentCategory
	}
	if d.UploadedAt.IsZero() {
		d.UploadedAt = time.Now().UTC()
	}
	return nil
}

func (d *Document) AfterFind(tx *gorm.DB) error {
	if d.Client != nil {
		d.ClientName = d.Client.Name
	}
	return nil
}
