package models

import (
	"time"

	"gorm.io/gorm"
)

// Staff is a member of the practice who can be assigned tasks.
type Staff struct {
	ID         string    `gorm:"primaryKey;size:36" json:"id"`
	Name       string    `gorm:"size:255;not null;index" json:"name"`
	Email      string    `gorm:"size:255;not null" json:"email"`
	Role       string    `gorm:"size:100;not null" json:"role"`
	Phone      string    `gorm:"size:50;not null" json:"phone"`
	JoinedDate time.Time `json:"joined_date"`
	// PasswordHash is a bcrypt hash; staff without one cannot sign in.
	PasswordHash string    `gorm:"size:255" json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// TableName keeps the plural the API uses.
func (Staff) TableName() string { return "staff" }

func (s *Staff) BeforeCreate(tx *gorm.DB) error {
	ensureID(&s.ID)
	if s.JoinedDate.IsZero() {
		s.JoinedDate = time.Now().UTC()
	}
	return nil
}
