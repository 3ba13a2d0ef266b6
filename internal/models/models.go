// Package models defines the records kept by the practice store.
package models

import (
	"github.com/google/uuid"
)

// All returns every record type, in migration order.
func All() []any {
	return []any{
		&Client{},
		&Staff{},
		&Task{},
		&Invoice{},
		&Document{},
		&Query{},
	}
}

func ensureID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

// ChecklistItem is one line of a task checklist.
type ChecklistItem struct {
	Item      string `json:"item"`
	Mandatory string `json:"mandatory,omitempty"`
	Completed bool   `json:"completed"`
}
