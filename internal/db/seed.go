package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/diewo77/ca-practice/internal/models"
	"gorm.io/gorm"
)

// Seed inserts a small demo practice. Rows are matched by natural key so
// running it twice does not duplicate anything.
func Seed(ctx context.Context, conn *gorm.DB) error {
	conn = conn.WithContext(ctx)

	staff := []models.Staff{
		{Name: "Anita Sharma", Email: "anita@practice.example", Role: "Partner", Phone: "+91 98200 00001"},
		{Name: "Rahul Mehta", Email: "rahul@practice.example", Role: "Senior Associate", Phone: "+91 98200 00002"},
	}
	for i := range staff {
		if err := firstOrCreate(conn, &staff[i], "email = ?", staff[i].Email); err != nil {
			return fmt.Errorf("seed staff: %w", err)
		}
	}

	turnover := 12_500_000.0
	clients := []models.Client{
		{Name: "Sunrise Traders", Email: "accounts@sunrise.example", Phone: "+91 22 4000 0001",
			GSTIN: "27AAPFU0939F1ZV", PAN: "AAPFU0939F", BusinessType: "PARTNERSHIP", Turnover: &turnover},
		{Name: "Kavya Iyer", Email: "kavya@example.in", Phone: "+91 98450 00003",
			PAN: "ABCPI1234K", BusinessType: "INDIVIDUAL"},
	}
	for i := range clients {
		if err := firstOrCreate(conn, &clients[i], "email = ?", clients[i].Email); err != nil {
			return fmt.Errorf("seed client: %w", err)
		}
	}

	now := time.Now().UTC()
	tasks := []models.Task{
		{Title: "GSTR-3B Filing", ClientID: clients[0].ID, TaskType: models.TaskGST,
			DueDate: now.AddDate(0, 0, 5), Priority: models.PriorityHigh, AssigneeID: &staff[1].ID},
		{Title: "ITR-1 Filing", ClientID: clients[1].ID, TaskType: models.TaskITR,
			DueDate: now.AddDate(0, 1, 0), Priority: models.PriorityUrgent},
	}
	for i := range tasks {
		if err := firstOrCreate(conn, &tasks[i], "title = ? AND client_id = ?", tasks[i].Title, tasks[i].ClientID); err != nil {
			return fmt.Errorf("seed task: %w", err)
		}
	}
	return nil
}

func firstOrCreate[T any](conn *gorm.DB, rec *T, query string, args ...any) error {
	err := conn.Where(query, args...).First(rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return conn.Create(rec).Error
	}
	return err
}
