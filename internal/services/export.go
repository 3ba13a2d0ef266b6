package services

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/diewo77/ca-practice/internal/models"
)

var clientCSVHeader = []string{
	"id", "name", "email", "phone", "gstin", "pan", "address", "status",
	"business_type", "turnover", "created_at",
}

// WriteClientsCSV writes one header row and one row per client.
func WriteClientsCSV(w io.Writer, clients []models.Client) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(clientCSVHeader); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}
	for _, c := range clients {
		turnover := ""
		if c.Turnover != nil {
			turnover = strconv.FormatFloat(*c.Turnover, 'f', -1, 64)
		}
		row := []string{
			c.ID, c.Name, c.Email, c.Phone, c.GSTIN, c.PAN, c.Address, string(c.Status),
			c.BusinessType, turnover, c.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write csv row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
