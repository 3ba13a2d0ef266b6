package services

import (
	"errors"

	"github.com/diewo77/ca-practice/internal/apperr"
	"github.com/diewo77/ca-practice/internal/compliance"
	"github.com/diewo77/ca-practice/internal/models"
	"github.com/diewo77/ca-practice/validation"
)

// ValidateClient normalizes c and checks the fields a client record needs.
// The business type is rewritten to its canonical name.
func ValidateClient(c *models.Client) error {
	c.Compliance = nil
	c.Normalize()

	v := validation.Violations{}
	validation.Required("name", c.Name, v)
	validation.Required("email", c.Email, v)
	validation.Required("phone", c.Phone, v)
	validation.OneOf("status", c.Status, models.ClientStatuses, v)
	if c.GSTIN != "" {
		if _, err := compliance.ValidateGSTIN(c.GSTIN); err != nil {
			v["gstin"] = messageOf(err)
		}
	}
	if c.PAN != "" {
		if _, err := compliance.ValidatePAN(c.PAN); err != nil {
			v["pan"] = messageOf(err)
		}
	}
	if c.Turnover != nil {
		validation.NonNegativeFloat("turnover", *c.Turnover, v)
	}
	if err := v.Err(); err != nil {
		return err
	}
	if c.BusinessType != "" {
		bt, err := compliance.ParseBusinessType(c.BusinessType)
		if err != nil {
			return err
		}
		c.BusinessType = string(bt)
	}
	return nil
}

// messageOf is the human part of a classified error.
func messageOf(err error) string {
	var ae *apperr.Error
	if errors.As(err, &ae) && ae.Message != "" {
		return ae.Message
	}
	return err.Error()
}
