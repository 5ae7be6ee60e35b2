// Package model defines the core entities that flow through the treasury
// pipeline: normalized records, risk reports, payment proposals, approval
// checkpoints, execution results, investment plans, and the workflow
// aggregate that owns them all.
package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// FinancialRecord is a single normalized outbound payment instruction as
// produced by the upstream record normalizer. Records are immutable once
// admitted to a workflow.
type FinancialRecord struct {
	ID               string          `json:"id"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Recipient        string          `json:"recipient"`
	Description      string          `json:"description"`
	Date             *time.Time      `json:"date,omitempty"`
	Category         string          `json:"category"`
	ValidationErrors []string        `json:"validation_errors,omitempty"`
}

// NewFinancialRecord validates and constructs a record. The normalizer
// excludes unparsable amounts upstream, so a non-positive amount here is a
// contract violation, not a data-quality issue.
func NewFinancialRecord(id string, amount decimal.Decimal, currency, recipient, description, category string, date *time.Time) (FinancialRecord, error) {
	if strings.TrimSpace(id) == "" {
		return FinancialRecord{}, fmt.Errorf("record id must not be empty")
	}
	if !amount.IsPositive() {
		return FinancialRecord{}, fmt.Errorf("record %s: amount must be positive, got %s", id, amount)
	}
	if currency == "" {
		currency = "USD"
	}
	return FinancialRecord{
		ID:          id,
		Amount:      amount,
		Currency:    strings.ToUpper(currency),
		Recipient:   strings.TrimSpace(recipient),
		Description: strings.TrimSpace(description),
		Date:        date,
		Category:    category,
	}, nil
}

// RecipientKey returns the normalized recipient grouping key used by
// pattern analysis. Empty and unknown recipients produce an empty key.
func (r FinancialRecord) RecipientKey() string {
	key := strings.ToLower(strings.TrimSpace(r.Recipient))
	if key == "unknown" {
		return ""
	}
	return key
}

// HasRecipient reports whether the record names a usable destination.
func (r FinancialRecord) HasRecipient() bool {
	return r.RecipientKey() != ""
}

// HasDescription reports whether the record carries a meaningful description.
func (r FinancialRecord) HasDescription() bool {
	d := strings.TrimSpace(r.Description)
	return d != "" && d != "No description provided"
}
