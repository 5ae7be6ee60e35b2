// Package ingest decodes workflow input documents: the normalized financial
// records plus the constraints and investment preferences the run is scored
// against. It is the only JSON boundary on the way in; everything past it
// works with validated model types.
package ingest

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fluxwell/treasury-flow/internal/common"
	"github.com/fluxwell/treasury-flow/internal/model"
)

// Document is the top-level input shape.
type Document struct {
	Records     []RecordInput               `json:"records"`
	Constraints model.Constraints           `json:"constraints"`
	Preferences model.InvestmentPreferences `json:"investment_preferences"`
}

// RecordInput is one raw record before validation. Amounts arrive as JSON
// numbers or strings; decimal handles both.
type RecordInput struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Currency    string          `json:"currency"`
	Recipient   string          `json:"recipient"`
	Description string          `json:"description"`
	Date        *time.Time      `json:"date,omitempty"`
	Category    string          `json:"category"`
}

// Input is a decoded, validated workflow input.
type Input struct {
	Records     []model.FinancialRecord
	Constraints model.Constraints
	Preferences model.InvestmentPreferences
}

// Decode reads and validates one input document. Every record must pass
// validation; a single bad record rejects the document so partial batches
// never enter a workflow silently.
func Decode(r io.Reader) (*Input, error) {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		return nil, common.NewValidationError("document", fmt.Sprintf("malformed input: %v", err))
	}

	if len(doc.Records) == 0 {
		return nil, common.NewValidationError("records", "at least one record is required")
	}

	records := make([]model.FinancialRecord, 0, len(doc.Records))
	var issues []string
	seen := make(map[string]struct{}, len(doc.Records))
	for i, raw := range doc.Records {
		rec, err := model.NewFinancialRecord(
			raw.ID, raw.Amount, raw.Currency, raw.Recipient, raw.Description, raw.Category, raw.Date,
		)
		if err != nil {
			issues = append(issues, fmt.Sprintf("record %d: %v", i, err))
			continue
		}
		if _, dup := seen[rec.ID]; dup {
			issues = append(issues, fmt.Sprintf("record %d: duplicate id %q", i, rec.ID))
			continue
		}
		seen[rec.ID] = struct{}{}
		records = append(records, rec)
	}
	if len(issues) > 0 {
		return nil, common.NewValidationError("records", "input contains invalid records", issues...)
	}

	if doc.Constraints.AvailableBalance.IsNegative() {
		return nil, common.NewValidationError("constraints.available_balance", "must not be negative")
	}
	if doc.Constraints.MinimumBalance.IsNegative() {
		return nil, common.NewValidationError("constraints.minimum_balance", "must not be negative")
	}

	doc.Preferences.RiskTolerance = doc.Preferences.RiskTolerance.Normalize()

	return &Input{
		Records:     records,
		Constraints: doc.Constraints,
		Preferences: doc.Preferences,
	}, nil
}
