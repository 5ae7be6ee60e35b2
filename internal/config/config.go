// Package config loads engine configuration. Values are read once via viper
// and passed by value into the engine; concurrent workflows never observe
// config changes mid-flight.
package config

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/spf13/viper"
)

// Config holds every tunable the engine consumes. Each workflow captures the
// config at ingest time, so changing it only affects new workflows.
type Config struct {
	// FeeRate is the simulated per-item processing fee rate for payments.
	FeeRate decimal.Decimal
	// ExecutionFeeRate is the per-item fee rate for investment execution.
	ExecutionFeeRate decimal.Decimal

	// Default constraint thresholds, used when the caller leaves them unset.
	HighValueThreshold  decimal.Decimal
	AutoApprovalLimit   decimal.Decimal
	EscalationThreshold decimal.Decimal

	// Review windows for the two checkpoints.
	PaymentReviewWindow    time.Duration
	InvestmentReviewWindow time.Duration

	// Emergency reserve parameters for investment planning.
	EmergencyReservePct decimal.Decimal
	MinimumReserve      decimal.Decimal
	ReserveCapPct       decimal.Decimal

	// MinRecommendationThreshold gates the "allocate the remainder" note.
	MinRecommendationThreshold decimal.Decimal
}

// Default returns the engine defaults, matching the documented constraint
// defaults (high-value 100k, auto-approval 100k, escalation 500k) and the
// 0.001 simulation fee rates.
func Default() Config {
	return Config{
		FeeRate:                    decimal.NewFromFloat(0.001),
		ExecutionFeeRate:           decimal.NewFromFloat(0.001),
		HighValueThreshold:         decimal.NewFromInt(100000),
		AutoApprovalLimit:          decimal.NewFromInt(100000),
		EscalationThreshold:        decimal.NewFromInt(500000),
		PaymentReviewWindow:        24 * time.Hour,
		InvestmentReviewWindow:     48 * time.Hour,
		EmergencyReservePct:        decimal.NewFromFloat(0.10),
		MinimumReserve:             decimal.NewFromInt(1000),
		ReserveCapPct:              decimal.NewFromFloat(0.30),
		MinRecommendationThreshold: decimal.NewFromInt(1000),
	}
}

// Load builds a Config from viper, falling back to defaults for anything
// unset. Keys live under the "engine" section of the config file.
func Load(v *viper.Viper) (Config, error) {
	cfg := Default()

	if v.IsSet("engine.fee_rate") {
		d, err := decimal.NewFromString(v.GetString("engine.fee_rate"))
		if err != nil {
			return Config{}, fmt.Errorf("invalid engine.fee_rate: %w", err)
		}
		cfg.FeeRate = d
	}
	if v.IsSet("engine.execution_fee_rate") {
		d, err := decimal.NewFromString(v.GetString("engine.execution_fee_rate"))
		if err != nil {
			return Config{}, fmt.Errorf("invalid engine.execution_fee_rate: %w", err)
		}
		cfg.ExecutionFeeRate = d
	}
	if v.IsSet("engine.high_value_threshold") {
		cfg.HighValueThreshold = decimal.NewFromFloat(v.GetFloat64("engine.high_value_threshold"))
	}
	if v.IsSet("engine.auto_approval_limit") {
		cfg.AutoApprovalLimit = decimal.NewFromFloat(v.GetFloat64("engine.auto_approval_limit"))
	}
	if v.IsSet("engine.escalation_threshold") {
		cfg.EscalationThreshold = decimal.NewFromFloat(v.GetFloat64("engine.escalation_threshold"))
	}
	if v.IsSet("engine.payment_review_window") {
		cfg.PaymentReviewWindow = v.GetDuration("engine.payment_review_window")
	}
	if v.IsSet("engine.investment_review_window") {
		cfg.InvestmentReviewWindow = v.GetDuration("engine.investment_review_window")
	}

	return cfg, nil
}
