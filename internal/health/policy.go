package health

import (
	"github.com/vietddude/retrypolicy/internal/core/retry"
)

// PolicyReport describes the active retry policy.
type PolicyReport struct {
	MaxAttempts          int                 `json:"max_attempts"`
	BaseDelay            string              `json:"base_delay"`
	MaxDelay             string              `json:"max_delay"`
	JitterFactor         float64             `json:"jitter_factor"`
	BackoffMultiplier    float64             `json:"backoff_multiplier"`
	ThrottlingMultiplier float64             `json:"throttling_multiplier"`
	Schedules            map[string][]string `json:"schedules"` // kind -> delay before each retry
}

// NewPolicyReport computes the report for cfg. Non-retryable kinds are omitted.
func NewPolicyReport(cfg retry.Config) PolicyReport {
	report := PolicyReport{
		MaxAttempts:          cfg.MaxAttempts,
		BaseDelay:            cfg.BaseDelay.String(),
		MaxDelay:             cfg.MaxDelay.String(),
		JitterFactor:         cfg.JitterFactor,
		BackoffMultiplier:    cfg.BackoffMultiplier,
		ThrottlingMultiplier: cfg.ThrottlingMultiplier,
		Schedules:            make(map[string][]string),
	}

	for _, kind := range retry.Kinds() {
		if !kind.Retryable() {
			continue
		}
		var delays []string
		for attempt := 1; attempt < cfg.MaxAttempts; attempt++ {
			delays = append(delays, retry.Backoff(kind, attempt, cfg).String())
		}
		report.Schedules[kind.String()] = delays
	}
	return report
}
