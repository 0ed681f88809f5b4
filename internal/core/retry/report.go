package retry

import (
	"fmt"
	"time"
)

// FailureReport describes one failed attempt of a logical operation.
type FailureReport struct {
	Kind Kind
	// Category is the raw tag the report was classified from.
	Category string
	// AttemptNumber is 1-based.
	AttemptNumber int
	// Message is diagnostic only.
	Message string
	// Retryable defaults to Kind.Retryable() and may be overridden by the caller.
	Retryable bool
}

// Decision is the outcome of evaluating a FailureReport.
type Decision struct {
	ShouldRetry bool
	// Delay is zero unless ShouldRetry is set.
	Delay time.Duration
	// TerminalReason is ReasonNone unless ShouldRetry is false.
	TerminalReason TerminalReason
	// Detail carries the caller's abort reason, if any.
	Detail string
}

// Terminal reports whether the decision ends the retry loop.
func (d Decision) Terminal() bool {
	return !d.ShouldRetry
}

func (d Decision) String() string {
	if d.ShouldRetry {
		return fmt.Sprintf("retry after %s", d.Delay)
	}
	if d.Detail != "" {
		return fmt.Sprintf("stop: %s (%s)", d.TerminalReason, d.Detail)
	}
	return fmt.Sprintf("stop: %s", d.TerminalReason)
}
