// Package retry decides whether a failed call should be retried and how long
// to wait first. The Engine is pure: it never sleeps, logs or performs I/O,
// and holds no mutable state, so one Engine and one Config may be shared by
// any number of concurrent operations.
//
// Backoff follows capped exponential growth with symmetric jitter:
//
//	delay = min(MaxDelay, BaseDelay * BackoffMultiplier^(attempt-1))
//	final = delay * (1 - JitterFactor + r*2*JitterFactor), r in [0,1)
//
// clamped to [0, MaxDelay]. Throttling failures multiply the exponential term
// by ThrottlingMultiplier before capping.
package retry

import (
	"math"
	"math/rand/v2"
	"time"
)

// RandomFunc returns a random number in the half open interval [0,1).
// It must be safe for concurrent use.
type RandomFunc func() float64

// Engine classifies failures and evaluates retry decisions.
type Engine struct {
	taxonomy Taxonomy
	rf       RandomFunc
}

// Option configures an Engine.
type Option func(e *Engine)

// WithTaxonomy replaces the category mapping used by Classify.
func WithTaxonomy(t Taxonomy) Option {
	return func(e *Engine) {
		e.taxonomy = t
	}
}

// WithRandomFunc sets the jitter source.
func WithRandomFunc(rf RandomFunc) Option {
	return func(e *Engine) {
		e.rf = rf
	}
}

// NewEngine creates an engine with the default taxonomy and jitter source.
func NewEngine(options ...Option) *Engine {
	e := &Engine{
		taxonomy: DefaultTaxonomy(),
		rf:       rand.Float64,
	}
	for _, o := range options {
		o(e)
	}
	if e.taxonomy == nil {
		e.taxonomy = Taxonomy{}
	}
	if e.rf == nil {
		e.rf = rand.Float64
	}
	return e
}

// Classify turns a caller category tag into a FailureReport. Unrecognized
// categories become KindUnknown and are not retryable.
func (e *Engine) Classify(category string, attemptNumber int) FailureReport {
	kind, ok := e.taxonomy.Lookup(category)
	if !ok {
		kind = KindUnknown
	}
	return FailureReport{
		Kind:          kind,
		Category:      category,
		AttemptNumber: max(attemptNumber, 1),
		Retryable:     kind.Retryable(),
	}
}

// Evaluate decides what to do after the failure described by report.
func (e *Engine) Evaluate(report FailureReport, cfg Config) Decision {
	cfg = cfg.normalized()
	attempt := max(report.AttemptNumber, 1)

	if attempt >= cfg.MaxAttempts {
		return Decision{TerminalReason: ReasonMaxAttemptsExceeded}
	}
	if !report.Retryable {
		return Decision{TerminalReason: ReasonNonRetryableKind}
	}

	return Decision{
		ShouldRetry: true,
		Delay:       e.jitter(Backoff(report.Kind, attempt, cfg), cfg),
	}
}

// Abort models caller cancellation as a terminal decision.
func (e *Engine) Abort(reason string) Decision {
	return Decision{TerminalReason: ReasonCallerAborted, Detail: reason}
}

// Backoff returns the un-jittered delay before the retry that follows the
// given failed attempt.
func Backoff(kind Kind, attempt int, cfg Config) time.Duration {
	cfg = cfg.normalized()
	attempt = max(attempt, 1)

	delay := float64(cfg.BaseDelay) * math.Pow(cfg.BackoffMultiplier, float64(attempt-1))
	if kind == KindThrottling {
		delay *= cfg.ThrottlingMultiplier
	}
	// float64(MaxDelay) may round up past MaxInt64, so the cap is returned
	// as the integer itself rather than converted back.
	if math.IsNaN(delay) || delay >= float64(cfg.MaxDelay) {
		return cfg.MaxDelay
	}
	return time.Duration(delay)
}

func (e *Engine) jitter(delay time.Duration, cfg Config) time.Duration {
	if cfg.JitterFactor == 0 {
		return delay
	}

	r := e.rf()
	if r < 0 || r >= 1 || math.IsNaN(r) {
		r = 0.5
	}

	jittered := float64(delay) * (1 - cfg.JitterFactor + r*2*cfg.JitterFactor)
	switch {
	case jittered < 0:
		return 0
	case jittered >= float64(cfg.MaxDelay):
		return cfg.MaxDelay
	}
	return time.Duration(jittered)
}
