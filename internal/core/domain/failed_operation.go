package domain

import "time"

// FailedOperation is a logical operation whose retry loop ended without success.
type FailedOperation struct {
	ID        string        `json:"id"         db:"id"`
	Operation string        `json:"operation"  db:"operation"`
	Kind      string        `json:"kind"       db:"kind"`
	Category  string        `json:"category"   db:"category"`
	Reason    TerminalCause `json:"reason"     db:"reason"`
	Attempts  int           `json:"attempts"   db:"attempts"`
	Error     string        `json:"error_msg"  db:"error_msg"`
	CreatedAt time.Time     `json:"created_at" db:"created_at"`
}

// TerminalCause mirrors the retry engine's terminal reasons in storable form.
type TerminalCause string

const (
	CauseMaxAttemptsExceeded TerminalCause = "max_attempts_exceeded"
	CauseNonRetryableKind    TerminalCause = "non_retryable_kind"
	CauseCallerAborted       TerminalCause = "caller_aborted"
)
