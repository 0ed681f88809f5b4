// Package errclass adapts transport and driver errors to the category tags
// understood by the retry engine's taxonomy.
package errclass

import (
	"context"
	"errors"
	"io"
	"net"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Categories emitted by the adapters in this package.
const (
	CategoryThrottling         = "Throttling"
	CategoryServiceUnavailable = "ServiceUnavailable"
	CategoryInternalError      = "InternalError"
	CategoryTimeout            = "Timeout"
	CategoryValidationError    = "ValidationError"
	CategoryAccessDenied       = "AccessDenied"
	CategoryNotFound           = "NotFound"
	CategoryConflict           = "ConflictAlreadyExists"
	CategorySerialization      = "SerializationFailure"
	CategoryUnknown            = "Unknown"
)

// Classifier extracts a category tag from an error.
type Classifier interface {
	Category(err error) string
}

// ClassifierFunc adapts a function to Classifier.
type ClassifierFunc func(err error) string

func (f ClassifierFunc) Category(err error) string {
	return f(err)
}

// Categorized is implemented by errors that already know their category.
type Categorized interface {
	error
	Category() string
}

// Error attaches a category to an underlying error.
type Error struct {
	Tag        string
	Err        error
	RetryAfter time.Duration
}

// Wrap tags err with a category.
func Wrap(category string, err error) *Error {
	return &Error{Tag: category, Err: err}
}

func (e *Error) Error() string {
	if e.Err == nil {
		return e.Tag
	}
	return e.Tag + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }

// Category returns the attached tag.
func (e *Error) Category() string { return e.Tag }

// Default returns the classifier chain used by the retry executor:
// explicit tags first, then gRPC status, PostgreSQL errors, context and
// network errors, and finally message heuristics.
func Default() Classifier {
	return Chain(
		ClassifierFunc(fromCategorized),
		ClassifierFunc(FromGRPC),
		ClassifierFunc(FromPostgres),
		ClassifierFunc(fromNetwork),
		ClassifierFunc(FromMessage),
	)
}

// Chain returns the first non-empty category produced by the classifiers,
// or CategoryUnknown.
func Chain(classifiers ...Classifier) Classifier {
	return ClassifierFunc(func(err error) string {
		if err == nil {
			return ""
		}
		for _, c := range classifiers {
			if cat := c.Category(err); cat != "" {
				return cat
			}
		}
		return CategoryUnknown
	})
}

func fromCategorized(err error) string {
	var c Categorized
	if errors.As(err, &c) {
		return c.Category()
	}
	return ""
}

func fromNetwork(err error) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return CategoryServiceUnavailable
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return CategoryServiceUnavailable
	}
	return ""
}

// statusPattern matches an HTTP status code that leads the message or follows
// a status/code/http marker, e.g. "503 Service Unavailable", "status 429",
// "HTTP/1.1 502". Numbers embedded in other text are ignored.
var statusPattern = regexp.MustCompile(`(?i)(?:^|\b(?:status(?:\s+code)?|code|http(?:/[0-9.]+)?))[\s:=]*([45][0-9]{2})\b`)

// FromMessage classifies by a status code or well-known phrases in the error
// text. It is the last resort for transports that only surface strings.
func FromMessage(err error) string {
	if err == nil {
		return ""
	}
	s := strings.ToLower(err.Error())

	if m := statusPattern.FindStringSubmatch(s); m != nil {
		if code, convErr := strconv.Atoi(m[1]); convErr == nil {
			return FromHTTPStatus(code)
		}
	}

	switch {
	case containsAny(s, "too many requests", "rate limit", "throttl", "quota", "slow down"):
		return CategoryThrottling
	case containsAny(s, "timeout", "timed out", "deadline exceeded"):
		return CategoryTimeout
	case containsAny(s, "service unavailable", "bad gateway", "connection reset", "connection refused", "broken pipe"):
		return CategoryServiceUnavailable
	case containsAny(s, "internal server error", "internal error"):
		return CategoryInternalError
	case containsAny(s, "forbidden", "unauthorized", "access denied", "permission denied"):
		return CategoryAccessDenied
	case containsAny(s, "not found", "no such"):
		return CategoryNotFound
	case containsAny(s, "conflict", "already exists"):
		return CategoryConflict
	case containsAny(s, "invalid", "validation", "malformed"):
		return CategoryValidationError
	}
	return ""
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
