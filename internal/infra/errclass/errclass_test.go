package errclass

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
)

func TestDefault(t *testing.T) {
	c := Default()

	tests := []struct {
		err  error
		want string
	}{
		{Wrap("Throttling", errors.New("boom")), CategoryThrottling},
		{fmt.Errorf("call: %w", Wrap("AccessDenied", nil)), CategoryAccessDenied},
		{status.Error(codes.ResourceExhausted, "quota"), CategoryThrottling},
		{status.Error(codes.Unavailable, "down"), CategoryServiceUnavailable},
		{status.Error(codes.InvalidArgument, "bad"), CategoryValidationError},
		{fmt.Errorf("wrapped: %w", status.Error(codes.NotFound, "gone")), CategoryNotFound},
		{&pgconn.PgError{Code: "40001"}, CategorySerialization},
		{&pq.Error{Code: "23505"}, CategoryConflict},
		{context.DeadlineExceeded, CategoryTimeout},
		{io.ErrUnexpectedEOF, CategoryServiceUnavailable},
		{errors.New("429 Too Many Requests"), CategoryThrottling},
		{errors.New("connection reset by peer"), CategoryServiceUnavailable},
		{errors.New("500 Internal Server Error"), CategoryInternalError},
		{errors.New("403 Forbidden"), CategoryAccessDenied},
		{errors.New("something odd happened"), CategoryUnknown},
	}

	for _, tt := range tests {
		if got := c.Category(tt.err); got != tt.want {
			t.Errorf("Category(%v) = %q, want %q", tt.err, got, tt.want)
		}
	}

	if got := c.Category(nil); got != "" {
		t.Errorf("Category(nil) = %q, want empty", got)
	}
}

func TestFromMessage(t *testing.T) {
	tests := []struct {
		msg  string
		want string
	}{
		{"503 Service Unavailable", CategoryServiceUnavailable},
		{"upstream returned status 429", CategoryThrottling},
		{"request failed: status code: 502", CategoryServiceUnavailable},
		{"HTTP/1.1 500", CategoryInternalError},
		{"http 404", CategoryNotFound},
		{"code=409", CategoryConflict},
		{"rate limit reached", CategoryThrottling},
		{"read tcp: i/o timeout", CategoryTimeout},

		// Bare numbers inside other text are not status codes.
		{"decoded 1500 records then panicked", ""},
		{"user 4290 missing field", ""},
		{"processed 503 items", ""},
		{"status 5030 reached", ""},
		{"retrying after 429ms", ""},
	}

	for _, tt := range tests {
		if got := FromMessage(errors.New(tt.msg)); got != tt.want {
			t.Errorf("FromMessage(%q) = %q, want %q", tt.msg, got, tt.want)
		}
	}

	if got := Default().Category(errors.New("decoded 1500 records then panicked")); got != CategoryUnknown {
		t.Errorf("Default().Category = %q, want %q", got, CategoryUnknown)
	}
}

func TestFromGRPC_Unmapped(t *testing.T) {
	for _, code := range []codes.Code{codes.OK, codes.Canceled, codes.Unknown} {
		if got := FromGRPC(status.Error(code, "x")); got != "" {
			t.Errorf("FromGRPC(%s) = %q, want empty", code, got)
		}
	}
	if got := FromGRPC(errors.New("plain")); got != "" {
		t.Errorf("plain errors should not map, got %q", got)
	}
}

func TestRetryHint_GRPC(t *testing.T) {
	st, err := status.New(codes.ResourceExhausted, "slow down").WithDetails(&errdetails.RetryInfo{
		RetryDelay: durationpb.New(3 * time.Second),
	})
	if err != nil {
		t.Fatalf("WithDetails failed: %v", err)
	}

	d, ok := RetryHint(st.Err())
	if !ok || d != 3*time.Second {
		t.Errorf("RetryHint = %s, %v; want 3s, true", d, ok)
	}

	if _, ok := RetryHint(status.Error(codes.Unavailable, "no details")); ok {
		t.Error("expected no hint without RetryInfo")
	}
}

func TestRetryHint_Tagged(t *testing.T) {
	e := Wrap(CategoryThrottling, errors.New("slow"))
	e.RetryAfter = 2 * time.Second
	d, ok := RetryHint(fmt.Errorf("op: %w", e))
	if !ok || d != 2*time.Second {
		t.Errorf("RetryHint = %s, %v; want 2s, true", d, ok)
	}
}

func TestFromHTTPStatus(t *testing.T) {
	tests := map[int]string{
		200: "",
		400: CategoryValidationError,
		401: CategoryAccessDenied,
		403: CategoryAccessDenied,
		404: CategoryNotFound,
		408: CategoryTimeout,
		409: CategoryConflict,
		422: CategoryValidationError,
		429: CategoryThrottling,
		500: CategoryInternalError,
		502: CategoryServiceUnavailable,
		503: CategoryServiceUnavailable,
		504: CategoryTimeout,
	}
	for code, want := range tests {
		if got := FromHTTPStatus(code); got != want {
			t.Errorf("FromHTTPStatus(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestFromResponse(t *testing.T) {
	if FromResponse(&http.Response{StatusCode: 204}) != nil {
		t.Error("successful responses should not produce an error")
	}

	resp := &http.Response{StatusCode: 429, Header: http.Header{"Retry-After": []string{"7"}}}
	e := FromResponse(resp)
	if e == nil {
		t.Fatal("expected an error for 429")
	}
	if e.Category() != CategoryThrottling || e.RetryAfter != 7*time.Second {
		t.Errorf("got category %q retryAfter %s", e.Category(), e.RetryAfter)
	}
}

func TestParseRetryAfter(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		in   string
		want time.Duration
		ok   bool
	}{
		{"", 0, false},
		{"0", 0, true},
		{"120", 2 * time.Minute, true},
		{"-1", 0, false},
		{now.Add(30 * time.Second).Format(http.TimeFormat), 30 * time.Second, true},
		{now.Add(-30 * time.Second).Format(http.TimeFormat), 0, false},
		{"soon", 0, false},
	}
	for _, tt := range tests {
		got, ok := ParseRetryAfter(tt.in, now)
		if got != tt.want || ok != tt.ok {
			t.Errorf("ParseRetryAfter(%q) = %s, %v; want %s, %v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFromPostgres(t *testing.T) {
	tests := []struct {
		code string
		want string
	}{
		{"40P01", CategorySerialization},
		{"57014", CategoryTimeout},
		{"53300", CategoryThrottling},
		{"08006", CategoryServiceUnavailable},
		{"57P03", CategoryServiceUnavailable},
		{"28P01", CategoryAccessDenied},
		{"42501", CategoryAccessDenied},
		{"42P01", CategoryNotFound},
		{"23503", CategoryValidationError},
		{"22P02", CategoryValidationError},
		{"XX000", CategoryInternalError},
		{"P0001", ""},
	}
	for _, tt := range tests {
		if got := FromPostgres(&pgconn.PgError{Code: tt.code}); got != tt.want {
			t.Errorf("pgx %s = %q, want %q", tt.code, got, tt.want)
		}
		if got := FromPostgres(&pq.Error{Code: pq.ErrorCode(tt.code)}); got != tt.want {
			t.Errorf("pq %s = %q, want %q", tt.code, got, tt.want)
		}
	}
}
