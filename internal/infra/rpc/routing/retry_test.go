package routing

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/vietddude/retrypolicy/internal/core/domain"
	"github.com/vietddude/retrypolicy/internal/core/retry"
	"github.com/vietddude/retrypolicy/internal/infra/errclass"
	"github.com/vietddude/retrypolicy/internal/infra/storage/memory"
)

var testConfig = retry.Config{
	MaxAttempts:       3,
	BaseDelay:         100 * time.Millisecond,
	MaxDelay:          2 * time.Second,
	JitterFactor:      0,
	BackoffMultiplier: 2,
}

// recordingSleep captures requested delays without waiting.
type recordingSleep struct {
	mu     sync.Mutex
	delays []time.Duration
}

func (s *recordingSleep) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.delays = append(s.delays, d)
	s.mu.Unlock()
	return ctx.Err()
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestExecutor(cfg retry.Config, s *recordingSleep, opts ...ExecutorOption) *Executor {
	opts = append([]ExecutorOption{WithSleep(s.sleep), WithLogger(quietLogger())}, opts...)
	return NewExecutor(retry.NewEngine(), cfg, opts...)
}

func TestExecute_SucceedsAfterTransientFailures(t *testing.T) {
	s := &recordingSleep{}
	x := newTestExecutor(testConfig, s)

	calls := 0
	err := x.Execute(context.Background(), Operation{
		Name: "GetObject",
		Invoke: func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return status.Error(codes.Unavailable, "transient failure")
			}
			return nil
		},
	})

	// Attempt 3 succeeds before the budget check applies.
	if err != nil {
		t.Fatalf("expected success, got %v", err)
	}
	if calls != 3 {
		t.Errorf("expected 3 calls, got %d", calls)
	}
	want := []time.Duration{100 * time.Millisecond, 200 * time.Millisecond}
	if len(s.delays) != len(want) {
		t.Fatalf("expected delays %v, got %v", want, s.delays)
	}
	for i := range want {
		if s.delays[i] != want[i] {
			t.Errorf("delay[%d] = %s, want %s", i, s.delays[i], want[i])
		}
	}
}

func TestExecute_MaxAttemptsExceeded(t *testing.T) {
	s := &recordingSleep{}
	journal := memory.NewFailedOperationRepo()
	x := newTestExecutor(testConfig, s, WithJournal(journal, "memory"))

	calls := 0
	lastErr := errclass.Wrap("Timeout", errors.New("upstream timed out"))
	err := x.Execute(context.Background(), Operation{
		Name: "Query",
		Invoke: func(ctx context.Context) error {
			calls++
			return lastErr
		},
	})

	if calls != testConfig.MaxAttempts {
		t.Errorf("expected %d calls, got %d", testConfig.MaxAttempts, calls)
	}
	reason, ok := IsTerminal(err)
	if !ok || reason != retry.ReasonMaxAttemptsExceeded {
		t.Fatalf("expected MaxAttemptsExceeded, got %v (%v)", reason, err)
	}
	if !errors.Is(err, lastErr) {
		t.Error("terminal error should wrap the last attempt's error")
	}

	ops, _ := journal.List(context.Background(), 0)
	if len(ops) != 1 {
		t.Fatalf("expected 1 journaled failure, got %d", len(ops))
	}
	if ops[0].Reason != domain.CauseMaxAttemptsExceeded || ops[0].Attempts != 3 || ops[0].Kind != "Transient" {
		t.Errorf("unexpected journal entry: %+v", ops[0])
	}
}

func TestExecute_NonRetryableStopsImmediately(t *testing.T) {
	s := &recordingSleep{}
	x := newTestExecutor(testConfig, s)

	calls := 0
	err := x.Execute(context.Background(), Operation{
		Name: "PutItem",
		Invoke: func(ctx context.Context) error {
			calls++
			return status.Error(codes.InvalidArgument, "fatal error")
		},
	})

	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	if reason, _ := IsTerminal(err); reason != retry.ReasonNonRetryableKind {
		t.Errorf("expected NonRetryableKind, got %v", reason)
	}
	if len(s.delays) != 0 {
		t.Errorf("expected no waits, got %v", s.delays)
	}
}

func TestExecute_UnknownErrorsAreNotRetried(t *testing.T) {
	s := &recordingSleep{}
	x := newTestExecutor(testConfig, s)

	calls := 0
	err := x.Execute(context.Background(), Operation{
		Name:   "Mystery",
		Invoke: func(ctx context.Context) error { calls++; return errors.New("kaboom") },
	})
	if calls != 1 {
		t.Errorf("expected 1 call, got %d", calls)
	}
	var terr *TerminalError
	if !errors.As(err, &terr) || terr.Report.Kind != retry.KindUnknown {
		t.Errorf("expected Unknown kind terminal error, got %v", err)
	}
}

func TestExecute_ReportHookOverrides(t *testing.T) {
	s := &recordingSleep{}
	x := newTestExecutor(testConfig, s, WithReportHook(func(err error, r retry.FailureReport) retry.FailureReport {
		r.Retryable = true
		return r
	}))

	calls := 0
	_ = x.Execute(context.Background(), Operation{
		Name:   "Mystery",
		Invoke: func(ctx context.Context) error { calls++; return errors.New("kaboom") },
	})
	if calls != testConfig.MaxAttempts {
		t.Errorf("override should allow retries: got %d calls", calls)
	}
}

func TestExecute_RetryHintRaisesDelay(t *testing.T) {
	s := &recordingSleep{}
	x := newTestExecutor(testConfig, s)

	calls := 0
	_ = x.Execute(context.Background(), Operation{
		Name: "Throttled",
		Invoke: func(ctx context.Context) error {
			calls++
			if calls == 1 {
				e := errclass.Wrap("Throttling", errors.New("slow down"))
				e.RetryAfter = 1500 * time.Millisecond
				return e
			}
			if calls == 2 {
				e := errclass.Wrap("Throttling", errors.New("slow down"))
				e.RetryAfter = time.Hour
				return e
			}
			return nil
		},
	})

	if len(s.delays) != 2 {
		t.Fatalf("expected 2 waits, got %v", s.delays)
	}
	if s.delays[0] != 1500*time.Millisecond {
		t.Errorf("hint should raise first delay to 1.5s, got %s", s.delays[0])
	}
	if s.delays[1] != testConfig.MaxDelay {
		t.Errorf("hint should be capped at max delay, got %s", s.delays[1])
	}
}

func TestExecute_CancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	journal := memory.NewFailedOperationRepo()
	x := newTestExecutor(testConfig, &recordingSleep{}, WithJournal(journal, "memory"))

	called := false
	err := x.Execute(ctx, Operation{Name: "Never", Invoke: func(ctx context.Context) error {
		called = true
		return nil
	}})

	if called {
		t.Error("operation should not run with a cancelled context")
	}
	if reason, _ := IsTerminal(err); reason != retry.ReasonCallerAborted {
		t.Errorf("expected CallerAborted, got %v", reason)
	}
	if !errors.Is(err, context.Canceled) {
		t.Error("aborted error should wrap context.Canceled")
	}
	if n, _ := journal.Count(context.Background()); n != 1 {
		t.Errorf("abort should still be journaled, got %d entries", n)
	}
}

func TestExecute_CancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	x := NewExecutor(retry.NewEngine(), retry.Config{
		MaxAttempts:       5,
		BaseDelay:         time.Minute,
		MaxDelay:          time.Minute,
		BackoffMultiplier: 2,
	}, WithLogger(quietLogger()))

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- x.Execute(ctx, Operation{Name: "Slow", Invoke: func(ctx context.Context) error {
			calls++
			return status.Error(codes.Unavailable, "down")
		}})
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if reason, _ := IsTerminal(err); reason != retry.ReasonCallerAborted {
			t.Errorf("expected CallerAborted, got %v", err)
		}
		if calls != 1 {
			t.Errorf("expected exactly 1 call, got %d", calls)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Execute did not return after cancellation")
	}
}

func TestExecuteWithFailover(t *testing.T) {
	s := &recordingSleep{}
	x := newTestExecutor(testConfig, s)

	var order []string
	failing := func(name string, err error) Operation {
		return Operation{Name: name, Invoke: func(ctx context.Context) error {
			order = append(order, name)
			return err
		}}
	}

	endpoints := []Operation{
		failing("primary", status.Error(codes.Unavailable, "down")),
		failing("secondary", status.Error(codes.PermissionDenied, "no access")),
		{Name: "tertiary", Invoke: func(ctx context.Context) error {
			order = append(order, "tertiary")
			return nil
		}},
	}

	if err := x.ExecuteWithFailover(context.Background(), endpoints); err != nil {
		t.Fatalf("expected failover to succeed, got %v", err)
	}
	want := []string{"primary", "primary", "primary", "secondary", "tertiary"}
	if len(order) != len(want) {
		t.Fatalf("call order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("call order = %v, want %v", order, want)
		}
	}
}

func TestExecuteWithFailover_StopsOnInvalidInput(t *testing.T) {
	x := newTestExecutor(testConfig, &recordingSleep{})

	secondCalled := false
	err := x.ExecuteWithFailover(context.Background(), []Operation{
		{Name: "a", Invoke: func(ctx context.Context) error { return status.Error(codes.InvalidArgument, "bad") }},
		{Name: "b", Invoke: func(ctx context.Context) error { secondCalled = true; return nil }},
	})
	if err == nil || secondCalled {
		t.Errorf("invalid input must not fail over: err=%v secondCalled=%v", err, secondCalled)
	}

	if err := x.ExecuteWithFailover(context.Background(), nil); !errors.Is(err, ErrNoEndpoints) {
		t.Errorf("expected ErrNoEndpoints, got %v", err)
	}
}

func TestCallWithRetry_ZeroFieldsUseDefaults(t *testing.T) {
	calls := 0
	err := CallWithRetry(context.Background(), Operation{
		Name: "Query",
		Invoke: func(ctx context.Context) error {
			calls++
			return errclass.Wrap(errclass.CategoryTimeout, errors.New("slow"))
		},
	}, retry.Config{BaseDelay: time.Millisecond, MaxDelay: time.Millisecond})

	if reason, _ := IsTerminal(err); reason != retry.ReasonMaxAttemptsExceeded {
		t.Fatalf("expected MaxAttemptsExceeded, got %v", err)
	}
	if calls != retry.DefaultMaxAttempts {
		t.Errorf("expected %d calls, got %d", retry.DefaultMaxAttempts, calls)
	}
}

func TestCallWithRetry_RejectsInvalidConfig(t *testing.T) {
	calls := 0
	err := CallWithRetry(context.Background(), Operation{
		Name:   "Query",
		Invoke: func(ctx context.Context) error { calls++; return nil },
	}, retry.Config{JitterFactor: 2})

	if !errors.Is(err, retry.ErrInvalidConfig) {
		t.Errorf("expected ErrInvalidConfig, got %v", err)
	}
	if calls != 0 {
		t.Errorf("operation should not run, got %d calls", calls)
	}
}

func TestCause(t *testing.T) {
	tests := map[retry.TerminalReason]domain.TerminalCause{
		retry.ReasonMaxAttemptsExceeded: domain.CauseMaxAttemptsExceeded,
		retry.ReasonNonRetryableKind:    domain.CauseNonRetryableKind,
		retry.ReasonCallerAborted:       domain.CauseCallerAborted,
	}
	for in, want := range tests {
		if got := Cause(in); got != want {
			t.Errorf("Cause(%s) = %s, want %s", in, got, want)
		}
	}
}
