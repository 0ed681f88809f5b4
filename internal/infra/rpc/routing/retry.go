package routing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/vietddude/retrypolicy/internal/core/domain"
	"github.com/vietddude/retrypolicy/internal/core/retry"
	"github.com/vietddude/retrypolicy/internal/infra/errclass"
	"github.com/vietddude/retrypolicy/internal/infra/storage"
	"github.com/vietddude/retrypolicy/internal/metrics"
)

// Operation is one logical call that may be attempted several times.
type Operation struct {
	// Name identifies the operation (e.g., "PutObject")
	Name string

	// Invoke performs a single attempt.
	Invoke func(ctx context.Context) error
}

// TerminalError is returned when the retry loop stops without success.
type TerminalError struct {
	Op       string
	Attempts int
	Report   retry.FailureReport
	Decision retry.Decision
	// Err is the last attempt's error, nil if no attempt ran.
	Err error
	// Cause is the context error when the loop was aborted.
	Cause error
}

func (e *TerminalError) Error() string {
	msg := fmt.Sprintf("%s: %s after %d attempt(s)", e.Op, e.Decision.TerminalReason, e.Attempts)
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	} else if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *TerminalError) Unwrap() []error {
	var errs []error
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	if e.Cause != nil {
		errs = append(errs, e.Cause)
	}
	return errs
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ReportHook may adjust a report before it is evaluated, typically to
// override Retryable for errors the caller knows more about.
type ReportHook func(err error, report retry.FailureReport) retry.FailureReport

// Executor drives the retry loop around a retry.Engine.
type Executor struct {
	engine     *retry.Engine
	config     retry.Config
	classifier errclass.Classifier
	journal    storage.FailedOperationRepository
	driver     string
	hook       ReportHook
	sleep      SleepFunc
	logger     *slog.Logger
}

// ExecutorOption configures an Executor.
type ExecutorOption func(x *Executor)

// WithClassifier sets how errors are turned into category tags.
func WithClassifier(c errclass.Classifier) ExecutorOption {
	return func(x *Executor) {
		x.classifier = c
	}
}

// WithJournal records terminal failures. driver labels the metrics.
func WithJournal(repo storage.FailedOperationRepository, driver string) ExecutorOption {
	return func(x *Executor) {
		x.journal = repo
		x.driver = driver
	}
}

// WithReportHook installs a hook that may override classification results.
func WithReportHook(h ReportHook) ExecutorOption {
	return func(x *Executor) {
		x.hook = h
	}
}

// WithSleep replaces the timer-based wait.
func WithSleep(s SleepFunc) ExecutorOption {
	return func(x *Executor) {
		x.sleep = s
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) ExecutorOption {
	return func(x *Executor) {
		x.logger = l
	}
}

// NewExecutor creates an executor. A nil engine uses retry.NewEngine(). cfg is
// used as given; pass it through retry.NewConfig to fill defaults.
func NewExecutor(engine *retry.Engine, cfg retry.Config, options ...ExecutorOption) *Executor {
	if engine == nil {
		engine = retry.NewEngine()
	}
	x := &Executor{
		engine:     engine,
		config:     cfg,
		classifier: errclass.Default(),
		sleep:      sleepContext,
	}
	for _, o := range options {
		o(x)
	}
	if x.logger == nil {
		x.logger = slog.Default()
	}
	if x.classifier == nil {
		x.classifier = errclass.Default()
	}
	if x.sleep == nil {
		x.sleep = sleepContext
	}
	return x
}

// Config returns the policy the executor evaluates against.
func (x *Executor) Config() retry.Config {
	return x.config
}

// Execute runs op until it succeeds or the engine returns a terminal decision.
func (x *Executor) Execute(ctx context.Context, op Operation) error {
	var (
		lastErr error
		report  retry.FailureReport
	)

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return x.terminate(ctx, op, attempt-1, report, x.engine.Abort(err.Error()), lastErr, err)
		}

		err := op.Invoke(ctx)
		if err == nil {
			metrics.Attempts.WithLabelValues(op.Name, "success").Observe(float64(attempt))
			if attempt > 1 {
				x.logger.Debug("Operation succeeded after retry", "op", op.Name, "attempt", attempt)
			}
			return nil
		}
		lastErr = err

		report = x.engine.Classify(x.classifier.Category(err), attempt)
		report.Message = err.Error()
		if x.hook != nil {
			report = x.hook(err, report)
		}

		// Cancellation is checked before evaluating so that an in-flight
		// failure caused by the cancel is not retried.
		var decision retry.Decision
		if ctxErr := ctx.Err(); ctxErr != nil {
			decision = x.engine.Abort(ctxErr.Error())
		} else {
			decision = x.engine.Evaluate(report, x.config)
		}

		if decision.Terminal() {
			return x.terminate(ctx, op, attempt, report, decision, lastErr, ctx.Err())
		}

		delay := decision.Delay
		if hint, ok := errclass.RetryHint(err); ok {
			delay = max(delay, min(hint, x.config.MaxDelay))
		}

		metrics.DecisionsTotal.WithLabelValues(report.Kind.String(), "retry").Inc()
		metrics.RetryDelay.WithLabelValues(report.Kind.String()).Observe(delay.Seconds())
		x.logger.Debug("Retrying operation",
			"op", op.Name,
			"attempt", attempt,
			"kind", report.Kind,
			"category", report.Category,
			"delay", delay,
			"error", err,
		)

		if err := x.sleep(ctx, delay); err != nil {
			return x.terminate(ctx, op, attempt, report, x.engine.Abort(err.Error()), lastErr, err)
		}
	}
}

func (x *Executor) terminate(
	ctx context.Context,
	op Operation,
	attempts int,
	report retry.FailureReport,
	decision retry.Decision,
	lastErr error,
	cause error,
) error {
	terr := &TerminalError{
		Op:       op.Name,
		Attempts: attempts,
		Report:   report,
		Decision: decision,
		Err:      lastErr,
	}
	if decision.TerminalReason == retry.ReasonCallerAborted {
		terr.Cause = cause
	}

	metrics.DecisionsTotal.WithLabelValues(report.Kind.String(), decision.TerminalReason.String()).Inc()
	metrics.Attempts.WithLabelValues(op.Name, decision.TerminalReason.String()).Observe(float64(attempts))
	x.logger.Warn("Operation failed",
		"op", op.Name,
		"attempts", attempts,
		"kind", report.Kind,
		"reason", decision.TerminalReason,
		"error", terr.Err,
	)

	x.record(ctx, terr)
	return terr
}

// record journals a terminal failure. Journal errors are logged, never
// returned, so they cannot mask the operation's own error.
func (x *Executor) record(ctx context.Context, terr *TerminalError) {
	if x.journal == nil {
		return
	}

	msg := ""
	if terr.Err != nil {
		msg = terr.Err.Error()
	}
	entry := &domain.FailedOperation{
		ID:        uuid.New().String(),
		Operation: terr.Op,
		Kind:      terr.Report.Kind.String(),
		Category:  terr.Report.Category,
		Reason:    Cause(terr.Decision.TerminalReason),
		Attempts:  terr.Attempts,
		Error:     msg,
		CreatedAt: time.Now().UTC(),
	}

	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
	defer cancel()

	if err := x.journal.Add(writeCtx, entry); err != nil {
		metrics.JournalErrorsTotal.WithLabelValues(x.driver).Inc()
		x.logger.Error("Failed to journal failed operation", "op", terr.Op, "error", err)
		return
	}
	metrics.FailedOperationsRecorded.WithLabelValues(x.driver).Inc()
}

// Cause converts an engine terminal reason into its stored form.
func Cause(r retry.TerminalReason) domain.TerminalCause {
	switch r {
	case retry.ReasonMaxAttemptsExceeded:
		return domain.CauseMaxAttemptsExceeded
	case retry.ReasonNonRetryableKind:
		return domain.CauseNonRetryableKind
	case retry.ReasonCallerAborted:
		return domain.CauseCallerAborted
	}
	return domain.TerminalCause(strconv.Itoa(int(r)))
}

// IsTerminal reports whether err came out of a retry loop, and why.
func IsTerminal(err error) (retry.TerminalReason, bool) {
	var terr *TerminalError
	if errors.As(err, &terr) {
		return terr.Decision.TerminalReason, true
	}
	return retry.ReasonNone, false
}

// CallWithRetry executes op with the default engine and classifier. Zero
// fields of config take their defaults from retry.DefaultConfig, so a zero
// Config retries with the default policy. Invalid configs are rejected
// before op runs.
func CallWithRetry(ctx context.Context, op Operation, config retry.Config) error {
	cfg, err := retry.NewConfig(config)
	if err != nil {
		return err
	}
	return NewExecutor(nil, cfg).Execute(ctx, op)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
