package routing

import (
	"context"
	"errors"
	"fmt"

	"github.com/vietddude/retrypolicy/internal/core/retry"
)

// ErrNoEndpoints is returned when failover is asked to run with nothing to try.
var ErrNoEndpoints = errors.New("no endpoints")

// ExecuteWithFailover runs each endpoint's operation with retry, moving to the
// next endpoint when one exhausts its attempt budget. Failures that say the
// request itself is wrong stop immediately, as does cancellation.
func (x *Executor) ExecuteWithFailover(ctx context.Context, endpoints []Operation) error {
	if len(endpoints) == 0 {
		return ErrNoEndpoints
	}

	var lastErr error
	for _, op := range endpoints {
		err := x.Execute(ctx, op)
		if err == nil {
			return nil
		}
		lastErr = err

		var terr *TerminalError
		if !errors.As(err, &terr) || !shouldFailover(terr) {
			return err
		}
		x.logger.Info("Failing over to next endpoint", "from", op.Name, "reason", terr.Decision.TerminalReason)
	}

	return fmt.Errorf("all endpoints failed: %w", lastErr)
}

func shouldFailover(terr *TerminalError) bool {
	switch terr.Decision.TerminalReason {
	case retry.ReasonMaxAttemptsExceeded:
		return true
	case retry.ReasonNonRetryableKind:
		// Another endpoint may carry different credentials or data.
		return terr.Report.Kind == retry.KindPermissionDenied || terr.Report.Kind == retry.KindNotFound
	}
	return false
}
