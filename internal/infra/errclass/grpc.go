package errclass

import (
	"errors"
	"time"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var grpcCategories = map[codes.Code]string{
	codes.ResourceExhausted:  CategoryThrottling,
	codes.Unavailable:        CategoryServiceUnavailable,
	codes.DeadlineExceeded:   CategoryTimeout,
	codes.Internal:           CategoryInternalError,
	codes.DataLoss:           CategoryInternalError,
	codes.InvalidArgument:    CategoryValidationError,
	codes.OutOfRange:         CategoryValidationError,
	codes.FailedPrecondition: CategoryValidationError,
	codes.Unimplemented:      CategoryValidationError,
	codes.PermissionDenied:   CategoryAccessDenied,
	codes.Unauthenticated:    CategoryAccessDenied,
	codes.NotFound:           CategoryNotFound,
	codes.AlreadyExists:      CategoryConflict,
	codes.Aborted:            CategoryConflict,
}

// FromGRPC maps a gRPC status error to a category. Non-status errors and
// codes without a mapping (OK, Canceled, Unknown) yield "".
func FromGRPC(err error) string {
	if err == nil {
		return ""
	}
	st, ok := status.FromError(err)
	if !ok {
		return ""
	}
	return grpcCategories[st.Code()]
}

// RetryHint returns the server-suggested wait carried by err, either an
// explicit RetryAfter on *Error or a gRPC RetryInfo detail.
func RetryHint(err error) (time.Duration, bool) {
	if err == nil {
		return 0, false
	}

	var tagged *Error
	if errors.As(err, &tagged) && tagged.RetryAfter > 0 {
		return tagged.RetryAfter, true
	}

	st, ok := status.FromError(err)
	if !ok {
		return 0, false
	}
	for _, d := range st.Details() {
		info, ok := d.(*errdetails.RetryInfo)
		if !ok || info.GetRetryDelay() == nil {
			continue
		}
		if delay := info.GetRetryDelay().AsDuration(); delay > 0 {
			return delay, true
		}
	}
	return 0, false
}
