package errclass

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// FromHTTPStatus maps an HTTP status code to a category.
func FromHTTPStatus(code int) string {
	switch {
	case code == http.StatusTooManyRequests:
		return CategoryThrottling
	case code == http.StatusRequestTimeout, code == http.StatusGatewayTimeout:
		return CategoryTimeout
	case code == http.StatusServiceUnavailable, code == http.StatusBadGateway:
		return CategoryServiceUnavailable
	case code == http.StatusUnauthorized, code == http.StatusForbidden:
		return CategoryAccessDenied
	case code == http.StatusNotFound, code == http.StatusGone:
		return CategoryNotFound
	case code == http.StatusConflict:
		return CategoryConflict
	case code >= 500:
		return CategoryInternalError
	case code >= 400:
		return CategoryValidationError
	}
	return ""
}

// FromResponse builds a tagged error for a non-2xx response, honoring
// Retry-After. It returns nil for successful responses.
func FromResponse(resp *http.Response) *Error {
	if resp == nil || resp.StatusCode < 400 {
		return nil
	}
	e := Wrap(FromHTTPStatus(resp.StatusCode), fmt.Errorf("http %d %s", resp.StatusCode, http.StatusText(resp.StatusCode)))
	if d, ok := ParseRetryAfter(resp.Header.Get("Retry-After"), time.Now()); ok {
		e.RetryAfter = d
	}
	return e
}

// ParseRetryAfter parses a Retry-After header in either delta-seconds or
// HTTP-date form.
func ParseRetryAfter(v string, now time.Time) (time.Duration, bool) {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0, false
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0, false
		}
		return time.Duration(secs) * time.Second, true
	}
	t, err := http.ParseTime(v)
	if err != nil {
		return 0, false
	}
	if d := t.Sub(now); d > 0 {
		return d, true
	}
	return 0, false
}
