package retry

import (
	"fmt"
	"strings"
)

// Kind is the coarse failure category a report is classified into.
type Kind int

const (
	KindUnknown Kind = iota
	KindTransient
	KindThrottling
	KindResourceConflict
	KindInvalidInput
	KindPermissionDenied
	KindNotFound
	KindServerInternal
)

var kindNames = map[Kind]string{
	KindUnknown:          "Unknown",
	KindTransient:        "Transient",
	KindThrottling:       "Throttling",
	KindResourceConflict: "ResourceConflict",
	KindInvalidInput:     "InvalidInput",
	KindPermissionDenied: "PermissionDenied",
	KindNotFound:         "NotFound",
	KindServerInternal:   "ServerInternal",
}

// Kinds lists every kind in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindUnknown,
		KindTransient,
		KindThrottling,
		KindResourceConflict,
		KindInvalidInput,
		KindPermissionDenied,
		KindNotFound,
		KindServerInternal,
	}
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Retryable reports the default retryability of the kind.
func (k Kind) Retryable() bool {
	switch k {
	case KindTransient, KindThrottling, KindServerInternal:
		return true
	default:
		return false
	}
}

// ParseKind resolves a kind by name, ignoring case.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if strings.EqualFold(name, strings.TrimSpace(s)) {
			return k, nil
		}
	}
	return KindUnknown, fmt.Errorf("unknown failure kind %q", s)
}

// MarshalText renders the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// TerminalReason explains why a decision stops the retry loop.
type TerminalReason int

const (
	ReasonNone TerminalReason = iota
	ReasonMaxAttemptsExceeded
	ReasonNonRetryableKind
	ReasonCallerAborted
)

func (r TerminalReason) String() string {
	switch r {
	case ReasonNone:
		return "None"
	case ReasonMaxAttemptsExceeded:
		return "MaxAttemptsExceeded"
	case ReasonNonRetryableKind:
		return "NonRetryableKind"
	case ReasonCallerAborted:
		return "CallerAborted"
	default:
		return fmt.Sprintf("TerminalReason(%d)", int(r))
	}
}
