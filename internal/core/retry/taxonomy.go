package retry

import "strings"

// Taxonomy maps caller category tags to failure kinds. Lookups ignore case.
// A Taxonomy is read-only once handed to an Engine.
type Taxonomy map[string]Kind

// DefaultTaxonomy returns the built-in category mapping.
func DefaultTaxonomy() Taxonomy {
	t := Taxonomy{}
	for kind, categories := range map[Kind][]string{
		KindThrottling: {
			"Throttling", "ThrottlingException", "TooManyRequests", "TooManyRequestsException",
			"RequestLimitExceeded", "SlowDown", "RateExceeded", "ProvisionedThroughputExceededException",
			"ResourceExhausted",
		},
		KindTransient: {
			"ServiceUnavailable", "ServiceUnavailableException", "Timeout", "RequestTimeout",
			"RequestTimeoutException", "Unavailable", "ConnectionReset", "DeadlineExceeded", "SerializationFailure",
		},
		KindServerInternal: {
			"InternalError", "InternalFailure", "InternalServerError", "InternalServerException",
		},
		KindInvalidInput: {
			"ValidationError", "ValidationException", "InvalidParameterValue", "InvalidArgument",
			"MalformedQueryString", "BadRequest",
		},
		KindPermissionDenied: {
			"AccessDenied", "AccessDeniedException", "UnauthorizedOperation", "Unauthenticated",
			"PermissionDenied", "Forbidden",
		},
		KindNotFound: {
			"NotFound", "ResourceNotFoundException", "NoSuchKey", "NoSuchEntity",
		},
		KindResourceConflict: {
			"ConflictAlreadyExists", "ConflictException", "ResourceInUseException", "AlreadyExists",
			"Aborted",
		},
	} {
		for _, c := range categories {
			t[normalizeCategory(c)] = kind
		}
	}
	return t
}

// Merge returns a copy of t with overrides applied on top.
func (t Taxonomy) Merge(overrides map[string]Kind) Taxonomy {
	merged := make(Taxonomy, len(t)+len(overrides))
	for k, v := range t {
		merged[normalizeCategory(k)] = v
	}
	for k, v := range overrides {
		merged[normalizeCategory(k)] = v
	}
	return merged
}

// Lookup returns the kind for a category tag.
func (t Taxonomy) Lookup(category string) (Kind, bool) {
	kind, ok := t[normalizeCategory(category)]
	return kind, ok
}

func normalizeCategory(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
