package domain

import "errors"

var (
	// ErrStoreUnavailable marks dedup store failures. The pipeline treats an
	// unreadable store as "unknown, keep processing" rather than dropping
	// traffic while the store is down.
	ErrStoreUnavailable = errors.New("dedup store unavailable")

	// ErrSummarizerUnavailable means the model-backed strategy is not
	// configured or could not be reached.
	ErrSummarizerUnavailable = errors.New("summarizer unavailable")

	// ErrDeliveryFailed marks outbound send failures (network, auth, rate limit).
	ErrDeliveryFailed = errors.New("delivery failed")
)
