package domain

import "context"

// DedupStore remembers which message ids have already been processed.
// Implementations must be safe for concurrent use; records expire on their
// own after the retention window and are never deleted explicitly.
type DedupStore interface {
	// HasSeen reports whether a live record exists for the id. No side effect.
	HasSeen(ctx context.Context, messageID string) (bool, error)
	// MarkSeen creates or refreshes the record with the store's retention
	// window. Calling it twice for the same id is harmless.
	MarkSeen(ctx context.Context, messageID string) error
	Close() error
}
