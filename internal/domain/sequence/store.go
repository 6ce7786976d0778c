package sequence

import (
	"context"

	"github.com/sourcingbee/challan/internal/types"
)

// Store is the contract every counter backend implements. Implementations
// must make Next atomic: two concurrent calls for the same name never return
// the same value, and no value is ever skipped.
type Store interface {
	// BackendType identifies the backend for logging and health reporting.
	BackendType() types.SequenceBackendType

	// Ping reports whether the backend is reachable and usable.
	Ping(ctx context.Context) error

	// Peek returns the current value of the counter without consuming it.
	// Unknown counters report the configured seed floor.
	Peek(ctx context.Context, name string) (int64, error)

	// Next atomically increments the counter and returns the new value,
	// seeding previously-unseen counters at the configured floor.
	// Returns an error marked ErrSequenceConflict when concurrent writers
	// exhaust their retries, and ErrBackendUnavailable when the backend
	// itself cannot serve the request.
	Next(ctx context.Context, name string) (int64, error)

	// SetValue overrides the counter. Lowering an existing counter is
	// rejected unless force is set, since reissuing values would produce
	// duplicate document numbers. Returns the resulting value.
	SetValue(ctx context.Context, name string, value int64, force bool) (int64, error)

	// ListAll returns every counter the backend knows about.
	ListAll(ctx context.Context) ([]*Counter, error)
}
