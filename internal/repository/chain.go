package repository

import (
	"context"
	"sync"

	"github.com/sourcingbee/challan/internal/domain/sequence"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
)

// SequenceChain fronts an ordered list of counter backends. At startup the
// chain commits to the first backend whose health check passes and keeps
// using it; switching backends mid-run would fork the counter state.
//
// Failover happens only on backend-unavailable errors. Conflict exhaustion
// never fails over: the losing writer cannot know whether its increment
// landed, and reissuing through another backend could duplicate a number.
type SequenceChain struct {
	backends []sequence.Store

	mu     sync.RWMutex
	active int

	logger *logger.Logger
}

func NewChain(backends []sequence.Store, logger *logger.Logger) *SequenceChain {
	return &SequenceChain{
		backends: backends,
		active:   -1,
		logger:   logger,
	}
}

// Init selects the active backend. Called once at startup; a chain with no
// healthy backend is a hard startup failure.
func (c *SequenceChain) Init(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, backend := range c.backends {
		if err := backend.Ping(ctx); err != nil {
			c.logger.Warnw("sequence backend failed health check, trying next",
				"backend", backend.BackendType(),
				"error", err,
			)
			continue
		}
		c.active = i
		c.logger.Infow("sequence backend selected",
			"backend", backend.BackendType(),
			"position", i,
		)
		return nil
	}

	return ierr.NewError("no sequence backend is available").
		WithHint("Every configured counter backend failed its health check").
		Mark(ierr.ErrBackendUnavailable)
}

// Active returns the currently selected backend.
func (c *SequenceChain) Active() (sequence.Store, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.active < 0 || c.active >= len(c.backends) {
		return nil, ierr.NewError("sequence chain is not initialized").
			Mark(ierr.ErrBackendUnavailable)
	}
	return c.backends[c.active], nil
}

// failover advances past the given backend position. Returns false when no
// backend remains.
func (c *SequenceChain) failover(from int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.active != from {
		// Another caller already moved on.
		return c.active >= 0 && c.active < len(c.backends)
	}
	if from+1 >= len(c.backends) {
		c.active = -1
		return false
	}
	c.active = from + 1
	c.logger.Warnw("sequence backend failed over",
		"from", c.backends[from].BackendType(),
		"to", c.backends[c.active].BackendType(),
	)
	return true
}

func (c *SequenceChain) position() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Next issues the next counter value, failing over on unavailable backends.
// Conflict exhaustion propagates unchanged.
func (c *SequenceChain) Next(ctx context.Context, name string) (int64, error) {
	for {
		pos := c.position()
		store, err := c.Active()
		if err != nil {
			return 0, err
		}

		value, err := store.Next(ctx, name)
		if err == nil {
			return value, nil
		}
		if !ierr.IsBackendUnavailable(err) {
			return 0, err
		}
		if !c.failover(pos) {
			return 0, err
		}
	}
}

// Peek never fails: when every backend is down it reports the seed floor of
// the last backend in the chain, which is the most conservative answer a
// caller previewing the next number can get.
func (c *SequenceChain) Peek(ctx context.Context, name string, seed int64) int64 {
	for {
		pos := c.position()
		store, err := c.Active()
		if err != nil {
			return seed
		}

		value, err := store.Peek(ctx, name)
		if err == nil {
			return value
		}
		if !ierr.IsBackendUnavailable(err) || !c.failover(pos) {
			c.logger.Warnw("peek falling back to seed floor",
				"sequence", name,
				"seed", seed,
				"error", err,
			)
			return seed
		}
	}
}

// SetValue overrides a counter on the active backend only. Overrides are an
// operator action and must not silently land on a fallback backend.
func (c *SequenceChain) SetValue(ctx context.Context, name string, value int64, force bool) (int64, error) {
	store, err := c.Active()
	if err != nil {
		return 0, err
	}
	return store.SetValue(ctx, name, value, force)
}

// ListAll lists counters from the active backend.
func (c *SequenceChain) ListAll(ctx context.Context) ([]*sequence.Counter, error) {
	store, err := c.Active()
	if err != nil {
		return nil, err
	}
	return store.ListAll(ctx)
}

// ActiveBackend reports the active backend type for health reporting.
func (c *SequenceChain) ActiveBackend() string {
	store, err := c.Active()
	if err != nil {
		return "none"
	}
	return string(store.BackendType())
}
