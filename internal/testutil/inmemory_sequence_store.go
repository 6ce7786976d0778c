package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/sourcingbee/challan/internal/domain/sequence"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/types"
)

// InMemorySequenceStore is a thread-safe counter store for tests. Failures
// are injectable so chain failover and retry-exhaustion paths can be
// exercised without real backends.
type InMemorySequenceStore struct {
	mu       sync.Mutex
	counters map[string]*sequence.Counter
	seed     int64
	backend  types.SequenceBackendType

	// PingErr makes Ping fail, keeping the chain from selecting this store.
	PingErr error
	// NextErrs is consumed one per Next call before increments resume.
	NextErrs []error
}

func NewInMemorySequenceStore(seed int64) *InMemorySequenceStore {
	return &InMemorySequenceStore{
		counters: make(map[string]*sequence.Counter),
		seed:     seed,
		backend:  types.SequenceBackendFile,
	}
}

// WithBackendType overrides the reported backend type.
func (s *InMemorySequenceStore) WithBackendType(t types.SequenceBackendType) *InMemorySequenceStore {
	s.backend = t
	return s
}

func (s *InMemorySequenceStore) BackendType() types.SequenceBackendType {
	return s.backend
}

func (s *InMemorySequenceStore) Ping(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.PingErr
}

func (s *InMemorySequenceStore) Peek(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[name]; ok {
		return c.CurrentValue, nil
	}
	return s.seed, nil
}

func (s *InMemorySequenceStore) Next(ctx context.Context, name string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.NextErrs) > 0 {
		err := s.NextErrs[0]
		s.NextErrs = s.NextErrs[1:]
		return 0, err
	}

	c, ok := s.counters[name]
	if !ok {
		c = &sequence.Counter{Name: name, CurrentValue: s.seed}
		s.counters[name] = c
	}
	c.CurrentValue++
	c.TotalIncrements++
	c.LastUpdated = time.Now().UTC()
	return c.CurrentValue, nil
}

func (s *InMemorySequenceStore) SetValue(ctx context.Context, name string, value int64, force bool) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.counters[name]
	if ok && !force && value < c.CurrentValue {
		return 0, ierr.NewError("cannot lower sequence counter").
			Mark(ierr.ErrInvalidOperation)
	}
	if !ok {
		c = &sequence.Counter{Name: name}
		s.counters[name] = c
	}
	c.CurrentValue = value
	c.LastUpdated = time.Now().UTC()
	return value, nil
}

func (s *InMemorySequenceStore) ListAll(ctx context.Context) ([]*sequence.Counter, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*sequence.Counter, 0, len(s.counters))
	for _, c := range s.counters {
		copied := *c
		out = append(out, &copied)
	}
	return out, nil
}

// TotalIncrements reports how many increments a counter has consumed.
func (s *InMemorySequenceStore) TotalIncrements(name string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if c, ok := s.counters[name]; ok {
		return c.TotalIncrements
	}
	return 0
}
