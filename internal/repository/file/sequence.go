package file

import (
	"context"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/flock"
	jsoniter "github.com/json-iterator/go"

	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// sequenceStore is the last-resort local backend: a JSON state file guarded
// by a process mutex and an OS file lock. It is single-host by nature and
// only safe when no remote backend is reachable, which is exactly when the
// chain falls through to it.
type sequenceStore struct {
	path   string
	seed   int64
	mu     sync.Mutex
	flock  *flock.Flock
	logger *logger.Logger
}

type stateFile struct {
	Counters map[string]*sequence.Counter `json:"counters"`
}

func NewSequenceStore(cfg *config.Configuration, logger *logger.Logger) sequence.Store {
	return &sequenceStore{
		path:   cfg.Sequence.StateFile,
		seed:   cfg.Sequence.Seed,
		flock:  flock.New(cfg.Sequence.StateFile + ".lock"),
		logger: logger,
	}
}

func (s *sequenceStore) BackendType() types.SequenceBackendType {
	return types.SequenceBackendFile
}

func (s *sequenceStore) Ping(ctx context.Context) error {
	if s.path == "" {
		return ierr.NewError("state file path is not configured").
			Mark(ierr.ErrBackendUnavailable)
	}
	return nil
}

// withState loads the state file under both locks, applies fn, and writes
// the state back when fn reports a mutation.
func (s *sequenceStore) withState(ctx context.Context, fn func(state *stateFile) (bool, error)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	locked, err := s.flock.TryLockContext(ctx, 50*time.Millisecond)
	if err != nil {
		return ierr.WithError(err).
			WithHint("Could not acquire state file lock").
			WithReportableDetails(map[string]any{"path": s.path}).
			Mark(ierr.ErrBackendUnavailable)
	}
	if !locked {
		return ierr.NewError("state file is locked by another process").
			WithReportableDetails(map[string]any{"path": s.path}).
			Mark(ierr.ErrBackendUnavailable)
	}
	defer func() {
		_ = s.flock.Unlock()
	}()

	state := &stateFile{Counters: make(map[string]*sequence.Counter)}
	data, err := os.ReadFile(s.path)
	if err != nil && !os.IsNotExist(err) {
		return ierr.WithError(err).
			WithHint("Could not read state file").
			WithReportableDetails(map[string]any{"path": s.path}).
			Mark(ierr.ErrBackendUnavailable)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, state); err != nil {
			return ierr.WithError(err).
				WithHint("State file is corrupt").
				WithReportableDetails(map[string]any{"path": s.path}).
				Mark(ierr.ErrBackendUnavailable)
		}
		if state.Counters == nil {
			state.Counters = make(map[string]*sequence.Counter)
		}
	}

	dirty, err := fn(state)
	if err != nil {
		return err
	}
	if !dirty {
		return nil
	}

	out, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return ierr.WithError(err).Mark(ierr.ErrSystem)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, out, 0o644); err != nil {
		return ierr.WithError(err).
			WithHint("Could not write state file").
			WithReportableDetails(map[string]any{"path": s.path}).
			Mark(ierr.ErrBackendUnavailable)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return ierr.WithError(err).
			WithHint("Could not write state file").
			WithReportableDetails(map[string]any{"path": s.path}).
			Mark(ierr.ErrBackendUnavailable)
	}
	return nil
}

func (s *sequenceStore) Peek(ctx context.Context, name string) (int64, error) {
	value := s.seed
	err := s.withState(ctx, func(state *stateFile) (bool, error) {
		if c, ok := state.Counters[name]; ok {
			value = c.CurrentValue
		}
		return false, nil
	})
	if err != nil {
		return 0, err
	}
	return value, nil
}

func (s *sequenceStore) Next(ctx context.Context, name string) (int64, error) {
	var issued int64
	err := s.withState(ctx, func(state *stateFile) (bool, error) {
		c, ok := state.Counters[name]
		if !ok {
			c = &sequence.Counter{Name: name, CurrentValue: s.seed}
			state.Counters[name] = c
		}
		c.CurrentValue++
		c.TotalIncrements++
		c.LastUpdated = time.Now().UTC()
		issued = c.CurrentValue
		return true, nil
	})
	if err != nil {
		return 0, err
	}
	return issued, nil
}

func (s *sequenceStore) SetValue(ctx context.Context, name string, value int64, force bool) (int64, error) {
	err := s.withState(ctx, func(state *stateFile) (bool, error) {
		c, ok := state.Counters[name]
		if ok && !force && value < c.CurrentValue {
			return false, ierr.NewError("cannot lower sequence counter").
				WithHint("Lowering a counter reissues document numbers; pass force to override").
				WithReportableDetails(map[string]any{
					"sequence":        name,
					"current_value":   c.CurrentValue,
					"requested_value": value,
				}).
				Mark(ierr.ErrInvalidOperation)
		}
		if !ok {
			c = &sequence.Counter{Name: name}
			state.Counters[name] = c
		}
		c.CurrentValue = value
		c.LastUpdated = time.Now().UTC()
		return true, nil
	})
	if err != nil {
		return 0, err
	}

	s.logger.Infow("sequence counter overridden",
		"sequence", name,
		"value", value,
		"force", force,
	)
	return value, nil
}

func (s *sequenceStore) ListAll(ctx context.Context) ([]*sequence.Counter, error) {
	var counters []*sequence.Counter
	err := s.withState(ctx, func(state *stateFile) (bool, error) {
		for _, c := range state.Counters {
			copied := *c
			counters = append(counters, &copied)
		}
		return false, nil
	})
	if err != nil {
		return nil, err
	}

	sort.Slice(counters, func(i, j int) bool {
		return counters[i].Name < counters[j].Name
	})
	return counters, nil
}
