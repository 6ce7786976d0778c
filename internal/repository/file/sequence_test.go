package file

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcingbee/challan/internal/config"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/types"
)

func newTestStore(t *testing.T, dir string) *sequenceStore {
	t.Helper()

	cfg := config.GetDefaultConfig()
	cfg.Sequence.StateFile = filepath.Join(dir, "dc_sequence_state.json")

	log, err := logger.NewLogger(cfg)
	require.NoError(t, err)

	return NewSequenceStore(cfg, log).(*sequenceStore)
}

func TestFileStoreSeedsNewCounters(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, t.TempDir())

	value, err := store.Peek(ctx, "akdcah_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(types.DefaultSequenceSeed), value)

	value, err = store.Next(ctx, "akdcah_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(types.DefaultSequenceSeed+1), value)
}

func TestFileStorePersistsAcrossInstances(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	first := newTestStore(t, dir)
	for i := 0; i < 5; i++ {
		_, err := first.Next(ctx, "akdchydnch_seq")
		require.NoError(t, err)
	}

	// A fresh instance over the same state file continues the counter.
	second := newTestStore(t, dir)
	value, err := second.Next(ctx, "akdchydnch_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(306), value)

	counters, err := second.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, counters, 1)
	assert.Equal(t, int64(6), counters[0].TotalIncrements)
}

func TestFileStoreSetValueGuardsLowering(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, t.TempDir())

	_, err := store.Next(ctx, "akdcah_seq")
	require.NoError(t, err)

	_, err = store.SetValue(ctx, "akdcah_seq", 100, false)
	require.Error(t, err)
	assert.True(t, ierr.IsInvalidOperation(err))

	value, err := store.SetValue(ctx, "akdcah_seq", 100, true)
	require.NoError(t, err)
	assert.Equal(t, int64(100), value)

	peeked, err := store.Peek(ctx, "akdcah_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(100), peeked)
}

func TestFileStoreCountersAreIndependent(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, t.TempDir())

	a, err := store.Next(ctx, "akdchydnch_seq")
	require.NoError(t, err)
	b, err := store.Next(ctx, "akdchydbvg_seq")
	require.NoError(t, err)

	assert.Equal(t, a, b)

	a2, err := store.Next(ctx, "akdchydnch_seq")
	require.NoError(t, err)
	assert.Equal(t, a+1, a2)
}
