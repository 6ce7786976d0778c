package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sourcingbee/challan/internal/config"
	"github.com/sourcingbee/challan/internal/domain/sequence"
	ierr "github.com/sourcingbee/challan/internal/errors"
	"github.com/sourcingbee/challan/internal/logger"
	"github.com/sourcingbee/challan/internal/testutil"
	"github.com/sourcingbee/challan/internal/types"
)

func newTestChain(t *testing.T, stores ...sequence.Store) *SequenceChain {
	t.Helper()
	log, err := logger.NewLogger(config.GetDefaultConfig())
	require.NoError(t, err)
	return NewChain(stores, log)
}

func unavailable(msg string) error {
	return ierr.NewError(msg).Mark(ierr.ErrBackendUnavailable)
}

func TestChainInitSelectsFirstHealthyBackend(t *testing.T) {
	first := testutil.NewInMemorySequenceStore(300).WithBackendType(types.SequenceBackendSupabase)
	first.PingErr = unavailable("supabase down")
	second := testutil.NewInMemorySequenceStore(300).WithBackendType(types.SequenceBackendPostgres)

	chain := newTestChain(t, first, second)
	require.NoError(t, chain.Init(context.Background()))

	assert.Equal(t, string(types.SequenceBackendPostgres), chain.ActiveBackend())
}

func TestChainInitFailsWhenAllBackendsDown(t *testing.T) {
	first := testutil.NewInMemorySequenceStore(300)
	first.PingErr = unavailable("down")

	chain := newTestChain(t, first)
	err := chain.Init(context.Background())
	require.Error(t, err)
	assert.True(t, ierr.IsBackendUnavailable(err))
}

func TestChainFailsOverOnUnavailableBackend(t *testing.T) {
	ctx := context.Background()

	first := testutil.NewInMemorySequenceStore(300).WithBackendType(types.SequenceBackendSupabase)
	second := testutil.NewInMemorySequenceStore(300).WithBackendType(types.SequenceBackendFile)

	chain := newTestChain(t, first, second)
	require.NoError(t, chain.Init(ctx))

	first.NextErrs = []error{unavailable("supabase went away")}

	value, err := chain.Next(ctx, "akdcah_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(301), value)
	assert.Equal(t, string(types.SequenceBackendFile), chain.ActiveBackend())

	// The chain stays committed to the fallback afterwards.
	value, err = chain.Next(ctx, "akdcah_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(302), value)
	assert.Equal(t, int64(0), first.TotalIncrements("akdcah_seq"))
}

func TestChainDoesNotFailOverOnConflict(t *testing.T) {
	ctx := context.Background()

	first := testutil.NewInMemorySequenceStore(300).WithBackendType(types.SequenceBackendDynamoDB)
	second := testutil.NewInMemorySequenceStore(300).WithBackendType(types.SequenceBackendFile)

	chain := newTestChain(t, first, second)
	require.NoError(t, chain.Init(ctx))

	first.NextErrs = []error{
		ierr.NewError("retries exhausted").Mark(ierr.ErrSequenceConflict),
	}

	// The losing writer cannot know whether its increment landed, so the
	// conflict must surface instead of reissuing through the fallback.
	_, err := chain.Next(ctx, "akdcah_seq")
	require.Error(t, err)
	assert.True(t, ierr.IsSequenceConflict(err))
	assert.Equal(t, string(types.SequenceBackendDynamoDB), chain.ActiveBackend())
	assert.Equal(t, int64(0), second.TotalIncrements("akdcah_seq"))
}

func TestChainPeekNeverFails(t *testing.T) {
	ctx := context.Background()

	store := testutil.NewInMemorySequenceStore(300)
	chain := newTestChain(t, store)
	require.NoError(t, chain.Init(ctx))

	store.NextErrs = []error{unavailable("gone")}
	// Exhaust the only backend.
	_, err := chain.Next(ctx, "akdcah_seq")
	require.Error(t, err)

	value := chain.Peek(ctx, "akdcah_seq", 300)
	assert.Equal(t, int64(300), value)
}

func TestChainSetValueUsesActiveBackendOnly(t *testing.T) {
	ctx := context.Background()

	first := testutil.NewInMemorySequenceStore(300)
	second := testutil.NewInMemorySequenceStore(300)

	chain := newTestChain(t, first, second)
	require.NoError(t, chain.Init(ctx))

	value, err := chain.SetValue(ctx, "akdcah_seq", 500, false)
	require.NoError(t, err)
	assert.Equal(t, int64(500), value)

	got, err := second.Peek(ctx, "akdcah_seq")
	require.NoError(t, err)
	assert.Equal(t, int64(300), got)
}
