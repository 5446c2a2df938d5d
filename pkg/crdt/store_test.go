package crdt

import (
	"context"
	"testing"

	"github.com/cuemby/collabkit/pkg/persistence"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTripsThroughPersistence(t *testing.T) {
	ctx := context.Background()
	svc, err := persistence.NewBoltService(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	store := NewStore(1, svc)
	collab, err := store.Open(ctx, "view-1")
	require.NoError(t, err)

	require.NoError(t, collab.Update(ctx, CollabOrigin{ClientID: "a"}, func(txn WriteTxn) error {
		txn.Root().Set("name", "My View")
		return nil
	}))
	require.NoError(t, store.Flush(ctx, "view-1"))

	// Re-open against a fresh Store backed by the same service and
	// confirm the flushed state survives the round trip.
	store2 := NewStore(1, svc)
	reopened, err := store2.Open(ctx, "view-1")
	require.NoError(t, err)

	err = reopened.View(ctx, func(txn ReadTxn) error {
		v, ok := txn.Root().Get("name")
		require.True(t, ok)
		require.Equal(t, "My View", v)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreReplaysPendingUpdatesWithoutFlush(t *testing.T) {
	ctx := context.Background()
	svc, err := persistence.NewBoltService(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	store := NewStore(7, svc)
	collab, err := store.Open(ctx, "doc-7")
	require.NoError(t, err)

	require.NoError(t, collab.Update(ctx, CollabOrigin{ClientID: "a"}, func(txn WriteTxn) error {
		txn.Root().Set("step", int64(1))
		return nil
	}))
	require.NoError(t, collab.Update(ctx, CollabOrigin{ClientID: "a"}, func(txn WriteTxn) error {
		txn.Root().Set("step", int64(2))
		return nil
	}))
	// No Flush: the two updates remain in the pending log.

	store2 := NewStore(7, svc)
	reopened, err := store2.Open(ctx, "doc-7")
	require.NoError(t, err)

	err = reopened.View(ctx, func(txn ReadTxn) error {
		v, _ := txn.Root().Get("step")
		require.Equal(t, int64(2), v)
		return nil
	})
	require.NoError(t, err)
}

func TestStoreDeleteRemovesPersistedState(t *testing.T) {
	ctx := context.Background()
	svc, err := persistence.NewBoltService(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })

	store := NewStore(1, svc)
	collab, err := store.Open(ctx, "doc-x")
	require.NoError(t, err)
	require.NoError(t, collab.Update(ctx, CollabOrigin{ClientID: "a"}, func(txn WriteTxn) error {
		txn.Root().Set("k", "v")
		return nil
	}))
	require.NoError(t, store.Flush(ctx, "doc-x"))
	require.NoError(t, store.Delete(ctx, "doc-x"))

	exists, err := svc.Exists(ctx, 1, "doc-x")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestStoreWithoutPersistenceIsPureInMemory(t *testing.T) {
	ctx := context.Background()
	store := NewStore(1, nil)
	collab, err := store.Open(ctx, "doc-mem")
	require.NoError(t, err)

	require.NoError(t, collab.Update(ctx, CollabOrigin{ClientID: "a"}, func(txn WriteTxn) error {
		txn.Root().Set("k", "v")
		return nil
	}))
	require.NoError(t, store.Flush(ctx, "doc-mem"))
}
