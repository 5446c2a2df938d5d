package persistence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestService(t *testing.T) *BoltService {
	t.Helper()
	svc, err := NewBoltService(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestBoltServiceUpsertAndFlush(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	exists, err := svc.Exists(ctx, 1, "doc-1")
	require.NoError(t, err)
	require.False(t, exists)

	require.NoError(t, svc.Upsert(ctx, 1, "doc-1", []byte("update-1")))
	require.NoError(t, svc.Upsert(ctx, 1, "doc-1", []byte("update-2")))

	pending, err := svc.PendingUpdates(ctx, 1, "doc-1")
	require.NoError(t, err)
	require.Equal(t, [][]byte{[]byte("update-1"), []byte("update-2")}, pending)

	require.NoError(t, svc.FlushDoc(ctx, 1, "doc-1", []byte("sv"), []byte("state")))

	pending, err = svc.PendingUpdates(ctx, 1, "doc-1")
	require.NoError(t, err)
	require.Empty(t, pending)

	sv, docState, ok, err := svc.Load(ctx, 1, "doc-1")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("sv"), sv)
	require.Equal(t, []byte("state"), docState)
}

func TestBoltServiceDelete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.FlushDoc(ctx, 2, "doc-2", []byte("sv"), []byte("state")))
	require.NoError(t, svc.Delete(ctx, 2, "doc-2"))

	exists, err := svc.Exists(ctx, 2, "doc-2")
	require.NoError(t, err)
	require.False(t, exists)

	_, _, ok, err := svc.Load(ctx, 2, "doc-2")
	require.NoError(t, err)
	require.False(t, ok)
}

func TestBoltServiceIsolatesObjectsByUID(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t)

	require.NoError(t, svc.FlushDoc(ctx, 1, "shared-id", []byte("sv-1"), []byte("state-1")))
	require.NoError(t, svc.FlushDoc(ctx, 2, "shared-id", []byte("sv-2"), []byte("state-2")))

	_, docState, ok, err := svc.Load(ctx, 1, "shared-id")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("state-1"), docState)

	_, docState, ok, err = svc.Load(ctx, 2, "shared-id")
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []byte("state-2"), docState)
}
