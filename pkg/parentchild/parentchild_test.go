package parentchild

import (
	"context"
	"testing"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/stretchr/testify/require"
)

func withRoot(t *testing.T, fn func(m crdt.Map)) {
	t.Helper()
	c := crdt.NewCollab("test")
	err := c.Update(context.Background(), crdt.CollabOrigin{ClientID: "t"}, func(txn crdt.WriteTxn) error {
		fn(txn.Root())
		return nil
	})
	require.NoError(t, err)
}

func TestAddAndGetChildren(t *testing.T) {
	withRoot(t, func(m crdt.Map) {
		r := New(m)
		r.AddChild("parent-1", "child-a")
		r.AddChild("parent-1", "child-b")

		require.Equal(t, []string{"child-a", "child-b"}, r.GetChildren("parent-1"))
		require.Nil(t, r.GetChildren("parent-none"))
	})
}

func TestMoveChild(t *testing.T) {
	withRoot(t, func(m crdt.Map) {
		r := New(m)
		r.AddChild("p", "a")
		r.AddChild("p", "b")
		r.AddChild("p", "c")

		require.True(t, r.MoveChild("p", "a", 2))
		require.Equal(t, []string{"b", "c", "a"}, r.GetChildren("p"))
		require.False(t, r.MoveChild("p", "missing", 0))
	})
}

func TestAssociateMovesAcrossParents(t *testing.T) {
	withRoot(t, func(m crdt.Map) {
		r := New(m)
		r.AddChild("old", "x")
		r.AddChild("new", "y")

		r.Associate("old", "new", "x", -1)

		require.Equal(t, []string{}, r.GetChildren("old"))
		require.Equal(t, []string{"y", "x"}, r.GetChildren("new"))
	})
}

func TestDissociateRemovesWithoutReassigning(t *testing.T) {
	withRoot(t, func(m crdt.Map) {
		r := New(m)
		r.AddChild("p", "a")
		r.AddChild("p", "b")

		require.True(t, r.Dissociate("p", "a"))
		require.Equal(t, []string{"b"}, r.GetChildren("p"))
		require.False(t, r.Dissociate("p", "a"))
	})
}
