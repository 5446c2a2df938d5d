package anymap

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

func TestGetAsAndCoercion(t *testing.T) {
	withRoot(t, func(m crdt.Map) {
		a := New(m)
		a.Insert("name", "hello")
		a.Insert("count", int64(3))
		a.Insert("ratio", 1.5)

		name, ok := a.GetString("name")
		require.True(t, ok)
		require.Equal(t, "hello", name)

		asStr, ok := a.GetString("count")
		require.True(t, ok)
		require.Equal(t, "3", asStr)

		count, ok := a.GetInt64("count")
		require.True(t, ok)
		require.Equal(t, int64(3), count)

		ratio, ok := a.GetFloat64("ratio")
		require.True(t, ok)
		require.Equal(t, 1.5, ratio)
	})
}

func TestStringArrayRoundTrip(t *testing.T) {
	withRoot(t, func(m crdt.Map) {
		a := New(m)
		a.SetStringArray("tags", []string{"a", "b", "c"})
		require.Equal(t, []string{"a", "b", "c"}, a.StringArray("tags"))

		a.SetStringArray("tags", []string{"x"})
		require.Equal(t, []string{"x"}, a.StringArray("tags"))
	})
}

func TestGetOrCreateMapNesting(t *testing.T) {
	withRoot(t, func(m crdt.Map) {
		a := New(m)
		nested := a.GetOrCreateMap("type_option")
		nested.Insert("format", int64(1))

		again, ok := a.GetMap("type_option")
		require.True(t, ok)
		format, ok := again.GetInt64("format")
		require.True(t, ok)
		require.Equal(t, int64(1), format)
	})
}
