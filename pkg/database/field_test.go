package database

import (
	"context"
	"testing"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/database/typeoption"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestFieldInsertGetUpdateDelete(t *testing.T) {
	ctx := context.Background()
	collab := crdt.NewCollab("field-test")
	defer collab.Close()

	id := types.NewFieldID()
	require.NoError(t, collab.Update(ctx, crdt.CollabOrigin{Tag: "test"}, func(txn crdt.WriteTxn) error {
		insertField(fieldsRoot(txn.Root()), Field{ID: id, Name: "Title", Type: types.FieldTypeRichText, IsPrimary: true})
		return nil
	}))

	require.NoError(t, collab.View(ctx, func(txn crdt.ReadTxn) error {
		f, ok := getField(fieldsRoot(txn.Root()), id)
		require.True(t, ok)
		require.Equal(t, "Title", f.Name)
		require.True(t, f.IsPrimary)
		return nil
	}))

	require.NoError(t, collab.Update(ctx, crdt.CollabOrigin{Tag: "test"}, func(txn crdt.WriteTxn) error {
		_, ok := updateField(fieldsRoot(txn.Root()), id, func(f *Field) { f.Name = "Renamed" })
		require.True(t, ok)
		return nil
	}))

	require.NoError(t, collab.View(ctx, func(txn crdt.ReadTxn) error {
		f, _ := getField(fieldsRoot(txn.Root()), id)
		require.Equal(t, "Renamed", f.Name)
		return nil
	}))

	require.NoError(t, collab.Update(ctx, crdt.CollabOrigin{Tag: "test"}, func(txn crdt.WriteTxn) error {
		deleteField(fieldsRoot(txn.Root()), id)
		return nil
	}))

	require.NoError(t, collab.View(ctx, func(txn crdt.ReadTxn) error {
		_, ok := getField(fieldsRoot(txn.Root()), id)
		require.False(t, ok)
		return nil
	}))
}

func TestFieldTypeOptionSurvivesTypeSwitch(t *testing.T) {
	ctx := context.Background()
	collab := crdt.NewCollab("field-test-2")
	defer collab.Close()

	id := types.NewFieldID()
	require.NoError(t, collab.Update(ctx, crdt.CollabOrigin{Tag: "test"}, func(txn crdt.WriteTxn) error {
		fields := fieldsRoot(txn.Root())
		insertField(fields, Field{ID: id, Name: "Amount", Type: types.FieldTypeNumber})
		num := typeoption.NewNumber()
		SetTypeOption(fields, id, num)
		return nil
	}))

	require.NoError(t, collab.Update(ctx, crdt.CollabOrigin{Tag: "test"}, func(txn crdt.WriteTxn) error {
		fields := fieldsRoot(txn.Root())
		updateField(fields, id, func(f *Field) { f.Type = types.FieldTypeRichText })
		return nil
	}))

	require.NoError(t, collab.View(ctx, func(txn crdt.ReadTxn) error {
		fields := fieldsRoot(txn.Root())
		opt := typeoption.Decode(types.FieldTypeNumber, fieldTypeOptionMap(fields, id, types.FieldTypeNumber))
		_, ok := opt.(*typeoption.NumberTypeOption)
		require.True(t, ok)
		return nil
	}))
}
