package repair

import (
	"context"
	"testing"
	"time"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/database"
	"github.com/cuemby/collabkit/pkg/document"
	"github.com/cuemby/collabkit/pkg/folder"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/stretchr/testify/require"
)

func TestReconcilerSweepPrunesEverything(t *testing.T) {
	ctx := context.Background()

	f := folder.New(crdt.NewCollab("reconciler-folder"))
	t.Cleanup(f.Close)
	ws := types.NewViewID()
	require.NoError(t, f.Create(ctx, folder.InitialData{WorkspaceID: ws}))
	gone := types.NewViewID()
	require.NoError(t, f.Insert(ctx, folder.View{ID: gone, ParentID: ws}))
	require.NoError(t, f.AddFavorites(ctx, 1, gone))
	require.NoError(t, f.DeleteViews(ctx, []types.ViewID{gone}))

	store := crdt.NewStore(1, nil)
	db, err := database.CreateWithInlineView(ctx, store, database.CreateDatabaseParams{
		ViewName: "Grid 1", Layout: types.ViewLayoutGrid,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	doc := document.New(crdt.NewCollab("reconciler-document"))
	t.Cleanup(doc.Close)
	pageID := types.NewBlockID()
	require.NoError(t, doc.Create(ctx, document.CreateParams{PageID: pageID, PageType: "page"}))

	r := NewReconciler(time.Hour)
	r.RegisterFolder("f1", f)
	r.RegisterDatabase("d1", db)
	r.RegisterDocument("doc1", doc)

	r.reconcile(ctx)

	data, err := f.GetFolderData(ctx, 1)
	require.NoError(t, err)
	require.Empty(t, data.Favorites)

	r.UnregisterFolder("f1")
	r.UnregisterDatabase("d1")
	r.UnregisterDocument("doc1")

	// a second sweep with nothing registered must not panic or error.
	r.reconcile(ctx)
}

func TestReconcilerStartStop(t *testing.T) {
	r := NewReconciler(time.Hour)
	r.Start()
	r.Stop()
}
