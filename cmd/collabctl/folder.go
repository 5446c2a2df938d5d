package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/folder"
	"github.com/spf13/cobra"
)

var folderCmd = &cobra.Command{
	Use:   "folder",
	Short: "Inspect a folder object",
}

var folderShowCmd = &cobra.Command{
	Use:   "show <uid>",
	Short: "Print a user's workspace tree, favorites, and trash",
	Args:  cobra.ExactArgs(1),
	RunE:  runFolderShow,
}

func init() {
	folderCmd.AddCommand(folderShowCmd)
}

func folderObjectID(uid string) string { return "folder:" + uid }

func runFolderShow(cmd *cobra.Command, args []string) error {
	uid, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid uid %q: %w", args[0], err)
	}

	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	store := crdt.NewStore(uid, svc)
	collab, err := store.Open(ctx, folderObjectID(args[0]))
	if err != nil {
		return err
	}

	f := folder.New(collab)
	defer f.Close()
	if err := f.Open(ctx); err != nil {
		return fmt.Errorf("open folder: %w", err)
	}

	data, err := f.GetFolderData(ctx, uid)
	if err != nil {
		return err
	}

	fmt.Printf("workspace: %s (%s)\n", data.Workspace.Name, data.Workspace.ID)
	fmt.Printf("views (%d):\n", len(data.AllViews))
	for _, v := range data.AllViews {
		fmt.Printf("  %s  %s\n", v.ID, v.Name)
	}
	fmt.Printf("favorites: %v\n", data.Favorites)
	fmt.Printf("trash: %v\n", data.Trash)
	return nil
}
