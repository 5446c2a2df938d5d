package main

import (
	"context"
	"fmt"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/database"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/spf13/cobra"
)

var databaseCmd = &cobra.Command{
	Use:   "database",
	Short: "Inspect a database object",
}

var databaseShowCmd = &cobra.Command{
	Use:   "show <database-id> <view-id>",
	Short: "Print a view's rows as ordered on that view",
	Args:  cobra.ExactArgs(2),
	RunE:  runDatabaseShow,
}

func init() {
	databaseCmd.AddCommand(databaseShowCmd)
}

func runDatabaseShow(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	store := crdt.NewStore(0, svc)

	dbID := types.DatabaseID(args[0])
	viewID := types.ViewID(args[1])

	d, err := database.GetOrCreate(ctx, store, dbID)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer d.Close()

	view, ok, err := d.GetView(ctx, viewID)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("view %s not found in database %s", viewID, dbID)
	}

	rows, err := d.GetRowsForView(ctx, viewID)
	if err != nil {
		return err
	}

	fmt.Printf("view: %s (%s, layout=%s)\n", view.Name, view.ID, view.Layout)
	fmt.Printf("rows (%d):\n", len(rows))
	for _, r := range rows {
		fmt.Printf("  %s  height=%d  cells=%v\n", r.ID, r.Height, r.Cells)
	}
	return nil
}
