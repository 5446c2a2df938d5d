package main

import (
	"context"
	"fmt"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/database"
	"github.com/cuemby/collabkit/pkg/repair"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/spf13/cobra"
)

var repairCmd = &cobra.Command{
	Use:   "repair",
	Short: "Run repair passes against collabkit objects",
}

var repairRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the one-shot repair pass against a single database",
	RunE:  runRepairRun,
}

func init() {
	repairRunCmd.Flags().String("database", "", "Database id to repair (required)")
	_ = repairRunCmd.MarkFlagRequired("database")
	repairCmd.AddCommand(repairRunCmd)
}

func runRepairRun(cmd *cobra.Command, args []string) error {
	dbID, _ := cmd.Flags().GetString("database")

	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	store := crdt.NewStore(0, svc)

	d, err := database.GetOrCreate(ctx, store, types.DatabaseID(dbID))
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer d.Close()

	if err := repair.TryFixingDatabase(ctx, d); err != nil {
		return fmt.Errorf("repair: %w", err)
	}
	fmt.Println("repair pass completed, database validates clean")
	return nil
}
