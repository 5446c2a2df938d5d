package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/cuemby/collabkit/pkg/crdt"
	"github.com/cuemby/collabkit/pkg/document"
	"github.com/cuemby/collabkit/pkg/types"
	"github.com/spf13/cobra"
)

var documentCmd = &cobra.Command{
	Use:   "document",
	Short: "Inspect a document object",
}

var documentShowCmd = &cobra.Command{
	Use:   "show <document-id>",
	Short: "Print a document's block tree",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentShow,
}

func init() {
	documentCmd.AddCommand(documentShowCmd)
}

func documentObjectID(id string) string { return "document:" + id }

func runDocumentShow(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer svc.Close()

	ctx := context.Background()
	store := crdt.NewStore(0, svc)
	collab, err := store.Open(ctx, documentObjectID(args[0]))
	if err != nil {
		return err
	}

	d := document.New(collab)
	defer d.Close()
	if err := d.Open(ctx); err != nil {
		return fmt.Errorf("open document: %w", err)
	}

	data, err := d.GetDocumentData(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("page: %s\n", data.PageID)
	printBlock(data, data.PageID, 0)
	return nil
}

func printBlock(data document.DocumentData, id types.BlockID, depth int) {
	b, ok := data.Blocks[id]
	if !ok {
		return
	}
	fmt.Printf("%s- %s  (%s)\n", strings.Repeat("  ", depth), b.Type, b.ID)
	for _, childID := range data.ChildrenMap[b.ChildrenID] {
		printBlock(data, childID, depth+1)
	}
}
