package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var overlapsCmd = &cobra.Command{
	Use:   "overlaps [canonical-id]",
	Short: "Show partial-overlap relations for a canonical document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		ctx := context.Background()
		id := args[0]

		canonical, err := store.GetCanonical(ctx, id)
		if err != nil {
			return err
		}
		if canonical == nil {
			return fmt.Errorf("canonical document %s not found", id)
		}

		overlaps, err := store.GetOverlaps(ctx, id)
		if err != nil {
			return err
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(overlaps) == 0 {
			fmt.Println(gray("No overlaps recorded"))
			return nil
		}

		for _, o := range overlaps {
			other, otherPages, ownPages := o.CanonicalB, o.PagesB, o.PagesA
			if other == id {
				other, otherPages, ownPages = o.CanonicalA, o.PagesA, o.PagesB
			}
			fmt.Printf("%s  shares %d pages\n", other, o.SharedPages)
			fmt.Printf("    %s\n", gray(fmt.Sprintf("own pages %v, their pages %v", ownPages, otherPages)))
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(overlapsCmd)
}
