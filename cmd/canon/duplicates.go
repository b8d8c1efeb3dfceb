package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var duplicatesCmd = &cobra.Command{
	Use:   "duplicates",
	Short: "List canonical documents with more than one source",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		groups, err := store.ListDuplicates(context.Background())
		if err != nil {
			return err
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		green := color.New(color.FgGreen).SprintFunc()

		if len(groups) == 0 {
			fmt.Println(gray("No duplicate groups"))
			return nil
		}

		for _, group := range groups {
			fmt.Printf("%s  (%d sources)\n", group.CanonicalID, len(group.SourceIDs))
			for _, src := range group.Sources {
				marker := " "
				if src.Primary {
					marker = green("*")
				}
				fmt.Printf("  %s %-24s quality %.2f  %s\n", marker, src.SourceName, src.Quality.OverallScore, gray(src.ID))
			}
			if len(group.Methods) > 0 {
				fmt.Printf("    %s", gray("merged via:"))
				for _, m := range group.Methods {
					fmt.Printf(" %s", m)
				}
				fmt.Println()
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(duplicatesCmd)
}
