package main

import (
	"context"
	"fmt"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize the canonical corpus",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		stats, err := store.GetStatistics(context.Background())
		if err != nil {
			return err
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()

		fmt.Printf("\n%s\n", cyan("=== Canonical Corpus ==="))
		fmt.Printf("  Canonical documents: %d\n", stats.CanonicalDocuments)
		fmt.Printf("  Source records:      %d\n", stats.SourceRecords)
		fmt.Printf("  Duplicates found:    %d\n", stats.DuplicatesFound)
		fmt.Printf("  Partial overlaps:    %d\n", stats.PartialOverlaps)
		fmt.Printf("  Log entries:         %d\n", stats.LogEntries)

		if len(stats.ByQuality) > 0 {
			fmt.Printf("\n%s\n", yellow("By quality:"))
			for _, category := range []string{"high", "medium", "low"} {
				if count, ok := stats.ByQuality[category]; ok {
					fmt.Printf("  %-8s %d\n", category, count)
				}
			}
		}

		if len(stats.BySource) > 0 {
			fmt.Printf("\n%s\n", yellow("By source:"))
			names := make([]string, 0, len(stats.BySource))
			for name := range stats.BySource {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-24s %d\n", name, stats.BySource[name])
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(statsCmd)
}
