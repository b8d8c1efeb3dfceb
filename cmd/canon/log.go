package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openarchive/canon/internal/storage"
	"github.com/openarchive/canon/internal/types"
)

var (
	logBatch     string
	logCanonical string
	logStatus    string
	logLimit     int
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show the processing audit log",
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		entries, err := store.GetLog(context.Background(), storage.LogFilter{
			BatchID:     logBatch,
			CanonicalID: logCanonical,
			Status:      types.LogStatus(logStatus),
			Limit:       logLimit,
		})
		if err != nil {
			return err
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		red := color.New(color.FgRed).SprintFunc()

		if len(entries) == 0 {
			fmt.Println(gray("No log entries"))
			return nil
		}

		for _, e := range entries {
			statusText := string(e.Status)
			switch e.Status {
			case types.LogError:
				statusText = red(statusText)
			case types.LogDegraded, types.LogReview:
				statusText = yellow(statusText)
			}
			fmt.Printf("%s  %-8s %-10s %s\n", e.CreatedAt.Format("2006-01-02 15:04:05"), statusText, e.Operation, e.Message)
			if e.CanonicalID != "" || e.Source != "" {
				fmt.Printf("    %s\n", gray(fmt.Sprintf("canonical=%s source=%s batch=%s", e.CanonicalID, e.Source, e.BatchID)))
			}
		}
		return nil
	},
}

func init() {
	logCmd.Flags().StringVar(&logBatch, "batch", "", "Filter by batch id")
	logCmd.Flags().StringVar(&logCanonical, "canonical", "", "Filter by canonical id")
	logCmd.Flags().StringVar(&logStatus, "status", "", "Filter by status (ok, skipped, degraded, review, error)")
	logCmd.Flags().IntVar(&logLimit, "limit", 50, "Maximum entries to show")
	rootCmd.AddCommand(logCmd)
}
