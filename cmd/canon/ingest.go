package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/openarchive/canon/internal/dedup"
	"github.com/openarchive/canon/internal/manifest"
	"github.com/openarchive/canon/internal/pipeline"
	"github.com/openarchive/canon/internal/types"
)

var (
	ingestDir        string
	ingestSource     string
	ingestCollection string
	ingestURL        string
	ingestTier       string
	ingestBatchID    string
	ingestReport     string
	ingestWorkers    int
	ingestTimeout    time.Duration
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Ingest a batch of extracted documents",
	Long: `Ingest every .txt document in a batch directory, deduplicating
against the existing canonical corpus.

Batch provenance comes from manifest.yaml in the directory; --source,
--collection, --url and --tier override it. Per-document structured
metadata comes from <name>.meta.yaml sidecars.

The batch report is written as JSON lines, one canonical record per
committed document.

Example:
  canon ingest --dir ./release-2024-03 --source national-archives --tier government`,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := context.Background()

		m, err := manifest.Load(ingestDir)
		if err != nil {
			return err
		}
		if ingestSource != "" {
			m.SourceName = ingestSource
		}
		if ingestCollection != "" {
			m.Collection = ingestCollection
		}
		if ingestURL != "" {
			m.URL = ingestURL
		}
		if ingestTier != "" {
			m.AuthorityTier = types.AuthorityTier(ingestTier)
		}
		if err := m.Validate(); err != nil {
			return fmt.Errorf("invalid batch provenance: %w", err)
		}

		dedupCfg, err := dedup.ConfigFromEnv()
		if err != nil {
			return err
		}
		cfg := pipeline.DefaultConfig()
		cfg.Dedup = dedupCfg
		if ingestWorkers > 0 {
			cfg.Workers = ingestWorkers
		}
		if ingestTimeout > 0 {
			cfg.DocTimeout = ingestTimeout
		}

		var report io.Writer = os.Stdout
		if ingestReport != "" && ingestReport != "-" {
			f, err := os.Create(ingestReport)
			if err != nil {
				return fmt.Errorf("failed to create report file: %w", err)
			}
			defer f.Close()
			report = f
		}

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		runner, err := pipeline.NewRunner(store, cfg, logger)
		if err != nil {
			return err
		}

		result, err := runner.Run(ctx, pipeline.Options{
			Dir:      ingestDir,
			Manifest: m,
			BatchID:  ingestBatchID,
			Report:   report,
		})
		if result != nil {
			printBatchSummary(result)
		}
		return err
	},
}

func printBatchSummary(result *pipeline.Result) {
	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	fmt.Fprintf(os.Stderr, "\n%s\n", cyan("=== Batch "+result.BatchID+" ==="))
	fmt.Fprintf(os.Stderr, "  Processed: %s\n", green(fmt.Sprintf("%d", result.Processed)))
	fmt.Fprintf(os.Stderr, "  Created:   %d\n", result.Created)
	fmt.Fprintf(os.Stderr, "  Merged:    %d\n", result.Merged)
	fmt.Fprintf(os.Stderr, "  Skipped:   %d\n", result.Skipped)
	fmt.Fprintf(os.Stderr, "  Overlaps:  %d\n", result.Overlaps)
	if result.Degraded > 0 {
		fmt.Fprintf(os.Stderr, "  Degraded:  %s\n", yellow(fmt.Sprintf("%d", result.Degraded)))
	}
	if result.Review > 0 {
		fmt.Fprintf(os.Stderr, "  Review:    %s\n", yellow(fmt.Sprintf("%d", result.Review)))
	}
	if result.Failed > 0 {
		fmt.Fprintf(os.Stderr, "  Failed:    %s\n", red(fmt.Sprintf("%d", result.Failed)))
	}
}

func init() {
	ingestCmd.Flags().StringVar(&ingestDir, "dir", "", "Batch directory of extracted .txt documents (required)")
	ingestCmd.Flags().StringVar(&ingestSource, "source", "", "Source collection name (overrides manifest)")
	ingestCmd.Flags().StringVar(&ingestCollection, "collection", "", "Release name within the source (overrides manifest)")
	ingestCmd.Flags().StringVar(&ingestURL, "url", "", "Source URL (overrides manifest)")
	ingestCmd.Flags().StringVar(&ingestTier, "tier", "", "Authority tier: court, government, official-release, archive, media")
	ingestCmd.Flags().StringVar(&ingestBatchID, "batch-id", "", "Batch identifier (generated when empty)")
	ingestCmd.Flags().StringVar(&ingestReport, "report", "-", "Report output path (- for stdout)")
	ingestCmd.Flags().IntVar(&ingestWorkers, "workers", 0, "Preparation worker count (default from config)")
	ingestCmd.Flags().DurationVar(&ingestTimeout, "timeout", 0, "Per-document match timeout")
	_ = ingestCmd.MarkFlagRequired("dir")
	rootCmd.AddCommand(ingestCmd)
}
