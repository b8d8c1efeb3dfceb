// Command canon ingests extracted document batches into a canonical
// store, deduplicating copies across source collections.
package main

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/openarchive/canon/internal/logging"
	"github.com/openarchive/canon/internal/storage/sqlite"
)

var (
	dbPath   string
	logLevel string
	logJSON  bool

	logger zerolog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "canon",
	Short: "Canonicalize and deduplicate document collections",
	Long: `canon ingests batches of extracted documents, detects copies of the
same underlying document across overlapping source collections, selects
the best version of each, and keeps a full provenance and audit trail
in a local SQLite store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(logLevel, !logJSON)
		if err != nil {
			return err
		}
		return nil
	},
}

// openStore opens the canonical store at the configured path. Callers
// own the returned store and must close it.
func openStore() (*sqlite.Store, error) {
	store, err := sqlite.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open store at %s: %w", dbPath, err)
	}
	return store, nil
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", ".canon/canon.db", "Path to the canonical store database")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level (trace, debug, info, warn, error)")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "Emit structured JSON logs instead of console output")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
