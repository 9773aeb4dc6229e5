// SPDX-FileCopyrightText: 2025 Jon Thor Kristinsson
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/jontk/fairshare"
	fsengine "github.com/jontk/fairshare/internal/fairshare"
	"github.com/jontk/fairshare/internal/fairshare/store"
	"github.com/jontk/fairshare/pkg/config"
)

var (
	Version   = "dev"
	BuildTime = ""
	Commit    = ""

	dbPath    string
	outputFmt string

	rootCmd = &cobra.Command{
		Use:     "fairshare-shares",
		Short:   "Dump the computed fairshare hierarchy",
		Long:    `Loads the bank/association hierarchy and prints each association's fairshare value without writing it back.`,
		Version: Version,
		RunE:    runShares,
	}
)

func init() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildTime)

	rootCmd.Flags().StringVar(&dbPath, "db", "", "path to the accounting store (env: ACCOUNTING_DB_DATA_DIR)")
	rootCmd.Flags().StringVarP(&outputFmt, "output", "o", "table", "output format: table, parsable, json")
}

func runShares(cmd *cobra.Command, args []string) error {
	cfg := config.NewDefault()
	cfg.Load()
	if dbPath != "" {
		cfg.DBPath = dbPath
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	st, err := store.Open(cfg.DBPath, cfg.BusyTimeout, cfg.WALMode)
	if err != nil {
		return fmt.Errorf("opening accounting store: %w", err)
	}
	defer st.Close()

	eng := fairshare.NewEngine(st, nil)
	results, err := eng.Shares(cmd.Context())
	if err != nil {
		return err
	}

	sortLeaves(results)

	switch outputFmt {
	case "json":
		return printJSON(results)
	case "parsable":
		return printParsable(results)
	default:
		return printTable(results)
	}
}

// sortLeaves orders results by (bank, username) using a locale-aware
// collator so the parsable output has a stable, human-sensible order
// regardless of the host's locale.
func sortLeaves(results []fsengine.LeafResult) {
	col := collate.New(language.English)
	sort.Slice(results, func(i, j int) bool {
		if results[i].Bank != results[j].Bank {
			return col.CompareString(results[i].Bank, results[j].Bank) < 0
		}
		return col.CompareString(results[i].Username, results[j].Username) < 0
	})
}

func printTable(results []fsengine.LeafResult) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "BANK\tUSER\tFAIRSHARE")
	for _, r := range results {
		fmt.Fprintf(w, "%s\t%s\t%.6f\n", r.Bank, r.Username, r.Fairshare)
	}
	return w.Flush()
}

func printParsable(results []fsengine.LeafResult) error {
	w := csv.NewWriter(os.Stdout)
	w.Comma = '|'
	for _, r := range results {
		if err := w.Write([]string{r.Bank, r.Username, fmt.Sprintf("%.6f", r.Fairshare)}); err != nil {
			return err
		}
	}
	w.Flush()
	return w.Error()
}

func printJSON(results []fsengine.LeafResult) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(results)
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
