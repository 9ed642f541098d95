// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pdiddy/citaciones/internal/ledger"
)

var ledgerCmd = &cobra.Command{
	Use:   "ledger",
	Short: "Query the oficio ledger",
	Long: `Ledger reads the SQLite record of issued oficio numbers kept at
ledger.path. Every successful extract and every interactive run is recorded
there.`,
}

var ledgerListCmd = &cobra.Command{
	Use:   "list",
	Short: "List recorded runs, newest first",
	RunE:  runLedgerList,
}

var ledgerNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Print the next free oficio number for a hearing year",
	RunE:  runLedgerNext,
}

var ledgerIssuedCmd = &cobra.Command{
	Use:   "issued <oficio>",
	Short: "Show which runs issued an oficio number",
	Args:  cobra.ExactArgs(1),
	RunE:  runLedgerIssued,
}

func openLedger() (*ledger.Store, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	if cfg.Ledger.Path == "" {
		return nil, fmt.Errorf("ledger.path is not configured")
	}
	return ledger.Open(cfg.Ledger.Path)
}

func ledgerYear(cmd *cobra.Command) (int, error) {
	year, _ := cmd.Flags().GetInt("year")
	if year != 0 {
		return year, nil
	}
	cfg, err := loadConfig()
	if err != nil {
		return 0, err
	}
	hearing, err := templateAt(cfg.Template, time.Now()).Hearing()
	if err != nil {
		return 0, err
	}
	return hearing.Year(), nil
}

func runLedgerList(cmd *cobra.Command, args []string) error {
	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	limit, _ := cmd.Flags().GetInt("limit")
	entries, err := store.List(context.Background(), limit)
	if err != nil {
		return err
	}

	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	}

	if len(entries) == 0 {
		fmt.Println("No runs recorded.")
		return nil
	}

	fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-4s  %-11s  %-5s  %s\n",
		"Run", "Created", "Year", "Oficios", "Count", "Complaints")
	fmt.Fprintln(os.Stdout, strings.Repeat("-", 100))
	for _, e := range entries {
		complaints := e.Files.Complaints
		if len(complaints) > 24 {
			complaints = complaints[:21] + "..."
		}
		fmt.Fprintf(os.Stdout, "%-36s  %-16s  %-4d  %-11s  %-5d  %s\n",
			e.RunID, e.CreatedAt.Local().Format("2006-01-02 15:04"), e.HearingYear,
			fmt.Sprintf("%d-%d", e.First, e.Last), e.Citations, complaints)
	}
	fmt.Fprintf(os.Stdout, "\n%d runs\n", len(entries))
	return nil
}

func runLedgerNext(cmd *cobra.Command, args []string) error {
	year, err := ledgerYear(cmd)
	if err != nil {
		return err
	}
	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	next, err := store.Next(context.Background(), year)
	if err != nil {
		return err
	}
	fmt.Println(next)
	return nil
}

func runLedgerIssued(cmd *cobra.Command, args []string) error {
	oficio, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("oficio must be a number: %q", args[0])
	}
	year, err := ledgerYear(cmd)
	if err != nil {
		return err
	}
	store, err := openLedger()
	if err != nil {
		return err
	}
	defer store.Close()

	runs, err := store.Issued(context.Background(), year, oficio)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Printf("Oficio %d/%d has not been issued.\n", oficio, year)
		return nil
	}
	for _, id := range runs {
		fmt.Println(id)
	}
	if len(runs) > 1 {
		fmt.Fprintf(os.Stdout, "%s  oficio %d/%d issued by %d runs\n", warnWord, oficio, year, len(runs))
	}
	return nil
}

func init() {
	ledgerListCmd.Flags().Int("limit", 20, "maximum runs to list (0 = all)")
	ledgerListCmd.Flags().Bool("json", false, "output as JSON")
	ledgerNextCmd.Flags().Int("year", 0, "hearing year (default: year of template.hearing_date)")
	ledgerIssuedCmd.Flags().Int("year", 0, "hearing year (default: year of template.hearing_date)")

	ledgerCmd.AddCommand(ledgerListCmd)
	ledgerCmd.AddCommand(ledgerNextCmd)
	ledgerCmd.AddCommand(ledgerIssuedCmd)
	rootCmd.AddCommand(ledgerCmd)
}
