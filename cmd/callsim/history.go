package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"callcomposite/internal/history"
)

func newHistoryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "history",
		Short: "List recorded calls grouped by start time",
		Args:  cobra.NoArgs,
		RunE:  runHistoryE,
	}
}

func runHistoryE(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	repo, err := history.Open(cfg.History.Path, cfg.History.Retention)
	if err != nil {
		return err
	}
	defer func() { _ = repo.Close() }()

	records, err := repo.All(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if jsonOutput, _ := cmd.Flags().GetBool("json"); jsonOutput {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "no calls recorded")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "STARTED\tCALL IDS")
	for _, r := range records {
		fmt.Fprintf(w, "%s\t%s\n", r.CallStartedOn.Local().Format(time.RFC3339), strings.Join(r.CallIDs, ", "))
	}
	return w.Flush()
}
