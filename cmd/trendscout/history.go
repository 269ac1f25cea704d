package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/FranksOps/trendscout/internal/report"
	"github.com/FranksOps/trendscout/internal/storage"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "Show archived term records",
	Long: `Show what earlier runs recorded in the configured archive.

Examples:
  trendscout history                       # Latest records across runs
  trendscout history --term "vintage lamp" # One term over time
  trendscout history --run <id> --summary  # Summary of one run
  trendscout history --selected --json     # Selected terms as JSON`,
	Args: cobra.NoArgs,
	RunE: runHistory,
}

func init() {
	historyCmd.Flags().String("run", "", "only records of this run ID")
	historyCmd.Flags().String("term", "", "only records of this term")
	historyCmd.Flags().Bool("selected", false, "only terms that were searched")
	historyCmd.Flags().Duration("since", 0, "only records newer than this (e.g. 168h)")
	historyCmd.Flags().Int("limit", 50, "maximum records to show (0 for all)")
	historyCmd.Flags().Bool("json", false, "output as JSON")
	historyCmd.Flags().String("summary", "", "print a run summary (text, json or html) instead of records; needs --run")
}

func runHistory(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	if cfg.Archive.Backend == "" {
		return &configError{err: errors.New("no archive configured (set archive.backend and archive.dsn)")}
	}

	var filter storage.Filter
	filter.RunID, _ = cmd.Flags().GetString("run")
	filter.Term, _ = cmd.Flags().GetString("term")
	filter.Limit, _ = cmd.Flags().GetInt("limit")
	if sel, _ := cmd.Flags().GetBool("selected"); sel {
		filter.Selected = &sel
	}
	if since, _ := cmd.Flags().GetDuration("since"); since > 0 {
		t := time.Now().Add(-since)
		filter.Since = &t
	}
	summaryFormat, _ := cmd.Flags().GetString("summary")
	if summaryFormat != "" {
		if filter.RunID == "" {
			return &configError{err: errors.New("--summary needs --run")}
		}
		filter.Limit = 0
	}

	archive, err := openArchive(ctx, cfg.Archive)
	if err != nil {
		return &configError{err: err}
	}
	defer archive.Close()

	records, err := archive.Query(ctx, filter)
	if err != nil {
		return fmt.Errorf("query archive: %w", err)
	}

	out := cmd.OutOrStdout()
	if summaryFormat != "" {
		if len(records) == 0 {
			return fmt.Errorf("no records for run %s", filter.RunID)
		}
		return report.Write(out, summaryFormat, report.Summarize(records))
	}

	if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	}

	if len(records) == 0 {
		fmt.Fprintln(out, "No records found.")
		return nil
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TIME\tRUN\tTERM\tLATEST\tDELTA\tSELECTED\tRESULTS\tLIST LENGTH\tERROR")
	for _, r := range records {
		ll := "-"
		if r.ListLength != nil {
			ll = fmt.Sprintf("%g", *r.ListLength)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%+g\t%t\t%d\t%s\t%s\n",
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			shortID(r.RunID),
			r.Term,
			r.Latest,
			r.Delta,
			r.Selected,
			r.ResultCount,
			ll,
			r.Error,
		)
	}
	return tw.Flush()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
