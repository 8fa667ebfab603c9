package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/database"
	"github.com/blotterscan/blotterscan/internal/export"
	"github.com/blotterscan/blotterscan/internal/model"
)

// NewHistoryCmd creates the history command.
// This command inspects past runs stored in the history database.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect past search runs",
		Long: `History lists runs stored in the local history database and can replay
any stored run's report without touching the portal.

Runs are saved automatically after each search unless --no-history was
given.

Examples:
  # List the most recent runs
  blotterscan history

  # List the last three runs only
  blotterscan history --limit 3

  # Print the full report of a stored run
  blotterscan history --show 5f2b9c4e-...

  # Print the latest stored run as JSON
  blotterscan history --latest --json`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 10, "Maximum number of runs to list (0 for all)")
	cmd.Flags().StringP("show", "s", "", "Print the report of the run with this ID")
	cmd.Flags().Bool("latest", false, "Print the report of the most recent run")
	cmd.Flags().BoolP("json", "j", false, "Output run reports in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output run reports in Markdown format")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	db, err := database.Open(config.XDGDataDir(), database.Options{
		CreateIfNotExists: false,
		EnableWAL:         true,
	})
	if err != nil {
		return fmt.Errorf("no run history yet: %w", err)
	}
	defer db.Close() //nolint:errcheck // Read-only usage

	showID, err := cmd.Flags().GetString("show")
	if err != nil {
		return err
	}
	latest, err := cmd.Flags().GetBool("latest")
	if err != nil {
		return err
	}

	if showID != "" || latest {
		return showRun(cmd, db, showID)
	}

	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	return listRuns(cmd, db, limit)
}

// listRuns prints a table of stored runs, newest first.
func listRuns(cmd *cobra.Command, db *database.HistoryDB, limit int) error {
	runs, err := db.ListRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No runs stored yet.")
		return nil
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%-36s  %-19s  %8s  %7s  %8s  %7s\n",
		"RUN ID", "STARTED", "DURATION", "QUERIES", "FAILURES", "RECORDS")
	fmt.Fprintln(out, strings.Repeat("-", 96))
	for _, r := range runs {
		fmt.Fprintf(out, "%-36s  %-19s  %8s  %7d  %8d  %7d\n",
			r.ID,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Elapsed.Round(time.Second),
			r.Queries,
			r.Failures,
			r.Records,
		)
	}
	return nil
}

// showRun prints the full report of one stored run. An empty id selects
// the most recent run.
func showRun(cmd *cobra.Command, db *database.HistoryDB, id string) error {
	var run *model.Run
	var err error
	if id == "" {
		run, err = db.LatestRun(cmd.Context())
	} else {
		run, err = db.GetRun(cmd.Context(), id)
	}
	if err != nil {
		return err
	}
	if run == nil {
		if id == "" {
			return fmt.Errorf("no runs stored yet")
		}
		return fmt.Errorf("run not found: %s", id)
	}

	jsonOut, err := cmd.Flags().GetBool("json")
	if err != nil {
		return err
	}
	markdownOut, err := cmd.Flags().GetBool("markdown")
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	var writer export.Writer
	switch {
	case jsonOut:
		writer = export.NewJSONWriter(out, export.WithPrettyPrint(), export.WithVersion(getVersion()))
	case markdownOut:
		writer = export.NewMarkdownWriter(out)
	default:
		writer = export.NewSimpleWriter(out, export.WithRecordListing(true))
	}

	_, err = writer.Write(run)
	return err
}
