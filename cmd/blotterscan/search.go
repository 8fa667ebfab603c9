package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/database"
	"github.com/blotterscan/blotterscan/internal/export"
	"github.com/blotterscan/blotterscan/internal/log"
	"github.com/blotterscan/blotterscan/internal/model"
	"github.com/blotterscan/blotterscan/internal/scraper"
	"github.com/blotterscan/blotterscan/internal/session"
)

// Environment variables consulted when credential flags are absent.
const (
	envUsername = "BLOTTERSCAN_USERNAME"
	envPassword = "BLOTTERSCAN_PASSWORD"
)

// NewSearchCmd creates the search command.
func NewSearchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "search [\"Lastname, Firstname\"...]",
		Short: "Search the booking blotter for a list of names",
		Long: `Search logs into the booking portal and runs one search per name, using
several concurrent browser sessions. Names are given as arguments in
"Lastname, Firstname" form, or read from a file with --list (one name
per line, '#' starts a comment).

Credentials come from --username/--password or from the
BLOTTERSCAN_USERNAME and BLOTTERSCAN_PASSWORD environment variables.

Examples:
  # Search two names, results summarized on the terminal
  blotterscan search "Doe, John" "Smith, Jane"

  # Search a watch list and export CSV
  blotterscan search --list names.txt --csv -o results.csv

  # Excel workbook with results and summary sheets
  blotterscan search --list names.txt --excel -o results.xlsx

  # Only people still in custody, longest-held first
  blotterscan search --list names.txt --status "In Custody" \
      --sort "Time Served (Days)" --desc

  # Use a custom portal profile
  blotterscan search --profile county.yaml "Doe, John"`,
		Args: cobra.ArbitraryArgs,
		RunE: runSearchCmd,
	}

	// Credentials
	cmd.Flags().StringP("username", "u", "", "Portal login username")
	cmd.Flags().StringP("password", "p", "", "Portal login password")

	// Input
	cmd.Flags().StringP("list", "l", "", "File with names to search, one per line")

	// Search behavior
	cmd.Flags().IntP("workers", "w", config.DefaultWorkers,
		"Number of concurrent browser sessions")
	cmd.Flags().DurationP("timeout", "t", config.DefaultPageTimeout,
		"Timeout for each portal page wait")
	cmd.Flags().Duration("min-delay", config.DefaultMinDelay,
		"Minimum politeness delay between searches")
	cmd.Flags().Duration("max-delay", config.DefaultMaxDelay,
		"Maximum politeness delay between searches")
	cmd.Flags().Int("back-days", config.DefaultSearchBackDays,
		"How many days back the portal search window reaches")
	cmd.Flags().Bool("headed", false,
		"Run the browser with a visible window (for debugging)")

	// Portal profile
	cmd.Flags().StringP("profile", "c", "",
		"Portal profile file path (default: .blotterscan in current or home directory)")

	// Output format
	cmd.Flags().Bool("csv", false, "Export records as CSV")
	cmd.Flags().Bool("excel", false, "Export records as an Excel workbook (requires -o)")
	cmd.Flags().BoolP("json", "j", false, "Output a JSON report")
	cmd.Flags().BoolP("markdown", "m", false, "Output a Markdown report")
	cmd.Flags().StringP("output", "o", "",
		"Write output to specified file path (creates directories if needed)")

	// Record filtering and ordering
	cmd.Flags().String("filter", "", "Keep only records containing this text")
	cmd.Flags().String("field", "", "Restrict --filter to one field (e.g. \"Charges\")")
	cmd.Flags().String("status", "", "Keep only records with this custody status")
	cmd.Flags().String("sort", "", "Sort records by this field")
	cmd.Flags().Bool("desc", false, "Sort in descending order")

	// History
	cmd.Flags().Bool("no-history", false, "Do not save this run to the history database")

	return cmd
}

// runSearchCmd executes the search command.
func runSearchCmd(cmd *cobra.Command, args []string) error {
	cfg, batch, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	if len(batch) == 0 {
		return errors.New("no names provided (pass names as arguments or use --list)")
	}

	// Credentials and session cookies must never reach the log output.
	logger := log.NewSecureLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, finishing in-flight searches...")
		cancel()
	}()

	return runSearch(ctx, cfg, batch, logger)
}

// buildConfig creates a Config and the query batch from cobra flags.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, model.Batch, error) {
	cfg := config.NewConfig()

	var err error
	if cfg.Username, err = cmd.Flags().GetString("username"); err != nil {
		return nil, nil, err
	}
	if cfg.Password, err = cmd.Flags().GetString("password"); err != nil {
		return nil, nil, err
	}
	if cfg.Username == "" {
		cfg.Username = os.Getenv(envUsername)
	}
	if cfg.Password == "" {
		cfg.Password = os.Getenv(envPassword)
	}

	if cfg.Workers, err = cmd.Flags().GetInt("workers"); err != nil {
		return nil, nil, err
	}
	if cfg.PageTimeout, err = cmd.Flags().GetDuration("timeout"); err != nil {
		return nil, nil, err
	}
	if cfg.MinDelay, err = cmd.Flags().GetDuration("min-delay"); err != nil {
		return nil, nil, err
	}
	if cfg.MaxDelay, err = cmd.Flags().GetDuration("max-delay"); err != nil {
		return nil, nil, err
	}
	if cfg.SearchBackDays, err = cmd.Flags().GetInt("back-days"); err != nil {
		return nil, nil, err
	}

	headed, err := cmd.Flags().GetBool("headed")
	if err != nil {
		return nil, nil, err
	}
	cfg.Headless = !headed

	if cfg.ProfilePath, err = cmd.Flags().GetString("profile"); err != nil {
		return nil, nil, err
	}
	if err := loadProfile(cfg); err != nil {
		return nil, nil, err
	}

	if cfg.CSVExport, err = cmd.Flags().GetBool("csv"); err != nil {
		return nil, nil, err
	}
	if cfg.ExcelExport, err = cmd.Flags().GetBool("excel"); err != nil {
		return nil, nil, err
	}
	if cfg.JSONReport, err = cmd.Flags().GetBool("json"); err != nil {
		return nil, nil, err
	}
	if cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown"); err != nil {
		return nil, nil, err
	}
	if cfg.OutputFile, err = cmd.Flags().GetString("output"); err != nil {
		return nil, nil, err
	}

	if cfg.FilterText, err = cmd.Flags().GetString("filter"); err != nil {
		return nil, nil, err
	}
	if cfg.FilterField, err = cmd.Flags().GetString("field"); err != nil {
		return nil, nil, err
	}
	if cfg.FilterStatus, err = cmd.Flags().GetString("status"); err != nil {
		return nil, nil, err
	}
	if cfg.SortField, err = cmd.Flags().GetString("sort"); err != nil {
		return nil, nil, err
	}
	if cfg.SortDescending, err = cmd.Flags().GetBool("desc"); err != nil {
		return nil, nil, err
	}

	noHistory, err := cmd.Flags().GetBool("no-history")
	if err != nil {
		return nil, nil, err
	}
	cfg.SaveHistory = !noHistory
	cfg.DBDir = config.XDGDataDir()

	cfg.Verbose = getVerboseFlag(cmd)

	batch, err := buildBatch(cmd, args)
	if err != nil {
		return nil, nil, err
	}
	return cfg, batch, nil
}

// loadProfile resolves and loads the portal profile.
// An explicitly specified file must exist; otherwise the built-in defaults
// are used when no .blotterscan file is found.
func loadProfile(cfg *config.Config) error {
	path := config.FindProfileFile(cfg.ProfilePath)
	if path == "" {
		if cfg.ProfilePath != "" {
			return fmt.Errorf("portal profile not found: %s", cfg.ProfilePath)
		}
		return nil // Built-in defaults from NewConfig
	}

	profile, err := config.LoadProfile(path)
	if err != nil {
		return fmt.Errorf("failed to load portal profile %s: %w", path, err)
	}
	cfg.Profile = profile
	return nil
}

// buildBatch assembles the query batch from positional arguments and the
// optional --list file.
func buildBatch(cmd *cobra.Command, args []string) (model.Batch, error) {
	var batch model.Batch

	for _, arg := range args {
		q, err := model.ParseNameLine(arg)
		if err != nil {
			return nil, fmt.Errorf("invalid name %q: %w", arg, err)
		}
		batch = append(batch, q)
	}

	listPath, err := cmd.Flags().GetString("list")
	if err != nil {
		return nil, err
	}
	if listPath != "" {
		f, err := os.Open(listPath) //nolint:gosec // Path comes from the user's own flag
		if err != nil {
			return nil, fmt.Errorf("failed to open name list: %w", err)
		}
		defer f.Close() //nolint:errcheck // Read-only file

		listed, err := model.ParseBatch(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", listPath, err)
		}
		batch = append(batch, listed...)
	}

	return batch, nil
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// runSearch executes the batch search and writes the output.
func runSearch(ctx context.Context, cfg *config.Config, batch model.Batch, logger *slog.Logger) error {
	logger.Info("starting search",
		"names", len(batch),
		"workers", cfg.Workers,
		"portal", cfg.Profile.PortalURL,
	)

	factory, err := session.NewBrowserFactory(
		session.Credentials{Username: cfg.Username, Password: cfg.Password},
		cfg.Profile,
		cfg.Headless,
		session.WithFactoryLogger(logger),
		session.WithPageTimeout(cfg.PageTimeout),
		session.WithSearchBackDays(cfg.SearchBackDays),
	)
	if err != nil {
		return fmt.Errorf("failed to start browser: %w", err)
	}
	defer func() {
		if err := factory.Close(); err != nil {
			logger.Error("failed to stop browser", "error", err)
		}
	}()

	pool := scraper.NewPool(factory, cfg.Workers)
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Error("failed to close session pool", "error", err)
		}
	}()

	worker := scraper.NewWorker(cfg.Profile,
		scraper.WithDelays(cfg.MinDelay, cfg.MaxDelay),
		scraper.WithWorkerLogger(logger),
	)

	progress := make(chan scraper.Progress, len(batch))
	coordinator := scraper.NewCoordinator(pool, worker,
		scraper.WithConcurrency(cfg.Workers),
		scraper.WithProgress(progress),
		scraper.WithCoordinatorLogger(logger),
	)

	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		for p := range progress {
			printProgress(p)
		}
	}()

	run := model.NewRun(cfg.Workers)

	results, err := coordinator.Run(ctx, batch)
	<-progressDone
	if err != nil {
		return err
	}

	run.Elapsed = time.Since(run.StartedAt)
	run.Results = results
	applyRecordOptions(run, cfg)

	if err := writeOutput(cfg, run); err != nil {
		return err
	}

	if cfg.SaveHistory {
		if err := saveRun(ctx, cfg, run, logger); err != nil {
			logger.Error("failed to save run history", "error", err)
		}
	}
	return nil
}

// printProgress writes one terminal line per completed query.
func printProgress(p scraper.Progress) {
	switch p.Status {
	case model.ResultSuccess:
		fmt.Printf("[%d/%d] %-30s %d record(s) (%s)\n",
			p.Completed, p.Total, p.Query.String(), p.Records, p.Elapsed.Round(time.Second))
	case model.ResultNoMatch:
		fmt.Printf("[%d/%d] %-30s no records (%s)\n",
			p.Completed, p.Total, p.Query.String(), p.Elapsed.Round(time.Second))
	case model.ResultFailed:
		fmt.Printf("[%d/%d] %-30s FAILED: %s\n",
			p.Completed, p.Total, p.Query.String(), p.Reason)
	}
}

// applyRecordOptions filters and sorts each result's records in place.
func applyRecordOptions(run *model.Run, cfg *config.Config) {
	filter := model.Filter{
		Text:   cfg.FilterText,
		Field:  cfg.FilterField,
		Status: cfg.FilterStatus,
	}
	filtering := filter.Text != "" || filter.Status != ""

	for i := range run.Results {
		if filtering {
			run.Results[i].Records = filter.Apply(run.Results[i].Records)
		}
		if cfg.SortField != "" {
			model.SortRecords(run.Results[i].Records, cfg.SortField, !cfg.SortDescending)
		}
	}
}

// writeOutput writes the run in the configured format.
func writeOutput(cfg *config.Config, run *model.Run) error {
	out, closer, err := openOutput(cfg.OutputFile)
	if err != nil {
		return err
	}
	defer closer()

	writer := newWriter(cfg, out)
	if _, err := writer.Write(run); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	if cfg.OutputFile != "" {
		fmt.Printf("Wrote %s\n", cfg.OutputFile)
	}
	return nil
}

// newWriter selects the export writer for the configured format.
func newWriter(cfg *config.Config, out io.Writer) export.Writer {
	switch {
	case cfg.CSVExport:
		return export.NewCSVWriter(out)
	case cfg.ExcelExport:
		return export.NewExcelWriter(out)
	case cfg.JSONReport:
		return export.NewJSONWriter(out, export.WithPrettyPrint(), export.WithVersion(getVersion()))
	case cfg.MarkdownReport:
		return export.NewMarkdownWriter(out)
	default:
		return export.NewSimpleWriter(out, export.WithRecordListing(cfg.Verbose))
	}
}

// openOutput opens the output destination: the given file, or stdout when
// no path is set.
func openOutput(path string) (io.Writer, func(), error) {
	if path == "" {
		return os.Stdout, func() {}, nil
	}

	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return nil, nil, fmt.Errorf("failed to create output directory: %w", err)
		}
	}

	f, err := os.Create(path) //nolint:gosec // Path comes from the user's own flag
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create output file: %w", err)
	}
	return f, func() { _ = f.Close() }, nil //nolint:errcheck // Flushed by Write
}

// saveRun stores the run in the history database and reports bookings not
// seen in any earlier run.
func saveRun(ctx context.Context, cfg *config.Config, run *model.Run, logger *slog.Logger) error {
	// An interrupted run still records its partial results. The run context
	// is already cancelled after Ctrl-C, so the save must not inherit it.
	ctx = context.WithoutCancel(ctx)

	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Error("failed to close history database", "error", err)
		}
	}()

	if err := db.SaveRun(ctx, run); err != nil {
		return err
	}
	logger.Info("run saved", "id", run.ID, "dir", cfg.DBDir)

	fresh, err := db.NewBookings(ctx, run)
	if err != nil {
		return err
	}
	if len(fresh) > 0 {
		names := make([]string, 0, len(fresh))
		for _, r := range fresh {
			names = append(names, fmt.Sprintf("%s (#%s)", r.Name, r.BookingNumber))
		}
		fmt.Printf("\nNew bookings since previous runs:\n  %s\n", strings.Join(names, "\n  "))
	}
	return nil
}
