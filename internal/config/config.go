package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// These values are chosen to be polite toward the county portal while still
// finishing typical watch lists in a few minutes.
const (
	// DefaultWorkers is the number of concurrent browser sessions.
	// Each worker owns a full headless-browser page, so memory grows
	// linearly with this value. Three sessions keeps the portal load low
	// and stays under typical desktop memory budgets.
	DefaultWorkers = 3

	// DefaultMinDelay and DefaultMaxDelay bound the randomized pause each
	// worker takes between portal interactions. Randomizing the delay
	// avoids a fixed request cadence that rate limiters key on.
	DefaultMinDelay = 2 * time.Second
	DefaultMaxDelay = 5 * time.Second

	// DefaultPageTimeout is the bounded wait for any single portal page to
	// become ready. The records portal renders results server-side and can
	// be slow under load; exceeding this bound fails the one query with a
	// timeout rather than blocking the run.
	DefaultPageTimeout = 60 * time.Second

	// DefaultSearchBackDays is how far back the portal search window
	// reaches. The portal caps result sets, so an unbounded window returns
	// truncated data; two years matches the portal's retention.
	DefaultSearchBackDays = 730

	// AppName is the application name used for XDG directory paths.
	AppName = "blotterscan"
)

// Config holds all configuration options for blotterscan.
// This struct is populated from CLI flags and passed through the application
// via dependency injection rather than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// (e.g., SearchConfig, ExportConfig) for simplicity. The number of options
// is manageable, and nesting would add complexity without significant benefit.
type Config struct {
	// Username and Password authenticate against the portal's login form.
	// They are read-only shared state: every session logs in with the same
	// credentials. They must never be written to logs or exports.
	Username string
	Password string

	// Workers is the maximum number of concurrently active searches.
	// Each active search holds its own browser session; live sessions
	// never exceed this limit.
	Workers int

	// MinDelay and MaxDelay bound the randomized politeness delay between
	// a worker's portal interactions.
	MinDelay time.Duration
	MaxDelay time.Duration

	// PageTimeout is the bounded wait applied to each page-readiness wait.
	// A query that exceeds it is reported as a timeout failure.
	PageTimeout time.Duration

	// SearchBackDays sets the portal's start-date field to now minus this
	// many days.
	SearchBackDays int

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only warnings and errors are logged.
	Verbose bool

	// Headless controls whether the browser runs without a visible window.
	// Disabling it is useful when debugging selector changes on the portal.
	Headless bool

	// ProfilePath is the path to the portal profile file. If empty, the
	// tool searches for .blotterscan in the current directory and then in
	// the user's home directory. If no file is found, built-in defaults
	// for the Palm Beach County booking blotter are used.
	ProfilePath string

	// Profile describes the portal: URL, form selectors, and the record
	// field labels to extract. Populated by LoadProfile.
	Profile *Profile

	// CSVExport, ExcelExport, JSONReport, and MarkdownReport select the
	// output format. At most one may be set; with none set, a plain text
	// summary is printed.
	CSVExport      bool
	ExcelExport    bool
	JSONReport     bool
	MarkdownReport bool

	// OutputFile is the export destination path. When empty, text formats
	// go to stdout; the Excel format requires a file path.
	OutputFile string

	// FilterText, FilterField, and FilterStatus narrow the exported record
	// set. See model.Filter.
	FilterText   string
	FilterField  string
	FilterStatus string

	// SortField and SortDescending order the exported records.
	SortField      string
	SortDescending bool

	// DBDir is the directory for the run-history SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// SaveHistory indicates whether completed runs are saved for later
	// comparison via the history command.
	SaveHistory bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most use cases.
// Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		Workers:        DefaultWorkers,
		MinDelay:       DefaultMinDelay,
		MaxDelay:       DefaultMaxDelay,
		PageTimeout:    DefaultPageTimeout,
		SearchBackDays: DefaultSearchBackDays,
		Headless:       true,
		Profile:        DefaultProfile(),
	}
}

// XDGDataDir returns the XDG data directory for blotterscan.
// On Linux: ~/.local/share/blotterscan
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for blotterscan.
// On Linux: ~/.config/blotterscan
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate once after CLI parsing, before any session is
// created, so a bad flag combination fails fast instead of surfacing halfway
// through a run.
func (c *Config) Validate() error {
	if c.Username == "" || c.Password == "" {
		return ErrMissingCredentials
	}

	if c.Workers <= 0 {
		return ErrInvalidWorkers
	}

	if c.PageTimeout <= 0 {
		return ErrInvalidTimeout
	}

	if c.MinDelay < 0 || c.MaxDelay < c.MinDelay {
		return ErrInvalidDelayRange
	}

	if c.SearchBackDays < 0 {
		return ErrInvalidSearchWindow
	}

	if countTrue(c.CSVExport, c.ExcelExport, c.JSONReport, c.MarkdownReport) > 1 {
		return ErrConflictingFormats
	}

	if c.ExcelExport && c.OutputFile == "" {
		return ErrExcelNeedsFile
	}

	if c.Profile == nil {
		return ErrNoProfile
	}

	return c.Profile.Validate()
}

// countTrue returns how many of the given flags are set.
func countTrue(flags ...bool) int {
	n := 0
	for _, f := range flags {
		if f {
			n++
		}
	}
	return n
}
