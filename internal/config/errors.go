package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrMissingCredentials is returned when the portal username or
	// password is not set via flags or environment variables.
	ErrMissingCredentials = errors.New("missing credentials: set --username/--password or BLOTTERSCAN_USERNAME/BLOTTERSCAN_PASSWORD")

	// ErrInvalidWorkers is returned when the worker count is not positive.
	ErrInvalidWorkers = errors.New("invalid worker count: must be at least 1")

	// ErrInvalidTimeout is returned when the page timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid page timeout: must be positive")

	// ErrInvalidDelayRange is returned when the politeness delay range is
	// negative or inverted.
	ErrInvalidDelayRange = errors.New("invalid delay range: min must be non-negative and not exceed max")

	// ErrInvalidSearchWindow is returned when the search window is negative.
	ErrInvalidSearchWindow = errors.New("invalid search window: days must be non-negative")

	// ErrConflictingFormats is returned when more than one output format
	// flag is set. Only one of --csv, --excel, --json, --markdown may be
	// used at a time.
	ErrConflictingFormats = errors.New("conflicting output formats: choose at most one of --csv, --excel, --json, --markdown")

	// ErrExcelNeedsFile is returned when Excel output is requested without
	// an output path. The XLSX container is binary and cannot go to a
	// terminal.
	ErrExcelNeedsFile = errors.New("excel export requires --output <file.xlsx>")

	// ErrNoProfile is returned when no portal profile is configured.
	ErrNoProfile = errors.New("no portal profile configured")

	// ErrProfileIncomplete is returned when a portal profile is missing a
	// required selector or URL.
	ErrProfileIncomplete = errors.New("portal profile incomplete")
)
