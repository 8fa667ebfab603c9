package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/blotterscan/blotterscan/internal/model"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display after a run finishes.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors by default because:
// 1. It works in all terminals without compatibility issues
// 2. It's easier to pipe to files or other tools
// 3. Color can be added as an option later if needed
type SimpleWriter struct {
	baseWriter

	// verbose enables the per-record listing in addition to the summary.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithRecordListing enables the per-record detail section.
func WithRecordListing(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(run *model.Run) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, run)
	w.writeQueryOutcomes(&sb, run)
	w.writeStatistics(&sb, run)
	if w.verbose {
		w.writeRecords(&sb, run)
	}
	w.writeFailures(&sb, run)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the run banner.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, run *model.Run) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                     BOOKING SEARCH REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Run ID:    %s\n", run.ID))
	sb.WriteString(fmt.Sprintf("Started:   %s\n", run.StartedAt.Format("2006-01-02 15:04:05 MST")))
	sb.WriteString(fmt.Sprintf("Duration:  %s\n", run.Elapsed.Round(time.Second)))
	sb.WriteString(fmt.Sprintf("Workers:   %d\n", run.Workers))
	sb.WriteString("\n")
}

// writeQueryOutcomes writes one line per query with its outcome.
func (w *SimpleWriter) writeQueryOutcomes(sb *strings.Builder, run *model.Run) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("QUERIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, r := range run.Results {
		switch r.Status {
		case model.ResultSuccess:
			sb.WriteString(fmt.Sprintf("  [+] %-30s %d record(s)\n", r.Query.String(), len(r.Records)))
		case model.ResultNoMatch:
			sb.WriteString(fmt.Sprintf("  [ ] %-30s no records\n", r.Query.String()))
		case model.ResultFailed:
			sb.WriteString(fmt.Sprintf("  [!] %-30s FAILED (%s)\n", r.Query.String(), r.Reason))
		}
	}
	sb.WriteString("\n")
}

// writeStatistics writes the record summary section.
func (w *SimpleWriter) writeStatistics(sb *strings.Builder, run *model.Run) {
	stats := model.Summarize(run.Records())

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("SUMMARY\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  Total Records:  %d\n", stats.Total))
	sb.WriteString(fmt.Sprintf("  In Custody:     %d\n", stats.InCustody))
	sb.WriteString(fmt.Sprintf("  Released:       %d\n", stats.Released))
	sb.WriteString(fmt.Sprintf("  Unique Names:   %d\n", stats.UniqueNames))
	if stats.Total > 0 {
		sb.WriteString(fmt.Sprintf("  Days Served:    avg %.1f, max %d, min %d\n",
			stats.AvgDays, stats.MaxDays, stats.MinDays))
	}
	sb.WriteString("\n")
}

// writeRecords writes the per-record detail listing.
func (w *SimpleWriter) writeRecords(sb *strings.Builder, run *model.Run) {
	records := run.Records()
	if len(records) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("RECORDS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for i := range records {
		r := &records[i]
		sb.WriteString(fmt.Sprintf("  * %s (#%s)\n", r.Name, r.BookingNumber))
		sb.WriteString(fmt.Sprintf("    Booked: %s   Released: %s   Status: %s\n",
			r.BookingDate, r.ReleaseDate, r.Status))
		if r.Charges != "" {
			sb.WriteString(fmt.Sprintf("    Charges: %s\n", r.Charges))
		}
	}
	sb.WriteString("\n")
}

// writeFailures writes the failed query section, if any failed.
func (w *SimpleWriter) writeFailures(sb *strings.Builder, run *model.Run) {
	failures := run.Failures()
	if len(failures) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("FAILED QUERIES\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, f := range failures {
		sb.WriteString(fmt.Sprintf("  [!] %s: %s - %s\n", f.Query.String(), f.Reason, f.Error))
	}
	sb.WriteString("\n")
}
