package export

import (
	"encoding/json"
	"io"

	"github.com/blotterscan/blotterscan/internal/model"
)

// JSONWriter outputs runs in JSON format.
// This format is designed for tool integration and programmatic processing.
//
// Design decision: We use standard encoding/json rather than a third-party
// JSON library because:
// 1. It's part of the standard library (no extra dependencies)
// 2. It's sufficient for our needs
// 3. It provides consistent behavior across Go versions
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed JSON output.
	// When false, output is compact (no extra whitespace).
	indent bool

	// version is the application version embedded in the report.
	version string
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithPrettyPrint enables pretty-printed JSON with two-space indentation.
func WithPrettyPrint() JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = true
	}
}

// WithVersion embeds the application version in the report metadata.
func WithVersion(version string) JSONWriterOption {
	return func(w *JSONWriter) {
		w.version = version
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// JSONReport wraps a run with summary metadata.
//
// Design decision: We wrap the run rather than adding fields to Run
// because this allows output-specific fields without polluting the core
// data structure.
type JSONReport struct {
	// Version is the blotterscan version that generated this report.
	Version string `json:"version,omitempty"`

	// Run is the full search run.
	Run *model.Run `json:"run"`

	// Statistics summarizes the booking records found.
	Statistics model.Statistics `json:"statistics"`
}

// Write outputs the run wrapped with statistics in JSON format.
func (w *JSONWriter) Write(run *model.Run) (int, error) {
	report := JSONReport{
		Version:    w.version,
		Run:        run,
		Statistics: model.Summarize(run.Records()),
	}

	var data []byte
	var err error
	if w.indent {
		data, err = json.MarshalIndent(report, "", "  ")
	} else {
		data, err = json.Marshal(report)
	}
	if err != nil {
		return 0, err
	}

	// Trailing newline for better terminal output
	data = append(data, '\n')

	return w.output.Write(data)
}
