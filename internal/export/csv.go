package export

import (
	"encoding/csv"
	"io"

	"github.com/blotterscan/blotterscan/internal/model"
)

// CSVWriter outputs booking records as comma-separated values, one row
// per record, with a header row naming every field that appears in the
// run. Extra fields picked up from the portal sort after the standard
// columns.
//
// Design decision: Columns are the union of fields across all records
// rather than a fixed list, so a portal profile that extracts extra
// labels gets them exported without code changes. Records missing a
// field get an empty cell.
type CSVWriter struct {
	baseWriter
}

// NewCSVWriter creates a CSVWriter that outputs to the given writer.
func NewCSVWriter(output io.Writer) *CSVWriter {
	return &CSVWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs all booking records of the run as CSV.
func (w *CSVWriter) Write(run *model.Run) (int, error) {
	records := run.Records()
	header := model.FieldNames(records)

	counter := &countingWriter{w: w.output}
	cw := csv.NewWriter(counter)

	if err := cw.Write(header); err != nil {
		return counter.n, err
	}
	for i := range records {
		fields := records[i].Fields()
		row := make([]string, len(header))
		for j, name := range header {
			row[j] = fields[name]
		}
		if err := cw.Write(row); err != nil {
			return counter.n, err
		}
	}

	cw.Flush()
	return counter.n, cw.Error()
}

// countingWriter counts bytes passing through to the underlying writer.
type countingWriter struct {
	w io.Writer
	n int
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += n
	return n, err
}
