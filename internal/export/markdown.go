package export

import (
	"io"
	"strconv"
	"time"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"

	"github.com/blotterscan/blotterscan/internal/model"
)

// MarkdownWriter outputs runs in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent markdown
// generation which provides:
// 1. Type-safe markdown generation
// 2. Support for tables, lists, and code blocks
// 3. GitHub-flavored markdown alerts
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run in Markdown format.
func (w *MarkdownWriter) Write(run *model.Run) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, run)
	w.writeStatistics(md, run)
	w.writeRecords(md, run)
	w.writeFailures(md, run)

	return len(md.String()), md.Build()
}

// writeHeader writes the run metadata table.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, run *model.Run) {
	md.H1("Booking Search Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Run ID", "`" + run.ID + "`"},
			{"Started", run.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Duration", run.Elapsed.Round(time.Second).String()},
			{"Workers", strconv.Itoa(run.Workers)},
			{"Queries", strconv.Itoa(len(run.Results))},
			{"Failed Queries", strconv.Itoa(len(run.Failures()))},
		},
	})
	md.PlainText("")
}

// writeStatistics writes the record summary with a custody pie chart.
func (w *MarkdownWriter) writeStatistics(md *markdown.Markdown, run *model.Run) {
	records := run.Records()
	stats := model.Summarize(records)

	md.H2("Summary")
	md.PlainText("")
	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Total Records", strconv.Itoa(stats.Total)},
			{"In Custody", strconv.Itoa(stats.InCustody)},
			{"Released", strconv.Itoa(stats.Released)},
			{"Unique Names", strconv.Itoa(stats.UniqueNames)},
			{"Average Days Served", strconv.FormatFloat(stats.AvgDays, 'f', 1, 64)},
			{"Longest Days Served", strconv.Itoa(stats.MaxDays)},
			{"Shortest Days Served", strconv.Itoa(stats.MinDays)},
		},
	})
	md.PlainText("")

	if stats.Total > 0 {
		w.writePieChart(md, stats)
	}
}

// writePieChart writes a mermaid pie chart of custody status distribution.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats model.Statistics) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Custody Status Distribution"),
		piechart.WithShowData(true),
	)

	if stats.InCustody > 0 {
		chart.LabelAndIntValue("In Custody", uint64(stats.InCustody))
	}
	if stats.Released > 0 {
		chart.LabelAndIntValue("Released", uint64(stats.Released))
	}
	if unknown := stats.Total - stats.InCustody - stats.Released; unknown > 0 {
		chart.LabelAndIntValue("Unknown", uint64(unknown))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeRecords writes the booking record table.
func (w *MarkdownWriter) writeRecords(md *markdown.Markdown, run *model.Run) {
	records := run.Records()

	md.H2("Booking Records")
	md.PlainText("")
	if len(records) == 0 {
		md.PlainText("No booking records found.")
		md.PlainText("")
		return
	}

	header := model.FieldNames(records)
	rows := make([][]string, 0, len(records))
	for i := range records {
		fields := records[i].Fields()
		row := make([]string, len(header))
		for j, name := range header {
			row[j] = fields[name]
		}
		rows = append(rows, row)
	}

	md.Table(markdown.TableSet{Header: header, Rows: rows})
	md.PlainText("")
}

// writeFailures lists queries that did not complete.
func (w *MarkdownWriter) writeFailures(md *markdown.Markdown, run *model.Run) {
	failures := run.Failures()
	if len(failures) == 0 {
		return
	}

	md.H2("Failed Queries")
	md.PlainText("")

	rows := make([][]string, 0, len(failures))
	for _, f := range failures {
		rows = append(rows, []string{f.Query.String(), f.Reason.String(), f.Error})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Query", "Reason", "Error"},
		Rows:   rows,
	})
	md.PlainText("")
}
