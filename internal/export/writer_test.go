package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/blotterscan/blotterscan/internal/model"
)

// sampleRun builds a run with two successful queries, one no-match, and
// one failure.
func sampleRun(t *testing.T) *model.Run {
	t.Helper()

	doe, err := model.NewSearchQuery("Doe", "John")
	if err != nil {
		t.Fatal(err)
	}
	smith, err := model.NewSearchQuery("Smith", "Jane")
	if err != nil {
		t.Fatal(err)
	}
	jones, err := model.NewSearchQuery("Jones", "")
	if err != nil {
		t.Fatal(err)
	}

	doeRecords := []model.BookingRecord{
		{
			Name:           "Doe, John",
			BookingNumber:  "2025000101",
			BookingDate:    "03/14/2025 09:30",
			ReleaseDate:    "03/20/2025 10:00",
			Status:         model.StatusReleased,
			TimeServedDays: 7,
			Charges:        "TRESPASSING",
			Facility:       "MAIN DETENTION CENTER",
		},
		{
			Name:           "Doe, John",
			BookingNumber:  "2025000102",
			BookingDate:    "05/01/2025 14:00",
			ReleaseDate:    "Still in custody",
			Status:         model.StatusInCustody,
			TimeServedDays: 45,
			Charges:        "BURGLARY | RESISTING ARREST",
			Facility:       "WEST DETENTION CENTER",
			Extra:          map[string]string{"Agency": "PBSO"},
		},
	}

	run := &model.Run{
		ID:        "11111111-2222-3333-4444-555555555555",
		StartedAt: time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC),
		Elapsed:   95 * time.Second,
		Workers:   3,
		Results: []model.SearchResult{
			model.NewSearchResult(doe, doeRecords, 20*time.Second),
			model.NewSearchResult(smith, nil, 15*time.Second),
			model.NewFailedResult(jones, model.FailureTimeout, context.DeadlineExceeded, 60*time.Second),
		},
	}
	return run
}

func TestCSVWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	n, err := NewCSVWriter(&buf).Write(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}
	if n != buf.Len() {
		t.Errorf("reported %d bytes, buffer has %d", n, buf.Len())
	}

	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want header + 2 records", len(rows))
	}

	header := rows[0]
	col := make(map[string]int, len(header))
	for i, name := range header {
		col[name] = i
	}
	for _, want := range []string{model.FieldName, model.FieldBookingNumber, "Agency"} {
		if _, ok := col[want]; !ok {
			t.Errorf("header missing column %q: %v", want, header)
		}
	}

	if got := rows[1][col[model.FieldBookingNumber]]; got != "2025000101" {
		t.Errorf("row 1 booking number = %q, want %q", got, "2025000101")
	}
	// The first record has no Agency value; its cell must be empty.
	if got := rows[1][col["Agency"]]; got != "" {
		t.Errorf("row 1 agency = %q, want empty", got)
	}
	if got := rows[2][col["Agency"]]; got != "PBSO" {
		t.Errorf("row 2 agency = %q, want %q", got, "PBSO")
	}
}

func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := NewJSONWriter(&buf, WithPrettyPrint(), WithVersion("1.2.3"))
	if _, err := writer.Write(sampleRun(t)); err != nil {
		t.Fatal(err)
	}

	var report JSONReport
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatal(err)
	}
	if report.Version != "1.2.3" {
		t.Errorf("Version = %q, want %q", report.Version, "1.2.3")
	}
	if len(report.Run.Results) != 3 {
		t.Errorf("results = %d, want 3", len(report.Run.Results))
	}
	if report.Statistics.Total != 2 {
		t.Errorf("Statistics.Total = %d, want 2", report.Statistics.Total)
	}
	if report.Statistics.InCustody != 1 {
		t.Errorf("Statistics.InCustody = %d, want 1", report.Statistics.InCustody)
	}
}

func TestExcelWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewExcelWriter(&buf).Write(sampleRun(t)); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close() //nolint:errcheck // Read-only reopen in a test

	sheets := f.GetSheetList()
	want := map[string]bool{resultsSheet: true, summarySheet: true}
	for _, s := range sheets {
		delete(want, s)
	}
	if len(want) != 0 {
		t.Fatalf("workbook missing sheets %v, have %v", want, sheets)
	}

	a1, err := f.GetCellValue(resultsSheet, "A1")
	if err != nil {
		t.Fatal(err)
	}
	if a1 == "" {
		t.Error("results sheet has no header in A1")
	}

	summary, err := f.GetCellValue(summarySheet, "A1")
	if err != nil {
		t.Fatal(err)
	}
	if summary != "Run ID" {
		t.Errorf("summary A1 = %q, want %q", summary, "Run ID")
	}
}

func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleRun(t)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"# Booking Search Report",
		"## Summary",
		"## Booking Records",
		"## Failed Queries",
		"pie",
		"2025000102",
		"Jones,",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("markdown output missing %q", want)
		}
	}
}

func TestSimpleWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	writer := NewSimpleWriter(&buf, WithRecordListing(true))
	if _, err := writer.Write(sampleRun(t)); err != nil {
		t.Fatal(err)
	}

	out := buf.String()
	for _, want := range []string{
		"BOOKING SEARCH REPORT",
		"[+] Doe, John",
		"[ ] Smith, Jane",
		"[!] Jones,",
		"Total Records:  2",
		"In Custody:     1",
		"BURGLARY | RESISTING ARREST",
		"FAILED QUERIES",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("summary output missing %q", want)
		}
	}
}

func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var first, second bytes.Buffer
	multi := NewMultiWriter(NewCSVWriter(&first), NewJSONWriter(&second))

	n, err := multi.Write(sampleRun(t))
	if err != nil {
		t.Fatal(err)
	}
	if n != first.Len()+second.Len() {
		t.Errorf("reported %d bytes, buffers hold %d", n, first.Len()+second.Len())
	}
	if first.Len() == 0 || second.Len() == 0 {
		t.Error("one of the writers produced no output")
	}
}
