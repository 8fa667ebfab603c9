package model

import (
	"testing"
)

// sampleRecords returns a small record set covering both statuses.
func sampleRecords() []BookingRecord {
	return []BookingRecord{
		{Name: "Doe, John", BookingNumber: "100", Status: StatusInCustody, TimeServedDays: 10, Facility: "Main Jail"},
		{Name: "Doe, John", BookingNumber: "101", Status: StatusReleased, TimeServedDays: 4, Charges: "TRESPASSING"},
		{Name: "Smith, Jane", BookingNumber: "200", Status: StatusReleased, TimeServedDays: 1},
	}
}

// TestSummarize tests statistics computation.
func TestSummarize(t *testing.T) {
	t.Parallel()

	t.Run("computes counts and day statistics", func(t *testing.T) {
		t.Parallel()

		stats := Summarize(sampleRecords())

		if stats.Total != 3 {
			t.Errorf("got total %d, expected 3", stats.Total)
		}
		if stats.InCustody != 1 {
			t.Errorf("got in-custody %d, expected 1", stats.InCustody)
		}
		if stats.Released != 2 {
			t.Errorf("got released %d, expected 2", stats.Released)
		}
		if stats.AvgDays != 5.0 {
			t.Errorf("got avg days %v, expected 5.0", stats.AvgDays)
		}
		if stats.MaxDays != 10 || stats.MinDays != 1 {
			t.Errorf("got max/min %d/%d, expected 10/1", stats.MaxDays, stats.MinDays)
		}
		if stats.UniqueNames != 2 {
			t.Errorf("got unique names %d, expected 2", stats.UniqueNames)
		}
	})

	t.Run("empty record set yields zero statistics", func(t *testing.T) {
		t.Parallel()

		stats := Summarize(nil)
		if stats != (Statistics{}) {
			t.Errorf("expected zero statistics, got %+v", stats)
		}
	})
}

// TestFilterApply tests record filtering.
func TestFilterApply(t *testing.T) {
	t.Parallel()

	t.Run("filters by status label", func(t *testing.T) {
		t.Parallel()

		got := Filter{Status: "Released"}.Apply(sampleRecords())
		if len(got) != 2 {
			t.Fatalf("got %d records, expected 2", len(got))
		}
	})

	t.Run("filters by text across all fields", func(t *testing.T) {
		t.Parallel()

		got := Filter{Text: "trespass"}.Apply(sampleRecords())
		if len(got) != 1 || got[0].BookingNumber != "101" {
			t.Fatalf("expected only record 101, got %+v", got)
		}
	})

	t.Run("filters by text in a single field", func(t *testing.T) {
		t.Parallel()

		// "Jail" appears only in the facility field of record 100.
		got := Filter{Text: "jail", Field: FieldCharges}.Apply(sampleRecords())
		if len(got) != 0 {
			t.Fatalf("expected no matches in charges field, got %d", len(got))
		}
	})

	t.Run("zero filter keeps everything", func(t *testing.T) {
		t.Parallel()

		got := Filter{}.Apply(sampleRecords())
		if len(got) != 3 {
			t.Fatalf("got %d records, expected 3", len(got))
		}
	})
}

// TestSortRecords tests typed sorting by export field.
func TestSortRecords(t *testing.T) {
	t.Parallel()

	t.Run("sorts day counts numerically", func(t *testing.T) {
		t.Parallel()

		records := sampleRecords()
		SortRecords(records, FieldTimeServed, true)

		if records[0].TimeServedDays != 1 || records[2].TimeServedDays != 10 {
			t.Errorf("ascending day sort wrong: %d, %d, %d",
				records[0].TimeServedDays, records[1].TimeServedDays, records[2].TimeServedDays)
		}
	})

	t.Run("sorts dates chronologically with placeholders last", func(t *testing.T) {
		t.Parallel()

		records := []BookingRecord{
			{BookingNumber: "a", ReleaseDate: "N/A"},
			{BookingNumber: "b", ReleaseDate: "01/05/2025"},
			{BookingNumber: "c", ReleaseDate: "01/01/2025"},
		}
		SortRecords(records, FieldReleaseDate, true)

		if records[0].BookingNumber != "c" || records[1].BookingNumber != "b" || records[2].BookingNumber != "a" {
			t.Errorf("date sort wrong: %s, %s, %s",
				records[0].BookingNumber, records[1].BookingNumber, records[2].BookingNumber)
		}
	})

	t.Run("descending reverses order", func(t *testing.T) {
		t.Parallel()

		records := sampleRecords()
		SortRecords(records, FieldTimeServed, false)
		if records[0].TimeServedDays != 10 {
			t.Errorf("descending sort wrong, first is %d", records[0].TimeServedDays)
		}
	})
}
