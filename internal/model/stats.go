package model

import (
	"math"
	"sort"
	"strings"
)

// Statistics summarizes a set of booking records for the run report and
// the Excel summary sheet.
type Statistics struct {
	// Total is the number of records.
	Total int `json:"total"`

	// InCustody is the number of records with StatusInCustody.
	InCustody int `json:"in_custody"`

	// Released is the number of records with StatusReleased.
	Released int `json:"released"`

	// AvgDays is the mean time served across records with a positive
	// day count, rounded to one decimal place.
	AvgDays float64 `json:"avg_days"`

	// MaxDays is the longest time served.
	MaxDays int `json:"max_days"`

	// MinDays is the shortest positive time served.
	MinDays int `json:"min_days"`

	// UniqueNames is the number of distinct searched names among the
	// records.
	UniqueNames int `json:"unique_names"`
}

// Summarize computes statistics over the given records.
func Summarize(records []BookingRecord) Statistics {
	stats := Statistics{Total: len(records)}
	if len(records) == 0 {
		return stats
	}

	var daysServed []int
	for i := range records {
		switch records[i].Status {
		case StatusInCustody:
			stats.InCustody++
		case StatusReleased:
			stats.Released++
		}
		if d := records[i].TimeServedDays; d > 0 {
			daysServed = append(daysServed, d)
		}
	}

	if len(daysServed) > 0 {
		sum := 0
		stats.MaxDays = daysServed[0]
		stats.MinDays = daysServed[0]
		for _, d := range daysServed {
			sum += d
			if d > stats.MaxDays {
				stats.MaxDays = d
			}
			if d < stats.MinDays {
				stats.MinDays = d
			}
		}
		stats.AvgDays = math.Round(float64(sum)/float64(len(daysServed))*10) / 10
	}

	stats.UniqueNames = len(GroupByName(records))
	return stats
}

// GroupByName groups records by their searched name.
func GroupByName(records []BookingRecord) map[string][]BookingRecord {
	groups := make(map[string][]BookingRecord)
	for i := range records {
		name := records[i].Name
		if name == "" {
			name = "Unknown"
		}
		groups[name] = append(groups[name], records[i])
	}
	return groups
}

// Filter describes criteria for narrowing a record set before export.
// Zero values mean "no constraint".
type Filter struct {
	// Text is matched case-insensitively. When Field is empty, every
	// exported field is searched; otherwise only that field.
	Text string

	// Field restricts the text match to one field name.
	Field string

	// Status keeps only records with this custody status label
	// ("In Custody", "Released"). Empty keeps all.
	Status string
}

// Apply returns the records matching the filter, preserving order.
func (f Filter) Apply(records []BookingRecord) []BookingRecord {
	text := strings.ToLower(f.Text)
	var status CustodyStatus
	if f.Status != "" {
		status = ParseCustodyStatus(f.Status)
	}

	var out []BookingRecord
	for i := range records {
		r := &records[i]

		if f.Status != "" && r.Status != status {
			continue
		}

		if text != "" {
			fields := r.Fields()
			if f.Field != "" {
				if !strings.Contains(strings.ToLower(fields[f.Field]), text) {
					continue
				}
			} else if !anyFieldContains(fields, text) {
				continue
			}
		}

		out = append(out, *r)
	}
	return out
}

// anyFieldContains reports whether any exported field contains the needle.
func anyFieldContains(fields map[string]string, needle string) bool {
	for _, v := range fields {
		if strings.Contains(strings.ToLower(v), needle) {
			return true
		}
	}
	return false
}

// SortRecords sorts records by the named export field. Day counts sort
// numerically and date fields sort chronologically; everything else falls
// back to case-insensitive string order. Records missing the field sort
// last in ascending order. The sort is stable.
func SortRecords(records []BookingRecord, field string, ascending bool) {
	less := func(a, b *BookingRecord) bool {
		switch field {
		case FieldTimeServed:
			return a.TimeServedDays < b.TimeServedDays
		case FieldBookingDate, FieldReleaseDate:
			av, aok := ParseDate(a.Fields()[field])
			bv, bok := ParseDate(b.Fields()[field])
			if aok != bok {
				return aok // parseable dates before placeholders
			}
			if aok {
				return av.Before(bv)
			}
		}
		return strings.ToLower(a.Fields()[field]) < strings.ToLower(b.Fields()[field])
	}

	sort.SliceStable(records, func(i, j int) bool {
		if ascending {
			return less(&records[i], &records[j])
		}
		return less(&records[j], &records[i])
	})
}
