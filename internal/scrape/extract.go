package scrape

import (
	"regexp"
	"strings"
	"time"

	"github.com/blotterscan/blotterscan/internal/config"
	"github.com/blotterscan/blotterscan/internal/model"
)

// Extractor turns the flattened text of one booking entry into a
// BookingRecord, driven by the profile's field labels.
//
// The portal renders records as label/value text ("Booking Number: 2025123",
// "Charges:" followed by one line per charge), not as structured markup, so
// extraction is text-based: find the label's line, then read the value
// according to the field's shape.
type Extractor struct {
	labels config.FieldLabels

	// extra maps additional labels to export field names.
	extra map[string]string
}

// NewExtractor creates an Extractor for the given portal profile.
func NewExtractor(profile *config.Profile) *Extractor {
	return &Extractor{
		labels: profile.Labels,
		extra:  profile.ExtraLabels,
	}
}

var (
	// bookingNumberRe matches the digits following the booking number
	// label anywhere in the entry. The portal sometimes folds the number
	// onto the label's own line, sometimes onto the next.
	digitsRe = regexp.MustCompile(`\d+`)

	// dateRe matches the portal's MM/DD/YYYY dates, with optional time.
	dateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{4}(?:\s+\d{2}:\d{2})?`)

	// shortDateRe matches two-digit-year dates used for release dates.
	shortDateRe = regexp.MustCompile(`\d{2}/\d{2}/\d{2,4}(?:\s+\d{2}:\d{2})?`)

	// facilityRe pulls the facility name from the "Facility: ..." line
	// that follows the cell location label.
	facilityRe = regexp.MustCompile(`Facility:\s*(.+)`)
)

// Record extracts a booking record from one entry's flattened text.
// name is the searched "Last, First" name, index the entry's position on the
// page (used for placeholder booking numbers), and now the reference time
// for status and day-count derivation.
func (e *Extractor) Record(name, entryText string, index int, now time.Time) model.BookingRecord {
	record := model.BookingRecord{
		Name:    name,
		RawText: entryText,
	}

	if v := e.labeledPattern(entryText, e.labels.BookingNumber, digitsRe); v != "" {
		record.BookingNumber = v
	}
	if v := e.labeledPattern(entryText, e.labels.BookingDate, dateRe); v != "" {
		record.BookingDate = v
	}
	if v := e.labeledPattern(entryText, e.labels.ReleaseDate, shortDateRe); v != "" {
		record.ReleaseDate = v
	}
	record.Charges = e.multilineValue(entryText, e.labels.Charges, " | ")
	record.Facility = e.facilityValue(entryText)

	for label, field := range e.extra {
		if v := nextLineValue(entryText, label); v != "" {
			if record.Extra == nil {
				record.Extra = make(map[string]string)
			}
			record.Extra[field] = v
		}
	}

	record.Status = model.DetermineStatus(record.ReleaseDate, record.Facility, now)
	record.TimeServedDays = model.TimeServedDays(record.BookingDate, record.ReleaseDate, now)

	if record.ReleaseDate == "" {
		if record.Status == model.StatusInCustody {
			record.ReleaseDate = "Still in custody"
		} else {
			record.ReleaseDate = "N/A"
		}
	}

	record.Repair(name, index, now)
	return record
}

// labeledPattern finds the label's line and returns the first pattern match
// on that line or the next. Returns "" when the label is absent, disabled,
// or the pattern does not match near it.
func (e *Extractor) labeledPattern(text, label string, pattern *regexp.Regexp) string {
	if label == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, label) {
			continue
		}
		// Value on the label's own line wins.
		tail := line[strings.Index(line, label)+len(label):]
		if m := pattern.FindString(tail); m != "" {
			return m
		}
		if i+1 < len(lines) {
			if m := pattern.FindString(lines[i+1]); m != "" {
				return m
			}
		}
		return ""
	}
	return ""
}

// multilineValue collects the lines following the label until the next
// labeled line (one containing a colon), joined with sep. Charges span
// several lines, one charge each.
func (e *Extractor) multilineValue(text, label, sep string) string {
	if label == "" {
		return ""
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		if !strings.Contains(line, label) {
			continue
		}
		var values []string
		for j := i + 1; j < len(lines); j++ {
			if strings.Contains(lines[j], ":") {
				break
			}
			if v := strings.TrimSpace(lines[j]); v != "" {
				values = append(values, v)
			}
		}
		return strings.Join(values, sep)
	}
	return ""
}

// facilityValue extracts the facility from the cell-location section.
// The portal writes "NO FILE" for records without one.
func (e *Extractor) facilityValue(text string) string {
	if e.labels.Facility == "" || !strings.Contains(text, e.labels.Facility) {
		return ""
	}
	m := facilityRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := strings.TrimSpace(m[1])
	if v == "" || v == "NO FILE" {
		return ""
	}
	return v
}

// nextLineValue returns the value following the label: the remainder of the
// label's own line when non-empty, otherwise the first non-empty line after
// it.
func nextLineValue(text, label string) string {
	lines := strings.Split(text, "\n")
	for i, line := range lines {
		idx := strings.Index(line, label)
		if idx < 0 {
			continue
		}
		if v := strings.TrimSpace(line[idx+len(label):]); v != "" {
			return v
		}
		for j := i + 1; j < len(lines); j++ {
			if v := strings.TrimSpace(lines[j]); v != "" {
				return v
			}
		}
		return ""
	}
	return ""
}
