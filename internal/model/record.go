package model

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
)

// CustodyStatus indicates whether the subject of a booking record is still
// held at the time of the search.
//
// Design decision: We use iota-based constants rather than string constants
// for efficiency in comparisons and sorting. The String() method provides
// the portal-style labels used in exports.
type CustodyStatus int

const (
	// StatusUnknown means neither the release date nor the facility text
	// gave a usable signal.
	StatusUnknown CustodyStatus = iota

	// StatusInCustody means the record indicates the subject is still held.
	StatusInCustody

	// StatusReleased means the record carries a release date in the past.
	StatusReleased
)

// String returns the export label for the status.
func (s CustodyStatus) String() string {
	switch s {
	case StatusInCustody:
		return "In Custody"
	case StatusReleased:
		return "Released"
	default:
		return "Unknown"
	}
}

// ParseCustodyStatus maps an export label back to a CustodyStatus.
// Unrecognized labels map to StatusUnknown.
func ParseCustodyStatus(s string) CustodyStatus {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "in custody":
		return StatusInCustody
	case "released":
		return StatusReleased
	default:
		return StatusUnknown
	}
}

// Canonical export field names. The portal's record schema is externally
// defined; these are the fields blotterscan always materializes. Extra
// profile-configured fields live in BookingRecord.Extra under their own
// names.
const (
	FieldName          = "Name"
	FieldBookingNumber = "Booking Number"
	FieldBookingDate   = "Booking Date"
	FieldReleaseDate   = "Release Date"
	FieldStatus        = "Status"
	FieldTimeServed    = "Time Served (Days)"
	FieldCharges       = "Charges"
	FieldFacility      = "Cell Location"
)

// BookingRecord is one booking entry parsed from the portal's results page.
// A record is produced by a single worker and owned by the coordinator once
// reported; it is never mutated concurrently.
type BookingRecord struct {
	// Name is the searched name in "Last, First" form.
	Name string `json:"name"`

	// BookingNumber is the portal's booking identifier.
	BookingNumber string `json:"booking_number"`

	// BookingDate is the booking date/time as shown by the portal.
	BookingDate string `json:"booking_date,omitempty"`

	// ReleaseDate is the release date as shown by the portal, or a
	// placeholder ("Still in custody", "N/A") when the subject is held.
	ReleaseDate string `json:"release_date,omitempty"`

	// Status is the derived custody status.
	Status CustodyStatus `json:"status"`

	// TimeServedDays is the inclusive day count between booking and
	// release, or between booking and now for subjects still held.
	TimeServedDays int `json:"time_served_days"`

	// Charges is the charge list, individual charges joined with " | ".
	Charges string `json:"charges,omitempty"`

	// Facility is the cell location / holding facility text.
	Facility string `json:"facility,omitempty"`

	// Extra holds profile-configured fields beyond the canonical set.
	Extra map[string]string `json:"extra,omitempty"`

	// RawText is the full entry text as scraped. It is stored for
	// debugging and history diffs but excluded from spreadsheet exports.
	RawText string `json:"-"`
}

// custodyIndicators are substrings of the facility text that imply the
// subject is still held. Matching is case-insensitive.
var custodyIndicators = []string{
	"jail", "prison", "facility", "block", "pod", "cell",
	"detention", "surety bond", "bonds", "holding",
}

// trailingTimeRe strips a trailing "Time: ..." fragment the portal sometimes
// appends to release dates.
var trailingTimeRe = regexp.MustCompile(`(?i)\s*time:.*$`)

// DetermineStatus derives the custody status from the release-date text and
// the facility text. A parseable release date in the past wins; otherwise
// custody indicators in the facility text mark the subject as held.
func DetermineStatus(releaseDate, facility string, now time.Time) CustodyStatus {
	release := strings.ToLower(strings.TrimSpace(releaseDate))

	switch release {
	case "", "n/a", "unknown", "still in custody":
		// No usable release date; fall through to the facility check.
	default:
		clean := trailingTimeRe.ReplaceAllString(release, "")
		if t, ok := ParseDate(clean); ok && !t.After(now) {
			return StatusReleased
		}
	}

	lowered := strings.ToLower(facility)
	for _, indicator := range custodyIndicators {
		if strings.Contains(lowered, indicator) {
			return StatusInCustody
		}
	}

	return StatusUnknown
}

// TimeServedDays computes the inclusive number of days between booking and
// release. When the release date is missing the span runs to now. A missing
// or unparseable booking date yields zero.
func TimeServedDays(bookingDate, releaseDate string, now time.Time) int {
	booked, ok := ParseDate(bookingDate)
	if !ok {
		return 0
	}

	end := now
	if released, ok := ParseDate(releaseDate); ok {
		end = released
	}

	days := int(end.Sub(booked).Hours()/24) + 1
	if days < 0 {
		return 0
	}
	return days
}

// Repair fills the minimum required fields of a record scraped from a
// malformed entry. The name is attached when absent, a placeholder booking
// number is synthesized from the entry index, and a missing status is
// inferred from the release date.
func (r *BookingRecord) Repair(name string, index int, now time.Time) {
	if r.Name == "" {
		r.Name = name
	}
	if r.BookingNumber == "" {
		r.BookingNumber = fmt.Sprintf("Unknown-%d", index)
	}
	if r.Status == StatusUnknown {
		r.Status = DetermineStatus(r.ReleaseDate, r.Facility, now)
	}
}

// Fields returns the record as an export-ready field map. RawText is
// intentionally excluded; it is too large for spreadsheet cells.
func (r *BookingRecord) Fields() map[string]string {
	fields := map[string]string{
		FieldName:          r.Name,
		FieldBookingNumber: r.BookingNumber,
		FieldBookingDate:   r.BookingDate,
		FieldReleaseDate:   r.ReleaseDate,
		FieldStatus:        r.Status.String(),
		FieldTimeServed:    strconv.Itoa(r.TimeServedDays),
		FieldCharges:       r.Charges,
		FieldFacility:      r.Facility,
	}
	for k, v := range r.Extra {
		fields[k] = v
	}
	return fields
}

// FieldNames returns the sorted union of field names across records.
// Exports use this to produce a stable column order even when records
// carry different profile-configured extras.
func FieldNames(records []BookingRecord) []string {
	seen := make(map[string]bool)
	for i := range records {
		for name := range records[i].Fields() {
			seen[name] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
