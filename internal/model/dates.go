package model

import (
	"strings"
	"time"
)

// Date layouts used by the booking portal. The portal is inconsistent:
// booking timestamps use four-digit years with a time component, while
// release dates often use two-digit years with no time.
const (
	// DateFormat is the portal's canonical date layout (MM/DD/YYYY).
	DateFormat = "01/02/2006"

	// DateTimeFormat is the portal's date-with-time layout.
	DateTimeFormat = "01/02/2006 15:04"
)

// dateLayouts lists the accepted layouts in the order they are tried.
// More specific layouts come first so "01/02/2006 15:04" is not truncated
// by a date-only parse.
var dateLayouts = []string{
	DateTimeFormat,
	DateFormat,
	"01/02/06 15:04",
	"01/02/06",
}

// ParseDate parses a portal date string, trying each known layout.
// The boolean result is false when the string matches no layout or is one
// of the portal's placeholder values ("N/A", "Unknown").
func ParseDate(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, false
	}

	switch strings.ToLower(s) {
	case "n/a", "unknown", "still in custody":
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}
