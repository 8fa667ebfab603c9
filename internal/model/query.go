package model

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// ErrEmptyLastName is returned when a query is created without a last name.
// The portal requires a last name; the first name field may be left blank.
var ErrEmptyLastName = errors.New("search query requires a last name")

// SearchQuery identifies one person to search for on the booking portal.
// Queries are immutable once submitted to a batch. Duplicate names are
// allowed and are processed independently.
type SearchQuery struct {
	// LastName is the surname entered into the portal's search form.
	// It must be non-empty.
	LastName string `json:"last_name"`

	// FirstName is the given name. It may be empty; the portal treats an
	// empty first name as a wildcard.
	FirstName string `json:"first_name"`
}

// NewSearchQuery creates a SearchQuery with canonicalized name casing.
// It returns ErrEmptyLastName if lastName is blank.
func NewSearchQuery(lastName, firstName string) (SearchQuery, error) {
	q := SearchQuery{
		LastName:  canonicalName(lastName),
		FirstName: canonicalName(firstName),
	}
	if q.LastName == "" {
		return SearchQuery{}, ErrEmptyLastName
	}
	return q, nil
}

// String returns the query in "Last, First" form, matching the input format
// and the Name field attached to booking records.
func (q SearchQuery) String() string {
	return q.LastName + ", " + q.FirstName
}

// Batch is the ordered list of queries submitted for one run.
// The order of a batch determines the order of the run's results.
type Batch []SearchQuery

// nameCaser canonicalizes person names to title case ("doe" -> "Doe",
// "VAN DYKE" -> "Van Dyke"). The portal is case-insensitive, but exports
// and run history read better with consistent casing.
var nameCaser = cases.Title(language.English)

// canonicalName trims surrounding whitespace and applies title casing.
func canonicalName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	return nameCaser.String(strings.ToLower(s))
}

// ParseBatch reads queries from r, one per line, in "Lastname, Firstname"
// form. A line without a comma is treated as a bare last name. Blank lines
// and lines starting with '#' are skipped.
//
// Design decision: We fail on the first malformed line rather than skipping
// it, because a silently dropped name would violate the guarantee that every
// submitted name produces exactly one result.
func ParseBatch(r io.Reader) (Batch, error) {
	var batch Batch

	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		q, err := ParseNameLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		batch = append(batch, q)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read name list: %w", err)
	}

	return batch, nil
}

// ParseNameLine parses a single "Lastname, Firstname" line into a query.
func ParseNameLine(line string) (SearchQuery, error) {
	last, first, found := strings.Cut(line, ",")
	if !found {
		// Bare last name; the first name is left empty (wildcard).
		return NewSearchQuery(line, "")
	}
	return NewSearchQuery(last, first)
}
