// Package model defines the core data structures used throughout blotterscan.
//
// This package contains the following main types:
//   - SearchQuery: A single "Last, First" name to search for
//   - BookingRecord: One booking entry parsed from the portal's results page
//   - SearchResult: The per-query outcome (records, no-match, or failure)
//   - Run: One complete batch run with its ordered results
//
// Design decision: We separate models into their own package to avoid circular
// dependencies. Multiple packages (scrape, scraper, export, database) need to
// use these types, so centralizing them prevents import cycles.
//
// The models are designed to be serializable to JSON for report output and
// database storage.
package model
