// Package database stores completed search runs in a local SQLite file.
//
// The history database keeps every run with its booking records, which
// makes two things possible: reviewing past runs without re-scraping, and
// diffing a fresh run against history to surface newly booked people.
package database
