// Package export writes completed search runs in various output formats.
//
// All writers implement the Writer interface over a model.Run: CSV and
// Excel for spreadsheet work, JSON for tool integration, Markdown for
// sharing, and a plain-text summary for the terminal. MultiWriter fans a
// run out to several formats at once.
package export
