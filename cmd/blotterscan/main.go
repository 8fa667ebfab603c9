// Package main provides the entry point for the blotterscan CLI.
//
// Blotterscan searches a county booking blotter for a list of names using
// parallel headless-browser sessions, and exports the booking records it
// finds.
//
// Usage:
//
//	blotterscan search "Doe, John" "Smith, Jane"
//	blotterscan search --list names.txt
//
// See --help for all available options.
package main

// main is the entry point for blotterscan.
func main() {
	Execute()
}
