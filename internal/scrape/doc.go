// Package scrape parses the portal's results pages into booking records.
//
// Parsing happens in two stages:
//  1. EntryTexts walks the page HTML (golang.org/x/net/html) and flattens
//     each booking entry into browser-style text, one line per block.
//  2. Extractor reads the labeled fields out of that text, driven by the
//     portal profile's field labels.
//
// The two-stage split exists because the portal only structures the entry
// boundaries in markup; inside an entry everything is loose label/value
// text, so the extractor works on lines rather than nodes.
package scrape
