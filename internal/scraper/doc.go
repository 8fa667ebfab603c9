// Package scraper runs batches of booking searches concurrently.
//
// A Coordinator fans queries out over a bounded Pool of portal sessions,
// each executed by a Worker, and merges the outcomes back into one result
// per query in submission order. Failures stay local to their query;
// cancellation stops new work without interrupting searches in flight.
package scraper
