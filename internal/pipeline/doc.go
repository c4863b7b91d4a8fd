// Package pipeline drives a batch: glob expansion, a fixed pool of worker
// goroutines fed in chunks, completion-order outcome collection with a live
// progress line, and the run summary.
//
// Files:
//   - discover.go: Discover(pattern) expands the input glob.
//   - pool.go: Map fans paths out to workers and streams results back.
//   - runner.go: Run renders every candidate and logs the summary.
//   - stats.go: RunStats counters.
//   - analyze.go: Analyze prints a header table with outlier flags.
package pipeline
