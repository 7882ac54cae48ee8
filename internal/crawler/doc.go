// Package crawler implements the domain-parallel crawl core.
//
// # Architecture
//
//   - Coordinator: owns the seed backlog and a fixed-size worker pool;
//     dispatches domains FIFO to the first free worker and merges
//     statistics when the run completes.
//   - Worker: performs one domain's breadth-first, depth-bounded
//     traversal. Fetches within a domain are strictly sequential; the
//     pool size is the only source of parallelism.
//   - Registry: the process-wide set of claimed canonical URLs. A URL is
//     fetched at most once per run regardless of how many workers
//     discover it.
//   - Limiter: per-worker politeness spacing with jitter.
//   - Fetcher: a single HTTP fetch through the Tor proxy with a bounded
//     timeout and a centralized retry policy.
//   - Parser: HTML link and metadata extraction.
//
// # Concurrency
//
// The registry is the only mutable state shared between workers, and
// every access goes through its atomic claim operation. Worker statistics
// are owned exclusively by their worker until completion; the coordinator
// reads them only after the worker's goroutine has finished, so the
// counters themselves need no locks.
package crawler
