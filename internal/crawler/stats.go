package crawler

import "time"

// WorkerStats accumulates counters for one domain's traversal.
// Owned exclusively by one worker while it runs; the coordinator reads
// the struct only after the worker has finished, so no locking is
// needed on the counters themselves.
type WorkerStats struct {
	// Domain is the crawled domain.
	Domain string `json:"domain"`

	// Seed is the seed URL the traversal started from.
	Seed string `json:"seed"`

	// Worker is the pool worker that ran the traversal.
	Worker string `json:"worker"`

	// PagesSaved counts pages newly persisted.
	PagesSaved int `json:"pages_saved"`

	// Duplicates counts registry claims lost to another worker plus
	// sink uniqueness conflicts. Duplicates are normal outcomes, not
	// errors.
	Duplicates int `json:"duplicates"`

	// Errors counts pages that failed: transport errors after the
	// retry budget, HTTP error statuses, parse failures, sink failures.
	Errors int `json:"errors"`

	// Retries counts individual fetch retries across the traversal.
	Retries int `json:"retries"`

	// Failed is set when the traversal itself aborted (worker-fatal
	// fault), as opposed to individual page errors.
	Failed bool `json:"failed,omitempty"`

	// FailureReason describes the worker-fatal fault, if any.
	FailureReason string `json:"failure_reason,omitempty"`

	// Elapsed is the wall-clock duration of the traversal.
	Elapsed time.Duration `json:"elapsed"`
}

// AggregateStats is the merged result of a whole run.
type AggregateStats struct {
	// Domains is the number of seed domains dispatched.
	Domains int `json:"domains"`

	// DomainsFailed counts domains whose traversal aborted on a
	// worker-fatal fault.
	DomainsFailed int `json:"domains_failed"`

	// PagesSaved, Duplicates, Errors and Retries are sums over all
	// workers.
	PagesSaved int `json:"pages_saved"`
	Duplicates int `json:"duplicates"`
	Errors     int `json:"errors"`
	Retries    int `json:"retries"`

	// PerDomain holds each domain's final snapshot, in completion
	// order.
	PerDomain []*WorkerStats `json:"per_domain"`

	// Duration is the wall-clock duration of the whole run.
	Duration time.Duration `json:"duration"`
}

// merge folds one worker's final snapshot into the aggregate.
// Called by the coordinator after the worker has signalled completion,
// exactly once per dispatched domain.
func (a *AggregateStats) merge(ws *WorkerStats) {
	a.Domains++
	a.PagesSaved += ws.PagesSaved
	a.Duplicates += ws.Duplicates
	a.Errors += ws.Errors
	a.Retries += ws.Retries
	if ws.Failed {
		a.DomainsFailed++
	}
	a.PerDomain = append(a.PerDomain, ws)
}
