package crawler

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/k0take/onioncrawl/internal/database"
	"github.com/k0take/onioncrawl/internal/model"
)

// Sink persists page records. The concrete implementation is the SQLite
// store; tests substitute in-memory fakes.
type Sink interface {
	// SavePage persists a record, reporting whether it was newly saved
	// or rejected by the uniqueness constraint.
	SavePage(ctx context.Context, record *model.PageRecord) (database.SaveResult, error)
}

// Task is one unit of coordinator work: a seed URL to traverse.
type Task struct {
	// Seed is the full URL the traversal starts from.
	Seed string

	// Domain is the seed's host. Filled from Seed when empty.
	Domain string

	// MaxDepth overrides the worker's depth limit for this domain.
	// Nil means use the worker default.
	MaxDepth *int

	// FollowExternal overrides the worker's cross-domain setting for
	// this domain. Nil means use the worker default.
	FollowExternal *bool
}

// taskLimits are the effective per-traversal knobs after applying task
// overrides to the worker defaults.
type taskLimits struct {
	maxDepth       int
	followExternal bool
}

// Worker crawls one domain at a time with a breadth-first traversal
// bounded by depth. A worker is reused across tasks but never runs two
// tasks concurrently; its limiter state carries over between domains so
// request spacing holds across task boundaries too.
type Worker struct {
	// name identifies the worker in logs and page records.
	name string

	fetcher  Fetcher
	sink     Sink
	registry *Registry
	limiter  *Limiter
	logger   *slog.Logger

	// maxDepth is the deepest level fetched. Seeds are depth 0.
	maxDepth int

	// maxLinksPerPage caps how many links from one page are enqueued.
	// Zero means unlimited.
	maxLinksPerPage int

	// followExternal enqueues links to other onion services when set.
	// Clearnet links are never followed.
	followExternal bool
}

// WorkerConfig carries the knobs shared by every worker in a pool.
type WorkerConfig struct {
	Fetcher         Fetcher
	Sink            Sink
	Registry        *Registry
	Limiter         *Limiter
	Logger          *slog.Logger
	MaxDepth        int
	MaxLinksPerPage int
	FollowExternal  bool
}

// NewWorker creates a named worker.
func NewWorker(name string, cfg WorkerConfig) *Worker {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		name:            name,
		fetcher:         cfg.Fetcher,
		sink:            cfg.Sink,
		registry:        cfg.Registry,
		limiter:         cfg.Limiter,
		logger:          logger.With(slog.String("worker", name)),
		maxDepth:        cfg.MaxDepth,
		maxLinksPerPage: cfg.MaxLinksPerPage,
		followExternal:  cfg.FollowExternal,
	}
}

// Name returns the worker's identity string.
func (w *Worker) Name() string {
	return w.name
}

// Crawl traverses one domain breadth-first from its seed and returns
// the final counters. Individual page failures are counted and the
// traversal continues; only cancellation or an empty seed aborts it.
func (w *Worker) Crawl(ctx context.Context, task Task) *WorkerStats {
	stats := &WorkerStats{
		Domain: task.Domain,
		Seed:   task.Seed,
		Worker: w.name,
	}
	start := time.Now()
	defer func() {
		stats.Elapsed = time.Since(start)
	}()

	if task.Seed == "" {
		stats.Failed = true
		stats.FailureReason = "empty seed URL"
		return stats
	}

	limits := taskLimits{
		maxDepth:       w.maxDepth,
		followExternal: w.followExternal,
	}
	if task.MaxDepth != nil {
		limits.maxDepth = *task.MaxDepth
	}
	if task.FollowExternal != nil {
		limits.followExternal = *task.FollowExternal
	}

	w.logger.Info("starting domain traversal",
		slog.String("domain", task.Domain),
		slog.Int("max_depth", limits.maxDepth))

	var pending frontier
	pending.push(task.Seed, "", 0)

	for {
		entry, ok := pending.pop()
		if !ok {
			break
		}

		if err := ctx.Err(); err != nil {
			stats.Failed = true
			stats.FailureReason = err.Error()
			break
		}

		w.visit(ctx, entry, limits, &pending, stats)
	}

	w.logger.Info("domain traversal finished",
		slog.String("domain", task.Domain),
		slog.Int("pages_saved", stats.PagesSaved),
		slog.Int("duplicates", stats.Duplicates),
		slog.Int("errors", stats.Errors),
		slog.Duration("elapsed", stats.Elapsed))

	return stats
}

// visit processes one frontier entry: claim, rate-limit, fetch, persist,
// expand.
func (w *Worker) visit(ctx context.Context, entry frontierEntry, limits taskLimits, pending *frontier, stats *WorkerStats) {
	// The claim is the authoritative dedup point. Losing it means some
	// worker (possibly this one, via an earlier page) already owns the
	// URL.
	if !w.registry.Claim(entry.url) {
		stats.Duplicates++
		return
	}

	if err := w.limiter.Wait(ctx); err != nil {
		stats.Errors++
		return
	}

	result, retries, err := w.fetcher.Fetch(ctx, entry.url)
	stats.Retries += retries
	if err != nil {
		stats.Errors++
		w.logger.Warn("fetch failed",
			slog.String("url", entry.url),
			slog.Int("retries", retries),
			slog.String("error", err.Error()))
		return
	}

	if result.StatusCode >= 400 {
		stats.Errors++
		w.logger.Warn("page returned error status",
			slog.String("url", entry.url),
			slog.Int("status", result.StatusCode))
		return
	}

	record := &model.PageRecord{
		URL:          entry.url,
		CanonicalURL: CanonicalURL(entry.url),
		ParentURL:    entry.parent,
		Domain:       stats.Domain,
		Depth:        entry.depth,
		StatusCode:   result.StatusCode,
		ContentType:  contentTypeValue(result.ContentType),
		Headers:      result.Headers,
		Body:         result.Body,
		FetchedAt:    time.Now().UTC(),
		Worker:       w.name,
	}
	record.ComputeHash()
	record.TruncateBody()

	var parsed *ParseResult
	if record.IsHTML() {
		parsed, err = w.parsePage(entry.url, result.Body)
		if err != nil {
			// A saved record with no extracted links is still useful,
			// so a parse failure costs the expansion, not the page.
			stats.Errors++
			w.logger.Warn("parse failed",
				slog.String("url", entry.url),
				slog.String("error", err.Error()))
		}
	}

	if parsed != nil {
		record.Title = parsed.Title
		record.MetaDescription = parsed.MetaDescription
		record.Headings = parsed.Headings
		record.LinkCount = len(parsed.Links)
	}

	switch saved, err := w.sink.SavePage(ctx, record); {
	case err != nil:
		stats.Errors++
		w.logger.Error("persist failed",
			slog.String("url", entry.url),
			slog.String("error", err.Error()))
		return
	case saved == database.Duplicate:
		stats.Duplicates++
	default:
		stats.PagesSaved++
		w.logger.Debug("page saved",
			slog.String("url", entry.url),
			slog.Int("depth", entry.depth),
			slog.Int("status", record.StatusCode))
	}

	if parsed != nil && entry.depth < limits.maxDepth {
		w.expand(entry, parsed, limits, pending)
	}
}

// expand enqueues the page's followable links at depth+1, up to the
// per-page cap.
func (w *Worker) expand(entry frontierEntry, parsed *ParseResult, limits taskLimits, pending *frontier) {
	links := make([]string, 0, len(parsed.InternalLinks)+len(parsed.ExternalLinks))
	links = append(links, parsed.InternalLinks...)
	if limits.followExternal {
		links = append(links, parsed.ExternalLinks...)
	}

	enqueued := 0
	for _, link := range links {
		if w.maxLinksPerPage > 0 && enqueued >= w.maxLinksPerPage {
			break
		}
		if !isFetchableURL(link) {
			continue
		}
		// Seen is advisory; Claim at visit time is the real gate. The
		// pre-check just keeps the frontier from filling with entries
		// that would immediately lose their claim.
		if w.registry.Seen(link) {
			continue
		}

		pending.push(link, entry.url, entry.depth+1)
		enqueued++
	}
}

// parsePage parses an HTML body against its page URL.
func (w *Worker) parsePage(pageURL string, body []byte) (*ParseResult, error) {
	parser, err := NewParser(pageURL)
	if err != nil {
		return nil, fmt.Errorf("parser for %s: %w", pageURL, err)
	}

	parsed, err := parser.Parse(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}
	return parsed, nil
}

// contentTypeValue strips parameters like charset from a Content-Type
// header value.
func contentTypeValue(contentType string) string {
	value, _, _ := strings.Cut(contentType, ";")
	return strings.TrimSpace(value)
}
