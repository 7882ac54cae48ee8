// Package database provides SQLite-backed storage for crawled pages.
//
// Uniqueness is enforced on the canonical URL, so concurrent workers can
// hand the store the same page and at most one insert wins; the rest are
// reported as duplicates, never as errors.
package database
