package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/k0take/onioncrawl/internal/model"
)

// Store persists crawled pages in a single SQLite database.
//
// Design decision: one database file per installation rather than one per
// domain. Cross-domain queries (duplicates, totals) stay cheap and backup
// is a single file copy.
type Store struct {
	// db is the underlying SQL database connection.
	db *sql.DB

	// dbPath is the path to the SQLite database file.
	dbPath string
}

// Options configures Store behavior.
type Options struct {
	// CreateIfNotExists creates the database file if it doesn't exist.
	CreateIfNotExists bool

	// EnableWAL enables Write-Ahead Logging. Recommended: workers write
	// concurrently while the stats command may read.
	EnableWAL bool
}

// DefaultOptions returns the default store options.
func DefaultOptions() Options {
	return Options{
		CreateIfNotExists: true,
		EnableWAL:         true,
	}
}

// SaveResult reports the outcome of SavePage.
type SaveResult int

const (
	// Saved means the page was newly inserted.
	Saved SaveResult = iota

	// Duplicate means a page with the same canonical URL already exists.
	// This is a normal outcome, not an error.
	Duplicate
)

// String returns a human-readable description of the save result.
func (r SaveResult) String() string {
	switch r {
	case Saved:
		return "saved"
	case Duplicate:
		return "duplicate"
	default:
		return "unknown"
	}
}

// Open opens or creates a Store in the given directory.
func Open(dbDir string, opts Options) (*Store, error) {
	dbPath := filepath.Join(dbDir, "onioncrawl.db")

	if !opts.CreateIfNotExists {
		if _, err := os.Stat(dbPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("database not found at %s", dbPath)
		} else if err != nil {
			return nil, fmt.Errorf("failed to check database path: %w", err)
		}
	} else {
		if err := os.MkdirAll(dbDir, 0750); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	// modernc.org/sqlite connection string: mode=rw refuses to create a
	// new file, mode=rwc allows it.
	dsn := dbPath + "?mode=rw"
	if opts.CreateIfNotExists {
		dsn = dbPath + "?mode=rwc"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite supports only one writer; a single connection avoids
	// SQLITE_BUSY churn under concurrent workers.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	s := &Store{
		db:     db,
		dbPath: dbPath,
	}

	if opts.EnableWAL {
		if _, err := db.ExecContext(context.Background(), "PRAGMA journal_mode=WAL"); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
		}
	}

	if err := s.createTables(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the path of the underlying database file.
func (s *Store) Path() string {
	return s.dbPath
}

// createTables creates the schema if it doesn't exist.
func (s *Store) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS pages (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		url TEXT NOT NULL,
		canonical_url TEXT NOT NULL UNIQUE,
		parent_url TEXT,
		domain TEXT NOT NULL,
		depth INTEGER NOT NULL,
		status_code INTEGER,
		content_type TEXT,
		title TEXT,
		meta_description TEXT,
		headings TEXT,
		headers TEXT,
		body BLOB,
		body_size INTEGER NOT NULL DEFAULT 0,
		hash TEXT,
		link_count INTEGER NOT NULL DEFAULT 0,
		worker TEXT,
		fetched_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_pages_domain ON pages(domain);
	CREATE INDEX IF NOT EXISTS idx_pages_hash ON pages(hash);
	CREATE INDEX IF NOT EXISTS idx_pages_fetched_at ON pages(fetched_at);
	`

	_, err := s.db.ExecContext(context.Background(), schema)
	return err
}

// SavePage inserts a page record. Returns Duplicate (and no error) when a
// record with the same canonical URL already exists; the existing record
// is left untouched, making re-runs idempotent.
func (s *Store) SavePage(ctx context.Context, record *model.PageRecord) (SaveResult, error) {
	headingsJSON, err := json.Marshal(record.Headings)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize headings: %w", err)
	}
	headersJSON, err := json.Marshal(record.Headers)
	if err != nil {
		return 0, fmt.Errorf("failed to serialize headers: %w", err)
	}

	query := `
	INSERT INTO pages (
		url, canonical_url, parent_url, domain, depth, status_code,
		content_type, title, meta_description, headings, headers,
		body, body_size, hash, link_count, worker, fetched_at
	)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(canonical_url) DO NOTHING
	`

	result, err := s.db.ExecContext(ctx, query,
		record.URL,
		record.CanonicalURL,
		record.ParentURL,
		record.Domain,
		record.Depth,
		record.StatusCode,
		record.ContentType,
		record.Title,
		record.MetaDescription,
		string(headingsJSON),
		string(headersJSON),
		record.Body,
		len(record.Body),
		record.Hash,
		record.LinkCount,
		record.Worker,
		record.FetchedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to insert page: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to read insert result: %w", err)
	}
	if rows == 0 {
		return Duplicate, nil
	}
	return Saved, nil
}

// VisitedURLs returns all stored canonical URLs. Used to pre-seed the
// visited registry for resumable runs.
func (s *Store) VisitedURLs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT canonical_url FROM pages")
	if err != nil {
		return nil, fmt.Errorf("failed to query visited urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("failed to scan url: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, rows.Err()
}

// CountPages returns the total number of stored pages.
func (s *Store) CountPages(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM pages").Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages: %w", err)
	}
	return count, nil
}

// CountByURLPrefix returns how many stored pages have a canonical URL
// with the given prefix.
func (s *Store) CountByURLPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM pages WHERE canonical_url LIKE ? ESCAPE '\\'",
		escapeLike(prefix)+"%",
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count pages by prefix: %w", err)
	}
	return count, nil
}

// GroupCount is one row of a grouped page count.
type GroupCount struct {
	// Key is the group value (domain name or worker name).
	Key string

	// Count is the number of pages in the group.
	Count int64
}

// CountByDomain returns page counts grouped by domain, largest first.
func (s *Store) CountByDomain(ctx context.Context) ([]GroupCount, error) {
	return s.groupCount(ctx, "domain")
}

// CountByWorker returns page counts grouped by the worker that fetched
// them, largest first.
func (s *Store) CountByWorker(ctx context.Context) ([]GroupCount, error) {
	return s.groupCount(ctx, "worker")
}

// groupCount runs a GROUP BY count over a fixed column name.
func (s *Store) groupCount(ctx context.Context, column string) ([]GroupCount, error) {
	// column is always a compile-time constant ("domain" or "worker"),
	// never user input.
	query := fmt.Sprintf(
		"SELECT %s, COUNT(*) FROM pages GROUP BY %s ORDER BY COUNT(*) DESC", column, column)

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to group pages by %s: %w", column, err)
	}
	defer rows.Close()

	var results []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Key, &gc.Count); err != nil {
			return nil, fmt.Errorf("failed to scan group count: %w", err)
		}
		results = append(results, gc)
	}

	return results, rows.Err()
}

// SizeStats summarizes stored body sizes.
type SizeStats struct {
	// Pages is the number of stored pages.
	Pages int64

	// MinBytes is the smallest stored body size.
	MinBytes int64

	// MaxBytes is the largest stored body size.
	MaxBytes int64

	// AvgBytes is the mean stored body size.
	AvgBytes float64
}

// BodySizeStats returns min/max/average body sizes across all pages.
// Returns zero stats when the store is empty.
func (s *Store) BodySizeStats(ctx context.Context) (SizeStats, error) {
	var stats SizeStats
	var minSize, maxSize, avgSize sql.NullFloat64

	err := s.db.QueryRowContext(ctx,
		"SELECT COUNT(*), MIN(body_size), MAX(body_size), AVG(body_size) FROM pages",
	).Scan(&stats.Pages, &minSize, &maxSize, &avgSize)
	if err != nil {
		return SizeStats{}, fmt.Errorf("failed to compute size stats: %w", err)
	}

	if minSize.Valid {
		stats.MinBytes = int64(minSize.Float64)
	}
	if maxSize.Valid {
		stats.MaxBytes = int64(maxSize.Float64)
	}
	if avgSize.Valid {
		stats.AvgBytes = avgSize.Float64
	}

	return stats, nil
}

// escapeLike escapes the LIKE metacharacters in a literal prefix.
func escapeLike(s string) string {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '%', '_', '\\':
			out = append(out, '\\')
		}
		out = append(out, s[i])
	}
	return string(out)
}
