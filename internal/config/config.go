package config

import (
	"path/filepath"
	"time"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The network-related defaults are tuned for Tor's characteristics:
// multi-hop circuits make everything slower and more failure-prone than
// clearnet, so timeouts and retry budgets are generous.
const (
	// DefaultProxyAddress is the standard Tor SOCKS5 proxy address.
	// Port 9050 is the default for the Tor daemon's SOCKS port.
	// We use 127.0.0.1 instead of localhost to avoid DNS resolution
	// overhead and IPv6 resolution quirks on some systems.
	DefaultProxyAddress = "127.0.0.1:9050"

	// DefaultTimeout bounds each individual fetch. 60 seconds matches
	// typical hidden-service latency; shorter values produce many false
	// failures on slow circuits.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxDepth limits how far each worker follows links from its
	// seed. Depth 0 fetches only the seed page.
	DefaultMaxDepth = 2

	// DefaultPoolSize is the number of concurrently crawled domains.
	// This caps simultaneous connections through the proxy; higher values
	// can overwhelm the local Tor daemon.
	DefaultPoolSize = 5

	// DefaultDelay is the minimum spacing between requests within one
	// domain. A politeness setting: each worker talks to a single origin
	// server, and hidden services are frequently resource-starved.
	DefaultDelay = 3 * time.Second

	// DefaultJitter is the maximum random addition to the delay.
	// Randomized spacing avoids a mechanical request rhythm.
	DefaultJitter = 2 * time.Second

	// DefaultRetries is the per-request retry budget for transport errors.
	DefaultRetries = 2

	// DefaultMaxLinksPerPage caps how many discovered links a single page
	// may contribute to the frontier. 0 means unlimited.
	DefaultMaxLinksPerPage = 5

	// DefaultUserAgent is a common Tor Browser user agent. Blending in
	// with ordinary browser traffic is preferable to advertising a bot.
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; rv:109.0) Gecko/20100101 Firefox/115.0"

	// DefaultTorStartupTimeout is the maximum time to wait for the
	// embedded Tor daemon to bootstrap.
	DefaultTorStartupTimeout = 3 * time.Minute

	// AppName is the application name used for XDG directory paths.
	AppName = "onioncrawl"
)

// Config holds all options consumed by the crawl coordinator.
// It is populated from CLI flags plus the optional .onioncrawl file and
// passed through the application by dependency injection, never as
// global state.
type Config struct {
	// Seeds is the list of seed domain URLs to crawl. Each seed is
	// dispatched to exactly one worker.
	Seeds []string

	// ProxyAddress is the Tor SOCKS5 proxy in "host:port" format.
	// All traffic, including DNS resolution, goes through this proxy.
	ProxyAddress string

	// UseExternalTor disables the embedded Tor daemon and uses an
	// already-running proxy at ProxyAddress instead.
	UseExternalTor bool

	// TorStartupTimeout bounds embedded Tor bootstrap. Only used when
	// UseExternalTor is false.
	TorStartupTimeout time.Duration

	// Timeout is the hard bound on each individual fetch.
	Timeout time.Duration

	// MaxDepth is the maximum traversal depth per domain.
	MaxDepth int

	// PoolSize is the number of concurrent domain workers.
	PoolSize int

	// Delay is the minimum spacing between requests within one domain.
	Delay time.Duration

	// Jitter is the maximum random addition to Delay.
	Jitter time.Duration

	// Retries is the retry budget for transport errors on one request.
	Retries int

	// MaxLinksPerPage caps frontier growth per fetched page. 0 = unlimited.
	MaxLinksPerPage int

	// FollowExternal enables following links that leave the assigned
	// domain. Off by default: a worker's depth and rate budget is scoped
	// to one domain.
	FollowExternal bool

	// Resume pre-seeds the visited registry from the store's existing
	// canonical URLs so restarted runs do not re-fetch known pages.
	Resume bool

	// UserAgent is the User-Agent header sent with every request.
	UserAgent string

	// DBDir is the directory holding the SQLite database.
	// Defaults to the XDG data directory.
	DBDir string

	// Verbose enables debug-level logging.
	Verbose bool

	// JSONReport emits the run summary as JSON instead of plain text.
	// Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport emits the run summary as Markdown.
	// Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile writes the run summary to this path instead of stdout.
	ReportFile string

	// Sites holds per-site overrides loaded from the config file.
	Sites *File
}

// NewConfig returns a Config populated with defaults.
// Many defaults are non-zero, so relying on zero values would be wrong;
// the constructor also documents what the defaults are.
func NewConfig() *Config {
	return &Config{
		ProxyAddress:      DefaultProxyAddress,
		TorStartupTimeout: DefaultTorStartupTimeout,
		Timeout:           DefaultTimeout,
		MaxDepth:          DefaultMaxDepth,
		PoolSize:          DefaultPoolSize,
		Delay:             DefaultDelay,
		Jitter:            DefaultJitter,
		Retries:           DefaultRetries,
		MaxLinksPerPage:   DefaultMaxLinksPerPage,
		UserAgent:         DefaultUserAgent,
		DBDir:             XDGDataDir(),
	}
}

// XDGDataDir returns the XDG data directory for onioncrawl.
// On Linux: ~/.local/share/onioncrawl
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// Validate checks the configuration and returns the first problem found.
// It runs once after flag parsing, before any dispatch, so invalid
// configuration is a coordinator-fatal error rather than a mid-run
// surprise.
func (c *Config) Validate() error {
	if len(c.Seeds) == 0 {
		return ErrNoSeeds
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	if c.PoolSize <= 0 {
		return ErrInvalidPoolSize
	}
	if c.MaxDepth < 0 {
		return ErrInvalidMaxDepth
	}
	if c.Delay < 0 || c.Jitter < 0 {
		return ErrInvalidDelay
	}
	if c.Retries < 0 {
		return ErrInvalidRetries
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return nil
}
