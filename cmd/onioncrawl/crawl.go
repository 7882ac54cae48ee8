package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/k0take/onioncrawl/internal/config"
	"github.com/k0take/onioncrawl/internal/crawler"
	"github.com/k0take/onioncrawl/internal/database"
	"github.com/k0take/onioncrawl/internal/log"
	"github.com/k0take/onioncrawl/internal/report"
	"github.com/k0take/onioncrawl/internal/tor"
)

// NewCrawlCmd creates the crawl command.
func NewCrawlCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl [onion-address]...",
		Short: "Crawl Tor hidden services in parallel",
		Long: `Crawl fetches pages from Tor hidden services (.onion addresses).

Each seed domain is dispatched to a fixed pool of workers. A worker
follows links breadth-first within its domain up to the configured
depth, spacing requests with a randomized delay, and stores every
fetched page in a local SQLite database. Pages already stored (same
canonical URL) are skipped as duplicates.

Examples:
  # Crawl a single onion service
  onioncrawl crawl exampleonion.onion

  # Crawl several services with a pool of 3 workers, depth 2
  onioncrawl crawl --pool 3 --depth 2 site1.onion site2.onion site3.onion

  # Use an external Tor proxy instead of the embedded daemon
  onioncrawl crawl --external-tor 127.0.0.1:9150 exampleonion.onion

  # Resume a previous run, skipping pages already in the database
  onioncrawl crawl --resume exampleonion.onion

  # Write a JSON summary to a file
  onioncrawl crawl --json -o summary.json exampleonion.onion

Configuration file (.onioncrawl) example:
  seeds:
    - site1.onion
    - site2.onion
  sites:
    site1.onion:
      cookie: "session_id=abc123"
      depth: 3`,
		Args: cobra.ArbitraryArgs,
		RunE: runCrawlCmd,
	}

	// Tor connection flags
	cmd.Flags().StringP("external-tor", "e", "",
		"Use external Tor proxy at specified address (e.g., 127.0.0.1:9150)")
	cmd.Flags().DurationP("tor-timeout", "T", config.DefaultTorStartupTimeout,
		"Timeout for embedded Tor startup")

	// Crawl behavior flags
	cmd.Flags().DurationP("timeout", "t", config.DefaultTimeout,
		"Connection timeout for each request")
	cmd.Flags().IntP("depth", "d", config.DefaultMaxDepth,
		"Maximum link-following depth per domain (seeds are depth 0)")
	cmd.Flags().IntP("pool", "p", config.DefaultPoolSize,
		"Number of concurrent domain workers")
	cmd.Flags().Duration("delay", config.DefaultDelay,
		"Minimum spacing between requests within one domain")
	cmd.Flags().Duration("jitter", config.DefaultJitter,
		"Maximum random addition to the delay")
	cmd.Flags().IntP("retries", "r", config.DefaultRetries,
		"Retry budget for transport errors per request")
	cmd.Flags().Int("max-links", config.DefaultMaxLinksPerPage,
		"Maximum links followed from a single page (0 = unlimited)")
	cmd.Flags().Bool("follow-external", false,
		"Follow links to other onion services")
	cmd.Flags().Bool("resume", false,
		"Skip pages already stored by previous runs")

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .onioncrawl in current or home directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON summary (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown summary (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write summary to specified file path (creates directories if needed)")

	return cmd
}

// runCrawlCmd executes the crawl command.
func runCrawlCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildConfig(cmd, args)
	if err != nil {
		return err
	}
	cfg.Verbose = getVerboseFlag(cmd)

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.NewLogger(os.Stderr, cfg.Verbose)
	slog.SetDefault(logger)

	// Context with signal handling for graceful shutdown.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runCrawl(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildConfig creates a Config from cobra command flags, the optional
// configuration file, and positional seed arguments.
func buildConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()

	var err error

	externalTor, err := cmd.Flags().GetString("external-tor")
	if err != nil {
		return nil, err
	}
	if externalTor != "" {
		cfg.UseExternalTor = true
		cfg.ProxyAddress = externalTor
	}

	cfg.TorStartupTimeout, err = cmd.Flags().GetDuration("tor-timeout")
	if err != nil {
		return nil, err
	}

	cfg.Timeout, err = cmd.Flags().GetDuration("timeout")
	if err != nil {
		return nil, err
	}

	cfg.MaxDepth, err = cmd.Flags().GetInt("depth")
	if err != nil {
		return nil, err
	}

	cfg.PoolSize, err = cmd.Flags().GetInt("pool")
	if err != nil {
		return nil, err
	}

	cfg.Delay, err = cmd.Flags().GetDuration("delay")
	if err != nil {
		return nil, err
	}

	cfg.Jitter, err = cmd.Flags().GetDuration("jitter")
	if err != nil {
		return nil, err
	}

	cfg.Retries, err = cmd.Flags().GetInt("retries")
	if err != nil {
		return nil, err
	}

	cfg.MaxLinksPerPage, err = cmd.Flags().GetInt("max-links")
	if err != nil {
		return nil, err
	}

	cfg.FollowExternal, err = cmd.Flags().GetBool("follow-external")
	if err != nil {
		return nil, err
	}

	cfg.Resume, err = cmd.Flags().GetBool("resume")
	if err != nil {
		return nil, err
	}

	configFlag, err := cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file path, error if not
	// found. Otherwise a missing file is fine.
	configPath := config.FindConfigFile(configFlag)
	if configPath != "" {
		cfg.Sites, err = config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
	} else if configFlag != "" {
		return nil, fmt.Errorf("configuration file not found: %s", configFlag)
	} else {
		cfg.Sites = &config.File{
			Sites: make(map[string]config.SiteConfig),
		}
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	// Seeds come from positional arguments plus the config file, each
	// validated and normalized to a full URL. Only v3 onion addresses
	// are accepted.
	rawSeeds := append([]string{}, args...)
	rawSeeds = append(rawSeeds, cfg.Sites.Seeds...)

	seen := make(map[string]bool, len(rawSeeds))
	for _, raw := range rawSeeds {
		seedURL, err := tor.SeedURL(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid onion address %q: %w", raw, err)
		}
		if seen[seedURL] {
			continue
		}
		seen[seedURL] = true
		cfg.Seeds = append(cfg.Seeds, seedURL)
	}

	return cfg, nil
}

// runCrawl executes the crawl run.
func runCrawl(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	logger.Info("starting crawl",
		"seeds", len(cfg.Seeds),
		"poolSize", cfg.PoolSize,
		"maxDepth", cfg.MaxDepth,
		"useExternalTor", cfg.UseExternalTor,
	)

	store, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer store.Close()
	logger.Info("database opened", "path", store.Path())

	client, cleanup, err := connectTor(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	registry := crawler.NewRegistry()
	if cfg.Resume {
		visited, err := store.VisitedURLs(ctx)
		if err != nil {
			return fmt.Errorf("failed to load visited URLs for resume: %w", err)
		}
		registry.Preseed(visited)
		logger.Info("resume enabled", "knownPages", len(visited))
	}

	// Per-site cookies and headers apply through the config file's
	// defaults only: all workers share one session. Per-domain sessions
	// would need one fetcher per task.
	if len(cfg.Sites.Sites) > 0 {
		logger.Warn("per-site configs apply defaults only; site-specific cookies and headers are ignored",
			"siteCount", len(cfg.Sites.Sites))
	}

	session := client.NewSession(tor.SessionOptions{
		Cookie:  cfg.Sites.Defaults.Cookie,
		Headers: cfg.Sites.Defaults.Headers,
	})

	fetcher := crawler.NewHTTPFetcher(session,
		crawler.WithUserAgent(cfg.UserAgent),
		crawler.WithRetries(cfg.Retries),
	)

	coordinator := crawler.NewCoordinator(crawler.CoordinatorConfig{
		PoolSize: cfg.PoolSize,
		Registry: registry,
		Logger:   logger,
		Worker: crawler.WorkerConfig{
			Fetcher:         fetcher,
			Sink:            store,
			Limiter:         crawler.NewLimiter(cfg.Delay, cfg.Jitter),
			MaxDepth:        cfg.MaxDepth,
			MaxLinksPerPage: cfg.MaxLinksPerPage,
			FollowExternal:  cfg.FollowExternal,
		},
	})

	fmt.Printf("Crawling %d domain(s) with %d worker(s)...\n\n", len(cfg.Seeds), cfg.PoolSize)
	start := time.Now()

	stats, runErr := coordinator.Run(ctx, buildTasks(cfg))

	if stats != nil {
		fmt.Printf("Crawl finished in %s\n", time.Since(start).Round(time.Millisecond))
		if err := outputSummary(cfg, stats); err != nil {
			logger.Error("summary output failed", "error", err)
		}
	}

	return runErr
}

// buildTasks turns the validated seeds into coordinator tasks, applying
// per-site depth and cross-domain overrides from the configuration file.
func buildTasks(cfg *config.Config) []crawler.Task {
	tasks := make([]crawler.Task, 0, len(cfg.Seeds))
	for _, seed := range cfg.Seeds {
		domain := crawler.URLDomain(seed)
		task := crawler.Task{Seed: seed, Domain: domain}

		site := cfg.Sites.Site(domain)
		if site.Depth > 0 {
			depth := site.Depth
			task.MaxDepth = &depth
		}
		if site.FollowExternal != nil {
			task.FollowExternal = site.FollowExternal
		}

		tasks = append(tasks, task)
	}
	return tasks
}

// connectTor returns a Tor client, either via an external proxy or by
// starting the embedded daemon. The returned cleanup stops the embedded
// daemon when one was started.
func connectTor(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*tor.Client, func(), error) {
	if cfg.UseExternalTor {
		client, err := tor.NewClient(cfg.ProxyAddress, cfg.Timeout)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
		}

		if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
			return nil, nil, fmt.Errorf("tor proxy check failed: %s (make sure Tor is running at %s)",
				status, cfg.ProxyAddress)
		}

		logger.Info("Tor proxy connection verified", "address", cfg.ProxyAddress)
		return client, func() {}, nil
	}

	fmt.Println("Starting embedded Tor daemon...")
	fmt.Printf("This may take 1-3 minutes while Tor bootstraps and connects to the network.\n\n")

	embedded := tor.NewEmbeddedTor(
		tor.WithStartupTimeout(cfg.TorStartupTimeout),
	)
	if err := embedded.Start(ctx); err != nil {
		return nil, nil, fmt.Errorf("failed to start embedded Tor: %w", err)
	}

	logger.Info("embedded Tor daemon started",
		"socksAddr", embedded.SocksAddr(),
		"controlAddr", embedded.ControlAddr(),
	)
	fmt.Printf("Embedded Tor daemon started successfully!\n")
	fmt.Printf("SOCKS proxy: %s\n\n", embedded.SocksAddr())

	client, err := embedded.NewClient(cfg.Timeout)
	if err != nil {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("failed to create Tor client: %w", err)
	}

	if status := client.CheckConnection(ctx); status != tor.ProxyStatusOK {
		_ = embedded.Stop() //nolint:errcheck // Best effort cleanup
		return nil, nil, fmt.Errorf("embedded Tor proxy check failed: %s", status)
	}

	cleanup := func() {
		logger.Info("stopping embedded Tor daemon...")
		if err := embedded.Stop(); err != nil {
			logger.Error("failed to stop embedded Tor", "error", err)
		}
	}
	return client, cleanup, nil
}

// outputSummary writes the run summary in the requested format.
func outputSummary(cfg *config.Config, stats *crawler.AggregateStats) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		// Summaries list crawled onion URLs, which the owner may not
		// want world-readable.
		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewFullJSONWriter(output, getVersion(), report.WithPrettyPrint())
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewSimpleWriter(output, report.WithVerbose(cfg.Verbose))
	}

	_, err := writer.Write(stats)
	return err
}
