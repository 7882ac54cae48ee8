package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNewConfigDefaults(t *testing.T) {
	t.Parallel()

	cfg := NewConfig()

	if cfg.ProxyAddress != DefaultProxyAddress {
		t.Errorf("expected proxy %q, got %q", DefaultProxyAddress, cfg.ProxyAddress)
	}
	if cfg.Timeout != DefaultTimeout {
		t.Errorf("expected timeout %v, got %v", DefaultTimeout, cfg.Timeout)
	}
	if cfg.PoolSize != DefaultPoolSize {
		t.Errorf("expected pool size %d, got %d", DefaultPoolSize, cfg.PoolSize)
	}
	if cfg.MaxDepth != DefaultMaxDepth {
		t.Errorf("expected max depth %d, got %d", DefaultMaxDepth, cfg.MaxDepth)
	}
	if cfg.FollowExternal {
		t.Error("cross-domain following should default to off")
	}
	if cfg.DBDir == "" {
		t.Error("expected a default database directory")
	}
}

func TestConfigValidate(t *testing.T) {
	t.Parallel()

	valid := func() *Config {
		cfg := NewConfig()
		cfg.Seeds = []string{"http://example.onion/"}
		return cfg
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr error
	}{
		{
			name:    "valid config",
			mutate:  func(*Config) {},
			wantErr: nil,
		},
		{
			name:    "no seeds",
			mutate:  func(c *Config) { c.Seeds = nil },
			wantErr: ErrNoSeeds,
		},
		{
			name:    "zero timeout",
			mutate:  func(c *Config) { c.Timeout = 0 },
			wantErr: ErrInvalidTimeout,
		},
		{
			name:    "zero pool size",
			mutate:  func(c *Config) { c.PoolSize = 0 },
			wantErr: ErrInvalidPoolSize,
		},
		{
			name:    "negative depth",
			mutate:  func(c *Config) { c.MaxDepth = -1 },
			wantErr: ErrInvalidMaxDepth,
		},
		{
			name:    "negative delay",
			mutate:  func(c *Config) { c.Delay = -time.Second },
			wantErr: ErrInvalidDelay,
		},
		{
			name:    "negative jitter",
			mutate:  func(c *Config) { c.Jitter = -time.Second },
			wantErr: ErrInvalidDelay,
		},
		{
			name:    "negative retries",
			mutate:  func(c *Config) { c.Retries = -1 },
			wantErr: ErrInvalidRetries,
		},
		{
			name:    "conflicting report formats",
			mutate:  func(c *Config) { c.JSONReport = true; c.MarkdownReport = true },
			wantErr: ErrConflictingReportFormats,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := valid()
			tt.mutate(cfg)

			err := cfg.Validate()
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestLoadConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("loads seeds and site overrides", func(t *testing.T) {
		t.Parallel()

		content := `
seeds:
  - http://aaa.onion/
  - http://bbb.onion/
defaults:
  depth: 1
sites:
  aaa.onion:
    cookie: "session=abc"
    depth: 3
    headers:
      Authorization: "Bearer tok"
`
		path := filepath.Join(t.TempDir(), ".onioncrawl")
		if err := os.WriteFile(path, []byte(content), 0600); err != nil {
			t.Fatal(err)
		}

		f, err := LoadConfigFile(path)
		if err != nil {
			t.Fatalf("LoadConfigFile failed: %v", err)
		}

		if len(f.Seeds) != 2 {
			t.Errorf("expected 2 seeds, got %d", len(f.Seeds))
		}

		site := f.Site("aaa.onion")
		if site.Cookie != "session=abc" {
			t.Errorf("expected cookie override, got %q", site.Cookie)
		}
		if site.Depth != 3 {
			t.Errorf("expected depth 3, got %d", site.Depth)
		}
		if site.Headers["Authorization"] != "Bearer tok" {
			t.Error("expected Authorization header")
		}

		// Unknown site falls back to defaults.
		other := f.Site("bbb.onion")
		if other.Depth != 1 {
			t.Errorf("expected default depth 1, got %d", other.Depth)
		}
		if other.Cookie != "" {
			t.Errorf("expected no cookie for bbb.onion, got %q", other.Cookie)
		}
	})

	t.Run("missing file returns ErrConfigNotFound", func(t *testing.T) {
		t.Parallel()

		_, err := LoadConfigFile(filepath.Join(t.TempDir(), "nope"))
		if !errors.Is(err, ErrConfigNotFound) {
			t.Errorf("expected ErrConfigNotFound, got %v", err)
		}
	})

	t.Run("malformed yaml returns error", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), ".onioncrawl")
		if err := os.WriteFile(path, []byte("seeds: [unclosed"), 0600); err != nil {
			t.Fatal(err)
		}

		if _, err := LoadConfigFile(path); err == nil {
			t.Error("expected parse error")
		}
	})
}

// TestFileSiteHeaderIsolation tests that merging one site's headers does
// not write through to the shared defaults.
func TestFileSiteHeaderIsolation(t *testing.T) {
	t.Parallel()

	f := &File{
		Defaults: SiteConfig{
			Headers: map[string]string{"X-Common": "1"},
		},
		Sites: map[string]SiteConfig{
			"aaa.onion": {
				Headers: map[string]string{"X-Only-A": "yes"},
			},
		},
	}

	a := f.Site("aaa.onion")
	if a.Headers["X-Common"] != "1" || a.Headers["X-Only-A"] != "yes" {
		t.Errorf("expected merged headers for aaa.onion, got %v", a.Headers)
	}

	if _, ok := f.Defaults.Headers["X-Only-A"]; ok {
		t.Errorf("site headers leaked into defaults: %v", f.Defaults.Headers)
	}

	b := f.Site("bbb.onion")
	if _, ok := b.Headers["X-Only-A"]; ok {
		t.Errorf("site headers leaked into another domain: %v", b.Headers)
	}
	if b.Headers["X-Common"] != "1" {
		t.Errorf("expected default header for bbb.onion, got %v", b.Headers)
	}
}

func TestFindConfigFile(t *testing.T) {
	t.Parallel()

	t.Run("explicit existing path", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "conf.yaml")
		if err := os.WriteFile(path, []byte("seeds: []"), 0600); err != nil {
			t.Fatal(err)
		}
		if got := FindConfigFile(path); got != path {
			t.Errorf("expected %q, got %q", path, got)
		}
	})

	t.Run("explicit missing path returns empty", func(t *testing.T) {
		t.Parallel()

		if got := FindConfigFile(filepath.Join(t.TempDir(), "missing")); got != "" {
			t.Errorf("expected empty string, got %q", got)
		}
	})
}
