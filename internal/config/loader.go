package config

import (
	"errors"
	"maps"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".onioncrawl"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// SiteConfig holds per-domain overrides for a single onion domain.
type SiteConfig struct {
	// Cookie is an HTTP cookie sent when crawling this site.
	// Format: "name=value" or "name1=value1; name2=value2"
	Cookie string `yaml:"cookie,omitempty"`

	// Headers are extra HTTP headers for requests to this site.
	Headers map[string]string `yaml:"headers,omitempty"`

	// Depth overrides the global max depth for this site.
	// Zero means use the global setting.
	Depth int `yaml:"depth,omitempty"`

	// FollowExternal overrides the global cross-domain setting.
	FollowExternal *bool `yaml:"followExternal,omitempty"`
}

// File represents the structure of the .onioncrawl configuration file.
type File struct {
	// Seeds is the list of seed URLs to crawl, merged with any seeds
	// given as CLI arguments.
	Seeds []string `yaml:"seeds,omitempty"`

	// Sites maps onion domains to their overrides.
	// Keys are the bare domain (e.g. "example.onion").
	Sites map[string]SiteConfig `yaml:"sites,omitempty"`

	// Defaults is applied to every site unless overridden per site.
	Defaults SiteConfig `yaml:"defaults,omitempty"`
}

// Site returns the effective configuration for a domain, merging the
// site-specific entry over the defaults.
func (f *File) Site(domain string) SiteConfig {
	result := f.Defaults
	// The headers map must not be shared with Defaults: merging a site's
	// headers into it would leak into every later Site call.
	result.Headers = maps.Clone(f.Defaults.Headers)

	if sc, ok := f.Sites[domain]; ok {
		if sc.Cookie != "" {
			result.Cookie = sc.Cookie
		}
		if sc.Depth != 0 {
			result.Depth = sc.Depth
		}
		if sc.FollowExternal != nil {
			result.FollowExternal = sc.FollowExternal
		}
		if len(sc.Headers) > 0 {
			if result.Headers == nil {
				result.Headers = make(map[string]string, len(sc.Headers))
			}
			for k, v := range sc.Headers {
				result.Headers[k] = v
			}
		}
	}

	return result
}

// LoadConfigFile loads seeds and site overrides from a YAML file.
// Returns ErrConfigNotFound if the file does not exist; callers decide
// whether that matters based on whether the path was explicit.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, err
	}

	if f.Sites == nil {
		f.Sites = make(map[string]SiteConfig)
	}

	return &f, nil
}

// FindConfigFile resolves the configuration file path:
//  1. an explicit path is used as-is
//  2. .onioncrawl in the current directory
//  3. .onioncrawl in the home directory
//
// Returns "" if no file is found.
func FindConfigFile(configPath string) string {
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	cwd, err := os.Getwd()
	if err == nil {
		p := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	home, err := os.UserHomeDir()
	if err == nil {
		p := filepath.Join(home, DefaultConfigFile)
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}

	return ""
}
