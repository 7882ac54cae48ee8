// Package config holds onioncrawl's runtime configuration and the loader
// for the optional .onioncrawl YAML file.
package config
