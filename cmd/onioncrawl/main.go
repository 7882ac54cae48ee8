// Package main provides the entry point for the onioncrawl CLI.
//
// Onioncrawl is a parallel crawler for Tor hidden services (.onion
// addresses). It fetches pages through the Tor SOCKS5 proxy, follows
// links breadth-first to a bounded depth, and stores deduplicated page
// records in a local SQLite database.
//
// Usage:
//
//	onioncrawl crawl <onion-address> [<onion-address>...]
//	onioncrawl stats
//
// See --help for all available options.
package main

// main is the entry point for onioncrawl.
func main() {
	Execute()
}
