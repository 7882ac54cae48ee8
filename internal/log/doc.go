// Package log configures structured logging for onioncrawl.
//
// Site configurations may carry session cookies and authorization headers
// for crawling gated services; the handler in this package masks such
// values before they reach any log output.
package log
