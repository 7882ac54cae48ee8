// Package report renders crawl run summaries in multiple output
// formats.
//
// Three writers are provided: SimpleWriter for human-readable terminal
// output, JSONWriter for tool integration, and MarkdownWriter for
// documentation and sharing. All implement the Writer interface, and
// MultiWriter fans one summary out to several destinations.
package report
