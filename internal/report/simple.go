package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/k0take/onioncrawl/internal/crawler"
)

// SimpleWriter outputs human-readable text summaries.
// This format is designed for terminal display.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files or other tools.
type SimpleWriter struct {
	baseWriter

	// verbose enables per-domain detail lines.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithVerbose enables per-domain detail in the output.
func WithVerbose(verbose bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.verbose = verbose
	}
}

// NewSimpleWriter creates a SimpleWriter that outputs to the given writer.
func NewSimpleWriter(output io.Writer, opts ...SimpleWriterOption) *SimpleWriter {
	w := &SimpleWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the run summary in human-readable format.
func (w *SimpleWriter) Write(stats *crawler.AggregateStats) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, stats)
	w.writeTotals(&sb, stats)
	w.writeDomains(&sb, stats)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the summary header.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, stats *crawler.AggregateStats) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                        ONIONCRAWL SUMMARY\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("Domains:        %d\n", stats.Domains))
	sb.WriteString(fmt.Sprintf("Duration:       %s\n", stats.Duration.Round(time.Millisecond)))

	if stats.DomainsFailed > 0 {
		sb.WriteString(fmt.Sprintf("Status:         %d domain(s) FAILED\n", stats.DomainsFailed))
	} else {
		sb.WriteString("Status:         Complete\n")
	}
	sb.WriteString("\n")
}

// writeTotals writes the aggregate counters.
func (w *SimpleWriter) writeTotals(sb *strings.Builder, stats *crawler.AggregateStats) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("TOTALS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	sb.WriteString(fmt.Sprintf("  PAGES SAVED: %d\n", stats.PagesSaved))
	sb.WriteString(fmt.Sprintf("  DUPLICATES:  %d\n", stats.Duplicates))
	sb.WriteString(fmt.Sprintf("  ERRORS:      %d\n", stats.Errors))
	sb.WriteString(fmt.Sprintf("  RETRIES:     %d\n", stats.Retries))
	sb.WriteString("\n")
}

// writeDomains writes one line per crawled domain.
func (w *SimpleWriter) writeDomains(sb *strings.Builder, stats *crawler.AggregateStats) {
	if len(stats.PerDomain) == 0 {
		return
	}

	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString("DOMAINS\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")

	for _, ws := range stats.PerDomain {
		marker := "+"
		if ws.Failed {
			marker = "!"
		}
		sb.WriteString(fmt.Sprintf("  [%s] %s\n", marker, ws.Domain))
		sb.WriteString(fmt.Sprintf("      saved=%d duplicates=%d errors=%d worker=%s\n",
			ws.PagesSaved, ws.Duplicates, ws.Errors, ws.Worker))

		if ws.Failed {
			sb.WriteString(fmt.Sprintf("      failure: %s\n", ws.FailureReason))
		}
		if w.verbose {
			sb.WriteString(fmt.Sprintf("      seed=%s retries=%d elapsed=%s\n",
				ws.Seed, ws.Retries, ws.Elapsed.Round(time.Millisecond)))
		}
	}
	sb.WriteString("\n")
}

// writeFooter writes the summary footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
