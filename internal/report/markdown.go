package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/k0take/onioncrawl/internal/crawler"
)

// MarkdownWriter outputs run summaries in Markdown format.
// This format is designed for documentation and sharing.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides type-safe tables, lists, and
// GitHub-flavored alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the run summary in Markdown format.
func (w *MarkdownWriter) Write(stats *crawler.AggregateStats) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, stats)
	w.writeTotals(md, stats)
	w.writeDomains(md, stats)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the summary header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, stats *crawler.AggregateStats) {
	md.H1("Onioncrawl Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Domains", strconv.Itoa(stats.Domains)},
			{"Duration", stats.Duration.String()},
			{"Status", w.statusText(stats)},
		},
	})
	md.PlainText("")
}

// statusText returns the run status for the header table.
func (w *MarkdownWriter) statusText(stats *crawler.AggregateStats) string {
	if stats.DomainsFailed > 0 {
		return "⚠️ " + strconv.Itoa(stats.DomainsFailed) + " domain(s) failed"
	}
	return "✅ Complete"
}

// writeTotals writes the aggregate counters with an outcome chart.
func (w *MarkdownWriter) writeTotals(md *markdown.Markdown, stats *crawler.AggregateStats) {
	md.H2("Totals")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Outcome", "Count"},
		Rows: [][]string{
			{"🟢 Pages Saved", strconv.Itoa(stats.PagesSaved)},
			{"🔵 Duplicates", strconv.Itoa(stats.Duplicates)},
			{"🔴 Errors", strconv.Itoa(stats.Errors)},
			{"🟡 Retries", strconv.Itoa(stats.Retries)},
		},
	})
	md.PlainText("")

	if stats.PagesSaved+stats.Duplicates+stats.Errors > 0 {
		w.writePieChart(md, stats)
	}

	w.writeAlert(md, stats)
}

// writePieChart writes a mermaid pie chart of page outcomes.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, stats *crawler.AggregateStats) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Page Outcome Distribution"),
		piechart.WithShowData(true),
	)

	if stats.PagesSaved > 0 {
		chart.LabelAndIntValue("Saved", uint64(stats.PagesSaved))
	}
	if stats.Duplicates > 0 {
		chart.LabelAndIntValue("Duplicates", uint64(stats.Duplicates))
	}
	if stats.Errors > 0 {
		chart.LabelAndIntValue("Errors", uint64(stats.Errors))
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert reflecting the run outcome.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, stats *crawler.AggregateStats) {
	switch {
	case stats.DomainsFailed > 0:
		md.Warningf(
			"%d domain traversal(s) aborted before completion. Their pages may be missing from the store.",
			stats.DomainsFailed,
		)
	case stats.Errors > 0:
		md.Importantf(
			"%d page(s) could not be fetched or saved. Hidden services are often intermittently reachable; a later run may recover them.",
			stats.Errors,
		)
	default:
		md.Tip("All reachable pages were fetched and saved without errors.")
	}
	md.PlainText("")
}

// writeDomains writes the per-domain results table.
func (w *MarkdownWriter) writeDomains(md *markdown.Markdown, stats *crawler.AggregateStats) {
	md.H2("Domains")
	md.PlainText("")

	if len(stats.PerDomain) == 0 {
		md.PlainText("No domains were crawled.")
		md.PlainText("")
		return
	}

	titler := cases.Title(language.English)

	rows := make([][]string, len(stats.PerDomain))
	for i, ws := range stats.PerDomain {
		status := "ok"
		if ws.Failed {
			status = "failed"
		}

		rows[i] = []string{
			"`" + ws.Domain + "`",
			ws.Worker,
			strconv.Itoa(ws.PagesSaved),
			strconv.Itoa(ws.Duplicates),
			strconv.Itoa(ws.Errors),
			titler.String(status),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Domain", "Worker", "Saved", "Duplicates", "Errors", "Status"},
		Rows:   rows,
	})
	md.PlainText("")

	for _, ws := range stats.PerDomain {
		if ws.Failed && ws.FailureReason != "" {
			md.Details(ws.Domain, ws.FailureReason)
		}
	}
	md.PlainText("")
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [onioncrawl](https://github.com/k0take/onioncrawl)*")
}
