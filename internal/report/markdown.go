package report

import (
	"io"
	"strconv"

	"github.com/nao1215/markdown"
	"github.com/nao1215/markdown/mermaid/piechart"
	"github.com/nao1215/pagediff/internal/model"
)

// MarkdownWriter outputs reports in Markdown format for documentation
// and review threads.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	w.writeSegments(md, report)
	w.writePairs(md, report)
	w.writeDifferences(md, report)
	w.writeFooter(md)

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Document Comparison Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Base", "`" + report.Base.Name + "` (" + strconv.Itoa(report.Base.PageCount) + " pages)"},
			{"Compare", "`" + report.Compare.Name + "` (" + strconv.Itoa(report.Compare.PageCount) + " pages)"},
			{"Strategy", report.Strategy},
			{"Compared", report.StartedAt.Format("2006-01-02 15:04:05 MST")},
			{"Report ID", orDash(report.ID)},
			{"Status", w.getStatusText(report)},
		},
	})
	md.PlainText("")
}

// getStatusText returns the status text based on report state.
func (w *MarkdownWriter) getStatusText(report *model.Report) string {
	switch {
	case report.TimedOut:
		return "⚠️ Timed Out (partial results)"
	case report.Error != "":
		return "❌ Error - " + report.Error
	default:
		return "✅ " + statusText(report)
	}
}

// writeSummary writes the rollup tables, chart and alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	s := report.Summary
	md.H2("Summary")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Metric", "Value"},
		Rows: [][]string{
			{"Overall similarity", percent(s.OverallSimilarity)},
			{"Matched pages", strconv.Itoa(s.MatchedPages)},
			{"Added pages", strconv.Itoa(s.AddedPages)},
			{"Deleted pages", strconv.Itoa(s.DeletedPages)},
			{"Failed pages", strconv.Itoa(s.FailedPages)},
		},
	})
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Severity", "Count"},
		Rows: [][]string{
			{"🔴 Critical", strconv.Itoa(s.CountSeverity(model.SeverityCritical))},
			{"🟠 Major", strconv.Itoa(s.CountSeverity(model.SeverityMajor))},
			{"🟡 Minor", strconv.Itoa(s.CountSeverity(model.SeverityMinor))},
			{"⚪ Cosmetic", strconv.Itoa(s.CountSeverity(model.SeverityCosmetic))},
			{"**Total**", "**" + strconv.Itoa(s.TotalDifferences) + "**"},
		},
	})
	md.PlainText("")

	if s.TotalDifferences > 0 {
		w.writePieChart(md, s)
	}
	w.writeAlert(md, report)
}

// writePieChart writes a mermaid pie chart of differences per kind.
func (w *MarkdownWriter) writePieChart(md *markdown.Markdown, s model.Summary) {
	chart := piechart.NewPieChart(
		io.Discard,
		piechart.WithTitle("Differences by Kind"),
		piechart.WithShowData(true),
	)
	for _, k := range model.Kinds {
		if n := s.Count(k); n > 0 {
			chart.LabelAndIntValue(k.String(), uint64(n))
		}
	}

	md.PlainText("")
	md.CodeBlocks(markdown.SyntaxHighlightMermaid, chart.String())
	md.PlainText("")
}

// writeAlert writes an alert matching the most severe difference.
func (w *MarkdownWriter) writeAlert(md *markdown.Markdown, report *model.Report) {
	s := report.Summary
	switch {
	case s.CountSeverity(model.SeverityCritical) > 0:
		md.Cautionf(
			"Structural changes detected: %d page(s) added, %d deleted, %d could not be compared.",
			s.AddedPages, s.DeletedPages, s.FailedPages,
		)
	case s.CountSeverity(model.SeverityMajor) > 0:
		md.Warningf(
			"%d major difference(s) in images, fonts or page furniture.",
			s.CountSeverity(model.SeverityMajor),
		)
	case s.CountSeverity(model.SeverityMinor) > 0:
		md.Importantf(
			"%d minor text or style difference(s).",
			s.CountSeverity(model.SeverityMinor),
		)
	case s.TotalDifferences > 0:
		md.Note("Only cosmetic differences detected.")
	default:
		md.Tip("The documents are equivalent.")
	}
	md.PlainText("")
}

// writeSegments writes the segment pairing table.
func (w *MarkdownWriter) writeSegments(md *markdown.Markdown, report *model.Report) {
	if len(report.SegmentPairs) == 0 {
		return
	}
	md.H2("Segments")
	md.PlainText("")

	rows := make([][]string, len(report.SegmentPairs))
	for i, p := range report.SegmentPairs {
		rows[i] = []string{rangeLabel(p.Base), rangeLabel(p.Compare), pairStatus(p), percent(p.Similarity)}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Base Pages", "Compare Pages", "Status", "Similarity"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writePairs writes the page pairing table.
func (w *MarkdownWriter) writePairs(md *markdown.Markdown, report *model.Report) {
	md.H2("Page Pairs")
	md.PlainText("")

	if len(report.Pairs) == 0 {
		md.PlainText("Both documents are empty.")
		md.PlainText("")
		return
	}

	rows := make([][]string, len(report.Pairs))
	for i, p := range report.Pairs {
		diffs := "-"
		if i < len(report.Pages) {
			diffs = strconv.Itoa(report.Pages[i].DifferenceCount())
		}
		rows[i] = []string{rangeLabel(p.Base), rangeLabel(p.Compare), pairStatus(p), percent(p.Similarity), diffs}
	}
	md.Table(markdown.TableSet{
		Header: []string{"Base", "Compare", "Status", "Similarity", "Differences"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeDifferences writes one table per page pair with differences.
func (w *MarkdownWriter) writeDifferences(md *markdown.Markdown, report *model.Report) {
	md.H2("Differences")
	md.PlainText("")

	if report.Summary.TotalDifferences == 0 {
		md.PlainText("No differences detected.")
		md.PlainText("")
		return
	}

	for i := range report.Pages {
		pc := &report.Pages[i]
		diffs := pc.Differences()
		if len(diffs) == 0 {
			continue
		}

		md.H3("Page " + pageLabel(pc.BasePage) + " → " + pageLabel(pc.ComparePage))
		md.PlainText("")

		rows := make([][]string, len(diffs))
		for j, d := range diffs {
			h := d.Head()
			rows[j] = []string{h.Severity.String(), d.Kind().String(), h.Type.String(), describe(d)}
		}
		md.Table(markdown.TableSet{
			Header: []string{"Severity", "Kind", "Change", "Description"},
			Rows:   rows,
		})
		md.PlainText("")

		for _, d := range pc.TextDifferences {
			if d.Type == model.ChangeModified {
				md.Details("Line "+strconv.Itoa(d.Line), "- "+d.BaseText+"\n+ "+d.CompareText)
			}
		}
		md.PlainText("")
	}
}

// writeFooter writes the report footer.
func (w *MarkdownWriter) writeFooter(md *markdown.Markdown) {
	md.HorizontalRule()
	md.PlainText("")
	md.PlainTextf("*Report generated by [pagediff](https://github.com/nao1215/pagediff)*")
}
