package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagediff/internal/model"
)

// SimpleWriter outputs human-readable text reports for terminal display.
type SimpleWriter struct {
	baseWriter

	// showEmpty controls whether pages without differences are listed.
	showEmpty bool

	// verbose adds segment and pairing details.
	verbose bool
}

// SimpleWriterOption configures a SimpleWriter.
type SimpleWriterOption func(*SimpleWriter)

// WithShowEmpty configures the writer to list unchanged pages.
func WithShowEmpty(show bool) SimpleWriterOption {
	return func(w *SimpleWriter) {
		w.showEmpty = show
	}
}

// WithVerbose enables verbose output with additional details.
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

// Write outputs the report in human-readable format.
func (w *SimpleWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	w.writeSummary(&sb, report)
	if w.verbose {
		w.writeSegments(&sb, report)
		w.writePairs(&sb, report)
	}
	w.writePages(&sb, report)
	w.writeFooter(&sb)

	return w.output.Write([]byte(sb.String()))
}

func section(sb *strings.Builder, title string) {
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n")
	sb.WriteString(title)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", 70))
	sb.WriteString("\n\n")
}

// writeHeader writes the report header with run information.
func (w *SimpleWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("                    DOCUMENT COMPARISON REPORT\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n\n")

	fmt.Fprintf(sb, "Base:       %s (%d pages)\n", report.Base.Name, report.Base.PageCount)
	fmt.Fprintf(sb, "Compare:    %s (%d pages)\n", report.Compare.Name, report.Compare.PageCount)
	fmt.Fprintf(sb, "Strategy:   %s\n", report.Strategy)
	fmt.Fprintf(sb, "Compared:   %s\n", report.StartedAt.Format("2006-01-02 15:04:05 MST"))
	if report.ID != "" {
		fmt.Fprintf(sb, "Report ID:  %s\n", report.ID)
	}
	fmt.Fprintf(sb, "Status:     %s\n", statusText(report))
	sb.WriteString("\n")
}

// writeSummary writes the document-level rollup.
func (w *SimpleWriter) writeSummary(sb *strings.Builder, report *model.Report) {
	s := report.Summary
	section(sb, "SUMMARY")

	fmt.Fprintf(sb, "  Overall similarity: %s\n", percent(s.OverallSimilarity))
	fmt.Fprintf(sb, "  Matched pages:      %d\n", s.MatchedPages)
	fmt.Fprintf(sb, "  Added pages:        %d\n", s.AddedPages)
	fmt.Fprintf(sb, "  Deleted pages:      %d\n", s.DeletedPages)
	if s.FailedPages > 0 {
		fmt.Fprintf(sb, "  Failed pages:       %d\n", s.FailedPages)
	}
	if s.PageCountMismatch {
		sb.WriteString("  Page counts differ\n")
	}
	if report.Base.Digest != "" && report.Base.Digest == report.Compare.Digest {
		sb.WriteString("  Text content is identical\n")
	}
	sb.WriteString("\n")

	for _, sev := range model.Severities {
		fmt.Fprintf(sb, "  %-9s %d\n", sev.String()+":", s.CountSeverity(sev))
	}
	sb.WriteString("\n")
	for _, k := range model.Kinds {
		fmt.Fprintf(sb, "  %-9s %d\n", k.String()+":", s.Count(k))
	}
	sb.WriteString("\n")
	fmt.Fprintf(sb, "  TOTAL:    %d differences\n", s.TotalDifferences)
	sb.WriteString("\n")
}

// writeSegments writes the segment pairing.
func (w *SimpleWriter) writeSegments(sb *strings.Builder, report *model.Report) {
	if len(report.SegmentPairs) == 0 {
		return
	}
	section(sb, "SEGMENTS")
	for _, p := range report.SegmentPairs {
		fmt.Fprintf(sb, "  [%-7s] base %-7s compare %-7s %s\n",
			pairStatus(p), rangeLabel(p.Base), rangeLabel(p.Compare), percent(p.Similarity))
	}
	sb.WriteString("\n")
}

// writePairs writes the page pairing decisions.
func (w *SimpleWriter) writePairs(sb *strings.Builder, report *model.Report) {
	section(sb, "PAGE PAIRS")
	if len(report.Pairs) == 0 {
		sb.WriteString("  No pages\n\n")
		return
	}
	for _, p := range report.Pairs {
		fmt.Fprintf(sb, "  [%-7s] base %-4s compare %-4s %s\n",
			pairStatus(p), rangeLabel(p.Base), rangeLabel(p.Compare), percent(p.Similarity))
	}
	sb.WriteString("\n")
}

// writePages writes the differences of every page pair.
func (w *SimpleWriter) writePages(sb *strings.Builder, report *model.Report) {
	if report.Summary.TotalDifferences == 0 && !w.showEmpty {
		return
	}
	section(sb, "DIFFERENCES")

	for i := range report.Pages {
		pc := &report.Pages[i]
		diffs := pc.Differences()
		if len(diffs) == 0 && !w.showEmpty {
			continue
		}

		fmt.Fprintf(sb, "Page %s -> %s (similarity %s)\n",
			pageLabel(pc.BasePage), pageLabel(pc.ComparePage), percent(pc.Similarity))
		if pc.VisualSimilarity != nil {
			fmt.Fprintf(sb, "  visual similarity %s\n", percent(*pc.VisualSimilarity))
		}
		if len(diffs) == 0 {
			sb.WriteString("  No differences\n\n")
			continue
		}
		for _, d := range diffs {
			fmt.Fprintf(sb, "  [%s] %-8s %s\n", getSeverityIndicator(d.Head().Severity), d.Kind(), describe(d))
		}
		sb.WriteString("\n")
	}
}

// getSeverityIndicator returns a visual indicator for the severity level.
func getSeverityIndicator(severity model.Severity) string {
	switch severity {
	case model.SeverityCritical:
		return "!!!"
	case model.SeverityMajor:
		return "!! "
	case model.SeverityMinor:
		return "!  "
	case model.SeverityCosmetic:
		return "-  "
	default:
		return "?  "
	}
}

// writeFooter writes the report footer.
func (w *SimpleWriter) writeFooter(sb *strings.Builder) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	sb.WriteString("Report generated by pagediff\n")
	sb.WriteString("https://github.com/nao1215/pagediff\n")
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}
