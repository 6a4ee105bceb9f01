package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/nao1215/pagediff/internal/model"
)

// Writer defines the interface for report output.
type Writer interface {
	// Write outputs the report to the configured destination.
	// Returns the number of bytes written and any error encountered.
	Write(report *model.Report) (int, error)
}

// MultiWriter writes to multiple Writers in order.
type MultiWriter struct {
	writers []Writer
}

// NewMultiWriter creates a Writer that writes to all provided Writers.
func NewMultiWriter(writers ...Writer) *MultiWriter {
	return &MultiWriter{writers: writers}
}

// Write outputs the report to all configured Writers.
// Returns the total bytes written across all writers.
// Stops on first error encountered.
func (m *MultiWriter) Write(report *model.Report) (int, error) {
	var total int
	for _, w := range m.writers {
		n, err := w.Write(report)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

// baseWriter provides common functionality for report writers.
type baseWriter struct {
	output io.Writer
}

// newBaseWriter creates a baseWriter with the given output destination.
func newBaseWriter(output io.Writer) baseWriter {
	return baseWriter{output: output}
}

// pageLabel formats a 0-based page index for display.
func pageLabel(i int) string {
	if i < 0 {
		return "-"
	}
	return strconv.Itoa(i + 1)
}

// rangeLabel formats a 0-based page range for display.
func rangeLabel(r model.Range) string {
	switch {
	case !r.Valid():
		return "-"
	case r.Start == r.End:
		return pageLabel(r.Start)
	default:
		return pageLabel(r.Start) + "-" + pageLabel(r.End)
	}
}

// percent formats a similarity in [0,1] as a percentage.
func percent(v float64) string {
	return strconv.FormatFloat(v*100, 'f', 1, 64) + "%"
}

// statusText returns the completion state of the report.
func statusText(report *model.Report) string {
	switch {
	case report.TimedOut:
		return "Timed out (partial results)"
	case report.Error != "":
		return "Error - " + report.Error
	case !report.Complete:
		return "Incomplete"
	default:
		return "Complete"
	}
}

// pairStatus describes a page pair for display.
func pairStatus(p model.Pair) string {
	switch {
	case p.BaseOnly():
		return "deleted"
	case p.CompareOnly():
		return "added"
	default:
		return "matched"
	}
}

// describe returns a one-line description of a difference.
func describe(d model.Difference) string {
	switch v := d.(type) {
	case model.TextDifference:
		switch v.Type {
		case model.ChangeAdded:
			return fmt.Sprintf("line %d added: %q", v.Line, truncateString(v.CompareText, 60))
		case model.ChangeDeleted:
			return fmt.Sprintf("line %d deleted: %q", v.Line, truncateString(v.BaseText, 60))
		default:
			return fmt.Sprintf("line %d changed: %q -> %q", v.Line,
				truncateString(v.BaseText, 40), truncateString(v.CompareText, 40))
		}
	case model.ImageDifference:
		switch {
		case v.OnlyInBase:
			return fmt.Sprintf("image %s removed", imageName(v))
		case v.OnlyInCompare:
			return fmt.Sprintf("image %s added", imageName(v))
		}
		var what []string
		if v.PositionDifferent {
			what = append(what, "moved")
		}
		if v.DimensionsDifferent {
			what = append(what, "resized")
		}
		if v.FormatDifferent {
			what = append(what, "format changed")
		}
		if len(what) == 0 {
			what = append(what, "content changed")
		}
		return fmt.Sprintf("image %s %s (similarity %s)", imageName(v), strings.Join(what, ", "), percent(v.Similarity))
	case model.FontDifference:
		switch {
		case v.OnlyInBase:
			return fmt.Sprintf("font %s removed", v.Name)
		case v.OnlyInCompare:
			return fmt.Sprintf("font %s added", v.Name)
		}
		var what []string
		if v.EmbeddingDifferent {
			what = append(what, "embedding changed")
		}
		if v.SubsetDifferent {
			what = append(what, "subsetting changed")
		}
		return fmt.Sprintf("font %s %s", v.Name, strings.Join(what, ", "))
	case model.StyleDifference:
		return fmt.Sprintf("line %d %s %s -> %s", v.Line, v.Property, v.BaseValue, v.CompareValue)
	case model.MetadataDifference:
		if v.Field == model.FieldPage {
			if v.Type == model.ChangeAdded {
				return "page added"
			}
			return "page deleted"
		}
		if v.BaseValue == "" && v.CompareValue == "" {
			return v.Field + " changed"
		}
		return fmt.Sprintf("%s %s -> %s", v.Field, orDash(v.BaseValue), orDash(v.CompareValue))
	default:
		return d.Kind().String() + " changed"
	}
}

func imageName(d model.ImageDifference) string {
	if d.Name != "" {
		return d.Name
	}
	return "(unnamed)"
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// truncateString truncates a string to maxLen runes with ellipsis.
func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}
