package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/pagediff/internal/config"
	"github.com/nao1215/pagediff/internal/database"
	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/report"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List and show saved comparison reports",
		Long: `History lists the comparison reports saved in the history database.

Examples:
  # List the latest comparisons
  pagediff history

  # List comparisons of one base document
  pagediff history --base contract-v1

  # Show a saved report again
  pagediff history --show 0d7c2e36-1c1f-4b7e-9a55-3f1c9d2c1a01

  # Show the stored page pairing of a report
  pagediff history --pairs 0d7c2e36-1c1f-4b7e-9a55-3f1c9d2c1a01

  # Delete a saved report
  pagediff history --delete 0d7c2e36-1c1f-4b7e-9a55-3f1c9d2c1a01`,
		Args: cobra.NoArgs,
		RunE: runHistoryCmd,
	}

	cmd.Flags().StringP("base", "b", "", "Only list comparisons of this base document name")
	cmd.Flags().String("compare", "", "Only list comparisons of this compare document name")
	cmd.Flags().IntP("limit", "n", 20, "Maximum number of comparisons to list (0 for all)")
	cmd.Flags().String("show", "", "Show the saved report with this ID")
	cmd.Flags().String("pairs", "", "Show the page pairing of the report with this ID")
	cmd.Flags().String("delete", "", "Delete the saved report with this ID")
	cmd.Flags().BoolP("json", "j", false, "Output a shown report in JSON format")
	cmd.Flags().BoolP("markdown", "m", false, "Output a shown report in Markdown format")
	cmd.Flags().String("db-dir", config.XDGDataDir(), "Directory of the history database")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, _ []string) error {
	flags := cmd.Flags()
	dbDir, err := flags.GetString("db-dir")
	if err != nil {
		return err
	}
	showID, err := flags.GetString("show")
	if err != nil {
		return err
	}
	pairsID, err := flags.GetString("pairs")
	if err != nil {
		return err
	}
	deleteID, err := flags.GetString("delete")
	if err != nil {
		return err
	}
	jsonOutput, err := flags.GetBool("json")
	if err != nil {
		return err
	}
	markdownOutput, err := flags.GetBool("markdown")
	if err != nil {
		return err
	}
	if jsonOutput && markdownOutput {
		return config.ErrConflictingReportFormats
	}

	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		return fmt.Errorf("failed to open database: %w (run 'pagediff compare' first)", err)
	}
	defer db.Close()

	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	switch {
	case showID != "":
		return showReport(ctx, db, out, showID, jsonOutput, markdownOutput)
	case pairsID != "":
		return showPairs(ctx, db, out, pairsID)
	case deleteID != "":
		deleted, err := db.DeleteReport(ctx, deleteID)
		if err != nil {
			return err
		}
		if !deleted {
			return fmt.Errorf("report %s not found", deleteID)
		}
		fmt.Fprintf(out, "Deleted report %s\n", deleteID)
		return nil
	}

	base, err := flags.GetString("base")
	if err != nil {
		return err
	}
	compare, err := flags.GetString("compare")
	if err != nil {
		return err
	}
	limit, err := flags.GetInt("limit")
	if err != nil {
		return err
	}
	return listReports(ctx, db, out, base, compare, limit)
}

// listReports prints one line per saved comparison, newest first.
func listReports(ctx context.Context, db *database.ReportDB, out io.Writer, base, compare string, limit int) error {
	reports, err := db.ListReports(ctx, base, compare, limit)
	if err != nil {
		return err
	}

	if len(reports) == 0 {
		fmt.Fprintln(out, "No comparisons found in the database.")
		fmt.Fprintln(out, "\nUse 'pagediff compare <base> <compare>' to compare two documents.")
		return nil
	}

	fmt.Fprintf(out, "Comparisons (%d):\n\n", len(reports))
	fmt.Fprintf(out, "  %-36s  %-19s  %-40s  %-10s  %s\n", "ID", "Date", "Documents", "Similarity", "Differences")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 130))

	for _, meta := range reports {
		docs := meta.BaseName + " -> " + meta.CompareName
		status := formatSeveritySummary(meta.SeveritySummary)
		if !meta.Complete {
			status += " (incomplete)"
		}
		fmt.Fprintf(out, "  %-36s  %-19s  %-40s  %-10s  %s\n",
			meta.ID,
			meta.Timestamp.Local().Format("2006-01-02 15:04:05"),
			truncate(docs, 40),
			fmt.Sprintf("%.1f%%", meta.OverallSimilarity*100),
			status,
		)
	}

	fmt.Fprintln(out, "\nUse 'pagediff history --show <id>' to show a report.")
	return nil
}

// formatSeveritySummary formats severity counts like "C:1 M:2".
func formatSeveritySummary(summary map[string]int) string {
	var parts []string
	for _, sev := range model.Severities {
		name, _ := sev.MarshalText()
		if v := summary[string(name)]; v > 0 {
			parts = append(parts, fmt.Sprintf("%c:%d", sev.String()[0], v))
		}
	}
	if len(parts) == 0 {
		return "none"
	}
	return strings.Join(parts, " ")
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}

// showReport writes a saved report in the requested format.
func showReport(ctx context.Context, db *database.ReportDB, out io.Writer, id string, jsonOutput, markdownOutput bool) error {
	rep, err := db.GetReportByID(ctx, id)
	if err != nil {
		return err
	}
	if rep == nil {
		return fmt.Errorf("report %s not found", id)
	}

	var w report.Writer
	switch {
	case jsonOutput:
		w = report.NewFullJSONWriter(out, getVersion(), report.WithPrettyPrint())
	case markdownOutput:
		w = report.NewMarkdownWriter(out)
	default:
		w = report.NewSimpleWriter(out)
	}
	_, err = w.Write(rep)
	return err
}

// showPairs prints the stored page pairing of a report.
func showPairs(ctx context.Context, db *database.ReportDB, out io.Writer, id string) error {
	pairs, err := db.GetPagePairs(ctx, id)
	if err != nil {
		return err
	}
	if len(pairs) == 0 {
		rep, err := db.GetReportByID(ctx, id)
		if err != nil {
			return err
		}
		if rep == nil {
			return fmt.Errorf("report %s not found", id)
		}
	}

	fmt.Fprintf(out, "  %-6s  %-7s  %-10s  %s\n", "Base", "Compare", "Similarity", "Differences")
	fmt.Fprintln(out, "  "+strings.Repeat("-", 40))
	for _, p := range pairs {
		fmt.Fprintf(out, "  %-6s  %-7s  %-10s  %d\n",
			pageNumber(p.BasePage),
			pageNumber(p.ComparePage),
			fmt.Sprintf("%.1f%%", p.Similarity*100),
			p.Differences,
		)
	}
	return nil
}

// pageNumber formats a 0-based page index 1-based.
func pageNumber(i int) string {
	if i < 0 {
		return "-"
	}
	return fmt.Sprint(i + 1)
}
