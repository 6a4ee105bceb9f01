package database

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pagediff/internal/model"
)

// setupTestDB creates a temporary database for testing.
func setupTestDB(t *testing.T) *ReportDB {
	t.Helper()

	db, err := Open(t.TempDir(), DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

// testReport creates a finished report with two matched pages and one
// added page.
func testReport(id, base, compare string, started time.Time) *model.Report {
	r := model.NewReport(id,
		model.NewDocument(base, []*model.Page{model.NewPage(0, 612, 792), model.NewPage(1, 612, 792)}),
		model.NewDocument(compare, []*model.Page{model.NewPage(0, 612, 792), model.NewPage(1, 612, 792), model.NewPage(2, 612, 792)}),
	)
	r.StartedAt = started
	r.Strategy = "fused"
	r.Base.Digest = "aaaa"
	r.Compare.Digest = "bbbb"
	r.Pairs = []model.Pair{
		model.MatchedPair(model.PageRange(0), model.PageRange(0), 1),
		model.MatchedPair(model.PageRange(1), model.PageRange(2), 0.8),
		model.CompareOnlyPair(model.PageRange(1)),
	}

	changed := model.NewPageComparison(1, 2)
	changed.Add(model.TextDifference{
		Header:      model.Header{Type: model.ChangeModified, Severity: model.SeverityMinor},
		Line:        1,
		BaseText:    "draft",
		CompareText: "final",
	})
	added := model.NewPageComparison(model.InvalidIndex, 1)
	added.Add(model.MetadataDifference{
		Header: model.Header{Type: model.ChangeAdded, Severity: model.SeverityCritical},
		Field:  model.FieldPage,
	})
	r.Pages = []model.PageComparison{*model.NewPageComparison(0, 0), *changed, *added}
	r.Rollup()
	r.Finish()
	return r
}

func TestOpen(t *testing.T) {
	t.Parallel()

	t.Run("creates database in new directory", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "newdir", "subdir")
		db, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to open database: %v", err)
		}
		defer db.Close()

		if _, err := os.Stat(filepath.Join(dbDir, FileName)); os.IsNotExist(err) {
			t.Error("database file was not created")
		}
		if db.Path() != filepath.Join(dbDir, FileName) {
			t.Errorf("Path() = %q", db.Path())
		}
	})

	t.Run("CreateIfNotExists=false returns error when database does not exist", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "nonexistent-db")
		_, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: true})
		if err == nil {
			t.Fatal("expected error when CreateIfNotExists=false and database does not exist")
		}
		if !strings.Contains(err.Error(), "database not found") {
			t.Errorf("expected error to contain %q, got %q", "database not found", err.Error())
		}
		if _, statErr := os.Stat(dbDir); !os.IsNotExist(statErr) {
			t.Error("database directory should not have been created")
		}
	})

	t.Run("CreateIfNotExists=false opens existing database", func(t *testing.T) {
		t.Parallel()

		dbDir := filepath.Join(t.TempDir(), "existing-db")
		db1, err := Open(dbDir, DefaultOptions())
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		if err := db1.SaveReport(context.Background(), testReport("r1", "a", "b", time.Now())); err != nil {
			t.Fatalf("SaveReport() error = %v", err)
		}
		_ = db1.Close()

		db2, err := Open(dbDir, Options{CreateIfNotExists: false, EnableWAL: false})
		if err != nil {
			t.Fatalf("failed to open existing database: %v", err)
		}
		defer db2.Close()

		got, err := db2.GetReportByID(context.Background(), "r1")
		if err != nil || got == nil {
			t.Fatalf("GetReportByID() = %v, %v", got, err)
		}
	})
}

func TestSaveAndGetReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	want := testReport("0d7c2e36-1c1f-4b7e-9a55-3f1c9d2c1a01", "contract-v1", "contract-v2", time.Now())

	if err := db.SaveReport(ctx, want); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}

	got, err := db.GetReportByID(ctx, want.ID)
	if err != nil {
		t.Fatalf("GetReportByID() error = %v", err)
	}
	if got == nil {
		t.Fatal("expected a report")
	}
	if got.Base.Name != "contract-v1" || got.Compare.PageCount != 3 {
		t.Errorf("documents = %+v / %+v", got.Base, got.Compare)
	}
	if len(got.Pairs) != 3 || len(got.Pages) != 3 {
		t.Fatalf("pairs = %d, pages = %d", len(got.Pairs), len(got.Pages))
	}
	if got.Summary.TotalDifferences != 2 || got.Summary.AddedPages != 1 {
		t.Errorf("summary = %+v", got.Summary)
	}
	if got.Pages[1].TextDifferences[0].CompareText != "final" {
		t.Errorf("text difference = %+v", got.Pages[1].TextDifferences[0])
	}
	if !got.Complete {
		t.Error("completion flag should round-trip")
	}

	missing, err := db.GetReportByID(ctx, "no-such-report")
	if err != nil || missing != nil {
		t.Errorf("GetReportByID(missing) = %v, %v, want nil, nil", missing, err)
	}
}

func TestSaveReportRequiresID(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	if err := db.SaveReport(context.Background(), testReport("", "a", "b", time.Now())); err == nil {
		t.Error("expected an error for a report without id")
	}
	if err := db.SaveReport(context.Background(), nil); err == nil {
		t.Error("expected an error for a nil report")
	}
}

func TestGetPagePairs(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	r := testReport("r1", "a", "b", time.Now())
	if err := db.SaveReport(ctx, r); err != nil {
		t.Fatal(err)
	}

	pairs, err := db.GetPagePairs(ctx, "r1")
	if err != nil {
		t.Fatalf("GetPagePairs() error = %v", err)
	}
	want := []PairRecord{
		{BasePage: 0, ComparePage: 0, Similarity: 1, Matched: true, Differences: 0},
		{BasePage: 1, ComparePage: 2, Similarity: 0.8, Matched: true, Differences: 1},
		{BasePage: model.InvalidIndex, ComparePage: 1, Similarity: 0, Matched: false, Differences: 1},
	}
	if len(pairs) != len(want) {
		t.Fatalf("len(pairs) = %d, want %d", len(pairs), len(want))
	}
	for i := range want {
		if pairs[i] != want[i] {
			t.Errorf("pairs[%d] = %+v, want %+v", i, pairs[i], want[i])
		}
	}

	// Saving again replaces the pairs instead of appending.
	r.Pairs = r.Pairs[:1]
	r.Pages = r.Pages[:1]
	r.Rollup()
	if err := db.SaveReport(ctx, r); err != nil {
		t.Fatal(err)
	}
	pairs, err = db.GetPagePairs(ctx, "r1")
	if err != nil {
		t.Fatal(err)
	}
	if len(pairs) != 1 {
		t.Errorf("len(pairs) after re-save = %d, want 1", len(pairs))
	}
}

func TestListReports(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	now := time.Now()

	reports := []*model.Report{
		testReport("old", "handbook", "handbook-v2", now.Add(-2*time.Hour)),
		testReport("new", "handbook", "handbook-v2", now),
		testReport("other", "manual", "manual-2", now.Add(-time.Hour)),
	}
	for _, r := range reports {
		if err := db.SaveReport(ctx, r); err != nil {
			t.Fatalf("SaveReport(%s) error = %v", r.ID, err)
		}
	}

	tests := []struct {
		name    string
		base    string
		compare string
		limit   int
		want    []string
	}{
		{name: "all newest first", want: []string{"new", "other", "old"}},
		{name: "limit", limit: 2, want: []string{"new", "other"}},
		{name: "by base", base: "handbook", want: []string{"new", "old"}},
		{name: "by both", base: "manual", compare: "manual-2", want: []string{"other"}},
		{name: "no match", compare: "unknown", want: []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := db.ListReports(ctx, tt.base, tt.compare, tt.limit)
			if err != nil {
				t.Fatalf("ListReports() error = %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("len = %d, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("got[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}

	all, err := db.ListReports(ctx, "", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	meta := all[0]
	if meta.Strategy != "fused" || meta.TotalDifferences != 2 || !meta.Complete {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.SeveritySummary["critical"] != 1 || meta.SeveritySummary["minor"] != 1 {
		t.Errorf("severity summary = %v", meta.SeveritySummary)
	}
	if meta.SameContent {
		t.Error("different digests should not be reported as same content")
	}
	if meta.Timestamp.IsZero() {
		t.Error("timestamp should be parsed")
	}
}

func TestDeleteReport(t *testing.T) {
	t.Parallel()

	db := setupTestDB(t)
	ctx := context.Background()
	if err := db.SaveReport(ctx, testReport("r1", "a", "b", time.Now())); err != nil {
		t.Fatal(err)
	}

	deleted, err := db.DeleteReport(ctx, "r1")
	if err != nil || !deleted {
		t.Fatalf("DeleteReport() = %v, %v", deleted, err)
	}
	if r, _ := db.GetReportByID(ctx, "r1"); r != nil {
		t.Error("report should be gone")
	}
	if pairs, _ := db.GetPagePairs(ctx, "r1"); len(pairs) != 0 {
		t.Error("page pairs should be gone")
	}

	deleted, err = db.DeleteReport(ctx, "r1")
	if err != nil || deleted {
		t.Errorf("DeleteReport(again) = %v, %v, want false, nil", deleted, err)
	}
}

func TestParseTimestamp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  time.Time
	}{
		{input: "2024-03-01 10:20:30", want: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{input: "2024-03-01T10:20:30Z", want: time.Date(2024, 3, 1, 10, 20, 30, 0, time.UTC)},
		{input: "2024-03-01T10:20:30.500000000Z", want: time.Date(2024, 3, 1, 10, 20, 30, 500000000, time.UTC)},
		{input: "not a time", want: time.Time{}},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			if got := parseTimestamp(tt.input); !got.Equal(tt.want) {
				t.Errorf("parseTimestamp(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}
