package engine

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/nao1215/pagediff/internal/config"
	"github.com/nao1215/pagediff/internal/model"
)

var topics = [][]string{
	{"Quarterly revenue overview", "revenue increased across every region", "operating margin stayed flat"},
	{"Product roadmap", "the new scheduler ships in spring", "legacy importer is retired"},
	{"Hiring plan", "engineering adds twelve positions", "support team grows by four"},
	{"Risk register", "supplier concentration remains high", "currency exposure is hedged"},
	{"Glossary", "ebitda means earnings before interest", "arr means annual recurring revenue"},
	{"Appendix on wildlife", "otters migrate upstream each winter", "herons nest along the estuary"},
}

func pattern(seed int) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, 72, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 72; x++ {
			img.SetGray(x, y, color.Gray{Y: uint8((x*7 + y*13) * (seed + 1) % 256)})
		}
	}
	return img
}

func page(topic int) *model.Page {
	lines := topics[topic]
	p := model.NewPage(0, 612, 792)
	p.Runs = append(p.Runs, model.TextRun{Text: lines[0], X: 72, Y: 60, Width: 300, Height: 20, FontName: "ABCDEF+Helvetica-Bold", FontSize: 18})
	for i, l := range lines[1:] {
		p.Runs = append(p.Runs, model.TextRun{Text: l, X: 72, Y: float64(300 + 14*i), Width: 400, Height: 12, FontName: "Times-Roman", FontSize: 11})
	}
	p.Text = fmt.Sprintf("%s\n%s\n%s", lines[0], lines[1], lines[2])
	p.Images = []model.ImageElement{{Name: fmt.Sprintf("fig%d", topic), Format: "png", X: 72, Y: 500, Width: 200, Height: 120}}
	p.Fonts = []model.FontDescriptor{
		{Name: "ABCDEF+Helvetica-Bold", Embedded: true, Subset: true},
		{Name: "Times-Roman"},
	}
	p.Image = pattern(topic)
	return p
}

func document(name string, topicIDs ...int) *model.Document {
	pages := make([]*model.Page, len(topicIDs))
	for i, id := range topicIDs {
		pages[i] = page(id)
	}
	return model.NewDocument(name, pages)
}

func newEngine(t *testing.T, modify func(*config.Config)) *Engine {
	t.Helper()

	cfg := config.NewConfig()
	cfg.Concurrency = 4
	if modify != nil {
		modify(cfg)
	}
	id := 0
	e, err := New(cfg,
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
		WithIDGenerator(func() string { id++; return fmt.Sprintf("run-%d", id) }),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return e
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	t.Parallel()

	cfg := config.NewConfig()
	cfg.Threshold = 0
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalidThreshold) {
		t.Errorf("expected ErrInvalidThreshold, got %v", err)
	}

	cfg = config.NewConfig()
	cfg.PageWeights.Visual = 0.9
	if _, err := New(cfg); !errors.Is(err, config.ErrInvalidWeights) {
		t.Errorf("expected ErrInvalidWeights, got %v", err)
	}
}

func TestCompareIdenticalDocuments(t *testing.T) {
	t.Parallel()

	for _, strategy := range []string{"fused", "two-phase"} {
		t.Run(strategy, func(t *testing.T) {
			t.Parallel()

			e := newEngine(t, func(c *config.Config) { c.Strategy = strategy })
			report, err := e.Compare(context.Background(), document("v1", 0, 1, 2, 3, 4), document("v2", 0, 1, 2, 3, 4))
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !report.Complete || report.TimedOut {
				t.Fatalf("expected complete report: %+v", report)
			}
			if report.ID != "run-1" || report.Strategy != strategy {
				t.Errorf("unexpected id or strategy: %q %q", report.ID, report.Strategy)
			}
			if len(report.Pairs) != 5 {
				t.Fatalf("expected 5 pairs, got %d", len(report.Pairs))
			}
			for i, p := range report.Pairs {
				if !p.Matched || p.Base.Start != i || p.Compare.Start != i {
					t.Errorf("pair %d: %+v", i, p)
				}
				if p.Similarity < 0.95 {
					t.Errorf("pair %d: similarity %v below 0.95", i, p.Similarity)
				}
			}
			for _, pc := range report.Pages {
				if n := pc.DifferenceCount(); n != 0 {
					t.Errorf("page %d: expected no differences, got %+v", pc.BasePage, pc.Differences())
				}
				if pc.VisualSimilarity == nil || *pc.VisualSimilarity < 0.99 {
					t.Errorf("page %d: visual similarity %v", pc.BasePage, pc.VisualSimilarity)
				}
			}
			s := report.Summary
			if s.TotalDifferences != 0 || s.OverallSimilarity < 0.95 || s.PageCountMismatch {
				t.Errorf("unexpected summary: %+v", s)
			}
			if report.Base.Digest != report.Compare.Digest {
				t.Error("identical documents must have equal digests")
			}
		})
	}
}

func TestCompareInsertedPage(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	report, err := e.Compare(context.Background(), document("v1", 0, 1, 2), document("v2", 0, 1, 5, 2))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var matched, compareOnly []model.Pair
	for _, p := range report.Pairs {
		switch {
		case p.Matched:
			matched = append(matched, p)
		case p.CompareOnly():
			compareOnly = append(compareOnly, p)
		default:
			t.Errorf("unexpected pair %+v", p)
		}
	}
	if len(matched) != 3 || len(compareOnly) != 1 {
		t.Fatalf("expected 3 matched and 1 compare-only pair, got %+v", report.Pairs)
	}
	if compareOnly[0].Base.Start != model.InvalidIndex || compareOnly[0].Compare.Start != 2 {
		t.Errorf("unexpected compare-only pair %+v", compareOnly[0])
	}

	added := report.Pages[len(report.Pages)-1]
	diffs := added.Differences()
	if len(diffs) != 1 {
		t.Fatalf("expected a single difference for the new page, got %+v", diffs)
	}
	h := diffs[0].Head()
	if h.Type != model.ChangeAdded || h.Severity != model.SeverityCritical {
		t.Errorf("unexpected difference %+v", h)
	}
	if s := report.Summary; s.AddedPages != 1 || !s.PageCountMismatch || s.TotalDifferences != 1 {
		t.Errorf("unexpected summary %+v", s)
	}
}

func TestCompareModifiedPage(t *testing.T) {
	t.Parallel()

	base := document("v1", 0, 1)
	compare := document("v2", 0, 1)
	p := compare.Pages[1]
	p.Runs[1].Text = "the new scheduler ships in summer"
	p.Text = "Product roadmap\nthe new scheduler ships in summer\nlegacy importer is retired"
	p.Images[0].X += 40
	p.Fonts[1].Embedded = true

	report, err := newEngine(t, nil).Compare(context.Background(), base, compare)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	pc := report.Pages[1]
	if len(pc.TextDifferences) != 1 || pc.TextDifferences[0].Type != model.ChangeModified {
		t.Errorf("expected one modified line, got %+v", pc.TextDifferences)
	}
	if len(pc.ImageDifferences) != 1 || !pc.ImageDifferences[0].PositionDifferent {
		t.Errorf("expected a moved image, got %+v", pc.ImageDifferences)
	}
	if len(pc.FontDifferences) != 1 || !pc.FontDifferences[0].EmbeddingDifferent {
		t.Errorf("expected an embedding change, got %+v", pc.FontDifferences)
	}
	if sev, _ := pc.HighestSeverity(); sev != model.SeverityMajor {
		t.Errorf("expected major, got %v", sev)
	}
	if report.Summary.Count(model.KindText) != 1 {
		t.Errorf("unexpected summary %+v", report.Summary)
	}
}

func TestCompareCancelled(t *testing.T) {
	t.Parallel()

	e := newEngine(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := e.Compare(ctx, document("v1", 0, 1), document("v2", 0, 1))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if report == nil {
		t.Fatal("expected a partial report")
	}
	if report.Complete || !report.TimedOut {
		t.Errorf("partial report must not be complete: %+v", report)
	}
}

func TestCompareTimeout(t *testing.T) {
	t.Parallel()

	e := newEngine(t, func(c *config.Config) { c.Timeout = time.Nanosecond })
	time.Sleep(time.Millisecond)
	report, err := e.Compare(context.Background(), document("v1", 0, 1), document("v2", 0, 1))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected context.DeadlineExceeded, got %v", err)
	}
	if report.Complete {
		t.Error("timed-out report must not be complete")
	}
}

func TestCompareEmptyDocuments(t *testing.T) {
	t.Parallel()

	report, err := newEngine(t, nil).Compare(context.Background(), nil, model.NewDocument("empty", nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !report.Complete || len(report.Pairs) != 0 || report.Summary.OverallSimilarity != 1 {
		t.Errorf("unexpected report for empty documents: %+v", report.Summary)
	}
}

func TestSteps(t *testing.T) {
	t.Parallel()

	want := []string{"fingerprint", "segment", "match_segments", "match_pages", "diff", "rollup"}
	got := newEngine(t, nil).Steps()
	if fmt.Sprint(got) != fmt.Sprint(want) {
		t.Errorf("Steps() = %v, expected %v", got, want)
	}
}
