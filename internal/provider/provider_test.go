package provider

import (
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/pagediff/internal/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestInterpretContentText(t *testing.T) {
	t.Parallel()

	stream := []byte("BT /F1 12 Tf 72 700 Td (Hello) Tj 0 -14 Td (World) Tj ET")
	res := interpretContent(stream, 792)

	if len(res.runs) != 2 {
		t.Fatalf("len(runs) = %d, want 2", len(res.runs))
	}
	first := res.runs[0]
	if first.Text != "Hello" || first.FontName != "F1" || first.FontSize != 12 {
		t.Errorf("first run = %+v", first)
	}
	if first.X != 72 || first.Y != 80 {
		t.Errorf("first run at (%g,%g), want (72,80)", first.X, first.Y)
	}
	if first.Width != 30 || first.Height != 12 {
		t.Errorf("first run size = %gx%g, want 30x12", first.Width, first.Height)
	}
	second := res.runs[1]
	if second.X != 72 || second.Y != 94 {
		t.Errorf("second run at (%g,%g), want (72,94)", second.X, second.Y)
	}
}

func TestInterpretContentOperators(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		stream string
		want   []string
	}{
		{
			name:   "TJ with word gap",
			stream: "BT /F1 10 Tf [(Hel) -10 (lo) -300 (there)] TJ ET",
			want:   []string{"Hello there"},
		},
		{
			name:   "escaped parentheses",
			stream: `BT /F1 10 Tf (a\(b\)) Tj ET`,
			want:   []string{"a(b)"},
		},
		{
			name:   "utf-16 hex string",
			stream: "BT /F1 10 Tf <FEFF00480069> Tj ET",
			want:   []string{"Hi"},
		},
		{
			name:   "text outside BT is ignored",
			stream: "(stray) Tj BT /F1 10 Tf (inside) Tj ET",
			want:   []string{"inside"},
		},
		{
			name:   "inline image is skipped",
			stream: "BI /W 2 /H 2 /BPC 8 ID \x00\xff(Tj EI BT /F1 10 Tf 10 10 Td (After) Tj ET",
			want:   []string{"After"},
		},
		{
			name:   "comments and dictionaries",
			stream: "% header\n/P <</MCID 0>> BDC BT /F1 10 Tf (Tagged) Tj ET EMC",
			want:   []string{"Tagged"},
		},
		{
			name:   "T* uses leading",
			stream: "BT /F1 10 Tf 12 TL 0 100 Td (one) Tj T* (two) Tj ET",
			want:   []string{"one", "two"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res := interpretContent([]byte(tt.stream), 792)
			if len(res.runs) != len(tt.want) {
				t.Fatalf("len(runs) = %d, want %d (%+v)", len(res.runs), len(tt.want), res.runs)
			}
			for i, w := range tt.want {
				if res.runs[i].Text != w {
					t.Errorf("runs[%d].Text = %q, want %q", i, res.runs[i].Text, w)
				}
			}
		})
	}
}

func TestInterpretContentImages(t *testing.T) {
	t.Parallel()

	res := interpretContent([]byte("q 100 0 0 50 20 600 cm /Im1 Do Q /Im2 Do"), 792)
	if len(res.images) != 2 {
		t.Fatalf("len(images) = %d, want 2", len(res.images))
	}
	want := model.Rect{X: 20, Y: 142, Width: 100, Height: 50}
	if res.images[0].name != "Im1" || res.images[0].bounds != want {
		t.Errorf("images[0] = %+v, want Im1 at %+v", res.images[0], want)
	}
	// Q restored the identity matrix: a unit square at the origin.
	if got := res.images[1].bounds; got.Width != 1 || got.Height != 1 || got.Y != 791 {
		t.Errorf("images[1].bounds = %+v", got)
	}
}

func TestRunText(t *testing.T) {
	t.Parallel()

	runs := []model.TextRun{
		{Text: "Hello", Y: 10},
		{Text: "world ", Y: 10},
		{Text: "Next line", Y: 30},
	}
	if got, want := runText(runs), "Hello world\nNext line"; got != want {
		t.Errorf("runText() = %q, want %q", got, want)
	}
}

func TestImageFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		filter types.Object
		want   string
	}{
		{name: "jpeg", filter: types.Name("DCTDecode"), want: "jpeg"},
		{name: "jpeg2000", filter: types.Name("JPXDecode"), want: "jpx"},
		{name: "flate", filter: types.Name("FlateDecode"), want: "flate"},
		{name: "filter chain uses last", filter: types.Array{types.Name("FlateDecode"), types.Name("DCTDecode")}, want: "jpeg"},
		{name: "no filter", filter: nil, want: "raw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			d := types.Dict{}
			if tt.filter != nil {
				d["Filter"] = tt.filter
			}
			if got := imageFormat(types.StreamDict{Dict: d}); got != tt.want {
				t.Errorf("imageFormat() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFontFamily(t *testing.T) {
	t.Parallel()

	tests := map[string]string{
		"Helvetica-Bold": "Helvetica",
		"Arial,Italic":   "Arial",
		"Courier":        "Courier",
	}
	for in, want := range tests {
		if got := fontFamily(in); got != want {
			t.Errorf("fontFamily(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestForPath(t *testing.T) {
	t.Parallel()

	if l, err := ForPath("doc.JSON"); err != nil {
		t.Errorf("ForPath(json) error = %v", err)
	} else if _, ok := l.(*JSONLoader); !ok {
		t.Errorf("ForPath(json) = %T, want *JSONLoader", l)
	}
	if l, err := ForPath("doc.pdf"); err != nil {
		t.Errorf("ForPath(pdf) error = %v", err)
	} else if _, ok := l.(*PDFLoader); !ok {
		t.Errorf("ForPath(pdf) = %T, want *PDFLoader", l)
	}
	if _, err := ForPath("doc.docx"); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("ForPath(docx) error = %v, want ErrUnsupportedFormat", err)
	}
}

const documentJSON = `{
  "name": "handbook",
  "pages": [
    {
      "width": 612, "height": 792,
      "text": "Introduction",
      "runs": [{"text": "Introduction", "x": 50, "y": 50, "width": 120, "height": 18, "font_name": "Helvetica-Bold", "font_size": 18}],
      "fonts": [{"name": "ABCDEF+Helvetica-Bold", "embedded": true, "subset": true}]
    },
    {"width": 612, "height": 792, "error": "content stream corrupt"},
    {"width": 612, "height": 792, "failed": true}
  ]
}`

func TestJSONLoader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "handbook-v1.json")
	if err := os.WriteFile(path, []byte(documentJSON), 0o600); err != nil {
		t.Fatal(err)
	}

	doc, err := Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if doc.Name != "handbook" || doc.PageCount() != 3 {
		t.Fatalf("doc = %q with %d pages", doc.Name, doc.PageCount())
	}

	p0 := doc.Page(0)
	if p0.Failed || p0.Text != "Introduction" || len(p0.Runs) != 1 || len(p0.Fonts) != 1 {
		t.Errorf("page 0 = %+v", p0)
	}
	if p0.Images == nil {
		t.Error("page 0 images should be normalized to an empty slice")
	}
	if p1 := doc.Page(1); !p1.Failed || p1.FailureReason != "content stream corrupt" {
		t.Errorf("page 1 failure = %v %q", p1.Failed, p1.FailureReason)
	}
	if p2 := doc.Page(2); !p2.Failed || p2.FailureReason != "extraction failed" || p2.Index != 2 {
		t.Errorf("page 2 = %+v", p2)
	}
}

func TestJSONLoaderErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	invalid := filepath.Join(dir, "broken.json")
	if err := os.WriteFile(invalid, []byte("{"), 0o600); err != nil {
		t.Fatal(err)
	}
	unnamed := filepath.Join(dir, "report-2024.json")
	if err := os.WriteFile(unnamed, []byte(`{"pages": []}`), 0o600); err != nil {
		t.Fatal(err)
	}

	l := NewJSONLoader()
	if _, err := l.Load(context.Background(), invalid); err == nil {
		t.Error("Load(invalid) should fail")
	}
	if _, err := l.Load(context.Background(), filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Load(missing) should fail")
	}
	doc, err := l.Load(context.Background(), unnamed)
	if err != nil {
		t.Fatalf("Load(unnamed) error = %v", err)
	}
	if doc.Name != "report-2024" || doc.PageCount() != 0 {
		t.Errorf("doc = %q with %d pages", doc.Name, doc.PageCount())
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, unnamed); !errors.Is(err, context.Canceled) {
		t.Errorf("Load(cancelled) error = %v, want context.Canceled", err)
	}
}

func TestPDFLoaderRejectsInvalidFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "fake.pdf")
	if err := os.WriteFile(path, []byte("this is not a pdf"), 0o600); err != nil {
		t.Fatal(err)
	}

	l := NewPDFLoader(WithLogger(discardLogger()))
	if _, err := l.Load(context.Background(), path); err == nil {
		t.Error("Load(non-pdf) should fail")
	}
	if _, err := l.Load(context.Background(), filepath.Join(dir, "missing.pdf")); err == nil {
		t.Error("Load(missing) should fail")
	}
}

func writePNG(t *testing.T, path string, w, h int) {
	t.Helper()

	img := image.NewGray(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.SetGray(x, y, color.Gray{Y: uint8((x * 255) / w)})
		}
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func TestImageDirRenderer(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "page-001.png"), 40, 20)
	if err := os.WriteFile(filepath.Join(dir, "page-002.png"), []byte("garbage"), 0o600); err != nil {
		t.Fatal(err)
	}

	doc := model.NewDocument("doc", []*model.Page{
		model.NewPage(0, 612, 792),
		model.NewPage(1, 612, 792),
		model.NewPage(2, 612, 792),
	})

	r := NewImageDirRenderer("", WithLogger(discardLogger()))
	n, err := r.Render(context.Background(), doc, dir)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if n != 1 {
		t.Errorf("Render() = %d, want 1", n)
	}
	if img := doc.Page(0).Image; img == nil || img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("page 0 raster = %v", img)
	}
	if doc.Page(1).Image != nil || doc.Page(2).Image != nil {
		t.Error("pages without a decodable raster should keep a nil Image")
	}
}

func TestImageDirRendererPattern(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writePNG(t, filepath.Join(dir, "scan_2.png"), 8, 8)
	doc := model.NewDocument("doc", []*model.Page{model.NewPage(0, 1, 1), model.NewPage(1, 1, 1)})

	r := NewImageDirRenderer("scan_%d", WithLogger(discardLogger()))
	n, err := r.Render(context.Background(), doc, dir)
	if err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if n != 1 || doc.Page(1).Image == nil {
		t.Errorf("Render() = %d, page 1 raster = %v", n, doc.Page(1).Image)
	}

	if _, err := r.Render(context.Background(), doc, filepath.Join(dir, "missing")); err == nil {
		t.Error("Render(missing dir) should fail")
	}
	if n, err := r.Render(context.Background(), doc, ""); err != nil || n != 0 {
		t.Errorf("Render(no dir) = %d, %v", n, err)
	}
}
