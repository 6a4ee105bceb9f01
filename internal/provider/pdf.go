package provider

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/nao1215/pagediff/internal/model"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	pdfmodel "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// Default page size (US Letter, points) used when a page has no usable
// media box.
const (
	defaultPageWidth  = 612.0
	defaultPageHeight = 792.0
)

// PDFLoader reads PDF documents with pdfcpu.
//
// Per page it extracts the page size, text runs with position and font
// size from the content stream, placed images and the fonts of the
// document. Fonts are collected document-wide and attached to every page.
// A page whose content cannot be read is marked failed; the other pages
// are still loaded.
type PDFLoader struct {
	logger *slog.Logger
}

// NewPDFLoader creates a PDF loader.
func NewPDFLoader(opts ...Option) *PDFLoader {
	o := newOptions(opts)
	return &PDFLoader{logger: o.logger}
}

// Load implements Loader.
func (l *PDFLoader) Load(ctx context.Context, path string) (*model.Document, error) {
	f, err := os.Open(path) //nolint:gosec // User-provided document path is intentional
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	conf := pdfmodel.NewDefaultConfiguration()
	pdf, err := api.ReadValidateAndOptimize(f, conf)
	if err != nil {
		return nil, fmt.Errorf("pdfcpu read %s: %w", path, err)
	}

	dims, err := pdf.PageDims()
	if err != nil {
		l.logger.Warn("page dimensions unavailable", "path", path, "error", err)
		dims = nil
	}
	fonts := documentFonts(pdf)

	pages := make([]*model.Page, pdf.PageCount)
	for i := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		w, h := defaultPageWidth, defaultPageHeight
		if i < len(dims) && dims[i].Width > 0 && dims[i].Height > 0 {
			w, h = dims[i].Width, dims[i].Height
		}
		p := model.NewPage(i, w, h)
		p.Fonts = append(p.Fonts, fonts...)
		if err := l.loadPage(pdf, i+1, p); err != nil {
			l.logger.Warn("page extraction failed", "path", path, "page", i+1, "error", err)
			p.MarkFailed(err.Error())
		}
		pages[i] = p
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	return model.NewDocument(name, pages), nil
}

func (l *PDFLoader) loadPage(pdf *pdfmodel.Context, pageNr int, p *model.Page) error {
	r, err := pdfcpu.ExtractPageContent(pdf, pageNr)
	if err != nil {
		return fmt.Errorf("extract content: %w", err)
	}
	if r == nil {
		return nil
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("read content: %w", err)
	}

	res := interpretContent(data, p.Height)
	p.Runs = append(p.Runs, res.runs...)
	p.Text = runText(res.runs)

	format := pageImageFormat(pdf, pageNr)
	for _, pl := range res.images {
		p.Images = append(p.Images, model.ImageElement{
			Name:   pl.name,
			Format: format,
			X:      pl.bounds.X,
			Y:      pl.bounds.Y,
			Width:  pl.bounds.Width,
			Height: pl.bounds.Height,
		})
	}
	return nil
}

// runText joins runs into lines, starting a new line when the vertical
// position changes.
func runText(runs []model.TextRun) string {
	var sb strings.Builder
	for i, r := range runs {
		if i > 0 {
			if r.Y != runs[i-1].Y {
				sb.WriteByte('\n')
			} else {
				sb.WriteByte(' ')
			}
		}
		sb.WriteString(strings.TrimSpace(r.Text))
	}
	return sb.String()
}

// pageImageFormat returns the format of the page's image objects when
// they all share one encoding, and "" otherwise.
func pageImageFormat(pdf *pdfmodel.Context, pageNr int) string {
	if pdf.Optimize == nil {
		return ""
	}
	format := ""
	for _, objNr := range pdfcpu.ImageObjNrs(pdf, pageNr) {
		entry, ok := pdf.Table[objNr]
		if !ok || entry == nil || entry.Free || entry.Compressed {
			continue
		}
		sd, ok := entry.Object.(types.StreamDict)
		if !ok {
			continue
		}
		f := imageFormat(sd)
		if format != "" && f != format {
			return ""
		}
		format = f
	}
	return format
}

func imageFormat(sd types.StreamDict) string {
	filter, found := sd.Find("Filter")
	if !found {
		return "raw"
	}
	name := ""
	switch v := filter.(type) {
	case types.Name:
		name = string(v)
	case types.Array:
		if len(v) > 0 {
			if n, ok := v[len(v)-1].(types.Name); ok {
				name = string(n)
			}
		}
	}
	switch name {
	case "DCTDecode":
		return "jpeg"
	case "JPXDecode":
		return "jpx"
	case "CCITTFaxDecode":
		return "ccitt"
	case "JBIG2Decode":
		return "jbig2"
	case "FlateDecode":
		return "flate"
	default:
		return "raw"
	}
}

// documentFonts collects the font dictionaries of the document.
func documentFonts(pdf *pdfmodel.Context) []model.FontDescriptor {
	seen := make(map[string]model.FontDescriptor)
	for _, entry := range pdf.Table {
		if entry == nil || entry.Free || entry.Compressed {
			continue
		}
		d, ok := entry.Object.(types.Dict)
		if !ok {
			continue
		}
		if t, found := d.Find("Type"); !found || t != types.Name("Font") {
			continue
		}
		base, ok := d["BaseFont"].(types.Name)
		if !ok {
			continue
		}
		fd := model.FontDescriptor{Name: string(base)}
		fd.Subset = fd.BaseName() != fd.Name
		fd.Family = fontFamily(fd.BaseName())
		fd.Embedded = fontEmbedded(pdf, d)
		if prev, dup := seen[fd.Name]; !dup || (!prev.Embedded && fd.Embedded) {
			seen[fd.Name] = fd
		}
	}

	out := make([]model.FontDescriptor, 0, len(seen))
	for _, fd := range seen {
		out = append(out, fd)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// fontEmbedded reports whether the font descriptor carries a font program.
// Composite fonts keep their descriptor on the descendant font.
func fontEmbedded(pdf *pdfmodel.Context, font types.Dict) bool {
	if obj, found := font.Find("FontDescriptor"); found {
		desc, err := pdf.DereferenceDict(obj)
		if err == nil && desc != nil {
			for _, key := range []string{"FontFile", "FontFile2", "FontFile3"} {
				if _, ok := desc.Find(key); ok {
					return true
				}
			}
		}
	}
	if obj, found := font.Find("DescendantFonts"); found {
		arr, err := pdf.DereferenceArray(obj)
		if err == nil && len(arr) > 0 {
			if d, err := pdf.DereferenceDict(arr[0]); err == nil && d != nil {
				return fontEmbedded(pdf, d)
			}
		}
	}
	return false
}

// fontFamily strips style suffixes such as "-Bold" or ",Italic".
func fontFamily(name string) string {
	if i := strings.IndexAny(name, "-,"); i > 0 {
		return name[:i]
	}
	return name
}
