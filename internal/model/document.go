package model

import (
	"image"
	"strings"
)

// Source identifies which side of a comparison a page or fingerprint belongs to.
type Source int

const (
	// SourceBase is the original revision of the document.
	SourceBase Source = iota

	// SourceCompare is the revised document being compared against the base.
	SourceCompare
)

// String returns the lower-case name of the source.
func (s Source) String() string {
	switch s {
	case SourceBase:
		return "base"
	case SourceCompare:
		return "compare"
	default:
		return "unknown"
	}
}

// Rect is an axis-aligned rectangle in page coordinates.
// The origin is the top-left corner of the page and Y grows downwards.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// IsZero reports whether the rectangle carries no position at all.
func (r Rect) IsZero() bool {
	return r == Rect{}
}

// Union returns the smallest rectangle containing both r and o.
// A zero rectangle is treated as empty.
func (r Rect) Union(o Rect) Rect {
	if r.IsZero() {
		return o
	}
	if o.IsZero() {
		return r
	}
	x0 := min(r.X, o.X)
	y0 := min(r.Y, o.Y)
	x1 := max(r.X+r.Width, o.X+o.Width)
	y1 := max(r.Y+r.Height, o.Y+o.Height)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// TextRun is a contiguous piece of text drawn with a single font and style.
type TextRun struct {
	Text     string  `json:"text"`
	X        float64 `json:"x"`
	Y        float64 `json:"y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	FontName string  `json:"font_name,omitempty"`
	FontSize float64 `json:"font_size,omitempty"`

	// Style is a free-form style label such as "bold" or "italic".
	Style string `json:"style,omitempty"`

	// Color is the fill color, usually "#rrggbb".
	Color string `json:"color,omitempty"`
}

// Bounds returns the run's bounding box.
func (r TextRun) Bounds() Rect {
	return Rect{X: r.X, Y: r.Y, Width: r.Width, Height: r.Height}
}

// ImageElement is an image placed on a page.
type ImageElement struct {
	Name   string  `json:"name,omitempty"`
	Format string  `json:"format,omitempty"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Hash is an optional perceptual hash of the image content.
	// When both sides carry one, image similarity is computed from it.
	Hash string `json:"hash,omitempty"`
}

// Bounds returns the image's placement on the page.
func (e ImageElement) Bounds() Rect {
	return Rect{X: e.X, Y: e.Y, Width: e.Width, Height: e.Height}
}

// FontDescriptor describes a font referenced by a page.
type FontDescriptor struct {
	Name     string `json:"name"`
	Family   string `json:"family,omitempty"`
	Embedded bool   `json:"embedded"`
	Subset   bool   `json:"subset"`
}

// BaseName returns the font name without a subset tag.
// Subset fonts are named like "ABCDEF+Helvetica"; the six upper-case
// letter prefix differs between producers even for the same font.
func (f FontDescriptor) BaseName() string {
	return StripSubsetTag(f.Name)
}

// StripSubsetTag removes a "XXXXXX+" subset prefix from a font name.
func StripSubsetTag(name string) string {
	i := strings.IndexByte(name, '+')
	if i != 6 {
		return name
	}
	for _, c := range name[:6] {
		if c < 'A' || c > 'Z' {
			return name
		}
	}
	return name[7:]
}

// Page is one page of a document as delivered by a document-model provider.
//
// Runs, Images and Fonts may be empty but are never nil once the page went
// through NewPage or Normalize. Image is the rendered raster used for visual
// comparison and is nil when no renderer output is available.
type Page struct {
	Index  int              `json:"index"`
	Width  float64          `json:"width"`
	Height float64          `json:"height"`
	Text   string           `json:"text"`
	Runs   []TextRun        `json:"runs"`
	Images []ImageElement   `json:"images"`
	Fonts  []FontDescriptor `json:"fonts"`

	Image image.Image `json:"-"`

	// Failed marks a page the provider could not extract or render.
	// Such a page is still matched by position but never differenced.
	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`
}

// NewPage creates an empty page with the given index and geometry.
func NewPage(index int, width, height float64) *Page {
	p := &Page{Index: index, Width: width, Height: height}
	p.Normalize()
	return p
}

// Normalize replaces nil collections with empty ones.
func (p *Page) Normalize() {
	if p.Runs == nil {
		p.Runs = []TextRun{}
	}
	if p.Images == nil {
		p.Images = []ImageElement{}
	}
	if p.Fonts == nil {
		p.Fonts = []FontDescriptor{}
	}
}

// MarkFailed flags the page as not comparable.
func (p *Page) MarkFailed(reason string) {
	p.Failed = true
	p.FailureReason = reason
}

// PlainText returns the page text, falling back to the concatenated runs
// when the provider did not supply plain text.
func (p *Page) PlainText() string {
	if p.Text != "" || len(p.Runs) == 0 {
		return p.Text
	}
	var sb strings.Builder
	for i, r := range p.Runs {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(r.Text)
	}
	return sb.String()
}

// Document is an ordered list of pages.
type Document struct {
	Name  string  `json:"name"`
	Pages []*Page `json:"pages"`
}

// NewDocument creates a document from pages.
// Every page is normalized and re-indexed to its position.
func NewDocument(name string, pages []*Page) *Document {
	if pages == nil {
		pages = []*Page{}
	}
	for i, p := range pages {
		if p == nil {
			p = NewPage(i, 0, 0)
			p.MarkFailed("missing page")
			pages[i] = p
		}
		p.Index = i
		p.Normalize()
	}
	return &Document{Name: name, Pages: pages}
}

// PageCount returns the number of pages.
func (d *Document) PageCount() int {
	if d == nil {
		return 0
	}
	return len(d.Pages)
}

// Page returns the page at index i, or nil if i is out of range.
func (d *Document) Page(i int) *Page {
	if d == nil || i < 0 || i >= len(d.Pages) {
		return nil
	}
	return d.Pages[i]
}
