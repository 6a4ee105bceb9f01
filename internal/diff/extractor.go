package diff

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/visual"
)

// Default tolerances in page units (points).
const (
	DefaultDimensionTolerance = 1.0
	DefaultPositionTolerance  = 2.0

	// DefaultImageMatchDistance is the largest center distance, as a
	// fraction of the page diagonal, at which two unnamed images are
	// considered the same image.
	DefaultImageMatchDistance = 0.25
)

// Options configure an Extractor.
type Options struct {
	Policy             model.SeverityPolicy
	DimensionTolerance float64
	PositionTolerance  float64
	ImageMatchDistance float64

	// SSIMWindow is the window used for the visual similarity of a pair.
	SSIMWindow int
}

// DefaultOptions returns the default policy and tolerances.
func DefaultOptions() Options {
	return Options{
		Policy:             model.DefaultSeverityPolicy(),
		DimensionTolerance: DefaultDimensionTolerance,
		PositionTolerance:  DefaultPositionTolerance,
		ImageMatchDistance: DefaultImageMatchDistance,
		SSIMWindow:         visual.DefaultWindow,
	}
}

// Extractor compares pairs of pages. It holds no mutable state and is
// safe for concurrent use.
type Extractor struct {
	opts Options
}

// New creates an extractor.
func New(opts Options) *Extractor {
	if opts.DimensionTolerance < 0 {
		opts.DimensionTolerance = DefaultDimensionTolerance
	}
	if opts.PositionTolerance < 0 {
		opts.PositionTolerance = DefaultPositionTolerance
	}
	if opts.ImageMatchDistance <= 0 {
		opts.ImageMatchDistance = DefaultImageMatchDistance
	}
	if opts.SSIMWindow <= 0 {
		opts.SSIMWindow = visual.DefaultWindow
	}
	return &Extractor{opts: opts}
}

// Compare differences a page pair. Either page may be nil for a page that
// exists in only one document.
func (e *Extractor) Compare(base, compare *model.Page) *model.PageComparison {
	pc := model.NewPageComparison(pageIndex(base), pageIndex(compare))

	switch {
	case base == nil && compare == nil:
		return pc
	case failed(base) || failed(compare):
		e.couldNotCompare(pc, base, compare)
		return pc
	case base == nil:
		pc.Add(e.structural(model.ChangeAdded, compare))
		return pc
	case compare == nil:
		pc.Add(e.structural(model.ChangeDeleted, base))
		return pc
	}

	if base.Image != nil && compare.Image != nil {
		v := visual.SSIM(base.Image, compare.Image, e.opts.SSIMWindow)
		pc.VisualSimilarity = &v
	}

	e.compareDimensions(pc, base, compare)
	e.compareText(pc, base, compare)
	e.compareImages(pc, base, compare)
	e.compareFonts(pc, base, compare)
	return pc
}

func pageIndex(p *model.Page) int {
	if p == nil {
		return model.InvalidIndex
	}
	return p.Index
}

func failed(p *model.Page) bool {
	return p != nil && p.Failed
}

func pageBounds(p *model.Page) model.Rect {
	return model.Rect{Width: p.Width, Height: p.Height}
}

func pageLabel(p *model.Page) string {
	return fmt.Sprintf("page %d", p.Index+1)
}

func (e *Extractor) structural(change model.ChangeType, p *model.Page) model.MetadataDifference {
	d := model.MetadataDifference{
		Header: model.Header{Type: change, Severity: e.opts.Policy.Structural, Bounds: pageBounds(p)},
		Field:  model.FieldPage,
	}
	if change == model.ChangeAdded {
		d.CompareValue = pageLabel(p)
	} else {
		d.BaseValue = pageLabel(p)
	}
	return d
}

func (e *Extractor) couldNotCompare(pc *model.PageComparison, base, compare *model.Page) {
	reasons := make([]string, 0, 2)
	d := model.MetadataDifference{
		Header: model.Header{Type: model.ChangeModified, Severity: e.opts.Policy.Structural},
		Field:  model.FieldComparison,
	}
	if failed(base) {
		d.BaseValue = base.FailureReason
		reasons = append(reasons, "base: "+base.FailureReason)
	}
	if failed(compare) {
		d.CompareValue = compare.FailureReason
		reasons = append(reasons, "compare: "+compare.FailureReason)
	}
	switch {
	case base == nil:
		d.Type = model.ChangeAdded
	case compare == nil:
		d.Type = model.ChangeDeleted
	}
	pc.Failed = true
	pc.FailureReason = strings.Join(reasons, "; ")
	pc.Add(d)
}

func (e *Extractor) compareDimensions(pc *model.PageComparison, base, compare *model.Page) {
	tol := e.opts.DimensionTolerance
	if math.Abs(base.Width-compare.Width) <= tol && math.Abs(base.Height-compare.Height) <= tol {
		return
	}
	pc.DimensionsDifferent = true
	pc.Add(model.MetadataDifference{
		Header:       model.Header{Type: model.ChangeModified, Severity: e.opts.Policy.Metadata, Bounds: pageBounds(compare)},
		Field:        model.FieldDimensions,
		BaseValue:    formatSize(base.Width, base.Height),
		CompareValue: formatSize(compare.Width, compare.Height),
	})
}

func formatSize(w, h float64) string {
	return fmt.Sprintf("%gx%g", w, h)
}

func (e *Extractor) compareText(pc *model.PageComparison, base, compare *model.Page) {
	bl, cl := pageLines(base), pageLines(compare)
	ops := diffLines(bl, cl)

	sev := e.opts.Policy.Text
	var dels, ins []int
	flush := func() {
		n := min(len(dels), len(ins))
		for k := 0; k < n; k++ {
			b, c := bl[dels[k]], cl[ins[k]]
			start, end := changedSpan(b.text, c.text)
			pc.Add(model.TextDifference{
				Header:      model.Header{Type: model.ChangeModified, Severity: sev, Bounds: c.bounds},
				Line:        ins[k] + 1,
				BaseText:    b.text,
				CompareText: c.text,
				Start:       start,
				End:         end,
			})
		}
		for _, i := range dels[n:] {
			b := bl[i]
			pc.Add(model.TextDifference{
				Header:   model.Header{Type: model.ChangeDeleted, Severity: sev, Bounds: b.bounds},
				Line:     i + 1,
				BaseText: b.text,
				End:      runeLen(b.text),
			})
		}
		for _, j := range ins[n:] {
			c := cl[j]
			pc.Add(model.TextDifference{
				Header:      model.Header{Type: model.ChangeAdded, Severity: sev, Bounds: c.bounds},
				Line:        j + 1,
				CompareText: c.text,
				End:         runeLen(c.text),
			})
		}
		dels, ins = dels[:0], ins[:0]
	}

	for _, o := range ops {
		switch o.kind {
		case opDelete:
			dels = append(dels, o.a)
		case opInsert:
			ins = append(ins, o.b)
		case opEqual:
			flush()
			e.compareStyle(pc, o.b, bl[o.a], cl[o.b])
		}
	}
	flush()
}

// style is the dominant look of a line, weighted by rune count.
type style struct {
	font  string
	size  string
	style string
	color string
}

func dominantStyle(runs []model.TextRun) style {
	fonts := make(map[string]int)
	sizes := make(map[string]int)
	styles := make(map[string]int)
	colors := make(map[string]int)
	for _, r := range runs {
		n := runeLen(r.Text)
		fonts[model.StripSubsetTag(r.FontName)] += n
		sizes[fmt.Sprintf("%.1f", r.FontSize)] += n
		styles[r.Style] += n
		colors[strings.ToLower(r.Color)] += n
	}
	return style{font: top(fonts), size: top(sizes), style: top(styles), color: top(colors)}
}

func top(counts map[string]int) string {
	best, n := "", -1
	for k, c := range counts {
		if c > n || (c == n && k < best) {
			best, n = k, c
		}
	}
	return best
}

func (e *Extractor) compareStyle(pc *model.PageComparison, compareLine int, b, c line) {
	if len(b.runs) == 0 || len(c.runs) == 0 {
		return
	}
	bs, cs := dominantStyle(b.runs), dominantStyle(c.runs)
	props := []struct {
		name     string
		from, to string
	}{
		{"font", bs.font, cs.font},
		{"size", bs.size, cs.size},
		{"style", bs.style, cs.style},
		{"color", bs.color, cs.color},
	}
	for _, p := range props {
		if p.from == p.to {
			continue
		}
		pc.Add(model.StyleDifference{
			Header:       model.Header{Type: model.ChangeModified, Severity: e.opts.Policy.Style, Bounds: c.bounds},
			Line:         compareLine + 1,
			Text:         c.text,
			Property:     p.name,
			BaseValue:    p.from,
			CompareValue: p.to,
		})
	}
}

func (e *Extractor) compareImages(pc *model.PageComparison, base, compare *model.Page) {
	bi, ci := base.Images, compare.Images
	pairOf := make([]int, len(bi))
	for i := range pairOf {
		pairOf[i] = -1
	}
	used := make([]bool, len(ci))

	// Same name first.
	for i, b := range bi {
		if b.Name == "" {
			continue
		}
		for j, c := range ci {
			if !used[j] && c.Name == b.Name {
				pairOf[i], used[j] = j, true
				break
			}
		}
	}

	// Then nearest unused image within the match distance.
	diag := math.Hypot(math.Max(base.Width, compare.Width), math.Max(base.Height, compare.Height))
	limit := e.opts.ImageMatchDistance * diag
	for i, b := range bi {
		if pairOf[i] >= 0 {
			continue
		}
		best, bestDist := -1, math.Inf(1)
		for j, c := range ci {
			if used[j] {
				continue
			}
			if d := centerDistance(b, c); d < bestDist {
				best, bestDist = j, d
			}
		}
		if best >= 0 && (diag == 0 || bestDist <= limit) {
			pairOf[i], used[best] = best, true
		}
	}

	sev := e.opts.Policy.Image
	for i := range bi {
		b := bi[i]
		if pairOf[i] < 0 {
			pc.Add(model.ImageDifference{
				Header:     model.Header{Type: model.ChangeDeleted, Severity: sev, Bounds: b.Bounds()},
				Name:       b.Name,
				Base:       &b,
				OnlyInBase: true,
			})
			continue
		}
		c := ci[pairOf[i]]
		if d, changed := e.imageChange(b, c, diag); changed {
			pc.Add(d)
		}
	}
	for j := range ci {
		if used[j] {
			continue
		}
		c := ci[j]
		pc.Add(model.ImageDifference{
			Header:        model.Header{Type: model.ChangeAdded, Severity: sev, Bounds: c.Bounds()},
			Name:          c.Name,
			Compare:       &c,
			OnlyInCompare: true,
		})
	}
}

func (e *Extractor) imageChange(b, c model.ImageElement, diag float64) (model.ImageDifference, bool) {
	tol := e.opts.PositionTolerance
	dimTol := e.opts.DimensionTolerance
	d := model.ImageDifference{
		Header:              model.Header{Type: model.ChangeModified, Severity: e.opts.Policy.Image, Bounds: b.Bounds().Union(c.Bounds())},
		Name:                c.Name,
		Base:                &b,
		Compare:             &c,
		DimensionsDifferent: math.Abs(b.Width-c.Width) > dimTol || math.Abs(b.Height-c.Height) > dimTol,
		PositionDifferent:   math.Abs(b.X-c.X) > tol || math.Abs(b.Y-c.Y) > tol,
		FormatDifferent:     !strings.EqualFold(b.Format, c.Format),
	}
	if d.Name == "" {
		d.Name = b.Name
	}

	contentChanged := false
	if b.Hash != "" && c.Hash != "" {
		d.Similarity = visual.Similarity(b.Hash, c.Hash)
		contentChanged = b.Hash != c.Hash
	} else {
		d.Similarity = geometrySimilarity(b, c, diag)
	}
	changed := d.DimensionsDifferent || d.PositionDifferent || d.FormatDifferent || contentChanged
	return d, changed
}

func centerDistance(a, b model.ImageElement) float64 {
	return math.Hypot((a.X+a.Width/2)-(b.X+b.Width/2), (a.Y+a.Height/2)-(b.Y+b.Height/2))
}

// geometrySimilarity scores two placements by size and offset when no
// content hash is available.
func geometrySimilarity(a, b model.ImageElement, diag float64) float64 {
	rel := func(x, y float64) float64 {
		m := math.Max(math.Abs(x), math.Abs(y))
		if m == 0 {
			return 0
		}
		return math.Abs(x-y) / m
	}
	shift := 0.0
	if diag > 0 {
		shift = math.Min(1, centerDistance(a, b)/diag)
	}
	sim := 1 - (rel(a.Width, b.Width)+rel(a.Height, b.Height)+shift)/3
	if !strings.EqualFold(a.Format, b.Format) {
		sim /= 2
	}
	return model.Clamp01(sim)
}

func (e *Extractor) compareFonts(pc *model.PageComparison, base, compare *model.Page) {
	bf := indexFonts(base.Fonts)
	cf := indexFonts(compare.Fonts)

	names := make([]string, 0, len(bf)+len(cf))
	for n := range bf {
		names = append(names, n)
	}
	for n := range cf {
		if _, ok := bf[n]; !ok {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	sev := e.opts.Policy.Font
	for _, name := range names {
		b, inBase := bf[name]
		c, inCompare := cf[name]
		switch {
		case inBase && !inCompare:
			pc.Add(model.FontDifference{
				Header:     model.Header{Type: model.ChangeDeleted, Severity: sev},
				Name:       name,
				Base:       &b,
				OnlyInBase: true,
			})
		case !inBase && inCompare:
			pc.Add(model.FontDifference{
				Header:        model.Header{Type: model.ChangeAdded, Severity: sev},
				Name:          name,
				Compare:       &c,
				OnlyInCompare: true,
			})
		default:
			emb := b.Embedded != c.Embedded
			sub := isSubset(b) != isSubset(c)
			if !emb && !sub {
				continue
			}
			pc.Add(model.FontDifference{
				Header:             model.Header{Type: model.ChangeModified, Severity: sev},
				Name:               name,
				Base:               &b,
				Compare:            &c,
				EmbeddingDifferent: emb,
				SubsetDifferent:    sub,
			})
		}
	}
}

// indexFonts keys fonts by name without subset tag; the first entry wins.
func indexFonts(fonts []model.FontDescriptor) map[string]model.FontDescriptor {
	out := make(map[string]model.FontDescriptor, len(fonts))
	for _, f := range fonts {
		name := f.BaseName()
		if name == "" {
			continue
		}
		if _, ok := out[name]; !ok {
			out[name] = f
		}
	}
	return out
}

func isSubset(f model.FontDescriptor) bool {
	return f.Subset || f.BaseName() != f.Name
}
