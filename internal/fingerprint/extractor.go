package fingerprint

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"sort"

	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/textsim"
	"github.com/nao1215/pagediff/internal/visual"
	"golang.org/x/crypto/sha3"
)

// Extension keys written by the extractor.
const (
	ExtDominantFont = "dominant_font"
	ExtAspectRatio  = "aspect_ratio"
	ExtRunCount     = "run_count"
)

// Extractor builds fingerprints.
type Extractor struct {
	hasher *visual.Hasher
	logger *slog.Logger
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithLogger sets the logger used to report hashing failures.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Extractor) {
		e.logger = logger
	}
}

// WithHasher sets the perceptual hasher.
func WithHasher(h *visual.Hasher) Option {
	return func(e *Extractor) {
		e.hasher = h
	}
}

// NewExtractor creates an extractor. Without WithHasher it uses a
// gradient hash on the default grid.
func NewExtractor(opts ...Option) *Extractor {
	e := &Extractor{}
	for _, opt := range opts {
		opt(e)
	}
	if e.hasher == nil {
		e.hasher = visual.NewHasher(visual.HashGradient, visual.DefaultHashGrid)
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	return e
}

// Extract computes the fingerprint of page p on side src.
//
// A page without a raster, or whose raster cannot be hashed, gets an empty
// perceptual hash; the visual signal is then treated as missing for that
// page. A failed page yields a fingerprint with only identity and geometry.
func (e *Extractor) Extract(p *model.Page, src model.Source) *model.PageFingerprint {
	fp := &model.PageFingerprint{
		Source:           src,
		PageIndex:        p.Index,
		Width:            p.Width,
		Height:           p.Height,
		SignificantWords: []string{},
		FontUsage:        map[string]int{},
		Extensions:       map[string]string{},
	}
	if p.Failed {
		fp.Failed = true
		return fp
	}

	fp.Text = textsim.Normalize(p.PlainText())
	fp.TextHash = TextHash(fp.Text)
	fp.SignificantWords = significantWords(fp.Text)

	for _, r := range p.Runs {
		name := model.StripSubsetTag(r.FontName)
		if name == "" {
			continue
		}
		fp.FontUsage[name]++
	}
	fp.ElementCount = len(p.Runs) + len(p.Images)
	fp.ImageCount = len(p.Images)

	if p.Image != nil {
		hash, err := e.hasher.Hash(p.Image)
		if err != nil {
			e.logger.Warn("perceptual hash failed",
				"source", src.String(),
				"page", p.Index,
				"error", err,
			)
		}
		fp.PerceptualHash = hash
	}

	if font := dominantFont(fp.FontUsage); font != "" {
		fp.Extensions[ExtDominantFont] = font
	}
	if p.Height > 0 {
		fp.Extensions[ExtAspectRatio] = fmt.Sprintf("%.4f", p.Width/p.Height)
	}
	fp.Extensions[ExtRunCount] = fmt.Sprintf("%d", len(p.Runs))
	return fp
}

// TextHash returns the hex SHA3-256 digest of normalized text.
func TextHash(text string) string {
	sum := sha3.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// DocumentDigest hashes the normalized text of every fingerprint in order.
func DocumentDigest(fps []*model.PageFingerprint) string {
	h := sha3.New256()
	for _, fp := range fps {
		if fp == nil {
			continue
		}
		h.Write([]byte(fp.TextHash))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}

func significantWords(text string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0)
	for _, w := range textsim.Words(text) {
		if !Significant(w) {
			continue
		}
		if _, ok := seen[w]; ok {
			continue
		}
		seen[w] = struct{}{}
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}

// dominantFont returns the most used font, the alphabetically first on ties.
func dominantFont(usage map[string]int) string {
	best, count := "", 0
	for name, n := range usage {
		if n > count || (n == count && name < best) {
			best, count = name, n
		}
	}
	return best
}
