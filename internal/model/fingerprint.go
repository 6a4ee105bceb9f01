package model

// PageFingerprint is a compact feature summary of one page.
// It is built once per page before matching and is read-only afterwards,
// so it can be shared freely between comparison workers.
type PageFingerprint struct {
	// Source and PageIndex identify the page the fingerprint belongs to.
	Source    Source `json:"source"`
	PageIndex int    `json:"page_index"`

	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	// Text is the normalized page text used by the text comparators.
	Text string `json:"text"`

	// TextHash is the hex SHA3-256 digest of Text.
	// Pages with equal hashes have identical normalized text.
	TextHash string `json:"text_hash"`

	// SignificantWords is the sorted set of non-stopword terms.
	SignificantWords []string `json:"significant_words"`

	// FontUsage counts text runs per font name.
	FontUsage map[string]int `json:"font_usage"`

	ElementCount int `json:"element_count"`
	ImageCount   int `json:"image_count"`

	// PerceptualHash is the encoded visual hash of the rendered page.
	// It is empty when no raster was available or hashing failed.
	PerceptualHash string `json:"perceptual_hash,omitempty"`

	// Failed mirrors the page's extraction failure marker.
	Failed bool `json:"failed,omitempty"`

	// Extensions holds additional features keyed by name.
	Extensions map[string]string `json:"extensions,omitempty"`
}

// HasVisual reports whether a perceptual hash is available.
func (f *PageFingerprint) HasVisual() bool {
	return f != nil && f.PerceptualHash != ""
}

// HasText reports whether the page carries any normalized text.
func (f *PageFingerprint) HasText() bool {
	return f != nil && f.Text != ""
}

// SegmentFeatures are the per-segment features consumed by the segment scorer.
type SegmentFeatures struct {
	// FullText is the normalized text of all pages in the segment.
	FullText string `json:"full_text"`

	// Keywords are the most frequent significant words, most frequent first.
	Keywords []string `json:"keywords"`

	// ContentType is the classifier label, e.g. "financial" or "general".
	ContentType string `json:"content_type"`

	// PageDims holds width and height of every page in the segment.
	PageDims []Dim `json:"page_dims"`

	ImageCount int `json:"image_count"`
}

// Dim is a page size.
type Dim struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DocumentSegment is a contiguous, inclusive page range treated as one
// logical sub-document.
type DocumentSegment struct {
	StartPage int             `json:"start_page"`
	EndPage   int             `json:"end_page"`
	Title     string          `json:"title"`
	Features  SegmentFeatures `json:"features"`
}

// PageCount returns the number of pages in the segment.
func (s DocumentSegment) PageCount() int {
	return s.EndPage - s.StartPage + 1
}

// Range returns the segment's page range.
func (s DocumentSegment) Range() Range {
	return Range{Start: s.StartPage, End: s.EndPage}
}
