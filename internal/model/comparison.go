package model

// PageComparison is the result of differencing one page pair.
//
// Differences are kept in one typed slice per kind so the JSON form is
// self-describing; Differences returns them as a single list.
type PageComparison struct {
	// BasePage and ComparePage are 0-based indexes, InvalidIndex when absent.
	BasePage    int `json:"base_page"`
	ComparePage int `json:"compare_page"`

	// Similarity is the fused score the matcher assigned to the pair.
	Similarity float64 `json:"similarity"`

	// VisualSimilarity is the SSIM of the two rendered pages,
	// nil when either raster is missing.
	VisualSimilarity *float64 `json:"visual_similarity,omitempty"`

	OnlyInBase          bool `json:"only_in_base"`
	OnlyInCompare       bool `json:"only_in_compare"`
	DimensionsDifferent bool `json:"dimensions_different"`

	// Failed is set when either page carried an extraction failure.
	Failed        bool   `json:"failed,omitempty"`
	FailureReason string `json:"failure_reason,omitempty"`

	TextDifferences     []TextDifference     `json:"text_differences"`
	ImageDifferences    []ImageDifference    `json:"image_differences"`
	FontDifferences     []FontDifference     `json:"font_differences"`
	StyleDifferences    []StyleDifference    `json:"style_differences"`
	MetadataDifferences []MetadataDifference `json:"metadata_differences"`
}

// NewPageComparison creates an empty comparison for a pair of page indexes.
func NewPageComparison(basePage, comparePage int) *PageComparison {
	return &PageComparison{
		BasePage:            basePage,
		ComparePage:         comparePage,
		OnlyInBase:          basePage >= 0 && comparePage < 0,
		OnlyInCompare:       basePage < 0 && comparePage >= 0,
		TextDifferences:     []TextDifference{},
		ImageDifferences:    []ImageDifference{},
		FontDifferences:     []FontDifference{},
		StyleDifferences:    []StyleDifference{},
		MetadataDifferences: []MetadataDifference{},
	}
}

// Add appends a difference to the slice of its kind.
func (c *PageComparison) Add(d Difference) {
	switch v := d.(type) {
	case TextDifference:
		c.TextDifferences = append(c.TextDifferences, v)
	case ImageDifference:
		c.ImageDifferences = append(c.ImageDifferences, v)
	case FontDifference:
		c.FontDifferences = append(c.FontDifferences, v)
	case StyleDifference:
		c.StyleDifferences = append(c.StyleDifferences, v)
	case MetadataDifference:
		c.MetadataDifferences = append(c.MetadataDifferences, v)
	}
}

// Differences returns all differences: metadata first, then text, image,
// font and style.
func (c *PageComparison) Differences() []Difference {
	out := make([]Difference, 0, c.DifferenceCount())
	for _, d := range c.MetadataDifferences {
		out = append(out, d)
	}
	for _, d := range c.TextDifferences {
		out = append(out, d)
	}
	for _, d := range c.ImageDifferences {
		out = append(out, d)
	}
	for _, d := range c.FontDifferences {
		out = append(out, d)
	}
	for _, d := range c.StyleDifferences {
		out = append(out, d)
	}
	return out
}

// DifferenceCount returns the total number of differences.
func (c *PageComparison) DifferenceCount() int {
	return len(c.TextDifferences) + len(c.ImageDifferences) + len(c.FontDifferences) +
		len(c.StyleDifferences) + len(c.MetadataDifferences)
}

// HighestSeverity returns the most severe difference and whether there was any.
func (c *PageComparison) HighestSeverity() (Severity, bool) {
	var (
		best  Severity
		found bool
	)
	for _, d := range c.Differences() {
		if s := d.Head().Severity; !found || s > best {
			best, found = s, true
		}
	}
	return best, found
}
