package model

// Difference is one change found between a matched pair of pages.
//
// The set of implementations is closed: TextDifference, ImageDifference,
// FontDifference, StyleDifference and MetadataDifference. Consumers switch
// on the concrete type (or on Kind) instead of inspecting string tags.
type Difference interface {
	// Kind returns the modality of the difference.
	Kind() Kind

	// Head returns the fields shared by all differences.
	Head() Header

	isDifference()
}

// Header carries the fields every difference has.
type Header struct {
	Type     ChangeType `json:"type"`
	Severity Severity   `json:"severity"`

	// Bounds is the affected area in page coordinates, zero when unknown.
	Bounds Rect `json:"bounds"`
}

// Head returns the header itself so that embedding types satisfy Difference.
func (h Header) Head() Header { return h }

// TextDifference is a changed block of lines.
type TextDifference struct {
	Header

	// Line is the 1-based line number of the change: in the compare page
	// for added and modified lines, in the base page for deleted lines.
	Line int `json:"line"`

	BaseText    string `json:"base_text,omitempty"`
	CompareText string `json:"compare_text,omitempty"`

	// Start and End are rune offsets of the changed span within the
	// compare text (base text for deletions). End is exclusive.
	Start int `json:"start"`
	End   int `json:"end"`
}

// Kind implements Difference.
func (TextDifference) Kind() Kind { return KindText }
func (TextDifference) isDifference() {}

// ImageDifference is a change to a placed image. The flags are independent
// and can be combined, e.g. an image that moved and was resized.
type ImageDifference struct {
	Header

	Name    string        `json:"name,omitempty"`
	Base    *ImageElement `json:"base,omitempty"`
	Compare *ImageElement `json:"compare,omitempty"`

	OnlyInBase          bool `json:"only_in_base"`
	OnlyInCompare       bool `json:"only_in_compare"`
	DimensionsDifferent bool `json:"dimensions_different"`
	PositionDifferent   bool `json:"position_different"`
	FormatDifferent     bool `json:"format_different"`

	// Similarity of the two images in [0,1]; 0 when one side is missing.
	Similarity float64 `json:"similarity"`
}

// Kind implements Difference.
func (ImageDifference) Kind() Kind { return KindImage }
func (ImageDifference) isDifference() {}

// FontDifference is a change to a font resource.
type FontDifference struct {
	Header

	Name    string          `json:"name"`
	Base    *FontDescriptor `json:"base,omitempty"`
	Compare *FontDescriptor `json:"compare,omitempty"`

	OnlyInBase         bool `json:"only_in_base"`
	OnlyInCompare      bool `json:"only_in_compare"`
	EmbeddingDifferent bool `json:"embedding_different"`
	SubsetDifferent    bool `json:"subset_different"`
}

// Kind implements Difference.
func (FontDifference) Kind() Kind { return KindFont }
func (FontDifference) isDifference() {}

// StyleDifference is a change in how otherwise identical text is drawn.
type StyleDifference struct {
	Header

	Line int    `json:"line"`
	Text string `json:"text"`

	// Property is one of "font", "size", "style" or "color".
	Property     string `json:"property"`
	BaseValue    string `json:"base_value"`
	CompareValue string `json:"compare_value"`
}

// Kind implements Difference.
func (StyleDifference) Kind() Kind { return KindStyle }
func (StyleDifference) isDifference() {}

// Metadata fields used by the difference extractor.
const (
	// FieldPage marks a page present in only one document.
	FieldPage = "page"

	// FieldComparison marks a pair that could not be compared.
	FieldComparison = "comparison"

	// FieldDimensions marks a change in page size.
	FieldDimensions = "dimensions"
)

// MetadataDifference is a page-level change.
type MetadataDifference struct {
	Header

	Field        string `json:"field"`
	BaseValue    string `json:"base_value,omitempty"`
	CompareValue string `json:"compare_value,omitempty"`
}

// Kind implements Difference.
func (MetadataDifference) Kind() Kind { return KindMetadata }
func (MetadataDifference) isDifference() {}

// Structural reports whether the difference describes page presence or a
// comparison failure rather than content.
func (d MetadataDifference) Structural() bool {
	return d.Field == FieldPage || d.Field == FieldComparison
}
