package model

import (
	"fmt"
	"strings"
)

// Severity ranks how much a difference matters to a reviewer.
//
// The values are ordered so that a larger value is more severe, which lets
// callers sort and compare severities directly.
type Severity int

const (
	// SeverityCosmetic is a change with no effect on meaning,
	// such as a color tweak.
	SeverityCosmetic Severity = iota

	// SeverityMinor is a local change to text or styling.
	SeverityMinor

	// SeverityMajor is a change to page furniture that is likely to be
	// noticed, such as a replaced image or a different font.
	SeverityMajor

	// SeverityCritical is a structural change: a page exists in only one
	// revision or could not be compared at all.
	SeverityCritical
)

// Severities lists all severities from most to least severe.
var Severities = []Severity{SeverityCritical, SeverityMajor, SeverityMinor, SeverityCosmetic}

// String returns the upper-case name of the severity.
func (s Severity) String() string {
	switch s {
	case SeverityCosmetic:
		return "COSMETIC"
	case SeverityMinor:
		return "MINOR"
	case SeverityMajor:
		return "MAJOR"
	case SeverityCritical:
		return "CRITICAL"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the severity as its lower-case name.
func (s Severity) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(s.String())), nil
}

// UnmarshalText decodes a severity name, case-insensitively.
func (s *Severity) UnmarshalText(text []byte) error {
	v, err := ParseSeverity(string(text))
	if err != nil {
		return err
	}
	*s = v
	return nil
}

// ParseSeverity parses a severity name such as "major".
func ParseSeverity(name string) (Severity, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cosmetic":
		return SeverityCosmetic, nil
	case "minor":
		return SeverityMinor, nil
	case "major":
		return SeverityMajor, nil
	case "critical":
		return SeverityCritical, nil
	default:
		return 0, fmt.Errorf("unknown severity %q", name)
	}
}

// ChangeType describes what happened to an element between revisions.
type ChangeType int

const (
	// ChangeAdded means the element exists only in the compare document.
	ChangeAdded ChangeType = iota

	// ChangeDeleted means the element exists only in the base document.
	ChangeDeleted

	// ChangeModified means the element exists in both and differs.
	ChangeModified
)

// String returns the upper-case name of the change type.
func (c ChangeType) String() string {
	switch c {
	case ChangeAdded:
		return "ADDED"
	case ChangeDeleted:
		return "DELETED"
	case ChangeModified:
		return "MODIFIED"
	default:
		return "UNKNOWN"
	}
}

// MarshalText encodes the change type as its lower-case name.
func (c ChangeType) MarshalText() ([]byte, error) {
	return []byte(strings.ToLower(c.String())), nil
}

// UnmarshalText decodes a change type name.
func (c *ChangeType) UnmarshalText(text []byte) error {
	switch strings.ToLower(string(text)) {
	case "added":
		*c = ChangeAdded
	case "deleted":
		*c = ChangeDeleted
	case "modified":
		*c = ChangeModified
	default:
		return fmt.Errorf("unknown change type %q", string(text))
	}
	return nil
}

// Kind is the modality a difference was found in.
type Kind int

const (
	// KindText covers line-level text changes.
	KindText Kind = iota
	// KindImage covers placed images.
	KindImage
	// KindFont covers font resources.
	KindFont
	// KindStyle covers font, size, style and color of unchanged text.
	KindStyle
	// KindMetadata covers page-level facts: presence, geometry, failures.
	KindMetadata
)

// Kinds lists all difference kinds in report order.
var Kinds = []Kind{KindMetadata, KindText, KindImage, KindFont, KindStyle}

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindImage:
		return "image"
	case KindFont:
		return "font"
	case KindStyle:
		return "style"
	case KindMetadata:
		return "metadata"
	default:
		return "unknown"
	}
}

// MarshalText encodes the kind as its name.
func (k Kind) MarshalText() ([]byte, error) {
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// ParseKind parses a kind name such as "font".
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "text":
		return KindText, nil
	case "image":
		return KindImage, nil
	case "font":
		return KindFont, nil
	case "style":
		return KindStyle, nil
	case "metadata":
		return KindMetadata, nil
	default:
		return 0, fmt.Errorf("unknown difference kind %q", name)
	}
}

// SeverityPolicy maps difference categories to severities.
// Structural covers page presence and comparison failures, which are
// reported as metadata differences but rank above ordinary metadata.
type SeverityPolicy struct {
	Structural Severity `json:"structural" yaml:"structural"`
	Text       Severity `json:"text" yaml:"text"`
	Image      Severity `json:"image" yaml:"image"`
	Font       Severity `json:"font" yaml:"font"`
	Style      Severity `json:"style" yaml:"style"`
	Metadata   Severity `json:"metadata" yaml:"metadata"`
}

// DefaultSeverityPolicy returns the standard mapping: structural changes are
// critical, image and font changes major, text and style changes minor.
func DefaultSeverityPolicy() SeverityPolicy {
	return SeverityPolicy{
		Structural: SeverityCritical,
		Text:       SeverityMinor,
		Image:      SeverityMajor,
		Font:       SeverityMajor,
		Style:      SeverityMinor,
		Metadata:   SeverityMinor,
	}
}

// ForKind returns the severity for an ordinary difference of kind k.
func (p SeverityPolicy) ForKind(k Kind) Severity {
	switch k {
	case KindText:
		return p.Text
	case KindImage:
		return p.Image
	case KindFont:
		return p.Font
	case KindStyle:
		return p.Style
	case KindMetadata:
		return p.Metadata
	default:
		return p.Metadata
	}
}

// Override returns a copy of p with the named categories replaced.
// Keys are kind names or "structural"; values are severity names.
func (p SeverityPolicy) Override(overrides map[string]string) (SeverityPolicy, error) {
	out := p
	for key, value := range overrides {
		sev, err := ParseSeverity(value)
		if err != nil {
			return p, err
		}
		if strings.EqualFold(strings.TrimSpace(key), "structural") {
			out.Structural = sev
			continue
		}
		kind, err := ParseKind(key)
		if err != nil {
			return p, err
		}
		switch kind {
		case KindText:
			out.Text = sev
		case KindImage:
			out.Image = sev
		case KindFont:
			out.Font = sev
		case KindStyle:
			out.Style = sev
		case KindMetadata:
			out.Metadata = sev
		}
	}
	return out, nil
}
