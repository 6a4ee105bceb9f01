package config

import (
	"fmt"
	"path/filepath"
	"runtime"
	"time"

	"github.com/adrg/xdg"
	"github.com/nao1215/pagediff/internal/match"
	"github.com/nao1215/pagediff/internal/model"
	"github.com/nao1215/pagediff/internal/score"
	"github.com/nao1215/pagediff/internal/segment"
	"github.com/nao1215/pagediff/internal/textsim"
	"github.com/nao1215/pagediff/internal/visual"
)

// Default configuration values.
const (
	// DefaultThreshold is the minimum fused similarity for a committed pair.
	DefaultThreshold = match.DefaultThreshold

	// DefaultVisualThreshold is the first-phase threshold of the two-phase
	// strategy. It is high because phase one commits pairs on the visual
	// signal alone.
	DefaultVisualThreshold = match.DefaultVisualThreshold

	// DefaultStrategy scores every page pair with the fused similarity.
	DefaultStrategy = string(match.StrategyFused)

	// DefaultMinSegmentPages is the smallest segment emitted on its own.
	DefaultMinSegmentPages = segment.DefaultMinPages

	// DefaultTitleFontSize is the font size a run must exceed to be a title.
	DefaultTitleFontSize = segment.DefaultTitleFontSize

	// DefaultTitleMinLength and DefaultTitleMaxLength bound title length.
	DefaultTitleMinLength = segment.DefaultTitleMinLen
	DefaultTitleMaxLength = segment.DefaultTitleMaxLen

	// DefaultSSIMWindow is the SSIM window edge length in pixels.
	DefaultSSIMWindow = visual.DefaultWindow

	// DefaultHashGrid gives 64-bit perceptual hashes.
	DefaultHashGrid = visual.DefaultHashGrid

	// DefaultHashKind is the gradient (difference) hash.
	DefaultHashKind = "gradient"

	// DefaultTimeout is the wall-clock budget of one comparison.
	DefaultTimeout = 5 * time.Minute

	// DefaultRenderPattern names page rasters in an image directory.
	// It receives the 1-based page number.
	DefaultRenderPattern = "page-%03d"

	// AppName is the application name used for XDG directory paths.
	AppName = "pagediff"
)

// Config holds all configuration options for pagediff.
// It is populated from defaults, the YAML tuning file and CLI flags, in
// that order, and passed to the engine by value.
type Config struct {
	// BasePath and ComparePath are the two documents to compare.
	BasePath    string
	ComparePath string

	// BaseImageDir and CompareImageDir hold rendered page rasters.
	// When empty, PDF inputs are compared without a visual signal.
	BaseImageDir    string
	CompareImageDir string

	// RenderPattern is the fmt pattern of raster file names without
	// extension, e.g. "page-%03d" for page-001.png.
	RenderPattern string

	// Threshold is the minimum fused similarity for a committed pair.
	Threshold float64

	// VisualThreshold is the phase-one threshold of the two-phase strategy.
	VisualThreshold float64

	// Strategy is "fused" or "two-phase".
	Strategy string

	// PageWeights, SegmentWeights and TextWeights are the fusion weights.
	PageWeights    score.PageWeights
	SegmentWeights score.SegmentWeights
	TextWeights    textsim.Weights

	// MinSegmentPages is the smallest segment emitted on its own; shorter
	// runs are merged into the preceding segment.
	MinSegmentPages int

	// TitleFontSize, TitleMinLength and TitleMaxLength drive title detection.
	TitleFontSize  float64
	TitleMinLength int
	TitleMaxLength int

	// SSIMWindow is the SSIM window edge length in pixels.
	SSIMWindow int

	// HashGrid and HashKind configure the perceptual hash.
	HashGrid int
	HashKind string

	// ContentTypes maps a content-type label to its keywords.
	ContentTypes map[string][]string

	// Severity maps difference categories to severities.
	Severity model.SeverityPolicy

	// Concurrency bounds the number of comparison units run at once.
	Concurrency int

	// Timeout is the wall-clock budget of one comparison.
	Timeout time.Duration

	// Verbose enables debug logging.
	Verbose bool

	// ConfigFilePath is the path to the YAML tuning file.
	// If empty, FindConfigFile searches the default locations.
	ConfigFilePath string

	// JSONReport and MarkdownReport select the report format.
	// They are mutually exclusive; the default is plain text.
	JSONReport     bool
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When empty, the report is written to stdout.
	ReportFile string

	// DBDir is the directory of the history database.
	DBDir string

	// SaveToDB stores the report in the history database.
	SaveToDB bool
}

// NewConfig creates a new Config with default values.
func NewConfig() *Config {
	return &Config{
		RenderPattern:   DefaultRenderPattern,
		Threshold:       DefaultThreshold,
		VisualThreshold: DefaultVisualThreshold,
		Strategy:        DefaultStrategy,
		PageWeights:     score.DefaultPageWeights(),
		SegmentWeights:  score.DefaultSegmentWeights(),
		TextWeights:     textsim.DefaultWeights(),
		MinSegmentPages: DefaultMinSegmentPages,
		TitleFontSize:   DefaultTitleFontSize,
		TitleMinLength:  DefaultTitleMinLength,
		TitleMaxLength:  DefaultTitleMaxLength,
		SSIMWindow:      DefaultSSIMWindow,
		HashGrid:        DefaultHashGrid,
		HashKind:        DefaultHashKind,
		ContentTypes:    segment.DefaultCategories(),
		Severity:        model.DefaultSeverityPolicy(),
		Concurrency:     runtime.GOMAXPROCS(0),
		Timeout:         DefaultTimeout,
		DBDir:           XDGDataDir(),
		SaveToDB:        true,
	}
}

// XDGDataDir returns the XDG data directory for pagediff.
// On Linux: ~/.local/share/pagediff
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for pagediff.
// On Linux: ~/.config/pagediff
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// XDGCacheDir returns the XDG cache directory for pagediff.
// On Linux: ~/.cache/pagediff
func XDGCacheDir() string {
	return filepath.Join(xdg.CacheHome, AppName)
}

// Validate checks the whole configuration, including the CLI inputs.
// It returns the first problem found.
func (c *Config) Validate() error {
	if c.BasePath == "" || c.ComparePath == "" {
		return ErrMissingDocuments
	}
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}
	return c.ValidateTuning()
}

// ValidateTuning checks the engine knobs only. Misconfiguration is fatal
// and must be reported before a comparison starts.
func (c *Config) ValidateTuning() error {
	if !(c.Threshold > 0 && c.Threshold <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidThreshold, c.Threshold)
	}
	if !(c.VisualThreshold > 0 && c.VisualThreshold <= 1) {
		return fmt.Errorf("%w: got %v", ErrInvalidVisualThreshold, c.VisualThreshold)
	}
	if _, err := match.ParseStrategy(c.Strategy); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownStrategy, c.Strategy)
	}
	if err := c.PageWeights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWeights, err)
	}
	if err := c.SegmentWeights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWeights, err)
	}
	if err := c.TextWeights.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWeights, err)
	}
	if c.MinSegmentPages < 1 {
		return ErrInvalidMinSegmentPages
	}
	if c.TitleFontSize < 0 || c.TitleMinLength < 0 || c.TitleMaxLength < 1 || c.TitleMinLength > c.TitleMaxLength {
		return ErrInvalidTitleHeuristic
	}
	if c.SSIMWindow < 1 {
		return ErrInvalidSSIMWindow
	}
	if c.HashGrid < 2 {
		return ErrInvalidHashGrid
	}
	if _, err := visual.ParseHashKind(c.HashKind); err != nil {
		return fmt.Errorf("%w: %q", ErrUnknownHashKind, c.HashKind)
	}
	if c.Concurrency <= 0 {
		return ErrInvalidConcurrency
	}
	if c.Timeout <= 0 {
		return ErrInvalidTimeout
	}
	return nil
}

// ParsedStrategy returns the matching strategy. It must only be called on
// a validated configuration.
func (c *Config) ParsedStrategy() match.Strategy {
	s, _ := match.ParseStrategy(c.Strategy)
	return s
}

// ParsedHashKind returns the hash kind. It must only be called on a
// validated configuration.
func (c *Config) ParsedHashKind() visual.HashKind {
	k, _ := visual.ParseHashKind(c.HashKind)
	return k
}
