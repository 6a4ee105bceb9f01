package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate and Config.ValidateTuning
// and can be checked with errors.Is.
var (
	// ErrMissingDocuments is returned when base or compare document is missing.
	ErrMissingDocuments = errors.New("two documents required: provide a base and a compare document")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidThreshold is returned when the similarity threshold is outside (0,1].
	ErrInvalidThreshold = errors.New("invalid threshold: must be in (0,1]")

	// ErrInvalidVisualThreshold is returned when the two-phase visual
	// threshold is outside (0,1].
	ErrInvalidVisualThreshold = errors.New("invalid visual threshold: must be in (0,1]")

	// ErrUnknownStrategy is returned for an unknown matching strategy.
	ErrUnknownStrategy = errors.New("unknown strategy: must be fused or two-phase")

	// ErrInvalidWeights is returned when a weight group is negative or
	// does not sum to 1.
	ErrInvalidWeights = errors.New("invalid weights")

	// ErrInvalidMinSegmentPages is returned when the minimum segment size is below 1.
	ErrInvalidMinSegmentPages = errors.New("invalid minimum segment pages: must be at least 1")

	// ErrInvalidTitleHeuristic is returned for an unusable title font size
	// or length range.
	ErrInvalidTitleHeuristic = errors.New("invalid title heuristic: font size must be non-negative and 0 <= min length <= max length")

	// ErrInvalidSSIMWindow is returned when the SSIM window is not positive.
	ErrInvalidSSIMWindow = errors.New("invalid SSIM window: must be positive")

	// ErrInvalidHashGrid is returned when the hash grid is smaller than 2.
	ErrInvalidHashGrid = errors.New("invalid hash grid: must be at least 2")

	// ErrUnknownHashKind is returned for an unknown perceptual hash kind.
	ErrUnknownHashKind = errors.New("unknown hash kind: must be gradient or average")

	// ErrInvalidConcurrency is returned when concurrency is not positive.
	ErrInvalidConcurrency = errors.New("invalid concurrency: must be positive")

	// ErrInvalidTimeout is returned when the timeout is not positive.
	ErrInvalidTimeout = errors.New("invalid timeout: must be positive")

	// ErrInvalidSeverity is returned when the tuning file names an unknown
	// severity or difference kind.
	ErrInvalidSeverity = errors.New("invalid severity override")
)
