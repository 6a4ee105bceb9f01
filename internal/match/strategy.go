package match

import (
	"errors"
	"fmt"
	"strings"
)

// Strategy selects how pages are paired.
type Strategy string

const (
	// StrategyFused scores every page pair with the fused visual and text
	// similarity.
	StrategyFused Strategy = "fused"

	// StrategyTwoPhase first pairs pages on the visual signal alone and
	// scores only the leftovers with the fused similarity.
	StrategyTwoPhase Strategy = "two-phase"
)

// DefaultVisualThreshold is the first-phase threshold of two-phase matching.
const DefaultVisualThreshold = 0.95

// ErrUnknownStrategy is returned by ParseStrategy for unknown names.
var ErrUnknownStrategy = errors.New("unknown matching strategy")

// Strategies lists the supported strategies.
var Strategies = []Strategy{StrategyFused, StrategyTwoPhase}

// ParseStrategy parses a strategy name. The empty name selects StrategyFused.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", string(StrategyFused):
		return StrategyFused, nil
	case string(StrategyTwoPhase), "twophase", "two_phase":
		return StrategyTwoPhase, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownStrategy, name)
	}
}
