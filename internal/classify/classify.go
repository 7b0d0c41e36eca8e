// Package classify maps bit-string metrics to a categorical pattern type.
package classify

import "bitwatch/internal/stats"

// PatternType is the categorical classification of a bit string.
type PatternType string

const (
	// PatternAlternating marks strings dominated by 0/1 transitions.
	PatternAlternating PatternType = "alternating"
	// PatternPeriodic marks locally repetitive, non-alternating strings.
	// Run-heavy strings land here too: the historical "run-based" label
	// was the same semantic bucket under a different name.
	PatternPeriodic PatternType = "periodic"
	// PatternRandom marks high-entropy strings with no strong run or
	// alternation signal.
	PatternRandom PatternType = "random"
	// PatternMixed is the fallback for everything else.
	PatternMixed PatternType = "mixed"
)

// Thresholds are the classifier decision boundaries. They are carried as
// data rather than constants so call sites can tune them from config.
type Thresholds struct {
	// AlternatingRate above which a string classifies as alternating.
	AlternatingRate float64 `json:"alternating_rate" toml:"alternating_rate"`

	// RunFraction (multi-bit runs / length) above which a string is
	// locally repetitive.
	RunFraction float64 `json:"run_fraction" toml:"run_fraction"`

	// Correlation above which a string is locally repetitive even when
	// the run fraction is low.
	Correlation float64 `json:"correlation" toml:"correlation"`

	// RandomEntropy is the entropy floor for the random classification.
	RandomEntropy float64 `json:"random_entropy" toml:"random_entropy"`
}

// DefaultThresholds returns the canonical decision boundaries.
func DefaultThresholds() Thresholds {
	return Thresholds{
		AlternatingRate: 0.4,
		RunFraction:     0.3,
		Correlation:     0.7,
		RandomEntropy:   0.9,
	}
}

// Classification is the categorical result for one analysis.
type Classification struct {
	Type            PatternType `json:"type"`
	ComplexityLevel float64     `json:"complexity_level"`
}

// Classify applies the threshold rules to m in priority order:
//
//  1. high entropy with no alternation or run signal -> random
//  2. high alternating rate                          -> alternating
//  3. high run fraction or high correlation          -> periodic
//  4. otherwise                                      -> mixed
//
// Classification never fails: nil or zero-length metrics return
// {mixed, 0}.
func Classify(m *stats.Metrics, t Thresholds) Classification {
	if m == nil || m.Length == 0 {
		return Classification{Type: PatternMixed}
	}

	runFraction := m.RunFraction()

	var patternType PatternType
	switch {
	case m.Entropy > t.RandomEntropy &&
		m.AlternatingRate <= t.AlternatingRate &&
		runFraction <= t.RunFraction:
		patternType = PatternRandom
	case m.AlternatingRate > t.AlternatingRate:
		patternType = PatternAlternating
	case runFraction > t.RunFraction || m.Correlation > t.Correlation:
		patternType = PatternPeriodic
	default:
		patternType = PatternMixed
	}

	return Classification{
		Type:            patternType,
		ComplexityLevel: ComplexityLevel(m),
	}
}

// ComplexityLevel is entropy * (1 + longestRun/length), 0 for empty metrics.
func ComplexityLevel(m *stats.Metrics) float64 {
	if m == nil || m.Length == 0 {
		return 0
	}
	return m.Entropy * (1 + float64(m.LongestRun)/float64(m.Length))
}
