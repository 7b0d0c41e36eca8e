package classify

import (
	"math"
	"math/rand"
	"strings"
	"testing"

	"bitwatch/internal/bitstring"
	"bitwatch/internal/stats"
)

func metricsFor(t *testing.T, bits string) *stats.Metrics {
	t.Helper()
	m, err := stats.Compute(bitstring.BitString(bits), nil, nil)
	if err != nil {
		t.Fatalf("Compute(%q) error: %v", bits, err)
	}
	return m
}

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		bits     string
		expected PatternType
	}{
		{
			name:     "strict alternation",
			bits:     "1010101010",
			expected: PatternAlternating,
		},
		{
			name: "repeating blocks",
			// Runs of 3: multi-run fraction 4/12 exceeds 0.3, which also
			// blocks the random rule despite full entropy.
			bits:     "111000111000",
			expected: PatternPeriodic,
		},
		{
			name: "correlation override",
			// Run fraction 0.2 is below threshold, but adjacent ones
			// co-occur at 7/9.
			bits:     "1111101111",
			expected: PatternPeriodic,
		},
		{
			name: "high entropy without run or alternation signal",
			// Near-even split (15/10), 9 transitions over 24 pairs, and
			// only 6 of 25 positions start multi-bit runs.
			bits:     "1111011100001000111101110",
			expected: PatternRandom,
		},
		{
			name: "sparse ones fall through to mixed",
			// Low entropy, no alternation, short run fraction, zero
			// adjacent-ones correlation.
			bits:     "0000100001000010000",
			expected: PatternMixed,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(metricsFor(t, tt.bits), DefaultThresholds())
			if got.Type != tt.expected {
				t.Errorf("Classify(%q).Type = %q, want %q", tt.bits, got.Type, tt.expected)
			}
		})
	}
}

func TestClassifyPriorityOrder(t *testing.T) {
	// An alternating string has maximal entropy, but the random rule
	// requires a low alternating rate, so alternation wins.
	m := metricsFor(t, "10101010101010101010")
	if m.Entropy < 0.99 {
		t.Fatalf("precondition: entropy = %v, want ~1", m.Entropy)
	}
	got := Classify(m, DefaultThresholds())
	if got.Type != PatternAlternating {
		t.Errorf("Type = %q, want %q", got.Type, PatternAlternating)
	}
}

func TestClassifyEmptyMetrics(t *testing.T) {
	got := Classify(nil, DefaultThresholds())
	if got.Type != PatternMixed || got.ComplexityLevel != 0 {
		t.Errorf("Classify(nil) = %+v, want {mixed 0}", got)
	}

	got = Classify(&stats.Metrics{}, DefaultThresholds())
	if got.Type != PatternMixed || got.ComplexityLevel != 0 {
		t.Errorf("Classify(zero metrics) = %+v, want {mixed 0}", got)
	}
}

func TestClassifyCustomThresholds(t *testing.T) {
	m := metricsFor(t, "1100110011")

	// At the default 0.4 boundary the 4/9 transition rate reads as
	// alternating.
	got := Classify(m, DefaultThresholds())
	if got.Type != PatternAlternating {
		t.Errorf("default thresholds: Type = %q, want %q", got.Type, PatternAlternating)
	}

	// Raising the alternation boundary exposes the run structure.
	custom := DefaultThresholds()
	custom.AlternatingRate = 0.5
	got = Classify(m, custom)
	if got.Type != PatternPeriodic {
		t.Errorf("raised boundary: Type = %q, want %q", got.Type, PatternPeriodic)
	}
}

func TestComplexityLevel(t *testing.T) {
	// Entropy 1.0, longest run 2, length 4: 1.0 * (1 + 2/4).
	m := metricsFor(t, "1100")
	if got := ComplexityLevel(m); math.Abs(got-1.5) > 1e-9 {
		t.Errorf("ComplexityLevel = %v, want 1.5", got)
	}

	// Uniform string has zero entropy, hence zero complexity.
	m = metricsFor(t, "11111111")
	if got := ComplexityLevel(m); got != 0 {
		t.Errorf("ComplexityLevel of uniform string = %v, want 0", got)
	}

	if got := ComplexityLevel(nil); got != 0 {
		t.Errorf("ComplexityLevel(nil) = %v, want 0", got)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	// Seeded generator, so the same metrics arrive every run.
	rng := rand.New(rand.NewSource(42))
	var sb strings.Builder
	for i := 0; i < 1000; i++ {
		if rng.Intn(2) == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	bits := sb.String()

	first := Classify(metricsFor(t, bits), DefaultThresholds())
	for i := 0; i < 3; i++ {
		again := Classify(metricsFor(t, bits), DefaultThresholds())
		if again != first {
			t.Fatalf("classification changed between runs: %+v vs %+v", again, first)
		}
	}

	// A uniform coin flip transitions on roughly half of the adjacent
	// pairs, which is well past the alternation boundary.
	if first.Type != PatternAlternating {
		t.Errorf("Type = %q, want %q", first.Type, PatternAlternating)
	}
}
