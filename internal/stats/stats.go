// Package stats computes descriptive statistics over bit strings.
//
// Every function in this package is a pure, deterministic computation with
// no I/O and no shared state. Functions that divide by the input length
// return bitstring.ErrEmptyInput for empty input; aggregate helpers with a
// meaningful zero (LongestRun, Burstiness) return 0 instead.
package stats

import (
	"math"

	"bitwatch/internal/bitstring"
)

// Default window configuration for pattern frequency tables.
var (
	// DefaultPatternLengths are the substring lengths counted by
	// PatternOccurrences when the caller passes none.
	DefaultPatternLengths = []int{2, 3, 4}

	// DefaultWindowSizes are the window sizes reported by
	// HierarchicalPatterns when the caller passes none.
	DefaultWindowSizes = []int{2, 4, 8, 16}
)

// TopPatternsPerWindow is how many most-common substrings each
// WindowReport carries.
const TopPatternsPerWindow = 3

// Periodicity is the best-fit repeat period and its match score.
type Periodicity struct {
	// Score is the fraction of positions consistent with Period, in [0, 1].
	Score float64 `json:"score"`

	// Period is the repeat distance, 1..len/2. Zero when the string is too
	// short to test any period.
	Period int `json:"period"`
}

// PatternCount is one substring frequency entry.
type PatternCount struct {
	Pattern string `json:"pattern"`
	Count   int    `json:"count"`
}

// WindowReport summarizes the substring frequency table for one window size.
type WindowReport struct {
	Size        int            `json:"size"`
	UniqueCount int            `json:"unique_count"`
	MostCommon  []PatternCount `json:"most_common"`
}

// Metrics is the full set of statistics computed for one bit string.
type Metrics struct {
	Length          int            `json:"length"`
	Ones            int            `json:"ones"`
	Zeros           int            `json:"zeros"`
	Entropy         float64        `json:"entropy"`
	LongestRun      int            `json:"longest_run"`
	RunLengths      []int          `json:"run_lengths"`
	AlternatingRate float64        `json:"alternating_rate"`
	Burstiness      float64        `json:"burstiness"`
	Correlation     float64        `json:"correlation"`
	Symmetry        float64        `json:"symmetry"`
	Periodicity     Periodicity    `json:"periodicity"`
	Occurrences     map[string]int `json:"pattern_occurrences"`
	Windows         []WindowReport `json:"hierarchical_patterns"`
}

// Compute fills a Metrics struct from bits using the given window
// configuration. Nil slices select the defaults.
func Compute(bits bitstring.BitString, patternLengths, windowSizes []int) (*Metrics, error) {
	entropy, err := Entropy(bits)
	if err != nil {
		return nil, err
	}

	runs := RunLengths(bits)
	alternating, err := AlternatingRate(bits)
	if err != nil {
		return nil, err
	}
	correlation, err := Correlation(bits)
	if err != nil {
		return nil, err
	}

	if patternLengths == nil {
		patternLengths = DefaultPatternLengths
	}
	if windowSizes == nil {
		windowSizes = DefaultWindowSizes
	}

	return &Metrics{
		Length:          bits.Len(),
		Ones:            bits.Ones(),
		Zeros:           bits.Zeros(),
		Entropy:         entropy,
		LongestRun:      longestOf(runs),
		RunLengths:      runs,
		AlternatingRate: alternating,
		Burstiness:      Burstiness(bits),
		Correlation:     correlation,
		Symmetry:        Symmetry(bits),
		Periodicity:     ComputePeriodicity(bits),
		Occurrences:     PatternOccurrences(bits, patternLengths),
		Windows:         HierarchicalPatterns(bits, windowSizes),
	}, nil
}

// RunFraction is the fraction of multi-bit runs relative to the string
// length: |{r in RunLengths : r > 1}| / len. The classifier thresholds
// against it.
func (m *Metrics) RunFraction() float64 {
	if m.Length == 0 {
		return 0
	}
	multi := 0
	for _, r := range m.RunLengths {
		if r > 1 {
			multi++
		}
	}
	return float64(multi) / float64(m.Length)
}

// Entropy computes the Shannon entropy (base 2) of the 0/1 frequency
// distribution. The result is in [0, 1]: 0 for a uniform string, 1 for an
// exact 50/50 split.
func Entropy(bits bitstring.BitString) (float64, error) {
	n := bits.Len()
	if n == 0 {
		return 0, bitstring.ErrEmptyInput
	}

	entropy := 0.0
	for _, count := range []int{bits.Zeros(), bits.Ones()} {
		if count == 0 {
			continue
		}
		p := float64(count) / float64(n)
		entropy -= p * math.Log2(p)
	}
	return entropy, nil
}

// RunLengths returns the length of every maximal run of identical bits,
// in order of occurrence. Empty input yields nil.
func RunLengths(bits bitstring.BitString) []int {
	if bits.Len() == 0 {
		return nil
	}

	var runs []int
	current := 1
	for i := 1; i < bits.Len(); i++ {
		if bits[i] == bits[i-1] {
			current++
			continue
		}
		runs = append(runs, current)
		current = 1
	}
	return append(runs, current)
}

// LongestRun returns the length of the longest maximal run, 0 for empty input.
func LongestRun(bits bitstring.BitString) int {
	return longestOf(RunLengths(bits))
}

func longestOf(runs []int) int {
	longest := 0
	for _, r := range runs {
		if r > longest {
			longest = r
		}
	}
	return longest
}

// AlternatingRate is the fraction of adjacent bit pairs that differ,
// in [0, 1]. Strings of length <= 1 have no pairs and rate 0.
func AlternatingRate(bits bitstring.BitString) (float64, error) {
	n := bits.Len()
	if n == 0 {
		return 0, bitstring.ErrEmptyInput
	}
	if n == 1 {
		return 0, nil
	}

	transitions := 0
	for i := 0; i+1 < n; i++ {
		if bits[i] != bits[i+1] {
			transitions++
		}
	}
	return float64(transitions) / float64(n-1), nil
}

// Burstiness is the population standard deviation of the run lengths.
// Fewer than two runs gives 0.
func Burstiness(bits bitstring.BitString) float64 {
	runs := RunLengths(bits)
	if len(runs) < 2 {
		return 0
	}

	mean := 0.0
	for _, r := range runs {
		mean += float64(r)
	}
	mean /= float64(len(runs))

	variance := 0.0
	for _, r := range runs {
		d := float64(r) - mean
		variance += d * d
	}
	variance /= float64(len(runs))

	return math.Sqrt(variance)
}

// Correlation is the adjacent 1-1 co-occurrence rate:
// sum(bits[i]*bits[i+1]) / (len-1).
//
// This is NOT a Pearson correlation coefficient. It is a biased lag-1
// co-occurrence rate kept for continuity with the historical behavior
// the classifier thresholds were tuned against. Do not "fix" it: the
// periodic/mixed boundary moves if this becomes a true correlation.
func Correlation(bits bitstring.BitString) (float64, error) {
	n := bits.Len()
	if n == 0 {
		return 0, bitstring.ErrEmptyInput
	}
	if n == 1 {
		return 0, nil
	}

	sum := 0
	for i := 0; i+1 < n; i++ {
		sum += bits.At(i) * bits.At(i+1)
	}
	return float64(sum) / float64(n-1), nil
}

// Symmetry compares the first half of the string against the reversed
// second half and returns the fraction of mirror-matching positions.
// Even-length palindromes score 1.0. Strings of length <= 1 score 0.
func Symmetry(bits bitstring.BitString) float64 {
	n := bits.Len()
	mid := n / 2
	if mid == 0 {
		return 0
	}

	matches := 0
	for i := 0; i < mid; i++ {
		if bits[i] == bits[n-1-i] {
			matches++
		}
	}
	return float64(matches) / float64(mid)
}

// ComputePeriodicity scans every candidate period p in 1..len/2, counts
// positions i with bits[i] == bits[i+p], normalizes by len-p, and returns
// the best (score, period) pair. The scan is ascending and uses strict
// greater-than, so ties resolve to the smallest period. Strings shorter
// than 2 bits have no candidate period and return the zero value.
func ComputePeriodicity(bits bitstring.BitString) Periodicity {
	n := bits.Len()
	best := Periodicity{}
	for p := 1; p <= n/2; p++ {
		matches := 0
		for i := 0; i+p < n; i++ {
			if bits[i] == bits[i+p] {
				matches++
			}
		}
		score := float64(matches) / float64(n-p)
		if score > best.Score {
			best = Periodicity{Score: score, Period: p}
		}
	}
	return best
}

// PatternOccurrences slides a window of each requested length across the
// string and counts every substring. Lengths larger than the string
// contribute nothing. Nil lengths selects DefaultPatternLengths.
func PatternOccurrences(bits bitstring.BitString, lengths []int) map[string]int {
	if lengths == nil {
		lengths = DefaultPatternLengths
	}

	counts := make(map[string]int)
	for _, size := range lengths {
		if size <= 0 {
			continue
		}
		for i := 0; i+size <= bits.Len(); i++ {
			counts[string(bits[i:i+size])]++
		}
	}
	return counts
}

// HierarchicalPatterns builds the substring frequency table for each window
// size and reports the unique count plus the top 3 most common substrings,
// ties broken by first-encountered order. Windows larger than the string
// produce an empty report for that size. Nil sizes selects
// DefaultWindowSizes.
func HierarchicalPatterns(bits bitstring.BitString, sizes []int) []WindowReport {
	if sizes == nil {
		sizes = DefaultWindowSizes
	}

	reports := make([]WindowReport, 0, len(sizes))
	for _, size := range sizes {
		if size <= 0 {
			continue
		}
		reports = append(reports, windowReport(bits, size))
	}
	return reports
}

func windowReport(bits bitstring.BitString, size int) WindowReport {
	counts := make(map[string]int)
	var order []string // first-encounter order for stable tie-breaking

	for i := 0; i+size <= bits.Len(); i++ {
		pattern := string(bits[i : i+size])
		if _, seen := counts[pattern]; !seen {
			order = append(order, pattern)
		}
		counts[pattern]++
	}

	report := WindowReport{
		Size:        size,
		UniqueCount: len(counts),
	}

	// Selection over the first-encounter list keeps ties deterministic
	// without sorting map keys.
	for len(report.MostCommon) < TopPatternsPerWindow && len(order) > 0 {
		bestIdx := 0
		for i := 1; i < len(order); i++ {
			if counts[order[i]] > counts[order[bestIdx]] {
				bestIdx = i
			}
		}
		report.MostCommon = append(report.MostCommon, PatternCount{
			Pattern: order[bestIdx],
			Count:   counts[order[bestIdx]],
		})
		order = append(order[:bestIdx], order[bestIdx+1:]...)
	}

	return report
}
