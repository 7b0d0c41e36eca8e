// Package analysis assembles bit-string statistics and classification into
// immutable analysis records.
package analysis

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"bitwatch/internal/bitstring"
	"bitwatch/internal/classify"
	"bitwatch/internal/stats"
)

// IDInputPrefix is how many input characters participate in the record ID
// hash. Longer inputs with the same prefix, entropy, and type collapse to
// the same ID, matching the store's deduplication contract.
const IDInputPrefix = 100

// ResultKind tags the shape of an analysis result.
type ResultKind string

const (
	// KindNormal is a full analysis with metrics and classification.
	KindNormal ResultKind = "normal"
	// KindAllOnes marks a degenerate input of only '1' bits.
	KindAllOnes ResultKind = "all_ones"
	// KindAllZeros marks a degenerate input of only '0' bits.
	KindAllZeros ResultKind = "all_zeros"
)

// Record is the unit handed to the history store. It is immutable once
// built; deduplication, pruning, and archival are the store's concern.
type Record struct {
	ID             string                  `json:"id"`
	Timestamp      int64                   `json:"timestamp"`
	Kind           ResultKind              `json:"kind"`
	Input          string                  `json:"input"`
	Metrics        stats.Metrics           `json:"metrics"`
	Classification classify.Classification `json:"classification"`
	Summary        string                  `json:"summary"`
}

// Options configures an Analyzer.
type Options struct {
	// Thresholds are the classifier boundaries. Zero value selects
	// classify.DefaultThresholds.
	Thresholds classify.Thresholds

	// PatternLengths are the substring lengths for the occurrence table.
	// Nil selects stats.DefaultPatternLengths.
	PatternLengths []int

	// WindowSizes are the hierarchical window sizes. Nil selects
	// stats.DefaultWindowSizes.
	WindowSizes []int

	// Strict rejects non-bit characters instead of stripping them.
	Strict bool

	// Now supplies record timestamps. Nil selects time.Now.
	Now func() time.Time
}

// Analyzer turns raw input strings into analysis records. It holds no
// mutable state between calls; a single Analyzer is safe for concurrent use.
type Analyzer struct {
	thresholds     classify.Thresholds
	patternLengths []int
	windowSizes    []int
	strict         bool
	now            func() time.Time
}

// New creates an Analyzer from opts.
func New(opts Options) *Analyzer {
	if opts.Thresholds == (classify.Thresholds{}) {
		opts.Thresholds = classify.DefaultThresholds()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Analyzer{
		thresholds:     opts.Thresholds,
		patternLengths: opts.PatternLengths,
		windowSizes:    opts.WindowSizes,
		strict:         opts.Strict,
		now:            opts.Now,
	}
}

// Default returns an Analyzer with canonical settings.
func Default() *Analyzer {
	return New(Options{})
}

// Analyze runs the full pipeline on input: preprocess, compute metrics,
// classify, build the record. In the default mode non-bit characters are
// stripped first; in strict mode they return bitstring.ErrInvalidCharacter.
// Empty input (before or after sanitization) returns bitstring.ErrEmptyInput.
func (a *Analyzer) Analyze(input string) (*Record, error) {
	bits, err := a.preprocess(input)
	if err != nil {
		return nil, err
	}

	metrics, err := stats.Compute(bits, a.patternLengths, a.windowSizes)
	if err != nil {
		return nil, err
	}

	classification := classify.Classify(metrics, a.thresholds)

	record := &Record{
		ID:             RecordID(bits, metrics.Entropy, classification.Type),
		Timestamp:      a.now().Unix(),
		Kind:           resultKind(bits),
		Input:          bits.String(),
		Metrics:        *metrics,
		Classification: classification,
		Summary:        Summary(classification.Type, metrics.Entropy),
	}
	return record, nil
}

func (a *Analyzer) preprocess(input string) (bitstring.BitString, error) {
	if a.strict {
		return bitstring.Parse(input)
	}
	bits := bitstring.Sanitize(input)
	if bits.Len() == 0 {
		return "", bitstring.ErrEmptyInput
	}
	return bits, nil
}

func resultKind(bits bitstring.BitString) ResultKind {
	if !bits.AllSame() {
		return KindNormal
	}
	if bits[0] == '1' {
		return KindAllOnes
	}
	return KindAllZeros
}

// RecordID derives the deterministic content hash used as the store's
// deduplication key. It is stable across repeated analyses of the same
// (input, entropy, type) triple.
func RecordID(bits bitstring.BitString, entropy float64, patternType classify.PatternType) string {
	h := sha256.New()
	fmt.Fprintf(h, "%.12f|%s|%s", entropy, patternType, bits.Truncate(IDInputPrefix))
	return hex.EncodeToString(h.Sum(nil))
}

// Summary renders the one-line human-readable result description.
func Summary(patternType classify.PatternType, entropy float64) string {
	return fmt.Sprintf("Pattern analyzed: %s with entropy %.4f", patternType, entropy)
}
