package analysis

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"bitwatch/internal/bitstring"
	"bitwatch/internal/classify"
)

func fixedClock() func() time.Time {
	t := time.Date(2026, 3, 14, 9, 26, 53, 0, time.UTC)
	return func() time.Time { return t }
}

func TestAnalyzeIdempotent(t *testing.T) {
	a := New(Options{Now: fixedClock()})

	first, err := a.Analyze("1100110011")
	if err != nil {
		t.Fatalf("first Analyze error: %v", err)
	}
	second, err := a.Analyze("1100110011")
	if err != nil {
		t.Fatalf("second Analyze error: %v", err)
	}

	if first.ID != second.ID {
		t.Errorf("IDs differ: %s vs %s", first.ID, second.ID)
	}
	if !reflect.DeepEqual(first.Metrics, second.Metrics) {
		t.Error("metrics differ between identical analyses")
	}
	if first.Classification != second.Classification {
		t.Errorf("classifications differ: %+v vs %+v", first.Classification, second.Classification)
	}
}

func TestAnalyzeRecordFields(t *testing.T) {
	a := New(Options{Now: fixedClock()})

	rec, err := a.Analyze("1010101010")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}

	if rec.Input != "1010101010" {
		t.Errorf("Input = %q", rec.Input)
	}
	if rec.Kind != KindNormal {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindNormal)
	}
	if rec.Timestamp != fixedClock()().Unix() {
		t.Errorf("Timestamp = %d", rec.Timestamp)
	}
	if rec.Classification.Type != classify.PatternAlternating {
		t.Errorf("Type = %q, want alternating", rec.Classification.Type)
	}
	if len(rec.ID) != 64 {
		t.Errorf("ID length = %d, want 64 hex chars", len(rec.ID))
	}
	want := "Pattern analyzed: alternating with entropy 1.0000"
	if rec.Summary != want {
		t.Errorf("Summary = %q, want %q", rec.Summary, want)
	}
}

func TestAnalyzeSanitizesByDefault(t *testing.T) {
	a := New(Options{Now: fixedClock()})

	rec, err := a.Analyze(" 10 1x0\n1 ")
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if rec.Input != "10101" {
		t.Errorf("Input = %q, want %q", rec.Input, "10101")
	}
}

func TestAnalyzeStrictMode(t *testing.T) {
	a := New(Options{Strict: true, Now: fixedClock()})

	if _, err := a.Analyze("10x01"); !errors.Is(err, bitstring.ErrInvalidCharacter) {
		t.Errorf("error = %v, want ErrInvalidCharacter", err)
	}

	rec, err := a.Analyze("10101")
	if err != nil {
		t.Fatalf("clean input in strict mode: %v", err)
	}
	if rec.Input != "10101" {
		t.Errorf("Input = %q", rec.Input)
	}
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := Default()

	if _, err := a.Analyze(""); !errors.Is(err, bitstring.ErrEmptyInput) {
		t.Errorf("empty input error = %v, want ErrEmptyInput", err)
	}
	// Sanitization can empty a non-empty input.
	if _, err := a.Analyze("abc def"); !errors.Is(err, bitstring.ErrEmptyInput) {
		t.Errorf("non-bit input error = %v, want ErrEmptyInput", err)
	}
}

func TestAnalyzeDegenerateKinds(t *testing.T) {
	a := New(Options{Now: fixedClock()})

	rec, err := a.Analyze("1111111")
	if err != nil {
		t.Fatalf("all-ones Analyze error: %v", err)
	}
	if rec.Kind != KindAllOnes {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindAllOnes)
	}
	if rec.Metrics.Entropy != 0 {
		t.Errorf("Entropy = %v, want 0", rec.Metrics.Entropy)
	}

	rec, err = a.Analyze("000")
	if err != nil {
		t.Fatalf("all-zeros Analyze error: %v", err)
	}
	if rec.Kind != KindAllZeros {
		t.Errorf("Kind = %q, want %q", rec.Kind, KindAllZeros)
	}
}

func TestRecordIDUsesInputPrefix(t *testing.T) {
	// Two long inputs that agree on the first 100 characters, entropy, and
	// type collapse to the same ID.
	prefix := strings.Repeat("10", 60) // 120 chars
	a := RecordID(bitstring.BitString(prefix+"10"), 1.0, classify.PatternAlternating)
	b := RecordID(bitstring.BitString(prefix+"01"), 1.0, classify.PatternAlternating)
	if a != b {
		t.Error("IDs should match when the hashed prefix matches")
	}

	// Divergence inside the prefix produces distinct IDs.
	c := RecordID("1010", 1.0, classify.PatternAlternating)
	d := RecordID("0101", 1.0, classify.PatternAlternating)
	if c == d {
		t.Error("IDs should differ for different short inputs")
	}

	// Same bits, different type: distinct IDs.
	e := RecordID("1010", 1.0, classify.PatternMixed)
	if c == e {
		t.Error("IDs should differ across pattern types")
	}
}

func TestSummaryFormat(t *testing.T) {
	got := Summary(classify.PatternPeriodic, 0.97095)
	want := "Pattern analyzed: periodic with entropy 0.9710"
	if got != want {
		t.Errorf("Summary = %q, want %q", got, want)
	}
}

func TestCustomThresholdsChangeClassification(t *testing.T) {
	bits := "1100110011"

	def, err := New(Options{Now: fixedClock()}).Analyze(bits)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if def.Classification.Type != classify.PatternAlternating {
		t.Fatalf("default Type = %q, want alternating", def.Classification.Type)
	}

	th := classify.DefaultThresholds()
	th.AlternatingRate = 0.5
	tuned, err := New(Options{Thresholds: th, Now: fixedClock()}).Analyze(bits)
	if err != nil {
		t.Fatalf("Analyze error: %v", err)
	}
	if tuned.Classification.Type != classify.PatternPeriodic {
		t.Errorf("tuned Type = %q, want periodic", tuned.Classification.Type)
	}
}
