// Package report renders analysis records as human-readable text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"bitwatch/internal/analysis"
	"bitwatch/internal/classify"
)

const ruleWidth = 72

// Print writes a formatted pattern analysis report to w.
func Print(w io.Writer, record *analysis.Record) {
	if record == nil {
		fmt.Fprintln(w, "No analysis data available")
		return
	}

	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintln(w, "                      BIT PATTERN ANALYSIS")
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintln(w)

	fmt.Fprintf(w, "Record:         %s\n", record.ID[:16])
	fmt.Fprintf(w, "Analyzed:       %s\n", time.Unix(record.Timestamp, 0).Format(time.RFC3339))
	fmt.Fprintf(w, "Length:         %d bits (%d ones, %d zeros)\n",
		record.Metrics.Length, record.Metrics.Ones, record.Metrics.Zeros)
	fmt.Fprintf(w, "Input:          %s\n", truncateInput(record.Input, 48))
	fmt.Fprintln(w)

	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintln(w, "METRICS")
	fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
	fmt.Fprintln(w)

	m := record.Metrics

	fmt.Fprintf(w, "Entropy:            %.4f  %s\n", m.Entropy, MetricBar(m.Entropy, 0, 1, 20))
	fmt.Fprintf(w, "  -> %s\n\n", interpretEntropy(m.Entropy))

	fmt.Fprintf(w, "Alternating Rate:   %.4f  %s\n", m.AlternatingRate, MetricBar(m.AlternatingRate, 0, 1, 20))
	fmt.Fprintf(w, "  -> %s\n\n", interpretAlternating(m.AlternatingRate))

	fmt.Fprintf(w, "Longest Run:        %d (burstiness %.3f)\n", m.LongestRun, m.Burstiness)
	fmt.Fprintf(w, "Correlation:        %.4f  %s\n", m.Correlation, MetricBar(m.Correlation, 0, 1, 20))
	fmt.Fprintf(w, "Symmetry:           %.4f  %s\n", m.Symmetry, MetricBar(m.Symmetry, 0, 1, 20))
	fmt.Fprintf(w, "Periodicity:        score %.4f at period %d\n", m.Periodicity.Score, m.Periodicity.Period)
	fmt.Fprintln(w)

	if len(m.Windows) > 0 {
		fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
		fmt.Fprintln(w, "PATTERN WINDOWS")
		fmt.Fprintln(w, strings.Repeat("-", ruleWidth))
		fmt.Fprintln(w)

		for _, win := range m.Windows {
			fmt.Fprintf(w, "Window %-3d unique=%d", win.Size, win.UniqueCount)
			if len(win.MostCommon) > 0 {
				parts := make([]string, 0, len(win.MostCommon))
				for _, pc := range win.MostCommon {
					parts = append(parts, fmt.Sprintf("%s x%d", pc.Pattern, pc.Count))
				}
				fmt.Fprintf(w, "  top: %s", strings.Join(parts, ", "))
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
	fmt.Fprintf(w, "CLASSIFICATION: %s (complexity %.4f)\n",
		strings.ToUpper(string(record.Classification.Type)),
		record.Classification.ComplexityLevel)
	if record.Kind != analysis.KindNormal {
		fmt.Fprintf(w, "NOTE: degenerate input (%s)\n", record.Kind)
	}
	fmt.Fprintln(w, strings.Repeat("=", ruleWidth))
}

// PrintHistory writes a one-line-per-record history listing to w.
func PrintHistory(w io.Writer, records []analysis.Record) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No records in history")
		return
	}

	fmt.Fprintf(w, "%-19s  %-12s  %8s  %10s  %s\n", "TIME", "TYPE", "ENTROPY", "COMPLEXITY", "INPUT")
	for _, r := range records {
		fmt.Fprintf(w, "%-19s  %-12s  %8.4f  %10.4f  %s\n",
			time.Unix(r.Timestamp, 0).Format("2006-01-02 15:04:05"),
			r.Classification.Type,
			r.Metrics.Entropy,
			r.Classification.ComplexityLevel,
			truncateInput(r.Input, 32),
		)
	}
}

// MetricBar produces an ASCII bar for metric visualization.
func MetricBar(value, min, max float64, width int) string {
	if width <= 0 {
		return ""
	}
	if max <= min {
		return "[" + strings.Repeat("-", width) + "]"
	}

	normalized := (value - min) / (max - min)
	if normalized < 0 {
		normalized = 0
	}
	if normalized > 1 {
		normalized = 1
	}

	filled := int(normalized * float64(width))
	if filled > width {
		filled = width
	}

	return "[" + strings.Repeat("#", filled) + strings.Repeat("-", width-filled) + "]"
}

func truncateInput(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func interpretEntropy(entropy float64) string {
	switch {
	case entropy > 0.95:
		return "Near-maximal: balanced bit distribution"
	case entropy > 0.7:
		return "High: mostly balanced distribution"
	case entropy > 0.3:
		return "Moderate: one symbol dominates"
	case entropy > 0:
		return "Low: heavily skewed distribution"
	default:
		return "Zero: uniform string, single symbol"
	}
}

func interpretAlternating(rate float64) string {
	switch {
	case rate > 0.9:
		return "Near-total alternation, clock-like signal"
	case rate > 0.4:
		return "Frequent transitions"
	case rate > 0.1:
		return "Occasional transitions, run-dominated"
	default:
		return "Almost no transitions, long stable runs"
	}
}

// Verdict returns the one-line verdict for a classification, used by the
// CLI when a full report is not requested.
func Verdict(c classify.Classification) string {
	return fmt.Sprintf("%s (complexity %.4f)", c.Type, c.ComplexityLevel)
}
