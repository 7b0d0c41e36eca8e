// bitwatchctl is the control CLI for bitwatch.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"bitwatch/internal/analysis"
	"bitwatch/internal/config"
	"bitwatch/internal/report"
	"bitwatch/internal/store"
)

var (
	configPath = flag.String("config", "", "path to config file")
	strictFlag = flag.Bool("strict", false, "reject non-bit characters instead of stripping them")
	noSaveFlag = flag.Bool("no-save", false, "analyze without writing to the history store")
)

func main() {
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(1)
	}

	switch cmd := flag.Arg(0); cmd {
	case "analyze":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: bitwatchctl analyze <bits|@file>")
			os.Exit(1)
		}
		cmdAnalyze(flag.Arg(1), false)
	case "report":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: bitwatchctl report <bits|@file>")
			os.Exit(1)
		}
		cmdAnalyze(flag.Arg(1), true)
	case "history":
		n := 20
		if flag.NArg() >= 2 {
			parsed, err := strconv.Atoi(flag.Arg(1))
			if err != nil || parsed < 0 {
				fmt.Fprintf(os.Stderr, "Invalid count: %s\n", flag.Arg(1))
				os.Exit(1)
			}
			n = parsed
		}
		cmdHistory(n)
	case "status":
		cmdStatus()
	case "prune":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "Usage: bitwatchctl prune <max>")
			os.Exit(1)
		}
		max, err := strconv.Atoi(flag.Arg(1))
		if err != nil || max < 0 {
			fmt.Fprintf(os.Stderr, "Invalid max: %s\n", flag.Arg(1))
			os.Exit(1)
		}
		cmdPrune(max)
	case "export":
		output := ""
		if flag.NArg() >= 2 {
			output = flag.Arg(1)
		}
		cmdExport(output)
	case "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `bitwatchctl - Control utility for bitwatch

Usage: bitwatchctl [options] <command> [args]

Commands:
  analyze <bits|@file>   Analyze a bit string (or a file with @path)
  report <bits|@file>    Analyze and print the full text report
  history [n]            Print the n most recent records (default 20)
  status                 Show store location and record count
  prune <max>            Drop oldest records until at most max remain
  export [out.json]      Export the full history as JSON
  help                   Show this help message

Options:
  -config <path>  Path to config file
  -strict         Reject non-bit characters instead of stripping them
  -no-save        Analyze without writing to the history store`)
}

func loadConfig() *config.Config {
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *strictFlag {
		cfg.Analysis.Strict = true
	}
	return cfg
}

func openStore(cfg *config.Config) store.Store {
	if err := cfg.EnsureDirectories(); err != nil {
		fmt.Fprintf(os.Stderr, "Error preparing directories: %v\n", err)
		os.Exit(1)
	}
	st, err := store.Open(store.Options{
		Type:       cfg.Storage.Type,
		Path:       cfg.Storage.Path,
		MaxRecords: cfg.Storage.MaxRecords,
		Secure:     cfg.Storage.Secure,
		KeyPath:    cfg.Storage.KeyPath,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	return st
}

// resolveInput turns a CLI argument into the raw input string. Arguments
// starting with '@' name a file to read.
func resolveInput(arg string, maxBytes int64) string {
	if !strings.HasPrefix(arg, "@") {
		return arg
	}

	path := strings.TrimPrefix(arg, "@")
	info, err := os.Stat(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	if maxBytes > 0 && info.Size() > maxBytes {
		fmt.Fprintf(os.Stderr, "File %s exceeds max input size (%d bytes)\n", path, maxBytes)
		os.Exit(1)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", path, err)
		os.Exit(1)
	}
	return string(data)
}

func cmdAnalyze(arg string, fullReport bool) {
	cfg := loadConfig()
	input := resolveInput(arg, cfg.Analysis.MaxInputBytes)

	analyzer := analysis.New(analysis.Options{
		Thresholds:     cfg.Analysis.Thresholds,
		PatternLengths: cfg.Analysis.PatternLengths,
		WindowSizes:    cfg.Analysis.WindowSizes,
		Strict:         cfg.Analysis.Strict,
	})

	record, err := analyzer.Analyze(input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Analysis failed: %v\n", err)
		os.Exit(1)
	}

	if !*noSaveFlag {
		st := openStore(cfg)
		defer st.Close()
		if err := st.Save(record); err != nil {
			fmt.Fprintf(os.Stderr, "Error saving record: %v\n", err)
			os.Exit(1)
		}
	}

	if fullReport {
		report.Print(os.Stdout, record)
		return
	}

	fmt.Println(record.Summary)
	fmt.Printf("  id:         %s\n", record.ID)
	fmt.Printf("  verdict:    %s\n", report.Verdict(record.Classification))
	fmt.Printf("  entropy:    %.4f\n", record.Metrics.Entropy)
	fmt.Printf("  longestRun: %d\n", record.Metrics.LongestRun)
	fmt.Printf("  periodicity: score %.4f period %d\n",
		record.Metrics.Periodicity.Score, record.Metrics.Periodicity.Period)
}

func cmdHistory(n int) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	records, err := st.LoadRecent(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading history: %v\n", err)
		os.Exit(1)
	}
	report.PrintHistory(os.Stdout, records)
}

func cmdStatus() {
	cfg := loadConfig()

	fmt.Println("=== bitwatch Status ===")
	fmt.Println()
	fmt.Printf("Storage:     %s (%s)\n", cfg.Storage.Type, cfg.Storage.Path)
	fmt.Printf("Max records: %d\n", cfg.Storage.MaxRecords)
	fmt.Printf("Secure:      %v\n", cfg.Storage.Secure)
	fmt.Println()

	if cfg.Storage.Type != "memory" {
		if _, err := os.Stat(cfg.Storage.Path); os.IsNotExist(err) {
			fmt.Println("History:     (no history file yet)")
			return
		}
	}

	st := openStore(cfg)
	defer st.Close()

	count, err := st.Count()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error counting records: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("History:     %d records\n", count)

	recent, err := st.LoadRecent(1)
	if err == nil && len(recent) > 0 {
		fmt.Printf("Latest:      %s\n", recent[0].Summary)
	}
}

func cmdPrune(max int) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	removed, err := st.Prune(max)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error pruning: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Pruned %d records\n", removed)
}

func cmdExport(output string) {
	cfg := loadConfig()
	st := openStore(cfg)
	defer st.Close()

	records, err := st.LoadRecent(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading history: %v\n", err)
		os.Exit(1)
	}

	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding history: %v\n", err)
		os.Exit(1)
	}

	if output == "" {
		fmt.Println(string(data))
		return
	}
	if err := os.WriteFile(output, data, 0600); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing %s: %v\n", output, err)
		os.Exit(1)
	}
	fmt.Printf("Exported %d records to %s\n", len(records), output)
}
