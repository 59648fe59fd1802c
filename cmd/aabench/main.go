// aabench - AA decoding benchmark runner
//
// For every .aa document in a corpus directory, compares:
//   - Bytes of the AA input vs the minified JSON it converts to
//   - Full decode time (dynamic tree) vs skip time (structure only)
//
// Output: CSV and markdown summary
//
// Usage:
//
//	aabench [-n iterations] [-csv FILE] [-md FILE] [DIR]
//
// DIR defaults to aa/testdata.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/Neumenon/aa/aa"
	"github.com/Neumenon/aa/source"
)

type CaseResult struct {
	Name        string
	AABytes     int
	JSONBytes   int
	BytesPct    float64 // JSON size relative to AA, negative when JSON is smaller
	DecodeNanos int64   // per full decode
	SkipNanos   int64   // per SkipValue pass
}

// DecodeMBps returns full-decode throughput over the AA bytes.
func (r CaseResult) DecodeMBps() float64 {
	return mbps(r.AABytes, r.DecodeNanos)
}

// SkipMBps returns skip throughput over the AA bytes.
func (r CaseResult) SkipMBps() float64 {
	return mbps(r.AABytes, r.SkipNanos)
}

func mbps(n int, nanos int64) float64 {
	if nanos <= 0 {
		return 0
	}
	return float64(n) / (1 << 20) / (float64(nanos) / 1e9)
}

func main() {
	iterations := flag.Int("n", 200, "decode iterations per case")
	csvPath := flag.String("csv", "bench_results.csv", "CSV output file (empty to skip)")
	mdPath := flag.String("md", "", "markdown output file (empty to skip)")
	charset := flag.String("charset", "", "charset for every case (default: windows-1252 for *cp1252* files, else utf-8)")
	flag.Parse()

	dir := "aa/testdata"
	if flag.NArg() > 0 {
		dir = flag.Arg(0)
	}

	fmt.Fprintf(os.Stderr, "AA Benchmark Runner\n")
	fmt.Fprintf(os.Stderr, "===================\n")
	fmt.Fprintf(os.Stderr, "Corpus: %s\n\n", dir)

	results, err := runCorpus(dir, *iterations, *charset, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "aabench: %v\n", err)
		os.Exit(1)
	}

	if *csvPath != "" {
		if err := writeFile(*csvPath, func(w io.Writer) { writeCSV(w, results) }); err != nil {
			fmt.Fprintf(os.Stderr, "aabench: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "CSV written to: %s\n", *csvPath)
		}
	}
	if *mdPath != "" {
		if err := writeFile(*mdPath, func(w io.Writer) { writeMarkdown(w, results, dir) }); err != nil {
			fmt.Fprintf(os.Stderr, "aabench: %v\n", err)
		} else {
			fmt.Fprintf(os.Stderr, "Markdown written to: %s\n", *mdPath)
		}
	}

	writeSummary(os.Stdout, results)
}

// runCorpus benchmarks every .aa file in dir. Files that fail to load
// or decode are reported to log and skipped; a corpus with nothing left
// is an error.
func runCorpus(dir string, iterations int, charset string, log io.Writer) ([]CaseResult, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.aa"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .aa files in %s", dir)
	}
	if iterations < 1 {
		iterations = 1
	}

	var results []CaseResult
	for _, path := range files {
		name := strings.TrimSuffix(filepath.Base(path), ".aa")

		cs, err := caseCharset(name, charset)
		if err != nil {
			return nil, err
		}
		doc, err := source.Open(path)
		if err != nil {
			fmt.Fprintf(log, "Skip %s: %v\n", name, err)
			continue
		}
		r, err := benchCase(name, doc.Data, cs, iterations)
		if err != nil {
			fmt.Fprintf(log, "Skip %s: %v\n", name, err)
			continue
		}
		results = append(results, r)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no usable .aa files in %s", dir)
	}
	return results, nil
}

func caseCharset(name, override string) (aa.Charset, error) {
	if override != "" {
		return aa.ParseCharset(override)
	}
	if strings.Contains(name, "cp1252") {
		return aa.Windows1252, nil
	}
	return aa.UTF8, nil
}

func benchCase(name string, data []byte, cs aa.Charset, iterations int) (CaseResult, error) {
	v, err := aa.DecodeDocument(data, aa.WithCharset(cs))
	if err != nil {
		return CaseResult{}, fmt.Errorf("decode: %w", err)
	}
	js, err := v.MarshalJSON()
	if err != nil {
		return CaseResult{}, fmt.Errorf("render: %w", err)
	}

	start := time.Now()
	for i := 0; i < iterations; i++ {
		if _, err := aa.DecodeDocument(data, aa.WithCharset(cs)); err != nil {
			return CaseResult{}, err
		}
	}
	decode := time.Since(start).Nanoseconds() / int64(iterations)

	start = time.Now()
	for i := 0; i < iterations; i++ {
		if err := aa.NewDecoder(data).SkipValue(); err != nil {
			return CaseResult{}, err
		}
	}
	skip := time.Since(start).Nanoseconds() / int64(iterations)

	pct := 0.0
	if len(data) > 0 {
		pct = float64(len(js)-len(data)) / float64(len(data)) * 100.0
	}
	return CaseResult{
		Name:        name,
		AABytes:     len(data),
		JSONBytes:   len(js),
		BytesPct:    pct,
		DecodeNanos: decode,
		SkipNanos:   skip,
	}, nil
}

func writeFile(path string, fill func(io.Writer)) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	fill(f)
	return f.Close()
}

func writeCSV(w io.Writer, results []CaseResult) {
	fmt.Fprintln(w, "name,aa_bytes,json_bytes,json_pct,decode_ns,skip_ns,decode_mbps,skip_mbps")
	for _, r := range results {
		fmt.Fprintf(w, "%s,%d,%d,%.1f,%d,%d,%.2f,%.2f\n",
			r.Name, r.AABytes, r.JSONBytes, r.BytesPct,
			r.DecodeNanos, r.SkipNanos, r.DecodeMBps(), r.SkipMBps())
	}
}

func writeSummary(w io.Writer, results []CaseResult) {
	var totalAA, totalJSON int
	for _, r := range results {
		totalAA += r.AABytes
		totalJSON += r.JSONBytes
	}
	fmt.Fprintf(w, "\n=== SUMMARY ===\n")
	fmt.Fprintf(w, "Cases:       %d\n", len(results))
	fmt.Fprintf(w, "AA total:    %d bytes\n", totalAA)
	fmt.Fprintf(w, "JSON total:  %d bytes\n", totalJSON)
	if totalAA > 0 {
		fmt.Fprintf(w, "JSON vs AA:  %+.1f%%\n", float64(totalJSON-totalAA)/float64(totalAA)*100)
	}
}

func writeMarkdown(w io.Writer, results []CaseResult, corpus string) {
	fmt.Fprintf(w, "# AA Benchmark Results\n\n")
	fmt.Fprintf(w, "**Corpus:** %s (%d cases)  \n\n", corpus, len(results))

	sorted := make([]CaseResult, len(results))
	copy(sorted, results)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].DecodeMBps() > sorted[j].DecodeMBps()
	})

	fmt.Fprintf(w, "## Decode Throughput\n\n")
	fmt.Fprintf(w, "| Case | AA Bytes | Decode MB/s | Skip MB/s |\n")
	fmt.Fprintf(w, "|------|----------|-------------|-----------|\n")
	for _, r := range sorted {
		fmt.Fprintf(w, "| %s | %d | %.2f | %.2f |\n", truncateName(r.Name, 25), r.AABytes, r.DecodeMBps(), r.SkipMBps())
	}

	fmt.Fprintf(w, "\n## Size\n\n")
	fmt.Fprintf(w, "| Case | AA Bytes | JSON Bytes | JSON vs AA |\n")
	fmt.Fprintf(w, "|------|----------|------------|------------|\n")
	for _, r := range results {
		fmt.Fprintf(w, "| %s | %d | %d | %+.1f%% |\n", truncateName(r.Name, 25), r.AABytes, r.JSONBytes, r.BytesPct)
	}

	fmt.Fprintf(w, "\n## Methodology\n\n")
	fmt.Fprintf(w, "- **Decode:** `aa.DecodeDocument` into a dynamic tree, averaged per iteration\n")
	fmt.Fprintf(w, "- **Skip:** `Decoder.SkipValue` over the whole document, no text validation\n")
	fmt.Fprintf(w, "- **JSON:** compact output of `Value.MarshalJSON`\n")
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}
