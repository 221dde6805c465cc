package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// Result statuses
const (
	statusPass = "pass"
	statusFail = "fail"
)

// errNoLogs is returned when a log directory holds no session files
var errNoLogs = errors.New("no log files found")

// BenchmarkResult captures the result of a single benchmark run
type BenchmarkResult struct {
	Name       string    `json:"name"`
	Status     string    `json:"status"` // "pass" or "fail"
	M          int       `json:"m"`
	K          int       `json:"k"`
	N          int       `json:"n"`
	Iterations int       `json:"iterations,omitempty"`
	NsPerOp    float64   `json:"ns_per_op,omitempty"`
	BestNs     float64   `json:"best_ns,omitempty"`
	GFLOPS     float64   `json:"gflops,omitempty"`
	IPC        float64   `json:"ipc,omitempty"`
	LLCMisses  uint64    `json:"llc_misses,omitempty"`
	PanelRows  int       `json:"panel_rows,omitempty"`
	TileK      int       `json:"tile_k,omitempty"`
	TileN      int       `json:"tile_n,omitempty"`
	Workers    int       `json:"workers,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}

// BenchmarkLogger writes the results of one session to a JSON file,
// rewriting it after every result so a crash loses nothing.
type BenchmarkLogger struct {
	mu          sync.Mutex
	results     []BenchmarkResult
	sessionFile string
}

// NewBenchmarkLogger creates logDir if needed and starts a session file
// named after sessionName and the current time.
func NewBenchmarkLogger(logDir, sessionName string) (*BenchmarkLogger, error) {
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	timestamp := time.Now().Format("20060102_150405.000")
	bl := &BenchmarkLogger{
		sessionFile: filepath.Join(logDir, fmt.Sprintf("%s_%s.json", sessionName, timestamp)),
	}
	if err := bl.flush(); err != nil {
		return nil, err
	}
	return bl, nil
}

// Path returns the session file
func (bl *BenchmarkLogger) Path() string {
	return bl.sessionFile
}

// Log appends a result and flushes the session file
func (bl *BenchmarkLogger) Log(result BenchmarkResult) error {
	bl.mu.Lock()
	defer bl.mu.Unlock()

	if result.Timestamp.IsZero() {
		result.Timestamp = time.Now()
	}
	bl.results = append(bl.results, result)
	return bl.flush()
}

// LogFail records a failed run
func (bl *BenchmarkLogger) LogFail(name string, m, k, n int, err error) error {
	return bl.Log(BenchmarkResult{
		Name:   name,
		Status: statusFail,
		M:      m,
		K:      k,
		N:      n,
		Error:  err.Error(),
	})
}

// Results returns a copy of the results logged so far
func (bl *BenchmarkLogger) Results() []BenchmarkResult {
	bl.mu.Lock()
	defer bl.mu.Unlock()
	return append([]BenchmarkResult(nil), bl.results...)
}

// flush writes results to disk; callers hold mu or own bl exclusively
func (bl *BenchmarkLogger) flush() error {
	results := bl.results
	if results == nil {
		results = []BenchmarkResult{}
	}
	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return os.WriteFile(bl.sessionFile, data, 0o644)
}

// LatestLogFile returns the most recently modified session file in logDir
func LatestLogFile(logDir string) (string, error) {
	files, err := filepath.Glob(filepath.Join(logDir, "*.json"))
	if err != nil {
		return "", err
	}

	var latest string
	var latestTime time.Time
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil {
			continue
		}
		if latest == "" || info.ModTime().After(latestTime) {
			latest = file
			latestTime = info.ModTime()
		}
	}
	if latest == "" {
		return "", fmt.Errorf("%s: %w", logDir, errNoLogs)
	}
	return latest, nil
}

// LoadResults reads a session file
func LoadResults(path string) ([]BenchmarkResult, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var results []BenchmarkResult
	if err := json.Unmarshal(data, &results); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return results, nil
}

// PrintSummary writes a table of results to w
func PrintSummary(w io.Writer, title string, results []BenchmarkResult) {
	fmt.Fprintf(w, "\nBenchmark Summary from %s:\n", title)
	fmt.Fprintln(w, strings.Repeat("=", 72))

	passed, failed := 0, 0
	for _, r := range results {
		switch r.Status {
		case statusPass:
			passed++
			fmt.Fprintf(w, "✓ %-32s %12.3f ms %10.2f GFLOPS\n", r.Name, r.NsPerOp/1e6, r.GFLOPS)
		case statusFail:
			failed++
			fmt.Fprintf(w, "✗ %-32s FAILED: %s\n", r.Name, r.Error)
		}
	}

	fmt.Fprintln(w, strings.Repeat("=", 72))
	fmt.Fprintf(w, "Total: %d | Passed: %d | Failed: %d\n", len(results), passed, failed)
}
