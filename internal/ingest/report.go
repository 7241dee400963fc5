package ingest

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Summary counts outcomes of one run.
type Summary struct {
	Total     int
	Skipped   int
	Empty     int
	Uploaded  int
	Failed    int
	Cancelled bool
	Results   []Result
	Started   time.Time
	Finished  time.Time
}

func (s *Summary) add(r Result) {
	s.Results = append(s.Results, r)
	switch r.State {
	case StateSkipped:
		s.Skipped++
	case StateEmpty:
		s.Empty++
	case StateUploaded:
		s.Uploaded++
	case StateFailed:
		s.Failed++
	}
}

// Failures returns the FAILED results in processing order.
func (s Summary) Failures() []Result {
	var out []Result
	for _, r := range s.Results {
		if r.State == StateFailed {
			out = append(out, r)
		}
	}
	return out
}

// Tickers returns the tickers whose final state is st.
func (s Summary) Tickers(st State) []string {
	var out []string
	for _, r := range s.Results {
		if r.State == st {
			out = append(out, r.Ticker)
		}
	}
	return out
}

type failedEntry struct {
	Ticker string `json:"ticker"`
	Key    string `json:"key"`
	Reason string `json:"reason"`
}

type runReport struct {
	Started   time.Time     `json:"started"`
	Finished  time.Time     `json:"finished"`
	Total     int           `json:"total"`
	Cancelled bool          `json:"cancelled"`
	Uploaded  []string      `json:"uploaded"`
	Skipped   []string      `json:"skipped"`
	Empty     []string      `json:"empty"`
	Failed    []failedEntry `json:"failed"`
}

// ReportFile is the run report name inside the report directory.
const ReportFile = ".lastrun.json"

// WriteRunReport writes the summary as JSON to dir/.lastrun.json, replacing
// the previous run's report.
func WriteRunReport(dir string, s Summary) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}
	rep := runReport{
		Started:   s.Started,
		Finished:  s.Finished,
		Total:     s.Total,
		Cancelled: s.Cancelled,
		Uploaded:  nonNil(s.Tickers(StateUploaded)),
		Skipped:   nonNil(s.Tickers(StateSkipped)),
		Empty:     nonNil(s.Tickers(StateEmpty)),
		Failed:    []failedEntry{},
	}
	for _, r := range s.Failures() {
		rep.Failed = append(rep.Failed, failedEntry{Ticker: r.Ticker, Key: r.Key, Reason: errString(r.Err)})
	}
	data, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return "", err
	}
	p := filepath.Join(dir, ReportFile)
	if err := os.WriteFile(p, data, 0644); err != nil {
		return "", fmt.Errorf("write run report: %w", err)
	}
	slog.Info("run report saved", "path", p, "uploaded", len(rep.Uploaded), "failed", len(rep.Failed))
	return p, nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func joinFailedReasons(failed []Result) string {
	if len(failed) == 0 {
		return ""
	}
	var b strings.Builder
	for i, f := range failed {
		if i > 0 {
			b.WriteString("; ")
		}
		b.WriteString(f.Ticker)
		b.WriteString(": ")
		b.WriteString(errString(f.Err))
		if i >= 4 && len(failed) > 6 {
			b.WriteString(fmt.Sprintf(" (+%d more)", len(failed)-5))
			break
		}
	}
	return b.String()
}
