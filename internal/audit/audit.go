// Package audit scans persisted bar datasets and flags instruments whose data
// looks incomplete or broken. It only reports; nothing is repaired.
package audit

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"market-ingest/internal/model"
	"market-ingest/internal/store"
)

// Classification thresholds. A record is problematic when any is crossed.
const (
	MinRows      = 400
	MaxNullClose = 5
	MaxZeroVol   = 30
	MaxNegClose  = 0

	// UnknownTicker replaces a ticker that cannot be parsed from the key.
	UnknownTicker = "UNKNOWN"
)

// Record is one row of the stats table.
type Record struct {
	Ticker       string    `parquet:"ticker"`
	Key          string    `parquet:"key"`
	Rows         int64     `parquet:"rows"`
	MinDate      time.Time `parquet:"min_date,optional,timestamp(millisecond)"`
	MaxDate      time.Time `parquet:"max_date,optional,timestamp(millisecond)"`
	NullClose    int64     `parquet:"null_close"`
	ZeroVol      int64     `parquet:"zero_vol"`
	NegClose     int64     `parquet:"neg_close"`
	HasTimestamp bool      `parquet:"has_timestamp"`
	HasDate      bool      `parquet:"has_date"`
	HasClose     bool      `parquet:"has_close"`
	HasVolume    bool      `parquet:"has_volume"`
	Issues       string    `parquet:"issues"`
}

// Problem is a flagged instrument. Error is set when the file could not be loaded.
type Problem struct {
	Ticker    string
	Key       string
	Rows      int64
	Issues    []string
	Error     string
	MinDate   time.Time
	MaxDate   time.Time
	NullClose int64
	ZeroVol   int64
	NegClose  int64
}

// Report is the result of one scan.
type Report struct {
	Prefix   string
	Files    int
	Records  []Record
	Problems []Problem
}

// Classify returns the issues of r, empty when it is clean.
func Classify(r Record) []string {
	if r.Rows == 0 {
		return []string{"empty file"}
	}
	var issues []string
	if r.Rows < MinRows {
		issues = append(issues, fmt.Sprintf("few rows (%d)", r.Rows))
	}
	if r.NullClose > MaxNullClose {
		issues = append(issues, fmt.Sprintf("missing close (%d)", r.NullClose))
	}
	if r.ZeroVol > MaxZeroVol {
		issues = append(issues, fmt.Sprintf("many zero volume (%d)", r.ZeroVol))
	}
	if r.NegClose > MaxNegClose {
		issues = append(issues, fmt.Sprintf("non-positive close (%d)", r.NegClose))
	}
	return issues
}

// Rank orders problems by rows ascending, then ticker.
func Rank(problems []Problem) {
	sort.SliceStable(problems, func(i, j int) bool {
		if problems[i].Rows != problems[j].Rows {
			return problems[i].Rows < problems[j].Rows
		}
		return problems[i].Ticker < problems[j].Ticker
	})
}

// Auditor reads datasets from a store.
type Auditor struct {
	store store.Store
}

// New returns an Auditor over st.
func New(st store.Store) *Auditor {
	return &Auditor{store: st}
}

// Scan audits every .parquet key under prefix. Listing failure aborts the
// scan; a file that cannot be fetched or decoded becomes a problem with its
// error and the scan goes on.
func (a *Auditor) Scan(ctx context.Context, prefix string) (*Report, error) {
	keys, err := a.store.List(ctx, prefix)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", prefix, err)
	}
	rep := &Report{Prefix: prefix}
	for _, key := range keys {
		if !strings.HasSuffix(strings.ToLower(key), ".parquet") {
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rep.Files++
		ticker, ok := model.TickerFromKey(key)
		if !ok {
			ticker = UnknownTicker
		}

		rec, err := a.auditFile(ctx, ticker, key)
		if err != nil {
			slog.Warn("audit load failed", "ticker", ticker, "key", key, "error", err)
			rep.Problems = append(rep.Problems, Problem{Ticker: ticker, Key: key, Error: err.Error()})
			continue
		}
		issues := Classify(rec)
		rec.Issues = strings.Join(issues, "; ")
		rep.Records = append(rep.Records, rec)
		if len(issues) > 0 {
			rep.Problems = append(rep.Problems, Problem{
				Ticker:    rec.Ticker,
				Key:       key,
				Rows:      rec.Rows,
				Issues:    issues,
				MinDate:   rec.MinDate,
				MaxDate:   rec.MaxDate,
				NullClose: rec.NullClose,
				ZeroVol:   rec.ZeroVol,
				NegClose:  rec.NegClose,
			})
		}
	}
	Rank(rep.Problems)
	slog.Info("audit scanned", "prefix", prefix, "files", rep.Files, "records", len(rep.Records), "problems", len(rep.Problems))
	return rep, nil
}

func (a *Auditor) auditFile(ctx context.Context, ticker, key string) (Record, error) {
	data, err := a.store.Get(ctx, key)
	if err != nil {
		return Record{}, fmt.Errorf("read: %w", err)
	}
	st, err := readStats(data)
	if err != nil {
		return Record{}, err
	}
	return Record{
		Ticker:       ticker,
		Key:          key,
		Rows:         st.Rows,
		MinDate:      st.MinTime,
		MaxDate:      st.MaxTime,
		NullClose:    st.NullClose,
		ZeroVol:      st.ZeroVol,
		NegClose:     st.NegClose,
		HasTimestamp: st.HasTimestamp,
		HasDate:      st.HasDate,
		HasClose:     st.HasClose,
		HasVolume:    st.HasVolume,
	}, nil
}

// RowStats summarises the row counts of the stats table.
type RowStats struct {
	Count    int
	Mean     float64
	Median   float64
	Shortest []Record
}

// Summarize computes mean and median rows and the n shortest records.
func Summarize(records []Record, n int) RowStats {
	rs := RowStats{Count: len(records)}
	if len(records) == 0 {
		return rs
	}
	sorted := make([]Record, len(records))
	copy(sorted, records)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].Rows != sorted[j].Rows {
			return sorted[i].Rows < sorted[j].Rows
		}
		return sorted[i].Ticker < sorted[j].Ticker
	})
	var total int64
	for _, r := range sorted {
		total += r.Rows
	}
	rs.Mean = float64(total) / float64(len(sorted))
	mid := len(sorted) / 2
	if len(sorted)%2 == 1 {
		rs.Median = float64(sorted[mid].Rows)
	} else {
		rs.Median = float64(sorted[mid-1].Rows+sorted[mid].Rows) / 2
	}
	if n > len(sorted) {
		n = len(sorted)
	}
	rs.Shortest = sorted[:n]
	return rs
}

// LogSummary prints the row statistics and the shortest tickers.
func LogSummary(rep *Report) {
	rs := Summarize(rep.Records, 15)
	slog.Info("audit rows", "files", rs.Count, "mean", fmt.Sprintf("%.0f", rs.Mean), "median", fmt.Sprintf("%.0f", rs.Median))
	for _, r := range rs.Shortest {
		slog.Info("shortest", "ticker", r.Ticker, "rows", r.Rows,
			"min_date", r.MinDate.Format(time.DateOnly), "max_date", r.MaxDate.Format(time.DateOnly))
	}
	if len(rep.Problems) == 0 {
		slog.Info("no serious problems found")
		return
	}
	for i, p := range rep.Problems {
		if i == 20 {
			slog.Info("more problems omitted", "count", len(rep.Problems)-i)
			break
		}
		slog.Info("problem", "ticker", p.Ticker, "rows", p.Rows, "issues", strings.Join(p.Issues, "; "), "error", p.Error)
	}
}
