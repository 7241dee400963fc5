package audit

import (
	"context"
	"fmt"
	"log/slog"
	"path"
	"strconv"
	"strings"

	"market-ingest/internal/saver"
	"market-ingest/internal/store"
)

// Output names under the analysis prefix.
const (
	DefaultOutputPrefix = "analysis"
	DefaultStatsName    = "daily_stats"
	DefaultProblemsName = "problematic_tickers"
)

// OutputOptions places the audit artifacts.
type OutputOptions struct {
	Prefix       string
	StatsName    string
	ProblemsName string
}

func (o OutputOptions) withDefaults() OutputOptions {
	if o.Prefix == "" {
		o.Prefix = DefaultOutputPrefix
	}
	if o.StatsName == "" {
		o.StatsName = DefaultStatsName
	}
	if o.ProblemsName == "" {
		o.ProblemsName = DefaultProblemsName
	}
	return o
}

// StatsKey is where the stats table goes.
func (o OutputOptions) StatsKey() string {
	o = o.withDefaults()
	return path.Join(o.Prefix, o.StatsName+".parquet")
}

// ProblemsKey is where the problematic list goes.
func (o OutputOptions) ProblemsKey() string {
	o = o.withDefaults()
	return path.Join(o.Prefix, o.ProblemsName+".csv")
}

type problemCSVRow struct {
	Ticker    string `csv:"ticker"`
	Rows      string `csv:"rows"`
	Issues    string `csv:"issues"`
	Error     string `csv:"error"`
	MinDate   string `csv:"min_date"`
	MaxDate   string `csv:"max_date"`
	NullClose string `csv:"null_close"`
	ZeroVol   string `csv:"zero_vol"`
	NegClose  string `csv:"neg_close"`
	Key       string `csv:"key"`
}

// WriteReports stores the stats table and, when there is anything to
// report, the ranked problem list. Returns the keys written.
func WriteReports(ctx context.Context, out store.Store, rep *Report, opts OutputOptions) ([]string, error) {
	var written []string

	stats, err := saver.EncodeParquet(rep.Records)
	if err != nil {
		return written, fmt.Errorf("encode stats: %w", err)
	}
	key := opts.StatsKey()
	if err := out.Put(ctx, key, stats, saver.ParquetSaver{}.ContentType()); err != nil {
		return written, fmt.Errorf("write stats: %w", err)
	}
	written = append(written, key)
	slog.Info("stats saved", "key", key, "records", len(rep.Records))

	if len(rep.Problems) == 0 {
		return written, nil
	}
	data, err := EncodeProblems(rep.Problems)
	if err != nil {
		return written, err
	}
	key = opts.ProblemsKey()
	if err := out.Put(ctx, key, data, saver.CSVSaver{}.ContentType()); err != nil {
		return written, fmt.Errorf("write problems: %w", err)
	}
	written = append(written, key)
	slog.Info("problematic tickers saved", "key", key, "count", len(rep.Problems))
	return written, nil
}

// EncodeProblems renders problems as CSV in the given order.
func EncodeProblems(problems []Problem) ([]byte, error) {
	rows := make([]*problemCSVRow, len(problems))
	for i, p := range problems {
		rows[i] = &problemCSVRow{
			Ticker:    p.Ticker,
			Rows:      strconv.FormatInt(p.Rows, 10),
			Issues:    strings.Join(p.Issues, "; "),
			Error:     p.Error,
			MinDate:   saver.TimeStr(p.MinDate),
			MaxDate:   saver.TimeStr(p.MaxDate),
			NullClose: strconv.FormatInt(p.NullClose, 10),
			ZeroVol:   strconv.FormatInt(p.ZeroVol, 10),
			NegClose:  strconv.FormatInt(p.NegClose, 10),
			Key:       p.Key,
		}
	}
	data, err := saver.EncodeCSV(rows)
	if err != nil {
		return nil, fmt.Errorf("encode problems: %w", err)
	}
	return data, nil
}
