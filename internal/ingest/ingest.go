// Package ingest runs the incremental fetch pipeline: for each ticker check the
// store, fetch bars, compute features, encode and upload. A key that already
// exists is never fetched again.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"market-ingest/internal/features"
	"market-ingest/internal/model"
	"market-ingest/internal/provider"
	"market-ingest/internal/saver"
	"market-ingest/internal/store"
)

// State is a step of the per-item state machine.
type State string

const (
	StatePending      State = "PENDING"
	StateSkipped      State = "SKIPPED"
	StateFetching     State = "FETCHING"
	StateEmpty        State = "EMPTY"
	StateTransforming State = "TRANSFORMING"
	StateUploaded     State = "UPLOADED"
	StateFailed       State = "FAILED"
)

// IndicatorSource says where rsi/macd come from.
type IndicatorSource string

const (
	IndicatorsRemote IndicatorSource = "remote"
	IndicatorsLocal  IndicatorSource = "local"
)

// ParseIndicatorSource accepts remote|api|local.
func ParseIndicatorSource(s string) (IndicatorSource, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "remote", "api":
		return IndicatorsRemote, nil
	case "local":
		return IndicatorsLocal, nil
	default:
		return "", fmt.Errorf("unsupported indicator source %q (use: remote, local)", s)
	}
}

// DefaultBatchSize matches the original batch split; it only affects progress logs.
const DefaultBatchSize = 100

// Options is the run configuration.
type Options struct {
	Granularity      model.Granularity
	LookbackYears    int
	SafetyMarginDays int
	FeatureSet       features.Set
	Indicators       IndicatorSource
	Benchmark        string
	BatchSize        int
	// Now is the clock; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the defaults for g: daily 10y plus 100 days, minute 2y.
func DefaultOptions(g model.Granularity) Options {
	o := Options{
		Granularity:   g,
		LookbackYears: 10,
		FeatureSet:    features.SetBase,
		Indicators:    IndicatorsRemote,
		Benchmark:     features.DefaultBenchmarkID,
		BatchSize:     DefaultBatchSize,
	}
	if g == model.Minute {
		o.LookbackYears = 2
	} else {
		o.SafetyMarginDays = 100
	}
	return o
}

// Result is the final state of one item.
type Result struct {
	Ticker string
	Key    string
	State  State
	Rows   int
	Err    error
}

// Pipeline processes tickers one at a time.
type Pipeline struct {
	opts   Options
	source provider.DataSource
	store  store.Store
	saver  saver.TableSaver
	pacer  Pacer

	benchmark *features.Reference
}

// New builds a pipeline. A nil pacer means no delay.
func New(opts Options, src provider.DataSource, st store.Store, sv saver.TableSaver, pacer Pacer) *Pipeline {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Benchmark == "" {
		opts.Benchmark = features.DefaultBenchmarkID
	}
	if pacer == nil {
		pacer = FixedPacer{}
	}
	return &Pipeline{opts: opts, source: src, store: st, saver: sv, pacer: pacer}
}

// Window returns [now - lookback - margin, now].
func (p *Pipeline) Window() (from, to time.Time) {
	to = p.opts.Now().UTC()
	from = to.AddDate(-p.opts.LookbackYears, 0, -p.opts.SafetyMarginDays)
	return from, to
}

// Key returns the dataset key for ticker.
func (p *Pipeline) Key(ticker string) string {
	return model.DatasetKey(p.opts.Granularity, ticker, model.WindowLabel(p.opts.LookbackYears), p.saver.Extension())
}

// Run processes tickers in order and returns the summary. Input is
// de-duplicated first. Cancelling ctx stops the run between items; the item
// in flight ends as FAILED and keys already uploaded stay.
func (p *Pipeline) Run(ctx context.Context, tickers []string) Summary {
	tickers = model.NormalizeTickers(tickers)
	sum := Summary{Total: len(tickers), Started: time.Now()}
	from, to := p.Window()
	slog.Info("ingest start",
		"tickers", len(tickers),
		"granularity", p.opts.Granularity,
		"from", from.Format(time.DateOnly),
		"to", to.Format(time.DateOnly),
		"features", p.opts.FeatureSet,
		"store", p.store.Name(),
	)

	if p.opts.FeatureSet.NeedsBenchmark() && len(tickers) > 0 {
		p.loadBenchmark(ctx, from, to)
	}

	batches := (len(tickers) + p.opts.BatchSize - 1) / p.opts.BatchSize
	for i, ticker := range tickers {
		if ctx.Err() != nil {
			sum.Cancelled = true
			break
		}
		if i%p.opts.BatchSize == 0 {
			slog.Info("batch start", "batch", i/p.opts.BatchSize+1, "of", batches, "first", i, "size", min(p.opts.BatchSize, len(tickers)-i))
		}

		res, fetched := p.Process(ctx, ticker)
		sum.add(res)
		if fetched {
			if err := p.pacer.Wait(ctx); err != nil {
				sum.Cancelled = true
				break
			}
		}

		if (i+1)%p.opts.BatchSize == 0 || i == len(tickers)-1 {
			slog.Info("batch done", "batch", i/p.opts.BatchSize+1, "processed", i+1,
				"uploaded", sum.Uploaded, "skipped", sum.Skipped, "empty", sum.Empty, "failed", sum.Failed)
		}
	}
	sum.Finished = time.Now()

	if len(sum.Failures()) > 0 {
		slog.Info("summary failed", "count", sum.Failed, "reasons", joinFailedReasons(sum.Failures()))
	}
	if sum.Cancelled {
		slog.Warn("ingest cancelled", "processed", len(sum.Results), "total", sum.Total)
	} else {
		slog.Info("done", "uploaded", sum.Uploaded, "skipped", sum.Skipped, "empty", sum.Empty, "failed", sum.Failed)
	}
	return sum
}

// loadBenchmark fetches the reference series once. Failure only leaves rs null.
func (p *Pipeline) loadBenchmark(ctx context.Context, from, to time.Time) {
	bars, err := p.source.FetchBars(ctx, p.opts.Benchmark, p.opts.Granularity, from, to)
	if err != nil {
		slog.Warn("benchmark unavailable, rs will be null", "ticker", p.opts.Benchmark, "error", err)
		return
	}
	p.benchmark = features.NewReference(p.opts.Benchmark, bars)
	slog.Info("benchmark loaded", "ticker", p.opts.Benchmark, "bars", p.benchmark.Len())
}

// Process runs one item through the state machine. fetched reports whether
// the item reached FETCHING, i.e. whether the API was called.
func (p *Pipeline) Process(ctx context.Context, ticker string) (res Result, fetched bool) {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	res = Result{Ticker: ticker, Key: p.Key(ticker), State: StatePending}

	exists, err := p.store.Exists(ctx, res.Key)
	if err != nil {
		return p.fail(res, fmt.Errorf("exists check: %w", err)), false
	}
	if exists {
		res.State = StateSkipped
		slog.Info("skip, already stored", "ticker", ticker, "key", res.Key)
		return res, false
	}

	res.State = StateFetching
	from, to := p.Window()
	bars, err := p.source.FetchBars(ctx, ticker, p.opts.Granularity, from, to)
	if err != nil {
		return p.fail(res, fmt.Errorf("fetch bars: %w", err)), true
	}
	if len(bars) == 0 {
		res.State = StateEmpty
		slog.Info("no data", "ticker", ticker)
		return res, true
	}

	res.State = StateTransforming
	opts := features.Options{Set: p.opts.FeatureSet, Benchmark: p.benchmark}
	if p.opts.FeatureSet.NeedsIndicators() {
		ind, err := p.indicators(ctx, ticker, bars, from, to)
		if err != nil {
			return p.fail(res, err), true
		}
		opts.Indicators = ind
	}
	table := features.Compute(ticker, bars, opts)

	data, err := p.saver.Encode(table)
	if err != nil {
		return p.fail(res, fmt.Errorf("encode: %w", err)), true
	}
	if err := p.store.Put(ctx, res.Key, data, p.saver.ContentType()); err != nil {
		return p.fail(res, fmt.Errorf("upload: %w", err)), true
	}
	res.State = StateUploaded
	res.Rows = table.Len()
	slog.Info("uploaded", "ticker", ticker, "key", res.Key, "rows", res.Rows, "bytes", len(data))
	return res, true
}

func (p *Pipeline) indicators(ctx context.Context, ticker string, bars []model.Bar, from, to time.Time) (map[model.IndicatorKind][]model.IndicatorPoint, error) {
	if p.opts.Indicators == IndicatorsLocal {
		return features.LocalIndicators(bars), nil
	}
	out := make(map[model.IndicatorKind][]model.IndicatorPoint, 2)
	for _, kind := range []model.IndicatorKind{model.RSI, model.MACD} {
		pts, err := p.source.FetchIndicator(ctx, ticker, kind, p.opts.Granularity, from, to)
		if err != nil {
			return nil, fmt.Errorf("fetch %s: %w", kind, err)
		}
		out[kind] = pts
	}
	return out, nil
}

func (p *Pipeline) fail(res Result, err error) Result {
	res.State = StateFailed
	res.Err = err
	attrs := []any{"ticker", res.Ticker, "key", res.Key, "error", err}
	if store.IsTransport(err) {
		attrs = append(attrs, "transport", true)
	}
	if errors.Is(err, context.Canceled) {
		slog.Warn("item interrupted", attrs...)
	} else {
		slog.Error("item failed", attrs...)
	}
	return res
}
