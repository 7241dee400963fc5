package model

import (
	"strings"
	"time"
)

// Instrument is one listed security from the reference tickers feed.
type Instrument struct {
	Ticker          string
	Name            string
	Type            string
	Market          string
	Locale          string
	PrimaryExchange string
	Active          bool
}

// InstrumentFilter narrows the tickers listing. Limit <= 0 means no cap.
type InstrumentFilter struct {
	Market    string
	Locale    string
	Type      string // "CS" = common stock
	Active    bool
	Limit     int
	PageDelay time.Duration
}

// DefaultInstrumentFilter lists active US common stocks.
func DefaultInstrumentFilter() InstrumentFilter {
	return InstrumentFilter{
		Market: "stocks",
		Locale: "us",
		Type:   "CS",
		Active: true,
	}
}

// NormalizeTickers trims and upper-cases, drops empties and keeps the first
// occurrence of duplicates.
func NormalizeTickers(tickers []string) []string {
	seen := make(map[string]bool, len(tickers))
	out := make([]string, 0, len(tickers))
	for _, t := range tickers {
		t = strings.ToUpper(strings.TrimSpace(t))
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	return out
}
