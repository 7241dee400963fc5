package model

import (
	"fmt"
	"strings"
	"time"
)

// Bar represents one OHLCV bar (daily/minute).
// Shared by provider, features and saver.
type Bar struct {
	Timestamp time.Time // UTC, converted from Unix milliseconds
	Open      float64
	High      float64
	Low       float64
	Close     float64
	Volume    int64
}

// IndicatorPoint is one value of a derived indicator series (RSI, MACD line).
type IndicatorPoint struct {
	Timestamp time.Time
	Value     float64
}

// Granularity is the bar time bucket.
type Granularity string

const (
	Daily  Granularity = "daily"
	Minute Granularity = "minute"
)

// ParseGranularity accepts daily|day|minute|intraday.
func ParseGranularity(s string) (Granularity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "daily", "day":
		return Daily, nil
	case "minute", "intraday":
		return Minute, nil
	default:
		return "", fmt.Errorf("unsupported granularity %q (use: daily, minute)", s)
	}
}

// Timespan returns the Polygon timespan name.
func (g Granularity) Timespan() string {
	if g == Minute {
		return "minute"
	}
	return "day"
}

// IndicatorKind names an indicator series.
type IndicatorKind string

const (
	RSI  IndicatorKind = "rsi"
	MACD IndicatorKind = "macd"
)

// MillisOf returns the Unix-millisecond join key for t.
func MillisOf(t time.Time) int64 {
	return t.UnixMilli()
}

// FromMillis converts Unix milliseconds to a UTC time.
func FromMillis(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
