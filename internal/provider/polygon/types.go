package polygon

import (
	"encoding/json"
	"fmt"
	"strconv"

	"market-ingest/internal/model"
)

type statusCarrier interface {
	status() string
}

// BarRaw is raw bar for JSON with FlexibleInt64 for Volume and Transactions
type BarRaw struct {
	Timestamp    int64         `json:"t"` // Unix timestamp in milliseconds
	Open         float64       `json:"o"`
	High         float64       `json:"h"`
	Low          float64       `json:"l"`
	Close        float64       `json:"c"`
	Volume       FlexibleInt64 `json:"v"`
	VWAP         float64       `json:"vw,omitempty"`
	Transactions FlexibleInt64 `json:"n,omitempty"`
}

// ToBar converts BarRaw to model.Bar
func (br BarRaw) ToBar() model.Bar {
	return model.Bar{
		Timestamp: model.FromMillis(br.Timestamp),
		Open:      br.Open,
		High:      br.High,
		Low:       br.Low,
		Close:     br.Close,
		Volume:    br.Volume.Int64(),
	}
}

// AggregatesResponse is Polygon API response with next_url
type AggregatesResponse struct {
	Ticker       string   `json:"ticker"`
	QueryCount   int      `json:"queryCount"`
	ResultsCount int      `json:"resultsCount"`
	Adjusted     bool     `json:"adjusted"`
	Results      []BarRaw `json:"results"`
	Status       string   `json:"status"`
	RequestID    string   `json:"request_id"`
	Count        int      `json:"count"`
	NextURL      string   `json:"next_url,omitempty"`
}

func (r *AggregatesResponse) status() string { return r.Status }

// TickerRaw is one entry of /v3/reference/tickers.
type TickerRaw struct {
	Ticker          string `json:"ticker"`
	Name            string `json:"name"`
	Market          string `json:"market"`
	Locale          string `json:"locale"`
	PrimaryExchange string `json:"primary_exchange"`
	Type            string `json:"type"`
	Active          bool   `json:"active"`
}

func (t TickerRaw) ToInstrument() model.Instrument {
	return model.Instrument{
		Ticker:          t.Ticker,
		Name:            t.Name,
		Type:            t.Type,
		Market:          t.Market,
		Locale:          t.Locale,
		PrimaryExchange: t.PrimaryExchange,
		Active:          t.Active,
	}
}

// TickersResponse is one page of the reference tickers listing.
type TickersResponse struct {
	Results   []TickerRaw `json:"results"`
	Status    string      `json:"status"`
	RequestID string      `json:"request_id"`
	Count     int         `json:"count"`
	NextURL   string      `json:"next_url,omitempty"`
}

func (r *TickersResponse) status() string { return r.Status }

// IndicatorValue is one point of an indicator series. Signal and Histogram
// are only set for MACD.
type IndicatorValue struct {
	Timestamp int64   `json:"timestamp"`
	Value     float64 `json:"value"`
	Signal    float64 `json:"signal,omitempty"`
	Histogram float64 `json:"histogram,omitempty"`
}

// IndicatorResponse is one page of /v1/indicators/{kind}/{ticker}.
type IndicatorResponse struct {
	Results struct {
		Values []IndicatorValue `json:"values"`
	} `json:"results"`
	Status    string `json:"status"`
	RequestID string `json:"request_id"`
	NextURL   string `json:"next_url,omitempty"`
}

func (r *IndicatorResponse) status() string { return r.Status }

// FlexibleInt64 parses int or float (scientific notation) to int64
type FlexibleInt64 int64

// UnmarshalJSON parses int or float
func (f *FlexibleInt64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		val, err := strconv.ParseFloat(str, 64)
		if err != nil {
			return err
		}
		*f = FlexibleInt64(int64(val))
		return nil
	}

	var floatVal float64
	if err := json.Unmarshal(data, &floatVal); err == nil {
		*f = FlexibleInt64(int64(floatVal))
		return nil
	}

	return fmt.Errorf("cannot parse as int64: %s", string(data))
}

// Int64 returns int64 value
func (f FlexibleInt64) Int64() int64 {
	return int64(f)
}
