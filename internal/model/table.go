package model

import "time"

// BaseRow is the canonical minimum row schema.
type BaseRow struct {
	Timestamp time.Time `parquet:"timestamp,timestamp(millisecond)" csv:"timestamp" json:"timestamp"`
	Open      float64   `parquet:"open" csv:"open" json:"open"`
	High      float64   `parquet:"high" csv:"high" json:"high"`
	Low       float64   `parquet:"low" csv:"low" json:"low"`
	Close     float64   `parquet:"close" csv:"close" json:"close"`
	Volume    int64     `parquet:"volume" csv:"volume" json:"volume"`
}

// FeatureRow is the extended schema. Feature columns are nil where undefined
// (rolling warm-up, missing benchmark or indicator value).
type FeatureRow struct {
	Timestamp      time.Time `parquet:"timestamp,timestamp(millisecond)" csv:"timestamp" json:"timestamp"`
	Open           float64   `parquet:"open" csv:"open" json:"open"`
	High           float64   `parquet:"high" csv:"high" json:"high"`
	Low            float64   `parquet:"low" csv:"low" json:"low"`
	Close          float64   `parquet:"close" csv:"close" json:"close"`
	Volume         int64     `parquet:"volume" csv:"volume" json:"volume"`
	Return         *float64  `parquet:"return" csv:"return" json:"return"`
	MA10           *float64  `parquet:"ma10" csv:"ma10" json:"ma10"`
	MA20           *float64  `parquet:"ma20" csv:"ma20" json:"ma20"`
	MA50           *float64  `parquet:"ma50" csv:"ma50" json:"ma50"`
	Volatility     *float64  `parquet:"volatility" csv:"volatility" json:"volatility"`
	VolumeChange   *float64  `parquet:"volume_change" csv:"volume_change" json:"volume_change"`
	RelativeVolume *float64  `parquet:"relative_volume" csv:"relative_volume" json:"relative_volume"`
	RS             *float64  `parquet:"rs" csv:"rs" json:"rs"`
	RSI            *float64  `parquet:"rsi" csv:"rsi" json:"rsi"`
	MACD           *float64  `parquet:"macd" csv:"macd" json:"macd"`
}

// Table is one instrument's transformed bar sequence, ordered by timestamp.
// Extended reports whether feature columns are part of the schema.
type Table struct {
	Ticker   string
	Extended bool
	Rows     []FeatureRow
}

// Len returns the row count.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// BaseRows projects the table onto the minimum schema.
func (t *Table) BaseRows() []BaseRow {
	out := make([]BaseRow, len(t.Rows))
	for i, r := range t.Rows {
		out[i] = BaseRow{
			Timestamp: r.Timestamp,
			Open:      r.Open,
			High:      r.High,
			Low:       r.Low,
			Close:     r.Close,
			Volume:    r.Volume,
		}
	}
	return out
}
