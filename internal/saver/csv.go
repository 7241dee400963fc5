package saver

import (
	"bytes"
	"strconv"
	"time"

	"github.com/gocarina/gocsv"

	"market-ingest/internal/model"
)

// CSVSaver encodes tables as CSV with a header row named after the parquet columns.
type CSVSaver struct{}

func (CSVSaver) Extension() string { return "csv" }

func (CSVSaver) ContentType() string { return "text/csv" }

type baseCSVRow struct {
	Timestamp string `csv:"timestamp"`
	Open      string `csv:"open"`
	High      string `csv:"high"`
	Low       string `csv:"low"`
	Close     string `csv:"close"`
	Volume    string `csv:"volume"`
}

type featureCSVRow struct {
	Timestamp      string `csv:"timestamp"`
	Open           string `csv:"open"`
	High           string `csv:"high"`
	Low            string `csv:"low"`
	Close          string `csv:"close"`
	Volume         string `csv:"volume"`
	Return         string `csv:"return"`
	MA10           string `csv:"ma10"`
	MA20           string `csv:"ma20"`
	MA50           string `csv:"ma50"`
	Volatility     string `csv:"volatility"`
	VolumeChange   string `csv:"volume_change"`
	RelativeVolume string `csv:"relative_volume"`
	RS             string `csv:"rs"`
	RSI            string `csv:"rsi"`
	MACD           string `csv:"macd"`
}

func (CSVSaver) Encode(t *model.Table) ([]byte, error) {
	if !t.Extended {
		rows := make([]*baseCSVRow, len(t.Rows))
		for i, r := range t.Rows {
			rows[i] = &baseCSVRow{
				Timestamp: TimeStr(r.Timestamp),
				Open:      floatStr(r.Open),
				High:      floatStr(r.High),
				Low:       floatStr(r.Low),
				Close:     floatStr(r.Close),
				Volume:    strconv.FormatInt(r.Volume, 10),
			}
		}
		return EncodeCSV(rows)
	}
	rows := make([]*featureCSVRow, len(t.Rows))
	for i, r := range t.Rows {
		rows[i] = &featureCSVRow{
			Timestamp:      TimeStr(r.Timestamp),
			Open:           floatStr(r.Open),
			High:           floatStr(r.High),
			Low:            floatStr(r.Low),
			Close:          floatStr(r.Close),
			Volume:         strconv.FormatInt(r.Volume, 10),
			Return:         optStr(r.Return),
			MA10:           optStr(r.MA10),
			MA20:           optStr(r.MA20),
			MA50:           optStr(r.MA50),
			Volatility:     optStr(r.Volatility),
			VolumeChange:   optStr(r.VolumeChange),
			RelativeVolume: optStr(r.RelativeVolume),
			RS:             optStr(r.RS),
			RSI:            optStr(r.RSI),
			MACD:           optStr(r.MACD),
		}
	}
	return EncodeCSV(rows)
}

// EncodeCSV marshals a slice of csv-tagged structs (header + rows).
func EncodeCSV(rows interface{}) ([]byte, error) {
	var buf bytes.Buffer
	if err := gocsv.Marshal(rows, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// TimeStr formats t as RFC 3339 in UTC; zero time is empty.
func TimeStr(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

func floatStr(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

func optStr(f *float64) string {
	if f == nil {
		return ""
	}
	return floatStr(*f)
}
