package saver

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"market-ingest/internal/model"
)

func sampleTable(extended bool) *model.Table {
	ma := 101.5
	ts := time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC)
	return &model.Table{
		Ticker:   "AAPL",
		Extended: extended,
		Rows: []model.FeatureRow{
			{Timestamp: ts, Open: 100, High: 102, Low: 99, Close: 101, Volume: 1200},
			{Timestamp: ts.AddDate(0, 0, 1), Open: 101, High: 103, Low: 100, Close: 102, Volume: 900, MA10: &ma},
		},
	}
}

func TestNewTableSaver(t *testing.T) {
	assert.Equal(t, "parquet", NewTableSaver(" Parquet ").Extension())
	assert.Equal(t, "csv", NewTableSaver("csv").Extension())
	assert.Equal(t, "json", NewTableSaver("json").Extension())
	assert.Nil(t, NewTableSaver("xlsx"))
}

func TestParquetSaverFeatureRows(t *testing.T) {
	data, err := ParquetSaver{}.Encode(sampleTable(true))
	require.NoError(t, err)

	rows, err := parquet.Read[model.FeatureRow](bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Nil(t, rows[0].MA10)
	require.NotNil(t, rows[1].MA10)
	assert.Equal(t, 101.5, *rows[1].MA10)
	assert.True(t, rows[0].Timestamp.Equal(time.Date(2024, 3, 1, 5, 0, 0, 0, time.UTC)))
	assert.Equal(t, int64(900), rows[1].Volume)
}

func TestParquetSaverBaseSchema(t *testing.T) {
	data, err := ParquetSaver{}.Encode(sampleTable(false))
	require.NoError(t, err)

	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	assert.Equal(t, int64(2), f.NumRows())
	_, hasMA := f.Schema().Lookup("ma10")
	assert.False(t, hasMA)
	_, hasClose := f.Schema().Lookup("close")
	assert.True(t, hasClose)
}

func TestCSVSaver(t *testing.T) {
	data, err := CSVSaver{}.Encode(sampleTable(true))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,open,high,low,close,volume,return,ma10,ma20,ma50,volatility,volume_change,relative_volume,rs,rsi,macd", lines[0])
	assert.Equal(t, "2024-03-01T05:00:00Z,100,102,99,101,1200,,,,,,,,,,", lines[1])
	assert.Contains(t, lines[2], ",101.5,")

	data, err = CSVSaver{}.Encode(sampleTable(false))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "timestamp,open,high,low,close,volume\n"))
}

func TestJSONSaver(t *testing.T) {
	data, err := JSONSaver{}.Encode(sampleTable(false))
	require.NoError(t, err)
	var rows []map[string]any
	require.NoError(t, json.Unmarshal(data, &rows))
	require.Len(t, rows, 2)
	_, hasMA := rows[1]["ma10"]
	assert.False(t, hasMA)
	assert.Equal(t, float64(1200), rows[0]["volume"])
}
