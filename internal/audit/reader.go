package audit

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"time"

	"github.com/parquet-go/parquet-go"
)

// tableStats is what the auditor needs from one file. Files come from
// different writers (this tool, pandas), so columns are looked up by name
// and decoded by physical kind rather than bound to a Go struct.
type tableStats struct {
	Rows         int64
	HasTimestamp bool
	HasDate      bool
	HasClose     bool
	HasVolume    bool
	MinTime      time.Time
	MaxTime      time.Time
	NullClose    int64
	ZeroVol      int64
	NegClose     int64
}

type column struct {
	index int
	node  parquet.Node
}

func lookup(schema *parquet.Schema, name string) (column, bool) {
	leaf, ok := schema.Lookup(name)
	if !ok {
		return column{}, false
	}
	return column{index: leaf.ColumnIndex, node: leaf.Node}, true
}

func readStats(data []byte) (tableStats, error) {
	var s tableStats
	f, err := parquet.OpenFile(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return s, fmt.Errorf("open parquet: %w", err)
	}
	s.Rows = f.NumRows()

	schema := f.Schema()
	ts, hasTS := lookup(schema, "timestamp")
	date, hasDate := lookup(schema, "date")
	cl, hasClose := lookup(schema, "close")
	vol, hasVol := lookup(schema, "volume")
	s.HasTimestamp, s.HasDate, s.HasClose, s.HasVolume = hasTS, hasDate, hasClose, hasVol

	timeCol := -1
	var toTime func(parquet.Value) (time.Time, bool)
	switch {
	case hasTS:
		timeCol, toTime = ts.index, timeDecoder(ts.node)
	case hasDate:
		timeCol, toTime = date.index, timeDecoder(date.node)
	}
	closeCol, volCol := -1, -1
	if hasClose {
		closeCol = cl.index
	}
	if hasVol {
		volCol = vol.index
	}
	if timeCol < 0 && closeCol < 0 && volCol < 0 {
		return s, nil
	}

	buf := make([]parquet.Row, 512)
	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, err := rows.ReadRows(buf)
			for _, row := range buf[:n] {
				for _, v := range row {
					switch v.Column() {
					case timeCol:
						if t, ok := toTime(v); ok {
							s.observeTime(t)
						}
					case closeCol:
						c, ok := numeric(v)
						switch {
						case !ok || math.IsNaN(c):
							s.NullClose++
						case c <= 0:
							s.NegClose++
						}
					case volCol:
						if x, ok := numeric(v); ok && x == 0 {
							s.ZeroVol++
						}
					}
				}
			}
			if err != nil {
				if errors.Is(err, io.EOF) {
					break
				}
				rows.Close()
				return s, fmt.Errorf("read rows: %w", err)
			}
		}
		rows.Close()
	}
	return s, nil
}

func (s *tableStats) observeTime(t time.Time) {
	if s.MinTime.IsZero() || t.Before(s.MinTime) {
		s.MinTime = t
	}
	if s.MaxTime.IsZero() || t.After(s.MaxTime) {
		s.MaxTime = t
	}
}

func numeric(v parquet.Value) (float64, bool) {
	if v.IsNull() {
		return 0, false
	}
	switch v.Kind() {
	case parquet.Int32:
		return float64(v.Int32()), true
	case parquet.Int64:
		return float64(v.Int64()), true
	case parquet.Float:
		return float64(v.Float()), true
	case parquet.Double:
		return v.Double(), true
	}
	return 0, false
}

// timeDecoder picks the conversion for a time-like column from its logical
// type. Without one, int64 magnitude decides between ms, us and ns.
func timeDecoder(n parquet.Node) func(parquet.Value) (time.Time, bool) {
	var unit time.Duration
	isDate := false
	if lt := n.Type().LogicalType(); lt != nil {
		switch {
		case lt.Timestamp != nil:
			switch {
			case lt.Timestamp.Unit.Nanos != nil:
				unit = time.Nanosecond
			case lt.Timestamp.Unit.Micros != nil:
				unit = time.Microsecond
			default:
				unit = time.Millisecond
			}
		case lt.Date != nil:
			isDate = true
		}
	}

	return func(v parquet.Value) (time.Time, bool) {
		if v.IsNull() {
			return time.Time{}, false
		}
		switch v.Kind() {
		case parquet.Int64:
			return fromEpoch(v.Int64(), unit), true
		case parquet.Int32:
			if isDate {
				return time.Unix(int64(v.Int32())*86400, 0).UTC(), true
			}
			return time.Unix(int64(v.Int32()), 0).UTC(), true
		case parquet.ByteArray:
			return parseTimeString(string(v.ByteArray()))
		}
		return time.Time{}, false
	}
}

func fromEpoch(n int64, unit time.Duration) time.Time {
	if unit == 0 {
		abs := n
		if abs < 0 {
			abs = -abs
		}
		switch {
		case abs >= 1e17:
			unit = time.Nanosecond
		case abs >= 1e14:
			unit = time.Microsecond
		default:
			unit = time.Millisecond
		}
	}
	switch unit {
	case time.Nanosecond:
		return time.Unix(0, n).UTC()
	case time.Microsecond:
		return time.UnixMicro(n).UTC()
	default:
		return time.UnixMilli(n).UTC()
	}
}

var timeLayouts = []string{time.RFC3339Nano, "2006-01-02 15:04:05", time.DateOnly}

func parseTimeString(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
