package saver

import (
	"bytes"

	"github.com/parquet-go/parquet-go"

	"market-ingest/internal/model"
)

// ParquetSaver encodes tables as Parquet.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) ContentType() string { return "application/vnd.apache.parquet" }

func (ParquetSaver) Encode(t *model.Table) ([]byte, error) {
	if t.Extended {
		return EncodeParquet(t.Rows)
	}
	return EncodeParquet(t.BaseRows())
}

// EncodeParquet writes rows of any struct type with parquet tags.
func EncodeParquet[T any](rows []T) ([]byte, error) {
	var buf bytes.Buffer
	if err := parquet.Write(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
