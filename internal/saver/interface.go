package saver

import (
	"strings"

	"market-ingest/internal/model"
)

// TableSaver encodes one instrument table for upload.
// The pipeline depends only on this interface; main picks the format.
type TableSaver interface {
	Encode(t *model.Table) ([]byte, error)
	Extension() string
	ContentType() string
}

// NewTableSaver creates implementation by format (parquet, csv, json).
// Returns nil if format not supported.
func NewTableSaver(format string) TableSaver {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "parquet":
		return ParquetSaver{}
	case "csv":
		return CSVSaver{}
	case "json":
		return JSONSaver{}
	default:
		return nil
	}
}
