package saver

import (
	"bytes"
	"encoding/json"

	"market-ingest/internal/model"
)

// JSONSaver encodes tables as an indented JSON array (dev profile).
type JSONSaver struct{}

func (JSONSaver) Extension() string { return "json" }

func (JSONSaver) ContentType() string { return "application/json" }

func (JSONSaver) Encode(t *model.Table) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	var err error
	if t.Extended {
		err = enc.Encode(t.Rows)
	} else {
		err = enc.Encode(t.BaseRows())
	}
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
