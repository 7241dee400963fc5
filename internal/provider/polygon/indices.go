package polygon

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gocarina/gocsv"

	"market-ingest/internal/model"
)

type tickerRecord struct {
	Ticker string `csv:"ticker"`
}

// LoadTickersFromFile reads a list of tickers from a file.
// Supported formats:
//   - .txt  : one ticker per line, blank and '#' lines are ignored
//   - .json : JSON array of strings
//   - .csv  : a "ticker" column
func LoadTickersFromFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ticker file %s: %w", path, err)
	}

	var tickers []string

	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(content, &tickers); err != nil {
			return nil, fmt.Errorf("parse JSON: %w", err)
		}
	case ".csv":
		var records []*tickerRecord
		if err := gocsv.Unmarshal(bytes.NewReader(content), &records); err != nil {
			return nil, fmt.Errorf("parse CSV: %w", err)
		}
		for _, r := range records {
			tickers = append(tickers, r.Ticker)
		}
	case ".txt", "":
		tickers = parseTickersFromText(string(content))
	default:
		return nil, fmt.Errorf("unsupported ticker file extension %q (use .txt, .csv or .json)", filepath.Ext(path))
	}

	unique := model.NormalizeTickers(tickers)
	slog.Info("loaded tickers from file", "count", len(unique), "path", path)
	return unique, nil
}

// parseTickersFromText parses a plain text representation of tickers
// where each non-empty, non-comment line represents a ticker.
func parseTickersFromText(s string) []string {
	var tickers []string
	sc := bufio.NewScanner(strings.NewReader(s))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line != "" && !strings.HasPrefix(line, "#") {
			tickers = append(tickers, line)
		}
	}
	return tickers
}

// WriteTickersFile writes one ticker per line, replacing path.
func WriteTickersFile(path string, tickers []string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create folder %s: %w", dir, err)
		}
	}
	var b strings.Builder
	for _, t := range tickers {
		b.WriteString(t)
		b.WriteByte('\n')
	}
	if err := os.WriteFile(path, []byte(b.String()), 0644); err != nil {
		return fmt.Errorf("write ticker file %s: %w", path, err)
	}
	return nil
}

// EncodeTickersCSV renders tickers as a single-column CSV with a "ticker" header.
func EncodeTickersCSV(tickers []string) ([]byte, error) {
	records := make([]*tickerRecord, 0, len(tickers))
	for _, t := range tickers {
		records = append(records, &tickerRecord{Ticker: t})
	}
	var buf bytes.Buffer
	if err := gocsv.Marshal(records, &buf); err != nil {
		return nil, fmt.Errorf("encode tickers csv: %w", err)
	}
	return buf.Bytes(), nil
}
