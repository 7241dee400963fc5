package polygon

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadTickersFromFile(t *testing.T) {
	dir := t.TempDir()

	txt := filepath.Join(dir, "tickers.txt")
	require.NoError(t, os.WriteFile(txt, []byte("# top names\naapl\n\n  MSFT  \nAAPL\n#skip\ntsla\n"), 0644))
	got, err := LoadTickersFromFile(txt)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT", "TSLA"}, got)

	js := filepath.Join(dir, "tickers.json")
	require.NoError(t, os.WriteFile(js, []byte(`["nvda","", "NVDA","amd"]`), 0644))
	got, err = LoadTickersFromFile(js)
	require.NoError(t, err)
	assert.Equal(t, []string{"NVDA", "AMD"}, got)

	csvPath := filepath.Join(dir, "tickers.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("ticker\nIBM\nORCL\n"), 0644))
	got, err = LoadTickersFromFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []string{"IBM", "ORCL"}, got)

	_, err = LoadTickersFromFile(filepath.Join(dir, "tickers.xlsx"))
	require.Error(t, err)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("- AAPL"), 0644))
	_, err = LoadTickersFromFile(bad)
	require.Error(t, err)
}

func TestWriteTickersFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "tickers.txt")
	require.NoError(t, WriteTickersFile(path, []string{"AAPL", "MSFT"}))

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "AAPL\nMSFT\n", string(raw))

	got, err := LoadTickersFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"AAPL", "MSFT"}, got)
}

func TestEncodeTickersCSV(t *testing.T) {
	data, err := EncodeTickersCSV([]string{"AAPL", "MSFT"})
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	assert.Equal(t, []string{"ticker", "AAPL", "MSFT"}, lines)
}
