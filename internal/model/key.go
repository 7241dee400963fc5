package model

import (
	"fmt"
	"path"
	"strings"
)

// RawPrefix is the root of persisted bar datasets.
const RawPrefix = "raw"

// WindowLabel formats a lookback of n years, e.g. "10y".
func WindowLabel(years int) string {
	return fmt.Sprintf("%dy", years)
}

// DatasetKey returns raw/<granularity>/<TICKER>_<window>.<ext>.
// The key's presence in the store marks the instrument as done.
func DatasetKey(g Granularity, ticker, window, ext string) string {
	name := fmt.Sprintf("%s_%s.%s", strings.ToUpper(ticker), window, ext)
	return path.Join(RawPrefix, string(g), name)
}

// DatasetPrefix returns raw/<granularity>/ for listing.
func DatasetPrefix(g Granularity) string {
	return RawPrefix + "/" + string(g) + "/"
}

// TickerFromKey parses the ticker from a dataset key: the file stem up to the
// first underscore. Returns false when nothing usable is left.
func TickerFromKey(key string) (string, bool) {
	base := path.Base(key)
	if base == "." || base == "/" {
		return "", false
	}
	stem := strings.TrimSuffix(base, path.Ext(base))
	ticker, _, _ := strings.Cut(stem, "_")
	ticker = strings.TrimSpace(ticker)
	if ticker == "" {
		return "", false
	}
	return ticker, true
}
