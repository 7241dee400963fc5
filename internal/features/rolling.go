package features

import "math"

// series is a nullable float column. nil entries are undefined values.
type series []*float64

func ptr(v float64) *float64 { return &v }

func fromValues(vals []float64) series {
	s := make(series, len(vals))
	for i := range vals {
		s[i] = ptr(vals[i])
	}
	return s
}

// rollingMean is the mean over the trailing window. The first window-1 entries
// are nil, and so is any window containing a nil input.
func rollingMean(in series, window int) series {
	out := make(series, len(in))
	if window <= 0 {
		return out
	}
	for i := window - 1; i < len(in); i++ {
		sum, ok := windowSum(in[i-window+1 : i+1])
		if !ok {
			continue
		}
		out[i] = ptr(sum / float64(window))
	}
	return out
}

// rollingStd is the sample standard deviation (n-1) over the trailing window.
func rollingStd(in series, window int) series {
	out := make(series, len(in))
	if window <= 1 {
		return out
	}
	for i := window - 1; i < len(in); i++ {
		w := in[i-window+1 : i+1]
		sum, ok := windowSum(w)
		if !ok {
			continue
		}
		mean := sum / float64(window)
		var sq float64
		for _, v := range w {
			d := *v - mean
			sq += d * d
		}
		out[i] = ptr(math.Sqrt(sq / float64(window-1)))
	}
	return out
}

func windowSum(w series) (float64, bool) {
	var sum float64
	for _, v := range w {
		if v == nil {
			return 0, false
		}
		sum += *v
	}
	return sum, true
}

// pctChange is (x[i] - x[i-1]) / x[i-1]; nil for the first row and where the
// previous value is zero or missing.
func pctChange(in series) series {
	out := make(series, len(in))
	for i := 1; i < len(in); i++ {
		prev, cur := in[i-1], in[i]
		if prev == nil || cur == nil || *prev == 0 {
			continue
		}
		out[i] = ptr((*cur - *prev) / *prev)
	}
	return out
}

// ratio is a[i] / b[i]; nil where either side is missing or b is zero.
func ratio(a, b series) series {
	out := make(series, len(a))
	for i := range a {
		if i >= len(b) || a[i] == nil || b[i] == nil || *b[i] == 0 {
			continue
		}
		out[i] = ptr(*a[i] / *b[i])
	}
	return out
}
