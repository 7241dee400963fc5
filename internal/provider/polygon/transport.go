package polygon

import (
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

// baseTransportConfig returns the shared HTTP transport configuration used by Polygon clients.
// One client lives for the whole run, so keep-alives stay on.
func baseTransportConfig() *http.Transport {
	return &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		ResponseHeaderTimeout: 2 * time.Minute,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConns:          4,
		MaxIdleConnsPerHost:   2,
	}
}

// newHTTPClient creates an HTTP client configured for Polygon requests.
func newHTTPClient() *http.Client {
	return &http.Client{
		Transport: baseTransportConfig(),
		Timeout:   5 * time.Minute,
	}
}

// newRestClient wraps hc in a resty client without retries; pacing is the caller's job.
func newRestClient(hc *http.Client, baseURL string) *resty.Client {
	return resty.NewWithClient(hc).
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetRetryCount(0).
		SetLogger(slogLogger{})
}

// slogLogger routes resty's internal messages into slog.
type slogLogger struct{}

func (slogLogger) Errorf(format string, v ...interface{}) {
	slog.Error(fmt.Sprintf(format, v...), "component", "resty")
}

func (slogLogger) Warnf(format string, v ...interface{}) {
	slog.Warn(fmt.Sprintf(format, v...), "component", "resty")
}

func (slogLogger) Debugf(format string, v ...interface{}) {
	slog.Debug(fmt.Sprintf(format, v...), "component", "resty")
}
