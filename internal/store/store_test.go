package store

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryStore()

	ok, err := m.Exists(ctx, "raw/daily/AAPL_10y.parquet")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, m.Put(ctx, "raw/daily/AAPL_10y.parquet", []byte("a"), ""))
	require.NoError(t, m.Put(ctx, "raw/daily/MSFT_10y.parquet", []byte("b"), ""))
	require.NoError(t, m.Put(ctx, "analysis/x.csv", []byte("c"), ""))

	ok, err = m.Exists(ctx, "raw/daily/AAPL_10y.parquet")
	require.NoError(t, err)
	assert.True(t, ok)

	keys, err := m.List(ctx, "raw/daily/")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/daily/AAPL_10y.parquet", "raw/daily/MSFT_10y.parquet"}, keys)

	_, err = m.Get(ctx, "nope")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.Equal(t, 2, m.ExistsCalls)
	assert.Equal(t, 3, m.PutCalls)
}

func TestMemoryStoreCancelledIsTransport(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMemoryStore().Exists(ctx, "k")
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestLocalStore(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)

	ok, err := s.Exists(ctx, "raw/daily/AAPL_10y.parquet")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, s.Put(ctx, "raw/daily/AAPL_10y.parquet", []byte("data"), ""))
	require.NoError(t, s.Put(ctx, "raw/minute/AAPL_2y.parquet", []byte("m"), ""))

	ok, err = s.Exists(ctx, "raw/daily/AAPL_10y.parquet")
	require.NoError(t, err)
	assert.True(t, ok)

	got, err := s.Get(ctx, "raw/daily/AAPL_10y.parquet")
	require.NoError(t, err)
	assert.Equal(t, "data", string(got))

	_, err = s.Get(ctx, "raw/daily/ZZZ_10y.parquet")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := s.List(ctx, "raw/daily/")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/daily/AAPL_10y.parquet"}, keys)

	_, err = os.Stat(filepath.Join(root, "raw", "daily", "AAPL_10y.parquet.tmp"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStoreDirectoryIsTransportError(t *testing.T) {
	root := t.TempDir()
	s, err := NewLocalStore(root)
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "raw", "daily"), 0755))

	ok, err := s.Exists(context.Background(), "raw/daily")
	assert.False(t, ok)
	assert.True(t, IsTransport(err))
}

func TestTransportErrorUnwrap(t *testing.T) {
	base := errors.New("connection reset")
	err := fmt.Errorf("ticker AAPL: %w", &TransportError{Op: "exists", Key: "k", Err: base})
	assert.True(t, IsTransport(err))
	assert.ErrorIs(t, err, base)
	assert.False(t, IsTransport(ErrNotFound))
}

// fakeS3 answers path-style requests for bucket "bkt".
func fakeS3(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodHead && r.URL.Path == "/bkt/raw/daily/AAPL_10y.parquet":
			w.Header().Set("Content-Length", "4")
			w.Header().Set("ETag", `"abc"`)
			w.WriteHeader(http.StatusOK)
		case r.Method == http.MethodHead && r.URL.Path == "/bkt/raw/daily/TSLA_10y.parquet":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodHead:
			w.WriteHeader(http.StatusForbidden)
		case r.Method == http.MethodGet && r.URL.Path == "/bkt/raw/daily/AAPL_10y.parquet":
			w.Header().Set("Content-Type", "application/octet-stream")
			w.Header().Set("Content-Length", "4")
			_, _ = w.Write([]byte("PAR1"))
		case r.Method == http.MethodGet && r.URL.Path == "/bkt/raw/daily/TSLA_10y.parquet":
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>The specified key does not exist.</Message></Error>`))
		case r.Method == http.MethodGet && (r.URL.Path == "/bkt" || r.URL.Path == "/bkt/") && r.URL.Query().Get("list-type") == "2":
			w.Header().Set("Content-Type", "application/xml")
			fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?>
<ListBucketResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/"><Name>bkt</Name><Prefix>%s</Prefix><KeyCount>2</KeyCount><MaxKeys>1000</MaxKeys><IsTruncated>false</IsTruncated><Contents><Key>raw/daily/AAPL_10y.parquet</Key><Size>4</Size></Contents><Contents><Key>raw/daily/MSFT_10y.parquet</Key><Size>4</Size></Contents></ListBucketResult>`, r.URL.Query().Get("prefix"))
		default:
			w.WriteHeader(http.StatusBadRequest)
		}
	}))
}

func newTestS3(t *testing.T, srv *httptest.Server) *S3Store {
	t.Helper()
	s, err := NewS3Store(S3Config{
		AccessKeyID:     "AKIDTEST",
		SecretAccessKey: "secret",
		Endpoint:        srv.URL,
		Bucket:          "bkt",
		HTTPClient:      srv.Client(),
	})
	require.NoError(t, err)
	return s
}

func TestS3StoreExists(t *testing.T) {
	srv := fakeS3(t)
	defer srv.Close()
	s := newTestS3(t, srv)
	ctx := context.Background()

	ok, err := s.Exists(ctx, "raw/daily/AAPL_10y.parquet")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = s.Exists(ctx, "raw/daily/TSLA_10y.parquet")
	require.NoError(t, err)
	assert.False(t, ok)

	// 403 must not be mistaken for "not found"
	ok, err = s.Exists(ctx, "raw/daily/NVDA_10y.parquet")
	require.Error(t, err)
	assert.False(t, ok)
	assert.True(t, IsTransport(err))
}

func TestS3StoreGetAndList(t *testing.T) {
	srv := fakeS3(t)
	defer srv.Close()
	s := newTestS3(t, srv)
	ctx := context.Background()

	data, err := s.Get(ctx, "raw/daily/AAPL_10y.parquet")
	require.NoError(t, err)
	assert.Equal(t, "PAR1", string(data))

	_, err = s.Get(ctx, "raw/daily/TSLA_10y.parquet")
	assert.ErrorIs(t, err, ErrNotFound)

	keys, err := s.List(ctx, "raw/daily/")
	require.NoError(t, err)
	assert.Equal(t, []string{"raw/daily/AAPL_10y.parquet", "raw/daily/MSFT_10y.parquet"}, keys)
}

func TestS3ConfigEndpoint(t *testing.T) {
	assert.Equal(t, "https://acc123.r2.cloudflarestorage.com", S3Config{AccountID: "acc123"}.ResolvedEndpoint())
	assert.Equal(t, "http://minio:9000", S3Config{AccountID: "acc123", Endpoint: "http://minio:9000"}.ResolvedEndpoint())

	_, err := NewS3Store(S3Config{AccessKeyID: "a", SecretAccessKey: "b"})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "bucket"))
}
