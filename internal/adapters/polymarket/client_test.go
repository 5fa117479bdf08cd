package polymarket_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alejandrodnm/polytoolkit/internal/adapters/polymarket"
	"github.com/alejandrodnm/polytoolkit/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastRetry() polymarket.RetryPolicy {
	return polymarket.RetryPolicy{
		MaxAttempts: 2,
		Backoff:     time.Millisecond,
		Retryable:   polymarket.IsTransient,
	}
}

func newTestClient(gammaSrv, dataSrv *httptest.Server, opts ...polymarket.Option) *polymarket.Client {
	gammaURL := ""
	dataURL := ""
	if gammaSrv != nil {
		gammaURL = gammaSrv.URL
	}
	if dataSrv != nil {
		dataURL = dataSrv.URL
	}
	opts = append([]polymarket.Option{
		polymarket.WithRetryPolicy(fastRetry()),
		polymarket.WithRateLimits(0, 0),
	}, opts...)
	return polymarket.NewClient(gammaURL, dataURL, opts...)
}

func TestFetch_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/markets", r.URL.Path)
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":"1"}]`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	body, err := client.Fetch(context.Background(), polymarket.GammaAPI, "/markets", map[string][]string{"limit": {"5"}})

	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"1"}]`, string(body))
}

func TestFetch_RetriesServerErrorOnce(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("maintenance"))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	_, err := client.Fetch(context.Background(), polymarket.GammaAPI, "/markets", nil)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusServiceUnavailable, upstream.StatusCode)
	assert.Equal(t, "maintenance", upstream.Body)
	assert.Equal(t, int32(2), calls.Load(), "exactly one retry")
}

func TestFetch_RecoversAfterTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	body, err := client.Fetch(context.Background(), polymarket.GammaAPI, "/markets", nil)

	require.NoError(t, err)
	assert.Equal(t, "[]", string(body))
	assert.Equal(t, int32(2), calls.Load())
}

func TestFetch_ClientErrorNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := newTestClient(srv, nil)
	_, err := client.Fetch(context.Background(), polymarket.GammaAPI, "/markets", nil)

	var upstream *domain.UpstreamError
	require.ErrorAs(t, err, &upstream)
	assert.Equal(t, http.StatusBadRequest, upstream.StatusCode)
	assert.False(t, upstream.Transient())
	assert.Equal(t, int32(1), calls.Load())
}

func TestFetch_Timeout(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	client := newTestClient(srv, nil, polymarket.WithTimeout(50*time.Millisecond))
	_, err := client.Fetch(context.Background(), polymarket.GammaAPI, "/markets", nil)

	var timeout *domain.TimeoutError
	require.ErrorAs(t, err, &timeout)
	assert.Equal(t, 50*time.Millisecond, timeout.Timeout)
	assert.Equal(t, domain.KindTimeout, domain.Kind(err))
	assert.Equal(t, int32(1), calls.Load(), "timeouts are terminal")
}

func TestFetch_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	client := newTestClient(srv, nil)
	_, err := client.Fetch(context.Background(), polymarket.GammaAPI, "/markets", nil)

	var network *domain.NetworkError
	require.ErrorAs(t, err, &network)
	assert.Equal(t, "gamma/markets", network.Endpoint)
	assert.Equal(t, domain.KindNetwork, domain.Kind(err))
}

func TestFetch_CallerCancellation(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := newTestClient(srv, nil)
	_, err := client.Fetch(ctx, polymarket.GammaAPI, "/markets", nil)

	assert.True(t, errors.Is(err, context.Canceled))
}

func TestFetch_DataAPIUsesDataBase(t *testing.T) {
	gamma := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("gamma should not be called")
	}))
	defer gamma.Close()

	data := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/positions", r.URL.Path)
		w.Write([]byte(`[]`))
	}))
	defer data.Close()

	client := newTestClient(gamma, data)
	_, err := client.Fetch(context.Background(), polymarket.DataAPI, "/positions", nil)
	require.NoError(t, err)
}

func TestIsTransient(t *testing.T) {
	assert.True(t, polymarket.IsTransient(&domain.NetworkError{Endpoint: "x", Err: errors.New("reset")}))
	assert.True(t, polymarket.IsTransient(&domain.UpstreamError{StatusCode: 500}))
	assert.False(t, polymarket.IsTransient(&domain.UpstreamError{StatusCode: 404}))
	assert.False(t, polymarket.IsTransient(&domain.TimeoutError{}))
	assert.False(t, polymarket.IsTransient(context.Canceled))
}
