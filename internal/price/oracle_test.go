package price

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func priceServer(t *testing.T, body string, status int) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		w.Write([]byte(body)) //nolint:errcheck
	}))
}

// ---------------------------------------------------------------------------
// Fetcher
// ---------------------------------------------------------------------------

func TestFetchSuccess(t *testing.T) {
	srv := priceServer(t, `{"ethereum":{"usd":2000.5}}`, http.StatusOK)
	defer srv.Close()

	p, err := NewFetcher(srv.URL, "ethereum", "usd").Fetch(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2000.5, p)
}

func TestFetchUnknownCoin(t *testing.T) {
	srv := priceServer(t, `{}`, http.StatusOK)
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "ethereum", "usd").Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not available")
}

func TestFetchBadStatus(t *testing.T) {
	srv := priceServer(t, `rate limited`, http.StatusTooManyRequests)
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "ethereum", "usd").Fetch(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestFetchBadJSON(t *testing.T) {
	srv := priceServer(t, `{not json`, http.StatusOK)
	defer srv.Close()

	_, err := NewFetcher(srv.URL, "ethereum", "usd").Fetch(context.Background())
	require.Error(t, err)
}

func TestFetcherDefaults(t *testing.T) {
	f := NewFetcher("", "Ethereum", "")
	assert.Equal(t, DefaultEndpoint, f.endpoint)
	assert.Equal(t, "ethereum", f.coinID)
	assert.Equal(t, "usd", f.currency)
}

// ---------------------------------------------------------------------------
// Oracle
// ---------------------------------------------------------------------------

func TestOracleNoQuoteBeforeRefresh(t *testing.T) {
	o := NewOracle(NewFetcher("", "ethereum", "usd"))
	_, ok := o.Rate()
	assert.False(t, ok)
	assert.Nil(t, o.Quote())
}

func TestOracleRefreshStoresQuote(t *testing.T) {
	srv := priceServer(t, `{"ethereum":{"usd":1850}}`, http.StatusOK)
	defer srv.Close()

	o := NewOracle(NewFetcher(srv.URL, "ethereum", "usd"))
	require.NoError(t, o.Refresh(context.Background()))

	rate, ok := o.Rate()
	assert.True(t, ok)
	assert.Equal(t, float64(1850), rate)
	require.NotNil(t, o.Quote())
	assert.False(t, o.Quote().FetchedAt.IsZero())
}

func TestOracleKeepsStaleQuoteOnFailure(t *testing.T) {
	srv := priceServer(t, `{"ethereum":{"usd":1850}}`, http.StatusOK)
	o := NewOracle(NewFetcher(srv.URL, "ethereum", "usd"))
	require.NoError(t, o.Refresh(context.Background()))
	srv.Close() // endpoint goes away

	err := o.Refresh(context.Background())
	require.Error(t, err)

	// Last good value survives the failed refresh.
	rate, ok := o.Rate()
	assert.True(t, ok)
	assert.Equal(t, float64(1850), rate)
}

func TestOracleRetriesTransportFailures(t *testing.T) {
	// Fail twice, then succeed: one Refresh call should still land a quote.
	var calls atomic.Int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"ethereum":{"usd":2100}}`)) //nolint:errcheck
	}))
	defer srv.Close()

	o := NewOracle(NewFetcher(srv.URL, "ethereum", "usd"))
	require.NoError(t, o.Refresh(context.Background()))
	rate, ok := o.Rate()
	assert.True(t, ok)
	assert.Equal(t, float64(2100), rate)
	assert.Equal(t, int64(3), calls.Load())
}
