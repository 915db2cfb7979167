package polygon

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/marketpulse/internal/httpclient"
	"github.com/ternarybob/marketpulse/internal/models"
)

func newTestClient(t *testing.T, mux *http.ServeMux) (*Client, *httptest.Server) {
	t.Helper()
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)

	logger := arbor.NewLogger()
	executor := httpclient.NewExecutor(ProviderName, server.URL, logger)
	return NewClient(executor, "poly-key", logger), server
}

var asOf = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

func TestFetchContracts_Snapshot(t *testing.T) {
	mux := http.NewServeMux()
	var serverURL string
	mux.HandleFunc("/v3/snapshot/options/AAPL", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "poly-key", r.URL.Query().Get("apiKey"))
		if r.URL.Query().Get("cursor") == "" {
			assert.Equal(t, "2026-03-02", r.URL.Query().Get("expiration_date.gte"))
			w.Write([]byte(`{
				"status": "OK",
				"results": [
					{"details": {"ticker": "O:AAPL260320C00150000", "contract_type": "call", "expiration_date": "2026-03-20", "strike_price": 150},
					 "greeks": {"delta": 0.62, "gamma": 0.03, "theta": -0.05, "vega": 0.11},
					 "implied_volatility": 0.28, "open_interest": 1200}
				],
				"next_url": "` + serverURL + `/v3/snapshot/options/AAPL?cursor=abc"
			}`))
			return
		}
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"details": {"ticker": "O:AAPL260320P00140000", "contract_type": "put", "expiration_date": "2026-03-20", "strike_price": 140}},
				{"details": {"ticker": "bad", "contract_type": "swap", "expiration_date": "2026-03-20", "strike_price": 1}}
			]
		}`))
	})

	client, server := newTestClient(t, mux)
	serverURL = server.URL

	contracts, err := client.FetchContracts(context.Background(), "AAPL", asOf)
	require.NoError(t, err)
	require.Len(t, contracts, 2)

	call := contracts[0]
	assert.Equal(t, models.ContractCall, call.Type)
	assert.Equal(t, "AAPL", call.Underlying)
	assert.Equal(t, 150.0, call.Strike)
	require.NotNil(t, call.Greeks)
	assert.Equal(t, 0.62, call.Greeks.Delta)
	require.NotNil(t, call.OpenInterest)
	assert.Equal(t, int64(1200), *call.OpenInterest)
	require.NotNil(t, call.ImpliedVolatility)

	put := contracts[1]
	assert.Equal(t, models.ContractPut, put.Type)
	assert.Nil(t, put.Greeks)
	assert.Nil(t, put.OpenInterest)
}

func TestFetchContracts_FallsBackToReference(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/snapshot/options/MSFT", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"status":"NOT_AUTHORIZED"}`))
	})
	mux.HandleFunc("/v3/reference/options/contracts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "MSFT", r.URL.Query().Get("underlying_ticker"))
		assert.Equal(t, "false", r.URL.Query().Get("expired"))
		w.Write([]byte(`{
			"status": "OK",
			"results": [
				{"ticker": "O:MSFT260417C00400000", "underlying_ticker": "MSFT", "expiration_date": "2026-04-17", "strike_price": 400, "contract_type": "call"}
			]
		}`))
	})

	client, _ := newTestClient(t, mux)

	contracts, err := client.FetchContracts(context.Background(), "MSFT", asOf)
	require.NoError(t, err)
	require.Len(t, contracts, 1)
	assert.Equal(t, "O:MSFT260417C00400000", contracts[0].Ticker)
	assert.Equal(t, time.Date(2026, 4, 17, 0, 0, 0, 0, time.UTC), contracts[0].Expiration)
	assert.Nil(t, contracts[0].Greeks)
}

func TestFetchContracts_OtherErrorsPropagate(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/v3/snapshot/options/TSLA", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})

	client, _ := newTestClient(t, mux)

	_, err := client.FetchContracts(context.Background(), "TSLA", asOf)

	var statusErr *httpclient.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusUnauthorized, statusErr.StatusCode)
}

func TestNextRequest(t *testing.T) {
	req, ok := nextRequest("https://api.polygon.io/v3/reference/options/contracts?cursor=xyz")
	require.True(t, ok)
	assert.Equal(t, "/v3/reference/options/contracts", req.Path)
	assert.Equal(t, "xyz", req.Query["cursor"])

	_, ok = nextRequest("")
	assert.False(t, ok)
}
