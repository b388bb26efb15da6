package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sol-swap/pkg/jupiter"
	"sol-swap/pkg/tokens"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

type stubAggregator struct {
	quoteFn func(params jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error)
	buildFn func(params jupiter.BuildSwapParams) (*jupiter.SwapResponse, error)
}

func (s *stubAggregator) GetQuote(_ context.Context, params jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error) {
	return s.quoteFn(params)
}

func (s *stubAggregator) BuildSwap(_ context.Context, params jupiter.BuildSwapParams) (*jupiter.SwapResponse, error) {
	return s.buildFn(params)
}

type stubLoader struct{}

func (stubLoader) Load(context.Context) *tokens.Registry {
	return tokens.NewLoader(nil, nil).Load(context.Background())
}

func serve(t *testing.T, agg Aggregator, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	srv := New(":0", agg, stubLoader{}, nil)
	rec := httptest.NewRecorder()
	srv.Engine().ServeHTTP(rec, req)
	return rec
}

func TestQuoteMissingParams(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/quote?inputMint="+solMint, nil)
	rec := serve(t, &stubAggregator{}, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Contains(t, body["error"], "Missing required parameters")
}

func TestQuoteForwarded(t *testing.T) {
	var got jupiter.GetQuoteParams
	agg := &stubAggregator{
		quoteFn: func(params jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error) {
			got = params
			return &jupiter.QuoteResponse{
				InputMint:  params.InputMint,
				OutputMint: params.OutputMint,
				InAmount:   params.Amount,
				OutAmount:  "150000000",
				RoutePlan:  []jupiter.RoutePlan{{Percent: 100}},
			}, nil
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/quote?inputMint="+solMint+"&outputMint="+usdcMint+"&amount=1000000000&slippageBps=75", nil)
	rec := serve(t, agg, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1000000000", got.Amount)
	assert.Equal(t, 75, got.SlippageBps)

	var quote jupiter.QuoteResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &quote))
	assert.Equal(t, "150000000", quote.OutAmount)
}

func TestQuoteNoRoute(t *testing.T) {
	agg := &stubAggregator{
		quoteFn: func(jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error) {
			return nil, jupiter.ErrNoRoute
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/quote?inputMint="+solMint+"&outputMint="+usdcMint+"&amount=1000", nil)
	rec := serve(t, agg, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "no viable route")
}

func TestQuoteUpstreamStatusPassthrough(t *testing.T) {
	agg := &stubAggregator{
		quoteFn: func(jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error) {
			return nil, &jupiter.UpstreamError{
				Status:  http.StatusTooManyRequests,
				Message: "rate limit exceeded",
				Details: "slow down",
			}
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/quote?inputMint="+solMint+"&outputMint="+usdcMint+"&amount=1000", nil)
	rec := serve(t, agg, req)

	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "rate limit exceeded", body["error"])
	assert.Equal(t, "slow down", body["details"])
}

func TestQuoteTransportFailureIs503(t *testing.T) {
	agg := &stubAggregator{
		quoteFn: func(jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error) {
			return nil, &jupiter.UpstreamError{Message: "connection refused", Retriable: true}
		},
	}

	req := httptest.NewRequest(http.MethodGet,
		"/api/quote?inputMint="+solMint+"&outputMint="+usdcMint+"&amount=1000", nil)
	rec := serve(t, agg, req)

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSwapForwarded(t *testing.T) {
	agg := &stubAggregator{
		buildFn: func(params jupiter.BuildSwapParams) (*jupiter.SwapResponse, error) {
			assert.Equal(t, "wallet-key", params.UserPublicKey)
			return &jupiter.SwapResponse{
				SwapTransaction:      "c2lnbmVkLXR4",
				LastValidBlockHeight: 42,
			}, nil
		},
	}

	payload := `{"quoteResponse":{"inputMint":"` + solMint + `","outputMint":"` + usdcMint + `"},"userPublicKey":"wallet-key"}`
	req := httptest.NewRequest(http.MethodPost, "/api/swap", strings.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(t, agg, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp jupiter.SwapResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "c2lnbmVkLXR4", resp.SwapTransaction)
	assert.Equal(t, uint64(42), resp.LastValidBlockHeight)
}

func TestSwapMissingBodyFields(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/api/swap", strings.NewReader(`{"userPublicKey":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := serve(t, &stubAggregator{}, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "quoteResponse and userPublicKey")
}

func TestTokensServed(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/tokens", nil)
	rec := serve(t, &stubAggregator{}, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list []tokens.Token
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.NotEmpty(t, list)
}
