package jupiter

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	solMint  = "So11111111111111111111111111111111111111112"
	usdcMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
	testAddr = "4Nd1mBQtrMJVYVfKf2PJy9NZUZdTAsp7D4xWLs4gDB4T"
)

func quoteJSON(in, out string) string {
	return `{
		"inputMint": "` + solMint + `",
		"inAmount": "` + in + `",
		"outputMint": "` + usdcMint + `",
		"outAmount": "` + out + `",
		"otherAmountThreshold": "` + out + `",
		"swapMode": "ExactIn",
		"slippageBps": 50,
		"priceImpactPct": "0.01",
		"routePlan": [
			{"swapInfo": {"ammKey": "amm1", "label": "Orca", "inputMint": "` + solMint + `",
			 "outputMint": "` + usdcMint + `", "inAmount": "` + in + `", "outAmount": "` + out + `",
			 "feeAmount": "100", "feeMint": "` + solMint + `"}, "percent": 100}
		],
		"contextSlot": 123456,
		"timeTaken": 0.05
	}`
}

func newTestClient(quoteURL, swapURL string) *Client {
	return NewClient(Config{QuoteAPIURL: quoteURL, SwapAPIURL: swapURL})
}

func TestGetQuoteEncodesParams(t *testing.T) {
	var gotQuery map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = map[string]string{}
		for k := range r.URL.Query() {
			gotQuery[k] = r.URL.Query().Get(k)
		}
		w.Write([]byte(quoteJSON("1000000000", "150000000")))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	quote, err := c.GetQuote(context.Background(), GetQuoteParams{
		InputMint:  solMint,
		OutputMint: usdcMint,
		Amount:     "1000000000",
		Taker:      testAddr,
	})
	require.NoError(t, err)

	assert.Equal(t, solMint, gotQuery["inputMint"])
	assert.Equal(t, usdcMint, gotQuery["outputMint"])
	assert.Equal(t, "1000000000", gotQuery["amount"])
	assert.Equal(t, "50", gotQuery["slippageBps"], "default slippage is 50 bps")
	assert.Equal(t, testAddr, gotQuery["taker"])

	assert.Equal(t, "150000000", quote.OutAmount)
	require.Len(t, quote.RoutePlan, 1)
	assert.Equal(t, "Orca", quote.RoutePlan[0].SwapInfo.Label)
	assert.Equal(t, int64(123456), quote.ContextSlot)
}

func TestGetQuoteLocalValidationNoNetworkCall(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("validation failures must not reach the network")
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)

	cases := []GetQuoteParams{
		{InputMint: solMint, OutputMint: solMint, Amount: "1000"},          // same pair
		{InputMint: solMint, OutputMint: usdcMint, Amount: "0"},            // zero amount
		{InputMint: solMint, OutputMint: usdcMint, Amount: "-5"},           // negative
		{InputMint: solMint, OutputMint: usdcMint, Amount: "1.5"},          // not integer
		{InputMint: "", OutputMint: usdcMint, Amount: "1000"},              // missing mint
		{InputMint: solMint, OutputMint: usdcMint, Amount: "1000", SlippageBps: 9999}, // slippage too high
	}
	for _, params := range cases {
		_, err := c.GetQuote(context.Background(), params)
		var pe *ParamError
		assert.ErrorAs(t, err, &pe, "params %+v", params)
	}
}

func TestGetQuoteEmptyRouteIsNoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"inputMint":"` + solMint + `","outputMint":"` + usdcMint + `","routePlan":[]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.GetQuote(context.Background(), GetQuoteParams{
		InputMint: solMint, OutputMint: usdcMint, Amount: "1000",
	})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestGetQuoteUpstreamNoRouteCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Could not find any route","errorCode":"COULD_NOT_FIND_ANY_ROUTE"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.GetQuote(context.Background(), GetQuoteParams{
		InputMint: solMint, OutputMint: usdcMint, Amount: "1000",
	})
	assert.ErrorIs(t, err, ErrNoRoute)
}

func TestGetQuoteStructuredRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"slippage tolerance exceeded","details":"try a higher slippageBps"}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.GetQuote(context.Background(), GetQuoteParams{
		InputMint: solMint, OutputMint: usdcMint, Amount: "1000",
	})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, http.StatusBadRequest, ue.Status)
	assert.Contains(t, ue.Message, "slippage tolerance exceeded")
	assert.False(t, ue.Retriable, "a structured rejection is not retriable as-is")
}

func TestGetQuoteOpaqueFailureIsRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("upstream maintenance"))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.GetQuote(context.Background(), GetQuoteParams{
		InputMint: solMint, OutputMint: usdcMint, Amount: "1000",
	})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.True(t, ue.Retriable)
	assert.True(t, IsRetriable(err))
}

func TestGetQuoteTransportErrorIsRetriable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // connection refused from here on

	c := newTestClient(srv.URL, srv.URL)
	_, err := c.GetQuote(context.Background(), GetQuoteParams{
		InputMint: solMint, OutputMint: usdcMint, Amount: "1000",
	})

	var ue *UpstreamError
	require.ErrorAs(t, err, &ue)
	assert.Equal(t, 0, ue.Status)
	assert.True(t, ue.Retriable)
}

func TestBuildSwap(t *testing.T) {
	var gotBody SwapRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Write([]byte(`{"swapTransaction":"c2lnbmVkLXR4","lastValidBlockHeight":250000000,"prioritizationFeeLamports":5000}`))
	}))
	defer srv.Close()

	var quote QuoteResponse
	require.NoError(t, json.Unmarshal([]byte(quoteJSON("1000000000", "150000000")), &quote))

	c := NewClient(Config{
		QuoteAPIURL:     srv.URL,
		SwapAPIURL:      srv.URL,
		ReferralAccount: testAddr,
		ReferralFeeBps:  20,
	})
	resp, err := c.BuildSwap(context.Background(), BuildSwapParams{
		Quote:         &quote,
		UserPublicKey: testAddr,
	})
	require.NoError(t, err)

	assert.Equal(t, "c2lnbmVkLXR4", resp.SwapTransaction)
	assert.Equal(t, uint64(250000000), resp.LastValidBlockHeight)

	assert.Equal(t, testAddr, gotBody.UserPublicKey)
	assert.True(t, gotBody.WrapAndUnwrapSol, "wrapAndUnwrapSol defaults to true")
	assert.Equal(t, testAddr, gotBody.FeeAccount, "referral account rides along as feeAccount")
	require.NotNil(t, gotBody.QuoteResponse)
	assert.Equal(t, "150000000", gotBody.QuoteResponse.OutAmount)
}

func TestBuildSwapValidation(t *testing.T) {
	c := newTestClient("http://127.0.0.1:0", "http://127.0.0.1:0")

	_, err := c.BuildSwap(context.Background(), BuildSwapParams{UserPublicKey: testAddr})
	var pe *ParamError
	assert.ErrorAs(t, err, &pe)

	_, err = c.BuildSwap(context.Background(), BuildSwapParams{Quote: &QuoteResponse{}})
	assert.ErrorAs(t, err, &pe)

	_, err = c.BuildSwap(context.Background(), BuildSwapParams{Quote: &QuoteResponse{}, UserPublicKey: "not-a-key"})
	assert.ErrorAs(t, err, &pe)
}

func TestAPIKeyHeader(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("x-api-key")
		w.Write([]byte(quoteJSON("1000", "2000")))
	}))
	defer srv.Close()

	c := NewClient(Config{QuoteAPIURL: srv.URL, SwapAPIURL: srv.URL, APIKey: "secret-tier"})
	_, err := c.GetQuote(context.Background(), GetQuoteParams{
		InputMint: solMint, OutputMint: usdcMint, Amount: "1000",
	})
	require.NoError(t, err)
	assert.Equal(t, "secret-tier", gotKey)
}
