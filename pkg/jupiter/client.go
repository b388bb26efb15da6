// Package jupiter is the client for the Jupiter aggregator API: quote
// lookups and swap-transaction building. It owns local validation and
// error classification; retry policy lives with the caller.
package jupiter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	// DefaultQuoteAPI is the public quote endpoint base.
	DefaultQuoteAPI = "https://quote-api.jup.ag/v6"
	// DefaultSwapAPI is the public transaction-build endpoint base.
	DefaultSwapAPI = "https://lite-api.jup.ag/swap/v1"

	// DefaultSlippageBps is applied when the caller passes 0.
	DefaultSlippageBps = 50
	// MaxSlippageBps caps slippage tolerance at 50%.
	MaxSlippageBps = 5000

	// quoteTimeout bounds a quote request.
	quoteTimeout = 10 * time.Second
	// swapTimeout is longer: building a transaction is heavier upstream.
	swapTimeout = 15 * time.Second

	maxResponseSize = 4 * 1024 * 1024
)

// Config carries the client's endpoint and tier settings.
type Config struct {
	QuoteAPIURL     string
	SwapAPIURL      string
	APIKey          string // optional; absence degrades to the unauthenticated tier
	ReferralAccount string // optional; must come with ReferralFeeBps
	ReferralFeeBps  int
	Logger          *zap.Logger
}

// Client talks to the aggregator. It applies rate limiting and a
// circuit breaker around outbound calls but never retries; transient
// failures are reported as retriable for the caller to act on.
type Client struct {
	quoteURL   string
	swapURL    string
	apiKey     string
	referral   string
	refFeeBps  int
	httpClient *http.Client
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker
	log        *zap.Logger
}

// NewClient creates an aggregator client ready to use.
func NewClient(cfg Config) *Client {
	quoteURL := cfg.QuoteAPIURL
	if quoteURL == "" {
		quoteURL = DefaultQuoteAPI
	}
	swapURL := cfg.SwapAPIURL
	if swapURL == "" {
		swapURL = DefaultSwapAPI
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "JupiterAPI",
		MaxRequests: 3,
		Interval:    60 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures > 5
		},
	})

	return &Client{
		quoteURL:  strings.TrimRight(quoteURL, "/"),
		swapURL:   strings.TrimRight(swapURL, "/"),
		apiKey:    cfg.APIKey,
		referral:  cfg.ReferralAccount,
		refFeeBps: cfg.ReferralFeeBps,
		limiter:   rate.NewLimiter(rate.Limit(10), 20),
		breaker:   breaker,
		log:       log,
		httpClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:    10,
				IdleConnTimeout: 90 * time.Second,
			},
		},
	}
}

// GetQuoteParams are the inputs to a quote request.
type GetQuoteParams struct {
	InputMint   string
	OutputMint  string
	Amount      string // integer string, base units
	SlippageBps int    // 0 means DefaultSlippageBps
	Taker       string // optional wallet address
}

func (p *GetQuoteParams) validate() error {
	if p.InputMint == "" {
		return &ParamError{Field: "inputMint", Reason: "required"}
	}
	if p.OutputMint == "" {
		return &ParamError{Field: "outputMint", Reason: "required"}
	}
	if p.InputMint == p.OutputMint {
		return &ParamError{Field: "outputMint", Reason: "must differ from inputMint"}
	}
	n, ok := new(big.Int).SetString(p.Amount, 10)
	if !ok || n.Sign() <= 0 {
		return &ParamError{Field: "amount", Reason: "must be a positive integer string"}
	}
	if p.SlippageBps == 0 {
		p.SlippageBps = DefaultSlippageBps
	}
	if p.SlippageBps < 1 || p.SlippageBps > MaxSlippageBps {
		return &ParamError{Field: "slippageBps", Reason: fmt.Sprintf("must be in [1, %d]", MaxSlippageBps)}
	}
	return nil
}

// GetQuote fetches a quote for swapping Amount of InputMint into
// OutputMint. It returns ErrNoRoute when no liquidity path exists.
func (c *Client) GetQuote(ctx context.Context, params GetQuoteParams) (*QuoteResponse, error) {
	if err := params.validate(); err != nil {
		return nil, err
	}

	q := url.Values{}
	q.Set("inputMint", params.InputMint)
	q.Set("outputMint", params.OutputMint)
	q.Set("amount", params.Amount)
	q.Set("slippageBps", strconv.Itoa(params.SlippageBps))
	if params.Taker != "" {
		q.Set("taker", params.Taker)
	}

	ctx, cancel := context.WithTimeout(ctx, quoteTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodGet, c.quoteURL+"/quote?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}

	var quote QuoteResponse
	if err := json.Unmarshal(body, &quote); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("malformed quote response: %v", err), Retriable: true}
	}
	if len(quote.RoutePlan) == 0 {
		return nil, ErrNoRoute
	}
	return &quote, nil
}

// BuildSwapParams are the inputs to a transaction-build request.
type BuildSwapParams struct {
	Quote                     *QuoteResponse
	UserPublicKey             string
	WrapAndUnwrapSol          *bool // nil means true
	PrioritizationFeeLamports uint64
}

// BuildSwap asks the aggregator to construct an unsigned swap
// transaction for the given quote and wallet. Quotes go stale quickly;
// callers should fetch a fresh quote immediately before this call.
func (c *Client) BuildSwap(ctx context.Context, params BuildSwapParams) (*SwapResponse, error) {
	if params.Quote == nil {
		return nil, &ParamError{Field: "quoteResponse", Reason: "required"}
	}
	if params.UserPublicKey == "" {
		return nil, &ParamError{Field: "userPublicKey", Reason: "required"}
	}
	if _, err := solana.PublicKeyFromBase58(params.UserPublicKey); err != nil {
		return nil, &ParamError{Field: "userPublicKey", Reason: "not a valid address"}
	}

	wrap := true
	if params.WrapAndUnwrapSol != nil {
		wrap = *params.WrapAndUnwrapSol
	}

	req := SwapRequest{
		QuoteResponse:             params.Quote,
		UserPublicKey:             params.UserPublicKey,
		WrapAndUnwrapSol:          wrap,
		DynamicComputeUnitLimit:   true,
		PrioritizationFeeLamports: params.PrioritizationFeeLamports,
	}
	if c.referral != "" {
		req.FeeAccount = c.referral
	}

	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal swap request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, swapTimeout)
	defer cancel()

	body, err := c.do(ctx, http.MethodPost, c.swapURL+"/swap", payload)
	if err != nil {
		return nil, err
	}

	var swap SwapResponse
	if err := json.Unmarshal(body, &swap); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("malformed swap response: %v", err), Retriable: true}
	}
	if swap.SwapTransaction == "" {
		return nil, &UpstreamError{Message: "swap response missing transaction", Retriable: true}
	}
	return &swap, nil
}

type httpResult struct {
	status int
	body   []byte
}

// do performs one HTTP call through the rate limiter and circuit
// breaker and classifies the result into the typed error taxonomy.
func (c *Client) do(ctx context.Context, method, fullURL string, payload []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, &UpstreamError{Message: fmt.Sprintf("rate limiter: %v", err), Retriable: true}
	}

	start := time.Now()
	res, err := c.breaker.Execute(func() (interface{}, error) {
		var reqBody io.Reader
		if payload != nil {
			reqBody = bytes.NewReader(payload)
		}
		req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}
		if c.apiKey != "" {
			req.Header.Set("x-api-key", c.apiKey)
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
		if err != nil {
			return nil, err
		}
		// Server-side faults count against the breaker; client-class
		// statuses are legitimate answers.
		if resp.StatusCode >= 500 {
			return httpResult{resp.StatusCode, body}, fmt.Errorf("upstream status %d", resp.StatusCode)
		}
		return httpResult{resp.StatusCode, body}, nil
	})

	elapsed := time.Since(start)

	if err != nil {
		if res == nil {
			c.log.Warn("aggregator call failed",
				zap.String("method", method),
				zap.String("url", fullURL),
				zap.Duration("elapsed", elapsed),
				zap.Error(err))
			return nil, &UpstreamError{Message: err.Error(), Retriable: true}
		}
		// 5xx with a body: fall through to classification below.
	}

	result, ok := res.(httpResult)
	if !ok {
		return nil, &UpstreamError{Message: "no response from aggregator", Retriable: true}
	}

	c.log.Debug("aggregator call",
		zap.String("method", method),
		zap.String("url", fullURL),
		zap.Int("status", result.status),
		zap.Duration("elapsed", elapsed))

	if result.status >= 200 && result.status < 300 {
		return result.body, nil
	}
	return nil, classifyFailure(result.status, result.body)
}

// classifyFailure turns a non-2xx response into a typed error. A
// structured body means the aggregator understood and declined; an
// opaque body is treated as transient unavailability.
func classifyFailure(status int, body []byte) error {
	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		msg := eb.Error
		if msg == "" {
			msg = eb.Message
		}
		if msg != "" {
			if isNoRoute(eb.ErrorCode, msg) {
				return ErrNoRoute
			}
			return &UpstreamError{Status: status, Message: msg, Details: eb.Details, Retriable: false}
		}
	}
	return &UpstreamError{
		Status:    status,
		Message:   http.StatusText(status),
		Details:   strings.TrimSpace(string(body)),
		Retriable: true,
	}
}

func isNoRoute(code, msg string) bool {
	switch code {
	case "COULD_NOT_FIND_ANY_ROUTE", "NO_ROUTES_FOUND", "ROUTE_PLAN_DOES_NOT_CONSUME_ALL_THE_AMOUNT":
		return true
	}
	return strings.Contains(strings.ToLower(msg), "no route")
}
