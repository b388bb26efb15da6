// Package tokens loads and indexes the tradable token list. Candidate
// sources are tried in order; when all of them fail the compiled-in
// default set is used so the tool keeps working offline.
package tokens

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	// StrictListURL serves the curated (strict) token list.
	StrictListURL = "https://token.jup.ag/strict"
	// PermissiveListURL serves the full (permissive) token list.
	PermissiveListURL = "https://token.jup.ag/all"

	fetchTimeout = 10 * time.Second
)

// Token is one tradable asset. Immutable once loaded.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals int    `json:"decimals"`
	LogoURI  string `json:"logoURI,omitempty"`
}

// Source is one candidate token-list endpoint.
type Source struct {
	Name string
	URL  string
}

// Sources returns the ordered candidate list for the chosen mode.
func Sources(strict bool) []Source {
	if strict {
		return []Source{
			{Name: "strict", URL: StrictListURL},
			{Name: "permissive", URL: PermissiveListURL},
		}
	}
	return []Source{
		{Name: "permissive", URL: PermissiveListURL},
		{Name: "strict", URL: StrictListURL},
	}
}

// DefaultTokens is the last-resort static set.
var DefaultTokens = []Token{
	{Address: "So11111111111111111111111111111111111111112", Symbol: "SOL", Name: "Solana", Decimals: 9},
	{Address: "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v", Symbol: "USDC", Name: "USD Coin", Decimals: 6},
	{Address: "Es9vMFrzaCERmJfrF4H2FYD4KCoNkY11McCe8BenwNYB", Symbol: "USDT", Name: "Tether USD", Decimals: 6},
	{Address: "4k3Dyjzvzp8eMZWUXbBCjEvwSkkk59S5iCNLY3QrkX6R", Symbol: "RAY", Name: "Raydium", Decimals: 6},
	{Address: "DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263", Symbol: "BONK", Name: "Bonk", Decimals: 5},
	{Address: "JUPyiwrYJFskUPiHa7hkeR8VUtAeFoSYbKedZNsDvCN", Symbol: "JUP", Name: "Jupiter", Decimals: 6},
}

// Loader fetches the token list from its configured sources.
type Loader struct {
	sources    []Source
	httpClient *http.Client
	log        *zap.Logger
}

// NewLoader creates a loader over the given sources. A nil logger is
// replaced with a no-op one.
func NewLoader(sources []Source, log *zap.Logger) *Loader {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loader{
		sources:    sources,
		httpClient: &http.Client{Timeout: fetchTimeout},
		log:        log,
	}
}

// Load tries each source in order and returns a registry over the
// first successful result, falling back to DefaultTokens when every
// source fails. The returned error is nil in the fallback case; the
// registry reports whether it is a fallback.
func (l *Loader) Load(ctx context.Context) *Registry {
	for _, src := range l.sources {
		list, err := l.fetch(ctx, src.URL)
		if err != nil {
			l.log.Warn("token list source failed",
				zap.String("source", src.Name),
				zap.Error(err))
			continue
		}
		l.log.Debug("token list loaded",
			zap.String("source", src.Name),
			zap.Int("count", len(list)))
		return newRegistry(list, false)
	}
	l.log.Warn("all token list sources failed, using built-in defaults")
	return newRegistry(DefaultTokens, true)
}

func (l *Loader) fetch(ctx context.Context, rawURL string) ([]Token, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var list []Token
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("decode token list: %w", err)
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("empty token list")
	}
	return list, nil
}

// Registry is an in-memory index of tokens by symbol and mint address.
type Registry struct {
	tokens   []Token
	bySymbol map[string]Token
	byMint   map[string]Token
	fallback bool
}

func newRegistry(list []Token, fallback bool) *Registry {
	r := &Registry{
		tokens:   list,
		bySymbol: make(map[string]Token, len(list)),
		byMint:   make(map[string]Token, len(list)),
		fallback: fallback,
	}
	for _, t := range list {
		key := strings.ToUpper(t.Symbol)
		// First occurrence wins; strict lists put the canonical token first.
		if _, exists := r.bySymbol[key]; !exists {
			r.bySymbol[key] = t
		}
		r.byMint[t.Address] = t
	}
	return r
}

// IsFallback reports whether the registry holds the static default set.
func (r *Registry) IsFallback() bool { return r.fallback }

// All returns the tokens sorted by symbol.
func (r *Registry) All() []Token {
	out := make([]Token, len(r.tokens))
	copy(out, r.tokens)
	sort.Slice(out, func(i, j int) bool { return out[i].Symbol < out[j].Symbol })
	return out
}

// BySymbol looks a token up by its symbol, case-insensitively.
func (r *Registry) BySymbol(symbol string) (Token, bool) {
	t, ok := r.bySymbol[strings.ToUpper(symbol)]
	return t, ok
}

// ByMint looks a token up by its mint address.
func (r *Registry) ByMint(address string) (Token, bool) {
	t, ok := r.byMint[address]
	return t, ok
}

// Resolve accepts a mint address, an exact symbol, or a symbol prefix
// that matches a single token.
func (r *Registry) Resolve(s string) (Token, error) {
	if t, ok := r.ByMint(s); ok {
		return t, nil
	}
	if t, ok := r.BySymbol(s); ok {
		return t, nil
	}

	prefix := strings.ToUpper(s)
	var matches []Token
	for _, t := range r.tokens {
		if strings.HasPrefix(strings.ToUpper(t.Symbol), prefix) {
			matches = append(matches, t)
		}
	}
	switch len(matches) {
	case 1:
		return matches[0], nil
	case 0:
		return Token{}, fmt.Errorf("unknown token %q", s)
	default:
		return Token{}, fmt.Errorf("ambiguous token %q: matches %d symbols", s, len(matches))
	}
}
