package swap

import (
	"context"
	"sync"
	"time"

	"sol-swap/pkg/jupiter"
)

// DefaultDebounceWindow is how long the refresher waits after the last
// input change before issuing a quote request.
const DefaultDebounceWindow = 500 * time.Millisecond

// QuoteResult is delivered to the refresher's apply callback. Err may
// be jupiter.ErrNoRoute, which callers present as an empty state.
type QuoteResult struct {
	Params jupiter.GetQuoteParams
	Quote  *jupiter.QuoteResponse
	Err    error
}

// Refresher debounces keystroke-level quote requests and guarantees
// that only the newest request's result is ever applied: superseded
// in-flight fetches are cancelled, and a stale response that races past
// cancellation is discarded by sequence check.
type Refresher struct {
	fetch  func(ctx context.Context, params jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error)
	apply  func(QuoteResult)
	window time.Duration

	mu      sync.Mutex
	seq     uint64
	pending jupiter.GetQuoteParams
	timer   *time.Timer
	cancel  context.CancelFunc
	closed  bool
	wg      sync.WaitGroup
}

// NewRefresher wraps a quote fetch function. apply is invoked from a
// background goroutine with the result of the newest request only.
func NewRefresher(
	fetch func(ctx context.Context, params jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error),
	apply func(QuoteResult),
	window time.Duration,
) *Refresher {
	if window <= 0 {
		window = DefaultDebounceWindow
	}
	return &Refresher{fetch: fetch, apply: apply, window: window}
}

// Request schedules a quote fetch for params. Calls arriving within the
// debounce window replace the pending request; the earlier one is never
// sent.
func (r *Refresher) Request(params jupiter.GetQuoteParams) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return
	}

	r.seq++
	r.pending = params

	// A newer request supersedes any fetch already in flight.
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}

	if r.timer != nil {
		r.timer.Stop()
	}
	seq := r.seq
	r.timer = time.AfterFunc(r.window, func() { r.fire(seq) })
}

func (r *Refresher) fire(seq uint64) {
	r.mu.Lock()
	if r.closed || seq != r.seq {
		r.mu.Unlock()
		return
	}
	params := r.pending
	ctx, cancel := context.WithCancel(context.Background())
	r.cancel = cancel
	r.wg.Add(1)
	r.mu.Unlock()

	go func() {
		defer r.wg.Done()
		quote, err := r.fetch(ctx, params)
		cancel()

		r.mu.Lock()
		stale := r.closed || seq != r.seq
		r.mu.Unlock()
		if stale {
			return
		}
		r.apply(QuoteResult{Params: params, Quote: quote, Err: err})
	}()
}

// Close stops the refresher, cancelling any pending or in-flight fetch,
// and waits for the worker to finish.
func (r *Refresher) Close() {
	r.mu.Lock()
	r.closed = true
	if r.timer != nil {
		r.timer.Stop()
	}
	if r.cancel != nil {
		r.cancel()
	}
	r.mu.Unlock()
	r.wg.Wait()
}
