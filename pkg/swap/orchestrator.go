// Package swap sequences the end-to-end workflow: amount conversion,
// quote, fresh re-quote, transaction build, and execution. It owns the
// stage annotation the UI uses to decide between "retry from scratch"
// and "check manually".
package swap

import (
	"context"
	"errors"

	"go.uber.org/zap"

	"sol-swap/pkg/amount"
	"sol-swap/pkg/executor"
	"sol-swap/pkg/jupiter"
)

// Stage names the workflow step that produced a failure.
type Stage string

const (
	StageValidate Stage = "validate"
	StageQuote    Stage = "quote"
	StageBuild    Stage = "build"
	StageSign     Stage = "sign"
	StageSubmit   Stage = "submit"
	StageConfirm  Stage = "confirm"
)

// Aggregator is the quote/build surface the orchestrator depends on.
// *jupiter.Client satisfies it.
type Aggregator interface {
	GetQuote(ctx context.Context, params jupiter.GetQuoteParams) (*jupiter.QuoteResponse, error)
	BuildSwap(ctx context.Context, params jupiter.BuildSwapParams) (*jupiter.SwapResponse, error)
}

// TxExecutor runs the sign/submit/confirm state machine.
// *executor.Executor satisfies it.
type TxExecutor interface {
	Execute(ctx context.Context, txBase64 string, signer executor.Signer) (executor.Result, error)
}

// Params describe one swap the user asked for. Amount is the decimal
// string as entered; conversion to base units happens here.
type Params struct {
	InputMint     string
	OutputMint    string
	Amount        string
	InputDecimals int
	SlippageBps   int
	Signer        executor.Signer

	// PrioritizationFeeLamports is passed through to the build step.
	PrioritizationFeeLamports uint64
}

// Outcome is the terminal result of one Execute call.
type Outcome struct {
	// Signature is set once a transaction was submitted (and also on
	// post-submission failures, for manual verification).
	Signature string
	// Quote is the fresh quote the transaction was built from.
	Quote *jupiter.QuoteResponse
	// Unconfirmed is the advisory flag: the transaction was submitted
	// but the confirmation budget ran out without a definitive answer.
	Unconfirmed bool
	// Stage is where the workflow stopped when Err is set.
	Stage Stage
	Err   error
}

// Succeeded reports a submitted transaction, confirmed or not.
func (o Outcome) Succeeded() bool { return o.Err == nil }

// Retriable reports whether the whole operation may be retried blindly
// with unchanged inputs. That is only safe while no signature was
// produced; once signing happened, a retry needs explicit user
// re-initiation.
func (o Outcome) Retriable() bool {
	if o.Err == nil {
		return false
	}
	var sub *executor.SubmissionError
	var exe *executor.ExecutionError
	if errors.As(o.Err, &sub) || errors.As(o.Err, &exe) {
		return false
	}
	return true
}

// Orchestrator wires the aggregator client and transaction executor
// into the single end-to-end workflow.
type Orchestrator struct {
	aggregator Aggregator
	executor   TxExecutor
	log        *zap.Logger
}

// NewOrchestrator creates an orchestrator. A nil logger is replaced
// with a no-op one.
func NewOrchestrator(agg Aggregator, exec TxExecutor, log *zap.Logger) *Orchestrator {
	if log == nil {
		log = zap.NewNop()
	}
	return &Orchestrator{aggregator: agg, executor: exec, log: log}
}

// Execute runs convert -> quote -> fresh quote -> build -> execute.
// The second quote fetch with identical parameters guards against the
// displayed quote having gone stale between the user's look and their
// click; the transaction is always built from the fresh one.
func (o *Orchestrator) Execute(ctx context.Context, p Params) Outcome {
	baseUnits, err := amount.ToBaseUnits(p.Amount, p.InputDecimals)
	if err != nil {
		return Outcome{Stage: StageValidate, Err: err}
	}
	if baseUnits == "0" {
		return Outcome{Stage: StageValidate, Err: &jupiter.ParamError{
			Field: "amount", Reason: "must be greater than zero",
		}}
	}
	if p.Signer == nil {
		return Outcome{Stage: StageValidate, Err: &jupiter.ParamError{
			Field: "signer", Reason: "wallet not connected",
		}}
	}

	quoteParams := jupiter.GetQuoteParams{
		InputMint:   p.InputMint,
		OutputMint:  p.OutputMint,
		Amount:      baseUnits,
		SlippageBps: p.SlippageBps,
		Taker:       p.Signer.PublicKey().String(),
	}

	if _, err := o.aggregator.GetQuote(ctx, quoteParams); err != nil {
		return Outcome{Stage: StageQuote, Err: err}
	}

	// Fresh quote immediately before building. If this fails nothing
	// was consumed and the caller may retry the whole operation.
	fresh, err := o.aggregator.GetQuote(ctx, quoteParams)
	if err != nil {
		return Outcome{Stage: StageQuote, Err: err}
	}

	o.log.Debug("fresh quote obtained",
		zap.String("inputMint", fresh.InputMint),
		zap.String("outputMint", fresh.OutputMint),
		zap.String("inAmount", fresh.InAmount),
		zap.String("outAmount", fresh.OutAmount),
		zap.String("priceImpactPct", fresh.PriceImpactPct))

	built, err := o.aggregator.BuildSwap(ctx, jupiter.BuildSwapParams{
		Quote:                     fresh,
		UserPublicKey:             p.Signer.PublicKey().String(),
		PrioritizationFeeLamports: p.PrioritizationFeeLamports,
	})
	if err != nil {
		return Outcome{Quote: fresh, Stage: StageBuild, Err: err}
	}

	res, err := o.executor.Execute(ctx, built.SwapTransaction, p.Signer)
	if err != nil {
		var sig string
		if !res.Signature.IsZero() {
			sig = res.Signature.String()
		}
		return Outcome{
			Signature: sig,
			Quote:     fresh,
			Stage:     stageOfExecError(err),
			Err:       err,
		}
	}

	return Outcome{
		Signature:   res.Signature.String(),
		Quote:       fresh,
		Unconfirmed: res.Unconfirmed,
	}
}

func stageOfExecError(err error) Stage {
	var sub *executor.SubmissionError
	var exe *executor.ExecutionError
	switch {
	case errors.As(err, &sub):
		return StageSubmit
	case errors.As(err, &exe):
		return StageConfirm
	default:
		return StageSign
	}
}
