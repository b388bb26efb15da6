// Package executor drives a built swap transaction through signing,
// submission and confirmation: Built -> Signed -> Submitted ->
// {Confirmed, Failed, Unknown}. The wallet is asked for a signature
// exactly once; submission retries resend the same signed bytes.
package executor

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"
)

// SolanaRPC is the slice of the node RPC surface the executor uses.
// *rpc.Client satisfies it.
type SolanaRPC interface {
	SendRawTransactionWithOpts(ctx context.Context, txData []byte, opts rpc.TransactionOpts) (solana.Signature, error)
	GetSignatureStatuses(ctx context.Context, searchTransactionHistory bool, transactionSignatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error)
}

// Signer is the externally-supplied wallet signing capability. Sign
// attaches the wallet's signature to the transaction in place and
// returns ErrSigningRejected when the user declines.
type Signer interface {
	PublicKey() solana.PublicKey
	Sign(ctx context.Context, tx *solana.Transaction) error
}

// Options bound the executor's retry and polling budgets.
type Options struct {
	SubmitAttempts  int           // bounded resubmissions of the signed bytes
	SubmitInterval  time.Duration // pause between submission attempts
	ConfirmAttempts int           // status polls before giving up
	ConfirmInterval time.Duration // pause between status polls
	SkipPreflight   bool
	Commitment      rpc.CommitmentType
}

// DefaultOptions returns the recommended budgets: 3 submissions 1s
// apart, 30 confirmation polls 1s apart.
func DefaultOptions() Options {
	return Options{
		SubmitAttempts:  3,
		SubmitInterval:  time.Second,
		ConfirmAttempts: 30,
		ConfirmInterval: time.Second,
		Commitment:      rpc.CommitmentConfirmed,
	}
}

// Result is the terminal state of an execution. Unconfirmed means the
// confirmation budget ran out without a definitive answer; the
// signature is still valid and the transaction may land later.
type Result struct {
	Signature   solana.Signature
	Confirmed   bool
	Unconfirmed bool
}

// Executor submits signed transactions to a node and polls for their
// confirmation.
type Executor struct {
	rpc  SolanaRPC
	opts Options
	log  *zap.Logger
}

// New creates an executor over the given RPC endpoint.
func New(rpcClient SolanaRPC, opts Options, log *zap.Logger) *Executor {
	if opts.SubmitAttempts <= 0 {
		opts.SubmitAttempts = 1
	}
	if opts.ConfirmAttempts < 0 {
		opts.ConfirmAttempts = 0
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{rpc: rpcClient, opts: opts, log: log}
}

// Execute deserializes the base64 transaction envelope, obtains the
// wallet signature once, submits the signed bytes with bounded retries
// and polls for confirmation.
func (e *Executor) Execute(ctx context.Context, txBase64 string, signer Signer) (Result, error) {
	raw, err := base64.StdEncoding.DecodeString(txBase64)
	if err != nil {
		return Result{}, fmt.Errorf("decode transaction envelope: %w", err)
	}

	tx, err := solana.TransactionFromDecoder(bin.NewBinDecoder(raw))
	if err != nil {
		return Result{}, fmt.Errorf("deserialize transaction: %w", err)
	}

	// Built -> Signed. Exactly one signer invocation.
	if err := signer.Sign(ctx, tx); err != nil {
		if err == ErrSigningRejected {
			return Result{}, err
		}
		return Result{}, &SigningError{Err: err}
	}

	signedBytes, err := tx.MarshalBinary()
	if err != nil {
		return Result{}, &SigningError{Err: fmt.Errorf("serialize signed transaction: %w", err)}
	}
	if len(tx.Signatures) == 0 {
		return Result{}, &SigningError{Err: fmt.Errorf("signer produced no signature")}
	}
	sig := tx.Signatures[0]

	// Signed -> Submitted. The same bytes go out on every attempt.
	if err := e.submit(ctx, signedBytes, sig); err != nil {
		return Result{Signature: sig}, err
	}

	// Submitted -> Confirmed | Failed | Unknown.
	return e.confirm(ctx, sig)
}

func (e *Executor) submit(ctx context.Context, signedBytes []byte, sig solana.Signature) error {
	opts := rpc.TransactionOpts{
		SkipPreflight:       e.opts.SkipPreflight,
		PreflightCommitment: e.opts.Commitment,
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= e.opts.SubmitAttempts; attempt++ {
		attempts = attempt
		_, err := e.rpc.SendRawTransactionWithOpts(ctx, signedBytes, opts)
		if err == nil {
			e.log.Debug("transaction submitted",
				zap.String("signature", sig.String()),
				zap.Int("attempt", attempt))
			return nil
		}

		// A duplicate-submission answer means an earlier attempt landed.
		if strings.Contains(err.Error(), "already been processed") {
			return nil
		}

		lastErr = err
		e.log.Warn("submission attempt failed",
			zap.String("signature", sig.String()),
			zap.Int("attempt", attempt),
			zap.Error(err))

		if !isTransientSubmitErr(ctx, err) || attempt == e.opts.SubmitAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return &SubmissionError{Attempts: attempt, Err: ctx.Err()}
		case <-time.After(e.opts.SubmitInterval):
		}
	}
	return &SubmissionError{Attempts: attempts, Err: lastErr}
}

func (e *Executor) confirm(ctx context.Context, sig solana.Signature) (Result, error) {
	for attempt := 0; attempt < e.opts.ConfirmAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return Result{Signature: sig, Unconfirmed: true}, nil
		case <-time.After(e.opts.ConfirmInterval):
		}

		statuses, err := e.rpc.GetSignatureStatuses(ctx, true, sig)
		if err != nil {
			// A failed status read consumes budget but does not abort:
			// the transaction may still be landing.
			e.log.Debug("status poll failed", zap.Error(err))
			continue
		}
		if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
			continue
		}

		st := statuses.Value[0]
		if st.Err != nil {
			// Landed on-chain but reverted. Terminal and distinct from
			// a submission failure.
			return Result{Signature: sig}, &ExecutionError{Signature: sig, TxErr: st.Err}
		}
		switch st.ConfirmationStatus {
		case rpc.ConfirmationStatusConfirmed, rpc.ConfirmationStatusFinalized:
			e.log.Debug("transaction confirmed",
				zap.String("signature", sig.String()),
				zap.Uint64("slot", st.Slot))
			return Result{Signature: sig, Confirmed: true}, nil
		}
	}

	// Budget exhausted without a definitive answer. Not a failure: the
	// caller gets the signature plus an advisory.
	return Result{Signature: sig, Unconfirmed: true}, nil
}

// isTransientSubmitErr separates network/RPC hiccups, which are worth a
// resubmission, from errors that mean the transaction itself is bad.
func isTransientSubmitErr(ctx context.Context, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	for _, permanent := range []string{
		"invalid",
		"sanitize",
		"signature verification failure",
		"simulation failed",
		"insufficient funds",
	} {
		if strings.Contains(msg, permanent) {
			return false
		}
	}
	return true
}
