package executor

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// ErrSigningRejected means the user declined the signature request in
// their wallet. Callers should reset quietly, not raise an error banner.
var ErrSigningRejected = errors.New("signing rejected by wallet")

// SigningError is any wallet fault other than a user rejection.
type SigningError struct {
	Err error
}

func (e *SigningError) Error() string { return fmt.Sprintf("wallet signing failed: %v", e.Err) }
func (e *SigningError) Unwrap() error { return e.Err }

// SubmissionError means the node never accepted the signed transaction
// within the bounded attempt budget. The signature was produced, so a
// blind automatic retry of the whole swap is not safe.
type SubmissionError struct {
	Attempts int
	Err      error
}

func (e *SubmissionError) Error() string {
	return fmt.Sprintf("submission failed after %d attempts: %v", e.Attempts, e.Err)
}
func (e *SubmissionError) Unwrap() error { return e.Err }

// ExecutionError means the transaction landed on-chain but reverted.
// Terminal; the same transaction cannot be retried.
type ExecutionError struct {
	Signature solana.Signature
	TxErr     interface{}
}

func (e *ExecutionError) Error() string {
	return fmt.Sprintf("transaction %s failed on-chain: %v", e.Signature, e.TxErr)
}
