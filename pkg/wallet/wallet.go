// Package wallet provides the CLI's local signing capability: a
// base58-encoded private key loaded from configuration. Browser or
// hardware wallets plug in through the same executor.Signer interface.
package wallet

import (
	"context"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

// LocalSigner signs transactions with an in-process private key.
type LocalSigner struct {
	privateKey solana.PrivateKey
	publicKey  solana.PublicKey
}

// NewLocalSigner parses a base58-encoded private key.
func NewLocalSigner(privateKeyBase58 string) (*LocalSigner, error) {
	if privateKeyBase58 == "" {
		return nil, fmt.Errorf("private key not configured")
	}
	priv, err := solana.PrivateKeyFromBase58(privateKeyBase58)
	if err != nil {
		return nil, fmt.Errorf("invalid private key: %w", err)
	}
	return &LocalSigner{privateKey: priv, publicKey: priv.PublicKey()}, nil
}

// PublicKey returns the wallet address.
func (s *LocalSigner) PublicKey() solana.PublicKey { return s.publicKey }

// Sign attaches the wallet's signature to the transaction in place.
func (s *LocalSigner) Sign(_ context.Context, tx *solana.Transaction) error {
	_, err := tx.Sign(func(key solana.PublicKey) *solana.PrivateKey {
		if key.Equals(s.publicKey) {
			return &s.privateKey
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to sign transaction: %w", err)
	}
	return nil
}
