package wallet

import (
	"context"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/system"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLocalSigner(t *testing.T) {
	generated := solana.NewWallet()

	signer, err := NewLocalSigner(generated.PrivateKey.String())
	require.NoError(t, err)
	assert.Equal(t, generated.PublicKey(), signer.PublicKey())
}

func TestNewLocalSignerRejectsBadKeys(t *testing.T) {
	_, err := NewLocalSigner("")
	assert.Error(t, err)

	_, err = NewLocalSigner("not-a-base58-key!!")
	assert.Error(t, err)
}

func TestSignAttachesSignature(t *testing.T) {
	generated := solana.NewWallet()
	signer, err := NewLocalSigner(generated.PrivateKey.String())
	require.NoError(t, err)

	tx, err := solana.NewTransaction(
		[]solana.Instruction{
			system.NewTransferInstruction(1, generated.PublicKey(), solana.NewWallet().PublicKey()).Build(),
		},
		solana.Hash{},
		solana.TransactionPayer(generated.PublicKey()),
	)
	require.NoError(t, err)

	require.NoError(t, signer.Sign(context.Background(), tx))
	require.Len(t, tx.Signatures, 1)
	assert.False(t, tx.Signatures[0].IsZero())
}
