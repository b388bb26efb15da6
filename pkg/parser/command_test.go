package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSwapCommand(t *testing.T) {
	tests := []struct {
		in   string
		want SwapCommand
	}{
		{"1.5 SOL to USDC", SwapCommand{"1.5", "SOL", "USDC"}},
		{"swap 1 SOL to USDC", SwapCommand{"1", "SOL", "USDC"}},
		{"SWAP 0.25 sol TO usdc", SwapCommand{"0.25", "sol", "usdc"}},
		{".5 BONK to JUP", SwapCommand{".5", "BONK", "JUP"}},
		{"2 SOL -> USDC", SwapCommand{"2", "SOL", "USDC"}},
		{
			"1 SOL to EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v",
			SwapCommand{"1", "SOL", "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSwapCommand(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, *got)
		})
	}
}

func TestParseSwapCommandPreservesMintCase(t *testing.T) {
	got, err := ParseSwapCommand("1 So11111111111111111111111111111111111111112 to USDC")
	require.NoError(t, err)
	assert.Equal(t, "So11111111111111111111111111111111111111112", got.InputToken)
}

func TestParseSwapCommandRejectsGarbage(t *testing.T) {
	for _, bad := range []string{"", "SOL to USDC", "1 SOL", "1 SOL USDC", "one SOL to USDC"} {
		_, err := ParseSwapCommand(bad)
		assert.Error(t, err, "input %q", bad)
	}
}
