package parser

import (
	"fmt"
	"regexp"
	"strings"
)

// SwapCommand is the parsed form of a user's swap request.
type SwapCommand struct {
	Amount      string
	InputToken  string // symbol or mint address, case preserved
	OutputToken string
}

// Mint addresses are case-sensitive base58, so token operands keep
// their original casing; only the keywords are matched loosely.
var commandPattern = regexp.MustCompile(`^(?i:swap\s+)?(\d*\.?\d+)\s+(\S+)\s+(?i:to|->)\s+(\S+)$`)

// ParseSwapCommand parses a swap command of the form
// "<amount> <token> to <token>", e.g. "1.5 SOL to USDC" or
// "0.25 SOL to EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v".
func ParseSwapCommand(command string) (*SwapCommand, error) {
	matches := commandPattern.FindStringSubmatch(strings.TrimSpace(command))
	if matches == nil {
		return nil, fmt.Errorf("invalid swap command format. Expected: '<amount> <token> to <token>' (e.g. '1.5 SOL to USDC')")
	}

	return &SwapCommand{
		Amount:      matches[1],
		InputToken:  matches[2],
		OutputToken: matches[3],
	}, nil
}
