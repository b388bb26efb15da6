package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "sol-swap",
	Short: "A CLI for swapping Solana tokens through the Jupiter aggregator",
	Long: `sol-swap is a command-line tool for swapping SPL tokens on Solana.
It quotes routes through the Jupiter aggregator, builds the swap
transaction, signs it with your local wallet, and tracks confirmation.

Examples:
  sol-swap quote 1 SOL to USDC
  sol-swap swap 0.5 SOL to BONK --slippage 100
  sol-swap list-tokens --symbol USD
  sol-swap status <signature> --watch
  sol-swap serve`,
	Version: "0.1.0",
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// Add global flags
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().BoolP("json", "j", false, "Output in JSON format")
}

func printError(err error) {
	fmt.Printf("\nError: %v\n\n", err)
}

func printSuccess(message string) {
	fmt.Printf("\n%s\n\n", message)
}
