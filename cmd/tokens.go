package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-swap/config"
	"sol-swap/pkg/tokens"
)

var (
	filterSymbol string
	permissive   bool
)

var tokensCmd = &cobra.Command{
	Use:     "list-tokens",
	Aliases: []string{"tokens", "ls"},
	Short:   "List tradable tokens",
	Long: `List the tokens known to the swap tool.

The curated (strict) list is used by default; pass --permissive for the
full list. When no source is reachable a small built-in set is shown.

Examples:
  sol-swap list-tokens
  sol-swap list-tokens --symbol USD
  sol-swap list-tokens --permissive`,
	Run: runListTokens,
}

func init() {
	rootCmd.AddCommand(tokensCmd)

	tokensCmd.Flags().StringVar(&filterSymbol, "symbol", "", "Filter by token symbol")
	tokensCmd.Flags().BoolVar(&permissive, "permissive", false, "Use the full (permissive) token list")
}

func runListTokens(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	strict := cfg.StrictTokens && !permissive

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching token list..."
		s.Start()
	}

	registry := tokens.NewLoader(tokens.Sources(strict), nil).Load(context.Background())
	if !jsonOutput {
		s.Stop()
	}

	filtered := registry.All()
	if filterSymbol != "" {
		var temp []tokens.Token
		for _, token := range filtered {
			if strings.Contains(strings.ToUpper(token.Symbol), strings.ToUpper(filterSymbol)) {
				temp = append(temp, token)
			}
		}
		filtered = temp
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(filtered, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayTokens(filtered, registry.IsFallback())
}

func displayTokens(list []tokens.Token, fallback bool) {
	if len(list) == 0 {
		fmt.Println("\nNo tokens found matching the criteria.")
		return
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	color.Green("                            TRADABLE TOKENS")
	fmt.Println(strings.Repeat("=", 90))

	if fallback {
		color.Yellow("\nToken list sources were unreachable; showing the built-in set.")
	}
	fmt.Println()

	for _, token := range list {
		address := token.Address
		if len(address) > 44 {
			address = address[:41] + "..."
		}

		fmt.Printf("  %-10s  %2d decimals  %s\n",
			color.YellowString(token.Symbol),
			token.Decimals,
			color.HiBlackString(address))
	}

	fmt.Println("\n" + strings.Repeat("=", 90))
	fmt.Printf("\nTotal: %d tokens\n\n", len(list))
}
