package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"sol-swap/config"
	"sol-swap/pkg/amount"
	"sol-swap/pkg/jupiter"
	"sol-swap/pkg/parser"
	"sol-swap/pkg/swap"
	"sol-swap/pkg/tokens"
)

var (
	quoteSlippageBps int
	quoteWatch       bool
	quoteInterval    int
)

var quoteCmd = &cobra.Command{
	Use:   "quote <amount> <input-token> to <output-token>",
	Short: "Fetch a swap quote without executing",
	Long: `Fetch the current Jupiter route and price for a swap without
signing or submitting anything.

Tokens may be given by symbol or by mint address. A bare amount quotes
the configured default pair.

Examples:
  sol-swap quote 1 SOL to USDC
  sol-swap quote 0.25
  sol-swap quote 0.5 SOL to DezXAZ8z7PnrnRJjz3wXBoRgixCa6xjnB7YaB1pPB263
  sol-swap quote 100 USDC to SOL --slippage 100
  sol-swap quote 1 SOL to USDC --watch --interval 2`,
	Args: cobra.MinimumNArgs(1),
	Run:  runQuote,
}

func init() {
	rootCmd.AddCommand(quoteCmd)

	quoteCmd.Flags().IntVar(&quoteSlippageBps, "slippage", 0, "Slippage tolerance in basis points (default from config)")
	quoteCmd.Flags().BoolVarP(&quoteWatch, "watch", "w", false, "Keep refreshing the quote")
	quoteCmd.Flags().IntVar(&quoteInterval, "interval", 5, "Refresh interval in seconds (when watching)")
}

func runQuote(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")
	verbose, _ := cmd.Flags().GetBool("verbose")

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	swapReq, err := parseSwapArgs(args, cfg)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	ctx := context.Background()

	input, output, err := resolvePair(ctx, cfg, swapReq, jsonOutput)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	baseUnits, err := amount.ToBaseUnits(swapReq.Amount, input.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	slippage := quoteSlippageBps
	if slippage == 0 {
		slippage = cfg.SlippageBps
	}

	apiClient := newJupiterClient(cfg)

	params := jupiter.GetQuoteParams{
		InputMint:   input.Address,
		OutputMint:  output.Address,
		Amount:      baseUnits,
		SlippageBps: slippage,
	}

	if quoteWatch {
		if jsonOutput {
			fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
			os.Exit(1)
		}
		watchQuote(apiClient, params, input, output)
		return
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	quote, err := apiClient.GetQuote(ctx, params)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		if errors.Is(err, jupiter.ErrNoRoute) {
			fmt.Printf("\nNo route available for %s -> %s.\n\n", input.Symbol, output.Symbol)
			os.Exit(0)
		}
		printError(err)
		os.Exit(1)
	}

	if verbose && !jsonOutput {
		quoteJSON, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println("\n" + string(quoteJSON))
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(quote, "", "  ")
		fmt.Println(string(jsonData))
		return
	}

	displayQuote(quote, input, output)
}

// watchQuote keeps the displayed price current. Each tick goes through
// the refresher, so a slow upstream response never overwrites a newer
// one.
func watchQuote(apiClient *jupiter.Client, params jupiter.GetQuoteParams, input, output tokens.Token) {
	fmt.Printf("\nWatching %s -> %s. Press Ctrl+C to stop.\n\n", input.Symbol, output.Symbol)

	refresher := swap.NewRefresher(apiClient.GetQuote, func(result swap.QuoteResult) {
		timestamp := time.Now().Format("15:04:05")
		if result.Err != nil {
			if errors.Is(result.Err, jupiter.ErrNoRoute) {
				fmt.Printf("  %s  no route available\n", timestamp)
				return
			}
			color.Red("  %s  %v", timestamp, result.Err)
			return
		}
		outFormatted, _ := amount.FormatBaseUnits(result.Quote.OutAmount, output.Decimals)
		fmt.Printf("  %s  ~%s %s  (impact %s%%)\n",
			timestamp, color.GreenString(outFormatted), output.Symbol, result.Quote.PriceImpactPct)
	}, swap.DefaultDebounceWindow)
	defer refresher.Close()

	refresher.Request(params)

	ticker := time.NewTicker(time.Duration(quoteInterval) * time.Second)
	defer ticker.Stop()

	for range ticker.C {
		refresher.Request(params)
	}
}

// parseSwapArgs parses the command operands. A bare amount trades the
// configured default pair.
func parseSwapArgs(args []string, cfg *config.Config) (*parser.SwapCommand, error) {
	joined := strings.Join(args, " ")
	swapReq, err := parser.ParseSwapCommand(joined)
	if err == nil {
		return swapReq, nil
	}
	if len(args) == 1 {
		if _, convErr := amount.ToBaseUnits(args[0], 0); convErr == nil {
			return &parser.SwapCommand{
				Amount:      args[0],
				InputToken:  cfg.DefaultInputMint,
				OutputToken: cfg.DefaultOutputMint,
			}, nil
		}
	}
	return nil, err
}

// resolvePair loads the token registry and resolves both operands.
func resolvePair(ctx context.Context, cfg *config.Config, swapReq *parser.SwapCommand, quiet bool) (tokens.Token, tokens.Token, error) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !quiet {
		s.Suffix = " Loading token list..."
		s.Start()
	}

	registry := tokens.NewLoader(tokens.Sources(cfg.StrictTokens), nil).Load(ctx)
	if !quiet {
		s.Stop()
	}

	input, err := registry.Resolve(swapReq.InputToken)
	if err != nil {
		return tokens.Token{}, tokens.Token{}, err
	}
	output, err := registry.Resolve(swapReq.OutputToken)
	if err != nil {
		return tokens.Token{}, tokens.Token{}, err
	}
	return input, output, nil
}

func newJupiterClient(cfg *config.Config) *jupiter.Client {
	return jupiter.NewClient(jupiter.Config{
		QuoteAPIURL:     cfg.QuoteAPIURL,
		SwapAPIURL:      cfg.SwapAPIURL,
		APIKey:          cfg.APIKey,
		ReferralAccount: cfg.ReferralAccount,
		ReferralFeeBps:  cfg.ReferralFeeBps,
	})
}

func displayQuote(quote *jupiter.QuoteResponse, input, output tokens.Token) {
	outFormatted, _ := amount.FormatBaseUnits(quote.OutAmount, output.Decimals)
	minFormatted, _ := amount.FormatBaseUnits(quote.OtherAmountThreshold, output.Decimals)
	inFormatted, _ := amount.FormatBaseUnits(quote.InAmount, input.Decimals)

	fmt.Println("\n" + strings.Repeat("=", 60))
	color.Green("                     SWAP QUOTE")
	fmt.Println(strings.Repeat("=", 60))

	fmt.Printf("\n  From:          %s %s\n", inFormatted, color.YellowString(input.Symbol))
	fmt.Printf("  To:            ~%s %s\n", outFormatted, color.YellowString(output.Symbol))
	fmt.Printf("  Min Received:  %s %s\n", minFormatted, output.Symbol)
	fmt.Printf("  Price Impact:  %s%%\n", quote.PriceImpactPct)
	fmt.Printf("  Slippage:      %d bps\n", quote.SlippageBps)

	if len(quote.RoutePlan) > 0 {
		fmt.Printf("  Route:         %s\n", describeRoute(quote))
	}

	fmt.Println("\n" + strings.Repeat("=", 60) + "\n")
}

func describeRoute(quote *jupiter.QuoteResponse) string {
	labels := make([]string, 0, len(quote.RoutePlan))
	for _, hop := range quote.RoutePlan {
		label := hop.SwapInfo.Label
		if label == "" {
			label = "unknown"
		}
		if hop.Percent < 100 {
			label = fmt.Sprintf("%s (%d%%)", label, hop.Percent)
		}
		labels = append(labels, label)
	}
	return strings.Join(labels, " -> ")
}
