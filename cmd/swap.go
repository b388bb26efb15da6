package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"sol-swap/config"
	"sol-swap/pkg/amount"
	"sol-swap/pkg/executor"
	"sol-swap/pkg/jupiter"
	"sol-swap/pkg/swap"
	"sol-swap/pkg/wallet"
)

var (
	swapSlippageBps int
	priorityFee     uint64
	noConfirm       bool
)

var swapCmd = &cobra.Command{
	Use:   "swap <amount> <input-token> to <output-token>",
	Short: "Execute a token swap",
	Long: `Swap SPL tokens through the Jupiter aggregator.

The wallet private key must be configured (SOL_SWAP_PRIVATE_KEY or
private_key in ~/.sol-swap.yaml). A fresh quote is fetched immediately
before the transaction is built, so the executed price may differ
slightly from the preview.

Examples:
  sol-swap swap 1 SOL to USDC
  sol-swap swap 0.5 SOL to BONK --slippage 100
  sol-swap swap 100 USDC to SOL --priority-fee 10000 --yes`,
	Args: cobra.MinimumNArgs(1),
	Run:  runSwap,
}

func init() {
	rootCmd.AddCommand(swapCmd)

	swapCmd.Flags().IntVar(&swapSlippageBps, "slippage", 0, "Slippage tolerance in basis points (default from config)")
	swapCmd.Flags().Uint64Var(&priorityFee, "priority-fee", 0, "Prioritization fee in lamports")
	swapCmd.Flags().BoolVarP(&noConfirm, "yes", "y", false, "Skip confirmation prompt")
}

func runSwap(cmd *cobra.Command, args []string) {
	verbose, _ := cmd.Flags().GetBool("verbose")
	jsonOutput, _ := cmd.Flags().GetBool("json")

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

	if cfg.PrivateKey == "" {
		printError(fmt.Errorf("no wallet configured: set SOL_SWAP_PRIVATE_KEY or private_key in ~/.sol-swap.yaml"))
		os.Exit(1)
	}

	signer, err := wallet.NewLocalSigner(cfg.PrivateKey)
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

	slippage := swapSlippageBps
	if slippage == 0 {
		slippage = cfg.SlippageBps
	}

	logger := zap.NewNop()
	if verbose {
		logger, _ = zap.NewDevelopment()
	}

	apiClient := newJupiterClient(cfg)

	baseUnits, err := amount.ToBaseUnits(swapReq.Amount, input.Decimals)
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	// Preview quote. The orchestrator refetches before building, so this
	// is display only.
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Fetching quote..."
		s.Start()
	}

	preview, err := apiClient.GetQuote(ctx, jupiter.GetQuoteParams{
		InputMint:   input.Address,
		OutputMint:  output.Address,
		Amount:      baseUnits,
		SlippageBps: slippage,
		Taker:       signer.PublicKey().String(),
	})
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

	if !jsonOutput {
		displayQuote(preview, input, output)

		if !noConfirm && !confirmSwap() {
			fmt.Println("\nSwap cancelled.")
			os.Exit(0)
		}
	}

	rpcClient := rpc.New(cfg.RPCURL)
	exec := executor.New(rpcClient, executor.DefaultOptions(), logger)
	orchestrator := swap.NewOrchestrator(apiClient, exec, logger)

	if !jsonOutput {
		s.Suffix = " Executing swap..."
		s.Start()
	}

	outcome := orchestrator.Execute(ctx, swap.Params{
		InputMint:                 input.Address,
		OutputMint:                output.Address,
		Amount:                    swapReq.Amount,
		InputDecimals:             input.Decimals,
		SlippageBps:               slippage,
		Signer:                    signer,
		PrioritizationFeeLamports: priorityFee,
	})
	if !jsonOutput {
		s.Stop()
	}

	if jsonOutput {
		renderOutcomeJSON(outcome)
		return
	}

	renderOutcome(outcome, input.Symbol, output.Symbol)
}

func renderOutcome(outcome swap.Outcome, inputSymbol, outputSymbol string) {
	if outcome.Succeeded() {
		if outcome.Unconfirmed {
			color.Yellow("\nTransaction submitted but not confirmed within the polling window.")
			fmt.Printf("Check it manually: %s\n\n", solscanURL(outcome.Signature))
			return
		}
		printSuccess(color.GreenString("Swap confirmed!"))
		fmt.Printf("  Pair:       %s -> %s\n", inputSymbol, outputSymbol)
		fmt.Printf("  Signature:  %s\n", color.CyanString(outcome.Signature))
		fmt.Printf("  Explorer:   %s\n\n", solscanURL(outcome.Signature))
		return
	}

	// A declined wallet prompt is a user decision, not an error.
	if errors.Is(outcome.Err, executor.ErrSigningRejected) {
		fmt.Println("\nSwap cancelled.")
		os.Exit(0)
	}

	fmt.Printf("\nSwap failed at the %s stage.\n", outcome.Stage)
	printError(outcome.Err)

	if outcome.Signature != "" {
		color.Yellow("A transaction was submitted. Verify its state before retrying:")
		fmt.Printf("  %s\n\n", solscanURL(outcome.Signature))
	} else if outcome.Retriable() {
		fmt.Println("Nothing was submitted; it is safe to retry.")
	}
	os.Exit(1)
}

func renderOutcomeJSON(outcome swap.Outcome) {
	out := map[string]interface{}{
		"succeeded":   outcome.Succeeded(),
		"unconfirmed": outcome.Unconfirmed,
	}
	if outcome.Signature != "" {
		out["signature"] = outcome.Signature
		out["explorer"] = solscanURL(outcome.Signature)
	}
	if outcome.Err != nil {
		out["stage"] = string(outcome.Stage)
		out["error"] = outcome.Err.Error()
		out["retriable"] = outcome.Retriable()
	}
	jsonData, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(jsonData))
	if outcome.Err != nil {
		os.Exit(1)
	}
}

func solscanURL(signature string) string {
	return "https://solscan.io/tx/" + signature
}

func confirmSwap() bool {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("\nProceed with swap? (y/N): ")

	response, err := reader.ReadString('\n')
	if err != nil {
		return false
	}

	response = strings.TrimSpace(strings.ToLower(response))
	return response == "y" || response == "yes"
}
