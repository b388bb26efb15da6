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
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/cobra"

	"sol-swap/config"
)

var (
	watchStatus   bool
	watchInterval int
)

var statusCmd = &cobra.Command{
	Use:   "status <signature>",
	Short: "Check the status of a submitted transaction",
	Long: `Look up a transaction signature on the configured RPC node and
report its confirmation status.

Examples:
  sol-swap status 5VERv8NMvzbJMEkV8xnrLkEaWRtSz9CosKDYjCJjBRnbJLgp8uirBgmQpjKhoR4tjF3ZpRzrFmBV6UjKdiSZkQUW
  sol-swap status <signature> --watch
  sol-swap status <signature> --watch --interval 10`,
	Args: cobra.ExactArgs(1),
	Run:  runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)

	statusCmd.Flags().BoolVarP(&watchStatus, "watch", "w", false, "Watch status updates continuously")
	statusCmd.Flags().IntVar(&watchInterval, "interval", 5, "Polling interval in seconds (when watching)")
}

func runStatus(cmd *cobra.Command, args []string) {
	jsonOutput, _ := cmd.Flags().GetBool("json")

	signature, err := solana.SignatureFromBase58(args[0])
	if err != nil {
		printError(fmt.Errorf("invalid transaction signature: %v", err))
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		printError(err)
		os.Exit(1)
	}

	rpcClient := rpc.New(cfg.RPCURL)

	if watchStatus {
		watchTxStatus(rpcClient, signature, jsonOutput)
	} else {
		checkTxStatus(rpcClient, signature, jsonOutput)
	}
}

func checkTxStatus(rpcClient *rpc.Client, signature solana.Signature, jsonOutput bool) {
	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	if !jsonOutput {
		s.Suffix = " Checking transaction status..."
		s.Start()
	}

	status, err := fetchTxStatus(rpcClient, signature)
	if !jsonOutput {
		s.Stop()
	}

	if err != nil {
		printError(err)
		os.Exit(1)
	}

	if jsonOutput {
		jsonData, _ := json.MarshalIndent(statusJSON(signature, status), "", "  ")
		fmt.Println(string(jsonData))
	} else {
		displayStatus(signature, status)
	}
}

func watchTxStatus(rpcClient *rpc.Client, signature solana.Signature, jsonOutput bool) {
	if jsonOutput {
		fmt.Println(`{"error": "watch mode not supported with JSON output"}`)
		os.Exit(1)
	}

	fmt.Printf("\nWatching transaction %s\n", color.CyanString(signature.String()))
	fmt.Printf("Checking every %d seconds. Press Ctrl+C to stop.\n\n", watchInterval)

	ticker := time.NewTicker(time.Duration(watchInterval) * time.Second)
	defer ticker.Stop()

	// Check immediately first
	checkAndDisplayStatus(rpcClient, signature)

	// Then check periodically
	for range ticker.C {
		done := checkAndDisplayStatus(rpcClient, signature)
		if done {
			return
		}
	}
}

func checkAndDisplayStatus(rpcClient *rpc.Client, signature solana.Signature) bool {
	status, err := fetchTxStatus(rpcClient, signature)
	if err != nil {
		color.Red("Error: %v", err)
		return false
	}

	displayStatus(signature, status)

	return status != nil && status.ConfirmationStatus == rpc.ConfirmationStatusFinalized
}

func fetchTxStatus(rpcClient *rpc.Client, signature solana.Signature) (*rpc.SignatureStatusesResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	out, err := rpcClient.GetSignatureStatuses(ctx, true, signature)
	if err != nil {
		return nil, err
	}
	if out == nil || len(out.Value) == 0 {
		return nil, nil
	}
	return out.Value[0], nil
}

func displayStatus(signature solana.Signature, status *rpc.SignatureStatusesResult) {
	fmt.Println("\n" + strings.Repeat("=", 70))
	color.Green("                     TRANSACTION STATUS")
	fmt.Println(strings.Repeat("=", 70))

	fmt.Printf("\n  Signature:     %s\n", color.CyanString(signature.String()))

	if status == nil {
		fmt.Printf("  Status:        %s\n", color.YellowString("NOT FOUND"))
		fmt.Println("\n  The node does not know this signature. It may still be")
		fmt.Println("  propagating, or it expired without being processed.")
		fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
		return
	}

	fmt.Printf("  Status:        %s\n", coloredConfirmation(status))
	fmt.Printf("  Slot:          %d\n", status.Slot)

	if status.Confirmations != nil {
		fmt.Printf("  Confirmations: %d\n", *status.Confirmations)
	} else {
		fmt.Printf("  Confirmations: %s\n", "max (rooted)")
	}

	if status.Err != nil {
		color.Red("  On-chain Err:  %v", status.Err)
	}

	fmt.Printf("\n  Explorer:      %s\n", solscanURL(signature.String()))
	fmt.Println("\n" + strings.Repeat("=", 70) + "\n")
}

func coloredConfirmation(status *rpc.SignatureStatusesResult) string {
	if status.Err != nil {
		return color.RedString("FAILED")
	}

	switch status.ConfirmationStatus {
	case rpc.ConfirmationStatusFinalized:
		return color.GreenString("FINALIZED")
	case rpc.ConfirmationStatusConfirmed:
		return color.GreenString("CONFIRMED")
	case rpc.ConfirmationStatusProcessed:
		return color.YellowString("PROCESSED")
	default:
		return string(status.ConfirmationStatus)
	}
}

func statusJSON(signature solana.Signature, status *rpc.SignatureStatusesResult) map[string]interface{} {
	out := map[string]interface{}{
		"signature": signature.String(),
		"explorer":  solscanURL(signature.String()),
	}
	if status == nil {
		out["status"] = "not_found"
		return out
	}
	out["status"] = string(status.ConfirmationStatus)
	out["slot"] = status.Slot
	if status.Confirmations != nil {
		out["confirmations"] = *status.Confirmations
	}
	if status.Err != nil {
		out["error"] = fmt.Sprintf("%v", status.Err)
	}
	return out
}
