package config

import (
	"fmt"
	"os"

	"github.com/spf13/viper"
)

// Well-known mint addresses used as defaults.
const (
	SolMint  = "So11111111111111111111111111111111111111112"
	USDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"
)

// Config holds the application configuration.
type Config struct {
	RPCURL      string
	QuoteAPIURL string
	SwapAPIURL  string

	// APIKey is optional; without it the aggregator serves the
	// unauthenticated tier.
	APIKey string

	// Referral fee collection. Both must be set together.
	ReferralAccount string
	ReferralFeeBps  int

	DefaultInputMint  string
	DefaultOutputMint string
	SlippageBps       int
	StrictTokens      bool

	// PrivateKey is the CLI wallet's base58 key. Only the swap command
	// needs it; quote/tokens/status/serve work without one.
	PrivateKey string

	ListenAddr string
}

var globalConfig *Config

// Load reads configuration from environment variables and an optional
// config file (~/.sol-swap.yaml or ./.sol-swap.yaml).
func Load() (*Config, error) {
	viper.SetConfigName(".sol-swap")
	viper.SetConfigType("yaml")
	viper.AddConfigPath("$HOME")
	viper.AddConfigPath(".")

	viper.SetDefault("rpc_url", "https://api.mainnet-beta.solana.com")
	viper.SetDefault("quote_api_url", "https://quote-api.jup.ag/v6")
	viper.SetDefault("swap_api_url", "https://lite-api.jup.ag/swap/v1")
	viper.SetDefault("default_input_mint", SolMint)
	viper.SetDefault("default_output_mint", USDCMint)
	viper.SetDefault("slippage_bps", 50)
	viper.SetDefault("strict_tokens", true)
	viper.SetDefault("listen_addr", ":8080")

	viper.SetEnvPrefix("SOL_SWAP")
	viper.AutomaticEnv()

	// Config file is optional.
	_ = viper.ReadInConfig()

	cfg := &Config{
		RPCURL:            viper.GetString("rpc_url"),
		QuoteAPIURL:       viper.GetString("quote_api_url"),
		SwapAPIURL:        viper.GetString("swap_api_url"),
		APIKey:            viper.GetString("api_key"),
		ReferralAccount:   viper.GetString("referral_account"),
		ReferralFeeBps:    viper.GetInt("referral_fee_bps"),
		DefaultInputMint:  viper.GetString("default_input_mint"),
		DefaultOutputMint: viper.GetString("default_output_mint"),
		SlippageBps:       viper.GetInt("slippage_bps"),
		StrictTokens:      viper.GetBool("strict_tokens"),
		PrivateKey:        viper.GetString("private_key"),
		ListenAddr:        viper.GetString("listen_addr"),
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	globalConfig = cfg
	return cfg, nil
}

func (c *Config) validate() error {
	// Referral settings are both-or-neither: a fee without an account
	// to collect into (or the reverse) is a misconfiguration.
	if (c.ReferralAccount == "") != (c.ReferralFeeBps == 0) {
		return fmt.Errorf("referral_account and referral_fee_bps must be set together")
	}
	if c.ReferralFeeBps < 0 || c.ReferralFeeBps > 255 {
		return fmt.Errorf("referral_fee_bps must be in [0, 255]")
	}
	if c.SlippageBps < 1 || c.SlippageBps > 5000 {
		return fmt.Errorf("slippage_bps must be in [1, 5000]")
	}
	return nil
}

// Get returns the global configuration, loading it on first use.
func Get() *Config {
	if globalConfig == nil {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
			os.Exit(1)
		}
		return cfg
	}
	return globalConfig
}

// Set updates the global configuration.
func Set(cfg *Config) {
	globalConfig = cfg
}
