// Package main provides the entry point for the proposal agent CLI and HTTP API server.
package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	configPath  string
	apiKeysFlag string
	verbose     bool
)

var rootCmd = &cobra.Command{
	Use:   "proposal_agent",
	Short: "Freelance proposal writer",
	Long: `Proposal Agent writes cover letters for freelance job postings from the freelancer's
background, proposal rules and portfolio, and revises them on request.

Configuration is read from --config (JSON or YAML), then the environment
(GEMINI_API_KEYS, PROPOSAL_STORE, DATABASE_URL, ...), then built-in defaults.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a config file (.json, .yaml or .yml)")
	rootCmd.PersistentFlags().StringVar(&apiKeysFlag, "api-keys", "", "Comma-separated API keys in rotation order (overrides config and environment)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print detailed progress and debug logs")
}

func main() {
	// Load .env file if it exists
	_ = godotenv.Load()

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
