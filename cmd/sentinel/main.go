package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "dev"

var configPath string

var rootCmd = &cobra.Command{
	Use:   "sentinel",
	Short: "Explain significant stock price moves from recent news",
	Long: `Sentinel fetches a price snapshot for a symbol, and when the move is
larger than the basis-point threshold it gathers recent news and asks an LLM
whether the move is justified by fundamentals or is market noise.`,
	CompletionOptions: cobra.CompletionOptions{
		HiddenDefaultCmd: true,
	},
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		return initializeSystem()
	},
	PersistentPostRun: func(cmd *cobra.Command, _ []string) {
		shutdownSystem(cmd.Context())
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "config.yaml", "Path to config file")
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(screenCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(watchCmd)
	rootCmd.AddCommand(listingsCmd)
	rootCmd.Version = version
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
