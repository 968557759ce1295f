package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "bridge",
	Short: "Bridge orchestrates cross-chain burn-and-mint transfers",
	Long: `Bridge drives burn-and-mint transfers through their approve, burn,
attest and mint steps, persisting progress so interrupted transfers can be
resumed exactly where they stopped.`,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML config file")
}
