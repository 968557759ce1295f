package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Version is the release tag, overridable at build time with -ldflags.
var Version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of bridge",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("bridge version %s\n", Version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
