package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// Overridable at build time via -ldflags.
var version = "0.1.0-dev"

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the anvil version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Println("anvil", version)
	},
}
