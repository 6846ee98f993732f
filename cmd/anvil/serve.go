package main

import (
	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"anvil/internal/server"
)

var (
	serveVerbosity int
	serveLogFile   string
)

var serveCmd = &cobra.Command{
	Use:          "serve",
	Short:        "Run the language server over stdio",
	SilenceUsage: true,
	RunE:         runServe,
}

func init() {
	serveCmd.Flags().IntVarP(&serveVerbosity, "verbose", "v", 1, "log verbosity (0-2)")
	serveCmd.Flags().StringVar(&serveLogFile, "log", "", "log to this file instead of stderr")
}

func runServe(cmd *cobra.Command, _ []string) error {
	// Stdout carries the protocol; logs must go elsewhere.
	var path *string
	if serveLogFile != "" {
		path = &serveLogFile
	}
	commonlog.Configure(serveVerbosity, path)

	return server.New().RunStdio()
}
