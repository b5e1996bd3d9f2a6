package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "authsvc",
		Short: "Email and password authentication with optional two-factor login",
		Long: `authsvc issues signed session tokens for email/password logins,
optionally gated by a six digit code delivered out of band, and keeps a
denylist of logged out tokens until they expire.

Running without a subcommand is the same as "authsvc serve".`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	serve := serveCmd()
	rootCmd.RunE = serve.RunE

	rootCmd.AddCommand(
		serve,
		hashPasswordCmd(),
		versionCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
