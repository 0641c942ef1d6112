package main

import (
	"os"

	"github.com/spf13/cobra"

	"verge/internal/interfaces/cli/migrate"
	"verge/internal/interfaces/cli/server"
	"verge/internal/interfaces/cli/worker"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "verge",
		Short: "Verge - subscription panel traffic engine",
		Long:  `Verge runs the periodic traffic reset and trial traffic check for a subscription panel, with an admin HTTP API and migration tools.`,
	}

	rootCmd.AddCommand(
		server.NewCommand(),
		worker.NewCommand(),
		migrate.NewCommand(),
	)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
