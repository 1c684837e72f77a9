package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/gymdesk/accessbridge/internal/interfaces/cli/migrate"
	"github.com/gymdesk/accessbridge/internal/interfaces/cli/server"
	"github.com/gymdesk/accessbridge/internal/interfaces/cli/worker"
	"github.com/gymdesk/accessbridge/internal/shared/version"
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "accessbridge",
		Short:   "AccessBridge - gym door-controller integration",
		Long:    `AccessBridge pushes member credentials to branch door controllers and turns their entry and exit events into attendance sessions.`,
		Version: version.String(),
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
