package main

import (
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"agentdesk/internal/logger"
)

var version = "dev"

type rootOptions struct {
	ConfigFile string
}

func main() {
	// A missing .env is fine; real environment variables still apply.
	_ = godotenv.Load()

	if err := newRootCommand().Execute(); err != nil {
		logger.New().Failure("Error: %v", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "agentdesk",
		Short:         "Let an agent drive a desktop's pointer, keyboard and display",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.ConfigFile, "config", "",
		"config file (default ./config.yaml, $HOME/.agentdesk/config.yaml or /etc/agentdesk/config.yaml)")

	cmd.AddCommand(
		newServeCommand(opts),
		newMcpCommand(opts),
		newDoCommand(opts),
		newOptionsCommand(opts),
	)
	return cmd
}
