package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"agentdesk/internal/config"
	"agentdesk/internal/logger"
	"agentdesk/internal/mcp"
)

func newMcpCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve the computer tool over MCP on stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			log := logger.New()
			log.Plain()

			cfg, err := config.Load(root.ConfigFile)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			log.Info("MCP server initialized in stdio mode")
			return mcp.NewServer(a.queue, a.computer, version, log).Serve(ctx, os.Stdin, os.Stdout)
		},
	}
}
