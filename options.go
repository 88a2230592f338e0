package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"agentdesk/internal/config"
	"agentdesk/internal/logger"
)

func newOptionsCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "options",
		Short: "Print the display descriptor advertised to agents",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(root.ConfigFile)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger.New())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := json.MarshalIndent(a.computer.Options(), "", "  ")
			if err != nil {
				return err
			}
			fmt.Fprintln(os.Stdout, string(data))
			return nil
		},
	}
}
