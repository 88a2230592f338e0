package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"

	"agentdesk/internal/computer"
	"agentdesk/internal/config"
	"agentdesk/internal/logger"
	"agentdesk/internal/types"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type DoOptions struct {
	Text         string
	Coordinate   string
	OutputFormat string
}

func newDoCommand(root *rootOptions) *cobra.Command {
	opts := &DoOptions{}

	cmd := &cobra.Command{
		Use:   "do <action>",
		Short: "Perform a single action and print the result",
		Example: `  agentdesk do screenshot
  agentdesk do left_click --coordinate 640,400
  agentdesk do key --text ctrl+l
  agentdesk do type --text "hello" --output json`,
		Args: cobra.ExactArgs(1),
		ValidArgsFunction: func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
			if len(args) > 0 {
				return nil, cobra.ShellCompDirectiveNoFileComp
			}
			var names []string
			for _, a := range computer.Actions() {
				names = append(names, string(a))
			}
			return names, cobra.ShellCompDirectiveNoFileComp
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			req := buildRequest(args[0], opts, cmd.Flags().Changed("text"))

			cfg, err := config.Load(root.ConfigFile)
			if err != nil {
				return err
			}
			log := logger.New()
			a, err := newApp(cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.queue.Submit(context.Background(), req)
			return printResult(os.Stdout, a.shots, res, err, opts.OutputFormat)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.Text, "text", "", "text to type or key chord to press")
	flags.StringVar(&opts.Coordinate, "coordinate", "", "x,y pointer position")
	flags.StringVar(&opts.OutputFormat, "output", "text", "Output format (json or text)")

	cmd.RegisterFlagCompletionFunc("output", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"json", "text"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// buildRequest keeps the coordinate raw so malformed input is reported by
// the dispatcher like it is for every other transport.
func buildRequest(action string, opts *DoOptions, hasText bool) computer.Request {
	req := computer.Request{Action: action}
	if hasText {
		text := opts.Text
		req.Text = &text
	}
	if c := strings.TrimSpace(opts.Coordinate); c != "" {
		req.Coordinate = []byte("[" + c + "]")
	}
	return req
}

type artifactLookup interface {
	Lookup(id string) (string, error)
}

func printResult(w io.Writer, shots artifactLookup, res *computer.Result, err error, format string) error {
	if format == "json" {
		data, merr := json.MarshalIndent(types.NewResultMessage("", res, err), "", "  ")
		if merr != nil {
			return merr
		}
		fmt.Fprintln(w, string(data))
		return err
	}

	if err != nil {
		return err
	}
	if res.Output != "" {
		fmt.Fprintln(w, res.Output)
	}
	if res.ArtifactID != "" {
		path, lerr := shots.Lookup(res.ArtifactID)
		if lerr != nil {
			path = res.ArtifactID
		}
		fmt.Fprintf(w, "Screenshot: %s\n", path)
	}
	return nil
}
