package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/tgraph/internal/app"
)

func (c *CLI) newGraphCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "graph [patterns...]",
		Short: "Print the target graph of the given target patterns",
		Long: `Print the target graph of the given target patterns.

Patterns are labels such as //java/lib:lib, relative labels such as :lib
interpreted against the current directory, or package wildcards such as
//java/lib: selecting every target of a package.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Help()
				return nil
			}
			output, _ := cmd.Flags().GetString("output")
			platform, _ := cmd.Flags().GetString("platform")
			daemon, _ := cmd.Flags().GetBool("daemon")
			jsonOut, _ := cmd.Flags().GetBool("json")

			// --json is shorthand for --output=json
			if jsonOut {
				output = "json"
			}

			return c.app.Graph(cmd.Context(), args, app.GraphOptions{
				Platform: platform,
				Daemon:   daemon,
				Output:   output,
			})
		},
	}
	cmd.Flags().StringP("output", "o", "auto", "Output mode: auto, pretty, plain, or json")
	cmd.Flags().Bool("json", false, "Print the graph as JSON (shorthand for --output=json)")
	cmd.Flags().StringP("platform", "p", "", "Configure every target for this platform")
	cmd.Flags().BoolP("daemon", "d", false, "Answer the request from the workspace daemon, starting it if needed")
	return cmd
}
