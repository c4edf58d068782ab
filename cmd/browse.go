package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/tui"
)

// browseCmd represents the browse command
var browseCmd = &cobra.Command{
	Use:   "browse",
	Short: "Browse the dependency tree interactively",
	Long: `Opens the workspace in an interactive terminal browser. Packages expand
lazily; circular dependencies are marked in place and reported in the
status line.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		logger.Debug("browse called")

		if !term.IsTerminal(int(os.Stdout.Fd())) {
			return fmt.Errorf("browse needs an interactive terminal; use 'pkgtree tree' instead")
		}

		provider, _, err := resolveWorkspace()
		if err != nil {
			return err
		}
		return tui.Run(provider)
	},
}

func init() {
	rootCmd.AddCommand(browseCmd)
}
