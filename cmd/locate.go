package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/tracker"
)

// locateCmd represents the locate command
var locateCmd = &cobra.Command{
	Use:   "locate <file>",
	Short: "Find the workspace package that owns a file",
	Long: `Resolves a file path to the workspace package containing it, the way an
editor integration would track its active file.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		logger.Debug("locate called")

		abs, err := filepath.Abs(args[0])
		if err != nil {
			return fmt.Errorf("failed to resolve %s: %w", args[0], err)
		}

		provider, _, err := resolveWorkspace()
		if err != nil {
			return err
		}

		node, ok, err := tracker.New(provider).Track(cmd.Context(), abs)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("no workspace package owns %s", abs)
		}

		if node.Package.Version != "" {
			fmt.Printf("%s@%s %s\n", node.Name(), node.Package.Version, node.Package.Dir)
		} else {
			fmt.Printf("%s %s\n", node.Name(), node.Package.Dir)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(locateCmd)
}
