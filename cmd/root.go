/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/pkgtree/pkgtree/core/config"
	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/tree"
	"github.com/pkgtree/pkgtree/core/workspace"
)

var rootCmd = &cobra.Command{
	Use:   "pkgtree",
	Short: "Browse the dependency graph of a JavaScript monorepo.",
	Long: `Pkgtree discovers the packages of an npm, yarn, pnpm or lerna workspace,
resolves the dependency edges between them and presents the result as a
lazily expanded tree: printed, in an interactive browser, or served over
a local HTTP and websocket API.`,
}

var logfile string
var verbose bool
var workDir string

func Execute() {
	err := rootCmd.Execute()
	if err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logfile, "logfile", "", "File to write logs to")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
	rootCmd.PersistentFlags().StringVar(&workDir, "dir", "", "Directory to resolve the workspace from (default: working directory)")
}

func setupLogging() error {
	logger.SetVerbose(verbose)
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		logger.SetColors(false)
	}
	if logfile == "" {
		return nil
	}
	f, err := os.OpenFile(logfile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open logfile: %w", err)
	}
	logger.AddWriter(f)
	return nil
}

// resolveWorkspace locates the workspace root for the --dir flag (or the
// working directory), loads config from it and returns an unloaded
// provider. A directory with no workspace root above it is treated as a
// root itself so single packages still work.
func resolveWorkspace() (*tree.Provider, *config.Config, error) {
	dir := workDir
	if dir == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		dir = wd
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	root, ok := workspace.FindRoot(abs)
	if !ok {
		logger.Debug("No workspace root above %s, using it directly", abs)
		root = abs
	}

	cfg, err := config.Load(root)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}

	provider := tree.NewProvider(workspace.NewEnumerator(cfg), root)
	return provider, cfg, nil
}
