package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/server"
	"github.com/pkgtree/pkgtree/core/watcher"
)

var serveNoWatch bool

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the dependency graph over HTTP",
	Long: `Starts a local server exposing the workspace over a JSON API, with a
websocket channel pushing tree-changed and cycle notifications. Manifest
changes on disk reload the snapshot automatically unless --no-watch is
given.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		logger.Debug("serve called")

		provider, cfg, err := resolveWorkspace()
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if !serveNoWatch {
			w, err := watcher.New(provider.Root(), cfg)
			if err != nil {
				return err
			}
			w.OnStart = func() error {
				logger.Info("Watching %s for manifest changes", provider.Root())
				return nil
			}
			w.OnChange = func() error {
				return provider.Refresh(context.Background())
			}
			w.OnClose = func() error { return nil }
			defer w.Close()

			go func() {
				if err := w.Watch(); err != nil {
					logger.Error("Watcher stopped: %v", err)
				}
			}()
		}

		return server.NewServer(cfg, provider).Start(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().BoolVar(&serveNoWatch, "no-watch", false, "Do not watch the workspace for manifest changes")
}
