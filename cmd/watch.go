package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/tree"
	"github.com/pkgtree/pkgtree/core/watcher"
)

// watchCmd represents the watch command
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch the workspace and report dependency changes",
	Long: `Keeps the workspace loaded and reloads it whenever a manifest changes,
logging the new package count. Useful standalone or as a smoke test for
the reload pipeline serve uses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		logger.Debug("watch called")

		provider, cfg, err := resolveWorkspace()
		if err != nil {
			return err
		}
		if err := provider.Load(cmd.Context()); err != nil {
			return err
		}
		logger.Info("%s", provider.Status())

		unsubscribe := provider.Subscribe(func(ev tree.Event) {
			logger.Info("Workspace reloaded: %d packages (%s)", ev.Packages, ev.Reason)
		})
		defer unsubscribe()

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

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()
		<-ctx.Done()
		return nil
	},
}

func init() {
	rootCmd.AddCommand(watchCmd)
}
