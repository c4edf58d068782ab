// Package tui is the interactive dependency browser: a lazily expanded
// package tree with refresh and circular-dependency notices in the status
// line.
package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pkgtree/pkgtree/core/tree"
)

type loadedMsg struct {
	err error
}

type treeChangedMsg struct {
	event tree.Event
}

func loadCmd(provider *tree.Provider) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: provider.Load(context.Background())}
	}
}

func refreshCmd(provider *tree.Provider) tea.Cmd {
	return func() tea.Msg {
		return loadedMsg{err: provider.Refresh(context.Background())}
	}
}

// Run starts the browser and blocks until the user quits. Tree-changed
// events from outside (the watcher, the server) are forwarded into the
// program so the view stays current.
func Run(provider *tree.Provider) error {
	program := tea.NewProgram(newModel(provider), tea.WithAltScreen())

	unsubscribe := provider.Subscribe(func(ev tree.Event) {
		program.Send(treeChangedMsg{event: ev})
	})
	defer unsubscribe()

	if _, err := program.Run(); err != nil {
		return fmt.Errorf("running browser: %w", err)
	}
	return nil
}
