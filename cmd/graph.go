package cmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pkgtree/pkgtree/core/export"
	"github.com/pkgtree/pkgtree/core/logger"
)

var graphDOT bool
var graphJSON bool
var graphCycles bool
var graphOut string

// graphCmd represents the graph command
var graphCmd = &cobra.Command{
	Use:   "graph",
	Short: "Inspect the resolved dependency graph",
	Long: `Summarizes the workspace dependency graph. --dot and --json export the
whole graph for other tools; --cycles runs a full scan and lists every
dependency cycle.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		logger.Debug("graph called")

		provider, _, err := resolveWorkspace()
		if err != nil {
			return err
		}
		if err := provider.Load(cmd.Context()); err != nil {
			return err
		}
		ws, graph := provider.Workspace(), provider.Graph()

		switch {
		case graphDOT:
			out, err := export.DOT(ws, graph)
			if err != nil {
				return err
			}
			return writeOutput(out)

		case graphJSON:
			out, err := export.JSON(ws, graph)
			if err != nil {
				return err
			}
			return writeOutput(out)

		case graphCycles:
			cycles := graph.Cycles()
			if len(cycles) == 0 {
				fmt.Println("no dependency cycles")
				return nil
			}
			for _, cycle := range cycles {
				closed := append(append([]string{}, cycle...), cycle[0])
				fmt.Println(strings.Join(closed, " -> "))
			}
			return fmt.Errorf("found %d dependency cycle(s)", len(cycles))

		default:
			stats := graph.Stats()
			fmt.Printf("%-13s %s (%s)\n", "workspace:", ws.Root.Name, ws.Tool)
			fmt.Printf("%-13s %d\n", "packages:", stats.Packages)
			fmt.Printf("%-13s %d\n", "edges:", stats.Edges)
			fmt.Printf("%-13s %d\n", "leaves:", stats.Leaves)
			fmt.Printf("%-13s %d\n", "max fan-out:", stats.MaxOutDegree)
			if roots := graph.Roots(); len(roots) > 0 {
				fmt.Printf("%-13s %s\n", "entry points:", strings.Join(roots, ", "))
			}
			return nil
		}
	},
}

func writeOutput(data []byte) error {
	if graphOut == "" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(graphOut, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", graphOut, err)
	}
	logger.Info("Wrote %s", graphOut)
	return nil
}

func init() {
	rootCmd.AddCommand(graphCmd)

	graphCmd.Flags().BoolVar(&graphDOT, "dot", false, "Export the graph in Graphviz dot format")
	graphCmd.Flags().BoolVar(&graphJSON, "json", false, "Export the graph as JSON")
	graphCmd.Flags().BoolVar(&graphCycles, "cycles", false, "Scan the whole graph for dependency cycles")
	graphCmd.Flags().StringVar(&graphOut, "out", "", "Write exports to a file instead of stdout")
	graphCmd.MarkFlagsMutuallyExclusive("dot", "json", "cycles")
}
