package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/tree"
)

var treeDepth int
var treeRootsOnly bool

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree [package]",
	Short: "Print the workspace dependency tree",
	Long: `Prints the workspace packages and their in-workspace dependencies as a
tree. With a package argument only that package's subtree is printed.
Dependency edges that close a cycle are printed once and marked circular
instead of being followed.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupLogging(); err != nil {
			return err
		}
		logger.Debug("tree called")

		provider, _, err := resolveWorkspace()
		if err != nil {
			return err
		}
		if err := provider.Load(cmd.Context()); err != nil {
			return err
		}

		if len(args) == 1 {
			node, ok := provider.Node(args[0])
			if !ok {
				return fmt.Errorf("unknown package %q", args[0])
			}
			printNode(os.Stdout, provider, node, nil, "", 0)
			return nil
		}

		roots, err := provider.Roots(cmd.Context())
		if err != nil {
			return err
		}
		if len(roots) == 0 {
			fmt.Println("no packages discovered")
			return nil
		}
		root := roots[0]

		fmt.Printf("%s (%s)\n", root.Name(), root.Description)
		children := provider.Children(root)
		if treeRootsOnly {
			children = filterRoots(provider, children)
		}
		printChildren(os.Stdout, provider, children, nil, nil, "", 1)
		return nil
	},
}

func filterRoots(provider *tree.Provider, nodes []*tree.Node) []*tree.Node {
	graph := provider.Graph()
	keep := make(map[string]bool)
	for _, name := range graph.Roots() {
		keep[name] = true
	}
	out := make([]*tree.Node, 0, len(nodes))
	for _, n := range nodes {
		if keep[n.Name()] {
			out = append(out, n)
		}
	}
	return out
}

func printNode(w io.Writer, provider *tree.Provider, node *tree.Node, ancestors []string, prefix string, depth int) {
	label := node.Name()
	if node.Package.Version != "" {
		label += " " + node.Package.Version
	}
	fmt.Fprintln(w, label)
	expandNode(w, provider, node, ancestors, prefix, depth+1)
}

func expandNode(w io.Writer, provider *tree.Provider, node *tree.Node, ancestors []string, prefix string, depth int) {
	if treeDepth > 0 && depth > treeDepth {
		return
	}
	children, notices := provider.Expand(node, ancestors)
	cycled := make(map[string]bool, len(notices))
	for _, notice := range notices {
		cycled[notice.To] = true
	}
	printChildren(w, provider, children, cycled, childChain(node, ancestors), prefix, depth)
}

func printChildren(w io.Writer, provider *tree.Provider, children []*tree.Node, cycled map[string]bool, ancestors []string, prefix string, depth int) {
	for i, child := range children {
		connector, childPrefix := "├── ", prefix+"│   "
		if i == len(children)-1 {
			connector, childPrefix = "└── ", prefix+"    "
		}

		label := child.Name()
		if child.Package.Version != "" {
			label += " " + child.Package.Version
		}
		if cycled[child.Name()] {
			label += " (circular)"
		}
		fmt.Fprintln(w, prefix+connector+label)

		if cycled[child.Name()] || !child.Expandable() {
			continue
		}
		expandNode(w, provider, child, ancestors, childPrefix, depth+1)
	}
}

// childChain extends the ancestor chain with node itself, except for the
// synthetic root, which never participates in cycles.
func childChain(node *tree.Node, ancestors []string) []string {
	if node.Kind == tree.KindRoot {
		return nil
	}
	return append(append([]string{}, ancestors...), node.Name())
}

func init() {
	rootCmd.AddCommand(treeCmd)

	treeCmd.Flags().IntVar(&treeDepth, "depth", 0, "Maximum depth to print (0 = unlimited)")
	treeCmd.Flags().BoolVar(&treeRootsOnly, "roots", false, "Only print packages no other package depends on")
}
