package export

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"

	"github.com/pkgtree/pkgtree/core/resolver"
	"github.com/pkgtree/pkgtree/core/workspace"
)

const dotTemplate = `digraph {{ quote .Name }} {
  rankdir=LR;
  node [shape=box];
{{- range .Nodes }}
  {{ quote . }};
{{- end }}
{{- range .Edges }}
  {{ quote .From }} -> {{ quote .To }};
{{- end }}
}
`

var dotFuncMap = template.FuncMap{
	"quote": func(s string) string {
		return `"` + strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s) + `"`
	},
}

type dotEdge struct {
	From string
	To   string
}

type dotData struct {
	Name  string
	Nodes []string
	Edges []dotEdge
}

// DOT renders the workspace graph in Graphviz dot syntax. Every member
// appears as a node even when it has no edges, so isolated packages stay
// visible in the drawing.
func DOT(ws *workspace.Workspace, graph *resolver.Graph) ([]byte, error) {
	tmpl, err := template.New("dot").Funcs(dotFuncMap).Parse(dotTemplate)
	if err != nil {
		return nil, fmt.Errorf("parsing dot template: %w", err)
	}

	data := dotData{Name: ws.Root.Name}
	for _, member := range ws.Members {
		data.Nodes = append(data.Nodes, member.Name)
		for _, dep := range graph.Dependencies(member.Name) {
			data.Edges = append(data.Edges, dotEdge{From: member.Name, To: dep})
		}
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, fmt.Errorf("rendering dot graph: %w", err)
	}
	return buf.Bytes(), nil
}
