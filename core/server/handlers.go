package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/pkgtree/pkgtree/core/export"
	"github.com/pkgtree/pkgtree/core/logger"
	"github.com/pkgtree/pkgtree/core/tree"
)

type nodeView struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Expandable  bool   `json:"expandable"`
}

func viewOf(n *tree.Node) nodeView {
	return nodeView{Name: n.Name(), Description: n.Description, Expandable: n.Expandable()}
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/tree", s.handleTree)
	mux.HandleFunc("GET /api/children", s.handleChildren)
	mux.HandleFunc("GET /api/graph", s.handleGraph)
	mux.HandleFunc("GET /api/graph.dot", s.handleGraphDOT)
	mux.HandleFunc("GET /api/locate", s.handleLocate)
	mux.HandleFunc("POST /api/refresh", s.handleRefresh)
	mux.HandleFunc("GET /ws", s.hub.serveWs)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": s.provider.Status(),
		"root":   s.provider.Root(),
	})
}

func (s *Server) handleTree(w http.ResponseWriter, r *http.Request) {
	roots, err := s.provider.Roots(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if len(roots) == 0 {
		writeJSON(w, http.StatusOK, map[string]interface{}{"root": nil, "packages": []nodeView{}})
		return
	}

	root := roots[0]
	packages := make([]nodeView, 0, len(root.Edges()))
	for _, child := range s.provider.Children(root) {
		packages = append(packages, viewOf(child))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"root":     viewOf(root),
		"packages": packages,
	})
}

func (s *Server) handleChildren(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	node, ok := s.provider.Node(name)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown package: "+name)
		return
	}

	var ancestors []string
	if raw := r.URL.Query().Get("path"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			if part != "" {
				ancestors = append(ancestors, part)
			}
		}
	}

	children, notices := s.provider.Expand(node, ancestors)
	views := make([]nodeView, 0, len(children))
	for _, child := range children {
		views = append(views, viewOf(child))
	}
	if notices == nil {
		notices = []tree.CycleNotice{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"children": views,
		"cycles":   notices,
	})
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	ws, graph := s.provider.Workspace(), s.provider.Graph()
	if ws == nil || graph == nil {
		writeError(w, http.StatusServiceUnavailable, "workspace not loaded")
		return
	}
	out, err := export.JSON(ws, graph)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(out)
}

func (s *Server) handleGraphDOT(w http.ResponseWriter, r *http.Request) {
	ws, graph := s.provider.Workspace(), s.provider.Graph()
	if ws == nil || graph == nil {
		writeError(w, http.StatusServiceUnavailable, "workspace not loaded")
		return
	}
	out, err := export.DOT(ws, graph)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "text/vnd.graphviz")
	w.Write(out)
}

func (s *Server) handleLocate(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Query().Get("path")
	if path == "" {
		writeError(w, http.StatusBadRequest, "missing path parameter")
		return
	}
	node, ok, err := s.tracker.Track(r.Context(), path)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if !ok {
		writeError(w, http.StatusNotFound, "no workspace package owns "+path)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"name":    node.Name(),
		"version": node.Package.Version,
		"dir":     node.Package.Dir,
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if err := s.provider.Refresh(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": s.provider.Status()})
}
