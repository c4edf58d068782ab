package workspace

import (
	"os"
	"path/filepath"
)

// Workspace-tool command names. The value is what a user would type to run
// scripts in the workspace.
const (
	ToolNPM   = "npm"
	ToolYarn  = "yarn"
	ToolPnpm  = "pnpm"
	ToolLerna = "lerna"
)

// DetectTool inspects the root for tool-specific files and reports which
// workspace tool manages it. The second return is false when nothing
// identifiable is present.
func DetectTool(root string) (string, bool) {
	checks := []struct {
		file string
		tool string
	}{
		{"pnpm-workspace.yaml", ToolPnpm},
		{"pnpm-lock.yaml", ToolPnpm},
		{"yarn.lock", ToolYarn},
		{"lerna.json", ToolLerna},
		{"package-lock.json", ToolNPM},
	}

	for _, c := range checks {
		if _, err := os.Stat(filepath.Join(root, c.file)); err == nil {
			return c.tool, true
		}
	}
	return "", false
}

// ResolveTool applies the precedence the configuration surface promises:
// an explicit override beats detection, detection beats the npm fallback.
func ResolveTool(root, override string) string {
	if override != "" {
		return override
	}
	if tool, ok := DetectTool(root); ok {
		return tool
	}
	return ToolNPM
}
