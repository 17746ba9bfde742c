package tools

import (
	"testing"

	"github.com/localcoder/nanocore/internal/types"
)

func TestNormalizeAliasExplicitMappings(t *testing.T) {
	cases := []struct {
		raw    string
		tool   types.Tool
		action string
	}{
		{"ls", types.ToolFile, "list"},
		{"terminal", types.ToolShell, "run"},
		{"rm", types.ToolShell, "run"},
		{"pwd", types.ToolShell, "run"},
		{"commit", types.ToolGit, "commit"},
		{"sqlite.query", types.ToolSQLite, "query"},
		{" File.Write ", types.ToolFile, "write"},
	}
	for _, c := range cases {
		tool, action, ok := NormalizeAlias(c.raw)
		if !ok || tool != c.tool || action != c.action {
			t.Errorf("NormalizeAlias(%q) = (%v, %q, %v), want (%v, %q, true)", c.raw, tool, action, ok, c.tool, c.action)
		}
	}
}
