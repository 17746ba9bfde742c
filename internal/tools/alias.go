package tools

import (
	"strings"

	"github.com/localcoder/nanocore/internal/types"
)

type canonical struct {
	tool   types.Tool
	action string
}

// aliasTable is fixed and total: every canonical "tool.action" form maps to
// itself (so normalizing an already-canonical string is a no-op), and every
// short alias maps to its canonical form. Unknown input normalizes to
// (ToolNone, "", false).
var aliasTable = map[string]canonical{
	"git.status": {types.ToolGit, "status"},
	"git.commit": {types.ToolGit, "commit"},
	"git.push":   {types.ToolGit, "push"},
	"git.pull":   {types.ToolGit, "pull"},
	"git.clone":  {types.ToolGit, "clone"},

	"file.read":   {types.ToolFile, "read"},
	"file.write":  {types.ToolFile, "write"},
	"file.list":   {types.ToolFile, "list"},
	"file.delete": {types.ToolFile, "delete"},

	"shell.run":   {types.ToolShell, "run"},
	"shell.mkdir": {types.ToolShell, "mkdir"},
	"shell.pty":   {types.ToolShell, "pty"},

	"sqlite.schema": {types.ToolSQLite, "schema"},
	"sqlite.query":  {types.ToolSQLite, "query"},

	// short aliases
	"read":      {types.ToolFile, "read"},
	"write":     {types.ToolFile, "write"},
	"ls":        {types.ToolFile, "list"},
	"list":      {types.ToolFile, "list"},
	"delete":    {types.ToolFile, "delete"},
	"terminal":  {types.ToolShell, "run"},
	"run":       {types.ToolShell, "run"},
	"execute":   {types.ToolShell, "run"},
	"install":   {types.ToolShell, "run"},
	"rm":        {types.ToolShell, "run"},
	"pwd":       {types.ToolShell, "run"},
	"mkdir":     {types.ToolShell, "mkdir"},
	"status":    {types.ToolGit, "status"},
	"commit":    {types.ToolGit, "commit"},
	"push":      {types.ToolGit, "push"},
	"pull":      {types.ToolGit, "pull"},
	"clone":     {types.ToolGit, "clone"},
	"schema":    {types.ToolSQLite, "schema"},
	"query":     {types.ToolSQLite, "query"},
}

// NormalizeAlias maps a raw tool token — a bare alias ("read", "ls",
// "terminal") or an already-canonical "tool.action" string — to its
// canonical (Tool, action) form. It is idempotent: normalizing a canonical
// string returns that same string's mapping unchanged.
func NormalizeAlias(raw string) (tool types.Tool, action string, ok bool) {
	key := strings.ToLower(strings.TrimSpace(raw))
	c, found := aliasTable[key]
	if !found {
		return types.ToolNone, "", false
	}
	return c.tool, c.action, true
}
