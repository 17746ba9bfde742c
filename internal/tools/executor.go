// Package tools is the Tool Executor: the only component of the core that
// touches the outside world (files, shell, git, sqlite). It never invokes
// the Permission Gate itself — callers pass a types.Decision obtained from
// one.
package tools

import (
	"context"

	"github.com/localcoder/nanocore/internal/types"
)

// Executor dispatches (tool, action) calls declared in §6 of the external
// interfaces. allowShell disables the shell tool outright (config surface's
// allowShell=false), independent of any permission decision.
type Executor struct {
	workspaceDir string
	allowShell   bool
}

// NewExecutor builds an Executor rooted at workspaceDir.
func NewExecutor(workspaceDir string, allowShell bool) *Executor {
	return &Executor{workspaceDir: workspaceDir, allowShell: allowShell}
}

// Execute runs one (tool, action) call. decision gates any side effect the
// caller has already classified and approved; Execute does not re-derive
// side-effect classification, it only carries out what the caller allowed.
// A types.DecisionDeny decision is rejected here as a defense in depth —
// callers are expected to short-circuit before reaching Execute.
func (e *Executor) Execute(ctx context.Context, tool types.Tool, action string, params types.Params, decision types.Decision) (types.ToolResult, error) {
	if decision == types.DecisionDeny {
		return types.ToolResult{}, types.NewError(types.ErrPermissionDenied, "%s.%s denied", tool, action)
	}

	switch tool {
	case types.ToolGit:
		switch action {
		case "status":
			return e.gitStatus(params)
		case "commit":
			return e.gitCommit(params)
		case "push":
			return e.gitPush(params)
		default:
			return types.ToolResult{}, types.NewError(types.ErrUnknownAction, "git.%s", action)
		}

	case types.ToolShell:
		if !e.allowShell {
			return types.ToolResult{}, types.NewError(types.ErrForbidden, "shell tool disabled by configuration")
		}
		switch action {
		case "run", "pty":
			cmd, _ := params["command"].(string)
			if isForbiddenShellCommand(cmd) {
				return types.ToolResult{}, types.NewError(types.ErrForbidden, "command matches a forbidden pattern")
			}
			if action == "pty" {
				p := types.Params{}
				for k, v := range params {
					p[k] = v
				}
				p["tty"] = true
				return e.shellRun(ctx, p)
			}
			return e.shellRun(ctx, params)
		case "mkdir":
			return e.shellMkdir(params)
		default:
			return types.ToolResult{}, types.NewError(types.ErrUnknownAction, "shell.%s", action)
		}

	case types.ToolFile:
		switch action {
		case "read":
			return e.fileRead(params)
		case "write":
			return e.fileWrite(params)
		case "list":
			return e.fileList(params)
		case "delete":
			return e.fileDelete(params)
		default:
			return types.ToolResult{}, types.NewError(types.ErrUnknownAction, "file.%s", action)
		}

	case types.ToolSQLite:
		switch action {
		case "schema":
			return e.sqliteSchema(params)
		case "query":
			return e.sqliteQuery(params)
		default:
			return types.ToolResult{}, types.NewError(types.ErrUnknownAction, "sqlite.%s", action)
		}

	default:
		return types.ToolResult{}, types.NewError(types.ErrUnknownTool, "%s", tool)
	}
}

// SideEffect classifies the (tool, action) pair for the Permission Gate.
type SideEffect string

const (
	EffectRead        SideEffect = "Read"
	EffectWrite       SideEffect = "Write"
	EffectNetwork     SideEffect = "Network"
	EffectDestructive SideEffect = "Destructive"
)

// Classify returns the declared side-effect class for a (tool, action)
// pair. Unknown pairs classify as Write (the conservative default — never
// silently treated as Read).
func Classify(tool types.Tool, action string) SideEffect {
	switch tool {
	case types.ToolGit:
		switch action {
		case "status":
			return EffectRead
		case "commit":
			return EffectWrite
		case "push":
			return EffectDestructive
		}
	case types.ToolFile:
		switch action {
		case "read", "list":
			return EffectRead
		case "write":
			return EffectWrite
		case "delete":
			return EffectDestructive
		}
	case types.ToolShell:
		switch action {
		case "mkdir":
			return EffectWrite
		case "run", "pty":
			return EffectWrite // forbidden patterns are not seen here; Execute rejects them
		}
	case types.ToolSQLite:
		switch action {
		case "schema":
			return EffectRead
		case "query":
			return EffectWrite // arbitrary SQL may mutate; only schema introspection is a pure read
		}
	}
	return EffectWrite
}
