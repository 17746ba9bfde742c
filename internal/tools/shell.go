package tools

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"time"

	"github.com/creack/pty"

	"github.com/localcoder/nanocore/internal/types"
)

const (
	defaultShellTimeout = 60 * time.Second
	shellOutputLimit    = 64 * 1024
)

// shellRun implements shell.run {command, cwd?, timeout?} -> {exitCode, stdout, stderr}.
// Forbidden commands never reach here — Execute checks them first.
func (e *Executor) shellRun(ctx context.Context, params types.Params) (types.ToolResult, error) {
	cmdStr, ok := params["command"].(string)
	if !ok || cmdStr == "" {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "shell.run requires a command")
	}
	if pty_, _ := params["tty"].(bool); pty_ {
		return e.shellPty(ctx, cmdStr, params)
	}

	timeout := defaultShellTimeout
	if secs, ok := params["timeout"].(int); ok && secs > 0 {
		timeout = time.Duration(secs) * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	c := exec.CommandContext(ctx, "bash", "-c", cmdStr)
	if cwd, ok := params["cwd"].(string); ok && cwd != "" {
		c.Dir = ExpandHome(cwd)
	}

	var outBuf, errBuf bytes.Buffer
	c.Stdout = &outBuf
	c.Stderr = &errBuf

	runErr := c.Run()

	exitCode := 0
	if runErr != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return errResult(types.ToolShell, "run", types.ErrTimeout, "command exceeded %s: %s", timeout, cmdStr), nil
		}
		if exitErr, ok := runErr.(*exec.ExitError); ok {
			exitCode = exitErr.ExitCode()
		} else {
			return errResult(types.ToolShell, "run", types.ErrSubprocessFailed, "%v", runErr), nil
		}
	}

	stdout, truncatedOut := truncate(outBuf.String(), shellOutputLimit)
	stderr, truncatedErr := truncate(errBuf.String(), shellOutputLimit)

	out := map[string]any{"exitCode": exitCode, "stdout": stdout, "stderr": stderr}
	if truncatedOut || truncatedErr {
		out["truncated"] = true
	}
	return types.ToolResult{Tool: types.ToolShell, Action: "run", Success: exitCode == 0, Output: out}, nil
}

// shellPty runs cmdStr attached to a pseudo-terminal, for the rare target
// that refuses to behave without one (an editor invoked by an interactive
// git command, a REPL-style CLI).
func (e *Executor) shellPty(ctx context.Context, cmdStr string, params types.Params) (types.ToolResult, error) {
	c := exec.CommandContext(ctx, "bash", "-c", cmdStr)
	if cwd, ok := params["cwd"].(string); ok && cwd != "" {
		c.Dir = ExpandHome(cwd)
	}

	f, err := pty.Start(c)
	if err != nil {
		return errResult(types.ToolShell, "pty", types.ErrSubprocessFailed, "pty start: %v", err), nil
	}
	defer f.Close()

	var buf bytes.Buffer
	_, _ = buf.ReadFrom(f)
	waitErr := c.Wait()

	exitCode := 0
	if exitErr, ok := waitErr.(*exec.ExitError); ok {
		exitCode = exitErr.ExitCode()
	}
	stdout, truncated := truncate(buf.String(), shellOutputLimit)
	out := map[string]any{"exitCode": exitCode, "stdout": stdout, "stderr": ""}
	if truncated {
		out["truncated"] = true
	}
	return types.ToolResult{Tool: types.ToolShell, Action: "pty", Success: exitCode == 0, Output: out}, nil
}

// shellMkdir implements shell.mkdir {paths[], parents?} -> {created[]}.
func (e *Executor) shellMkdir(params types.Params) (types.ToolResult, error) {
	raw, ok := params["paths"].([]string)
	if !ok || len(raw) == 0 {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "shell.mkdir requires paths[]")
	}
	parents, _ := params["parents"].(bool)

	var created []string
	for _, p := range raw {
		p = ExpandHome(p)
		var err error
		if parents {
			err = os.MkdirAll(p, 0o755)
		} else {
			err = os.Mkdir(p, 0o755)
		}
		if err != nil {
			return errResult(types.ToolShell, "mkdir", types.ErrSubprocessFailed, "mkdir %s: %v", p, err), nil
		}
		created = append(created, p)
	}
	return types.ToolResult{
		Tool: types.ToolShell, Action: "mkdir", Success: true,
		Output: map[string]any{"created": created},
	}, nil
}

// truncate caps s at limit bytes, reporting whether it did.
func truncate(s string, limit int) (string, bool) {
	if len(s) <= limit {
		return s, false
	}
	return s[:limit], true
}
