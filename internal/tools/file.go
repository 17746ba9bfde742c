package tools

import (
	"io/fs"
	"os"
	"path/filepath"
	"time"

	gitignore "github.com/sabhiram/go-gitignore"

	"github.com/localcoder/nanocore/internal/types"
)

// fileRead implements file.read {path} -> {path, content, bytes}.
func (e *Executor) fileRead(params types.Params) (types.ToolResult, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "file.read requires a path")
	}
	path = ExpandHome(path)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errResult(types.ToolFile, "read", types.ErrNotFound, "file not found: %s", path), nil
		}
		return errResult(types.ToolFile, "read", types.ErrSubprocessFailed, "read %s: %v", path, err), nil
	}
	return types.ToolResult{
		Tool: types.ToolFile, Action: "read", Success: true,
		Output: map[string]any{"path": path, "content": string(data), "bytes": len(data)},
	}, nil
}

// fileWrite implements file.write {path, content, overwrite?} ->
// {path, bytes, backupPath?}. Writes stream through a .part file with an
// atomic rename on completion (§5 streaming-write discipline); an existing
// target is backed up first.
func (e *Executor) fileWrite(params types.Params) (types.ToolResult, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "file.write requires a path")
	}
	content, _ := params["content"].(string)
	overwrite, _ := params["overwrite"].(bool)

	path = ExpandHome(path)
	resolved, _ := ResolveOutputPath(path)

	if _, err := os.Stat(resolved); err == nil && !overwrite {
		return errResult(types.ToolFile, "write", types.ErrValidationFailed, "file exists and overwrite=false: %s", resolved), nil
	}

	var backupPath string
	if _, err := os.Stat(resolved); err == nil {
		bp, err := Backup(resolved, time.Now())
		if err != nil {
			return errResult(types.ToolFile, "write", types.ErrSubprocessFailed, "backup %s: %v", resolved, err), nil
		}
		backupPath = bp
	}

	if err := os.MkdirAll(filepath.Dir(resolved), 0o755); err != nil {
		return errResult(types.ToolFile, "write", types.ErrSubprocessFailed, "mkdir for %s: %v", resolved, err), nil
	}

	part := PartPath(resolved)
	if err := os.WriteFile(part, []byte(content), 0o644); err != nil {
		return errResult(types.ToolFile, "write", types.ErrSubprocessFailed, "write %s: %v", part, err), nil
	}
	if err := os.Rename(part, resolved); err != nil {
		return errResult(types.ToolFile, "write", types.ErrSubprocessFailed, "rename %s: %v", part, err), nil
	}

	out := map[string]any{"path": resolved, "bytes": len(content)}
	if backupPath != "" {
		out["backupPath"] = backupPath
	}
	return types.ToolResult{Tool: types.ToolFile, Action: "write", Success: true, Output: out}, nil
}

// fileDelete implements file.delete {path} — destructive; creates a backup first.
func (e *Executor) fileDelete(params types.Params) (types.ToolResult, error) {
	path, ok := params["path"].(string)
	if !ok || path == "" {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "file.delete requires a path")
	}
	path = ExpandHome(path)

	backupPath, err := Backup(path, time.Now())
	if err != nil {
		return errResult(types.ToolFile, "delete", types.ErrSubprocessFailed, "backup %s: %v", path, err), nil
	}
	if backupPath == "" {
		return errResult(types.ToolFile, "delete", types.ErrNotFound, "file not found: %s", path), nil
	}
	if err := os.Remove(path); err != nil {
		return errResult(types.ToolFile, "delete", types.ErrSubprocessFailed, "delete %s: %v", path, err), nil
	}
	return types.ToolResult{
		Tool: types.ToolFile, Action: "delete", Success: true,
		Output: map[string]any{"path": path, "backupPath": backupPath},
	}, nil
}

// fileList implements file.list {path?} -> {path, entries[]}. Entries under
// a .gitignore'd path are excluded by default; params["showIgnored"]=true
// opts back in.
func (e *Executor) fileList(params types.Params) (types.ToolResult, error) {
	root, _ := params["path"].(string)
	if root == "" {
		root = e.workspaceDir
	}
	root = ExpandHome(root)
	showIgnored, _ := params["showIgnored"].(bool)

	var ignorer *gitignore.GitIgnore
	if !showIgnored {
		if gi, err := gitignore.CompileIgnoreFile(filepath.Join(root, ".gitignore")); err == nil {
			ignorer = gi
		}
	}

	var entries []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // skip inaccessible entries
		}
		if path == root {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		if ignorer != nil && ignorer.MatchesPath(rel) {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		entries = append(entries, rel)
		return nil
	})
	if err != nil {
		return errResult(types.ToolFile, "list", types.ErrNotFound, "list %s: %v", root, err), nil
	}
	return types.ToolResult{
		Tool: types.ToolFile, Action: "list", Success: true,
		Output: map[string]any{"path": root, "entries": entries},
	}, nil
}

func errResult(tool types.Tool, action string, kind types.ErrKind, format string, args ...any) types.ToolResult {
	err := types.NewError(kind, format, args...)
	return types.ToolResult{Tool: tool, Action: action, Success: false, Error: err.Error()}
}
