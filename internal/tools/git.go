package tools

import (
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/localcoder/nanocore/internal/types"
)

func (e *Executor) openRepo(params types.Params) (*git.Repository, error) {
	dir, _ := params["path"].(string)
	if dir == "" {
		dir = e.workspaceDir
	}
	dir = ExpandHome(dir)
	repo, err := git.PlainOpen(dir)
	if err != nil {
		return nil, types.WrapError(types.ErrNotFound, err, "open git repo at %s", dir)
	}
	return repo, nil
}

// gitStatus implements git.status -> {staged[], modified[], untracked[]}.
func (e *Executor) gitStatus(params types.Params) (types.ToolResult, error) {
	repo, err := e.openRepo(params)
	if err != nil {
		return errResult(types.ToolGit, "status", types.ErrNotFound, "%v", err), nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return errResult(types.ToolGit, "status", types.ErrSubprocessFailed, "worktree: %v", err), nil
	}
	st, err := wt.Status()
	if err != nil {
		return errResult(types.ToolGit, "status", types.ErrSubprocessFailed, "status: %v", err), nil
	}

	var staged, modified, untracked []string
	for path, s := range st {
		if s.Staging != git.Unmodified && s.Staging != git.Untracked {
			staged = append(staged, path)
		}
		if s.Worktree == git.Modified {
			modified = append(modified, path)
		}
		if s.Worktree == git.Untracked {
			untracked = append(untracked, path)
		}
	}
	return types.ToolResult{
		Tool: types.ToolGit, Action: "status", Success: true,
		Output: map[string]any{"staged": staged, "modified": modified, "untracked": untracked},
	}, nil
}

// gitCommit implements git.commit {message, files[]?} -> {sha, message}.
func (e *Executor) gitCommit(params types.Params) (types.ToolResult, error) {
	message, _ := params["message"].(string)
	if message == "" {
		return types.ToolResult{}, types.NewError(types.ErrSchemaMismatch, "git.commit requires message")
	}
	repo, err := e.openRepo(params)
	if err != nil {
		return errResult(types.ToolGit, "commit", types.ErrNotFound, "%v", err), nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return errResult(types.ToolGit, "commit", types.ErrSubprocessFailed, "worktree: %v", err), nil
	}

	files, _ := params["files"].([]string)
	if len(files) == 0 {
		if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
			return errResult(types.ToolGit, "commit", types.ErrSubprocessFailed, "add: %v", err), nil
		}
	} else {
		for _, f := range files {
			if _, err := wt.Add(f); err != nil {
				return errResult(types.ToolGit, "commit", types.ErrSubprocessFailed, "add %s: %v", f, err), nil
			}
		}
	}

	sha, err := wt.Commit(message, &git.CommitOptions{Author: &object.Signature{
		Name:  "nanocore",
		Email: "nanocore@localhost",
	}})
	if err != nil {
		return errResult(types.ToolGit, "commit", types.ErrSubprocessFailed, "commit: %v", err), nil
	}
	return types.ToolResult{
		Tool: types.ToolGit, Action: "commit", Success: true,
		Output: map[string]any{"sha": sha.String(), "message": message},
	}, nil
}

// gitPush implements git.push {remote, branch} — destructive-remote; the
// Permission Gate always prompts for it regardless of any active batch.
func (e *Executor) gitPush(params types.Params) (types.ToolResult, error) {
	remoteName, _ := params["remote"].(string)
	if remoteName == "" {
		remoteName = "origin"
	}
	repo, err := e.openRepo(params)
	if err != nil {
		return errResult(types.ToolGit, "push", types.ErrNotFound, "%v", err), nil
	}
	err = repo.Push(&git.PushOptions{RemoteName: remoteName})
	if err != nil && err != git.NoErrAlreadyUpToDate {
		return errResult(types.ToolGit, "push", types.ErrSubprocessFailed, "push: %v", err), nil
	}
	return types.ToolResult{
		Tool: types.ToolGit, Action: "push", Success: true,
		Output: map[string]any{"remote": remoteName},
	}, nil
}
