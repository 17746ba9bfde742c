package tools

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// WorkspaceDir returns the workspace root the Tool Executor defaults
// relative paths into. Reads $NANOCORE_WORKSPACE; defaults to
// ~/nanocore_workspace. file.* actions may still target any path the
// running user can read/write — the workspace is only a default, never a
// sandbox boundary.
func WorkspaceDir() string {
	if env := os.Getenv("NANOCORE_WORKSPACE"); env != "" {
		return ExpandHome(env)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, "nanocore_workspace")
}

// EnsureWorkspace creates the workspace directory if it does not exist.
func EnsureWorkspace() error {
	return os.MkdirAll(WorkspaceDir(), 0o755)
}

// ExpandHome replaces a leading "~/" or a bare "~" with the user's home directory.
//
// Expectations:
//   - Expands "~/foo" to "<home>/foo"
//   - Expands bare "~" to "<home>"
//   - Returns path unchanged when it does not start with "~"
func ExpandHome(path string) string {
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// ResolveOutputPath redirects bare filenames and "./"-relative paths into
// the workspace directory. Paths with a real directory component (absolute,
// or naming a subdirectory) are returned unchanged.
//
// Call ExpandHome before this so "~/" paths already carry a directory
// component and are not redirected.
//
// Expectations:
//   - Bare filename ("report.md") -> redirected to workspace
//   - "./"-prefixed path -> redirected to workspace
//   - Path with a dir component, absolute path, or workspace-rooted path -> unchanged
func ResolveOutputPath(path string) (resolved string, redirected bool) {
	clean := filepath.Clean(path)
	if filepath.Dir(clean) == "." {
		return filepath.Join(WorkspaceDir(), clean), true
	}
	return path, false
}

// BackupPath returns the side-by-side backup path for path, per the
// workspace layout: <dir>/.backups/<base>.<iso8601>.bak
func BackupPath(path string, now time.Time) string {
	dir := filepath.Join(filepath.Dir(path), ".backups")
	stamp := now.UTC().Format("2006-01-02T15-04-05.000000000Z")
	return filepath.Join(dir, filepath.Base(path)+"."+stamp+".bak")
}

// PartPath returns the in-flight streaming-write path for path: <path>.part
func PartPath(path string) string {
	return path + ".part"
}

// Backup copies the current content of path to its backup location before a
// destructive edit. No-op (returns "", nil) if path does not exist yet.
func Backup(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	bp := BackupPath(path, now)
	if err := os.MkdirAll(filepath.Dir(bp), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(bp, data, 0o644); err != nil {
		return "", err
	}
	return bp, nil
}
