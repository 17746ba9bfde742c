package tools

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/localcoder/nanocore/internal/types"
)

func TestFileWriteReadDeleteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	e := NewExecutor(dir, true)
	path := filepath.Join(dir, "calc.py")

	res, err := e.Execute(context.Background(), types.ToolFile, "write", types.Params{
		"path": path, "content": "def add(a, b):\n    return a + b\n",
	}, types.DecisionAllowOnce)
	if err != nil || !res.Success {
		t.Fatalf("write failed: %v %+v", err, res)
	}
	if _, err := os.Stat(path + ".part"); !os.IsNotExist(err) {
		t.Fatal("expected no orphan .part file after successful write")
	}

	res, err = e.Execute(context.Background(), types.ToolFile, "read", types.Params{"path": path}, types.DecisionAllowOnce)
	if err != nil || !res.Success {
		t.Fatalf("read failed: %v %+v", err, res)
	}
	if res.Output["content"] != "def add(a, b):\n    return a + b\n" {
		t.Fatalf("content mismatch: %+v", res.Output)
	}

	res, err = e.Execute(context.Background(), types.ToolFile, "delete", types.Params{"path": path}, types.DecisionAllowOnce)
	if err != nil || !res.Success {
		t.Fatalf("delete failed: %v %+v", err, res)
	}
	if res.Output["backupPath"] == "" {
		t.Fatal("expected a backup path before destructive delete")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatal("expected file removed after delete")
	}
}

func TestFileWriteRefusesOverwriteWithoutFlag(t *testing.T) {
	dir := t.TempDir()
	e := NewExecutor(dir, true)
	path := filepath.Join(dir, "x.txt")
	if err := os.WriteFile(path, []byte("v1"), 0o644); err != nil {
		t.Fatal(err)
	}
	res, err := e.Execute(context.Background(), types.ToolFile, "write", types.Params{"path": path, "content": "v2"}, types.DecisionAllowOnce)
	if err != nil {
		t.Fatal(err)
	}
	if res.Success {
		t.Fatal("expected write to refuse overwrite without overwrite=true")
	}
}

func TestShellRunForbiddenPatternIsFatal(t *testing.T) {
	e := NewExecutor(t.TempDir(), true)
	_, err := e.Execute(context.Background(), types.ToolShell, "run", types.Params{"command": "rm -rf /"}, types.DecisionAllowOnce)
	if err == nil {
		t.Fatal("expected Forbidden error")
	}
	if kind, _ := types.KindOf(err); kind != types.ErrForbidden {
		t.Fatalf("expected Forbidden, got %v", kind)
	}
}

func TestShellDisabledByConfig(t *testing.T) {
	e := NewExecutor(t.TempDir(), false)
	_, err := e.Execute(context.Background(), types.ToolShell, "run", types.Params{"command": "echo hi"}, types.DecisionAllowOnce)
	if err == nil {
		t.Fatal("expected error when shell tool is disabled")
	}
}

func TestUnknownToolAndAction(t *testing.T) {
	e := NewExecutor(t.TempDir(), true)
	if _, err := e.Execute(context.Background(), types.Tool("nope"), "x", nil, types.DecisionAllowOnce); err == nil {
		t.Fatal("expected UnknownTool")
	} else if kind, _ := types.KindOf(err); kind != types.ErrUnknownTool {
		t.Fatalf("expected UnknownTool, got %v", kind)
	}

	if _, err := e.Execute(context.Background(), types.ToolFile, "teleport", types.Params{"path": "x"}, types.DecisionAllowOnce); err == nil {
		t.Fatal("expected UnknownAction")
	} else if kind, _ := types.KindOf(err); kind != types.ErrUnknownAction {
		t.Fatalf("expected UnknownAction, got %v", kind)
	}
}

func TestNormalizeAliasIsIdempotent(t *testing.T) {
	cases := []string{"read", "ls", "terminal", "file.read", "shell.run", "status"}
	for _, c := range cases {
		tool1, action1, ok1 := NormalizeAlias(c)
		if !ok1 {
			t.Fatalf("NormalizeAlias(%q) failed", c)
		}
		canon := string(tool1) + "." + action1
		tool2, action2, ok2 := NormalizeAlias(canon)
		if !ok2 || tool1 != tool2 || action1 != action2 {
			t.Fatalf("NormalizeAlias not idempotent for %q: (%v,%v) vs (%v,%v)", c, tool1, action1, tool2, action2)
		}
	}
}

func TestNormalizeAliasUnknown(t *testing.T) {
	if _, _, ok := NormalizeAlias("frobnicate"); ok {
		t.Fatal("expected unknown alias to fail normalization")
	}
}

func TestClassifySideEffects(t *testing.T) {
	if Classify(types.ToolFile, "read") != EffectRead {
		t.Error("file.read should be Read")
	}
	if Classify(types.ToolFile, "delete") != EffectDestructive {
		t.Error("file.delete should be Destructive")
	}
	if Classify(types.ToolGit, "push") != EffectDestructive {
		t.Error("git.push should be Destructive")
	}
}
