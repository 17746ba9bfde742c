package permission

import (
	"context"
	"testing"

	"github.com/localcoder/nanocore/internal/types"
)

type scriptedPrompter struct {
	calls     int
	responses []types.Decision
}

func (s *scriptedPrompter) Confirm(ctx context.Context, req types.PermissionRequest) (types.Decision, error) {
	d := s.responses[s.calls]
	s.calls++
	return d, nil
}

func TestWriteSkipsPromptOnceBatchActive(t *testing.T) {
	p := &scriptedPrompter{responses: []types.Decision{types.DecisionAllowBatch}}
	g := NewGate(p)

	req := types.PermissionRequest{Category: types.PermFileWrite, Description: "write a.txt"}
	d, err := g.Request(context.Background(), req)
	if err != nil || d != types.DecisionAllowBatch {
		t.Fatalf("first request: got (%v, %v)", d, err)
	}
	if p.calls != 1 {
		t.Fatalf("expected 1 prompt, got %d", p.calls)
	}

	d, err = g.Request(context.Background(), types.PermissionRequest{Category: types.PermFileWrite, Description: "write b.txt"})
	if err != nil || d != types.DecisionAllowBatch {
		t.Fatalf("second request: got (%v, %v)", d, err)
	}
	if p.calls != 1 {
		t.Fatalf("expected batch to suppress second prompt, got %d calls", p.calls)
	}
}

func TestDestructiveAlwaysPromptsEvenInsideBatch(t *testing.T) {
	p := &scriptedPrompter{responses: []types.Decision{types.DecisionAllowBatch, types.DecisionAllowOnce}}
	g := NewGate(p)

	if _, err := g.Request(context.Background(), types.PermissionRequest{Category: types.PermFileWrite, Description: "write a.txt"}); err != nil {
		t.Fatal(err)
	}

	d, err := g.Request(context.Background(), types.PermissionRequest{
		Category: types.PermFileDelete, Description: "delete a.txt", Destructive: true,
	})
	if err != nil {
		t.Fatal(err)
	}
	if d != types.DecisionAllowOnce {
		t.Fatalf("expected AllowOnce, got %v", d)
	}
	if p.calls != 2 {
		t.Fatalf("expected destructive request to prompt again, got %d calls", p.calls)
	}
}

func TestEndBatchClearsActiveApproval(t *testing.T) {
	p := &scriptedPrompter{responses: []types.Decision{types.DecisionAllowBatch, types.DecisionDeny}}
	g := NewGate(p)

	if _, err := g.Request(context.Background(), types.PermissionRequest{Category: types.PermShell, Description: "run npm install"}); err != nil {
		t.Fatal(err)
	}
	g.EndBatch(types.PermShell)

	d, err := g.Request(context.Background(), types.PermissionRequest{Category: types.PermShell, Description: "run rm file"})
	if err != nil {
		t.Fatal(err)
	}
	if d != types.DecisionDeny {
		t.Fatalf("expected fresh prompt after EndBatch, got %v", d)
	}
	if p.calls != 2 {
		t.Fatalf("expected 2 prompts, got %d", p.calls)
	}
}

func TestFoldDirectoryCreatesSingleRequest(t *testing.T) {
	req := FoldDirectoryCreates([]string{"a", "b/c", "d"})
	if req.Category != types.PermDirectoryCreate {
		t.Fatalf("expected DirectoryCreate category, got %v", req.Category)
	}
	if req.Destructive {
		t.Fatal("directory creation should not be destructive")
	}
}
