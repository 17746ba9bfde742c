// Package permission is the Permission Gate: it classifies proposed side
// effects and asks a human for a Decision, caching batch approvals within a
// category so the same kind of write doesn't re-prompt on every call. It
// never touches the filesystem or a subprocess itself — that's the Tool
// Executor's job, driven by the Decision this package returns.
package permission

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/localcoder/nanocore/internal/types"
)

// Prompter is the human-facing half of the gate — whatever renders a
// PermissionRequest and collects a choice (the CLI's readline prompt in
// production, a scripted stub in tests).
type Prompter interface {
	Confirm(ctx context.Context, req types.PermissionRequest) (types.Decision, error)
}

// Gate mediates write and destructive side effects. Callers are expected to
// never invoke Request for a side effect already classified Read — the gate
// has no Read case of its own because that decision belongs upstream, at the
// classification site.
type Gate struct {
	prompter Prompter

	mu            sync.Mutex
	activeBatches map[types.PermissionCategory]bool
}

// NewGate builds a Gate backed by the given Prompter.
func NewGate(prompter Prompter) *Gate {
	return &Gate{prompter: prompter, activeBatches: make(map[types.PermissionCategory]bool)}
}

// Request resolves one PermissionRequest to a Decision. Destructive requests
// always prompt, even when a batch is active for their category, and the
// description is expected to carry a warning the Prompter surfaces verbatim.
// Non-destructive writes skip the prompt when a batch approval is already
// active for the same category.
func (g *Gate) Request(ctx context.Context, req types.PermissionRequest) (types.Decision, error) {
	if req.Destructive {
		return g.prompt(ctx, req)
	}

	g.mu.Lock()
	active := g.activeBatches[req.Category]
	g.mu.Unlock()
	if active {
		return types.DecisionAllowBatch, nil
	}

	decision, err := g.prompt(ctx, req)
	if err != nil {
		return "", err
	}
	if decision == types.DecisionAllowBatch {
		g.mu.Lock()
		g.activeBatches[req.Category] = true
		g.mu.Unlock()
	}
	return decision, nil
}

func (g *Gate) prompt(ctx context.Context, req types.PermissionRequest) (types.Decision, error) {
	decision, err := g.prompter.Confirm(ctx, req)
	if err != nil {
		return "", types.WrapError(types.ErrPermissionDenied, err, "permission prompt for %s", req.Category)
	}
	return decision, nil
}

// EndBatch clears any active batch approval for category, so the next write
// in that category prompts again. Called at the end of a plan or utterance
// so batch approvals don't leak across unrelated requests.
func (g *Gate) EndBatch(category types.PermissionCategory) {
	g.mu.Lock()
	delete(g.activeBatches, category)
	g.mu.Unlock()
}

// FoldDirectoryCreates builds a single DirectoryCreate-category request covering
// multiple directory creations (e.g. `mkdir -p a b/c d`), so the user is
// asked once instead of once per path.
func FoldDirectoryCreates(paths []string) types.PermissionRequest {
	return types.PermissionRequest{
		Category:    types.PermDirectoryCreate,
		Description: fmt.Sprintf("create %d director%s", len(paths), plural(len(paths))),
		Preview:     strings.Join(paths, "\n"),
		Destructive: false,
	}
}

func plural(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}
