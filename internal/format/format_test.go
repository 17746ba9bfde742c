package format

import (
	"strings"
	"testing"

	"github.com/localcoder/nanocore/internal/types"
)

func TestToolResultGitStatusClean(t *testing.T) {
	r := types.ToolResult{
		Tool: types.ToolGit, Action: "status", Success: true,
		Output: map[string]any{"staged": []string{}, "modified": []string{}, "untracked": []string{}},
	}
	got := ToolResult(r)
	if got != "Working directory is clean" {
		t.Fatalf("got %q", got)
	}
}

func TestToolResultFailure(t *testing.T) {
	r := types.ToolResult{Tool: types.ToolFile, Action: "read", Success: false, Error: "NotFound: missing"}
	got := ToolResult(r)
	if !strings.Contains(got, "failed") || !strings.Contains(got, "missing") {
		t.Fatalf("got %q", got)
	}
}

func TestCodeResultQuotesLanguageTag(t *testing.T) {
	r := types.CodeResult{Success: true, Files: map[string]string{"calc.py": "def add(a, b):\n    return a + b"}}
	got := CodeResult(r)
	if !strings.Contains(got, "```python") || !strings.Contains(got, "def add(") {
		t.Fatalf("got %q", got)
	}
}

func TestAlgorithmResultIncludesComplexity(t *testing.T) {
	r := types.AlgorithmResult{Success: true, Content: "func BinarySearch() {}", Complexity: types.ComplexityAnalysis{Time: "O(log n)", Space: "O(1)"}}
	got := AlgorithmResult(r)
	if !strings.Contains(got, "O(log n)") {
		t.Fatalf("expected complexity substring, got %q", got)
	}
}

func TestUnknownListsTopTwoCandidates(t *testing.T) {
	got := Unknown([]types.IntentResult{
		{Intent: types.IntentCodingTask},
		{Intent: types.IntentSimpleAnswer},
		{Intent: types.IntentAlgorithmTask},
	})
	if strings.Count(got, "\n") > 3 {
		t.Fatalf("expected at most 2 candidates, got %q", got)
	}
	if !strings.Contains(got, "write or edit code") {
		t.Fatalf("expected first candidate rendered, got %q", got)
	}
}
