// Package format is the Response Formatter: one pure, stateless function
// per result variant, turning the core's internal records into the text
// the CLI prints. It never mutates, validates, or re-derives anything —
// every value it renders was already produced and checked upstream.
package format

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"github.com/localcoder/nanocore/internal/types"
)

// ToolResult renders one ToolResult, with a per-(tool,action) summary
// where a generic dump of Output would read poorly.
func ToolResult(r types.ToolResult) string {
	if !r.Success {
		return fmt.Sprintf("%s.%s failed: %s", r.Tool, r.Action, r.Error)
	}
	switch {
	case r.Tool == types.ToolGit && r.Action == "status":
		return gitStatusSummary(r.Output)
	case r.Tool == types.ToolGit && r.Action == "commit":
		sha, _ := r.Output["sha"].(string)
		return fmt.Sprintf("Committed %s", shortSHA(sha))
	case r.Tool == types.ToolGit && r.Action == "push":
		remote, _ := r.Output["remote"].(string)
		return fmt.Sprintf("Pushed to %s", remote)
	case r.Tool == types.ToolFile && r.Action == "read":
		bytes, _ := r.Output["bytes"].(int)
		path, _ := r.Output["path"].(string)
		return fmt.Sprintf("Read %s (%d bytes)", path, bytes)
	case r.Tool == types.ToolFile && r.Action == "write":
		path, _ := r.Output["path"].(string)
		bytes, _ := r.Output["bytes"].(int)
		msg := fmt.Sprintf("Wrote %s (%d bytes)", path, bytes)
		if bp, ok := r.Output["backupPath"].(string); ok && bp != "" {
			msg += fmt.Sprintf(", backed up previous content to %s", bp)
		}
		return msg
	case r.Tool == types.ToolFile && r.Action == "list":
		entries, _ := r.Output["entries"].([]string)
		return fmt.Sprintf("%d entries", len(entries))
	case r.Tool == types.ToolFile && r.Action == "delete":
		path, _ := r.Output["path"].(string)
		return fmt.Sprintf("Deleted %s (backup kept)", path)
	case r.Tool == types.ToolShell && (r.Action == "run" || r.Action == "pty"):
		return shellRunSummary(r.Output)
	case r.Tool == types.ToolShell && r.Action == "mkdir":
		created, _ := r.Output["created"].([]string)
		return fmt.Sprintf("Created %d director%s", len(created), pluralY(len(created)))
	case r.Tool == types.ToolSQLite && r.Action == "schema":
		tables, _ := r.Output["tables"].([]string)
		return fmt.Sprintf("%d tables: %s", len(tables), strings.Join(tables, ", "))
	case r.Tool == types.ToolSQLite && r.Action == "query":
		rows, _ := r.Output["rows"].([][]any)
		return fmt.Sprintf("%d rows", len(rows))
	default:
		return fmt.Sprintf("%s.%s: ok", r.Tool, r.Action)
	}
}

func gitStatusSummary(out map[string]any) string {
	staged, _ := out["staged"].([]string)
	modified, _ := out["modified"].([]string)
	untracked, _ := out["untracked"].([]string)
	if len(staged)+len(modified)+len(untracked) == 0 {
		return "Working directory is clean"
	}
	var parts []string
	if len(staged) > 0 {
		parts = append(parts, fmt.Sprintf("%d staged", len(staged)))
	}
	if len(modified) > 0 {
		parts = append(parts, fmt.Sprintf("%d modified", len(modified)))
	}
	if len(untracked) > 0 {
		parts = append(parts, fmt.Sprintf("%d untracked", len(untracked)))
	}
	return strings.Join(parts, ", ")
}

func shellRunSummary(out map[string]any) string {
	exitCode, _ := out["exitCode"].(int)
	stdout, _ := out["stdout"].(string)
	msg := fmt.Sprintf("exit %d", exitCode)
	if t, _ := out["truncated"].(bool); t {
		msg += " (output truncated)"
	}
	if strings.TrimSpace(stdout) != "" {
		msg += "\n" + strings.TrimSpace(stdout)
	}
	return msg
}

func shortSHA(sha string) string {
	if len(sha) > 8 {
		return sha[:8]
	}
	return sha
}

func pluralY(n int) string {
	if n == 1 {
		return "y"
	}
	return "ies"
}

// CodeResult renders a CodeResult, quoting each file with a language tag
// guessed from its extension, or a unified diff when the result is a list
// of EditBlocks.
func CodeResult(r types.CodeResult) string {
	if !r.Success {
		return fmt.Sprintf("Coding task failed: %s", r.Error)
	}
	var b strings.Builder
	if len(r.Files) > 0 {
		paths := make([]string, 0, len(r.Files))
		for p := range r.Files {
			paths = append(paths, p)
		}
		sort.Strings(paths)
		for _, p := range paths {
			fmt.Fprintf(&b, "%s:\n```%s\n%s\n```\n", p, languageTag(p), r.Files[p])
		}
	}
	if len(r.EditBlocks) > 0 {
		b.WriteString(UnifiedDiff(r.EditBlocks))
		if savingsPct, ok := r.Metadata["savingsPct"]; ok {
			fmt.Fprintf(&b, "(diff mode saved ~%s%% tokens vs. a full rewrite)\n", savingsPct)
		}
	}
	if r.NeedsAlgorithmSpecialist {
		b.WriteString("(escalating to the algorithm specialist)\n")
	}
	return b.String()
}

// UnifiedDiff renders an EditBlock list as a unified-diff-style view, using
// diffmatchpatch to produce the per-block line diff.
func UnifiedDiff(blocks []types.EditBlock) string {
	var b strings.Builder
	dmp := diffmatchpatch.New()
	for _, blk := range blocks {
		fmt.Fprintf(&b, "@@ lines %d-%d @@ %s\n", blk.StartLine, blk.EndLine, blk.Description)
		diffs := dmp.DiffMain(blk.OldContent, blk.NewContent, false)
		for _, d := range diffs {
			prefix := " "
			switch d.Type {
			case diffmatchpatch.DiffDelete:
				prefix = "-"
			case diffmatchpatch.DiffInsert:
				prefix = "+"
			}
			for _, line := range strings.Split(d.Text, "\n") {
				if line == "" {
					continue
				}
				fmt.Fprintf(&b, "%s%s\n", prefix, line)
			}
		}
	}
	return b.String()
}

func languageTag(path string) string {
	switch {
	case strings.HasSuffix(path, ".py"):
		return "python"
	case strings.HasSuffix(path, ".js"):
		return "javascript"
	case strings.HasSuffix(path, ".ts"):
		return "typescript"
	case strings.HasSuffix(path, ".css"):
		return "css"
	case strings.HasSuffix(path, ".html"):
		return "html"
	case strings.HasSuffix(path, ".json"):
		return "json"
	case strings.HasSuffix(path, ".md"):
		return "markdown"
	case strings.HasSuffix(path, ".sql"):
		return "sql"
	default:
		return ""
	}
}

// AlgorithmResult renders an AlgorithmResult, including its complexity
// analysis rationale.
func AlgorithmResult(r types.AlgorithmResult) string {
	if !r.Success {
		return fmt.Sprintf("Algorithm task failed: %s", r.Error)
	}
	var b strings.Builder
	fmt.Fprintf(&b, "```\n%s\n```\n", r.Content)
	fmt.Fprintf(&b, "Complexity: time %s, space %s\n", r.Complexity.Time, r.Complexity.Space)
	if r.Complexity.Rationale != "" {
		fmt.Fprintf(&b, "%s\n", r.Complexity.Rationale)
	}
	return b.String()
}

// Unknown renders the clarification prompt for an Unknown or
// below-threshold classification, listing the top candidate intents.
func Unknown(candidates []types.IntentResult) string {
	if len(candidates) == 0 {
		return "I'm not sure what you'd like me to do. Could you rephrase that?"
	}
	var b strings.Builder
	b.WriteString("I'm not sure what you mean. Did you want me to:\n")
	for i, c := range candidates {
		if i >= 2 {
			break
		}
		fmt.Fprintf(&b, "  %d. %s\n", i+1, describeIntent(c))
	}
	return b.String()
}

func describeIntent(r types.IntentResult) string {
	switch r.Intent {
	case types.IntentToolCall:
		return fmt.Sprintf("run %s.%s", r.Tool, r.Action)
	case types.IntentCodingTask:
		return "write or edit code"
	case types.IntentAlgorithmTask:
		return "solve an algorithmic task"
	case types.IntentSimpleAnswer:
		return "answer a question"
	default:
		return "something else — please rephrase"
	}
}

// PlanProgress renders the between-step progress line the Orchestrator
// emits while driving a TaskPlan.
func PlanProgress(step *types.TaskStep, index, total int) string {
	return fmt.Sprintf("[%d/%d] %s: %s", index, total, step.Description, step.Status)
}

// PlanSummary renders the plan's final per-step outcome list.
func PlanSummary(plan *types.TaskPlan, summary string) string {
	var b strings.Builder
	b.WriteString("Plan complete:\n")
	b.WriteString(summary)
	return b.String()
}
