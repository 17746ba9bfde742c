// Package planner is the Task Planner: it detects multi-step and
// full-stack utterances, decomposes them into an ordered TaskPlan, and
// drives execution one step at a time via Step/Update.
package planner

import (
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/localcoder/nanocore/internal/router"
	"github.com/localcoder/nanocore/internal/types"
)

var sequentialConnectives = []string{"then", "after", "next", "followed by"}
var parallelConnectives = []string{"and also", "simultaneously"}

var numberedListRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+\S`)
var fullStackRe = regexp.MustCompile(`(?i)\bfull[- ]stack\b`)

// NeedsPlanning reports whether utterance should be decomposed into a
// TaskPlan rather than handled as a single step: sequential/parallel
// connectives, a numbered list, or a full-stack template match.
func NeedsPlanning(utterance string) bool {
	lower := strings.ToLower(utterance)
	if fullStackRe.MatchString(lower) {
		return true
	}
	if numberedListRe.MatchString(utterance) {
		return true
	}
	for _, c := range sequentialConnectives {
		if strings.Contains(lower, " "+c+" ") {
			return true
		}
	}
	for _, c := range parallelConnectives {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

// fullStackChunks is the fixed chunk template §4.6 specifies for a
// full-stack request, in order, each with the maxTokens budget CPU
// inference needs to stay under its timeout.
var fullStackChunks = []struct {
	description string
	maxTokens   int
	targetFile  string
	// dirPaths, when set, marks this chunk as a shell.mkdir StepToolCall
	// instead of a StepCodeGen: the chunk creates directories, it doesn't
	// need a Coder generation at all.
	dirPaths []string
}{
	{description: "design the database schema", maxTokens: 256, targetFile: "models.py"},
	{description: "set up the backend application skeleton", maxTokens: 384, targetFile: "app.py"},
	{description: "implement the backend routes", maxTokens: 384, targetFile: "app.py"},
	{description: "write the database initialization script", maxTokens: 256, targetFile: "init_db.py"},
	{description: "create the project directory structure", dirPaths: []string{"templates", "static/css", "static/js"}},
	{description: "write the HTML template", maxTokens: 320, targetFile: "templates/index.html"},
	{description: "write the CSS stylesheet", maxTokens: 256, targetFile: "static/css/style.css"},
	{description: "write the client-side JS", maxTokens: 320, targetFile: "static/js/app.js"},
	{description: "write the README", maxTokens: 192, targetFile: "README.md"},
}

// Plan decomposes utterance into a TaskPlan. Full-stack requests emit the
// fixed chunk template; numbered lists and connective-joined clauses split
// on their connective/number boundary, preserving order. Each clause's
// StepType is derived by re-running the Router's Tier B pattern rules
// against it directly (§4.6) — no model call is needed to plan.
func Plan(utterance string) *types.TaskPlan {
	lower := strings.ToLower(utterance)
	if fullStackRe.MatchString(lower) {
		return planFullStack(utterance)
	}
	if numberedListRe.MatchString(utterance) {
		return planFromClauses(splitNumberedList(utterance), true)
	}
	if containsSequential(lower) {
		return planFromClauses(splitOnConnectives(utterance, sequentialConnectives), true)
	}
	if containsParallel(lower) {
		return planFromClauses(splitOnConnectives(utterance, parallelConnectives), false)
	}
	return planFromClauses([]string{utterance}, true)
}

func containsSequential(lower string) bool {
	for _, c := range sequentialConnectives {
		if strings.Contains(lower, " "+c+" ") {
			return true
		}
	}
	return false
}

func containsParallel(lower string) bool {
	for _, c := range parallelConnectives {
		if strings.Contains(lower, c) {
			return true
		}
	}
	return false
}

func splitOnConnectives(utterance string, connectives []string) []string {
	lower := strings.ToLower(utterance)
	// Find the earliest-occurring connective repeatedly and split there,
	// preserving each clause's original casing.
	var clauses []string
	remaining := utterance
	remainingLower := lower
	for {
		bestIdx := -1
		bestLen := 0
		for _, c := range connectives {
			idx := strings.Index(remainingLower, c)
			if idx == -1 {
				continue
			}
			if bestIdx == -1 || idx < bestIdx {
				bestIdx = idx
				bestLen = len(c)
			}
		}
		if bestIdx == -1 {
			clauses = append(clauses, strings.TrimSpace(remaining))
			break
		}
		clause := remaining[:bestIdx]
		clauses = append(clauses, strings.TrimSpace(clause))
		remaining = remaining[bestIdx+bestLen:]
		remainingLower = remainingLower[bestIdx+bestLen:]
	}
	return nonEmpty(clauses)
}

var numberedItemRe = regexp.MustCompile(`(?m)^\s*\d+[.)]\s+`)

func splitNumberedList(utterance string) []string {
	locs := numberedItemRe.FindAllStringIndex(utterance, -1)
	if len(locs) == 0 {
		return []string{utterance}
	}
	var clauses []string
	for i, loc := range locs {
		start := loc[1]
		end := len(utterance)
		if i+1 < len(locs) {
			end = locs[i+1][0]
		}
		clauses = append(clauses, strings.TrimSpace(utterance[start:end]))
	}
	return nonEmpty(clauses)
}

func nonEmpty(ss []string) []string {
	var out []string
	for _, s := range ss {
		if strings.TrimSpace(s) != "" {
			out = append(out, s)
		}
	}
	return out
}

func planFromClauses(clauses []string, sequential bool) *types.TaskPlan {
	plan := &types.TaskPlan{IsSequential: sequential}
	var prevID string
	for _, clause := range clauses {
		fallback := router.ClassifyFallback(clause)
		step := &types.TaskStep{
			ID:          uuid.NewString(),
			Type:        stepTypeFor(fallback),
			Description: clause,
			Params:      fallback.Params,
			Status:      types.StepPending,
		}
		if fallback.Intent == types.IntentToolCall {
			step.Params = types.Params{}
			for k, v := range fallback.Params {
				step.Params[k] = v
			}
			step.Params["tool"] = string(fallback.Tool)
			step.Params["action"] = fallback.Action
		}
		if sequential && prevID != "" {
			step.DependsOn = []string{prevID}
		}
		plan.Steps = append(plan.Steps, step)
		plan.ExecutionOrder = append(plan.ExecutionOrder, step.ID)
		prevID = step.ID
	}
	return plan
}

func stepTypeFor(r types.IntentResult) types.StepType {
	switch r.Intent {
	case types.IntentToolCall:
		return types.StepToolCall
	case types.IntentAlgorithmTask:
		return types.StepAlgorithm
	case types.IntentCodingTask:
		return types.StepCodeGen
	case types.IntentSimpleAnswer:
		return types.StepAnswer
	default:
		return types.StepAnswer
	}
}

func planFullStack(utterance string) *types.TaskPlan {
	plan := &types.TaskPlan{IsSequential: true}
	var prevID string
	for _, chunk := range fullStackChunks {
		var step *types.TaskStep
		if chunk.dirPaths != nil {
			step = &types.TaskStep{
				ID:          uuid.NewString(),
				Type:        types.StepToolCall,
				Description: chunk.description,
				Params: types.Params{
					"tool":    string(types.ToolShell),
					"action":  "mkdir",
					"paths":   chunk.dirPaths,
					"parents": true,
				},
				Status: types.StepPending,
			}
		} else {
			step = &types.TaskStep{
				ID:          uuid.NewString(),
				Type:        types.StepCodeGen,
				Description: chunk.description,
				Params: types.Params{
					"instructions": utterance + " — " + chunk.description,
					"maxTokens":    chunk.maxTokens,
					"targetFile":   chunk.targetFile,
				},
				Status: types.StepPending,
			}
		}
		if prevID != "" {
			step.DependsOn = []string{prevID}
		}
		plan.Steps = append(plan.Steps, step)
		plan.ExecutionOrder = append(plan.ExecutionOrder, step.ID)
		prevID = step.ID
	}
	return plan
}

// Step returns the next step whose status is Pending and whose
// dependencies are all Completed; nil when the plan is done or blocked.
func Step(plan *types.TaskPlan) *types.TaskStep {
	for _, id := range plan.ExecutionOrder {
		step := plan.StepByID(id)
		if step == nil || step.Status != types.StepPending {
			continue
		}
		if allCompleted(plan, step.DependsOn) {
			return step
		}
	}
	return nil
}

func allCompleted(plan *types.TaskPlan, ids []string) bool {
	for _, id := range ids {
		dep := plan.StepByID(id)
		if dep == nil || dep.Status != types.StepCompleted {
			return false
		}
	}
	return true
}

// legalTransitions is the transition table Update enforces: Pending may
// only move to InProgress; InProgress may only move to a terminal state;
// terminal states never move again. SkipRemaining does not go through
// Update: it moves a still-Pending step straight to Skipped.
var legalTransitions = map[types.StepStatus]map[types.StepStatus]bool{
	types.StepPending: {types.StepInProgress: true},
	types.StepInProgress: {
		types.StepCompleted: true,
		types.StepFailed:    true,
		types.StepSkipped:   true,
	},
}

// Update transitions step stepID to status, recording result/err when
// terminal. Any transition outside legalTransitions is rejected rather
// than silently coerced.
func Update(plan *types.TaskPlan, stepID string, status types.StepStatus, result string, stepErr string) error {
	step := plan.StepByID(stepID)
	if step == nil {
		return types.NewError(types.ErrNotFound, "no such step %s", stepID)
	}
	allowed := legalTransitions[step.Status]
	if !allowed[status] {
		return types.NewError(types.ErrValidationFailed, "illegal transition %s -> %s for step %s", step.Status, status, stepID)
	}
	step.Status = status
	if status == types.StepCompleted || status == types.StepFailed || status == types.StepSkipped {
		step.Result = result
		step.Error = stepErr
	}
	return nil
}

// SkipRemaining marks every still-Pending step Skipped, the behavior a
// sequential plan applies after one step Fails (§4.6).
func SkipRemaining(plan *types.TaskPlan) {
	for _, step := range plan.Steps {
		if step.Status == types.StepPending {
			step.Status = types.StepSkipped
		}
	}
}

// Summary reports a one-line outcome per step, in execution order, for the
// plan's partial/complete summary.
func Summary(plan *types.TaskPlan) string {
	var b strings.Builder
	for _, id := range plan.ExecutionOrder {
		step := plan.StepByID(id)
		if step == nil {
			continue
		}
		b.WriteString("- ")
		b.WriteString(step.Description)
		b.WriteString(": ")
		b.WriteString(string(step.Status))
		if step.Error != "" {
			b.WriteString(" (" + step.Error + ")")
		}
		b.WriteString("\n")
	}
	return b.String()
}
