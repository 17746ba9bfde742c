// Package orchestrator maps one classified IntentResult to a Tool Executor
// call or a heavier specialist engine, enforces model escalation between
// Coder and Algorithm, and drives a TaskPlan step-by-step for multi-clause
// utterances. It is the one component that wires every other package
// together into the pipeline described by `utterance -> Router ->
// IntentResult -> Orchestrator -> (Executor | Engine+Extractor+Editor) ->
// Formatter`.
package orchestrator

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/localcoder/nanocore/internal/bus"
	"github.com/localcoder/nanocore/internal/config"
	"github.com/localcoder/nanocore/internal/diffedit"
	"github.com/localcoder/nanocore/internal/engine"
	"github.com/localcoder/nanocore/internal/extractor"
	"github.com/localcoder/nanocore/internal/format"
	"github.com/localcoder/nanocore/internal/lifecycle"
	"github.com/localcoder/nanocore/internal/permission"
	"github.com/localcoder/nanocore/internal/planner"
	"github.com/localcoder/nanocore/internal/router"
	"github.com/localcoder/nanocore/internal/tasklog"
	"github.com/localcoder/nanocore/internal/tools"
	"github.com/localcoder/nanocore/internal/types"
)

// Deadlines mirror §5's default per-operation timeouts. They are applied with
// context.WithTimeout, so when the caller's context already carries an
// earlier deadline, that earlier deadline still wins.
const (
	codingDeadline    = 300 * time.Second
	algorithmDeadline = 600 * time.Second
	classifyDeadline  = 10 * time.Second
)

// Orchestrator composes every other component into Process.
type Orchestrator struct {
	cfg       config.Config
	lifecycle *lifecycle.Manager
	adapter   engine.Adapter
	router    *router.Router
	executor  *tools.Executor
	gate      *permission.Gate
	bus       *bus.Bus
	tasklog   *tasklog.Registry
}

// New builds an Orchestrator from its already-constructed collaborators.
func New(cfg config.Config, lc *lifecycle.Manager, adapter engine.Adapter, rtr *router.Router, executor *tools.Executor, gate *permission.Gate, b *bus.Bus, reg *tasklog.Registry) *Orchestrator {
	return &Orchestrator{cfg: cfg, lifecycle: lc, adapter: adapter, router: rtr, executor: executor, gate: gate, bus: b, tasklog: reg}
}

// Process renders one utterance end to end: plan-and-drive for multi-clause
// input, or a single pass through the intent dispatch for everything else.
func (o *Orchestrator) Process(ctx context.Context, utterance string) (string, error) {
	taskID := uuid.NewString()
	tl := o.tasklog.Open(taskID, utterance)
	status := "completed"
	defer func() { o.tasklog.Close(taskID, status) }()
	defer o.endAllBatches()

	var (
		out string
		err error
	)
	if planner.NeedsPlanning(utterance) {
		out, err = o.runPlan(ctx, taskID, tl, utterance)
	} else {
		out, err = o.runSingle(ctx, taskID, tl, utterance, true)
	}
	if err != nil {
		status = "failed"
	}
	return out, err
}

// runPlan decomposes utterance into a TaskPlan and drives it step by step,
// rendering a progress line between steps; each step recurses through
// runStep. A Failed step in a sequential plan skips the remaining steps and
// the plan completes with a partial summary (§4.6).
func (o *Orchestrator) runPlan(ctx context.Context, taskID string, tl *tasklog.TaskLog, utterance string) (string, error) {
	plan := planner.Plan(utterance)
	total := len(plan.Steps)

	index := 0
	for {
		step := planner.Step(plan)
		if step == nil {
			break
		}
		index++
		_ = planner.Update(plan, step.ID, types.StepInProgress, "", "")
		o.publishStepBegin(taskID, step)
		tl.StepBegin(step.ID, string(step.Type), step.Description)

		result, stepErr := o.runStep(ctx, taskID, tl, step)

		final := index == total || stepErr != nil
		if stepErr != nil {
			_ = planner.Update(plan, step.ID, types.StepFailed, "", stepErr.Error())
			if plan.IsSequential {
				planner.SkipRemaining(plan)
			}
		} else {
			_ = planner.Update(plan, step.ID, types.StepCompleted, result, "")
		}
		o.publishStepEnd(taskID, step, final)
		tl.StepEnd(step.ID, string(step.Status), 0, 0)
		log.Printf("[ORCH] %s", format.PlanProgress(step, index, total))

		if stepErr != nil {
			break
		}
	}

	return format.PlanSummary(plan, planner.Summary(plan)), nil
}

// runStep runs one plan step through the single-intent dispatch, building
// the IntentResult a step's Type/Params already carry rather than
// re-classifying (Tier B was already applied when the plan was built).
func (o *Orchestrator) runStep(ctx context.Context, taskID string, tl *tasklog.TaskLog, step *types.TaskStep) (string, error) {
	intentRes := intentResultFromStep(step)
	return o.dispatch(ctx, taskID, tl, intentRes)
}

// intentResultFromStep reconstructs the IntentResult a plan step was built
// from, so runStep can reuse the same dispatch path a single-step utterance
// takes.
func intentResultFromStep(step *types.TaskStep) types.IntentResult {
	switch step.Type {
	case types.StepToolCall:
		tool, _ := step.Params["tool"].(string)
		action, _ := step.Params["action"].(string)
		return types.IntentResult{Intent: types.IntentToolCall, Confidence: 1.0, Tool: types.Tool(tool), Action: action, Params: step.Params}
	case types.StepAlgorithm:
		return types.IntentResult{Intent: types.IntentAlgorithmTask, Confidence: 1.0, EscalateTo: types.RoleAlgorithm, Params: step.Params}
	case types.StepCodeGen:
		return types.IntentResult{Intent: types.IntentCodingTask, Confidence: 1.0, EscalateTo: types.RoleCoder, Params: step.Params}
	default:
		return types.IntentResult{Intent: types.IntentSimpleAnswer, Confidence: 1.0, Params: step.Params}
	}
}

// runSingle classifies utterance and dispatches it once. It wraps the
// dispatch in a synthetic TaskStep so the bus still carries a matched
// StepBegin/StepEnd(final=true) pair for a single-intent utterance the same
// way runPlan does for each of its steps — the UI's pipeline box closes on
// that signal regardless of whether the utterance was planned.
func (o *Orchestrator) runSingle(ctx context.Context, taskID string, tl *tasklog.TaskLog, utterance string, final bool) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, classifyDeadline)
	defer cancel()
	intentRes := o.router.Classify(cctx, utterance, "")

	step := &types.TaskStep{ID: uuid.NewString(), Description: utterance, Status: types.StepInProgress}
	o.publishStepBegin(taskID, step)
	tl.StepBegin(step.ID, string(intentRes.Intent), utterance)

	th := o.router.Thresholds()
	var out string
	var err error
	switch {
	case intentRes.Confidence < th.Clarify:
		out = format.Unknown([]types.IntentResult{intentRes})
	case intentRes.Confidence < th.Escalate && (intentRes.Intent == types.IntentCodingTask || intentRes.Intent == types.IntentAlgorithmTask):
		out = format.Unknown([]types.IntentResult{intentRes})
	default:
		out, err = o.dispatch(ctx, taskID, tl, intentRes)
	}

	if err != nil {
		step.Status = types.StepFailed
	} else {
		step.Status = types.StepCompleted
	}
	o.publishStepEnd(taskID, step, final)
	tl.StepEnd(step.ID, string(step.Status), 0, 0)

	return out, err
}

// dispatch switches on intentRes.Intent per §4.9, the single place every
// step (planned or standalone) funnels through.
func (o *Orchestrator) dispatch(ctx context.Context, taskID string, tl *tasklog.TaskLog, intentRes types.IntentResult) (string, error) {
	switch intentRes.Intent {
	case types.IntentToolCall:
		return o.handleToolCall(ctx, taskID, tl, intentRes)
	case types.IntentSimpleAnswer:
		return o.handleSimpleAnswer(ctx, taskID, tl, intentRes)
	case types.IntentCodingTask:
		return o.handleCodingTask(ctx, taskID, tl, intentRes)
	case types.IntentAlgorithmTask:
		return o.handleAlgorithmTask(ctx, taskID, tl, intentRes)
	default:
		return format.Unknown([]types.IntentResult{intentRes}), nil
	}
}

// --- ToolCall ---

func (o *Orchestrator) handleToolCall(ctx context.Context, taskID string, tl *tasklog.TaskLog, intentRes types.IntentResult) (string, error) {
	effect := tools.Classify(intentRes.Tool, intentRes.Action)
	decision := types.DecisionAllowOnce
	if effect != tools.EffectRead {
		req := types.PermissionRequest{
			Category:    categoryFor(intentRes.Tool, intentRes.Action),
			Description: fmt.Sprintf("%s.%s", intentRes.Tool, intentRes.Action),
			Destructive: effect == tools.EffectDestructive,
		}
		d, err := o.gate.Request(ctx, req)
		tl.PermissionDecision(string(req.Category), req.Destructive, string(d))
		o.publishPermission(taskID, req, d)
		if err != nil {
			return "", err
		}
		decision = d
	}

	result, err := o.executor.Execute(ctx, intentRes.Tool, intentRes.Action, intentRes.Params, decision)
	tl.ToolCall(string(intentRes.Tool), intentRes.Action, fmt.Sprintf("%v", intentRes.Params), fmt.Sprintf("%v", result.Output), result.Error)
	o.publishToolCall(taskID, intentRes.Tool, intentRes.Action, result)
	if err != nil {
		return "", err
	}
	return format.ToolResult(result), nil
}

// categoryFor maps a (tool, action) pair to the Permission Gate's category
// vocabulary. sqlite has no dedicated category in §4.8's enumeration; a
// mutating sqlite.query is treated as a FileWrite (the closest declared
// category — it mutates the on-disk database file the same way file.write
// mutates a file).
func categoryFor(tool types.Tool, action string) types.PermissionCategory {
	switch tool {
	case types.ToolGit:
		return types.PermGitWrite
	case types.ToolShell:
		if action == "mkdir" {
			return types.PermDirectoryCreate
		}
		return types.PermShell
	case types.ToolFile:
		if action == "delete" {
			return types.PermFileDelete
		}
		return types.PermFileWrite
	case types.ToolSQLite:
		return types.PermFileWrite
	default:
		return types.PermFileWrite
	}
}

// --- SimpleAnswer ---

func (o *Orchestrator) handleSimpleAnswer(ctx context.Context, taskID string, tl *tasklog.TaskLog, intentRes types.IntentResult) (string, error) {
	le, err := o.lifecycle.EnsureLoaded(ctx, types.RoleRouter)
	if err != nil {
		return "", err
	}
	o.publishEngineLoad(taskID, types.RoleRouter, le)

	question, _ := intentRes.Params["question"].(string)
	if question == "" {
		question, _ = intentRes.Params["raw"].(string)
	}
	policy := o.lifecycle.PolicyFor(types.RoleRouter)
	out, err := o.adapter.Generate(ctx, le.Handle, "Answer concisely in at most a few sentences.\n"+question, engine.GenOptions{
		MaxTokens:   256,
		Temperature: policy.DefaultTemperature,
	})
	tl.StepEnd("answer", "completed", len(question)/4, len(out)/4)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

// --- CodingTask ---

func (o *Orchestrator) handleCodingTask(ctx context.Context, taskID string, tl *tasklog.TaskLog, intentRes types.IntentResult) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, codingDeadline)
	defer cancel()

	le, err := o.lifecycle.EnsureLoaded(cctx, types.RoleCoder)
	if err != nil {
		return "", err
	}
	o.publishEngineLoad(taskID, types.RoleCoder, le)

	task := codingTaskFromParams(intentRes.Params)
	result := o.runCodingTask(cctx, tl, taskID, task)

	if result.NeedsAlgorithmSpecialist {
		if err := o.escalateToAlgorithm(cctx); err != nil {
			result.Error = err.Error()
			result.Success = false
		} else {
			algoResult := o.runAlgorithmTask(cctx, tl, taskID, types.AlgorithmTask{Instructions: task.Instructions})
			return format.AlgorithmResult(algoResult), nil
		}
	}
	return format.CodeResult(result), nil
}

func codingTaskFromParams(p types.Params) types.CodingTask {
	instructions, _ := p["instructions"].(string)
	language, _ := p["language"].(string)
	var targetFiles []string
	if tf, ok := p["targetFile"].(string); ok && tf != "" {
		targetFiles = []string{tf}
	}
	existing := map[string]string{}
	if ec, ok := p["existingCode"].(map[string]string); ok {
		existing = ec
	}
	taskType := types.CodingCreate
	if len(existing) > 0 {
		taskType = types.CodingEdit
	}
	return types.CodingTask{
		TaskType:     taskType,
		TargetFiles:  targetFiles,
		Instructions: instructions,
		ExistingCode: existing,
		Language:     language,
	}
}

// runCodingTask runs one coder generation, either in diff mode (existing
// file content supplied) or full-file mode, extracting and — for full-file
// mode — streaming the result to disk through the Tool Executor's write
// path. Generation is CPU-bound model output, not itself a side effect;
// only the resulting file.write is gated.
func (o *Orchestrator) runCodingTask(ctx context.Context, tl *tasklog.TaskLog, taskID string, task types.CodingTask) types.CodeResult {
	policy := o.lifecycle.PolicyFor(types.RoleCoder)
	maxTokens := policy.MaxTokens

	if len(task.TargetFiles) == 1 && task.ExistingCode[task.TargetFiles[0]] != "" {
		return o.runDiffMode(ctx, tl, taskID, task, maxTokens)
	}
	return o.runFullFileMode(ctx, tl, taskID, task, maxTokens)
}

func (o *Orchestrator) runDiffMode(ctx context.Context, tl *tasklog.TaskLog, taskID string, task types.CodingTask, maxTokens int) types.CodeResult {
	path := task.TargetFiles[0]
	existing := task.ExistingCode[path]
	prompt := diffedit.BuildEditPrompt(path, existing, task.Instructions)

	le, err := o.lifecycle.EnsureLoaded(ctx, types.RoleCoder)
	if err != nil {
		return types.CodeResult{Error: err.Error()}
	}
	policy := o.lifecycle.PolicyFor(types.RoleCoder)
	out, err := o.adapter.Generate(ctx, le.Handle, prompt, engine.GenOptions{MaxTokens: maxTokens, Temperature: policy.DefaultTemperature})
	if err != nil {
		return types.CodeResult{Error: err.Error()}
	}

	blocks := diffedit.ParseEditBlocks(out)
	if errs := diffedit.ValidateEdits(existing, blocks); len(errs) > 0 {
		tl.EditValidated(path, len(blocks), len(errs))
		return types.CodeResult{Error: errs[0].Error(), NeedsAlgorithmSpecialist: router.MatchesAlgorithmicKeywords(task.Instructions)}
	}
	tl.EditValidated(path, len(blocks), 0)

	updated, err := diffedit.ApplyEdits(existing, blocks)
	if err != nil {
		return types.CodeResult{Error: err.Error()}
	}

	savings := diffedit.EstimateSavings(existing, blocks)
	if err := o.writeFile(ctx, taskID, path, updated); err != nil {
		return types.CodeResult{Error: err.Error()}
	}
	tl.EditApplied(path, len(blocks))

	return types.CodeResult{
		Success:                  true,
		EditBlocks:               blocks,
		NeedsAlgorithmSpecialist: router.MatchesAlgorithmicKeywords(task.Instructions),
		Metadata:                map[string]string{"savingsPct": fmt.Sprintf("%.0f", savings.SavingsPct)},
	}
}

func (o *Orchestrator) runFullFileMode(ctx context.Context, tl *tasklog.TaskLog, taskID string, task types.CodingTask, maxTokens int) types.CodeResult {
	le, err := o.lifecycle.EnsureLoaded(ctx, types.RoleCoder)
	if err != nil {
		return types.CodeResult{Error: err.Error()}
	}
	policy := o.lifecycle.PolicyFor(types.RoleCoder)

	var path string
	if len(task.TargetFiles) == 1 {
		path = task.TargetFiles[0]
	}
	kind := kindForPath(path)

	// Tokens are published on the bus as they arrive so the UI can render
	// generation progress; the extractor still needs the complete output to
	// find the fenced block's boundaries; the content itself is only
	// written to disk once as a single complete block (see writeFile
	// below), matching the "buffered until a complete block is identified,
	// then flushed" rule for a single-file generation.
	onToken := func(tok string) {
		o.bus.Publish(types.Event{ID: uuid.NewString(), Timestamp: time.Now(), Type: types.EventToken, TaskID: taskID, Payload: map[string]any{"token": tok}})
	}

	prompt := buildCreatePrompt(task)
	out, err := o.adapter.Generate(ctx, le.Handle, prompt, engine.GenOptions{
		MaxTokens: maxTokens, Temperature: policy.DefaultTemperature, OnToken: onToken,
	})
	if err != nil {
		return types.CodeResult{Error: err.Error()}
	}

	extracted := extractor.Extract(out, kind)
	files := map[string]string{}
	if path != "" {
		files[path] = extracted.Content
		if err := o.writeFile(ctx, taskID, path, extracted.Content); err != nil {
			return types.CodeResult{Error: err.Error()}
		}
	}

	return types.CodeResult{
		Success:                  true,
		Files:                    files,
		NeedsAlgorithmSpecialist: router.MatchesAlgorithmicKeywords(task.Instructions),
		Metadata:                 map[string]string{"confidence": fmt.Sprintf("%.2f", extracted.Confidence)},
	}
}

func buildCreatePrompt(task types.CodingTask) string {
	var b strings.Builder
	b.WriteString("Write the requested code. Reply with only the code, no commentary.\n")
	if task.Constraints != "" {
		fmt.Fprintf(&b, "Constraints: %s\n", task.Constraints)
	}
	b.WriteString(task.Instructions)
	return b.String()
}

func kindForPath(path string) extractor.Kind {
	switch {
	case strings.HasSuffix(path, ".py"):
		return extractor.KindPython
	case strings.HasSuffix(path, ".js"):
		return extractor.KindJS
	case strings.HasSuffix(path, ".ts"):
		return extractor.KindTS
	case strings.HasSuffix(path, ".css"):
		return extractor.KindCSS
	case strings.HasSuffix(path, ".html"):
		return extractor.KindHTML
	case strings.HasSuffix(path, ".json"):
		return extractor.KindJSON
	case strings.HasSuffix(path, ".md"):
		return extractor.KindMD
	default:
		return extractor.KindOther
	}
}

// writeFile gates and executes a file.write, folding this core's standard
// write-approval flow into one call so both coding-task code paths share it.
func (o *Orchestrator) writeFile(ctx context.Context, taskID, path, content string) error {
	req := types.PermissionRequest{
		Category:    types.PermFileWrite,
		Description: fmt.Sprintf("write %s", path),
		Preview:     content,
	}
	decision, err := o.gate.Request(ctx, req)
	o.publishPermission(taskID, req, decision)
	if err != nil {
		return err
	}
	result, err := o.executor.Execute(ctx, types.ToolFile, "write", types.Params{"path": path, "content": content, "overwrite": true}, decision)
	o.publishToolCall(taskID, types.ToolFile, "write", result)
	if err != nil {
		return err
	}
	if !result.Success {
		return types.NewError(types.ErrSubprocessFailed, "%s", result.Error)
	}
	return nil
}

// escalateToAlgorithm unloads the Coder (never the router) so the
// Algorithm specialist's footprint has room; Lifecycle's own budget
// enforcement inside EnsureLoaded(Algorithm) already evicts whatever is
// least-recently-used if this explicit unload leaves the budget tight, so
// this call is an optimization, not a correctness requirement.
func (o *Orchestrator) escalateToAlgorithm(ctx context.Context) error {
	if err := o.lifecycle.Unload(ctx, types.RoleCoder); err != nil {
		if kind, ok := types.KindOf(err); ok && kind == types.ErrForbidden {
			return err
		}
	}
	return nil
}

// --- AlgorithmTask ---

func (o *Orchestrator) handleAlgorithmTask(ctx context.Context, taskID string, tl *tasklog.TaskLog, intentRes types.IntentResult) (string, error) {
	cctx, cancel := context.WithTimeout(ctx, algorithmDeadline)
	defer cancel()

	instructions, _ := intentRes.Params["instructions"].(string)
	optimizeFor := types.OptimizeTime
	if v, ok := intentRes.Params["optimizeFor"].(string); ok && v != "" {
		optimizeFor = types.OptimizeFor(v)
	}
	result := o.runAlgorithmTask(cctx, tl, taskID, types.AlgorithmTask{Instructions: instructions, OptimizeFor: optimizeFor})
	return format.AlgorithmResult(result), nil
}

func (o *Orchestrator) runAlgorithmTask(ctx context.Context, tl *tasklog.TaskLog, taskID string, task types.AlgorithmTask) types.AlgorithmResult {
	le, err := o.lifecycle.EnsureLoaded(ctx, types.RoleAlgorithm)
	if err != nil {
		return types.AlgorithmResult{Error: err.Error()}
	}
	o.publishEngineLoad(taskID, types.RoleAlgorithm, le)
	policy := o.lifecycle.PolicyFor(types.RoleAlgorithm)

	var b strings.Builder
	b.WriteString("Solve the following, optimizing for ")
	b.WriteString(string(task.OptimizeFor))
	b.WriteString(". Reply with the solution followed by a line `Complexity: time=..., space=...`.\n")
	b.WriteString(task.Instructions)

	out, err := o.adapter.Generate(ctx, le.Handle, b.String(), engine.GenOptions{
		MaxTokens: policy.MaxTokens, Temperature: policy.DefaultTemperature,
	})
	if err != nil {
		return types.AlgorithmResult{Error: err.Error()}
	}

	content, complexity := splitComplexity(out)
	extracted := extractor.Extract(content, extractor.KindOther)
	tl.StepEnd("algorithm", "completed", len(b.String())/4, len(out)/4)
	return types.AlgorithmResult{Success: true, Content: extracted.Content, Complexity: complexity}
}

// splitComplexity pulls a trailing "Complexity: time=..., space=..." line
// off the model's output, if present.
func splitComplexity(out string) (string, types.ComplexityAnalysis) {
	idx := strings.LastIndex(strings.ToLower(out), "complexity:")
	if idx == -1 {
		return out, types.ComplexityAnalysis{}
	}
	content := strings.TrimSpace(out[:idx])
	line := out[idx:]
	var c types.ComplexityAnalysis
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		switch {
		case strings.Contains(part, "time="):
			c.Time = strings.TrimSpace(strings.SplitN(part, "=", 2)[1])
		case strings.Contains(part, "space="):
			c.Space = strings.TrimSpace(strings.SplitN(part, "=", 2)[1])
		}
	}
	return content, c
}

// endAllBatches clears any batch approval active for every category this
// core can request, so a batch granted mid-utterance never silently
// carries over to the next one. Gate has no bulk-clear of its own because
// it tracks categories, not utterances.
func (o *Orchestrator) endAllBatches() {
	for _, cat := range []types.PermissionCategory{
		types.PermFileWrite, types.PermFileDelete, types.PermShell,
		types.PermGitWrite, types.PermInstall, types.PermDirectoryCreate, types.PermBatch,
	} {
		o.gate.EndBatch(cat)
	}
}

// --- bus publishing ---

func (o *Orchestrator) publishStepBegin(taskID string, step *types.TaskStep) {
	o.bus.Publish(types.Event{
		ID: uuid.NewString(), Timestamp: time.Now(), Type: types.EventStepBegin, TaskID: taskID, StepID: step.ID,
		Payload: map[string]any{"description": step.Description, "stepType": string(step.Type)},
	})
}

func (o *Orchestrator) publishStepEnd(taskID string, step *types.TaskStep, final bool) {
	o.bus.Publish(types.Event{
		ID: uuid.NewString(), Timestamp: time.Now(), Type: types.EventStepEnd, TaskID: taskID, StepID: step.ID,
		Payload: map[string]any{"status": string(step.Status), "final": final},
	})
}

func (o *Orchestrator) publishToolCall(taskID string, tool types.Tool, action string, result types.ToolResult) {
	o.bus.Publish(types.Event{
		ID: uuid.NewString(), Timestamp: time.Now(), Type: types.EventToolCall, TaskID: taskID,
		Payload: map[string]any{"tool": string(tool), "action": action, "success": result.Success},
	})
}

func (o *Orchestrator) publishPermission(taskID string, req types.PermissionRequest, decision types.Decision) {
	o.bus.Publish(types.Event{
		ID: uuid.NewString(), Timestamp: time.Now(), Type: types.EventPermission, TaskID: taskID,
		Payload: map[string]any{"category": string(req.Category), "destructive": req.Destructive, "decision": string(decision)},
	})
}

func (o *Orchestrator) publishEngineLoad(taskID string, role types.Role, le *lifecycle.LoadedEngine) {
	o.bus.Publish(types.Event{
		ID: uuid.NewString(), Timestamp: time.Now(), Type: types.EventEngineLoad, TaskID: taskID,
		Payload: map[string]any{"role": string(role), "modelPath": le.ModelPath, "estimatedMB": le.EstimatedMB},
	})
}
