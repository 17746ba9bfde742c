// Package tasklog provides structured per-utterance tracing for the
// orchestration core: one JSONL file per utterance, capturing engine
// loads/evictions, tool calls, permission decisions, and diff-edit
// validation/application — the trace an operator tails to see what one
// request actually did.
//
// Design constraints, adapted from the teacher's own task-log package:
//   - All TaskLog methods are nil-safe (no-op on nil receiver) so callers
//     don't need nil checks before every log call.
//   - Registry is the sole owner of JSONL persistence; callers never open
//     files themselves.
//   - Orchestrator opens a log via Registry.Open at the start of Process
//     and closes it via Registry.Close when the utterance is done.
package tasklog

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// EventKind labels a single structured event in the task log, re-keyed to
// this core's own event vocabulary.
type EventKind string

const (
	KindTaskBegin          EventKind = "task_begin"
	KindTaskEnd            EventKind = "task_end"
	KindStepBegin          EventKind = "step_begin"
	KindStepEnd            EventKind = "step_end"
	KindEngineLoad         EventKind = "engine_load"
	KindEngineEvict        EventKind = "engine_evict"
	KindToolCall           EventKind = "tool_call"
	KindPermissionDecision EventKind = "permission_decision"
	KindEditValidated      EventKind = "edit_validated"
	KindEditApplied        EventKind = "edit_applied"
)

// Event is one JSONL line in the task log. Fields are omitempty so each
// event only serializes what's relevant to its Kind.
type Event struct {
	Kind      EventKind `json:"kind"`
	Timestamp string    `json:"ts"`

	// task_begin / task_end
	TaskID      string `json:"task_id,omitempty"`
	Utterance   string `json:"utterance,omitempty"`
	Status      string `json:"status,omitempty"` // "completed" | "failed" | "cancelled"
	ElapsedMs   int64  `json:"elapsed_ms,omitempty"`
	TotalTokens int    `json:"total_tokens,omitempty"`

	// step_begin / step_end
	StepID      string `json:"step_id,omitempty"`
	StepType    string `json:"step_type,omitempty"`
	Description string `json:"description,omitempty"`

	// engine_load / engine_evict
	Role        string `json:"role,omitempty"`
	ModelPath   string `json:"model_path,omitempty"`
	EstimatedMB int    `json:"estimated_mb,omitempty"`

	// tool_call
	Tool       string `json:"tool,omitempty"`
	Action     string `json:"action,omitempty"`
	ToolInput  string `json:"tool_input,omitempty"`
	ToolOutput string `json:"tool_output,omitempty"`
	ToolError  string `json:"tool_error,omitempty"`

	// permission_decision
	Category    string `json:"category,omitempty"`
	Destructive bool   `json:"destructive,omitempty"`
	Decision    string `json:"decision,omitempty"`

	// edit_validated / edit_applied
	FilePath   string `json:"file_path,omitempty"`
	BlockCount int    `json:"block_count,omitempty"`
	Errors     int    `json:"errors,omitempty"`

	// generation, reported alongside step_end and task_end
	PromptTokens     int `json:"prompt_tokens,omitempty"`
	CompletionTokens int `json:"completion_tokens,omitempty"`
}

// TaskLog is a handle for writing structured events for one utterance.
//
// Expectations:
//   - All methods are nil-safe (no-op when called on nil *TaskLog)
//   - Concurrent writes are safe (mutex-protected)
//   - TotalTokens returns the running sum of prompt+completion tokens logged via StepEnd
type TaskLog struct {
	taskID           string
	started          time.Time
	mu               sync.Mutex
	f                *os.File
	promptTokens     int
	completionTokens int
}

// Registry maps task IDs to open TaskLogs. It is the sole authority for
// creating and closing task log files.
//
// Expectations:
//   - Open creates the log directory if absent
//   - Open writes a task_begin event as the first JSONL line
//   - Open returns the existing log without re-opening when called twice for the same taskID
//   - Get returns nil for unknown task IDs
//   - Get returns the same pointer returned by Open for the same taskID
//   - Close writes task_end with status, elapsed_ms, total_tokens before flushing
//   - Close removes the taskID from the registry so subsequent Get returns nil
//   - Close no-ops gracefully when taskID is not registered
type Registry struct {
	dir  string
	mu   sync.Mutex
	logs map[string]*TaskLog
}

// NewRegistry creates a Registry that writes one JSONL file per utterance under dir.
func NewRegistry(dir string) *Registry {
	return &Registry{dir: dir, logs: make(map[string]*TaskLog)}
}

// Open creates a new TaskLog for taskID, writes a task_begin event, and
// registers it. If a log for taskID is already open, it returns the
// existing log.
func (r *Registry) Open(taskID, utterance string) *TaskLog {
	r.mu.Lock()
	defer r.mu.Unlock()

	if tl, ok := r.logs[taskID]; ok {
		return tl
	}

	if err := os.MkdirAll(r.dir, 0o755); err != nil {
		log.Printf("[TASKLOG] could not create dir %s: %v", r.dir, err)
		return nil
	}
	path := filepath.Join(r.dir, taskID+".jsonl")
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		log.Printf("[TASKLOG] could not open %s: %v", path, err)
		return nil
	}

	tl := &TaskLog{taskID: taskID, started: time.Now(), f: f}
	r.logs[taskID] = tl
	tl.write(Event{Kind: KindTaskBegin, TaskID: taskID, Utterance: utterance})
	return tl
}

// Get returns the TaskLog for taskID, or nil if not found. Nil is safe to
// pass to all TaskLog methods.
func (r *Registry) Get(taskID string) *TaskLog {
	if r == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.logs[taskID]
}

// Close writes a task_end event, flushes and closes the file, and removes
// the entry from the registry. Safe to call on a nil *Registry or unknown taskID.
func (r *Registry) Close(taskID, status string) {
	if r == nil {
		return
	}
	r.mu.Lock()
	tl, ok := r.logs[taskID]
	if !ok {
		r.mu.Unlock()
		return
	}
	delete(r.logs, taskID)
	r.mu.Unlock()

	tl.mu.Lock()
	elapsed := time.Since(tl.started).Milliseconds()
	total := tl.promptTokens + tl.completionTokens
	tl.mu.Unlock()

	tl.write(Event{
		Kind:        KindTaskEnd,
		TaskID:      taskID,
		Status:      status,
		ElapsedMs:   elapsed,
		TotalTokens: total,
	})

	tl.mu.Lock()
	if tl.f != nil {
		_ = tl.f.Close()
		tl.f = nil
	}
	tl.mu.Unlock()
}

// StepBegin writes a step_begin event.
func (tl *TaskLog) StepBegin(stepID, stepType, description string) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindStepBegin, StepID: stepID, StepType: stepType, Description: description})
}

// StepEnd writes a step_end event, accumulating promptToks/completionToks
// into the running total TotalTokens reports and Close flushes.
func (tl *TaskLog) StepEnd(stepID, status string, promptToks, completionToks int) {
	if tl == nil {
		return
	}
	tl.mu.Lock()
	tl.promptTokens += promptToks
	tl.completionTokens += completionToks
	tl.mu.Unlock()
	tl.write(Event{
		Kind: KindStepEnd, StepID: stepID, Status: status,
		PromptTokens: promptToks, CompletionTokens: completionToks,
	})
}

// EngineLoad writes an engine_load event.
func (tl *TaskLog) EngineLoad(role, modelPath string, estimatedMB int) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindEngineLoad, Role: role, ModelPath: modelPath, EstimatedMB: estimatedMB})
}

// EngineEvict writes an engine_evict event.
func (tl *TaskLog) EngineEvict(role string, estimatedMB int) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindEngineEvict, Role: role, EstimatedMB: estimatedMB})
}

// ToolCall writes a tool_call event. toolError is empty on success.
func (tl *TaskLog) ToolCall(tool, action, toolInput, toolOutput, toolError string) {
	if tl == nil {
		return
	}
	tl.write(Event{
		Kind: KindToolCall, Tool: tool, Action: action,
		ToolInput: toolInput, ToolOutput: toolOutput, ToolError: toolError,
	})
}

// PermissionDecision writes a permission_decision event.
func (tl *TaskLog) PermissionDecision(category string, destructive bool, decision string) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindPermissionDecision, Category: category, Destructive: destructive, Decision: decision})
}

// EditValidated writes an edit_validated event.
func (tl *TaskLog) EditValidated(filePath string, blockCount, errCount int) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindEditValidated, FilePath: filePath, BlockCount: blockCount, Errors: errCount})
}

// EditApplied writes an edit_applied event.
func (tl *TaskLog) EditApplied(filePath string, blockCount int) {
	if tl == nil {
		return
	}
	tl.write(Event{Kind: KindEditApplied, FilePath: filePath, BlockCount: blockCount})
}

// TotalTokens returns the total token count accumulated so far via StepEnd.
//
// Expectations:
//   - Returns 0 on nil receiver
//   - Returns sum of prompt and completion tokens from all StepEnd events
func (tl *TaskLog) TotalTokens() int {
	if tl == nil {
		return 0
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	return tl.promptTokens + tl.completionTokens
}

// write appends one JSON line to the task log file. Adds timestamp, mutex-protected.
func (tl *TaskLog) write(e Event) {
	e.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	data, err := json.Marshal(e)
	if err != nil {
		log.Printf("[TASKLOG] marshal error: %v", err)
		return
	}
	tl.mu.Lock()
	defer tl.mu.Unlock()
	if tl.f == nil {
		return
	}
	if _, err = fmt.Fprintf(tl.f, "%s\n", data); err != nil {
		log.Printf("[TASKLOG] write error: %v", err)
	}
}
