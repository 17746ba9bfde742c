package ui

import (
	"strings"
	"testing"

	"github.com/localcoder/nanocore/internal/types"
)

func makeEvent(t types.EventType, payload any) types.Event {
	return types.Event{Type: t, Payload: payload}
}

// --- eventDetail: EventStepBegin ---

func TestEventDetail_StepBegin_ReturnsDescription(t *testing.T) {
	evt := makeEvent(types.EventStepBegin, map[string]any{"description": "create calc.py"})
	got := eventDetail(evt)
	if got != "create calc.py" {
		t.Errorf("got %q, want %q", got, "create calc.py")
	}
}

func TestEventDetail_StepBegin_ClipsLongDescription(t *testing.T) {
	long := strings.Repeat("a", 80)
	evt := makeEvent(types.EventStepBegin, map[string]any{"description": long})
	got := eventDetail(evt)
	if !strings.HasSuffix(got, "…") {
		t.Errorf("expected clipped description to end with …, got %q", got)
	}
}

// --- eventDetail: EventStepEnd ---

func TestEventDetail_StepEnd_ReturnsStatus(t *testing.T) {
	evt := makeEvent(types.EventStepEnd, map[string]any{"status": "completed"})
	got := eventDetail(evt)
	if got != "completed" {
		t.Errorf("got %q, want completed", got)
	}
}

// --- eventDetail: EventToolCall ---

func TestEventDetail_ToolCall_ReturnsToolDotAction(t *testing.T) {
	evt := makeEvent(types.EventToolCall, map[string]any{"tool": "git", "action": "status"})
	got := eventDetail(evt)
	if got != "git.status" {
		t.Errorf("got %q, want git.status", got)
	}
}

// --- eventDetail: EventPermission ---

func TestEventDetail_Permission_NoDecisionReturnsCategoryOnly(t *testing.T) {
	evt := makeEvent(types.EventPermission, map[string]any{"category": "FileWrite"})
	got := eventDetail(evt)
	if got != "FileWrite" {
		t.Errorf("got %q, want FileWrite", got)
	}
}

func TestEventDetail_Permission_WithDecisionShowsBoth(t *testing.T) {
	evt := makeEvent(types.EventPermission, map[string]any{"category": "Shell", "decision": "approved"})
	got := eventDetail(evt)
	if !strings.Contains(got, "Shell") || !strings.Contains(got, "approved") {
		t.Errorf("got %q, want category and decision both present", got)
	}
}

// --- eventDetail: EventEngineLoad / EventEngineEvict ---

func TestEventDetail_EngineLoad_ReturnsRole(t *testing.T) {
	evt := makeEvent(types.EventEngineLoad, map[string]any{"role": "coder"})
	got := eventDetail(evt)
	if got != "coder" {
		t.Errorf("got %q, want coder", got)
	}
}

func TestEventDetail_EngineEvict_ReturnsRole(t *testing.T) {
	evt := makeEvent(types.EventEngineEvict, map[string]any{"role": "algorithm"})
	got := eventDetail(evt)
	if got != "algorithm" {
		t.Errorf("got %q, want algorithm", got)
	}
}

// --- eventDetail: unparseable / unknown payload ---

func TestEventDetail_NilPayloadReturnsEmpty(t *testing.T) {
	got := eventDetail(makeEvent(types.EventToken, nil))
	if got != "" {
		t.Errorf("expected empty string for nil payload, got %q", got)
	}
}

func TestEventDetail_UnknownTypeReturnsEmpty(t *testing.T) {
	got := eventDetail(makeEvent("UnknownEventType", map[string]any{"foo": "bar"}))
	if got != "" {
		t.Errorf("expected empty string for unknown type, got %q", got)
	}
}

// --- dynamicStatus ---

func TestDynamicStatus_ToolCall_ShowsToolAndAction(t *testing.T) {
	evt := makeEvent(types.EventToolCall, map[string]any{"tool": "shell", "action": "run"})
	got := dynamicStatus(evt)
	if !strings.Contains(got, "shell.run") {
		t.Errorf("expected tool.action in status, got %q", got)
	}
}

func TestDynamicStatus_EngineLoad_ShowsRole(t *testing.T) {
	evt := makeEvent(types.EventEngineLoad, map[string]any{"role": "coder"})
	got := dynamicStatus(evt)
	if !strings.Contains(got, "coder") {
		t.Errorf("expected role in status, got %q", got)
	}
}

func TestDynamicStatus_Permission_ShowsCategory(t *testing.T) {
	evt := makeEvent(types.EventPermission, map[string]any{"category": "GitWrite"})
	got := dynamicStatus(evt)
	if !strings.Contains(got, "GitWrite") {
		t.Errorf("expected category in status, got %q", got)
	}
}

func TestDynamicStatus_FallsBackToStaticLabel(t *testing.T) {
	// With no payload detail available, falls back to the static per-type label.
	evt := makeEvent(types.EventStepEnd, nil)
	got := dynamicStatus(evt)
	if got != "step done" {
		t.Errorf("got %q, want static fallback %q", got, "step done")
	}
}

// --- isFinalStep ---

func TestIsFinalStep_TrueWhenPayloadMarksFinal(t *testing.T) {
	evt := makeEvent(types.EventStepEnd, map[string]any{"final": true})
	if !isFinalStep(evt) {
		t.Error("expected isFinalStep to report true")
	}
}

func TestIsFinalStep_FalseWhenNotMarked(t *testing.T) {
	evt := makeEvent(types.EventStepEnd, map[string]any{"final": false})
	if isFinalStep(evt) {
		t.Error("expected isFinalStep to report false")
	}
}

func TestIsFinalStep_FalseOnUnparseablePayload(t *testing.T) {
	evt := makeEvent(types.EventStepEnd, nil)
	if isFinalStep(evt) {
		t.Error("expected isFinalStep to report false on nil payload")
	}
}

// --- runeWidth ---

func TestRuneWidth_ASCIIIsOneColumn(t *testing.T) {
	for _, r := range "abcdefghijklmnopqrstuvwxyz0123456789 !@#" {
		if got := runeWidth(r); got != 1 {
			t.Errorf("runeWidth(%q) = %d, want 1", r, got)
		}
	}
}

func TestRuneWidth_CJKUnifiedIdeographsAreTwoColumns(t *testing.T) {
	for _, r := range "重新执行命令文件" {
		if got := runeWidth(r); got != 2 {
			t.Errorf("runeWidth(%q U+%04X) = %d, want 2", r, r, got)
		}
	}
}

func TestRuneWidth_HangulSyllablesAreTwoColumns(t *testing.T) {
	for _, r := range "한글" {
		if got := runeWidth(r); got != 2 {
			t.Errorf("runeWidth(%q U+%04X) = %d, want 2", r, r, got)
		}
	}
}

// --- clipCols ---

func TestClipCols_UnchangedWhenWithinLimit(t *testing.T) {
	s := "hello"
	if got := clipCols(s, 10); got != s {
		t.Errorf("clipCols(%q, 10) = %q, want unchanged", s, got)
	}
}

func TestClipCols_TruncatesAtRuneBoundaryForCJK(t *testing.T) {
	// "重新执行命令" = 6 CJK runes = 12 cols; clip to 8 cols -> 3 runes + "…"
	s := "重新执行命令"
	got := clipCols(s, 8)
	runes := []rune(got)
	if runes[len(runes)-1] != '…' {
		t.Errorf("clipCols CJK: expected trailing …, got %q", got)
	}
	content := string(runes[:len(runes)-1])
	cols := 0
	for _, r := range content {
		cols += runeWidth(r)
	}
	if cols > 8 {
		t.Errorf("clipCols CJK: content is %d cols, want <= 8", cols)
	}
}

func TestClipCols_AppendsEllipsisOnlyWhenTrimmed(t *testing.T) {
	short := "ok"
	if got := clipCols(short, 10); strings.Contains(got, "…") {
		t.Errorf("clipCols: unexpected … in unchanged result %q", got)
	}
	long := strings.Repeat("a", 20)
	if got := clipCols(long, 10); !strings.HasSuffix(got, "…") {
		t.Errorf("clipCols: expected … suffix for truncated result, got %q", got)
	}
}

// --- clip ---

func TestClip_UnchangedWhenWithinLimit(t *testing.T) {
	if got := clip("hi", 5); got != "hi" {
		t.Errorf("got %q, want unchanged", got)
	}
}

func TestClip_TruncatesWithEllipsis(t *testing.T) {
	got := clip(strings.Repeat("x", 10), 3)
	if got != "xxx…" {
		t.Errorf("got %q, want xxx…", got)
	}
}
