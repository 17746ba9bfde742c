package planner

import (
	"testing"

	"github.com/localcoder/nanocore/internal/types"
)

func TestNeedsPlanningDetectsConnectivesAndLists(t *testing.T) {
	cases := map[string]bool{
		"create test.py then run it then commit":      true,
		"1. create a file 2. run it":                  true,
		"create a full-stack todo app with Flask":      true,
		"what is a goroutine":                          false,
		"create calc.py with add and sub functions":    false,
	}
	for utterance, want := range cases {
		if got := NeedsPlanning(utterance); got != want {
			t.Errorf("NeedsPlanning(%q) = %v, want %v", utterance, got, want)
		}
	}
}

func TestPlanSequentialThreeSteps(t *testing.T) {
	plan := Plan("create test.py then run it then commit")
	if len(plan.Steps) != 3 {
		t.Fatalf("expected 3 steps, got %d", len(plan.Steps))
	}
	if !plan.IsSequential {
		t.Fatal("expected sequential plan")
	}
	if plan.Steps[2].DependsOn[0] != plan.Steps[1].ID {
		t.Fatalf("expected step 3 to depend on step 2")
	}
}

func TestPlanFullStackEmitsFixedChunks(t *testing.T) {
	plan := Plan("create a full-stack todo app with Flask backend and SQLite database")
	if len(plan.Steps) != len(fullStackChunks) {
		t.Fatalf("expected %d chunks, got %d", len(fullStackChunks), len(plan.Steps))
	}
	for i, step := range plan.Steps {
		chunk := fullStackChunks[i]
		if chunk.dirPaths != nil {
			if step.Type != types.StepToolCall || step.Params["action"] != "mkdir" {
				t.Fatalf("chunk %d: expected a shell.mkdir tool call, got %+v", i, step)
			}
			continue
		}
		if step.Params["maxTokens"].(int) != chunk.maxTokens {
			t.Fatalf("chunk %d: wrong maxTokens budget", i)
		}
	}
}

func TestStepReturnsNilWhenBlocked(t *testing.T) {
	plan := Plan("create test.py then run it")
	first := Step(plan)
	if first == nil || first.ID != plan.Steps[0].ID {
		t.Fatalf("expected first step available, got %+v", first)
	}
	if err := Update(plan, first.ID, types.StepInProgress, "", ""); err != nil {
		t.Fatal(err)
	}
	if s := Step(plan); s != nil {
		t.Fatalf("expected no step available while first is InProgress, got %+v", s)
	}
	if err := Update(plan, first.ID, types.StepCompleted, "ok", ""); err != nil {
		t.Fatal(err)
	}
	second := Step(plan)
	if second == nil || second.ID != plan.Steps[1].ID {
		t.Fatalf("expected second step unblocked, got %+v", second)
	}
}

func TestUpdateRejectsIllegalTransition(t *testing.T) {
	plan := Plan("create test.py")
	step := plan.Steps[0]
	if err := Update(plan, step.ID, types.StepCompleted, "", ""); err == nil {
		t.Fatal("expected Pending -> Completed to be rejected")
	}
}

func TestSkipRemainingAfterFailure(t *testing.T) {
	plan := Plan("create test.py then run it then commit")
	first := Step(plan)
	_ = Update(plan, first.ID, types.StepInProgress, "", "")
	_ = Update(plan, first.ID, types.StepFailed, "", "boom")
	SkipRemaining(plan)
	if plan.Steps[1].Status != types.StepSkipped || plan.Steps[2].Status != types.StepSkipped {
		t.Fatalf("expected remaining steps skipped, got %+v", plan.Steps)
	}
}
