package router

import "testing"

func TestClassifyFallbackToolVerb(t *testing.T) {
	res := ClassifyFallback("git status")
	if res.Intent != "ToolCall" || res.Confidence != 0.95 || !res.FallbackUsed {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.Tool != "git" || res.Action != "status" {
		t.Fatalf("expected git.status, got %s.%s", res.Tool, res.Action)
	}
}

func TestClassifyFallbackSimpleAnswer(t *testing.T) {
	res := ClassifyFallback("what is a goroutine")
	if res.Intent != "SimpleAnswer" || res.Confidence != 0.85 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClassifyFallbackAlgorithmicBeatsCoding(t *testing.T) {
	res := ClassifyFallback("implement binary search with O(log n) complexity")
	if res.Intent != "AlgorithmTask" || res.Confidence != 0.80 {
		t.Fatalf("expected AlgorithmTask, got %+v", res)
	}
	if res.EscalateTo != "algorithm" {
		t.Fatalf("expected escalation to algorithm, got %s", res.EscalateTo)
	}
}

func TestClassifyFallbackCodingVerb(t *testing.T) {
	res := ClassifyFallback("create calc.py with add and sub functions")
	if res.Intent != "CodingTask" || res.Confidence != 0.75 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.EscalateTo != "coder" {
		t.Fatalf("expected escalation to coder, got %s", res.EscalateTo)
	}
}

func TestClassifyFallbackUnknown(t *testing.T) {
	res := ClassifyFallback("hello there")
	if res.Intent != "Unknown" || res.Confidence >= 0.5 {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestClassifyFallbackGitCommitAction(t *testing.T) {
	res := ClassifyFallback(`git commit -m "fix login bug"`)
	if res.Tool != "git" || res.Action != "commit" {
		t.Fatalf("expected git.commit, got %s.%s", res.Tool, res.Action)
	}
	if res.Params["message"] != "fix login bug" {
		t.Fatalf("expected extracted commit message, got %+v", res.Params)
	}
}

func TestClassifyFallbackGitPushAction(t *testing.T) {
	res := ClassifyFallback("git push origin main")
	if res.Tool != "git" || res.Action != "push" {
		t.Fatalf("expected git.push, got %s.%s", res.Tool, res.Action)
	}
	if res.Params["remote"] != "origin" || res.Params["branch"] != "main" {
		t.Fatalf("expected remote=origin branch=main, got %+v", res.Params)
	}
}

func TestClassifyFallbackShellRunParams(t *testing.T) {
	res := ClassifyFallback("run npm test")
	if res.Tool != "shell" || res.Action != "run" {
		t.Fatalf("expected shell.run, got %s.%s", res.Tool, res.Action)
	}
	if res.Params["command"] != "npm test" {
		t.Fatalf("expected command=npm test, got %+v", res.Params)
	}
}

func TestClassifyFallbackShellMkdirParams(t *testing.T) {
	res := ClassifyFallback("mkdir -p a b/c d")
	if res.Tool != "shell" || res.Action != "mkdir" {
		t.Fatalf("expected shell.mkdir, got %s.%s", res.Tool, res.Action)
	}
	paths, _ := res.Params["paths"].([]string)
	if len(paths) != 3 || paths[0] != "a" || paths[1] != "b/c" || paths[2] != "d" {
		t.Fatalf("expected paths [a b/c d], got %+v", res.Params["paths"])
	}
	if res.Params["parents"] != true {
		t.Fatalf("expected parents=true, got %+v", res.Params)
	}
}

func TestClassifyFallbackFileReadParams(t *testing.T) {
	res := ClassifyFallback("read calc.py")
	if res.Tool != "file" || res.Action != "read" {
		t.Fatalf("expected file.read, got %s.%s", res.Tool, res.Action)
	}
	if res.Params["path"] != "calc.py" {
		t.Fatalf("expected path=calc.py, got %+v", res.Params)
	}
}
