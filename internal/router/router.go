package router

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/localcoder/nanocore/internal/engine"
	"github.com/localcoder/nanocore/internal/lifecycle"
	"github.com/localcoder/nanocore/internal/types"
)

// Thresholds mirrors the confidence table in §4.2. Config has no threshold
// keys; callers tune these by passing their own Thresholds value to New. The
// defaults below are the spec's pinned values (one of the Open Questions
// this spec resolves rather than leaving to implementers).
type Thresholds struct {
	Execute        float64 // >= : run without confirmation if non-destructive
	ExecuteConfirm float64 // [ExecuteConfirm, Execute) : run with preview/confirmation
	Escalate       float64 // [Escalate, ExecuteConfirm) : escalate Coding/Algorithm to specialist
	Clarify        float64 // [Clarify, Escalate) : ask for clarification; below this is Unknown
}

// DefaultThresholds pins the values spec.md's Open Questions section settled on.
func DefaultThresholds() Thresholds {
	return Thresholds{Execute: 0.95, ExecuteConfirm: 0.85, Escalate: 0.70, Clarify: 0.50}
}

// maxContextChars approximates the 2048-token context budget Tier A's
// prompt is allowed, at the same 4-characters-per-token heuristic the Diff
// Editor uses for estimateSavings.
const maxContextChars = 2048 * 4

// schemaInstruction is the fixed prompt prefix that asks the router engine
// to reply with one JSON object matching tierAResponse's shape.
const schemaInstruction = `Classify the user's utterance. Reply with exactly one JSON object, no prose, matching:
{"intent":"ToolCall|SimpleAnswer|CodingTask|AlgorithmTask|Unknown","confidence":0.0,"tool":"git|shell|file|sqlite|","action":"","params":{}}
Utterance:
`

// tierAResponse is the structured record Tier A's model reply parses into.
type tierAResponse struct {
	Intent     string         `json:"intent"`
	Confidence float64        `json:"confidence"`
	Tool       string         `json:"tool"`
	Action     string         `json:"action"`
	Params     map[string]any `json:"params"`
}

// Router exposes Classify. It holds the capability to load and prompt the
// always-resident router engine (Tier A) and falls back to the pure
// deterministic table in fallback.go (Tier B) whenever Tier A can't parse
// or isn't confident enough.
type Router struct {
	lifecycle  *lifecycle.Manager
	adapter    engine.Adapter
	thresholds Thresholds
}

// New builds a Router. adapter must be the same Adapter the lifecycle
// Manager was constructed with — Router calls Generate directly against
// whatever Handle EnsureLoaded(RoleRouter) returns.
func New(lc *lifecycle.Manager, adapter engine.Adapter, thresholds Thresholds) *Router {
	return &Router{lifecycle: lc, adapter: adapter, thresholds: thresholds}
}

// Thresholds returns the confidence table this Router was built with.
func (r *Router) Thresholds() Thresholds { return r.thresholds }

// Classify turns one utterance into an IntentResult. Tier A is tried
// first; on JSON parse failure it drops straight to Tier B without
// retrying the model (per §4.2, a schema parse failure is not itself
// retried at the router layer — SchemaMismatch retries, where they apply,
// are an Orchestrator-level concern for CodingTask/AlgorithmTask results).
func (r *Router) Classify(ctx context.Context, utterance string, recentContext string) types.IntentResult {
	res, err := r.tierA(ctx, utterance, recentContext)
	if err == nil && res.Confidence >= 0.50 {
		return res
	}
	return ClassifyFallback(utterance)
}

func (r *Router) tierA(ctx context.Context, utterance, recentContext string) (types.IntentResult, error) {
	le, err := r.lifecycle.EnsureLoaded(ctx, types.RoleRouter)
	if err != nil {
		return types.IntentResult{}, err
	}

	prompt := schemaInstruction + truncateChars(recentContext+"\n"+utterance, maxContextChars)
	policy := r.lifecycle.PolicyFor(types.RoleRouter)
	out, err := r.adapter.Generate(ctx, le.Handle, prompt, engine.GenOptions{
		MaxTokens:   256,
		Temperature: policy.DefaultTemperature,
		Stop:        []string{"\n\n"},
	})
	if err != nil {
		return types.IntentResult{}, err
	}

	parsed, err := parseTierA(out)
	if err != nil {
		return types.IntentResult{}, types.WrapError(types.ErrSchemaMismatch, err, "parse router tier-A response")
	}
	return parsed, nil
}

// parseTierA extracts the first JSON object in out (models sometimes wrap
// it in prose despite the instruction) and converts it to an IntentResult.
func parseTierA(out string) (types.IntentResult, error) {
	start := strings.IndexByte(out, '{')
	end := strings.LastIndexByte(out, '}')
	if start == -1 || end == -1 || end < start {
		return types.IntentResult{}, types.NewError(types.ErrSchemaMismatch, "no JSON object in response")
	}

	var r tierAResponse
	if err := json.Unmarshal([]byte(out[start:end+1]), &r); err != nil {
		return types.IntentResult{}, err
	}

	intent := types.Intent(r.Intent)
	switch intent {
	case types.IntentToolCall, types.IntentSimpleAnswer, types.IntentCodingTask, types.IntentAlgorithmTask, types.IntentUnknown:
	default:
		return types.IntentResult{}, types.NewError(types.ErrSchemaMismatch, "unrecognized intent %q", r.Intent)
	}
	if r.Confidence < 0 || r.Confidence > 1 {
		return types.IntentResult{}, types.NewError(types.ErrSchemaMismatch, "confidence %v out of range", r.Confidence)
	}

	params := types.Params{}
	for k, v := range r.Params {
		params[k] = v
	}

	result := types.IntentResult{
		Intent:     intent,
		Confidence: r.Confidence,
		Tool:       types.Tool(r.Tool),
		Action:     r.Action,
		Params:     params,
	}
	if intent == types.IntentToolCall && result.Tool == types.ToolNone {
		return types.IntentResult{}, types.NewError(types.ErrSchemaMismatch, "ToolCall with empty tool")
	}
	if intent == types.IntentCodingTask {
		result.EscalateTo = types.RoleCoder
		instructions, _ := params["instructions"].(string)
		if containsAny(instructions, algorithmicKeywords) {
			result.EscalateTo = types.RoleAlgorithm
		}
	}
	if intent == types.IntentAlgorithmTask {
		result.EscalateTo = types.RoleAlgorithm
	}
	return result, nil
}

func truncateChars(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
