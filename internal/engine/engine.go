// Package engine is the thin capability boundary the spec calls the Engine
// Adapter: load a model file at a context size, produce tokens for a
// prompt, stream tokens, unload. It deliberately knows nothing about roles,
// budgets, or intents — that belongs to internal/lifecycle.
package engine

import (
	"context"
	"strings"

	"github.com/ollama/ollama/api"

	"github.com/localcoder/nanocore/internal/types"
)

// LoadOptions configures a Load call.
type LoadOptions struct {
	ContextSize int
	MaxTokens   int
	NThreads    int
	ExtraLayers int
}

// GenOptions configures a Generate call.
type GenOptions struct {
	MaxTokens   int
	Temperature float64
	Stop        []string
	OnToken     func(string) // invoked per decoded token, if non-nil
	Cancel      <-chan struct{}
}

// Handle is an opaque loaded-model reference. It carries no methods callers
// should rely on beyond identity; internal/lifecycle wraps one per Role.
type Handle interface {
	modelPath() string
}

// Adapter is the capability the Lifecycle Manager and Orchestrator consume.
// No hidden global state: each Load is independent of any other.
type Adapter interface {
	Load(ctx context.Context, path string, opts LoadOptions) (Handle, error)
	Generate(ctx context.Context, h Handle, prompt string, opts GenOptions) (string, error)
	Unload(ctx context.Context, h Handle) error
}

type ollamaHandle struct {
	model string
}

func (h *ollamaHandle) modelPath() string { return h.model }

// OllamaAdapter implements Adapter against a locally running Ollama daemon.
// Ollama stands in for "the external native engine" this core never
// reimplements: GGUF loading, tokenization, and matmul all happen on the
// other side of this client.
type OllamaAdapter struct {
	client *api.Client
}

// NewOllamaAdapter builds an adapter from the standard Ollama environment
// (OLLAMA_HOST, or the local unix/http default).
func NewOllamaAdapter() (*OllamaAdapter, error) {
	c, err := api.ClientFromEnvironment()
	if err != nil {
		return nil, types.WrapError(types.ErrNotFound, err, "connect to ollama daemon")
	}
	return &OllamaAdapter{client: c}, nil
}

// Load pages model into the daemon's resident set with a zero-token warm-up
// generate call, keeping it resident until an explicit Unload. The
// Lifecycle Manager, not this adapter, decides when that should happen.
func (a *OllamaAdapter) Load(ctx context.Context, path string, opts LoadOptions) (Handle, error) {
	forever := &api.Duration{Duration: -1}
	req := &api.GenerateRequest{
		Model:     path,
		Prompt:    "",
		KeepAlive: forever,
		Options: map[string]any{
			"num_ctx":    opts.ContextSize,
			"num_thread": opts.NThreads,
		},
	}
	if err := a.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil }); err != nil {
		return nil, types.WrapError(types.ErrNotFound, err, "load model %s", path)
	}
	return &ollamaHandle{model: path}, nil
}

// Generate streams tokens for prompt, invoking opts.OnToken per chunk and
// returning the concatenated text. Closing opts.Cancel stops the stream
// early; the partial text accumulated so far is still returned.
func (a *OllamaAdapter) Generate(ctx context.Context, h Handle, prompt string, opts GenOptions) (string, error) {
	oh, ok := h.(*ollamaHandle)
	if !ok {
		return "", types.NewError(types.ErrSchemaMismatch, "engine: handle from a different adapter")
	}

	stream := true
	req := &api.GenerateRequest{
		Model:  oh.model,
		Prompt: prompt,
		Stream: &stream,
		Options: map[string]any{
			"temperature": opts.Temperature,
			"num_predict": opts.MaxTokens,
			"stop":        opts.Stop,
		},
	}

	var out strings.Builder
	var cancelled bool
	err := a.client.Generate(ctx, req, func(resp api.GenerateResponse) error {
		out.WriteString(resp.Response)
		if opts.OnToken != nil {
			opts.OnToken(resp.Response)
		}
		select {
		case <-opts.Cancel:
			cancelled = true
			return context.Canceled
		default:
			return nil
		}
	})
	if cancelled {
		return out.String(), types.NewError(types.ErrCancelled, "generation cancelled")
	}
	if err != nil {
		return out.String(), types.WrapError(types.ErrSubprocessFailed, err, "generate")
	}
	return out.String(), nil
}

// Unload asks the daemon to release the model's resident memory
// immediately (KeepAlive: 0). The Lifecycle Manager still forgets its own
// LoadedEngine entry even if this call fails; the daemon is free to evict
// on its own schedule regardless.
func (a *OllamaAdapter) Unload(ctx context.Context, h Handle) error {
	oh, ok := h.(*ollamaHandle)
	if !ok {
		return types.NewError(types.ErrSchemaMismatch, "engine: handle from a different adapter")
	}
	none := &api.Duration{Duration: 0}
	req := &api.GenerateRequest{Model: oh.model, Prompt: "", KeepAlive: none}
	if err := a.client.Generate(ctx, req, func(api.GenerateResponse) error { return nil }); err != nil {
		return types.WrapError(types.ErrSubprocessFailed, err, "unload model %s", oh.model)
	}
	return nil
}
