package engine

import "context"

// FakeAdapter is a deterministic in-memory Adapter for tests. It never
// touches a real daemon: Generate looks up prompt in Responses (exact
// match) and falls back to Default.
type FakeAdapter struct {
	Responses map[string]string
	Default   string

	LoadCalls   []string
	UnloadCalls []string
}

type fakeHandle struct{ model string }

func (h *fakeHandle) modelPath() string { return h.model }

// NewFakeAdapter returns a FakeAdapter with an empty response table.
func NewFakeAdapter() *FakeAdapter {
	return &FakeAdapter{Responses: map[string]string{}}
}

func (f *FakeAdapter) Load(_ context.Context, path string, _ LoadOptions) (Handle, error) {
	f.LoadCalls = append(f.LoadCalls, path)
	return &fakeHandle{model: path}, nil
}

func (f *FakeAdapter) Generate(_ context.Context, _ Handle, prompt string, opts GenOptions) (string, error) {
	resp, ok := f.Responses[prompt]
	if !ok {
		resp = f.Default
	}
	if opts.OnToken != nil {
		opts.OnToken(resp)
	}
	return resp, nil
}

func (f *FakeAdapter) Unload(_ context.Context, h Handle) error {
	if fh, ok := h.(*fakeHandle); ok {
		f.UnloadCalls = append(f.UnloadCalls, fh.model)
	}
	return nil
}
