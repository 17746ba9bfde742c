package lifecycle

import (
	"context"
	"testing"

	"github.com/localcoder/nanocore/internal/engine"
	"github.com/localcoder/nanocore/internal/types"
)

func testPolicies() map[types.Role]types.Policy {
	return map[types.Role]types.Policy{
		types.RoleRouter:    {AlwaysResident: true, MemoryEstimateMB: 100},
		types.RoleCoder:     {MemoryEstimateMB: 400},
		types.RoleAlgorithm: {MemoryEstimateMB: 400},
	}
}

func testPaths() map[types.Role]string {
	return map[types.Role]string{
		types.RoleRouter:    "router.gguf",
		types.RoleCoder:     "coder.gguf",
		types.RoleAlgorithm: "algorithm.gguf",
	}
}

func TestEnsureLoadedLoadsOnce(t *testing.T) {
	a := engine.NewFakeAdapter()
	m := NewManager(a, testPolicies(), testPaths(), 1000)

	le1, err := m.EnsureLoaded(context.Background(), types.RoleCoder)
	if err != nil {
		t.Fatal(err)
	}
	le2, err := m.EnsureLoaded(context.Background(), types.RoleCoder)
	if err != nil {
		t.Fatal(err)
	}
	if le1 != le2 {
		t.Fatal("expected second EnsureLoaded to return the same handle")
	}
	if len(a.LoadCalls) != 1 {
		t.Fatalf("expected exactly one Load call, got %d", len(a.LoadCalls))
	}
}

func TestEnsureLoadedEvictsLRU(t *testing.T) {
	a := engine.NewFakeAdapter()
	// Budget fits router (100) + one of coder/algorithm (400) but not both.
	m := NewManager(a, testPolicies(), testPaths(), 500)

	if _, err := m.EnsureLoaded(context.Background(), types.RoleRouter); err != nil {
		t.Fatal(err)
	}
	if _, err := m.EnsureLoaded(context.Background(), types.RoleCoder); err != nil {
		t.Fatal(err)
	}
	if _, err := m.EnsureLoaded(context.Background(), types.RoleAlgorithm); err != nil {
		t.Fatal(err)
	}

	usage := m.MemoryUsage()
	if usage.TotalMB > 500 {
		t.Fatalf("budget violated: %d > 500", usage.TotalMB)
	}
	if !m.RouterResident() {
		t.Fatal("router must never be evicted under budget pressure")
	}
	if len(a.UnloadCalls) != 1 {
		t.Fatalf("expected exactly one eviction, got %d", len(a.UnloadCalls))
	}
}

func TestEnsureLoadedResourceExhausted(t *testing.T) {
	a := engine.NewFakeAdapter()
	policies := testPolicies()
	policies[types.RoleCoder] = types.Policy{MemoryEstimateMB: 9999}
	m := NewManager(a, policies, testPaths(), 500)

	_, err := m.EnsureLoaded(context.Background(), types.RoleCoder)
	if err == nil {
		t.Fatal("expected ResourceExhausted error")
	}
	if kind, _ := types.KindOf(err); kind != types.ErrResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", kind)
	}
	if len(a.LoadCalls) != 0 {
		t.Fatal("must never partially load on ResourceExhausted")
	}
}

func TestUnloadForbiddenOnAlwaysResident(t *testing.T) {
	a := engine.NewFakeAdapter()
	m := NewManager(a, testPolicies(), testPaths(), 1000)
	if _, err := m.EnsureLoaded(context.Background(), types.RoleRouter); err != nil {
		t.Fatal(err)
	}
	if err := m.Unload(context.Background(), types.RoleRouter); err == nil {
		t.Fatal("expected error unloading always-resident role")
	}
}

func TestUnloadIdempotent(t *testing.T) {
	a := engine.NewFakeAdapter()
	m := NewManager(a, testPolicies(), testPaths(), 1000)
	if _, err := m.EnsureLoaded(context.Background(), types.RoleCoder); err != nil {
		t.Fatal(err)
	}
	if err := m.Unload(context.Background(), types.RoleCoder); err != nil {
		t.Fatal(err)
	}
	if err := m.Unload(context.Background(), types.RoleCoder); err != nil {
		t.Fatalf("second unload must be a no-op, got %v", err)
	}
}

func TestShutdownIgnoresAlwaysResident(t *testing.T) {
	a := engine.NewFakeAdapter()
	m := NewManager(a, testPolicies(), testPaths(), 1000)
	if _, err := m.EnsureLoaded(context.Background(), types.RoleRouter); err != nil {
		t.Fatal(err)
	}
	m.Shutdown(context.Background())
	if m.RouterResident() {
		t.Fatal("shutdown must unload the router too")
	}
	if !m.IsShutdown() {
		t.Fatal("expected IsShutdown true after Shutdown")
	}
}
