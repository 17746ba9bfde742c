// Package lifecycle owns the budget-enforcing, LRU-evicting cache of loaded
// inference engines the spec calls the Model Lifecycle Manager. It is the
// one place in the codebase allowed to call engine.Adapter.Load/Unload.
//
// A generic capacity-bounded LRU (hashicorp/golang-lru and friends) does not
// fit here: eviction is driven by a megabyte budget rather than an item
// count, and always-resident roles must never be evicted regardless of
// recency. container/list gives the same LRU ordering without forcing a
// count-based capacity onto a budget-based policy.
package lifecycle

import (
	"container/list"
	"context"
	"log"
	"sync"
	"time"

	"github.com/localcoder/nanocore/internal/engine"
	"github.com/localcoder/nanocore/internal/types"
)

// LoadedEngine is an opaque handle paired with the bookkeeping the Manager
// needs to schedule eviction.
type LoadedEngine struct {
	Role        types.Role
	ModelPath   string
	LoadedAt    time.Time
	LastUsedAt  time.Time
	EstimatedMB int
	Handle      engine.Handle
}

// Manager owns loaded: Map<Role, LoadedEngine>, the static per-role
// policies, and the configured megabyte budget.
type Manager struct {
	adapter    engine.Adapter
	policies   map[types.Role]types.Policy
	modelPaths map[types.Role]string
	budgetMB   int

	mu     sync.Mutex
	loaded map[types.Role]*list.Element // Value is *LoadedEngine; list order is LRU (front = least recent)
	lru    *list.List

	roleMu sync.Mutex
	roleLk map[types.Role]*sync.Mutex // per-role lock so concurrent EnsureLoaded(role) share one load

	shutdown bool
}

// NewManager builds a Manager. modelPaths supplies the on-disk path for each
// role Load will be called with.
func NewManager(adapter engine.Adapter, policies map[types.Role]types.Policy, modelPaths map[types.Role]string, budgetMB int) *Manager {
	return &Manager{
		adapter:    adapter,
		policies:   policies,
		modelPaths: modelPaths,
		budgetMB:   budgetMB,
		loaded:     make(map[types.Role]*list.Element),
		lru:        list.New(),
		roleLk:     make(map[types.Role]*sync.Mutex),
	}
}

func (m *Manager) roleLock(role types.Role) *sync.Mutex {
	m.roleMu.Lock()
	defer m.roleMu.Unlock()
	if l, ok := m.roleLk[role]; ok {
		return l
	}
	l := &sync.Mutex{}
	m.roleLk[role] = l
	return l
}

// EnsureLoaded returns the LoadedEngine for role, loading it on demand.
// Concurrent callers for the same role serialize behind a per-role lock and
// share the result of whichever call actually loads it; callers for
// different roles proceed independently.
func (m *Manager) EnsureLoaded(ctx context.Context, role types.Role) (*LoadedEngine, error) {
	rl := m.roleLock(role)
	rl.Lock()
	defer rl.Unlock()

	if le := m.lookup(role); le != nil {
		return le, nil
	}

	policy, ok := m.policies[role]
	if !ok {
		return nil, types.NewError(types.ErrNotFound, "no policy registered for role %s", role)
	}
	path, ok := m.modelPaths[role]
	if !ok || path == "" {
		return nil, types.NewError(types.ErrNotFound, "no model path configured for role %s", role)
	}

	m.mu.Lock()
	if err := m.enforceBudgetLocked(ctx, policy.MemoryEstimateMB); err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.mu.Unlock()

	// Lock released around the blocking load so other roles' lookups are
	// never starved by one role's inference-engine startup.
	handle, err := m.adapter.Load(ctx, path, engine.LoadOptions{
		ContextSize: policy.ContextSize,
		MaxTokens:   policy.MaxTokens,
	})
	if err != nil {
		return nil, types.WrapError(types.ErrNotFound, err, "load model for role %s", role)
	}

	now := time.Now()
	le := &LoadedEngine{
		Role:        role,
		ModelPath:   path,
		LoadedAt:    now,
		LastUsedAt:  now,
		EstimatedMB: policy.MemoryEstimateMB,
		Handle:      handle,
	}

	m.mu.Lock()
	el := m.lru.PushBack(le)
	m.loaded[role] = el
	m.mu.Unlock()

	log.Printf("[LIFECYCLE] loaded role=%s path=%s estimatedMB=%d", role, path, le.EstimatedMB)
	return le, nil
}

// lookup returns the currently loaded engine for role, bumping its
// recency, or nil if not loaded.
func (m *Manager) lookup(role types.Role) *LoadedEngine {
	m.mu.Lock()
	defer m.mu.Unlock()
	el, ok := m.loaded[role]
	if !ok {
		return nil
	}
	le := el.Value.(*LoadedEngine)
	le.LastUsedAt = time.Now()
	m.lru.MoveToBack(el)
	return le
}

// enforceBudgetLocked implements the eviction policy described in §4.1:
// evict least-recently-used, non-resident roles until the budget holds, or
// fail with ResourceExhausted without partially loading anything. Callers
// must hold m.mu.
func (m *Manager) enforceBudgetLocked(ctx context.Context, needMB int) error {
	if m.totalLoadedLocked()+needMB <= m.budgetMB {
		return nil
	}

	for el := m.lru.Front(); el != nil; {
		next := el.Next()
		le := el.Value.(*LoadedEngine)
		if m.policies[le.Role].AlwaysResident {
			el = next
			continue
		}
		m.lru.Remove(el)
		delete(m.loaded, le.Role)
		m.mu.Unlock()
		if err := m.adapter.Unload(ctx, le.Handle); err != nil {
			log.Printf("[LIFECYCLE] evict role=%s: unload error: %v", le.Role, err)
		}
		m.mu.Lock()
		log.Printf("[LIFECYCLE] evicted role=%s to free %dMB", le.Role, le.EstimatedMB)
		if m.totalLoadedLocked()+needMB <= m.budgetMB {
			return nil
		}
		el = m.lru.Front()
	}

	if m.totalLoadedLocked()+needMB <= m.budgetMB {
		return nil
	}
	return types.NewError(types.ErrResourceExhausted, "need %dMB, budget %dMB, %dMB resident and unevictable", needMB, m.budgetMB, m.totalLoadedLocked())
}

func (m *Manager) totalLoadedLocked() int {
	total := 0
	for el := m.lru.Front(); el != nil; el = el.Next() {
		total += el.Value.(*LoadedEngine).EstimatedMB
	}
	return total
}

// Unload is idempotent and forbidden on always-resident roles: it always
// returns an error for those, never silently succeeding.
func (m *Manager) Unload(ctx context.Context, role types.Role) error {
	m.mu.Lock()
	el, ok := m.loaded[role]
	if !ok {
		m.mu.Unlock()
		return nil
	}
	le := el.Value.(*LoadedEngine)
	if m.policies[role].AlwaysResident {
		m.mu.Unlock()
		return types.NewError(types.ErrForbidden, "role %s is always-resident and may not be unloaded", role)
	}
	m.lru.Remove(el)
	delete(m.loaded, role)
	m.mu.Unlock()

	if err := m.adapter.Unload(ctx, le.Handle); err != nil {
		return types.WrapError(types.ErrSubprocessFailed, err, "unload role %s", role)
	}
	return nil
}

// MemoryUsage reports the current footprint.
type MemoryUsage struct {
	TotalMB int
	PerRole map[types.Role]int
}

func (m *Manager) MemoryUsage() MemoryUsage {
	m.mu.Lock()
	defer m.mu.Unlock()
	u := MemoryUsage{PerRole: make(map[types.Role]int)}
	for el := m.lru.Front(); el != nil; el = el.Next() {
		le := el.Value.(*LoadedEngine)
		u.PerRole[le.Role] = le.EstimatedMB
		u.TotalMB += le.EstimatedMB
	}
	return u
}

// Shutdown unloads everything, ignoring the always-resident restriction.
func (m *Manager) Shutdown(ctx context.Context) {
	m.mu.Lock()
	var all []*LoadedEngine
	for el := m.lru.Front(); el != nil; el = el.Next() {
		all = append(all, el.Value.(*LoadedEngine))
	}
	m.loaded = make(map[types.Role]*list.Element)
	m.lru = list.New()
	m.shutdown = true
	m.mu.Unlock()

	for _, le := range all {
		if err := m.adapter.Unload(ctx, le.Handle); err != nil {
			log.Printf("[LIFECYCLE] shutdown: unload role=%s error: %v", le.Role, err)
		}
	}
}

// IsShutdown reports whether Shutdown has been called.
func (m *Manager) IsShutdown() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.shutdown
}

// RouterResident reports whether RoleRouter currently holds a loaded
// engine. Invariant 2 (§8) requires this to be true whenever the manager is
// not shut down.
func (m *Manager) RouterResident() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loaded[types.RoleRouter]
	return ok
}

// PolicyFor returns the static policy registered for role. Callers that
// need a role's context size or default temperature (the Router building
// a Tier A prompt, the Orchestrator sizing a generation request) read it
// here rather than duplicating the policy table.
func (m *Manager) PolicyFor(role types.Role) types.Policy {
	return m.policies[role]
}

// IsLoaded reports whether role currently has a resident engine, without
// bumping its recency the way EnsureLoaded/lookup would.
func (m *Manager) IsLoaded(role types.Role) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.loaded[role]
	return ok
}
