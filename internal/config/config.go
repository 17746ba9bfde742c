// Package config is the typed Configuration Surface of spec.md §6. Loading
// a config FILE is out of scope for this core (spec.md §1): Load only
// reads environment variables (after a best-effort godotenv.Load of a
// local .env, the teacher's own pattern) and returns an already-assembled
// Config value.
package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"

	"github.com/localcoder/nanocore/internal/types"
)

// ModelConfig mirrors the per-role recognized keys: models.<role>.path,
// .contextSize, .maxTokens, .memoryEstimateMB, .alwaysResident,
// .idleEvictAfterSec, .temperature.
type ModelConfig struct {
	Path              string
	ContextSize       int
	MaxTokens         int
	MemoryEstimateMB  int
	AlwaysResident    bool
	IdleEvictAfterSec int
	Temperature       float64
}

// Config is the full recognized configuration surface.
type Config struct {
	Models                map[types.Role]ModelConfig
	MemoryBudgetMB        int
	WorkspaceDir          string
	RequireConfirmation   bool
	GenerationTimeoutSec  int
	AllowShell            bool
}

// defaults mirrors the defaults the source's model profiles use for a
// CPU-first machine: a small always-resident router, larger on-demand
// coder/algorithm specialists evicted under budget pressure.
func defaults() Config {
	return Config{
		Models: map[types.Role]ModelConfig{
			types.RoleRouter: {
				AlwaysResident: true, ContextSize: 4096, MaxTokens: 256,
				MemoryEstimateMB: 600, Temperature: 0.1,
			},
			types.RoleCoder: {
				ContextSize: 8192, MaxTokens: 2048, MemoryEstimateMB: 4500, Temperature: 0.2,
			},
			types.RoleAlgorithm: {
				ContextSize: 8192, MaxTokens: 2048, MemoryEstimateMB: 4500, Temperature: 0.3,
			},
		},
		MemoryBudgetMB:       6000,
		WorkspaceDir:         "",
		RequireConfirmation:  true,
		GenerationTimeoutSec: 300,
		AllowShell:           true,
	}
}

// Load assembles a Config from environment variables, falling back to
// defaults() for anything unset. It loads a local .env first (ignoring a
// missing file — godotenv.Load's own convention).
func Load() Config {
	_ = godotenv.Load(".env")

	cfg := defaults()

	if v := os.Getenv("NANOCORE_MEMORY_BUDGET_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.MemoryBudgetMB = n
		}
	}
	if v := os.Getenv("NANOCORE_WORKSPACE"); v != "" {
		cfg.WorkspaceDir = v
	}
	if v := os.Getenv("NANOCORE_REQUIRE_CONFIRMATION"); v != "" {
		cfg.RequireConfirmation = v != "false" && v != "0"
	}
	if v := os.Getenv("NANOCORE_GENERATION_TIMEOUT_SEC"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.GenerationTimeoutSec = n
		}
	}
	if v := os.Getenv("NANOCORE_ALLOW_SHELL"); v != "" {
		cfg.AllowShell = v != "false" && v != "0"
	}

	applyModelOverrides(&cfg, types.RoleRouter, "ROUTER")
	applyModelOverrides(&cfg, types.RoleCoder, "CODER")
	applyModelOverrides(&cfg, types.RoleAlgorithm, "ALGORITHM")

	return cfg
}

// applyModelOverrides reads NANOCORE_MODEL_<PREFIX>_* overrides for role
// into cfg.Models[role], leaving defaults() untouched for anything unset.
func applyModelOverrides(cfg *Config, role types.Role, prefix string) {
	mc := cfg.Models[role]
	if v := os.Getenv("NANOCORE_MODEL_" + prefix + "_PATH"); v != "" {
		mc.Path = v
	}
	if v := os.Getenv("NANOCORE_MODEL_" + prefix + "_CONTEXT_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			mc.ContextSize = n
		}
	}
	if v := os.Getenv("NANOCORE_MODEL_" + prefix + "_MAX_TOKENS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			mc.MaxTokens = n
		}
	}
	if v := os.Getenv("NANOCORE_MODEL_" + prefix + "_MEMORY_MB"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			mc.MemoryEstimateMB = n
		}
	}
	if v := os.Getenv("NANOCORE_MODEL_" + prefix + "_TEMPERATURE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			mc.Temperature = f
		}
	}
	cfg.Models[role] = mc
}

// Policies converts cfg's model configs into the map lifecycle.NewManager
// expects.
func (c Config) Policies() map[types.Role]types.Policy {
	out := make(map[types.Role]types.Policy, len(c.Models))
	for role, mc := range c.Models {
		out[role] = types.Policy{
			AlwaysResident:     mc.AlwaysResident,
			IdleEvictAfterSec:  mc.IdleEvictAfterSec,
			MemoryEstimateMB:   mc.MemoryEstimateMB,
			ContextSize:        mc.ContextSize,
			MaxTokens:          mc.MaxTokens,
			DefaultTemperature: mc.Temperature,
		}
	}
	return out
}

// ModelPaths converts cfg's model configs into the map lifecycle.NewManager
// expects.
func (c Config) ModelPaths() map[types.Role]string {
	out := make(map[types.Role]string, len(c.Models))
	for role, mc := range c.Models {
		out[role] = mc.Path
	}
	return out
}
