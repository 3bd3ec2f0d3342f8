// Package observability lets a binary watch planning and caching without the
// libraries depending on a metrics or tracing backend.
//
// The planner and the cache report events through the hooks returned by
// [Planner] and [Cache]. Both default to no-ops; a binary swaps in its own
// implementation once at startup, e.g. [NewLogHooks] for --verbose runs:
//
//	h := observability.NewLogHooks(logger)
//	observability.SetPlannerHooks(h)
//	observability.SetCacheHooks(h)
package observability

import (
	"context"
	"sync"
	"time"
)

// PlannerHooks receives planner events.
type PlannerHooks interface {
	OnPlanStart(ctx context.Context, copies int)
	OnPlanComplete(ctx context.Context, copies, steps int, duration time.Duration, err error)

	// OnStageSkipped records a stage that emitted nothing for a copy.
	// reason is one of "disabled", "identity", "invalid_scale", "sampling".
	OnStageSkipped(ctx context.Context, stage string, copy int, reason string)

	// OnExecuteComplete records a finished run against a geometry collaborator.
	OnExecuteComplete(ctx context.Context, bodies, applied int, duration time.Duration, err error)
}

// CacheHooks receives cache events. keyType names what is cached, e.g. "plan".
type CacheHooks interface {
	OnCacheHit(ctx context.Context, keyType string)
	OnCacheMiss(ctx context.Context, keyType string)
	OnCacheSet(ctx context.Context, keyType string, size int)
}

// NoopPlannerHooks ignores every event. Embed it to implement a subset.
type NoopPlannerHooks struct{}

func (NoopPlannerHooks) OnPlanStart(context.Context, int)                                  {}
func (NoopPlannerHooks) OnPlanComplete(context.Context, int, int, time.Duration, error)    {}
func (NoopPlannerHooks) OnStageSkipped(context.Context, string, int, string)               {}
func (NoopPlannerHooks) OnExecuteComplete(context.Context, int, int, time.Duration, error) {}

// NoopCacheHooks ignores every event. Embed it to implement a subset.
type NoopCacheHooks struct{}

func (NoopCacheHooks) OnCacheHit(context.Context, string)      {}
func (NoopCacheHooks) OnCacheMiss(context.Context, string)     {}
func (NoopCacheHooks) OnCacheSet(context.Context, string, int) {}

var (
	mu           sync.RWMutex
	plannerHooks PlannerHooks = NoopPlannerHooks{}
	cacheHooks   CacheHooks   = NoopCacheHooks{}
)

// SetPlannerHooks installs h. A nil h is ignored.
func SetPlannerHooks(h PlannerHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	plannerHooks = h
	mu.Unlock()
}

// SetCacheHooks installs h. A nil h is ignored.
func SetCacheHooks(h CacheHooks) {
	if h == nil {
		return
	}
	mu.Lock()
	cacheHooks = h
	mu.Unlock()
}

// Planner returns the installed planner hooks.
func Planner() PlannerHooks {
	mu.RLock()
	defer mu.RUnlock()
	return plannerHooks
}

// Cache returns the installed cache hooks.
func Cache() CacheHooks {
	mu.RLock()
	defer mu.RUnlock()
	return cacheHooks
}

// Reset reinstalls the no-op hooks.
func Reset() {
	mu.Lock()
	plannerHooks = NoopPlannerHooks{}
	cacheHooks = NoopCacheHooks{}
	mu.Unlock()
}
