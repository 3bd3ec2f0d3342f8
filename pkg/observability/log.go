package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks writes every planner and cache event to a logger at debug level.
type LogHooks struct {
	logger *log.Logger
}

var (
	_ PlannerHooks = (*LogHooks)(nil)
	_ CacheHooks   = (*LogHooks)(nil)
)

// NewLogHooks returns hooks logging to l.
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("hooks")}
}

func (h *LogHooks) OnPlanStart(_ context.Context, copies int) {
	h.logger.Debug("plan start", "copies", copies)
}

func (h *LogHooks) OnPlanComplete(_ context.Context, copies, steps int, d time.Duration, err error) {
	h.logger.Debug("plan complete", "copies", copies, "steps", steps, "duration", d, "err", err)
}

func (h *LogHooks) OnStageSkipped(_ context.Context, stage string, copy int, reason string) {
	h.logger.Debug("stage skipped", "stage", stage, "copy", copy, "reason", reason)
}

func (h *LogHooks) OnExecuteComplete(_ context.Context, bodies, applied int, d time.Duration, err error) {
	h.logger.Debug("execute complete", "bodies", bodies, "applied", applied, "duration", d, "err", err)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "type", keyType, "bytes", size)
}
