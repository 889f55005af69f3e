package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sort"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stemsi/qbank-backend/internal/response"
)

const healthCheckTimeout = 2 * time.Second

// Check probes one dependency; nil means healthy.
type Check func(ctx context.Context) error

// SystemHandler reports liveness of the API and its dependencies.
type SystemHandler struct {
	startTime  time.Time
	checks     map[string]Check
	queueDepth func(ctx context.Context) (int64, error)
}

// NewSystemHandler creates a SystemHandler. queueDepth may be nil.
func NewSystemHandler(checks map[string]Check, queueDepth func(ctx context.Context) (int64, error)) *SystemHandler {
	return &SystemHandler{
		startTime:  time.Now(),
		checks:     checks,
		queueDepth: queueDepth,
	}
}

// Health godoc
// GET /health
// Answers 503 when any dependency check fails.
func (h *SystemHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthCheckTimeout)
	defer cancel()

	names := make([]string, 0, len(h.checks))
	for name := range h.checks {
		names = append(names, name)
	}
	sort.Strings(names)

	status := "ok"
	results := make(gin.H, len(names))
	for _, name := range names {
		if err := h.checks[name](ctx); err != nil {
			status = "degraded"
			results[name] = err.Error()
			continue
		}
		results[name] = "ok"
	}

	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	c.JSON(code, gin.H{
		"success": status == "ok",
		"status":  status,
		"checks":  results,
		"uptime":  formatDuration(time.Since(h.startTime)),
	})
}

type runtimeStats struct {
	Uptime          string `json:"uptime"`
	GoVersion       string `json:"go_version"`
	NumCPU          int    `json:"num_cpu"`
	Goroutines      int    `json:"goroutines"`
	HeapAlloc       uint64 `json:"heap_alloc_bytes"`
	HeapSys         uint64 `json:"heap_sys_bytes"`
	NumGC           uint32 `json:"num_gc"`
	UsageQueueDepth int64  `json:"usage_queue_depth"`
}

// RuntimeStats godoc
// GET /api/v1/admin/system
// Returns Go runtime figures and the pending usage-event backlog.
func (h *SystemHandler) RuntimeStats(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	stats := runtimeStats{
		Uptime:     formatDuration(time.Since(h.startTime)),
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.Sys,
		NumGC:      ms.NumGC,
	}
	if h.queueDepth != nil {
		if depth, err := h.queueDepth(c.Request.Context()); err == nil {
			stats.UsageQueueDepth = depth
		}
	}

	response.Success(c, http.StatusOK, stats)
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
