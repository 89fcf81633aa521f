package health

import (
	"context"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

type ComponentStatus struct {
	Status    Status `json:"status"`
	LatencyMs int64  `json:"latency_ms"`
	Error     string `json:"error,omitempty"`
}

type RuntimeStats struct {
	Goroutines    int    `json:"goroutines"`
	MemoryAllocMB uint64 `json:"memory_alloc_mb"`
	MemorySysMB   uint64 `json:"memory_sys_mb"`
	NumGC         uint32 `json:"num_gc"`
}

type HealthResponse struct {
	Status        Status                     `json:"status"`
	Timestamp     time.Time                  `json:"timestamp"`
	Version       string                     `json:"version"`
	UptimeSeconds int64                      `json:"uptime_seconds"`
	Runtime       RuntimeStats               `json:"runtime"`
	Components    map[string]ComponentStatus `json:"components"`
}

// CheckFunc probes one external dependency. A non-nil error marks the
// component unhealthy.
type CheckFunc func(ctx context.Context) error

type Handler struct {
	db        *gorm.DB
	redis     *redis.Client
	extra     map[string]CheckFunc
	version   string
	startTime time.Time
}

func NewHandler(db *gorm.DB, redisClient *redis.Client, version string) *Handler {
	return &Handler{
		db:        db,
		redis:     redisClient,
		extra:     make(map[string]CheckFunc),
		version:   version,
		startTime: time.Now(),
	}
}

// AddCheck registers a provider probe under a component name. Not safe to
// call after the server starts serving.
func (h *Handler) AddCheck(name string, fn CheckFunc) {
	h.extra[name] = fn
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Liveness)
	e.GET("/health/ready", h.Readiness)
}

// Liveness godoc
// @Summary      Liveness probe
// @Tags         health
// @Produce      json
// @Success      200 {object} map[string]string
// @Router       /health [get]
func (h *Handler) Liveness(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Readiness godoc
// @Summary      Readiness probe with component checks
// @Tags         health
// @Produce      json
// @Success      200 {object} HealthResponse
// @Failure      503 {object} HealthResponse
// @Router       /health/ready [get]
func (h *Handler) Readiness(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	checks := map[string]CheckFunc{
		"database": h.checkDatabase,
		"redis":    h.checkRedis,
	}
	for name, fn := range h.extra {
		checks[name] = fn
	}

	components := make(map[string]ComponentStatus, len(checks))
	var mu sync.Mutex
	var wg sync.WaitGroup

	wg.Add(len(checks))
	for name, fn := range checks {
		go func(name string, fn CheckFunc) {
			defer wg.Done()
			status := runCheck(ctx, fn)
			mu.Lock()
			components[name] = status
			mu.Unlock()
		}(name, fn)
	}
	wg.Wait()

	overall := computeOverallStatus(components)

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	resp := HealthResponse{
		Status:        overall,
		Timestamp:     time.Now().UTC(),
		Version:       h.version,
		UptimeSeconds: int64(time.Since(h.startTime).Seconds()),
		Runtime: RuntimeStats{
			Goroutines:    runtime.NumGoroutine(),
			MemoryAllocMB: memStats.Alloc / 1024 / 1024,
			MemorySysMB:   memStats.Sys / 1024 / 1024,
			NumGC:         memStats.NumGC,
		},
		Components: components,
	}

	statusCode := http.StatusOK
	if overall == StatusUnhealthy {
		statusCode = http.StatusServiceUnavailable
	}
	return c.JSON(statusCode, resp)
}

func runCheck(ctx context.Context, fn CheckFunc) ComponentStatus {
	start := time.Now()
	if err := fn(ctx); err != nil {
		return ComponentStatus{
			Status:    StatusUnhealthy,
			LatencyMs: time.Since(start).Milliseconds(),
			Error:     err.Error(),
		}
	}
	return ComponentStatus{
		Status:    StatusHealthy,
		LatencyMs: time.Since(start).Milliseconds(),
	}
}

func (h *Handler) checkDatabase(ctx context.Context) error {
	if h.db == nil {
		return errNotConfigured("database")
	}
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func (h *Handler) checkRedis(ctx context.Context) error {
	if h.redis == nil {
		return errNotConfigured("redis")
	}
	return h.redis.Ping(ctx).Err()
}

// computeOverallStatus treats database and redis as critical; a provider
// outage degrades the service but the API can still serve stored data.
func computeOverallStatus(components map[string]ComponentStatus) Status {
	for _, name := range []string{"database", "redis"} {
		if status, ok := components[name]; ok && status.Status == StatusUnhealthy {
			return StatusUnhealthy
		}
	}

	for _, status := range components {
		if status.Status != StatusHealthy {
			return StatusDegraded
		}
	}
	return StatusHealthy
}

type errNotConfigured string

func (e errNotConfigured) Error() string {
	return string(e) + " not configured"
}
