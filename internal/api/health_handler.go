package api

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ignite/invoice-admin/internal/pkg/httputil"
)

// HealthStatus represents the overall health of the system.
type HealthStatus struct {
	Status string                    `json:"status"` // "healthy", "degraded", "unhealthy"
	Uptime string                    `json:"uptime"`
	Checks map[string]ComponentCheck `json:"checks"`
}

// ComponentCheck represents the health of a single component.
type ComponentCheck struct {
	Status  string `json:"status"` // "up", "down", "degraded", "not_configured"
	Latency string `json:"latency,omitempty"`
	Message string `json:"message,omitempty"`
}

// HealthChecker reports on the database and, when configured, Redis.
type HealthChecker struct {
	db          *sql.DB
	redisClient *redis.Client
	startTime   time.Time
}

// NewHealthChecker creates a new HealthChecker. redisClient may be nil.
func NewHealthChecker(db *sql.DB, redisClient *redis.Client) *HealthChecker {
	return &HealthChecker{db: db, redisClient: redisClient, startTime: time.Now()}
}

// HandleHealth returns the status of every component. The database is
// critical; Redis only degrades the service since the cache falls back.
// Responds 503 when unhealthy so it can back a readiness probe.
//
//	GET /health
func (hc *HealthChecker) HandleHealth(w http.ResponseWriter, r *http.Request) {
	checks := map[string]ComponentCheck{
		"database": hc.checkDatabase(r.Context()),
		"redis":    hc.checkRedis(r.Context()),
	}

	overall := "healthy"
	code := http.StatusOK
	switch {
	case checks["database"].Status == "down":
		overall = "unhealthy"
		code = http.StatusServiceUnavailable
	case checks["database"].Status == "degraded" || checks["redis"].Status == "down" || checks["redis"].Status == "degraded":
		overall = "degraded"
	}

	httputil.JSON(w, code, HealthStatus{
		Status: overall,
		Uptime: time.Since(hc.startTime).Truncate(time.Second).String(),
		Checks: checks,
	})
}

// checkDatabase pings PostgreSQL with a 3-second timeout.
func (hc *HealthChecker) checkDatabase(ctx context.Context) ComponentCheck {
	if hc.db == nil {
		return ComponentCheck{Status: "down", Message: "not configured"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.db.PingContext(pingCtx)
	return latencyCheck(time.Since(start), time.Second, err)
}

// checkRedis pings Redis with a 2-second timeout.
func (hc *HealthChecker) checkRedis(ctx context.Context) ComponentCheck {
	if hc.redisClient == nil {
		return ComponentCheck{Status: "not_configured", Message: "using in-memory cache"}
	}
	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	start := time.Now()
	err := hc.redisClient.Ping(pingCtx).Err()
	return latencyCheck(time.Since(start), 500*time.Millisecond, err)
}

func latencyCheck(latency, slow time.Duration, err error) ComponentCheck {
	if err != nil {
		// Connection errors may carry hosts; keep only the fact of failure.
		return ComponentCheck{Status: "down", Latency: latency.String(), Message: "ping failed"}
	}
	if latency > slow {
		return ComponentCheck{Status: "degraded", Latency: latency.String(), Message: fmt.Sprintf("slow response (%s)", latency)}
	}
	return ComponentCheck{Status: "up", Latency: latency.String(), Message: "connected"}
}
