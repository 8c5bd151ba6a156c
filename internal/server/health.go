package server

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus is the body of the health endpoint.
type HealthStatus struct {
	Status    string                 `json:"status"`
	Version   string                 `json:"version"`
	Timestamp int64                  `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks"`
}

// CheckResult is the outcome of one health check.
type CheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
	Latency string `json:"latency,omitempty"`
}

// HealthCheck checks one dependency.
type HealthCheck func(ctx context.Context) error

const healthTimeout = 2 * time.Second

// healthHandler runs every check and reports 503 if any of them fails.
func healthHandler(version string, checks map[string]HealthCheck) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := HealthStatus{
			Status:    StatusHealthy,
			Version:   version,
			Timestamp: time.Now().Unix(),
			Checks:    make(map[string]CheckResult, len(checks)),
		}

		for name, check := range checks {
			ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
			start := time.Now()
			err := check(ctx)
			cancel()

			result := CheckResult{Status: StatusHealthy, Latency: time.Since(start).String()}
			if err != nil {
				result.Status = StatusUnhealthy
				result.Message = err.Error()
				status.Status = StatusUnhealthy
			}
			status.Checks[name] = result
		}

		code := http.StatusOK
		if status.Status != StatusHealthy {
			code = http.StatusServiceUnavailable
		}
		c.JSON(code, status)
	}
}
