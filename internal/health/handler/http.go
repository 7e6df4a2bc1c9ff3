// Package handler serves the readiness endpoint.
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Check pings one dependency. A nil error means healthy.
type Check func(ctx context.Context) error

// Server answers GET /health by pinging each registered dependency.
type Server struct {
	checks map[string]Check
}

// NewServer returns a health server over the named dependency checks.
func NewServer(checks map[string]Check) *Server {
	return &Server{checks: checks}
}

// RegisterRoutes mounts the health route.
func (s *Server) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", s.health)
}

func (s *Server) health(c *gin.Context) {
	deps := make(map[string]string, len(s.checks))
	healthy := true
	for name, check := range s.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		err := check(ctx)
		cancel()
		if err != nil {
			deps[name] = err.Error()
			healthy = false
			continue
		}
		deps[name] = "ok"
	}

	status := http.StatusOK
	state := "ok"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "degraded"
	}
	c.JSON(status, gin.H{"status": state, "dependencies": deps})
}
