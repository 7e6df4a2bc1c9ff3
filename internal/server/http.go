// Package server assembles the HTTP router from the feature handlers.
package server

import (
	"github.com/gin-gonic/gin"

	authhandler "auth-api-template/internal/auth/handler"
	"auth-api-template/internal/auth/service"
	healthhandler "auth-api-template/internal/health/handler"
	"auth-api-template/internal/logger"
	"auth-api-template/internal/middleware"
)

// Deps holds the dependencies the router needs.
type Deps struct {
	// Auth serves the /auth routes and backs the auth middleware.
	Auth *service.AuthService
	// HealthChecks are the named dependency pings behind GET /health.
	HealthChecks map[string]healthhandler.Check
	// Log is the application logger.
	Log *logger.Logger
}

// New builds the gin engine with every route registered.
//
// Route → handler mapping:
//   - /auth/*  → internal/auth/handler (logout, logout-all, me behind RequireAuth)
//   - /health  → internal/health/handler
func New(deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())

	requireAuth := middleware.RequireAuth(deps.Auth)
	authhandler.NewHandler(deps.Auth, deps.Log).RegisterRoutes(router, requireAuth)
	healthhandler.NewServer(deps.HealthChecks).RegisterRoutes(router)

	return router
}
