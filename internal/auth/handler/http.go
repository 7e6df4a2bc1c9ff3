// Package handler exposes the auth service over HTTP.
package handler

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"auth-api-template/internal/auth/service"
	"auth-api-template/internal/logger"
	"auth-api-template/internal/middleware"
	"auth-api-template/internal/user/domain"
)

// Service is the auth surface the HTTP layer needs.
type Service interface {
	Register(ctx context.Context, email, password, name string) (*service.AuthResult, error)
	Login(ctx context.Context, email, password string) (*service.AuthResult, error)
	Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	Logout(ctx context.Context, userID, accessToken, refreshToken string) error
	LogoutAllDevices(ctx context.Context, userID string) error
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// Handler serves the /auth routes.
type Handler struct {
	svc Service
	log *logger.Logger
}

// NewHandler returns an auth HTTP handler.
func NewHandler(svc Service, log *logger.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// RegisterRoutes mounts the auth routes. requireAuth gates the routes that
// need an authenticated caller.
func (h *Handler) RegisterRoutes(r *gin.Engine, requireAuth gin.HandlerFunc) {
	grp := r.Group("/auth")
	grp.POST("/register", h.register)
	grp.POST("/login", h.login)
	grp.POST("/refresh", h.refresh)

	authed := grp.Group("", requireAuth)
	authed.POST("/logout", h.logout)
	authed.POST("/logout-all", h.logoutAll)
	authed.GET("/me", h.me)
}

type registerRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Name     string `json:"name"`
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// logoutRequest carries the optional refresh token to revoke alongside the
// presented access token.
type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
}

type authResponse struct {
	tokenResponse
	User domain.PublicUser `json:"user"`
}

func newAuthResponse(res *service.AuthResult) authResponse {
	return authResponse{
		tokenResponse: tokenResponse{
			AccessToken:  res.Tokens.AccessToken,
			RefreshToken: res.Tokens.RefreshToken,
			ExpiresAt:    res.Tokens.ExpiresAt,
		},
		User: res.User,
	}
}

func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	res, err := h.svc.Register(c.Request.Context(), req.Email, req.Password, req.Name)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newAuthResponse(res))
}

func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email and password are required"})
		return
	}

	res, err := h.svc.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newAuthResponse(res))
}

func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "refresh_token is required"})
		return
	}

	pair, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    pair.ExpiresAt,
	})
}

func (h *Handler) logout(c *gin.Context) {
	// Body is optional; absence means only the access token is revoked.
	var req logoutRequest
	_ = c.ShouldBindJSON(&req)

	userID := c.GetString(middleware.CtxUserID)
	accessToken := c.GetString(middleware.CtxAccessToken)

	if err := h.svc.Logout(c.Request.Context(), userID, accessToken, req.RefreshToken); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) logoutAll(c *gin.Context) {
	userID := c.GetString(middleware.CtxUserID)
	if err := h.svc.LogoutAllDevices(c.Request.Context(), userID); err != nil {
		h.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) me(c *gin.Context) {
	user, err := h.svc.GetUser(c.Request.Context(), c.GetString(middleware.CtxUserID))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, user.Public())
}

// writeError maps service sentinel errors to HTTP statuses. Anything
// unrecognized is an infrastructure failure: logged with detail, answered as
// an opaque 500.
func (h *Handler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrWeakPassword),
		errors.Is(err, service.ErrInvalidEmail):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrEmailAlreadyRegistered):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrUnauthorized):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	case errors.Is(err, service.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		h.log.Error("request failed", "method", c.Request.Method, "path", c.FullPath(), "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
