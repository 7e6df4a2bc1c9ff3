// Package middleware holds gin middleware shared across route groups.
package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"auth-api-template/internal/auth/service"
	"auth-api-template/internal/security"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	CtxUserID      = "userID"
	CtxUserEmail   = "userEmail"
	CtxUserRole    = "userRole"
	CtxAccessToken = "accessToken"
)

// TokenVerifier verifies a bearer token of the expected kind and returns its
// claims.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string, expectedKind security.TokenKind) (*security.Claims, error)
}

// RequireAuth gates a route group behind a valid access token. The raw token
// is kept in the context so logout can blacklist the exact credential that was
// presented. Verification failures answer 401; a failing token store answers
// 500 so a healthy session is never reported as invalid.
func RequireAuth(verifier TokenVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c.GetHeader("Authorization"))
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		claims, err := verifier.VerifyToken(c.Request.Context(), token, security.TokenKindAccess)
		if err != nil {
			if errors.Is(err, service.ErrUnauthorized) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxUserEmail, claims.Email)
		c.Set(CtxUserRole, claims.Role)
		c.Set(CtxAccessToken, token)
		c.Next()
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header; empty string when the header is absent or not a bearer scheme.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}
