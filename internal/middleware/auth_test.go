package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"

	"auth-api-template/internal/auth/service"
	"auth-api-template/internal/security"
)

type fakeVerifier struct {
	claims *security.Claims
	err    error
	gotTok string
}

func (f *fakeVerifier) VerifyToken(ctx context.Context, token string, expectedKind security.TokenKind) (*security.Claims, error) {
	f.gotTok = token
	if f.err != nil {
		return nil, f.err
	}
	return f.claims, nil
}

func newAuthRouter(v TokenVerifier) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/protected", RequireAuth(v), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"user_id": c.GetString(CtxUserID),
			"role":    c.GetString(CtxUserRole),
			"token":   c.GetString(CtxAccessToken),
		})
	})
	return r
}

func TestRequireAuth_ValidToken(t *testing.T) {
	v := &fakeVerifier{claims: &security.Claims{Email: "alice@test.com", Role: "user"}}
	v.claims.Subject = "u1"
	r := newAuthRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok-123")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body %s)", w.Code, w.Body.String())
	}
	if v.gotTok != "tok-123" {
		t.Errorf("verifier got token %q, want tok-123", v.gotTok)
	}
}

func TestRequireAuth_MissingHeader(t *testing.T) {
	r := newAuthRouter(&fakeVerifier{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_RejectedToken(t *testing.T) {
	v := &fakeVerifier{err: service.ErrUnauthorized}
	r := newAuthRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer bad")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_StoreFailureIsServerError(t *testing.T) {
	v := &fakeVerifier{err: errors.New("redis: connection refused")}
	r := newAuthRouter(v)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", w.Code)
	}
}

func TestBearerToken(t *testing.T) {
	cases := []struct {
		header string
		want   string
	}{
		{"Bearer abc", "abc"},
		{"bearer abc", "abc"},
		{"Bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := bearerToken(tc.header); got != tc.want {
			t.Errorf("bearerToken(%q) = %q, want %q", tc.header, got, tc.want)
		}
	}
}
