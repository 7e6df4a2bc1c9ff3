// Package service implements the authentication/session lifecycle: issuance,
// rotation, revocation, and multi-device tracking of access/refresh token
// pairs.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"

	"auth-api-template/internal/logger"
	"auth-api-template/internal/security"
	"auth-api-template/internal/tokenstore"
	"auth-api-template/internal/user/domain"
)

// Sentinel errors for the auth service; the HTTP handler maps them to status
// codes. Expired, malformed, wrong-kind, and revoked tokens all surface as
// ErrUnauthorized: the distinction is logged but deliberately not leaked to
// callers. Store and database failures are returned as-is so the transport
// layer can answer 5xx instead of telling a legitimate user their session is
// invalid.
var (
	ErrEmailAlreadyRegistered = errors.New("email already registered")
	ErrInvalidCredentials     = errors.New("invalid email or password")
	ErrInvalidEmail           = errors.New("invalid email")
	ErrUnauthorized           = errors.New("unauthorized")
	ErrUserNotFound           = errors.New("user not found")
	ErrWeakPassword           = errors.New("password does not meet strength requirements")
)

// UserRepo is the minimal user repository needed by the auth service.
// Missing users are (nil, nil); errors are store failures.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Create(ctx context.Context, u *domain.User) error
}

// TokenPair is an access/refresh pair issued together. ExpiresAt is the access
// token's expiry.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthResult holds the outcome of Register or Login.
type AuthResult struct {
	Tokens TokenPair
	User   domain.PublicUser
}

// AuthService orchestrates login, registration, refresh, and logout on top of
// the user repository, password hasher, token provider, and token store. It is
// the sole writer of refresh sets and blacklist entries; the store itself
// carries no session logic.
type AuthService struct {
	users  UserRepo
	hasher *security.Hasher
	tokens *security.TokenProvider
	store  tokenstore.Store
	log    *logger.Logger
}

// NewAuthService returns an AuthService with the given dependencies.
func NewAuthService(users UserRepo, hasher *security.Hasher, tokens *security.TokenProvider, store tokenstore.Store, log *logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		hasher: hasher,
		tokens: tokens,
		store:  store,
		log:    log,
	}
}

// Register creates a user with the given email and password and signs them in,
// returning a fresh token pair. Fails with ErrEmailAlreadyRegistered when the
// normalized email exists and ErrWeakPassword (wrapping every violated rule)
// when the password is too weak.
func (s *AuthService) Register(ctx context.Context, email, password, name string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if err := validateEmail(email); err != nil {
		return nil, err
	}
	if violations := security.ValidateStrength(password); len(violations) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrWeakPassword, strings.Join(violations, "; "))
	}

	existing, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrEmailAlreadyRegistered
	}

	hash, err := s.hasher.Hash([]byte(password))
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		Role:         domain.RoleUser,
		Active:       true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := user.Validate(); err != nil {
		return nil, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.log.Info("user registered", "user_id", user.ID)
	return &AuthResult{Tokens: *pair, User: user.Public()}, nil
}

// Login authenticates with email/password and returns a fresh token pair.
// An unknown email and a wrong password fail with the same
// ErrInvalidCredentials so callers cannot enumerate accounts.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return nil, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		s.log.Debug("login rejected: unknown or inactive account")
		return nil, ErrInvalidCredentials
	}
	if err := s.hasher.Compare(user.PasswordHash, []byte(password)); err != nil {
		s.log.Debug("login rejected: password mismatch", "user_id", user.ID)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issuePair(ctx, user)
	if err != nil {
		return nil, err
	}
	s.cleanupRefreshSet(ctx, user.ID)
	s.log.Info("user logged in", "user_id", user.ID)
	return &AuthResult{Tokens: *pair, User: user.Public()}, nil
}

// VerifyToken cryptographically verifies the token, checks its kind claim
// against expectedKind, and rejects blacklisted tokens. This is the single
// choke point protected-route checks call through. Returns the claims on
// success and ErrUnauthorized on any verification failure; store failures
// propagate unchanged.
func (s *AuthService) VerifyToken(ctx context.Context, token string, expectedKind security.TokenKind) (*security.Claims, error) {
	claims, err := s.tokens.Verify(token, expectedKind)
	if err != nil {
		s.log.Debug("token rejected", "reason", err.Error(), "token_prefix", tokenPrefix(token))
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	revoked, err := s.store.Get(ctx, tokenstore.BlacklistKey(token))
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked != "" {
		s.log.Debug("token rejected: revoked", "user_id", claims.Subject, "token_prefix", tokenPrefix(token))
		return nil, fmt.Errorf("%w: token revoked", ErrUnauthorized)
	}
	return claims, nil
}

// Refresh verifies the refresh token, requires it to still be a member of the
// user's refresh set, and rotates it: the old token is atomically swapped for
// a newly minted one. A token that was already rotated out or revoked fails
// closed with ErrUnauthorized.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.VerifyToken(ctx, refreshToken, security.TokenKindRefresh)
	if err != nil {
		return nil, err
	}
	userID := claims.Subject

	access, expiresAt, err := s.tokens.IssueAccess(userID, claims.Email, claims.Role)
	if err != nil {
		return nil, err
	}
	newRefresh, _, err := s.tokens.IssueRefresh(userID, claims.Email, claims.Role)
	if err != nil {
		return nil, err
	}

	rotated, err := s.store.ReplaceInSet(ctx, tokenstore.RefreshSetKey(userID), refreshToken, newRefresh, s.tokens.RefreshTTL())
	if err != nil {
		return nil, fmt.Errorf("rotate refresh token: %w", err)
	}
	if !rotated {
		s.log.Warn("refresh rejected: token not in refresh set", "user_id", userID, "token_prefix", tokenPrefix(refreshToken))
		return nil, fmt.Errorf("%w: refresh token no longer valid", ErrUnauthorized)
	}

	s.cleanupRefreshSet(ctx, userID)
	s.log.Info("tokens refreshed", "user_id", userID)
	return &TokenPair{AccessToken: access, RefreshToken: newRefresh, ExpiresAt: expiresAt}, nil
}

// Logout ends a single session. The refresh token, when given, is removed from
// the user's refresh set; both given tokens are blacklisted for their remaining
// lifetime so they cannot be reused before natural expiry. Tokens already past
// expiry are skipped.
func (s *AuthService) Logout(ctx context.Context, userID, accessToken, refreshToken string) error {
	if refreshToken != "" {
		if err := s.store.RemoveFromSet(ctx, tokenstore.RefreshSetKey(userID), refreshToken); err != nil {
			return fmt.Errorf("remove refresh token: %w", err)
		}
	}
	for _, token := range []string{accessToken, refreshToken} {
		if token == "" {
			continue
		}
		if err := s.blacklist(ctx, token); err != nil {
			return err
		}
	}
	s.log.Info("user logged out", "user_id", userID)
	return nil
}

// LogoutAllDevices revokes every session of the user: each member of the
// refresh set is blacklisted for its remaining lifetime, then the set is
// deleted. O(active sessions); acceptable since logout-everywhere is rare.
func (s *AuthService) LogoutAllDevices(ctx context.Context, userID string) error {
	key := tokenstore.RefreshSetKey(userID)
	members, err := s.store.GetSet(ctx, key)
	if err != nil {
		return fmt.Errorf("list refresh tokens: %w", err)
	}
	for _, member := range members {
		if err := s.blacklist(ctx, member); err != nil {
			return err
		}
	}
	if err := s.store.Del(ctx, key); err != nil {
		return fmt.Errorf("clear refresh set: %w", err)
	}
	s.log.Info("all sessions revoked", "user_id", userID, "sessions", len(members))
	return nil
}

// GetUser returns the user for id. Used outside the hot auth path (e.g. the
// current-user route). Fails with ErrUserNotFound for missing ids.
func (s *AuthService) GetUser(ctx context.Context, id string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}
	return user, nil
}

// issuePair mints an access/refresh pair and records the refresh token in the
// user's refresh set with TTL equal to the refresh token's lifetime.
func (s *AuthService) issuePair(ctx context.Context, user *domain.User) (*TokenPair, error) {
	access, expiresAt, err := s.tokens.IssueAccess(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, err
	}
	refresh, _, err := s.tokens.IssueRefresh(user.ID, user.Email, user.Role.String())
	if err != nil {
		return nil, err
	}
	if err := s.store.AddToSet(ctx, tokenstore.RefreshSetKey(user.ID), refresh, s.tokens.RefreshTTL()); err != nil {
		return nil, fmt.Errorf("record refresh token: %w", err)
	}
	return &TokenPair{AccessToken: access, RefreshToken: refresh, ExpiresAt: expiresAt}, nil
}

// blacklist marks the token revoked for its remaining lifetime. Decode is
// non-verifying: only the expiry is read. Unparseable or already-expired
// tokens are skipped.
func (s *AuthService) blacklist(ctx context.Context, token string) error {
	claims := s.tokens.Decode(token)
	if claims == nil || claims.ExpiresAt == nil {
		return nil
	}
	remaining := time.Until(claims.ExpiresAt.Time)
	if remaining <= 0 {
		return nil
	}
	if err := s.store.Set(ctx, tokenstore.BlacklistKey(token), "revoked", remaining); err != nil {
		return fmt.Errorf("blacklist token: %w", err)
	}
	return nil
}

// cleanupRefreshSet opportunistically sweeps expired members. Best-effort:
// failures are logged, never surfaced.
func (s *AuthService) cleanupRefreshSet(ctx context.Context, userID string) {
	if err := s.store.CleanupExpiredTokens(ctx, userID); err != nil {
		s.log.Warn("refresh set cleanup failed", "user_id", userID, "error", err.Error())
	}
}

// tokenPrefix returns a short, log-safe prefix of a token.
func tokenPrefix(token string) string {
	if len(token) <= 12 {
		return token
	}
	return token[:12]
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}

var emailPattern = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

func validateEmail(email string) error {
	if email == "" {
		return fmt.Errorf("%w: email is required", ErrInvalidEmail)
	}
	if !emailPattern.MatchString(email) {
		return fmt.Errorf("%w: malformed address", ErrInvalidEmail)
	}
	return nil
}
