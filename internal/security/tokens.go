package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenKind distinguishes access tokens from refresh tokens. A token is only
// valid in the context that expects its kind.
type TokenKind string

const (
	TokenKindAccess  TokenKind = "access"
	TokenKindRefresh TokenKind = "refresh"
)

var (
	// ErrTokenMalformed is returned when a token's structure or signature is invalid.
	ErrTokenMalformed = errors.New("malformed token")
	// ErrTokenExpired is returned when a token is past its expiry.
	ErrTokenExpired = errors.New("token expired")
	// ErrWrongTokenKind is returned when a token's kind claim does not match the
	// verification context (e.g. a refresh token presented as an access token).
	ErrWrongTokenKind = errors.New("wrong token kind")
)

// Claims holds the JWT claims carried by both access and refresh tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email string    `json:"email"`
	Role  string    `json:"role"`
	Kind  TokenKind `json:"kind"`
}

// TokenProvider issues and validates HS256-signed access and refresh tokens
// using a shared secret.
type TokenProvider struct {
	secret     []byte
	issuer     string
	audience   string
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewTokenProvider returns a TokenProvider signing with the given shared secret.
// issuer and audience are set on claims and validated at parse time.
func NewTokenProvider(secret []byte, issuer, audience string, accessTTL, refreshTTL time.Duration) *TokenProvider {
	return &TokenProvider{
		secret:     secret,
		issuer:     issuer,
		audience:   audience,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// AccessTTL returns the configured access token lifetime.
func (p *TokenProvider) AccessTTL() time.Duration { return p.accessTTL }

// RefreshTTL returns the configured refresh token lifetime.
func (p *TokenProvider) RefreshTTL() time.Duration { return p.refreshTTL }

// IssueAccess issues a short-lived access token for the given user.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueAccess(userID, email, role string) (string, time.Time, error) {
	return p.issue(userID, email, role, TokenKindAccess, p.accessTTL)
}

// IssueRefresh issues a long-lived refresh token for the given user.
// Returns the token string and its expiration time.
func (p *TokenProvider) IssueRefresh(userID, email, role string) (string, time.Time, error) {
	return p.issue(userID, email, role, TokenKindRefresh, p.refreshTTL)
}

func (p *TokenProvider) issue(userID, email, role string, kind TokenKind, ttl time.Duration) (string, time.Time, error) {
	now := time.Now().UTC()
	expiresAt := now.Add(ttl)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   userID,
			Issuer:    p.issuer,
			Audience:  jwt.ClaimStrings{p.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Email: email,
		Role:  role,
		Kind:  kind,
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(p.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Verify parses and validates the token (signature, exp, iss, aud) and checks
// that its kind claim matches expectedKind. Returns ErrTokenExpired for expired
// tokens, ErrWrongTokenKind for a kind mismatch, and ErrTokenMalformed for
// everything else that fails.
func (p *TokenProvider) Verify(tokenString string, expectedKind TokenKind) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (any, error) { return p.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(p.issuer),
		jwt.WithAudience(p.audience),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrTokenMalformed
	}
	if !token.Valid {
		return nil, ErrTokenMalformed
	}
	if claims.Kind != expectedKind {
		return nil, ErrWrongTokenKind
	}
	return claims, nil
}

// Decode parses the token without verifying the signature and returns its
// claims, or nil if the token cannot be parsed. Used only to read expiry for
// blacklist TTL math; never use the result for trust decisions.
func (p *TokenProvider) Decode(tokenString string) *Claims {
	claims := &Claims{}
	if _, _, err := jwt.NewParser().ParseUnverified(tokenString, claims); err != nil {
		return nil
	}
	return claims
}
