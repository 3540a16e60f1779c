package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultAccessTokenTTL  = 15 * time.Minute
	defaultRefreshTokenTTL = 30 * 24 * time.Hour
)

var (
	errMissingSigningSecret = errors.New("auth: signing secret must be provided")
	errMissingIssuer        = errors.New("auth: issuer must be provided")
	errMissingUserID        = errors.New("auth: payload user id must be provided")
)

// TokenPayload identifies an authenticated session. It travels inside both the
// access and the refresh token.
type TokenPayload struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	Provider string `json:"provider"`
}

type sessionClaims struct {
	TokenPayload
	jwt.RegisteredClaims
}

// TokenServiceConfig configures the session token issuer.
type TokenServiceConfig struct {
	SigningSecret []byte
	Issuer        string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	Clock         func() time.Time
}

// TokenService issues and verifies HS256 session tokens. It holds no state
// beyond its configuration; validity is purely cryptographic plus expiry.
type TokenService struct {
	signingSecret []byte
	issuer        string
	accessTTL     time.Duration
	refreshTTL    time.Duration
	clock         func() time.Time
}

// NewTokenService constructs a TokenService with sane defaults.
func NewTokenService(cfg TokenServiceConfig) (*TokenService, error) {
	if len(cfg.SigningSecret) == 0 {
		return nil, errMissingSigningSecret
	}
	issuer := strings.TrimSpace(cfg.Issuer)
	if issuer == "" {
		return nil, errMissingIssuer
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = defaultAccessTokenTTL
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = defaultRefreshTokenTTL
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	return &TokenService{
		signingSecret: append([]byte(nil), cfg.SigningSecret...),
		issuer:        issuer,
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
		clock:         clock,
	}, nil
}

// AccessTTL reports the configured access token lifetime. The session cookie
// max-age is derived from this value so the two can never drift apart.
func (s *TokenService) AccessTTL() time.Duration {
	return s.accessTTL
}

// RefreshTTL reports the configured refresh token lifetime.
func (s *TokenService) RefreshTTL() time.Duration {
	return s.refreshTTL
}

// IssueAccessToken signs a short-lived access token for the payload.
func (s *TokenService) IssueAccessToken(payload TokenPayload) (string, error) {
	return s.issue(payload, s.accessTTL)
}

// IssueRefreshToken signs a long-lived refresh token for the payload.
func (s *TokenService) IssueRefreshToken(payload TokenPayload) (string, error) {
	return s.issue(payload, s.refreshTTL)
}

func (s *TokenService) issue(payload TokenPayload, ttl time.Duration) (string, error) {
	if strings.TrimSpace(payload.UserID) == "" {
		return "", errMissingUserID
	}

	now := s.clock().UTC()
	claims := sessionClaims{
		TokenPayload: payload,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   payload.UserID,
			Issuer:    s.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.signingSecret)
}

// Verify parses and validates a session token. It fails closed: any malformed,
// tampered or expired token yields nil. Callers treat nil as "unauthenticated",
// never as a fatal condition.
func (s *TokenService) Verify(tokenString string) *TokenPayload {
	trimmed := strings.TrimSpace(tokenString)
	if trimmed == "" {
		return nil
	}

	claims := &sessionClaims{}
	parsed, err := jwt.ParseWithClaims(
		trimmed,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
				return nil, fmt.Errorf("unexpected signing algorithm: %s", token.Method.Alg())
			}
			return s.signingSecret, nil
		},
		jwt.WithIssuer(s.issuer),
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.clock),
	)
	if err != nil || parsed == nil || !parsed.Valid {
		return nil
	}
	if strings.TrimSpace(claims.UserID) == "" {
		return nil
	}

	payload := claims.TokenPayload
	return &payload
}
