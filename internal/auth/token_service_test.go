package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestTokenServiceIssuesVerifiableAccessTokens(t *testing.T) {
	service, err := NewTokenService(TokenServiceConfig{
		SigningSecret: []byte("super-secret"),
		Issuer:        "tripmoa-auth",
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	payload := TokenPayload{UserID: "user-123", Email: "a@x.com", Provider: "google"}
	tokenString, err := service.IssueAccessToken(payload)
	if err != nil {
		t.Fatalf("expected successful issuance: %v", err)
	}

	verified := service.Verify(tokenString)
	if verified == nil {
		t.Fatalf("expected token to verify")
	}
	if verified.UserID != "user-123" || verified.Email != "a@x.com" || verified.Provider != "google" {
		t.Fatalf("unexpected payload %+v", verified)
	}
}

func TestTokenServiceEmbedsRegisteredClaims(t *testing.T) {
	service, err := NewTokenService(TokenServiceConfig{
		SigningSecret: []byte("another-secret"),
		Issuer:        "tripmoa-auth",
		AccessTTL:     15 * time.Minute,
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	tokenString, err := service.IssueAccessToken(TokenPayload{UserID: "user-321", Email: "b@x.com", Provider: "kakao"})
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	parser := jwt.Parser{}
	claims := &jwt.RegisteredClaims{}
	if _, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return []byte("another-secret"), nil
	}); err != nil {
		t.Fatalf("failed to parse generated token: %v", err)
	}

	if claims.Subject != "user-321" {
		t.Fatalf("unexpected subject %s", claims.Subject)
	}
	if claims.Issuer != "tripmoa-auth" {
		t.Fatalf("unexpected issuer %s", claims.Issuer)
	}
	if claims.ExpiresAt == nil || claims.IssuedAt == nil {
		t.Fatalf("expected issued-at and expiry claims, got %+v", claims)
	}
	if got := claims.ExpiresAt.Sub(claims.IssuedAt.Time); got != 15*time.Minute {
		t.Fatalf("unexpected access ttl %s", got)
	}
}

func TestVerifyFailsClosed(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service, err := NewTokenService(TokenServiceConfig{
		SigningSecret: []byte("secret"),
		Issuer:        "tripmoa-auth",
		AccessTTL:     15 * time.Minute,
		Clock:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	tokenString, err := service.IssueAccessToken(TokenPayload{UserID: "user-1", Email: "a@x.com", Provider: "naver"})
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}

	// advance past expiry; verify must return nil, never an error or panic.
	now = now.Add(16 * time.Minute)
	if payload := service.Verify(tokenString); payload != nil {
		t.Fatalf("expected expired token to fail verification, got %+v", payload)
	}

	if payload := service.Verify("not.a.token"); payload != nil {
		t.Fatalf("expected malformed token to fail verification, got %+v", payload)
	}
	if payload := service.Verify(""); payload != nil {
		t.Fatalf("expected empty token to fail verification, got %+v", payload)
	}

	other, err := NewTokenService(TokenServiceConfig{
		SigningSecret: []byte("different-secret"),
		Issuer:        "tripmoa-auth",
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	foreign, err := other.IssueAccessToken(TokenPayload{UserID: "user-1", Email: "a@x.com", Provider: "naver"})
	if err != nil {
		t.Fatalf("unexpected error issuing token: %v", err)
	}
	if payload := service.Verify(foreign); payload != nil {
		t.Fatalf("expected token signed with another secret to fail, got %+v", payload)
	}
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	service, err := NewTokenService(TokenServiceConfig{
		SigningSecret: []byte("secret"),
		Issuer:        "tripmoa-auth",
		Clock:         func() time.Time { return now },
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}

	payload := TokenPayload{UserID: "user-9", Email: "c@x.com", Provider: "google"}
	refresh, err := service.IssueRefreshToken(payload)
	if err != nil {
		t.Fatalf("unexpected error issuing refresh token: %v", err)
	}

	// one hour later the access token would be long dead; refresh still verifies.
	now = now.Add(time.Hour)
	verified := service.Verify(refresh)
	if verified == nil {
		t.Fatalf("expected refresh token to remain valid")
	}
	if verified.UserID != "user-9" {
		t.Fatalf("unexpected user id %s", verified.UserID)
	}
}

func TestNewTokenServiceValidatesConfig(t *testing.T) {
	if _, err := NewTokenService(TokenServiceConfig{Issuer: "tripmoa-auth"}); err == nil {
		t.Fatalf("expected error for missing signing secret")
	}
	if _, err := NewTokenService(TokenServiceConfig{SigningSecret: []byte("secret"), Issuer: "  "}); err == nil {
		t.Fatalf("expected error for missing issuer")
	}
}

func TestIssueRejectsEmptyUserID(t *testing.T) {
	service, err := NewTokenService(TokenServiceConfig{
		SigningSecret: []byte("secret"),
		Issuer:        "tripmoa-auth",
	})
	if err != nil {
		t.Fatalf("unexpected constructor error: %v", err)
	}
	if _, err := service.IssueAccessToken(TokenPayload{Email: "a@x.com"}); err == nil {
		t.Fatalf("expected error for payload without user id")
	}
}
