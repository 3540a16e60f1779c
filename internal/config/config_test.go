package config

import (
	"testing"
	"time"
)

func TestLoadAppliesDefaults(t *testing.T) {
	v := NewViper()
	v.Set("auth.signing_secret", "test-secret")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.HTTPAddress != "0.0.0.0:8080" {
		t.Fatalf("unexpected http address: %q", cfg.HTTPAddress)
	}
	if cfg.AccessTTL != 15*time.Minute {
		t.Fatalf("unexpected access ttl: %s", cfg.AccessTTL)
	}
	if cfg.RefreshTTL != 30*24*time.Hour {
		t.Fatalf("unexpected refresh ttl: %s", cfg.RefreshTTL)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "http://localhost:5173" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}

func TestLoadRejectsMissingSigningSecret(t *testing.T) {
	v := NewViper()
	if _, err := Load(v); err == nil {
		t.Fatalf("expected error for missing signing secret")
	}
}

func TestLoadReadsOAuthClients(t *testing.T) {
	v := NewViper()
	v.Set("auth.signing_secret", "test-secret")
	v.Set("oauth.kakao.client_id", "kakao-id")
	v.Set("oauth.kakao.client_secret", "kakao-secret")
	v.Set("oauth.kakao.redirect_uri", "http://localhost:8080/auth/kakao/callback")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if cfg.Kakao.ClientID != "kakao-id" || cfg.Kakao.ClientSecret != "kakao-secret" {
		t.Fatalf("unexpected kakao client: %+v", cfg.Kakao)
	}
	if cfg.Google.ClientID != "" {
		t.Fatalf("expected google client to stay empty, got %+v", cfg.Google)
	}
}

func TestSplitOriginsTrimsAndDropsEmpty(t *testing.T) {
	v := NewViper()
	v.Set("auth.signing_secret", "test-secret")
	v.Set("cors.origins", " https://a.example.com , https://b.example.com ,, ")

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("unexpected load error: %v", err)
	}
	if len(cfg.AllowedOrigins) != 2 {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
	if cfg.AllowedOrigins[0] != "https://a.example.com" || cfg.AllowedOrigins[1] != "https://b.example.com" {
		t.Fatalf("unexpected origins: %v", cfg.AllowedOrigins)
	}
}
