package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
)

func newProviderServer(t *testing.T, userInfo any) (*httptest.Server, *url.Values) {
	t.Helper()
	var capturedForm url.Values
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if err := r.ParseForm(); err != nil {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		capturedForm = r.PostForm
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "remote-access",
			"refresh_token": "remote-refresh",
			"token_type":    "bearer",
			"expires_in":    3600,
		})
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer remote-access" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(userInfo)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &capturedForm
}

func newTestExchanger(server *httptest.Server, provider string) *Exchanger {
	creds := Credentials{ClientID: "client-id", ClientSecret: "client-secret", RedirectURI: "http://localhost/cb"}
	cfg := ExchangerConfig{
		EndpointOverrides: map[string]Endpoints{
			provider: {
				AuthURL:     server.URL + "/authorize",
				TokenURL:    server.URL + "/token",
				UserInfoURL: server.URL + "/userinfo",
			},
		},
		HTTPClient: server.Client(),
	}
	switch provider {
	case ProviderGoogle:
		cfg.Google = creds
	case ProviderKakao:
		cfg.Kakao = creds
	case ProviderNaver:
		cfg.Naver = creds
	}
	return NewExchanger(cfg)
}

func TestExchangeCodeForProfileGoogle(t *testing.T) {
	server, form := newProviderServer(t, map[string]any{
		"email":   "a@x.com",
		"name":    "Alice",
		"picture": "https://img.example.com/a.png",
	})
	exchanger := newTestExchanger(server, ProviderGoogle)

	profile, err := exchanger.ExchangeCodeForProfile(context.Background(), "google", "auth-code")
	if err != nil {
		t.Fatalf("unexpected exchange error: %v", err)
	}

	if profile.Provider != ProviderGoogle {
		t.Fatalf("unexpected provider %q", profile.Provider)
	}
	if profile.Email != "a@x.com" || profile.DisplayName != "Alice" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.AccessToken != "remote-access" || profile.RefreshToken != "remote-refresh" {
		t.Fatalf("expected provider tokens on profile, got %+v", profile)
	}
	if form.Get("grant_type") != "authorization_code" || form.Get("code") != "auth-code" {
		t.Fatalf("unexpected token request form %v", *form)
	}
}

func TestExchangeCodeForProfileKakaoNestedAccount(t *testing.T) {
	server, _ := newProviderServer(t, map[string]any{
		"kakao_account": map[string]any{
			"email": "b@x.com",
			"profile": map[string]any{
				"nickname":          "Bomi",
				"profile_image_url": "https://img.example.com/b.png",
			},
		},
	})
	exchanger := newTestExchanger(server, ProviderKakao)

	profile, err := exchanger.ExchangeCodeForProfile(context.Background(), "kakao", "auth-code")
	if err != nil {
		t.Fatalf("unexpected exchange error: %v", err)
	}
	if profile.Email != "b@x.com" || profile.DisplayName != "Bomi" {
		t.Fatalf("unexpected profile %+v", profile)
	}
	if profile.AvatarURL != "https://img.example.com/b.png" {
		t.Fatalf("unexpected avatar %q", profile.AvatarURL)
	}
}

func TestExchangeCodeForProfileNaverEnvelope(t *testing.T) {
	server, _ := newProviderServer(t, map[string]any{
		"response": map[string]any{
			"email":         "c@x.com",
			"name":          "Chul",
			"profile_image": "https://img.example.com/c.png",
		},
	})
	exchanger := newTestExchanger(server, ProviderNaver)

	profile, err := exchanger.ExchangeCodeForProfile(context.Background(), "naver", "auth-code")
	if err != nil {
		t.Fatalf("unexpected exchange error: %v", err)
	}
	if profile.Provider != ProviderNaver || profile.Email != "c@x.com" || profile.DisplayName != "Chul" {
		t.Fatalf("unexpected profile %+v", profile)
	}
}

func TestExchangeRejectsProfileWithoutEmail(t *testing.T) {
	server, _ := newProviderServer(t, map[string]any{"name": "No Email"})
	exchanger := newTestExchanger(server, ProviderGoogle)

	_, err := exchanger.ExchangeCodeForProfile(context.Background(), "google", "auth-code")
	if !errors.Is(err, ErrMissingEmail) {
		t.Fatalf("expected ErrMissingEmail, got %v", err)
	}
}

func TestExchangeRejectsUnknownAndUnconfiguredProviders(t *testing.T) {
	exchanger := NewExchanger(ExchangerConfig{})

	if _, err := exchanger.ExchangeCodeForProfile(context.Background(), "github", "code"); !errors.Is(err, ErrUnknownProvider) {
		t.Fatalf("expected ErrUnknownProvider, got %v", err)
	}
	if _, err := exchanger.ExchangeCodeForProfile(context.Background(), "google", "code"); !errors.Is(err, ErrProviderNotConfigured) {
		t.Fatalf("expected ErrProviderNotConfigured, got %v", err)
	}
}

func TestExchangePropagatesTokenEndpointFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	exchanger := NewExchanger(ExchangerConfig{
		Google: Credentials{ClientID: "id", ClientSecret: "secret", RedirectURI: "http://localhost/cb"},
		EndpointOverrides: map[string]Endpoints{
			ProviderGoogle: {TokenURL: server.URL + "/token", UserInfoURL: server.URL + "/userinfo"},
		},
		HTTPClient: server.Client(),
	})

	_, err := exchanger.ExchangeCodeForProfile(context.Background(), "google", "auth-code")
	if err == nil || !strings.Contains(err.Error(), "status 502") {
		t.Fatalf("expected upstream status error, got %v", err)
	}
}

func TestAuthCodeURLCarriesOfflineAccessForGoogle(t *testing.T) {
	exchanger := NewExchanger(ExchangerConfig{
		Google: Credentials{ClientID: "client-id", ClientSecret: "client-secret", RedirectURI: "http://localhost/cb"},
	})

	raw, err := exchanger.AuthCodeURL("google", "state-123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	parsed, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("auth url did not parse: %v", err)
	}
	query := parsed.Query()
	if query.Get("client_id") != "client-id" || query.Get("response_type") != "code" {
		t.Fatalf("unexpected query %v", query)
	}
	if query.Get("access_type") != "offline" || query.Get("prompt") != "consent" {
		t.Fatalf("expected offline access params, got %v", query)
	}
	if query.Get("state") != "state-123" {
		t.Fatalf("expected state to round-trip, got %q", query.Get("state"))
	}
}
