package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const (
	envPrefix                  = "TRIPMOA"
	defaultHTTPAddress         = "0.0.0.0:8080"
	defaultDatabasePath        = "tripmoa.db"
	defaultLogLevel            = "info"
	defaultAccessTTLMinutes    = 15
	defaultRefreshTTLHours     = 24 * 30
	defaultFrontendRedirectURL = "http://localhost:5173"
)

// OAuthClient is one provider registration.
type OAuthClient struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

// AppConfig captures runtime configuration for the API server.
type AppConfig struct {
	HTTPAddress          string
	DatabasePath         string
	LogLevel             string
	SigningSecret        string
	AccessTTL            time.Duration
	RefreshTTL           time.Duration
	CookieSecure         bool
	AllowedOrigins       []string
	FrontendRedirectBase string
	Google               OAuthClient
	Kakao                OAuthClient
	Naver                OAuthClient
}

// NewViper returns a viper instance with defaults and env bindings configured.
func NewViper() *viper.Viper {
	configViper := viper.New()
	ApplyDefaults(configViper)
	return configViper
}

// ApplyDefaults configures defaults and env bindings on the provided viper instance.
func ApplyDefaults(configViper *viper.Viper) {
	configViper.SetEnvPrefix(envPrefix)
	configViper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	configViper.AutomaticEnv()

	configViper.SetDefault("http.address", defaultHTTPAddress)
	configViper.SetDefault("database.path", defaultDatabasePath)
	configViper.SetDefault("log.level", defaultLogLevel)
	configViper.SetDefault("auth.access_ttl_minutes", defaultAccessTTLMinutes)
	configViper.SetDefault("auth.refresh_ttl_hours", defaultRefreshTTLHours)
	configViper.SetDefault("cookie.secure", false)
	configViper.SetDefault("cors.origins", defaultFrontendRedirectURL)
	configViper.SetDefault("frontend.redirect_base", defaultFrontendRedirectURL)
}

// Load parses runtime configuration from viper.
func Load(configViper *viper.Viper) (AppConfig, error) {
	cfg := AppConfig{
		HTTPAddress:          configViper.GetString("http.address"),
		DatabasePath:         configViper.GetString("database.path"),
		LogLevel:             configViper.GetString("log.level"),
		SigningSecret:        configViper.GetString("auth.signing_secret"),
		AccessTTL:            time.Duration(configViper.GetInt("auth.access_ttl_minutes")) * time.Minute,
		RefreshTTL:           time.Duration(configViper.GetInt("auth.refresh_ttl_hours")) * time.Hour,
		CookieSecure:         configViper.GetBool("cookie.secure"),
		AllowedOrigins:       splitOrigins(configViper.GetString("cors.origins")),
		FrontendRedirectBase: configViper.GetString("frontend.redirect_base"),
		Google:               loadOAuthClient(configViper, "google"),
		Kakao:                loadOAuthClient(configViper, "kakao"),
		Naver:                loadOAuthClient(configViper, "naver"),
	}

	if err := cfg.validate(); err != nil {
		return AppConfig{}, err
	}

	return cfg, nil
}

func loadOAuthClient(configViper *viper.Viper, provider string) OAuthClient {
	return OAuthClient{
		ClientID:     configViper.GetString("oauth." + provider + ".client_id"),
		ClientSecret: configViper.GetString("oauth." + provider + ".client_secret"),
		RedirectURI:  configViper.GetString("oauth." + provider + ".redirect_uri"),
	}
}

func splitOrigins(raw string) []string {
	parts := strings.Split(raw, ",")
	origins := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			origins = append(origins, trimmed)
		}
	}
	return origins
}

func (c AppConfig) validate() error {
	if strings.TrimSpace(c.SigningSecret) == "" {
		return fmt.Errorf("auth.signing_secret is required")
	}
	if strings.TrimSpace(c.DatabasePath) == "" {
		return fmt.Errorf("database.path is required")
	}
	if c.AccessTTL <= 0 || c.RefreshTTL <= 0 {
		return fmt.Errorf("token lifetimes must be positive")
	}
	if len(c.AllowedOrigins) == 0 {
		return fmt.Errorf("cors.origins is required")
	}
	return nil
}
