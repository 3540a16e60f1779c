package oauth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"
)

var errMissingAuthorizationCode = errors.New("oauth: authorization code must not be empty")

// Credentials holds the client registration for one provider.
type Credentials struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
}

func (c Credentials) configured() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

// Endpoints names the three URLs the code flow touches. Zero values fall back
// to the provider's production endpoints; tests point them at local servers.
type Endpoints struct {
	AuthURL     string
	TokenURL    string
	UserInfoURL string
}

// ExchangerConfig wires provider registrations into an Exchanger.
type ExchangerConfig struct {
	Google Credentials
	Kakao  Credentials
	Naver  Credentials

	// EndpointOverrides replaces the default endpoints per provider name.
	EndpointOverrides map[string]Endpoints

	HTTPClient *http.Client
	Logger     *zap.Logger
}

type providerSpec struct {
	credentials Credentials
	endpoints   Endpoints
	authParams  url.Values
	decode      func([]byte) (Profile, error)
}

// Exchanger runs the authorization-code flow against the configured providers
// and normalizes the resulting remote profile. It performs no retries; a failed
// exchange propagates to the caller unchanged.
type Exchanger struct {
	providers  map[string]providerSpec
	httpClient *http.Client
	logger     *zap.Logger
}

// NewExchanger constructs an Exchanger. Providers without credentials stay
// registered but reject exchange attempts with ErrProviderNotConfigured.
func NewExchanger(cfg ExchangerConfig) *Exchanger {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	providers := map[string]providerSpec{
		ProviderGoogle: {
			credentials: cfg.Google,
			endpoints: Endpoints{
				AuthURL:     "https://accounts.google.com/o/oauth2/v2/auth",
				TokenURL:    "https://oauth2.googleapis.com/token",
				UserInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
			},
			// offline access plus forced consent so Google returns a refresh token.
			authParams: url.Values{
				"scope":       {"profile email"},
				"access_type": {"offline"},
				"prompt":      {"consent"},
			},
			decode: decodeGoogleProfile,
		},
		ProviderKakao: {
			credentials: cfg.Kakao,
			endpoints: Endpoints{
				AuthURL:     "https://kauth.kakao.com/oauth/authorize",
				TokenURL:    "https://kauth.kakao.com/oauth/token",
				UserInfoURL: "https://kapi.kakao.com/v2/user/me",
			},
			decode: decodeKakaoProfile,
		},
		ProviderNaver: {
			credentials: cfg.Naver,
			endpoints: Endpoints{
				AuthURL:     "https://nid.naver.com/oauth2.0/authorize",
				TokenURL:    "https://nid.naver.com/oauth2.0/token",
				UserInfoURL: "https://openapi.naver.com/v1/nid/me",
			},
			decode: decodeNaverProfile,
		},
	}

	for name, override := range cfg.EndpointOverrides {
		spec, ok := providers[name]
		if !ok {
			continue
		}
		if override.AuthURL != "" {
			spec.endpoints.AuthURL = override.AuthURL
		}
		if override.TokenURL != "" {
			spec.endpoints.TokenURL = override.TokenURL
		}
		if override.UserInfoURL != "" {
			spec.endpoints.UserInfoURL = override.UserInfoURL
		}
		providers[name] = spec
	}

	return &Exchanger{
		providers:  providers,
		httpClient: httpClient,
		logger:     logger,
	}
}

// AuthCodeURL builds the consent-screen redirect for the provider.
func (e *Exchanger) AuthCodeURL(provider, state string) (string, error) {
	spec, err := e.spec(provider)
	if err != nil {
		return "", err
	}

	query := url.Values{
		"client_id":     {spec.credentials.ClientID},
		"redirect_uri":  {spec.credentials.RedirectURI},
		"response_type": {"code"},
	}
	if state != "" {
		query.Set("state", state)
	}
	for key, values := range spec.authParams {
		for _, value := range values {
			query.Set(key, value)
		}
	}
	return spec.endpoints.AuthURL + "?" + query.Encode(), nil
}

// ExchangeCodeForProfile redeems an authorization code for provider tokens,
// fetches the remote profile and normalizes it.
func (e *Exchanger) ExchangeCodeForProfile(ctx context.Context, provider, code string) (Profile, error) {
	spec, err := e.spec(provider)
	if err != nil {
		return Profile{}, err
	}
	if strings.TrimSpace(code) == "" {
		return Profile{}, errMissingAuthorizationCode
	}

	tokens, err := e.redeemCode(ctx, spec, code)
	if err != nil {
		return Profile{}, err
	}

	body, err := e.fetchUserInfo(ctx, spec, tokens.AccessToken)
	if err != nil {
		return Profile{}, err
	}

	profile, err := spec.decode(body)
	if err != nil {
		return Profile{}, err
	}
	if strings.TrimSpace(profile.Email) == "" {
		return Profile{}, ErrMissingEmail
	}

	profile.AccessToken = tokens.AccessToken
	profile.RefreshToken = tokens.RefreshToken
	e.logger.Debug("oauth exchange complete",
		zap.String("provider", profile.Provider),
		zap.String("email", profile.Email))
	return profile, nil
}

func (e *Exchanger) spec(provider string) (providerSpec, error) {
	normalized, err := NormalizeProvider(provider)
	if err != nil {
		return providerSpec{}, err
	}
	spec := e.providers[normalized]
	if !spec.credentials.configured() {
		return providerSpec{}, fmt.Errorf("%w: %s", ErrProviderNotConfigured, normalized)
	}
	return spec, nil
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func (e *Exchanger) redeemCode(ctx context.Context, spec providerSpec, code string) (tokenResponse, error) {
	form := url.Values{
		"grant_type":    {"authorization_code"},
		"code":          {code},
		"client_id":     {spec.credentials.ClientID},
		"client_secret": {spec.credentials.ClientSecret},
		"redirect_uri":  {spec.credentials.RedirectURI},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, spec.endpoints.TokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return tokenResponse{}, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	response, err := e.httpClient.Do(req)
	if err != nil {
		return tokenResponse{}, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return tokenResponse{}, fmt.Errorf("oauth: token endpoint returned status %d", response.StatusCode)
	}

	var tokens tokenResponse
	if err := json.NewDecoder(response.Body).Decode(&tokens); err != nil {
		return tokenResponse{}, err
	}
	if tokens.AccessToken == "" {
		return tokenResponse{}, errors.New("oauth: token endpoint returned no access token")
	}
	return tokens, nil
}

func (e *Exchanger) fetchUserInfo(ctx context.Context, spec providerSpec, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, spec.endpoints.UserInfoURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)

	response, err := e.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("oauth: userinfo endpoint returned status %d", response.StatusCode)
	}
	return io.ReadAll(response.Body)
}
