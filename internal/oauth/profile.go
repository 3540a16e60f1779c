package oauth

import (
	"errors"
	"fmt"
	"strings"
)

const (
	// ProviderGoogle identifies Google sign-in.
	ProviderGoogle = "google"
	// ProviderKakao identifies Kakao sign-in.
	ProviderKakao = "kakao"
	// ProviderNaver identifies Naver sign-in.
	ProviderNaver = "naver"
)

var (
	// ErrUnknownProvider indicates a provider name outside the supported set.
	ErrUnknownProvider = errors.New("oauth: unknown provider")
	// ErrProviderNotConfigured indicates a supported provider without credentials.
	ErrProviderNotConfigured = errors.New("oauth: provider not configured")
	// ErrMissingEmail indicates the remote profile carried no email address.
	// Reconciliation keys on email, so such profiles cannot be signed in.
	ErrMissingEmail = errors.New("oauth: profile missing email")
)

// Profile is the normalized external identity shape. Every provider-specific
// payload is reduced to this form at the boundary before it reaches the
// reconciliation service.
type Profile struct {
	Provider     string
	Email        string
	DisplayName  string
	AvatarURL    string
	AccessToken  string
	RefreshToken string
}

// NormalizeProvider validates and canonicalizes a provider name.
func NormalizeProvider(name string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case ProviderGoogle:
		return ProviderGoogle, nil
	case ProviderKakao:
		return ProviderKakao, nil
	case ProviderNaver:
		return ProviderNaver, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownProvider, name)
	}
}
