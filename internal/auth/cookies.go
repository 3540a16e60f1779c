package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const (
	// AccessTokenCookie carries the short-lived session token.
	AccessTokenCookie = "access_token"
	// RefreshTokenCookie carries the long-lived rotation token.
	RefreshTokenCookie = "refresh_token"
)

// CookieWriter applies the session cookie policy to gin responses. Cookies are
// always httpOnly; cross-site deployments (frontend on another origin) need
// Secure plus SameSite=None, local development uses Lax.
type CookieWriter struct {
	secure     bool
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewCookieWriter builds a writer whose cookie lifetimes mirror the token TTLs.
func NewCookieWriter(tokens *TokenService, secure bool) *CookieWriter {
	return &CookieWriter{
		secure:     secure,
		accessTTL:  tokens.AccessTTL(),
		refreshTTL: tokens.RefreshTTL(),
	}
}

// SetSession stores a freshly issued access+refresh pair on the response.
func (w *CookieWriter) SetSession(c *gin.Context, accessToken, refreshToken string) {
	w.applySameSite(c)
	c.SetCookie(AccessTokenCookie, accessToken, int(w.accessTTL.Seconds()), "/", "", w.secure, true)
	c.SetCookie(RefreshTokenCookie, refreshToken, int(w.refreshTTL.Seconds()), "/", "", w.secure, true)
}

// ClearSession expires both session cookies.
func (w *CookieWriter) ClearSession(c *gin.Context) {
	w.applySameSite(c)
	c.SetCookie(AccessTokenCookie, "", -1, "/", "", w.secure, true)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", w.secure, true)
}

// ClearRefresh expires only the refresh cookie, used when rotation fails.
func (w *CookieWriter) ClearRefresh(c *gin.Context) {
	w.applySameSite(c)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", "", w.secure, true)
}

func (w *CookieWriter) applySameSite(c *gin.Context) {
	if w.secure {
		c.SetSameSite(http.SameSiteNoneMode)
		return
	}
	c.SetSameSite(http.SameSiteLaxMode)
}
