package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tripmoa/backend/internal/auth"
	"github.com/tripmoa/backend/internal/users"
	"go.uber.org/zap"
)

// handleAuthRedirect sends the browser to the provider's consent screen.
func (h *httpHandler) handleAuthRedirect(c *gin.Context) {
	provider := c.Param("provider")
	target, err := h.exchanger.AuthCodeURL(provider, c.Query("state"))
	if err != nil {
		h.logger.Warn("auth redirect rejected", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown_provider"})
		return
	}
	c.Redirect(http.StatusFound, target)
}

// handleAuthCallback finishes the code flow: exchange the code, reconcile the
// profile to a local user, set the session cookie pair and bounce back to the
// frontend. The browser is mid-redirect here, so every outcome is expressed as
// a redirect query rather than a JSON body.
func (h *httpHandler) handleAuthCallback(c *gin.Context) {
	provider := c.Param("provider")
	code := c.Query("code")
	if strings.TrimSpace(code) == "" {
		c.Redirect(http.StatusFound, h.frontendRedirect(url.Values{"error": {"missing_code"}}))
		return
	}

	profile, err := h.exchanger.ExchangeCodeForProfile(c.Request.Context(), provider, code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.String("provider", provider), zap.Error(err))
		c.Redirect(http.StatusFound, h.frontendRedirect(url.Values{"error": {"oauth_failed"}}))
		return
	}

	user, err := h.users.Reconcile(c.Request.Context(), profile)
	if err != nil {
		var conflict *users.ProviderConflictError
		if errors.As(err, &conflict) {
			c.Redirect(http.StatusFound, h.frontendRedirect(url.Values{
				"error":    {"provider_conflict"},
				"provider": {conflict.ExistingProvider},
			}))
			return
		}
		h.logger.Error("identity reconciliation failed", zap.Error(err))
		c.Redirect(http.StatusFound, h.frontendRedirect(url.Values{"error": {"login_failed"}}))
		return
	}

	if !h.issueSession(c, auth.TokenPayload{UserID: user.ID, Email: user.Email, Provider: user.Provider}) {
		c.Redirect(http.StatusFound, h.frontendRedirect(url.Values{"error": {"login_failed"}}))
		return
	}
	c.Redirect(http.StatusFound, h.frontendRedirect(nil))
}

type codeLoginPayload struct {
	Code string `json:"code"`
}

// handleCodeLogin is the JSON twin of the callback for clients that complete
// the consent flow themselves and post the authorization code. Conflicts come
// back as a structured 409 instead of a redirect query.
func (h *httpHandler) handleCodeLogin(c *gin.Context) {
	provider := c.Param("provider")
	var request codeLoginPayload
	if err := c.ShouldBindJSON(&request); err != nil || strings.TrimSpace(request.Code) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}

	profile, err := h.exchanger.ExchangeCodeForProfile(c.Request.Context(), provider, request.Code)
	if err != nil {
		h.logger.Warn("oauth exchange failed", zap.String("provider", provider), zap.Error(err))
		c.JSON(http.StatusUnauthorized, gin.H{"error": "oauth_failed"})
		return
	}

	user, err := h.users.Reconcile(c.Request.Context(), profile)
	if err != nil {
		var conflict *users.ProviderConflictError
		if errors.As(err, &conflict) {
			c.JSON(http.StatusConflict, gin.H{
				"error":             "provider_conflict",
				"email":             conflict.Email,
				"existing_provider": conflict.ExistingProvider,
			})
			return
		}
		h.logger.Error("identity reconciliation failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "login_failed"})
		return
	}

	if !h.issueSession(c, auth.TokenPayload{UserID: user.ID, Email: user.Email, Provider: user.Provider}) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, toUserPayload(*user))
}

// handleTokenRefresh rotates the session: a valid refresh cookie yields a fresh
// access+refresh pair, anything else clears the refresh cookie and returns 401.
func (h *httpHandler) handleTokenRefresh(c *gin.Context) {
	tokenString, err := c.Cookie(auth.RefreshTokenCookie)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}
	payload := h.tokens.Verify(tokenString)
	if payload == nil {
		h.cookies.ClearRefresh(c)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	if !h.issueSession(c, *payload) {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "token_issue_failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"expires_in": int64(h.tokens.AccessTTL().Seconds())})
}

func (h *httpHandler) handleLogout(c *gin.Context) {
	h.cookies.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"status": "logged_out"})
}

func (h *httpHandler) issueSession(c *gin.Context, payload auth.TokenPayload) bool {
	accessToken, err := h.tokens.IssueAccessToken(payload)
	if err != nil {
		h.logger.Error("failed to issue access token", zap.Error(err))
		return false
	}
	refreshToken, err := h.tokens.IssueRefreshToken(payload)
	if err != nil {
		h.logger.Error("failed to issue refresh token", zap.Error(err))
		return false
	}
	h.cookies.SetSession(c, accessToken, refreshToken)
	return true
}

func (h *httpHandler) frontendRedirect(query url.Values) string {
	base := strings.TrimSuffix(h.frontendBase, "/")
	if len(query) == 0 {
		return base + "/"
	}
	return base + "/?" + query.Encode()
}
