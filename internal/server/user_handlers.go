package server

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/tripmoa/backend/internal/users"
	"go.uber.org/zap"
)

type userResponsePayload struct {
	ID        string `json:"id"`
	Provider  string `json:"provider"`
	Email     string `json:"email"`
	Nickname  string `json:"nickname"`
	UserImage string `json:"user_image"`
	UserMemo  string `json:"user_memo"`
}

func toUserPayload(user users.User) userResponsePayload {
	return userResponsePayload{
		ID:        user.ID,
		Provider:  user.Provider,
		Email:     user.Email,
		Nickname:  user.Nickname,
		UserImage: user.UserImage,
		UserMemo:  user.UserMemo,
	}
}

func (h *httpHandler) handleGetMe(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	user, err := h.users.GetByID(c.Request.Context(), session.UserID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		h.logger.Error("failed to load user", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, toUserPayload(*user))
}

func (h *httpHandler) handleSearchUsers(c *gin.Context) {
	query := c.Query("email")
	if strings.TrimSpace(query) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "email query required"})
		return
	}
	found, err := h.users.SearchByEmail(c.Request.Context(), query)
	if err != nil {
		h.logger.Error("user search failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	results := make([]userResponsePayload, 0, len(found))
	for _, user := range found {
		results = append(results, toUserPayload(user))
	}
	c.JSON(http.StatusOK, gin.H{"users": results})
}

type profileFieldPayload struct {
	Value string `json:"value"`
}

func (h *httpHandler) handleUpdateNickname(c *gin.Context) {
	h.updateProfileField(c, h.users.UpdateNickname)
}

func (h *httpHandler) handleUpdateMemo(c *gin.Context) {
	h.updateProfileField(c, h.users.UpdateMemo)
}

func (h *httpHandler) handleUpdateImage(c *gin.Context) {
	h.updateProfileField(c, h.users.UpdateImage)
}

func (h *httpHandler) updateProfileField(c *gin.Context, apply func(ctx context.Context, id, value string) error) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	var request profileFieldPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request"})
		return
	}
	if err := apply(c.Request.Context(), session.UserID, request.Value); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		h.logger.Error("profile update failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "updated"})
}

// handleDeleteMe removes the account with its memberships and ends the session.
func (h *httpHandler) handleDeleteMe(c *gin.Context) {
	session, ok := h.session(c)
	if !ok {
		return
	}
	if err := h.users.Delete(c.Request.Context(), session.UserID); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
			return
		}
		h.logger.Error("account deletion failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
		return
	}
	h.cookies.ClearSession(c)
	c.JSON(http.StatusOK, gin.H{"status": "deleted"})
}
