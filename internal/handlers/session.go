package handlers

import (
	"net/http"
	"strings"

	"citas/internal/models"
	"citas/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SignIn handles POST /session
func (h *Handler) SignIn(c *gin.Context) {
	var req models.SignInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}
	if strings.TrimSpace(string(req.ID)) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing user id"})
		return
	}

	s, err := h.sessions.Start(c.Request.Context(), models.User{
		ID:    string(req.ID),
		Name:  req.Name,
		Email: strings.TrimSpace(req.Email),
		Phone: strings.TrimSpace(req.Phone),
	})
	if err != nil {
		h.log.Error("Failed to start session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
		return
	}

	session.SetCookie(c, s, h.sessions.Timeout())
	c.JSON(http.StatusCreated, gin.H{
		"sessionId": s.ID,
		"startedAt": s.StartedAt,
	})
}

// CurrentSession handles GET /session
func (h *Handler) CurrentSession(c *gin.Context) {
	s := session.FromContext(c)
	c.JSON(http.StatusOK, s.Info(h.sessions.Timeout()))
}

// SignOut handles DELETE /session
func (h *Handler) SignOut(c *gin.Context) {
	if id := session.RequestID(c); id != "" {
		h.sessions.End(id)
	}
	session.ClearCookie(c)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
