package handlers

import (
	"context"
	"net/http"
	"strings"
	"time"

	"citas/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const notifyTimeout = 20 * time.Second

type smsRequest struct {
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

type emailRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// NotifySMS handles POST /notify/sms
func (h *Handler) NotifySMS(c *gin.Context) {
	var req smsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.Phone) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing recipient phone"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing message"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), notifyTimeout)
	defer cancel()

	err := h.sms.SendSMS(ctx, req.Phone, req.Message)
	h.metrics.ObserveNotification(models.ChannelSMS, "api", err)
	if err != nil {
		h.handleNotifyError(c, err)
		return
	}
	h.log.Info("SMS sent", zap.String("to", req.Phone))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// NotifyEmail handles POST /notify/email
func (h *Handler) NotifyEmail(c *gin.Context) {
	var req emailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid request body"})
		return
	}
	if strings.TrimSpace(req.To) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing recipient email"})
		return
	}
	if strings.TrimSpace(req.Message) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Missing message"})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), notifyTimeout)
	defer cancel()

	err := h.email.SendEmail(ctx, req.To, req.Subject, req.Message)
	h.metrics.ObserveNotification(models.ChannelEmail, "api", err)
	if err != nil {
		h.handleNotifyError(c, err)
		return
	}
	h.log.Info("Email sent", zap.String("to", req.To))
	c.JSON(http.StatusOK, gin.H{"ok": true})
}
