package handlers

import (
	"net/http"

	"citas/internal/models"
	"citas/internal/services"
	"citas/internal/session"

	"github.com/gin-gonic/gin"
)

type toggleRequest struct {
	Channel string `json:"channel"`
}

// ListReminders handles GET /reminders: syncs preferences with the user's
// appointments and returns them with the reminder panel.
func (h *Handler) ListReminders(c *gin.Context) {
	s := session.FromContext(c)
	ctx := c.Request.Context()

	appts := h.appointments.List(ctx, services.ListQuery{OwnerID: s.User.ID})
	prefs, err := h.reminders.Sync(ctx, s.User.ID, appts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	summary := services.Summarize(appts, prefs, h.now().In(h.loc), h.editWindowDays)
	c.JSON(http.StatusOK, gin.H{
		"preferences": prefs,
		"panel":       summary.Reminders,
	})
}

// ToggleReminder handles POST /reminders/:id/toggle
func (h *Handler) ToggleReminder(c *gin.Context) {
	s := session.FromContext(c)
	a, ok := h.ownedAppointment(c, s)
	if !ok {
		return
	}

	var req toggleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	pref, err := h.reminders.ToggleChannel(c.Request.Context(), s.User.ID, a.ID, req.Channel)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true, "data": pref})
}

// SendEmailReminder handles POST /reminders/:id/email
func (h *Handler) SendEmailReminder(c *gin.Context) {
	h.sendReminder(c, models.ChannelEmail)
}

// SendSmsReminder handles POST /reminders/:id/sms
func (h *Handler) SendSmsReminder(c *gin.Context) {
	h.sendReminder(c, models.ChannelSMS)
}

func (h *Handler) sendReminder(c *gin.Context, ch models.Channel) {
	s := session.FromContext(c)
	ctx := c.Request.Context()

	a, ok := h.ownedAppointment(c, s)
	if !ok {
		return
	}

	var err error
	if ch == models.ChannelEmail {
		err = h.reminders.SendEmailReminder(ctx, s.User, a)
	} else {
		err = h.reminders.SendSmsReminder(ctx, s.User, a)
	}
	if err != nil {
		h.handleNotifyError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

// ownedAppointment loads :id and checks it belongs to the session user.
func (h *Handler) ownedAppointment(c *gin.Context, s *session.Session) (models.Appointment, bool) {
	id, err := models.ParseID(c.Param("id"))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": "Invalid id"})
		return models.Appointment{}, false
	}
	found := h.appointments.List(c.Request.Context(), services.ListQuery{ID: id, OwnerID: s.User.ID})
	if len(found) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"ok": false, "error": "Appointment not found"})
		return models.Appointment{}, false
	}
	return found[0], true
}

// Dashboard handles GET /dashboard
func (h *Handler) Dashboard(c *gin.Context) {
	s := session.FromContext(c)
	ctx := c.Request.Context()

	appts := h.appointments.List(ctx, services.ListQuery{OwnerID: s.User.ID})
	prefs, err := h.reminders.Sync(ctx, s.User.ID, appts)
	if err != nil {
		h.handleError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session":   s.Info(h.sessions.Timeout()),
		"dashboard": services.Summarize(appts, prefs, h.now().In(h.loc), h.editWindowDays),
	})
}
