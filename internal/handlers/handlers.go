package handlers

import (
	"errors"
	"net/http"
	"time"

	"citas/internal/services"
	"citas/internal/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler serves the HTTP API.
type Handler struct {
	appointments   *services.AppointmentService
	reminders      *services.ReminderScheduler
	sessions       *session.Manager
	email          services.EmailSender
	sms            services.SMSSender
	metrics        *services.Metrics
	log            *zap.Logger
	loc            *time.Location
	editWindowDays int
	now            func() time.Time
}

// Deps are the collaborators of a Handler.
type Deps struct {
	Appointments   *services.AppointmentService
	Reminders      *services.ReminderScheduler
	Sessions       *session.Manager
	Email          services.EmailSender
	SMS            services.SMSSender
	Metrics        *services.Metrics
	Logger         *zap.Logger
	Location       *time.Location
	EditWindowDays int
}

func New(d Deps) *Handler {
	log := d.Logger
	if log == nil {
		log = zap.NewNop()
	}
	loc := d.Location
	if loc == nil {
		loc = time.Local
	}
	return &Handler{
		appointments:   d.Appointments,
		reminders:      d.Reminders,
		sessions:       d.Sessions,
		email:          d.Email,
		sms:            d.SMS,
		metrics:        d.Metrics,
		log:            log,
		loc:            loc,
		editWindowDays: d.EditWindowDays,
		now:            time.Now,
	}
}

// handleError maps service errors onto the {message} body used by the
// appointment endpoints.
func (h *Handler) handleError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		body := gin.H{"message": verr.Message}
		if len(verr.Fields) > 0 {
			body["fields"] = verr.Fields
		}
		c.JSON(http.StatusBadRequest, body)
		return
	}
	h.log.Error("Request failed", zap.String("path", c.FullPath()), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"message": "Server error"})
}

const notifyFailedMessage = "Notification could not be sent"

// handleNotifyError maps send errors onto the {ok:false,error} body used by
// the notification endpoints.
func (h *Handler) handleNotifyError(c *gin.Context, err error) {
	var (
		verr *services.ValidationError
		mce  *services.MissingContactError
	)
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"ok": false, "error": verr.Error()})
	case errors.As(err, &mce):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"ok": false, "error": mce.Error()})
	default:
		h.log.Error("Notification failed", zap.String("path", c.FullPath()), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"ok": false, "error": notifyFailedMessage})
	}
}

// HealthHandler is a simple health check endpoint
func HealthHandler(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}
