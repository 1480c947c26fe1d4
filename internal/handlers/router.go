package handlers

import (
	"time"

	"citas/internal/logging"
	"citas/internal/middleware"
	"citas/internal/session"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type RouterConfig struct {
	AllowedOrigins  []string
	NotifyPerMinute int
	MetricsGatherer prometheus.Gatherer
}

// NewRouter wires every route onto a fresh gin engine.
func NewRouter(h *Handler, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(logging.GinLogger(h.log), logging.Recovery(h.log))

	corsCfg := cors.Config{
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", session.HeaderName},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) == 0 || (len(cfg.AllowedOrigins) == 1 && cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowOriginFunc = func(string) bool { return true }
	} else {
		corsCfg.AllowOrigins = cfg.AllowedOrigins
	}
	r.Use(cors.New(corsCfg))

	r.GET("/health", HealthHandler)
	gatherer := cfg.MetricsGatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	appointments := r.Group("/appointments")
	{
		appointments.GET("", h.ListAppointments)
		appointments.POST("", h.CreateAppointment)
		appointments.PATCH("", h.UpdateAppointment)
		appointments.DELETE("", h.CancelAppointment)
	}

	limiter := middleware.NewRateLimiter(cfg.NotifyPerMinute, h.log)
	notify := r.Group("/notify", limiter.Middleware())
	{
		notify.POST("/sms", h.NotifySMS)
		notify.POST("/email", h.NotifyEmail)
	}

	r.POST("/session", h.SignIn)
	r.DELETE("/session", h.SignOut)

	authed := r.Group("", session.Required(h.sessions))
	{
		authed.GET("/session", h.CurrentSession)
		authed.GET("/dashboard", h.Dashboard)
		authed.GET("/reminders", h.ListReminders)
		authed.POST("/reminders/:id/toggle", h.ToggleReminder)
		authed.POST("/reminders/:id/email", limiter.Middleware(), h.SendEmailReminder)
		authed.POST("/reminders/:id/sms", limiter.Middleware(), h.SendSmsReminder)
	}

	return r
}
