package session

import (
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const contextKey = "session"

// SetCookie stores the session ID in an HttpOnly cookie that lives as long as the timeout.
func SetCookie(c *gin.Context, s *Session, timeout time.Duration) {
	secure := gin.Mode() == gin.ReleaseMode
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, s.ID, int(timeout.Seconds()), "/", "", secure, true)
}

// ClearCookie removes the session cookie.
func ClearCookie(c *gin.Context) {
	c.SetCookie(CookieName, "", -1, "/", "", false, true)
}

// RequestID returns the session ID sent with the request, cookie first.
func RequestID(c *gin.Context) string {
	if id, err := c.Cookie(CookieName); err == nil && id != "" {
		return id
	}
	return c.GetHeader(HeaderName)
}

// Required aborts with 401 unless the request carries a live session.
func Required(m *Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := RequestID(c)
		if id == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": "Not signed in"})
			return
		}
		s, err := m.Get(id)
		if err != nil {
			ClearCookie(c)
			msg := "Not signed in"
			if errors.Is(err, ErrExpired) {
				msg = "Session expired"
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"message": msg})
			return
		}
		c.Set(contextKey, s)
		c.Next()
	}
}

// FromContext returns the session stored by Required, or nil.
func FromContext(c *gin.Context) *Session {
	v, ok := c.Get(contextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
