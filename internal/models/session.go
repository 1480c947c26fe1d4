package models

import (
	"fmt"
	"time"
)

// User is the signed-in patient as the dashboard knows it.
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// SignInRequest represents the data needed to open a dashboard session
type SignInRequest struct {
	ID    OwnerID `json:"id"`
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone string  `json:"phone"`
}

// SessionInfo is the client-facing snapshot of a session.
type SessionInfo struct {
	SessionID string    `json:"sessionId"`
	User      User      `json:"user"`
	StartedAt time.Time `json:"startedAt"`
	Elapsed   string    `json:"elapsed"`   // mm:ss
	ExpiresIn int       `json:"expiresIn"` // whole seconds
}

// FormatElapsed renders d as mm:ss, minutes unbounded.
func FormatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	s := int(d / time.Second)
	return fmt.Sprintf("%02d:%02d", s/60, s%60)
}
