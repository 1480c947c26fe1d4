// Package session keeps the signed-in dashboard user and the inactivity timer
// that signs them out. A session is a convenience, not a security boundary.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"citas/internal/models"
	"citas/internal/store"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// CookieName is the name of the cookie that stores the session ID
	CookieName = "citas_session"
	// HeaderName carries the session ID for clients without cookies
	HeaderName = "X-Session-ID"

	DefaultTimeout = 15 * time.Minute
	tickInterval   = time.Second
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

// Session is one signed-in user. Elapsed is refreshed every second by the
// session's own ticker.
type Session struct {
	ID        string
	User      models.User
	StartedAt time.Time

	mu      sync.Mutex
	elapsed time.Duration
	cancel  context.CancelFunc
}

func (s *Session) Elapsed() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.elapsed
}

func (s *Session) setElapsed(d time.Duration) {
	s.mu.Lock()
	s.elapsed = d
	s.mu.Unlock()
}

// Info snapshots s for clients.
func (s *Session) Info(timeout time.Duration) models.SessionInfo {
	elapsed := s.Elapsed()
	left := timeout - elapsed
	if left < 0 {
		left = 0
	}
	return models.SessionInfo{
		SessionID: s.ID,
		User:      s.User,
		StartedAt: s.StartedAt,
		Elapsed:   models.FormatElapsed(elapsed),
		ExpiresIn: int(left / time.Second),
	}
}

// Manager owns all live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	timeout  time.Duration
	tick     time.Duration
	contacts store.ContactStore
	log      *zap.Logger
	now      func() time.Time
	wg       sync.WaitGroup
}

// NewManager creates a Manager. Contacts, when set, receives each signed-in
// user's details so background reminders can reach them later.
func NewManager(timeout time.Duration, contacts store.ContactStore, log *zap.Logger) *Manager {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Manager{
		sessions: make(map[string]*Session),
		timeout:  timeout,
		tick:     tickInterval,
		contacts: contacts,
		log:      log.Named("session"),
		now:      time.Now,
	}
}

func (m *Manager) Timeout() time.Duration {
	return m.timeout
}

// Start signs user in and starts the inactivity timer.
func (m *Manager) Start(ctx context.Context, user models.User) (*Session, error) {
	if user.ID == "" {
		return nil, fmt.Errorf("user id is required")
	}
	if m.contacts != nil {
		if err := m.contacts.SaveContact(ctx, user); err != nil {
			return nil, fmt.Errorf("failed to store contact: %w", err)
		}
	}

	timerCtx, cancel := context.WithCancel(context.Background())
	s := &Session{
		ID:        uuid.NewString(),
		User:      user,
		StartedAt: m.now(),
		cancel:    cancel,
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.wg.Add(1)
	go m.watch(timerCtx, s)

	m.log.Info("Session started", zap.String("session_id", s.ID), zap.String("user_id", user.ID))
	return s, nil
}

func (m *Manager) watch(ctx context.Context, s *Session) {
	defer m.wg.Done()
	ticker := time.NewTicker(m.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			elapsed := m.now().Sub(s.StartedAt)
			s.setElapsed(elapsed)
			if elapsed >= m.timeout {
				m.log.Info("Session timed out", zap.String("session_id", s.ID))
				m.remove(s.ID)
				return
			}
		}
	}
}

// Get returns the live session for id.
func (m *Manager) Get(id string) (*Session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	elapsed := m.now().Sub(s.StartedAt)
	if elapsed >= m.timeout {
		m.remove(id)
		return nil, ErrExpired
	}
	s.setElapsed(elapsed)
	return s, nil
}

// End signs the session out. It reports whether the session was live.
func (m *Manager) End(id string) bool {
	return m.remove(id)
}

func (m *Manager) remove(id string) bool {
	m.mu.Lock()
	s, ok := m.sessions[id]
	delete(m.sessions, id)
	m.mu.Unlock()
	if ok {
		s.cancel()
	}
	return ok
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// Close ends every session and waits for their timers to stop.
func (m *Manager) Close() {
	m.mu.Lock()
	all := m.sessions
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	for _, s := range all {
		s.cancel()
	}
	m.wg.Wait()
}
