package session

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"citas/internal/models"
	"citas/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestManager(timeout time.Duration) (*Manager, *store.MemoryLocalStore) {
	contacts := store.NewMemoryLocalStore()
	m := NewManager(timeout, contacts, nil)
	m.tick = 5 * time.Millisecond
	return m, contacts
}

func TestManager_StartGetEnd(t *testing.T) {
	m, contacts := newTestManager(time.Minute)
	defer m.Close()

	s, err := m.Start(context.Background(), models.User{ID: "u1", Name: "Ana", Email: "ana@example.com"})
	require.NoError(t, err)
	assert.NotEmpty(t, s.ID)

	got, err := m.Get(s.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ana", got.User.Name)

	c, err := contacts.Contact(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, c)
	assert.Equal(t, "ana@example.com", c.Email)

	assert.True(t, m.End(s.ID))
	assert.False(t, m.End(s.ID))
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestManager_RequiresUserID(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	defer m.Close()
	_, err := m.Start(context.Background(), models.User{Name: "Ana"})
	assert.Error(t, err)
}

func TestManager_ExpiresAfterTimeout(t *testing.T) {
	m, _ := newTestManager(30 * time.Millisecond)
	defer m.Close()

	s, err := m.Start(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)

	assert.Eventually(t, func() bool { return m.Len() == 0 }, 2*time.Second, 5*time.Millisecond)
	_, err = m.Get(s.ID)
	assert.Error(t, err)
}

func TestManager_GetChecksDeadline(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	m.tick = time.Hour
	defer m.Close()

	start := time.Date(2030, 5, 10, 8, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return start }
	s, err := m.Start(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)

	m.now = func() time.Time { return start.Add(65 * time.Second) }
	_, err = m.Get(s.ID)
	assert.ErrorIs(t, err, ErrExpired)
}

func TestSession_Info(t *testing.T) {
	s := &Session{ID: "abc", User: models.User{ID: "u1"}, cancel: func() {}}
	s.setElapsed(125 * time.Second)

	info := s.Info(15 * time.Minute)
	assert.Equal(t, "02:05", info.Elapsed)
	assert.Equal(t, 775, info.ExpiresIn)

	s.setElapsed(20 * time.Minute)
	assert.Zero(t, s.Info(15*time.Minute).ExpiresIn)
}

func TestManager_CloseStopsTimers(t *testing.T) {
	m, _ := newTestManager(time.Minute)
	for i := 0; i < 3; i++ {
		_, err := m.Start(context.Background(), models.User{ID: "u1"})
		require.NoError(t, err)
	}
	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Close did not return")
	}
	assert.Equal(t, 0, m.Len())
}

func TestRequired(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m, _ := newTestManager(time.Minute)
	defer m.Close()

	s, err := m.Start(context.Background(), models.User{ID: "u1"})
	require.NoError(t, err)

	r := gin.New()
	r.GET("/me", Required(m), func(c *gin.Context) {
		c.String(http.StatusOK, FromContext(c).User.ID)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/me", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: CookieName, Value: s.ID})
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "u1", w.Body.String())

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderName, s.ID)
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	req = httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(HeaderName, "unknown")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
