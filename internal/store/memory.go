package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"citas/internal/models"
)

// MemoryAppointmentStore keeps appointments in process memory. It backs
// STORE_DRIVER=memory and the tests.
type MemoryAppointmentStore struct {
	mu       sync.RWMutex
	nextID   uint
	records  map[uint]models.Appointment
	activity []models.ActivityLog
	now      func() time.Time
}

func NewMemoryAppointmentStore() *MemoryAppointmentStore {
	return &MemoryAppointmentStore{
		nextID:  1,
		records: make(map[uint]models.Appointment),
		now:     time.Now,
	}
}

func (s *MemoryAppointmentStore) Insert(_ context.Context, a *models.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	a.ID = s.nextID
	s.nextID++
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	s.records[a.ID] = *a
	return nil
}

func (s *MemoryAppointmentStore) FindAll(_ context.Context) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(models.Appointment) bool { return true }), nil
}

func (s *MemoryAppointmentStore) FindByID(_ context.Context, id uint) (*models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.records[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (s *MemoryAppointmentStore) FindByOwner(_ context.Context, ownerID string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(a models.Appointment) bool { return a.OwnerID == ownerID }), nil
}

func (s *MemoryAppointmentStore) Patch(_ context.Context, id uint, columns map[string]any) ([]models.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.records[id]
	if !ok {
		return []models.Appointment{}, nil
	}
	for col, v := range columns {
		if err := assign(&a, col, v); err != nil {
			return nil, fmt.Errorf("update appointment %d: %w", id, err)
		}
	}
	a.UpdatedAt = s.now()
	s.records[id] = a
	return []models.Appointment{a}, nil
}

func (s *MemoryAppointmentStore) FindScheduledBetween(_ context.Context, fromDate, toDate string) ([]models.Appointment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.sorted(func(a models.Appointment) bool {
		return a.Status == models.StatusScheduled && a.Date >= fromDate && a.Date <= toDate
	}), nil
}

func (s *MemoryAppointmentStore) LogActivity(_ context.Context, entry *models.ActivityLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry.ID = uint(len(s.activity) + 1)
	if entry.Timestamp.IsZero() {
		entry.Timestamp = s.now()
	}
	s.activity = append(s.activity, *entry)
	return nil
}

// Activity returns a copy of the activity log.
func (s *MemoryAppointmentStore) Activity() []models.ActivityLog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]models.ActivityLog(nil), s.activity...)
}

func (s *MemoryAppointmentStore) sorted(keep func(models.Appointment) bool) []models.Appointment {
	out := make([]models.Appointment, 0, len(s.records))
	for _, a := range s.records {
		if keep(a) {
			out = append(out, a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func assign(a *models.Appointment, column string, v any) error {
	str := func() (string, error) {
		switch t := v.(type) {
		case string:
			return t, nil
		case models.Status:
			return string(t), nil
		case fmt.Stringer:
			return t.String(), nil
		case float64, int, int64, uint:
			return fmt.Sprint(t), nil
		}
		return "", fmt.Errorf("column %s: unsupported value %T", column, v)
	}

	switch column {
	case "cancellation_reason":
		if v == nil {
			a.CancellationReason = nil
			return nil
		}
		s, err := str()
		if err != nil {
			return err
		}
		a.CancellationReason = &s
		return nil
	case "owner_id", "specialty", "doctor", "location", "date", "time", "status":
	default:
		return fmt.Errorf("%w %q", ErrUnknownColumn, column)
	}

	s, err := str()
	if err != nil {
		return err
	}
	switch column {
	case "owner_id":
		a.OwnerID = s
	case "specialty":
		a.Specialty = s
	case "doctor":
		a.Doctor = s
	case "location":
		a.Location = s
	case "date":
		a.Date = s
	case "time":
		a.Time = s
	case "status":
		a.Status = models.Status(s)
	}
	return nil
}

// MemoryReminderLedger implements ReminderLedger in memory.
type MemoryReminderLedger struct {
	mu   sync.Mutex
	sent map[string]models.ReminderSent
}

func NewMemoryReminderLedger() *MemoryReminderLedger {
	return &MemoryReminderLedger{sent: make(map[string]models.ReminderSent)}
}

func ledgerKey(s *models.ReminderSent) string {
	return fmt.Sprintf("%d/%s/%s", s.AppointmentID, s.Channel, s.Window)
}

func (l *MemoryReminderLedger) Claim(_ context.Context, sent *models.ReminderSent) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	key := ledgerKey(sent)
	if _, ok := l.sent[key]; ok {
		return false, nil
	}
	sent.ID = uint(len(l.sent) + 1)
	l.sent[key] = *sent
	return true, nil
}

func (l *MemoryReminderLedger) Release(_ context.Context, sent *models.ReminderSent) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.sent, ledgerKey(sent))
	return nil
}

// Len returns the number of recorded sends.
func (l *MemoryReminderLedger) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.sent)
}

// MemoryLocalStore implements LocalStore in memory.
type MemoryLocalStore struct {
	mu       sync.RWMutex
	prefs    map[string]models.ReminderPreferences
	contacts map[string]models.User
}

func NewMemoryLocalStore() *MemoryLocalStore {
	return &MemoryLocalStore{
		prefs:    make(map[string]models.ReminderPreferences),
		contacts: make(map[string]models.User),
	}
}

func (m *MemoryLocalStore) Load(_ context.Context, ownerID string) (models.ReminderPreferences, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.prefs[ownerID]
	if !ok {
		return models.ReminderPreferences{}, nil
	}
	return p.Clone(), nil
}

func (m *MemoryLocalStore) Save(_ context.Context, ownerID string, prefs models.ReminderPreferences) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.prefs[ownerID] = prefs.Clone()
	return nil
}

func (m *MemoryLocalStore) SaveContact(_ context.Context, user models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.contacts[user.ID] = user
	return nil
}

func (m *MemoryLocalStore) Contact(_ context.Context, ownerID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	u, ok := m.contacts[ownerID]
	if !ok {
		return nil, nil
	}
	return &u, nil
}
