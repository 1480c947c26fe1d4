package services

import (
	"context"
	"errors"
	"sync"

	"citas/internal/models"
)

type sentMessage struct {
	To      string
	Subject string
	Body    string
}

type fakeSender struct {
	mu   sync.Mutex
	err  error
	sent []sentMessage
}

func newFakeSender() *fakeSender {
	return &fakeSender{}
}

func (f *fakeSender) SendEmail(_ context.Context, to, subject, body string) error {
	return f.record(sentMessage{To: to, Subject: subject, Body: body})
}

func (f *fakeSender) SendSMS(_ context.Context, to, body string) error {
	return f.record(sentMessage{To: to, Body: body})
}

func (f *fakeSender) record(m sentMessage) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m)
	return nil
}

func (f *fakeSender) Sent() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

var errBoom = errors.New("boom")

// failingStore fails every call.
type failingStore struct{}

func (failingStore) Insert(context.Context, *models.Appointment) error { return errBoom }
func (failingStore) FindAll(context.Context) ([]models.Appointment, error) {
	return nil, errBoom
}
func (failingStore) FindByID(context.Context, uint) (*models.Appointment, error) {
	return nil, errBoom
}
func (failingStore) FindByOwner(context.Context, string) ([]models.Appointment, error) {
	return nil, errBoom
}
func (failingStore) Patch(context.Context, uint, map[string]any) ([]models.Appointment, error) {
	return nil, errBoom
}
func (failingStore) FindScheduledBetween(context.Context, string, string) ([]models.Appointment, error) {
	return nil, errBoom
}
func (failingStore) LogActivity(context.Context, *models.ActivityLog) error { return errBoom }
