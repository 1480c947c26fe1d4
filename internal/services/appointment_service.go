package services

import (
	"context"
	"sort"
	"time"

	"citas/internal/models"
	"citas/internal/store"

	"go.uber.org/zap"
)

const creationSMSTimeout = 30 * time.Second

// ListQuery selects appointments. Set filters are combined; an ID owned by
// someone other than OwnerID matches nothing. Ids start at 1, so a zero ID
// means no id filter.
type ListQuery struct {
	ID      uint
	OwnerID string
}

// AppointmentService owns the appointment lifecycle.
type AppointmentService struct {
	store       store.AppointmentStore
	sms         SMSSender
	tasks       *TaskGroup
	log         *zap.Logger
	metrics     *Metrics
	strictPatch bool
}

// AppointmentServiceConfig groups the collaborators of an AppointmentService.
type AppointmentServiceConfig struct {
	Store   store.AppointmentStore
	SMS     SMSSender
	Tasks   *TaskGroup
	Logger  *zap.Logger
	Metrics *Metrics
	// StrictPatch limits Update to the descriptive fields.
	StrictPatch bool
}

func NewAppointmentService(cfg AppointmentServiceConfig) *AppointmentService {
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	tasks := cfg.Tasks
	if tasks == nil {
		tasks = NewTaskGroup(log, cfg.Metrics)
	}
	return &AppointmentService{
		store:       cfg.Store,
		sms:         cfg.SMS,
		tasks:       tasks,
		log:         log,
		metrics:     cfg.Metrics,
		strictPatch: cfg.StrictPatch,
	}
}

// List returns the matching appointments. Store failures are logged and
// yield an empty result.
func (s *AppointmentService) List(ctx context.Context, q ListQuery) []models.Appointment {
	switch {
	case q.ID != 0:
		a, err := s.store.FindByID(ctx, q.ID)
		if err != nil {
			s.log.Error("Error fetching appointment", zap.Uint("id", q.ID), zap.Error(err))
			return []models.Appointment{}
		}
		if a == nil || (q.OwnerID != "" && a.OwnerID != q.OwnerID) {
			return []models.Appointment{}
		}
		return []models.Appointment{*a}
	case q.OwnerID != "":
		out, err := s.store.FindByOwner(ctx, q.OwnerID)
		if err != nil {
			s.log.Error("Error fetching appointments", zap.String("owner_id", q.OwnerID), zap.Error(err))
			return []models.Appointment{}
		}
		return nonNil(out)
	default:
		out, err := s.store.FindAll(ctx)
		if err != nil {
			s.log.Error("Error fetching appointments", zap.Error(err))
			return []models.Appointment{}
		}
		return nonNil(out)
	}
}

// Create validates and inserts a Scheduled appointment. When req.Phone is set
// a confirmation SMS is sent in the background; its outcome never affects the
// result.
func (s *AppointmentService) Create(ctx context.Context, req models.CreateAppointmentRequest) (*models.Appointment, error) {
	if missing := req.MissingFields(); len(missing) > 0 {
		return nil, &ValidationError{Fields: missing, Message: "Missing required fields"}
	}

	a := &models.Appointment{
		OwnerID:   string(req.OwnerID),
		Specialty: req.Specialty,
		Doctor:    req.Doctor,
		Location:  req.Location,
		Date:      req.Date,
		Time:      req.Time,
		Status:    models.StatusScheduled,
	}
	err := s.store.Insert(ctx, a)
	s.metrics.ObserveAppointmentOp("create", err)
	if err != nil {
		return nil, &StoreError{Op: "insert", Err: err}
	}

	s.logActivity(ctx, *a, models.EventCreate, map[string]interface{}{
		"specialty": a.Specialty,
		"date":      a.Date,
		"time":      a.Time,
	})

	if req.Phone != "" && s.sms != nil {
		s.sendCreationSMS(req.Phone, *a)
	}
	return a, nil
}

func (s *AppointmentService) sendCreationSMS(phone string, a models.Appointment) {
	body := creationSMSBody(a)
	s.tasks.Go("creation-sms", func(ctx context.Context) {
		ctx, cancel := context.WithTimeout(ctx, creationSMSTimeout)
		defer cancel()

		err := s.sms.SendSMS(ctx, phone, body)
		s.metrics.ObserveNotification(models.ChannelSMS, "creation", err)
		if err != nil {
			s.log.Warn("Error sending confirmation SMS",
				zap.Uint("appointment_id", a.ID),
				zap.Error(err))
			return
		}
		s.log.Info("Confirmation SMS sent", zap.Uint("appointment_id", a.ID))
	})
}

// Update applies patch to the appointment with the given id. The "id" key is
// ignored. Values are written as given.
func (s *AppointmentService) Update(ctx context.Context, id uint, patch map[string]interface{}) ([]models.Appointment, error) {
	if id == 0 {
		return nil, missingIDError()
	}

	columns, err := s.patchColumns(patch)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return s.List(ctx, ListQuery{ID: id}), nil
	}

	out, err := s.store.Patch(ctx, id, columns)
	s.metrics.ObserveAppointmentOp("update", err)
	if err != nil {
		return nil, &StoreError{Op: "update", Err: err}
	}
	for _, a := range out {
		s.logActivity(ctx, a, models.EventUpdate, patchDetails(patch))
	}
	return nonNil(out), nil
}

// Cancel marks the appointment Cancelled by the user. Cancelling twice leaves
// the same state.
func (s *AppointmentService) Cancel(ctx context.Context, id uint) ([]models.Appointment, error) {
	if id == 0 {
		return nil, missingIDError()
	}

	out, err := s.store.Patch(ctx, id, map[string]any{
		"status":              string(models.StatusCancelled),
		"cancellation_reason": models.CancelledByUser,
	})
	s.metrics.ObserveAppointmentOp("cancel", err)
	if err != nil {
		return nil, &StoreError{Op: "cancel", Err: err}
	}
	for _, a := range out {
		s.logActivity(ctx, a, models.EventCancel, map[string]interface{}{
			"reason": models.CancelledByUser,
		})
	}
	return nonNil(out), nil
}

func (s *AppointmentService) patchColumns(patch map[string]interface{}) (map[string]any, error) {
	columns := make(map[string]any, len(patch))
	var rejected []string
	for field, v := range patch {
		if field == "id" {
			continue
		}
		if s.strictPatch && !models.DescriptiveFields[field] {
			rejected = append(rejected, field)
			continue
		}
		col, ok := models.PatchColumns[field]
		if !ok {
			// passed through so the store reports it
			col = field
		}
		columns[col] = v
	}
	if len(rejected) > 0 {
		sort.Strings(rejected)
		return nil, &ValidationError{Fields: rejected, Message: "Field not editable"}
	}
	return columns, nil
}

func (s *AppointmentService) logActivity(ctx context.Context, a models.Appointment, event string, details map[string]interface{}) {
	entry := &models.ActivityLog{
		AppointmentID: a.ID,
		OwnerID:       a.OwnerID,
		EventType:     event,
		Details:       details,
	}
	if err := s.store.LogActivity(ctx, entry); err != nil {
		s.log.Warn("Failed to record appointment activity",
			zap.Uint("appointment_id", a.ID),
			zap.String("event", event),
			zap.Error(err))
	}
}

func patchDetails(patch map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(patch))
	for k, v := range patch {
		if k == "id" {
			continue
		}
		out[k] = v
	}
	return out
}

func nonNil(in []models.Appointment) []models.Appointment {
	if in == nil {
		return []models.Appointment{}
	}
	return in
}
