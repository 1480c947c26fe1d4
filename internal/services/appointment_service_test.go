package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"citas/internal/models"
	"citas/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validRequest() models.CreateAppointmentRequest {
	return models.CreateAppointmentRequest{
		OwnerID:   "u1",
		Specialty: "Cardiology",
		Doctor:    "Dr. Ruiz",
		Date:      "2030-05-10",
		Time:      "10:00",
		Location:  "Room 3",
	}
}

func newAppointmentService(t *testing.T, st store.AppointmentStore, sms SMSSender, strict bool) (*AppointmentService, *TaskGroup, *Metrics) {
	t.Helper()
	metrics := MustNewMetrics(prometheus.NewRegistry())
	tasks := NewTaskGroup(nil, metrics)
	svc := NewAppointmentService(AppointmentServiceConfig{
		Store:       st,
		SMS:         sms,
		Tasks:       tasks,
		Metrics:     metrics,
		StrictPatch: strict,
	})
	return svc, tasks, metrics
}

func waitTasks(t *testing.T, tasks *TaskGroup) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, tasks.Wait(ctx))
}

func TestCreate_MissingFieldsInsertsNothing(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	svc, _, _ := newAppointmentService(t, st, newFakeSender(), false)

	req := validRequest()
	req.Doctor = "  "
	req.Location = ""

	a, err := svc.Create(context.Background(), req)
	assert.Nil(t, a)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"doctor", "location"}, verr.Fields)

	all, _ := st.FindAll(context.Background())
	assert.Empty(t, all)
}

func TestCreate_WithoutPhoneSendsNothing(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	sms := newFakeSender()
	svc, tasks, _ := newAppointmentService(t, st, sms, false)

	a, err := svc.Create(context.Background(), validRequest())
	require.NoError(t, err)
	waitTasks(t, tasks)

	assert.Equal(t, models.StatusScheduled, a.Status)
	assert.Nil(t, a.CancellationReason)
	assert.NotZero(t, a.ID)
	assert.Empty(t, sms.Sent())

	log := st.Activity()
	require.Len(t, log, 1)
	assert.Equal(t, models.EventCreate, log[0].EventType)
}

func TestCreate_SendsConfirmationSMS(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	sms := newFakeSender()
	svc, tasks, metrics := newAppointmentService(t, st, sms, false)

	req := validRequest()
	req.Phone = "+34600000000"
	_, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	waitTasks(t, tasks)

	sent := sms.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "+34600000000", sent[0].To)
	assert.Equal(t, "Your Cardiology appointment is scheduled for 2030-05-10 at 10:00.", sent[0].Body)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues("sms", "creation", "ok")))
}

func TestCreate_SMSFailureDoesNotAffectResult(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	sms := newFakeSender()
	sms.err = errBoom
	svc, tasks, metrics := newAppointmentService(t, st, sms, false)

	req := validRequest()
	req.Phone = "+34600000000"
	a, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, a)
	waitTasks(t, tasks)

	got := svc.List(context.Background(), ListQuery{ID: a.ID})
	require.Len(t, got, 1)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.notifications.WithLabelValues("sms", "creation", "error")))
}

func TestCreate_StoreFailure(t *testing.T) {
	svc, _, _ := newAppointmentService(t, failingStore{}, newFakeSender(), false)

	_, err := svc.Create(context.Background(), validRequest())
	var serr *StoreError
	require.ErrorAs(t, err, &serr)
	assert.True(t, errors.Is(err, errBoom))
}

func TestList_Filters(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	svc, _, _ := newAppointmentService(t, st, nil, false)
	ctx := context.Background()

	a, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)
	other := validRequest()
	other.OwnerID = "u2"
	_, err = svc.Create(ctx, other)
	require.NoError(t, err)

	assert.Len(t, svc.List(ctx, ListQuery{}), 2)
	assert.Len(t, svc.List(ctx, ListQuery{OwnerID: "u1"}), 1)
	assert.Len(t, svc.List(ctx, ListQuery{ID: a.ID}), 1)
	assert.Empty(t, svc.List(ctx, ListQuery{ID: 999}))

	assert.Len(t, svc.List(ctx, ListQuery{ID: a.ID, OwnerID: "u1"}), 1)
	assert.Empty(t, svc.List(ctx, ListQuery{ID: a.ID, OwnerID: "u2"}))
}

func TestList_StoreFailureDegradesToEmpty(t *testing.T) {
	svc, _, _ := newAppointmentService(t, failingStore{}, nil, false)
	ctx := context.Background()

	assert.NotNil(t, svc.List(ctx, ListQuery{}))
	assert.Empty(t, svc.List(ctx, ListQuery{}))
	assert.Empty(t, svc.List(ctx, ListQuery{OwnerID: "u1"}))
	assert.Empty(t, svc.List(ctx, ListQuery{ID: 1}))
}

func TestCancel_SetsStatusAndReasonIdempotently(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	svc, _, _ := newAppointmentService(t, st, nil, false)
	ctx := context.Background()

	a, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		out, err := svc.Cancel(ctx, a.ID)
		require.NoError(t, err)
		require.Len(t, out, 1)
		assert.Equal(t, models.StatusCancelled, out[0].Status)
		require.NotNil(t, out[0].CancellationReason)
		assert.Equal(t, models.CancelledByUser, *out[0].CancellationReason)
	}

	got := svc.List(ctx, ListQuery{ID: a.ID})
	require.Len(t, got, 1)
	assert.Equal(t, models.StatusCancelled, got[0].Status)
}

func TestCancel_MissingID(t *testing.T) {
	svc, _, _ := newAppointmentService(t, store.NewMemoryAppointmentStore(), nil, false)
	_, err := svc.Cancel(context.Background(), 0)
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestUpdate_PermissiveAppliesVerbatim(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	svc, _, _ := newAppointmentService(t, st, nil, false)
	ctx := context.Background()

	a, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	out, err := svc.Update(ctx, a.ID, map[string]interface{}{
		"id":     float64(77),
		"status": "Cancelled",
		"doctor": "Dr. Vega",
	})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, a.ID, out[0].ID)
	assert.Equal(t, models.StatusCancelled, out[0].Status)
	assert.Equal(t, "Dr. Vega", out[0].Doctor)
}

func TestUpdate_UnknownFieldIsStoreError(t *testing.T) {
	svc, _, _ := newAppointmentService(t, store.NewMemoryAppointmentStore(), nil, false)
	ctx := context.Background()
	a, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, map[string]interface{}{"colour": "red"})
	var serr *StoreError
	assert.ErrorAs(t, err, &serr)
}

func TestUpdate_StrictRejectsNonDescriptiveFields(t *testing.T) {
	st := store.NewMemoryAppointmentStore()
	svc, _, _ := newAppointmentService(t, st, nil, true)
	ctx := context.Background()

	a, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	_, err = svc.Update(ctx, a.ID, map[string]interface{}{"status": "Cancelled", "ownerId": "u9", "time": "11:00"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, []string{"ownerId", "status"}, verr.Fields)

	out, err := svc.Update(ctx, a.ID, map[string]interface{}{"time": "11:00"})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "11:00", out[0].Time)
	assert.Equal(t, models.StatusScheduled, out[0].Status)
}

func TestUpdate_MissingID(t *testing.T) {
	svc, _, _ := newAppointmentService(t, store.NewMemoryAppointmentStore(), nil, false)
	_, err := svc.Update(context.Background(), 0, map[string]interface{}{"doctor": "x"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "Missing id", verr.Error())
}

func TestUpdate_EmptyPatchReturnsCurrentRecord(t *testing.T) {
	svc, _, _ := newAppointmentService(t, store.NewMemoryAppointmentStore(), nil, false)
	ctx := context.Background()
	a, err := svc.Create(ctx, validRequest())
	require.NoError(t, err)

	out, err := svc.Update(ctx, a.ID, map[string]interface{}{"id": a.ID})
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, a.Doctor, out[0].Doctor)
}
