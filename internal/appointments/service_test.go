package appointments

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfman30/dental-premium/internal/clinic"
	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

type stubCatalog map[string]clinic.ServiceOffering

func (c stubCatalog) GetService(_ context.Context, id string) (clinic.ServiceOffering, error) {
	if svc, ok := c[id]; ok {
		return svc, nil
	}
	return clinic.ServiceOffering{}, clinic.ErrServiceNotFound
}

type recordingPublisher struct {
	events []Appointment
	err    error
}

func (p *recordingPublisher) AppointmentRequested(_ context.Context, appt Appointment) error {
	p.events = append(p.events, appt)
	return p.err
}

// fixedClock hands out strictly increasing timestamps.
func fixedClock(start time.Time) func() time.Time {
	next := start
	return func() time.Time {
		t := next
		next = next.Add(time.Second)
		return t
	}
}

func newTestService(t *testing.T, opts ...Option) *Service {
	t.Helper()
	catalog := stubCatalog{"1": {ID: "1", Name: "Implantes Dentales", Price: 1200}}
	svc := NewService(NewRepository(docstore.NewMemoryStore(), nil), catalog, logging.Default(), opts...)
	svc.now = fixedClock(time.Date(2025, 1, 5, 15, 0, 0, 0, time.UTC))
	return svc
}

func anaRequest() CreateRequest {
	return CreateRequest{
		PatientName: "Ana",
		Phone:       "+51900000000",
		ServiceID:   "1",
		Date:        "2025-01-10",
		Time:        "10:00",
	}
}

func TestCreateAppointmentIsPendingAndFirst(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{PatientName: "Luis", Email: "luis@example.com"})
	require.NoError(t, err)

	appt, err := svc.Create(ctx, anaRequest())
	require.NoError(t, err)
	assert.Equal(t, StatusPending, appt.Status)
	assert.False(t, appt.CreatedAt.IsZero())
	assert.NotEmpty(t, appt.ID)
	assert.Equal(t, "Implantes Dentales", appt.ServiceName)

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, appt.ID, list[0].ID)
	assert.Equal(t, "Ana", list[0].PatientName)
}

func TestCreateServiceNameFallback(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	appt, err := svc.Create(ctx, CreateRequest{PatientName: "Rosa", Phone: "987654321", ServiceID: "does-not-exist"})
	require.NoError(t, err)
	assert.Equal(t, DefaultServiceName, appt.ServiceName)
	assert.Equal(t, "does-not-exist", appt.ServiceID, "unknown service ids are kept")

	appt, err = svc.Create(ctx, CreateRequest{PatientName: "Rosa", Phone: "987654321", ServiceName: "Limpieza"})
	require.NoError(t, err)
	assert.Equal(t, "Limpieza", appt.ServiceName)
}

func TestCreateValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, CreateRequest{Phone: "987654321"})
	assert.ErrorIs(t, err, ErrMissingPatientName)

	_, err = svc.Create(ctx, CreateRequest{PatientName: "Ana"})
	assert.ErrorIs(t, err, ErrMissingContact)
}

func TestCreatePublishesEventBestEffort(t *testing.T) {
	pub := &recordingPublisher{err: errors.New("queue down")}
	svc := newTestService(t, WithPublisher(pub))

	appt, err := svc.Create(context.Background(), anaRequest())
	require.NoError(t, err, "publish failures must not fail the booking")
	require.Len(t, pub.events, 1)
	assert.Equal(t, appt.ID, pub.events[0].ID)
}

func TestSetStatusKeepsOtherFields(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, anaRequest())
	require.NoError(t, err)

	updated, err := svc.SetStatus(ctx, created.ID, StatusConfirmed)
	require.NoError(t, err)
	assert.Equal(t, StatusConfirmed, updated.Status)

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, list, 1)

	want := created
	want.Status = StatusConfirmed
	assert.Equal(t, want.ID, list[0].ID)
	assert.Equal(t, want.PatientName, list[0].PatientName)
	assert.Equal(t, want.Phone, list[0].Phone)
	assert.Equal(t, want.ServiceID, list[0].ServiceID)
	assert.Equal(t, want.Date, list[0].Date)
	assert.Equal(t, want.Time, list[0].Time)
	assert.True(t, want.CreatedAt.Equal(list[0].CreatedAt))
	assert.Equal(t, StatusConfirmed, list[0].Status)
}

func TestSetStatusErrors(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.SetStatus(ctx, "missing", StatusConfirmed)
	assert.ErrorIs(t, err, ErrAppointmentNotFound)

	created, err := svc.Create(ctx, anaRequest())
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, created.ID, Status("archived"))
	assert.ErrorIs(t, err, ErrInvalidStatus)
}

func TestListFilterAndStats(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.Create(ctx, anaRequest())
	require.NoError(t, err)
	b, err := svc.Create(ctx, anaRequest())
	require.NoError(t, err)
	_, err = svc.Create(ctx, anaRequest())
	require.NoError(t, err)

	_, err = svc.SetStatus(ctx, a.ID, StatusConfirmed)
	require.NoError(t, err)
	_, err = svc.SetStatus(ctx, b.ID, StatusCancelled)
	require.NoError(t, err)

	pending, err := svc.List(ctx, StatusPending)
	require.NoError(t, err)
	assert.Len(t, pending, 1)

	stats, err := svc.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 3, Pending: 1, Confirmed: 1, Cancelled: 1}, stats)
}

func TestDeleteIsIdempotent(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	created, err := svc.Create(ctx, anaRequest())
	require.NoError(t, err)
	require.NoError(t, svc.Delete(ctx, created.ID))
	require.NoError(t, svc.Delete(ctx, created.ID))

	list, err := svc.List(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestNormalizePhone(t *testing.T) {
	tests := []struct {
		raw    string
		region string
		want   string
	}{
		{"987 654 321", "PE", "+51987654321"},
		{"+51 987 654 321", "PE", "+51987654321"},
		{"  ", "PE", ""},
		{"call me maybe", "PE", "call me maybe"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePhone(tt.raw, tt.region), tt.raw)
	}
}
