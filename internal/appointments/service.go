package appointments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/wolfman30/dental-premium/internal/clinic"
	"github.com/wolfman30/dental-premium/internal/observability/metrics"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

var appointmentsTracer = otel.Tracer("dental.internal.appointments")

// ServiceCatalog resolves service ids to catalog entries.
type ServiceCatalog interface {
	GetService(ctx context.Context, id string) (clinic.ServiceOffering, error)
}

// EventPublisher is notified after a booking is stored.
type EventPublisher interface {
	AppointmentRequested(ctx context.Context, appt Appointment) error
}

// Service implements appointment intake and staff triage.
type Service struct {
	repo      *Repository
	catalog   ServiceCatalog
	publisher EventPublisher
	metrics   *metrics.BookingMetrics
	region    string
	logger    *logging.Logger
	now       func() time.Time
}

// Option customises a Service.
type Option func(*Service)

// WithPublisher sets the booking event publisher.
func WithPublisher(p EventPublisher) Option {
	return func(s *Service) { s.publisher = p }
}

// WithMetrics records intake and triage counters.
func WithMetrics(m *metrics.BookingMetrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithPhoneRegion sets the default region used to normalize phone numbers.
func WithPhoneRegion(region string) Option {
	return func(s *Service) { s.region = region }
}

// NewService constructs an appointments service.
func NewService(repo *Repository, catalog ServiceCatalog, logger *logging.Logger, opts ...Option) *Service {
	if repo == nil {
		panic("appointments: repository required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	s := &Service{
		repo:    repo,
		catalog: catalog,
		region:  "PE",
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create stores a new pending appointment with a server-assigned id and
// timestamp. Service and location ids are not checked against the catalog.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.create")
	defer span.End()

	name := strings.TrimSpace(req.PatientName)
	if name == "" {
		return Appointment{}, ErrMissingPatientName
	}
	phone := NormalizePhone(req.Phone, s.region)
	email := strings.TrimSpace(req.Email)
	if phone == "" && email == "" {
		return Appointment{}, ErrMissingContact
	}

	appt := Appointment{
		ID:          uuid.NewString(),
		PatientName: name,
		Email:       email,
		Phone:       phone,
		ServiceID:   strings.TrimSpace(req.ServiceID),
		ServiceName: s.resolveServiceName(ctx, req),
		LocationID:  strings.TrimSpace(req.LocationID),
		Date:        strings.TrimSpace(req.Date),
		Time:        strings.TrimSpace(req.Time),
		Notes:       strings.TrimSpace(req.Notes),
		Status:      StatusPending,
		CreatedAt:   s.now(),
	}
	span.SetAttributes(
		attribute.String("dental.appointment_id", appt.ID),
		attribute.String("dental.location_id", appt.LocationID),
	)

	if err := s.repo.Insert(ctx, appt); err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}
	s.metrics.ObserveCreated(appt.LocationID)
	s.logger.Info("appointment requested", "appointment_id", appt.ID, "service", appt.ServiceName, "location_id", appt.LocationID)

	if s.publisher != nil {
		if err := s.publisher.AppointmentRequested(ctx, appt); err != nil {
			s.logger.Warn("failed to publish appointment event", "appointment_id", appt.ID, "error", err)
		}
	}
	return appt, nil
}

func (s *Service) resolveServiceName(ctx context.Context, req CreateRequest) string {
	if s.catalog != nil && strings.TrimSpace(req.ServiceID) != "" {
		svc, err := s.catalog.GetService(ctx, strings.TrimSpace(req.ServiceID))
		if err == nil && svc.Name != "" {
			return svc.Name
		}
	}
	if name := strings.TrimSpace(req.ServiceName); name != "" {
		return name
	}
	return DefaultServiceName
}

// List returns appointments newest first. An empty status returns all.
func (s *Service) List(ctx context.Context, status Status) ([]Appointment, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	if status == "" {
		return all, nil
	}
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}
	out := make([]Appointment, 0, len(all))
	for _, appt := range all {
		if appt.Status == status {
			out = append(out, appt)
		}
	}
	return out, nil
}

// SetStatus changes only the status of an appointment.
func (s *Service) SetStatus(ctx context.Context, id string, status Status) (Appointment, error) {
	ctx, span := appointmentsTracer.Start(ctx, "appointments.set_status")
	defer span.End()

	if !status.Valid() {
		return Appointment{}, fmt.Errorf("%w: %q", ErrInvalidStatus, status)
	}
	appt, err := s.repo.Get(ctx, id)
	if err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}
	appt.Status = status
	if err := s.repo.Replace(ctx, appt); err != nil {
		span.RecordError(err)
		return Appointment{}, err
	}
	s.metrics.ObserveStatusChange(string(status))
	s.logger.Info("appointment status changed", "appointment_id", id, "status", status)
	return appt, nil
}

// Delete removes an appointment. Unknown ids are ignored.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.logger.Info("appointment deleted", "appointment_id", id)
	return nil
}

// Stats counts appointments per status.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	all, err := s.repo.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	stats := Stats{Total: len(all)}
	for _, appt := range all {
		switch appt.Status {
		case StatusPending:
			stats.Pending++
		case StatusConfirmed:
			stats.Confirmed++
		case StatusCancelled:
			stats.Cancelled++
		}
	}
	return stats, nil
}
