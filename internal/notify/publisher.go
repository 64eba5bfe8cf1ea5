package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/dental-premium/internal/appointments"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

// Publisher enqueues booking events for the notification worker.
type Publisher struct {
	queue  Queue
	logger *logging.Logger
}

// NewPublisher creates a queue-backed publisher.
func NewPublisher(queue Queue, logger *logging.Logger) *Publisher {
	if queue == nil {
		panic("notify: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Publisher{queue: queue, logger: logger}
}

// AppointmentRequested publishes an appointment.requested.v1 event.
func (p *Publisher) AppointmentRequested(ctx context.Context, appt appointments.Appointment) error {
	env := Envelope{
		ID:         uuid.NewString(),
		Type:       EventAppointmentRequested,
		OccurredAt: time.Now().UTC(),
		Payload:    appointmentRequestedFrom(appt),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("notify: encode event: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("notify: enqueue event: %w", err)
	}
	p.logger.Debug("booking event enqueued", "event_id", env.ID, "appointment_id", appt.ID)
	return nil
}

var _ appointments.EventPublisher = (*Publisher)(nil)
