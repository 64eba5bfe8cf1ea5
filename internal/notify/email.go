package notify

import (
	"context"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/dental-premium/internal/clinic"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

const (
	defaultFromName     = "Dental Premium"
	appointmentCategory = "appointment-request"
	noLocationLabel     = "Sin sede indicada"
)

// EmailSender delivers booking notifications to clinic staff.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is one staff notification. ReplyTo is the patient address
// when one was given, so staff can answer from their inbox.
type EmailMessage struct {
	To            string
	ToName        string
	ReplyTo       string
	ReplyToName   string
	Subject       string
	Body          string
	HTML          string
	AppointmentID string
}

type emailField struct {
	label string
	value string
}

// appointmentFields lists the rows shown to staff, skipping empty optional ones.
func appointmentFields(cfg clinic.Config, evt AppointmentRequestedV1) []emailField {
	location := evt.LocationID
	if loc, ok := cfg.Location(evt.LocationID); ok {
		location = loc.Name
	}
	if location == "" {
		location = noLocationLabel
	}

	fields := []emailField{{"Paciente", evt.PatientName}}
	if evt.Phone != "" {
		fields = append(fields, emailField{"Teléfono", evt.Phone})
	}
	if evt.Email != "" {
		fields = append(fields, emailField{"Email", evt.Email})
	}
	fields = append(fields,
		emailField{"Servicio", evt.ServiceName},
		emailField{"Sede", location},
	)
	if when := strings.TrimSpace(evt.Date + " " + evt.Time); when != "" {
		fields = append(fields, emailField{"Fecha", when})
	}
	if evt.Notes != "" {
		fields = append(fields, emailField{"Notas", evt.Notes})
	}
	return fields
}

// BuildAppointmentEmail renders the staff notification for a new booking in
// plain text and HTML.
func BuildAppointmentEmail(cfg clinic.Config, evt AppointmentRequestedV1) EmailMessage {
	fields := appointmentFields(cfg, evt)

	var text strings.Builder
	text.WriteString("Nueva solicitud de cita\n\n")
	for _, f := range fields {
		fmt.Fprintf(&text, "%s: %s\n", f.label, f.value)
	}
	fmt.Fprintf(&text, "\nID de la cita: %s\n", evt.AppointmentID)

	var rows strings.Builder
	for _, f := range fields {
		fmt.Fprintf(&rows, `<tr><td style="padding:6px 12px;font-weight:bold;">%s</td><td style="padding:6px 12px;">%s</td></tr>`,
			html.EscapeString(f.label), html.EscapeString(f.value))
	}
	body := fmt.Sprintf(`<h2>Nueva solicitud de cita</h2>
<table style="border-collapse:collapse;width:100%%;">%s</table>
<p style="color:#666;font-size:12px;">ID de la cita: %s</p>`, rows.String(), html.EscapeString(evt.AppointmentID))

	return EmailMessage{
		To:            cfg.Email,
		ToName:        defaultFromName,
		ReplyTo:       evt.Email,
		ReplyToName:   evt.PatientName,
		Subject:       fmt.Sprintf("Nueva cita: %s - %s", evt.PatientName, evt.ServiceName),
		Body:          text.String(),
		HTML:          body,
		AppointmentID: evt.AppointmentID,
	}
}

// SendGridSender delivers notifications through the SendGrid v3 API.
type SendGridSender struct {
	client    *sendgrid.Client
	fromEmail string
	fromName  string
	logger    *logging.Logger
}

type SendGridConfig struct {
	APIKey    string
	FromEmail string
	FromName  string
}

// NewSendGridSender returns nil when no API key is configured.
func NewSendGridSender(cfg SendGridConfig, logger *logging.Logger) *SendGridSender {
	if cfg.APIKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.FromName == "" {
		cfg.FromName = defaultFromName
	}
	return &SendGridSender{
		client:    sendgrid.NewSendClient(cfg.APIKey),
		fromEmail: cfg.FromEmail,
		fromName:  cfg.FromName,
		logger:    logger,
	}
}

// message tags every booking mail with the appointment id so SendGrid
// activity can be matched back to the record.
func (s *SendGridSender) message(msg EmailMessage) *mail.SGMailV3 {
	from := mail.NewEmail(s.fromName, s.fromEmail)
	to := mail.NewEmail(msg.ToName, msg.To)
	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = msg.Body
	}
	m := mail.NewSingleEmail(from, msg.Subject, to, msg.Body, htmlBody)
	if msg.ReplyTo != "" {
		m.SetReplyTo(mail.NewEmail(msg.ReplyToName, msg.ReplyTo))
	}
	if msg.AppointmentID != "" {
		m.AddCategories(appointmentCategory)
		m.SetCustomArg("appointment_id", msg.AppointmentID)
	}
	return m
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s == nil || s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}

	response, err := s.client.SendWithContext(ctx, s.message(msg))
	if err != nil {
		s.logger.Error("sendgrid send failed", "error", err, "appointment_id", msg.AppointmentID)
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if response.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected booking email", "status", response.StatusCode, "body", response.Body, "appointment_id", msg.AppointmentID)
		return fmt.Errorf("notify: sendgrid returned status %d", response.StatusCode)
	}

	s.logger.Info("booking email sent", "provider", "sendgrid", "appointment_id", msg.AppointmentID, "status", response.StatusCode)
	return nil
}

// StubEmailSender only logs. Used when no provider is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	s.logger.Info("booking email not sent, no provider configured",
		"appointment_id", msg.AppointmentID, "subject", msg.Subject, "reply_to", msg.ReplyTo)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
