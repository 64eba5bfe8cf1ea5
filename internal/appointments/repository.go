package appointments

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

const collection = "appointments"

// Repository persists appointments in the document store.
type Repository struct {
	docs   docstore.Store
	logger *logging.Logger
}

// NewRepository creates a repository on top of a document store.
func NewRepository(docs docstore.Store, logger *logging.Logger) *Repository {
	if docs == nil {
		panic("appointments: document store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Repository{docs: docs, logger: logger}
}

func (r *Repository) Insert(ctx context.Context, appt Appointment) error {
	if err := r.docs.Create(ctx, collection, appt.ID, appt); err != nil {
		return fmt.Errorf("appointments: insert %s: %w", appt.ID, err)
	}
	return nil
}

func (r *Repository) Get(ctx context.Context, id string) (Appointment, error) {
	doc, err := r.docs.Get(ctx, collection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return Appointment{}, ErrAppointmentNotFound
	}
	if err != nil {
		return Appointment{}, fmt.Errorf("appointments: get %s: %w", id, err)
	}
	var appt Appointment
	if err := doc.Decode(&appt); err != nil {
		return Appointment{}, err
	}
	appt.ID = doc.ID
	return appt, nil
}

// List returns every appointment, newest first.
func (r *Repository) List(ctx context.Context) ([]Appointment, error) {
	docs, err := r.docs.List(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	out := make([]Appointment, 0, len(docs))
	for _, doc := range docs {
		var appt Appointment
		if err := doc.Decode(&appt); err != nil {
			r.logger.Warn("skipping unreadable appointment", "id", doc.ID, "error", err)
			continue
		}
		appt.ID = doc.ID
		out = append(out, appt)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID > out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// Replace writes appt over an existing record.
func (r *Repository) Replace(ctx context.Context, appt Appointment) error {
	err := r.docs.Update(ctx, collection, appt.ID, appt)
	if errors.Is(err, docstore.ErrNotFound) {
		return ErrAppointmentNotFound
	}
	if err != nil {
		return fmt.Errorf("appointments: update %s: %w", appt.ID, err)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	if err := r.docs.Delete(ctx, collection, id); err != nil {
		return fmt.Errorf("appointments: delete %s: %w", id, err)
	}
	return nil
}
