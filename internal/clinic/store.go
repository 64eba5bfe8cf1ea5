package clinic

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/wolfman30/dental-premium/internal/docstore"
	"github.com/wolfman30/dental-premium/pkg/logging"
)

const (
	servicesCollection = "services"
	configCollection   = "clinic_config"
	configDocID        = "general_info"
)

// SeedResult reports what Seed wrote.
type SeedResult struct {
	ConfigWritten   bool `json:"config_written"`
	ServicesWritten int  `json:"services_written"`
}

// Store reads and writes the catalog and the clinic configuration.
type Store struct {
	docs   docstore.Store
	logger *logging.Logger
}

// NewStore creates a catalog store on top of a document store.
func NewStore(docs docstore.Store, logger *logging.Logger) *Store {
	if docs == nil {
		panic("clinic: document store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{docs: docs, logger: logger}
}

// ListServices returns every offering ordered by id. It never seeds.
func (s *Store) ListServices(ctx context.Context) ([]ServiceOffering, error) {
	docs, err := s.docs.List(ctx, servicesCollection)
	if err != nil {
		return nil, fmt.Errorf("clinic: list services: %w", err)
	}
	out := make([]ServiceOffering, 0, len(docs))
	for _, doc := range docs {
		var svc ServiceOffering
		if err := doc.Decode(&svc); err != nil {
			s.logger.Warn("skipping unreadable service", "id", doc.ID, "error", err)
			continue
		}
		svc.ID = doc.ID
		out = append(out, svc)
	}
	return out, nil
}

func (s *Store) GetService(ctx context.Context, id string) (ServiceOffering, error) {
	doc, err := s.docs.Get(ctx, servicesCollection, id)
	if errors.Is(err, docstore.ErrNotFound) {
		return ServiceOffering{}, ErrServiceNotFound
	}
	if err != nil {
		return ServiceOffering{}, fmt.Errorf("clinic: get service %s: %w", id, err)
	}
	var svc ServiceOffering
	if err := doc.Decode(&svc); err != nil {
		return ServiceOffering{}, err
	}
	svc.ID = doc.ID
	return svc, nil
}

// AddService stores a new offering under a generated id.
func (s *Store) AddService(ctx context.Context, svc ServiceOffering) (ServiceOffering, error) {
	if err := svc.Validate(); err != nil {
		return ServiceOffering{}, err
	}
	svc.ID = uuid.NewString()
	if err := s.docs.Create(ctx, servicesCollection, svc.ID, svc); err != nil {
		return ServiceOffering{}, fmt.Errorf("clinic: add service: %w", err)
	}
	return svc, nil
}

// PutService creates or fully replaces the offering with svc.ID.
func (s *Store) PutService(ctx context.Context, svc ServiceOffering) error {
	if svc.ID == "" {
		return fmt.Errorf("%w: id is required", ErrInvalidService)
	}
	if err := svc.Validate(); err != nil {
		return err
	}
	if err := s.docs.Put(ctx, servicesCollection, svc.ID, svc); err != nil {
		return fmt.Errorf("clinic: put service %s: %w", svc.ID, err)
	}
	return nil
}

// UpdateService replaces an existing offering. The id is never changed.
func (s *Store) UpdateService(ctx context.Context, id string, svc ServiceOffering) (ServiceOffering, error) {
	svc.ID = id
	if err := svc.Validate(); err != nil {
		return ServiceOffering{}, err
	}
	err := s.docs.Update(ctx, servicesCollection, id, svc)
	if errors.Is(err, docstore.ErrNotFound) {
		return ServiceOffering{}, ErrServiceNotFound
	}
	if err != nil {
		return ServiceOffering{}, fmt.Errorf("clinic: update service %s: %w", id, err)
	}
	return svc, nil
}

// DeleteService removes an offering. Missing ids are ignored.
func (s *Store) DeleteService(ctx context.Context, id string) error {
	if err := s.docs.Delete(ctx, servicesCollection, id); err != nil {
		return fmt.Errorf("clinic: delete service %s: %w", id, err)
	}
	return nil
}

// GetConfig returns the stored configuration. When none exists yet the store
// is seeded and the defaults are returned.
func (s *Store) GetConfig(ctx context.Context) (Config, error) {
	doc, err := s.docs.Get(ctx, configCollection, configDocID)
	if errors.Is(err, docstore.ErrNotFound) {
		if _, seedErr := s.Seed(ctx); seedErr != nil {
			s.logger.Warn("seed on first config read failed", "error", seedErr)
		}
		return DefaultConfig(), nil
	}
	if err != nil {
		return Config{}, fmt.Errorf("clinic: get config: %w", err)
	}
	var cfg Config
	if err := doc.Decode(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.Locations == nil {
		cfg.Locations = []Location{}
	}
	return cfg, nil
}

// PutConfig replaces the configuration.
func (s *Store) PutConfig(ctx context.Context, cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}
	if cfg.Locations == nil {
		cfg.Locations = []Location{}
	}
	if err := s.docs.Put(ctx, configCollection, configDocID, cfg); err != nil {
		return fmt.Errorf("clinic: put config: %w", err)
	}
	return nil
}

// Seed writes the default configuration when none exists and the default
// catalog when the services collection is empty. Writes use Create so two
// concurrent seeders never overwrite each other.
func (s *Store) Seed(ctx context.Context) (SeedResult, error) {
	var res SeedResult

	err := s.docs.Create(ctx, configCollection, configDocID, DefaultConfig())
	switch {
	case err == nil:
		res.ConfigWritten = true
		s.logger.Info("seeded clinic configuration")
	case errors.Is(err, docstore.ErrAlreadyExists):
	default:
		return res, fmt.Errorf("clinic: seed config: %w", err)
	}

	existing, err := s.docs.List(ctx, servicesCollection)
	if err != nil {
		return res, fmt.Errorf("clinic: seed list services: %w", err)
	}
	if len(existing) > 0 {
		return res, nil
	}
	for _, svc := range DefaultServices() {
		err := s.docs.Create(ctx, servicesCollection, svc.ID, svc)
		if errors.Is(err, docstore.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			return res, fmt.Errorf("clinic: seed service %s: %w", svc.ID, err)
		}
		res.ServicesWritten++
	}
	if res.ServicesWritten > 0 {
		s.logger.Info("seeded service catalog", "count", res.ServicesWritten)
	}
	return res, nil
}

// Site loads the catalog and configuration for the landing page, falling
// back to the defaults for whichever read fails.
func (s *Store) Site(ctx context.Context) Site {
	services, err := s.ListServices(ctx)
	if err != nil {
		s.logger.Warn("using default services for site", "error", err)
		services = DefaultServices()
	}
	cfg, err := s.GetConfig(ctx)
	if err != nil {
		s.logger.Warn("using default config for site", "error", err)
		cfg = DefaultConfig()
	}
	return Site{Services: services, Config: cfg}
}
