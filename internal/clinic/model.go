package clinic

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrServiceNotFound indicates the requested service id does not exist.
	ErrServiceNotFound = errors.New("clinic: service not found")
	// ErrInvalidService wraps validation failures on a service offering.
	ErrInvalidService = errors.New("clinic: invalid service")
	// ErrInvalidConfig wraps validation failures on the clinic configuration.
	ErrInvalidConfig = errors.New("clinic: invalid config")
)

// ServiceOffering is a treatment shown in the public catalog.
type ServiceOffering struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Price       float64  `json:"price"`
	IsPromo     bool     `json:"isPromo"`
	PromoPrice  *float64 `json:"promoPrice,omitempty"`
	Description string   `json:"description"`
}

// EffectivePrice is the price a patient pays: the promo price when the
// offering is on promotion.
func (s ServiceOffering) EffectivePrice() float64 {
	if s.IsPromo && s.PromoPrice != nil {
		return *s.PromoPrice
	}
	return s.Price
}

// Validate checks the catalog invariants for an offering.
func (s ServiceOffering) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidService)
	}
	if s.Price < 0 {
		return fmt.Errorf("%w: price must not be negative", ErrInvalidService)
	}
	if !s.IsPromo && s.PromoPrice != nil {
		return fmt.Errorf("%w: promoPrice is only allowed when isPromo is set", ErrInvalidService)
	}
	if s.IsPromo {
		if s.PromoPrice == nil {
			return fmt.Errorf("%w: promoPrice is required when isPromo is set", ErrInvalidService)
		}
		if *s.PromoPrice < 0 {
			return fmt.Errorf("%w: promoPrice must not be negative", ErrInvalidService)
		}
		if *s.PromoPrice > s.Price {
			return fmt.Errorf("%w: promoPrice must not exceed price", ErrInvalidService)
		}
	}
	return nil
}

// Location is one physical branch of the clinic.
type Location struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Address  string `json:"address"`
	Phone    string `json:"phone"`
	WhatsApp string `json:"whatsapp"`
}

// Config is the clinic-wide configuration singleton.
type Config struct {
	Phone          string     `json:"phone"`
	EmergencyPhone string     `json:"emergency_phone"`
	Address        string     `json:"address"`
	Hours          string     `json:"hours"`
	Email          string     `json:"email"`
	Vision         string     `json:"vision"`
	Mission        string     `json:"mision"`
	Values         string     `json:"valores"`
	Quality        string     `json:"calidad"`
	Locations      []Location `json:"locations"`
}

// Validate requires unique, non-empty location ids.
func (c Config) Validate() error {
	seen := make(map[string]struct{}, len(c.Locations))
	for _, loc := range c.Locations {
		id := strings.TrimSpace(loc.ID)
		if id == "" {
			return fmt.Errorf("%w: location id is required", ErrInvalidConfig)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("%w: duplicate location id %q", ErrInvalidConfig, id)
		}
		seen[id] = struct{}{}
	}
	return nil
}

// Location returns the branch with the given id.
func (c Config) Location(id string) (Location, bool) {
	for _, loc := range c.Locations {
		if loc.ID == id {
			return loc, true
		}
	}
	return Location{}, false
}

// Site bundles everything the public landing page renders.
type Site struct {
	Services []ServiceOffering `json:"services"`
	Config   Config            `json:"config"`
}
