package place

import (
	"errors"
	"strings"
	"time"
)

// Favorite is the domain entity corresponding to the `favorite_locations`
// table: a user-saved destination.
type Favorite struct {
	ID        string
	CreatedAt time.Time
	Name      string
	Address   string
	Latitude  float64
	Longitude float64
	Category  string
}

var (
	ErrEmptyName        = errors.New("name cannot be empty")
	ErrEmptyAddress     = errors.New("address cannot be empty")
	ErrInvalidLatitude  = errors.New("latitude must be between -90 and 90")
	ErrInvalidLongitude = errors.New("longitude must be between -180 and 180")
)

const defaultCategory = "general"

// NewFavorite constructs a Favorite entity with a default category.
func NewFavorite(name, address string, latitude, longitude float64, category string) (*Favorite, error) {
	favorite := &Favorite{
		CreatedAt: time.Now().UTC(),
		Name:      strings.TrimSpace(name),
		Address:   strings.TrimSpace(address),
		Latitude:  latitude,
		Longitude: longitude,
		Category:  strings.TrimSpace(category),
	}
	if favorite.Category == "" {
		favorite.Category = defaultCategory
	}
	if err := favorite.Validate(); err != nil {
		return nil, err
	}

	return favorite, nil
}

// Validate checks invariants of the Favorite entity.
func (favorite *Favorite) Validate() error {
	if strings.TrimSpace(favorite.Name) == "" {
		return ErrEmptyName
	}
	if strings.TrimSpace(favorite.Address) == "" {
		return ErrEmptyAddress
	}
	if favorite.Latitude < -90 || favorite.Latitude > 90 {
		return ErrInvalidLatitude
	}
	if favorite.Longitude < -180 || favorite.Longitude > 180 {
		return ErrInvalidLongitude
	}
	return nil
}
