// Package place provides saved-location management.
package place

import (
	"errors"
	"time"

	"github.com/safepath/safepath/pkg/geo"
)

// Repository errors.
var (
	ErrPlaceNotFound = errors.New("place not found")
)

// Place represents a saved location.
type Place struct {
	ID        string
	Label     string
	Location  geo.Point
	Address   *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
