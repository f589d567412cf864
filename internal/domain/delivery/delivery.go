// Package delivery defines the boundary to the external address-validation
// collaborator. Geocoding and distance computation live behind this interface.
package delivery

import "context"

// Result is the outcome of an address or zip-code serviceability check.
// Distance is in kilometers from the restaurant.
type Result struct {
	Valid    bool    `json:"valid"`
	Message  string  `json:"error,omitempty"`
	Distance float64 `json:"distance,omitempty"`
}

// AddressValidator checks whether an address or zip code is inside the
// serviceable delivery area. Both calls are network-bound and synchronous.
type AddressValidator interface {
	ValidateAddress(ctx context.Context, address, zip string) (Result, error)
	ValidateZipCode(ctx context.Context, zip string) (Result, error)
}
