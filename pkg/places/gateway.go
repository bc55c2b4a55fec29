package places

import "context"

// Place is a candidate busstop returned by a places provider
type Place struct {
	Name    string `json:"name"`
	PlaceID string `json:"place_id"`
}

// Gateway defines the interface for looking up busstops near an address
type Gateway interface {
	// Nearby returns busstops around address, closest first.
	// Provider failures are absorbed: an empty list means nothing was found.
	Nearby(ctx context.Context, address string, radiusMeters int) []Place

	// GetName returns the name of the gateway implementation
	GetName() string
}

// DisabledGateway never finds anything. It is used when no provider is configured.
type DisabledGateway struct{}

// NewDisabledGateway creates a gateway that always returns no places
func NewDisabledGateway() *DisabledGateway {
	return &DisabledGateway{}
}

// Nearby always returns an empty list
func (g *DisabledGateway) Nearby(ctx context.Context, address string, radiusMeters int) []Place {
	return []Place{}
}

// GetName returns the gateway name
func (g *DisabledGateway) GetName() string {
	return "disabled"
}
