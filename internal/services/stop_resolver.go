package services

import (
	"context"
	"fmt"
	"sort"

	"github.com/danfoguide/route-finder/internal/models"
	"github.com/danfoguide/route-finder/pkg/places"
	"github.com/danfoguide/route-finder/pkg/similarity"
	"github.com/danfoguide/route-finder/pkg/validator"
	"github.com/sirupsen/logrus"
)

// Defaults for fuzzy resolution
const (
	DefaultPlacesRadius = 800
	DefaultFallbackCity = "lagos"
)

// StopStore is the read-only busstop lookup the resolver depends on
type StopStore interface {
	// FuzzyMatch filters busstops by name similarity, and by area similarity when area is non-empty
	FuzzyMatch(name, area string) ([]models.Stop, error)
	// ByExternalID returns the busstop carrying the place id, if any
	ByExternalID(placeID string) ([]models.Stop, error)
}

// StopResolverConfig holds fuzzy resolution settings
type StopResolverConfig struct {
	RadiusMeters int
	FallbackCity string
}

// StopResolver turns rider-typed location text into canonical busstops
type StopResolver struct {
	store        StopStore
	gateway      places.Gateway
	validator    *validator.LocationValidator
	radius       int
	fallbackCity string
	logger       *logrus.Logger
}

// NewStopResolver creates a new stop resolver
func NewStopResolver(store StopStore, gateway places.Gateway, cfg StopResolverConfig, logger *logrus.Logger) *StopResolver {
	if gateway == nil {
		gateway = places.NewDisabledGateway()
	}
	if cfg.RadiusMeters <= 0 {
		cfg.RadiusMeters = DefaultPlacesRadius
	}
	if cfg.FallbackCity == "" {
		cfg.FallbackCity = DefaultFallbackCity
	}

	return &StopResolver{
		store:        store,
		gateway:      gateway,
		validator:    validator.NewLocationValidator(),
		radius:       cfg.RadiusMeters,
		fallbackCity: cfg.FallbackCity,
		logger:       logger,
	}
}

// ParseLocation decomposes raw location text such as "*ogunlana drive, surulere".
// Returns models.ErrEmptyLocation when there is nothing to resolve.
func (r *StopResolver) ParseLocation(raw string) (*models.LocationQuery, error) {
	target, area, fuzzy, err := r.validator.Parse(raw)
	if err != nil {
		return nil, models.ErrEmptyLocation
	}

	return &models.LocationQuery{
		Target:  target,
		Area:    area,
		IsFuzzy: fuzzy,
	}, nil
}

// Resolve maps raw location text to its best matching busstop and the other
// busstops found. Finding nothing is not an error: the result has no match.
func (r *StopResolver) Resolve(ctx context.Context, raw string) (*models.Resolution, error) {
	query, err := r.ParseLocation(raw)
	if err != nil {
		return nil, err
	}

	candidates := r.Candidates(ctx, query)

	stops := []models.Stop{}
	for _, c := range candidates {
		found, err := r.lookup(c)
		if err != nil {
			return nil, err
		}
		stops = append(stops, found...)
	}

	r.logger.WithFields(logrus.Fields{
		"input":      raw,
		"fuzzy":      query.IsFuzzy,
		"candidates": len(candidates),
		"busstops":   len(stops),
	}).Debug("Resolved location")

	return models.NewResolution(stops), nil
}

// Candidates builds the store lookups for a query, best first.
// An exact query yields itself; a fuzzy query yields one lookup per busstop
// the places gateway finds around the described address.
func (r *StopResolver) Candidates(ctx context.Context, query *models.LocationQuery) []models.CandidateQuery {
	if !query.IsFuzzy {
		return []models.CandidateQuery{{Target: query.Target, Area: query.Area}}
	}

	address := r.address(query)
	nearby := rankPlaces(query.Target, address, r.gateway.Nearby(ctx, address, r.radius))

	candidates := make([]models.CandidateQuery, 0, len(nearby))
	for _, place := range nearby {
		candidates = append(candidates, models.CandidateQuery{
			Target:  place.Name,
			Area:    query.Area,
			PlaceID: place.PlaceID,
		})
	}
	return candidates
}

// address combines target and area for the places lookup, defaulting the area to the fallback city
func (r *StopResolver) address(query *models.LocationQuery) string {
	area := query.Area
	if area == "" {
		area = r.fallbackCity
	}
	return query.Target + ", " + area
}

func (r *StopResolver) lookup(c models.CandidateQuery) ([]models.Stop, error) {
	if c.PlaceID != "" {
		stops, err := r.store.ByExternalID(c.PlaceID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up busstop %q: %w", c.Target, err)
		}
		return stops, nil
	}

	stops, err := r.store.FuzzyMatch(c.Target, c.Area)
	if err != nil {
		return nil, fmt.Errorf("failed to look up busstop %q: %w", c.Target, err)
	}
	return stops, nil
}

// rankPlaces reorders places by descending name similarity to target when
// there is more than one and at least one sounds like the address.
// Otherwise the gateway's proximity order is kept.
func rankPlaces(target, address string, nearby []places.Place) []places.Place {
	if len(nearby) < 2 || !anySoundsLike(nearby, address) {
		return nearby
	}

	ranked := make([]places.Place, len(nearby))
	copy(ranked, nearby)
	sort.SliceStable(ranked, func(i, j int) bool {
		return similarity.Jaro(target, ranked[i].Name) > similarity.Jaro(target, ranked[j].Name)
	})
	return ranked
}

func anySoundsLike(nearby []places.Place, address string) bool {
	for _, p := range nearby {
		if similarity.PhoneticMatch(p.Name, address) {
			return true
		}
	}
	return false
}
