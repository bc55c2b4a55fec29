package database

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/danfoguide/route-finder/internal/models"
	"github.com/danfoguide/route-finder/pkg/similarity"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// NetworkFile is the YAML representation of a danfo network
type NetworkFile struct {
	Stops  []NetworkStop  `yaml:"stops" validate:"required,dive"`
	Routes []NetworkRoute `yaml:"routes" validate:"dive"`
}

// NetworkStop is one busstop in a network file
type NetworkStop struct {
	ID        int64    `yaml:"id" validate:"required,gt=0"`
	Name      string   `yaml:"name" validate:"required"`
	Area      string   `yaml:"area"`
	Latitude  *float64 `yaml:"latitude" validate:"omitempty,latitude"`
	Longitude *float64 `yaml:"longitude" validate:"omitempty,longitude"`
	PlaceID   string   `yaml:"place_id"`
}

// NetworkRoute lists the stops of one route in travel order
type NetworkRoute struct {
	ID    int64           `yaml:"id" validate:"required,gt=0"`
	Stops []NetworkMember `yaml:"stops" validate:"required,min=1,dive"`
}

// NetworkMember references a busstop and its role on the route
type NetworkMember struct {
	Stop int64  `yaml:"stop" validate:"required,gt=0"`
	Type string `yaml:"type" validate:"required,oneof=TE TR"`
}

// MemoryStore serves busstops and routes from memory.
// It is read-only after construction and safe for concurrent use.
// Multi-row results follow load order.
type MemoryStore struct {
	threshold    float64
	stops        []models.Stop
	stopIndex    map[int64]int
	routes       map[int64][]models.RouteMembership
	routeIDs     []int64
	routesByStop map[int64][]int64
}

// LoadNetworkFile reads and validates a YAML network file
func LoadNetworkFile(path string, threshold float64) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read network file: %w", err)
	}
	return ParseNetwork(data, threshold)
}

// ParseNetwork decodes and validates YAML network data.
// Routes must have terminals at both ends; repeated busstops within a route
// are accepted here and reported when the route is searched.
func ParseNetwork(data []byte, threshold float64) (*MemoryStore, error) {
	var file NetworkFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("failed to parse network file: %w", err)
	}

	v := validator.New()
	if err := v.Struct(file); err != nil {
		return nil, fmt.Errorf("invalid network file: %w", err)
	}

	stops := make([]models.Stop, 0, len(file.Stops))
	stopByID := make(map[int64]models.Stop, len(file.Stops))
	for _, s := range file.Stops {
		stop := models.Stop{
			ID:        s.ID,
			Name:      strings.ToLower(strings.TrimSpace(s.Name)),
			Area:      strings.ToLower(strings.TrimSpace(s.Area)),
			Latitude:  s.Latitude,
			Longitude: s.Longitude,
		}
		if s.PlaceID != "" {
			placeID := s.PlaceID
			stop.PlaceID = &placeID
		}
		stops = append(stops, stop)
		stopByID[stop.ID] = stop
	}

	var memberships []models.RouteMembership
	seenRoutes := make(map[int64]bool, len(file.Routes))
	var nextID int64
	for _, r := range file.Routes {
		if seenRoutes[r.ID] {
			return nil, fmt.Errorf("invalid network file: route %d defined twice", r.ID)
		}
		seenRoutes[r.ID] = true

		route := make([]models.RouteMembership, 0, len(r.Stops))
		for i, member := range r.Stops {
			stop, ok := stopByID[member.Stop]
			if !ok {
				return nil, fmt.Errorf("invalid network file: route %d references unknown busstop %d", r.ID, member.Stop)
			}
			nextID++
			route = append(route, models.RouteMembership{
				ID:       nextID,
				RouteID:  r.ID,
				Position: i + 1,
				Role:     models.StopRole(member.Type),
				Stop:     stop,
			})
		}
		if err := models.ValidateRoute(route); err != nil {
			return nil, fmt.Errorf("invalid network file: %w", err)
		}
		memberships = append(memberships, route...)
	}

	return NewMemoryStore(stops, memberships, threshold)
}

// NewMemoryStore builds a store from busstops and route memberships.
// Memberships are ordered by position within each route.
func NewMemoryStore(stops []models.Stop, memberships []models.RouteMembership, threshold float64) (*MemoryStore, error) {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}

	s := &MemoryStore{
		threshold:    threshold,
		stops:        make([]models.Stop, 0, len(stops)),
		stopIndex:    make(map[int64]int, len(stops)),
		routes:       make(map[int64][]models.RouteMembership),
		routesByStop: make(map[int64][]int64),
	}

	placeIDs := make(map[string]int64)
	for _, stop := range stops {
		if _, exists := s.stopIndex[stop.ID]; exists {
			return nil, fmt.Errorf("busstop %d defined twice", stop.ID)
		}
		if stop.HasPlaceID() {
			if other, exists := placeIDs[*stop.PlaceID]; exists {
				return nil, fmt.Errorf("busstops %d and %d share place id %s", other, stop.ID, *stop.PlaceID)
			}
			placeIDs[*stop.PlaceID] = stop.ID
		}
		s.stopIndex[stop.ID] = len(s.stops)
		s.stops = append(s.stops, stop)
	}

	for _, m := range memberships {
		idx, ok := s.stopIndex[m.Stop.ID]
		if !ok {
			return nil, fmt.Errorf("route %d references unknown busstop %d", m.RouteID, m.Stop.ID)
		}
		m.Stop = s.stops[idx]
		if _, exists := s.routes[m.RouteID]; !exists {
			s.routeIDs = append(s.routeIDs, m.RouteID)
		}
		s.routes[m.RouteID] = append(s.routes[m.RouteID], m)
	}

	sort.Slice(s.routeIDs, func(i, j int) bool { return s.routeIDs[i] < s.routeIDs[j] })
	for _, routeID := range s.routeIDs {
		route := s.routes[routeID]
		sort.SliceStable(route, func(i, j int) bool { return route[i].Position < route[j].Position })
		for _, m := range route {
			ids := s.routesByStop[m.Stop.ID]
			if len(ids) == 0 || ids[len(ids)-1] != routeID {
				s.routesByStop[m.Stop.ID] = append(ids, routeID)
			}
		}
	}

	return s, nil
}

// FuzzyMatch finds busstops whose name is similar to name and, when area is
// non-empty, whose area is similar to area
func (s *MemoryStore) FuzzyMatch(name, area string) ([]models.Stop, error) {
	name = strings.TrimSpace(name)
	area = strings.TrimSpace(area)

	matches := []models.Stop{}
	for _, stop := range s.stops {
		if similarity.Trigram(stop.Name, name) <= s.threshold {
			continue
		}
		if area != "" && similarity.Trigram(stop.Area, area) <= s.threshold {
			continue
		}
		matches = append(matches, stop)
	}
	return matches, nil
}

// ByExternalID finds the busstop with the given external place id (0 or 1 results)
func (s *MemoryStore) ByExternalID(placeID string) ([]models.Stop, error) {
	matches := []models.Stop{}
	for _, stop := range s.stops {
		if stop.HasPlaceID() && *stop.PlaceID == placeID {
			matches = append(matches, stop)
		}
	}
	return matches, nil
}

// GetByID retrieves a busstop by id. Returns (nil, nil) when it does not exist.
func (s *MemoryStore) GetByID(id int64) (*models.Stop, error) {
	idx, ok := s.stopIndex[id]
	if !ok {
		return nil, nil
	}
	stop := s.stops[idx]
	return &stop, nil
}

// Autocomplete returns busstop suggestions for a partially typed name,
// busstops served by more routes first
func (s *MemoryStore) Autocomplete(term string, limit int) ([]models.StopAutocomplete, error) {
	term = strings.ToLower(strings.TrimSpace(term))

	suggestions := []models.StopAutocomplete{}
	for _, stop := range s.stops {
		if !strings.HasPrefix(stop.Name, term) && similarity.Trigram(stop.Name, term) <= s.threshold {
			continue
		}
		suggestions = append(suggestions, models.StopAutocomplete{
			StopID:     stop.ID,
			StopName:   stop.Name,
			Area:       stop.Area,
			RouteCount: len(s.routesByStop[stop.ID]),
		})
	}

	sort.SliceStable(suggestions, func(i, j int) bool {
		return suggestions[i].RouteCount > suggestions[j].RouteCount
	})
	if limit > 0 && len(suggestions) > limit {
		suggestions = suggestions[:limit]
	}
	return suggestions, nil
}

// RouteIDsForStop returns the distinct ids of every route the busstop belongs to
func (s *MemoryStore) RouteIDsForStop(stopID int64) ([]int64, error) {
	ids := s.routesByStop[stopID]
	out := make([]int64, len(ids))
	copy(out, ids)
	return out, nil
}

// MembershipsForRoute returns every stop of a route ordered by position
func (s *MemoryStore) MembershipsForRoute(routeID int64) ([]models.RouteMembership, error) {
	route := s.routes[routeID]
	out := make([]models.RouteMembership, len(route))
	copy(out, route)
	return out, nil
}

// ListRouteIDs returns every route id in ascending order
func (s *MemoryStore) ListRouteIDs() ([]int64, error) {
	out := make([]int64, len(s.routeIDs))
	copy(out, s.routeIDs)
	return out, nil
}
