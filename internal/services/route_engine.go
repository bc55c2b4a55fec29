package services

import (
	"errors"
	"fmt"
	"sort"

	"github.com/danfoguide/route-finder/internal/models"
	"github.com/sirupsen/logrus"
)

// DefaultCostBand is how far above the cheapest route an alternative may cost and still be returned
const DefaultCostBand = 5

// RouteStore is the read-only route membership lookup the engine searches over
type RouteStore interface {
	// RouteIDsForStop returns the distinct route ids a busstop belongs to
	RouteIDsForStop(stopID int64) ([]int64, error)
	// MembershipsForRoute returns a route's memberships ordered by position
	MembershipsForRoute(routeID int64) ([]models.RouteMembership, error)
}

// RouteEngine finds danfo routes between two busstops with a breadth-first
// search over the graph of stops linked by shared routes.
// The engine holds no search state, so one instance serves concurrent requests.
type RouteEngine struct {
	store  RouteStore
	band   int
	logger *logrus.Logger
}

// NewRouteEngine creates a new route engine.
// A non-positive band falls back to DefaultCostBand.
func NewRouteEngine(store RouteStore, band int, logger *logrus.Logger) *RouteEngine {
	if band <= 0 {
		band = DefaultCostBand
	}
	return &RouteEngine{
		store:  store,
		band:   band,
		logger: logger,
	}
}

// GetRoutes returns the stop names of every route from source to destination,
// best first. An empty result means no route exists.
func (e *RouteEngine) GetRoutes(source, destination *models.Stop) ([][]string, error) {
	paths, err := e.FindRoutes(source, destination)
	if err != nil {
		return nil, err
	}

	routes := make([][]string, 0, len(paths))
	for _, p := range paths {
		routes = append(routes, p.Stops)
	}
	return routes, nil
}

// FindRoutes is GetRoutes with transfer points and costs kept.
// It fails with *models.DuplicateStopError when a searched route lists a busstop twice.
func (e *RouteEngine) FindRoutes(source, destination *models.Stop) ([]models.RoutePath, error) {
	if source == nil || destination == nil {
		return nil, models.ErrInvalidInput("source and destination busstops are required")
	}

	search := newRouteSearch(e.store, destination)
	found, err := search.run(source)
	if err != nil {
		var dup *models.DuplicateStopError
		if errors.As(err, &dup) {
			e.logger.WithFields(logrus.Fields{
				"route_id":    dup.RouteID,
				"busstop_id":  dup.StopID,
				"busstop":     dup.StopName,
				"occurrences": dup.Count,
			}).Error("Route data contains a repeated busstop")
		}
		return nil, err
	}

	routes := filterByCostBand(found, e.band)

	e.logger.WithFields(logrus.Fields{
		"source":        source.Name,
		"destination":   destination.Name,
		"found":         len(found),
		"returned":      len(routes),
		"routes_walked": len(search.routeIDsSeen),
	}).Debug("Route search complete")

	return routes, nil
}

// filterByCostBand sorts paths by ascending cost, keeping discovery order among
// equal costs, and drops every path costing band or more above the cheapest
func filterByCostBand(paths []models.RoutePath, band int) []models.RoutePath {
	if len(paths) == 0 {
		return []models.RoutePath{}
	}

	sorted := make([]models.RoutePath, len(paths))
	copy(sorted, paths)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Cost < sorted[j].Cost })

	limit := sorted[0].Cost + band
	kept := sorted[:0]
	for _, p := range sorted {
		if p.Cost < limit {
			kept = append(kept, p)
		}
	}
	return kept
}

// busstopNode is one entry of the search frontier
type busstopNode struct {
	stop       models.Stop
	arrivedVia int64 // route id, 0 for the source
	path       []string
	transfers  []string
	cost       int
}

// routeSearch owns the frontier and visited sets of a single search
type routeSearch struct {
	store        RouteStore
	destination  *models.Stop
	stopQueue    []busstopNode
	routeIDQueue []int64
	stopsSeen    map[int64]bool
	routeIDsSeen map[int64]bool
	found        []models.RoutePath
}

func newRouteSearch(store RouteStore, destination *models.Stop) *routeSearch {
	return &routeSearch{
		store:        store,
		destination:  destination,
		stopsSeen:    make(map[int64]bool),
		routeIDsSeen: make(map[int64]bool),
	}
}

func (s *routeSearch) run(source *models.Stop) ([]models.RoutePath, error) {
	s.stopQueue = append(s.stopQueue, busstopNode{
		stop:      *source,
		path:      []string{source.Name},
		transfers: []string{source.Name},
	})

	for len(s.stopQueue) > 0 {
		node := s.stopQueue[0]
		s.stopQueue = s.stopQueue[1:]

		// Every arrival at the destination is a distinct route
		if node.stop.SameAs(s.destination) {
			s.found = append(s.found, models.RoutePath{
				Stops:     node.path,
				Transfers: node.transfers,
				Cost:      node.cost,
			})
		}

		if s.stopsSeen[node.stop.ID] {
			continue
		}
		s.stopsSeen[node.stop.ID] = true

		if node.stop.SameAs(s.destination) {
			continue
		}

		if err := s.queueRouteIDs(node); err != nil {
			return nil, err
		}
		if err := s.expand(node); err != nil {
			return nil, err
		}
	}

	return s.found, nil
}

// queueRouteIDs queues every route through the node's stop that has not been walked yet
func (s *routeSearch) queueRouteIDs(node busstopNode) error {
	routeIDs, err := s.store.RouteIDsForStop(node.stop.ID)
	if err != nil {
		return fmt.Errorf("failed to find routes through %s: %w", node.stop.Name, err)
	}
	for _, id := range routeIDs {
		if !s.routeIDsSeen[id] {
			s.routeIDQueue = append(s.routeIDQueue, id)
		}
	}
	return nil
}

// expand drains the route id queue, queueing every unvisited stop reachable
// from the node along each route
func (s *routeSearch) expand(node busstopNode) error {
	for len(s.routeIDQueue) > 0 {
		routeID := s.routeIDQueue[0]
		s.routeIDQueue = s.routeIDQueue[1:]
		if s.routeIDsSeen[routeID] {
			continue
		}
		s.routeIDsSeen[routeID] = true

		memberships, err := s.store.MembershipsForRoute(routeID)
		if err != nil {
			return fmt.Errorf("failed to load route %d: %w", routeID, err)
		}
		if dup := models.FindDuplicateStop(memberships); dup != nil {
			return dup
		}

		index := indexOfStop(memberships, node.stop.ID)
		if index < 0 {
			return fmt.Errorf("busstop %d is not on route %d", node.stop.ID, routeID)
		}

		for _, direction := range directionsFrom(memberships, index) {
			s.ride(node, routeID, direction)
		}
	}
	return nil
}

// ride queues each unvisited stop of one direction of travel. The k-th stop
// from the boarding point costs k more than the node. Costs restart for each
// direction, so from an interior stop both sides count up from 1.
func (s *routeSearch) ride(node busstopNode, routeID int64, direction []models.RouteMembership) {
	path := node.path
	for k, m := range direction {
		path = appendName(path, m.Stop.Name)
		if s.stopsSeen[m.Stop.ID] {
			continue
		}
		s.stopQueue = append(s.stopQueue, busstopNode{
			stop:       m.Stop,
			arrivedVia: routeID,
			path:       path,
			transfers:  appendName(node.transfers, m.Stop.Name),
			cost:       node.cost + k + 1,
		})
	}
}

// directionsFrom returns the stops reachable from memberships[index], nearest
// first, excluding the stop itself. A terminal yields one direction of travel
// and an interior stop yields two: toward the head, then toward the tail.
func directionsFrom(memberships []models.RouteMembership, index int) [][]models.RouteMembership {
	last := len(memberships) - 1
	switch index {
	case 0:
		return [][]models.RouteMembership{memberships[1:]}
	case last:
		return [][]models.RouteMembership{reversed(memberships[:last])}
	default:
		return [][]models.RouteMembership{
			reversed(memberships[:index]),
			memberships[index+1:],
		}
	}
}

func indexOfStop(memberships []models.RouteMembership, stopID int64) int {
	for i, m := range memberships {
		if m.Stop.ID == stopID {
			return i
		}
	}
	return -1
}

func reversed(memberships []models.RouteMembership) []models.RouteMembership {
	out := make([]models.RouteMembership, len(memberships))
	for i, m := range memberships {
		out[len(memberships)-1-i] = m
	}
	return out
}

// appendName copies before appending so sibling paths never share a backing array
func appendName(path []string, name string) []string {
	out := make([]string, len(path), len(path)+1)
	copy(out, path)
	return append(out, name)
}
