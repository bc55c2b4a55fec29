package models

import (
	"fmt"
	"strings"
)

// StopRole distinguishes route endpoints from interior stops
type StopRole string

const (
	RoleTerminal StopRole = "TE"
	RoleTransit  StopRole = "TR"
)

// Valid reports whether the role is one of the known values
func (r StopRole) Valid() bool {
	return r == RoleTerminal || r == RoleTransit
}

// RouteMembership is one stop's position within one danfo route
type RouteMembership struct {
	ID       int64    `json:"id" db:"id"`
	RouteID  int64    `json:"route_id" db:"route_id"`
	Position int      `json:"position" db:"position"`
	Role     StopRole `json:"busstop_type" db:"busstop_type"`
	Stop     Stop     `json:"busstop"`
}

// IsTerminal returns true for route endpoints
func (m *RouteMembership) IsTerminal() bool {
	return m.Role == RoleTerminal
}

// RoutePath is one way of getting from a source stop to a destination stop.
// Stops lists every stop ridden through; Transfers only the boarding,
// change and alighting points.
type RoutePath struct {
	Stops     []string `json:"stops"`
	Transfers []string `json:"transfers"`
	Cost      int      `json:"cost"`
}

// String renders the path in the rider-facing "a -> b -> c" form
func (p RoutePath) String() string {
	return FormatRoute(p.Stops)
}

// FormatRoute joins stop names with arrows
func FormatRoute(stops []string) string {
	return strings.Join(stops, " -> ")
}

// ValidateRoute checks that memberships of one route are ordered by unique
// positions and that the terminal flags sit on the first and last stop only.
// Memberships must already be sorted by position.
func ValidateRoute(memberships []RouteMembership) error {
	last := len(memberships) - 1
	for i, m := range memberships {
		if !m.Role.Valid() {
			return fmt.Errorf("route %d position %d: invalid busstop type %q", m.RouteID, m.Position, m.Role)
		}
		if i > 0 && memberships[i-1].Position >= m.Position {
			return fmt.Errorf("route %d: position %d is not strictly increasing", m.RouteID, m.Position)
		}
		endpoint := i == 0 || i == last
		if endpoint && !m.IsTerminal() {
			return fmt.Errorf("route %d: endpoint %q must be a terminal", m.RouteID, m.Stop.Name)
		}
		if !endpoint && m.IsTerminal() {
			return fmt.Errorf("route %d: interior stop %q is marked as a terminal", m.RouteID, m.Stop.Name)
		}
	}
	return nil
}

// FindDuplicateStop returns the first stop that occurs more than once in a route
func FindDuplicateStop(memberships []RouteMembership) *DuplicateStopError {
	counts := make(map[int64]int, len(memberships))
	for _, m := range memberships {
		counts[m.Stop.ID]++
	}
	for _, m := range memberships {
		if counts[m.Stop.ID] > 1 {
			return &DuplicateStopError{
				RouteID:  m.RouteID,
				StopID:   m.Stop.ID,
				StopName: m.Stop.Name,
				Count:    counts[m.Stop.ID],
			}
		}
	}
	return nil
}
