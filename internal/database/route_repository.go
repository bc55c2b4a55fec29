package database

import (
	"database/sql"
	"fmt"

	"github.com/danfoguide/route-finder/internal/models"
)

// RouteRepository handles database operations for the routes table,
// where each row places one busstop at one position of one danfo route
type RouteRepository struct {
	db DB
}

type membershipRow struct {
	ID          int64           `db:"id"`
	RouteID     int64           `db:"route_id"`
	Position    int             `db:"position"`
	BusstopType string          `db:"busstop_type"`
	BusstopID   int64           `db:"busstop_id"`
	Name        string          `db:"name"`
	Area        sql.NullString  `db:"area"`
	Latitude    sql.NullFloat64 `db:"latitude"`
	Longitude   sql.NullFloat64 `db:"longitude"`
	PlaceID     sql.NullString  `db:"place_id"`
}

func (r membershipRow) toModel() models.RouteMembership {
	stop := stopRow{
		ID:        r.BusstopID,
		Name:      r.Name,
		Area:      r.Area,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		PlaceID:   r.PlaceID,
	}
	return models.RouteMembership{
		ID:       r.ID,
		RouteID:  r.RouteID,
		Position: r.Position,
		Role:     models.StopRole(r.BusstopType),
		Stop:     stop.toModel(),
	}
}

// NewRouteRepository creates a new route repository
func NewRouteRepository(db DB) *RouteRepository {
	return &RouteRepository{db: db}
}

// RouteIDsForStop returns the distinct ids of every route the busstop belongs to
func (r *RouteRepository) RouteIDsForStop(stopID int64) ([]int64, error) {
	query := `
		SELECT DISTINCT route_id
		FROM routes
		WHERE busstop_id = $1
		ORDER BY route_id
	`

	routeIDs := []int64{}
	if err := r.db.Select(&routeIDs, query, stopID); err != nil {
		return nil, fmt.Errorf("failed to find routes for busstop %d: %w", stopID, err)
	}

	return routeIDs, nil
}

// MembershipsForRoute returns every stop of a route ordered by position
func (r *RouteRepository) MembershipsForRoute(routeID int64) ([]models.RouteMembership, error) {
	query := `
		SELECT
			rt.id, rt.route_id, rt.position, rt.busstop_type,
			b.id AS busstop_id, b.name, b.area, b.latitude, b.longitude, b.place_id
		FROM routes rt
		JOIN busstops b ON b.id = rt.busstop_id
		WHERE rt.route_id = $1
		ORDER BY rt.position
	`

	var rows []membershipRow
	if err := r.db.Select(&rows, query, routeID); err != nil {
		return nil, fmt.Errorf("failed to get route %d: %w", routeID, err)
	}

	memberships := make([]models.RouteMembership, 0, len(rows))
	for _, row := range rows {
		memberships = append(memberships, row.toModel())
	}
	return memberships, nil
}

// ListRouteIDs returns every route id in ascending order
func (r *RouteRepository) ListRouteIDs() ([]int64, error) {
	routeIDs := []int64{}
	if err := r.db.Select(&routeIDs, `SELECT DISTINCT route_id FROM routes ORDER BY route_id`); err != nil {
		return nil, fmt.Errorf("failed to list routes: %w", err)
	}
	return routeIDs, nil
}
