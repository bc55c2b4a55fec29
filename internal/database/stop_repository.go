package database

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/danfoguide/route-finder/internal/models"
)

// DefaultSimilarityThreshold is the minimum pg_trgm similarity for a busstop name match
const DefaultSimilarityThreshold = 0.3

// StopRepository handles database operations for the busstops table.
// Every multi-row query is ordered by id, i.e. load order.
type StopRepository struct {
	db        DB
	threshold float64
}

// stopRow is the flat busstops row shape
type stopRow struct {
	ID        int64           `db:"id"`
	Name      string          `db:"name"`
	Area      sql.NullString  `db:"area"`
	Latitude  sql.NullFloat64 `db:"latitude"`
	Longitude sql.NullFloat64 `db:"longitude"`
	PlaceID   sql.NullString  `db:"place_id"`
}

func (r stopRow) toModel() models.Stop {
	stop := models.Stop{
		ID:   r.ID,
		Name: r.Name,
		Area: r.Area.String,
	}
	if r.Latitude.Valid {
		lat := r.Latitude.Float64
		stop.Latitude = &lat
	}
	if r.Longitude.Valid {
		lng := r.Longitude.Float64
		stop.Longitude = &lng
	}
	if r.PlaceID.Valid && r.PlaceID.String != "" {
		placeID := r.PlaceID.String
		stop.PlaceID = &placeID
	}
	return stop
}

func stopsFromRows(rows []stopRow) []models.Stop {
	stops := make([]models.Stop, 0, len(rows))
	for _, row := range rows {
		stops = append(stops, row.toModel())
	}
	return stops
}

// NewStopRepository creates a new stop repository.
// A non-positive threshold falls back to DefaultSimilarityThreshold.
func NewStopRepository(db DB, threshold float64) *StopRepository {
	if threshold <= 0 {
		threshold = DefaultSimilarityThreshold
	}
	return &StopRepository{
		db:        db,
		threshold: threshold,
	}
}

// FuzzyMatch finds busstops whose name is similar to name and, when area is
// non-empty, whose area is similar to area. Requires the pg_trgm extension.
func (r *StopRepository) FuzzyMatch(name, area string) ([]models.Stop, error) {
	var rows []stopRow
	var err error

	name = strings.TrimSpace(name)
	area = strings.TrimSpace(area)

	if area == "" {
		query := `
			SELECT id, name, area, latitude, longitude, place_id
			FROM busstops
			WHERE similarity(name, $1) > $2
			ORDER BY id
		`
		err = r.db.Select(&rows, query, name, r.threshold)
	} else {
		query := `
			SELECT id, name, area, latitude, longitude, place_id
			FROM busstops
			WHERE similarity(name, $1) > $2
			  AND similarity(area, $3) > $2
			ORDER BY id
		`
		err = r.db.Select(&rows, query, name, r.threshold, area)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to match busstops: %w", err)
	}

	return stopsFromRows(rows), nil
}

// ByExternalID finds the busstop with the given external place id (0 or 1 results)
func (r *StopRepository) ByExternalID(placeID string) ([]models.Stop, error) {
	query := `
		SELECT id, name, area, latitude, longitude, place_id
		FROM busstops
		WHERE place_id = $1
		ORDER BY id
	`

	var rows []stopRow
	if err := r.db.Select(&rows, query, placeID); err != nil {
		return nil, fmt.Errorf("failed to find busstop by place id: %w", err)
	}

	return stopsFromRows(rows), nil
}

// GetByID retrieves a busstop by id. Returns (nil, nil) when it does not exist.
func (r *StopRepository) GetByID(id int64) (*models.Stop, error) {
	query := `
		SELECT id, name, area, latitude, longitude, place_id
		FROM busstops
		WHERE id = $1
	`

	var row stopRow
	if err := r.db.Get(&row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get busstop: %w", err)
	}

	stop := row.toModel()
	return &stop, nil
}

// Autocomplete returns busstop suggestions for a partially typed name,
// busstops served by more routes first
func (r *StopRepository) Autocomplete(term string, limit int) ([]models.StopAutocomplete, error) {
	query := `
		SELECT
			b.id AS stop_id,
			b.name AS stop_name,
			COALESCE(b.area, '') AS area,
			COUNT(DISTINCT rt.route_id) AS route_count
		FROM busstops b
		LEFT JOIN routes rt ON rt.busstop_id = b.id
		WHERE b.name ILIKE $1 || '%'
		   OR similarity(b.name, $1) > $2
		GROUP BY b.id, b.name, b.area
		ORDER BY route_count DESC, b.id
		LIMIT $3
	`

	suggestions := []models.StopAutocomplete{}
	if err := r.db.Select(&suggestions, query, strings.ToLower(strings.TrimSpace(term)), r.threshold, limit); err != nil {
		return nil, fmt.Errorf("failed to get busstop suggestions: %w", err)
	}

	return suggestions, nil
}
