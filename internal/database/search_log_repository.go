package database

import (
	"fmt"
	"time"

	"github.com/danfoguide/route-finder/internal/models"
	"github.com/google/uuid"
)

// SearchLogRepository records route searches for analytics
type SearchLogRepository struct {
	db DB
}

// NewSearchLogRepository creates a new search log repository
func NewSearchLogRepository(db DB) *SearchLogRepository {
	return &SearchLogRepository{db: db}
}

// LogSearch inserts a search analytics record, assigning its id and timestamp when unset
func (r *SearchLogRepository) LogSearch(log *models.SearchLog) error {
	if log.ID == uuid.Nil {
		log.ID = uuid.New()
	}
	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO search_logs (
			id, from_input, to_input, from_stop_id, to_stop_id, status,
			results_count, response_time_ms, ip_address, platform, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.Exec(
		query,
		log.ID,
		log.FromInput,
		log.ToInput,
		log.FromStopID,
		log.ToStopID,
		log.Status,
		log.ResultsCount,
		log.ResponseTimeMs,
		log.IPAddress,
		log.Platform,
		log.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to log search: %w", err)
	}

	return nil
}
