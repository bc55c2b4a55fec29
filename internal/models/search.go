package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Search statuses
const (
	SearchStatusSuccess  = "success"
	SearchStatusNotFound = "not_found"
	SearchStatusNoRoute  = "no_route"
	SearchStatusGreeting = "greeting"
)

// SearchRequest represents a rider's route query.
// Either From and To are set, or Query holds "source;destination".
type SearchRequest struct {
	From  string `json:"from,omitempty"`  // Origin location (e.g., "ojuelegba, surulere")
	To    string `json:"to,omitempty"`    // Destination location (e.g., "*unilag, akoka")
	Query string `json:"query,omitempty"` // Raw message (e.g., "ojuelegba;yaba")
}

// SearchResponse represents the search results returned to the rider
type SearchResponse struct {
	Status        string        `json:"status"`         // "success", "not_found", "no_route", "greeting"
	Message       string        `json:"message"`        // Human-readable message
	SearchDetails SearchDetails `json:"search_details"` // Details about how each end was resolved
	Routes        []RouteResult `json:"routes"`         // Ranked routes, best first
	SearchTimeMs  int64         `json:"search_time_ms"` // Search execution time
}

// SearchDetails provides information about how the search was performed
type SearchDetails struct {
	FromStop StopInfo `json:"from_stop"`
	ToStop   StopInfo `json:"to_stop"`
}

// StopInfo represents a resolved bus stop with matching details
type StopInfo struct {
	ID            *int64   `json:"id,omitempty"`
	Name          string   `json:"name,omitempty"`
	Area          string   `json:"area,omitempty"`
	Matched       bool     `json:"matched"`
	Fuzzy         bool     `json:"fuzzy"`
	OriginalInput string   `json:"original_input"`
	Alternatives  []string `json:"alternatives,omitempty"` // Other busstops found around the input
}

// RouteResult is one ranked route in search results
type RouteResult struct {
	Summary   string   `json:"summary"` // "a -> b -> c"
	Stops     []string `json:"stops"`
	Transfers []string `json:"transfers"`
	Cost      int      `json:"cost"`
}

// NewRouteResult converts an engine path to its response form
func NewRouteResult(p RoutePath) RouteResult {
	return RouteResult{
		Summary:   p.String(),
		Stops:     p.Stops,
		Transfers: p.Transfers,
		Cost:      p.Cost,
	}
}

// StopAutocomplete represents a stop suggestion for autocomplete
type StopAutocomplete struct {
	StopID     int64  `json:"stop_id" db:"stop_id"`
	StopName   string `json:"stop_name" db:"stop_name"`
	Area       string `json:"area" db:"area"`
	RouteCount int    `json:"route_count" db:"route_count"` // Number of routes serving this stop
}

// SearchLog represents a search analytics record
type SearchLog struct {
	ID             uuid.UUID `json:"id" db:"id"`
	FromInput      string    `json:"from_input" db:"from_input"`
	ToInput        string    `json:"to_input" db:"to_input"`
	FromStopID     *int64    `json:"from_stop_id,omitempty" db:"from_stop_id"`
	ToStopID       *int64    `json:"to_stop_id,omitempty" db:"to_stop_id"`
	Status         string    `json:"status" db:"status"`
	ResultsCount   int       `json:"results_count" db:"results_count"`
	ResponseTimeMs int64     `json:"response_time_ms" db:"response_time_ms"`
	IPAddress      *string   `json:"ip_address,omitempty" db:"ip_address"`
	Platform       *string   `json:"platform,omitempty" db:"platform"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
}

// Validate validates the search request
func (r *SearchRequest) Validate() error {
	if strings.TrimSpace(r.Query) != "" {
		return nil
	}
	if strings.TrimSpace(r.From) == "" {
		return ErrInvalidInput("from location is required")
	}
	if strings.TrimSpace(r.To) == "" {
		return ErrInvalidInput("to location is required")
	}
	return nil
}
