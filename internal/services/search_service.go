package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/danfoguide/route-finder/internal/models"
	"github.com/danfoguide/route-finder/pkg/similarity"
	"github.com/danfoguide/route-finder/pkg/validator"
	"github.com/sirupsen/logrus"
)

// greetingThreshold is the Jaro similarity above which a message counts as a greeting
const greetingThreshold = 0.8

var greetings = []string{"hello", "hi", "how are you", "whats up", "how far", "hey"}

// UsageInstructions explains the request format to riders
const UsageInstructions = "Send your queries in any of these formats:\n" +
	"1. If you are sure about the bus stop:\n" +
	"<source bus stop>, <lga>; <destination bus stop>, <lga>\n" +
	"e.g. oshodi, oshodi-isolo; cms, lagos island\n" +
	"2. If you aren't sure about the bus stop or the lga:\n" +
	"*<source location>, <optional area>; *<destination location>, <optional area>\n" +
	"e.g. *ketu; *sabo, yaba\n" +
	"e.g. cms, lagos island; *ogunlana drive, surulere"

// Autocomplete limits
const (
	defaultAutocompleteLimit = 10
	maxAutocompleteLimit     = 50
	minAutocompleteTerm      = 2
)

// SearchLogger records searches for analytics
type SearchLogger interface {
	LogSearch(log *models.SearchLog) error
}

// Catalog lists busstops and routes for browsing
type Catalog interface {
	Autocomplete(term string, limit int) ([]models.StopAutocomplete, error)
	MembershipsForRoute(routeID int64) ([]models.RouteMembership, error)
}

// SearchClient identifies who made a search
type SearchClient struct {
	IPAddress string
	Platform  string
}

// SearchService answers rider route queries by resolving both ends and
// running the route engine
type SearchService struct {
	resolver   *StopResolver
	engine     *RouteEngine
	catalog    Catalog
	searchLogs SearchLogger
	validator  *validator.LocationValidator
	logger     *logrus.Logger
}

// NewSearchService creates a new search service. searchLogs may be nil to disable analytics.
func NewSearchService(
	resolver *StopResolver,
	engine *RouteEngine,
	catalog Catalog,
	searchLogs SearchLogger,
	logger *logrus.Logger,
) *SearchService {
	return &SearchService{
		resolver:   resolver,
		engine:     engine,
		catalog:    catalog,
		searchLogs: searchLogs,
		validator:  validator.NewLocationValidator(),
		logger:     logger,
	}
}

// IsGreeting reports whether a message looks like a greeting rather than a route query
func IsGreeting(message string) bool {
	for _, g := range greetings {
		if similarity.Jaro(message, g) > greetingThreshold {
			return true
		}
	}
	return false
}

// ParseRouteRequest splits a "source;destination" message.
// Returns *models.FormatError unless there are exactly two non-empty parts.
func (s *SearchService) ParseRouteRequest(message string) (string, string, error) {
	source, destination, err := s.validator.SplitRequest(message)
	if err != nil {
		return "", "", &models.FormatError{Request: truncate(message, 30)}
	}
	return source, destination, nil
}

// Search finds routes for a rider request. Unknown busstops and unserved
// journeys are reported through the response status, not as errors.
func (s *SearchService) Search(ctx context.Context, req *models.SearchRequest, client SearchClient) (*models.SearchResponse, error) {
	startTime := time.Now()

	if err := req.Validate(); err != nil {
		return nil, err
	}

	from, to := req.From, req.To
	if query := strings.TrimSpace(req.Query); query != "" {
		if IsGreeting(query) {
			return &models.SearchResponse{
				Status:  models.SearchStatusGreeting,
				Message: "Hi\nType in your query to get started.\n" + UsageInstructions,
				Routes:  []models.RouteResult{},
			}, nil
		}

		var err error
		from, to, err = s.ParseRouteRequest(query)
		if err != nil {
			return nil, err
		}
	}

	s.logger.WithFields(logrus.Fields{
		"from": from,
		"to":   to,
	}).Info("Processing search request")

	response := &models.SearchResponse{
		Status: models.SearchStatusSuccess,
		SearchDetails: models.SearchDetails{
			FromStop: models.StopInfo{OriginalInput: from},
			ToStop:   models.StopInfo{OriginalInput: to},
		},
		Routes: []models.RouteResult{},
	}

	// Step 1: Resolve both ends
	source, err := s.resolveEnd(ctx, from, &response.SearchDetails.FromStop)
	if err != nil {
		return nil, err
	}
	destination, err := s.resolveEnd(ctx, to, &response.SearchDetails.ToStop)
	if err != nil {
		return nil, err
	}

	switch {
	case source == nil:
		response.Status = models.SearchStatusNotFound
		response.Message = notFoundMessage(from)
	case destination == nil:
		response.Status = models.SearchStatusNotFound
		response.Message = notFoundMessage(to)
	default:
		// Step 2: Find routes
		paths, err := s.engine.FindRoutes(source, destination)
		if err != nil {
			var dup *models.DuplicateStopError
			if !errors.As(err, &dup) {
				s.logger.WithError(err).Error("Error finding routes")
			}
			return nil, fmt.Errorf("error searching for routes: %w", err)
		}

		for _, p := range paths {
			response.Routes = append(response.Routes, models.NewRouteResult(p))
		}

		if len(paths) == 0 {
			response.Status = models.SearchStatusNoRoute
			response.Message = "I am sorry. I don't have a route to serve your request"
		} else {
			response.Message = fmt.Sprintf("Found %d route(s) from %s to %s", len(paths), source.Name, destination.Name)
		}
	}

	for _, end := range []models.StopInfo{response.SearchDetails.FromStop, response.SearchDetails.ToStop} {
		if len(end.Alternatives) > 0 {
			response.Message += "\n" + alternativesMessage(end)
		}
	}

	response.SearchTimeMs = time.Since(startTime).Milliseconds()
	s.logSearch(from, to, response, client)

	s.logger.WithFields(logrus.Fields{
		"from":        from,
		"to":          to,
		"status":      response.Status,
		"results":     len(response.Routes),
		"response_ms": response.SearchTimeMs,
	}).Info("Search completed")

	return response, nil
}

// ResolveLocation resolves one raw location string
func (s *SearchService) ResolveLocation(ctx context.Context, raw string) (*models.Resolution, error) {
	return s.resolver.Resolve(ctx, raw)
}

// GetStopAutocomplete returns busstop suggestions for autocomplete
func (s *SearchService) GetStopAutocomplete(searchTerm string, limit int) ([]models.StopAutocomplete, error) {
	searchTerm = strings.TrimSpace(searchTerm)
	if len(searchTerm) < minAutocompleteTerm {
		return []models.StopAutocomplete{}, nil
	}

	if limit <= 0 {
		limit = defaultAutocompleteLimit
	}
	if limit > maxAutocompleteLimit {
		limit = maxAutocompleteLimit
	}

	suggestions, err := s.catalog.Autocomplete(searchTerm, limit)
	if err != nil {
		s.logger.WithError(err).Error("Error getting autocomplete suggestions")
		return nil, fmt.Errorf("error retrieving suggestions: %w", err)
	}

	return suggestions, nil
}

// GetRoute returns the stops of one route in order, or an empty list for an unknown route
func (s *SearchService) GetRoute(routeID int64) ([]models.RouteMembership, error) {
	if routeID <= 0 {
		return nil, models.ErrInvalidInput("route id must be a positive number")
	}

	memberships, err := s.catalog.MembershipsForRoute(routeID)
	if err != nil {
		s.logger.WithError(err).Error("Error getting route")
		return nil, fmt.Errorf("error retrieving route: %w", err)
	}

	return memberships, nil
}

// resolveEnd resolves one end of a journey into info, returning nil when no busstop matched
func (s *SearchService) resolveEnd(ctx context.Context, raw string, info *models.StopInfo) (*models.Stop, error) {
	res, err := s.resolver.Resolve(ctx, raw)
	if err != nil {
		return nil, err
	}

	query, err := s.resolver.ParseLocation(raw)
	if err == nil {
		info.Fuzzy = query.IsFuzzy
	}

	if !res.Found() {
		s.logger.WithField("location", raw).Warn(notFoundMessage(raw))
		return nil, nil
	}

	id := res.Match.ID
	info.ID = &id
	info.Name = res.Match.Name
	info.Area = res.Match.Area
	info.Matched = true
	for _, other := range res.Others {
		info.Alternatives = append(info.Alternatives, other.Name)
	}

	return res.Match, nil
}

// logSearch logs the search request for analytics
func (s *SearchService) logSearch(from, to string, response *models.SearchResponse, client SearchClient) {
	if s.searchLogs == nil {
		return
	}

	log := &models.SearchLog{
		FromInput:      from,
		ToInput:        to,
		FromStopID:     response.SearchDetails.FromStop.ID,
		ToStopID:       response.SearchDetails.ToStop.ID,
		Status:         response.Status,
		ResultsCount:   len(response.Routes),
		ResponseTimeMs: response.SearchTimeMs,
	}
	if client.IPAddress != "" {
		ip := client.IPAddress
		log.IPAddress = &ip
	}
	if client.Platform != "" {
		platform := client.Platform
		log.Platform = &platform
	}

	// Log asynchronously to not block response
	go func() {
		if err := s.searchLogs.LogSearch(log); err != nil {
			s.logger.WithError(err).Warn("Failed to log search")
		}
	}()
}

// alternativesMessage lists the other busstops found for one end, numbered from 1
func alternativesMessage(info models.StopInfo) string {
	lines := make([]string, 0, len(info.Alternatives))
	for i, name := range info.Alternatives {
		lines = append(lines, fmt.Sprintf("%2d. %s", i+1, name))
	}
	return fmt.Sprintf("Here are other busstops we found around %s:\n%s", strings.TrimSpace(info.OriginalInput), strings.Join(lines, "\n"))
}

func notFoundMessage(location string) string {
	return fmt.Sprintf("No busstop was found for %q", strings.TrimSpace(location))
}

// truncate shortens s to at most n runes, marking the cut with "..."
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-3]) + "..."
}
