package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/danfoguide/route-finder/internal/models"
	"github.com/danfoguide/route-finder/internal/services"
	"github.com/danfoguide/route-finder/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// SearchHandler handles HTTP requests for busstop and route search
type SearchHandler struct {
	service *services.SearchService
	logger  *logrus.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(service *services.SearchService, logger *logrus.Logger) *SearchHandler {
	return &SearchHandler{
		service: service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the search endpoints on a router group
func (h *SearchHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("/search", h.Search)
	rg.GET("/stops/resolve", h.ResolveStop)
	rg.GET("/stops/autocomplete", h.GetStopAutocomplete)
	rg.GET("/routes/:route_id", h.GetRoute)
}

// Search handles POST /api/v1/search
// @Summary Find danfo routes between two locations
// @Description Accepts {"from": "...", "to": "..."} or {"query": "source;destination"}
// @Tags Search
// @Accept json
// @Produce json
// @Param search body models.SearchRequest true "Search parameters"
// @Success 200 {object} models.SearchResponse
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/search [post]
func (h *SearchHandler) Search(c *gin.Context) {
	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.WithError(err).Warn("Invalid search request - JSON parsing failed")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid request format",
			"error":   err.Error(),
		})
		return
	}

	client := services.SearchClient{
		IPAddress: utils.GetRealIP(c),
		Platform:  utils.ClientPlatform(utils.GetUserAgent(c)),
	}

	response, err := h.service.Search(c.Request.Context(), &req, client)
	if err != nil {
		h.respondError(c, err, "Failed to search for routes. Please try again later.")
		return
	}

	c.JSON(http.StatusOK, response)
}

// ResolveStop handles GET /api/v1/stops/resolve
// @Summary Resolve location text to busstops
// @Tags Stops
// @Produce json
// @Param q query string true "Location text, e.g. ojuelegba, surulere or *ogunlana drive"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Router /api/v1/stops/resolve [get]
func (h *SearchHandler) ResolveStop(c *gin.Context) {
	raw := c.Query("q")
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Location 'q' is required",
		})
		return
	}

	res, err := h.service.ResolveLocation(c.Request.Context(), raw)
	if err != nil {
		h.respondError(c, err, "Failed to resolve location")
		return
	}

	status := models.SearchStatusSuccess
	if !res.Found() {
		status = models.SearchStatusNotFound
	}

	c.JSON(http.StatusOK, gin.H{
		"status": status,
		"match":  res.Match,
		"others": res.Others,
	})
}

// GetStopAutocomplete handles GET /api/v1/stops/autocomplete
// @Summary Get busstop autocomplete suggestions
// @Tags Stops
// @Produce json
// @Param q query string true "Search term"
// @Param limit query int false "Maximum number of suggestions" default(10)
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid request"
// @Failure 500 {object} map[string]interface{} "Internal server error"
// @Router /api/v1/stops/autocomplete [get]
func (h *SearchHandler) GetStopAutocomplete(c *gin.Context) {
	searchTerm := c.Query("q")
	if searchTerm == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Search term 'q' is required",
		})
		return
	}

	limit := 10
	if limitStr := c.Query("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 {
			limit = parsedLimit
		}
	}

	suggestions, err := h.service.GetStopAutocomplete(searchTerm, limit)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve suggestions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":      "success",
		"suggestions": suggestions,
		"count":       len(suggestions),
	})
}

// GetRoute handles GET /api/v1/routes/:route_id
// @Summary List the busstops of one route
// @Tags Routes
// @Produce json
// @Param route_id path int true "Route ID"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{} "Invalid route id"
// @Failure 404 {object} map[string]interface{} "Route not found"
// @Router /api/v1/routes/{route_id} [get]
func (h *SearchHandler) GetRoute(c *gin.Context) {
	routeID, err := strconv.ParseInt(c.Param("route_id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": "Invalid route id",
		})
		return
	}

	memberships, err := h.service.GetRoute(routeID)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve route")
		return
	}
	if len(memberships) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"status":  "error",
			"message": "Route not found",
		})
		return
	}

	names := make([]string, 0, len(memberships))
	for _, m := range memberships {
		names = append(names, m.Stop.Name)
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "success",
		"route_id": routeID,
		"summary":  models.FormatRoute(names),
		"stops":    memberships,
	})
}

// respondError maps service errors to HTTP responses
func (h *SearchHandler) respondError(c *gin.Context, err error, message string) {
	var validationErr *models.ValidationError
	var formatErr *models.FormatError
	var duplicateErr *models.DuplicateStopError

	switch {
	case errors.As(err, &validationErr):
		h.logger.WithError(err).Warn("Validation error in search request")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":  "error",
			"message": validationErr.Message,
		})
	case errors.As(err, &formatErr):
		h.logger.WithError(err).Warn("Route request in an invalid format")
		c.JSON(http.StatusBadRequest, gin.H{
			"status":       "error",
			"message":      err.Error(),
			"instructions": services.UsageInstructions,
		})
	case errors.As(err, &duplicateErr):
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": "Route data for this journey is inconsistent. It has been reported.",
		})
	default:
		h.logger.WithError(err).Error("Search failed with an internal error")
		c.JSON(http.StatusInternalServerError, gin.H{
			"status":  "error",
			"message": message,
		})
	}
}
