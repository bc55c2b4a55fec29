package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/danfoguide/route-finder/internal/database"
	"github.com/danfoguide/route-finder/internal/models"
	"github.com/danfoguide/route-finder/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const handlerNetwork = `
stops:
  - {id: 1, name: oshodi, area: oshodi-isolo}
  - {id: 2, name: ikeja along, area: ikeja}
  - {id: 3, name: cms, area: lagos island}
  - {id: 4, name: ajah, area: eti-osa}
  - {id: 5, name: lekki, area: eti-osa}
  - {id: 6, name: iyana ipaja, area: alimosho}
  - {id: 7, name: badagry, area: badagry}
  - {id: 8, name: seme, area: badagry}
  - {id: 9, name: ikotun, area: alimosho}
  - {id: 10, name: egbeda, area: alimosho}
routes:
  - id: 1
    stops:
      - {stop: 1, type: TE}
      - {stop: 2, type: TE}
  - id: 2
    stops:
      - {stop: 1, type: TE}
      - {stop: 3, type: TE}
  - id: 3
    stops:
      - {stop: 3, type: TE}
      - {stop: 5, type: TR}
      - {stop: 4, type: TE}
  - id: 4
    stops:
      - {stop: 7, type: TE}
      - {stop: 8, type: TE}
  - id: 5
    stops:
      - {stop: 6, type: TE}
      - {stop: 9, type: TR}
      - {stop: 9, type: TR}
      - {stop: 10, type: TE}
`

func setupTestRouter(t *testing.T) *gin.Engine {
	gin.SetMode(gin.TestMode)

	store, err := database.ParseNetwork([]byte(handlerNetwork), 0)
	require.NoError(t, err)

	logger, _ := test.NewNullLogger()
	resolver := services.NewStopResolver(store, nil, services.StopResolverConfig{}, logger)
	engine := services.NewRouteEngine(store, services.DefaultCostBand, logger)
	service := services.NewSearchService(resolver, engine, store, nil, logger)

	router := gin.New()
	NewSearchHandler(service, logger).RegisterRoutes(router.Group("/api/v1"))
	return router
}

func performRequest(router *gin.Engine, method, path string, body []byte) (*httptest.ResponseRecorder, map[string]interface{}) {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (Linux; Android 12; SM-A515F) AppleWebKit/537.36")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var response map[string]interface{}
	_ = json.Unmarshal(w.Body.Bytes(), &response)
	return w, response
}

func TestSearchHandler_Search(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("Success", func(t *testing.T) {
		body, _ := json.Marshal(models.SearchRequest{From: "cms, lagos island", To: "ajah"})
		w, _ := performRequest(router, http.MethodPost, "/api/v1/search", body)
		require.Equal(t, http.StatusOK, w.Code)

		var response models.SearchResponse
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
		assert.Equal(t, models.SearchStatusSuccess, response.Status)
		require.Len(t, response.Routes, 1)
		assert.Equal(t, "cms -> lekki -> ajah", response.Routes[0].Summary)
		assert.True(t, response.SearchDetails.ToStop.Matched)
	})

	t.Run("Raw Query", func(t *testing.T) {
		w, response := performRequest(router, http.MethodPost, "/api/v1/search", []byte(`{"query": "ajah; oshodi"}`))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.SearchStatusSuccess, response["status"])
	})

	t.Run("Not Found", func(t *testing.T) {
		w, response := performRequest(router, http.MethodPost, "/api/v1/search", []byte(`{"from": "zzzz", "to": "ajah"}`))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.SearchStatusNotFound, response["status"])
	})

	t.Run("No Route", func(t *testing.T) {
		w, response := performRequest(router, http.MethodPost, "/api/v1/search", []byte(`{"from": "seme", "to": "ajah"}`))
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.SearchStatusNoRoute, response["status"])
	})

	t.Run("Malformed JSON", func(t *testing.T) {
		w, response := performRequest(router, http.MethodPost, "/api/v1/search", []byte(`{"from": `))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "Invalid request format", response["message"])
	})

	t.Run("Missing Destination", func(t *testing.T) {
		w, response := performRequest(router, http.MethodPost, "/api/v1/search", []byte(`{"from": "cms"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "to location is required", response["message"])
	})

	t.Run("Invalid Query Format", func(t *testing.T) {
		w, response := performRequest(router, http.MethodPost, "/api/v1/search", []byte(`{"query": "cms to ajah"}`))
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, services.UsageInstructions, response["instructions"])
	})

	t.Run("Corrupt Route Data", func(t *testing.T) {
		w, response := performRequest(router, http.MethodPost, "/api/v1/search", []byte(`{"from": "iyana ipaja", "to": "egbeda"}`))
		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.Equal(t, "error", response["status"])
	})
}

func TestSearchHandler_ResolveStop(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("Found", func(t *testing.T) {
		w, response := performRequest(router, http.MethodGet, "/api/v1/stops/resolve?q=Oshodi,+Oshodi-Isolo", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.SearchStatusSuccess, response["status"])

		match, ok := response["match"].(map[string]interface{})
		require.True(t, ok)
		assert.Equal(t, "oshodi", match["name"])
		assert.Equal(t, float64(1), match["id"])
	})

	t.Run("Not Found", func(t *testing.T) {
		w, response := performRequest(router, http.MethodGet, "/api/v1/stops/resolve?q=zzzz", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, models.SearchStatusNotFound, response["status"])
		assert.Nil(t, response["match"])
		assert.Equal(t, []interface{}{}, response["others"])
	})

	t.Run("Missing Query", func(t *testing.T) {
		w, _ := performRequest(router, http.MethodGet, "/api/v1/stops/resolve", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Sentinel Only", func(t *testing.T) {
		w, response := performRequest(router, http.MethodGet, "/api/v1/stops/resolve?q=*", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, models.ErrEmptyLocation.Error(), response["message"])
	})
}

func TestSearchHandler_GetStopAutocomplete(t *testing.T) {
	router := setupTestRouter(t)

	w, response := performRequest(router, http.MethodGet, "/api/v1/stops/autocomplete?q=os&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), response["count"])

	suggestions := response["suggestions"].([]interface{})
	first := suggestions[0].(map[string]interface{})
	assert.Equal(t, "oshodi", first["stop_name"])
	assert.Equal(t, float64(2), first["route_count"])

	w, _ = performRequest(router, http.MethodGet, "/api/v1/stops/autocomplete", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearchHandler_GetRoute(t *testing.T) {
	router := setupTestRouter(t)

	t.Run("Found", func(t *testing.T) {
		w, response := performRequest(router, http.MethodGet, "/api/v1/routes/3", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "cms -> lekki -> ajah", response["summary"])
		assert.Len(t, response["stops"], 3)
	})

	t.Run("Unknown Route", func(t *testing.T) {
		w, _ := performRequest(router, http.MethodGet, "/api/v1/routes/404", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("Invalid ID", func(t *testing.T) {
		w, _ := performRequest(router, http.MethodGet, "/api/v1/routes/abc", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("Non Positive ID", func(t *testing.T) {
		w, response := performRequest(router, http.MethodGet, "/api/v1/routes/0", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "route id must be a positive number", response["message"])
	})
}

func TestSearchHandler_RespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	logger, hook := test.NewNullLogger()
	h := NewSearchHandler(nil, logger)

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"Validation", &models.ValidationError{Message: "destination is required"}, http.StatusBadRequest},
		{"Store Failure", fmt.Errorf("failed to get route 1: %w", context.DeadlineExceeded), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hook.Reset()
			w := httptest.NewRecorder()
			c, _ := gin.CreateTestContext(w)

			h.respondError(c, tt.err, "Failed to search routes")

			assert.Equal(t, tt.wantStatus, w.Code)
			require.NotNil(t, hook.LastEntry())
		})
	}
}
