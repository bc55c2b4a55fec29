package places

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	DefaultGoogleBaseURL = "https://maps.googleapis.com/maps/api"

	// busStationType restricts nearby search results to bus stations
	busStationType = "bus_station"

	statusOK          = "OK"
	statusZeroResults = "ZERO_RESULTS"
)

// GoogleGateway implements busstop lookup via the Google Geocoding and Places APIs
type GoogleGateway struct {
	apiKey  string
	baseURL string
	client  *http.Client
	tracer  trace.Tracer
	logger  *logrus.Logger
}

// GoogleConfig holds configuration for the Google places gateway
type GoogleConfig struct {
	APIKey  string
	BaseURL string        // Optional: defaults to DefaultGoogleBaseURL
	Timeout time.Duration // Optional: defaults to 10s
}

// LatLng is a geographic coordinate
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String formats the coordinate as "lat,lng" for query parameters
func (l LatLng) String() string {
	return strconv.FormatFloat(l.Lat, 'f', -1, 64) + "," + strconv.FormatFloat(l.Lng, 'f', -1, 64)
}

// GeocodeResponse represents the geocoding API response structure
type GeocodeResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message,omitempty"`
	Results      []struct {
		PlaceID  string `json:"place_id"`
		Geometry struct {
			Location LatLng `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// NearbySearchResponse represents the nearby search API response structure
type NearbySearchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []Place `json:"results"`
}

// NewGoogleGateway creates a new Google places gateway client
func NewGoogleGateway(config GoogleConfig, logger *logrus.Logger) *GoogleGateway {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	timeout := config.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &GoogleGateway{
		apiKey:  config.APIKey,
		baseURL: baseURL,
		client: &http.Client{
			Transport: otelhttp.NewTransport(&apiKeyTransport{apiKey: config.APIKey, base: http.DefaultTransport}),
			Timeout:   timeout,
		},
		tracer: otel.Tracer("places-gateway"),
		logger: logger,
	}
}

// GetName returns the gateway name
func (g *GoogleGateway) GetName() string {
	return "google"
}

// Nearby geocodes address and returns the bus stations within radiusMeters of it.
// Any failure is logged and reported as no busstops nearby.
func (g *GoogleGateway) Nearby(ctx context.Context, address string, radiusMeters int) []Place {
	ctx, span := g.tracer.Start(ctx, "places.nearby",
		trace.WithAttributes(
			attribute.String("places.address", address),
			attribute.Int("places.radius_m", radiusMeters),
		),
	)
	defer span.End()

	location, err := g.Geocode(ctx, address)
	if err != nil {
		span.RecordError(err)
		g.logger.WithError(err).WithField("address", address).Warn("Geocoding failed, treating as no busstops nearby")
		return []Place{}
	}
	if location == nil {
		g.logger.WithField("address", address).Info("Address could not be geocoded")
		return []Place{}
	}

	found, err := g.SearchNearby(ctx, *location, radiusMeters)
	if err != nil {
		span.RecordError(err)
		g.logger.WithError(err).WithField("address", address).Warn("Nearby search failed, treating as no busstops nearby")
		return []Place{}
	}

	span.SetAttributes(attribute.Int("places.results", len(found)))
	return found
}

// Geocode returns the location of the best match for address, or nil when nothing matched
func (g *GoogleGateway) Geocode(ctx context.Context, address string) (*LatLng, error) {
	params := url.Values{}
	params.Set("address", address)

	var resp GeocodeResponse
	if err := g.getJSON(ctx, "/geocode/json", params, &resp); err != nil {
		return nil, fmt.Errorf("geocode request failed: %w", err)
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return nil, nil
	default:
		return nil, fmt.Errorf("geocode failed: %s %s", resp.Status, resp.ErrorMessage)
	}
	if len(resp.Results) == 0 {
		return nil, nil
	}

	// The first result is the provider's best match
	location := resp.Results[0].Geometry.Location
	return &location, nil
}

// SearchNearby returns bus stations within radiusMeters of location, in the provider's order
func (g *GoogleGateway) SearchNearby(ctx context.Context, location LatLng, radiusMeters int) ([]Place, error) {
	params := url.Values{}
	params.Set("location", location.String())
	params.Set("radius", strconv.Itoa(radiusMeters))
	params.Set("type", busStationType)

	var resp NearbySearchResponse
	if err := g.getJSON(ctx, "/place/nearbysearch/json", params, &resp); err != nil {
		return nil, fmt.Errorf("nearby search request failed: %w", err)
	}

	switch resp.Status {
	case statusOK:
	case statusZeroResults:
		return []Place{}, nil
	default:
		return nil, fmt.Errorf("nearby search failed: %s %s", resp.Status, resp.ErrorMessage)
	}

	found := make([]Place, 0, len(resp.Results))
	for _, p := range resp.Results {
		if p.Name == "" {
			continue
		}
		found = append(found, p)
	}
	return found, nil
}

func (g *GoogleGateway) getJSON(ctx context.Context, path string, params url.Values, dest interface{}) error {
	endpoint := g.baseURL + path + "?" + params.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.Unmarshal(body, dest); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}

// apiKeyTransport adds the api key below the tracing transport, so neither
// spans nor client errors ever carry it
type apiKeyTransport struct {
	apiKey string
	base   http.RoundTripper
}

func (t *apiKeyTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	keyed := req.Clone(req.Context())
	query := keyed.URL.Query()
	query.Set("key", t.apiKey)
	keyed.URL.RawQuery = query.Encode()

	return t.base.RoundTrip(keyed)
}
