package places

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.opentelemetry.io/otel/trace/noop"
)

func TestNearby_RecordsSpans(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter)))
	t.Cleanup(func() { otel.SetTracerProvider(noop.NewTracerProvider()) })

	gateway := newTestGateway(t, func(w http.ResponseWriter, r *http.Request) {
		if strings.HasSuffix(r.URL.Path, "/geocode/json") {
			w.Write([]byte(geocodeOK))
			return
		}
		w.Write([]byte(nearbyOK))
	})

	found := gateway.Nearby(context.Background(), "ogunlana drive, surulere", 800)
	require.Len(t, found, 2)

	spans := exporter.GetSpans()
	var nearby *tracetest.SpanStub
	for i := range spans {
		if spans[i].Name == "places.nearby" {
			nearby = &spans[i]
		}
	}
	require.NotNil(t, nearby, "nearby lookup span was not recorded")
	assert.Contains(t, nearby.Attributes, attribute.String("places.address", "ogunlana drive, surulere"))
	assert.Contains(t, nearby.Attributes, attribute.Int("places.results", 2))

	// One client span per provider request, both children of the lookup span
	children := 0
	for _, span := range spans {
		if span.Parent.SpanID() == nearby.SpanContext.SpanID() {
			children++
		}
		for _, kv := range span.Attributes {
			assert.NotContains(t, kv.Value.Emit(), "test-key", "span %s leaks the api key", span.Name)
		}
	}
	assert.Equal(t, 2, children)
}
