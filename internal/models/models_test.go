package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string {
	return &s
}

func TestStop_SameAs(t *testing.T) {
	tests := []struct {
		name string
		a, b Stop
		want bool
	}{
		{"Same Place ID", Stop{Name: "cms", PlaceID: strPtr("p1")}, Stop{Name: "cms bus stop", PlaceID: strPtr("p1")}, true},
		{"Different Place ID", Stop{Name: "cms", PlaceID: strPtr("p1")}, Stop{Name: "cms", PlaceID: strPtr("p2")}, false},
		{"Name And Area", Stop{Name: "yaba", Area: "yaba"}, Stop{Name: "yaba", Area: "yaba", PlaceID: strPtr("p3")}, true},
		{"Different Area", Stop{Name: "sabo", Area: "yaba"}, Stop{Name: "sabo", Area: "ikorodu"}, false},
		{"Empty Place ID", Stop{Name: "ketu", PlaceID: strPtr("")}, Stop{Name: "ketu"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.SameAs(&tt.b))
		})
	}
}

func TestNewResolution(t *testing.T) {
	res := NewResolution(nil)
	assert.False(t, res.Found())
	assert.NotNil(t, res.Others)
	assert.Empty(t, res.Others)

	stops := []Stop{{ID: 3, Name: "ojuelegba"}, {ID: 4, Name: "ojuelegba bridge"}}
	res = NewResolution(stops)
	require.True(t, res.Found())
	assert.Equal(t, int64(3), res.Match.ID)
	assert.Equal(t, []Stop{{ID: 4, Name: "ojuelegba bridge"}}, res.Others)

	stops[0].Name = "changed"
	assert.Equal(t, "ojuelegba", res.Match.Name)
}

func membership(routeID int64, position int, role StopRole, stopID int64, name string) RouteMembership {
	return RouteMembership{RouteID: routeID, Position: position, Role: role, Stop: Stop{ID: stopID, Name: name}}
}

func TestValidateRoute(t *testing.T) {
	valid := []RouteMembership{
		membership(1, 1, RoleTerminal, 1, "ikeja"),
		membership(1, 2, RoleTransit, 2, "maryland"),
		membership(1, 3, RoleTerminal, 3, "ojota"),
	}
	assert.NoError(t, ValidateRoute(valid))

	tests := []struct {
		name    string
		mutate  func(m []RouteMembership)
		message string
	}{
		{"Unknown Role", func(m []RouteMembership) { m[1].Role = "XX" }, `invalid busstop type "XX"`},
		{"Unordered", func(m []RouteMembership) { m[2].Position = 2 }, "not strictly increasing"},
		{"Transit Endpoint", func(m []RouteMembership) { m[0].Role = RoleTransit }, `endpoint "ikeja" must be a terminal`},
		{"Terminal Interior", func(m []RouteMembership) { m[1].Role = RoleTerminal }, `interior stop "maryland"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			route := append([]RouteMembership(nil), valid...)
			tt.mutate(route)
			err := ValidateRoute(route)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}
}

func TestFindDuplicateStop(t *testing.T) {
	route := []RouteMembership{
		membership(7, 1, RoleTerminal, 1, "ikeja"),
		membership(7, 2, RoleTransit, 2, "oshodi"),
		membership(7, 3, RoleTransit, 3, "mushin"),
		membership(7, 4, RoleTransit, 2, "oshodi"),
		membership(7, 5, RoleTerminal, 4, "yaba"),
	}

	dup := FindDuplicateStop(route)
	require.NotNil(t, dup)
	assert.Equal(t, int64(7), dup.RouteID)
	assert.Equal(t, int64(2), dup.StopID)
	assert.Equal(t, 2, dup.Count)
	assert.Equal(t, "route 7 contains busstop 2 (oshodi) 2 times", dup.Error())

	assert.Nil(t, FindDuplicateStop(route[:3]))
}

func TestSearchRequest_Validate(t *testing.T) {
	assert.NoError(t, (&SearchRequest{Query: "ikeja;yaba"}).Validate())
	assert.NoError(t, (&SearchRequest{From: "ikeja", To: "yaba"}).Validate())

	var validationErr *ValidationError
	err := (&SearchRequest{To: "yaba"}).Validate()
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "from location is required", validationErr.Message)

	err = (&SearchRequest{From: "ikeja", To: "  "}).Validate()
	require.True(t, errors.As(err, &validationErr))
	assert.Equal(t, "to location is required", validationErr.Message)
}

func TestNewRouteResult(t *testing.T) {
	result := NewRouteResult(RoutePath{
		Stops:     []string{"ikeja", "oshodi", "yaba"},
		Transfers: []string{"ikeja", "oshodi", "yaba"},
		Cost:      2,
	})
	assert.Equal(t, "ikeja -> oshodi -> yaba", result.Summary)
	assert.Equal(t, 2, result.Cost)
}
