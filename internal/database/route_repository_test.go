package database

import (
	"fmt"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/danfoguide/route-finder/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var membershipColumns = []string{
	"id", "route_id", "position", "busstop_type",
	"busstop_id", "name", "area", "latitude", "longitude", "place_id",
}

func TestRouteRepository_RouteIDsForStop(t *testing.T) {
	db, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewRouteRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT DISTINCT route_id FROM routes WHERE busstop_id = \$1`).
			WithArgs(int64(3)).
			WillReturnRows(sqlmock.NewRows([]string{"route_id"}).AddRow(10).AddRow(12))

		routeIDs, err := repo.RouteIDsForStop(3)
		require.NoError(t, err)
		assert.Equal(t, []int64{10, 12}, routeIDs)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT DISTINCT route_id FROM routes`).
			WithArgs(int64(3)).
			WillReturnError(fmt.Errorf("connection reset"))

		routeIDs, err := repo.RouteIDsForStop(3)
		assert.Error(t, err)
		assert.Nil(t, routeIDs)
		assert.Contains(t, err.Error(), "failed to find routes for busstop 3")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRouteRepository_MembershipsForRoute(t *testing.T) {
	db, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewRouteRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM routes rt JOIN busstops b ON b.id = rt.busstop_id WHERE rt.route_id = \$1 ORDER BY rt.position`).
			WithArgs(int64(10)).
			WillReturnRows(sqlmock.NewRows(membershipColumns).
				AddRow(100, 10, 1, "TE", 1, "ikeja", "ikeja", nil, nil, nil).
				AddRow(101, 10, 2, "TR", 3, "oshodi", "oshodi-isolo", nil, nil, "ChIJ-oshodi").
				AddRow(102, 10, 3, "TE", 4, "yaba", "yaba", 6.5095, 3.3711, nil))

		memberships, err := repo.MembershipsForRoute(10)
		require.NoError(t, err)
		require.Len(t, memberships, 3)

		assert.Equal(t, models.RoleTerminal, memberships[0].Role)
		assert.True(t, memberships[0].IsTerminal())
		assert.Equal(t, models.RoleTransit, memberships[1].Role)
		assert.Equal(t, int64(3), memberships[1].Stop.ID)
		require.NotNil(t, memberships[1].Stop.PlaceID)
		assert.Equal(t, "ChIJ-oshodi", *memberships[1].Stop.PlaceID)
		assert.Equal(t, 3, memberships[2].Position)
		require.NotNil(t, memberships[2].Stop.Longitude)
		assert.NoError(t, models.ValidateRoute(memberships))

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unknown Route", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM routes rt`).
			WithArgs(int64(404)).
			WillReturnRows(sqlmock.NewRows(membershipColumns))

		memberships, err := repo.MembershipsForRoute(404)
		require.NoError(t, err)
		assert.Empty(t, memberships)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRouteRepository_ListRouteIDs(t *testing.T) {
	db, mock, cleanup := setupRepositoryTest(t)
	defer cleanup()

	repo := NewRouteRepository(db)

	mock.ExpectQuery(`SELECT DISTINCT route_id FROM routes ORDER BY route_id`).
		WillReturnRows(sqlmock.NewRows([]string{"route_id"}).AddRow(10).AddRow(11).AddRow(12))

	routeIDs, err := repo.ListRouteIDs()
	require.NoError(t, err)
	assert.Equal(t, []int64{10, 11, 12}, routeIDs)

	assert.NoError(t, mock.ExpectationsWereMet())
}
