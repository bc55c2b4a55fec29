package database

// Network serves busstop and route lookups from one database connection
type Network struct {
	*StopRepository
	*RouteRepository
}

// NewNetwork creates the postgres-backed busstop and route lookups
func NewNetwork(db DB, threshold float64) *Network {
	return &Network{
		StopRepository:  NewStopRepository(db, threshold),
		RouteRepository: NewRouteRepository(db),
	}
}
