package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/danfoguide/route-finder/internal/config"
	"github.com/danfoguide/route-finder/internal/database"
	"github.com/danfoguide/route-finder/internal/models"
	"github.com/joho/godotenv"
)

// routeSource lists routes and their busstops
type routeSource interface {
	ListRouteIDs() ([]int64, error)
	MembershipsForRoute(routeID int64) ([]models.RouteMembership, error)
}

func main() {
	var dbURLFlag, networkFile string
	flag.StringVar(&dbURLFlag, "database-url", "", "PostgreSQL connection string (overrides DATABASE_URL)")
	flag.StringVar(&networkFile, "network-file", "", "YAML network file to check instead of the database")
	flag.Parse()

	var source routeSource
	if networkFile != "" {
		// The loader rejects malformed routes, but keeps repeated busstops for the check below
		store, err := database.LoadNetworkFile(networkFile, database.DefaultSimilarityThreshold)
		if err != nil {
			log.Fatalf("network file is invalid: %v", err)
		}
		source = store
	} else {
		// Try loading .env from current working directory (optional)
		_ = godotenv.Load()

		dbURL := dbURLFlag
		if dbURL == "" {
			dbURL = os.Getenv("DATABASE_URL")
		}
		if dbURL == "" {
			log.Fatal("DATABASE_URL is not set and neither -database-url nor -network-file was provided")
		}

		// Build minimal database config without loading full app config
		db, err := database.NewConnection(config.DatabaseConfig{
			Driver:             os.Getenv("DATABASE_DRIVER"),
			URL:                dbURL,
			MaxConnections:     5,
			MaxIdleConnections: 2,
		})
		if err != nil {
			log.Fatalf("failed to connect to database: %v", err)
		}
		defer db.Close()

		source = database.NewRouteRepository(db)
	}

	problems, checked, err := verify(source)
	if err != nil {
		log.Fatalf("failed to verify routes: %v", err)
	}

	fmt.Printf("Checked %d route(s)\n", checked)
	if len(problems) == 0 {
		fmt.Println("No problems found.")
		return
	}

	for _, p := range problems {
		fmt.Printf("  - %s\n", p)
	}
	fmt.Printf("%d problem(s) found.\n", len(problems))
	os.Exit(1)
}

// verify checks every route for ordering, terminal placement and repeated busstops
func verify(source routeSource) ([]string, int, error) {
	routeIDs, err := source.ListRouteIDs()
	if err != nil {
		return nil, 0, err
	}

	var problems []string
	for _, routeID := range routeIDs {
		memberships, err := source.MembershipsForRoute(routeID)
		if err != nil {
			return nil, 0, err
		}
		if len(memberships) == 0 {
			problems = append(problems, fmt.Sprintf("route %d has no busstops", routeID))
			continue
		}
		if err := models.ValidateRoute(memberships); err != nil {
			problems = append(problems, err.Error())
		}
		if dup := models.FindDuplicateStop(memberships); dup != nil {
			problems = append(problems, dup.Error())
		}
	}

	return problems, len(routeIDs), nil
}
