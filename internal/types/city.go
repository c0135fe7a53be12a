package types

import (
	"time"

	"github.com/google/uuid"
)

// City matches the cities table structure. Name is the normalized form
// produced by the city validator and is unique across all rows.
type City struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// SearchHistoryEntry matches the search_history table structure. At most one
// entry exists per city; Count starts at 1 and only ever grows.
type SearchHistoryEntry struct {
	ID          uuid.UUID `json:"id"`
	CityID      uuid.UUID `json:"city_id"`
	Count       int       `json:"count"`
	LastVisited time.Time `json:"last_visited"`
}

// CitySearchStat is one row of the cities/search_history join returned by the
// statistics endpoint.
type CitySearchStat struct {
	City        string    `json:"city"`
	Count       int       `json:"count"`
	LastVisited time.Time `json:"last_visited"`
}
