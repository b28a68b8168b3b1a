package domain

import "time"

// Region is a monitored geographic area with static hazard-proneness
// attributes. Immutable once registered.
type Region struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	Latitude       float64   `json:"latitude"`
	Longitude      float64   `json:"longitude"`
	Elevation      float64   `json:"elevation"`
	FloodProne     bool      `json:"flood_prone"`
	CycloneProne   bool      `json:"cyclone_prone"`
	EarthquakeZone int       `json:"earthquake_zone"` // seismic zone 1 (lowest) to 5 (highest)
	CreatedAt      time.Time `json:"created_at,omitempty"`
}

// FallbackRegion returns the minimal stand-in used when a region is not
// registered. The name degrades to the identifier so alerts stay readable.
func FallbackRegion(id string) Region {
	return Region{ID: id, Name: id}
}
