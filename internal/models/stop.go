package models

// Stop represents a canonical bus stop record
type Stop struct {
	ID        int64    `json:"id" db:"id"`
	Name      string   `json:"name" db:"name"`
	Area      string   `json:"area" db:"area"`
	Latitude  *float64 `json:"latitude,omitempty" db:"latitude"`
	Longitude *float64 `json:"longitude,omitempty" db:"longitude"`
	PlaceID   *string  `json:"place_id,omitempty" db:"place_id"` // External places identifier (unique when set)
}

// HasPlaceID reports whether the stop carries an external place identifier
func (s *Stop) HasPlaceID() bool {
	return s.PlaceID != nil && *s.PlaceID != ""
}

// SameAs compares two stops by place id when both have one, otherwise by name and area
func (s *Stop) SameAs(other *Stop) bool {
	if s.HasPlaceID() && other.HasPlaceID() {
		return *s.PlaceID == *other.PlaceID
	}
	return s.Name == other.Name && s.Area == other.Area
}

func (s Stop) String() string {
	return s.Name
}

// LocationQuery is raw location text decomposed into its parts
type LocationQuery struct {
	Target  string // Busstop name, or a general place description when IsFuzzy
	Area    string // Empty when the raw text had no comma
	IsFuzzy bool   // Raw text started with the fuzzy sentinel
}

// CandidateQuery is one store lookup derived from a LocationQuery
type CandidateQuery struct {
	Target  string
	Area    string
	PlaceID string // Set for candidates returned by the places gateway
}

// Resolution is the outcome of resolving one raw location string
type Resolution struct {
	Match  *Stop  `json:"match"`
	Others []Stop `json:"others"`
}

// NewResolution builds a resolution from an ordered list of stops.
// The first stop becomes the match and the rest are kept in order.
func NewResolution(stops []Stop) *Resolution {
	res := &Resolution{Others: []Stop{}}
	if len(stops) == 0 {
		return res
	}
	match := stops[0]
	res.Match = &match
	res.Others = append(res.Others, stops[1:]...)
	return res
}

// Found reports whether a match was resolved
func (r *Resolution) Found() bool {
	return r.Match != nil
}
