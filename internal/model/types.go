package model

// Availability describes the state of the language-model backend.
type Availability string

const (
	AvailabilityReady         Availability = "ready"
	AvailabilityNeedsDownload Availability = "needs-download"
	AvailabilityUnavailable   Availability = "unavailable"
)

// Capabilities is the result of the one-time backend probe. Immutable after
// startup.
type Capabilities struct {
	Available          Availability `json:"available"`
	DefaultTemperature float64      `json:"default_temperature"`
	DefaultTopK        int          `json:"default_top_k"`
}

// Role names one of the three language-model sessions.
type Role string

const (
	RoleCategory Role = "category"
	RoleLocation Role = "location"
	RoleMain     Role = "main"
)

// Roles lists every session role.
var Roles = []Role{RoleCategory, RoleLocation, RoleMain}

// PageText is the cleaned text captured from a page, plus the short excerpt
// used for location derivation. Populated once per page load; may be empty if
// the page never responded within the retry budget.
type PageText struct {
	FullText        string `json:"full_text"`
	LocationExcerpt string `json:"location_excerpt"`
}

// Empty reports whether no page text was captured.
func (p PageText) Empty() bool {
	return p.FullText == ""
}

// BoundingBox is a viewbox around a resolved location, used to bias geocode
// lookups. The zero value means "no bias".
type BoundingBox struct {
	CenterLat float64 `json:"center_lat"`
	CenterLon float64 `json:"center_lon"`
	MinLat    float64 `json:"min_lat"`
	MaxLat    float64 `json:"max_lat"`
	MinLon    float64 `json:"min_lon"`
	MaxLon    float64 `json:"max_lon"`
}

// Valid reports whether the box describes a real region.
func (b BoundingBox) Valid() bool {
	return b.MinLat != b.MaxLat && b.MinLon != b.MaxLon
}

// CategoryMap is the validated category -> entity names mapping produced by
// the main generation step. Keys preserves the encounter order of the model's
// reply; Entries holds the name lists.
type CategoryMap struct {
	Keys    []string            `json:"keys"`
	Entries map[string][]string `json:"entries"`
}

// Coordinates is a latitude/longitude pair as reported by the geocoder.
type Coordinates struct {
	Lat string `json:"lat"`
	Lon string `json:"lon"`
}

// PlaceRecord is a single geocoded result. Selected is the only field that
// may change after creation; identity is the geocoder's place id.
type PlaceRecord struct {
	ID          int64       `json:"id"`
	Name        string      `json:"name"`
	Address     string      `json:"address"`
	Coordinates Coordinates `json:"coordinates"`
	Selected    bool        `json:"selected"`
}

// CategoryResult groups the resolved places for one category, in the order
// the category appeared in the CategoryMap.
type CategoryResult struct {
	Title  string        `json:"title"`
	Places []PlaceRecord `json:"places"`
}
