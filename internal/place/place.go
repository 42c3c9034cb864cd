// Package place defines the place listing model: a geocoded location record
// owned by exactly one user.
package place

// Location is a pair of geographic coordinates produced by the geocoder.
// It is never supplied by the client directly.
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Place represents a single place listing.
type Place struct {
	// ID is the unique identifier of the place, meaning a UUID.
	ID string `json:"id"`

	Title       string   `json:"title"`
	Description string   `json:"description"`
	Address     string   `json:"address"`
	Location    Location `json:"location"`

	// Image is the path of the uploaded image asset, relative to the uploads root.
	Image string `json:"image"`

	// Creator is the ID of the user owning this place.
	Creator string `json:"creator"`
}
