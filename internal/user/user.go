// Package user defines the account model used throughout the application,
// particularly for authentication and place ownership.
package user

// User represents a system user owning zero or more places.
type User struct {
	// ID is the unique identifier of the user, meaning a UUID.
	ID string `json:"id"`

	Name  string `json:"name"`
	Email string `json:"email"`

	// Password is stored and compared as plain text. It never appears in
	// JSON responses.
	Password string `json:"-"`

	// Image is the path of the user's avatar asset.
	Image string `json:"image"`

	// Places holds the IDs of the places owned by this user, in insertion order.
	Places []string `json:"places"`
}
