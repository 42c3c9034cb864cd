// Package models defines the request/response structures of the HTTP API,
// the uniform HTTPError value, and shared sentinel errors.
package models

import (
	"errors"

	"github.com/patric-chuzhbe/placeshare/internal/place"
	"github.com/patric-chuzhbe/placeshare/internal/user"
)

// HTTPError is the uniform client-visible failure value. Handlers signal
// request failures with it; the router renders the Message and Code as the
// JSON error response.
type HTTPError struct {
	Message string
	Code    int
}

// NewHTTPError builds an HTTPError from a message and an HTTP status code.
func NewHTTPError(message string, code int) *HTTPError {
	return &HTTPError{
		Message: message,
		Code:    code,
	}
}

// Error implements the error interface.
func (e *HTTPError) Error() string {
	return e.Message
}

// ErrNoLocationFound is returned by the geocoder when the provider reports
// zero results for the given address.
var ErrNoLocationFound = errors.New("no location found for address")

type CreatePlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
	Address     string `json:"address" validate:"required"`
	Creator     string `json:"creator" validate:"required"`
}

type UpdatePlaceRequest struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description" validate:"required,min=5"`
}

type SignupRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Image    string `json:"image"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type PlaceResponse struct {
	Place *place.Place `json:"place"`
}

type PlacesResponse struct {
	Places []place.Place `json:"places"`
}

type UserResponse struct {
	User  *user.User `json:"user"`
	Token string     `json:"token,omitempty"`
}

type UsersResponse struct {
	Users []user.User `json:"users"`
}

type MessageResponse struct {
	Message string `json:"message"`
	Token   string `json:"token,omitempty"`
}

const (
	StorageTypeUnknown = iota
	StorageTypePostgresql
	StorageTypeFile
	StorageTypeMemory
)

// ImageDeleteJob describes a stored image file scheduled for best-effort removal.
type ImageDeleteJob struct {
	ImagePath string
}
