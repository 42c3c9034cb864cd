// Package geocoder translates free-text addresses into geographic coordinates
// by calling an external provider speaking the Google geocode JSON dialect.
package geocoder

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/patric-chuzhbe/placeshare/internal/models"
	"github.com/patric-chuzhbe/placeshare/internal/place"
)

const statusZeroResults = "ZERO_RESULTS"

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location place.Location `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

// Geocoder is an HTTP client for the geocoding provider.
type Geocoder struct {
	client *resty.Client
	apiURL string
	apiKey string
}

// New creates a Geocoder calling the given provider URL. Every request is
// bounded by the given timeout.
func New(apiURL, apiKey string, timeout time.Duration) *Geocoder {
	return &Geocoder{
		client: resty.New().SetTimeout(timeout),
		apiURL: apiURL,
		apiKey: apiKey,
	}
}

// GeocodeAddress resolves an address into coordinates. It returns
// models.ErrNoLocationFound when the provider reports zero results, and
// propagates transport or provider errors otherwise.
func (g *Geocoder) GeocodeAddress(ctx context.Context, address string) (place.Location, error) {
	var parsed geocodeResponse

	response, err := g.client.R().
		SetContext(ctx).
		SetQueryParam("address", address).
		SetQueryParam("key", g.apiKey).
		SetResult(&parsed).
		Get(g.apiURL)
	if err != nil {
		return place.Location{}, fmt.Errorf("error while geocoding request sending: %w", err)
	}

	if response.StatusCode() != http.StatusOK {
		return place.Location{}, fmt.Errorf("geocoding provider responded with status %d", response.StatusCode())
	}

	if parsed.Status == statusZeroResults || len(parsed.Results) == 0 {
		return place.Location{}, models.ErrNoLocationFound
	}

	return parsed.Results[0].Geometry.Location, nil
}
