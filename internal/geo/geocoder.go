// Package geo resolves free-text addresses to coordinates through the Google
// Geocoding API.
package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"modbox/backend/internal/models"
)

// Geocoder resolves one address, or fails. Callers treat failure as soft and
// omit the coordinates.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (models.Coordinates, error)
}

const defaultBaseURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleGeocoder calls the Geocoding REST endpoint with an API key.
type GoogleGeocoder struct {
	apiKey  string
	baseURL string
	client  *http.Client
}

func NewGoogleGeocoder(apiKey string) *GoogleGeocoder {
	return &GoogleGeocoder{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		client:  &http.Client{Timeout: 10 * time.Second},
	}
}

// NewGoogleGeocoderWithBaseURL is used by tests to point at a stub server.
func NewGoogleGeocoderWithBaseURL(apiKey, baseURL string) *GoogleGeocoder {
	g := NewGoogleGeocoder(apiKey)
	g.baseURL = baseURL
	return g
}

type geocodeResponse struct {
	Status  string `json:"status"`
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (models.Coordinates, error) {
	query := url.Values{}
	query.Set("address", address)
	query.Set("key", g.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"?"+query.Encode(), nil)
	if err != nil {
		return models.Coordinates{}, err
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return models.Coordinates{}, fmt.Errorf("geocoding request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return models.Coordinates{}, fmt.Errorf("geocoding returned HTTP %d", resp.StatusCode)
	}
	var parsed geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return models.Coordinates{}, fmt.Errorf("decoding geocoding response: %w", err)
	}
	if parsed.Status != "OK" || len(parsed.Results) == 0 {
		return models.Coordinates{}, fmt.Errorf("no geocoding result for %q (status %s)", address, parsed.Status)
	}
	loc := parsed.Results[0].Geometry.Location
	return models.Coordinates{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}
