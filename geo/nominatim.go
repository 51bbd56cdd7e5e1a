package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"issuex/models"

	"golang.org/x/time/rate"
)

// DefaultNominatimURL is the public OpenStreetMap Nominatim endpoint.
const DefaultNominatimURL = "https://nominatim.openstreetmap.org"

// NominatimClient resolves coordinates and addresses against a Nominatim
// server. Outbound calls are throttled to one per second, the politeness
// floor the public endpoint requires.
type NominatimClient struct {
	BaseURL string
	Client  *http.Client
	limiter *rate.Limiter
}

// NewNominatimClient creates a client for the given base URL. An empty URL
// selects the public OpenStreetMap endpoint.
func NewNominatimClient(baseURL string, client *http.Client) *NominatimClient {
	if baseURL == "" {
		baseURL = DefaultNominatimURL
	}
	if client == nil {
		client = http.DefaultClient
	}
	return &NominatimClient{
		BaseURL: baseURL,
		Client:  client,
		limiter: rate.NewLimiter(rate.Limit(1), 1),
	}
}

type nominatimPlace struct {
	DisplayName string  `json:"display_name"`
	Lat         string  `json:"lat"`
	Lon         string  `json:"lon"`
	Address     address `json:"address"`
}

type address struct {
	City    string `json:"city"`
	Town    string `json:"town"`
	Village string `json:"village"`
}

func (a address) locality() string {
	switch {
	case a.City != "":
		return a.City
	case a.Town != "":
		return a.Town
	default:
		return a.Village
	}
}

func (n *NominatimClient) get(ctx context.Context, path string, query url.Values, out interface{}) error {
	if err := n.limiter.Wait(ctx); err != nil {
		return err
	}

	u := fmt.Sprintf("%s%s?%s", n.BaseURL, path, query.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", "issuex/1.0")

	resp, err := n.Client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	return nil
}

// Reverse resolves coordinates to a display address.
func (n *NominatimClient) Reverse(ctx context.Context, lat, lng float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lng, 'f', -1, 64))
	q.Set("zoom", "18")
	q.Set("addressdetails", "1")

	var place nominatimPlace
	if err := n.get(ctx, "/reverse", q, &place); err != nil {
		return "", err
	}
	if place.DisplayName == "" {
		return "", fmt.Errorf("no address for %f,%f", lat, lng)
	}
	return place.DisplayName, nil
}

// Forward resolves a free-form query to a Location. A nil result with nil
// error means the address was not found.
func (n *NominatimClient) Forward(ctx context.Context, query string) (*models.Location, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("q", query)
	q.Set("limit", "1")
	q.Set("addressdetails", "1")

	var places []nominatimPlace
	if err := n.get(ctx, "/search", q, &places); err != nil {
		return nil, err
	}
	if len(places) == 0 {
		return nil, nil
	}

	lat, err := strconv.ParseFloat(places[0].Lat, 64)
	if err != nil {
		return nil, fmt.Errorf("bad latitude in response: %w", err)
	}
	lng, err := strconv.ParseFloat(places[0].Lon, 64)
	if err != nil {
		return nil, fmt.Errorf("bad longitude in response: %w", err)
	}

	return &models.Location{
		Lat:     lat,
		Lng:     lng,
		Address: places[0].DisplayName,
		Town:    places[0].Address.locality(),
	}, nil
}
