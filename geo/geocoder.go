package geo

import (
	"context"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"issuex/models"
)

// Resolver converts between coordinates and addresses. The trusted proxy
// client and the public Nominatim client both satisfy it.
type Resolver interface {
	Reverse(ctx context.Context, lat, lng float64) (string, error)
	Forward(ctx context.Context, query string) (*models.Location, error)
}

// Chained tries an ordered list of resolvers until one succeeds. Reverse
// geocoding never fails: when every resolver errors it degrades to the
// formatted coordinate string. Forward geocoding returns nil when no
// resolver finds the address, which callers treat as "not found".
type Chained struct {
	Resolvers []Resolver
	Log       *slog.Logger
}

// NewChained builds a chain over the given resolvers, tried in order.
func NewChained(log *slog.Logger, resolvers ...Resolver) *Chained {
	if log == nil {
		log = slog.Default()
	}
	return &Chained{Resolvers: resolvers, Log: log}
}

// Reverse resolves coordinates to an address, degrading to "lat, lng".
func (g *Chained) Reverse(ctx context.Context, lat, lng float64) string {
	for _, r := range g.Resolvers {
		addr, err := r.Reverse(ctx, lat, lng)
		if err == nil && addr != "" {
			return addr
		}
		if err != nil {
			g.Log.Debug("reverse geocode attempt failed", "error", err)
		}
	}
	return models.Location{Lat: lat, Lng: lng}.CoordinateString()
}

var latLngPattern = regexp.MustCompile(`^\s*(-?\d+(?:\.\d+)?)\s*,\s*(-?\d+(?:\.\d+)?)\s*$`)

// ParseLatLng recognizes a raw "lat,lng" string as a zero-network shortcut.
func ParseLatLng(query string) (*models.Location, bool) {
	m := latLngPattern.FindStringSubmatch(strings.TrimSpace(query))
	if m == nil {
		return nil, false
	}
	lat, err1 := strconv.ParseFloat(m[1], 64)
	lng, err2 := strconv.ParseFloat(m[2], 64)
	if err1 != nil || err2 != nil {
		return nil, false
	}
	loc := models.Location{Lat: lat, Lng: lng}
	if !loc.Valid() {
		return nil, false
	}
	return &loc, true
}

// Forward resolves a free-form query to a Location, or nil when not found.
func (g *Chained) Forward(ctx context.Context, query string) (*models.Location, error) {
	if loc, ok := ParseLatLng(query); ok {
		return loc, nil
	}

	for _, r := range g.Resolvers {
		loc, err := r.Forward(ctx, query)
		if err == nil {
			return loc, nil
		}
		g.Log.Debug("forward geocode attempt failed", "error", err)
	}
	// Every resolver errored. Callers treat a nil location as "address
	// not found" rather than a hard failure.
	return nil, nil
}
