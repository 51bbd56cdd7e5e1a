package models

import "fmt"

// Location is a geographic point with optional address annotations.
type Location struct {
	Lat      float64  `bson:"lat" json:"lat"`
	Lng      float64  `bson:"lng" json:"lng"`
	Accuracy *float64 `bson:"accuracy,omitempty" json:"accuracy,omitempty"`
	Address  string   `bson:"address,omitempty" json:"address,omitempty"`
	Town     string   `bson:"town,omitempty" json:"town,omitempty"`
}

// Valid reports whether the coordinates are inside the WGS84 range.
// NaN compares false against everything, so it is rejected here too.
func (l Location) Valid() bool {
	return l.Lat >= -90 && l.Lat <= 90 && l.Lng >= -180 && l.Lng <= 180
}

// CoordinateString formats the point as "lat, lng" with 4 decimal places,
// used as the last-resort address when every geocoding attempt fails.
func (l Location) CoordinateString() string {
	return fmt.Sprintf("%.4f, %.4f", l.Lat, l.Lng)
}
