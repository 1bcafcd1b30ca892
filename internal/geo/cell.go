// Package geo derives hierarchical spatial index cells from coordinates.
package geo

import (
	"fmt"

	h3 "github.com/uber/h3-go/v4"
)

// Cell returns the H3 cell identifier (as its canonical hex string) for the
// given coordinate at the given resolution. The derivation is deterministic:
// the same (lat, lon, res) always yields the same cell.
//
// Coordinates outside ±90 latitude / ±180 longitude are an error; H3 would
// silently wrap them onto the sphere otherwise.
func Cell(lat, lon float64, res int) (string, error) {
	if lat < -90 || lat > 90 {
		return "", fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return "", fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	if res < 0 || res > 15 {
		return "", fmt.Errorf("h3 resolution %d out of range [0, 15]", res)
	}
	cell := h3.LatLngToCell(h3.NewLatLng(lat, lon), res)
	if !cell.IsValid() {
		return "", fmt.Errorf("h3 cell derivation failed for (%v, %v) at res %d", lat, lon, res)
	}
	return cell.String(), nil
}
