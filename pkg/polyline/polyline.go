// Package polyline decodes and encodes Google polyline geometries (precision 5)
// as returned by the route-geometry provider.
package polyline

import (
	"math"

	"github.com/safepath/safepath/pkg/geo"
)

const precision = 1e5

// Decode converts a polyline-encoded string into an ordered path of points.
// Returns nil for an empty string.
func Decode(encoded string) []geo.Point {
	if encoded == "" {
		return nil
	}

	path := make([]geo.Point, 0, len(encoded)/4)
	lat, lon := 0, 0

	for i := 0; i < len(encoded); {
		dLat, next := readDelta(encoded, i)
		dLon, after := readDelta(encoded, next)
		i = after

		lat += dLat
		lon += dLon
		path = append(path, geo.Point{
			Lat: float64(lat) / precision,
			Lon: float64(lon) / precision,
		})
	}

	return path
}

// Encode converts an ordered path of points into a polyline-encoded string.
func Encode(path []geo.Point) string {
	if len(path) == 0 {
		return ""
	}

	buf := make([]byte, 0, len(path)*4)
	prevLat, prevLon := 0, 0

	for _, p := range path {
		lat := int(math.Round(p.Lat * precision))
		lon := int(math.Round(p.Lon * precision))
		buf = writeDelta(buf, lat-prevLat)
		buf = writeDelta(buf, lon-prevLon)
		prevLat, prevLon = lat, lon
	}

	return string(buf)
}

// readDelta decodes one signed delta starting at index i.
// Returns the delta and the index of the next value.
func readDelta(encoded string, i int) (int, int) {
	result, shift := 0, 0

	for i < len(encoded) {
		chunk := int(encoded[i]) - 63
		i++
		result |= (chunk & 0x1f) << shift
		shift += 5
		if chunk < 0x20 {
			break
		}
	}

	if result&1 != 0 {
		return ^(result >> 1), i
	}
	return result >> 1, i
}

// writeDelta appends one signed delta in 5-bit chunks.
func writeDelta(buf []byte, delta int) []byte {
	if delta < 0 {
		delta = ^(delta << 1)
	} else {
		delta <<= 1
	}

	for delta >= 0x20 {
		buf = append(buf, byte((delta&0x1f)|0x20)+63)
		delta >>= 5
	}
	return append(buf, byte(delta)+63)
}
