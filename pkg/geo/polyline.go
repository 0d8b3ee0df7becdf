package geo

import (
	"github.com/twpayne/go-polyline"
)

// EncodePolyline encodes coordinates with the google polyline algorithm (precision 5).
func EncodePolyline(coords []Coordinate) string {
	raw := make([][]float64, 0, len(coords))
	for _, c := range coords {
		raw = append(raw, []float64{c.Lat, c.Lon})
	}
	return string(polyline.EncodeCoords(raw))
}

func DecodePolyline(encoded string) ([]Coordinate, error) {
	raw, _, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, err
	}
	coords := make([]Coordinate, 0, len(raw))
	for _, c := range raw {
		coords = append(coords, NewCoordinate(c[0], c[1]))
	}
	return coords, nil
}
