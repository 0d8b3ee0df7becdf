package geo

import (
	"github.com/pathviz/pathviz/pkg/util"

	"github.com/golang/geo/s2"
)

func ProjectPointToLineCoord(pointA Coordinate, pointB Coordinate,
	snap Coordinate) Coordinate {
	pointA = roundToSixDigits(pointA)
	pointB = roundToSixDigits(pointB)
	snap = roundToSixDigits(snap)

	pointAS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointA.Lat, pointA.Lon))
	pointBS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(pointB.Lat, pointB.Lon))
	snapS2 := s2.PointFromLatLng(s2.LatLngFromDegrees(snap.Lat, snap.Lon))
	projection := s2.Project(snapS2, pointAS2, pointBS2)
	projectLatLng := s2.LatLngFromPoint(projection)
	return NewCoordinate(projectLatLng.Lat.Degrees(), projectLatLng.Lng.Degrees())
}

// PointLinePerpendicularDistance. distance from snap to segment (pointA, pointB) in meters
func PointLinePerpendicularDistance(pointA Coordinate, pointB Coordinate,
	snap Coordinate) float64 {
	projectionPoint := ProjectPointToLineCoord(pointA, pointB, snap)

	return CalculateHaversineDistance(snap.GetLat(), snap.GetLon(), projectionPoint.GetLat(), projectionPoint.GetLon())
}

// PointPolylineDistance is the smallest perpendicular distance from snap to any segment of the polyline, in meters.
func PointPolylineDistance(polyline []Coordinate, snap Coordinate) float64 {
	if len(polyline) == 1 {
		return Distance(polyline[0], snap)
	}
	best := -1.0
	for i := 1; i < len(polyline); i++ {
		d := PointLinePerpendicularDistance(polyline[i-1], polyline[i], snap)
		if best < 0 || d < best {
			best = d
		}
	}
	return best
}

func roundToSixDigits(n Coordinate) Coordinate {
	if util.CountDecimalPlacesF64(n.Lat) > 6 {
		n.Lat = util.RoundFloat(n.Lat, 6)
	}
	if util.CountDecimalPlacesF64(n.Lon) > 6 {
		n.Lon = util.RoundFloat(n.Lon, 6)
	}
	return n
}
