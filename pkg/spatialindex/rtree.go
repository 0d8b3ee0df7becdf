package spatialindex

import (
	"math"

	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/geo"
	"github.com/tidwall/rtree"
	"go.uber.org/zap"
)

const maxSearchResults = 32

type Rtree struct {
	vertices *rtree.RTreeG[*da.Vertex]
	edges    *rtree.RTreeG[*da.Edge]
	graph    *da.RoadGraph
}

func NewRtree() *Rtree {
	var vtr rtree.RTreeG[*da.Vertex]
	var etr rtree.RTreeG[*da.Edge]
	return &Rtree{
		vertices: &vtr,
		edges:    &etr,
	}
}

// Build. build r-tree over the vertices and edges of graph, every leaf
// bounding box is padded by boundingBoxRadius (in km)
func (rt *Rtree) Build(graph *da.RoadGraph, boundingBoxRadius float64, log *zap.Logger) {
	log.Info("Building R-tree spatial index...",
		zap.Int("vertices", graph.NumberOfVertices()), zap.Int("edges", graph.NumberOfEdges()))
	rt.graph = graph

	for _, v := range graph.GetAllVertices() {
		min, max := paddedBound([]geo.Coordinate{v.GetCoordinate()}, boundingBoxRadius)
		rt.vertices.Insert(min, max, v)
	}
	for _, e := range graph.GetAllEdges() {
		min, max := paddedBound(e.GetCoordinates(), boundingBoxRadius)
		rt.edges.Insert(min, max, e)
	}

	log.Info("R-tree spatial index built.")
}

func paddedBound(coords []geo.Coordinate, radius float64) ([2]float64, [2]float64) {
	minLat, minLon := math.Inf(1), math.Inf(1)
	maxLat, maxLon := math.Inf(-1), math.Inf(-1)
	for _, c := range coords {
		lowerLat, lowerLon := geo.GetDestinationPoint(c.Lat, c.Lon, 225, radius)
		upperLat, upperLon := geo.GetDestinationPoint(c.Lat, c.Lon, 45, radius)
		minLat = math.Min(minLat, lowerLat)
		minLon = math.Min(minLon, lowerLon)
		maxLat = math.Max(maxLat, upperLat)
		maxLon = math.Max(maxLon, upperLon)
	}
	return [2]float64{minLon, minLat}, [2]float64{maxLon, maxLat}
}

func queryBound(qLat, qLon, radius float64) ([2]float64, [2]float64) {
	lowerLat, lowerLon := geo.GetDestinationPoint(qLat, qLon, 225, radius)
	upperLat, upperLon := geo.GetDestinationPoint(qLat, qLon, 45, radius)
	return [2]float64{lowerLon, lowerLat}, [2]float64{upperLon, upperLat}
}

// SearchWithinRadius returns edges whose padded box meets the query box of radius (in km) around (qLat, qLon).
func (rt *Rtree) SearchWithinRadius(qLat, qLon, radius float64) []*da.Edge {
	min, max := queryBound(qLat, qLon, radius)

	results := make([]*da.Edge, 0, 10)
	rt.edges.Search(min, max, func(_, _ [2]float64, data *da.Edge) bool {
		results = append(results, data)
		return len(results) < maxSearchResults
	})
	return results
}

// NearestVertex picks the closest vertex within radius (in km). With no vertex
// in range it falls back to the nearer endpoint of the closest edge. Distances are in meters.
func (rt *Rtree) NearestVertex(qLat, qLon, radius float64) (*da.Vertex, float64, bool) {
	query := geo.NewCoordinate(qLat, qLon)
	min, max := queryBound(qLat, qLon, radius)

	var (
		best     *da.Vertex
		bestDist = math.Inf(1)
	)
	rt.vertices.Search(min, max, func(_, _ [2]float64, v *da.Vertex) bool {
		if d := geo.Distance(query, v.GetCoordinate()); d < bestDist {
			best, bestDist = v, d
		}
		return true
	})
	if best != nil && bestDist <= radius*1000 {
		return best, bestDist, true
	}

	edge, _, ok := rt.NearestEdge(qLat, qLon, radius)
	if !ok || rt.graph == nil {
		return nil, 0, false
	}
	start, okStart := rt.graph.GetVertex(edge.GetStartID())
	end, okEnd := rt.graph.GetVertex(edge.GetEndID())
	if !okStart || !okEnd {
		return nil, 0, false
	}
	dStart := geo.Distance(query, start.GetCoordinate())
	dEnd := geo.Distance(query, end.GetCoordinate())
	if dEnd < dStart {
		return end, dEnd, true
	}
	return start, dStart, true
}

// NearestEdge returns the edge with the smallest perpendicular distance (meters) to the query point.
func (rt *Rtree) NearestEdge(qLat, qLon, radius float64) (*da.Edge, float64, bool) {
	query := geo.NewCoordinate(qLat, qLon)
	var (
		best     *da.Edge
		bestDist = math.Inf(1)
	)
	for _, e := range rt.SearchWithinRadius(qLat, qLon, radius) {
		if d := geo.PointPolylineDistance(e.GetCoordinates(), query); d < bestDist {
			best, bestDist = e, d
		}
	}
	if best == nil || bestDist > radius*1000 {
		return nil, 0, false
	}
	return best, bestDist, true
}
