package usecases

import (
	da "github.com/pathviz/pathviz/pkg/datastructure"
	"go.uber.org/zap"
)

type SpatialIndex interface {
	Build(graph *da.RoadGraph, boundingBoxRadius float64, log *zap.Logger)
	NearestVertex(qLat, qLon, radius float64) (*da.Vertex, float64, bool)
	NearestEdge(qLat, qLon, radius float64) (*da.Edge, float64, bool)
}
