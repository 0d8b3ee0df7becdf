package datastructure

import (
	"github.com/pathviz/pathviz/pkg"
	"github.com/pathviz/pathviz/pkg/geo"
)

type VertexID int64

type EdgeID string

const INVALID_VERTEX_ID = VertexID(pkg.INVALID_VERTEX_ID)

// Node is one point of a raw way. Its id is shared by every way passing through it.
type Node struct {
	ID    VertexID       `json:"id"`
	Coord geo.Coordinate `json:"coord"`
}

func NewNode(id int64, lat, lon float64) Node {
	return Node{ID: VertexID(id), Coord: geo.NewCoordinate(lat, lon)}
}

// Way is an ordered polyline of nodes plus free-form tags, as read from the road dataset.
type Way struct {
	ID    string            `json:"id"`
	Nodes []Node            `json:"nodes"`
	Tags  map[string]string `json:"tags"`
}

func NewWay(id string, nodes []Node, tags map[string]string) Way {
	return Way{ID: id, Nodes: nodes, Tags: tags}
}
