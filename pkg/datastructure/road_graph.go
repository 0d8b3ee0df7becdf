package datastructure

import (
	"maps"

	"github.com/pathviz/pathviz/pkg/geo"
	"github.com/paulmach/orb"
)

type Vertex struct {
	id    VertexID
	coord geo.Coordinate
}

func NewVertex(id VertexID, coord geo.Coordinate) *Vertex {
	return &Vertex{id: id, coord: coord}
}

func (v *Vertex) GetID() VertexID {
	return v.id
}

func (v *Vertex) GetCoordinate() geo.Coordinate {
	return v.coord
}

func (v *Vertex) GetLat() float64 {
	return v.coord.Lat
}

func (v *Vertex) GetLon() float64 {
	return v.coord.Lon
}

// Edge is one segment of a way between two vertices. Edges are undirected.
type Edge struct {
	id      EdgeID
	wayID   string
	startID VertexID
	endID   VertexID
	points  []Node
	tags    map[string]string
	length  float64
}

// NewEdge copies points and tags, so the source way can be reused by the caller.
func NewEdge(id EdgeID, wayID string, points []Node, tags map[string]string) *Edge {
	pts := make([]Node, len(points))
	copy(pts, points)

	e := &Edge{
		id:     id,
		wayID:  wayID,
		points: pts,
		tags:   maps.Clone(tags),
	}
	if len(pts) > 0 {
		e.startID = pts[0].ID
		e.endID = pts[len(pts)-1].ID
	}
	e.length = geo.PolylineLength(e.GetCoordinates())
	return e
}

func (e *Edge) GetID() EdgeID {
	return e.id
}

func (e *Edge) GetWayID() string {
	return e.wayID
}

func (e *Edge) GetStartID() VertexID {
	return e.startID
}

func (e *Edge) GetEndID() VertexID {
	return e.endID
}

func (e *Edge) GetPoints() []Node {
	return e.points
}

func (e *Edge) GetCoordinates() []geo.Coordinate {
	coords := make([]geo.Coordinate, len(e.points))
	for i, p := range e.points {
		coords[i] = p.Coord
	}
	return coords
}

func (e *Edge) GetTags() map[string]string {
	return e.tags
}

// GetLength. polyline length in meters
func (e *Edge) GetLength() float64 {
	return e.length
}

// Other returns the endpoint opposite to v.
func (e *Edge) Other(v VertexID) VertexID {
	if v == e.startID {
		return e.endID
	}
	return e.startID
}

type Neighbor struct {
	VertexID VertexID `json:"vertex_id"`
	EdgeID   EdgeID   `json:"edge_id"`
}

// ResolvedNeighbor is a Neighbor with its vertex and edge looked up.
type ResolvedNeighbor struct {
	Vertex *Vertex
	Edge   *Edge
}

// RoadGraph is an undirected multigraph of road segments. After Build it is
// only read, so one instance can be shared by any number of searches.
type RoadGraph struct {
	vertices    map[VertexID]*Vertex
	vertexOrder []VertexID
	edges       map[EdgeID]*Edge
	edgeOrder   []EdgeID
	adjacency   map[VertexID][]Neighbor
}

func NewRoadGraph() *RoadGraph {
	return &RoadGraph{
		vertices:    make(map[VertexID]*Vertex),
		vertexOrder: make([]VertexID, 0),
		edges:       make(map[EdgeID]*Edge),
		edgeOrder:   make([]EdgeID, 0),
		adjacency:   make(map[VertexID][]Neighbor),
	}
}

// AddVertex inserts v and an empty adjacency bucket. No-op when the id is already present.
func (g *RoadGraph) AddVertex(v *Vertex) {
	if _, ok := g.vertices[v.id]; ok {
		return
	}
	g.vertices[v.id] = v
	g.vertexOrder = append(g.vertexOrder, v.id)
	g.adjacency[v.id] = make([]Neighbor, 0, 2)
}

// AddEdge inserts e when its id is unused and records it in both endpoint
// buckets. A side whose vertex has no bucket is skipped.
func (g *RoadGraph) AddEdge(e *Edge, start, end *Vertex) {
	if _, ok := g.edges[e.id]; ok {
		return
	}
	g.edges[e.id] = e
	g.edgeOrder = append(g.edgeOrder, e.id)

	if start == nil || end == nil {
		return
	}
	if bucket, ok := g.adjacency[start.id]; ok {
		g.adjacency[start.id] = append(bucket, Neighbor{VertexID: end.id, EdgeID: e.id})
	}
	if bucket, ok := g.adjacency[end.id]; ok {
		g.adjacency[end.id] = append(bucket, Neighbor{VertexID: start.id, EdgeID: e.id})
	}
}

func (g *RoadGraph) GetVertex(id VertexID) (*Vertex, bool) {
	v, ok := g.vertices[id]
	return v, ok
}

func (g *RoadGraph) GetEdge(id EdgeID) (*Edge, bool) {
	e, ok := g.edges[id]
	return e, ok
}

func (g *RoadGraph) HasVertex(id VertexID) bool {
	_, ok := g.vertices[id]
	return ok
}

// GetAllVertices returns vertices in insertion order.
func (g *RoadGraph) GetAllVertices() []*Vertex {
	vs := make([]*Vertex, 0, len(g.vertexOrder))
	for _, id := range g.vertexOrder {
		vs = append(vs, g.vertices[id])
	}
	return vs
}

// GetAllEdges returns edges in insertion order.
func (g *RoadGraph) GetAllEdges() []*Edge {
	es := make([]*Edge, 0, len(g.edgeOrder))
	for _, id := range g.edgeOrder {
		es = append(es, g.edges[id])
	}
	return es
}

// GetEdgesFromIds maps ids to edges keeping their order. Unknown ids are left
// out; the second result is how many were left out.
func (g *RoadGraph) GetEdgesFromIds(ids []EdgeID) ([]*Edge, int) {
	es := make([]*Edge, 0, len(ids))
	missing := 0
	for _, id := range ids {
		e, ok := g.edges[id]
		if !ok {
			missing++
			continue
		}
		es = append(es, e)
	}
	return es, missing
}

func (g *RoadGraph) GetNeighborsFromVertex(v *Vertex) []Neighbor {
	if v == nil {
		return []Neighbor{}
	}
	return g.GetNeighborsFromId(v.id)
}

// GetNeighborsFromId returns the adjacency bucket of id, empty for unknown ids.
// The returned slice must not be modified.
func (g *RoadGraph) GetNeighborsFromId(id VertexID) []Neighbor {
	bucket, ok := g.adjacency[id]
	if !ok {
		return []Neighbor{}
	}
	return bucket
}

// GetResolvedNeighbors is GetNeighborsFromId with the ids replaced by the
// vertex and edge they name.
func (g *RoadGraph) GetResolvedNeighbors(id VertexID) []ResolvedNeighbor {
	bucket := g.GetNeighborsFromId(id)
	out := make([]ResolvedNeighbor, 0, len(bucket))
	for _, n := range bucket {
		out = append(out, ResolvedNeighbor{Vertex: g.vertices[n.VertexID], Edge: g.edges[n.EdgeID]})
	}
	return out
}

func (g *RoadGraph) NumberOfVertices() int {
	return len(g.vertexOrder)
}

func (g *RoadGraph) NumberOfEdges() int {
	return len(g.edgeOrder)
}

// GetBoundingBox covers every vertex and every edge point. Empty graphs return the zero bound.
func (g *RoadGraph) GetBoundingBox() orb.Bound {
	var (
		bound orb.Bound
		init  bool
	)
	extend := func(c geo.Coordinate) {
		p := orb.Point{c.Lon, c.Lat}
		if !init {
			bound = p.Bound()
			init = true
			return
		}
		bound = bound.Extend(p)
	}
	for _, id := range g.vertexOrder {
		extend(g.vertices[id].coord)
	}
	for _, id := range g.edgeOrder {
		for _, p := range g.edges[id].points {
			extend(p.Coord)
		}
	}
	return bound
}

// Clear removes all vertices, edges and adjacency.
func (g *RoadGraph) Clear() {
	g.vertices = make(map[VertexID]*Vertex)
	g.vertexOrder = make([]VertexID, 0)
	g.edges = make(map[EdgeID]*Edge)
	g.edgeOrder = make([]EdgeID, 0)
	g.adjacency = make(map[VertexID][]Neighbor)
}
