package datastructure

import (
	"fmt"

	"github.com/pathviz/pathviz/pkg"
)

// Build splits every way at its intersections and fills the graph with the
// resulting segments. Ids seg_0, seg_1, ... restart on every call. Malformed
// ways (fewer than two nodes) contribute no edges.
func (g *RoadGraph) Build(ways []Way) *RoadGraph {
	usage := make(map[VertexID]int)
	firstSeen := make(map[VertexID]Node)
	seenOrder := make([]VertexID, 0)

	for _, way := range ways {
		if len(way.Nodes) == 0 {
			continue
		}
		first := way.Nodes[0]
		last := way.Nodes[len(way.Nodes)-1]
		g.AddVertex(NewVertex(first.ID, first.Coord))
		g.AddVertex(NewVertex(last.ID, last.Coord))

		for _, node := range way.Nodes {
			if _, ok := usage[node.ID]; !ok {
				firstSeen[node.ID] = node
				seenOrder = append(seenOrder, node.ID)
			}
			usage[node.ID]++
		}
	}

	for _, id := range seenOrder {
		if usage[id] > 1 {
			node := firstSeen[id]
			g.AddVertex(NewVertex(node.ID, node.Coord))
		}
	}

	segmentCount := 0
	for _, way := range ways {
		if len(way.Nodes) < 2 {
			continue
		}
		segment := []Node{way.Nodes[0]}
		for _, node := range way.Nodes[1:] {
			segment = append(segment, node)
			if usage[node.ID] > 1 {
				g.processSegment(way, segment, &segmentCount)
				segment = []Node{node}
			}
		}
		if len(segment) >= 2 {
			g.processSegment(way, segment, &segmentCount)
		}
	}
	return g
}

// processSegment handles segments that start and end on the same node: a
// two point loop is dropped, longer loops are split at their second to last
// point so every edge joins two distinct vertices.
func (g *RoadGraph) processSegment(way Way, segment []Node, segmentCount *int) {
	n := len(segment)
	if n == 2 && segment[0].ID == segment[1].ID {
		return
	}
	if n > 2 && segment[0].ID == segment[n-1].ID {
		pivot := segment[n-2]
		g.AddVertex(NewVertex(pivot.ID, pivot.Coord))
		g.processSegment(way, segment[:n-1], segmentCount)
		g.processSegment(way, segment[n-2:], segmentCount)
		return
	}

	id := EdgeID(fmt.Sprintf("%s%d", pkg.SEGMENT_ID_PREFIX, *segmentCount))
	*segmentCount++

	edge := NewEdge(id, way.ID, segment, way.Tags)
	start := g.vertices[edge.startID]
	end := g.vertices[edge.endID]
	g.AddEdge(edge, start, end)
}
