package usecases

import (
	"sync"
	"time"

	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/engine/search"
	"github.com/paulmach/orb"
)

// network is a built graph with its lookup structures. It is never mutated
// after construction and may back several sessions.
type network struct {
	graph      *da.RoadGraph
	index      SpatialIndex
	components map[da.VertexID]int
	numComps   int
}

// Session owns one search over one network. mu serialises every call into the search.
type Session struct {
	id        uint
	mu        sync.Mutex
	network   *network
	search    *search.GraphSearch
	createdAt time.Time
}

func (s *Session) GetID() uint {
	return s.id
}

type SessionInfo struct {
	ID         uint
	Vertices   int
	Edges      int
	Components int
	Bound      orb.Bound
	CreatedAt  time.Time
}

func (s *Session) info() SessionInfo {
	g := s.network.graph
	return SessionInfo{
		ID:         s.id,
		Vertices:   g.NumberOfVertices(),
		Edges:      g.NumberOfEdges(),
		Components: s.network.numComps,
		Bound:      g.GetBoundingBox(),
		CreatedAt:  s.createdAt,
	}
}
