package search

import (
	"maps"
	"time"

	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/geo"
	"go.uber.org/zap"
)

// GraphSearch is a best-first traversal that runs a bounded number of
// expansions per Advance call, so callers can draw the search as it grows.
// It is not safe for concurrent use; the graph it reads may be shared.
type GraphSearch struct {
	graph     *da.RoadGraph
	start     da.VertexID
	end       da.VertexID
	algorithm Algorithm
	endCoord  geo.Coordinate

	status       Status
	visited      map[da.VertexID]Predecessor
	visitedEdges map[da.EdgeID]float64
	frontier     *da.MinHeap[FrontierEntry]

	solution         []da.EdgeID
	timeSolved       float64
	solutionDistance float64
	solutionHops     int
	steps            int

	clock func() time.Time
	log   *zap.Logger
}

type Option func(*GraphSearch)

// WithLogger reports terminal transitions at debug level.
func WithLogger(log *zap.Logger) Option {
	return func(gs *GraphSearch) {
		gs.log = log
	}
}

// WithClock replaces time.Now for visit and solve timestamps.
func WithClock(clock func() time.Time) Option {
	return func(gs *GraphSearch) {
		gs.clock = clock
	}
}

func NewGraphSearch(graph *da.RoadGraph, start, end da.VertexID, algorithm Algorithm, opts ...Option) *GraphSearch {
	gs := &GraphSearch{
		clock:    time.Now,
		log:      zap.NewNop(),
		frontier: da.NewFourAryHeap[FrontierEntry](),
	}
	for _, opt := range opts {
		opt(gs)
	}
	gs.Initialize(graph, start, end, algorithm)
	return gs
}

// Initialize discards all previous progress. The search is left Idle when
// start or end is the sentinel or not a vertex of graph, Ready otherwise.
func (gs *GraphSearch) Initialize(graph *da.RoadGraph, start, end da.VertexID, algorithm Algorithm) {
	if algorithm == nil {
		algorithm = AStar{}
	}
	gs.graph = graph
	gs.start = start
	gs.end = end
	gs.algorithm = algorithm
	gs.reset()

	if graph == nil || start == da.INVALID_VERTEX_ID || end == da.INVALID_VERTEX_ID {
		return
	}
	endVertex, ok := graph.GetVertex(end)
	if !ok || !graph.HasVertex(start) {
		return
	}
	gs.endCoord = endVertex.GetCoordinate()

	gs.frontier.Insert(0, FrontierEntry{
		Vertex: start,
		Prev:   noPredecessor,
	})
	gs.status = READY
}

// Restart re-initializes with the same graph, endpoints and algorithm.
func (gs *GraphSearch) Restart() {
	gs.Initialize(gs.graph, gs.start, gs.end, gs.algorithm)
}

func (gs *GraphSearch) reset() {
	gs.status = IDLE
	gs.visited = make(map[da.VertexID]Predecessor)
	gs.visitedEdges = make(map[da.EdgeID]float64)
	gs.frontier.Clear()
	gs.solution = make([]da.EdgeID, 0)
	gs.timeSolved = UNSOLVED_TIME
	gs.solutionDistance = 0
	gs.solutionHops = 0
	gs.steps = 0
	gs.endCoord = geo.Coordinate{}
}

// Advance performs at most steps expansions and returns the resulting state.
// It does nothing once the search is Idle, Solved or Exhausted.
func (gs *GraphSearch) Advance(steps int) SearchState {
	if steps > 0 && gs.status == READY {
		gs.status = RUNNING
	}
	for i := 0; i < steps && gs.status == RUNNING; i++ {
		if gs.frontier.IsEmpty() {
			gs.exhaust()
			break
		}
		gs.step()
		if gs.status == RUNNING && gs.frontier.IsEmpty() {
			gs.exhaust()
		}
	}
	return gs.State()
}

// step pops one frontier entry. Entries of already visited vertices are
// discarded here instead of being updated in place.
func (gs *GraphSearch) step() {
	node, err := gs.frontier.ExtractMin()
	if err != nil {
		return
	}
	gs.steps++
	cur := node.GetItem()

	if !cur.Prev.IsSentinel() {
		gs.visitedEdges[cur.Prev.Edge] = gs.now()
	}
	if _, ok := gs.visited[cur.Vertex]; ok {
		return
	}
	gs.visited[cur.Vertex] = cur.Prev

	if cur.Vertex == gs.end {
		gs.solve(cur)
		return
	}

	curVertex, ok := gs.graph.GetVertex(cur.Vertex)
	if !ok {
		return
	}
	for _, nb := range gs.graph.GetNeighborsFromId(cur.Vertex) {
		if _, ok := gs.visited[nb.VertexID]; ok {
			continue
		}
		nbVertex, ok := gs.graph.GetVertex(nb.VertexID)
		if !ok {
			continue
		}

		distance := cur.DistanceTravelled + geo.Distance(curVertex.GetCoordinate(), nbVertex.GetCoordinate())
		hops := cur.HopCount + 1
		score := gs.algorithm.Score(ScoreContext{
			DistanceTravelled: distance,
			HopCount:          hops,
			Neighbor:          nbVertex.GetCoordinate(),
			End:               gs.endCoord,
		})

		gs.frontier.Insert(score, FrontierEntry{
			Vertex:            nb.VertexID,
			Prev:              Predecessor{Vertex: cur.Vertex, Edge: nb.EdgeID},
			DistanceTravelled: distance,
			HopCount:          hops,
			Score:             score,
		})
	}
}

// solve walks predecessors from the end back to the start. The solution is
// ordered end to start.
func (gs *GraphSearch) solve(endEntry FrontierEntry) {
	solution := make([]da.EdgeID, 0, endEntry.HopCount)
	v := gs.end
	for len(solution) <= len(gs.visited) {
		prev, ok := gs.visited[v]
		if !ok || prev.IsSentinel() {
			break
		}
		solution = append(solution, prev.Edge)
		v = prev.Vertex
	}

	gs.solution = solution
	gs.solutionDistance = endEntry.DistanceTravelled
	gs.solutionHops = endEntry.HopCount
	gs.timeSolved = gs.now()
	gs.status = SOLVED

	gs.log.Debug("search solved", zap.String("algorithm", gs.algorithm.Name()),
		zap.Int64("start", int64(gs.start)), zap.Int64("end", int64(gs.end)),
		zap.Int("steps", gs.steps), zap.Int("hops", gs.solutionHops), zap.Float64("distance", gs.solutionDistance))
}

func (gs *GraphSearch) exhaust() {
	gs.status = EXHAUSTED
	gs.log.Debug("search exhausted", zap.String("algorithm", gs.algorithm.Name()),
		zap.Int64("start", int64(gs.start)), zap.Int64("end", int64(gs.end)),
		zap.Int("steps", gs.steps), zap.Int("visited", len(gs.visited)))
}

func (gs *GraphSearch) now() float64 {
	return float64(gs.clock().UnixNano()) / float64(time.Second)
}

func (gs *GraphSearch) State() SearchState {
	state := SearchState{
		Status:           gs.status,
		Algorithm:        gs.algorithm.Name(),
		Start:            gs.start,
		End:              gs.end,
		VisitedEdges:     maps.Clone(gs.visitedEdges),
		Solution:         append([]da.EdgeID{}, gs.solution...),
		TimeSolved:       gs.timeSolved,
		SolutionDistance: gs.solutionDistance,
		SolutionHops:     gs.solutionHops,
		Steps:            gs.steps,
		FrontierSize:     gs.frontier.Size(),
		VisitedCount:     len(gs.visited),
	}
	return state
}

func (gs *GraphSearch) Status() Status {
	return gs.status
}

func (gs *GraphSearch) Algorithm() Algorithm {
	return gs.algorithm
}

func (gs *GraphSearch) Start() da.VertexID {
	return gs.start
}

func (gs *GraphSearch) End() da.VertexID {
	return gs.end
}

func (gs *GraphSearch) Graph() *da.RoadGraph {
	return gs.graph
}

// Solution is ordered from the end vertex back to the start vertex.
func (gs *GraphSearch) Solution() []da.EdgeID {
	return append([]da.EdgeID{}, gs.solution...)
}

// TimeSolved is in unix seconds, UNSOLVED_TIME until the search is Solved.
func (gs *GraphSearch) TimeSolved() float64 {
	return gs.timeSolved
}

func (gs *GraphSearch) Visited() map[da.VertexID]Predecessor {
	return maps.Clone(gs.visited)
}

// Frontier copies the pending entries in heap order.
func (gs *GraphSearch) Frontier() []FrontierEntry {
	items := gs.frontier.Items()
	entries := make([]FrontierEntry, 0, len(items))
	for _, it := range items {
		entries = append(entries, it.GetItem())
	}
	return entries
}
