package usecases

import (
	"errors"
	"sync"
	"time"

	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/engine/search"
	"github.com/pathviz/pathviz/pkg/geo"
	"github.com/pathviz/pathviz/pkg/util"
	"go.uber.org/zap"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrNoDefaultGraph  = errors.New("no ways given and no default map loaded")
	ErrVertexNotFound  = errors.New("vertex not found")
	ErrNoNearbyVertex  = errors.New("no vertex near the given coordinate")
)

// SearchResult is a search snapshot plus the solution geometry, ordered start to end.
type SearchResult struct {
	State search.SearchState
	Path  []geo.Coordinate
}

type ExplorerService struct {
	log *zap.Logger

	mu       sync.RWMutex
	seq      uint
	sessions map[uint]*Session

	defaultNetwork *network

	newIndex          func() SpatialIndex
	boundingBoxRadius float64
	searchRadius      float64
	maxSteps          int
	searchOpts        []search.Option
}

func NewExplorerService(log *zap.Logger, newIndex func() SpatialIndex, boundingBoxRadius, searchRadius float64,
	maxSteps int, searchOpts ...search.Option) *ExplorerService {
	return &ExplorerService{
		log:               log,
		sessions:          make(map[uint]*Session),
		newIndex:          newIndex,
		boundingBoxRadius: boundingBoxRadius,
		searchRadius:      searchRadius,
		maxSteps:          maxSteps,
		searchOpts:        searchOpts,
	}
}

func (es *ExplorerService) buildNetwork(ways []da.Way) *network {
	graph := da.NewRoadGraph().Build(ways)
	index := es.newIndex()
	index.Build(graph, es.boundingBoxRadius, es.log)

	components := graph.ConnectedComponents()
	numComps := 0
	for _, label := range components {
		if label+1 > numComps {
			numComps = label + 1
		}
	}
	return &network{
		graph:      graph,
		index:      index,
		components: components,
		numComps:   numComps,
	}
}

// SetDefaultWays builds the shared network used by sessions created without ways.
func (es *ExplorerService) SetDefaultWays(ways []da.Way) {
	n := es.buildNetwork(ways)

	es.mu.Lock()
	es.defaultNetwork = n
	es.mu.Unlock()

	es.log.Info("default road graph ready",
		zap.Int("vertices", n.graph.NumberOfVertices()), zap.Int("edges", n.graph.NumberOfEdges()),
		zap.Int("components", n.numComps))
}

// CreateSession builds a graph from ways, or shares the default graph when ways is empty.
func (es *ExplorerService) CreateSession(ways []da.Way) (SessionInfo, error) {
	var n *network
	if len(ways) == 0 {
		es.mu.RLock()
		n = es.defaultNetwork
		es.mu.RUnlock()
		if n == nil {
			return SessionInfo{}, util.WrapErrorf(ErrNoDefaultGraph, util.ErrBadParamInput, "%v", ErrNoDefaultGraph)
		}
	} else {
		n = es.buildNetwork(ways)
	}

	session := &Session{
		network:   n,
		search:    search.NewGraphSearch(n.graph, da.INVALID_VERTEX_ID, da.INVALID_VERTEX_ID, search.AStar{}, es.searchOpts...),
		createdAt: time.Now(),
	}

	es.mu.Lock()
	session.id = es.seq
	es.sessions[session.id] = session
	es.seq++
	es.mu.Unlock()

	es.log.Info("session created", zap.Uint("session", session.id),
		zap.Int("vertices", n.graph.NumberOfVertices()), zap.Int("edges", n.graph.NumberOfEdges()))
	return session.info(), nil
}

func (es *ExplorerService) DeleteSession(id uint) error {
	es.mu.Lock()
	defer es.mu.Unlock()
	if _, ok := es.sessions[id]; !ok {
		return sessionNotFound(id)
	}
	delete(es.sessions, id)
	return nil
}

func (es *ExplorerService) NumberOfSessions() int {
	es.mu.RLock()
	defer es.mu.RUnlock()
	return len(es.sessions)
}

func sessionNotFound(id uint) error {
	return util.WrapErrorf(ErrSessionNotFound, util.ErrNotFound, "session %d not found", id)
}

func (es *ExplorerService) session(id uint) (*Session, error) {
	es.mu.RLock()
	defer es.mu.RUnlock()
	s, ok := es.sessions[id]
	if !ok {
		return nil, sessionNotFound(id)
	}
	return s, nil
}

func (es *ExplorerService) Info(id uint) (SessionInfo, error) {
	s, err := es.session(id)
	if err != nil {
		return SessionInfo{}, err
	}
	return s.info(), nil
}

func (es *ExplorerService) Graph(id uint) (*da.RoadGraph, error) {
	s, err := es.session(id)
	if err != nil {
		return nil, err
	}
	return s.network.graph, nil
}

// Edges resolves edge ids against the session graph. Ids from an older graph are
// dropped; the count of dropped ids is returned so callers can notice staleness.
func (es *ExplorerService) Edges(id uint, ids []da.EdgeID) ([]*da.Edge, int, error) {
	s, err := es.session(id)
	if err != nil {
		return nil, 0, err
	}
	edges, missing := s.network.graph.GetEdgesFromIds(ids)
	if missing > 0 {
		es.log.Warn("edge ids not in session graph", zap.Uint("session", id),
			zap.Int("requested", len(ids)), zap.Int("missing", missing))
	}
	return edges, missing, nil
}

// Nearest snaps a coordinate to the closest vertex within the configured search radius.
func (es *ExplorerService) Nearest(id uint, lat, lon float64) (*da.Vertex, float64, error) {
	s, err := es.session(id)
	if err != nil {
		return nil, 0, err
	}
	v, dist, ok := s.network.index.NearestVertex(lat, lon, es.searchRadius)
	if !ok {
		return nil, 0, util.WrapErrorf(ErrNoNearbyVertex, util.ErrNotFound,
			"no vertex within %.0f m of %f,%f", es.searchRadius*1000, lat, lon)
	}
	return v, dist, nil
}

// StartSearch re-initializes the session search. A -1 endpoint leaves the search idle.
func (es *ExplorerService) StartSearch(id uint, start, end da.VertexID, algorithmName string) (SearchResult, bool, error) {
	s, err := es.session(id)
	if err != nil {
		return SearchResult{}, false, err
	}
	algorithm, err := search.ParseAlgorithm(algorithmName)
	if err != nil {
		return SearchResult{}, false, util.WrapErrorf(err, util.ErrBadParamInput, "%v", err)
	}
	g := s.network.graph
	for _, v := range []da.VertexID{start, end} {
		if v != da.INVALID_VERTEX_ID && !g.HasVertex(v) {
			return SearchResult{}, false, util.WrapErrorf(ErrVertexNotFound, util.ErrNotFound, "vertex %d not found", v)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Initialize(g, start, end, algorithm)
	reachable := da.SameComponent(s.network.components, start, end)

	es.log.Debug("search initialized", zap.Uint("session", id), zap.Int64("start", int64(start)),
		zap.Int64("end", int64(end)), zap.String("algorithm", algorithm.Name()), zap.Bool("reachable", reachable))
	return es.result(s), reachable, nil
}

// Advance runs at most steps expansions, clamped to the configured maximum.
// Idle, Solved and Exhausted searches and non-positive budgets leave the
// state unchanged and are not errors.
func (es *ExplorerService) Advance(id uint, steps int) (SearchResult, error) {
	s, err := es.session(id)
	if err != nil {
		return SearchResult{}, err
	}
	steps = util.ClampInt(steps, 0, es.maxSteps)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Advance(steps)
	return es.result(s), nil
}

func (es *ExplorerService) Restart(id uint) (SearchResult, error) {
	s, err := es.session(id)
	if err != nil {
		return SearchResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.search.Restart()
	return es.result(s), nil
}

func (es *ExplorerService) State(id uint) (SearchResult, error) {
	s, err := es.session(id)
	if err != nil {
		return SearchResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return es.result(s), nil
}

// result must be called with s.mu held.
func (es *ExplorerService) result(s *Session) SearchResult {
	state := s.search.State()
	res := SearchResult{State: state}
	if state.Status == search.SOLVED {
		res.Path = solutionPath(s.network.graph, state.Start, state.Solution)
	}
	return res
}

// solutionPath turns an end-to-start edge list into start-to-end coordinates,
// orienting every edge polyline along the way.
func solutionPath(g *da.RoadGraph, start da.VertexID, solution []da.EdgeID) []geo.Coordinate {
	edges, _ := g.GetEdgesFromIds(util.ReverseG(solution))
	path := make([]geo.Coordinate, 0)
	if v, ok := g.GetVertex(start); ok {
		path = append(path, v.GetCoordinate())
	}

	at := start
	for _, e := range edges {
		coords := e.GetCoordinates()
		if e.GetStartID() != at {
			coords = util.ReverseG(coords)
		}
		path = append(path, coords[1:]...)
		at = e.Other(at)
	}
	return path
}
