package usecases

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"

	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/engine/search"
	"github.com/pathviz/pathviz/pkg/geo"
	"github.com/pathviz/pathviz/pkg/spatialindex"
	"github.com/pathviz/pathviz/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func gridWays() []da.Way {
	return []da.Way{
		da.NewWay("horizontal", []da.Node{
			da.NewNode(1, 0, -0.001),
			da.NewNode(5, 0, 0),
			da.NewNode(2, 0, 0.001),
		}, nil),
		da.NewWay("vertical", []da.Node{
			da.NewNode(3, 0.001, 0),
			da.NewNode(5, 0, 0),
			da.NewNode(4, -0.001, 0),
		}, nil),
	}
}

func newTestService(maxSteps int) *ExplorerService {
	return NewExplorerService(zap.NewNop(), func() SpatialIndex { return spatialindex.NewRtree() },
		0.05, 0.05, maxSteps)
}

func errCode(t *testing.T, err error) error {
	t.Helper()
	var uerr *util.Error
	require.True(t, errors.As(err, &uerr), "not a wrapped error: %v", err)
	return uerr.Code()
}

func TestCreateSession(t *testing.T) {
	es := newTestService(100)

	_, err := es.CreateSession(nil)
	require.Error(t, err)
	assert.Equal(t, util.ErrBadParamInput, errCode(t, err))
	assert.ErrorIs(t, err, ErrNoDefaultGraph)

	info, err := es.CreateSession(gridWays())
	require.NoError(t, err)
	assert.Equal(t, 5, info.Vertices)
	assert.Equal(t, 4, info.Edges)
	assert.Equal(t, 1, info.Components)
	assert.InDelta(t, -0.001, info.Bound.Min[0], 1e-12)

	es.SetDefaultWays(gridWays())
	first, err := es.CreateSession(nil)
	require.NoError(t, err)
	second, err := es.CreateSession(nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	g1, err := es.Graph(first.ID)
	require.NoError(t, err)
	g2, err := es.Graph(second.ID)
	require.NoError(t, err)
	assert.Same(t, g1, g2)
	assert.Equal(t, 3, es.NumberOfSessions())

	require.NoError(t, es.DeleteSession(first.ID))
	_, err = es.Graph(first.ID)
	assert.Equal(t, util.ErrNotFound, errCode(t, err))
	assert.Equal(t, util.ErrNotFound, errCode(t, es.DeleteSession(first.ID)))
}

func TestSearchLifecycle(t *testing.T) {
	es := newTestService(100)
	info, err := es.CreateSession(gridWays())
	require.NoError(t, err)

	res, err := es.Advance(info.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, search.IDLE, res.State.Status)
	assert.Zero(t, res.State.Steps)
	assert.Equal(t, search.UNSOLVED_TIME, res.State.TimeSolved)
	raw, err := json.Marshal(res.State)
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"status":"idle"`)
	assert.Contains(t, string(raw), `"time_solved":-1`)

	res, reachable, err := es.StartSearch(info.ID, 1, 2, "BFS")
	require.NoError(t, err)
	assert.True(t, reachable)
	assert.Equal(t, search.READY, res.State.Status)
	assert.Nil(t, res.Path)

	res, err = es.Advance(info.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, search.READY, res.State.Status)

	res, err = es.Advance(info.ID, 1)
	require.NoError(t, err)
	assert.Equal(t, search.RUNNING, res.State.Status)

	res, err = es.Advance(info.ID, 50)
	require.NoError(t, err)
	require.Equal(t, search.SOLVED, res.State.Status)
	assert.Equal(t, []da.EdgeID{"seg_1", "seg_0"}, res.State.Solution)
	assert.Equal(t, []geo.Coordinate{
		geo.NewCoordinate(0, -0.001),
		geo.NewCoordinate(0, 0),
		geo.NewCoordinate(0, 0.001),
	}, res.Path)

	state, err := es.State(info.ID)
	require.NoError(t, err)
	assert.Equal(t, res.State.Steps, state.State.Steps)

	res, err = es.Restart(info.ID)
	require.NoError(t, err)
	assert.Equal(t, search.READY, res.State.Status)
	assert.Zero(t, res.State.Steps)
}

func TestSearchPathFollowsEdgeOrientation(t *testing.T) {
	es := newTestService(100)
	info, err := es.CreateSession(gridWays())
	require.NoError(t, err)

	_, _, err = es.StartSearch(info.ID, 4, 3, "A*")
	require.NoError(t, err)
	res, err := es.Advance(info.ID, 100)
	require.NoError(t, err)
	require.Equal(t, search.SOLVED, res.State.Status)
	assert.Equal(t, []da.EdgeID{"seg_2", "seg_3"}, res.State.Solution)
	assert.Equal(t, []geo.Coordinate{
		geo.NewCoordinate(-0.001, 0),
		geo.NewCoordinate(0, 0),
		geo.NewCoordinate(0.001, 0),
	}, res.Path)
}

func TestStartSearchErrors(t *testing.T) {
	es := newTestService(100)
	info, err := es.CreateSession(gridWays())
	require.NoError(t, err)

	_, _, err = es.StartSearch(info.ID, 1, 2, "dfs")
	assert.Equal(t, util.ErrBadParamInput, errCode(t, err))
	assert.ErrorIs(t, err, search.ErrUnknownAlgorithm)

	_, _, err = es.StartSearch(info.ID, 1, 42, "A*")
	assert.Equal(t, util.ErrNotFound, errCode(t, err))

	_, _, err = es.StartSearch(info.ID+100, 1, 2, "A*")
	assert.Equal(t, util.ErrNotFound, errCode(t, err))

	res, _, err := es.StartSearch(info.ID, da.INVALID_VERTEX_ID, 2, "A*")
	require.NoError(t, err)
	assert.Equal(t, search.IDLE, res.State.Status)
	_, err = es.Advance(info.ID+100, 1)
	assert.Equal(t, util.ErrNotFound, errCode(t, err))
}

func TestAdvanceIsClamped(t *testing.T) {
	es := newTestService(2)
	info, err := es.CreateSession(gridWays())
	require.NoError(t, err)

	_, _, err = es.StartSearch(info.ID, 1, 4, "Dijkstra")
	require.NoError(t, err)
	res, err := es.Advance(info.ID, 1000)
	require.NoError(t, err)
	assert.Equal(t, 2, res.State.Steps)
}

func TestUnreachableIsReported(t *testing.T) {
	es := newTestService(100)
	ways := append(gridWays(), da.NewWay("island", []da.Node{da.NewNode(20, 1, 1), da.NewNode(21, 1, 1.001)}, nil))
	info, err := es.CreateSession(ways)
	require.NoError(t, err)
	assert.Equal(t, 2, info.Components)

	_, reachable, err := es.StartSearch(info.ID, 1, 21, "A*")
	require.NoError(t, err)
	assert.False(t, reachable)

	res, err := es.Advance(info.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, search.EXHAUSTED, res.State.Status)
	assert.Nil(t, res.Path)
}

func TestNearestAndEdges(t *testing.T) {
	es := newTestService(100)
	info, err := es.CreateSession(gridWays())
	require.NoError(t, err)

	v, dist, err := es.Nearest(info.ID, 0.0001, -0.00095)
	require.NoError(t, err)
	assert.Equal(t, da.VertexID(1), v.GetID())
	assert.Less(t, dist, 20.0)

	_, _, err = es.Nearest(info.ID, 10, 10)
	assert.ErrorIs(t, err, ErrNoNearbyVertex)

	edges, missing, err := es.Edges(info.ID, []da.EdgeID{"seg_0", "seg_17"})
	require.NoError(t, err)
	assert.Len(t, edges, 1)
	assert.Equal(t, 1, missing)
}

func TestConcurrentAdvanceOnOneSession(t *testing.T) {
	es := newTestService(100)
	ways := make([]da.Way, 0, 30)
	for i := int64(0); i < 30; i++ {
		ways = append(ways, da.NewWay("w", []da.Node{
			da.NewNode(i, 0, float64(i)*0.001),
			da.NewNode(i+1, 0, float64(i+1)*0.001),
		}, nil))
	}
	info, err := es.CreateSession(ways)
	require.NoError(t, err)
	_, _, err = es.StartSearch(info.ID, 0, 30, "BFS")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := es.Advance(info.ID, 2)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	res, err := es.State(info.ID)
	require.NoError(t, err)
	assert.Equal(t, 20, res.State.Steps)
	assert.Equal(t, search.RUNNING, res.State.Status)
}
