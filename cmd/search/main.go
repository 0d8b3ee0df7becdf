package main

import (
	"context"
	"flag"
	"math"
	"runtime"
	"time"

	"github.com/pathviz/pathviz/pkg/concurrent"
	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/engine/search"
	"github.com/pathviz/pathviz/pkg/http"
	"github.com/pathviz/pathviz/pkg/logger"
	"github.com/pathviz/pathviz/pkg/osmparser"
	"github.com/pathviz/pathviz/pkg/util"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"golang.org/x/sync/errgroup"
)

var (
	osmFile   = flag.String("osm", "./data/map.osm.pbf", "road map (.osm.pbf, .osm, .osm.bz2 or .json ways)")
	start     = flag.Int64("start", -1, "start vertex id")
	end       = flag.Int64("end", -1, "end vertex id")
	algorithm = flag.String("algorithm", search.ASTAR_NAME, "A*, BFS or Dijkstra")
	steps     = flag.Int("steps", 50, "expansions per tick")
	queries   = flag.Int("queries", 0, "run this many random start/end pairs with every algorithm instead of a single search")
	workers   = flag.Int("workers", runtime.NumCPU(), "concurrent searches in -queries mode")
	seed      = flag.Uint64("seed", 42, "random seed for -queries mode")
)

type queryResult struct {
	status   search.Status
	steps    int
	distance float64
	elapsed  time.Duration
}

func main() {
	flag.Parse()
	if err := util.ReadConfig(); err != nil {
		panic(err)
	}
	logger, err := logger.New()
	if err != nil {
		panic(err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, cancel := http.GracefulShutdown(context.Background(), logger)
	defer cancel()

	ways, err := osmparser.NewOSMParser(logger).ParseFile(ctx, *osmFile)
	if err != nil {
		logger.Fatal("failed to parse map", zap.String("file", *osmFile), zap.Error(err))
	}
	graph := da.NewRoadGraph().Build(ways)
	logger.Info("road graph built", zap.Int("vertices", graph.NumberOfVertices()),
		zap.Int("edges", graph.NumberOfEdges()))

	if *queries > 0 {
		if err := runQueries(ctx, logger, graph); err != nil {
			logger.Fatal("random queries failed", zap.Error(err))
		}
		return
	}

	alg, err := search.ParseAlgorithm(*algorithm)
	if err != nil {
		logger.Fatal("bad -algorithm", zap.Error(err))
	}
	runSingle(ctx, logger, graph, da.VertexID(*start), da.VertexID(*end), alg)
}

func runSingle(ctx context.Context, logger *zap.Logger, graph *da.RoadGraph, start, end da.VertexID, alg search.Algorithm) {
	gs := search.NewGraphSearch(graph, start, end, alg, search.WithLogger(logger))
	if gs.Status() == search.IDLE {
		logger.Fatal("start and end must both be vertices of the graph",
			zap.Int64("start", int64(start)), zap.Int64("end", int64(end)))
	}
	if !da.SameComponent(graph.ConnectedComponents(), start, end) {
		logger.Warn("end is not reachable from start, the search will exhaust")
	}

	state := gs.State()
	for tick := 1; !state.Status.Terminal(); tick++ {
		if util.StopConcurrentOperation(ctx) {
			logger.Info("interrupted", zap.Int("steps", state.Steps))
			return
		}
		state = gs.Advance(*steps)
		logger.Debug("tick", zap.Int("tick", tick), zap.Stringer("status", state.Status),
			zap.Int("visited", state.VisitedCount), zap.Int("frontier", state.FrontierSize),
			zap.Int("visited_edges", len(state.VisitedEdges)))
	}

	logger.Info("search finished",
		zap.String("algorithm", state.Algorithm),
		zap.Stringer("status", state.Status),
		zap.Int("steps", state.Steps),
		zap.Int("visited_edges", len(state.VisitedEdges)),
		zap.Int("hops", state.SolutionHops),
		zap.Float64("distance_m", util.RoundFloat(state.SolutionDistance, 2)),
	)
}

// runQueries draws random vertex pairs and runs every algorithm on all of them.
// The graph is shared read-only by all searches.
func runQueries(ctx context.Context, logger *zap.Logger, graph *da.RoadGraph) error {
	vertices := graph.GetAllVertices()
	if len(vertices) == 0 {
		return nil
	}
	r := rand.New(rand.NewSource(*seed))
	pairs := make([][2]da.VertexID, *queries)
	for i := range pairs {
		pairs[i] = [2]da.VertexID{
			vertices[r.Intn(len(vertices))].GetID(),
			vertices[r.Intn(len(vertices))].GetID(),
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, alg := range search.Algorithms() {
		alg := alg // per-iteration copy (pre-Go 1.22 loop semantics)
		g.Go(func() error {
			results, err := concurrent.Map(gctx, *workers, pairs, func(pair [2]da.VertexID) queryResult {
				t0 := time.Now()
				gs := search.NewGraphSearch(graph, pair[0], pair[1], alg)
				state := gs.Advance(math.MaxInt32)
				return queryResult{
					status:   state.Status,
					steps:    state.Steps,
					distance: state.SolutionDistance,
					elapsed:  time.Since(t0),
				}
			})
			if err != nil {
				return err
			}
			report(logger, alg.Name(), results)
			return nil
		})
	}
	return g.Wait()
}

func report(logger *zap.Logger, name string, results []queryResult) {
	var (
		solved, exhausted int
		totalSteps        int
		totalDistance     float64
		totalElapsed      time.Duration
	)
	for _, res := range results {
		switch res.status {
		case search.SOLVED:
			solved++
			totalDistance += res.distance
		case search.EXHAUSTED:
			exhausted++
		}
		totalSteps += res.steps
		totalElapsed += res.elapsed
	}
	n := float64(len(results))
	fields := []zap.Field{
		zap.String("algorithm", name),
		zap.Int("queries", len(results)),
		zap.Int("solved", solved),
		zap.Int("exhausted", exhausted),
		zap.Float64("mean_steps", util.RoundFloat(float64(totalSteps)/n, 1)),
		zap.Duration("mean_time", totalElapsed/time.Duration(len(results))),
	}
	if solved > 0 {
		fields = append(fields, zap.Float64("mean_distance_m", util.RoundFloat(totalDistance/float64(solved), 1)))
	}
	logger.Info("random queries", fields...)
}
