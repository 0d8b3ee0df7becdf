package search

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pathviz/pathviz/pkg/geo"
)

const (
	ASTAR_NAME    = "A*"
	BFS_NAME      = "BFS"
	DIJKSTRA_NAME = "Dijkstra"
)

var ErrUnknownAlgorithm = errors.New("unknown search algorithm")

// ScoreContext carries the values of a frontier entry about to be pushed.
type ScoreContext struct {
	DistanceTravelled float64 // meters from the start, including the edge just taken
	HopCount          int
	Neighbor          geo.Coordinate
	End               geo.Coordinate
}

// Algorithm decides the frontier priority. Lower pops first.
type Algorithm interface {
	Name() string
	Score(c ScoreContext) float64
}

// AStar ranks by distance so far plus the straight line to the end.
type AStar struct{}

func (AStar) Name() string { return ASTAR_NAME }

func (AStar) Score(c ScoreContext) float64 {
	return c.DistanceTravelled + geo.Distance(c.Neighbor, c.End)
}

// BFS ranks by hop count only.
type BFS struct{}

func (BFS) Name() string { return BFS_NAME }

func (BFS) Score(c ScoreContext) float64 {
	return float64(c.HopCount)
}

// Dijkstra ranks by distance so far.
type Dijkstra struct{}

func (Dijkstra) Name() string { return DIJKSTRA_NAME }

func (Dijkstra) Score(c ScoreContext) float64 {
	return c.DistanceTravelled
}

func Algorithms() []Algorithm {
	return []Algorithm{AStar{}, BFS{}, Dijkstra{}}
}

// ParseAlgorithm maps a tag such as "A*", "astar", "bfs" or "dijkstra" to its Algorithm.
func ParseAlgorithm(tag string) (Algorithm, error) {
	switch strings.ToLower(strings.TrimSpace(tag)) {
	case "a*", "astar", "a-star":
		return AStar{}, nil
	case "bfs":
		return BFS{}, nil
	case "dijkstra":
		return Dijkstra{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, tag)
	}
}
