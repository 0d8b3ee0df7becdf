package search

import (
	da "github.com/pathviz/pathviz/pkg/datastructure"
)

// Predecessor is how a vertex was first reached. The start vertex carries noPredecessor.
type Predecessor struct {
	Vertex da.VertexID `json:"vertex_id"`
	Edge   da.EdgeID   `json:"edge_id"`
}

func (p Predecessor) IsSentinel() bool {
	return p.Vertex == da.INVALID_VERTEX_ID
}

var noPredecessor = Predecessor{Vertex: da.INVALID_VERTEX_ID}

// UNSOLVED_TIME is the timeSolved value of a search that has not reached its end vertex.
const UNSOLVED_TIME float64 = -1

type FrontierEntry struct {
	Vertex            da.VertexID `json:"vertex_id"`
	Prev              Predecessor `json:"prev"`
	DistanceTravelled float64     `json:"distance_travelled"`
	HopCount          int         `json:"hop_count"`
	Score             float64     `json:"score"`
}

type Status uint8

const (
	IDLE Status = iota
	READY
	RUNNING
	SOLVED
	EXHAUSTED
)

func (s Status) String() string {
	switch s {
	case IDLE:
		return "idle"
	case READY:
		return "ready"
	case RUNNING:
		return "running"
	case SOLVED:
		return "solved"
	case EXHAUSTED:
		return "exhausted"
	default:
		return "unknown"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// Terminal reports whether further Advance calls can change anything.
func (s Status) Terminal() bool {
	return s == IDLE || s == SOLVED || s == EXHAUSTED
}

// SearchState is a snapshot. Maps and slices are copies owned by the caller.
// TimeSolved is UNSOLVED_TIME unless Status is SOLVED.
type SearchState struct {
	Status           Status                `json:"status"`
	Algorithm        string                `json:"algorithm"`
	Start            da.VertexID           `json:"start_id"`
	End              da.VertexID           `json:"end_id"`
	VisitedEdges     map[da.EdgeID]float64 `json:"visited_edges"`
	Solution         []da.EdgeID           `json:"solution"`
	TimeSolved       float64               `json:"time_solved"`
	SolutionDistance float64               `json:"solution_distance"`
	SolutionHops     int                   `json:"solution_hops"`
	Steps            int                   `json:"steps"`
	FrontierSize     int                   `json:"frontier_size"`
	VisitedCount     int                   `json:"visited_count"`
}
