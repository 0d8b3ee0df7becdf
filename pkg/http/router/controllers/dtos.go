package controllers

import (
	"encoding/json"
	"time"

	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/engine/search"
	"github.com/pathviz/pathviz/pkg/geo"
	"github.com/pathviz/pathviz/pkg/http/usecases"
	"github.com/pathviz/pathviz/pkg/osmparser"
)

type nodeRequest struct {
	ID  *int64  `json:"id" validate:"required"`
	Lat float64 `json:"lat" validate:"min=-90,max=90"`
	Lon float64 `json:"lon" validate:"min=-180,max=180"`
}

type wayRequest struct {
	ID    json.RawMessage   `json:"id"`
	Nodes []nodeRequest     `json:"nodes" validate:"dive"`
	Tags  map[string]string `json:"tags"`
}

// createSessionRequest. an empty ways list shares the preloaded map.
type createSessionRequest struct {
	Ways []wayRequest `json:"ways" validate:"dive"`
}

func (req createSessionRequest) toWays() []da.Way {
	ways := make([]da.Way, 0, len(req.Ways))
	for _, w := range req.Ways {
		nodes := make([]da.Node, 0, len(w.Nodes))
		for _, n := range w.Nodes {
			nodes = append(nodes, da.NewNode(*n.ID, n.Lat, n.Lon))
		}
		ways = append(ways, da.NewWay(osmparser.WayIDFromJSON(w.ID), nodes, w.Tags))
	}
	return ways
}

type startSearchRequest struct {
	StartID   *int64 `json:"start_id" validate:"required"`
	EndID     *int64 `json:"end_id" validate:"required"`
	Algorithm string `json:"algorithm" validate:"required"`
}

type advanceRequest struct {
	Steps int `json:"steps" validate:"required,min=1"`
}

type sessionResponse struct {
	ID         uint       `json:"id"`
	Vertices   int        `json:"vertices"`
	Edges      int        `json:"edges"`
	Components int        `json:"components"`
	BBox       [4]float64 `json:"bbox"`
	CreatedAt  time.Time  `json:"created_at"`
}

// NewSessionResponse. bbox is min_lon, min_lat, max_lon, max_lat.
func NewSessionResponse(info usecases.SessionInfo) sessionResponse {
	return sessionResponse{
		ID:         info.ID,
		Vertices:   info.Vertices,
		Edges:      info.Edges,
		Components: info.Components,
		BBox:       [4]float64{info.Bound.Min[0], info.Bound.Min[1], info.Bound.Max[0], info.Bound.Max[1]},
		CreatedAt:  info.CreatedAt,
	}
}

type vertexResponse struct {
	ID  da.VertexID `json:"id"`
	Lat float64     `json:"lat"`
	Lon float64     `json:"lon"`
}

func NewVertexResponse(v *da.Vertex) vertexResponse {
	return vertexResponse{ID: v.GetID(), Lat: v.GetLat(), Lon: v.GetLon()}
}

type edgeResponse struct {
	ID       da.EdgeID         `json:"id"`
	WayID    string            `json:"way_id"`
	StartID  da.VertexID       `json:"start_id"`
	EndID    da.VertexID       `json:"end_id"`
	Length   float64           `json:"length"`
	Polyline string            `json:"polyline"`
	Tags     map[string]string `json:"tags,omitempty"`
}

func NewEdgeResponse(e *da.Edge) edgeResponse {
	return edgeResponse{
		ID:       e.GetID(),
		WayID:    e.GetWayID(),
		StartID:  e.GetStartID(),
		EndID:    e.GetEndID(),
		Length:   e.GetLength(),
		Polyline: geo.EncodePolyline(e.GetCoordinates()),
		Tags:     e.GetTags(),
	}
}

func NewEdgeResponses(edges []*da.Edge) []edgeResponse {
	resp := make([]edgeResponse, 0, len(edges))
	for _, e := range edges {
		resp = append(resp, NewEdgeResponse(e))
	}
	return resp
}

type graphResponse struct {
	Vertices []vertexResponse `json:"vertices"`
	Edges    []edgeResponse   `json:"edges"`
}

func NewGraphResponse(g *da.RoadGraph) graphResponse {
	vertices := g.GetAllVertices()
	resp := graphResponse{
		Vertices: make([]vertexResponse, 0, len(vertices)),
		Edges:    NewEdgeResponses(g.GetAllEdges()),
	}
	for _, v := range vertices {
		resp.Vertices = append(resp.Vertices, NewVertexResponse(v))
	}
	return resp
}

type edgesResponse struct {
	Edges   []edgeResponse `json:"edges"`
	Missing int            `json:"missing"`
}

type nearestResponse struct {
	Vertex   vertexResponse `json:"vertex"`
	Distance float64        `json:"distance"`
}

type searchResponse struct {
	search.SearchState
	Path      string `json:"path,omitempty"`
	Reachable *bool  `json:"reachable,omitempty"`
}

func NewSearchResponse(res usecases.SearchResult) searchResponse {
	resp := searchResponse{SearchState: res.State}
	if len(res.Path) > 0 {
		resp.Path = geo.EncodePolyline(res.Path)
	}
	return resp
}

type streamCommand struct {
	Action string `json:"action" validate:"required,oneof=pause resume restart"`
}

// streamFrame carries only the visited edges whose timestamp changed since the previous frame.
type streamFrame struct {
	Status       search.Status         `json:"status"`
	Steps        int                   `json:"steps"`
	FrontierSize int                   `json:"frontier_size"`
	VisitedEdges map[da.EdgeID]float64 `json:"visited_edges"`
	Solution     []da.EdgeID           `json:"solution,omitempty"`
	TimeSolved   float64               `json:"time_solved"`
	Path         string                `json:"path,omitempty"`
	Reset        bool                  `json:"reset,omitempty"`
}

func newStreamFrame(res usecases.SearchResult, sent map[da.EdgeID]float64) streamFrame {
	frame := streamFrame{
		Status:       res.State.Status,
		Steps:        res.State.Steps,
		FrontierSize: res.State.FrontierSize,
		VisitedEdges: make(map[da.EdgeID]float64),
		Solution:     res.State.Solution,
		TimeSolved:   res.State.TimeSolved,
	}
	for id, ts := range res.State.VisitedEdges {
		if prev, ok := sent[id]; ok && prev == ts {
			continue
		}
		frame.VisitedEdges[id] = ts
		sent[id] = ts
	}
	if len(res.Path) > 0 {
		frame.Path = geo.EncodePolyline(res.Path)
	}
	return frame
}

type errorResponse struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}
