package controllers

import (
	"errors"
	"net/http"

	"github.com/julienschmidt/httprouter"
	da "github.com/pathviz/pathviz/pkg/datastructure"
	helper "github.com/pathviz/pathviz/pkg/http/router/routerhelper"
	"go.uber.org/zap"
)

type ExplorerAPI struct {
	service   ExplorerService
	hub       *Hub
	validator *requestValidator
	log       *zap.Logger

	streamFPS   int
	streamSteps int
}

func New(service ExplorerService, hub *Hub, log *zap.Logger, streamFPS, streamSteps int) *ExplorerAPI {
	return &ExplorerAPI{
		service:     service,
		hub:         hub,
		validator:   newRequestValidator(),
		log:         log,
		streamFPS:   streamFPS,
		streamSteps: streamSteps,
	}
}

func (api *ExplorerAPI) Routes(group *helper.RouteGroup) {
	sessions := group.Group("/sessions")
	sessions.POST("", api.createSession)
	sessions.GET("/:id", api.sessionInfo)
	sessions.DELETE("/:id", api.deleteSession)
	sessions.GET("/:id/graph", api.graph)
	sessions.GET("/:id/edges", api.edges)
	sessions.GET("/:id/nearest", api.nearest)
	sessions.POST("/:id/search", api.startSearch)
	sessions.POST("/:id/advance", api.advance)
	sessions.POST("/:id/restart", api.restart)
	sessions.GET("/:id/state", api.state)
	sessions.GET("/:id/stream", api.stream)
}

// createSession
//
//	@Summary		create an exploration session
//	@Description	builds a road graph from the posted ways, or shares the preloaded map when no ways are given.
//	@Tags			sessions
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/sessions [post]
//	@Success		201	{object}	sessionResponse
//	@Failure		400	{object}	errorResponse
func (api *ExplorerAPI) createSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	var request createSessionRequest
	if r.ContentLength != 0 {
		if err := api.readJSON(r, &request); err != nil {
			api.BadRequestResponse(w, r, err)
			return
		}
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	info, err := api.service.CreateSession(request.toWays())
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusCreated, envelope{"data": NewSessionResponse(info)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *ExplorerAPI) sessionInfo(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	info, err := api.service.Info(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSessionResponse(info)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *ExplorerAPI) deleteSession(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.service.DeleteSession(id); err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	api.hub.CloseSession(id)
	w.WriteHeader(http.StatusNoContent)
}

// graph
//
//	@Summary		all vertices and edges of the session graph
//	@Description	edge geometry is an encoded polyline (precision 5).
//	@Tags			sessions
//	@Produce		application/json
//	@Router			/sessions/{id}/graph [get]
//	@Success		200	{object}	graphResponse
//	@Failure		404	{object}	errorResponse
func (api *ExplorerAPI) graph(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	g, err := api.service.Graph(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewGraphResponse(g)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *ExplorerAPI) edges(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	raw := splitIDs(r.URL.Query().Get("ids"))
	if len(raw) == 0 {
		api.BadRequestResponse(w, r, errors.New("ids is required, a comma separated list of edge ids"))
		return
	}
	ids := make([]da.EdgeID, 0, len(raw))
	for _, s := range raw {
		ids = append(ids, da.EdgeID(s))
	}

	edges, missing, err := api.service.Edges(id, ids)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	resp := edgesResponse{Edges: NewEdgeResponses(edges), Missing: missing}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": resp}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *ExplorerAPI) nearest(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	lat, err := parseFloatParam(r, "lat", -90, 90)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	lon, err := parseFloatParam(r, "lon", -180, 180)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	v, dist, err := api.service.Nearest(id, lat, lon)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	resp := nearestResponse{Vertex: NewVertexResponse(v), Distance: dist}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": resp}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// startSearch
//
//	@Summary		initialize the session search
//	@Description	algorithm is one of A*, BFS, Dijkstra. start_id or end_id of -1 leaves the search idle.
//	@Tags			search
//	@Accept			application/json
//	@Produce		application/json
//	@Router			/sessions/{id}/search [post]
//	@Success		200	{object}	searchResponse
//	@Failure		400	{object}	errorResponse
//	@Failure		404	{object}	errorResponse
func (api *ExplorerAPI) startSearch(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	var request startSearchRequest
	if err := api.readJSON(r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	res, reachable, err := api.service.StartSearch(id, da.VertexID(*request.StartID), da.VertexID(*request.EndID),
		request.Algorithm)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	resp := NewSearchResponse(res)
	resp.Reachable = &reachable
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": resp}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

// advance
//
//	@Summary	run up to steps expansions of the session search
//	@Tags		search
//	@Accept		application/json
//	@Produce	application/json
//	@Router		/sessions/{id}/advance [post]
//	@Success	200	{object}	searchResponse
//	@Failure	400	{object}	errorResponse
func (api *ExplorerAPI) advance(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	var request advanceRequest
	if err := api.readJSON(r, &request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	if err := api.validator.Struct(request); err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}

	res, err := api.service.Advance(id, request.Steps)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSearchResponse(res)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *ExplorerAPI) restart(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	res, err := api.service.Restart(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSearchResponse(res)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}

func (api *ExplorerAPI) state(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
	id, err := parseSessionID(p)
	if err != nil {
		api.BadRequestResponse(w, r, err)
		return
	}
	res, err := api.service.State(id)
	if err != nil {
		api.getStatusCode(w, r, err)
		return
	}
	if err := api.writeJSON(w, http.StatusOK, envelope{"data": NewSearchResponse(res)}, nil); err != nil {
		api.ServerErrorResponse(w, r, err)
	}
}
