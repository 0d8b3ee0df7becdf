package controllers

import (
	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/http/usecases"
)

type ExplorerService interface {
	CreateSession(ways []da.Way) (usecases.SessionInfo, error)
	DeleteSession(id uint) error
	Info(id uint) (usecases.SessionInfo, error)
	Graph(id uint) (*da.RoadGraph, error)
	Edges(id uint, ids []da.EdgeID) ([]*da.Edge, int, error)
	Nearest(id uint, lat, lon float64) (*da.Vertex, float64, error)
	StartSearch(id uint, start, end da.VertexID, algorithm string) (usecases.SearchResult, bool, error)
	Advance(id uint, steps int) (usecases.SearchResult, error)
	Restart(id uint) (usecases.SearchResult, error)
	State(id uint) (usecases.SearchResult, error)
}
