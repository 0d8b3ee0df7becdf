package osmparser

import (
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/pathviz/pathviz/pkg"
	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/geo"
	"github.com/pathviz/pathviz/pkg/util"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"go.uber.org/zap"
)

// OsmParser turns an openstreetmap extract into the raw ways the road graph is built from.
type OsmParser struct {
	logger          *zap.Logger
	wayNodeMap      map[int64]struct{}
	acceptedNodeMap map[int64]geo.Coordinate
	ways            []osmWay
}

func NewOSMParser(logger *zap.Logger) *OsmParser {
	return &OsmParser{
		logger:          logger,
		wayNodeMap:      make(map[int64]struct{}),
		acceptedNodeMap: make(map[int64]geo.Coordinate),
		ways:            make([]osmWay, 0),
	}
}

func (p *OsmParser) reset() {
	p.wayNodeMap = make(map[int64]struct{})
	p.acceptedNodeMap = make(map[int64]geo.Coordinate)
	p.ways = make([]osmWay, 0)
}

// ParseFile reads .osm.pbf, .osm / .xml, .osm.bz2 or a json array of ways.
func (p *OsmParser) ParseFile(ctx context.Context, mapFile string) ([]da.Way, error) {
	f, err := os.Open(mapFile)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	p.logger.Info("parsing map file", zap.String("file", mapFile))

	switch ext := strings.ToLower(filepath.Ext(mapFile)); ext {
	case ".pbf":
		return p.ParsePBF(ctx, f)
	case ".bz2":
		r, err := bzip2.NewReader(f, nil)
		if err != nil {
			return nil, err
		}
		defer r.Close()
		return p.ParseXML(ctx, r)
	case ".osm", ".xml":
		return p.ParseXML(ctx, f)
	case ".json":
		return ParseWaysJSON(f)
	default:
		return nil, util.WrapErrorf(ErrUnsupportedFormat, util.ErrBadParamInput, "unsupported map file extension %q", ext)
	}
}

// ParsePBF scans the file twice: ways first, then the coordinates of the nodes they reference.
func (p *OsmParser) ParsePBF(ctx context.Context, f io.ReadSeeker) ([]da.Way, error) {
	p.reset()

	scanner := osmpbf.New(ctx, f, 0)
	scanner.SkipNodes = true
	scanner.SkipRelations = true
	countWays := 0
	for scanner.Scan() {
		way, ok := scanner.Object().(*osm.Way)
		if !ok {
			continue
		}
		if p.collectWay(way) {
			countWays++
			if countWays%50000 == 0 {
				p.logger.Sugar().Infof("scanning openstreetmap ways: %d...", countWays)
			}
		}
	}
	if err := scanner.Err(); err != nil {
		scanner.Close()
		return nil, err
	}
	scanner.Close()

	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return nil, err
	}

	scanner = osmpbf.New(ctx, f, 0)
	defer scanner.Close()
	scanner.SkipWays = true
	scanner.SkipRelations = true
	for scanner.Scan() {
		node, ok := scanner.Object().(*osm.Node)
		if !ok {
			continue
		}
		if _, used := p.wayNodeMap[int64(node.ID)]; used {
			p.acceptedNodeMap[int64(node.ID)] = geo.NewCoordinate(node.Lat, node.Lon)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return p.assembleWays(), nil
}

// ParseXML does a single pass; osm xml lists nodes before the ways using them.
func (p *OsmParser) ParseXML(ctx context.Context, r io.Reader) ([]da.Way, error) {
	p.reset()

	scanner := osmxml.New(ctx, r)
	defer scanner.Close()

	allNodes := make(map[int64]geo.Coordinate)
	for scanner.Scan() {
		switch o := scanner.Object().(type) {
		case *osm.Node:
			allNodes[int64(o.ID)] = geo.NewCoordinate(o.Lat, o.Lon)
		case *osm.Way:
			p.collectWay(o)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}

	for id := range p.wayNodeMap {
		if coord, ok := allNodes[id]; ok {
			p.acceptedNodeMap[id] = coord
		}
	}
	return p.assembleWays(), nil
}

func (p *OsmParser) collectWay(way *osm.Way) bool {
	if len(way.Nodes) < 2 || !acceptOsmWay(way) {
		return false
	}
	nodes := make([]int64, 0, len(way.Nodes))
	for _, n := range way.Nodes {
		nodes = append(nodes, int64(n.ID))
		p.wayNodeMap[int64(n.ID)] = struct{}{}
	}
	p.ways = append(p.ways, osmWay{
		id:    strconv.FormatInt(int64(way.ID), 10),
		nodes: nodes,
		tags:  way.Tags.Map(),
	})
	return true
}

// assembleWays resolves node coordinates. Nodes missing from the extract are
// dropped, and so are ways left with fewer than two nodes.
func (p *OsmParser) assembleWays() []da.Way {
	ways := make([]da.Way, 0, len(p.ways))
	missingNodes, droppedWays := 0, 0
	for _, w := range p.ways {
		nodes := make([]da.Node, 0, len(w.nodes))
		for _, id := range w.nodes {
			coord, ok := p.acceptedNodeMap[id]
			if !ok {
				missingNodes++
				continue
			}
			nodes = append(nodes, da.Node{ID: da.VertexID(id), Coord: coord})
		}
		if len(nodes) < 2 {
			droppedWays++
			continue
		}
		ways = append(ways, da.NewWay(w.id, nodes, w.tags))
	}

	if missingNodes > 0 || droppedWays > 0 {
		p.logger.Warn("incomplete openstreetmap extract",
			zap.Int("missing_nodes", missingNodes), zap.Int("dropped_ways", droppedWays))
	}
	p.logger.Sugar().Infof("parsed %d openstreetmap ways", len(ways))
	return ways
}

func acceptOsmWay(way *osm.Way) bool {
	if way.Tags.Find("area") == "yes" {
		return false
	}
	return pkg.GetHighwayType(way.Tags.Find("highway")) != pkg.UNKNOWN
}

// ParseWaysJSON decodes a json array of ways. Way ids may be json numbers or strings.
func ParseWaysJSON(r io.Reader) ([]da.Way, error) {
	var raw []struct {
		ID    json.RawMessage   `json:"id"`
		Nodes []da.Node         `json:"nodes"`
		Tags  map[string]string `json:"tags"`
	}
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, util.WrapErrorf(err, util.ErrBadParamInput, "invalid ways json: %v", err)
	}
	ways := make([]da.Way, 0, len(raw))
	for _, w := range raw {
		ways = append(ways, da.NewWay(WayIDFromJSON(w.ID), w.Nodes, w.Tags))
	}
	return ways, nil
}

// WayIDFromJSON accepts "123" and 123 alike.
func WayIDFromJSON(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return strings.TrimSpace(string(raw))
}
