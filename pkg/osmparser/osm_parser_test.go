package osmparser

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dsnet/compress/bzip2"
	da "github.com/pathviz/pathviz/pkg/datastructure"
	"github.com/pathviz/pathviz/pkg/util"
	"github.com/paulmach/osm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const sampleOSM = `<?xml version="1.0" encoding="UTF-8"?>
<osm version="0.6" generator="pathviz-test">
  <node id="1" lat="-7.7801" lon="110.3601" version="1"/>
  <node id="2" lat="-7.7802" lon="110.3602" version="1"/>
  <node id="3" lat="-7.7803" lon="110.3603" version="1"/>
  <node id="4" lat="-7.7804" lon="110.3604" version="1"/>
  <node id="5" lat="-7.7805" lon="110.3605" version="1"/>
  <node id="6" lat="-7.7806" lon="110.3606" version="1"/>
  <way id="100" version="1">
    <nd ref="1"/><nd ref="2"/><nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="name" v="Jalan Colombo"/>
  </way>
  <way id="101" version="1">
    <nd ref="3"/><nd ref="4"/><nd ref="7"/>
    <tag k="highway" v="primary"/>
  </way>
  <way id="102" version="1">
    <nd ref="5"/><nd ref="6"/>
    <tag k="highway" v="footway"/>
  </way>
  <way id="103" version="1">
    <nd ref="4"/><nd ref="5"/><nd ref="6"/><nd ref="4"/>
    <tag k="highway" v="residential"/>
    <tag k="area" v="yes"/>
  </way>
  <way id="104" version="1">
    <nd ref="6"/><nd ref="7"/>
    <tag k="highway" v="tertiary"/>
  </way>
</osm>
`

func wayNodeIDs(w da.Way) []da.VertexID {
	ids := make([]da.VertexID, 0, len(w.Nodes))
	for _, n := range w.Nodes {
		ids = append(ids, n.ID)
	}
	return ids
}

func assertSampleWays(t *testing.T, ways []da.Way) {
	t.Helper()
	require.Len(t, ways, 2)

	assert.Equal(t, "100", ways[0].ID)
	assert.Equal(t, []da.VertexID{1, 2, 3}, wayNodeIDs(ways[0]))
	assert.Equal(t, "Jalan Colombo", ways[0].Tags["name"])
	assert.InDelta(t, -7.7801, ways[0].Nodes[0].Coord.Lat, 1e-9)
	assert.InDelta(t, 110.3601, ways[0].Nodes[0].Coord.Lon, 1e-9)

	assert.Equal(t, "101", ways[1].ID)
	assert.Equal(t, []da.VertexID{3, 4}, wayNodeIDs(ways[1]))
}

func TestParseXML(t *testing.T) {
	p := NewOSMParser(zap.NewNop())
	ways, err := p.ParseXML(context.Background(), strings.NewReader(sampleOSM))
	require.NoError(t, err)
	assertSampleWays(t, ways)

	g := da.NewRoadGraph().Build(ways)
	assert.Equal(t, 3, g.NumberOfVertices())
	assert.Equal(t, 2, g.NumberOfEdges())
}

func TestParseFileBzip2(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sample.osm.bz2")
	f, err := os.Create(path)
	require.NoError(t, err)
	w, err := bzip2.NewWriter(f, nil)
	require.NoError(t, err)
	_, err = w.Write([]byte(sampleOSM))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())

	ways, err := NewOSMParser(zap.NewNop()).ParseFile(context.Background(), path)
	require.NoError(t, err)
	assertSampleWays(t, ways)
}

func TestParseFileJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ways.json")
	content := `[
		{"id": 9001, "nodes": [{"id": 1, "coord": {"lat": 0, "lon": 0}}, {"id": 2, "coord": {"lat": 0, "lon": 0.001}}], "tags": {"highway": "residential"}},
		{"id": "way/42", "nodes": [{"id": 2, "coord": {"lat": 0, "lon": 0.001}}, {"id": 3, "coord": {"lat": 0.001, "lon": 0.001}}]}
	]`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	ways, err := NewOSMParser(zap.NewNop()).ParseFile(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, ways, 2)
	assert.Equal(t, "9001", ways[0].ID)
	assert.Equal(t, "way/42", ways[1].ID)
	assert.Equal(t, []da.VertexID{2, 3}, wayNodeIDs(ways[1]))
	assert.Equal(t, "residential", ways[0].Tags["highway"])
}

func TestParseFileErrors(t *testing.T) {
	p := NewOSMParser(zap.NewNop())

	_, err := p.ParseFile(context.Background(), filepath.Join(t.TempDir(), "missing.osm"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "roads.csv")
	require.NoError(t, os.WriteFile(path, []byte("a,b"), 0o644))
	_, err = p.ParseFile(context.Background(), path)
	assert.True(t, errors.Is(err, ErrUnsupportedFormat))
	var uerr *util.Error
	require.True(t, errors.As(err, &uerr))
	assert.Equal(t, util.ErrBadParamInput, uerr.Code())

	_, err = ParseWaysJSON(strings.NewReader("{not json"))
	assert.Error(t, err)
}

func TestAcceptOsmWay(t *testing.T) {
	testCases := []struct {
		name string
		tags osm.Tags
		want bool
	}{
		{name: "residential", tags: osm.Tags{{Key: "highway", Value: "residential"}}, want: true},
		{name: "motorway link", tags: osm.Tags{{Key: "highway", Value: "motorway_link"}}, want: true},
		{name: "footway", tags: osm.Tags{{Key: "highway", Value: "footway"}}, want: false},
		{name: "no highway", tags: osm.Tags{{Key: "building", Value: "yes"}}, want: false},
		{
			name: "pedestrian area",
			tags: osm.Tags{{Key: "highway", Value: "primary"}, {Key: "area", Value: "yes"}},
			want: false,
		},
	}

	for _, tt := range testCases {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, acceptOsmWay(&osm.Way{ID: 1, Tags: tt.tags}))
		})
	}
}
