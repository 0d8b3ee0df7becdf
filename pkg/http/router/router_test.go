package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pathviz/pathviz/pkg/http/usecases"
	"github.com/pathviz/pathviz/pkg/spatialindex"
	"github.com/pathviz/pathviz/pkg/util"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestHandler(useRateLimit bool) http.Handler {
	util.SetConfigDefaults()
	service := usecases.NewExplorerService(zap.NewNop(),
		func() usecases.SpatialIndex { return spatialindex.NewRtree() }, 0.05, 0.05, 100)
	return NewAPI(zap.NewNop()).Handler(useRateLimit, service)
}

func TestHeartbeat(t *testing.T) {
	h := newTestHandler(false)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, ".", rec.Body.String())

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/3", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "pathviz", rec.Header().Get("X-Service"))
}

func TestEnforceJSON(t *testing.T) {
	h := newTestHandler(false)

	tests := []struct {
		name        string
		contentType string
		status      int
	}{
		{"plain text", "text/plain", http.StatusUnsupportedMediaType},
		{"missing", "", http.StatusBadRequest},
		{"json with charset", "application/json; charset=utf-8", http.StatusCreated},
	}
	body := `{"ways": [{"id": "w", "nodes": [{"id": 1, "lat": 0, "lon": 0}, {"id": 2, "lat": 0, "lon": 0.001}]}]}`
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/sessions", strings.NewReader(body))
			if tt.contentType != "" {
				req.Header.Set("Content-Type", tt.contentType)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestRecoverPanic(t *testing.T) {
	api := NewAPI(zap.NewNop())
	h := api.recoverPanic(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "close", rec.Header().Get("Connection"))
	assert.Contains(t, rec.Body.String(), `"code":"Internal Server Error"`)
}

func TestRealIP(t *testing.T) {
	var got string
	h := RealIP(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.RemoteAddr
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "10.0.0.7, 192.168.1.1")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, "10.0.0.7", got)

	req = httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Real-IP", "not-an-ip")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.Equal(t, req.RemoteAddr, got)
}

func TestLimit(t *testing.T) {
	viper.Set("RATE_LIMIT_RPS", 0.001)
	viper.Set("RATE_LIMIT_BURST", 2)
	t.Cleanup(func() {
		viper.Set("RATE_LIMIT_RPS", 50)
		viper.Set("RATE_LIMIT_BURST", 100)
	})

	h := newTestHandler(true)
	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/0/state", nil))
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusNotFound, http.StatusNotFound, http.StatusTooManyRequests}, codes)
}
