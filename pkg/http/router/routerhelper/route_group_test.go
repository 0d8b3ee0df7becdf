package routerhelper

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
)

func TestRouteGroup(t *testing.T) {
	router := httprouter.New()
	api := NewRouteGroup(router, "/api")
	sessions := api.Group("/sessions")

	var gotID string
	sessions.GET("/:id/state", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		gotID = p.ByName("id")
		w.WriteHeader(http.StatusNoContent)
	})
	sessions.DELETE("/:id", func(w http.ResponseWriter, r *http.Request, p httprouter.Params) {
		w.WriteHeader(http.StatusAccepted)
	})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/sessions/12/state", nil))
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "12", gotID)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodDelete, "/api/sessions/12", nil))
	assert.Equal(t, http.StatusAccepted, rec.Code)

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/sessions/12", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
