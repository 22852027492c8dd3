package routes

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestSetupRouterRegistersRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter()

	registered := map[string]bool{}
	for _, route := range r.Routes() {
		registered[route.Method+" "+route.Path] = true
	}
	for _, want := range []string{
		"GET /healthz",
		"POST /structures",
		"POST /paths",
		"PUT /paths/:id",
		"POST /paths/:id/split",
		"POST /paths/merge",
		"POST /topologies",
		"DELETE /topologies/:id",
		"POST /treks",
		"GET /interventions/:id",
		"GET /pois",
		"POST /land-edges",
		"GET /ws/cascade",
	} {
		assert.True(t, registered[want], want)
	}
}

func TestSetupRouterAnswersPreflight(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter()

	req := httptest.NewRequest(http.MethodOptions, "/paths", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestSetupRouterRejectsBadStructure(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := SetupRouter()

	req := httptest.NewRequest(http.MethodGet, "/paths", nil)
	req.Header.Set("X-Structure-ID", "nope")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
