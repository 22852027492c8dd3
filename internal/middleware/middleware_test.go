package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func scopedEngine(seen *uint) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(StructureScope())
	r.GET("/", func(c *gin.Context) {
		*seen = StructureID(c)
		c.Status(http.StatusOK)
	})
	return r
}

func TestStructureScope(t *testing.T) {
	var seen uint
	r := scopedEngine(&seen)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(StructureHeader, "12")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, uint(12), seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/?structure_id=3", nil))
	assert.Equal(t, uint(3), seen)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Zero(t, seen)
}

func TestStructureScopeRejectsGarbage(t *testing.T) {
	var seen uint
	r := scopedEngine(&seen)
	for _, v := range []string{"abc", "0", "-4"} {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set(StructureHeader, v)
		w := httptest.NewRecorder()
		r.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code, v)
	}
}

func corsEngine(called *bool) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(CORS())
	r.GET("/paths", func(c *gin.Context) {
		*called = true
		c.Status(http.StatusOK)
	})
	return r
}

func TestCORSPreflight(t *testing.T) {
	called := false
	r := corsEngine(&called)

	req := httptest.NewRequest(http.MethodOptions, "/paths", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.False(t, called)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, w.Header().Get("Access-Control-Allow-Headers"), StructureHeader)
}

func TestCORSPassesThrough(t *testing.T) {
	called := false
	r := corsEngine(&called)

	req := httptest.NewRequest(http.MethodGet, "/paths", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, called)
	assert.Equal(t, "Origin", w.Header().Get("Vary"))
}
