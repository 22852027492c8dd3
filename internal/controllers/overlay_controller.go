package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geotrek_core/internal/middleware"
	"geotrek_core/internal/models"
	"geotrek_core/internal/topology"
)

type trekRequest struct {
	models.Trek
	location
}

type interventionRequest struct {
	models.Intervention
	location
}

type poiRequest struct {
	models.POI
	location
}

type landEdgeRequest struct {
	models.LandEdge
	location
}

func createOverlay(c *gin.Context, handler string, o models.Overlay, loc location) {
	in := loc.input(topology.Kind(o.OverlayKind()))
	if err := network.CreateOverlay(c.Request.Context(), middleware.StructureID(c), o, in); err != nil {
		respondError(c, handler, err)
		return
	}
	c.JSON(http.StatusCreated, o)
}

func getOverlay(c *gin.Context, handler string, dst models.Overlay) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := network.GetOverlay(c.Request.Context(), middleware.StructureID(c), id, dst); err != nil {
		respondError(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, dst)
}

func listOverlays(c *gin.Context, handler string, dst interface{}) {
	if err := network.ListOverlays(c.Request.Context(), middleware.StructureID(c), dst); err != nil {
		respondError(c, handler, err)
		return
	}
	c.JSON(http.StatusOK, dst)
}

// CreateTrek handles POST /treks.
func CreateTrek(c *gin.Context) {
	var req trekRequest
	if !bindJSON(c, "CreateTrek", &req) {
		return
	}
	createOverlay(c, "CreateTrek", &req.Trek, req.location)
}

// ListTreks handles GET /treks.
func ListTreks(c *gin.Context) {
	var treks []models.Trek
	listOverlays(c, "ListTreks", &treks)
}

// GetTrek handles GET /treks/:id.
func GetTrek(c *gin.Context) {
	var trek models.Trek
	getOverlay(c, "GetTrek", &trek)
}

// CreateIntervention handles POST /interventions. Without an explicit
// location the intervention mirrors the topology it targets.
func CreateIntervention(c *gin.Context) {
	var req interventionRequest
	if !bindJSON(c, "CreateIntervention", &req) {
		return
	}
	loc := req.location
	if len(loc.Aggregations) == 0 && loc.Geom == nil && loc.ReferenceID == 0 && req.TargetTopologyID != nil {
		loc.ReferenceID = *req.TargetTopologyID
	}
	createOverlay(c, "CreateIntervention", &req.Intervention, loc)
}

// ListInterventions handles GET /interventions.
func ListInterventions(c *gin.Context) {
	var interventions []models.Intervention
	listOverlays(c, "ListInterventions", &interventions)
}

// GetIntervention handles GET /interventions/:id.
func GetIntervention(c *gin.Context) {
	var intervention models.Intervention
	getOverlay(c, "GetIntervention", &intervention)
}

// CreatePOI handles POST /pois.
func CreatePOI(c *gin.Context) {
	var req poiRequest
	if !bindJSON(c, "CreatePOI", &req) {
		return
	}
	createOverlay(c, "CreatePOI", &req.POI, req.location)
}

// ListPOIs handles GET /pois.
func ListPOIs(c *gin.Context) {
	var pois []models.POI
	listOverlays(c, "ListPOIs", &pois)
}

// GetPOI handles GET /pois/:id.
func GetPOI(c *gin.Context) {
	var poi models.POI
	getOverlay(c, "GetPOI", &poi)
}

// CreateLandEdge handles POST /land-edges.
func CreateLandEdge(c *gin.Context) {
	var req landEdgeRequest
	if !bindJSON(c, "CreateLandEdge", &req) {
		return
	}
	createOverlay(c, "CreateLandEdge", &req.LandEdge, req.location)
}

// ListLandEdges handles GET /land-edges.
func ListLandEdges(c *gin.Context) {
	var edges []models.LandEdge
	listOverlays(c, "ListLandEdges", &edges)
}

// GetLandEdge handles GET /land-edges/:id.
func GetLandEdge(c *gin.Context) {
	var edge models.LandEdge
	getOverlay(c, "GetLandEdge", &edge)
}
