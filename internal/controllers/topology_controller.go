package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"geotrek_core/internal/middleware"
	"geotrek_core/internal/models"
	"geotrek_core/internal/store"
	"geotrek_core/internal/topology"
)

// location is how a request places an object on the network: explicit
// aggregations, a drawn geometry snapped onto the paths, or a reference to
// another topology.
type location struct {
	Offset       float64                  `json:"offset"`
	Aggregations []store.AggregationInput `json:"aggregations"`
	Geom         *models.Geometry         `json:"geom"`
	ReferenceID  uint                     `json:"reference_id"`
}

func (l location) input(kind topology.Kind) store.TopologyInput {
	in := store.TopologyInput{
		Kind:         kind,
		Offset:       l.Offset,
		Aggregations: l.Aggregations,
		ReferenceID:  l.ReferenceID,
	}
	if l.Geom != nil {
		in.Drawn = l.Geom.T
	}
	return in
}

type topologyRequest struct {
	Kind string `json:"kind" binding:"required"`
	location
}

// CreateTopology handles POST /topologies.
func CreateTopology(c *gin.Context) {
	var req topologyRequest
	if !bindJSON(c, "CreateTopology", &req) {
		return
	}
	t, err := network.CreateTopology(c.Request.Context(), middleware.StructureID(c), req.input(topology.Kind(req.Kind)))
	if err != nil {
		respondError(c, "CreateTopology", err)
		return
	}
	c.JSON(http.StatusCreated, t)
}

// GetTopology handles GET /topologies/:id.
func GetTopology(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	t, err := network.GetTopology(c.Request.Context(), middleware.StructureID(c), id)
	if err != nil {
		respondError(c, "GetTopology", err)
		return
	}
	c.JSON(http.StatusOK, t)
}

// DeleteTopology handles DELETE /topologies/:id. The topology is only
// flagged as deleted.
func DeleteTopology(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := network.DeleteTopology(c.Request.Context(), middleware.StructureID(c), id); err != nil {
		respondError(c, "DeleteTopology", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Topology deleted"})
}
