package controllers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geotrek_core/internal/geometry"
	"geotrek_core/internal/middleware"
	"geotrek_core/internal/models"
	"geotrek_core/internal/store"
)

// pathRequest is the body of path creation and update. Absent fields are
// left untouched on update.
type pathRequest struct {
	Geom         *models.Geometry `json:"geom"`
	GeomCadastre *models.Geometry `json:"geom_cadastre"`
	Name         *string          `json:"name"`
	Comments     *string          `json:"comments"`
	Valid        *bool            `json:"valid"`

	TrailID      *uint `json:"trail_id"`
	NetworkID    *uint `json:"network_id"`
	UsageID      *uint `json:"usage_id"`
	ComfortID    *uint `json:"comfort_id"`
	StakeID      *uint `json:"stake_id"`
	DatasourceID *uint `json:"datasource_id"`
}

func (r pathRequest) input() (store.PathInput, error) {
	in := store.PathInput{
		Name:         r.Name,
		Comments:     r.Comments,
		Valid:        r.Valid,
		TrailID:      r.TrailID,
		NetworkID:    r.NetworkID,
		UsageID:      r.UsageID,
		ComfortID:    r.ComfortID,
		StakeID:      r.StakeID,
		DatasourceID: r.DatasourceID,
	}
	if r.Geom != nil && r.Geom.T != nil {
		ls := r.Geom.LineString()
		if ls == nil {
			return in, fmt.Errorf("%w: path geometry must be a LineString, got %T", geometry.ErrInvalidGeometry, r.Geom.T)
		}
		in.Geom = ls
	}
	if r.GeomCadastre != nil {
		in.GeomCadastre = r.GeomCadastre.T
	}
	return in, nil
}

// CreatePath handles POST /paths.
func CreatePath(c *gin.Context) {
	var req pathRequest
	if !bindJSON(c, "CreatePath", &req) {
		return
	}
	in, err := req.input()
	if err == nil && in.Geom == nil {
		err = fmt.Errorf("%w: geom is required", geometry.ErrInvalidGeometry)
	}
	if err != nil {
		respondError(c, "CreatePath", err)
		return
	}

	path, err := network.CreatePath(c.Request.Context(), middleware.StructureID(c), in)
	if err != nil {
		respondError(c, "CreatePath", err)
		return
	}
	c.JSON(http.StatusCreated, path)
}

// ListPaths handles GET /paths.
func ListPaths(c *gin.Context) {
	paths, err := network.ListPaths(c.Request.Context(), middleware.StructureID(c))
	if err != nil {
		respondError(c, "ListPaths", err)
		return
	}
	c.JSON(http.StatusOK, paths)
}

// GetPath handles GET /paths/:id.
func GetPath(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	path, err := network.GetPath(c.Request.Context(), middleware.StructureID(c), id)
	if err != nil {
		respondError(c, "GetPath", err)
		return
	}
	c.JSON(http.StatusOK, path)
}

// UpdatePath handles PUT /paths/:id. Dependent topologies are recomputed
// before the response is sent.
func UpdatePath(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req pathRequest
	if !bindJSON(c, "UpdatePath", &req) {
		return
	}
	in, err := req.input()
	if err != nil {
		respondError(c, "UpdatePath", err)
		return
	}

	path, affected, err := network.UpdatePath(c.Request.Context(), middleware.StructureID(c), id, in)
	if err != nil {
		respondError(c, "UpdatePath", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "topologies": affected})
}

// DeletePath handles DELETE /paths/:id.
func DeletePath(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	affected, err := network.DeletePath(c.Request.Context(), middleware.StructureID(c), id)
	if err != nil {
		respondError(c, "DeletePath", err)
		return
	}
	logrus.WithField("path_id", id).Debug("path removed through API")
	c.JSON(http.StatusOK, gin.H{"message": "Path deleted", "topologies": affected})
}

type splitRequest struct {
	Fraction float64 `json:"fraction" binding:"required"`
}

// SplitPath handles POST /paths/:id/split.
func SplitPath(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req splitRequest
	if !bindJSON(c, "SplitPath", &req) {
		return
	}
	res, err := network.SplitPath(c.Request.Context(), middleware.StructureID(c), id, req.Fraction)
	if err != nil {
		respondError(c, "SplitPath", err)
		return
	}
	c.JSON(http.StatusOK, res)
}

type mergeRequest struct {
	First  uint `json:"first" binding:"required"`
	Second uint `json:"second" binding:"required"`
}

// MergePaths handles POST /paths/merge.
func MergePaths(c *gin.Context) {
	var req mergeRequest
	if !bindJSON(c, "MergePaths", &req) {
		return
	}
	path, affected, err := network.MergePaths(c.Request.Context(), middleware.StructureID(c), req.First, req.Second)
	if err != nil {
		respondError(c, "MergePaths", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": path, "topologies": affected})
}

type locateRequest struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// LocatePoint handles POST /paths/locate.
func LocatePoint(c *gin.Context) {
	var req locateRequest
	if !bindJSON(c, "LocatePoint", &req) {
		return
	}
	loc, err := network.LocatePoint(c.Request.Context(), middleware.StructureID(c), req.X, req.Y)
	if err != nil {
		respondError(c, "LocatePoint", err)
		return
	}
	c.JSON(http.StatusOK, loc)
}
