package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type structureRequest struct {
	Name string `json:"name" binding:"required"`
}

// CreateStructure handles POST /structures.
func CreateStructure(c *gin.Context) {
	var req structureRequest
	if !bindJSON(c, "CreateStructure", &req) {
		return
	}
	s, err := network.CreateStructure(c.Request.Context(), req.Name)
	if err != nil {
		respondError(c, "CreateStructure", err)
		return
	}
	c.JSON(http.StatusCreated, s)
}

// ListStructures handles GET /structures.
func ListStructures(c *gin.Context) {
	rows, err := network.ListStructures(c.Request.Context())
	if err != nil {
		respondError(c, "ListStructures", err)
		return
	}
	c.JSON(http.StatusOK, rows)
}
