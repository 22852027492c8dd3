// Package controllers holds the gin handlers of the HTTP API.
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"geotrek_core/internal/geometry"
	"geotrek_core/internal/models"
	"geotrek_core/internal/store"
	"geotrek_core/internal/topology"
)

var network *store.Store

// Setup hands the store to the handlers.
func Setup(s *store.Store) {
	network = s
}

// errorStatus maps domain errors to HTTP statuses.
func errorStatus(err error) int {
	var cascadeErr *topology.ConsistencyCascadeError
	switch {
	case errors.As(err, &cascadeErr):
		return http.StatusInternalServerError
	case errors.Is(err, topology.ErrPathNotFound),
		errors.Is(err, topology.ErrTopologyNotFound),
		errors.Is(err, store.ErrOverlayNotFound):
		return http.StatusNotFound
	case errors.Is(err, topology.ErrPathInUse),
		errors.Is(err, models.ErrPathReferenced):
		return http.StatusConflict
	case errors.Is(err, geometry.ErrInvalidGeometry),
		errors.Is(err, topology.ErrPathsNotConnected),
		errors.Is(err, topology.ErrInvalidSplit),
		errors.Is(err, topology.ErrInvalidPosition),
		errors.Is(err, topology.ErrDisconnectedWalk),
		errors.Is(err, topology.ErrEmptyTopology),
		errors.Is(err, topology.ErrInvalidKind),
		errors.Is(err, topology.ErrNoRoute),
		errors.Is(err, store.ErrKindShape):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// respondError logs err under the handler name and writes the matching
// status with the error message.
func respondError(c *gin.Context, handler string, err error) {
	status := errorStatus(err)
	entry := logrus.WithError(err).WithField("handler", handler)
	if status >= http.StatusInternalServerError {
		entry.Error("request failed")
	} else {
		entry.Warn("request rejected")
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func parseID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}

func bindJSON(c *gin.Context, handler string, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		logrus.WithError(err).Warnf("%s: invalid input payload", handler)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid input: " + err.Error()})
		return false
	}
	return true
}

// Health reports that the service and its database answer.
func Health(c *gin.Context) {
	sqlDB, err := network.DB().DB()
	if err == nil {
		err = sqlDB.PingContext(c.Request.Context())
	}
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "cascade_clients": cascadeHub.Clients()})
}
