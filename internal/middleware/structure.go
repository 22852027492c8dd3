package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// StructureHeader selects the structure a request works on.
const StructureHeader = "X-Structure-ID"

const structureKey = "structure_id"

// StructureScope reads the structure id from the X-Structure-ID header.
// Requests without the header are not scoped.
func StructureScope() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(StructureHeader)
		if raw == "" {
			raw = c.Query("structure_id")
		}
		if raw == "" {
			c.Set(structureKey, uint(0))
			c.Next()
			return
		}

		id, err := strconv.ParseUint(raw, 10, 32)
		if err != nil || id == 0 {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Invalid " + StructureHeader + " header"})
			return
		}
		c.Set(structureKey, uint(id))
		c.Next()
	}
}

// StructureID returns the structure selected for the request, zero when
// none was given.
func StructureID(c *gin.Context) uint {
	if v, ok := c.Get(structureKey); ok {
		if id, ok := v.(uint); ok {
			return id
		}
	}
	return 0
}
