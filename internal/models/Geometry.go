package models

import (
	"database/sql/driver"
	"encoding/binary"
	"fmt"

	"github.com/twpayne/go-geom"
	gjson "github.com/twpayne/go-geom/encoding/geojson"
	"github.com/twpayne/go-geom/encoding/ewkbhex"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Geometry is a spatial column. It is stored as hex-encoded EWKB, which
// PostGIS reads and writes natively, and serialized as GeoJSON in the API.
type Geometry struct {
	geom.T
}

// NewGeometry wraps g.
func NewGeometry(g geom.T) Geometry { return Geometry{T: g} }

// Value implements driver.Valuer.
func (g Geometry) Value() (driver.Value, error) {
	if g.T == nil {
		return nil, nil
	}
	return ewkbhex.Encode(g.T, binary.LittleEndian)
}

// Scan implements sql.Scanner.
func (g *Geometry) Scan(src interface{}) error {
	var s string
	switch v := src.(type) {
	case nil:
		g.T = nil
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("models: cannot scan %T into Geometry", src)
	}
	if s == "" {
		g.T = nil
		return nil
	}
	t, err := ewkbhex.Decode(s)
	if err != nil {
		return fmt.Errorf("models: decode geometry: %w", err)
	}
	g.T = t
	return nil
}

// GormDataType implements schema.GormDataTypeInterface.
func (Geometry) GormDataType() string { return "geometry" }

// GormDBDataType uses the PostGIS type on postgres and plain text elsewhere.
func (Geometry) GormDBDataType(db *gorm.DB, _ *schema.Field) string {
	if db.Dialector.Name() == "postgres" {
		return "geometry"
	}
	return "text"
}

// MarshalJSON encodes the geometry as GeoJSON.
func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.T == nil {
		return []byte("null"), nil
	}
	return gjson.Marshal(g.T)
}

// UnmarshalJSON decodes a GeoJSON geometry.
func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		g.T = nil
		return nil
	}
	var t geom.T
	if err := gjson.Unmarshal(data, &t); err != nil {
		return err
	}
	g.T = t
	return nil
}

// LineString returns the geometry as a linestring, or nil.
func (g Geometry) LineString() *geom.LineString {
	ls, _ := g.T.(*geom.LineString)
	return ls
}
