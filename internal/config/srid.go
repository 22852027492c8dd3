package config

import (
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// SRIDConfigurationError reports an SRID unusable for a metric network.
type SRIDConfigurationError struct {
	SRID   int
	Reason string
}

func (e *SRIDConfigurationError) Error() string {
	return fmt.Sprintf("SRID %d: %s", e.SRID, e.Reason)
}

// metricSRIDs lists projections known to use meters, for when the
// database cannot be asked.
var metricSRIDs = map[int]bool{
	2154: true, 3857: true, 27572: true, 2056: true, 31370: true,
	3035: true, 25830: true, 25831: true, 25832: true, 32198: true,
}

var degreeSRIDs = map[int]bool{4326: true, 4258: true, 4171: true}

// ValidateSRID checks that srid is a projected system in meters. The
// PostGIS spatial_ref_sys table is used when db can answer, the built-in
// table otherwise.
func ValidateSRID(db *gorm.DB, srid int) error {
	if srid <= 0 {
		return &SRIDConfigurationError{SRID: srid, Reason: "must be positive"}
	}

	if db != nil {
		var proj4 string
		err := db.Raw("SELECT proj4text FROM spatial_ref_sys WHERE srid = ?", srid).Scan(&proj4).Error
		switch {
		case err != nil:
			logrus.WithError(err).Warn("spatial_ref_sys unavailable, using built-in SRID table")
		case proj4 == "":
			return &SRIDConfigurationError{SRID: srid, Reason: "unknown to spatial_ref_sys"}
		default:
			return checkProj4(srid, proj4)
		}
	}

	switch {
	case metricSRIDs[srid], utmZone(srid):
		return nil
	case degreeSRIDs[srid]:
		return &SRIDConfigurationError{SRID: srid, Reason: "unit is degrees, meters required"}
	}
	return &SRIDConfigurationError{SRID: srid, Reason: "unit unknown, meters required"}
}

func checkProj4(srid int, proj4 string) error {
	if strings.Contains(proj4, "+proj=longlat") || strings.Contains(proj4, "+proj=latlong") {
		return &SRIDConfigurationError{SRID: srid, Reason: "geographic system, meters required"}
	}
	for _, f := range strings.Fields(proj4) {
		if f == "+units=m" {
			return nil
		}
	}
	return &SRIDConfigurationError{SRID: srid, Reason: "unit is not meters"}
}

// utmZone reports the WGS 84 UTM zones, north and south.
func utmZone(srid int) bool {
	return (srid >= 32601 && srid <= 32660) || (srid >= 32701 && srid <= 32760)
}
