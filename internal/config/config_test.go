package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestLoadDefaults(t *testing.T) {
	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 2154, s.SRID)
	assert.Equal(t, 1.0, s.SnapDistance)
	assert.Equal(t, 16, s.MaxCascadeDepth)
	assert.Equal(t, "block", s.DeletePolicy)
	assert.Equal(t, "local", s.CascadeEvents)
	assert.Contains(t, s.DB.DSN(), "dbname=geotrek")
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("SRID", "32631")
	t.Setenv("PATH_SNAPPING_DISTANCE", "2.5")
	t.Setenv("CASCADE_MAX_DEPTH", "4")
	t.Setenv("PATH_DELETE_POLICY", "Cascade")
	t.Setenv("DB_NAME", "trails")

	s, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 32631, s.SRID)
	assert.Equal(t, 2.5, s.SnapDistance)
	assert.Equal(t, 4, s.MaxCascadeDepth)
	assert.Equal(t, "cascade", s.DeletePolicy)
	assert.Contains(t, s.DB.DSN(), "dbname=trails")
}

func TestLoadRejectsBadValues(t *testing.T) {
	t.Setenv("SRID", "lambert")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("SRID", "2154")
	t.Setenv("PATH_DELETE_POLICY", "ignore")
	_, err = Load()
	assert.ErrorContains(t, err, "PATH_DELETE_POLICY")
}

func TestValidateSRIDBuiltin(t *testing.T) {
	assert.NoError(t, ValidateSRID(nil, 2154))
	assert.NoError(t, ValidateSRID(nil, 32631))

	var sridErr *SRIDConfigurationError
	err := ValidateSRID(nil, 4326)
	require.True(t, errors.As(err, &sridErr))
	assert.Equal(t, 4326, sridErr.SRID)
	assert.Error(t, ValidateSRID(nil, 0))
	assert.Error(t, ValidateSRID(nil, 99999))
}

func TestValidateSRIDFromSpatialRefSys(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{Logger: gormlogger.Default.LogMode(gormlogger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, db.Exec("CREATE TABLE spatial_ref_sys (srid integer primary key, proj4text text)").Error)
	require.NoError(t, db.Exec("INSERT INTO spatial_ref_sys VALUES (2154, '+proj=lcc +lat_0=46.5 +units=m +no_defs'), (4326, '+proj=longlat +datum=WGS84 +no_defs'), (9999, '+proj=tmerc +units=us-ft')").Error)

	assert.NoError(t, ValidateSRID(db, 2154))
	assert.Error(t, ValidateSRID(db, 4326))
	assert.Error(t, ValidateSRID(db, 9999))
	assert.Error(t, ValidateSRID(db, 3857), "unknown to the table even though built in")
}
