package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	gormlogger "gorm.io/gorm/logger"
)

func TestSetupWritesToFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "app.log")
	require.NoError(t, Setup(file, "debug"))
	t.Cleanup(func() { logrus.SetOutput(os.Stderr) })

	logrus.WithField("path_id", 42).Info("path created")

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.Contains(t, string(data), "path created")
	assert.Contains(t, string(data), "path_id=42")
	assert.Equal(t, logrus.DebugLevel, logrus.GetLevel())
}

func TestSetupRejectsUnknownLevel(t *testing.T) {
	assert.Error(t, Setup("", "chatty"))
}

func TestGormLoggerFollowsLevel(t *testing.T) {
	require.NoError(t, Setup("", "warn"))
	assert.Implements(t, (*gormlogger.Interface)(nil), Gorm())
}
