package logging

import (
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel("debug", logrus.ErrorLevel))
	assert.Equal(t, logrus.PanicLevel, ParseLevel("silent", logrus.ErrorLevel))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("loud", logrus.InfoLevel))
}

func TestFileLogger_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "app.log")
	f, logger, err := FileLogger(logrus.InfoLevel, path)
	require.NoError(t, err)
	defer func() { _ = f.Close() }()

	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
	assert.FileExists(t, path)
}
