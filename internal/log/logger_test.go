package log

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerDefaultsToInfo(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("")
	require.NoError(t, err)
	assert.Equal(t, logrus.InfoLevel, logger.GetLevel())
}

func TestNewLoggerParsesLevelCaseInsensitively(t *testing.T) {
	t.Parallel()

	logger, err := NewLogger("DEBUG")
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	t.Parallel()

	_, err := NewLogger("chatty")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid log level")
}

func TestInitSentryWithoutDSNIsNoop(t *testing.T) {
	t.Parallel()

	hub, flush, err := InitSentry(Discard(), SentrySettings{})
	require.NoError(t, err)
	assert.Nil(t, hub)
	require.NotNil(t, flush)
	flush()
}
