package logger

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	t.Cleanup(viper.Reset)

	viper.Set("LOG_LEVEL", "debug")
	log, err := New()
	require.NoError(t, err)
	assert.True(t, log.Core().Enabled(zapcore.DebugLevel))

	viper.Set("LOG_LEVEL", "warn")
	log, err = New()
	require.NoError(t, err)
	assert.False(t, log.Core().Enabled(zapcore.InfoLevel))

	viper.Set("LOG_LEVEL", "loud")
	_, err = New()
	assert.Error(t, err)
}
