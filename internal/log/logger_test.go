package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLogger_Levels(t *testing.T) {
	prod, err := NewLogger("prod", false)
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zap.DebugLevel))
	assert.True(t, prod.Core().Enabled(zap.InfoLevel))

	dev, err := NewLogger("dev", false)
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zap.DebugLevel))

	quiet, err := NewSugar("dev", true)
	require.NoError(t, err)
	assert.False(t, quiet.Desugar().Core().Enabled(zap.InfoLevel))
	assert.True(t, quiet.Desugar().Core().Enabled(zap.WarnLevel))
}
