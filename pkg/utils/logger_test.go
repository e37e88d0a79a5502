package utils

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewSugaredLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "production", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := NewSugaredLogger(tt.verbose)
			require.NoError(t, err)
			require.NotNil(t, log)
			require.Equal(t, tt.wantDebug, log.Desugar().Core().Enabled(zapcore.DebugLevel))
			require.True(t, log.Desugar().Core().Enabled(zapcore.InfoLevel))
		})
	}
}
