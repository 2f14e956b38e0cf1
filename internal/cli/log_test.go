package cli

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		verbose   bool
		wantDebug bool
	}{
		{name: "quiet", verbose: false, wantDebug: false},
		{name: "verbose", verbose: true, wantDebug: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newLogger(&buf, tt.verbose)

			logger.Debug("resolved project colour", "project", "App")
			logger.Info("loaded project files", "count", 3)

			out := buf.String()
			assert.Contains(t, out, "loaded project files")
			assert.Contains(t, out, "count=3")
			assert.Equal(t, tt.wantDebug, bytes.Contains(buf.Bytes(), []byte("resolved project colour")))
		})
	}
}
