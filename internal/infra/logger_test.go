package infra

import (
	"bytes"
	"strings"
	"testing"
)

func TestNewLoggerToLevels(t *testing.T) {
	tests := []struct {
		name      string
		appEnv    string
		level     string
		wantDebug bool
	}{
		{name: "production defaults to info", appEnv: "production"},
		{name: "level override", appEnv: "production", level: "debug", wantDebug: true},
		{name: "invalid level ignored", appEnv: "production", level: "loud"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer
			logger := NewLoggerTo(&buf, tc.appEnv, tc.level)
			logger.Debug().Msg("debug line")
			logger.Info().Msg("info line")
			out := buf.String()
			if got := strings.Contains(out, "debug line"); got != tc.wantDebug {
				t.Fatalf("debug logged = %v, want %v (output %q)", got, tc.wantDebug, out)
			}
			if !strings.Contains(out, `"service":"scriptstudio"`) {
				t.Fatalf("missing service field in %q", out)
			}
		})
	}
}
