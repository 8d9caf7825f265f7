package gorm_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapter "github.com/senma231/checkprice-sub001/internal/logger/adapter/gorm"
)

func TestWriter_Printf(t *testing.T) {
	testCases := []struct {
		name      string
		format    string
		args      []any
		wantLevel string
	}{
		{name: "statement", format: "%s\n[%.3fms] [rows:%v] %s", args: []any{"org.go:12", 1.5, 3, "SELECT * FROM organizations"}, wantLevel: "debug"},
		{name: "slow", format: "%s %s\n[%.3fms] [rows:%v] %s", args: []any{"org.go:12", "SLOW SQL >= 500ms", 900.0, 3, "SELECT 1"}, wantLevel: "warn"},
		{name: "error", format: "%s %s\n[%.3fms] [rows:%v] %s", args: []any{"org.go:12", "Error 1146: no such table", 1.0, 0, "SELECT 1"}, wantLevel: "error"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var buf bytes.Buffer

			w := adapter.Writer{Logger: zerolog.New(&buf)}
			w.Printf(tc.format, tc.args...)

			var line map[string]any
			require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
			assert.Equal(t, tc.wantLevel, line["level"])
			assert.Equal(t, "gorm", line["component"])
		})
	}
}
