package main

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    command
		wantErr string
	}{
		{name: "no args", args: nil, wantErr: "usage"},
		{name: "unknown", args: []string{"drop"}, wantErr: "usage"},
		{name: "up", args: []string{"up"}, want: command{name: "up"}},
		{name: "version", args: []string{"version"}, want: command{name: "version"}},
		{name: "down default", args: []string{"down"}, want: command{name: "down", arg: 1}},
		{name: "down steps", args: []string{"down", "3"}, want: command{name: "down", arg: 3}},
		{name: "down zero", args: []string{"down", "0"}, wantErr: `invalid steps argument "0"`},
		{name: "down text", args: []string{"down", "all"}, wantErr: `invalid steps argument "all"`},
		{name: "force", args: []string{"force", "1"}, want: command{name: "force", arg: 1}},
		{name: "force missing", args: []string{"force"}, wantErr: "version argument required"},
		{name: "force text", args: []string{"force", "x"}, wantErr: `invalid version "x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRun_RejectsSQLite(t *testing.T) {
	t.Setenv("CONFIG_PATH", t.TempDir())
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "sqlite")

	err := run(command{name: "up"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only target postgres")
}
