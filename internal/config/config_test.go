package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoadMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadTOML(t *testing.T) {
	path := write(t, "config.toml", `
indent = 4
east_asian_width = true
headings = ['^\*\*\* .* \*\*\*$']
log_file = "/tmp/prr.log"
`)
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Config{
		Indent:         4,
		TitleGap:       1,
		EastAsianWidth: true,
		Headings:       []string{`^\*\*\* .* \*\*\*$`},
		LogFile:        "/tmp/prr.log",
	}, cfg)
}

func TestLoadYAML(t *testing.T) {
	for _, name := range []string{"config.yaml", "config.YML"} {
		t.Run(name, func(t *testing.T) {
			path := write(t, name, "title_gap: 3\nheadings:\n  - '^Act [0-9]+$'\n")
			cfg, err := Load(path)
			require.NoError(t, err)
			assert.Equal(t, 2, cfg.Indent)
			assert.Equal(t, 3, cfg.TitleGap)
			assert.Equal(t, []string{"^Act [0-9]+$"}, cfg.Headings)
		})
	}
}

func TestLoadEmptyYAML(t *testing.T) {
	cfg, err := Load(write(t, "config.yaml", ""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unknown toml key", "config.toml", "wpm = 300\n"},
		{"bad toml", "config.toml", "indent = \n"},
		{"unknown yaml key", "config.yaml", "wpm: 300\n"},
		{"bad yaml", "config.yaml", "indent: [\n"},
		{"negative indent", "config.toml", "indent = -1\n"},
		{"negative title gap", "config.yaml", "title_gap: -2\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(write(t, tt.file, tt.content))
			assert.Error(t, err)
		})
	}
}

func TestDefaultPath(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", dir)
	assert.Equal(t, filepath.Join(dir, "prr", "config.toml"), DefaultPath())
}
