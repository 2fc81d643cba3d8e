package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	root := t.TempDir()

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, root, cfg.Root)
	assert.Equal(t, filepath.Join(root, "src", "index.html"), cfg.Resolve(cfg.Src.HTML))
	assert.Equal(t, filepath.Join(root, "src", "main.js"), cfg.Resolve(cfg.Src.Script))
	assert.Equal(t, filepath.Join(root, "dist", "index.html"), cfg.Resolve(cfg.Out.HTML))
	assert.Equal(t, filepath.Join(root, "dist", "game.zip"), cfg.ArchivePath(".zip"))
	assert.Equal(t, []string{"zip"}, cfg.Formats)
	assert.Equal(t, "naive", cfg.Engine)
	assert.Empty(t, cfg.Hooks.PostBuild)
}

func TestLoadFile(t *testing.T) {
	root := t.TempDir()
	content := `
title: Nine Lives (dev)
engine: esbuild
out:
  dir: build
  html: build/play.html
  archive: build/release.zip
formats: [zip, kar]
hooks:
  post_build:
    - echo done
`
	require.NoError(t, os.WriteFile(filepath.Join(root, FileName), []byte(content), 0o644))

	cfg, err := Load(root, "")
	require.NoError(t, err)

	assert.Equal(t, "Nine Lives (dev)", cfg.Title)
	assert.Equal(t, "esbuild", cfg.Engine)
	assert.Equal(t, filepath.Join(root, "build", "play.html"), cfg.Resolve(cfg.Out.HTML))
	assert.Equal(t, filepath.Join(root, "build", "release.kar"), cfg.ArchivePath(".kar"))
	assert.Equal(t, filepath.Join(root, "build", "release.tar.xz"), cfg.ArchivePath(".tar.xz"))
	assert.Equal(t, []string{"zip", "kar"}, cfg.Formats)
	assert.Equal(t, []string{"echo done"}, cfg.Hooks.PostBuild)

	// untouched values keep their defaults
	assert.Equal(t, filepath.Join("src", "main.js"), cfg.Src.Script)
}

func TestLoadExplicitMissing(t *testing.T) {
	root := t.TempDir()

	_, err := Load(root, filepath.Join(root, "other.yml"))
	require.Error(t, err)
}

func TestDecode(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr string
	}{
		{
			name:  "empty document",
			input: "",
		},
		{
			name:    "unknown key",
			input:   "minify: true\n",
			wantErr: "minify",
		},
		{
			name:    "cleared required value",
			input:   "src:\n  script: \"\"\n  html: src/index.html\n",
			wantErr: "src.script must not be empty",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default(".")
			err := Decode(strings.NewReader(tc.input), cfg)
			if tc.wantErr == "" {
				require.NoError(t, err)
				return
			}

			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestResolveAbsolute(t *testing.T) {
	cfg := Default("/project")
	abs := filepath.Join(t.TempDir(), "x.js")

	assert.Equal(t, abs, cfg.Resolve(abs))
}
