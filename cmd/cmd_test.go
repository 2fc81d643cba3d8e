package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ngld/ninelives/pkg/pack"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})

	err := rootCmd.Execute()
	return out.String(), err
}

func writeProject(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "index.html"), []byte("<!doctype html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "main.js"), []byte("// hi\nstart();\n"), 0o644))
	return root
}

func TestRootBuildsWithoutArguments(t *testing.T) {
	root := writeProject(t)

	out, err := execute(t, "", "--root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Built: "+filepath.Join("dist", "index.html")+" (")
	assert.Contains(t, out, "Zipped: "+filepath.Join("dist", "game.zip")+" (")

	doc, err := os.ReadFile(filepath.Join(root, "dist", "index.html"))
	require.NoError(t, err)
	assert.Contains(t, string(doc), "<script>start();</script>")

	zr, err := zip.OpenReader(filepath.Join(root, "dist", "game.zip"))
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 1)
	assert.Equal(t, pack.EntryName, zr.File[0].Name)
}

func TestRootRejectsArguments(t *testing.T) {
	_, err := execute(t, "", "--root", t.TempDir(), "unexpected")
	require.Error(t, err)
}

func TestBuildMissingSources(t *testing.T) {
	_, err := execute(t, "", "build", "--root", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "index.html")
}

func TestMinifyCommand(t *testing.T) {
	out, err := execute(t, "/* a */\nlet b = 1; // c\n\nd();\n", "minify")
	require.NoError(t, err)
	assert.Equal(t, "let b = 1; d();\n", out)
}

func TestMinifyCommandFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "main.js")
	require.NoError(t, os.WriteFile(path, []byte("a();\n// b\nc();"), 0o644))

	out, err := execute(t, "", "minify", path)
	require.NoError(t, err)
	assert.Equal(t, "a(); c();\n", out)
}

func TestPackKarCommand(t *testing.T) {
	dir := t.TempDir()
	content := filepath.Join(dir, "content")
	require.NoError(t, os.MkdirAll(filepath.Join(content, "sfx"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(content, "index.html"), []byte("<html>"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(content, "sfx", "meow.txt"), []byte("meow"), 0o644))

	archive := filepath.Join(dir, "assets.kar")
	_, err := execute(t, "", "pack-kar", archive, content)
	require.NoError(t, err)

	hdl, err := os.Open(archive)
	require.NoError(t, err)
	defer hdl.Close()

	entries, err := pack.ReadKarIndex(hdl)
	require.NoError(t, err)

	paths := []string{}
	for _, entry := range entries {
		paths = append(paths, entry.Path)
	}
	assert.ElementsMatch(t, []string{"index.html", "sfx/meow.txt"}, paths)
}

func TestCleanCommand(t *testing.T) {
	root := writeProject(t)

	_, err := execute(t, "", "build", "--root", root)
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(root, "dist"))

	_, err = execute(t, "", "clean", "--root", root)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(root, "dist"))

	// cleaning twice is fine
	_, err = execute(t, "", "clean", "--root", root)
	require.NoError(t, err)
}

func TestConsoleWriter(t *testing.T) {
	var out bytes.Buffer
	writer := &ConsoleWriter{out: &out}
	logger := zerolog.New(writer)

	logger.Warn().Str("task", "post_build").Msg("careful")
	assert.Contains(t, out.String(), "post_build: careful")

	out.Reset()
	logger.Info().Bool("command", true).Msg("echo hi")
	assert.Contains(t, out.String(), "$ echo hi")

	out.Reset()
	logger.Error().Msg("broken")
	assert.Contains(t, out.String(), "Error: broken")

	_, err := writer.Write([]byte("not json"))
	require.Error(t, err)
}
