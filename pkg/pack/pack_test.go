package pack

import (
	"archive/tar"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/rotisserie/eris"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"
)

const sampleDoc = "<!doctype html><html><body><script>let x = 1;</script></body></html>"

func writeSample(t *testing.T, dir string) string {
	t.Helper()

	path := filepath.Join(dir, "index.html")
	require.NoError(t, os.WriteFile(path, []byte(sampleDoc), 0o644))
	return path
}

func TestWriteZipFile(t *testing.T) {
	dir := t.TempDir()
	htmlPath := writeSample(t, dir)
	zipPath := filepath.Join(dir, "game.zip")

	err := WriteZipFile(zipPath, EntryName, htmlPath, Options{Comment: "build abc"})
	require.NoError(t, err)

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	entry := zr.File[0]
	assert.Equal(t, "index.html", entry.Name)
	assert.Equal(t, zip.Deflate, entry.Method)
	assert.Equal(t, "build abc", zr.Comment)

	rc, err := entry.Open()
	require.NoError(t, err)
	defer rc.Close()

	extracted, err := io.ReadAll(rc)
	require.NoError(t, err)

	original, err := os.ReadFile(htmlPath)
	require.NoError(t, err)
	assert.Equal(t, original, extracted)
}

func TestWriteZipOverwrites(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "game.zip")

	require.NoError(t, WriteZip(zipPath, EntryName, strings.NewReader("first version, quite a bit longer"), Options{}))
	require.NoError(t, WriteZip(zipPath, EntryName, strings.NewReader("second"), Options{}))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	require.Len(t, zr.File, 1)
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()

	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "second", string(data))
}

func TestWriteZipModified(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "game.zip")
	stamp := time.Date(2024, 9, 13, 12, 0, 0, 0, time.UTC)

	require.NoError(t, WriteZip(zipPath, EntryName, strings.NewReader("x"), Options{Modified: stamp}))

	zr, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer zr.Close()

	assert.True(t, zr.File[0].Modified.Equal(stamp), "got %v", zr.File[0].Modified)
}

func TestWriteZipMissingDir(t *testing.T) {
	err := WriteZip(filepath.Join(t.TempDir(), "missing", "game.zip"), EntryName, strings.NewReader("x"), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, os.ErrNotExist))
}

func TestWriteZipFileMissingSource(t *testing.T) {
	dir := t.TempDir()
	err := WriteZipFile(filepath.Join(dir, "game.zip"), EntryName, filepath.Join(dir, "nope.html"), Options{})
	require.Error(t, err)
	assert.True(t, eris.Is(err, os.ErrNotExist))
}

func TestWriteKar(t *testing.T) {
	dir := t.TempDir()
	karPath := filepath.Join(dir, "game.kar")

	require.NoError(t, WriteKar(karPath, EntryName, strings.NewReader(sampleDoc), Options{}))

	hdl, err := os.Open(karPath)
	require.NoError(t, err)
	defer hdl.Close()

	entries, err := ReadKarIndex(hdl)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "index.html", entries[0].Path)
	assert.Equal(t, uint32(len(sampleDoc)), entries[0].DecSize)

	data, err := io.ReadAll(OpenKarEntry(hdl, entries[0]))
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(data))
}

func TestKarWriterDirectories(t *testing.T) {
	dir := t.TempDir()
	karPath := filepath.Join(dir, "assets.kar")

	writer, err := NewKarWriter(karPath, 5)
	require.NoError(t, err)

	require.NoError(t, writer.WriteFile("root.txt", strings.NewReader("root")))
	writer.OpenDirectory("levels")
	require.NoError(t, writer.WriteFile("one.json", strings.NewReader(`{"cheese":10}`)))
	writer.OpenDirectory("extra")
	require.NoError(t, writer.WriteFile("two.json", strings.NewReader(`{}`)))
	require.NoError(t, writer.CloseDirectory())
	require.NoError(t, writer.CloseDirectory())
	require.Error(t, writer.CloseDirectory())
	require.NoError(t, writer.Close())

	hdl, err := os.Open(karPath)
	require.NoError(t, err)
	defer hdl.Close()

	entries, err := ReadKarIndex(hdl)
	require.NoError(t, err)

	contents := map[string]string{}
	for _, entry := range entries {
		data, err := io.ReadAll(OpenKarEntry(hdl, entry))
		require.NoError(t, err)
		contents[entry.Path] = string(data)
	}

	assert.Equal(t, map[string]string{
		"root.txt":              "root",
		"levels/one.json":       `{"cheese":10}`,
		"levels/extra/two.json": `{}`,
	}, contents)
}

func TestKarWriterOpenDirectoryOnClose(t *testing.T) {
	writer, err := NewKarWriter(filepath.Join(t.TempDir(), "broken.kar"), 1)
	require.NoError(t, err)

	writer.OpenDirectory("dangling")
	require.Error(t, writer.Close())
}

func TestReadKarIndexInvalid(t *testing.T) {
	_, err := ReadKarIndex(bytes.NewReader([]byte("PK\x03\x04 not a kar file")))
	require.Error(t, err)
}

func TestWriteTarXz(t *testing.T) {
	dir := t.TempDir()
	txzPath := filepath.Join(dir, "game.tar.xz")

	require.NoError(t, WriteTarXz(txzPath, EntryName, strings.NewReader(sampleDoc), Options{}))

	hdl, err := os.Open(txzPath)
	require.NoError(t, err)
	defer hdl.Close()

	xzr, err := xz.NewReader(hdl)
	require.NoError(t, err)

	tr := tar.NewReader(xzr)
	header, err := tr.Next()
	require.NoError(t, err)
	assert.Equal(t, "index.html", header.Name)

	data, err := io.ReadAll(tr)
	require.NoError(t, err)
	assert.Equal(t, sampleDoc, string(data))

	_, err = tr.Next()
	assert.Equal(t, io.EOF, err)
}

func TestLookupFormat(t *testing.T) {
	for _, name := range []string{"zip", "KAR", " txz "} {
		f, err := LookupFormat(name)
		require.NoError(t, err, name)
		assert.NotNil(t, f.Write)
	}

	_, err := LookupFormat("rar")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rar")
}

func TestFormatWriteFileProgress(t *testing.T) {
	dir := t.TempDir()
	htmlPath := writeSample(t, dir)

	f, err := LookupFormat("zip")
	require.NoError(t, err)

	var seen bytes.Buffer
	require.NoError(t, f.WriteFile(filepath.Join(dir, "game.zip"), EntryName, htmlPath, Options{Progress: &seen}))
	assert.Equal(t, sampleDoc, seen.String())
}
