package project

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name string, data []byte) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), data, 0o644))
}

func TestPath_ResolvesAgainstRoot(t *testing.T) {
	root := New("/tmp/proj")

	assert.Equal(t, filepath.Join("/tmp/proj", "config", "app.hcl"), root.Path("config", "app.hcl"))
	assert.Equal(t, "/tmp/proj", root.Dir())
}

func TestLoadValues_ReturnsTopLevelAttributes(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "values.hcl", []byte(`
name    = "backend"
port    = 4000
debug   = true
targets = ["node", "web"]
`))

	values, err := New(dir).LoadValues("values.hcl")

	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"name":    "backend",
		"port":    4000,
		"debug":   true,
		"targets": []any{"node", "web"},
	}, values)
}

func TestLoadValues_MissingFile_Fails(t *testing.T) {
	_, err := New(t.TempDir()).LoadValues("absent.hcl")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrModuleNotFound)
}

func TestLoadValues_MalformedFile_Fails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "broken.hcl", []byte(`name = = "x"`))

	_, err := New(dir).LoadValues("broken.hcl")

	assert.Error(t, err)
}

func TestReadFile_DefaultEncoding_IsUTF8(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "note.txt", []byte("héllo"))

	content, err := New(dir).ReadFile("note.txt", "")

	require.NoError(t, err)
	assert.Equal(t, "héllo", content)
}

func TestReadFile_Latin1_DecodesHighBytes(t *testing.T) {
	dir := t.TempDir()
	// 0xE9 is "é" in ISO 8859-1 and invalid as a standalone UTF-8 byte.
	writeFile(t, dir, "legacy.txt", []byte{'c', 'a', 'f', 0xE9})

	content, err := New(dir).ReadFile("legacy.txt", "latin1")

	require.NoError(t, err)
	assert.Equal(t, "café", content)
}

func TestReadFile_InvalidUTF8_Fails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "legacy.txt", []byte{'c', 'a', 'f', 0xE9})

	_, err := New(dir).ReadFile("legacy.txt", "utf-8")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestReadFile_UnknownEncoding_Fails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "note.txt", []byte("plain"))

	_, err := New(dir).ReadFile("note.txt", "not-an-encoding")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrDecode)
}

func TestReadFile_MissingFile_Fails(t *testing.T) {
	_, err := New(t.TempDir()).ReadFile("absent.txt", "")

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrFileNotFound)
}
