package content

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, text string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(text), 0644))
}

func TestListFindsMarkdownRecursively(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "intro.md"), "# Intro")
	writeFile(t, filepath.Join(dir, "guides", "setup.mdx"), "# Setup")
	writeFile(t, filepath.Join(dir, "guides", "notes.txt"), "not a doc")
	writeFile(t, filepath.Join(dir, ".shakespeare", "hidden.md"), "skipped")

	src, err := NewDirSource(dir)
	require.NoError(t, err)

	got, err := src.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "guides", "setup.mdx"),
		filepath.Join(dir, "intro.md"),
	}, got)
}

func TestReadWriteRoundTrip(t *testing.T) {
	dir := t.TempDir()
	doc := filepath.Join(dir, "a.md")
	writeFile(t, doc, "original")

	src, err := NewDirSource(dir)
	require.NoError(t, err)

	ctx := context.Background()
	text, err := src.Read(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "original", text)

	require.NoError(t, src.Write(ctx, doc, "rewritten"))
	text, err = src.Read(ctx, doc)
	require.NoError(t, err)
	assert.Equal(t, "rewritten", text)
}

func TestWriteRejectsEscapingPaths(t *testing.T) {
	dir := t.TempDir()
	src, err := NewDirSource(dir)
	require.NoError(t, err)

	err = src.Write(context.Background(), filepath.Join(dir, "..", "outside.md"), "nope")
	assert.Error(t, err)
}

func TestNewDirSourceRequiresDirectory(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.md")
	writeFile(t, file, "x")

	_, err := NewDirSource(file)
	assert.Error(t, err)

	_, err = NewDirSource(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}
