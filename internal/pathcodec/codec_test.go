package pathcodec

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoundTrip(t *testing.T) {
	dir := t.TempDir()
	codec, err := New(filepath.Join(dir, "content-db.json"))
	require.NoError(t, err)

	paths := []string{
		filepath.Join(dir, "docs", "intro.md"),
		filepath.Join(dir, "a.md"),
		filepath.Join(dir, "deeply", "nested", "tree", "page.mdx"),
		// Reachable only via .. traversal from the anchor
		filepath.Join(filepath.Dir(dir), "sibling", "doc.md"),
	}

	for _, p := range paths {
		rel := codec.ToRelative(p)
		assert.False(t, filepath.IsAbs(rel), "ToRelative(%s) returned absolute %s", p, rel)
		assert.Equal(t, filepath.Clean(p), codec.ToAbsolute(rel), "round trip for %s", p)
	}
}

func TestToAbsolutePassesThroughAbsolute(t *testing.T) {
	dir := t.TempDir()
	codec, err := New(filepath.Join(dir, "db.json"))
	require.NoError(t, err)

	abs := filepath.Join(dir, "doc.md")
	assert.Equal(t, abs, codec.ToAbsolute(abs))
}

func TestAnchorIsDatabaseDirectory(t *testing.T) {
	dir := t.TempDir()
	codec, err := New(filepath.Join(dir, ".shakespeare", "db.json"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, ".shakespeare"), codec.Anchor())
}

func TestRelativeEncodingIsStable(t *testing.T) {
	dir := t.TempDir()
	codec, err := New(filepath.Join(dir, "db.json"))
	require.NoError(t, err)

	p := filepath.Join(dir, "docs", "guide.md")
	assert.Equal(t, filepath.Join("docs", "guide.md"), codec.ToRelative(p))
}
