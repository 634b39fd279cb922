// Package pathcodec converts between the absolute document paths used as
// in-memory database keys and the relative paths written to disk.
//
// Relative encoding is anchored at the database file's parent directory, so
// the database can be relocated together with the documents it references
// without invalidating any key. Moving only one of the two breaks the
// mapping, which is the documented trade-off.
package pathcodec

import (
	"fmt"
	"path/filepath"
)

// Codec encodes and decodes document paths relative to a fixed anchor
// directory
type Codec struct {
	anchor string // absolute path of the database file's directory
}

// New creates a codec anchored at the parent directory of dbPath
func New(dbPath string) (*Codec, error) {
	abs, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database path %s: %w", dbPath, err)
	}
	return &Codec{anchor: filepath.Dir(abs)}, nil
}

// Anchor returns the absolute anchor directory
func (c *Codec) Anchor() string {
	return c.anchor
}

// ToRelative converts an absolute document path to its on-disk form,
// relative to the anchor. Paths that cannot be made relative (different
// volume on Windows, relative input) are returned cleaned but otherwise
// unchanged; a later ToAbsolute of such a value simply yields a path that
// may not exist, which is the caller's problem to surface.
func (c *Codec) ToRelative(abs string) string {
	rel, err := filepath.Rel(c.anchor, abs)
	if err != nil {
		return filepath.Clean(abs)
	}
	return rel
}

// ToAbsolute converts an on-disk relative path back to an absolute one.
// Already-absolute inputs are cleaned and passed through, which keeps
// databases written before relative encoding loadable.
func (c *Codec) ToAbsolute(rel string) string {
	if filepath.IsAbs(rel) {
		return filepath.Clean(rel)
	}
	return filepath.Join(c.anchor, rel)
}
