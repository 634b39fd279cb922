package content

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// markdown extensions recognized during discovery
var docExtensions = map[string]bool{
	".md":  true,
	".mdx": true,
}

// DirSource implements Source backed by a directory tree of markdown files
type DirSource struct {
	root string // absolute path to the content directory
}

// NewDirSource creates a source rooted at the given directory. The
// directory must already exist.
func NewDirSource(root string) (*DirSource, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("content: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("content: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("content: root is not a directory: %s", abs)
	}
	return &DirSource{root: abs}, nil
}

// Root returns the absolute content directory
func (d *DirSource) Root() string {
	return d.root
}

// List walks the root and returns the absolute path of every markdown
// document, sorted for deterministic discovery order.
func (d *DirSource) List(ctx context.Context) ([]string, error) {
	var out []string
	err := filepath.WalkDir(d.root, func(p string, de fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if de.IsDir() {
			// Skip hidden directories (.git, .shakespeare, ...)
			if p != d.root && strings.HasPrefix(de.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if docExtensions[filepath.Ext(de.Name())] {
			out = append(out, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("content: list %s: %w", d.root, err)
	}
	sort.Strings(out)
	return out, nil
}

// Read returns the document's full text
func (d *DirSource) Read(ctx context.Context, path string) (string, error) {
	abs, err := d.containedPath(path)
	if err != nil {
		return "", err
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		return "", fmt.Errorf("content: read %s: %w", path, err)
	}
	return string(data), nil
}

// Write replaces the document's full text, preserving the original file
// mode where the file already exists
func (d *DirSource) Write(ctx context.Context, path string, text string) error {
	abs, err := d.containedPath(path)
	if err != nil {
		return err
	}
	mode := fs.FileMode(0644)
	if info, err := os.Stat(abs); err == nil {
		mode = info.Mode()
	}
	if err := os.WriteFile(abs, []byte(text), mode); err != nil {
		return fmt.Errorf("content: write %s: %w", path, err)
	}
	return nil
}

// containedPath resolves path to an absolute location and rejects anything
// outside the source root (directory traversal)
func (d *DirSource) containedPath(path string) (string, error) {
	abs := path
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(d.root, path)
	}
	abs = filepath.Clean(abs)
	if abs != d.root && !strings.HasPrefix(abs, d.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("content: path escapes content root: %s", path)
	}
	return abs, nil
}
