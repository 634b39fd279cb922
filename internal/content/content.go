// Package content abstracts where tracked documents live. The workflow
// only needs to list, read, and write documents by identifier; the
// production implementation is a directory of markdown files.
package content

import "context"

// Source provides access to the document corpus. Identifiers are absolute
// file paths for the directory-backed implementation.
type Source interface {
	// List returns the identifiers of every document in the corpus
	List(ctx context.Context) ([]string, error)
	// Read returns the full text of one document
	Read(ctx context.Context, path string) (string, error)
	// Write replaces the full text of one document
	Write(ctx context.Context, path string, text string) error
}
