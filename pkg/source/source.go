// Package source defines the loader adapter contract.
//
// A Loader opens a data file and exposes its root object through the
// extract capability interfaces. Loaders own the file handle: callers
// must Close the returned File as soon as extraction finishes,
// regardless of success, so no handle outlives its extraction session.
package source

import (
	"context"

	"github.com/h-mayorquin/nwb-lens/pkg/extract"
)

// FileInfo is the file-level metadata reported by a loader.
type FileInfo struct {
	Path          string `json:"path"`
	FormatVersion string `json:"format_version"`
	FileSizeBytes int64  `json:"file_size_bytes"`
}

// File is an open data file. Root is only valid until Close.
type File interface {
	// Root returns the file's root container object.
	Root() extract.Object

	// Info returns file-level metadata.
	Info() FileInfo

	// Close releases the underlying handle. Safe to call more than once.
	Close() error
}

// Loader opens data files of one format.
type Loader interface {
	// Load opens the file at path. Failures are load errors: fatal to
	// the whole operation, no tree is produced.
	Load(ctx context.Context, path string) (File, error)
}
