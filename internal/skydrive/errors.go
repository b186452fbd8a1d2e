// Package skydrive exposes a SkyDrive as a lazily populated tree of folders
// and files over the Live Connect typed transport. Paths are rooted and
// slash-separated; each folder caches its listing until it is refreshed.
package skydrive

import (
	"errors"
	"fmt"
)

// Path resolution errors. Use errors.Is(err, skydrive.ErrNotFound) to check.
var (
	ErrInvalidPath = errors.New("path must start at root")
	ErrNotFound    = errors.New("not found")
	ErrAmbiguous   = errors.New("name matches more than one item")
	ErrNotFolder   = errors.New("is a file, not a folder")
	ErrNotFile     = errors.New("is a folder, not a file")
)

// PathError records a failed path operation and the path that caused it.
type PathError struct {
	Op   string
	Path string
	Err  error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("skydrive: %s %q: %v", e.Op, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}
