package skydrive

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
)

// rootPath is the resource the drive root is loaded from.
const rootPath = "me/skydrive"

// Transport is the typed call surface the tree needs. *liveconnect.Client
// satisfies it.
type Transport interface {
	GetString(ctx context.Context, path string) (string, error)
	GetJSON(ctx context.Context, path string, out any) error
	GetBytes(ctx context.Context, path string) ([]byte, error)
	PutString(ctx context.Context, path, body, contentType, method string, out any) error
	PutJSON(ctx context.Context, path string, in, out any, method string) error
	PutBytes(ctx context.Context, path string, data []byte, contentType string, out any) error
}

// Drive is one user's storage tree. Nodes share the drive's transport, so
// a Drive is not meant for concurrent use.
type Drive struct {
	tr     Transport
	root   *Folder
	logger *slog.Logger
}

// Open loads the root folder and returns a drive over it. Child listings
// are fetched on first use.
func Open(ctx context.Context, tr Transport, logger *slog.Logger) (*Drive, error) {
	if logger == nil {
		logger = slog.Default()
	}

	d := &Drive{tr: tr, logger: logger}

	var item Item
	if err := tr.GetJSON(ctx, rootPath, &item); err != nil {
		return nil, fmt.Errorf("skydrive: loading root: %w", err)
	}

	d.root = newFolder(d, nil, item)

	logger.Debug("opened drive", slog.String("root_id", item.ID))

	return d, nil
}

// Root returns the root folder.
func (d *Drive) Root() *Folder {
	return d.root
}

// Resolve walks path from the root. Every segment but the last must name
// exactly one folder; the last must name exactly one item of either kind.
// "/" is the root and costs no call.
func (d *Drive) Resolve(ctx context.Context, path string) (Node, error) {
	segments, err := splitPath(path)
	if err != nil {
		return nil, &PathError{Op: "resolve", Path: path, Err: err}
	}

	parent := d.root

	for i, seg := range segments {
		last := i == len(segments)-1

		match, err := lookup(ctx, parent, seg, !last)
		if err != nil {
			return nil, err
		}

		if last {
			return match, nil
		}

		// lookup only matches folders for non-final segments.
		parent, _ = match.(*Folder)
	}

	return d.root, nil
}

// Folder resolves path and requires a folder.
func (d *Drive) Folder(ctx context.Context, path string) (*Folder, error) {
	n, err := d.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	f, ok := n.(*Folder)
	if !ok {
		return nil, &PathError{Op: "folder", Path: path, Err: ErrNotFolder}
	}

	return f, nil
}

// File resolves path and requires a file.
func (d *Drive) File(ctx context.Context, path string) (*File, error) {
	n, err := d.Resolve(ctx, path)
	if err != nil {
		return nil, err
	}

	f, ok := n.(*File)
	if !ok {
		return nil, &PathError{Op: "file", Path: path, Err: ErrNotFile}
	}

	return f, nil
}

// lookup finds the single child of parent named name. With foldersOnly,
// files are not candidates.
func lookup(ctx context.Context, parent *Folder, name string, foldersOnly bool) (Node, error) {
	children, err := parent.Children(ctx)
	if err != nil {
		return nil, err
	}

	var match Node

	matches := 0

	for _, c := range children {
		if c.Name() != name {
			continue
		}

		if _, isFolder := c.(*Folder); foldersOnly && !isFolder {
			continue
		}

		match = c
		matches++
	}

	target := parent.FullName() + "/" + name

	switch matches {
	case 0:
		return nil, &PathError{Op: "resolve", Path: target, Err: ErrNotFound}
	case 1:
		return match, nil
	default:
		return nil, &PathError{Op: "resolve", Path: target, Err: ErrAmbiguous}
	}
}

// splitPath validates a rooted path and returns its segments. A trailing
// separator is ignored; empty segments are not.
func splitPath(path string) ([]string, error) {
	if !strings.HasPrefix(path, "/") {
		return nil, ErrInvalidPath
	}

	trimmed := strings.TrimSuffix(path[1:], "/")
	if trimmed == "" {
		return nil, nil
	}

	segments := strings.Split(trimmed, "/")
	for _, s := range segments {
		if s == "" {
			return nil, fmt.Errorf("empty segment: %w", ErrInvalidPath)
		}
	}

	return segments, nil
}
