package skydrive

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"
)

const (
	// lineSeparator joins and splits text content by line.
	lineSeparator = "\r\n"

	contentTypeText   = "text/plain; charset=utf-8"
	contentTypeBinary = "application/octet-stream"
	downloadPerms     = 0o644
)

// Node is a folder or file in the tree. Use a type switch on *Folder and
// *File for kind-specific operations.
type Node interface {
	ID() string
	Name() string
	Description() string
	Kind() Kind
	Parent() *Folder
	FullName() string
	Extension() string
	Created() time.Time
	Modified() time.Time
	Item() Item

	SetName(ctx context.Context, name string) error
	SetDescription(ctx context.Context, description string) error
	Refresh(ctx context.Context) error
}

// node holds what folders and files share. parent is a non-owning back
// reference; the root has none.
type node struct {
	drive  *Drive
	parent *Folder
	item   Item
}

// newNode wraps item as a *Folder or *File under parent.
func newNode(d *Drive, parent *Folder, item Item) Node {
	if item.Type.IsContainer() {
		return newFolder(d, parent, item)
	}

	return &File{node: node{drive: d, parent: parent, item: item}}
}

func newFolder(d *Drive, parent *Folder, item Item) *Folder {
	return &Folder{node: node{drive: d, parent: parent, item: item}}
}

func (n *node) ID() string          { return n.item.ID }
func (n *node) Name() string        { return n.item.Name }
func (n *node) Description() string { return n.item.Description }
func (n *node) Kind() Kind          { return n.item.Type }
func (n *node) Parent() *Folder     { return n.parent }
func (n *node) Item() Item          { return n.item }

func (n *node) String() string {
	return n.item.Name
}

// FullName is the rooted path of the node. The root's is empty.
func (n *node) FullName() string {
	if n.parent == nil {
		return ""
	}

	return n.parent.FullName() + "/" + n.item.Name
}

// Extension is the name's suffix from the final dot, or empty.
func (n *node) Extension() string {
	return path.Ext(n.item.Name)
}

func (n *node) Created() time.Time {
	return parseTime(n.item.CreatedTime, "created_time", n.item.ID, n.drive.logger)
}

func (n *node) Modified() time.Time {
	return parseTime(n.item.UpdatedTime, "updated_time", n.item.ID, n.drive.logger)
}

// SetName renames the item remotely, then locally.
func (n *node) SetName(ctx context.Context, name string) error {
	return n.updateMetadata(ctx, itemUpdate{Name: name, Description: n.item.Description})
}

// SetDescription changes the item description remotely, then locally.
func (n *node) SetDescription(ctx context.Context, description string) error {
	return n.updateMetadata(ctx, itemUpdate{Name: n.item.Name, Description: description})
}

func (n *node) updateMetadata(ctx context.Context, upd itemUpdate) error {
	if err := n.drive.tr.PutJSON(ctx, n.item.ID, upd, nil, ""); err != nil {
		return fmt.Errorf("updating metadata of %q: %w", n.FullName(), err)
	}

	n.drive.logger.Info("updated item metadata",
		slog.String("item_id", n.item.ID),
		slog.String("name", upd.Name),
	)

	n.item.Name = upd.Name
	n.item.Description = upd.Description

	return nil
}

// Refresh re-fetches the item metadata.
func (n *node) Refresh(ctx context.Context) error {
	var item Item
	if err := n.drive.tr.GetJSON(ctx, n.item.ID, &item); err != nil {
		return fmt.Errorf("refreshing %q: %w", n.FullName(), err)
	}

	n.item = item

	return nil
}

// Folder is a folder or album. It caches its children after the first
// listing until Refresh.
type Folder struct {
	node
	children []Node
	cached   bool
}

// Count is the child count reported with the folder metadata.
func (f *Folder) Count() int {
	return f.item.Count
}

// Refresh re-fetches the folder metadata and drops the cached listing.
func (f *Folder) Refresh(ctx context.Context) error {
	if err := f.node.Refresh(ctx); err != nil {
		return err
	}

	f.children = nil
	f.cached = false

	return nil
}

// Children lists the folder, calling the service only when no listing is
// cached. The returned slice is the cache itself; do not modify it.
func (f *Folder) Children(ctx context.Context) ([]Node, error) {
	if f.cached {
		return f.children, nil
	}

	var list itemList
	if err := f.drive.tr.GetJSON(ctx, f.item.ID+"/files", &list); err != nil {
		return nil, fmt.Errorf("listing %q: %w", f.displayName(), err)
	}

	children := make([]Node, 0, len(list.Data))
	for _, item := range list.Data {
		children = append(children, newNode(f.drive, f, item))
	}

	f.drive.logger.Debug("listed folder",
		slog.String("item_id", f.item.ID),
		slog.Int("children", len(children)),
	)

	f.children = children
	f.cached = true

	return children, nil
}

// Folders returns the child folders.
func (f *Folder) Folders(ctx context.Context) ([]*Folder, error) {
	children, err := f.Children(ctx)
	if err != nil {
		return nil, err
	}

	var folders []*Folder

	for _, c := range children {
		if sub, ok := c.(*Folder); ok {
			folders = append(folders, sub)
		}
	}

	return folders, nil
}

// Files returns the child files.
func (f *Folder) Files(ctx context.Context) ([]*File, error) {
	children, err := f.Children(ctx)
	if err != nil {
		return nil, err
	}

	var files []*File

	for _, c := range children {
		if file, ok := c.(*File); ok {
			files = append(files, file)
		}
	}

	return files, nil
}

// CreateFolder creates a subfolder. The cached listing is left as is.
func (f *Folder) CreateFolder(ctx context.Context, name, description string) (*Folder, error) {
	var item Item
	if err := f.drive.tr.PutJSON(ctx, f.item.ID, folderCreate{Name: name, Description: description}, &item, "POST"); err != nil {
		return nil, fmt.Errorf("creating folder %q: %w", f.childName(name), err)
	}

	f.drive.logger.Info("created folder",
		slog.String("parent_id", f.item.ID),
		slog.String("item_id", item.ID),
	)

	return newFolder(f.drive, f, item), nil
}

// CreateFile uploads text content as a new file named name.
func (f *Folder) CreateFile(ctx context.Context, name, content string) (*File, error) {
	var item Item
	if err := f.drive.tr.PutString(ctx, f.filePath(name), content, contentTypeText, "", &item); err != nil {
		return nil, fmt.Errorf("creating file %q: %w", f.childName(name), err)
	}

	return f.finishCreate(ctx, item)
}

// CreateFileBytes uploads binary content as a new file named name.
func (f *Folder) CreateFileBytes(ctx context.Context, name string, content []byte) (*File, error) {
	var item Item
	if err := f.drive.tr.PutBytes(ctx, f.filePath(name), content, contentTypeBinary, &item); err != nil {
		return nil, fmt.Errorf("creating file %q: %w", f.childName(name), err)
	}

	return f.finishCreate(ctx, item)
}

// UploadFile creates a file from a local file, named after its base name.
func (f *Folder) UploadFile(ctx context.Context, localPath string) (*File, error) {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", localPath, err)
	}

	return f.CreateFileBytes(ctx, filepath.Base(localPath), data)
}

// finishCreate wraps the upload reply and re-fetches the full metadata,
// since the reply carries only part of it.
func (f *Folder) finishCreate(ctx context.Context, item Item) (*File, error) {
	file := &File{node: node{drive: f.drive, parent: f, item: item}}
	if err := file.Refresh(ctx); err != nil {
		return nil, err
	}

	f.drive.logger.Info("created file",
		slog.String("parent_id", f.item.ID),
		slog.String("item_id", file.item.ID),
		slog.Int64("size", file.item.Size),
	)

	return file, nil
}

func (f *Folder) filePath(name string) string {
	return f.item.ID + "/files/" + url.PathEscape(name)
}

func (f *Folder) childName(name string) string {
	return f.FullName() + "/" + name
}

// displayName is FullName, with "/" for the root.
func (f *Folder) displayName() string {
	if f.parent == nil {
		return "/"
	}

	return f.FullName()
}

// File is a file item. Content calls go to its content sub-resource.
type File struct {
	node
}

// Size is the file length in bytes.
func (f *File) Size() int64 {
	return f.item.Size
}

func (f *File) contentPath() string {
	return f.item.ID + "/content"
}

// ReadAllText downloads the content as text.
func (f *File) ReadAllText(ctx context.Context) (string, error) {
	text, err := f.drive.tr.GetString(ctx, f.contentPath())
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", f.FullName(), err)
	}

	return text, nil
}

// ReadAllBytes downloads the content.
func (f *File) ReadAllBytes(ctx context.Context) ([]byte, error) {
	data, err := f.drive.tr.GetBytes(ctx, f.contentPath())
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", f.FullName(), err)
	}

	return data, nil
}

// ReadAllLines downloads the content as CRLF-separated lines.
func (f *File) ReadAllLines(ctx context.Context) ([]string, error) {
	text, err := f.ReadAllText(ctx)
	if err != nil {
		return nil, err
	}

	return strings.Split(text, lineSeparator), nil
}

// WriteAllText replaces the content with text.
func (f *File) WriteAllText(ctx context.Context, text string) error {
	if err := f.drive.tr.PutString(ctx, f.contentPath(), text, contentTypeText, "", nil); err != nil {
		return fmt.Errorf("writing %q: %w", f.FullName(), err)
	}

	return nil
}

// WriteAllBytes replaces the content with data.
func (f *File) WriteAllBytes(ctx context.Context, data []byte) error {
	if err := f.drive.tr.PutBytes(ctx, f.contentPath(), data, contentTypeBinary, nil); err != nil {
		return fmt.Errorf("writing %q: %w", f.FullName(), err)
	}

	return nil
}

// WriteAllLines replaces the content with lines joined by CRLF.
func (f *File) WriteAllLines(ctx context.Context, lines []string) error {
	return f.WriteAllText(ctx, strings.Join(lines, lineSeparator))
}

// Upload replaces the content with a local file's.
func (f *File) Upload(ctx context.Context, localPath string) error {
	data, err := os.ReadFile(localPath)
	if err != nil {
		return fmt.Errorf("reading %s: %w", localPath, err)
	}

	return f.WriteAllBytes(ctx, data)
}

// Download writes the content to a local file.
func (f *File) Download(ctx context.Context, localPath string) error {
	data, err := f.ReadAllBytes(ctx)
	if err != nil {
		return err
	}

	if err := os.WriteFile(localPath, data, downloadPerms); err != nil {
		return fmt.Errorf("writing %s: %w", localPath, err)
	}

	return nil
}
