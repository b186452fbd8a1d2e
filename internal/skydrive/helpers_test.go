package skydrive

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeCall records one transport call.
type fakeCall struct {
	Method      string
	Path        string
	Body        string
	ContentType string
}

// fakeTransport serves canned JSON per path and records every call.
type fakeTransport struct {
	items    map[string]Item   // GET <id>
	lists    map[string][]Item // GET <id>/files
	content  map[string]string // GET <id>/content
	replies  map[string]Item   // PUT/POST replies by path
	failures map[string]error  // any method by path
	calls    []fakeCall
}

func newFakeTransport() *fakeTransport {
	return &fakeTransport{
		items:    map[string]Item{},
		lists:    map[string][]Item{},
		content:  map[string]string{},
		replies:  map[string]Item{},
		failures: map[string]error{},
	}
}

func (f *fakeTransport) record(method, path, body, contentType string) error {
	f.calls = append(f.calls, fakeCall{Method: method, Path: path, Body: body, ContentType: contentType})

	return f.failures[path]
}

func (f *fakeTransport) count(method, path string) int {
	n := 0

	for _, c := range f.calls {
		if c.Method == method && c.Path == path {
			n++
		}
	}

	return n
}

func (f *fakeTransport) GetString(ctx context.Context, path string) (string, error) {
	if err := f.record("GET", path, "", ""); err != nil {
		return "", err
	}

	text, ok := f.content[path]
	if !ok {
		return "", fmt.Errorf("fake: no content for %s", path)
	}

	return text, nil
}

func (f *fakeTransport) GetBytes(ctx context.Context, path string) ([]byte, error) {
	text, err := f.GetString(ctx, path)

	return []byte(text), err
}

func (f *fakeTransport) GetJSON(_ context.Context, path string, out any) error {
	if err := f.record("GET", path, "", ""); err != nil {
		return err
	}

	var v any

	if item, ok := f.items[path]; ok {
		v = item
	} else if id, found := cutFilesSuffix(path); found {
		v = itemList{Data: f.lists[id]}
	} else {
		return fmt.Errorf("fake: no resource %s", path)
	}

	return remarshal(v, out)
}

func (f *fakeTransport) PutString(_ context.Context, path, body, contentType, method string, out any) error {
	if method == "" {
		method = "PUT"
	}

	if err := f.record(method, path, body, contentType); err != nil {
		return err
	}

	return f.reply(path, out)
}

func (f *fakeTransport) PutJSON(ctx context.Context, path string, in, out any, method string) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	return f.PutString(ctx, path, string(data), "application/json", method, out)
}

func (f *fakeTransport) PutBytes(_ context.Context, path string, data []byte, contentType string, out any) error {
	if err := f.record("PUT", path, string(data), contentType); err != nil {
		return err
	}

	return f.reply(path, out)
}

func (f *fakeTransport) reply(path string, out any) error {
	if out == nil {
		return nil
	}

	item, ok := f.replies[path]
	if !ok {
		return fmt.Errorf("fake: no reply for %s", path)
	}

	return remarshal(item, out)
}

func cutFilesSuffix(path string) (string, bool) {
	const suffix = "/files"
	if len(path) > len(suffix) && path[len(path)-len(suffix):] == suffix {
		return path[:len(path)-len(suffix)], true
	}

	return "", false
}

func remarshal(in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, out)
}

// sampleTree builds:
//
//	/Documents/notes.txt
//	/Documents/Archive/
//	/Pictures (album)
//	/dup, /dup
//	/readme.md
func sampleTree() *fakeTransport {
	tr := newFakeTransport()

	root := Item{ID: "folder.root", Type: KindFolder, Name: "SkyDrive", Count: 5}
	docs := Item{ID: "folder.docs", Type: KindFolder, Name: "Documents", ParentID: root.ID, Count: 2}
	pics := Item{ID: "folder.pics", Type: KindAlbum, Name: "Pictures", ParentID: root.ID}
	notes := Item{
		ID: "file.notes", Type: KindFile, Name: "notes.txt", ParentID: docs.ID, Size: 12,
		CreatedTime: "2011-06-01T12:00:00+0000", UpdatedTime: "2011-06-02T08:30:00+0000",
	}
	archive := Item{ID: "folder.archive", Type: KindFolder, Name: "Archive", ParentID: docs.ID}

	tr.items["me/skydrive"] = root
	tr.items[root.ID] = root
	tr.items[docs.ID] = docs
	tr.items[notes.ID] = notes

	tr.lists[root.ID] = []Item{
		docs,
		pics,
		{ID: "file.dup1", Type: KindFile, Name: "dup", ParentID: root.ID},
		{ID: "file.dup2", Type: KindFile, Name: "dup", ParentID: root.ID},
		{ID: "file.readme", Type: KindFile, Name: "readme.md", ParentID: root.ID, Size: 3},
	}
	tr.lists[docs.ID] = []Item{notes, archive}
	tr.content[notes.ID+"/content"] = "one\r\ntwo\r\nthree"

	return tr
}

func openSample(t *testing.T) (*Drive, *fakeTransport) {
	t.Helper()

	tr := sampleTree()

	d, err := Open(t.Context(), tr, nil)
	require.NoError(t, err)

	return d, tr
}
