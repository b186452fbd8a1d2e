package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/tonimelisma/skydrive-go/internal/liveconnect"
	"github.com/tonimelisma/skydrive-go/internal/skydrive"
)

// fakeItem is the service-side record of one item.
type fakeItem struct {
	ID          string `json:"id"`
	Type        string `json:"type"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	ParentID    string `json:"parent_id,omitempty"`
	Count       int    `json:"count"`
	Size        int64  `json:"size"`
	UpdatedTime string `json:"updated_time,omitempty"`
}

// fakeSkyDrive is an in-memory SkyDrive behind the Live Connect REST shape.
type fakeSkyDrive struct {
	mu       sync.Mutex
	items    map[string]*fakeItem
	children map[string][]string
	content  map[string][]byte
	nextID   int
}

func newFakeSkyDrive() *fakeSkyDrive {
	s := &fakeSkyDrive{
		items:    map[string]*fakeItem{},
		children: map[string][]string{},
		content:  map[string][]byte{},
	}

	s.items["folder.root"] = &fakeItem{ID: "folder.root", Type: "folder", Name: "SkyDrive"}

	return s
}

// add creates an item under parentID and returns its id. Callers hold mu or
// run before the server starts.
func (s *fakeSkyDrive) add(parentID, kind, name string, data []byte) string {
	s.nextID++
	id := fmt.Sprintf("%s.%d", kind, s.nextID)

	s.items[id] = &fakeItem{
		ID: id, Type: kind, Name: name, ParentID: parentID,
		Size: int64(len(data)), UpdatedTime: "2012-03-04T05:06:07+0000",
	}
	s.children[parentID] = append(s.children[parentID], id)
	s.items[parentID].Count = len(s.children[parentID])

	if kind == "file" {
		s.content[id] = data
	}

	return id
}

func (s *fakeSkyDrive) handler(t *testing.T) http.Handler {
	t.Helper()

	writeJSON := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		require.NoError(t, json.NewEncoder(w).Encode(v))
	}

	notFound := func(w http.ResponseWriter) {
		w.Header().Set("Content-Type", "application/json; charset=UTF-8")
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"error":{"code":"resource_not_found","message":"not found"}}`)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("GET /token", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, map[string]any{
			"access_token": "at", "refresh_token": "rt", "expires_in": 3600, "token_type": "bearer",
		})
	})

	mux.HandleFunc("GET /v5.0/me/skydrive", func(w http.ResponseWriter, _ *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()
		writeJSON(w, s.items["folder.root"])
	})

	mux.HandleFunc("GET /v5.0/{id}", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		item, ok := s.items[r.PathValue("id")]
		if !ok {
			notFound(w)
			return
		}

		writeJSON(w, item)
	})

	mux.HandleFunc("GET /v5.0/{id}/files", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		data := []*fakeItem{}
		for _, id := range s.children[r.PathValue("id")] {
			data = append(data, s.items[id])
		}

		writeJSON(w, map[string]any{"data": data})
	})

	mux.HandleFunc("GET /v5.0/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		defer s.mu.Unlock()

		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(s.content[r.PathValue("id")])
	})

	mux.HandleFunc("POST /v5.0/{id}", func(w http.ResponseWriter, r *http.Request) {
		var body fakeItem
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		s.mu.Lock()
		defer s.mu.Unlock()

		id := s.add(r.PathValue("id"), "folder", body.Name, nil)
		s.items[id].Description = body.Description
		writeJSON(w, s.items[id])
	})

	mux.HandleFunc("PUT /v5.0/{id}", func(w http.ResponseWriter, r *http.Request) {
		// An absent description leaves the stored one in place.
		var body struct {
			Name        string  `json:"name"`
			Description *string `json:"description"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		s.mu.Lock()
		defer s.mu.Unlock()

		item, ok := s.items[r.PathValue("id")]
		if !ok {
			notFound(w)
			return
		}

		item.Name = body.Name
		if body.Description != nil {
			item.Description = *body.Description
		}
		writeJSON(w, item)
	})

	mux.HandleFunc("PUT /v5.0/{id}/files/{name}", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		s.mu.Lock()
		defer s.mu.Unlock()

		id := s.add(r.PathValue("id"), "file", r.PathValue("name"), data)
		writeJSON(w, map[string]any{"id": id, "source": "https://example.invalid/" + id})
	})

	mux.HandleFunc("PUT /v5.0/{id}/content", func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(r.Body)
		require.NoError(t, err)

		s.mu.Lock()
		defer s.mu.Unlock()

		id := r.PathValue("id")
		s.content[id] = data
		s.items[id].Size = int64(len(data))
		writeJSON(w, map[string]any{"id": id})
	})

	return mux
}

// startFakeDrive serves s and returns a drive opened against it.
func startFakeDrive(t *testing.T, s *fakeSkyDrive) *skydrive.Drive {
	t.Helper()

	srv := httptest.NewServer(s.handler(t))
	t.Cleanup(srv.Close)

	cfg, err := liveconnect.NewConfig("client", "secret", defaultScopes)
	require.NoError(t, err)

	client, err := liveconnect.NewClient(liveconnect.NewMemoryStore(cfg), liveconnect.Options{
		HTTPClient: srv.Client(),
		Endpoints: liveconnect.Endpoints{
			AuthorizeURL: srv.URL + "/authorize",
			TokenURL:     srv.URL + "/token",
			RedirectURL:  srv.URL + "/desktop",
			APIBase:      srv.URL + "/v5.0",
		},
		Consent: func(context.Context, string) (string, error) { return "code=test", nil },
	})
	require.NoError(t, err)

	d, err := skydrive.Open(t.Context(), client, nil)
	require.NoError(t, err)

	return d
}
