package gitsync

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGitHub struct {
	mu      sync.Mutex
	calls   []string
	blobs   []map[string]string
	tree    map[string]any
	commit  map[string]any
	update  map[string]any
	failRef bool
}

func (f *fakeGitHub) record(name string) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	f.mu.Unlock()
}

func (f *fakeGitHub) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	reply := func(w http.ResponseWriter, v any) {
		w.Header().Set("Content-Type", "application/json")
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}

	mux.HandleFunc("GET /repos/acme/data/git/ref/heads/main", func(w http.ResponseWriter, r *http.Request) {
		f.record("get-ref")
		if f.failRef {
			http.Error(w, `{"message":"Not Found"}`, http.StatusNotFound)
			return
		}
		reply(w, map[string]any{"ref": "refs/heads/main", "object": map[string]any{"sha": "parent"}})
	})
	mux.HandleFunc("GET /repos/acme/data/git/commits/parent", func(w http.ResponseWriter, r *http.Request) {
		f.record("get-commit")
		reply(w, map[string]any{"sha": "parent", "tree": map[string]any{"sha": "base-tree"}})
	})
	mux.HandleFunc("POST /repos/acme/data/git/blobs", func(w http.ResponseWriter, r *http.Request) {
		f.record("create-blob")
		var body map[string]string
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		f.mu.Lock()
		f.blobs = append(f.blobs, body)
		f.mu.Unlock()
		reply(w, map[string]any{"sha": "blob-" + body["content"]})
	})
	mux.HandleFunc("POST /repos/acme/data/git/trees", func(w http.ResponseWriter, r *http.Request) {
		f.record("create-tree")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.tree))
		reply(w, map[string]any{"sha": "new-tree"})
	})
	mux.HandleFunc("POST /repos/acme/data/git/commits", func(w http.ResponseWriter, r *http.Request) {
		f.record("create-commit")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.commit))
		reply(w, map[string]any{"sha": "new-commit", "html_url": "https://github.com/acme/data/commit/new-commit"})
	})
	mux.HandleFunc("PATCH /repos/acme/data/git/refs/heads/main", func(w http.ResponseWriter, r *http.Request) {
		f.record("update-ref")
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&f.update))
		reply(w, map[string]any{"ref": "refs/heads/main", "object": map[string]any{"sha": "new-commit"}})
	})
	return mux
}

func newTestClient(t *testing.T, f *fakeGitHub) *Client {
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{Token: "tok", Owner: "acme", Repo: "data", BaseURL: srv.URL}, nil)
	require.NoError(t, err)
	return c
}

func TestCommit_SixStepFlow(t *testing.T) {
	f := &fakeGitHub{}
	c := newTestClient(t, f)

	res, err := c.Commit(context.Background(), "update", []File{
		{Path: "public/data/workers.json", Content: []byte("[1]")},
		{Path: "public/data/zonas.json", Content: []byte("[2]")},
	})
	require.NoError(t, err)

	assert.Equal(t, "new-commit", res.SHA)
	assert.Equal(t, 2, res.Files)
	assert.Equal(t, []string{
		"get-ref", "get-commit", "create-blob", "create-blob", "create-tree", "create-commit", "update-ref",
	}, f.calls)

	for _, b := range f.blobs {
		assert.Equal(t, "utf-8", b["encoding"])
	}

	assert.Equal(t, "base-tree", f.tree["base_tree"])
	entries := f.tree["tree"].([]any)
	require.Len(t, entries, 2)
	first := entries[0].(map[string]any)
	assert.Equal(t, "public/data/workers.json", first["path"])
	assert.Equal(t, "100644", first["mode"])
	assert.Equal(t, "blob", first["type"])
	assert.Equal(t, "blob-[1]", first["sha"])

	assert.Equal(t, "update", f.commit["message"])
	assert.Equal(t, "new-tree", f.commit["tree"])
	assert.Equal(t, []any{"parent"}, f.commit["parents"])

	assert.Equal(t, "new-commit", f.update["sha"])
	assert.Equal(t, false, f.update["force"])
}

func TestCommit_StopsOnRefError(t *testing.T) {
	f := &fakeGitHub{failRef: true}
	c := newTestClient(t, f)

	_, err := c.Commit(context.Background(), "update", []File{{Path: "a", Content: []byte("x")}})
	assert.ErrorContains(t, err, "failed to get branch ref")
	assert.Equal(t, []string{"get-ref"}, f.calls)
}

func TestCommit_NoFiles(t *testing.T) {
	c := newTestClient(t, &fakeGitHub{})
	_, err := c.Commit(context.Background(), "update", nil)
	assert.Error(t, err)
}

func TestNewClient_NotConfigured(t *testing.T) {
	for _, cfg := range []Config{
		{Owner: "a", Repo: "b"},
		{Token: "t", Repo: "b"},
		{Token: "t", Owner: "a"},
	} {
		_, err := NewClient(cfg, nil)
		assert.ErrorIs(t, err, ErrNotConfigured)
	}
}

func TestDataUpdateMessage(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 30, 5, 123e6, time.FixedZone("COT", -5*3600))
	assert.Equal(t, "chore: Update data files (admin changes) - 2026-03-01T17:30:05.123Z", DataUpdateMessage(now))
}
