package relay

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"synapse/internal/note"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	store, err := OpenStore(t.TempDir(), nil)
	if err != nil {
		t.Fatal(err)
	}
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = idx.Close() })
	if err := idx.Init(context.Background(), store); err != nil {
		t.Fatal(err)
	}
	srv := NewServer(store, idx, nil)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func postAction(t *testing.T, url string, req actionRequest) (int, actionResponse) {
	t.Helper()
	body, err := json.Marshal(req)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.Post(url, "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	var out actionResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatal(err)
	}
	return resp.StatusCode, out
}

func fetchNotes(t *testing.T, url string) []note.Note {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.StatusCode)
	}
	var notes []note.Note
	if err := json.NewDecoder(resp.Body).Decode(&notes); err != nil {
		t.Fatal(err)
	}
	return notes
}

func TestSaveThenListRoundTrip(t *testing.T) {
	_, ts := newTestServer(t)

	code, resp := postAction(t, ts.URL, actionRequest{
		Action: "save", Title: "Alpha", Content: "hello", LastModified: 123,
	})
	if code != http.StatusOK || resp.Status != StatusSuccess {
		t.Fatalf("save: %d %+v", code, resp)
	}

	notes := fetchNotes(t, ts.URL)
	if len(notes) != 1 {
		t.Fatalf("expected one note, got %+v", notes)
	}
	if notes[0].Title != "Alpha" || notes[0].Content != "hello" || notes[0].LastModified != 123 {
		t.Fatalf("listing mismatch: %+v", notes[0])
	}
}

func TestDeleteAction(t *testing.T) {
	_, ts := newTestServer(t)
	postAction(t, ts.URL, actionRequest{Action: "save", Title: "Alpha", Content: "x", LastModified: 1})

	code, resp := postAction(t, ts.URL, actionRequest{Action: "delete", Title: "alpha"})
	if code != http.StatusOK || resp.Status != StatusDeleted {
		t.Fatalf("delete: %d %+v", code, resp)
	}
	if notes := fetchNotes(t, ts.URL); len(notes) != 0 {
		t.Fatalf("note still listed after delete: %+v", notes)
	}
}

func TestRenameAction(t *testing.T) {
	_, ts := newTestServer(t)
	postAction(t, ts.URL, actionRequest{Action: "save", Title: "Old", Content: "x", LastModified: 1})

	code, resp := postAction(t, ts.URL, actionRequest{
		Action: "rename", OldTitle: "Old", NewTitle: "New", LastModified: 2,
	})
	if code != http.StatusOK || resp.Status != StatusRenamed {
		t.Fatalf("rename: %d %+v", code, resp)
	}
	notes := fetchNotes(t, ts.URL)
	if len(notes) != 1 || notes[0].Title != "New" {
		t.Fatalf("listing after rename: %+v", notes)
	}
}

func TestRenameMissingReturnsError(t *testing.T) {
	_, ts := newTestServer(t)
	code, resp := postAction(t, ts.URL, actionRequest{
		Action: "rename", OldTitle: "Ghost", NewTitle: "New",
	})
	if code != http.StatusNotFound || resp.Status != StatusError {
		t.Fatalf("got %d %+v", code, resp)
	}
}

func TestUnknownActionRejected(t *testing.T) {
	_, ts := newTestServer(t)
	code, resp := postAction(t, ts.URL, actionRequest{Action: "explode"})
	if code != http.StatusBadRequest || resp.Status != StatusError {
		t.Fatalf("got %d %+v", code, resp)
	}
}

func TestSaveRequiresTitle(t *testing.T) {
	_, ts := newTestServer(t)
	code, resp := postAction(t, ts.URL, actionRequest{Action: "save", Content: "orphan"})
	if code != http.StatusBadRequest || resp.Status != StatusError {
		t.Fatalf("got %d %+v", code, resp)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	_, ts := newTestServer(t)
	req, err := http.NewRequest(http.MethodPut, ts.URL, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("got %d", resp.StatusCode)
	}
}

func TestIndexRebuildPicksUpExternalEdits(t *testing.T) {
	srv, ts := newTestServer(t)
	postAction(t, ts.URL, actionRequest{Action: "save", Title: "Alpha", Content: "x", LastModified: 1})

	// Simulate an external editor dropping a file into the folder.
	if err := srv.store.Save("Dropped", "by hand", 5); err != nil {
		t.Fatal(err)
	}
	if err := srv.idx.Rebuild(context.Background(), srv.store); err != nil {
		t.Fatal(err)
	}
	if notes := fetchNotes(t, ts.URL); len(notes) != 2 {
		t.Fatalf("expected both notes after rebuild, got %+v", notes)
	}
}
