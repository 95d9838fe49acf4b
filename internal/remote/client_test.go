package remote

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"synapse/internal/note"
)

func TestFetchAll(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			t.Errorf("expected GET, got %s", r.Method)
		}
		_ = json.NewEncoder(w).Encode([]note.Note{
			{ID: "r1", Title: "Alpha", Content: "hi", LastModified: 100},
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	notes, err := c.FetchAll(context.Background())
	if err != nil {
		t.Fatalf("fetch: %v", err)
	}
	if len(notes) != 1 || notes[0].Title != "Alpha" {
		t.Fatalf("unexpected listing: %+v", notes)
	}
}

func TestFetchAllClassifiesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchAll(context.Background())
	if !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
}

func TestFetchAllClassifiesHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchAll(context.Background())
	if !errors.Is(err, ErrBadStatus) {
		t.Fatalf("expected ErrBadStatus, got %v", err)
	}
}

func TestFetchAllClassifiesMalformedPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.FetchAll(context.Background())
	if !errors.Is(err, ErrBadPayload) {
		t.Fatalf("expected ErrBadPayload, got %v", err)
	}
}

func TestSaveSendsActionBody(t *testing.T) {
	var got actionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(actionResponse{Status: "success"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	out := c.Save(context.Background(), note.Note{Title: "Alpha", Content: "body", LastModified: 42})
	if !out.OK() {
		t.Fatalf("expected success, got %+v", out)
	}
	if got.Action != "save" || got.Title != "Alpha" || got.Content != "body" || got.LastModified != 42 {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestDeleteAndRenameActions(t *testing.T) {
	var actions []actionRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		actions = append(actions, req)
		status := "deleted"
		if req.Action == "rename" {
			status = "renamed"
		}
		_ = json.NewEncoder(w).Encode(actionResponse{Status: status})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	if out := c.Delete(context.Background(), "Alpha"); !out.OK() {
		t.Fatalf("delete outcome: %+v", out)
	}
	if out := c.Rename(context.Background(), "Alpha", "Beta"); !out.OK() {
		t.Fatalf("rename outcome: %+v", out)
	}

	if len(actions) != 2 {
		t.Fatalf("expected 2 requests, got %d", len(actions))
	}
	if actions[0].Action != "delete" || actions[0].Title != "Alpha" {
		t.Fatalf("unexpected delete body: %+v", actions[0])
	}
	if actions[1].Action != "rename" || actions[1].OldTitle != "Alpha" || actions[1].NewTitle != "Beta" {
		t.Fatalf("unexpected rename body: %+v", actions[1])
	}
}

func TestPostClassifiesBodyError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(actionResponse{Status: "error", Error: "no such note"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	out := c.Delete(context.Background(), "Missing")
	if out.Status != StatusHTTPError {
		t.Fatalf("expected httpError outcome, got %+v", out)
	}
}

func TestPostClassifiesNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c := NewClient(srv.URL, time.Second)
	out := c.Save(context.Background(), note.Note{Title: "Alpha"})
	if out.Status != StatusNetworkError {
		t.Fatalf("expected networkError outcome, got %+v", out)
	}
}
