package store

import (
	"os"
	"path/filepath"
	"testing"

	"synapse/internal/note"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	return s
}

func TestLoadAllEmptyWhenAbsent(t *testing.T) {
	s := openTestStore(t)
	if got := s.LoadAll(); len(got) != 0 {
		t.Fatalf("expected empty collection, got %d notes", len(got))
	}
}

func TestLoadAllEmptyWhenCorrupt(t *testing.T) {
	s := openTestStore(t)
	if err := os.WriteFile(filepath.Join(s.dir, notesFile), []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}
	if got := s.LoadAll(); len(got) != 0 {
		t.Fatalf("corrupt data must read as empty, got %d notes", len(got))
	}
}

func TestUpsertReplacesByID(t *testing.T) {
	s := openTestStore(t)
	n := note.New("Alpha", "one")
	if err := s.Upsert(n); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	n.Content = "two"
	if err := s.Upsert(n); err != nil {
		t.Fatalf("upsert update: %v", err)
	}

	notes := s.LoadAll()
	if len(notes) != 1 {
		t.Fatalf("expected 1 note, got %d", len(notes))
	}
	if notes[0].Content != "two" {
		t.Fatalf("expected updated content, got %q", notes[0].Content)
	}
}

func TestUpsertAppendsNew(t *testing.T) {
	s := openTestStore(t)
	if err := s.Upsert(note.New("Alpha", "")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Upsert(note.New("Beta", "")); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if got := s.LoadAll(); len(got) != 2 {
		t.Fatalf("expected 2 notes, got %d", len(got))
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	n := note.New("Alpha", "")
	if err := s.Upsert(n); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := s.Delete(n.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := s.LoadAll(); len(got) != 0 {
		t.Fatalf("expected empty collection after delete, got %d", len(got))
	}
	// Deleting a missing ID is a no-op.
	if err := s.Delete("missing"); err != nil {
		t.Fatalf("delete missing: %v", err)
	}
}

func TestConfigDefaults(t *testing.T) {
	s := openTestStore(t)
	cfg := s.LoadConfig()
	if cfg.RemoteEndpointURL != DefaultRemoteEndpoint {
		t.Fatalf("expected default endpoint, got %q", cfg.RemoteEndpointURL)
	}

	cfg.RemoteEndpointURL = "https://example.org/relay"
	cfg.RemoteFolderID = "folder-1"
	if err := s.SaveConfig(cfg); err != nil {
		t.Fatalf("save config: %v", err)
	}
	got := s.LoadConfig()
	if got != cfg {
		t.Fatalf("config round trip mismatch: %+v != %+v", got, cfg)
	}
}

func TestConfigCorruptFallsBackToDefaults(t *testing.T) {
	s := openTestStore(t)
	if err := os.WriteFile(filepath.Join(s.dir, configFile), []byte("nope"), 0o600); err != nil {
		t.Fatalf("write corrupt config: %v", err)
	}
	cfg := s.LoadConfig()
	if cfg.RemoteEndpointURL != DefaultRemoteEndpoint {
		t.Fatalf("expected default endpoint on corrupt config, got %q", cfg.RemoteEndpointURL)
	}
}
