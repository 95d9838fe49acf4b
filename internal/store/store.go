package store

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"synapse/internal/note"
	"synapse/internal/storage/fs"
)

const (
	notesFile  = "notes.json"
	configFile = "config.json"
)

// DefaultRemoteEndpoint is used when no endpoint has been configured. It
// points at a locally hosted relay (cmd/relay) on its default address.
const DefaultRemoteEndpoint = "http://127.0.0.1:8087/"

// AppConfig is the persisted connection configuration.
type AppConfig struct {
	RemoteEndpointURL string `json:"remoteEndpointUrl"`
	RemoteFolderID    string `json:"remoteFolderId"`
}

// Store is the durable local mirror of the note collection. Every call is a
// full read-modify-write of a single JSON file, written atomically. That is
// acceptable only because expected note counts are small.
//
// Corrupt or missing data is treated as "no data" and never surfaced as an
// error; it is logged and the caller sees an empty collection.
type Store struct {
	mu  sync.Mutex
	dir string
	log *slog.Logger
}

func Open(dir string) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, log: slog.Default()}, nil
}

func (s *Store) LoadAll() []note.Note {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadLocked()
}

func (s *Store) loadLocked() []note.Note {
	data, err := os.ReadFile(filepath.Join(s.dir, notesFile))
	if err != nil {
		if !os.IsNotExist(err) {
			s.log.Warn("read notes file", "err", err)
		}
		return nil
	}
	var notes []note.Note
	if err := json.Unmarshal(data, &notes); err != nil {
		s.log.Warn("notes file corrupt, starting empty", "err", err)
		return nil
	}
	return notes
}

func (s *Store) saveLocked(notes []note.Note) error {
	if notes == nil {
		notes = []note.Note{}
	}
	data, err := json.MarshalIndent(notes, "", "  ")
	if err != nil {
		return err
	}
	return fs.WriteFileAtomic(filepath.Join(s.dir, notesFile), data, 0o644)
}

// Upsert replaces the note with the same ID, or appends it.
func (s *Store) Upsert(n note.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := s.loadLocked()
	if i := note.FindByID(notes, n.ID); i >= 0 {
		notes[i] = n
	} else {
		notes = append(notes, n)
	}
	return s.saveLocked(notes)
}

func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	notes := s.loadLocked()
	i := note.FindByID(notes, id)
	if i < 0 {
		return nil
	}
	notes = append(notes[:i], notes[i+1:]...)
	return s.saveLocked(notes)
}

// ReplaceAll swaps in a fully merged collection. Only the sync coordinator
// calls this; it is the single component permitted to change membership
// wholesale.
func (s *Store) ReplaceAll(notes []note.Note) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saveLocked(notes)
}

func (s *Store) LoadConfig() AppConfig {
	s.mu.Lock()
	defer s.mu.Unlock()
	cfg := AppConfig{RemoteEndpointURL: DefaultRemoteEndpoint}
	data, err := os.ReadFile(filepath.Join(s.dir, configFile))
	if err != nil {
		return cfg
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		s.log.Warn("config file corrupt, using defaults", "err", err)
		return AppConfig{RemoteEndpointURL: DefaultRemoteEndpoint}
	}
	if cfg.RemoteEndpointURL == "" {
		cfg.RemoteEndpointURL = DefaultRemoteEndpoint
	}
	return cfg
}

func (s *Store) SaveConfig(cfg AppConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return fs.WriteFileAtomic(filepath.Join(s.dir, configFile), data, 0o600)
}
