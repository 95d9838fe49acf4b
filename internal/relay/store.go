// Package relay implements the self-hosted sync endpoint: a folder of
// markdown files addressed by note title, a sqlite index for fast listings,
// a filesystem watcher that picks up external edits, and the HTTP surface
// the app's sync client talks to.
package relay

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"synapse/internal/note"
	storagefs "synapse/internal/storage/fs"
)

var ErrNotFound = errors.New("note not found")

// Store keeps each note as <slug>.md with the exact title and last-modified
// stamp in frontmatter. Titles are the addressing key; slugs only name files.
type Store struct {
	dir   string
	locks *storagefs.Locker
	log   *slog.Logger
}

func OpenStore(dir string, log *slog.Logger) (*Store, error) {
	if log == nil {
		log = slog.Default()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &Store{dir: dir, locks: storagefs.NewLocker(), log: log}, nil
}

// Save writes the note addressed by title, reusing the existing file when
// one matches the title and minting a fresh slug path otherwise.
func (s *Store) Save(title, content string, lastModified int64) error {
	key := note.Key(title)
	if key == "" {
		return errors.New("empty title")
	}
	unlock := s.locks.Lock(key)
	defer unlock()

	path, ok, err := s.pathFor(key)
	if err != nil {
		return err
	}
	if !ok {
		path, err = s.uniquePath(slugify(title))
		if err != nil {
			return err
		}
	}
	data := encodeNote(title, content, lastModified)
	return storagefs.WriteFileAtomic(filepath.Join(s.dir, path), []byte(data), 0o644)
}

// Delete removes the note addressed by title. Deleting an unknown title is
// a no-op so retried deletes stay idempotent.
func (s *Store) Delete(title string) error {
	key := note.Key(title)
	unlock := s.locks.Lock(key)
	defer unlock()

	path, ok, err := s.pathFor(key)
	if err != nil || !ok {
		return err
	}
	return os.Remove(filepath.Join(s.dir, path))
}

// Rename moves a note to a new title, rewriting its frontmatter and file
// name. The old file goes away even when the slug changes.
func (s *Store) Rename(oldTitle, newTitle string, lastModified int64) error {
	oldKey, newKey := note.Key(oldTitle), note.Key(newTitle)
	if newKey == "" {
		return errors.New("empty title")
	}
	first, second := oldKey, newKey
	if first > second {
		first, second = second, first
	}
	unlockA := s.locks.Lock(first)
	defer unlockA()
	if first != second {
		unlockB := s.locks.Lock(second)
		defer unlockB()
	}

	oldPath, ok, err := s.pathFor(oldKey)
	if err != nil {
		return err
	}
	if !ok {
		return ErrNotFound
	}
	n, err := s.read(oldPath)
	if err != nil {
		return err
	}

	newPath := oldPath
	if oldKey != newKey {
		newPath, err = s.uniquePath(slugify(newTitle))
		if err != nil {
			return err
		}
	}
	data := encodeNote(newTitle, n.Content, lastModified)
	if err := storagefs.WriteFileAtomic(filepath.Join(s.dir, newPath), []byte(data), 0o644); err != nil {
		return err
	}
	if newPath != oldPath {
		if err := os.Remove(filepath.Join(s.dir, oldPath)); err != nil {
			s.log.Warn("leftover note file after rename", "path", oldPath, "error", err)
		}
	}
	return nil
}

// List walks the folder and parses every markdown file. The relay-local
// note IDs are file paths; clients treat them as opaque.
func (s *Store) List() ([]note.Note, error) {
	var notes []note.Note
	err := s.walk(func(path string) error {
		n, err := s.read(path)
		if err != nil {
			s.log.Warn("skipping unreadable note", "path", path, "error", err)
			return nil
		}
		notes = append(notes, n)
		return nil
	})
	return notes, err
}

// Read parses a single file by its relative path.
func (s *Store) Read(path string) (note.Note, error) {
	return s.read(path)
}

func (s *Store) read(path string) (note.Note, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, path))
	if err != nil {
		return note.Note{}, err
	}
	title, content, updated := decodeNote(string(data))
	if title == "" {
		title = titleFromPath(path)
	}
	return note.Note{ID: path, Title: title, Content: content, LastModified: updated}, nil
}

func (s *Store) pathFor(key string) (string, bool, error) {
	var found string
	err := s.walk(func(path string) error {
		if found != "" {
			return nil
		}
		n, err := s.read(path)
		if err != nil {
			return nil
		}
		if note.Key(n.Title) == key {
			found = path
		}
		return nil
	})
	return found, found != "", err
}

func (s *Store) walk(fn func(relPath string) error) error {
	return filepath.WalkDir(s.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != s.dir && strings.HasPrefix(d.Name(), ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		rel, err := filepath.Rel(s.dir, path)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
}

func (s *Store) uniquePath(slug string) (string, error) {
	for i := 1; ; i++ {
		candidate := slug
		if i > 1 {
			candidate = slug + "-" + strconv.Itoa(i)
		}
		candidate += ".md"
		_, err := os.Stat(filepath.Join(s.dir, candidate))
		if os.IsNotExist(err) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
	}
}

func slugify(input string) string {
	input = strings.ToLower(input)
	var b strings.Builder
	lastDash := false
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
			lastDash = false
			continue
		}
		if !lastDash {
			b.WriteRune('-')
			lastDash = true
		}
	}
	slug := strings.Trim(b.String(), "-")
	if slug == "" {
		slug = "note"
	}
	return slug
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
