package note

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Note is the unit of storage. Titles are the join key between the local and
// remote stores; the remote side has no concept of ID, so two notes sharing a
// title collide on merge.
type Note struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Content      string `json:"content"`
	LastModified int64  `json:"lastModified"`
}

// Now reports wall-clock time in milliseconds. Tests override it.
var Now = func() int64 { return time.Now().UnixMilli() }

func New(title, content string) Note {
	return Note{
		ID:           uuid.NewString(),
		Title:        title,
		Content:      content,
		LastModified: Now(),
	}
}

func (n *Note) Touch() {
	n.LastModified = Now()
}

// Key normalizes a title for merge and link resolution. Matching is
// case-insensitive on both sides.
func Key(title string) string {
	return strings.ToLower(strings.TrimSpace(title))
}

// ByKey builds a lookup from normalized title to note ID.
func ByKey(notes []Note) map[string]string {
	m := make(map[string]string, len(notes))
	for _, n := range notes {
		m[Key(n.Title)] = n.ID
	}
	return m
}

// FindByTitle returns the index of the note whose title matches, or -1.
func FindByTitle(notes []Note, title string) int {
	key := Key(title)
	for i := range notes {
		if Key(notes[i].Title) == key {
			return i
		}
	}
	return -1
}

// FindByID returns the index of the note with the given ID, or -1.
func FindByID(notes []Note, id string) int {
	for i := range notes {
		if notes[i].ID == id {
			return i
		}
	}
	return -1
}
