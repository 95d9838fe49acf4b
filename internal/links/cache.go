package links

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"

	"synapse/internal/note"
)

// Cache memoizes extraction keyed on a fingerprint of the collection's
// membership, titles and contents, so repeated reads against unchanged data
// never rescan. That also keeps graph layout stable: callers see identical
// edge slices when nothing underneath actually changed.
type Cache struct {
	mu          sync.Mutex
	fingerprint string
	edges       []Edge
	unresolved  []Ref
}

func NewCache() *Cache {
	return &Cache{}
}

func (c *Cache) Edges(notes []note.Note) []Edge {
	edges, _ := c.lookup(notes)
	return edges
}

func (c *Cache) Unresolved(notes []note.Note) []Ref {
	_, refs := c.lookup(notes)
	return refs
}

func (c *Cache) lookup(notes []note.Note) ([]Edge, []Ref) {
	fp := Fingerprint(notes)
	c.mu.Lock()
	defer c.mu.Unlock()
	if fp != c.fingerprint {
		c.edges = Extract(notes)
		c.unresolved = Unresolved(notes)
		c.fingerprint = fp
	}
	return c.edges, c.unresolved
}

// Fingerprint hashes note IDs, titles and contents. LastModified is left out:
// a timestamp bump without a content change must not invalidate the cache.
func Fingerprint(notes []note.Note) string {
	h := sha256.New()
	for _, n := range notes {
		h.Write([]byte(n.ID))
		h.Write([]byte{0})
		h.Write([]byte(n.Title))
		h.Write([]byte{0})
		h.Write([]byte(n.Content))
		h.Write([]byte{0})
	}
	return hex.EncodeToString(h.Sum(nil))
}
