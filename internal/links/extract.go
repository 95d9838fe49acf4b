// Package links derives the note relationship graph. Everything here is a
// pure function of the note collection; nothing is persisted.
package links

import (
	"regexp"
	"strings"

	"synapse/internal/note"
)

// Edge is a resolved bracket link between two notes, by note ID. Duplicate
// edges are preserved: multiplicity feeds visual link weight.
type Edge struct {
	Source string `json:"source"`
	Target string `json:"target"`
}

// Ref is a bracket reference that did not resolve to any existing title. The
// editor renders these as "not yet created".
type Ref struct {
	NoteID string `json:"noteId"`
	Text   string `json:"text"`
}

var wikiLinkRe = regexp.MustCompile(`\[\[([^\]]+)\]\]`)

// Extract scans every note body for [[Title]] references and resolves them
// case-insensitively against current titles. Only resolved references become
// edges; ordering is scan order.
func Extract(notes []note.Note) []Edge {
	byKey := note.ByKey(notes)
	var edges []Edge
	for _, n := range notes {
		for _, ref := range scanRefs(n.Content) {
			if id, ok := byKey[note.Key(ref)]; ok {
				edges = append(edges, Edge{Source: n.ID, Target: id})
			}
		}
	}
	return edges
}

// Unresolved returns the bracket references that resolve to no note.
func Unresolved(notes []note.Note) []Ref {
	byKey := note.ByKey(notes)
	var refs []Ref
	for _, n := range notes {
		for _, ref := range scanRefs(n.Content) {
			if _, ok := byKey[note.Key(ref)]; !ok {
				refs = append(refs, Ref{NoteID: n.ID, Text: ref})
			}
		}
	}
	return refs
}

// Backlinks returns the notes whose content references the given title.
// Resolution is by current title at call time, so a rename is reflected
// immediately without rewriting referencing notes.
func Backlinks(notes []note.Note, title string) []note.Note {
	key := note.Key(title)
	var out []note.Note
	for _, n := range notes {
		if note.Key(n.Title) == key {
			continue
		}
		for _, ref := range scanRefs(n.Content) {
			if note.Key(ref) == key {
				out = append(out, n)
				break
			}
		}
	}
	return out
}

// scanRefs extracts bracket reference targets from a note body, skipping
// fenced and indented code. An [[Title|alias]] reference targets Title.
func scanRefs(content string) []string {
	var refs []string
	for _, line := range nonCodeLines(content) {
		for _, m := range wikiLinkRe.FindAllStringSubmatch(line, -1) {
			target := m[1]
			if i := strings.IndexByte(target, '|'); i >= 0 {
				target = target[:i]
			}
			target = strings.TrimSpace(target)
			if target != "" {
				refs = append(refs, target)
			}
		}
	}
	return refs
}

func nonCodeLines(body string) []string {
	lines := strings.Split(body, "\n")
	out := make([]string, 0, len(lines))
	inFence := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence {
			continue
		}
		if isIndentedCodeLine(line) {
			continue
		}
		out = append(out, line)
	}
	return out
}

func isIndentedCodeLine(line string) bool {
	if line == "" {
		return false
	}
	spaces := 0
	for _, r := range line {
		if r == ' ' {
			spaces++
			continue
		}
		if r == '\t' {
			return true
		}
		break
	}
	return spaces >= 4
}
