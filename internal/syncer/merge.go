package syncer

import (
	"github.com/google/uuid"

	"synapse/internal/note"
)

// Policy controls what happens to local notes absent from the remote listing.
type Policy int

const (
	// PolicyAdditive never drops local notes the remote has not seen. Risk:
	// a note deleted remotely by another client is resurrected here.
	PolicyAdditive Policy = iota
	// PolicyReplace treats the remote listing as authoritative for
	// membership. Risk: a transient partial listing silently drops notes, so
	// the coordinator guards the empty-listing case before applying it.
	PolicyReplace
)

func ParsePolicy(s string) Policy {
	if s == "replace" {
		return PolicyReplace
	}
	return PolicyAdditive
}

// Merge reconciles a remote listing into the local collection. Conflicts are
// resolved last-write-wins by timestamp, keyed on normalized title. A remote
// winner keeps the existing local ID so the UI and graph stay stable; a note
// seen for the first time is minted a fresh local ID because remote IDs carry
// no cross-store meaning.
func Merge(local, remote []note.Note, policy Policy) []note.Note {
	remote = collapseByTitle(remote)

	localIdx := make(map[string]int, len(local))
	for i, n := range local {
		localIdx[note.Key(n.Title)] = i
	}

	out := make([]note.Note, 0, len(remote)+len(local))
	seen := make(map[string]bool, len(remote))
	for _, r := range remote {
		key := note.Key(r.Title)
		seen[key] = true
		if i, ok := localIdx[key]; ok {
			l := local[i]
			if r.LastModified > l.LastModified {
				merged := r
				merged.ID = l.ID
				out = append(out, merged)
			} else {
				out = append(out, l)
			}
			continue
		}
		fresh := r
		fresh.ID = uuid.NewString()
		out = append(out, fresh)
	}

	if policy == PolicyAdditive {
		for _, l := range local {
			if !seen[note.Key(l.Title)] {
				out = append(out, l)
			}
		}
	}
	return out
}

// collapseByTitle deduplicates a listing that contains two entries with the
// same title; they are indistinguishable to the remote side, so the later
// timestamp wins.
func collapseByTitle(notes []note.Note) []note.Note {
	idx := make(map[string]int, len(notes))
	out := make([]note.Note, 0, len(notes))
	for _, n := range notes {
		key := note.Key(n.Title)
		if i, ok := idx[key]; ok {
			if n.LastModified > out[i].LastModified {
				out[i] = n
			}
			continue
		}
		idx[key] = len(out)
		out = append(out, n)
	}
	return out
}
