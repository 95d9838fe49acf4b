// Package syncer reconciles the local note collection against the remote
// relay. It is the only component permitted to change collection membership
// wholesale, and it does so unilaterally: there is no conflict UI, only a
// coarse saved / saving / unsaved indicator.
package syncer

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"synapse/internal/note"
	"synapse/internal/remote"
	"synapse/internal/storage/fs"
)

var ErrSyncBusy = errors.New("sync already in progress")

// State is the coarse indicator surfaced to the user.
type State string

const (
	StateSaved   State = "saved"
	StateSaving  State = "saving"
	StatePending State = "unsaved"
)

type Store interface {
	LoadAll() []note.Note
	ReplaceAll([]note.Note) error
}

type Remote interface {
	FetchAll(ctx context.Context) ([]note.Note, error)
	Save(ctx context.Context, n note.Note) remote.Outcome
	Delete(ctx context.Context, title string) remote.Outcome
	Rename(ctx context.Context, oldTitle, newTitle string) remote.Outcome
}

type Options struct {
	Policy   Policy
	Interval time.Duration
	Debounce time.Duration
	Logger   *slog.Logger
}

type Coordinator struct {
	store  Store
	remote Remote
	opts   Options
	log    *slog.Logger

	mu      sync.Mutex
	dirty   map[string]struct{}
	pushing bool

	reconcileLock chan struct{}
	edited        chan struct{}
	kicked        chan struct{}
	pushLocks     *fs.Locker
}

func New(store Store, rem Remote, opts Options) *Coordinator {
	if opts.Interval <= 0 {
		opts.Interval = time.Minute
	}
	if opts.Debounce <= 0 {
		opts.Debounce = 1500 * time.Millisecond
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{
		store:         store,
		remote:        rem,
		opts:          opts,
		log:           opts.Logger,
		dirty:         make(map[string]struct{}),
		reconcileLock: make(chan struct{}, 1),
		edited:        make(chan struct{}, 1),
		kicked:        make(chan struct{}, 1),
		pushLocks:     fs.NewLocker(),
	}
}

// Run drives the coordinator until ctx is canceled: one reconcile up front,
// then a fixed reconcile interval plus a debounced push after local edits.
func (c *Coordinator) Run(ctx context.Context) {
	if err := c.Reconcile(ctx); err != nil {
		c.log.Warn("initial sync failed", "err", err)
	}

	ticker := time.NewTicker(c.opts.Interval)
	defer ticker.Stop()

	debounce := time.NewTimer(c.opts.Debounce)
	if !debounce.Stop() {
		<-debounce.C
	}
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-c.edited:
			debounce.Reset(c.opts.Debounce)
		case <-debounce.C:
			c.pushDirty(ctx)
		case <-c.kicked:
			if err := c.Reconcile(ctx); err != nil {
				c.log.Warn("manual sync failed", "err", err)
			}
			c.pushDirty(ctx)
		case <-ticker.C:
			if err := c.Reconcile(ctx); err != nil {
				c.log.Warn("interval sync failed", "err", err)
			}
			c.pushDirty(ctx)
		}
	}
}

// NoteEdited marks a note as having unpushed local changes and resets the
// push debounce window.
func (c *Coordinator) NoteEdited(id string) {
	c.mu.Lock()
	c.dirty[id] = struct{}{}
	c.mu.Unlock()
	select {
	case c.edited <- struct{}{}:
	default:
	}
}

// NoteDeleted requests remote deletion by title. The local store entry is
// already gone; a remote failure is logged and left for the next cycle's
// reconcile to observe.
func (c *Coordinator) NoteDeleted(ctx context.Context, title string) {
	unlock := c.pushLocks.Lock(note.Key(title))
	defer unlock()
	if out := c.remote.Delete(ctx, title); !out.OK() {
		c.log.Warn("remote delete failed", "title", title, "status", out.Status, "err", out.Err)
	}
}

// NoteRenamed requests a remote rename so the remote file keeps its identity
// instead of appearing as a delete plus create.
func (c *Coordinator) NoteRenamed(ctx context.Context, oldTitle, newTitle string) {
	unlock := c.pushLocks.Lock(note.Key(oldTitle))
	defer unlock()
	if out := c.remote.Rename(ctx, oldTitle, newTitle); !out.OK() {
		c.log.Warn("remote rename failed", "old", oldTitle, "new", newTitle, "status", out.Status, "err", out.Err)
	}
}

// Sync requests an immediate reconcile from the run loop. Non-blocking.
func (c *Coordinator) Sync() {
	select {
	case c.kicked <- struct{}{}:
	default:
	}
}

// State reports the coarse sync indicator.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case c.pushing:
		return StateSaving
	case len(c.dirty) > 0:
		return StatePending
	default:
		return StateSaved
	}
}

// Reconcile fetches the remote listing and merges it into the local store.
// Overlapping reconciles are rejected rather than queued; any fetch failure
// leaves local state fully intact for this cycle.
func (c *Coordinator) Reconcile(ctx context.Context) error {
	select {
	case c.reconcileLock <- struct{}{}:
	default:
		return ErrSyncBusy
	}
	defer func() { <-c.reconcileLock }()

	remoteNotes, err := c.remote.FetchAll(ctx)
	if err != nil {
		return err
	}
	local := c.store.LoadAll()

	// A successful-but-empty listing while local notes exist is
	// indistinguishable from a transient partial response. Under the replace
	// policy that would wipe the collection, so the cycle is skipped.
	if c.opts.Policy == PolicyReplace && len(remoteNotes) == 0 && len(local) > 0 {
		c.log.Warn("remote listing empty while local notes exist; skipping replace cycle",
			"local_count", len(local))
		return nil
	}

	merged := Merge(local, remoteNotes, c.opts.Policy)
	return c.store.ReplaceAll(merged)
}

// pushDirty sends every note with unpushed edits to the remote. Failures
// leave the note dirty; it is retried on the next debounce or interval tick.
func (c *Coordinator) pushDirty(ctx context.Context) {
	c.mu.Lock()
	if len(c.dirty) == 0 {
		c.mu.Unlock()
		return
	}
	ids := make([]string, 0, len(c.dirty))
	for id := range c.dirty {
		ids = append(ids, id)
	}
	c.pushing = true
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.pushing = false
		c.mu.Unlock()
	}()

	notes := c.store.LoadAll()
	for _, id := range ids {
		i := note.FindByID(notes, id)
		if i < 0 {
			// Deleted since it was marked dirty.
			c.clearDirty(id)
			continue
		}
		n := notes[i]
		unlock := c.pushLocks.Lock(note.Key(n.Title))
		out := c.remote.Save(ctx, n)
		unlock()
		if out.OK() {
			c.clearDirty(id)
			continue
		}
		c.log.Warn("push failed", "title", n.Title, "status", out.Status, "err", out.Err)
	}
}

func (c *Coordinator) clearDirty(id string) {
	c.mu.Lock()
	delete(c.dirty, id)
	c.mu.Unlock()
}
