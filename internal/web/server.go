// Package web exposes the note service over a JSON API. The browser front
// end and the editor talk to these endpoints; everything stateful lives in
// the store, the sync coordinator and the graph layout.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"

	"synapse/internal/ai"
	"synapse/internal/editor"
	"synapse/internal/graph"
	"synapse/internal/links"
	"synapse/internal/store"
	"synapse/internal/syncer"
)

// SyncController is the slice of the sync coordinator the handlers use.
type SyncController interface {
	NoteEdited(id string)
	NoteDeleted(ctx context.Context, title string)
	NoteRenamed(ctx context.Context, oldTitle, newTitle string)
	Sync()
	State() syncer.State
}

type Server struct {
	store  *store.Store
	sync   SyncController
	cache  *links.Cache
	layout *graph.Layout
	ai     *ai.Client
	mux    *http.ServeMux
	log    *slog.Logger

	// Per-note undo buffers. Snapshots are taken on every write through the
	// API, so undo/redo survive as long as the process does.
	histMu    sync.Mutex
	histories map[string]*editor.History
}

func NewServer(st *store.Store, sync SyncController, assistant *ai.Client, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{
		store:     st,
		sync:      sync,
		cache:     links.NewCache(),
		layout:    graph.NewLayout(),
		ai:        assistant,
		mux:       http.NewServeMux(),
		log:       log,
		histories: make(map[string]*editor.History),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return corsMiddleware(s.mux)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/notes", s.handleNotes)
	s.mux.HandleFunc("/api/notes/", s.handleNote)
	s.mux.HandleFunc("/api/graph", s.handleGraph)
	s.mux.HandleFunc("/api/graph/pin", s.handleGraphPin)
	s.mux.HandleFunc("/api/graph/release", s.handleGraphRelease)
	s.mux.HandleFunc("/api/backlinks", s.handleBacklinks)
	s.mux.HandleFunc("/api/unresolved", s.handleUnresolved)
	s.mux.HandleFunc("/api/suggest", s.handleSuggest)
	s.mux.HandleFunc("/api/editor/continue", s.handleEditorContinue)
	s.mux.HandleFunc("/api/preview", s.handlePreview)
	s.mux.HandleFunc("/api/overlay", s.handleOverlay)
	s.mux.HandleFunc("/api/highlight", s.handleHighlight)
	s.mux.HandleFunc("/api/analyze", s.handleAnalyze)
	s.mux.HandleFunc("/api/chat", s.handleChat)
	s.mux.HandleFunc("/api/sync", s.handleSync)
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/config", s.handleConfig)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
