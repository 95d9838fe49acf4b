package relay

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"synapse/internal/note"
)

// Wire statuses returned in action responses.
const (
	StatusSuccess = "success"
	StatusDeleted = "deleted"
	StatusRenamed = "renamed"
	StatusError   = "error"
)

type actionRequest struct {
	Action       string `json:"action"`
	Title        string `json:"title,omitempty"`
	Content      string `json:"content,omitempty"`
	LastModified int64  `json:"lastModified,omitempty"`
	OldTitle     string `json:"oldTitle,omitempty"`
	NewTitle     string `json:"newTitle,omitempty"`
}

type actionResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Server is the HTTP surface of the relay. GET lists every note; POST
// applies one save, delete or rename action.
type Server struct {
	store *Store
	idx   *Index
	mux   *http.ServeMux
	log   *slog.Logger
}

func NewServer(store *Store, idx *Index, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	s := &Server{store: store, idx: idx, mux: http.NewServeMux(), log: log}
	s.mux.HandleFunc("/", s.handleRoot)
	return s
}

func (s *Server) Handler() http.Handler { return s.mux }

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	switch r.Method {
	case http.MethodGet:
		s.handleList(w, r)
	case http.MethodPost:
		s.handleAction(w, r)
	default:
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	notes, err := s.idx.List(r.Context())
	if err != nil {
		s.log.Error("listing failed", "error", err)
		http.Error(w, "listing failed", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

func (s *Server) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, actionResponse{Status: StatusError, Error: "invalid request body"})
		return
	}

	switch req.Action {
	case "save":
		s.handleSave(w, r, req)
	case "delete":
		s.handleDelete(w, r, req)
	case "rename":
		s.handleRename(w, r, req)
	default:
		writeJSON(w, http.StatusBadRequest, actionResponse{Status: StatusError, Error: "unknown action: " + req.Action})
	}
}

func (s *Server) handleSave(w http.ResponseWriter, r *http.Request, req actionRequest) {
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, actionResponse{Status: StatusError, Error: "title is required"})
		return
	}
	stamp := req.LastModified
	if stamp == 0 {
		stamp = note.Now()
	}
	if err := s.store.Save(req.Title, req.Content, stamp); err != nil {
		s.fail(w, "save", req.Title, err)
		return
	}
	s.reindexTitle(r, req.Title)
	s.log.Info("note saved", "title", req.Title)
	writeJSON(w, http.StatusOK, actionResponse{Status: StatusSuccess})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request, req actionRequest) {
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, actionResponse{Status: StatusError, Error: "title is required"})
		return
	}
	if err := s.store.Delete(req.Title); err != nil {
		s.fail(w, "delete", req.Title, err)
		return
	}
	if err := s.idx.RemoveByTitle(r.Context(), req.Title); err != nil {
		s.log.Warn("index cleanup failed", "title", req.Title, "error", err)
	}
	s.log.Info("note deleted", "title", req.Title)
	writeJSON(w, http.StatusOK, actionResponse{Status: StatusDeleted})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request, req actionRequest) {
	if req.OldTitle == "" || req.NewTitle == "" {
		writeJSON(w, http.StatusBadRequest, actionResponse{Status: StatusError, Error: "oldTitle and newTitle are required"})
		return
	}
	stamp := req.LastModified
	if stamp == 0 {
		stamp = note.Now()
	}
	err := s.store.Rename(req.OldTitle, req.NewTitle, stamp)
	if errors.Is(err, ErrNotFound) {
		writeJSON(w, http.StatusNotFound, actionResponse{Status: StatusError, Error: "note not found: " + req.OldTitle})
		return
	}
	if err != nil {
		s.fail(w, "rename", req.OldTitle, err)
		return
	}
	if err := s.idx.RemoveByTitle(r.Context(), req.OldTitle); err != nil {
		s.log.Warn("index cleanup failed", "title", req.OldTitle, "error", err)
	}
	s.reindexTitle(r, req.NewTitle)
	s.log.Info("note renamed", "from", req.OldTitle, "to", req.NewTitle)
	writeJSON(w, http.StatusOK, actionResponse{Status: StatusRenamed})
}

// reindexTitle refreshes the index row for one title straight from disk.
// The watcher would catch it eventually; doing it inline keeps listings
// read-your-writes for the client that just posted.
func (s *Server) reindexTitle(r *http.Request, title string) {
	path, ok, err := s.store.pathFor(note.Key(title))
	if err != nil || !ok {
		s.log.Warn("reindex lookup failed", "title", title, "error", err)
		return
	}
	n, err := s.store.Read(path)
	if err != nil {
		s.log.Warn("reindex read failed", "path", path, "error", err)
		return
	}
	if err := s.idx.Put(r.Context(), n); err != nil {
		s.log.Warn("reindex write failed", "path", path, "error", err)
	}
}

func (s *Server) fail(w http.ResponseWriter, action, title string, err error) {
	s.log.Error(action+" failed", "title", title, "error", err)
	writeJSON(w, http.StatusInternalServerError, actionResponse{Status: StatusError, Error: err.Error()})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
