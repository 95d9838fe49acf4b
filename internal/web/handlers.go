package web

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"synapse/internal/ai"
	"synapse/internal/editor"
	"synapse/internal/graph"
	"synapse/internal/links"
	"synapse/internal/markdown"
	"synapse/internal/note"
	"synapse/internal/store"
)

// layoutSteps is how far the simulation advances per graph poll. Positions
// persist between polls, so the layout converges across requests.
const layoutSteps = 50

func (s *Server) handleNotes(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.LoadAll())
	case http.MethodPost:
		s.createNote(w, r)
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) createNote(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title   string `json:"title"`
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	notes := s.store.LoadAll()
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = untitled(notes)
	} else if note.FindByTitle(notes, title) >= 0 {
		conflict(w, "a note with that title already exists")
		return
	}

	n := note.New(title, req.Content)
	if err := s.store.Upsert(n); err != nil {
		s.serverError(w, "create note", err)
		return
	}
	s.recordSnapshot(n.ID, n.Content)
	s.sync.NoteEdited(n.ID)
	s.log.Info("note created", "id", n.ID, "title", n.Title)
	writeJSON(w, http.StatusCreated, n)
}

func (s *Server) handleNote(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimPrefix(r.URL.Path, "/api/notes/")
	action := ""
	if j := strings.IndexByte(id, '/'); j >= 0 {
		id, action = id[:j], id[j+1:]
	}
	if id == "" {
		http.NotFound(w, r)
		return
	}
	notes := s.store.LoadAll()
	i := note.FindByID(notes, id)

	switch action {
	case "":
	case "undo", "redo":
		if r.Method != http.MethodPost {
			methodNotAllowed(w)
			return
		}
		if i < 0 {
			http.NotFound(w, r)
			return
		}
		s.historyStep(w, notes[i], action)
		return
	default:
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		if i < 0 {
			http.NotFound(w, r)
			return
		}
		writeJSON(w, http.StatusOK, notes[i])
	case http.MethodPut:
		if i < 0 {
			http.NotFound(w, r)
			return
		}
		s.updateNote(w, r, notes, i)
	case http.MethodDelete:
		if i < 0 {
			http.NotFound(w, r)
			return
		}
		s.deleteNote(w, r, notes[i])
	default:
		methodNotAllowed(w)
	}
}

// historyStep moves a note's undo cursor and writes the selected snapshot
// back to the store. Applying a snapshot does not record a new one; that
// would eat the redo tail.
func (s *Server) historyStep(w http.ResponseWriter, n note.Note, action string) {
	s.histMu.Lock()
	h := s.histories[n.ID]
	content := ""
	ok := false
	if h != nil {
		if action == "undo" {
			content, ok = h.Undo()
		} else {
			content, ok = h.Redo()
		}
	}
	s.histMu.Unlock()
	if !ok {
		conflict(w, "nothing to "+action)
		return
	}

	n.Content = content
	n.Touch()
	if err := s.store.Upsert(n); err != nil {
		s.serverError(w, action, err)
		return
	}
	s.sync.NoteEdited(n.ID)
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) recordSnapshot(id, content string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	h, ok := s.histories[id]
	if !ok {
		h = editor.NewHistory(0)
		s.histories[id] = h
	}
	h.Push(content)
}

func (s *Server) dropHistory(id string) {
	s.histMu.Lock()
	defer s.histMu.Unlock()
	delete(s.histories, id)
}

func (s *Server) updateNote(w http.ResponseWriter, r *http.Request, notes []note.Note, i int) {
	var req struct {
		Title   *string `json:"title"`
		Content *string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}

	n := notes[i]
	oldTitle := n.Title
	renamed := false
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			badRequest(w, "title cannot be empty")
			return
		}
		if note.Key(title) != note.Key(oldTitle) {
			if j := note.FindByTitle(notes, title); j >= 0 && j != i {
				conflict(w, "a note with that title already exists")
				return
			}
			renamed = true
		}
		n.Title = title
	}
	if req.Content != nil {
		n.Content = *req.Content
	}
	n.Touch()

	if err := s.store.Upsert(n); err != nil {
		s.serverError(w, "update note", err)
		return
	}
	s.recordSnapshot(n.ID, n.Content)
	if renamed {
		s.sync.NoteRenamed(r.Context(), oldTitle, n.Title)
		s.log.Info("note renamed", "id", n.ID, "from", oldTitle, "to", n.Title)
	}
	s.sync.NoteEdited(n.ID)
	writeJSON(w, http.StatusOK, n)
}

func (s *Server) deleteNote(w http.ResponseWriter, r *http.Request, n note.Note) {
	if err := s.store.Delete(n.ID); err != nil {
		s.serverError(w, "delete note", err)
		return
	}
	s.dropHistory(n.ID)
	s.sync.NoteDeleted(r.Context(), n.Title)
	s.log.Info("note deleted", "id", n.ID, "title", n.Title)
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

// untitled picks the first free "Untitled N" name.
func untitled(notes []note.Note) string {
	for i := 1; ; i++ {
		candidate := "Untitled"
		if i > 1 {
			candidate = "Untitled " + strconv.Itoa(i)
		}
		if note.FindByTitle(notes, candidate) < 0 {
			return candidate
		}
	}
}

type graphNode struct {
	graph.Node
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type graphResponse struct {
	Nodes   []graphNode  `json:"nodes"`
	Links   []graph.Link `json:"links"`
	MinZoom float64      `json:"minZoom"`
	MaxZoom float64      `json:"maxZoom"`
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	notes := s.store.LoadAll()
	edges := s.cache.Edges(notes)
	view := graph.Build(notes, edges, r.URL.Query().Get("active"))

	s.layout.Apply(view)
	s.layout.Step(view, layoutSteps)
	positions := s.layout.Positions()

	resp := graphResponse{
		Nodes:   make([]graphNode, 0, len(view.Nodes)),
		Links:   view.Links,
		MinZoom: graph.MinZoom,
		MaxZoom: graph.MaxZoom,
	}
	for _, n := range view.Nodes {
		p := positions[n.ID]
		resp.Nodes = append(resp.Nodes, graphNode{Node: n, X: p.X, Y: p.Y})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleGraphPin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ID string  `json:"id"`
		X  float64 `json:"x"`
		Y  float64 `json:"y"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		badRequest(w, "id, x and y are required")
		return
	}
	s.layout.Pin(req.ID, graph.Point{X: req.X, Y: req.Y})
	writeJSON(w, http.StatusOK, map[string]string{"status": "pinned"})
}

func (s *Server) handleGraphRelease(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		badRequest(w, "id is required")
		return
	}
	s.layout.Release(req.ID)
	writeJSON(w, http.StatusOK, map[string]string{"status": "released"})
}

func (s *Server) handleBacklinks(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	title := r.URL.Query().Get("title")
	if title == "" {
		badRequest(w, "title is required")
		return
	}
	writeJSON(w, http.StatusOK, links.Backlinks(s.store.LoadAll(), title))
}

func (s *Server) handleUnresolved(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, s.cache.Unresolved(s.store.LoadAll()))
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	notes := s.store.LoadAll()
	titles := make([]string, 0, len(notes))
	for _, n := range notes {
		titles = append(titles, n.Title)
	}
	writeJSON(w, http.StatusOK, editor.Suggest(titles, r.URL.Query().Get("q"), limit))
}

func (s *Server) handleEditorContinue(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Line string `json:"line"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	cont, ok := editor.ContinueList(req.Line)
	writeJSON(w, http.StatusOK, map[string]any{
		"list":         ok,
		"next":         cont.Next,
		"clearCurrent": cont.ClearCurrent,
	})
}

func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	byKey := note.ByKey(s.store.LoadAll())
	html, err := markdown.Render(req.Content, func(title string) bool {
		_, ok := byKey[note.Key(title)]
		return ok
	})
	if err != nil {
		s.serverError(w, "render preview", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (s *Server) handleOverlay(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	html, err := markdown.Overlay(req.Content)
	if err != nil {
		s.serverError(w, "render overlay", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (s *Server) handleHighlight(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Code string `json:"code"`
		Lang string `json:"lang"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		badRequest(w, "invalid request body")
		return
	}
	html, err := markdown.Highlight(req.Code, req.Lang)
	if err != nil {
		s.serverError(w, "highlight", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"html": html})
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ID == "" {
		badRequest(w, "id is required")
		return
	}
	notes := s.store.LoadAll()
	i := note.FindByID(notes, req.ID)
	if i < 0 {
		http.NotFound(w, r)
		return
	}
	reply := s.ai.Analyze(r.Context(), notes[i], notes)
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	var req struct {
		Message string       `json:"message"`
		History []ai.Message `json:"history"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		badRequest(w, "message is required")
		return
	}
	reply := s.ai.Chat(r.Context(), req.History, req.Message, s.store.LoadAll())
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w)
		return
	}
	s.sync.Sync()
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"state": string(s.sync.State())})
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.store.LoadConfig())
	case http.MethodPut:
		var cfg store.AppConfig
		if err := json.NewDecoder(r.Body).Decode(&cfg); err != nil {
			badRequest(w, "invalid request body")
			return
		}
		if err := s.store.SaveConfig(cfg); err != nil {
			s.serverError(w, "save config", err)
			return
		}
		s.log.Info("config updated", "endpoint", cfg.RemoteEndpointURL)
		writeJSON(w, http.StatusOK, s.store.LoadConfig())
	default:
		methodNotAllowed(w)
	}
}

func (s *Server) serverError(w http.ResponseWriter, action string, err error) {
	s.log.Error(action+" failed", "error", err)
	writeError(w, http.StatusInternalServerError, action+" failed")
}

func badRequest(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusBadRequest, msg)
}

func conflict(w http.ResponseWriter, msg string) {
	writeError(w, http.StatusConflict, msg)
}

func methodNotAllowed(w http.ResponseWriter) {
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
