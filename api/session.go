package api

import (
	"net/http"

	"github.com/personakit/personakit/internal/log"
	"github.com/personakit/personakit/internal/memory"
)

// SessionHandler exposes session history management over the memory store.
type SessionHandler struct {
	store  memory.Store
	logger log.Logger
}

// NewSessionHandler creates a session handler. A nil store is allowed; the
// endpoints then respond 404.
func NewSessionHandler(store memory.Store, logger log.Logger) *SessionHandler {
	return &SessionHandler{store: store, logger: logger}
}

// RegisterRoutes registers session routes on the given mux.
func (h *SessionHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/sessions", h.list)
	mux.HandleFunc("GET /api/sessions/{id}", h.get)
	mux.HandleFunc("DELETE /api/sessions/{id}", h.delete)
}

// list returns all session keys, optionally filtered by ?prefix=.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "memory is not configured")
		return
	}

	keys, err := h.store.List(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		h.logger.Error("failed to list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list sessions")
		return
	}
	if keys == nil {
		keys = []string{}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessions": keys,
		"total":    len(keys),
	})
}

// get returns one session's message history.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "memory is not configured")
		return
	}

	id := r.PathValue("id")
	messages, err := h.store.Get(r.Context(), id)
	if err != nil {
		h.logger.Error("failed to load session", "sessionId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load session")
		return
	}
	if messages == nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"sessionId": id,
		"messages":  messages,
	})
}

// delete removes one session.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, http.StatusNotFound, "memory is not configured")
		return
	}

	id := r.PathValue("id")
	if err := h.store.Delete(r.Context(), id); err != nil {
		h.logger.Error("failed to delete session", "sessionId", id, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to delete session")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
