package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"

	"github.com/personakit/personakit/internal/agent"
	"github.com/personakit/personakit/internal/log"
)

// ChatHandler handles the chat endpoint.
//
// POST /api/chat accepts {"messages": [{id?, role, content}], "sessionId"?}
// and responds with a Server-Sent Events stream:
//
//   - chunk: partial generated text {"text": "..."}
//   - done:  final output {"response": "...", "sessionId": "..."}
//   - error: generation failed mid-stream {"message": "..."}
//
// Validation failures return JSON {"error": "..."} with status 400 before
// any backend call; backend failures before the first token return 500.
type ChatHandler struct {
	agent  *agent.Agent
	logger log.Logger
}

// NewChatHandler creates a chat handler for the given agent.
func NewChatHandler(a *agent.Agent, logger log.Logger) *ChatHandler {
	return &ChatHandler{agent: a, logger: logger}
}

// RegisterRoutes registers chat routes on the given mux.
func (h *ChatHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
}

// SSEChunkData is the payload of "chunk" events.
type SSEChunkData struct {
	Text string `json:"text"`
}

// SSEDoneData is the payload of "done" events.
type SSEDoneData struct {
	Response  string `json:"response"`
	SessionID string `json:"sessionId"`
}

// SSEErrorData is the payload of "error" events.
type SSEErrorData struct {
	Message string `json:"message"`
}

func (h *ChatHandler) handleChat(w http.ResponseWriter, r *http.Request) {
	req, err := agent.ParseRequest(r)
	if err != nil {
		var validation *agent.ValidationError
		if errors.As(err, &validation) {
			writeError(w, http.StatusBadRequest, validation.Message)
			return
		}
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Body, header, and cookie yielded nothing: start a fresh session.
	if req.SessionID == "" {
		req.SessionID = uuid.NewString()
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		h.logger.Error("streaming not supported")
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return
	}

	// Headers are deferred until the first event so that pre-stream
	// failures can still produce a JSON error with a real status code.
	streaming := false
	start := func() {
		if streaming {
			return
		}
		streaming = true
		w.Header().Set("Content-Type", "text/event-stream")
		w.Header().Set("Cache-Control", "no-cache")
		w.Header().Set("Connection", "keep-alive")
		w.Header().Set("X-Accel-Buffering", "no")
		w.Header().Set(agent.SessionHeader, req.SessionID)
	}

	var response []byte
	emit := func(token string) error {
		start()
		if err := writeSSE(w, "chunk", SSEChunkData{Text: token}); err != nil {
			return err
		}
		flusher.Flush()
		response = append(response, token...)
		return nil
	}

	if err := h.agent.Respond(r.Context(), req, emit); err != nil {
		h.logger.Error("chat request failed", "sessionId", req.SessionID, "error", err)
		if streaming {
			// The stream already started; terminate with an error event
			// instead of a status code.
			_ = writeSSE(w, "error", SSEErrorData{Message: err.Error()})
			flusher.Flush()
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	start()
	_ = writeSSE(w, "done", SSEDoneData{Response: string(response), SessionID: req.SessionID})
	flusher.Flush()

	h.logger.Info("chat request completed",
		"sessionId", req.SessionID,
		"responseLen", len(response))
}

// writeSSE writes one Server-Sent Event.
func writeSSE(w http.ResponseWriter, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event, payload)
	return err
}
