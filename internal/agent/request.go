package agent

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/personakit/personakit/internal/memory"
)

// SessionCookie is the cookie consulted when neither the request body nor
// the x-session-id header carries a session id.
const SessionCookie = "personakit-session"

// SessionHeader is the header consulted after the request body.
const SessionHeader = "x-session-id"

type wireMessage struct {
	ID      string `json:"id"`
	Role    string `json:"role"`
	Content string `json:"content"`
}

type wireRequest struct {
	Messages  json.RawMessage `json:"messages"`
	SessionID string          `json:"sessionId"`
}

// ParseRequest validates and decodes a chat request body.
//
// The session id resolves in order: body field, x-session-id header,
// personakit-session cookie. An empty SessionID in the result means the
// caller supplied none; handlers generate a fresh one.
//
// All failures are *ValidationError and occur before any backend call.
func ParseRequest(r *http.Request) (*ChatRequest, error) {
	var body wireRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		// An empty body means the messages array is missing; anything
		// else is a syntax problem worth naming distinctly.
		if errors.Is(err, io.EOF) {
			return nil, &ValidationError{Message: "Request must include messages array"}
		}
		return nil, &ValidationError{Message: "Invalid JSON in request body"}
	}

	if len(body.Messages) == 0 || string(body.Messages) == "null" {
		return nil, &ValidationError{Message: "Request must include messages array"}
	}

	var wire []wireMessage
	if err := json.Unmarshal(body.Messages, &wire); err != nil {
		return nil, &ValidationError{Message: "Request must include messages array"}
	}

	messages := make([]memory.Message, 0, len(wire))
	for i, m := range wire {
		if !memory.ValidRole(m.Role) {
			return nil, &ValidationError{Message: fmt.Sprintf("Invalid message role: %s", m.Role)}
		}

		id := m.ID
		if id == "" {
			id = fmt.Sprintf("msg-%d", i)
		}
		messages = append(messages, memory.Message{
			ID:      id,
			Role:    m.Role,
			Content: m.Content,
		})
	}

	sessionID := body.SessionID
	if sessionID == "" {
		sessionID = r.Header.Get(SessionHeader)
	}
	if sessionID == "" {
		if cookie, err := r.Cookie(SessionCookie); err == nil {
			sessionID = cookie.Value
		}
	}

	return &ChatRequest{Messages: messages, SessionID: sessionID}, nil
}
