package agent

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/personakit/personakit/internal/memory"
)

func chatRequest(t *testing.T, body string) *http.Request {
	t.Helper()
	return httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
}

func TestParseRequestValid(t *testing.T) {
	r := chatRequest(t, `{
		"messages": [
			{"id": "m1", "role": "user", "content": "hello"},
			{"role": "assistant", "content": "hi"}
		],
		"sessionId": "abc"
	}`)

	req, err := ParseRequest(r)
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}
	if req.SessionID != "abc" {
		t.Errorf("SessionID = %q, want abc", req.SessionID)
	}
	if len(req.Messages) != 2 {
		t.Fatalf("Messages = %d, want 2", len(req.Messages))
	}
	if req.Messages[0].ID != "m1" || req.Messages[0].Role != memory.RoleUser {
		t.Errorf("Messages[0] = %+v", req.Messages[0])
	}
	// Missing IDs are filled by position.
	if req.Messages[1].ID != "msg-1" {
		t.Errorf("Messages[1].ID = %q, want msg-1", req.Messages[1].ID)
	}
}

func TestParseRequestMissingMessages(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "null messages", body: `{"messages": null}`},
		{name: "messages not an array", body: `{"messages": "hello"}`},
		{name: "empty body", body: ``},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(chatRequest(t, tt.body))

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("ParseRequest() error = %v, want *ValidationError", err)
			}
			if valErr.Message != "Request must include messages array" {
				t.Errorf("Message = %q, want %q", valErr.Message, "Request must include messages array")
			}
		})
	}
}

func TestParseRequestMalformedJSON(t *testing.T) {
	// Syntax errors are distinguished from a missing messages field.
	tests := []struct {
		name string
		body string
	}{
		{name: "unclosed object", body: `{not json`},
		{name: "truncated array", body: `{"messages": [`},
		{name: "bare text", body: `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRequest(chatRequest(t, tt.body))

			var valErr *ValidationError
			if !errors.As(err, &valErr) {
				t.Fatalf("ParseRequest() error = %v, want *ValidationError", err)
			}
			if valErr.Message != "Invalid JSON in request body" {
				t.Errorf("Message = %q, want %q", valErr.Message, "Invalid JSON in request body")
			}
		})
	}
}

func TestParseRequestEmptyMessagesArray(t *testing.T) {
	// An explicitly empty array is a present messages field: valid, zero turns.
	req, err := ParseRequest(chatRequest(t, `{"messages": []}`))
	if err != nil {
		t.Fatalf("ParseRequest() error = %v", err)
	}
	if len(req.Messages) != 0 {
		t.Errorf("Messages = %d, want 0", len(req.Messages))
	}
}

func TestParseRequestInvalidRole(t *testing.T) {
	_, err := ParseRequest(chatRequest(t, `{"messages": [{"role": "wizard", "content": "x"}]}`))

	var valErr *ValidationError
	if !errors.As(err, &valErr) {
		t.Fatalf("ParseRequest() error = %v, want *ValidationError", err)
	}
	if valErr.Message != "Invalid message role: wizard" {
		t.Errorf("Message = %q, want %q", valErr.Message, "Invalid message role: wizard")
	}
}

func TestParseRequestSessionResolution(t *testing.T) {
	t.Run("body wins over header and cookie", func(t *testing.T) {
		r := chatRequest(t, `{"messages": [{"role": "user", "content": "x"}], "sessionId": "from-body"}`)
		r.Header.Set(SessionHeader, "from-header")
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})

		req, err := ParseRequest(r)
		if err != nil {
			t.Fatal(err)
		}
		if req.SessionID != "from-body" {
			t.Errorf("SessionID = %q, want from-body", req.SessionID)
		}
	})

	t.Run("header wins over cookie", func(t *testing.T) {
		r := chatRequest(t, `{"messages": [{"role": "user", "content": "x"}]}`)
		r.Header.Set(SessionHeader, "from-header")
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})

		req, err := ParseRequest(r)
		if err != nil {
			t.Fatal(err)
		}
		if req.SessionID != "from-header" {
			t.Errorf("SessionID = %q, want from-header", req.SessionID)
		}
	})

	t.Run("cookie as last resort", func(t *testing.T) {
		r := chatRequest(t, `{"messages": [{"role": "user", "content": "x"}]}`)
		r.AddCookie(&http.Cookie{Name: SessionCookie, Value: "from-cookie"})

		req, err := ParseRequest(r)
		if err != nil {
			t.Fatal(err)
		}
		if req.SessionID != "from-cookie" {
			t.Errorf("SessionID = %q, want from-cookie", req.SessionID)
		}
	})

	t.Run("none supplied", func(t *testing.T) {
		req, err := ParseRequest(chatRequest(t, `{"messages": [{"role": "user", "content": "x"}]}`))
		if err != nil {
			t.Fatal(err)
		}
		if req.SessionID != "" {
			t.Errorf("SessionID = %q, want empty", req.SessionID)
		}
	})
}
