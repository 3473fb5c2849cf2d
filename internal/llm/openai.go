// Package llm provides agent.Generator implementations for third-party
// text-generation backends.
package llm

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"

	"github.com/personakit/personakit/internal/agent"
	"github.com/personakit/personakit/internal/memory"
)

// DefaultModel is the chat model used when none is configured.
const DefaultModel = "gpt-4o-mini"

// ErrMissingAPIKey indicates no API key was supplied for the OpenAI backend.
var ErrMissingAPIKey = errors.New("openai generator: missing API key")

// OpenAI streams chat completions from the OpenAI API. It satisfies
// agent.Generator.
type OpenAI struct {
	client *openai.Client
	model  string
}

// NewOpenAI creates an OpenAI generator. An empty model means DefaultModel.
func NewOpenAI(apiKey, model string) (*OpenAI, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if model == "" {
		model = DefaultModel
	}
	return &OpenAI{client: openai.NewClient(apiKey), model: model}, nil
}

// Stream opens a streaming chat completion. The system prompt, when
// non-empty, is prepended as a system message ahead of the conversation.
func (g *OpenAI) Stream(ctx context.Context, system string, messages []memory.Message) (agent.TokenStream, error) {
	chat := make([]openai.ChatCompletionMessage, 0, len(messages)+1)
	if system != "" {
		chat = append(chat, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: system,
		})
	}
	for _, msg := range messages {
		chat = append(chat, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}

	stream, err := g.client.CreateChatCompletionStream(ctx, openai.ChatCompletionRequest{
		Model:    g.model,
		Messages: chat,
	})
	if err != nil {
		return nil, fmt.Errorf("create chat completion stream: %w", err)
	}

	return &tokenStream{stream: stream}, nil
}

// tokenStream adapts openai.ChatCompletionStream to agent.TokenStream.
type tokenStream struct {
	stream *openai.ChatCompletionStream
}

// Recv returns the next text delta. Chunks without choices (e.g. usage
// frames) yield an empty token; io.EOF marks the end of the stream.
func (s *tokenStream) Recv() (string, error) {
	resp, err := s.stream.Recv()
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Delta.Content, nil
}

// Close releases the underlying HTTP response.
func (s *tokenStream) Close() error {
	return s.stream.Close()
}
