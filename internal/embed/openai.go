// Package embed provides knowledge.Embedder implementations backed by
// third-party embedding APIs.
package embed

import (
	"context"
	"errors"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

// DefaultModel is the embedding model used when none is configured.
const DefaultModel = openai.SmallEmbedding3

// modelDimensions maps known embedding models to their output dimensions.
var modelDimensions = map[openai.EmbeddingModel]int{
	openai.SmallEmbedding3: 1536,
	openai.LargeEmbedding3: 3072,
	openai.AdaEmbeddingV2:  1536,
}

// ErrMissingAPIKey indicates no API key was supplied for the OpenAI embedder.
var ErrMissingAPIKey = errors.New("openai embedder: missing API key")

// OpenAIConfig configures an OpenAI embedder.
type OpenAIConfig struct {
	// APIKey authenticates against the OpenAI API. Required.
	APIKey string

	// Model selects the embedding model. Default: DefaultModel.
	Model openai.EmbeddingModel

	// Dimension overrides the model's dimension. Only needed for models
	// absent from the built-in table.
	Dimension int
}

// OpenAI embeds texts via the OpenAI embeddings API. It satisfies
// knowledge.Embedder.
type OpenAI struct {
	client    *openai.Client
	model     openai.EmbeddingModel
	dimension int
}

// NewOpenAI creates an OpenAI embedder.
func NewOpenAI(cfg OpenAIConfig) (*OpenAI, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	dimension := cfg.Dimension
	if dimension <= 0 {
		known, ok := modelDimensions[model]
		if !ok {
			return nil, fmt.Errorf("openai embedder: unknown dimension for model %q, set Dimension explicitly", model)
		}
		dimension = known
	}

	return &OpenAI{
		client:    openai.NewClient(cfg.APIKey),
		model:     model,
		dimension: dimension,
	}, nil
}

// Embed returns one vector per input text, in input order. Empty input
// returns an empty result without calling the API.
func (e *OpenAI) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequestStrings{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}
	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("create embeddings: want %d vectors, got %d", len(texts), len(resp.Data))
	}

	// The API reports each vector's input position; place by index rather
	// than trusting response order.
	out := make([][]float32, len(texts))
	for _, item := range resp.Data {
		if item.Index < 0 || item.Index >= len(out) {
			return nil, fmt.Errorf("create embeddings: index %d out of range", item.Index)
		}
		out[item.Index] = item.Embedding
	}
	for i, vec := range out {
		if vec == nil {
			return nil, fmt.Errorf("create embeddings: missing vector for input %d", i)
		}
		if len(vec) != e.dimension {
			return nil, fmt.Errorf("create embeddings: input %d has dimension %d, want %d", i, len(vec), e.dimension)
		}
	}

	return out, nil
}

// Dimension returns the fixed length of every vector this embedder produces.
func (e *OpenAI) Dimension() int {
	return e.dimension
}
