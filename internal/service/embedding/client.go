// Package embedding implements the embedding half of the Embedding &
// Vector Store Client: a thin wrapper over the generative-model
// client's embedding endpoint.
package embedding

import (
	"context"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"github.com/originwatch/originwatch/internal/domain/vector"
)

// ModelName is the fixed embedding model whose native output size
// matches vector.Dimension.
const ModelName = "embedding-001"

// Client wraps a single embedding model. Retries are a caller policy;
// this component performs exactly one attempt per call.
type Client struct {
	genaiClient *genai.Client
	model       *genai.EmbeddingModel
	logger      *zap.Logger
}

// New dials the generative-model backend with the given API key and
// binds the fixed embedding model.
func New(ctx context.Context, apiKey string, logger *zap.Logger) (*Client, error) {
	genaiClient, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("dial generative-model client: %w", err)
	}

	return &Client{
		genaiClient: genaiClient,
		model:       genaiClient.EmbeddingModel(ModelName),
		logger:      logger,
	}, nil
}

// Embed returns the dense embedding of text, of fixed dimensionality
// vector.Dimension.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.model.EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embed content: %w", err)
	}
	if resp.Embedding == nil || len(resp.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding model returned no values")
	}

	values := resp.Embedding.Values
	if len(values) != vector.Dimension {
		c.logger.Warn("embedding model returned unexpected dimensionality",
			zap.Int("got", len(values)),
			zap.Int("want", vector.Dimension),
		)
	}
	return values, nil
}

// Close releases the underlying client connection.
func (c *Client) Close() error {
	return c.genaiClient.Close()
}
