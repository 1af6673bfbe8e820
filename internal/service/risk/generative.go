package risk

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	apperrors "github.com/originwatch/originwatch/internal/domain/errors"
	riskdomain "github.com/originwatch/originwatch/internal/domain/risk"
)

// GenerativeModelName is the fixed model backing both Generator.Summarize
// (used by the lite path) and the full generative risk assessment.
const GenerativeModelName = "gemini-1.5-flash"

// GenerativeClient wraps a single generative model. The full evaluator
// and the lite evaluator's optional Generator collaborator both use it;
// neither retries a failed call.
type GenerativeClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGenerativeClient dials the generative-model backend. A nil
// *GenerativeClient (construction skipped entirely when no API key is
// configured) is a valid, always-unreachable collaborator.
func NewGenerativeClient(ctx context.Context, apiKey string) (*GenerativeClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("dial generative model client: %w", err)
	}
	return &GenerativeClient{
		client: client,
		model:  client.GenerativeModel(GenerativeModelName),
	}, nil
}

// Generate issues a single prompt and returns the raw text response.
func (c *GenerativeClient) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", apperrors.NewGenerativeModelUnavailable(err)
	}
	return extractText(resp)
}

// Summarize implements Generator: a one-sentence risk summary for the
// lite path's explanation field.
func (c *GenerativeClient) Summarize(ctx context.Context, tier riskdomain.Tier, factors []string) (string, error) {
	prompt := fmt.Sprintf(
		"In one sentence, summarize a fraud-risk assessment with tier %s based on these factors: %s.",
		tier, strings.Join(factors, ", "),
	)
	return c.Generate(ctx, prompt)
}

// Close releases the underlying client connection.
func (c *GenerativeClient) Close() error {
	return c.client.Close()
}

func extractText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", apperrors.NewGenerativeModelUnavailable(fmt.Errorf("generative model returned no content"))
	}
	var b strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			b.WriteString(string(text))
		}
	}
	if b.Len() == 0 {
		return "", apperrors.NewGenerativeModelUnavailable(fmt.Errorf("generative model returned no text parts"))
	}
	return b.String(), nil
}
