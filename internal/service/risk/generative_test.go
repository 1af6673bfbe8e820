package risk

import (
	"testing"

	"github.com/google/generative-ai-go/genai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractText_ConcatenatesTextParts(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{
				Content: &genai.Content{
					Parts: []genai.Part{genai.Text("hello "), genai.Text("world")},
				},
			},
		},
	}

	text, err := extractText(resp)

	require.NoError(t, err)
	assert.Equal(t, "hello world", text)
}

func TestExtractText_NoCandidatesErrors(t *testing.T) {
	_, err := extractText(&genai.GenerateContentResponse{})
	assert.Error(t, err)
}

func TestExtractText_EmptyPartsErrors(t *testing.T) {
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: nil}},
		},
	}
	_, err := extractText(resp)
	assert.Error(t, err)
}
