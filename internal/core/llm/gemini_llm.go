package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/audiencelab-io/audiencelab/internal/core"
)

// NoStructuredOutputError means the provider returned something that could
// not be coerced to the requested schema. It carries the raw text and usage
// diagnostics so the caller can surface or log them. It is never retried
// here; the user may manually resubmit.
type NoStructuredOutputError struct {
	RawText      string
	FinishReason string
	PromptTokens int32
	OutputTokens int32
}

func (e *NoStructuredOutputError) Error() string {
	return fmt.Sprintf("no structured output (finish=%s, prompt_tokens=%d, output_tokens=%d)",
		e.FinishReason, e.PromptTokens, e.OutputTokens)
}

type GeminiLLM struct {
	client    *genai.Client
	modelName string
}

func NewGeminiLLM(ctx context.Context, apiKey, modelName string) (*GeminiLLM, error) {
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	cl, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	if modelName == "" {
		modelName = "gemini-1.5-flash"
	}
	return &GeminiLLM{client: cl, modelName: modelName}, nil
}

func (g *GeminiLLM) Close() error {
	if g.client != nil {
		return g.client.Close()
	}
	return nil
}

// GenerateJSON asks Gemini for schema-shaped JSON and returns the raw bytes.
// The schema rides along as the provider-side decoding constraint; callers
// still re-validate after unmarshalling.
func (g *GeminiLLM) GenerateJSON(ctx context.Context, prompt string, schema *genai.Schema, opts *core.GenerateOptions) ([]byte, error) {
	m := g.client.GenerativeModel(g.modelName)
	m.ResponseMIMEType = "application/json"
	m.ResponseSchema = schema
	if opts != nil && opts.Temperature != nil {
		m.SetTemperature(*opts.Temperature)
	}

	resp, err := m.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return nil, fmt.Errorf("gemini generate: %w", err)
	}

	outErr := &NoStructuredOutputError{}
	if resp.UsageMetadata != nil {
		outErr.PromptTokens = resp.UsageMetadata.PromptTokenCount
		outErr.OutputTokens = resp.UsageMetadata.CandidatesTokenCount
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, outErr
	}
	outErr.FinishReason = resp.Candidates[0].FinishReason.String()

	var b strings.Builder
	for _, p := range resp.Candidates[0].Content.Parts {
		if t, ok := p.(genai.Text); ok {
			b.WriteString(string(t))
		}
	}

	raw := stripCodeFence(b.String())
	if !json.Valid([]byte(raw)) {
		outErr.RawText = raw
		return nil, outErr
	}
	return []byte(raw), nil
}

// stripCodeFence removes a markdown ```json fence some models wrap JSON in
// even when asked for application/json.
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

var _ core.LLMProvider = (*GeminiLLM)(nil)
