package refine

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/amishk599/jobscout/internal/model"
)

// ErrMissingCredential is returned by every Complete call when no API key was configured.
var ErrMissingCredential = errors.New("OpenAI API key is not configured")

// OpenAIConfig configures an OpenAIProvider.
type OpenAIConfig struct {
	BaseURL     string // empty means the public OpenAI endpoint
	APIKey      string
	Model       string
	Temperature float32
	// StructuredOutput asks the server to constrain the reply to the
	// RefinedResult JSON schema.
	StructuredOutput bool
}

// OpenAIProvider calls an OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client      *openai.Client
	apiKey      string
	model       string
	temperature float32
	format      *openai.ChatCompletionResponseFormat
}

// NewOpenAIProvider creates a provider. A nil httpClient uses http.DefaultClient.
func NewOpenAIProvider(cfg OpenAIConfig, httpClient *http.Client) (*OpenAIProvider, error) {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if httpClient != nil {
		clientCfg.HTTPClient = httpClient
	}

	p := &OpenAIProvider{
		client:      openai.NewClientWithConfig(clientCfg),
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
	// The request omits a zero temperature, which the API reads as its default of 1.
	if p.temperature == 0 {
		p.temperature = math.SmallestNonzeroFloat32
	}

	if cfg.StructuredOutput {
		schema, err := jsonschema.GenerateSchemaForType(model.RefinedResult{})
		if err != nil {
			return nil, fmt.Errorf("generate result schema: %w", err)
		}
		p.format = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONSchema,
			JSONSchema: &openai.ChatCompletionResponseFormatJSONSchema{
				Name:   "relevant_jobs",
				Schema: schema,
				Strict: true,
			},
		}
	}

	return p, nil
}

// Complete sends prompt as a single user message and returns the first choice's content.
func (p *OpenAIProvider) Complete(ctx context.Context, prompt string) (string, error) {
	if p.apiKey == "" {
		return "", ErrMissingCredential
	}

	req := openai.ChatCompletionRequest{
		Model: p.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature:    p.temperature,
		ResponseFormat: p.format,
	}

	resp, err := p.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("llm complete: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("llm returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
