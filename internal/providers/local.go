package providers

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"
	lcopenai "github.com/tmc/langchaingo/llms/openai"
)

const LocalName = "local"

// LocalConfig points at a self-hosted OpenAI-compatible endpoint (llama.cpp,
// vLLM, Ollama). No API key is needed.
type LocalConfig struct {
	BaseURL string
	Model   string
	Token   string
}

// LocalClient implements LLMClient on top of langchaingo.
type LocalClient struct {
	model  string
	client llms.Model
}

// NewLocalClient creates a client for a local model host.
func NewLocalClient(cfg LocalConfig) (*LocalClient, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("local provider requires a base URL")
	}
	if cfg.Token == "" {
		cfg.Token = "none"
	}
	client, err := lcopenai.New(
		lcopenai.WithBaseURL(cfg.BaseURL),
		lcopenai.WithToken(cfg.Token),
		lcopenai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create local LLM client: %w", err)
	}
	return &LocalClient{model: cfg.Model, client: client}, nil
}

// Name returns the client identifier.
func (c *LocalClient) Name() string {
	return LocalName
}

// Chat sends the request to the local host.
func (c *LocalClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	content := make([]llms.MessageContent, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := llms.ChatMessageTypeHuman
		switch m.Role {
		case "system":
			role = llms.ChatMessageTypeSystem
		case "assistant":
			role = llms.ChatMessageTypeAI
		}
		content = append(content, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(m.Content)},
		})
	}

	opts := []llms.CallOption{llms.WithTemperature(req.Temperature)}
	if req.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(req.MaxTokens))
	}
	if req.ResponseFormat != nil {
		opts = append(opts, llms.WithJSONMode())
	}

	result := &ChatResult{
		RequestID: requestID,
		Provider:  LocalName,
		ModelUsed: c.model,
		Attempts:  1,
	}

	resp, err := c.client.GenerateContent(ctx, content, opts...)
	result.ExecutionTime = time.Since(start)
	if err != nil {
		result.ErrorType = "api_error"
		result.ErrorMessage = err.Error()
		return result, fmt.Errorf("local chat failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		result.ErrorType = "empty_response"
		result.ErrorMessage = "no choices in response"
		return result, fmt.Errorf("no choices in response")
	}

	result.Success = true
	result.Content = resp.Choices[0].Content
	if req.ResponseFormat != nil {
		parsed, err := parseStructuredJSON(result.Content)
		if err != nil {
			result.Success = false
			result.ErrorType = "json_parse"
			result.ErrorMessage = err.Error()
		} else {
			result.ParsedJSON = parsed
		}
	}
	return result, nil
}

var _ LLMClient = (*LocalClient)(nil)
