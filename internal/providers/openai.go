package providers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"
	"github.com/openai/openai-go/v3/shared"
	"github.com/google/uuid"
)

const (
	OpenAIName         = "openai"
	openAIDefaultModel = "gpt-4o"
)

// OpenAIConfig holds configuration for the OpenAI client.
type OpenAIConfig struct {
	APIKey       string
	DefaultModel string
	Timeout      time.Duration
	RPM          int    // Requests per minute (default: 300)
	BaseURL      string // Optional (tests)
}

// OpenAIClient implements LLMClient using the official OpenAI SDK.
type OpenAIClient struct {
	apiKey       string
	defaultModel string
	timeout      time.Duration
	rpm          int
	client       openai.Client
}

// NewOpenAIClient creates a new OpenAI client.
func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.DefaultModel == "" {
		cfg.DefaultModel = openAIDefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 180 * time.Second
	}
	if cfg.RPM == 0 {
		cfg.RPM = 300
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.APIKey),
		// Single attempt per call; the orchestrator owns the backoff policy.
		option.WithMaxRetries(0),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	return &OpenAIClient{
		apiKey:       cfg.APIKey,
		defaultModel: cfg.DefaultModel,
		timeout:      cfg.Timeout,
		rpm:          cfg.RPM,
		client:       openai.NewClient(opts...),
	}
}

// Name returns the client identifier.
func (c *OpenAIClient) Name() string {
	return OpenAIName
}

// RequestsPerMinute returns the RPM limit for rate limiting.
func (c *OpenAIClient) RequestsPerMinute() int {
	return c.rpm
}

// Chat sends a chat completion request.
func (c *OpenAIClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()

	requestID := req.RequestID
	if requestID == "" {
		requestID = uuid.New().String()
	}

	model := req.Model
	if model == "" {
		model = c.defaultModel
	}

	params := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(model),
		Messages: make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)),
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(req.MaxTokens))
	}

	for _, m := range req.Messages {
		switch m.Role {
		case "system":
			params.Messages = append(params.Messages, openai.SystemMessage(m.Content))
		case "assistant":
			params.Messages = append(params.Messages, openai.AssistantMessage(m.Content))
		default:
			params.Messages = append(params.Messages, openai.UserMessage(m.Content))
		}
	}

	if req.ResponseFormat != nil && len(req.ResponseFormat.JSONSchema) > 0 {
		rf, err := buildOpenAIResponseFormat(req.ResponseFormat.JSONSchema)
		if err != nil {
			return nil, Fatal(err)
		}
		params.ResponseFormat = *rf
	}

	timeout := req.Timeout
	if timeout == 0 {
		timeout = c.timeout
	}

	resp, err := c.client.Chat.Completions.New(ctx, params, option.WithRequestTimeout(timeout))
	if err != nil {
		return nil, classifyOpenAIError(err)
	}

	if len(resp.Choices) == 0 {
		return nil, Transient(fmt.Errorf("no choices in response"))
	}

	return &ChatResult{
		RequestID:        requestID,
		Provider:         OpenAIName,
		Content:          resp.Choices[0].Message.Content,
		ModelUsed:        string(resp.Model),
		PromptTokens:     int(resp.Usage.PromptTokens),
		CompletionTokens: int(resp.Usage.CompletionTokens),
		TotalTokens:      int(resp.Usage.TotalTokens),
		ExecutionTime:    time.Since(start),
	}, nil
}

// buildOpenAIResponseFormat converts the canonical json_schema wrapper
// ({"name": ..., "strict": ..., "schema": {...}}) into SDK params.
func buildOpenAIResponseFormat(raw json.RawMessage) (*openai.ChatCompletionNewParamsResponseFormatUnion, error) {
	var wrapper struct {
		Name   string         `json:"name"`
		Strict bool           `json:"strict"`
		Schema map[string]any `json:"schema"`
	}
	if err := json.Unmarshal(raw, &wrapper); err != nil {
		return nil, fmt.Errorf("invalid response format schema: %w", err)
	}
	if wrapper.Name == "" {
		wrapper.Name = "response"
	}

	return &openai.ChatCompletionNewParamsResponseFormatUnion{
		OfJSONSchema: &shared.ResponseFormatJSONSchemaParam{
			JSONSchema: shared.ResponseFormatJSONSchemaJSONSchemaParam{
				Name:   wrapper.Name,
				Schema: wrapper.Schema,
				Strict: openai.Bool(wrapper.Strict),
			},
		},
	}, nil
}

// classifyOpenAIError maps SDK errors to the retry taxonomy.
func classifyOpenAIError(err error) error {
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		return ClassifyHTTPStatus(apiErr.StatusCode, err)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return Transient(err)
	}
	// Transport-level failure without a status code.
	return Transient(err)
}

// Verify interface
var _ LLMClient = (*OpenAIClient)(nil)
