package providers

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

const MockClientName = "mock"

// MockResponse is one scripted reply for a MockClient.
type MockResponse struct {
	Content string
	Err     error
}

// MockClient is an LLMClient for testing. Responses can be scripted per
// call; once the script is exhausted the client answers with ResponseText.
type MockClient struct {
	// Configurable behavior
	Latency      time.Duration
	ResponseText string

	// RespondFunc, if set, computes the reply from the request and takes
	// precedence over the script.
	RespondFunc func(req *ChatRequest) (string, error)

	// Rate limiting
	RPM int

	mu     sync.Mutex
	script []MockResponse

	requestCount atomic.Int64
}

// NewMockClient creates a new mock client with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{
		Latency:      time.Millisecond,
		ResponseText: "mock response",
		RPM:          6000,
	}
}

// Enqueue appends scripted responses consumed in order, one per call.
func (c *MockClient) Enqueue(responses ...MockResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.script = append(c.script, responses...)
}

// RequestCount returns how many calls the client has served.
func (c *MockClient) RequestCount() int {
	return int(c.requestCount.Load())
}

// Name returns the client identifier.
func (c *MockClient) Name() string {
	return MockClientName
}

// RequestsPerMinute returns the RPM limit for rate limiting.
func (c *MockClient) RequestsPerMinute() int {
	return c.RPM
}

// Chat sends a mock chat request.
func (c *MockClient) Chat(ctx context.Context, req *ChatRequest) (*ChatResult, error) {
	start := time.Now()
	count := c.requestCount.Add(1)

	if c.Latency > 0 {
		select {
		case <-time.After(c.Latency):
		case <-ctx.Done():
			return nil, Transient(ctx.Err())
		}
	}

	content := c.ResponseText
	if c.RespondFunc != nil {
		var err error
		content, err = c.RespondFunc(req)
		if err != nil {
			return nil, err
		}
	} else {
		c.mu.Lock()
		if len(c.script) > 0 {
			next := c.script[0]
			c.script = c.script[1:]
			c.mu.Unlock()
			if next.Err != nil {
				return nil, next.Err
			}
			content = next.Content
		} else {
			c.mu.Unlock()
		}
	}

	promptTokens := 0
	for _, m := range req.Messages {
		promptTokens += len(m.Content) / 4
	}
	completionTokens := len(content) / 4

	return &ChatResult{
		RequestID:        fmt.Sprintf("mock-%d", count),
		Provider:         MockClientName,
		Content:          content,
		ModelUsed:        req.Model,
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		ExecutionTime:    time.Since(start),
	}, nil
}

// Verify interface
var _ LLMClient = (*MockClient)(nil)
