package model

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	openai "github.com/sashabaranov/go-openai"

	"github.com/plankit/plankit/log"
	"github.com/plankit/plankit/tool"
)

// OpenAIAdapter implements Adapter over the OpenAI chat completions API.
// It also works against OpenAI-compatible endpoints (set a base URL).
type OpenAIAdapter struct {
	client        *openai.Client
	modelName     string
	temperature   float32
	supportsTools bool
	maxToolRounds int
	logger        log.Logger
}

var _ Adapter = (*OpenAIAdapter)(nil)

type OpenAIOption func(*openAIConfig)

type openAIConfig struct {
	baseURL       string
	modelName     string
	temperature   float32
	supportsTools bool
	maxToolRounds int
	logger        log.Logger
	httpClient    openai.HTTPDoer
}

// WithOpenAIBaseURL points the client at an OpenAI-compatible endpoint.
func WithOpenAIBaseURL(baseURL string) OpenAIOption {
	return func(c *openAIConfig) {
		c.baseURL = baseURL
	}
}

// WithOpenAIModel sets the model name (default gpt-4o-mini).
func WithOpenAIModel(name string) OpenAIOption {
	return func(c *openAIConfig) {
		c.modelName = name
	}
}

// WithOpenAITemperature sets the sampling temperature.
func WithOpenAITemperature(t float32) OpenAIOption {
	return func(c *openAIConfig) {
		c.temperature = t
	}
}

// WithOpenAINativeTools toggles the native tool-calling path.
func WithOpenAINativeTools(supported bool) OpenAIOption {
	return func(c *openAIConfig) {
		c.supportsTools = supported
	}
}

// WithOpenAIMaxToolRounds caps the native round-trip loop.
func WithOpenAIMaxToolRounds(n int) OpenAIOption {
	return func(c *openAIConfig) {
		if n > 0 {
			c.maxToolRounds = n
		}
	}
}

// WithOpenAILogger sets the adapter logger.
func WithOpenAILogger(logger log.Logger) OpenAIOption {
	return func(c *openAIConfig) {
		c.logger = logger
	}
}

// WithOpenAIHTTPClient sets a custom HTTP client.
func WithOpenAIHTTPClient(client openai.HTTPDoer) OpenAIOption {
	return func(c *openAIConfig) {
		c.httpClient = client
	}
}

// NewOpenAIAdapter creates an adapter. If apiKey is empty, OPENAI_API_KEY
// is read from the environment.
func NewOpenAIAdapter(apiKey string, opts ...OpenAIOption) (*OpenAIAdapter, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY not set")
	}

	cfg := &openAIConfig{
		modelName:     openai.GPT4oMini,
		supportsTools: true,
		maxToolRounds: 10,
		logger:        &log.NoOpLogger{},
	}
	for _, opt := range opts {
		opt(cfg)
	}

	clientConfig := openai.DefaultConfig(apiKey)
	if cfg.baseURL != "" {
		clientConfig.BaseURL = cfg.baseURL
	}
	if cfg.httpClient != nil {
		clientConfig.HTTPClient = cfg.httpClient
	}

	return &OpenAIAdapter{
		client:        openai.NewClientWithConfig(clientConfig),
		modelName:     cfg.modelName,
		temperature:   cfg.temperature,
		supportsTools: cfg.supportsTools,
		maxToolRounds: cfg.maxToolRounds,
		logger:        cfg.logger,
	}, nil
}

// SupportsNativeTools reports whether tool calling is enabled.
func (a *OpenAIAdapter) SupportsNativeTools() bool {
	return a.supportsTools
}

// Complete generates a single text completion.
func (a *OpenAIAdapter) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       a.modelName,
		Temperature: a.temperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty response from model")
	}
	return resp.Choices[0].Message.Content, nil
}

// ExecuteWithTools runs the prompt with OpenAI function calling.
func (a *OpenAIAdapter) ExecuteWithTools(ctx context.Context, prompt string, tools []tool.Tool) (*NativeResult, error) {
	byName := make(map[string]tool.Tool, len(tools))
	toolDefs := make([]openai.Tool, 0, len(tools))
	for _, t := range tools {
		byName[t.Name] = t
		toolDefs = append(toolDefs, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  schemaAsMap(t.ParamsSchema),
			},
		})
	}

	messages := []openai.ChatCompletionMessage{
		{Role: openai.ChatMessageRoleUser, Content: prompt},
	}

	result := &NativeResult{}

	for round := 0; round < a.maxToolRounds; round++ {
		resp, err := a.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
			Model:       a.modelName,
			Temperature: a.temperature,
			Messages:    messages,
			Tools:       toolDefs,
		})
		if err != nil {
			return nil, err
		}
		if len(resp.Choices) == 0 {
			return nil, fmt.Errorf("empty response from model")
		}
		msg := resp.Choices[0].Message

		if len(msg.ToolCalls) == 0 {
			result.Content = msg.Content
			result.Success = true
			return result, nil
		}

		messages = append(messages, msg)

		for _, tc := range msg.ToolCalls {
			callResult := a.invokeTool(ctx, byName, tc.Function.Name, tc.Function.Arguments)
			result.ToolCalls = append(result.ToolCalls, ToolCallRecord{
				Name:      tc.Function.Name,
				Arguments: tc.Function.Arguments,
				Result:    callResult,
			})
			messages = append(messages, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    callResult,
				Name:       tc.Function.Name,
				ToolCallID: tc.ID,
			})
		}
	}

	result.Errors = append(result.Errors, fmt.Sprintf("tool round limit (%d) reached", a.maxToolRounds))
	return result, nil
}

func (a *OpenAIAdapter) invokeTool(ctx context.Context, byName map[string]tool.Tool, name, arguments string) string {
	t, ok := byName[name]
	if !ok {
		a.logger.Warn("model requested unknown tool %s", name)
		return fmt.Sprintf("Error: tool not found: %s", name)
	}

	var params map[string]any
	if err := json.Unmarshal([]byte(arguments), &params); err != nil {
		params = map[string]any{"input": arguments}
	}

	out, err := t.Action(ctx, params)
	if err != nil {
		return fmt.Sprintf("Error: %v", err)
	}
	return out
}
