package openai

import (
	"context"
	"fmt"
	"strings"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"github.com/openai/openai-go/v2/shared"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/logging"
	"github.com/unifeast/unifeast-agent/pkg/multitenancy"
	"github.com/unifeast/unifeast-agent/pkg/retry"
)

const defaultBaseURL = "https://api.openai.com/v1"

// OpenAIClient implements the LLM interface for OpenAI
type OpenAIClient struct {
	client        openai.Client
	Model         string
	apiKey        string
	baseURL       string
	logger        logging.Logger
	retryExecutor *retry.Executor
}

// Option represents an option for configuring the OpenAI client
type Option func(*OpenAIClient)

// WithModel sets the model for the OpenAI client
func WithModel(model string) Option {
	return func(c *OpenAIClient) {
		c.Model = model
	}
}

// WithLogger sets the logger for the OpenAI client
func WithLogger(logger logging.Logger) Option {
	return func(c *OpenAIClient) {
		c.logger = logger
	}
}

// WithRetry configures retry policy for the client
func WithRetry(opts ...retry.Option) Option {
	return func(c *OpenAIClient) {
		c.retryExecutor = retry.NewExecutor(retry.NewPolicy(opts...))
	}
}

// WithBaseURL sets the base URL for the OpenAI client
func WithBaseURL(baseURL string) Option {
	return func(c *OpenAIClient) {
		c.baseURL = baseURL
		c.client = openai.NewClient(option.WithAPIKey(c.apiKey), option.WithBaseURL(baseURL))
	}
}

// NewClient creates a new OpenAI client
func NewClient(apiKey string, options ...Option) *OpenAIClient {
	client := &OpenAIClient{
		client:  openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(defaultBaseURL)),
		Model:   "gpt-4o-mini",
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		logger:  logging.New(),
	}

	for _, option := range options {
		option(client)
	}

	return client
}

// Name returns the name of the LLM provider
func (c *OpenAIClient) Name() string {
	return "openai"
}

// Generate generates text from a prompt
func (c *OpenAIClient) Generate(ctx context.Context, prompt string, options ...interfaces.GenerateOption) (string, error) {
	params := &interfaces.GenerateOptions{
		LLMConfig: &interfaces.LLMConfig{
			Temperature: 0.7,
			TopP:        1.0,
		},
	}
	for _, option := range options {
		if option != nil {
			option(params)
		}
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if params.SystemMessage != "" {
		messages = append(messages, openai.SystemMessage(params.SystemMessage))
	}
	messages = append(messages, openai.UserMessage(prompt))

	req := c.newRequest(ctx, messages, params)

	var resp *openai.ChatCompletion
	operation := func() error {
		c.logger.Debug(ctx, "Executing OpenAI API request", map[string]interface{}{
			"model":    c.Model,
			"messages": len(req.Messages),
		})

		var err error
		resp, err = c.client.Chat.Completions.New(ctx, req)
		if err != nil {
			c.logger.Error(ctx, "Error from OpenAI API", map[string]interface{}{
				"error": err.Error(),
				"model": c.Model,
			})
			return fmt.Errorf("failed to create chat completion: %w", err)
		}
		return nil
	}

	if err := c.execute(ctx, operation); err != nil {
		return "", err
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completions returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// GenerateWithTools generates text and dispatches the tool calls the model
// requests, feeding each result back until the model returns plain text or
// the iteration budget is spent
func (c *OpenAIClient) GenerateWithTools(ctx context.Context, prompt string, tools []interfaces.Tool, options ...interfaces.GenerateOption) (string, error) {
	params := &interfaces.GenerateOptions{}
	for _, option := range options {
		if option != nil {
			option(params)
		}
	}
	if params.LLMConfig == nil {
		params.LLMConfig = &interfaces.LLMConfig{
			Temperature: 0.7,
			TopP:        1.0,
		}
	}

	maxIterations := params.MaxIterations
	if maxIterations == 0 {
		maxIterations = 2
	}

	messages := []openai.ChatCompletionMessageParamUnion{}
	if params.SystemMessage != "" {
		messages = append(messages, openai.SystemMessage(params.SystemMessage))
	}
	messages = append(messages, openai.UserMessage(prompt))

	req := c.newRequest(ctx, messages, params)
	req.Tools = convertTools(tools)
	req.ParallelToolCalls = openai.Bool(false)

	// Counts identical tool invocations so a looping model gets warned
	toolCallHistory := make(map[string]int)

	for iteration := 0; iteration < maxIterations; iteration++ {
		req.Messages = messages

		c.logger.Debug(ctx, "Sending request with tools to OpenAI", map[string]interface{}{
			"model":         c.Model,
			"messages":      len(req.Messages),
			"tools":         len(req.Tools),
			"iteration":     iteration + 1,
			"maxIterations": maxIterations,
		})

		var resp *openai.ChatCompletion
		operation := func() error {
			var err error
			resp, err = c.client.Chat.Completions.New(ctx, req)
			if err != nil {
				c.logger.Error(ctx, "Error from OpenAI API", map[string]interface{}{"error": err.Error()})
				return fmt.Errorf("failed to create chat completion: %w", err)
			}
			return nil
		}
		if err := c.execute(ctx, operation); err != nil {
			return "", err
		}

		if len(resp.Choices) == 0 {
			return "", fmt.Errorf("no completions returned")
		}

		toolCalls := resp.Choices[0].Message.ToolCalls
		if len(toolCalls) == 0 {
			return strings.TrimSpace(resp.Choices[0].Message.Content), nil
		}

		c.logger.Info(ctx, "Processing tool calls", map[string]interface{}{
			"count":     len(toolCalls),
			"iteration": iteration + 1,
		})

		messages = append(messages, resp.Choices[0].Message.ToParam())

		for _, toolCall := range toolCalls {
			result, err := c.dispatchToolCall(ctx, toolCall, tools, toolCallHistory, params.Memory)
			if err != nil {
				result = fmt.Sprintf("Error: %v", err)
			}
			messages = append(messages, openai.ToolMessage(result, toolCall.ID))
		}
	}

	// Budget exhausted with tool calls still pending: ask for a final
	// answer without tools, as the original agent loop did. The request is
	// rebuilt so no tool-only fields linger; the API rejects
	// parallel_tool_calls when tools are absent.
	finalReq := c.newRequest(ctx, messages, params)

	var resp *openai.ChatCompletion
	operation := func() error {
		var err error
		resp, err = c.client.Chat.Completions.New(ctx, finalReq)
		if err != nil {
			return fmt.Errorf("failed to create chat completion: %w", err)
		}
		return nil
	}
	if err := c.execute(ctx, operation); err != nil {
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no completions returned")
	}

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// dispatchToolCall routes one model-requested tool call to the matching
// tool by name and records the exchange in memory when one is configured
func (c *OpenAIClient) dispatchToolCall(ctx context.Context, toolCall openai.ChatCompletionMessageToolCallUnion, tools []interfaces.Tool, history map[string]int, mem interfaces.Memory) (string, error) {
	name := toolCall.Function.Name
	arguments := toolCall.Function.Arguments

	var selected interfaces.Tool
	for _, tool := range tools {
		if tool.Name() == name {
			selected = tool
			break
		}
	}

	recordCall := func(content string) {
		if mem == nil {
			return
		}
		_ = mem.AddMessage(ctx, interfaces.Message{
			Role: "assistant",
			ToolCalls: []interfaces.ToolCall{{
				ID:        toolCall.ID,
				Name:      name,
				Arguments: arguments,
			}},
		})
		_ = mem.AddMessage(ctx, interfaces.Message{
			Role:       "tool",
			Content:    content,
			ToolCallID: toolCall.ID,
			Metadata:   map[string]interface{}{"tool_name": name},
		})
	}

	if selected == nil {
		c.logger.Error(ctx, "Tool not found", map[string]interface{}{"toolName": name})
		err := fmt.Errorf("tool not found: %s", name)
		recordCall(fmt.Sprintf("Error: %v", err))
		return "", err
	}

	c.logger.Info(ctx, "Executing tool", map[string]interface{}{"toolName": name})
	result, err := selected.Execute(ctx, arguments)
	if err != nil {
		c.logger.Error(ctx, "Tool execution failed", map[string]interface{}{
			"toolName": name,
			"error":    err.Error(),
		})
		recordCall(fmt.Sprintf("Error: %v", err))
		return "", err
	}

	cacheKey := name + ":" + arguments
	history[cacheKey]++
	if callCount := history[cacheKey]; callCount > 2 {
		result += fmt.Sprintf("\n\n[WARNING: This is call #%d to %s with identical parameters. You may be in a loop. Consider using the available information to provide a final answer.]", callCount, name)
		c.logger.Warn(ctx, "Repetitive tool call detected", map[string]interface{}{
			"toolName":  name,
			"callCount": callCount,
		})
	}

	recordCall(result)
	return result, nil
}

// newRequest builds a chat completion request from the generate options
func (c *OpenAIClient) newRequest(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, params *interfaces.GenerateOptions) openai.ChatCompletionNewParams {
	req := openai.ChatCompletionNewParams{
		Model:    openai.ChatModel(c.Model),
		Messages: messages,
	}

	if params.LLMConfig != nil {
		req.Temperature = openai.Float(params.LLMConfig.Temperature)
		req.TopP = openai.Float(params.LLMConfig.TopP)
		req.FrequencyPenalty = openai.Float(params.LLMConfig.FrequencyPenalty)
		req.PresencePenalty = openai.Float(params.LLMConfig.PresencePenalty)
		if len(params.LLMConfig.StopSequences) > 0 {
			req.Stop = openai.ChatCompletionNewParamsStopUnion{OfStringArray: params.LLMConfig.StopSequences}
		}
	}

	if orgID, err := multitenancy.GetOrgID(ctx); err == nil {
		req.User = openai.String(orgID)
	}

	return req
}

func (c *OpenAIClient) execute(ctx context.Context, operation func() error) error {
	if c.retryExecutor != nil {
		return c.retryExecutor.Execute(ctx, operation)
	}
	return operation()
}

// convertTools converts the tool catalog into OpenAI function definitions
func convertTools(tools []interfaces.Tool) []openai.ChatCompletionToolUnionParam {
	openaiTools := make([]openai.ChatCompletionToolUnionParam, len(tools))
	for i, tool := range tools {
		properties := make(map[string]interface{})
		required := []string{}

		for name, param := range tool.Parameters() {
			property := map[string]interface{}{
				"type":        param.Type,
				"description": param.Description,
			}
			if param.Default != nil {
				property["default"] = param.Default
			}
			if param.Enum != nil {
				property["enum"] = param.Enum
			}
			if param.Items != nil {
				items := map[string]interface{}{"type": param.Items.Type}
				if param.Items.Enum != nil {
					items["enum"] = param.Items.Enum
				}
				property["items"] = items
			}
			properties[name] = property
			if param.Required {
				required = append(required, name)
			}
		}

		openaiTools[i] = openai.ChatCompletionFunctionTool(shared.FunctionDefinitionParam{
			Name:        tool.Name(),
			Description: openai.String(tool.Description()),
			Parameters: map[string]interface{}{
				"type":       "object",
				"properties": properties,
				"required":   required,
			},
		})
	}
	return openaiTools
}
