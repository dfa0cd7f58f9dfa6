package agent

import (
	"context"
	"fmt"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
	"github.com/unifeast/unifeast-agent/pkg/logging"
	"github.com/unifeast/unifeast-agent/pkg/mcp"
	"github.com/unifeast/unifeast-agent/pkg/multitenancy"
)

// Agent wires an LLM, conversation memory, local tools and MCP servers
// into a single conversational entry point
type Agent struct {
	llm           interfaces.LLM
	memory        interfaces.Memory
	tools         []interfaces.Tool
	mcpServers    []interfaces.MCPServer
	systemPrompt  string
	maxIterations int
	orgID         string
	llmConfig     *interfaces.LLMConfig
	logger        logging.Logger
}

// Option represents an option for configuring the agent
type Option func(*Agent)

// WithLLM sets the LLM for the agent
func WithLLM(llm interfaces.LLM) Option {
	return func(a *Agent) {
		a.llm = llm
	}
}

// WithMemory sets the memory for the agent
func WithMemory(memory interfaces.Memory) Option {
	return func(a *Agent) {
		a.memory = memory
	}
}

// WithTools sets the local tools for the agent
func WithTools(tools ...interfaces.Tool) Option {
	return func(a *Agent) {
		a.tools = tools
	}
}

// WithMCPServers sets the MCP servers whose tools the agent can call
func WithMCPServers(servers ...interfaces.MCPServer) Option {
	return func(a *Agent) {
		a.mcpServers = servers
	}
}

// WithSystemPrompt sets the system prompt for the agent
func WithSystemPrompt(prompt string) Option {
	return func(a *Agent) {
		a.systemPrompt = prompt
	}
}

// WithMaxIterations sets the maximum number of tool-calling iterations
func WithMaxIterations(maxIterations int) Option {
	return func(a *Agent) {
		a.maxIterations = maxIterations
	}
}

// WithOrgID sets the organization ID attached to every run
func WithOrgID(orgID string) Option {
	return func(a *Agent) {
		a.orgID = orgID
	}
}

// WithLLMConfig sets the LLM sampling configuration
func WithLLMConfig(config interfaces.LLMConfig) Option {
	return func(a *Agent) {
		a.llmConfig = &config
	}
}

// WithLogger sets the logger for the agent
func WithLogger(logger logging.Logger) Option {
	return func(a *Agent) {
		a.logger = logger
	}
}

// NewAgent creates a new agent with the given options
func NewAgent(options ...Option) (*Agent, error) {
	agent := &Agent{
		maxIterations: 5,
		logger:        logging.New(),
	}

	for _, option := range options {
		option(agent)
	}

	if agent.llm == nil {
		return nil, fmt.Errorf("agent requires an LLM")
	}

	return agent, nil
}

// Run executes one conversational turn: the user message is recorded,
// the LLM answers with the tool catalog available, and the reply is
// recorded before being returned
func (a *Agent) Run(ctx context.Context, input string) (string, error) {
	if a.orgID != "" {
		ctx = multitenancy.WithOrgID(ctx, a.orgID)
	}

	if a.memory != nil {
		if err := a.memory.AddMessage(ctx, interfaces.Message{
			Role:    "user",
			Content: input,
		}); err != nil {
			return "", fmt.Errorf("failed to add user message to memory: %w", err)
		}
	}

	tools := a.collectTools(ctx)

	prompt := input
	if a.memory != nil {
		history, err := a.memory.GetMessages(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to get conversation history: %w", err)
		}
		prompt = formatHistoryIntoPrompt(history)
	}

	generateOptions := []interfaces.GenerateOption{}
	if a.systemPrompt != "" {
		generateOptions = append(generateOptions, interfaces.WithSystemMessage(a.systemPrompt))
	}
	if a.llmConfig != nil {
		generateOptions = append(generateOptions, interfaces.WithLLMConfig(*a.llmConfig))
	}
	generateOptions = append(generateOptions, interfaces.WithMaxIterations(a.maxIterations))
	if a.memory != nil && len(tools) > 0 {
		generateOptions = append(generateOptions, interfaces.WithMemory(a.memory))
	}

	var response string
	var err error
	if len(tools) > 0 {
		response, err = a.llm.GenerateWithTools(ctx, prompt, tools, generateOptions...)
	} else {
		response, err = a.llm.Generate(ctx, prompt, generateOptions...)
	}
	if err != nil {
		return "", fmt.Errorf("failed to generate response: %w", err)
	}

	if a.memory != nil {
		if err := a.memory.AddMessage(ctx, interfaces.Message{
			Role:    "assistant",
			Content: response,
		}); err != nil {
			return "", fmt.Errorf("failed to add assistant message to memory: %w", err)
		}
	}

	return response, nil
}

// collectTools merges the local tools with the tools advertised by each
// MCP server. A server that fails to list its tools is skipped so one
// unreachable server does not take down the whole turn.
func (a *Agent) collectTools(ctx context.Context) []interfaces.Tool {
	tools := make([]interfaces.Tool, len(a.tools))
	copy(tools, a.tools)

	for _, server := range a.mcpServers {
		mcpTools, err := server.ListTools(ctx)
		if err != nil {
			a.logger.Warn(ctx, "Failed to list tools from MCP server", map[string]interface{}{
				"error": err.Error(),
			})
			continue
		}
		for _, mcpTool := range mcpTools {
			tools = append(tools, mcp.NewTool(mcpTool.Name, mcpTool.Description, mcpTool.Schema, server))
		}
	}

	return tools
}

// formatHistoryIntoPrompt concatenates the transcript into a prompt so
// the model sees the full conversation each turn
func formatHistoryIntoPrompt(history []interfaces.Message) string {
	var prompt string
	for _, msg := range history {
		if msg.Content == "" {
			continue
		}
		prompt += msg.Role + ": " + msg.Content + "\n"
	}
	return prompt
}
