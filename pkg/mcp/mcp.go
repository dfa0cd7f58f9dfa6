package mcp

import (
	"context"
	"fmt"
	"os/exec"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/client/transport"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
)

// serverImpl is the implementation of interfaces.MCPServer over a
// mark3labs client connection
type serverImpl struct {
	client *client.Client
}

// NewServer wraps an already constructed client and performs the MCP
// initialize handshake
func NewServer(ctx context.Context, c *client.Client) (interfaces.MCPServer, error) {
	initReq := mcp.InitializeRequest{
		Params: mcp.InitializeParams{
			ProtocolVersion: mcp.LATEST_PROTOCOL_VERSION,
			Capabilities:    mcp.ClientCapabilities{},
			ClientInfo: mcp.Implementation{
				Name:    "unifeast-agent",
				Version: "1.0.0",
			},
		},
	}

	if _, err := c.Initialize(ctx, initReq); err != nil {
		return nil, err
	}

	return &serverImpl{client: c}, nil
}

// Initialize initializes the connection to the MCP server. The handshake
// already happened in NewServer, so this is a no-op.
func (s *serverImpl) Initialize(ctx context.Context) error {
	return nil
}

// ListTools lists the tools available on the MCP server
func (s *serverImpl) ListTools(ctx context.Context) ([]interfaces.MCPTool, error) {
	resp, err := s.client.ListTools(ctx, mcp.ListToolsRequest{})
	if err != nil {
		return nil, err
	}

	tools := make([]interfaces.MCPTool, 0, len(resp.Tools))
	for _, t := range resp.Tools {
		tools = append(tools, interfaces.MCPTool{
			Name:        t.Name,
			Description: t.Description,
			Schema:      t.InputSchema,
		})
	}

	return tools, nil
}

// CallTool calls a tool on the MCP server
func (s *serverImpl) CallTool(ctx context.Context, name string, args interface{}) (*interfaces.MCPToolResponse, error) {
	resp, err := s.client.CallTool(ctx, mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Name:      name,
			Arguments: args,
		},
	})
	if err != nil {
		return nil, err
	}

	return &interfaces.MCPToolResponse{
		Content: resp.Content,
		IsError: resp.IsError,
	}, nil
}

// Close closes the connection to the MCP server
func (s *serverImpl) Close() error {
	return s.client.Close()
}

// StdioServerConfig holds configuration for a stdio MCP server
type StdioServerConfig struct {
	Command string
	Args    []string
	Env     []string
}

// NewStdioServer spawns the configured command and connects to it over stdio
func NewStdioServer(ctx context.Context, config StdioServerConfig) (interfaces.MCPServer, error) {
	if config.Command == "" {
		return nil, fmt.Errorf("command cannot be empty")
	}

	commandPath, err := exec.LookPath(config.Command)
	if err != nil {
		return nil, fmt.Errorf("invalid command %q: %w", config.Command, err)
	}

	c, err := client.NewStdioMCPClient(commandPath, config.Env, config.Args...)
	if err != nil {
		return nil, fmt.Errorf("failed to create stdio client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		if closeErr := c.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to start client: %v (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to start client: %w", err)
	}

	server, err := NewServer(ctx, c)
	if err != nil {
		if closeErr := c.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize MCP server: %v (close error: %v)", err, closeErr)
		}
		return nil, err
	}

	return server, nil
}

// HTTPServerConfig holds configuration for a streamable-HTTP MCP server
type HTTPServerConfig struct {
	BaseURL string
	Path    string
	Token   string
}

// NewHTTPServer connects to an MCP server over streamable HTTP
func NewHTTPServer(ctx context.Context, config HTTPServerConfig) (interfaces.MCPServer, error) {
	baseURL := config.BaseURL + config.Path

	var c *client.Client
	var err error

	if config.Token != "" {
		headers := map[string]string{
			"Authorization": "Bearer " + config.Token,
		}
		c, err = client.NewStreamableHttpClient(baseURL, transport.WithHTTPHeaders(headers))
	} else {
		c, err = client.NewStreamableHttpClient(baseURL)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP client: %w", err)
	}

	if err := c.Start(ctx); err != nil {
		if closeErr := c.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to start client: %v (close error: %v)", err, closeErr)
		}
		return nil, fmt.Errorf("failed to start client: %w", err)
	}

	server, err := NewServer(ctx, c)
	if err != nil {
		if closeErr := c.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to initialize MCP server: %v (close error: %v)", err, closeErr)
		}
		return nil, err
	}

	return server, nil
}
