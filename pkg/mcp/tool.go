package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/unifeast/unifeast-agent/pkg/interfaces"
)

// Tool exposes a tool advertised by a remote MCP server as interfaces.Tool,
// so the completion API can invoke it like any built-in tool
type Tool struct {
	name        string
	description string
	schema      interface{}
	server      interfaces.MCPServer
}

// NewTool creates a tool backed by the given MCP server
func NewTool(name, description string, schema interface{}, server interfaces.MCPServer) *Tool {
	return &Tool{
		name:        name,
		description: description,
		schema:      schema,
		server:      server,
	}
}

// Name returns the name of the tool
func (t *Tool) Name() string {
	return t.name
}

// Description returns a description of what the tool does
func (t *Tool) Description() string {
	return t.description
}

// Parameters converts the advertised JSON schema into parameter specs
func (t *Tool) Parameters() map[string]interfaces.ParameterSpec {
	params := make(map[string]interfaces.ParameterSpec)

	schemaMap, ok := toSchemaMap(t.schema)
	if !ok {
		return params
	}

	properties, ok := schemaMap["properties"].(map[string]interface{})
	if !ok {
		return params
	}

	required := map[string]bool{}
	if names, ok := schemaMap["required"].([]interface{}); ok {
		for _, name := range names {
			if s, ok := name.(string); ok {
				required[s] = true
			}
		}
	}

	for name, prop := range properties {
		propMap, ok := prop.(map[string]interface{})
		if !ok {
			continue
		}

		spec := interfaces.ParameterSpec{
			Type:     propertyType(propMap),
			Required: required[name],
		}
		if desc, ok := propMap["description"].(string); ok {
			spec.Description = desc
		}
		params[name] = spec
	}

	return params
}

// propertyType extracts the type from a schema property, unwrapping anyOf
// unions to the first non-null member
func propertyType(propMap map[string]interface{}) string {
	if t, ok := propMap["type"].(string); ok {
		return t
	}
	if anyOf, ok := propMap["anyOf"].([]interface{}); ok {
		for _, option := range anyOf {
			if optionMap, ok := option.(map[string]interface{}); ok {
				if t, ok := optionMap["type"].(string); ok && t != "null" {
					return t
				}
			}
		}
	}
	return "string"
}

func toSchemaMap(schema interface{}) (map[string]interface{}, bool) {
	switch s := schema.(type) {
	case nil:
		return nil, false
	case map[string]interface{}:
		return s, true
	case string:
		var m map[string]interface{}
		if err := json.Unmarshal([]byte(s), &m); err != nil {
			return nil, false
		}
		return m, true
	default:
		data, err := json.Marshal(schema)
		if err != nil {
			return nil, false
		}
		var m map[string]interface{}
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, false
		}
		return m, true
	}
}

// Execute forwards the call to the remote MCP server and returns the
// textual content of its response
func (t *Tool) Execute(ctx context.Context, args string) (string, error) {
	var arguments map[string]interface{}
	if args != "" {
		if err := json.Unmarshal([]byte(args), &arguments); err != nil {
			return "", fmt.Errorf("failed to parse tool arguments as JSON: %w", err)
		}
	}

	resp, err := t.server.CallTool(ctx, t.name, arguments)
	if err != nil {
		return "", fmt.Errorf("MCP server call failed: %w", err)
	}

	text := ExtractText(resp.Content)
	if resp.IsError {
		return "", fmt.Errorf("MCP tool error: %s", text)
	}

	return text, nil
}

// ExtractText flattens the content shapes MCP servers return into a string
func ExtractText(content interface{}) string {
	switch c := content.(type) {
	case nil:
		return ""
	case string:
		return c
	case []byte:
		return string(c)
	case mcp.TextContent:
		return c.Text
	case *mcp.TextContent:
		return c.Text
	case []mcp.Content:
		var result string
		for i, item := range c {
			if i > 0 {
				result += "\n"
			}
			result += ExtractText(item)
		}
		return result
	case []interface{}:
		var result string
		for i, item := range c {
			if i > 0 {
				result += "\n"
			}
			result += ExtractText(item)
		}
		return result
	case map[string]interface{}:
		for _, key := range []string{"text", "content", "message"} {
			if s, ok := c[key].(string); ok {
				return s
			}
		}
		if data, err := json.Marshal(c); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", c)
	default:
		if data, err := json.Marshal(content); err == nil {
			return string(data)
		}
		return fmt.Sprintf("%v", content)
	}
}
