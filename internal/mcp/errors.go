package mcp

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ValidationError represents invalid tool arguments
type ValidationError struct {
	Field  string
	Value  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field != "" && e.Value != "" {
		return fmt.Sprintf("validation failed for %s '%s': %s", e.Field, e.Value, e.Reason)
	}
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Reason)
	}
	return fmt.Sprintf("validation failed: %s", e.Reason)
}

// SecurityError represents a rejected input path
type SecurityError struct {
	Type    string // e.g., "path_traversal", "null_byte"
	Details string
}

func (e *SecurityError) Error() string {
	return fmt.Sprintf("security violation (%s): %s", e.Type, e.Details)
}

// parseArgs decodes tool arguments. An empty payload leaves args untouched.
func parseArgs(request *mcp.CallToolRequest, args any) error {
	raw := request.Params.Arguments
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, args); err != nil {
		return &ValidationError{
			Field:  "arguments",
			Reason: fmt.Sprintf("invalid JSON format: %v", err),
		}
	}
	return nil
}

// errorResult reports a tool failure to the client without failing the
// JSON-RPC call
func errorResult(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: "Error: " + fmt.Sprintf(format, args...)},
		},
	}
}

// jsonResult renders v as indented JSON text content
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode result: %w", err)
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(data)},
		},
	}, nil
}
