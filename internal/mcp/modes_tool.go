package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/kfreiman/interviewcoach/internal/prompts"
)

// ModeInfo describes one interviewer tone
type ModeInfo struct {
	Mode prompts.Mode `json:"mode"`
	Tone string       `json:"tone"`
}

// ListModes returns every prompt mode with its tone line
func ListModes(catalog *prompts.Catalog) ([]ModeInfo, error) {
	modes := make([]ModeInfo, 0, len(prompts.Modes))
	for _, m := range prompts.Modes {
		tone, err := catalog.Tone(m)
		if err != nil {
			return nil, err
		}
		modes = append(modes, ModeInfo{Mode: m, Tone: tone})
	}
	return modes, nil
}

// ListPromptModesTool implements the list_prompt_modes tool
type ListPromptModesTool struct {
	catalog *prompts.Catalog
}

// NewListPromptModesTool creates the tool
func NewListPromptModesTool(catalog *prompts.Catalog) *ListPromptModesTool {
	return &ListPromptModesTool{catalog: catalog}
}

// Call implements the MCP tool interface
func (t *ListPromptModesTool) Call(ctx context.Context, request *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	modes, err := ListModes(t.catalog)
	if err != nil {
		return errorResult("%v", err), nil
	}
	return jsonResult(map[string]any{
		"default": prompts.ModeDefault,
		"modes":   modes,
	})
}
