package garbhserver

import (
	"context"
	"fmt"

	"github.com/anatolykoptev/go_garbh/internal/engine"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ModelConfigOutput describes the active provider. Keys are never echoed.
type ModelConfigOutput struct {
	Provider          string `json:"model_provider"`
	ModelName         string `json:"model_name"`
	HasGroqKey        bool   `json:"has_groq_key"`
	Available         bool   `json:"available"`
	SupportsWebSearch bool   `json:"supports_web_search"`
}

// SetModelConfigInput is the input for set_model_config.
type SetModelConfigInput struct {
	Provider   string `json:"model_provider,omitempty" jsonschema:"gemini or groq"`
	ModelName  string `json:"model_name,omitempty" jsonschema:"Model id; empty keeps the current one or picks the provider default"`
	GroqAPIKey string `json:"groq_api_key,omitempty" jsonschema:"Groq API key; empty keeps the configured key"`
}

func registerGetModelConfig(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "get_model_config",
		Description: "Show the active model provider and model, whether a Groq key is set, and whether grounded web search is available.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, *ModelConfigOutput, error) {
		return nil, modelConfig(engine.CurrentProvider()), nil
	})
}

func registerSetModelConfig(server *mcp.Server) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "set_model_config",
		Description: "Switch the model provider (gemini or groq), the model name, or the Groq API key. Applies to all following calls.",
		Annotations: &mcp.ToolAnnotations{IdempotentHint: true},
	}, func(_ context.Context, _ *mcp.CallToolRequest, input SetModelConfigInput) (*mcp.CallToolResult, *ModelConfigOutput, error) {
		out, err := setModelConfig(input)
		return nil, out, err
	})
}

func setModelConfig(input SetModelConfigInput) (*ModelConfigOutput, error) {
	s, err := engine.UpdateProvider(engine.ProviderUpdate{
		Provider:   input.Provider,
		ModelName:  input.ModelName,
		GroqAPIKey: input.GroqAPIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("set_model_config: %w", err)
	}
	return modelConfig(s), nil
}

func modelConfig(s *engine.ProviderSettings) *ModelConfigOutput {
	out := &ModelConfigOutput{
		Provider:   string(s.Provider),
		ModelName:  s.ModelName,
		HasGroqKey: s.HasGroqKey,
	}
	if gen, err := s.Generator(); err == nil {
		out.Available = true
		out.SupportsWebSearch = gen.SupportsWebSearch()
	}
	return out
}
