package service

import (
	"context"
	"fmt"

	"github.com/fiskara/taxchat/internal/assistant"
)

// ToolHandler resolves one function tool the assistant may call mid-run.
type ToolHandler interface {
	Name() string
	Description() string
	Parameters() map[string]any
	Execute(ctx context.Context, args map[string]any) (string, error)
}

// ToolRegistry is a closed dispatch table: function name to handler.
// Names without a handler make the run fail; there is no generic fallback.
type ToolRegistry struct {
	handlers map[string]ToolHandler
}

func NewToolRegistry() *ToolRegistry {
	return &ToolRegistry{handlers: make(map[string]ToolHandler)}
}

func (r *ToolRegistry) Register(h ToolHandler) {
	r.handlers[h.Name()] = h
}

func (r *ToolRegistry) Get(name string) (ToolHandler, bool) {
	h, ok := r.handlers[name]
	return h, ok
}

// Definitions returns the full tool set enabled for a run: retrieval,
// code execution and every registered function tool.
func (r *ToolRegistry) Definitions() []assistant.Tool {
	tools := []assistant.Tool{{Type: "file_search"}, {Type: "code_interpreter"}}
	for _, h := range r.handlers {
		tools = append(tools, assistant.Tool{
			Type: "function",
			Function: &assistant.FunctionDef{
				Name:        h.Name(),
				Description: h.Description(),
				Parameters:  h.Parameters(),
			},
		})
	}
	return tools
}

// BuildRegistry wires up every tool the assistant is allowed to call.
func BuildRegistry() *ToolRegistry {
	r := NewToolRegistry()
	r.Register(ClientReferenceTool{})
	return r
}

// ClientReferenceTool echoes a client identifier back as a confirmation
// string. Placeholder until client records move into the advisory CRM.
type ClientReferenceTool struct{}

func (ClientReferenceTool) Name() string { return "get_client_reference" }

func (ClientReferenceTool) Description() string {
	return "Confirm a client reference number for the current consultation."
}

func (ClientReferenceTool) Parameters() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"client_id": map[string]any{
				"type":        "string",
				"description": "The client's reference identifier.",
			},
		},
		"required": []string{"client_id"},
	}
}

func (ClientReferenceTool) Execute(ctx context.Context, args map[string]any) (string, error) {
	id, _ := args["client_id"].(string)
	if id == "" {
		id, _ = args["raw"].(string)
	}
	if id == "" {
		id = "unknown"
	}
	return fmt.Sprintf("Client reference %s is registered with TaxChat advisory.", id), nil
}
