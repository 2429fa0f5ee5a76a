package assistant

import (
	"context"
	"encoding/json"

	"library-backend/internal/shared/errs"
)

// HandlerFunc executes one tool call. Arguments arrive as the raw
// JSON object the caller supplied.
type HandlerFunc func(ctx context.Context, args json.RawMessage) (interface{}, error)

// Tool describes one callable operation: the name a model (or any
// client) invokes it by, a human-readable description, and a JSON
// schema for its arguments.
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`

	handler HandlerFunc
}

// Registry maps tool names to handlers, preserving registration
// order for listing.
type Registry struct {
	tools map[string]*Tool
	order []string
}

func NewRegistry() *Registry {
	return &Registry{tools: map[string]*Tool{}}
}

func (r *Registry) Register(tool Tool, handler HandlerFunc) {
	tool.handler = handler
	if _, exists := r.tools[tool.Name]; !exists {
		r.order = append(r.order, tool.Name)
	}
	r.tools[tool.Name] = &tool
}

// List returns the tool descriptors in registration order.
func (r *Registry) List() []Tool {
	out := make([]Tool, 0, len(r.order))
	for _, name := range r.order {
		out = append(out, *r.tools[name])
	}
	return out
}

// Dispatch runs the named tool. Unknown names are a not-found error,
// malformed argument JSON a validation error; everything else is
// whatever the tool's underlying service returned.
func (r *Registry) Dispatch(ctx context.Context, name string, args json.RawMessage) (interface{}, error) {
	tool, ok := r.tools[name]
	if !ok {
		return nil, errs.NotFound("unknown tool %q", name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if !json.Valid(args) {
		return nil, errs.Invalid("tool arguments must be a JSON object")
	}
	return tool.handler(ctx, args)
}
