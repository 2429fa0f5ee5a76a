package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"library-backend/internal/assistant"
	"library-backend/internal/shared/response"
)

// Handler - HTTP surface over the tool registry
type Handler struct {
	registry *assistant.Registry
}

// NewHandler - Constructor with DI
func NewHandler(registry *assistant.Registry) *Handler {
	return &Handler{registry: registry}
}

// ListTools - GET /v1/assistant/tools
func (h *Handler) ListTools(c *gin.Context) {
	response.Success(c, http.StatusOK, h.registry.List())
}

// InvokeTool - POST /v1/assistant/tools/:name
// The request body is passed through to the tool as its arguments.
func (h *Handler) InvokeTool(c *gin.Context) {
	var args json.RawMessage
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&args); err != nil {
			response.BadRequest(c, "INVALID_REQUEST", "Arguments must be valid JSON")
			return
		}
	}

	result, err := h.registry.Dispatch(c.Request.Context(), c.Param("name"), args)
	if err != nil {
		response.FromError(c, err)
		return
	}

	response.Success(c, http.StatusOK, result)
}
