package handlers

import "github.com/vidlearn/genai-relay/internal/registry"

// APIHandler is a handler for the API
type APIHandler struct {
	registry *registry.Registry
}

// NewAPIHandler creates a new API handler
func NewAPIHandler(reg *registry.Registry) *APIHandler {
	return &APIHandler{
		registry: reg,
	}
}
