package services

import (
	"context"

	"prepwise/models"
)

// ModelGateway runs one agent invocation against the hosted model provider.
type ModelGateway interface {
	Run(ctx context.Context, req models.RunRequest) (*models.RunResult, error)
}

// ValidationError reports a missing or malformed request field. It is
// raised before any gateway is called.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func memoryContext(memories []models.MemoryEntry) map[string]any {
	return map[string]any{"memory": memories}
}
