package main

import (
	"context"

	"github.com/hibiken/asynq"

	"library-backend/internal/infrastructure/queue/handlers"
	"library-backend/internal/shared"
	"library-backend/pkg/container"
)

// HandlerRegistry holds all job handlers
type HandlerRegistry struct {
	fineSweep func(ctx context.Context, t *asynq.Task) error
}

// initializeHandlers creates all job handlers with their dependencies
func initializeHandlers(c *container.Container) *HandlerRegistry {
	return &HandlerRegistry{
		fineSweep: handlers.FineSweepHandler(c.LoanService),
	}
}

// RegisterHandlers registers all handlers with the mux
func (h *HandlerRegistry) RegisterHandlers(mux *asynq.ServeMux) {
	mux.HandleFunc(shared.TypeFinesSweep, h.fineSweep)
}
