// Package services contains the query runner business logic.
package services

import (
	"context"

	"github.com/czabriskie/simple-glue-athena/pkg/models"
)

// QueryRunner defines the submit/poll/fetch lifecycle for one query.
type QueryRunner interface {
	// Run submits the query, waits for a terminal status, and returns the
	// flattened result table.
	Run(ctx context.Context, req *models.QueryRequest) (*models.ResultTable, error)
	// Submit starts a query and returns its execution handle without waiting.
	Submit(ctx context.Context, req *models.QueryRequest) (models.ExecutionHandle, error)
	// Poll reads the current execution state for a handle.
	Poll(ctx context.Context, handle models.ExecutionHandle) (models.PollResult, error)
	// Wait polls until the query reaches a terminal status, returning an
	// error for FAILED or CANCELLED.
	Wait(ctx context.Context, handle models.ExecutionHandle) error
	// Fetch retrieves and flattens the first result page for a completed query.
	Fetch(ctx context.Context, handle models.ExecutionHandle) (*models.ResultTable, error)
}

// Logger defines logging interface.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
