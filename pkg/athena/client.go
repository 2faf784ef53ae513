// Package athena wraps the AWS Athena API behind a narrow capability
// interface so the query runner can be tested without a network dependency.
package athena

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/athena"
)

// API is the subset of the Athena client used by the query runner:
// submit, poll, fetch.
type API interface {
	StartQueryExecution(ctx context.Context, params *athena.StartQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.StartQueryExecutionOutput, error)
	GetQueryExecution(ctx context.Context, params *athena.GetQueryExecutionInput, optFns ...func(*athena.Options)) (*athena.GetQueryExecutionOutput, error)
	GetQueryResults(ctx context.Context, params *athena.GetQueryResultsInput, optFns ...func(*athena.Options)) (*athena.GetQueryResultsOutput, error)
}

// NewClient builds a real Athena client for the given region using the
// default AWS credential chain.
func NewClient(ctx context.Context, region string) (*athena.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return athena.NewFromConfig(cfg), nil
}
