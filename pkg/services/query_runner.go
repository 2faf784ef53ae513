package services

import (
	"context"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsathena "github.com/aws/aws-sdk-go-v2/service/athena"
	"github.com/aws/aws-sdk-go-v2/service/athena/types"
	"github.com/google/uuid"

	"github.com/czabriskie/simple-glue-athena/pkg/athena"
	"github.com/czabriskie/simple-glue-athena/pkg/errors"
	"github.com/czabriskie/simple-glue-athena/pkg/infrastructure/metrics"
	"github.com/czabriskie/simple-glue-athena/pkg/models"
)

// DefaultPollInterval is the fixed delay between status polls, matching the
// observed service contract.
const DefaultPollInterval = 2 * time.Second

// RunnerOptions configures the polling policy.
type RunnerOptions struct {
	// PollInterval is the fixed delay between status polls.
	// Zero means DefaultPollInterval.
	PollInterval time.Duration
	// MaxWait bounds the total time spent polling. Zero means poll until a
	// terminal status is observed.
	MaxWait time.Duration
}

// queryRunner implements QueryRunner against the Athena API.
type queryRunner struct {
	client  athena.API
	logger  Logger
	metrics metrics.Collector
	opts    RunnerOptions
}

// NewQueryRunner creates a new query runner.
func NewQueryRunner(client athena.API, logger Logger, collector metrics.Collector, opts RunnerOptions) QueryRunner {
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	return &queryRunner{
		client:  client,
		logger:  logger,
		metrics: collector,
		opts:    opts,
	}
}

// Run executes the full submit/poll/fetch lifecycle for one query.
func (r *queryRunner) Run(ctx context.Context, req *models.QueryRequest) (*models.ResultTable, error) {
	timer := r.metrics.StartTimer("query_execution")
	defer timer.Stop()

	handle, err := r.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	if err := r.Wait(ctx, handle); err != nil {
		r.metrics.IncrementCounter("query_failures")
		return nil, err
	}

	table, err := r.Fetch(ctx, handle)
	if err != nil {
		return nil, err
	}

	r.metrics.IncrementCounter("queries_succeeded")
	r.metrics.RecordHistogram("query_result_rows", float64(table.NumRows()))
	r.logger.Info("query completed",
		"query_execution_id", string(handle),
		"rows", table.NumRows(),
		"columns", table.NumColumns())
	return table, nil
}

// Submit validates the request and starts the query execution.
func (r *queryRunner) Submit(ctx context.Context, req *models.QueryRequest) (models.ExecutionHandle, error) {
	if err := validateRequest(req); err != nil {
		r.metrics.IncrementCounter("query_validation_errors")
		return "", err
	}

	r.logger.Debug("submitting query", "database", req.Database, "query", req.QueryText)

	out, err := r.client.StartQueryExecution(ctx, &awsathena.StartQueryExecutionInput{
		QueryString:        aws.String(req.QueryText),
		ClientRequestToken: aws.String(uuid.NewString()),
		QueryExecutionContext: &types.QueryExecutionContext{
			Database: aws.String(req.Database),
		},
		ResultConfiguration: &types.ResultConfiguration{
			OutputLocation: aws.String(req.OutputLocation),
		},
	})
	if err != nil {
		// Transport and auth errors surface to the caller untouched.
		return "", err
	}

	handle := models.ExecutionHandle(aws.ToString(out.QueryExecutionId))
	r.metrics.IncrementCounter("queries_submitted")
	r.logger.Info("query submitted", "query_execution_id", string(handle))
	return handle, nil
}

// Poll reads the current execution state for a handle.
func (r *queryRunner) Poll(ctx context.Context, handle models.ExecutionHandle) (models.PollResult, error) {
	out, err := r.client.GetQueryExecution(ctx, &awsathena.GetQueryExecutionInput{
		QueryExecutionId: aws.String(string(handle)),
	})
	if err != nil {
		return models.PollResult{}, err
	}

	r.metrics.IncrementCounter("status_polls")

	var result models.PollResult
	if out.QueryExecution != nil && out.QueryExecution.Status != nil {
		status := out.QueryExecution.Status
		result.Status = models.QueryStatus(status.State)
		result.Reason = aws.ToString(status.StateChangeReason)
	}
	return result, nil
}

// Wait polls at a fixed interval until the query succeeds or returns the
// terminal failure as an error.
func (r *queryRunner) Wait(ctx context.Context, handle models.ExecutionHandle) error {
	start := time.Now()
	for {
		result, err := r.Poll(ctx, handle)
		if err != nil {
			return err
		}

		switch result.Status {
		case models.StatusSucceeded:
			return nil
		case models.StatusFailed:
			r.logger.Error("query failed", "query_execution_id", string(handle), "reason", result.Reason)
			return errors.QueryFailure(errors.CodeQueryFailed, result.Reason)
		case models.StatusCancelled:
			r.logger.Error("query cancelled", "query_execution_id", string(handle), "reason", result.Reason)
			return errors.QueryFailure(errors.CodeQueryCancelled, result.Reason)
		}

		r.logger.Info("query in progress", "query_execution_id", string(handle), "status", string(result.Status))

		if r.opts.MaxWait > 0 && time.Since(start)+r.opts.PollInterval > r.opts.MaxWait {
			return errors.Newf(errors.CodeDeadlineExceeded,
				"query %s did not reach a terminal status within %s", handle, r.opts.MaxWait)
		}
		if err := sleepContext(ctx, r.opts.PollInterval); err != nil {
			return err
		}
	}
}

// Fetch retrieves the first result page and flattens it.
func (r *queryRunner) Fetch(ctx context.Context, handle models.ExecutionHandle) (*models.ResultTable, error) {
	out, err := r.client.GetQueryResults(ctx, &awsathena.GetQueryResultsInput{
		QueryExecutionId: aws.String(string(handle)),
	})
	if err != nil {
		return nil, err
	}

	var rows []types.Row
	if out.ResultSet != nil {
		rows = out.ResultSet.Rows
	}
	return flattenRows(rows), nil
}

// flattenRows converts an Athena result set into a rectangular table.
// The first row supplies column names; absent cell values become empty
// strings; short rows are right-padded. Rows longer than the header are
// kept as-is.
func flattenRows(rows []types.Row) *models.ResultTable {
	if len(rows) == 0 {
		return &models.ResultTable{}
	}

	columns := make([]string, len(rows[0].Data))
	for i, d := range rows[0].Data {
		columns[i] = aws.ToString(d.VarCharValue)
	}

	data := make([][]string, 0, len(rows)-1)
	for _, row := range rows[1:] {
		cells := make([]string, len(row.Data))
		for i, d := range row.Data {
			cells[i] = aws.ToString(d.VarCharValue)
		}
		for len(cells) < len(columns) {
			cells = append(cells, "")
		}
		data = append(data, cells)
	}

	return &models.ResultTable{Columns: columns, Rows: data}
}

// validateRequest enforces the entry-point invariants.
func validateRequest(req *models.QueryRequest) error {
	if req == nil {
		return errors.New(errors.CodeInvalidRequest, "query request cannot be nil")
	}
	if strings.TrimSpace(req.Database) == "" {
		return errors.ErrEmptyDatabase
	}
	if strings.TrimSpace(req.QueryText) == "" {
		return errors.ErrEmptyQuery
	}
	if !strings.HasPrefix(req.OutputLocation, "s3://") {
		return errors.ErrInvalidOutputLocation
	}
	if strings.TrimSpace(req.Region) == "" {
		return errors.ErrEmptyRegion
	}
	return nil
}

// sleepContext blocks for d or until ctx is cancelled.
func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
