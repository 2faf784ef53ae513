// Package models provides data structures used throughout the query runner.
package models

import (
	"strings"
	"unicode/utf8"
)

// QueryRequest represents a single Athena query execution request.
// Immutable once constructed.
type QueryRequest struct {
	Database       string `json:"database"`
	QueryText      string `json:"query_text"`
	OutputLocation string `json:"output_location"`
	Region         string `json:"region"`
}

// ExecutionHandle is the opaque query execution ID returned by Athena on
// submission. It is polled until terminal and then used once to fetch results.
type ExecutionHandle string

// QueryStatus represents the execution state reported by Athena.
type QueryStatus string

const (
	// StatusQueued indicates the query is waiting to run.
	StatusQueued QueryStatus = "QUEUED"
	// StatusRunning indicates the query is executing.
	StatusRunning QueryStatus = "RUNNING"
	// StatusSucceeded indicates the query completed and results are available.
	StatusSucceeded QueryStatus = "SUCCEEDED"
	// StatusFailed indicates the query reached a terminal failure.
	StatusFailed QueryStatus = "FAILED"
	// StatusCancelled indicates the query was cancelled.
	StatusCancelled QueryStatus = "CANCELLED"
)

// IsTerminal reports whether no further state transition can occur.
func (s QueryStatus) IsTerminal() bool {
	switch s {
	case StatusSucceeded, StatusFailed, StatusCancelled:
		return true
	default:
		return false
	}
}

// PollResult is one observation of a query's execution state.
type PollResult struct {
	Status QueryStatus `json:"status"`
	// Reason is the service's state change reason, set on FAILED/CANCELLED.
	Reason string `json:"reason,omitempty"`
}

// ResultTable is the flattened, all-text rectangular representation of query
// output. Every cell is a string; rows have the same length as Columns unless
// the service returned a longer row, which is kept as-is.
type ResultTable struct {
	Columns []string   `json:"columns"`
	Rows    [][]string `json:"rows"`
}

// NumColumns returns the number of columns.
func (t *ResultTable) NumColumns() int {
	return len(t.Columns)
}

// NumRows returns the number of data rows.
func (t *ResultTable) NumRows() int {
	return len(t.Rows)
}

// IsEmpty reports whether the table has neither columns nor rows.
func (t *ResultTable) IsEmpty() bool {
	return len(t.Columns) == 0 && len(t.Rows) == 0
}

// String renders the table as aligned plain text, one line per row with a
// header and separator. An empty table renders as "(empty)".
func (t *ResultTable) String() string {
	if t.IsEmpty() {
		return "(empty)\n"
	}

	widths := make([]int, len(t.Columns))
	for i, c := range t.Columns {
		widths[i] = utf8.RuneCountInString(c)
	}
	for _, row := range t.Rows {
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if n := utf8.RuneCountInString(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	var b strings.Builder
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i > 0 {
				b.WriteString("  ")
			}
			b.WriteString(cell)
			if i < len(widths) {
				for pad := widths[i] - utf8.RuneCountInString(cell); pad > 0; pad-- {
					b.WriteByte(' ')
				}
			}
		}
		b.WriteByte('\n')
	}

	writeRow(t.Columns)
	for i, w := range widths {
		if i > 0 {
			b.WriteString("  ")
		}
		b.WriteString(strings.Repeat("-", w))
	}
	b.WriteByte('\n')
	for _, row := range t.Rows {
		writeRow(row)
	}
	return b.String()
}
