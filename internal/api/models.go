package api

import (
	"context"
	"time"

	"github.com/luispater/sl2browser/internal/runner"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error ErrorDetail `json:"error"`
}

// ErrorDetail represents error details
type ErrorDetail struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
}

// TaskKind selects what a queued task executes.
type TaskKind string

const (
	TaskKeyword TaskKind = "keyword"
	// TaskSuite runs the YAML document in RequestTask.Suite.
	TaskSuite TaskKind = "suite"
	// TaskNamedSuite runs a suite loaded from the suites directory.
	TaskNamedSuite TaskKind = "named-suite"
)

// RequestTask represents a queued request task
type RequestTask struct {
	ID        string             `json:"id"`
	Kind      TaskKind           `json:"kind"`
	Keyword   string             `json:"keyword,omitempty"`
	Args      []any              `json:"args,omitempty"`
	Suite     []byte             `json:"-"`
	SuiteName string             `json:"suite_name,omitempty"`
	Response  chan *TaskResponse `json:"-"`
	CreatedAt time.Time          `json:"created_at"`
	// Context bounds the execution, it ends with the request timeout.
	Context context.Context `json:"-"`
}

// TaskResponse represents the response from processing a task
type TaskResponse struct {
	Success bool           `json:"success"`
	Return  any            `json:"return,omitempty"`
	Report  *runner.Report `json:"report,omitempty"`
	Error   error          `json:"-"`
}
