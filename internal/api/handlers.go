package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/luispater/sl2browser/internal/keyword"
	"github.com/luispater/sl2browser/internal/locator"
)

// APIHandlers contains the handlers for API endpoints
type APIHandlers struct {
	queue     *RequestQueue
	processor *KeywordProcessor
	timeout   time.Duration
}

// NewAPIHandlers creates a new API handlers instance
func NewAPIHandlers(queue *RequestQueue, processor *KeywordProcessor, timeout time.Duration) *APIHandlers {
	return &APIHandlers{
		queue:     queue,
		processor: processor,
		timeout:   timeout,
	}
}

// Keywords lists the keyword catalog. ?implemented=true keeps only the
// keywords that run.
func (h *APIHandlers) Keywords(c *gin.Context) {
	onlyImplemented := c.Query("implemented") == "true"
	entries := make([]keyword.Entry, 0, len(keyword.Catalog))
	for _, e := range keyword.Catalog {
		if onlyImplemented && !e.Implemented {
			continue
		}
		entries = append(entries, e)
	}
	c.JSON(http.StatusOK, gin.H{"keywords": entries})
}

// Translate handles POST /v1/translate with {"locator": "..."}.
func (h *APIHandlers) Translate(c *gin.Context) {
	rawJson, err := c.GetRawData()
	if err != nil {
		badRequest(c, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	raw := gjson.GetBytes(rawJson, "locator")
	if raw.Type != gjson.String {
		badRequest(c, "locator must be a string")
		return
	}

	selector := locator.RawLocatorToSelector(raw.String())
	_, isDefault := locator.DefaultFallback(selector)

	out := []byte(`{}`)
	out, _ = sjson.SetBytes(out, "locator", raw.String())
	out, _ = sjson.SetBytes(out, "selector", selector)
	out, _ = sjson.SetBytes(out, "default", isDefault)
	c.Data(http.StatusOK, "application/json", out)
}

// RunKeyword handles POST /v1/keywords/run with
// {"keyword": "...", "args": [...], "kwargs": {...}}. A failing keyword still
// answers 200 with status FAIL.
func (h *APIHandlers) RunKeyword(c *gin.Context) {
	rawJson, err := c.GetRawData()
	if err != nil {
		badRequest(c, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	if !gjson.ValidBytes(rawJson) {
		badRequest(c, "request body is not valid JSON")
		return
	}
	name := gjson.GetBytes(rawJson, "keyword")
	if name.Type != gjson.String || strings.TrimSpace(name.String()) == "" {
		badRequest(c, "keyword must be a non-empty string")
		return
	}

	args := make([]any, 0)
	for _, arg := range gjson.GetBytes(rawJson, "args").Array() {
		args = append(args, argumentValue(arg))
	}
	for _, n := range namedArguments(gjson.GetBytes(rawJson, "kwargs")) {
		args = append(args, n)
	}

	task := &RequestTask{
		Kind:    TaskKeyword,
		Keyword: name.String(),
		Args:    args,
	}
	response, ok := h.submit(c, task)
	if !ok {
		return
	}

	out := []byte(`{"status":"PASS"}`)
	out, _ = sjson.SetBytes(out, "keyword", task.Keyword)
	if response.Success {
		out, err = sjson.SetBytes(out, "return", response.Return)
		if err != nil {
			log.Warnf("cannot encode return value of %s: %v", task.Keyword, err)
			out, _ = sjson.SetBytes(out, "return", fmt.Sprint(response.Return))
		}
	} else {
		out, _ = sjson.SetBytes(out, "status", "FAIL")
		out, _ = sjson.SetBytes(out, "error", response.Error.Error())
		out, _ = sjson.SetBytes(out, "error_type", errorType(response.Error))
	}
	c.Data(http.StatusOK, "application/json", out)
}

// RunSuite handles POST /v1/suites/run with a raw YAML suite body.
func (h *APIHandlers) RunSuite(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		badRequest(c, fmt.Sprintf("Invalid request: %v", err))
		return
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		badRequest(c, "suite body is empty")
		return
	}
	h.runSuiteTask(c, &RequestTask{Kind: TaskSuite, Suite: body})
}

// RunNamedSuite handles POST /v1/suites/:name/run.
func (h *APIHandlers) RunNamedSuite(c *gin.Context) {
	h.runSuiteTask(c, &RequestTask{Kind: TaskNamedSuite, SuiteName: c.Param("name")})
}

// Suites lists the suites of the suites directory.
func (h *APIHandlers) Suites(c *gin.Context) {
	names, err := h.processor.Suites()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error: ErrorDetail{Message: err.Error(), Type: "server_error"},
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suites": names})
}

func (h *APIHandlers) runSuiteTask(c *gin.Context, task *RequestTask) {
	response, ok := h.submit(c, task)
	if !ok {
		return
	}
	if response.Report == nil {
		status := http.StatusBadRequest
		if errors.Is(response.Error, context.DeadlineExceeded) {
			status = http.StatusRequestTimeout
		}
		c.JSON(status, ErrorResponse{
			Error: ErrorDetail{Message: response.Error.Error(), Type: "invalid_request_error"},
		})
		return
	}
	c.JSON(http.StatusOK, response.Report)
}

// submit queues task and waits for its response. It writes the error
// response itself and returns false when there is none.
func (h *APIHandlers) submit(c *gin.Context, task *RequestTask) (*TaskResponse, bool) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), h.timeout)
	defer cancel()

	task.ID = uuid.New().String()
	task.Response = make(chan *TaskResponse, 1)
	task.CreatedAt = time.Now()
	task.Context = ctx

	if err := h.queue.AddTask(task); err != nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{
			Error: ErrorDetail{
				Message: fmt.Sprintf("Failed to queue request: %v", err),
				Type:    "server_error",
			},
		})
		return nil, false
	}

	select {
	case response := <-task.Response:
		return response, true
	case <-ctx.Done():
		log.Debugf("task %s: %v", task.ID, ctx.Err())
		c.JSON(http.StatusRequestTimeout, ErrorResponse{
			Error: ErrorDetail{
				Message: "Request timeout",
				Type:    "timeout_error",
			},
		})
		return nil, false
	}
}

func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error: ErrorDetail{
			Message: message,
			Type:    "invalid_request_error",
		},
	})
}

// argumentValue keeps scalars as Go values, keyword binding converts them
// to the parameter type.
// namedArguments renders a kwargs object as sorted name=value arguments.
// A null value is passed as an empty string.
func namedArguments(kwargs gjson.Result) []string {
	if !kwargs.IsObject() {
		return nil
	}
	named := make([]string, 0)
	kwargs.ForEach(func(key, value gjson.Result) bool {
		v := argumentValue(value)
		if v == nil {
			v = ""
		}
		named = append(named, key.String()+"="+fmt.Sprint(v))
		return true
	})
	// object order is not meaningful, keep requests reproducible
	sort.Strings(named)
	return named
}

func argumentValue(arg gjson.Result) any {
	switch arg.Type {
	case gjson.Null:
		return nil
	case gjson.String:
		return arg.String()
	case gjson.Number:
		if arg.Num == float64(int64(arg.Num)) {
			return arg.Int()
		}
		return arg.Num
	}
	return arg.Value()
}

func errorType(err error) string {
	var assertion *keyword.AssertionError
	var notImplemented *keyword.NotImplementedError
	switch {
	case errors.As(err, &assertion):
		return "assertion"
	case errors.As(err, &notImplemented):
		return "not_implemented"
	case errors.Is(err, keyword.ErrUnknownKeyword):
		return "unknown_keyword"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	}
	return "error"
}
