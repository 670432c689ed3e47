package api

import (
	"context"
	"errors"
	"fmt"
	"os"

	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/runner"
)

// KeywordProcessor executes queued keyword and suite tasks on one keyword
// library.
type KeywordProcessor struct {
	keywords  runner.KeywordRunner
	suitesDir string
}

// NewKeywordProcessor creates a processor. Suites in suitesDir can be run by
// name and referenced from posted suites with Run Suite.
func NewKeywordProcessor(keywords runner.KeywordRunner, suitesDir string) *KeywordProcessor {
	return &KeywordProcessor{
		keywords:  keywords,
		suitesDir: suitesDir,
	}
}

// ProcessTask implements TaskProcessor.
func (p *KeywordProcessor) ProcessTask(ctx context.Context, task *RequestTask) *TaskResponse {
	if task.Context != nil {
		var cancel context.CancelFunc
		ctx, cancel = mergeCancel(task.Context, ctx)
		defer cancel()
	}

	switch task.Kind {
	case TaskKeyword:
		value, err := p.keywords.Run(ctx, task.Keyword, task.Args...)
		if err != nil {
			log.Debugf("keyword %s failed: %v", task.Keyword, err)
			return &TaskResponse{Success: false, Error: err}
		}
		return &TaskResponse{Success: true, Return: value}

	case TaskSuite, TaskNamedSuite:
		rm, err := p.runnerManager()
		if err != nil {
			return &TaskResponse{Success: false, Error: err}
		}
		name := task.SuiteName
		if task.Kind == TaskSuite {
			name = task.ID
			if err = rm.ParseSuite(name, task.Suite); err != nil {
				return &TaskResponse{Success: false, Error: err}
			}
		}
		report, err := rm.Run(ctx, name)
		return &TaskResponse{Success: err == nil, Report: report, Error: err}
	}
	return &TaskResponse{Success: false, Error: fmt.Errorf("unknown task kind %q", task.Kind)}
}

// Suites lists the suites available by name.
func (p *KeywordProcessor) Suites() ([]string, error) {
	rm, err := p.runnerManager()
	if err != nil {
		return nil, err
	}
	return rm.Suites(), nil
}

func (p *KeywordProcessor) runnerManager() (*runner.RunnerManager, error) {
	rm := runner.NewRunnerManager(p.keywords)
	if p.suitesDir == "" {
		return rm, nil
	}
	if err := rm.LoadSuites(p.suitesDir); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			log.Debugf("suites directory %s does not exist", p.suitesDir)
			return rm, nil
		}
		return nil, err
	}
	return rm, nil
}

// mergeCancel returns a context carrying the values and deadline of primary
// that is also cancelled when secondary is.
func mergeCancel(primary, secondary context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancelCause(primary)
	stop := context.AfterFunc(secondary, func() {
		cancel(context.Cause(secondary))
	})
	return ctx, func() {
		stop()
		cancel(context.Canceled)
	}
}
