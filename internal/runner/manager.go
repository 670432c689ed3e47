package runner

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/goccy/go-yaml"
	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/keyword"
)

// RunSuiteKeyword is a runner level step that runs another loaded suite with
// the same variables.
const RunSuiteKeyword = "Run Suite"

var (
	ErrSuiteNotFound   = errors.New("suite not found")
	ErrStepFailed      = errors.New("step failed")
	ErrRetryExhausted  = errors.New("retry failed")
	ErrFailbackFailed  = errors.New("failback failed")
	ErrAborted         = errors.New("suite aborted")
	ErrSuiteRecursion  = errors.New("suite recursion")
	errBreak           = errors.New("break")
	errLoopParent      = errors.New("loop parent")
	variablePattern    = regexp.MustCompile(`#([A-Za-z0-9_.-]+)#`)
	passwordKeywordKey = keyword.Normalize("Input Password")
)

// KeywordRunner executes one legacy keyword by name.
type KeywordRunner interface {
	Run(ctx context.Context, name string, args ...any) (any, error)
}

// RunnerResult is a stored step outcome, referenced as #Name# in later args.
type RunnerResult struct {
	Value any
	Type  string
}

// Report statuses.
const (
	StatusPass = "PASS"
	StatusFail = "FAIL"
)

type StepReport struct {
	Index   int           `json:"index"`
	Keyword string        `json:"keyword"`
	Args    []any         `json:"args,omitempty"`
	Status  string        `json:"status"`
	Return  any           `json:"return,omitempty"`
	Error   string        `json:"error,omitempty"`
	Elapsed time.Duration `json:"elapsed"`
}

type Report struct {
	Suite  string       `json:"suite"`
	Status string       `json:"status"`
	Error  string       `json:"error,omitempty"`
	Steps  []StepReport `json:"steps"`
}

// RunnerManager loads suites and executes their steps against a keyword
// runner. It is not safe for concurrent Run calls.
type RunnerManager struct {
	keywords KeywordRunner
	suites   map[string]Suite
	results  map[string]RunnerResult
	report   *Report
	running  []string
	abort    atomic.Bool
}

// teardownKey marks the context of teardown steps, which ignore Abort.
type teardownKey struct{}

func NewRunnerManager(keywords KeywordRunner) *RunnerManager {
	return &RunnerManager{
		keywords: keywords,
		suites:   make(map[string]Suite),
		results:  make(map[string]RunnerResult),
	}
}

// Abort stops the running suite before its next step. Teardown steps still
// run. The flag is cleared when the next top level Run starts.
func (rm *RunnerManager) Abort() {
	rm.abort.Store(true)
}

func (rm *RunnerManager) SetVariable(name string, value any, valueType string) {
	rm.results[name] = RunnerResult{
		Value: value,
		Type:  valueType,
	}
}

func (rm *RunnerManager) Variable(name string) (RunnerResult, bool) {
	v, ok := rm.results[name]
	return v, ok
}

// Suites returns the loaded suite names, sorted.
func (rm *RunnerManager) Suites() []string {
	names := make([]string, 0, len(rm.suites))
	for name := range rm.suites {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ParseSuite registers the YAML suite in data under name.
func (rm *RunnerManager) ParseSuite(name string, data []byte) error {
	var suite Suite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return fmt.Errorf("parse suite %s: %w", name, err)
	}
	if len(suite.Steps) == 0 {
		return fmt.Errorf("suite %s has no steps", name)
	}
	rm.suites[name] = suite
	return nil
}

func (rm *RunnerManager) LoadSuite(name, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return rm.ParseSuite(name, data)
}

// LoadSuites loads path when it is a file, or every yaml and yml file in it
// when it is a directory. Suites are named by file name without extension.
func (rm *RunnerManager) LoadSuites(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	files := []string{path}
	if info.IsDir() {
		yamlFiles, errGlob := filepath.Glob(filepath.Join(path, "*.yaml"))
		if errGlob != nil {
			return fmt.Errorf("failed to scan yaml files: %w", errGlob)
		}
		ymlFiles, errGlob := filepath.Glob(filepath.Join(path, "*.yml"))
		if errGlob != nil {
			return fmt.Errorf("failed to scan yml files: %w", errGlob)
		}
		files = append(yamlFiles, ymlFiles...)
	}

	for _, filePath := range files {
		fileName := filepath.Base(filePath)
		name := strings.TrimSuffix(fileName, filepath.Ext(fileName))
		log.Debugf("Loading suite file: %s -> %s", name, filePath)
		if err = rm.LoadSuite(name, filePath); err != nil {
			return fmt.Errorf("failed to load suite file %s: %w", filePath, err)
		}
	}
	log.Debugf("Total loaded %d suite files", len(files))
	return nil
}

// Run executes the named suite and its teardown steps. The report is
// returned even when the suite fails.
func (rm *RunnerManager) Run(ctx context.Context, name string) (*Report, error) {
	suite, ok := rm.suites[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSuiteNotFound, name)
	}
	if slices.Contains(rm.running, name) {
		return nil, fmt.Errorf("%w: recursive %s %s via %s", ErrSuiteRecursion, RunSuiteKeyword, name, strings.Join(rm.running, " > "))
	}
	if len(rm.running) == 0 {
		rm.abort.Store(false)
	}
	rm.running = append(rm.running, name)
	defer func() { rm.running = rm.running[:len(rm.running)-1] }()

	for k, v := range suite.Variables {
		if _, set := rm.results[k]; !set {
			rm.SetVariable(k, v, TypeValue)
		}
	}

	report := &Report{Suite: name, Status: StatusPass, Steps: []StepReport{}}
	parent := rm.report
	rm.report = report
	defer func() { rm.report = parent }()

	err := rm.runSteps(ctx, 0, suite.Steps, nil)
	if errors.Is(err, errBreak) {
		err = nil
	}
	if len(suite.Teardown) > 0 {
		// teardown still runs when ctx is done or the suite was aborted
		teardownCtx := context.WithValue(context.WithoutCancel(ctx), teardownKey{}, true)
		if errTeardown := rm.runSteps(teardownCtx, 0, suite.Teardown, nil); errTeardown != nil {
			log.Warnf("suite %s teardown failed: %v", name, errTeardown)
			if err == nil {
				err = errTeardown
			}
		}
	}
	if err != nil {
		report.Status = StatusFail
		report.Error = err.Error()
	}
	if parent != nil {
		parent.Steps = append(parent.Steps, report.Steps...)
	}
	return report, err
}

func (rm *RunnerManager) runSteps(ctx context.Context, level int, steps []Step, only []int) error {
	executeIndex := 0
	retry := -1

outLoop:
	for executeIndex < len(steps) {
		if rm.abort.Load() && ctx.Value(teardownKey{}) == nil {
			log.Debugf("Get abort signal, stop all steps")
			return ErrAborted
		}
		if err := ctx.Err(); err != nil {
			return err
		}

		step := steps[executeIndex]
		if len(only) > 0 && !slices.Contains(only, step.Index) {
			log.Debugf("step Index: %d, level: %d not in %v, skip", step.Index, level, only)
			executeIndex++
			continue
		}

		if retry == -1 {
			retry = step.Retry
		} else {
			retry--
		}
		if retry < 0 {
			return fmt.Errorf("step %d (%s): %w", step.Index, step.Keyword, ErrRetryExhausted)
		}

		switch {
		case step.Keyword == "":
			if err := rm.runSteps(ctx, level+1, step.Steps, nil); err != nil && !errors.Is(err, errBreak) {
				return err
			}
			executeIndex++
			retry = -1
			continue outLoop
		case keyword.Normalize(step.Keyword) == keyword.Normalize(RunSuiteKeyword):
			if len(step.Args) == 0 {
				return fmt.Errorf("step %d: %s needs a suite name", step.Index, RunSuiteKeyword)
			}
			if _, err := rm.Run(ctx, rm.substitute(step.Args[0])); err != nil {
				return err
			}
			executeIndex++
			retry = -1
			continue outLoop
		}

		value, err := rm.execute(ctx, step)
		if err != nil && !step.handlesError() {
			log.Debugf("step %d %s failed: %v", step.Index, step.Keyword, err)
			if step.Failback == nil {
				return fmt.Errorf("step %d (%s): %w", step.Index, step.Keyword, err)
			}
			if errFailback := rm.executeFailback(ctx, step.Failback); errFailback != nil {
				return fmt.Errorf("step %d (%s): %w", step.Index, step.Keyword, err)
			}
			continue
		}

		rule, indexes := rm.evaluate(step, value, err)
		log.Debugf("step %d %s rule is %q", step.Index, step.Keyword, rule)
		switch {
		case rule == "" || rule == RuleContinue:
		case rule == RuleFailed:
			return fmt.Errorf("step %d (%s): %w", step.Index, step.Keyword, ErrStepFailed)
		case rule == RuleBreak:
			return errBreak
		case rule == RuleFailback:
			if step.Failback == nil {
				return fmt.Errorf("step %d (%s): no failback for rule %s", step.Index, step.Keyword, rule)
			}
			errFailback := rm.executeFailback(ctx, step.Failback)
			switch {
			case errFailback == nil:
				continue outLoop
			case errors.Is(errFailback, errBreak):
				return errBreak
			default:
				return errFailback
			}
		case rule == RuleDoSteps || strings.HasPrefix(rule, RuleDoStepsIdx):
			errSteps := rm.runSteps(ctx, level+1, step.Steps, indexes)
			switch {
			case errSteps == nil, errors.Is(errSteps, errBreak):
			case errors.Is(errSteps, errLoopParent):
				retry++
				continue outLoop
			case errors.Is(errSteps, ErrStepFailed), errors.Is(errSteps, ErrAborted), ctx.Err() != nil:
				return errSteps
			default:
				// nested steps failed, retry this step
				log.Debugf("nested steps of step %d failed: %v", step.Index, errSteps)
				continue outLoop
			}
		case rule == RuleLoop:
			retry++
			continue outLoop
		case rule == RuleLoopSteps:
			executeIndex = 0
			retry = -1
			continue outLoop
		case rule == RuleLoopParent:
			return errLoopParent
		default:
			return fmt.Errorf("step %d (%s): unknown rule %q", step.Index, step.Keyword, rule)
		}

		executeIndex++
		retry = -1
	}
	return nil
}

// executeFailback runs a failback step and its own failbacks until one
// succeeds.
func (rm *RunnerManager) executeFailback(ctx context.Context, failback *Step) error {
	if failback == nil {
		return ErrFailbackFailed
	}
	log.Debugf("prepare to execute failback %s", failback.Keyword)

	value, err := rm.execute(ctx, *failback)
	if err != nil && !failback.handlesError() {
		if failback.Failback != nil {
			return rm.executeFailback(ctx, failback.Failback)
		}
		return fmt.Errorf("%w: %s: %w", ErrFailbackFailed, failback.Keyword, err)
	}

	rule, _ := rm.evaluate(*failback, value, err)
	switch rule {
	case RuleFailed:
		return ErrFailbackFailed
	case RuleBreak:
		return errBreak
	}
	return nil
}

func (rm *RunnerManager) execute(ctx context.Context, step Step) (any, error) {
	args := make([]any, len(step.Args))
	for i, arg := range step.Args {
		args[i] = rm.resolve(arg)
	}
	log.Debugf("prepare to execute step %d %s", step.Index, step.Keyword)

	start := time.Now()
	value, err := rm.keywords.Run(ctx, step.Keyword, args...)

	entry := StepReport{
		Index:   step.Index,
		Keyword: step.Keyword,
		Args:    args,
		Status:  StatusPass,
		Return:  value,
		Elapsed: time.Since(start),
	}
	if keyword.Normalize(step.Keyword) == passwordKeywordKey {
		entry.Args = nil
	}
	if err != nil {
		entry.Status = StatusFail
		entry.Error = err.Error()
	}
	if rm.report != nil {
		rm.report.Steps = append(rm.report.Steps, entry)
	}
	return value, err
}

// evaluate stores the step results and returns the first rule a policy
// picked, with the indexes of a DO-STEPS-IDX rule.
func (rm *RunnerManager) evaluate(step Step, value any, err error) (string, []int) {
	rule := ""
	for _, result := range step.Result {
		truth := false
		var stored any
		switch result.Type {
		case TypeError:
			truth = err != nil
			stored = err
		case TypeBool:
			truth = isTrue(value)
			stored = truth
		default:
			stored = value
		}
		if result.Name != "" {
			log.Debugf("store result to variable #%s#", result.Name)
			rm.SetVariable(result.Name, stored, result.Type)
		}
		if rule != "" || result.Policy == nil {
			continue
		}
		switch result.Type {
		case TypeError:
			rule = pick(truth, result.Policy.HasError, result.Policy.NoError)
		case TypeBool:
			rule = pick(truth, result.Policy.IsTrue, result.Policy.IsFalse)
		}
	}

	if !strings.HasPrefix(rule, RuleDoStepsIdx) {
		return rule, nil
	}
	indexes := make([]int, 0)
	for _, idx := range strings.Split(rule[len(RuleDoStepsIdx):], ",") {
		i, errAtoi := strconv.Atoi(strings.TrimSpace(idx))
		if errAtoi != nil {
			log.Warnf("suite error, step index is not a number: %v", errAtoi)
			continue
		}
		indexes = append(indexes, i)
	}
	return rule, indexes
}

func pick(cond bool, whenTrue, whenFalse string) string {
	if cond {
		return whenTrue
	}
	return whenFalse
}

func isTrue(value any) bool {
	switch v := value.(type) {
	case nil:
		return false
	case bool:
		return v
	case int:
		return v != 0
	case float64:
		return v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "false", "no", "off", "0", "none":
			return false
		}
		return true
	case []string:
		return len(v) > 0
	case []any:
		return len(v) > 0
	}
	return true
}

// resolve replaces an argument that is exactly #NAME# with the stored value
// and substitutes embedded references as text.
func (rm *RunnerManager) resolve(arg string) any {
	if m := variablePattern.FindStringSubmatch(arg); m != nil && m[0] == arg {
		if v, ok := rm.results[m[1]]; ok {
			return v.Value
		}
	}
	return rm.substitute(arg)
}

func (rm *RunnerManager) substitute(arg string) string {
	return variablePattern.ReplaceAllStringFunc(arg, func(ref string) string {
		v, ok := rm.results[ref[1:len(ref)-1]]
		if !ok {
			return ref
		}
		if v.Value == nil {
			return ""
		}
		return fmt.Sprint(v.Value)
	})
}
