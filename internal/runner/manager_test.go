package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luispater/sl2browser/internal/browser"
	"github.com/luispater/sl2browser/internal/browser/browsertest"
	"github.com/luispater/sl2browser/internal/keyword"
)

type scriptedRunner struct {
	calls    []string
	args     [][]any
	handlers map[string]func(args []any) (any, error)
}

func (s *scriptedRunner) Run(_ context.Context, name string, args ...any) (any, error) {
	s.calls = append(s.calls, name)
	s.args = append(s.args, args)
	if h, ok := s.handlers[name]; ok {
		return h(args)
	}
	return nil, nil
}

func newScripted(handlers map[string]func(args []any) (any, error)) (*RunnerManager, *scriptedRunner) {
	s := &scriptedRunner{handlers: handlers}
	return NewRunnerManager(s), s
}

func runSuite(t *testing.T, rm *RunnerManager, body string) (*Report, error) {
	t.Helper()
	require.NoError(t, rm.ParseSuite("suite", []byte(body)))
	return rm.Run(context.Background(), "suite")
}

func TestRunPassesAndReports(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){
		"Get Title": func([]any) (any, error) { return "Home", nil },
	})
	report, err := runSuite(t, rm, `
name: smoke
steps:
  - index: 1
    keyword: Go To
    args: [http://example.test]
  - index: 2
    keyword: Get Title
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go To", "Get Title"}, s.calls)
	assert.Equal(t, StatusPass, report.Status)
	require.Len(t, report.Steps, 2)
	assert.Equal(t, []any{"http://example.test"}, report.Steps[0].Args)
	assert.Equal(t, "Home", report.Steps[1].Return)
}

func TestVariablesAreStoredAndSubstituted(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){
		"Get Element Count": func([]any) (any, error) { return 3, nil },
	})
	_, err := runSuite(t, rm, `
variables:
  HOST: example.test
steps:
  - index: 1
    keyword: Get Element Count
    args: [css=li]
    result:
      - name: COUNT
  - index: 2
    keyword: Log
    args: ["#COUNT#", "http://#HOST#/items?n=#COUNT#", "#MISSING#"]
`)
	require.NoError(t, err)
	assert.Equal(t, []any{3, "http://example.test/items?n=3", "#MISSING#"}, s.args[1])

	v, ok := rm.Variable("COUNT")
	require.True(t, ok)
	assert.Equal(t, TypeValue, v.Type)
}

func TestUnhandledErrorFailsSuite(t *testing.T) {
	t.Parallel()

	boom := errors.New("element not found")
	rm, s := newScripted(map[string]func([]any) (any, error){
		"Click Element": func([]any) (any, error) { return nil, boom },
	})
	report, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Click Element
    args: [id=missing]
  - index: 2
    keyword: Get Title
`)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"Click Element"}, s.calls)
	assert.Equal(t, StatusFail, report.Status)
	assert.Equal(t, StatusFail, report.Steps[0].Status)
	assert.Equal(t, "element not found", report.Steps[0].Error)
}

func TestFailbackRetriesStep(t *testing.T) {
	t.Parallel()

	attempts := 0
	rm, s := newScripted(map[string]func([]any) (any, error){
		"Click Element": func([]any) (any, error) {
			attempts++
			if attempts == 1 {
				return nil, errors.New("not ready")
			}
			return nil, nil
		},
	})
	_, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Click Element
    args: [id=go]
    retry: 1
    failback:
      keyword: Reload Page
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Click Element", "Reload Page", "Click Element"}, s.calls)
}

func TestRetryExhausted(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){
		"Click Element": func([]any) (any, error) { return nil, errors.New("not ready") },
	})
	_, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Click Element
    retry: 1
    failback:
      keyword: Reload Page
`)
	require.ErrorIs(t, err, ErrRetryExhausted)
	assert.Equal(t, []string{"Click Element", "Reload Page", "Click Element", "Reload Page"}, s.calls)
}

func TestErrorPolicy(t *testing.T) {
	t.Parallel()

	failing := map[string]func([]any) (any, error){
		"Element Should Be Visible": func([]any) (any, error) { return nil, errors.New("hidden") },
	}

	rm, s := newScripted(failing)
	_, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Element Should Be Visible
    args: [id=banner]
    result:
      - name: VISIBLE_ERR
        type: error
        policy:
          has_error: CONTINUE
  - index: 2
    keyword: Get Title
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Element Should Be Visible", "Get Title"}, s.calls)
	v, ok := rm.Variable("VISIBLE_ERR")
	require.True(t, ok)
	assert.EqualError(t, v.Value.(error), "hidden")

	rm, _ = newScripted(failing)
	_, err = runSuite(t, rm, `
steps:
  - index: 1
    keyword: Element Should Be Visible
    result:
      - type: error
        policy:
          has_error: FAILED
`)
	assert.ErrorIs(t, err, ErrStepFailed)
}

func TestBoolPolicyRunsSelectedNestedSteps(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){
		"Get Element Count": func([]any) (any, error) { return 1, nil },
	})
	_, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Get Element Count
    result:
      - type: bool
        policy:
          is_true: DO-STEPS-IDX:1,3
          is_false: CONTINUE
    steps:
      - index: 1
        keyword: Click Element
      - index: 2
        keyword: Input Text
      - index: 3
        keyword: Submit Form
  - index: 2
    keyword: Get Title
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Get Element Count", "Click Element", "Submit Form", "Get Title"}, s.calls)
}

func TestLoopUntilTrue(t *testing.T) {
	t.Parallel()

	count := 0
	rm, s := newScripted(map[string]func([]any) (any, error){
		"Get Element Count": func([]any) (any, error) {
			count++
			if count < 3 {
				return 0, nil
			}
			return 2, nil
		},
	})
	_, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Get Element Count
    result:
      - type: bool
        policy:
          is_false: LOOP
`)
	require.NoError(t, err)
	assert.Len(t, s.calls, 3)
}

func TestBreakStopsSteps(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){
		"Get Title": func([]any) (any, error) { return "done", nil },
	})
	report, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Get Title
    result:
      - type: bool
        policy:
          is_true: BREAK
  - index: 2
    keyword: Click Element
`)
	require.NoError(t, err)
	assert.Equal(t, StatusPass, report.Status)
	assert.Equal(t, []string{"Get Title"}, s.calls)
}

func TestUnknownRule(t *testing.T) {
	t.Parallel()

	rm, _ := newScripted(nil)
	_, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Get Title
    result:
      - type: error
        policy:
          no_error: JUMP
`)
	assert.ErrorContains(t, err, `unknown rule "JUMP"`)
}

func TestRunSuiteStepSharesVariables(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){
		"Get Location": func([]any) (any, error) { return "http://example.test/", nil },
	})
	require.NoError(t, rm.ParseSuite("login", []byte(`
steps:
  - index: 1
    keyword: Get Location
    result:
      - name: URL
`)))
	report, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Run Suite
    args: [login]
  - index: 2
    keyword: Go To
    args: ["#URL#"]
`)
	require.NoError(t, err)
	assert.Equal(t, []string{"Get Location", "Go To"}, s.calls)
	assert.Equal(t, []any{"http://example.test/"}, s.args[1])
	assert.Len(t, report.Steps, 2)
}

func TestTeardownRunsAfterFailure(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){
		"Click Element": func([]any) (any, error) { return nil, errors.New("gone") },
	})
	_, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Click Element
teardown:
  - index: 1
    keyword: Close All Browsers
`)
	require.Error(t, err)
	assert.Equal(t, []string{"Click Element", "Close All Browsers"}, s.calls)
}

func TestAbortStopsStepsButRunsTeardown(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(map[string]func([]any) (any, error){})
	s.handlers["Go To"] = func([]any) (any, error) {
		rm.Abort()
		return nil, nil
	}
	body := `
steps:
  - index: 1
    keyword: Go To
    args: [http://example.test]
  - index: 2
    keyword: Get Title
teardown:
  - index: 1
    keyword: Close All Browsers
`
	report, err := runSuite(t, rm, body)
	assert.ErrorIs(t, err, ErrAborted)
	assert.Equal(t, StatusFail, report.Status)
	assert.Equal(t, []string{"Go To", "Close All Browsers"}, s.calls)

	// the next run starts with the flag cleared
	s.handlers["Go To"] = func([]any) (any, error) { return nil, nil }
	s.calls = nil
	_, err = rm.Run(context.Background(), "suite")
	require.NoError(t, err)
	assert.Equal(t, []string{"Go To", "Get Title", "Close All Browsers"}, s.calls)
}

func TestRunSuiteRejectsRecursion(t *testing.T) {
	t.Parallel()

	rm, s := newScripted(nil)
	require.NoError(t, rm.ParseSuite("ping", []byte("steps:\n  - index: 1\n    keyword: Run Suite\n    args: [pong]\n")))
	require.NoError(t, rm.ParseSuite("pong", []byte("steps:\n  - index: 1\n    keyword: Go Back\n  - index: 2\n    keyword: Run Suite\n    args: [ping]\n")))

	report, err := rm.Run(context.Background(), "ping")
	require.ErrorIs(t, err, ErrSuiteRecursion)
	assert.ErrorContains(t, err, "ping > pong")
	assert.Equal(t, StatusFail, report.Status)
	assert.Equal(t, []string{"Go Back"}, s.calls)

	_, err = runSuite(t, rm, "steps:\n  - index: 1\n    keyword: Run Suite\n    args: [suite]\n")
	assert.ErrorIs(t, err, ErrSuiteRecursion)

	// running the same suite twice in a row is not recursion
	require.NoError(t, rm.ParseSuite("leaf", []byte("steps:\n  - index: 1\n    keyword: Reload Page\n")))
	s.calls = nil
	_, err = runSuite(t, rm, "steps:\n  - index: 1\n    keyword: Run Suite\n    args: [leaf]\n  - index: 2\n    keyword: Run Suite\n    args: [leaf]\n")
	require.NoError(t, err)
	assert.Equal(t, []string{"Reload Page", "Reload Page"}, s.calls)
}

func TestPasswordArgsAreNotReported(t *testing.T) {
	t.Parallel()

	rm, _ := newScripted(nil)
	report, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: input password
    args: [id=pass, secret]
`)
	require.NoError(t, err)
	assert.Nil(t, report.Steps[0].Args)
}

func TestRunUnknownSuite(t *testing.T) {
	t.Parallel()

	rm, _ := newScripted(nil)
	_, err := rm.Run(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrSuiteNotFound)
}

func TestParseSuiteErrors(t *testing.T) {
	t.Parallel()

	rm, _ := newScripted(nil)
	assert.ErrorContains(t, rm.ParseSuite("empty", []byte("name: nothing\n")), "has no steps")
	assert.Error(t, rm.ParseSuite("broken", []byte("steps: [")))
}

func TestLoadSuites(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	step := []byte("steps:\n  - index: 1\n    keyword: Get Title\n")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "login.yaml"), step, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "search.yml"), step, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	rm, _ := newScripted(nil)
	require.NoError(t, rm.LoadSuites(dir))
	assert.Equal(t, []string{"login", "search"}, rm.Suites())

	single, _ := newScripted(nil)
	require.NoError(t, single.LoadSuites(filepath.Join(dir, "search.yml")))
	assert.Equal(t, []string{"search"}, single.Suites())

	assert.ErrorIs(t, single.LoadSuites(filepath.Join(dir, "missing")), os.ErrNotExist)
}

func TestSuiteAgainstKeywordLibrary(t *testing.T) {
	t.Parallel()

	fake := browsertest.New()
	fake.Serve("http://fixture/login", `<html><head><title>Sign in</title></head><body>
<input id="user" data-test="user"><button id="go" data-test="go">Go</button></body></html>`)
	lib := keyword.New(func() (browser.Engine, error) { return fake, nil }, keyword.Options{RunOnFailure: "Nothing"})
	t.Cleanup(func() { _ = lib.Close() })

	rm := NewRunnerManager(lib)
	report, err := runSuite(t, rm, `
steps:
  - index: 1
    keyword: Open Browser
    args: [http://fixture/login]
  - index: 2
    keyword: Get Title
    result:
      - name: TITLE
  - index: 3
    keyword: Title Should Be
    args: ["#TITLE#"]
  - index: 4
    keyword: Input Text
    args: [user, alice]
  - index: 5
    keyword: Click Button
    args: [go]
`)
	require.NoError(t, err)
	assert.Equal(t, StatusPass, report.Status)
	assert.Equal(t, "Sign in", report.Steps[1].Return)

	clicks := fake.CallsOf("Click")
	require.Len(t, clicks, 1)
	assert.Equal(t, "go", clicks[0].Target)
	typed := fake.CallsOf("TypeText")
	require.Len(t, typed, 1)
	assert.Equal(t, "user", typed[0].Target)
}
