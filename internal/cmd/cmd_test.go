package cmd

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luispater/sl2browser/internal/config"
	"github.com/luispater/sl2browser/internal/runner"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(io.Discard)
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	return out.String(), err
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

// quietConfig keeps failing keywords from starting a browser for screenshots.
func quietConfig(t *testing.T) string {
	t.Helper()
	return writeFile(t, t.TempDir(), "config.yaml", "library:\n  run-on-failure: Nothing\n")
}

func TestTranslateCommand(t *testing.T) {
	out, err := execute(t, "translate", "id:submit", "class=btn", "//div")
	require.NoError(t, err)
	assert.Equal(t, "id=submit\n.btn\nxpath=//div\n", out)
}

func TestTranslateCommandVerbose(t *testing.T) {
	out, err := execute(t, "translate", "-v", "login")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "login\t"))
	assert.Contains(t, out, "default=true")
}

func TestTranslateCommandNeedsLocator(t *testing.T) {
	_, err := execute(t, "translate")
	assert.Error(t, err)
}

func TestKeywordsCommand(t *testing.T) {
	out, err := execute(t, "keywords", "--implemented")
	require.NoError(t, err)
	assert.Contains(t, out, "Click Button")
	assert.NotContains(t, out, "not implemented")

	out, err = execute(t, "keywords")
	require.NoError(t, err)
	assert.Contains(t, out, "Add Cookie")
	assert.Contains(t, out, "not implemented")
}

func TestRunCommandPrintsReport(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "timeouts.yaml", `
name: timeouts
steps:
  - index: 1
    keyword: Set Selenium Timeout
    args: ["10 seconds"]
  - index: 2
    keyword: Get Selenium Timeout
`)

	out, err := execute(t, "--config", quietConfig(t), "run", "-o", "json", dir)
	require.NoError(t, err)

	var report runner.Report
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "timeouts", report.Suite)
	assert.Equal(t, runner.StatusPass, report.Status)
	assert.Len(t, report.Steps, 2)
}

func TestRunCommandFailsOnFailingSuite(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "broken.yaml", `
name: broken
steps:
  - index: 1
    keyword: No Such Keyword
`)

	out, err := execute(t, "--config", quietConfig(t), "run", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSuitesFailed)
	assert.Contains(t, out, "Suite broken: FAIL")
}

func TestRunCommandRejectsUnknownFormat(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "a.yaml", "name: a\nsteps:\n  - index: 1\n    keyword: Get Selenium Timeout\n")
	_, err := execute(t, "--config", quietConfig(t), "run", "-o", "xml", dir)
	assert.ErrorContains(t, err, "unknown output format")
}

func TestRunCommandRejectsBadConfig(t *testing.T) {
	path := writeFile(t, t.TempDir(), "config.yaml", "engine: selenium\n")
	_, err := execute(t, "--config", path, "keywords")
	assert.ErrorContains(t, err, "unknown engine")
}

type fakeKeywords struct{ fail map[string]bool }

func (f fakeKeywords) Run(_ context.Context, name string, _ ...any) (any, error) {
	if f.fail[name] {
		return nil, errors.New("boom")
	}
	return name, nil
}

func TestRunSuitesRunsEverySuite(t *testing.T) {
	t.Parallel()

	manager := runner.NewRunnerManager(fakeKeywords{fail: map[string]bool{"Bad": true}})
	require.NoError(t, manager.ParseSuite("first", []byte("steps:\n  - index: 1\n    keyword: Bad\n")))
	require.NoError(t, manager.ParseSuite("second", []byte("steps:\n  - index: 1\n    keyword: Good\n")))

	var out bytes.Buffer
	err := runSuites(context.Background(), manager, []string{"first", "second"}, formatYAML, &out)
	require.ErrorIs(t, err, ErrSuitesFailed)
	assert.Contains(t, err.Error(), "1 of 2")
	assert.Contains(t, out.String(), "first")
	assert.Contains(t, out.String(), "second")
}

func TestRunSuitesUnknownSuite(t *testing.T) {
	t.Parallel()

	manager := runner.NewRunnerManager(fakeKeywords{})
	err := runSuites(context.Background(), manager, []string{"missing"}, formatText, io.Discard)
	assert.ErrorIs(t, err, runner.ErrSuiteNotFound)
}

func TestLibraryOptionsFromConfig(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Library.RunOnFailure = "Nothing"
	cfg.Library.BrowserArgs = []string{"--lang=en"}
	cfg.Browser.UserDataDir = "/tmp/profile"

	opts := libraryOptions(&cfg)
	assert.Equal(t, cfg.Library.Timeout, opts.Timeout)
	assert.Equal(t, "Nothing", opts.RunOnFailure)
	assert.Equal(t, []string{"--lang=en"}, opts.BrowserArgs)
	assert.Equal(t, "/tmp/profile", opts.UserDataDir)
}

func TestChromeEngineFactory(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.Engine = config.EngineChrome
	engine, err := engineFactory(&cfg)()
	require.NoError(t, err)
	require.NotNil(t, engine)
	_, err = engine.ActiveBrowser()
	assert.Error(t, err)
	assert.NoError(t, engine.Close())
}

type abortingKeywords struct {
	manager **runner.RunnerManager
	calls   *[]string
}

func (a abortingKeywords) Run(_ context.Context, name string, _ ...any) (any, error) {
	*a.calls = append(*a.calls, name)
	if name == "Go To" {
		(*a.manager).Abort()
	}
	return nil, nil
}

func TestRunSuitesStopsAfterAbort(t *testing.T) {
	t.Parallel()

	var (
		manager *runner.RunnerManager
		calls   []string
	)
	manager = runner.NewRunnerManager(abortingKeywords{manager: &manager, calls: &calls})
	require.NoError(t, manager.ParseSuite("first", []byte(`
steps:
  - index: 1
    keyword: Go To
  - index: 2
    keyword: Get Title
teardown:
  - index: 1
    keyword: Close All Browsers
`)))
	require.NoError(t, manager.ParseSuite("second", []byte("steps:\n  - index: 1\n    keyword: Reload Page\n")))

	var out bytes.Buffer
	err := runSuites(context.Background(), manager, []string{"first", "second"}, formatText, &out)
	require.ErrorIs(t, err, ErrSuitesFailed)
	assert.Equal(t, []string{"Go To", "Close All Browsers"}, calls)
	assert.NotContains(t, out.String(), "second")
}

func TestSecondInterruptCancels(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals := make(chan os.Signal, 2)
	manager := runner.NewRunnerManager(fakeKeywords{})

	done := make(chan struct{})
	go func() {
		interruptSuites(ctx, signals, manager, cancel)
		close(done)
	}()
	signals <- syscall.SIGINT
	signals <- syscall.SIGINT

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("second interrupt did not stop the run")
	}
	assert.ErrorIs(t, ctx.Err(), context.Canceled)
}
