package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/goleak"

	"github.com/luispater/sl2browser/internal/browser"
	"github.com/luispater/sl2browser/internal/browser/browsertest"
	"github.com/luispater/sl2browser/internal/keyword"
	"github.com/luispater/sl2browser/internal/runner"
)

const loginPage = `<html><head><title>Sign in</title></head><body>
<input id="user" data-test="user"><button id="go" data-test="go">Go</button></body></html>`

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

func newTestServer(t *testing.T, keywords runner.KeywordRunner, config ServerConfig) *Server {
	t.Helper()
	s := NewServer(&config, keywords)
	require.NoError(t, s.StartQueue())
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		assert.NoError(t, s.Stop(ctx))
	})
	return s
}

func newLibraryServer(t *testing.T, config ServerConfig) (*Server, *browsertest.Engine) {
	t.Helper()
	fake := browsertest.New()
	fake.Serve("http://fixture/login", loginPage)
	lib := keyword.New(func() (browser.Engine, error) { return fake, nil }, keyword.Options{RunOnFailure: "Nothing"})
	t.Cleanup(func() { _ = lib.Close() })
	return newTestServer(t, lib, config), fake
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func TestRootListsEndpoints(t *testing.T) {
	s, _ := newLibraryServer(t, ServerConfig{})

	w := do(t, s, http.MethodGet, "/", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "POST /v1/keywords/run")
	assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))

	w = do(t, s, http.MethodOptions, "/v1/keywords/run", "")
	assert.Equal(t, http.StatusNoContent, w.Code)
}

func TestKeywords(t *testing.T) {
	s, _ := newLibraryServer(t, ServerConfig{})

	w := do(t, s, http.MethodGet, "/v1/keywords", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(len(keyword.Catalog)), gjson.Get(w.Body.String(), "keywords.#").Int())

	implemented := 0
	for _, e := range keyword.Catalog {
		if e.Implemented {
			implemented++
		}
	}
	w = do(t, s, http.MethodGet, "/v1/keywords?implemented=true", "")
	body := w.Body.String()
	assert.Equal(t, int64(implemented), gjson.Get(body, "keywords.#").Int())
	for _, flag := range gjson.Get(body, "keywords.#.implemented").Array() {
		assert.True(t, flag.Bool())
	}
}

func TestTranslate(t *testing.T) {
	s, _ := newLibraryServer(t, ServerConfig{})

	tests := []struct {
		locator   string
		selector  string
		isDefault bool
	}{
		{"submit", "[id=submit], [name=submit]", true},
		{"id:submit", "id=submit", false},
		{"class=btn", ".btn", false},
		{"//div[@id='x']", "xpath=//div[@id='x']", false},
	}
	for _, tt := range tests {
		w := do(t, s, http.MethodPost, "/v1/translate", `{"locator":`+quote(tt.locator)+`}`)
		require.Equal(t, http.StatusOK, w.Code, tt.locator)
		body := w.Body.String()
		assert.Equal(t, tt.selector, gjson.Get(body, "selector").String(), tt.locator)
		assert.Equal(t, tt.isDefault, gjson.Get(body, "default").Bool(), tt.locator)
	}

	w := do(t, s, http.MethodPost, "/v1/translate", `{"locator": 3}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "invalid_request_error", gjson.Get(w.Body.String(), "error.type").String())
}

func quote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `\"`) + `"`
}

func TestRunKeyword(t *testing.T) {
	s, fake := newLibraryServer(t, ServerConfig{})

	w := do(t, s, http.MethodPost, "/v1/keywords/run", `{"keyword":"Open Browser","args":["http://fixture/login"]}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "PASS", gjson.Get(w.Body.String(), "status").String())
	assert.Equal(t, "1", gjson.Get(w.Body.String(), "return").String())

	w = do(t, s, http.MethodPost, "/v1/keywords/run", `{"keyword":"get title"}`)
	assert.Equal(t, "Sign in", gjson.Get(w.Body.String(), "return").String())

	w = do(t, s, http.MethodPost, "/v1/keywords/run", `{"keyword":"Input Text","args":["user","bob"],"kwargs":{"clear":false}}`)
	require.Equal(t, "PASS", gjson.Get(w.Body.String(), "status").String(), w.Body.String())
	typed := fake.CallsOf("TypeText")
	require.Len(t, typed, 1)
	assert.Equal(t, []any{"bob", false}, typed[0].Args)

	w = do(t, s, http.MethodPost, "/v1/keywords/run", `{"keyword":"Get Element Count","args":["css=input"]}`)
	assert.Equal(t, int64(1), gjson.Get(w.Body.String(), "return").Int())
}

func TestNamedArguments(t *testing.T) {
	t.Parallel()

	got := namedArguments(gjson.Parse(`{"timeout":5,"message":null,"clear":false,"text":"hi"}`))
	assert.Equal(t, []string{"clear=false", "message=", "text=hi", "timeout=5"}, got)
	assert.Nil(t, namedArguments(gjson.Parse(`["a"]`)))
	assert.Nil(t, namedArguments(gjson.Result{}))
}

func TestRunKeywordFailures(t *testing.T) {
	s, _ := newLibraryServer(t, ServerConfig{})
	do(t, s, http.MethodPost, "/v1/keywords/run", `{"keyword":"Open Browser","args":["http://fixture/login"]}`)

	tests := []struct {
		body      string
		errorType string
	}{
		{`{"keyword":"Title Should Be","args":["Home"]}`, "assertion"},
		{`{"keyword":"Add Cookie","args":["a","1"]}`, "not_implemented"},
		{`{"keyword":"Fly To The Moon"}`, "unknown_keyword"},
	}
	for _, tt := range tests {
		w := do(t, s, http.MethodPost, "/v1/keywords/run", tt.body)
		require.Equal(t, http.StatusOK, w.Code)
		body := w.Body.String()
		assert.Equal(t, "FAIL", gjson.Get(body, "status").String(), tt.body)
		assert.Equal(t, tt.errorType, gjson.Get(body, "error_type").String(), tt.body)
		assert.NotEmpty(t, gjson.Get(body, "error").String())
	}

	for _, body := range []string{`not json`, `{"args":[]}`, `{"keyword":"  "}`} {
		w := do(t, s, http.MethodPost, "/v1/keywords/run", body)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
	}
}

func TestRunSuite(t *testing.T) {
	s, fake := newLibraryServer(t, ServerConfig{})

	suite := `
name: login
steps:
  - index: 1
    keyword: Open Browser
    args: [http://fixture/login]
  - index: 2
    keyword: Input Text
    args: [user, alice]
  - index: 3
    keyword: Click Button
    args: [go]
`
	w := do(t, s, http.MethodPost, "/v1/suites/run", suite)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := w.Body.String()
	assert.Equal(t, runner.StatusPass, gjson.Get(body, "status").String())
	assert.Equal(t, int64(3), gjson.Get(body, "steps.#").Int())
	require.Len(t, fake.CallsOf("Click"), 1)
	assert.Equal(t, "go", fake.CallsOf("Click")[0].Target)

	w = do(t, s, http.MethodPost, "/v1/suites/run", "steps:\n  - index: 1\n    keyword: Title Should Be\n    args: [Home]\n")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, runner.StatusFail, gjson.Get(w.Body.String(), "status").String())
	assert.Contains(t, gjson.Get(w.Body.String(), "error").String(), "should be 'Home'")

	w = do(t, s, http.MethodPost, "/v1/suites/run", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
	w = do(t, s, http.MethodPost, "/v1/suites/run", "name: no steps\n")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestNamedSuites(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "title.yaml"), []byte(`
steps:
  - index: 1
    keyword: Open Browser
    args: [http://fixture/login]
  - index: 2
    keyword: Get Title
`), 0o644))
	s, _ := newLibraryServer(t, ServerConfig{SuitesDir: dir})

	w := do(t, s, http.MethodGet, "/v1/suites", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, `["title"]`, gjson.Get(w.Body.String(), "suites").Raw)

	w = do(t, s, http.MethodPost, "/v1/suites/title/run", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Sign in", gjson.Get(w.Body.String(), "steps.1.return").String())

	w = do(t, s, http.MethodPost, "/v1/suites/missing/run", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

type blockingRunner struct{}

func (blockingRunner) Run(ctx context.Context, _ string, _ ...any) (any, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestRequestTimeout(t *testing.T) {
	s := newTestServer(t, blockingRunner{}, ServerConfig{RequestTimeout: 50 * time.Millisecond})

	w := do(t, s, http.MethodPost, "/v1/keywords/run", `{"keyword":"Get Title"}`)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Equal(t, "timeout_error", gjson.Get(w.Body.String(), "error.type").String())
}

type stuckProcessor struct{}

func (stuckProcessor) ProcessTask(ctx context.Context, _ *RequestTask) *TaskResponse {
	<-ctx.Done()
	return &TaskResponse{Error: ctx.Err()}
}

func TestRequestQueue(t *testing.T) {
	q := NewRequestQueue(stuckProcessor{})
	assert.ErrorIs(t, q.AddTask(&RequestTask{ID: "early"}), ErrQueueNotRunning)

	require.NoError(t, q.Start())
	assert.True(t, q.IsRunning())
	assert.Error(t, q.Start())

	full := 0
	for i := 0; i < queueSize+2; i++ {
		if err := q.AddTask(&RequestTask{ID: "t", Response: make(chan *TaskResponse, 1)}); err != nil {
			assert.ErrorIs(t, err, ErrQueueFull)
			full++
		}
	}
	assert.GreaterOrEqual(t, full, 1)

	require.NoError(t, q.Stop())
	assert.False(t, q.IsRunning())
	assert.ErrorIs(t, q.Stop(), ErrQueueNotRunning)
	assert.ErrorIs(t, q.AddTask(&RequestTask{ID: "late"}), ErrQueueNotRunning)
}
