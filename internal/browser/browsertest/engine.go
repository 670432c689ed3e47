// Package browsertest provides an in-memory browser.Engine backed by HTML
// fixtures. Selectors are resolved against the parsed fixture so tests can
// check which element a keyword would act on.
package browsertest

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/luispater/sl2browser/internal/browser"
)

const blankPage = `<html><head><title></title></head><body></body></html>`

// Call is one recorded engine invocation.
type Call struct {
	Method   string
	Selector string
	// Target is the data-test attribute of the element acted on, if any.
	Target string
	Args   []any
}

// Page is an open fixture page.
type Page struct {
	ID      string
	URL     string
	doc     *html.Node
	history []string
}

type session struct {
	id      string
	pages   []*Page
	active  int
	cookies []browser.Cookie
	opts    browser.LaunchOptions
}

// Engine is a fake browser.Engine. The zero value is not usable, call New.
type Engine struct {
	mu       sync.Mutex
	fixtures map[string]string
	sessions []*session
	active   int
	nextID   int
	calls    []Call
	failures map[string]error

	// EvalResult is returned by Evaluate.
	EvalResult any
	// Closed is set by Close.
	Closed bool
}

var _ browser.Engine = (*Engine)(nil)

// New returns an empty fake engine.
func New() *Engine {
	return &Engine{
		fixtures: make(map[string]string),
		failures: make(map[string]error),
		active:   -1,
	}
}

// Serve registers the HTML returned for url.
func (e *Engine) Serve(url, document string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.fixtures[url] = document
}

// FailOn makes every call of method return err.
func (e *Engine) FailOn(method string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.failures[method] = err
}

// SetCookies replaces the cookies of the active browser.
func (e *Engine) SetCookies(cookies ...browser.Cookie) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if s := e.current(); s != nil {
		s.cookies = cookies
	}
}

// Calls returns the recorded invocations.
func (e *Engine) Calls() []Call {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]Call(nil), e.calls...)
}

// CallsOf returns the recorded invocations of method.
func (e *Engine) CallsOf(method string) []Call {
	var result []Call
	for _, c := range e.Calls() {
		if c.Method == method {
			result = append(result, c)
		}
	}
	return result
}

// LaunchOptions returns the options the given browser was opened with.
func (e *Engine) LaunchOptions(id string) (browser.LaunchOptions, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, s := range e.sessions {
		if s.id == id {
			return s.opts, true
		}
	}
	return browser.LaunchOptions{}, false
}

func (e *Engine) record(method, selector string, target *html.Node, args ...any) error {
	e.calls = append(e.calls, Call{Method: method, Selector: selector, Target: testID(target), Args: args})
	return e.failures[method]
}

func (e *Engine) newID(prefix string) string {
	e.nextID++
	return prefix + "-" + strconv.Itoa(e.nextID)
}

func (e *Engine) current() *session {
	if e.active < 0 || e.active >= len(e.sessions) {
		return nil
	}
	return e.sessions[e.active]
}

func (e *Engine) page() (*Page, error) {
	s := e.current()
	if s == nil {
		return nil, browser.ErrNoBrowser
	}
	if s.active < 0 || s.active >= len(s.pages) {
		return nil, browser.ErrNoPage
	}
	return s.pages[s.active], nil
}

func (e *Engine) load(p *Page, url string) error {
	document, ok := e.fixtures[url]
	if !ok {
		document = blankPage
	}
	doc, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return fmt.Errorf("parse fixture %s: %w", url, err)
	}
	p.doc = doc
	p.URL = url
	return nil
}

func (e *Engine) NewPersistentContext(_ context.Context, opts browser.LaunchOptions) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("NewPersistentContext", "", nil, opts); err != nil {
		return "", err
	}
	s := &session{id: e.newID("browser"), opts: opts}
	p := &Page{ID: e.newID("page")}
	if err := e.load(p, opts.URL); err != nil {
		return "", err
	}
	s.pages = append(s.pages, p)
	e.sessions = append(e.sessions, s)
	e.active = len(e.sessions) - 1
	return s.id, nil
}

// OpenPage opens another page in the active browser and makes it current.
func (e *Engine) OpenPage(url string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.current()
	if s == nil {
		return "", browser.ErrNoBrowser
	}
	p := &Page{ID: e.newID("page")}
	if err := e.load(p, url); err != nil {
		return "", err
	}
	s.pages = append(s.pages, p)
	s.active = len(s.pages) - 1
	return p.ID, nil
}

func (e *Engine) CloseBrowser(_ context.Context, sel browser.Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("CloseBrowser", "", nil, sel); err != nil {
		return err
	}
	if sel == browser.SelectionAll {
		e.sessions = nil
		e.active = -1
		return nil
	}
	if e.current() == nil {
		return browser.ErrNoBrowser
	}
	e.sessions = append(e.sessions[:e.active], e.sessions[e.active+1:]...)
	e.active = len(e.sessions) - 1
	return nil
}

func (e *Engine) ActiveBrowser() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.current()
	if s == nil {
		return "", browser.ErrNoBrowser
	}
	return s.id, nil
}

func (e *Engine) SwitchBrowser(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.sessions {
		if s.id == id {
			e.active = i
			return e.record("SwitchBrowser", "", nil, id)
		}
	}
	return fmt.Errorf("browser %s: %w", id, browser.ErrNoBrowser)
}

func (e *Engine) PageIDs(_ context.Context, sel browser.Selection) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for i, s := range e.sessions {
		if sel == browser.SelectionCurrent && i != e.active {
			continue
		}
		for _, p := range s.pages {
			ids = append(ids, p.ID)
		}
	}
	return ids, nil
}

func (e *Engine) ActivePage() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page()
	if err != nil {
		return "", err
	}
	return p.ID, nil
}

func (e *Engine) SwitchPage(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.sessions {
		for j, p := range s.pages {
			if p.ID == id {
				e.active = i
				s.active = j
				return e.record("SwitchPage", "", nil, id)
			}
		}
	}
	return fmt.Errorf("page %s: %w", id, browser.ErrNoPage)
}

func (e *Engine) ClosePage(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.record("ClosePage", "", nil); err != nil {
		return err
	}
	s := e.current()
	if s == nil {
		return browser.ErrNoBrowser
	}
	if _, err := e.page(); err != nil {
		return err
	}
	s.pages = append(s.pages[:s.active], s.pages[s.active+1:]...)
	s.active = len(s.pages) - 1
	return nil
}

func (e *Engine) Goto(_ context.Context, url string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page()
	if err != nil {
		return err
	}
	if err = e.record("Goto", "", nil, url); err != nil {
		return err
	}
	p.history = append(p.history, p.URL)
	return e.load(p, url)
}

func (e *Engine) GoBack(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page()
	if err != nil {
		return err
	}
	if err = e.record("GoBack", "", nil); err != nil {
		return err
	}
	if len(p.history) == 0 {
		return nil
	}
	prev := p.history[len(p.history)-1]
	p.history = p.history[:len(p.history)-1]
	return e.load(p, prev)
}

func (e *Engine) Reload(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page()
	if err != nil {
		return err
	}
	if err = e.record("Reload", "", nil); err != nil {
		return err
	}
	return e.load(p, p.URL)
}

func (e *Engine) URL(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page()
	if err != nil {
		return "", err
	}
	return p.URL, nil
}

func (e *Engine) Title(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page()
	if err != nil {
		return "", err
	}
	if n := htmlquery.FindOne(p.doc, "//title"); n != nil {
		return browser.NormalizeSpace(htmlquery.InnerText(n)), nil
	}
	return "", nil
}

func (e *Engine) Source(context.Context) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, err := e.page()
	if err != nil {
		return "", err
	}
	return htmlquery.OutputHTML(p.doc, true), nil
}

// first resolves selector on the active page and returns the first match.
func (e *Engine) first(selector string) (*html.Node, error) {
	nodes, err := e.all(selector)
	if err != nil {
		return nil, err
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
	}
	return nodes[0], nil
}

func (e *Engine) all(selector string) ([]*html.Node, error) {
	p, err := e.page()
	if err != nil {
		return nil, err
	}
	return QueryAll(p.doc, selector)
}

func (e *Engine) Click(_ context.Context, selector string, opts browser.ClickOptions) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return err
	}
	return e.record("Click", selector, n, opts)
}

func (e *Engine) TypeText(_ context.Context, selector, text string, clear bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return err
	}
	if err = e.record("TypeText", selector, n, text, clear); err != nil {
		return err
	}
	if clear {
		setAttr(n, "value", text)
	} else {
		setAttr(n, "value", attr(n, "value")+text)
	}
	return nil
}

func (e *Engine) ClearText(_ context.Context, selector string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return err
	}
	if err = e.record("ClearText", selector, n); err != nil {
		return err
	}
	setAttr(n, "value", "")
	return nil
}

func (e *Engine) Text(_ context.Context, selector string) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return "", err
	}
	switch n.Data {
	case "input", "textarea", "select":
		return attr(n, "value"), nil
	}
	return browser.NormalizeSpace(htmlquery.InnerText(n)), nil
}

func (e *Engine) Attribute(_ context.Context, selector, name string) (string, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return "", false, err
	}
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val, true, nil
		}
	}
	return "", false, nil
}

func (e *Engine) AttributeNames(_ context.Context, selector string) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(n.Attr))
	for _, a := range n.Attr {
		names = append(names, a.Key)
	}
	return names, nil
}

func (e *Engine) ElementStates(_ context.Context, selector string) ([]browser.ElementState, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return nil, err
	}
	states := []browser.ElementState{browser.StateAttached}
	if hasAttr(n, "hidden") || strings.Contains(strings.ReplaceAll(attr(n, "style"), " ", ""), "display:none") {
		states = append(states, browser.StateHidden)
	} else {
		states = append(states, browser.StateVisible)
	}
	if hasAttr(n, "disabled") {
		states = append(states, browser.StateDisabled)
	} else {
		states = append(states, browser.StateEnabled)
		if !hasAttr(n, "readonly") {
			states = append(states, browser.StateEditable)
		}
	}
	if hasAttr(n, "checked") {
		states = append(states, browser.StateChecked)
	}
	if hasAttr(n, "autofocus") {
		states = append(states, browser.StateFocused)
	}
	return states, nil
}

func (e *Engine) CheckboxState(_ context.Context, selector string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return false, err
	}
	return hasAttr(n, "checked"), nil
}

func (e *Engine) SetChecked(_ context.Context, selector string, checked bool) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return err
	}
	if err = e.record("SetChecked", selector, n, checked); err != nil {
		return err
	}
	if checked {
		setAttr(n, "checked", "")
	} else {
		removeAttr(n, "checked")
	}
	return nil
}

func (e *Engine) SelectOptions(_ context.Context, selector string, by browser.SelectAttribute, values ...string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return err
	}
	args := []any{by}
	for _, v := range values {
		args = append(args, v)
	}
	if err = e.record("SelectOptions", selector, n, args...); err != nil {
		return err
	}
	for i, o := range htmlquery.Find(n, ".//option") {
		removeAttr(o, "selected")
		var key string
		switch by {
		case browser.SelectByIndex:
			key = strconv.Itoa(i)
		case browser.SelectByLabel:
			key = browser.NormalizeSpace(htmlquery.InnerText(o))
		default:
			key = attr(o, "value")
		}
		for _, v := range values {
			if v == key {
				setAttr(o, "selected", "")
			}
		}
	}
	return nil
}

func (e *Engine) SelectOptionList(_ context.Context, selector string) ([]browser.SelectOption, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return nil, err
	}
	var options []browser.SelectOption
	for i, o := range htmlquery.Find(n, ".//option") {
		label := browser.NormalizeSpace(htmlquery.InnerText(o))
		value := label
		if hasAttr(o, "value") {
			value = attr(o, "value")
		}
		options = append(options, browser.SelectOption{
			Index:    i,
			Label:    label,
			Value:    value,
			Selected: hasAttr(o, "selected"),
		})
	}
	return options, nil
}

// BoundingBox reads data-x, data-y, data-width and data-height.
func (e *Engine) BoundingBox(_ context.Context, selector string) (browser.BoundingBox, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return browser.BoundingBox{}, err
	}
	num := func(key string) float64 {
		v, _ := strconv.ParseFloat(attr(n, key), 64)
		return v
	}
	return browser.BoundingBox{X: num("data-x"), Y: num("data-y"), Width: num("data-width"), Height: num("data-height")}, nil
}

func (e *Engine) ElementCount(_ context.Context, selector string) (int, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	nodes, err := e.all(selector)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}

func (e *Engine) Screenshot(_ context.Context, path, selector string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	var target *html.Node
	if selector != "" {
		n, err := e.first(selector)
		if err != nil {
			return err
		}
		target = n
	} else if _, err := e.page(); err != nil {
		return err
	}
	return e.record("Screenshot", selector, target, path)
}

func (e *Engine) UploadFile(_ context.Context, selector, path string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return err
	}
	return e.record("UploadFile", selector, n, path)
}

func (e *Engine) DragAndDrop(_ context.Context, source, target string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(source)
	if err != nil {
		return err
	}
	if _, err = e.first(target); err != nil {
		return err
	}
	return e.record("DragAndDrop", source, n, target)
}

func (e *Engine) DragAndDropRelative(_ context.Context, source string, dx, dy float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(source)
	if err != nil {
		return err
	}
	return e.record("DragAndDropRelative", source, n, dx, dy)
}

func (e *Engine) Hover(_ context.Context, selector string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	n, err := e.first(selector)
	if err != nil {
		return err
	}
	return e.record("Hover", selector, n)
}

func (e *Engine) Evaluate(_ context.Context, script string) (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, err := e.page(); err != nil {
		return nil, err
	}
	if err := e.record("Evaluate", "", nil, script); err != nil {
		return nil, err
	}
	return e.EvalResult, nil
}

func (e *Engine) Cookies(context.Context) ([]browser.Cookie, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.current()
	if s == nil {
		return nil, browser.ErrNoBrowser
	}
	return append([]browser.Cookie(nil), s.cookies...), nil
}

func (e *Engine) DeleteAllCookies(context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	s := e.current()
	if s == nil {
		return browser.ErrNoBrowser
	}
	s.cookies = nil
	return e.record("DeleteAllCookies", "", nil)
}

func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Closed = true
	return nil
}

// QueryAll resolves an engine selector against doc.
func QueryAll(doc *html.Node, selector string) ([]*html.Node, error) {
	scope := []*html.Node{doc}
	for _, part := range browser.ParseSelector(selector) {
		var next []*html.Node
		switch part.Engine {
		case "css":
			for _, s := range scope {
				next = append(next, goquery.NewDocumentFromNode(s).Find(part.Body).Nodes...)
			}
		case "xpath":
			for _, s := range scope {
				nodes, err := htmlquery.QueryAll(s, part.Body)
				if err != nil {
					return nil, fmt.Errorf("invalid xpath %q: %w", part.Body, err)
				}
				next = append(next, nodes...)
			}
		case "text":
			for _, s := range scope {
				next = append(next, matchText(s, part.Body)...)
			}
		case "nth":
			i, err := strconv.Atoi(part.Body)
			if err != nil {
				return nil, fmt.Errorf("invalid nth %q: %w", part.Body, err)
			}
			if i < 0 {
				i += len(scope)
			}
			if i >= 0 && i < len(scope) {
				next = []*html.Node{scope[i]}
			}
		}
		scope = unique(next)
	}
	return scope, nil
}

// matchText returns the innermost elements under root, root included,
// whose text satisfies body.
func matchText(root *html.Node, body string) []*html.Node {
	var result []*html.Node
	var walk func(n *html.Node) bool
	walk = func(n *html.Node) bool {
		childMatched := false
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				childMatched = true
			}
		}
		if n.Type != html.ElementNode {
			return childMatched
		}
		if !childMatched && browser.MatchText(body, htmlquery.InnerText(n)) {
			result = append(result, n)
			return true
		}
		return childMatched
	}
	walk(root)
	return result
}

func unique(nodes []*html.Node) []*html.Node {
	seen := make(map[*html.Node]bool, len(nodes))
	result := nodes[:0]
	for _, n := range nodes {
		if !seen[n] {
			seen[n] = true
			result = append(result, n)
		}
	}
	return result
}

func testID(n *html.Node) string {
	if n == nil {
		return ""
	}
	return attr(n, "data-test")
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

func setAttr(n *html.Node, key, value string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = value
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: value})
}

func removeAttr(n *html.Node, key string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			return
		}
	}
}
