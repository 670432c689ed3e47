// Package playwright implements browser.Engine on playwright-go. Every
// legacy browser is a persistent context; its pages, popups included, are
// tracked in opening order.
package playwright

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	pw "github.com/playwright-community/playwright-go"
	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/browser"
)

// dragSteps is the number of intermediate mouse moves of a relative drag.
const dragSteps = 10

// Options configure the engine for every browser it launches.
type Options struct {
	// Install downloads the driver and the browsers before starting.
	Install  bool
	ExecPath string
	Args     []string
	Headless bool
}

type page struct {
	id   string
	page pw.Page
}

type session struct {
	id      string
	context pw.BrowserContext
	pages   []*page
	active  int
}

// Engine holds the Playwright instance and the open browsers.
type Engine struct {
	mu       sync.Mutex
	pw       *pw.Playwright
	opts     Options
	sessions []*session
	active   int
}

var _ browser.Engine = (*Engine)(nil)

// New starts the Playwright driver.
func New(opts Options) (*Engine, error) {
	if opts.Install {
		log.Info("Installing playwright driver and browsers")
		if err := pw.Install(&pw.RunOptions{Verbose: log.IsLevelEnabled(log.DebugLevel)}); err != nil {
			return nil, fmt.Errorf("install playwright: %w", err)
		}
	}
	p, err := pw.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}
	return &Engine{pw: p, opts: opts, active: -1}, nil
}

// timeoutMs converts the ctx deadline to a Playwright timeout. Without a
// deadline Playwright keeps its own default.
func timeoutMs(ctx context.Context) *float64 {
	deadline, ok := ctx.Deadline()
	if !ok {
		return nil
	}
	ms := float64(time.Until(deadline).Milliseconds())
	if ms < 1 {
		ms = 1
	}
	return pw.Float(ms)
}

func (e *Engine) browserType(kind browser.Kind) pw.BrowserType {
	switch kind {
	case browser.Firefox:
		return e.pw.Firefox
	case browser.WebKit:
		return e.pw.WebKit
	}
	return e.pw.Chromium
}

func (e *Engine) NewPersistentContext(ctx context.Context, opts browser.LaunchOptions) (string, error) {
	launch := pw.BrowserTypeLaunchPersistentContextOptions{
		Headless: pw.Bool(e.opts.Headless || opts.Headless),
		Args:     append(append([]string{}, e.opts.Args...), opts.Args...),
		Timeout:  timeoutMs(ctx),
	}
	if e.opts.ExecPath != "" && (opts.Browser == "" || opts.Browser == browser.Chromium) {
		launch.ExecutablePath = pw.String(e.opts.ExecPath)
	}
	log.Debugf("launching %s, user data dir %q", opts.Browser, opts.UserDataDir)
	bc, err := e.browserType(opts.Browser).LaunchPersistentContext(opts.UserDataDir, launch)
	if err != nil {
		return "", fmt.Errorf("launch %s: %w", opts.Browser, err)
	}
	if opts.Timeout > 0 {
		bc.SetDefaultTimeout(float64(opts.Timeout.Milliseconds()))
	}

	s := &session{id: uuid.New().String(), context: bc}
	for _, p := range bc.Pages() {
		s.pages = append(s.pages, &page{id: uuid.New().String(), page: p})
	}
	if len(s.pages) == 0 {
		p, errPage := bc.NewPage()
		if errPage != nil {
			_ = bc.Close()
			return "", errPage
		}
		s.pages = append(s.pages, &page{id: uuid.New().String(), page: p})
	}
	s.active = 0
	bc.OnPage(func(p pw.Page) {
		e.mu.Lock()
		defer e.mu.Unlock()
		for _, known := range s.pages {
			if known.page == p {
				return
			}
		}
		log.Debugf("browser %s opened a new page", s.id)
		s.pages = append(s.pages, &page{id: uuid.New().String(), page: p})
	})

	if opts.URL != "" {
		if _, err = s.pages[0].page.Goto(opts.URL, pw.PageGotoOptions{Timeout: timeoutMs(ctx)}); err != nil {
			_ = bc.Close()
			return "", fmt.Errorf("open %s: %w", opts.URL, err)
		}
	}

	e.mu.Lock()
	e.sessions = append(e.sessions, s)
	e.active = len(e.sessions) - 1
	e.mu.Unlock()
	return s.id, nil
}

func (e *Engine) current() (*session, error) {
	if e.active < 0 || e.active >= len(e.sessions) {
		return nil, browser.ErrNoBrowser
	}
	return e.sessions[e.active], nil
}

func (e *Engine) page() (pw.Page, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	if s.active < 0 || s.active >= len(s.pages) {
		return nil, browser.ErrNoPage
	}
	return s.pages[s.active].page, nil
}

func (e *Engine) CloseBrowser(_ context.Context, sel browser.Selection) error {
	e.mu.Lock()
	var closing []*session
	if sel == browser.SelectionAll {
		closing = e.sessions
		e.sessions = nil
		e.active = -1
	} else {
		s, err := e.current()
		if err != nil {
			e.mu.Unlock()
			return err
		}
		closing = []*session{s}
		e.sessions = append(e.sessions[:e.active], e.sessions[e.active+1:]...)
		e.active = len(e.sessions) - 1
	}
	e.mu.Unlock()

	var errs []error
	for _, s := range closing {
		if err := s.context.Close(); err != nil {
			log.Debugf("Error closing browser %s: %v", s.id, err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (e *Engine) ActiveBrowser() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.current()
	if err != nil {
		return "", err
	}
	return s.id, nil
}

func (e *Engine) SwitchBrowser(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.sessions {
		if s.id == id {
			e.active = i
			if s.active >= 0 && s.active < len(s.pages) {
				return s.pages[s.active].page.BringToFront()
			}
			return nil
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
			if p.page.IsClosed() {
				continue
			}
			ids = append(ids, p.id)
		}
	}
	return ids, nil
}

func (e *Engine) ActivePage() (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.current()
	if err != nil {
		return "", err
	}
	if s.active < 0 || s.active >= len(s.pages) {
		return "", browser.ErrNoPage
	}
	return s.pages[s.active].id, nil
}

func (e *Engine) SwitchPage(_ context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for i, s := range e.sessions {
		for j, p := range s.pages {
			if p.id == id {
				e.active = i
				s.active = j
				return p.page.BringToFront()
			}
		}
	}
	return fmt.Errorf("page %s: %w", id, browser.ErrNoPage)
}

func (e *Engine) ClosePage(context.Context) error {
	e.mu.Lock()
	s, err := e.current()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if s.active < 0 || s.active >= len(s.pages) {
		e.mu.Unlock()
		return browser.ErrNoPage
	}
	p := s.pages[s.active]
	s.pages = append(s.pages[:s.active], s.pages[s.active+1:]...)
	s.active = len(s.pages) - 1
	e.mu.Unlock()
	return p.page.Close()
}

func (e *Engine) Goto(ctx context.Context, url string) error {
	p, err := e.page()
	if err != nil {
		return err
	}
	_, err = p.Goto(url, pw.PageGotoOptions{Timeout: timeoutMs(ctx)})
	return err
}

func (e *Engine) GoBack(ctx context.Context) error {
	p, err := e.page()
	if err != nil {
		return err
	}
	_, err = p.GoBack(pw.PageGoBackOptions{Timeout: timeoutMs(ctx)})
	return err
}

func (e *Engine) Reload(ctx context.Context) error {
	p, err := e.page()
	if err != nil {
		return err
	}
	_, err = p.Reload(pw.PageReloadOptions{Timeout: timeoutMs(ctx)})
	return err
}

func (e *Engine) URL(context.Context) (string, error) {
	p, err := e.page()
	if err != nil {
		return "", err
	}
	return p.URL(), nil
}

func (e *Engine) Title(context.Context) (string, error) {
	p, err := e.page()
	if err != nil {
		return "", err
	}
	return p.Title()
}

func (e *Engine) Source(context.Context) (string, error) {
	p, err := e.page()
	if err != nil {
		return "", err
	}
	return p.Content()
}

func (e *Engine) Evaluate(_ context.Context, script string) (any, error) {
	p, err := e.page()
	if err != nil {
		return nil, err
	}
	return p.Evaluate(script)
}

func (e *Engine) Screenshot(ctx context.Context, path, selector string) error {
	if selector != "" {
		l, err := e.locate(ctx, selector)
		if err != nil {
			return err
		}
		_, err = l.Screenshot(pw.LocatorScreenshotOptions{Path: pw.String(path), Timeout: timeoutMs(ctx)})
		return err
	}
	p, err := e.page()
	if err != nil {
		return err
	}
	_, err = p.Screenshot(pw.PageScreenshotOptions{Path: pw.String(path), Timeout: timeoutMs(ctx)})
	return err
}

func (e *Engine) Cookies(context.Context) ([]browser.Cookie, error) {
	e.mu.Lock()
	s, err := e.current()
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}
	cookies, err := s.context.Cookies()
	if err != nil {
		return nil, err
	}
	out := make([]browser.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := browser.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HttpOnly,
			Secure:   c.Secure,
		}
		if c.Expires > 0 {
			cookie.Expiry = time.Unix(int64(c.Expires), 0)
		}
		if c.SameSite != nil {
			cookie.SameSite = string(*c.SameSite)
		}
		out = append(out, cookie)
	}
	return out, nil
}

func (e *Engine) DeleteAllCookies(context.Context) error {
	e.mu.Lock()
	s, err := e.current()
	e.mu.Unlock()
	if err != nil {
		return err
	}
	return s.context.ClearCookies()
}

// Close closes every browser and stops the Playwright driver.
func (e *Engine) Close() error {
	var firstErr error
	if err := e.CloseBrowser(context.Background(), browser.SelectionAll); err != nil {
		firstErr = err
	}
	if e.pw != nil {
		if err := e.pw.Stop(); err != nil {
			log.Debugf("Error stopping playwright: %v", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
