// Package chrome implements browser.Engine on chromedp. Each legacy browser
// gets its own allocator, so each one is a separate Chrome process with its
// own profile. Only the chromium family is supported.
package chrome

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/cdproto/target"
	"github.com/chromedp/chromedp"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/browser"
)

// ErrUnsupportedBrowser is returned for browser families Chrome cannot run.
var ErrUnsupportedBrowser = errors.New("chrome engine only runs chromium browsers")

// Options configure every Chrome process the engine starts.
type Options struct {
	ExecPath string
	Args     []string
	Headless bool
}

// tab is one page target. Its id is the CDP target id.
type tab struct {
	id     string
	ctx    context.Context
	cancel context.CancelFunc
}

type session struct {
	id            string
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	tabs          []*tab
	active        int
}

// Engine manages the Chrome processes of the open legacy browsers.
type Engine struct {
	mu       sync.Mutex
	opts     Options
	sessions []*session
	active   int
}

var _ browser.Engine = (*Engine)(nil)

// New returns an engine without starting Chrome. When no executable is
// configured CHROME_BIN is used, then chromedp auto-detection.
func New(opts Options) *Engine {
	if opts.ExecPath == "" {
		opts.ExecPath = os.Getenv("CHROME_BIN")
		if opts.ExecPath == "" {
			log.Debug("Chrome path not specified in config or CHROME_BIN env, will attempt auto-detection.")
		}
	}
	return &Engine{opts: opts, active: -1}
}

// parseFlag splits a command line switch into a chromedp flag.
func parseFlag(arg string) (string, any, bool) {
	arg = strings.TrimSpace(arg)
	if arg == "" {
		return "", nil, false
	}
	parts := strings.SplitN(arg, "=", 2)
	name := strings.TrimLeft(parts[0], "-")
	if len(parts) == 2 {
		return name, parts[1], true
	}
	return name, true, true
}

func (e *Engine) allocatorOptions(opts browser.LaunchOptions) []chromedp.ExecAllocatorOption {
	options := []chromedp.ExecAllocatorOption{
		chromedp.NoFirstRun,
		chromedp.NoDefaultBrowserCheck,
	}
	if e.opts.ExecPath != "" {
		options = append(options, chromedp.ExecPath(e.opts.ExecPath))
	}
	if e.opts.Headless || opts.Headless {
		options = append(options,
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.WindowSize(1920, 1080),
		)
	}
	if opts.UserDataDir != "" {
		options = append(options, chromedp.UserDataDir(opts.UserDataDir))
	}
	for _, arg := range append(append([]string{}, e.opts.Args...), opts.Args...) {
		if name, value, ok := parseFlag(arg); ok {
			options = append(options, chromedp.Flag(name, value))
		}
	}
	return options
}

func (e *Engine) NewPersistentContext(ctx context.Context, opts browser.LaunchOptions) (string, error) {
	if opts.Browser != "" && opts.Browser != browser.Chromium {
		return "", fmt.Errorf("%w, got %s", ErrUnsupportedBrowser, opts.Browser)
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), e.allocatorOptions(opts)...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx, chromedp.WithLogf(log.Debugf))
	s := &session{
		id:            uuid.New().String(),
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
	}

	// the first Run allocates the browser and binds it to its context, so it
	// must not carry the keyword deadline
	if err := chromedp.Run(browserCtx); err != nil {
		s.close()
		return "", fmt.Errorf("failed to launch browser: %w", err)
	}

	// the first tab is the target chromedp attached the browser context to
	first := &tab{
		id:     string(chromedp.FromContext(browserCtx).Target.TargetID),
		ctx:    browserCtx,
		cancel: browserCancel,
	}
	s.tabs = []*tab{first}
	s.active = 0

	chromedp.ListenBrowser(browserCtx, func(ev interface{}) {
		created, ok := ev.(*target.EventTargetCreated)
		if !ok || created.TargetInfo.Type != "page" || created.TargetInfo.OpenerID == "" {
			return
		}
		go e.attachPopup(s, created.TargetInfo.TargetID)
	})

	if opts.URL != "" {
		navCtx, cancelNav := bounded(browserCtx, ctx)
		err := chromedp.Run(navCtx, chromedp.Navigate(opts.URL))
		cancelNav()
		if err != nil {
			s.close()
			return "", fmt.Errorf("failed to open %s: %w", opts.URL, err)
		}
	}
	log.Debugf("Chrome browser %s launched, exec path %q", s.id, e.opts.ExecPath)

	e.mu.Lock()
	e.sessions = append(e.sessions, s)
	e.active = len(e.sessions) - 1
	e.mu.Unlock()
	return s.id, nil
}

func (e *Engine) attachPopup(s *session, id target.ID) {
	tabCtx, cancel := chromedp.NewContext(s.browserCtx, chromedp.WithTargetID(id))
	// attach now, a later Run with a deadline would bind the tab to it
	if err := chromedp.Run(tabCtx); err != nil {
		log.Debugf("browser %s cannot attach popup %s: %v", s.id, id, err)
		cancel()
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, t := range s.tabs {
		if t.id == string(id) {
			cancel()
			return
		}
	}
	log.Debugf("browser %s opened popup %s", s.id, id)
	s.tabs = append(s.tabs, &tab{id: string(id), ctx: tabCtx, cancel: cancel})
}

// close shuts the Chrome process down.
func (s *session) close() {
	if s.browserCancel != nil {
		s.browserCancel()
	}
	if s.allocCancel != nil {
		s.allocCancel()
	}
}

// bounded derives a context from a chromedp context that ends with the
// caller's ctx, deadline included.
func bounded(chromeCtx, ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if deadline, ok := ctx.Deadline(); ok {
		runCtx, cancel = context.WithDeadline(chromeCtx, deadline)
	} else {
		runCtx, cancel = context.WithCancel(chromeCtx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

func (e *Engine) current() (*session, error) {
	if e.active < 0 || e.active >= len(e.sessions) {
		return nil, browser.ErrNoBrowser
	}
	return e.sessions[e.active], nil
}

func (e *Engine) tab() (*tab, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, err := e.current()
	if err != nil {
		return nil, err
	}
	if s.active < 0 || s.active >= len(s.tabs) {
		return nil, browser.ErrNoPage
	}
	return s.tabs[s.active], nil
}

// run executes actions on the active tab within the caller's deadline.
func (e *Engine) run(ctx context.Context, actions ...chromedp.Action) error {
	t, err := e.tab()
	if err != nil {
		return err
	}
	runCtx, cancel := bounded(t.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, actions...)
}

func (e *Engine) CloseBrowser(_ context.Context, sel browser.Selection) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if sel == browser.SelectionAll {
		for _, s := range e.sessions {
			s.close()
		}
		e.sessions = nil
		e.active = -1
		return nil
	}
	s, err := e.current()
	if err != nil {
		return err
	}
	s.close()
	e.sessions = append(e.sessions[:e.active], e.sessions[e.active+1:]...)
	e.active = len(e.sessions) - 1
	return nil
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

func (e *Engine) SwitchBrowser(ctx context.Context, id string) error {
	e.mu.Lock()
	found := false
	for i, s := range e.sessions {
		if s.id == id {
			e.active = i
			found = true
			break
		}
	}
	e.mu.Unlock()
	if !found {
		return fmt.Errorf("browser %s: %w", id, browser.ErrNoBrowser)
	}
	return e.activate(ctx)
}

func (e *Engine) PageIDs(_ context.Context, sel browser.Selection) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	var ids []string
	for i, s := range e.sessions {
		if sel == browser.SelectionCurrent && i != e.active {
			continue
		}
		for _, t := range s.tabs {
			ids = append(ids, t.id)
		}
	}
	return ids, nil
}

func (e *Engine) ActivePage() (string, error) {
	t, err := e.tab()
	if err != nil {
		return "", err
	}
	return t.id, nil
}

func (e *Engine) SwitchPage(ctx context.Context, id string) error {
	e.mu.Lock()
	found := false
	for i, s := range e.sessions {
		for j, t := range s.tabs {
			if t.id == id {
				e.active = i
				s.active = j
				found = true
			}
		}
	}
	e.mu.Unlock()
	if !found {
		return fmt.Errorf("page %s: %w", id, browser.ErrNoPage)
	}
	return e.activate(ctx)
}

// activate brings the active tab to the front.
func (e *Engine) activate(ctx context.Context) error {
	t, err := e.tab()
	if err != nil {
		if errors.Is(err, browser.ErrNoPage) {
			return nil
		}
		return err
	}
	log.Debugf("activating page %s", t.id)
	return e.run(ctx, page.BringToFront())
}

// ClosePage closes the active tab. Closing the first tab of a browser
// keeps its process running for the remaining tabs.
func (e *Engine) ClosePage(ctx context.Context) error {
	e.mu.Lock()
	s, err := e.current()
	if err != nil {
		e.mu.Unlock()
		return err
	}
	if s.active < 0 || s.active >= len(s.tabs) {
		e.mu.Unlock()
		return browser.ErrNoPage
	}
	t := s.tabs[s.active]
	s.tabs = append(s.tabs[:s.active], s.tabs[s.active+1:]...)
	s.active = len(s.tabs) - 1
	e.mu.Unlock()

	if t.ctx != s.browserCtx {
		// cancelling a tab context closes its target
		t.cancel()
		return nil
	}
	runCtx, cancel := bounded(t.ctx, ctx)
	defer cancel()
	return chromedp.Run(runCtx, page.Close())
}

// Close shuts down every Chrome process.
func (e *Engine) Close() error {
	err := e.CloseBrowser(context.Background(), browser.SelectionAll)
	log.Debug("Chrome engine closed.")
	return err
}
