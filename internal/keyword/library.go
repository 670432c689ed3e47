// Package keyword re-exposes the legacy keyword vocabulary on top of a
// browser.Engine. Locators are translated with the locator package before
// they reach the engine.
package keyword

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/browser"
	"github.com/luispater/sl2browser/internal/locator"
)

// Options are the library import arguments of the legacy library.
type Options struct {
	Timeout                 time.Duration
	ImplicitWait            time.Duration
	RunOnFailure            string
	ScreenshotRootDirectory string
	Plugins                 string
	EventFiringWebdriver    string
	// BrowserArgs are appended to the launch arguments of every browser.
	BrowserArgs []string
	// UserDataDir is the profile of browsers opened without ff_profile_dir.
	UserDataDir string
}

// DefaultOptions returns the legacy library defaults.
func DefaultOptions() Options {
	return Options{
		Timeout:      5 * time.Second,
		RunOnFailure: "Capture Page Screenshot",
	}
}

// EngineFactory creates the engine on first use.
type EngineFactory func() (browser.Engine, error)

// Library is one keyword library instance. It owns its engine, its session
// registry and its screenshot counter.
type Library struct {
	factory EngineFactory

	mu              sync.Mutex
	opts            Options
	engine          browser.Engine
	screenshotIndex int

	sessions         *SessionRegistry
	runningOnFailure atomic.Bool
}

// New creates a library. The engine is not created until a keyword needs it.
func New(factory EngineFactory, opts Options) *Library {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultOptions().Timeout
	}
	if opts.Plugins != "" {
		log.Warnf("plugins are not supported, ignoring %q", opts.Plugins)
	}
	if opts.EventFiringWebdriver != "" {
		log.Warnf("event firing webdriver is not supported, ignoring %q", opts.EventFiringWebdriver)
	}
	return &Library{
		factory:  factory,
		opts:     opts,
		sessions: NewSessionRegistry(),
	}
}

// Options returns a copy of the current options.
func (l *Library) Options() Options {
	l.mu.Lock()
	defer l.mu.Unlock()
	opts := l.opts
	opts.BrowserArgs = append([]string(nil), l.opts.BrowserArgs...)
	return opts
}

// Sessions returns the browser index and alias registry.
func (l *Library) Sessions() *SessionRegistry {
	return l.sessions
}

// Engine returns the engine, creating it on first call.
func (l *Library) Engine() (browser.Engine, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.engine != nil {
		return l.engine, nil
	}
	if l.factory == nil {
		return nil, fmt.Errorf("no engine factory configured")
	}
	e, err := l.factory()
	if err != nil {
		return nil, fmt.Errorf("start engine: %w", err)
	}
	l.engine = e
	return e, nil
}

// startedEngine returns the engine only if it already exists.
func (l *Library) startedEngine() browser.Engine {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.engine
}

// engineCtx returns the engine and ctx bounded by the keyword timeout.
func (l *Library) engineCtx(ctx context.Context) (browser.Engine, context.Context, context.CancelFunc, error) {
	e, err := l.Engine()
	if err != nil {
		return nil, ctx, func() {}, err
	}
	ctx, cancel := context.WithTimeout(ctx, l.timeout())
	return e, ctx, cancel, nil
}

func (l *Library) timeout() time.Duration {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.opts.Timeout
}

// Close shuts the engine down. The library can be reused afterwards, a new
// engine is created on demand.
func (l *Library) Close() error {
	l.mu.Lock()
	e := l.engine
	l.engine = nil
	l.mu.Unlock()
	l.sessions.Reset()
	if e == nil {
		return nil
	}
	return e.Close()
}

// selector translates a legacy locator for the engine.
func selector(raw string) string {
	return locator.RawLocatorToSelector(raw)
}

// screenshotPath expands {index}, ensures a .png suffix and resolves a
// relative name against the screenshot root directory.
func (l *Library) screenshotPath(filename string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	if strings.Contains(filename, "{index}") {
		l.screenshotIndex++
		filename = strings.ReplaceAll(filename, "{index}", strconv.Itoa(l.screenshotIndex))
	}
	if !strings.HasSuffix(strings.ToLower(filename), ".png") {
		filename += ".png"
	}
	if !filepath.IsAbs(filename) && l.opts.ScreenshotRootDirectory != "" {
		filename = filepath.Join(l.opts.ScreenshotRootDirectory, filename)
	}
	return filename
}

var addArgumentPattern = regexp.MustCompile(`add_argument\(\s*["']([^"']*)["']\s*\)`)

// parseBrowserOptions accepts the legacy options string, either a list of
// add_argument("...") calls or plain arguments separated by semicolons.
func parseBrowserOptions(options string) []string {
	options = strings.TrimSpace(options)
	if options == "" || strings.EqualFold(options, "none") {
		return nil
	}
	var args []string
	if matches := addArgumentPattern.FindAllStringSubmatch(options, -1); len(matches) > 0 {
		for _, m := range matches {
			args = append(args, m[1])
		}
		return args
	}
	for _, part := range strings.Split(options, ";") {
		if part = strings.TrimSpace(part); part != "" {
			args = append(args, part)
		}
	}
	return args
}
