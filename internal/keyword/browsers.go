package keyword

import (
	"context"
	"fmt"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/browser"
)

// OpenBrowser opens a new persistent browser context and returns its index.
// remote_url, desired_capabilities, service_log_path and executable_path have
// no counterpart in the engine and are ignored.
func (l *Library) OpenBrowser(ctx context.Context, url, browserName, alias, remoteURL, desiredCapabilities, ffProfileDir, options, serviceLogPath, executablePath string) (string, error) {
	e, err := l.Engine()
	if err != nil {
		return "", err
	}
	kind, headless := browser.ResolveBrowser(browserName)
	for name, value := range map[string]string{
		"remote_url":           remoteURL,
		"desired_capabilities": desiredCapabilities,
		"service_log_path":     serviceLogPath,
		"executable_path":      executablePath,
	} {
		if isTruthy(value) {
			log.Warnf("Open Browser: %s is not supported, ignoring %q", name, value)
		}
	}

	opts := l.Options()
	launch := browser.LaunchOptions{
		URL:         url,
		Browser:     kind,
		Headless:    headless,
		Args:        append(parseBrowserOptions(options), opts.BrowserArgs...),
		Timeout:     opts.Timeout,
		UserDataDir: opts.UserDataDir,
	}
	if isTruthy(ffProfileDir) {
		launch.UserDataDir = ffProfileDir
	}
	log.Debugf("open browser %s (%s, headless: %v) at %q", browserName, kind, headless, url)
	id, err := e.NewPersistentContext(ctx, launch)
	if err != nil {
		return "", fmt.Errorf("open browser: %w", err)
	}
	index := l.sessions.Register(id, alias)
	log.Debugf("browser %s registered as index %s alias %q", id, index, alias)
	return index, nil
}

// CloseBrowser closes the active browser and forgets its index and alias.
func (l *Library) CloseBrowser(ctx context.Context) error {
	e, err := l.Engine()
	if err != nil {
		return err
	}
	id, err := e.ActiveBrowser()
	if err != nil {
		return err
	}
	l.sessions.Remove(id)
	return e.CloseBrowser(ctx, browser.SelectionCurrent)
}

// CloseAllBrowsers closes every browser. It does not start an engine.
func (l *Library) CloseAllBrowsers(ctx context.Context) error {
	l.sessions.Reset()
	e := l.startedEngine()
	if e == nil {
		return nil
	}
	return e.CloseBrowser(ctx, browser.SelectionAll)
}

func (l *Library) CloseWindow(ctx context.Context) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.ClosePage(ctx)
}

// SwitchBrowser activates the browser with the given index or alias and
// returns the index of the previously active one.
func (l *Library) SwitchBrowser(ctx context.Context, indexOrAlias string) (string, error) {
	e, err := l.Engine()
	if err != nil {
		return "", err
	}
	id, ok := l.sessions.Resolve(indexOrAlias)
	if !ok {
		return "", fmt.Errorf("no browser with index or alias '%s' found", indexOrAlias)
	}
	previous := ""
	if active, errActive := e.ActiveBrowser(); errActive == nil {
		previous, _ = l.sessions.IndexOf(active)
	}
	if err = e.SwitchBrowser(ctx, id); err != nil {
		return "", err
	}
	return previous, nil
}

func (l *Library) GetBrowserAliases() map[string]string {
	return l.sessions.Aliases()
}

func (l *Library) GetBrowserIDs() []string {
	return l.sessions.Indexes()
}

// GetLocations returns the URLs of the pages of the current browser, of
// all browsers (ALL) or of the browser with the given index or alias. The
// active page is restored afterwards.
func (l *Library) GetLocations(ctx context.Context, browserName string) ([]string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()

	current, err := e.ActivePage()
	if err != nil {
		return nil, err
	}
	defer func() {
		if errSwitch := e.SwitchPage(ctx, current); errSwitch != nil {
			log.Warnf("restore page %s: %v", current, errSwitch)
		}
	}()

	var pages []string
	switch strings.ToUpper(browserName) {
	case string(browser.SelectionCurrent):
		pages, err = e.PageIDs(ctx, browser.SelectionCurrent)
	case string(browser.SelectionAll):
		pages, err = e.PageIDs(ctx, browser.SelectionAll)
	default:
		id, ok := l.sessions.Resolve(browserName)
		if !ok {
			return nil, fmt.Errorf("browser '%s' not found", browserName)
		}
		if err = e.SwitchBrowser(ctx, id); err != nil {
			return nil, err
		}
		pages, err = e.PageIDs(ctx, browser.SelectionCurrent)
	}
	if err != nil {
		return nil, err
	}

	locations := make([]string, 0, len(pages))
	for _, page := range pages {
		if err = e.SwitchPage(ctx, page); err != nil {
			return nil, err
		}
		url, errURL := e.URL(ctx)
		if errURL != nil {
			return nil, errURL
		}
		locations = append(locations, url)
	}
	return locations, nil
}

func (l *Library) GetSeleniumTimeout() string {
	return l.timeout().String()
}

// SetSeleniumTimeout sets the keyword timeout and returns the previous one.
// The timeout must be positive.
func (l *Library) SetSeleniumTimeout(value time.Duration) (string, error) {
	if value <= 0 {
		return "", fmt.Errorf("%w: %s", ErrInvalidTimeout, value)
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	previous := l.opts.Timeout
	l.opts.Timeout = value
	return previous.String(), nil
}

// SetScreenshotDirectory returns the previous directory.
func (l *Library) SetScreenshotDirectory(path string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	previous := l.opts.ScreenshotRootDirectory
	l.opts.ScreenshotRootDirectory = path
	return previous
}

// RegisterKeywordToRunOnFailure returns the previously registered keyword.
// NOTHING or an empty name disables the feature.
func (l *Library) RegisterKeywordToRunOnFailure(keyword string) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	previous := l.opts.RunOnFailure
	if previous == "" {
		previous = "NOTHING"
	}
	l.opts.RunOnFailure = keyword
	return previous
}
