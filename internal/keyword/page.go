package keyword

import (
	"context"
	"fmt"
	"strings"

	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/browser"
)

func (l *Library) GoTo(ctx context.Context, url string) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	log.Debugf("go to %s", url)
	return e.Goto(ctx, url)
}

func (l *Library) GoBack(ctx context.Context) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.GoBack(ctx)
}

func (l *Library) ReloadPage(ctx context.Context) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.Reload(ctx)
}

func (l *Library) GetLocation(ctx context.Context) (string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	return e.URL(ctx)
}

func (l *Library) GetTitle(ctx context.Context) (string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	return e.Title(ctx)
}

func (l *Library) GetSource(ctx context.Context) (string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	return e.Source(ctx)
}

func (l *Library) LogLocation(ctx context.Context) (string, error) {
	url, err := l.GetLocation(ctx)
	if err != nil {
		return "", err
	}
	log.Info(url)
	return url, nil
}

func (l *Library) LogTitle(ctx context.Context) (string, error) {
	title, err := l.GetTitle(ctx)
	if err != nil {
		return "", err
	}
	log.Info(title)
	return title, nil
}

// LogSource logs the page source at the given legacy log level. NONE skips
// logging but still returns the source.
func (l *Library) LogSource(ctx context.Context, loglevel string) (string, error) {
	source, err := l.GetSource(ctx)
	if err != nil {
		return "", err
	}
	switch strings.ToUpper(loglevel) {
	case "NONE":
	case "TRACE":
		log.Trace(source)
	case "DEBUG":
		log.Debug(source)
	case "WARN":
		log.Warn(source)
	case "ERROR":
		log.Error(source)
	default:
		log.Info(source)
	}
	return source, nil
}

func (l *Library) TitleShouldBe(ctx context.Context, title, message string) error {
	actual, err := l.GetTitle(ctx)
	if err != nil {
		return err
	}
	return verifyString("Title", actual, Equals, title, message)
}

func (l *Library) LocationShouldBe(ctx context.Context, url, message string) error {
	actual, err := l.GetLocation(ctx)
	if err != nil {
		return err
	}
	return verifyString("Location", actual, Equals, url, message)
}

func (l *Library) LocationShouldContain(ctx context.Context, expected, message string) error {
	actual, err := l.GetLocation(ctx)
	if err != nil {
		return err
	}
	return verifyString("Location", actual, Contains, expected, message)
}

// ExecuteJavascript joins the code parts and runs them as a function body,
// so a legacy "return ..." statement yields the result.
func (l *Library) ExecuteJavascript(ctx context.Context, code ...string) (any, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	script := fmt.Sprintf("(function(){%s})()", strings.Join(code, ""))
	log.Debugf("execute javascript: %s", script)
	return e.Evaluate(ctx, script)
}

// CapturePageScreenshot saves a screenshot of the page and returns its path.
func (l *Library) CapturePageScreenshot(ctx context.Context, filename string) (string, error) {
	return l.screenshot(ctx, filename, "")
}

// CaptureElementScreenshot saves a screenshot of one element.
func (l *Library) CaptureElementScreenshot(ctx context.Context, locator, filename string) (string, error) {
	return l.screenshot(ctx, filename, selector(locator))
}

func (l *Library) screenshot(ctx context.Context, filename, sel string) (string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	path := l.screenshotPath(filename)
	if err = e.Screenshot(ctx, path, sel); err != nil {
		return "", fmt.Errorf("screenshot %s: %w", path, err)
	}
	log.Debugf("screenshot saved to %s", path)
	return path, nil
}

func (l *Library) DeleteAllCookies(ctx context.Context) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.DeleteAllCookies(ctx)
}

func (l *Library) GetCookie(ctx context.Context, name string) (browser.Cookie, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return browser.Cookie{}, err
	}
	defer cancel()
	cookies, err := e.Cookies(ctx)
	if err != nil {
		return browser.Cookie{}, err
	}
	for _, c := range cookies {
		if c.Name == name {
			return c, nil
		}
	}
	return browser.Cookie{}, fmt.Errorf("cookie with name '%s' not found", name)
}

// GetCookies returns "name=value; ..." or, with as_dict, a name to value map.
func (l *Library) GetCookies(ctx context.Context, asDict bool) (any, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	cookies, err := e.Cookies(ctx)
	if err != nil {
		return nil, err
	}
	if asDict {
		values := make(map[string]string, len(cookies))
		for _, c := range cookies {
			values[c.Name] = c.Value
		}
		return values, nil
	}
	pairs := make([]string, 0, len(cookies))
	for _, c := range cookies {
		pairs = append(pairs, c.Name+"="+c.Value)
	}
	return strings.Join(pairs, "; "), nil
}
