package chrome

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/browser"
)

func (e *Engine) Goto(ctx context.Context, url string) error {
	return e.run(ctx, chromedp.Navigate(url))
}

func (e *Engine) GoBack(ctx context.Context) error {
	return e.run(ctx, chromedp.NavigateBack())
}

func (e *Engine) Reload(ctx context.Context) error {
	return e.run(ctx, chromedp.Reload())
}

func (e *Engine) URL(ctx context.Context) (string, error) {
	var url string
	err := e.run(ctx, chromedp.Location(&url))
	return url, err
}

func (e *Engine) Title(ctx context.Context) (string, error) {
	var title string
	err := e.run(ctx, chromedp.Title(&title))
	return title, err
}

func (e *Engine) Source(ctx context.Context) (string, error) {
	var html string
	err := e.run(ctx, chromedp.OuterHTML("html", &html, chromedp.ByQuery))
	return html, err
}

// Evaluate runs script as an expression. An undefined result is nil.
func (e *Engine) Evaluate(ctx context.Context, script string) (any, error) {
	var result any
	expr := fmt.Sprintf("(() => { const v = %s; return v === undefined ? null : v; })()", script)
	if err := e.run(ctx, chromedp.Evaluate(expr, &result)); err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) Screenshot(ctx context.Context, path, selector string) error {
	var buf []byte
	if selector == "" {
		if err := e.run(ctx, chromedp.CaptureScreenshot(&buf)); err != nil {
			return err
		}
	} else {
		if err := e.waitPresent(ctx, selector); err != nil {
			return err
		}
		if err := e.run(ctx, chromedp.Screenshot(firstElement(selector), &buf, chromedp.ByJSPath)); err != nil {
			return err
		}
	}
	return os.WriteFile(path, buf, 0o644)
}

func (e *Engine) Cookies(ctx context.Context) ([]browser.Cookie, error) {
	var cookies []*network.Cookie
	err := e.run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		cookies, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to get cookies: %w", err)
	}

	out := make([]browser.Cookie, 0, len(cookies))
	for _, c := range cookies {
		cookie := browser.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		}
		if !c.Session && c.Expires > 0 {
			cookie.Expiry = time.Unix(int64(c.Expires), 0)
		}
		out = append(out, cookie)
	}
	return out, nil
}

func (e *Engine) DeleteAllCookies(ctx context.Context) error {
	log.Debug("Clearing browser cookies...")
	if err := e.run(ctx, network.ClearBrowserCookies()); err != nil {
		return fmt.Errorf("failed to clear browser cookies: %w", err)
	}
	return nil
}
