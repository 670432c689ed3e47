package chrome

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/chromedp/chromedp"

	"github.com/luispater/sl2browser/internal/browser"
)

// pollInterval is how often a missing element is looked up again.
const pollInterval = 100 * time.Millisecond

// resolverTemplate evaluates to the elements matching the parsed selector
// parts, following the chaining rules of the Playwright selector grammar.
const resolverTemplate = `(function(parts) {
	const normalize = s => (s || '').replace(/\s+/g, ' ').trim();
	const matchText = (body, text) => {
		text = normalize(text);
		const q = body[0];
		if (body.length >= 2 && (q === '"' || q === "'") && body[body.length - 1] === q) {
			return text === normalize(body.slice(1, -1));
		}
		return text.toLowerCase().includes(normalize(body).toLowerCase());
	};
	const skipped = ['SCRIPT', 'STYLE', 'HEAD', 'TITLE', 'NOSCRIPT'];
	let scope = [document];
	for (const part of parts) {
		let next = [];
		if (part.engine === 'nth') {
			const n = parseInt(part.body, 10);
			const el = n < 0 ? scope[scope.length + n] : scope[n];
			next = el ? [el] : [];
		} else {
			for (const root of scope) {
				if (part.engine === 'xpath') {
					const r = document.evaluate(part.body, root, null, XPathResult.ORDERED_NODE_SNAPSHOT_TYPE, null);
					for (let i = 0; i < r.snapshotLength; i++) next.push(r.snapshotItem(i));
				} else if (part.engine === 'text') {
					const hits = Array.from(root.querySelectorAll('*'))
						.filter(el => !skipped.includes(el.tagName) && matchText(part.body, el.textContent));
					next.push(...hits.filter(el => !hits.some(other => other !== el && el.contains(other))));
				} else {
					next.push(...root.querySelectorAll(part.body));
				}
			}
		}
		scope = Array.from(new Set(next));
	}
	return scope.filter(el => el !== document && el.nodeType === Node.ELEMENT_NODE);
})(%s)`

// resolver returns a JS expression evaluating to all elements matching
// selector.
func resolver(selector string) string {
	parts, _ := json.Marshal(browser.ParseSelector(selector))
	return fmt.Sprintf(resolverTemplate, parts)
}

// firstElement is a JS path for chromedp.ByJSPath addressing the first match.
func firstElement(selector string) string {
	return resolver(selector) + "[0]"
}

// onElement calls the JS function fn with the first match of selector and
// args. The expression never evaluates to undefined.
func onElement(selector, fn string, args ...any) string {
	if args == nil {
		args = []any{}
	}
	encoded, _ := json.Marshal(args)
	return fmt.Sprintf(`(function(el, args) {
	if (!el) throw new Error('element not found');
	const v = (%s)(el, ...args);
	return v === undefined ? null : v;
})(%s[0], %s)`, fn, resolver(selector), encoded)
}

// count returns how many elements match selector right now.
func (e *Engine) count(ctx context.Context, selector string) (int, error) {
	var n int
	if err := e.run(ctx, chromedp.Evaluate(resolver(selector)+".length", &n)); err != nil {
		return 0, err
	}
	return n, nil
}

// waitPresent polls until selector matches an element or ctx ends.
func (e *Engine) waitPresent(ctx context.Context, selector string) error {
	attempts := uint(1)
	if _, ok := ctx.Deadline(); ok {
		attempts = 0
	}
	var failure error
	err := retry.Do(
		func() error {
			n, err := e.count(ctx, selector)
			if err != nil {
				failure = err
				return retry.Unrecoverable(err)
			}
			if n == 0 {
				return browser.ErrNotFound
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(attempts),
		retry.Delay(pollInterval),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
	)
	switch {
	case err == nil:
		return nil
	case failure != nil:
		return failure
	}
	return fmt.Errorf("%w: %s", browser.ErrNotFound, selector)
}

// evalOn waits for selector and evaluates fn on its first match into out.
func (e *Engine) evalOn(ctx context.Context, selector, fn string, out any, args ...any) error {
	if err := e.waitPresent(ctx, selector); err != nil {
		return err
	}
	if out == nil {
		var ignored any
		out = &ignored
	}
	return e.run(ctx, chromedp.Evaluate(onElement(selector, fn, args...), out))
}
