package playwright

import (
	"context"
	"fmt"

	pw "github.com/playwright-community/playwright-go"

	"github.com/luispater/sl2browser/internal/browser"
)

// locate returns the first element matching selector. Playwright selectors
// are the native grammar, so the selector is used as is.
func (e *Engine) locate(_ context.Context, selector string) (pw.Locator, error) {
	p, err := e.page()
	if err != nil {
		return nil, err
	}
	return p.Locator(selector).First(), nil
}

// present fails fast with browser.ErrNotFound instead of waiting for the
// element until the timeout.
func (e *Engine) present(ctx context.Context, selector string) (pw.Locator, error) {
	l, err := e.locate(ctx, selector)
	if err != nil {
		return nil, err
	}
	if err = l.WaitFor(pw.LocatorWaitForOptions{State: pw.WaitForSelectorStateAttached, Timeout: timeoutMs(ctx)}); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", browser.ErrNotFound, selector, err)
	}
	return l, nil
}

func (e *Engine) Click(ctx context.Context, selector string, opts browser.ClickOptions) error {
	l, err := e.present(ctx, selector)
	if err != nil {
		return err
	}
	click := pw.LocatorClickOptions{Timeout: timeoutMs(ctx)}
	if opts.ClickCount > 0 {
		click.ClickCount = pw.Int(opts.ClickCount)
	}
	if opts.Delay > 0 {
		click.Delay = pw.Float(float64(opts.Delay.Milliseconds()))
	}
	if opts.Position != nil {
		click.Position = &pw.Position{X: opts.Position.X, Y: opts.Position.Y}
	}
	return l.Click(click)
}

func (e *Engine) TypeText(ctx context.Context, selector, text string, clear bool) error {
	l, err := e.present(ctx, selector)
	if err != nil {
		return err
	}
	if clear {
		return l.Fill(text, pw.LocatorFillOptions{Timeout: timeoutMs(ctx)})
	}
	return l.PressSequentially(text, pw.LocatorPressSequentiallyOptions{Timeout: timeoutMs(ctx)})
}

func (e *Engine) ClearText(ctx context.Context, selector string) error {
	l, err := e.present(ctx, selector)
	if err != nil {
		return err
	}
	return l.Clear(pw.LocatorClearOptions{Timeout: timeoutMs(ctx)})
}

func (e *Engine) Text(ctx context.Context, selector string) (string, error) {
	l, err := e.present(ctx, selector)
	if err != nil {
		return "", err
	}
	field, err := l.Evaluate(formFieldScript, nil, pw.LocatorEvaluateOptions{Timeout: timeoutMs(ctx)})
	if err != nil {
		return "", err
	}
	if field == true {
		return l.InputValue(pw.LocatorInputValueOptions{Timeout: timeoutMs(ctx)})
	}
	return l.InnerText(pw.LocatorInnerTextOptions{Timeout: timeoutMs(ctx)})
}

// formFieldScript reports whether Text has to read the element's value.
const formFieldScript = `el => el instanceof HTMLInputElement || el instanceof HTMLTextAreaElement || el instanceof HTMLSelectElement`

func (e *Engine) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	l, err := e.present(ctx, selector)
	if err != nil {
		return "", false, err
	}
	v, err := l.Evaluate(`(el, name) => el.getAttribute(name)`, name, pw.LocatorEvaluateOptions{Timeout: timeoutMs(ctx)})
	if err != nil {
		return "", false, err
	}
	if v == nil {
		return "", false, nil
	}
	return fmt.Sprint(v), true, nil
}

func (e *Engine) AttributeNames(ctx context.Context, selector string) ([]string, error) {
	l, err := e.present(ctx, selector)
	if err != nil {
		return nil, err
	}
	v, err := l.Evaluate(`el => el.getAttributeNames()`, nil, pw.LocatorEvaluateOptions{Timeout: timeoutMs(ctx)})
	if err != nil {
		return nil, err
	}
	items, _ := v.([]interface{})
	names := make([]string, 0, len(items))
	for _, item := range items {
		names = append(names, fmt.Sprint(item))
	}
	return names, nil
}

// elementStateScript reports the states Playwright has no single call for.
const elementStateScript = `el => ({
	focused: el === document.activeElement,
	checkable: el instanceof HTMLInputElement && (el.type === 'checkbox' || el.type === 'radio'),
})`

func (e *Engine) ElementStates(ctx context.Context, selector string) ([]browser.ElementState, error) {
	l, err := e.present(ctx, selector)
	if err != nil {
		return nil, err
	}
	states := []browser.ElementState{browser.StateAttached}

	visible, err := l.IsVisible()
	if err != nil {
		return nil, err
	}
	states = append(states, pick(visible, browser.StateVisible, browser.StateHidden))

	enabled, err := l.IsEnabled(pw.LocatorIsEnabledOptions{Timeout: timeoutMs(ctx)})
	if err != nil {
		return nil, err
	}
	states = append(states, pick(enabled, browser.StateEnabled, browser.StateDisabled))

	if editable, errEditable := l.IsEditable(pw.LocatorIsEditableOptions{Timeout: timeoutMs(ctx)}); errEditable == nil && editable {
		states = append(states, browser.StateEditable)
	}

	v, err := l.Evaluate(elementStateScript, nil, pw.LocatorEvaluateOptions{Timeout: timeoutMs(ctx)})
	if err != nil {
		return nil, err
	}
	extra, _ := v.(map[string]interface{})
	if extra["checkable"] == true {
		checked, errChecked := l.IsChecked(pw.LocatorIsCheckedOptions{Timeout: timeoutMs(ctx)})
		if errChecked != nil {
			return nil, errChecked
		}
		if checked {
			states = append(states, browser.StateChecked)
		}
	}
	if extra["focused"] == true {
		states = append(states, browser.StateFocused)
	}
	return states, nil
}

func pick(cond bool, yes, no browser.ElementState) browser.ElementState {
	if cond {
		return yes
	}
	return no
}

func (e *Engine) CheckboxState(ctx context.Context, selector string) (bool, error) {
	l, err := e.present(ctx, selector)
	if err != nil {
		return false, err
	}
	return l.IsChecked(pw.LocatorIsCheckedOptions{Timeout: timeoutMs(ctx)})
}

func (e *Engine) SetChecked(ctx context.Context, selector string, checked bool) error {
	l, err := e.present(ctx, selector)
	if err != nil {
		return err
	}
	return l.SetChecked(checked, pw.LocatorSetCheckedOptions{Timeout: timeoutMs(ctx)})
}

func (e *Engine) SelectOptions(ctx context.Context, selector string, by browser.SelectAttribute, values ...string) error {
	l, err := e.present(ctx, selector)
	if err != nil {
		return err
	}
	var selection pw.SelectOptionValues
	switch by {
	case browser.SelectByLabel:
		selection.Labels = &values
	case browser.SelectByIndex:
		indexes := make([]int, 0, len(values))
		for _, v := range values {
			var i int
			if _, errScan := fmt.Sscan(v, &i); errScan != nil {
				return fmt.Errorf("option index %q is not a number", v)
			}
			indexes = append(indexes, i)
		}
		selection.Indexes = &indexes
	default:
		selection.Values = &values
	}
	_, err = l.SelectOption(selection, pw.LocatorSelectOptionOptions{Timeout: timeoutMs(ctx)})
	return err
}

const optionListScript = `el => Array.from(el.options || []).map((o, i) => ({
	index: i, label: o.label, value: o.value, selected: o.selected,
}))`

func (e *Engine) SelectOptionList(ctx context.Context, selector string) ([]browser.SelectOption, error) {
	l, err := e.present(ctx, selector)
	if err != nil {
		return nil, err
	}
	v, err := l.Evaluate(optionListScript, nil, pw.LocatorEvaluateOptions{Timeout: timeoutMs(ctx)})
	if err != nil {
		return nil, err
	}
	items, _ := v.([]interface{})
	options := make([]browser.SelectOption, 0, len(items))
	for _, item := range items {
		m, _ := item.(map[string]interface{})
		options = append(options, browser.SelectOption{
			Index:    toInt(m["index"]),
			Label:    fmt.Sprint(m["label"]),
			Value:    fmt.Sprint(m["value"]),
			Selected: m["selected"] == true,
		})
	}
	return options, nil
}

func toInt(v any) int {
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return 0
}

func (e *Engine) BoundingBox(ctx context.Context, selector string) (browser.BoundingBox, error) {
	l, err := e.present(ctx, selector)
	if err != nil {
		return browser.BoundingBox{}, err
	}
	rect, err := l.BoundingBox(pw.LocatorBoundingBoxOptions{Timeout: timeoutMs(ctx)})
	if err != nil {
		return browser.BoundingBox{}, err
	}
	if rect == nil {
		return browser.BoundingBox{}, fmt.Errorf("element %s is not rendered", selector)
	}
	return browser.BoundingBox{X: rect.X, Y: rect.Y, Width: rect.Width, Height: rect.Height}, nil
}

func (e *Engine) ElementCount(_ context.Context, selector string) (int, error) {
	p, err := e.page()
	if err != nil {
		return 0, err
	}
	return p.Locator(selector).Count()
}

func (e *Engine) UploadFile(ctx context.Context, selector, path string) error {
	l, err := e.present(ctx, selector)
	if err != nil {
		return err
	}
	return l.SetInputFiles(path, pw.LocatorSetInputFilesOptions{Timeout: timeoutMs(ctx)})
}

func (e *Engine) DragAndDrop(ctx context.Context, source, target string) error {
	from, err := e.present(ctx, source)
	if err != nil {
		return err
	}
	to, err := e.present(ctx, target)
	if err != nil {
		return err
	}
	return from.DragTo(to, pw.LocatorDragToOptions{Timeout: timeoutMs(ctx)})
}

// DragAndDropRelative presses the mouse in the middle of source and releases
// it dx, dy pixels away.
func (e *Engine) DragAndDropRelative(ctx context.Context, source string, dx, dy float64) error {
	box, err := e.BoundingBox(ctx, source)
	if err != nil {
		return err
	}
	p, err := e.page()
	if err != nil {
		return err
	}
	x, y := box.X+box.Width/2, box.Y+box.Height/2
	mouse := p.Mouse()
	if err = mouse.Move(x, y); err != nil {
		return err
	}
	if err = mouse.Down(); err != nil {
		return err
	}
	if err = mouse.Move(x+dx, y+dy, pw.MouseMoveOptions{Steps: pw.Int(dragSteps)}); err != nil {
		return err
	}
	return mouse.Up()
}

func (e *Engine) Hover(ctx context.Context, selector string) error {
	l, err := e.present(ctx, selector)
	if err != nil {
		return err
	}
	return l.Hover(pw.LocatorHoverOptions{Timeout: timeoutMs(ctx)})
}
