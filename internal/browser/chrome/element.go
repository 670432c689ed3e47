package chrome

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/input"
	"github.com/chromedp/chromedp"

	"github.com/luispater/sl2browser/internal/browser"
)

// dragSteps is the number of intermediate mouse moves of a drag.
const dragSteps = 10

const (
	// textScript reads form fields by value, like the engine's input value.
	textScript   = `el => (el instanceof HTMLInputElement || el instanceof HTMLTextAreaElement || el instanceof HTMLSelectElement) ? el.value : el.innerText`
	rectScript   = `el => { const r = el.getBoundingClientRect(); return {x: r.x, y: r.y, width: r.width, height: r.height}; }`
	scrollScript = `el => { el.scrollIntoView({block: 'center', inline: 'center'}); const r = el.getBoundingClientRect(); return {x: r.x, y: r.y, width: r.width, height: r.height}; }`
	statesScript = `el => {
	const r = el.getBoundingClientRect();
	const style = window.getComputedStyle(el);
	const visible = r.width > 0 && r.height > 0 && style.visibility !== 'hidden' && style.display !== 'none';
	const enabled = !el.disabled && !el.closest('fieldset:disabled');
	const tag = el.tagName.toLowerCase();
	const editable = enabled && !el.readOnly && (tag === 'input' || tag === 'textarea' || tag === 'select' || el.isContentEditable);
	return {visible, enabled, editable, checked: el.checked === true, focused: el === document.activeElement};
}`
	optionListScript = `el => Array.from(el.options || []).map((o, i) => ({index: i, label: o.label, value: o.value, selected: o.selected}))`
	selectScript     = `(el, by, values) => {
	if (!(el instanceof HTMLSelectElement)) throw new Error('element is not a select');
	const options = Array.from(el.options);
	const wanted = options.filter((o, i) => values.some(v => by === 'index' ? String(i) === String(v) : by === 'label' ? o.label === v : o.value === v));
	if (values.length > 0 && wanted.length === 0) throw new Error('no option matches ' + values.join(', '));
	options.forEach(o => { o.selected = wanted.includes(o); });
	el.dispatchEvent(new Event('input', {bubbles: true}));
	el.dispatchEvent(new Event('change', {bubbles: true}));
	return wanted.length;
}`
)

type elementStates struct {
	Visible  bool `json:"visible"`
	Enabled  bool `json:"enabled"`
	Editable bool `json:"editable"`
	Checked  bool `json:"checked"`
	Focused  bool `json:"focused"`
}

// mouse dispatches one mouse event with the left button.
func mouse(typ input.MouseType, x, y float64, clicks int64) chromedp.Action {
	return chromedp.ActionFunc(func(ctx context.Context) error {
		ev := input.DispatchMouseEvent(typ, x, y)
		if typ != input.MouseMoved || clicks > 0 {
			ev = ev.WithButton(input.Left).WithClickCount(clicks)
		}
		return ev.Do(ctx)
	})
}

// visibleRect scrolls the first match of selector into view and returns its
// viewport rectangle.
func (e *Engine) visibleRect(ctx context.Context, selector string) (browser.BoundingBox, error) {
	var box browser.BoundingBox
	err := e.evalOn(ctx, selector, scrollScript, &box)
	return box, err
}

func center(box browser.BoundingBox) (float64, float64) {
	return box.X + box.Width/2, box.Y + box.Height/2
}

func (e *Engine) Click(ctx context.Context, selector string, opts browser.ClickOptions) error {
	box, err := e.visibleRect(ctx, selector)
	if err != nil {
		return err
	}
	x, y := center(box)
	if opts.Position != nil {
		x, y = box.X+opts.Position.X, box.Y+opts.Position.Y
	}
	count := opts.ClickCount
	if count < 1 {
		count = 1
	}

	actions := []chromedp.Action{mouse(input.MouseMoved, x, y, 0)}
	for i := 1; i <= count; i++ {
		actions = append(actions, mouse(input.MousePressed, x, y, int64(i)))
		if opts.Delay > 0 {
			actions = append(actions, chromedp.Sleep(opts.Delay))
		}
		actions = append(actions, mouse(input.MouseReleased, x, y, int64(i)))
	}
	return e.run(ctx, actions...)
}

func (e *Engine) TypeText(ctx context.Context, selector, text string, clear bool) error {
	if err := e.waitPresent(ctx, selector); err != nil {
		return err
	}
	sel := firstElement(selector)
	var actions []chromedp.Action
	if clear {
		actions = append(actions, chromedp.Clear(sel, chromedp.ByJSPath))
	}
	actions = append(actions, chromedp.SendKeys(sel, text, chromedp.ByJSPath))
	return e.run(ctx, actions...)
}

func (e *Engine) ClearText(ctx context.Context, selector string) error {
	if err := e.waitPresent(ctx, selector); err != nil {
		return err
	}
	return e.run(ctx, chromedp.Clear(firstElement(selector), chromedp.ByJSPath))
}

func (e *Engine) Text(ctx context.Context, selector string) (string, error) {
	var text string
	err := e.evalOn(ctx, selector, textScript, &text)
	return text, err
}

func (e *Engine) Attribute(ctx context.Context, selector, name string) (string, bool, error) {
	var value *string
	if err := e.evalOn(ctx, selector, `(el, name) => el.getAttribute(name)`, &value, name); err != nil {
		return "", false, err
	}
	if value == nil {
		return "", false, nil
	}
	return *value, true, nil
}

func (e *Engine) AttributeNames(ctx context.Context, selector string) ([]string, error) {
	var names []string
	err := e.evalOn(ctx, selector, `el => el.getAttributeNames()`, &names)
	return names, err
}

func (e *Engine) ElementStates(ctx context.Context, selector string) ([]browser.ElementState, error) {
	var s elementStates
	if err := e.evalOn(ctx, selector, statesScript, &s); err != nil {
		return nil, err
	}
	states := []browser.ElementState{browser.StateAttached}
	if s.Visible {
		states = append(states, browser.StateVisible)
	} else {
		states = append(states, browser.StateHidden)
	}
	if s.Enabled {
		states = append(states, browser.StateEnabled)
	} else {
		states = append(states, browser.StateDisabled)
	}
	if s.Editable {
		states = append(states, browser.StateEditable)
	}
	if s.Checked {
		states = append(states, browser.StateChecked)
	}
	if s.Focused {
		states = append(states, browser.StateFocused)
	}
	return states, nil
}

func (e *Engine) CheckboxState(ctx context.Context, selector string) (bool, error) {
	var checked bool
	err := e.evalOn(ctx, selector, `el => el.checked === true`, &checked)
	return checked, err
}

func (e *Engine) SetChecked(ctx context.Context, selector string, checked bool) error {
	var now bool
	err := e.evalOn(ctx, selector, `(el, want) => { if ((el.checked === true) !== want) el.click(); return el.checked === true; }`, &now, checked)
	if err != nil {
		return err
	}
	if now != checked {
		return fmt.Errorf("element %s did not change its checked state", selector)
	}
	return nil
}

func (e *Engine) SelectOptions(ctx context.Context, selector string, by browser.SelectAttribute, values ...string) error {
	if values == nil {
		values = []string{}
	}
	var matched int
	return e.evalOn(ctx, selector, selectScript, &matched, string(by), values)
}

func (e *Engine) SelectOptionList(ctx context.Context, selector string) ([]browser.SelectOption, error) {
	var options []browser.SelectOption
	err := e.evalOn(ctx, selector, optionListScript, &options)
	return options, err
}

func (e *Engine) BoundingBox(ctx context.Context, selector string) (browser.BoundingBox, error) {
	var box browser.BoundingBox
	err := e.evalOn(ctx, selector, rectScript, &box)
	return box, err
}

func (e *Engine) ElementCount(ctx context.Context, selector string) (int, error) {
	return e.count(ctx, selector)
}

func (e *Engine) UploadFile(ctx context.Context, selector, path string) error {
	if err := e.waitPresent(ctx, selector); err != nil {
		return err
	}
	return e.run(ctx, chromedp.SetUploadFiles(firstElement(selector), []string{path}, chromedp.ByJSPath))
}

// drag presses at from and releases at to, moving in dragSteps steps.
func (e *Engine) drag(ctx context.Context, fromX, fromY, toX, toY float64) error {
	actions := []chromedp.Action{
		mouse(input.MouseMoved, fromX, fromY, 0),
		mouse(input.MousePressed, fromX, fromY, 1),
	}
	for i := 1; i <= dragSteps; i++ {
		f := float64(i) / dragSteps
		actions = append(actions, mouse(input.MouseMoved, fromX+(toX-fromX)*f, fromY+(toY-fromY)*f, 0))
	}
	actions = append(actions, mouse(input.MouseReleased, toX, toY, 1))
	return e.run(ctx, actions...)
}

func (e *Engine) DragAndDrop(ctx context.Context, source, target string) error {
	from, err := e.visibleRect(ctx, source)
	if err != nil {
		return err
	}
	to, err := e.BoundingBox(ctx, target)
	if err != nil {
		return err
	}
	fromX, fromY := center(from)
	toX, toY := center(to)
	return e.drag(ctx, fromX, fromY, toX, toY)
}

func (e *Engine) DragAndDropRelative(ctx context.Context, source string, dx, dy float64) error {
	from, err := e.visibleRect(ctx, source)
	if err != nil {
		return err
	}
	x, y := center(from)
	return e.drag(ctx, x, y, x+dx, y+dy)
}

func (e *Engine) Hover(ctx context.Context, selector string) error {
	box, err := e.visibleRect(ctx, selector)
	if err != nil {
		return err
	}
	x, y := center(box)
	return e.run(ctx, mouse(input.MouseMoved, x, y, 0))
}
