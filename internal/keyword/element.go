package keyword

import (
	"context"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/luispater/sl2browser/internal/browser"
	"github.com/luispater/sl2browser/internal/locator"
)

func (l *Library) click(ctx context.Context, sel string, opts browser.ClickOptions) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	log.Debugf("click %s", sel)
	return e.Click(ctx, sel, opts)
}

func checkModifier(modifier string) error {
	if isTruthy(modifier) {
		return ErrModifierNotImplemented
	}
	return nil
}

// ClickElement clicks the first element matching locator. action_chain is
// accepted and ignored, the engine always uses real input events.
func (l *Library) ClickElement(ctx context.Context, locator, modifier string, actionChain bool) error {
	if err := checkModifier(modifier); err != nil {
		return err
	}
	return l.click(ctx, selector(locator), browser.ClickOptions{})
}

// ClickButton searches buttons and inputs by id, name, value and the button
// text when the default strategy is used.
func (l *Library) ClickButton(ctx context.Context, raw, modifier string) error {
	if err := checkModifier(modifier); err != nil {
		return err
	}
	return l.click(ctx, locator.ButtonSelector(selector(raw)), browser.ClickOptions{})
}

// ClickImage searches images by id, name, src and alt when the default
// strategy is used.
func (l *Library) ClickImage(ctx context.Context, raw, modifier string) error {
	if err := checkModifier(modifier); err != nil {
		return err
	}
	return l.click(ctx, locator.ImageSelector(selector(raw)), browser.ClickOptions{})
}

// ClickLink searches links by id, name, href and text when the default
// strategy is used.
func (l *Library) ClickLink(ctx context.Context, raw, modifier string) error {
	if err := checkModifier(modifier); err != nil {
		return err
	}
	return l.click(ctx, locator.LinkSelector(selector(raw)), browser.ClickOptions{})
}

// ClickElementAtCoordinates clicks at an offset from the element center.
func (l *Library) ClickElementAtCoordinates(ctx context.Context, locator string, xoffset, yoffset int) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	sel := selector(locator)
	box, err := e.BoundingBox(ctx, sel)
	if err != nil {
		return err
	}
	position := &browser.Point{
		X: box.Width/2 + float64(xoffset),
		Y: box.Height/2 + float64(yoffset),
	}
	return e.Click(ctx, sel, browser.ClickOptions{Position: position})
}

func (l *Library) DoubleClickElement(ctx context.Context, locator string) error {
	return l.click(ctx, selector(locator), browser.ClickOptions{ClickCount: 2, Delay: 100 * time.Millisecond})
}

func (l *Library) MouseOver(ctx context.Context, locator string) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.Hover(ctx, selector(locator))
}

func (l *Library) DragAndDrop(ctx context.Context, locator, target string) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.DragAndDrop(ctx, selector(locator), selector(target))
}

func (l *Library) DragAndDropByOffset(ctx context.Context, locator string, xoffset, yoffset int) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.DragAndDropRelative(ctx, selector(locator), float64(xoffset), float64(yoffset))
}

func (l *Library) InputText(ctx context.Context, locator, text string, clear bool) error {
	log.Debugf("typing text '%s' into %s", text, locator)
	return l.typeText(ctx, locator, text, clear)
}

// InputPassword is InputText without logging the text.
func (l *Library) InputPassword(ctx context.Context, locator, password string, clear bool) error {
	log.Debugf("typing password into %s", locator)
	return l.typeText(ctx, locator, password, clear)
}

func (l *Library) typeText(ctx context.Context, locator, text string, clear bool) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.TypeText(ctx, selector(locator), text, clear)
}

func (l *Library) ClearElementText(ctx context.Context, locator string) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.ClearText(ctx, selector(locator))
}

func (l *Library) ChooseFile(ctx context.Context, locator, filePath string) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.UploadFile(ctx, selector(locator), filePath)
}

func (l *Library) GetText(ctx context.Context, locator string) (string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	return e.Text(ctx, selector(locator))
}

// GetValue returns the value of a form element. The engine reports the
// value of inputs as their text.
func (l *Library) GetValue(ctx context.Context, locator string) (string, error) {
	return l.GetText(ctx, locator)
}

// GetElementAttribute returns an empty string for a missing attribute.
func (l *Library) GetElementAttribute(ctx context.Context, locator, attribute string) (string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	value, _, err := e.Attribute(ctx, selector(locator), attribute)
	return value, err
}

func (l *Library) GetElementCount(ctx context.Context, locator string) (int, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return 0, err
	}
	defer cancel()
	return e.ElementCount(ctx, selector(locator))
}

func (l *Library) boundingBox(ctx context.Context, locator string) (browser.BoundingBox, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return browser.BoundingBox{}, err
	}
	defer cancel()
	return e.BoundingBox(ctx, selector(locator))
}

// GetElementSize returns width and height.
func (l *Library) GetElementSize(ctx context.Context, locator string) (float64, float64, error) {
	box, err := l.boundingBox(ctx, locator)
	if err != nil {
		return 0, 0, err
	}
	return box.Width, box.Height, nil
}

func (l *Library) GetHorizontalPosition(ctx context.Context, locator string) (float64, error) {
	box, err := l.boundingBox(ctx, locator)
	return box.X, err
}

func (l *Library) GetVerticalPosition(ctx context.Context, locator string) (float64, error) {
	box, err := l.boundingBox(ctx, locator)
	return box.Y, err
}

// GetWebElement returns a reference to the first match. The reference is a
// locator that can be passed to any other keyword.
func (l *Library) GetWebElement(ctx context.Context, raw string) (string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return "", err
	}
	defer cancel()
	sel := selector(raw)
	count, err := e.ElementCount(ctx, sel)
	if err != nil {
		return "", err
	}
	if count == 0 {
		return "", assertionFailed("", "Element with locator '%s' not found.", raw)
	}
	return locator.Nth(sel, 0), nil
}

// GetWebElements returns one reference per match.
func (l *Library) GetWebElements(ctx context.Context, raw string) ([]string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	sel := selector(raw)
	count, err := e.ElementCount(ctx, sel)
	if err != nil {
		return nil, err
	}
	refs := make([]string, count)
	for i := range refs {
		refs[i] = locator.Nth(sel, i)
	}
	return refs, nil
}

// GetAllLinks returns the id of every link on the page, or an empty string
// for links without one.
func (l *Library) GetAllLinks(ctx context.Context) ([]string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	count, err := e.ElementCount(ctx, "a")
	if err != nil {
		return nil, err
	}
	ids := make([]string, count)
	for i := range ids {
		id, _, errAttr := e.Attribute(ctx, locator.Nth("a", i), "id")
		if errAttr != nil {
			return nil, errAttr
		}
		ids[i] = id
	}
	return ids, nil
}
