package keyword

import (
	"context"

	"github.com/luispater/sl2browser/internal/browser"
)

func (l *Library) setChecked(ctx context.Context, locator string, checked bool) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.SetChecked(ctx, selector(locator), checked)
}

func (l *Library) SelectCheckbox(ctx context.Context, locator string) error {
	return l.setChecked(ctx, locator, true)
}

func (l *Library) UnselectCheckbox(ctx context.Context, locator string) error {
	return l.setChecked(ctx, locator, false)
}

func (l *Library) checkboxShouldBe(ctx context.Context, locator string, want bool) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	checked, err := e.CheckboxState(ctx, selector(locator))
	if err != nil {
		return err
	}
	if checked == want {
		return nil
	}
	if want {
		return assertionFailed("", "Checkbox '%s' should have been selected but was not.", locator)
	}
	return assertionFailed("", "Checkbox '%s' should not have been selected.", locator)
}

func (l *Library) CheckboxShouldBeSelected(ctx context.Context, locator string) error {
	return l.checkboxShouldBe(ctx, locator, true)
}

func (l *Library) CheckboxShouldNotBeSelected(ctx context.Context, locator string) error {
	return l.checkboxShouldBe(ctx, locator, false)
}

func (l *Library) selectOptions(ctx context.Context, locator string, by browser.SelectAttribute, values ...string) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	return e.SelectOptions(ctx, selector(locator), by, values...)
}

func (l *Library) SelectFromListByIndex(ctx context.Context, locator string, indexes ...string) error {
	return l.selectOptions(ctx, locator, browser.SelectByIndex, indexes...)
}

func (l *Library) SelectFromListByLabel(ctx context.Context, locator string, labels ...string) error {
	return l.selectOptions(ctx, locator, browser.SelectByLabel, labels...)
}

func (l *Library) SelectFromListByValue(ctx context.Context, locator string, values ...string) error {
	return l.selectOptions(ctx, locator, browser.SelectByValue, values...)
}

// UnselectAllFromList selects nothing, which clears the selection.
func (l *Library) UnselectAllFromList(ctx context.Context, locator string) error {
	return l.selectOptions(ctx, locator, browser.SelectByIndex)
}

// GetListItems returns option labels, or values when values is true.
func (l *Library) GetListItems(ctx context.Context, locator string, values bool) ([]string, error) {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return nil, err
	}
	defer cancel()
	options, err := e.SelectOptionList(ctx, selector(locator))
	if err != nil {
		return nil, err
	}
	items := make([]string, 0, len(options))
	for _, o := range options {
		if values {
			items = append(items, o.Value)
		} else {
			items = append(items, o.Label)
		}
	}
	return items, nil
}
