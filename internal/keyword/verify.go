package keyword

import (
	"context"
	"fmt"
	"strconv"

	"github.com/luispater/sl2browser/internal/browser"
)

func (l *Library) elementStatesShould(ctx context.Context, locator string, op Operator, state browser.ElementState, message string) error {
	e, ctx, cancel, err := l.engineCtx(ctx)
	if err != nil {
		return err
	}
	defer cancel()
	sel := selector(locator)
	states, err := e.ElementStates(ctx, sel)
	if err != nil {
		return err
	}
	return verifyStates(sel, states, op, state, message)
}

func (l *Library) ElementShouldBeDisabled(ctx context.Context, locator string) error {
	return l.elementStatesShould(ctx, locator, Contains, browser.StateDisabled, "")
}

func (l *Library) ElementShouldBeEnabled(ctx context.Context, locator string) error {
	return l.elementStatesShould(ctx, locator, Contains, browser.StateEnabled, "")
}

func (l *Library) ElementShouldBeFocused(ctx context.Context, locator string) error {
	return l.elementStatesShould(ctx, locator, Contains, browser.StateFocused, "")
}

func (l *Library) ElementShouldBeVisible(ctx context.Context, locator, message string) error {
	return l.elementStatesShould(ctx, locator, Contains, browser.StateVisible, message)
}

func (l *Library) ElementShouldNotBeVisible(ctx context.Context, locator, message string) error {
	return l.elementStatesShould(ctx, locator, NotContains, browser.StateVisible, message)
}

func (l *Library) textShould(ctx context.Context, locator string, op Operator, expected, message string, ignoreCase bool) error {
	text, err := l.GetText(ctx, locator)
	if err != nil {
		return err
	}
	description := fmt.Sprintf("Text of element '%s'", locator)
	if ignoreCase {
		return verifyFoldedString(description, text, op, expected, message)
	}
	return verifyString(description, text, op, expected, message)
}

func (l *Library) ElementShouldContain(ctx context.Context, locator, expected, message string, ignoreCase bool) error {
	return l.textShould(ctx, locator, Contains, expected, message, ignoreCase)
}

func (l *Library) ElementShouldNotContain(ctx context.Context, locator, expected, message string, ignoreCase bool) error {
	return l.textShould(ctx, locator, NotContains, expected, message, ignoreCase)
}

func (l *Library) ElementTextShouldBe(ctx context.Context, locator, expected, message string, ignoreCase bool) error {
	return l.textShould(ctx, locator, Equals, expected, message, ignoreCase)
}

func (l *Library) ElementTextShouldNotBe(ctx context.Context, locator, notExpected, message string, ignoreCase bool) error {
	return l.textShould(ctx, locator, NotEquals, notExpected, message, ignoreCase)
}

func (l *Library) ElementAttributeValueShouldBe(ctx context.Context, locator, attribute, expected, message string) error {
	value, err := l.GetElementAttribute(ctx, locator, attribute)
	if err != nil {
		return err
	}
	description := fmt.Sprintf("Attribute '%s' of element '%s'", attribute, locator)
	return verifyString(description, value, Equals, expected, message)
}

// PageShouldContainElement passes when at least one element matches, or
// exactly limit elements when limit is given. loglevel is accepted for
// compatibility.
func (l *Library) PageShouldContainElement(ctx context.Context, locator, message, loglevel, limit string) error {
	count, err := l.GetElementCount(ctx, locator)
	if err != nil {
		return err
	}
	if limit == "" || isNone(limit) {
		if count > 0 {
			return nil
		}
		return assertionFailed(message, "Page should have contained element '%s' but did not.", locator)
	}
	want, err := strconv.Atoi(limit)
	if err != nil {
		return fmt.Errorf("limit must be an integer, got %q", limit)
	}
	if count == want {
		return nil
	}
	return assertionFailed(message, "Page should have contained \"%d\" element(s) from locator '%s' but it did contain \"%d\" element(s).",
		want, locator, count)
}

func (l *Library) PageShouldNotContainElement(ctx context.Context, locator, message, loglevel string) error {
	count, err := l.GetElementCount(ctx, locator)
	if err != nil {
		return err
	}
	if count == 0 {
		return nil
	}
	return assertionFailed(message, "Page should not have contained element '%s'.", locator)
}

func isNone(s string) bool {
	return s == "None" || s == "NONE" || s == "none"
}
