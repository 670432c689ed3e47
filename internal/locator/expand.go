package locator

import (
	"fmt"
	"strings"
)

// ButtonSelector broadens a default locator to buttons and inputs matched by
// id, name, value or the button's visible text.
func ButtonSelector(selector string) string {
	loc, ok := DefaultFallback(selector)
	if !ok {
		return selector
	}
	return xpathUnion(
		fmt.Sprintf(`//button[@id="%s"]`, loc),
		fmt.Sprintf(`//button[@name="%s"]`, loc),
		fmt.Sprintf(`//button[@value="%s"]`, loc),
		fmt.Sprintf(`//button[normalize-space(.)="%s"]`, loc),
		fmt.Sprintf(`//input[@id="%s"]`, loc),
		fmt.Sprintf(`//input[@name="%s"]`, loc),
		fmt.Sprintf(`//input[@value="%s"]`, loc),
	)
}

// ImageSelector broadens a default locator to images matched by id, name,
// src or alt.
func ImageSelector(selector string) string {
	loc, ok := DefaultFallback(selector)
	if !ok {
		return selector
	}
	return xpathUnion(
		fmt.Sprintf(`//img[@id="%s"]`, loc),
		fmt.Sprintf(`//img[@name="%s"]`, loc),
		fmt.Sprintf(`//img[@src="%s"]`, loc),
		fmt.Sprintf(`//img[@alt="%s"]`, loc),
	)
}

// LinkSelector broadens a default locator to anchors matched by id, name,
// href or link text.
func LinkSelector(selector string) string {
	loc, ok := DefaultFallback(selector)
	if !ok {
		return selector
	}
	return xpathUnion(
		fmt.Sprintf(`//a[@id="%s"]`, loc),
		fmt.Sprintf(`//a[@name="%s"]`, loc),
		fmt.Sprintf(`//a[@href="%s"]`, loc),
		fmt.Sprintf(`//a[normalize-space(descendant-or-self::text())="%s"]`, loc),
	)
}

func xpathUnion(paths ...string) string {
	return "xpath=" + strings.Join(paths, " | ")
}
