// Package locator converts legacy prefix-based element locators into the
// selector grammar understood by the browser engines.
//
// A legacy locator is either "strategy:value" / "strategy=value" (at most one
// space allowed around the delimiter) or a bare value. Bare values that start
// with "/" are XPath expressions, everything else means "id or name".
package locator

import (
	"regexp"
	"strconv"
	"strings"
)

const placeholder = "{loc}"

type strategy struct {
	name     string
	template string
	prefix   *regexp.Regexp
}

// strategies is evaluated in order and the first matching prefix wins.
var strategies = newStrategies([][2]string{
	{"id", "id={loc}"},
	{"name", "[name={loc}]"},
	{"identifier", "[id={loc}], [name={loc}]"},
	{"class", ".{loc}"},
	{"tag", "{loc}"},
	{"xpath", "xpath={loc}"},
	{"css", "{loc}"},
	{"link", `a >> text="{loc}"`},
	{"partial link", "a >> text={loc}"},
	{"default", "[id={loc}], [name={loc}]"},
	{"text", "text={loc}"},
})

const defaultTemplate = "[id={loc}], [name={loc}]"

var defaultPattern = regexp.MustCompile(`^\[id=(.*)\], \[name=(.*)\]$`)

func newStrategies(table [][2]string) []strategy {
	result := make([]strategy, 0, len(table))
	for _, entry := range table {
		result = append(result, strategy{
			name:     entry[0],
			template: entry[1],
			prefix:   regexp.MustCompile("^" + regexp.QuoteMeta(entry[0]) + " ?[:=] ?"),
		})
	}
	return result
}

// Strategies returns the supported strategy names in lookup order.
func Strategies() []string {
	names := make([]string, 0, len(strategies))
	for _, s := range strategies {
		names = append(names, s.name)
	}
	return names
}

// RawLocatorToSelector translates a legacy locator into an engine selector.
// It never fails: unknown prefixes fall through to the XPath or id-or-name
// interpretation. The value is substituted verbatim, without escaping.
func RawLocatorToSelector(raw string) string {
	for _, s := range strategies {
		if loc := s.prefix.FindStringIndex(raw); loc != nil {
			return fill(s.template, raw[loc[1]:])
		}
	}
	if strings.HasPrefix(raw, "/") {
		return "xpath=" + raw
	}
	return fill(defaultTemplate, raw)
}

// DefaultFallback reports whether selector is the id-or-name fallback
// produced for a bare locator and returns the bare value when it is. An
// empty value is not a default locator, it would widen to every element
// with an empty attribute.
func DefaultFallback(selector string) (string, bool) {
	m := defaultPattern.FindStringSubmatch(selector)
	if m == nil || m[1] == "" || m[1] != m[2] {
		return "", false
	}
	return m[1], true
}

// Nth returns a selector addressing the n-th (zero based) match of selector.
// Plain CSS gets an explicit css= engine so the result can be fed back
// through RawLocatorToSelector unchanged in meaning.
func Nth(selector string, n int) string {
	if !hasEngine(selector) {
		selector = "css=" + selector
	}
	return selector + " >> nth=" + strconv.Itoa(n)
}

func hasEngine(selector string) bool {
	for _, engine := range []string{"css=", "xpath=", "text=", "id="} {
		if strings.HasPrefix(selector, engine) {
			return true
		}
	}
	return false
}

func fill(template, value string) string {
	return strings.ReplaceAll(template, placeholder, value)
}
