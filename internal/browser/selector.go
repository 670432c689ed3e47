package browser

import (
	"strconv"
	"strings"
)

// SelectorPart is one step of a chained selector ("a >> text=Go").
type SelectorPart struct {
	Engine string `json:"engine"`
	Body   string `json:"body"`
}

// ParseSelector splits an engine selector into its chained parts. It
// understands the css, xpath, text, id and nth engines; a part without an
// explicit engine is XPath when it starts with "/" or "(", text when it is
// quoted and CSS otherwise.
func ParseSelector(selector string) []SelectorPart {
	raw := splitChain(selector)
	parts := make([]SelectorPart, 0, len(raw))
	for _, p := range raw {
		parts = append(parts, parsePart(strings.TrimSpace(p)))
	}
	return parts
}

func parsePart(part string) SelectorPart {
	if i := strings.Index(part, "="); i > 0 {
		switch engine := part[:i]; engine {
		case "css", "xpath", "text", "nth":
			return SelectorPart{Engine: engine, Body: part[i+1:]}
		case "id":
			value := part[i+1:]
			return SelectorPart{Engine: "css", Body: `[id="` + strings.ReplaceAll(value, `"`, `\"`) + `"]`}
		}
	}
	switch {
	case strings.HasPrefix(part, "/"), strings.HasPrefix(part, "("), strings.HasPrefix(part, ".."):
		return SelectorPart{Engine: "xpath", Body: part}
	case strings.HasPrefix(part, `"`), strings.HasPrefix(part, "'"):
		return SelectorPart{Engine: "text", Body: part}
	}
	return SelectorPart{Engine: "css", Body: part}
}

// splitChain splits on " >> " outside of quotes and brackets.
func splitChain(selector string) []string {
	var (
		parts []string
		quote byte
		depth int
		start int
	)
	for i := 0; i < len(selector); i++ {
		c := selector[i]
		switch {
		case quote != 0:
			if c == '\\' {
				i++
			} else if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '[' || c == '(':
			depth++
		case c == ']' || c == ')':
			depth--
		case depth == 0 && strings.HasPrefix(selector[i:], " >> "):
			parts = append(parts, selector[start:i])
			i += len(" >> ") - 1
			start = i + 1
		}
	}
	return append(parts, selector[start:])
}

// MatchText applies text engine semantics: a quoted body matches the whole
// whitespace-normalized text exactly, an unquoted body matches a
// case-insensitive substring.
func MatchText(body, text string) bool {
	text = NormalizeSpace(text)
	if len(body) >= 2 && (body[0] == '"' || body[0] == '\'') && body[len(body)-1] == body[0] {
		want := body[1 : len(body)-1]
		if unquoted, err := strconv.Unquote(`"` + want + `"`); err == nil {
			want = unquoted
		}
		return text == NormalizeSpace(want)
	}
	return strings.Contains(strings.ToLower(text), strings.ToLower(NormalizeSpace(body)))
}

// NormalizeSpace trims and collapses runs of whitespace.
func NormalizeSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
