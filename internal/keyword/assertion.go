package keyword

import (
	"fmt"
	"strings"

	"github.com/luispater/sl2browser/internal/browser"
)

// Operator is an assertion operator of the modern library.
type Operator string

const (
	Equals      Operator = "=="
	NotEquals   Operator = "!="
	Contains    Operator = "*="
	NotContains Operator = "not contains"
	StartsWith  Operator = "^="
	EndsWith    Operator = "$="
)

var operatorVerbs = map[Operator]string{
	Equals:      "be",
	NotEquals:   "not be",
	Contains:    "contain",
	NotContains: "not contain",
	StartsWith:  "start with",
	EndsWith:    "end with",
}

func (o Operator) apply(value, expected string) (bool, error) {
	switch o {
	case Equals:
		return value == expected, nil
	case NotEquals:
		return value != expected, nil
	case Contains:
		return strings.Contains(value, expected), nil
	case NotContains:
		return !strings.Contains(value, expected), nil
	case StartsWith:
		return strings.HasPrefix(value, expected), nil
	case EndsWith:
		return strings.HasSuffix(value, expected), nil
	}
	return false, fmt.Errorf("unknown assertion operator %q", string(o))
}

// verifyString checks value against expected. description names the value
// in the default failure message, message replaces that message when set.
func verifyString(description, value string, op Operator, expected, message string) error {
	ok, err := op.apply(value, expected)
	if err != nil {
		return err
	}
	if !ok {
		return assertionFailed(message, "%s '%s' should %s '%s'", description, value, operatorVerbs[op], expected)
	}
	return nil
}

// verifyFoldedString is verifyString with case folding.
func verifyFoldedString(description, value string, op Operator, expected, message string) error {
	ok, err := op.apply(strings.ToLower(value), strings.ToLower(expected))
	if err != nil {
		return err
	}
	if !ok {
		return assertionFailed(message, "%s '%s' should %s '%s' (case-insensitive)", description, value, operatorVerbs[op], expected)
	}
	return nil
}

// verifyStates checks membership of state in states; only Contains and
// NotContains are meaningful for a state set.
func verifyStates(selector string, states []browser.ElementState, op Operator, state browser.ElementState, message string) error {
	has := browser.HasState(states, state)
	switch op {
	case Contains:
		if has {
			return nil
		}
	case NotContains:
		if !has {
			return nil
		}
	default:
		return fmt.Errorf("operator %q is not supported for element states", string(op))
	}
	names := make([]string, 0, len(states))
	for _, s := range states {
		names = append(names, string(s))
	}
	return assertionFailed(message, "Element '%s' states [%s] should %s '%s'",
		selector, strings.Join(names, ", "), operatorVerbs[op], state)
}
