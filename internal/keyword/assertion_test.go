package keyword

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/luispater/sl2browser/internal/browser"
)

func TestVerifyString(t *testing.T) {
	t.Parallel()

	tests := []struct {
		op       Operator
		value    string
		expected string
		pass     bool
	}{
		{Equals, "abc", "abc", true},
		{Equals, "abc", "ABC", false},
		{NotEquals, "abc", "abd", true},
		{NotEquals, "abc", "abc", false},
		{Contains, "hello world", "lo wo", true},
		{Contains, "hello", "bye", false},
		{NotContains, "hello", "bye", true},
		{NotContains, "hello", "ell", false},
		{StartsWith, "hello", "he", true},
		{StartsWith, "hello", "lo", false},
		{EndsWith, "hello", "lo", true},
		{EndsWith, "hello", "he", false},
	}
	for _, tt := range tests {
		err := verifyString("Value", tt.value, tt.op, tt.expected, "")
		if tt.pass {
			assert.NoError(t, err, "%s %s %s", tt.value, tt.op, tt.expected)
			continue
		}
		var assertion *AssertionError
		require.True(t, errors.As(err, &assertion), "%s %s %s", tt.value, tt.op, tt.expected)
		assert.Contains(t, assertion.Message, tt.value)
	}
}

func TestVerifyStringCustomMessage(t *testing.T) {
	t.Parallel()

	err := verifyString("Title", "Home", Equals, "Login", "wrong page")
	require.EqualError(t, err, "wrong page")

	err = verifyString("Title", "Home", Equals, "Login", "")
	require.EqualError(t, err, "Title 'Home' should be 'Login'")
}

func TestVerifyFoldedString(t *testing.T) {
	t.Parallel()

	assert.NoError(t, verifyFoldedString("Text", "Hello World", Equals, "hello world", ""))
	assert.NoError(t, verifyFoldedString("Text", "Hello World", Contains, "WORLD", ""))
	assert.Error(t, verifyFoldedString("Text", "Hello World", NotContains, "WORLD", ""))
}

func TestVerifyUnknownOperator(t *testing.T) {
	t.Parallel()

	err := verifyString("Value", "a", Operator("~="), "a", "")
	require.Error(t, err)
	var assertion *AssertionError
	assert.False(t, errors.As(err, &assertion))
}

func TestVerifyStates(t *testing.T) {
	t.Parallel()

	states := []browser.ElementState{browser.StateAttached, browser.StateVisible, browser.StateEnabled}
	assert.NoError(t, verifyStates("#a", states, Contains, browser.StateVisible, ""))
	assert.NoError(t, verifyStates("#a", states, NotContains, browser.StateDisabled, ""))

	err := verifyStates("#a", states, Contains, browser.StateFocused, "")
	require.EqualError(t, err, "Element '#a' states [attached, visible, enabled] should contain 'focused'")

	err = verifyStates("#a", states, NotContains, browser.StateVisible, "still visible")
	require.EqualError(t, err, "still visible")

	err = verifyStates("#a", states, Equals, browser.StateVisible, "")
	require.Error(t, err)
}
