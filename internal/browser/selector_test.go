package browser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseSelector(t *testing.T) {
	t.Parallel()

	tests := []struct {
		selector string
		want     []SelectorPart
	}{
		{"[id=a], [name=a]", []SelectorPart{{"css", "[id=a], [name=a]"}}},
		{"css=div.item", []SelectorPart{{"css", "div.item"}}},
		{"id=foo", []SelectorPart{{"css", `[id="foo"]`}}},
		{"xpath=//a[@x='>> y']", []SelectorPart{{"xpath", "//a[@x='>> y']"}}},
		{"//div", []SelectorPart{{"xpath", "//div"}}},
		{"(//div)[2]", []SelectorPart{{"xpath", "(//div)[2]"}}},
		{`a >> text="Sign in"`, []SelectorPart{{"css", "a"}, {"text", `"Sign in"`}}},
		{"a >> text=Sign", []SelectorPart{{"css", "a"}, {"text", "Sign"}}},
		{"css=li >> nth=2", []SelectorPart{{"css", "li"}, {"nth", "2"}}},
		{`text="a >> b"`, []SelectorPart{{"text", `"a >> b"`}}},
		{`"Quoted"`, []SelectorPart{{"text", `"Quoted"`}}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseSelector(tt.selector), tt.selector)
	}
}

func TestMatchText(t *testing.T) {
	t.Parallel()

	assert.True(t, MatchText(`"Sign in"`, "  Sign\n in "))
	assert.False(t, MatchText(`"Sign in"`, "Sign in now"))
	assert.False(t, MatchText(`"sign in"`, "Sign in"))
	assert.True(t, MatchText("sign", "Please Sign in"))
	assert.False(t, MatchText("logout", "Please Sign in"))
}
