// Package browser defines the boundary to the modern automation engines.
// Keywords talk to an Engine only; the playwright and chrome packages
// provide implementations.
package browser

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNoBrowser is returned when an operation needs an open browser.
	ErrNoBrowser = errors.New("no browser is open")
	// ErrNoPage is returned when the active browser has no page.
	ErrNoPage = errors.New("no page is open")
	// ErrNotFound is returned when a selector resolves to no element.
	ErrNotFound = errors.New("element not found")
)

// Selection picks which sessions an operation applies to.
type Selection string

const (
	SelectionCurrent Selection = "CURRENT"
	SelectionAll     Selection = "ALL"
)

// Kind is the browser family to launch.
type Kind string

const (
	Chromium Kind = "chromium"
	Firefox  Kind = "firefox"
	WebKit   Kind = "webkit"
)

// ElementState is a single state reported for an element.
type ElementState string

const (
	StateAttached ElementState = "attached"
	StateVisible  ElementState = "visible"
	StateHidden   ElementState = "hidden"
	StateEnabled  ElementState = "enabled"
	StateDisabled ElementState = "disabled"
	StateEditable ElementState = "editable"
	StateChecked  ElementState = "checked"
	StateFocused  ElementState = "focused"
)

// SelectAttribute chooses how SelectOptions interprets its values.
type SelectAttribute string

const (
	SelectByValue SelectAttribute = "value"
	SelectByLabel SelectAttribute = "label"
	SelectByIndex SelectAttribute = "index"
)

// LaunchOptions configures a new persistent browser context.
type LaunchOptions struct {
	URL         string
	Browser     Kind
	Headless    bool
	Args        []string
	UserDataDir string
	Timeout     time.Duration
}

// ClickOptions tunes a click. A nil Position clicks the element center.
type ClickOptions struct {
	ClickCount int
	Delay      time.Duration
	Position   *Point
}

// Point is relative to the top-left corner of an element.
type Point struct {
	X float64
	Y float64
}

// BoundingBox of an element in page coordinates.
type BoundingBox struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// SelectOption describes an <option> of a select element.
type SelectOption struct {
	Index    int    `json:"index"`
	Label    string `json:"label"`
	Value    string `json:"value"`
	Selected bool   `json:"selected"`
}

// Cookie of the active browser context.
type Cookie struct {
	Name     string    `json:"name"`
	Value    string    `json:"value"`
	Domain   string    `json:"domain"`
	Path     string    `json:"path"`
	Expiry   time.Time `json:"expiry,omitempty"`
	HTTPOnly bool      `json:"httpOnly"`
	Secure   bool      `json:"secure"`
	SameSite string    `json:"sameSite,omitempty"`
}

// Engine is the modern automation engine the legacy keywords forward to.
// Element operations take a selector in the engine grammar and act on the
// first match.
type Engine interface {
	NewPersistentContext(ctx context.Context, opts LaunchOptions) (string, error)
	CloseBrowser(ctx context.Context, sel Selection) error
	ActiveBrowser() (string, error)
	SwitchBrowser(ctx context.Context, id string) error
	PageIDs(ctx context.Context, sel Selection) ([]string, error)
	ActivePage() (string, error)
	SwitchPage(ctx context.Context, id string) error
	ClosePage(ctx context.Context) error

	Goto(ctx context.Context, url string) error
	GoBack(ctx context.Context) error
	Reload(ctx context.Context) error
	URL(ctx context.Context) (string, error)
	Title(ctx context.Context) (string, error)
	Source(ctx context.Context) (string, error)

	Click(ctx context.Context, selector string, opts ClickOptions) error
	TypeText(ctx context.Context, selector, text string, clear bool) error
	ClearText(ctx context.Context, selector string) error
	Text(ctx context.Context, selector string) (string, error)
	Attribute(ctx context.Context, selector, name string) (string, bool, error)
	AttributeNames(ctx context.Context, selector string) ([]string, error)
	ElementStates(ctx context.Context, selector string) ([]ElementState, error)
	CheckboxState(ctx context.Context, selector string) (bool, error)
	SetChecked(ctx context.Context, selector string, checked bool) error
	SelectOptions(ctx context.Context, selector string, attr SelectAttribute, values ...string) error
	SelectOptionList(ctx context.Context, selector string) ([]SelectOption, error)
	BoundingBox(ctx context.Context, selector string) (BoundingBox, error)
	ElementCount(ctx context.Context, selector string) (int, error)
	Screenshot(ctx context.Context, path, selector string) error
	UploadFile(ctx context.Context, selector, path string) error
	DragAndDrop(ctx context.Context, source, target string) error
	DragAndDropRelative(ctx context.Context, source string, dx, dy float64) error
	Hover(ctx context.Context, selector string) error
	Evaluate(ctx context.Context, script string) (any, error)

	Cookies(ctx context.Context) ([]Cookie, error)
	DeleteAllCookies(ctx context.Context) error

	Close() error
}

// HasState reports whether want is among states.
func HasState(states []ElementState, want ElementState) bool {
	for _, s := range states {
		if s == want {
			return true
		}
	}
	return false
}
