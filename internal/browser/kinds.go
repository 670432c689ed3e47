package browser

import "strings"

type browserSpec struct {
	kind     Kind
	headless bool
}

// legacyBrowsers maps the browser names accepted by the legacy Open Browser
// keyword onto an engine browser family.
var legacyBrowsers = map[string]browserSpec{
	"firefox":         {Firefox, false},
	"ff":              {Firefox, false},
	"headlessfirefox": {Firefox, true},
	"chromium":        {Chromium, false},
	"chrome":          {Chromium, false},
	"googlechrome":    {Chromium, false},
	"headlesschrome":  {Chromium, true},
	"gc":              {Chromium, false},
	"edge":            {Chromium, false},
	"webkit":          {WebKit, false},
	"safari":          {WebKit, false},
}

// ResolveBrowser maps a legacy browser name to a browser family and a
// headless flag. Unknown names fall back to a headed chromium.
func ResolveBrowser(name string) (Kind, bool) {
	spec, ok := legacyBrowsers[strings.ToLower(strings.ReplaceAll(name, " ", ""))]
	if !ok {
		return Chromium, false
	}
	return spec.kind, spec.headless
}
