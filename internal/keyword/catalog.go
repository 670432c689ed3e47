package keyword

import "strings"

// Entry describes one legacy keyword. Args use the legacy argument names;
// "name=default" marks an optional argument and "*name" collects the rest.
type Entry struct {
	Name        string   `json:"name"`
	Implemented bool     `json:"implemented"`
	Args        []string `json:"args"`
}

// Catalog lists every keyword of the legacy vocabulary. Keywords that are not
// implemented are still declared so that calling them fails with a
// NotImplementedError instead of an unknown keyword error.
var Catalog = []Entry{
	{Name: "Add Cookie", Implemented: false, Args: []string{"name", "value", "path=", "domain=", "secure=", "expiry="}},
	{Name: "Add Location Strategy", Implemented: false, Args: []string{"strategy_name", "strategy_keyword", "persist=False"}},
	{Name: "Alert Should Be Present", Implemented: false, Args: []string{"text=", "action=ACCEPT", "timeout="}},
	{Name: "Alert Should Not Be Present", Implemented: false, Args: []string{"action=ACCEPT", "timeout="}},
	{Name: "Assign Id To Element", Implemented: false, Args: []string{"locator", "id"}},
	{Name: "Capture Element Screenshot", Implemented: true, Args: []string{"locator", "filename=selenium-element-screenshot-{index}.png"}},
	{Name: "Capture Page Screenshot", Implemented: true, Args: []string{"filename=selenium-screenshot-{index}.png"}},
	{Name: "Checkbox Should Be Selected", Implemented: true, Args: []string{"locator"}},
	{Name: "Checkbox Should Not Be Selected", Implemented: true, Args: []string{"locator"}},
	{Name: "Choose File", Implemented: true, Args: []string{"locator", "file_path"}},
	{Name: "Clear Element Text", Implemented: true, Args: []string{"locator"}},
	{Name: "Click Button", Implemented: true, Args: []string{"locator", "modifier=False"}},
	{Name: "Click Element", Implemented: true, Args: []string{"locator", "modifier=False", "action_chain=False"}},
	{Name: "Click Element At Coordinates", Implemented: true, Args: []string{"locator", "xoffset", "yoffset"}},
	{Name: "Click Image", Implemented: true, Args: []string{"locator", "modifier=False"}},
	{Name: "Click Link", Implemented: true, Args: []string{"locator", "modifier=False"}},
	{Name: "Close All Browsers", Implemented: true, Args: []string{}},
	{Name: "Close Browser", Implemented: true, Args: []string{}},
	{Name: "Close Window", Implemented: true, Args: []string{}},
	{Name: "Cover Element", Implemented: false, Args: []string{"locator"}},
	{Name: "Create Webdriver", Implemented: false, Args: []string{"driver_name", "alias="}},
	{Name: "Current Frame Should Contain", Implemented: false, Args: []string{"text", "loglevel=TRACE"}},
	{Name: "Current Frame Should Not Contain", Implemented: false, Args: []string{"text", "loglevel=TRACE"}},
	{Name: "Delete All Cookies", Implemented: true, Args: []string{}},
	{Name: "Delete Cookie", Implemented: false, Args: []string{"name"}},
	{Name: "Double Click Element", Implemented: true, Args: []string{"locator"}},
	{Name: "Drag And Drop", Implemented: true, Args: []string{"locator", "target"}},
	{Name: "Drag And Drop By Offset", Implemented: true, Args: []string{"locator", "xoffset", "yoffset"}},
	{Name: "Element Attribute Value Should Be", Implemented: true, Args: []string{"locator", "attribute", "expected", "message="}},
	{Name: "Element Should Be Disabled", Implemented: true, Args: []string{"locator"}},
	{Name: "Element Should Be Enabled", Implemented: true, Args: []string{"locator"}},
	{Name: "Element Should Be Focused", Implemented: true, Args: []string{"locator"}},
	{Name: "Element Should Be Visible", Implemented: true, Args: []string{"locator", "message="}},
	{Name: "Element Should Contain", Implemented: true, Args: []string{"locator", "expected", "message=", "ignore_case=False"}},
	{Name: "Element Should Not Be Visible", Implemented: true, Args: []string{"locator", "message="}},
	{Name: "Element Should Not Contain", Implemented: true, Args: []string{"locator", "expected", "message=", "ignore_case=False"}},
	{Name: "Element Text Should Be", Implemented: true, Args: []string{"locator", "expected", "message=", "ignore_case=False"}},
	{Name: "Element Text Should Not Be", Implemented: true, Args: []string{"locator", "not_expected", "message=", "ignore_case=False"}},
	{Name: "Execute Async Javascript", Implemented: false, Args: []string{"*code"}},
	{Name: "Execute Javascript", Implemented: true, Args: []string{"*code"}},
	{Name: "Frame Should Contain", Implemented: false, Args: []string{"locator", "text", "loglevel=TRACE"}},
	{Name: "Get All Links", Implemented: true, Args: []string{}},
	{Name: "Get Browser Aliases", Implemented: true, Args: []string{}},
	{Name: "Get Browser Ids", Implemented: true, Args: []string{}},
	{Name: "Get Cookie", Implemented: true, Args: []string{"name"}},
	{Name: "Get Cookies", Implemented: true, Args: []string{"as_dict=False"}},
	{Name: "Get Element Attribute", Implemented: true, Args: []string{"locator", "attribute"}},
	{Name: "Get Element Count", Implemented: true, Args: []string{"locator"}},
	{Name: "Get Element Size", Implemented: true, Args: []string{"locator"}},
	{Name: "Get Horizontal Position", Implemented: true, Args: []string{"locator"}},
	{Name: "Get List Items", Implemented: true, Args: []string{"locator", "values=False"}},
	{Name: "Get Location", Implemented: true, Args: []string{}},
	{Name: "Get Locations", Implemented: true, Args: []string{"browser=CURRENT"}},
	{Name: "Get Selected List Label", Implemented: false, Args: []string{"locator"}},
	{Name: "Get Selected List Labels", Implemented: false, Args: []string{"locator"}},
	{Name: "Get Selected List Value", Implemented: false, Args: []string{"locator"}},
	{Name: "Get Selected List Values", Implemented: false, Args: []string{"locator"}},
	{Name: "Get Selenium Implicit Wait", Implemented: false, Args: []string{}},
	{Name: "Get Selenium Speed", Implemented: false, Args: []string{}},
	{Name: "Get Selenium Timeout", Implemented: true, Args: []string{}},
	{Name: "Get Session Id", Implemented: false, Args: []string{}},
	{Name: "Get Source", Implemented: true, Args: []string{}},
	{Name: "Get Table Cell", Implemented: false, Args: []string{"locator", "row", "column", "loglevel=TRACE"}},
	{Name: "Get Text", Implemented: true, Args: []string{"locator"}},
	{Name: "Get Title", Implemented: true, Args: []string{}},
	{Name: "Get Value", Implemented: true, Args: []string{"locator"}},
	{Name: "Get Vertical Position", Implemented: true, Args: []string{"locator"}},
	{Name: "Get WebElement", Implemented: true, Args: []string{"locator"}},
	{Name: "Get WebElements", Implemented: true, Args: []string{"locator"}},
	{Name: "Get Window Handles", Implemented: false, Args: []string{"browser=CURRENT"}},
	{Name: "Get Window Identifiers", Implemented: false, Args: []string{"browser=CURRENT"}},
	{Name: "Get Window Names", Implemented: false, Args: []string{"browser=CURRENT"}},
	{Name: "Get Window Position", Implemented: false, Args: []string{}},
	{Name: "Get Window Size", Implemented: false, Args: []string{"inner=False"}},
	{Name: "Get Window Titles", Implemented: false, Args: []string{"browser=CURRENT"}},
	{Name: "Go Back", Implemented: true, Args: []string{}},
	{Name: "Go To", Implemented: true, Args: []string{"url"}},
	{Name: "Handle Alert", Implemented: false, Args: []string{"action=ACCEPT", "timeout="}},
	{Name: "Input Password", Implemented: true, Args: []string{"locator", "password", "clear=True"}},
	{Name: "Input Text", Implemented: true, Args: []string{"locator", "text", "clear=True"}},
	{Name: "Input Text Into Alert", Implemented: false, Args: []string{"text", "action=ACCEPT", "timeout="}},
	{Name: "List Selection Should Be", Implemented: false, Args: []string{"locator", "*expected"}},
	{Name: "List Should Have No Selections", Implemented: false, Args: []string{"locator"}},
	{Name: "Location Should Be", Implemented: true, Args: []string{"url", "message="}},
	{Name: "Location Should Contain", Implemented: true, Args: []string{"expected", "message="}},
	{Name: "Log Location", Implemented: true, Args: []string{}},
	{Name: "Log Source", Implemented: true, Args: []string{"loglevel=INFO"}},
	{Name: "Log Title", Implemented: true, Args: []string{}},
	{Name: "Maximize Browser Window", Implemented: false, Args: []string{}},
	{Name: "Mouse Down", Implemented: false, Args: []string{"locator"}},
	{Name: "Mouse Down On Image", Implemented: false, Args: []string{"locator"}},
	{Name: "Mouse Down On Link", Implemented: false, Args: []string{"locator"}},
	{Name: "Mouse Out", Implemented: false, Args: []string{"locator"}},
	{Name: "Mouse Over", Implemented: true, Args: []string{"locator"}},
	{Name: "Mouse Up", Implemented: false, Args: []string{"locator"}},
	{Name: "Open Browser", Implemented: true, Args: []string{"url=", "browser=firefox", "alias=", "remote_url=False", "desired_capabilities=", "ff_profile_dir=", "options=", "service_log_path=", "executable_path="}},
	{Name: "Open Context Menu", Implemented: false, Args: []string{"locator"}},
	{Name: "Page Should Contain", Implemented: false, Args: []string{"text", "loglevel=TRACE"}},
	{Name: "Page Should Contain Button", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Contain Checkbox", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Contain Element", Implemented: true, Args: []string{"locator", "message=", "loglevel=TRACE", "limit="}},
	{Name: "Page Should Contain Image", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Contain Link", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Contain List", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Contain Radio Button", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Contain Textfield", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain", Implemented: false, Args: []string{"text", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain Button", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain Checkbox", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain Element", Implemented: true, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain Image", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain Link", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain List", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain Radio Button", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Page Should Not Contain Textfield", Implemented: false, Args: []string{"locator", "message=", "loglevel=TRACE"}},
	{Name: "Press Key", Implemented: false, Args: []string{"locator", "key"}},
	{Name: "Press Keys", Implemented: false, Args: []string{"locator=", "*keys"}},
	{Name: "Radio Button Should Be Set To", Implemented: false, Args: []string{"group_name", "value"}},
	{Name: "Radio Button Should Not Be Selected", Implemented: false, Args: []string{"group_name"}},
	{Name: "Register Keyword To Run On Failure", Implemented: true, Args: []string{"keyword"}},
	{Name: "Reload Page", Implemented: true, Args: []string{}},
	{Name: "Remove Location Strategy", Implemented: false, Args: []string{"strategy_name"}},
	{Name: "Scroll Element Into View", Implemented: false, Args: []string{"locator"}},
	{Name: "Select All From List", Implemented: false, Args: []string{"locator"}},
	{Name: "Select Checkbox", Implemented: true, Args: []string{"locator"}},
	{Name: "Select Frame", Implemented: false, Args: []string{"locator"}},
	{Name: "Select From List By Index", Implemented: true, Args: []string{"locator", "*indexes"}},
	{Name: "Select From List By Label", Implemented: true, Args: []string{"locator", "*labels"}},
	{Name: "Select From List By Value", Implemented: true, Args: []string{"locator", "*values"}},
	{Name: "Select Radio Button", Implemented: false, Args: []string{"group_name", "value"}},
	{Name: "Set Browser Implicit Wait", Implemented: false, Args: []string{"value"}},
	{Name: "Set Focus To Element", Implemented: false, Args: []string{"locator"}},
	{Name: "Set Screenshot Directory", Implemented: true, Args: []string{"path"}},
	{Name: "Set Selenium Implicit Wait", Implemented: false, Args: []string{"value"}},
	{Name: "Set Selenium Speed", Implemented: false, Args: []string{"value"}},
	{Name: "Set Selenium Timeout", Implemented: true, Args: []string{"value"}},
	{Name: "Set Window Position", Implemented: false, Args: []string{"x", "y"}},
	{Name: "Set Window Size", Implemented: false, Args: []string{"width", "height", "inner=False"}},
	{Name: "Simulate Event", Implemented: false, Args: []string{"locator", "event"}},
	{Name: "Submit Form", Implemented: false, Args: []string{"locator="}},
	{Name: "Switch Browser", Implemented: true, Args: []string{"index_or_alias"}},
	{Name: "Switch Window", Implemented: false, Args: []string{"locator=MAIN", "timeout=", "browser=CURRENT"}},
	{Name: "Table Cell Should Contain", Implemented: false, Args: []string{"locator", "row", "column", "expected", "loglevel=TRACE"}},
	{Name: "Table Column Should Contain", Implemented: false, Args: []string{"locator", "column", "expected", "loglevel=TRACE"}},
	{Name: "Table Footer Should Contain", Implemented: false, Args: []string{"locator", "expected", "loglevel=TRACE"}},
	{Name: "Table Header Should Contain", Implemented: false, Args: []string{"locator", "expected", "loglevel=TRACE"}},
	{Name: "Table Row Should Contain", Implemented: false, Args: []string{"locator", "row", "expected", "loglevel=TRACE"}},
	{Name: "Table Should Contain", Implemented: false, Args: []string{"locator", "expected", "loglevel=TRACE"}},
	{Name: "Textarea Should Contain", Implemented: false, Args: []string{"locator", "expected", "message="}},
	{Name: "Textarea Value Should Be", Implemented: false, Args: []string{"locator", "expected", "message="}},
	{Name: "Textfield Should Contain", Implemented: false, Args: []string{"locator", "expected", "message="}},
	{Name: "Textfield Value Should Be", Implemented: false, Args: []string{"locator", "expected", "message="}},
	{Name: "Title Should Be", Implemented: true, Args: []string{"title", "message="}},
	{Name: "Unselect All From List", Implemented: true, Args: []string{"locator"}},
	{Name: "Unselect Checkbox", Implemented: true, Args: []string{"locator"}},
	{Name: "Unselect Frame", Implemented: false, Args: []string{}},
	{Name: "Unselect From List By Index", Implemented: false, Args: []string{"locator", "*indexes"}},
	{Name: "Unselect From List By Label", Implemented: false, Args: []string{"locator", "*labels"}},
	{Name: "Unselect From List By Value", Implemented: false, Args: []string{"locator", "*values"}},
	{Name: "Wait For Condition", Implemented: false, Args: []string{"condition", "timeout=", "error="}},
	{Name: "Wait Until Element Contains", Implemented: false, Args: []string{"locator", "text", "timeout=", "error="}},
	{Name: "Wait Until Element Does Not Contain", Implemented: false, Args: []string{"locator", "text", "timeout=", "error="}},
	{Name: "Wait Until Element Is Enabled", Implemented: false, Args: []string{"locator", "timeout=", "error="}},
	{Name: "Wait Until Element Is Not Visible", Implemented: false, Args: []string{"locator", "timeout=", "error="}},
	{Name: "Wait Until Element Is Visible", Implemented: false, Args: []string{"locator", "timeout=", "error="}},
	{Name: "Wait Until Location Contains", Implemented: false, Args: []string{"expected", "timeout=", "message="}},
	{Name: "Wait Until Location Does Not Contain", Implemented: false, Args: []string{"location", "timeout=", "message="}},
	{Name: "Wait Until Location Is", Implemented: false, Args: []string{"expected", "timeout=", "message="}},
	{Name: "Wait Until Location Is Not", Implemented: false, Args: []string{"location", "timeout=", "message="}},
	{Name: "Wait Until Page Contains", Implemented: false, Args: []string{"text", "timeout=", "error="}},
	{Name: "Wait Until Page Contains Element", Implemented: false, Args: []string{"locator", "timeout=", "error=", "limit="}},
	{Name: "Wait Until Page Does Not Contain", Implemented: false, Args: []string{"text", "timeout=", "error="}},
	{Name: "Wait Until Page Does Not Contain Element", Implemented: false, Args: []string{"locator", "timeout=", "error=", "limit="}},
}

var catalogIndex = func() map[string]Entry {
	index := make(map[string]Entry, len(Catalog))
	for _, e := range Catalog {
		index[Normalize(e.Name)] = e
	}
	return index
}()

// Lookup finds a catalog entry by keyword name.
func Lookup(name string) (Entry, bool) {
	e, ok := catalogIndex[Normalize(name)]
	return e, ok
}

// Normalize folds a keyword name the way the legacy runner compares them:
// case, spaces and underscores are ignored.
func Normalize(name string) string {
	return strings.ToLower(strings.NewReplacer(" ", "", "_", "").Replace(name))
}
