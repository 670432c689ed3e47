package runner

// Suite is one YAML suite file.
type Suite struct {
	Version   string            `yaml:"version"`
	Name      string            `yaml:"name"`
	Variables map[string]string `yaml:"variables"`
	Steps     []Step            `yaml:"steps"`
	Teardown  []Step            `yaml:"teardown"`
}

// Step runs one legacy keyword. A step without keyword only groups its
// nested steps.
type Step struct {
	Index       int          `yaml:"index"`
	Keyword     string       `yaml:"keyword"`
	Description string       `yaml:"description"`
	Args        []string     `yaml:"args"`
	Result      []StepResult `yaml:"result"`
	Retry       int          `yaml:"retry"`
	Failback    *Step        `yaml:"failback"`
	Steps       []Step       `yaml:"steps"`
}

// StepResult stores the keyword outcome under Name and picks a rule from
// Policy. Type is "value", "bool" or "error".
type StepResult struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Policy *StepResultPolicy `yaml:"policy"`
}

type StepResultPolicy struct {
	IsTrue   string `yaml:"is_true"`
	IsFalse  string `yaml:"is_false"`
	HasError string `yaml:"has_error"`
	NoError  string `yaml:"no_error"`
}

// Result types.
const (
	TypeValue = "value"
	TypeBool  = "bool"
	TypeError = "error"
)

// Rules a policy can choose.
const (
	RuleContinue   = "CONTINUE"
	RuleFailed     = "FAILED"
	RuleBreak      = "BREAK"
	RuleFailback   = "FAILBACK"
	RuleDoSteps    = "DO-STEPS"
	RuleDoStepsIdx = "DO-STEPS-IDX:"
	RuleLoop       = "LOOP"
	RuleLoopSteps  = "LOOP-STEPS"
	RuleLoopParent = "LOOP-PARENT"
)

// handlesError reports whether a result of the step inspects the error, in
// which case a keyword failure is routed through the policy.
func (s Step) handlesError() bool {
	for _, r := range s.Result {
		if r.Type == TypeError {
			return true
		}
	}
	return false
}
