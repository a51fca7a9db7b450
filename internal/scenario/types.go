package scenario

// ReportStep is a stub report fed straight to the guard. Level is a name
// or an ordinal; an omitted Kind is the tier that produces Level.
type ReportStep struct {
	Level   string `yaml:"level"`
	Kind    string `yaml:"kind,omitempty"`
	Subject string `yaml:"subject,omitempty"` // defaults to the scenario subject
}

// Step is exactly one of allow, report or check, plus an optional
// expectation. Reports expect "ok" or a violation kind; checks expect
// "true" or "false". Allow steps take no expectation.
type Step struct {
	Allow  string      `yaml:"allow,omitempty"`
	Report *ReportStep `yaml:"report,omitempty"`
	Check  string      `yaml:"check,omitempty"`
	Expect string      `yaml:"expect,omitempty"`
}

// Scenario is a named sequence of guard operations on one subject.
type Scenario struct {
	Name    string `yaml:"name"`
	Subject string `yaml:"subject"`
	Steps   []Step `yaml:"steps"`
}

// StepResult is the outcome of one step that carries an expectation.
type StepResult struct {
	Index    int    `json:"index"`
	Op       string `json:"op"`
	Passed   bool   `json:"passed"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Reason   string `json:"reason,omitempty"`
}

// RunResult is the outcome of one scenario file.
type RunResult struct {
	File   string       `json:"file"`
	Name   string       `json:"name"`
	Total  int          `json:"total"`
	Passed int          `json:"passed"`
	Failed int          `json:"failed"`
	Final  string       `json:"final_level"`
	Steps  []StepResult `json:"steps"`
}
