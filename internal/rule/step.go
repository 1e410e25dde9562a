package rule

import (
	"fmt"
	"regexp"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
)

// StepKind discriminates the Step union.
type StepKind string

const (
	StepCss          StepKind = "css"
	StepJSON         StepKind = "json"
	StepXpath        StepKind = "xpath"
	StepRegex        StepKind = "regex"
	StepAttr         StepKind = "attr"
	StepIndex        StepKind = "index"
	StepFilter       StepKind = "filter"
	StepConst        StepKind = "const"
	StepVar          StepKind = "var"
	StepScript       StepKind = "script"
	StepUseComponent StepKind = "use_component"
	StepMap          StepKind = "map"
	StepCondition    StepKind = "condition"
	StepLoopForEach  StepKind = "loop_for_each"
)

// IndexSpec selects either a single element (Single set) or a sub-range
// (Start/End/Step) from an array.
type IndexSpec struct {
	Single *int `json:"single,omitempty"`
	Start  *int `json:"start,omitempty"`
	End    *int `json:"end,omitempty"`
	Step   *int `json:"step,omitempty"`
}

// ScriptRef names the module.function a Script step invokes and carries a
// step-local security override.
type ScriptRef struct {
	Call     string                `json:"call" jsonschema:"required"` // "module.function"
	Params   map[string]any        `json:"params,omitempty"`
	Security *ScriptSecurityConfig `json:"security,omitempty"`
}

// ComponentRef names a component to invoke plus input bindings that shadow
// its declared defaults in a child context.
type ComponentRef struct {
	Component string         `json:"component" jsonschema:"required"`
	With      map[string]any `json:"with,omitempty"`
}

// ConditionSpec evaluates When; if the result IsTruthy it runs Then, else
// Otherwise (or, if Otherwise is empty, leaves the input unchanged). Errors
// raised while evaluating When are treated as false, never propagated.
type ConditionSpec struct {
	When      []Step `json:"when" jsonschema:"required"`
	Then      []Step `json:"then" jsonschema:"required"`
	Otherwise []Step `json:"otherwise,omitempty"`
}

// LoopForEachSpec iterates the array a template resolves to, binding each
// element to a context variable for the duration of a child-scoped
// sub-pipeline run purely for its side effects.
type LoopForEachSpec struct {
	Input    Template `json:"input" jsonschema:"required"`
	As       string   `json:"as" jsonschema:"required"`
	Pipeline []Step   `json:"pipeline" jsonschema:"required"`
}

// FilterCall names a pure filter function and its arguments.
type FilterCall struct {
	Name string `json:"name" jsonschema:"required"`
	Args []any  `json:"args,omitempty"`
}

// Step is a discriminated union over every pipeline operation. Exactly one
// of the kind-specific fields is populated, matching Kind.
type Step struct {
	Kind StepKind `json:"kind" jsonschema:"required"`

	Css   string `json:"css,omitempty"`
	Json  string `json:"json,omitempty"`
	// JsonSingle selects the Json step's result shape: the resolved node
	// returned directly (scalar or array) instead of always forced into a
	// one-element Array for a non-array hit.
	JsonSingle bool   `json:"jsonSingle,omitempty"`
	Xpath      string `json:"xpath,omitempty"`
	Regex      string `json:"regex,omitempty"`
	Attr       string `json:"attr,omitempty"`

	Index *IndexSpec `json:"index,omitempty"`

	Filter *FilterCall `json:"filter,omitempty"`

	Const any `json:"const,omitempty"`

	Var string `json:"var,omitempty"`

	Script *ScriptRef `json:"script,omitempty"`

	UseComponent *ComponentRef `json:"useComponent,omitempty"`

	Map []Step `json:"map,omitempty"`

	Condition *ConditionSpec `json:"condition,omitempty"`

	LoopForEach *LoopForEachSpec `json:"loopForEach,omitempty"`
}

// SelfCheck performs the step's own static validation (§4.2 item 6): does a
// regex pattern compile, is an index bound sensible, etc. It does not
// recurse into nested pipelines; the validator does that separately.
func (s Step) SelfCheck() *crawlerr.Error {
	switch s.Kind {
	case StepRegex:
		if s.Regex == "" {
			return crawlerr.PipelineValidation(0, "regex step requires a non-empty pattern")
		}
		if _, err := regexp.Compile(s.Regex); err != nil {
			return crawlerr.PipelineValidation(0, fmt.Sprintf("invalid regex pattern %q: %v", s.Regex, err))
		}
	case StepCss:
		if s.Css == "" {
			return crawlerr.PipelineValidation(0, "css step requires a non-empty selector")
		}
	case StepIndex:
		if s.Index == nil {
			return crawlerr.PipelineValidation(0, "index step requires an index spec")
		}
		if s.Index.Single == nil && s.Index.Start == nil && s.Index.End == nil {
			return crawlerr.PipelineValidation(0, "index step requires single or a start/end range")
		}
	case StepVar:
		if s.Var == "" {
			return crawlerr.PipelineValidation(0, "var step requires a name")
		} else if err := Identifier(s.Var).Validate(); err != nil {
			return err
		}
	case StepFilter:
		if s.Filter == nil || s.Filter.Name == "" {
			return crawlerr.PipelineValidation(0, "filter step requires a filter name")
		}
	case StepScript:
		if s.Script == nil || s.Script.Call == "" {
			return crawlerr.PipelineValidation(0, "script step requires a call reference")
		}
	case StepUseComponent:
		if s.UseComponent == nil || s.UseComponent.Component == "" {
			return crawlerr.PipelineValidation(0, "use_component step requires a component name")
		}
	case StepCondition:
		if s.Condition == nil || len(s.Condition.When) == 0 || len(s.Condition.Then) == 0 {
			return crawlerr.PipelineValidation(0, "condition step requires when and then pipelines")
		}
	case StepLoopForEach:
		if s.LoopForEach == nil || s.LoopForEach.As == "" || len(s.LoopForEach.Pipeline) == 0 {
			return crawlerr.PipelineValidation(0, "loop_for_each step requires as and a pipeline")
		} else if err := Identifier(s.LoopForEach.As).Validate(); err != nil {
			return err
		}
	}
	return nil
}
