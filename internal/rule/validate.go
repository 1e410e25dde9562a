package rule

import (
	"fmt"
	"sort"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
)

// Validate checks a Rule document for internal consistency before any
// execution is attempted: component call cycles, references to undefined
// components or script modules, malformed templates, and every step's own
// SelfCheck. It never inspects live page content.
func (r *Rule) Validate() *crawlerr.Error {
	v := newRuleValidator(r)
	return v.validateAll()
}

type ruleValidator struct {
	rule                 *Rule
	errors               crawlerr.ValidationErrors
	definedComponents    map[string]bool
	definedScriptModules map[string]bool
}

func newRuleValidator(r *Rule) *ruleValidator {
	definedComponents := map[string]bool{}
	for name := range r.Components {
		definedComponents[name] = true
	}
	definedScriptModules := map[string]bool{}
	if r.Scripting != nil {
		for name := range r.Scripting.Modules {
			definedScriptModules[name] = true
		}
	}
	return &ruleValidator{
		rule:                 r,
		definedComponents:    definedComponents,
		definedScriptModules: definedScriptModules,
	}
}

func (v *ruleValidator) validateAll() *crawlerr.Error {
	v.validateComponentCycles()

	if v.rule.Login != nil {
		v.validateFlow("login", *v.rule.Login)
	}
	if v.rule.List != nil {
		v.validateFlow("list", *v.rule.List)
	}
	v.validateFlow("detail", v.rule.Detail)
	v.validateFlow("search", v.rule.Search)

	for name, component := range v.rule.Components {
		v.validateComponent(name, component)
	}

	return v.errors.IntoResult()
}

func (v *ruleValidator) validateComponentCycles() {
	names := make([]string, 0, len(v.rule.Components))
	for name := range v.rule.Components {
		names = append(names, name)
	}
	sort.Strings(names)
	reported := map[string]bool{}
	for _, name := range names {
		if reported[name] {
			continue
		}
		visited := map[string]bool{}
		var path []string
		if cyclic, cyclePath := detectCycle(name, v.rule.Components, visited, path); cyclic {
			v.errors.Push(crawlerr.CircularReference(cyclePath))
			for _, n := range cyclePath {
				reported[n] = true
			}
		}
	}
}

// detectCycle walks UseComponent steps reachable from componentName via DFS
// with a visited set and an explicit path stack, reporting the first cycle
// found as an ordered "A -> B -> A" path.
func detectCycle(componentName string, components map[string]Component, visited map[string]bool, path []string) (bool, []string) {
	if visited[componentName] {
		return true, append(path, componentName)
	}
	visited[componentName] = true
	path = append(path, componentName)

	if component, ok := components[componentName]; ok {
		for _, step := range walkStepsIncludingNested(component.Pipeline) {
			if step.Kind == StepUseComponent && step.UseComponent != nil {
				if cyclic, cyclePath := detectCycle(step.UseComponent.Component, components, visited, path); cyclic {
					return true, cyclePath
				}
			}
		}
	}

	delete(visited, componentName)
	return false, nil
}

// walkStepsIncludingNested flattens a pipeline together with every step
// nested under Map/Condition/LoopForEach, since a UseComponent or Script
// step buried in any of those still participates in cycle/reference checks.
func walkStepsIncludingNested(steps []Step) []Step {
	var out []Step
	for _, s := range steps {
		out = append(out, s)
		out = append(out, walkStepsIncludingNested(s.Map)...)
		if s.Condition != nil {
			out = append(out, walkStepsIncludingNested(s.Condition.When)...)
			out = append(out, walkStepsIncludingNested(s.Condition.Then)...)
			out = append(out, walkStepsIncludingNested(s.Condition.Otherwise)...)
		}
		if s.LoopForEach != nil {
			out = append(out, walkStepsIncludingNested(s.LoopForEach.Pipeline)...)
		}
	}
	return out
}

func (v *ruleValidator) validateFlow(flowName string, flow Flow) {
	if err := flow.URLTemplate.Validate(); err != nil {
		v.errors.Push(err)
	}
	for i, chain := range flow.AllSteps() {
		v.validatePipeline(fmt.Sprintf("%s.fields[%d]", flowName, i), chain)
	}
}

func (v *ruleValidator) validateComponent(name string, component Component) {
	v.validatePipeline(fmt.Sprintf("components.%s.pipeline", name), component.Pipeline)
}

func (v *ruleValidator) validatePipeline(path string, pipeline []Step) {
	for i, step := range pipeline {
		v.validateStep(fmt.Sprintf("%s[%d]", path, i), step)
	}
}

func (v *ruleValidator) validateStep(path string, step Step) {
	switch step.Kind {
	case StepUseComponent:
		if step.UseComponent != nil && !v.definedComponents[step.UseComponent.Component] {
			v.errors.Push(crawlerr.UndefinedComponent(step.UseComponent.Component))
		}
	case StepScript:
		if step.Script != nil {
			module := moduleNameOf(step.Script.Call)
			if module != "" && !v.definedScriptModules[module] {
				v.errors.Push(crawlerr.UndefinedScriptModule(module))
			}
		}
	case StepLoopForEach:
		if step.LoopForEach != nil {
			if err := step.LoopForEach.Input.Validate(); err != nil {
				v.errors.Push(err)
			}
			v.validatePipeline(path+".pipeline", step.LoopForEach.Pipeline)
		}
	case StepMap:
		v.validatePipeline(path+".map", step.Map)
	case StepCondition:
		if step.Condition != nil {
			v.validatePipeline(path+".when", step.Condition.When)
			v.validatePipeline(path+".then", step.Condition.Then)
			v.validatePipeline(path+".otherwise", step.Condition.Otherwise)
		}
	}

	if err := step.SelfCheck(); err != nil {
		v.errors.Push(err)
	}
}

func moduleNameOf(call string) string {
	for i, r := range call {
		if r == '.' {
			return call[:i]
		}
	}
	return ""
}
