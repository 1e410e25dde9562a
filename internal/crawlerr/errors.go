// Package crawlerr defines the stable error taxonomy shared by the rule
// validator, step executors, and flow engine.
package crawlerr

import (
	"fmt"
	"strings"
)

// Kind identifies one of the stable, user-facing error categories.
type Kind string

const (
	KindTemplateSyntax           Kind = "template_syntax"
	KindTemplateRender           Kind = "template_render"
	KindUndefinedVariable        Kind = "undefined_variable"
	KindInvalidIdentifier        Kind = "invalid_identifier"
	KindUndefinedComponent       Kind = "undefined_component"
	KindUndefinedFlow            Kind = "undefined_flow"
	KindCircularReference        Kind = "circular_reference"
	KindInvalidFieldMapping      Kind = "invalid_field_mapping"
	KindPipelineValidation       Kind = "pipeline_validation"
	KindMissingConfig            Kind = "missing_config"
	KindInvalidConfigValue       Kind = "invalid_config_value"
	KindUndefinedScriptModule    Kind = "undefined_script_module"
	KindUndefinedScriptFunction  Kind = "undefined_script_function"
	KindResourceLimitExceeded    Kind = "resource_limit_exceeded"
	KindRecursionLimitExceeded   Kind = "recursion_limit_exceeded"
	KindExecutionTimeout         Kind = "execution_timeout"
	KindHTTPRequest              Kind = "http_request"
	KindExtraction               Kind = "extraction"
	KindJSONParse                Kind = "json_parse"
	KindIO                       Kind = "io"
	KindMultipleErrors           Kind = "multiple_errors"
)

// Error is the single concrete error type for the whole taxonomy. Which
// fields are populated depends on Kind; Error() renders a human message the
// same way regardless.
type Error struct {
	Kind Kind

	// TemplateSyntax / TemplateRender
	Message string

	// UndefinedVariable
	Variable string

	// InvalidIdentifier
	Identifier string
	Reason     string

	// UndefinedComponent
	Component string

	// UndefinedFlow
	Flow string

	// CircularReference
	Path string

	// InvalidFieldMapping
	Field string
	Model string

	// PipelineValidation
	StepIndex int

	// MissingConfig / InvalidConfigValue
	ConfigField string

	// UndefinedScriptModule / UndefinedScriptFunction
	ScriptModule   string
	ScriptFunction string

	// ResourceLimitExceeded
	LimitType string
	Current   int64
	Max       int64

	// RecursionLimitExceeded reuses Current/Max above.

	// ExecutionTimeout
	Operation string
	ElapsedMs int64
	LimitMs   int64

	// MultipleErrors
	Errors []*Error
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindTemplateSyntax:
		return fmt.Sprintf("template syntax error: %s", e.Message)
	case KindTemplateRender:
		return fmt.Sprintf("template render error: %s", e.Message)
	case KindUndefinedVariable:
		return fmt.Sprintf("template variable %q is undefined", e.Variable)
	case KindInvalidIdentifier:
		return fmt.Sprintf("invalid identifier %q: %s", e.Identifier, e.Reason)
	case KindUndefinedComponent:
		return fmt.Sprintf("component %q is undefined", e.Component)
	case KindUndefinedFlow:
		return fmt.Sprintf("flow %q is undefined", e.Flow)
	case KindCircularReference:
		return fmt.Sprintf("circular reference detected: %s", e.Path)
	case KindInvalidFieldMapping:
		return fmt.Sprintf("field mapping error: target field %q does not exist in model %q", e.Field, e.Model)
	case KindPipelineValidation:
		return fmt.Sprintf("pipeline validation error (step %d): %s", e.StepIndex, e.Message)
	case KindMissingConfig:
		return fmt.Sprintf("missing required config field: %s", e.ConfigField)
	case KindInvalidConfigValue:
		return fmt.Sprintf("config field %q has an invalid value: %s", e.ConfigField, e.Reason)
	case KindUndefinedScriptModule:
		return fmt.Sprintf("script module %q is undefined", e.ScriptModule)
	case KindUndefinedScriptFunction:
		return fmt.Sprintf("script function %s.%s is undefined", e.ScriptModule, e.ScriptFunction)
	case KindResourceLimitExceeded:
		return fmt.Sprintf("resource limit exceeded: %s (current: %d, max: %d)", e.LimitType, e.Current, e.Max)
	case KindRecursionLimitExceeded:
		return fmt.Sprintf("recursion limit exceeded (current: %d, max: %d)", e.Current, e.Max)
	case KindExecutionTimeout:
		return fmt.Sprintf("execution timeout: %s (elapsed: %dms, limit: %dms)", e.Operation, e.ElapsedMs, e.LimitMs)
	case KindHTTPRequest:
		return fmt.Sprintf("http request error: %s", e.Message)
	case KindExtraction:
		return e.Message
	case KindJSONParse:
		return fmt.Sprintf("json parse error: %s", e.Message)
	case KindIO:
		return fmt.Sprintf("io error: %s", e.Message)
	case KindMultipleErrors:
		msgs := make([]string, len(e.Errors))
		for i, sub := range e.Errors {
			msgs[i] = sub.Error()
		}
		return fmt.Sprintf("validation found %d errors: %s", len(e.Errors), strings.Join(msgs, "; "))
	default:
		return fmt.Sprintf("unknown error (%s): %s", e.Kind, e.Message)
	}
}

// Is supports errors.Is by comparing Kind only.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

func Extraction(format string, args ...any) *Error {
	return &Error{Kind: KindExtraction, Message: fmt.Sprintf(format, args...)}
}

func TemplateSyntax(msg string) *Error { return &Error{Kind: KindTemplateSyntax, Message: msg} }
func TemplateRender(msg string) *Error { return &Error{Kind: KindTemplateRender, Message: msg} }
func UndefinedVariable(name string) *Error {
	return &Error{Kind: KindUndefinedVariable, Variable: name}
}
func InvalidIdentifier(id, reason string) *Error {
	return &Error{Kind: KindInvalidIdentifier, Identifier: id, Reason: reason}
}
func UndefinedComponent(name string) *Error {
	return &Error{Kind: KindUndefinedComponent, Component: name}
}
func UndefinedFlow(name string) *Error { return &Error{Kind: KindUndefinedFlow, Flow: name} }
func CircularReference(path []string) *Error {
	return &Error{Kind: KindCircularReference, Path: strings.Join(path, " -> ")}
}
func InvalidFieldMapping(field, model string) *Error {
	return &Error{Kind: KindInvalidFieldMapping, Field: field, Model: model}
}
func PipelineValidation(stepIndex int, msg string) *Error {
	return &Error{Kind: KindPipelineValidation, StepIndex: stepIndex, Message: msg}
}
func MissingConfig(field string) *Error { return &Error{Kind: KindMissingConfig, ConfigField: field} }
func InvalidConfigValue(field, reason string) *Error {
	return &Error{Kind: KindInvalidConfigValue, ConfigField: field, Reason: reason}
}
func UndefinedScriptModule(module string) *Error {
	return &Error{Kind: KindUndefinedScriptModule, ScriptModule: module}
}
func UndefinedScriptFunction(module, function string) *Error {
	return &Error{Kind: KindUndefinedScriptFunction, ScriptModule: module, ScriptFunction: function}
}
func ResourceLimitExceeded(limitType string, current, max int64) *Error {
	return &Error{Kind: KindResourceLimitExceeded, LimitType: limitType, Current: current, Max: max}
}
func RecursionLimitExceeded(current, max int64) *Error {
	return &Error{Kind: KindRecursionLimitExceeded, Current: current, Max: max}
}
func ExecutionTimeout(operation string, elapsedMs, limitMs int64) *Error {
	return &Error{Kind: KindExecutionTimeout, Operation: operation, ElapsedMs: elapsedMs, LimitMs: limitMs}
}
func HTTPRequest(msg string) *Error { return &Error{Kind: KindHTTPRequest, Message: msg} }
func JSONParse(msg string) *Error   { return &Error{Kind: KindJSONParse, Message: msg} }
func IO(msg string) *Error          { return &Error{Kind: KindIO, Message: msg} }

// ValidationErrors accumulates zero or more *Error values during a
// validation pass that must not short-circuit on the first failure.
type ValidationErrors struct {
	errors []*Error
}

// NewValidationErrors returns an empty collector.
func NewValidationErrors() *ValidationErrors { return &ValidationErrors{} }

// Push appends a single error, ignoring a nil argument.
func (v *ValidationErrors) Push(err *Error) {
	if err == nil {
		return
	}
	v.errors = append(v.errors, err)
}

// Extend appends every error from another collector.
func (v *ValidationErrors) Extend(other *ValidationErrors) {
	if other == nil {
		return
	}
	v.errors = append(v.errors, other.errors...)
}

// HasErrors reports whether any error has been collected.
func (v *ValidationErrors) HasErrors() bool { return len(v.errors) > 0 }

// Len returns the number of collected errors.
func (v *ValidationErrors) Len() int { return len(v.errors) }

// IsEmpty reports the inverse of HasErrors.
func (v *ValidationErrors) IsEmpty() bool { return !v.HasErrors() }

// IntoErrors returns the collected errors as a plain slice.
func (v *ValidationErrors) IntoErrors() []*Error { return v.errors }

// IntoResult collapses the collector into nil (no errors), the single
// collected error (exactly one), or a MultipleErrors wrapper (more than one).
func (v *ValidationErrors) IntoResult() *Error {
	switch len(v.errors) {
	case 0:
		return nil
	case 1:
		return v.errors[0]
	default:
		return &Error{Kind: KindMultipleErrors, Errors: v.errors}
	}
}

// Temporary reports whether a retry of the same operation might succeed.
// HTTP transport, timeout, I/O and resource-limit failures are temporary; every
// other kind reflects a rule document or page-content problem retrying won't
// fix. A MultipleErrors is temporary only if every wrapped error is.
func (e *Error) Temporary() bool {
	switch e.Kind {
	case KindHTTPRequest, KindExecutionTimeout, KindIO, KindResourceLimitExceeded:
		return true
	case KindMultipleErrors:
		for _, sub := range e.Errors {
			if !sub.Temporary() {
				return false
			}
		}
		return len(e.Errors) > 0
	default:
		return false
	}
}

