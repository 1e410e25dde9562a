// Package exec implements the stateless step-executor dispatch: a single
// Execute entry point switching on a Step's Kind, matching this stack's own
// executor factory pattern (one static-dispatch function per step kind
// rather than a per-step object hierarchy).
package exec

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// Execute runs a single step against input, returning the step's output
// value or the error it failed with. It never mutates input: every variant
// constructor in package value returns a new Value, so threading the result
// forward is always safe.
func Execute(goctx context.Context, step rule.Step, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	switch step.Kind {
	case rule.StepCss:
		return execCss(step.Css, input)
	case rule.StepJSON:
		return execJSON(step.Json, step.JsonSingle, input)
	case rule.StepXpath:
		return execXpath(goctx, step.Xpath, input, ctx)
	case rule.StepRegex:
		return execRegex(step.Regex, input)
	case rule.StepAttr:
		return execAttr(step.Attr, input)
	case rule.StepIndex:
		return execIndex(step.Index, input)
	case rule.StepFilter:
		return applyFilter(step.Filter, input)
	case rule.StepConst:
		return value.FromJSON(step.Const), nil
	case rule.StepVar:
		return execVar(step.Var, ctx)
	case rule.StepScript:
		return execScript(goctx, step.Script, input, ctx)
	case rule.StepUseComponent:
		return execUseComponent(goctx, step.UseComponent, input, ctx)
	case rule.StepMap:
		return execMap(goctx, step.Map, input, ctx)
	case rule.StepCondition:
		return execCondition(goctx, step.Condition, input, ctx)
	case rule.StepLoopForEach:
		return execLoopForEach(goctx, step.LoopForEach, input, ctx)
	default:
		return value.Null, crawlerr.Extraction("unknown step kind %q", step.Kind)
	}
}

// RunPipeline threads input through steps in order, stopping at the first
// error.
func RunPipeline(goctx context.Context, steps []rule.Step, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	current := input
	for _, step := range steps {
		out, err := Execute(goctx, step, current, ctx)
		if err != nil {
			return value.Null, err
		}
		current = out
	}
	return current, nil
}
