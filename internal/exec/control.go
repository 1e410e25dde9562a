package exec

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// execMap applies steps to every element of an Array input independently,
// silently dropping elements whose sub-pipeline fails and preserving the
// order of the survivors, matching this stack's own map executor.
func execMap(goctx context.Context, steps []rule.Step, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	arr, ok := input.AsArraySlice()
	if !ok {
		return value.Null, crawlerr.Extraction("map step requires array input")
	}
	items := make([]value.Value, 0, len(arr))
	for _, el := range arr {
		out, err := RunPipeline(goctx, steps, el, ctx)
		if err != nil {
			continue
		}
		items = append(items, out)
	}
	return value.Array(items), nil
}

// execCondition runs when; a truthy result (or any error, which counts as
// false) picks then, else otherwise, else the input unchanged.
func execCondition(goctx context.Context, cond *rule.ConditionSpec, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	out, err := RunPipeline(goctx, cond.When, input, ctx)
	truthy := err == nil && out.IsTruthy()

	if truthy {
		return RunPipeline(goctx, cond.Then, input, ctx)
	}
	if len(cond.Otherwise) > 0 {
		return RunPipeline(goctx, cond.Otherwise, input, ctx)
	}
	return input, nil
}

// execLoopForEach resolves spec.Input against ctx's variable table to the
// array it names (a whole-placeholder template, e.g. "{{ items }}", yields
// the typed value rather than a stringified render), then runs spec.Pipeline
// once per element in a child scope binding spec.As to that element. The
// loop itself produces no output; it runs purely for pipeline side effects
// (e.g. writing results into the context), so the original input passes
// through unchanged.
func execLoopForEach(goctx context.Context, spec *rule.LoopForEachSpec, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	resolved, err := spec.Input.ResolveValue(ctx.Snapshot())
	if err != nil {
		return value.Null, err
	}
	items, ok := resolved.([]any)
	if !ok {
		return value.Null, crawlerr.Extraction("loop_for_each: %q does not resolve to an array", spec.Input.Raw())
	}

	for _, item := range items {
		child, rerr := ctx.Child()
		if rerr != nil {
			return value.Null, rerr
		}
		child.Set(spec.As, item)
		if _, err := RunPipeline(goctx, spec.Pipeline, value.FromJSON(item), child); err != nil {
			return value.Null, err
		}
	}
	return input, nil
}
