package exec

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// execUseComponent looks up the named component on the rule bound to ctx,
// builds a child scope seeded with the component's declared input defaults
// overridden by ref.With, and runs its pipeline starting from input.
func execUseComponent(goctx context.Context, ref *rule.ComponentRef, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	r := ctx.Rule()
	if r == nil {
		return value.Null, crawlerr.Extraction("use_component step requires a rule bound to its context")
	}
	comp, ok := r.Components[ref.Component]
	if !ok {
		return value.Null, crawlerr.UndefinedComponent(ref.Component)
	}

	child, rerr := ctx.Child()
	if rerr != nil {
		return value.Null, rerr
	}
	for name, def := range comp.Inputs {
		child.Set(name, def)
	}
	for name, v := range ref.With {
		child.Set(name, v)
	}

	return RunPipeline(goctx, comp.Pipeline, input, child)
}
