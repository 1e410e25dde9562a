package exec

import (
	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/value"
)

// execVar reads name from ctx's variable table and wraps it as a Value,
// preferring the most specific variant exactly as Const does.
func execVar(name string, ctx *flowctx.Context) (value.Value, error) {
	v, ok := ctx.Get(name)
	if !ok {
		return value.Null, crawlerr.Extraction("Variable not found: %s", name)
	}
	return value.FromJSON(v), nil
}
