package exec

import (
	"context"
	"strings"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/script"
	"github.com/nickheyer/crawlkit/internal/value"
)

// execScript resolves ref.Call as "module.function" against the rule's
// scripting config, merges step-local security over the rule's global
// security default, and delegates to the configured Script collaborator.
func execScript(goctx context.Context, ref *rule.ScriptRef, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	r := ctx.Rule()
	var scripting rule.ScriptingConfig
	if r != nil && r.Scripting != nil {
		scripting = *r.Scripting
	}

	moduleName, functionName := splitScriptCall(ref.Call)
	mod, ok := scripting.Modules[moduleName]
	if !ok {
		return value.Null, crawlerr.UndefinedScriptModule(moduleName)
	}

	var security rule.ScriptSecurityConfig
	if scripting.Security != nil {
		security = *scripting.Security
	}
	if ref.Security != nil {
		security = security.Merge(*ref.Security)
	}

	engine := ctx.Script()
	if engine == nil {
		return value.Null, crawlerr.Extraction("script step requires a configured script engine")
	}

	engineName := scripting.Engine
	if engineName == "" {
		engineName = rule.DefaultScriptEngine
	}

	return engine.Invoke(goctx, script.Invocation{
		Engine:   engineName,
		Source:   mod.Source,
		Function: functionName,
		Params:   ref.Params,
		Input:    input,
		Security: security,
	})
}

func splitScriptCall(call string) (module, function string) {
	idx := strings.IndexByte(call, '.')
	if idx < 0 {
		return call, ""
	}
	return call[:idx], call[idx+1:]
}
