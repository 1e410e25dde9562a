// Package script defines the contract a pluggable script engine presents to
// the pipeline. No concrete engine is implemented here; hosts plug one in.
package script

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// SourceKind mirrors rule.ScriptSourceKind for the invocation boundary.
type SourceKind = rule.ScriptSourceKind

// Invocation is everything a Script step needs to hand to an engine.
type Invocation struct {
	Engine   rule.ScriptEngineName
	Source   string
	Function string
	Params   map[string]any
	Input    value.Value
	Security rule.ScriptSecurityConfig
}

// Engine invokes a named function of a script module against an input
// value, subject to the merged security envelope. Implementations are
// responsible for enforcing MaxMemoryMB/AllowFileAccess/AllowNetwork/
// TimeoutSeconds themselves; the engine boundary is the trust boundary.
type Engine interface {
	Invoke(ctx context.Context, inv Invocation) (value.Value, error)
}
