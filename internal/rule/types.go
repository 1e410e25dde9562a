// Package rule defines the declarative rule document: the typed tree of
// Rule -> Flow -> Pipeline -> Step plus the Component library, and the
// validator that checks it before any execution.
package rule

import (
	"encoding/json"
	"regexp"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
)

// identifierPattern is the exact syntax every declared name (variable,
// component, module) must satisfy.
var identifierPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Identifier is a validated name. Zero value is the empty string, which
// always fails Validate.
type Identifier string

// Validate reports whether id matches the identifier syntax, returning a
// crawlerr.Error describing the violation when it does not.
func (id Identifier) Validate() *crawlerr.Error {
	if !identifierPattern.MatchString(string(id)) {
		return crawlerr.InvalidIdentifier(string(id), "must match ^[A-Za-z_][A-Za-z0-9_]*$")
	}
	return nil
}

// MediaType is the kind of content a rule's flows produce.
type MediaType string

const (
	MediaVideo MediaType = "video"
	MediaAudio MediaType = "audio"
	MediaBook  MediaType = "book"
	MediaManga MediaType = "manga"
)

// HTTPMethod is the verb a flow or script step issues.
type HTTPMethod string

const (
	MethodGet     HTTPMethod = "get"
	MethodPost    HTTPMethod = "post"
	MethodPut     HTTPMethod = "put"
	MethodDelete  HTTPMethod = "delete"
	MethodHead    HTTPMethod = "head"
	MethodOptions HTTPMethod = "options"
	MethodPatch   HTTPMethod = "patch"
)

// ScriptEngineName names one of the pluggable script backends a Script step
// may target. The contract (internal/script) is fixed regardless of which
// engine a host plugs in.
type ScriptEngineName string

const (
	EngineJavaScript ScriptEngineName = "javascript"
	EngineRhai       ScriptEngineName = "rhai"
	EngineLua        ScriptEngineName = "lua"
	EnginePython     ScriptEngineName = "python"
)

// DefaultScriptEngine is "javascript" per the documented default; the
// original distillation's source material defaults to "rhai", but the
// explicit, non-silent statement here wins (see SPEC_FULL.md).
const DefaultScriptEngine = EngineJavaScript

// CacheBackendKind names a concrete Cache collaborator implementation.
type CacheBackendKind string

const (
	CacheBackendMemory CacheBackendKind = "memory"
	CacheBackendSQLite CacheBackendKind = "sqlite"
)

// CacheScope names the lifetime a cached value is bound to.
type CacheScope string

const (
	CacheScopeFlow CacheScope = "flow"
	CacheScopeRule CacheScope = "rule"
)

// Meta carries a rule's identity.
type Meta struct {
	Name        string    `json:"name" jsonschema:"required"`
	Author      string    `json:"author" jsonschema:"required"`
	Version     string    `json:"version" jsonschema:"required"`
	MediaType   MediaType `json:"mediaType" jsonschema:"required"`
	Domain      string    `json:"domain" jsonschema:"required"`
	Encoding    string    `json:"encoding,omitempty"`
	IconURL     string    `json:"iconUrl,omitempty"`
	Description string    `json:"description,omitempty"`
	SpecVersion string    `json:"specVersion,omitempty"`
}

// Limits bounds the resources a single flow invocation may consume.
type Limits struct {
	MaxMemoryMB     int `json:"maxMemoryMb,omitempty"`
	MaxRecursion    int `json:"maxRecursion,omitempty"`
	MaxPipelineSecs int `json:"maxPipelineSeconds,omitempty"`
}

// ScriptingConfig lists the named script modules a rule's Script steps may
// reference, each resolved by the host's script engine.
type ScriptingConfig struct {
	Engine   ScriptEngineName        `json:"engine,omitempty"`
	Modules  map[string]ScriptModule `json:"modules,omitempty"`
	Security *ScriptSecurityConfig   `json:"security,omitempty"`
}

// ScriptSourceKind distinguishes inline script source from a fetchable URL.
type ScriptSourceKind string

const (
	ScriptSourceCode ScriptSourceKind = "code"
	ScriptSourceURL  ScriptSourceKind = "url"
)

// ScriptModule is one named unit of script source available to Script
// steps as "module.function". SourceKind defaults to ScriptSourceCode when
// empty, so existing rule documents that predate the url variant still
// parse unchanged.
type ScriptModule struct {
	SourceKind ScriptSourceKind `json:"sourceKind,omitempty"`
	Source     string           `json:"source" jsonschema:"required"`
}

// ScriptSecurityConfig bounds what a script invocation is permitted to do.
// Step-local configs merge over the rule/global config: any Some (non-zero)
// field on the more specific config wins; grant-style booleans OR together.
type ScriptSecurityConfig struct {
	MaxMemoryMB     *int  `json:"maxMemoryMb,omitempty"`
	AllowFileAccess *bool `json:"allowFileAccess,omitempty"`
	AllowNetwork    *bool `json:"allowNetwork,omitempty"`
	TimeoutSeconds  *int  `json:"timeoutSeconds,omitempty"`
}

const (
	DefaultScriptMaxMemoryMB    = 128
	DefaultScriptAllowFile      = false
	DefaultScriptAllowNetwork   = false
	DefaultScriptTimeoutSeconds = 30
)

// Merge returns a new config where every field set on override replaces the
// corresponding field of base, and boolean grant flags OR together.
func (base ScriptSecurityConfig) Merge(override ScriptSecurityConfig) ScriptSecurityConfig {
	out := base
	if override.MaxMemoryMB != nil {
		out.MaxMemoryMB = override.MaxMemoryMB
	}
	if override.TimeoutSeconds != nil {
		out.TimeoutSeconds = override.TimeoutSeconds
	}
	if override.AllowFileAccess != nil {
		v := deref(base.AllowFileAccess, DefaultScriptAllowFile) || *override.AllowFileAccess
		out.AllowFileAccess = &v
	}
	if override.AllowNetwork != nil {
		v := deref(base.AllowNetwork, DefaultScriptAllowNetwork) || *override.AllowNetwork
		out.AllowNetwork = &v
	}
	return out
}

// Resolved materializes the config with every default filled in.
func (c ScriptSecurityConfig) Resolved() (maxMemoryMB int, allowFile, allowNetwork bool, timeoutSeconds int) {
	return deref(c.MaxMemoryMB, DefaultScriptMaxMemoryMB),
		deref(c.AllowFileAccess, DefaultScriptAllowFile),
		deref(c.AllowNetwork, DefaultScriptAllowNetwork),
		deref(c.TimeoutSeconds, DefaultScriptTimeoutSeconds)
}

func deref[T any](p *T, fallback T) T {
	if p == nil {
		return fallback
	}
	return *p
}

// Component is a named, parameterised sub-pipeline callable from any other
// pipeline via UseComponent.
type Component struct {
	Description string         `json:"description,omitempty"`
	Inputs      map[string]any `json:"inputs,omitempty"` // name -> default JSON value
	Pipeline    []Step         `json:"pipeline" jsonschema:"required"`
}

// Rule is the root document aggregating flows, components, and site-level
// configuration.
type Rule struct {
	Meta       Meta                 `json:"meta" jsonschema:"required"`
	HTTP       *HTTPConfig          `json:"http,omitempty"`
	Limits     *Limits              `json:"limits,omitempty"`
	Scripting  *ScriptingConfig     `json:"scripting,omitempty"`
	Components map[string]Component `json:"components,omitempty"`
	Login      *Flow                `json:"login,omitempty"`
	List       *Flow                `json:"list,omitempty"`
	Detail     Flow                 `json:"detail" jsonschema:"required"`
	Search     Flow                 `json:"search" jsonschema:"required"`
}

// ParseRule decodes a JSON rule document.
func ParseRule(data []byte) (*Rule, error) {
	var r Rule
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, crawlerr.JSONParse(err.Error())
	}
	return &r, nil
}
