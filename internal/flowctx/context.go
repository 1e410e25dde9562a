// Package flowctx implements the variable/resource bag ("Context") threaded
// through a single flow invocation: the identifier -> JSON value table a Var
// step reads and a component or loop body writes into, plus handles onto the
// external collaborators (HTTP, Cache, Script, WebView) a step may call out
// to. A child scope (UseComponent, LoopForEach) inherits every handle but
// owns its own variable table, mirroring a lexical closure.
package flowctx

import (
	"context"
	"sync"

	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/script"
	"github.com/nickheyer/crawlkit/internal/webview"
)

// Response is the fetched-page view a flow needs: its decoded text body.
// *httpclient.Response satisfies this directly.
type Response interface {
	Text() (string, error)
}

// HTTP is the subset of httpclient.Client a step needs; a dedicated
// interface here keeps flowctx decoupled from the concrete transport so
// tests can stub it without building a real *httpclient.Client.
type HTTP interface {
	Get(ctx context.Context, rawURL string) (Response, error)
}

// Context is the resource bag passed to every step executor and to the
// field/flow engines. The zero value is not usable; build one with New.
type Context struct {
	mu   sync.RWMutex
	vars map[string]any

	rule    *rule.Rule
	http    HTTP
	cache   cachestore.Cache
	script  script.Engine
	webview webview.Provider
	baseURL string
	depth   int
}

// New builds a root Context for one flow invocation.
func New(r *rule.Rule, http HTTP, cache cachestore.Cache, scriptEngine script.Engine, webviewProvider webview.Provider, baseURL string) *Context {
	return &Context{
		vars:    map[string]any{},
		rule:    r,
		http:    http,
		cache:   cache,
		script:  scriptEngine,
		webview: webviewProvider,
		baseURL: baseURL,
	}
}

// Get reads a variable by name.
func (c *Context) Get(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.vars[name]
	return v, ok
}

// Set writes a variable by name, overwriting any existing value.
func (c *Context) Set(name string, v any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.vars[name] = v
}

// Snapshot returns a shallow copy of the variable table, suitable for
// Template.Render which takes ownership of a plain map.
func (c *Context) Snapshot() map[string]any {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]any, len(c.vars))
	for k, v := range c.vars {
		out[k] = v
	}
	return out
}

// Child creates a scope for a component call or loop iteration body: same
// collaborator handles and base URL, a fresh empty variable table, and a
// depth counter one deeper than the parent's. A non-nil error means the
// rule's configured recursion limit was exceeded and the child must not run.
func (c *Context) Child() (*Context, *crawlerr.Error) {
	depth := c.depth + 1
	if c.rule != nil && c.rule.Limits != nil && c.rule.Limits.MaxRecursion > 0 && depth > c.rule.Limits.MaxRecursion {
		return nil, crawlerr.RecursionLimitExceeded(int64(depth), int64(c.rule.Limits.MaxRecursion))
	}
	return &Context{
		vars:    map[string]any{},
		rule:    c.rule,
		http:    c.http,
		cache:   c.cache,
		script:  c.script,
		webview: c.webview,
		baseURL: c.baseURL,
		depth:   depth,
	}, nil
}

// Rule returns the document this Context was built from, used to look up
// components by name.
func (c *Context) Rule() *rule.Rule { return c.rule }

// HTTP returns the HTTP collaborator, or nil if none was configured.
func (c *Context) HTTP() HTTP { return c.http }

// Cache returns the Cache collaborator, or nil if none was configured.
func (c *Context) Cache() cachestore.Cache { return c.cache }

// Script returns the Script collaborator, or nil if none was configured.
func (c *Context) Script() script.Engine { return c.script }

// WebView returns the WebView collaborator, or nil if none was configured.
func (c *Context) WebView() webview.Provider { return c.webview }

// BaseURL returns the page or site URL absolute_url resolves relative links
// against.
func (c *Context) BaseURL() string { return c.baseURL }

// SetBaseURL updates the base URL, used when a flow navigates to a new page
// mid-pipeline (e.g. after following a detail link).
func (c *Context) SetBaseURL(u string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = u
}

// Depth reports how many component/loop scopes deep this Context is nested.
func (c *Context) Depth() int { return c.depth }
