package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/invopop/jsonschema"

	"github.com/nickheyer/crawlkit/internal/cachestore"
	"github.com/nickheyer/crawlkit/internal/flow"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/httpclient"
	"github.com/nickheyer/crawlkit/internal/rule"
)

// httpGetter satisfies flowctx.HTTP by wrapping a concrete *httpclient.Client,
// whose Get returns the concrete *httpclient.Response rather than the
// flowctx.Response interface flowctx.HTTP declares.
type httpGetter struct{ client *httpclient.Client }

func (g httpGetter) Get(ctx context.Context, rawURL string) (flowctx.Response, error) {
	return g.client.Get(ctx, rawURL)
}

// handlers bundles the per-request cache backend factory the router was
// built with, so /run can honor a host's configured cachestore rather than
// always defaulting to an in-memory one.
type handlers struct {
	newCache func() cachestore.Cache
}

// schema returns the JSON Schema for a rule document, generated the same
// way `cmd/crawlkit generate-schema` does, for clients that want to
// validate or build a rule-authoring UI against it.
func (h *handlers) schema(c *gin.Context) {
	reflector := &jsonschema.Reflector{}
	schema := reflector.Reflect(&rule.Rule{})
	successResponse(c, http.StatusOK, schema)
}

// validate decodes a rule document from the request body and runs its
// pre-execution validator, returning every collected error rather than
// stopping at the first.
func (h *handlers) validate(c *gin.Context) {
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "failed to read request body")
		return
	}
	r, perr := rule.ParseRule(body)
	if perr != nil {
		errorResponse(c, http.StatusBadRequest, perr.Error())
		return
	}
	if verr := r.Validate(); verr != nil {
		successResponse(c, http.StatusOK, gin.H{"valid": false, "errors": verr})
		return
	}
	successResponse(c, http.StatusOK, gin.H{"valid": true})
}

// runRequest is the body POST /run accepts: a rule document plus which
// flow to execute and the request-specific variable that flow needs.
type runRequest struct {
	Rule      json.RawMessage `json:"rule"`
	Flow      string          `json:"flow"` // "detail" | "search" | "list" | "login"
	DetailURL string          `json:"detailUrl,omitempty"`
	Query     string          `json:"query,omitempty"`
	Page      int             `json:"page,omitempty"`
}

// run validates the rule, builds a fresh Context and HTTP client per its own
// rule.HTTPConfig, and executes the requested flow once.
func (h *handlers) run(c *gin.Context) {
	var req runRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	r, perr := rule.ParseRule(req.Rule)
	if perr != nil {
		errorResponse(c, http.StatusBadRequest, perr.Error())
		return
	}
	if verr := r.Validate(); verr != nil {
		errorResponse(c, http.StatusUnprocessableEntity, verr.Error())
		return
	}

	client, err := httpclient.New(r.HTTP)
	if err != nil {
		errorResponse(c, http.StatusInternalServerError, err.Error())
		return
	}
	ctx := flowctx.New(r, httpGetter{client}, h.newCache(), nil, nil, "")

	goctx := c.Request.Context()
	switch req.Flow {
	case "detail":
		result, ferr := flow.RunDetail(goctx, r, req.DetailURL, ctx)
		if ferr != nil {
			errorResponse(c, http.StatusUnprocessableEntity, ferr.Error())
			return
		}
		successResponse(c, http.StatusOK, result)

	case "search":
		items, ferr := flow.RunSearch(goctx, r, req.Query, ctx)
		if ferr != nil {
			errorResponse(c, http.StatusUnprocessableEntity, ferr.Error())
			return
		}
		successResponse(c, http.StatusOK, items)

	case "list":
		items, nextURL, ferr := flow.RunList(goctx, r, req.Page, ctx)
		if ferr != nil {
			errorResponse(c, http.StatusUnprocessableEntity, ferr.Error())
			return
		}
		successResponse(c, http.StatusOK, gin.H{"items": items, "nextUrl": nextURL})

	case "login":
		if ferr := flow.RunLogin(goctx, r, ctx); ferr != nil {
			errorResponse(c, http.StatusUnprocessableEntity, ferr.Error())
			return
		}
		successResponse(c, http.StatusOK, gin.H{"loggedIn": true})

	default:
		errorResponse(c, http.StatusBadRequest, "flow must be one of detail, search, list, login")
	}
}
