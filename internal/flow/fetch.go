package flow

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/limits"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

func fieldEmptyErr(fieldName string) *crawlerr.Error {
	return crawlerr.Extraction("unable to extract required field %q", fieldName)
}

// watchLimits derives a goctx bounded by r.Limits' wall-clock deadline (if
// any) and returns a Monitor a Run* function re-checks after each page
// fetch, so a flow that blows its memory or time ceiling fails with
// ResourceLimitExceeded/ExecutionTimeout instead of running unbounded.
func watchLimits(goctx context.Context, r *rule.Rule) (context.Context, context.CancelFunc, *limits.Monitor, error) {
	mon, err := limits.New(r.Limits)
	if err != nil {
		return nil, nil, nil, err
	}
	boundCtx, cancel := mon.WatchContext(goctx)
	return boundCtx, cancel, mon, nil
}

// fetchPage renders f.URLTemplate against ctx's current variable table,
// issues the GET through ctx.HTTP(), and returns the body wrapped as an
// Html value with ctx's base URL updated to the page just fetched — the
// input every field extractor in the flow's Fields union runs against.
func fetchPage(goctx context.Context, f rule.Flow, ctx *flowctx.Context) (value.Value, error) {
	rawURL, err := f.URLTemplate.Render(ctx.Snapshot())
	if err != nil {
		return value.Null, err
	}
	http := ctx.HTTP()
	if http == nil {
		return value.Null, crawlerr.Extraction("flow requires a configured HTTP collaborator")
	}
	resp, err := http.Get(goctx, rawURL)
	if err != nil {
		return value.Null, crawlerr.HTTPRequest(err.Error())
	}
	text, err := resp.Text()
	if err != nil {
		return value.Null, crawlerr.HTTPRequest(err.Error())
	}
	ctx.SetBaseURL(rawURL)

	// Filters carry no output name of their own (§ schema), so they do not
	// populate a named result field. Each chain runs once here against the
	// page, before the field union; its result is discarded and a chain
	// failing is not fatal to the flow. A nested use_component or
	// loop_for_each step writes only into its own child scope, so nothing a
	// filter chain does is visible to the fields that follow.
	for _, fe := range f.Filters {
		_, _ = ExtractField(goctx, fe, value.HTML(text), ctx)
	}

	return value.HTML(text), nil
}
