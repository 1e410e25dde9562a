package flow

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/model"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// RunSearch seeds ctx's "query" variable, fetches r.Search's page, and
// extracts each Fields.Search item into a SearchItem, skipping any element
// missing a required id or title.
func RunSearch(goctx context.Context, r *rule.Rule, query string, ctx *flowctx.Context) ([]model.SearchItem, error) {
	goctx, cancel, mon, err := watchLimits(goctx, r)
	if err != nil {
		return nil, err
	}
	defer cancel()

	ctx.Set("query", query)
	html, err := fetchPage(goctx, r.Search, ctx)
	if err != nil {
		return nil, err
	}
	if verr := mon.Check(); verr != nil {
		return nil, verr
	}
	fields := r.Search.Fields.Search
	if fields == nil {
		return nil, crawlerr.InvalidFieldMapping("search.fields.search", "search")
	}
	return extractSearchItems(goctx, fields, html, ctx), nil
}

// RunList seeds ctx's "page" variable, fetches r.List's page, extracts each
// Fields.Search item, and resolves Pagination.NextURL (if configured)
// against the same page so a caller can decide whether to keep paging.
func RunList(goctx context.Context, r *rule.Rule, page int, ctx *flowctx.Context) ([]model.SearchItem, string, error) {
	if r.List == nil {
		return nil, "", crawlerr.Extraction("rule has no list flow configured")
	}
	goctx, cancel, mon, err := watchLimits(goctx, r)
	if err != nil {
		return nil, "", err
	}
	defer cancel()

	ctx.Set("page", page)
	html, err := fetchPage(goctx, *r.List, ctx)
	if err != nil {
		return nil, "", err
	}
	if verr := mon.Check(); verr != nil {
		return nil, "", verr
	}
	fields := r.List.Fields.Search
	if fields == nil {
		return nil, "", crawlerr.InvalidFieldMapping("list.fields.search", "search")
	}
	items := extractSearchItems(goctx, fields, html, ctx)

	nextURL := ""
	if r.List.Pagination != nil && r.List.Pagination.NextURL != nil {
		nextURL = extractOptionalString(goctx, r.List.Pagination.NextURL, html, ctx)
	}
	return items, nextURL, nil
}

func extractSearchItems(goctx context.Context, f *rule.SearchFields, html value.Value, ctx *flowctx.Context) []model.SearchItem {
	listVal, err := ExtractField(goctx, f.List, html, ctx)
	if err != nil {
		return nil
	}
	elements, ok := listVal.AsArraySlice()
	if !ok {
		return nil
	}

	items := make([]model.SearchItem, 0, len(elements))
	for _, el := range elements {
		id, err := extractRequiredString(goctx, f.ID, el, ctx, "id")
		if err != nil {
			continue
		}
		title, err := extractRequiredString(goctx, f.Title, el, ctx, "title")
		if err != nil {
			continue
		}
		items = append(items, model.SearchItem{
			ID:     id,
			Title:  title,
			Cover:  extractOptionalString(goctx, f.Cover, el, ctx),
			Author: extractOptionalString(goctx, f.Author, el, ctx),
			Raw:    rawOf(el),
		})
	}
	return items
}
