// Package flow implements the two engines that sit above internal/exec: the
// Field engine resolves one FieldExtractor's primary chain, ordered
// fallbacks, and default per §4.4, and the Flow engine (detail.go, search.go)
// renders a Flow's URL, fetches it, and walks its Fields union into one of
// the internal/model result structs per §4.5/§4.6.
package flow

import (
	"context"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/exec"
	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// ExtractField runs fe's primary chain, then falls back through fe.Fallback
// in order, then fe.Default, per this stack's own extract_field algorithm:
// a chain error always tries fallback/default; a chain that succeeds but
// yields an empty value tries them too unless fe.Nullable says an empty
// result is acceptable as-is.
func ExtractField(goctx context.Context, fe rule.FieldExtractor, input value.Value, ctx *flowctx.Context) (value.Value, error) {
	out, err := exec.RunPipeline(goctx, fe.Steps, input, ctx)
	if err == nil {
		if out.IsEmpty() && !fe.Nullable {
			if fb, ok := tryFallbacks(goctx, fe.Fallback, input, ctx); ok {
				return fb, nil
			}
			if fe.Default != nil {
				return value.FromJSON(fe.Default), nil
			}
			return value.Null, crawlerr.Extraction("field extraction returned empty value")
		}
		return out, nil
	}

	if fb, ok := tryFallbacks(goctx, fe.Fallback, input, ctx); ok {
		return fb, nil
	}
	if fe.Default != nil {
		return value.FromJSON(fe.Default), nil
	}
	return value.Null, err
}

// tryFallbacks runs each fallback chain in order, returning the first one
// that both succeeds and yields a non-empty value.
func tryFallbacks(goctx context.Context, fallback [][]rule.Step, input value.Value, ctx *flowctx.Context) (value.Value, bool) {
	for _, steps := range fallback {
		v, err := exec.RunPipeline(goctx, steps, input, ctx)
		if err == nil && !v.IsEmpty() {
			return v, true
		}
	}
	return value.Null, false
}

// extractOptionalField runs fe (which may be absent entirely) and returns
// its value with true, or Null with false when fe is absent, fails, or
// yields an empty value, for the common case of an optional scalar field
// a caller wants to leave unset rather than error on.
func extractOptionalField(goctx context.Context, fe *rule.FieldExtractor, input value.Value, ctx *flowctx.Context) (value.Value, bool) {
	if fe == nil {
		return value.Null, false
	}
	v, err := ExtractField(goctx, *fe, input, ctx)
	if err != nil || v.IsEmpty() {
		return value.Null, false
	}
	return v, true
}
