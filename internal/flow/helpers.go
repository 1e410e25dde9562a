package flow

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/model"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// extractRequiredString runs fe and trims the result, rejecting a chain
// that resolves to empty or non-string output, mirroring this stack's own
// extract_string helper used for every required detail field.
func extractRequiredString(goctx context.Context, fe rule.FieldExtractor, input value.Value, ctx *flowctx.Context, fieldName string) (string, error) {
	v, err := ExtractField(goctx, fe, input, ctx)
	if err != nil {
		return "", err
	}
	s, _ := v.AsStr()
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fieldEmptyErr(fieldName)
	}
	return s, nil
}

// extractOptionalString mirrors extractRequiredString but swallows a
// missing/empty result into "" instead of erroring, for fields the result
// struct carries as an omitempty string.
func extractOptionalString(goctx context.Context, fe *rule.FieldExtractor, input value.Value, ctx *flowctx.Context) string {
	v, ok := extractOptionalField(goctx, fe, input, ctx)
	if !ok {
		return ""
	}
	s, _ := v.AsStr()
	return strings.TrimSpace(s)
}

// listEntry is the shared shape ListFields resolves one array element into,
// before a caller maps it onto the media-kind-specific model type
// (ChapterItem/TrackItem/EpisodeItem all share this layout).
type listEntry struct {
	Title string
	URL   string
	Index int
	Raw   json.RawMessage
}

// extractListEntries runs lf.List to get the element array, then Title/URL
// (required) and Index (optional) against each element, skipping any
// element missing a required leaf rather than failing the whole list. This
// generalizes this stack's own chapters-extraction pattern to every
// composite list field (chapters/tracks/episodes).
func extractListEntries(goctx context.Context, lf *rule.ListFields, input value.Value, ctx *flowctx.Context) []listEntry {
	if lf == nil {
		return nil
	}
	listVal, err := ExtractField(goctx, lf.List, input, ctx)
	if err != nil {
		return nil
	}
	items, ok := listVal.AsArraySlice()
	if !ok {
		return nil
	}

	entries := make([]listEntry, 0, len(items))
	for i, item := range items {
		title, err := extractRequiredString(goctx, lf.Title, item, ctx, "title")
		if err != nil {
			continue
		}
		url, err := extractRequiredString(goctx, lf.URL, item, ctx, "url")
		if err != nil {
			continue
		}
		idx := i
		if lf.Index != nil {
			if v, ok := extractOptionalField(goctx, lf.Index, item, ctx); ok {
				if n, ok := asInt(v); ok {
					idx = n
				}
			}
		}
		entries = append(entries, listEntry{Title: title, URL: url, Index: idx, Raw: rawOf(item)})
	}
	return entries
}

// extractPlayLines runs pf.List for the named-line array, then pf.Name
// (required) per line and pf.Episodes as a nested listEntry extraction one
// level deeper, skipping any line missing its name.
func extractPlayLines(goctx context.Context, pf *rule.PlayLineFields, input value.Value, ctx *flowctx.Context) []model.PlayLine {
	if pf == nil {
		return nil
	}
	listVal, err := ExtractField(goctx, pf.List, input, ctx)
	if err != nil {
		return nil
	}
	items, ok := listVal.AsArraySlice()
	if !ok {
		return nil
	}

	lines := make([]model.PlayLine, 0, len(items))
	for _, item := range items {
		name, err := extractRequiredString(goctx, pf.Name, item, ctx, "name")
		if err != nil {
			continue
		}
		episodes := toEpisodeItems(extractListEntries(goctx, &pf.Episodes, item, ctx))
		lines = append(lines, model.PlayLine{Name: name, Episodes: episodes, Raw: rawOf(item)})
	}
	return lines
}

func toChapterItems(entries []listEntry) []model.ChapterItem {
	out := make([]model.ChapterItem, len(entries))
	for i, e := range entries {
		out[i] = model.ChapterItem{Title: e.Title, URL: e.URL, Index: e.Index, Raw: e.Raw}
	}
	return out
}

func toTrackItems(entries []listEntry) []model.TrackItem {
	out := make([]model.TrackItem, len(entries))
	for i, e := range entries {
		out[i] = model.TrackItem{Title: e.Title, URL: e.URL, Index: e.Index, Raw: e.Raw}
	}
	return out
}

func toEpisodeItems(entries []listEntry) []model.EpisodeItem {
	out := make([]model.EpisodeItem, len(entries))
	for i, e := range entries {
		out[i] = model.EpisodeItem{Title: e.Title, URL: e.URL, Index: e.Index, Raw: e.Raw}
	}
	return out
}

func asInt(v value.Value) (int, bool) {
	doc, ok := v.AsJSONRef()
	if !ok {
		return 0, false
	}
	switch n := doc.(type) {
	case float64:
		return int(n), true
	case int:
		return n, true
	}
	return 0, false
}

func rawOf(v value.Value) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return nil
	}
	return b
}
