package exec

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// execCss parses input as HTML and returns an Array of the outer HTML of
// every element matching selector, in document order. No source executor
// for this step was carried forward from the original distillation; this
// follows the contract of §4.3 directly, built on goquery/cascadia the way
// the rest of this stack parses and queries HTML fragments.
func execCss(selector string, input value.Value) (value.Value, error) {
	html, ok := input.AsStr()
	if !ok {
		return value.Null, crawlerr.Extraction("css step requires html input")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return value.Null, crawlerr.Extraction("css: parse html: %v", err)
	}
	sel := doc.Find(selector)
	items := make([]value.Value, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		if outer, err := goquery.OuterHtml(s); err == nil {
			items = append(items, value.HTML(outer))
		}
	})
	return value.Array(items), nil
}

// jsonPathToken matches one segment of a minimal dotted/bracket JSON path:
// a field name or a bracketed integer index. This is deliberately not a
// full JSONPath implementation (no wildcards, no filter expressions) since
// the contract only calls for field and index access.
var jsonPathToken = regexp.MustCompile(`[A-Za-z_][A-Za-z0-9_]*|\[\d+\]`)

// execJSON evaluates a minimal JSONPath-like expression against input and
// returns an Array: the resolved node's elements if it is itself a JSON
// array, otherwise a single-element Array wrapping it (per §4.3, "returns
// an Array, even for single hits, unless the selector declares single"). When
// single is set, the resolved node is handed to value.FromJSON as-is instead
// of being force-wrapped, so a scalar hit comes back as a scalar Value.
func execJSON(path string, single bool, input value.Value) (value.Value, error) {
	var doc any
	switch input.Kind() {
	case value.KindJSON:
		doc, _ = input.AsJSONRef()
	case value.KindString, value.KindHTML:
		s, _ := input.AsStr()
		if err := json.Unmarshal([]byte(s), &doc); err != nil {
			return value.Null, crawlerr.Extraction("json step: invalid json input: %v", err)
		}
	case value.KindArray:
		doc = input.ToOwnedJSON()
	default:
		return value.Null, crawlerr.Extraction("json step requires json, string, or array input")
	}

	node, err := walkJSONPath(doc, path)
	if err != nil {
		return value.Null, err
	}
	if single {
		return value.FromJSON(node), nil
	}
	if arr, ok := node.([]any); ok {
		items := make([]value.Value, len(arr))
		for i, e := range arr {
			items[i] = value.FromJSON(e)
		}
		return value.Array(items), nil
	}
	return value.Array([]value.Value{value.FromJSON(node)}), nil
}

func walkJSONPath(doc any, path string) (any, error) {
	cur := doc
	for _, tok := range jsonPathToken.FindAllString(path, -1) {
		if strings.HasPrefix(tok, "[") {
			idx, _ := strconv.Atoi(tok[1 : len(tok)-1])
			arr, ok := cur.([]any)
			if !ok || idx < 0 || idx >= len(arr) {
				return nil, crawlerr.Extraction("json step: index %d out of bounds in path %q", idx, path)
			}
			cur = arr[idx]
			continue
		}
		obj, ok := cur.(map[string]any)
		if !ok {
			return nil, crawlerr.Extraction("json step: field %q not found in path %q", tok, path)
		}
		v, exists := obj[tok]
		if !exists {
			return nil, crawlerr.Extraction("json step: field %q not found in path %q", tok, path)
		}
		cur = v
	}
	return cur, nil
}

// execRegex returns the list of first-capture-group matches (or full
// matches when the pattern has no group); an empty Array on no match.
func execRegex(pattern string, input value.Value) (value.Value, error) {
	s, ok := input.AsStr()
	if !ok {
		return value.Null, crawlerr.Extraction("regex step requires string input")
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return value.Null, crawlerr.Extraction("regex step: invalid pattern: %v", err)
	}
	matches := re.FindAllStringSubmatch(s, -1)
	items := make([]value.Value, 0, len(matches))
	for _, m := range matches {
		if len(m) > 1 {
			items = append(items, value.String(m[1]))
		} else {
			items = append(items, value.String(m[0]))
		}
	}
	return value.Array(items), nil
}

// execAttr reads a named attribute from an Html snippet, or from every
// snippet in an Array, returning a String or Array<String> respectively.
func execAttr(name string, input value.Value) (value.Value, error) {
	if arr, ok := input.AsArraySlice(); ok {
		items := make([]value.Value, len(arr))
		for i, el := range arr {
			v, err := attrFromSnippet(name, el)
			if err != nil {
				return value.Null, err
			}
			items[i] = v
		}
		return value.Array(items), nil
	}
	return attrFromSnippet(name, input)
}

func attrFromSnippet(name string, v value.Value) (value.Value, error) {
	html, ok := v.AsStr()
	if !ok {
		return value.Null, crawlerr.Extraction("attr step requires html input")
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return value.Null, crawlerr.Extraction("attr: parse html: %v", err)
	}
	el := doc.Find("body").Children().First()
	if el.Length() == 0 {
		el = doc.Selection
	}
	val, exists := el.Attr(name)
	if !exists {
		return value.Null, nil
	}
	return value.String(val), nil
}

// execIndex selects a single element (negative indices count from the end)
// or a sub-range from an Array. Out-of-bounds single-index selection
// yields Null rather than an error, matching the nullable-friendly
// contract; a range clamps to the array's bounds instead.
func execIndex(spec *rule.IndexSpec, input value.Value) (value.Value, error) {
	arr, ok := input.AsArraySlice()
	if !ok {
		return value.Null, crawlerr.Extraction("index step requires array input")
	}
	n := len(arr)

	if spec.Single != nil {
		idx := *spec.Single
		if idx < 0 {
			idx += n
		}
		if idx < 0 || idx >= n {
			return value.Null, nil
		}
		return arr[idx], nil
	}

	start := 0
	if spec.Start != nil {
		start = *spec.Start
		if start < 0 {
			start += n
		}
	}
	end := n
	if spec.End != nil {
		end = *spec.End
		if end < 0 {
			end += n
		}
	}
	step := 1
	if spec.Step != nil && *spec.Step != 0 {
		step = *spec.Step
	}
	if start < 0 {
		start = 0
	}
	if end > n {
		end = n
	}

	var out []value.Value
	if step > 0 {
		for i := start; i < end; i += step {
			out = append(out, arr[i])
		}
	} else {
		if start > n-1 {
			start = n - 1
		}
		if end < -1 {
			end = -1
		}
		for i := start; i > end; i += step {
			out = append(out, arr[i])
		}
	}
	return value.Array(out), nil
}
