package exec

import (
	"encoding/json"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// stripHTMLPattern removes every tag; used by the strip_html filter.
var stripHTMLPattern = regexp.MustCompile(`<[^>]+>`)

// applyFilter dispatches a named pure function over input plus its
// arguments. trim/lower/upper/strip_html/replace/regex_replace/split/
// join/substring/to_int/to_string/absolute_url/url_encode/url_decode are
// ported from this stack's own filter set; to_float/to_bool/from_json/
// to_json have no prior implementation to port (the source material leaves
// them as a bare TODO) and are designed fresh here, following the same
// "type in, Extraction{message} on mismatch" shape as their siblings.
func applyFilter(f *rule.FilterCall, input value.Value) (value.Value, error) {
	args := f.Args

	switch f.Name {
	case "trim":
		s, ok := requireStr(input, "trim")
		if !ok {
			return value.Null, filterErr("trim")
		}
		return value.String(strings.TrimSpace(s)), nil

	case "lower":
		s, ok := requireStr(input, "lower")
		if !ok {
			return value.Null, filterErr("lower")
		}
		return value.String(strings.ToLower(s)), nil

	case "upper":
		s, ok := requireStr(input, "upper")
		if !ok {
			return value.Null, filterErr("upper")
		}
		return value.String(strings.ToUpper(s)), nil

	case "strip_html":
		s, ok := requireStr(input, "strip_html")
		if !ok {
			return value.Null, filterErr("strip_html")
		}
		return value.String(stripHTMLPattern.ReplaceAllString(s, "")), nil

	case "replace":
		s, ok := requireStr(input, "replace")
		if !ok {
			return value.Null, filterErr("replace")
		}
		from, ok1 := argStr(args, 0)
		to, ok2 := argStr(args, 1)
		if !ok1 || !ok2 {
			return value.Null, crawlerr.Extraction("replace filter requires 2 string arguments: from, to")
		}
		return value.String(strings.ReplaceAll(s, from, to)), nil

	case "regex_replace":
		s, ok := requireStr(input, "regex_replace")
		if !ok {
			return value.Null, filterErr("regex_replace")
		}
		pattern, ok1 := argStr(args, 0)
		replacement, ok2 := argStr(args, 1)
		if !ok1 || !ok2 {
			return value.Null, crawlerr.Extraction("regex_replace filter requires 2 string arguments: pattern, replacement")
		}
		re, err := regexp.Compile(pattern)
		if err != nil {
			return value.Null, crawlerr.Extraction("regex_replace filter: invalid pattern: %v", err)
		}
		return value.String(re.ReplaceAllString(s, replacement)), nil

	case "split":
		s, ok := requireStr(input, "split")
		if !ok {
			return value.Null, filterErr("split")
		}
		sep, ok := argStr(args, 0)
		if !ok {
			sep = " "
		}
		parts := strings.Split(s, sep)
		items := make([]value.Value, len(parts))
		for i, p := range parts {
			items[i] = value.String(p)
		}
		return value.Array(items), nil

	case "join":
		arr, ok := input.AsArraySlice()
		if !ok {
			return value.Null, crawlerr.Extraction("join filter requires array input")
		}
		sep, ok := argStr(args, 0)
		if !ok {
			sep = ""
		}
		parts := make([]string, 0, len(arr))
		for _, el := range arr {
			if s, ok := el.AsStr(); ok {
				parts = append(parts, s)
			}
		}
		return value.String(strings.Join(parts, sep)), nil

	case "substring":
		s, ok := requireStr(input, "substring")
		if !ok {
			return value.Null, filterErr("substring")
		}
		start, ok := argInt(args, 0)
		if !ok {
			start = 0
		}
		runes := []rune(s)
		if start < 0 {
			start = 0
		}
		if start > len(runes) {
			start = len(runes)
		}
		end := len(runes)
		if length, ok := argInt(args, 1); ok {
			if length < 0 {
				length = 0
			}
			if start+length < end {
				end = start + length
			}
		}
		return value.String(string(runes[start:end])), nil

	case "to_int":
		s, ok := requireStr(input, "to_int")
		if !ok {
			return value.Null, filterErr("to_int")
		}
		n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil {
			return value.Null, crawlerr.Extraction("to_int filter: failed to parse int: %v", err)
		}
		return value.JSON(float64(n)), nil

	case "to_string":
		return filterToString(input)

	case "to_float":
		return filterToFloat(input)

	case "to_bool":
		return filterToBool(input)

	case "from_json":
		return filterFromJSON(input)

	case "to_json":
		return filterToJSON(input)

	case "absolute_url":
		return filterAbsoluteURL(input, args)

	case "url_encode":
		s, ok := requireStr(input, "url_encode")
		if !ok {
			return value.Null, filterErr("url_encode")
		}
		return value.String(strings.ReplaceAll(url.QueryEscape(s), "+", "%20")), nil

	case "url_decode":
		s, ok := requireStr(input, "url_decode")
		if !ok {
			return value.Null, filterErr("url_decode")
		}
		decoded, err := url.QueryUnescape(s)
		if err != nil {
			return value.Null, crawlerr.Extraction("url_decode filter: failed to decode url: %v", err)
		}
		return value.String(decoded), nil

	default:
		return value.Null, crawlerr.Extraction("unknown filter %q", f.Name)
	}
}

func requireStr(v value.Value, _ string) (string, bool) { return v.AsStr() }

func filterErr(name string) *crawlerr.Error {
	return crawlerr.Extraction("%s filter requires string input", name)
}

func argStr(args []any, i int) (string, bool) {
	if i >= len(args) {
		return "", false
	}
	s, ok := args[i].(string)
	return s, ok
}

func argInt(args []any, i int) (int, bool) {
	if i >= len(args) {
		return 0, false
	}
	switch v := args[i].(type) {
	case float64:
		return int(v), true
	case int:
		return v, true
	default:
		return 0, false
	}
}

// filterToString converts any non-Array value to its string form: text
// passes through, JSON marshals, Null becomes "".
func filterToString(v value.Value) (value.Value, error) {
	switch v.Kind() {
	case value.KindString, value.KindHTML:
		s, _ := v.AsStr()
		return value.String(s), nil
	case value.KindJSON:
		doc, _ := v.AsJSONRef()
		b, err := json.Marshal(doc)
		if err != nil {
			return value.Null, crawlerr.Extraction("to_string filter: %v", err)
		}
		return value.String(string(b)), nil
	case value.KindNull:
		return value.String(""), nil
	default:
		return value.Null, crawlerr.Extraction("Cannot convert array to string")
	}
}

// filterToFloat parses a string, or passes a numeric JSON value through, as
// a float64-backed JSON value. No prior implementation existed to port.
func filterToFloat(v value.Value) (value.Value, error) {
	if v.Kind() == value.KindJSON {
		if doc, ok := v.AsJSONRef(); ok {
			if f, ok := doc.(float64); ok {
				return value.JSON(f), nil
			}
		}
	}
	s, ok := v.AsStr()
	if !ok {
		return value.Null, filterErr("to_float")
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return value.Null, crawlerr.Extraction("to_float filter: failed to parse float: %v", err)
	}
	return value.JSON(f), nil
}

// filterToBool accepts a JSON bool passthrough, or parses "true"/"false"
// (case-insensitive) from a string. No prior implementation existed to port.
func filterToBool(v value.Value) (value.Value, error) {
	if v.Kind() == value.KindJSON {
		if doc, ok := v.AsJSONRef(); ok {
			if b, ok := doc.(bool); ok {
				return value.JSON(b), nil
			}
		}
	}
	s, ok := v.AsStr()
	if !ok {
		return value.Null, filterErr("to_bool")
	}
	b, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return value.Null, crawlerr.Extraction("to_bool filter: failed to parse bool: %v", err)
	}
	return value.JSON(b), nil
}

// filterFromJSON parses a string value as a JSON document, preferring the
// same specific variant FromJSON does (string scalars become String, arrays
// become Array). No prior implementation existed to port.
func filterFromJSON(v value.Value) (value.Value, error) {
	s, ok := v.AsStr()
	if !ok {
		return value.Null, filterErr("from_json")
	}
	var doc any
	if err := json.Unmarshal([]byte(s), &doc); err != nil {
		return value.Null, crawlerr.Extraction("from_json filter: %v", err)
	}
	return value.FromJSON(doc), nil
}

// filterToJSON serializes any value back to its JSON text form. No prior
// implementation existed to port.
func filterToJSON(v value.Value) (value.Value, error) {
	b, err := json.Marshal(v.ToOwnedJSON())
	if err != nil {
		return value.Null, crawlerr.Extraction("to_json filter: %v", err)
	}
	return value.String(string(b)), nil
}

// filterAbsoluteURL resolves url to an absolute form against base (args[0]):
// already-absolute URLs pass through, a leading "/" resolves against the
// base's scheme+host, anything else is base-relative.
func filterAbsoluteURL(v value.Value, args []any) (value.Value, error) {
	u, ok := v.AsStr()
	if !ok {
		return value.Null, filterErr("absolute_url")
	}
	if strings.HasPrefix(u, "http://") || strings.HasPrefix(u, "https://") {
		return value.String(u), nil
	}

	base, ok := argStr(args, 0)
	if !ok {
		return value.Null, crawlerr.Extraction("absolute_url filter requires a base_url argument")
	}
	base = strings.TrimSuffix(base, "/")

	if strings.HasPrefix(u, "/") {
		if idx := strings.Index(base, "://"); idx >= 0 {
			rest := base[idx+3:]
			if pathStart := strings.Index(rest, "/"); pathStart >= 0 {
				return value.String(base[:idx+3+pathStart] + u), nil
			}
		}
		return value.String(base + u), nil
	}
	return value.String(base + "/" + u), nil
}
