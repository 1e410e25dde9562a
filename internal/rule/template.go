package rule

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
)

// placeholderPattern matches `{{ identifier }}` with optional surrounding
// whitespace; the captured group must itself satisfy Identifier's syntax.
var placeholderPattern = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}`)

// Template is an opaque string carrying `{{ var }}` placeholders resolved
// against a Context at render time. The set of referenced identifiers is
// computed once, at parse time, so the validator can check them without
// re-scanning the raw string.
type Template struct {
	raw  string
	vars []string
}

// NewTemplate parses raw into a Template, recording every referenced
// identifier in order of first appearance.
func NewTemplate(raw string) Template {
	seen := map[string]bool{}
	var vars []string
	for _, m := range placeholderPattern.FindAllStringSubmatch(raw, -1) {
		name := m[1]
		if !seen[name] {
			seen[name] = true
			vars = append(vars, name)
		}
	}
	return Template{raw: raw, vars: vars}
}

// MarshalJSON renders the template back to its raw string form.
func (t Template) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.raw)
}

// UnmarshalJSON parses the template from its raw string form.
func (t *Template) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*t = NewTemplate(s)
	return nil
}

// Raw returns the unparsed template string.
func (t Template) Raw() string { return t.raw }

// Vars returns every identifier the template references, in first-seen
// order.
func (t Template) Vars() []string { return t.vars }

// Validate reports a *crawlerr.Error when the template is not parseable:
// unterminated "{{", or a referenced name that fails identifier syntax.
func (t Template) Validate() *crawlerr.Error {
	if strings.Count(t.raw, "{{") != strings.Count(t.raw, "}}") {
		return crawlerr.TemplateSyntax(fmt.Sprintf("unbalanced {{ }} in template %q", t.raw))
	}
	for _, v := range t.vars {
		if err := Identifier(v).Validate(); err != nil {
			return crawlerr.TemplateSyntax(fmt.Sprintf("invalid variable reference %q in template %q", v, t.raw))
		}
	}
	return nil
}

// Render substitutes every placeholder with vars[name] (stringified);
// an unresolved variable is an UndefinedVariable error, not a silent blank.
func (t Template) Render(vars map[string]any) (string, error) {
	var missing string
	out := placeholderPattern.ReplaceAllStringFunc(t.raw, func(m string) string {
		sub := placeholderPattern.FindStringSubmatch(m)
		name := sub[1]
		val, ok := vars[name]
		if !ok {
			missing = name
			return ""
		}
		return stringifyTemplateValue(val)
	})
	if missing != "" {
		return "", crawlerr.UndefinedVariable(missing)
	}
	return out, nil
}

// wholeVarPattern matches a template whose entire raw string is exactly one
// placeholder, with no surrounding literal text.
var wholeVarPattern = regexp.MustCompile(`^\{\{\s*([A-Za-z_][A-Za-z0-9_]*)\s*\}\}$`)

// ResolveValue returns the raw, typed value a single-placeholder template
// refers to (an array variable feeding LoopForEach, say) instead of a
// stringified render. A template that mixes literal text with placeholders,
// or has none at all, falls back to Render.
func (t Template) ResolveValue(vars map[string]any) (any, error) {
	if m := wholeVarPattern.FindStringSubmatch(t.raw); m != nil {
		val, ok := vars[m[1]]
		if !ok {
			return nil, crawlerr.UndefinedVariable(m[1])
		}
		return val, nil
	}
	return t.Render(vars)
}

func stringifyTemplateValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case fmt.Stringer:
		return t.String()
	default:
		return fmt.Sprintf("%v", t)
	}
}
