package flow

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
)

// stubHTTP serves a fixed body for every URL requested, recording the URLs
// it was asked for.
type stubHTTP struct {
	body      string
	requested []string
}

type stubResponse struct{ body string }

func (r stubResponse) Text() (string, error) { return r.body, nil }

func (s *stubHTTP) Get(_ context.Context, rawURL string) (flowctx.Response, error) {
	s.requested = append(s.requested, rawURL)
	return stubResponse{body: s.body}, nil
}

func testCtx(t *testing.T, r *rule.Rule, http flowctx.HTTP) *flowctx.Context {
	t.Helper()
	return flowctx.New(r, http, nil, nil, nil, "https://site/")
}

func mustIdx(i int) *rule.IndexSpec { return &rule.IndexSpec{Single: &i} }

func TestExtractFieldFallbackAndDefault(t *testing.T) {
	ctx := testCtx(t, nil, nil)
	input := value.HTML(`<div></div>`)

	fe := rule.FieldExtractor{
		Steps: []rule.Step{{Kind: rule.StepCss, Css: ".missing"}, {Kind: rule.StepIndex, Index: mustIdx(0)}},
		Fallback: [][]rule.Step{
			{{Kind: rule.StepCss, Css: ".also-missing"}, {Kind: rule.StepIndex, Index: mustIdx(0)}},
			{{Kind: rule.StepConst, Const: "unknown"}},
		},
	}

	out, err := ExtractField(context.Background(), fe, input, ctx)
	require.NoError(t, err)
	s, ok := out.AsStr()
	require.True(t, ok)
	assert.Equal(t, "unknown", s)
}

func TestExtractFieldNullableSkipsFallbackOnlyOnEmptySuccess(t *testing.T) {
	ctx := testCtx(t, nil, nil)
	input := value.HTML(`<div></div>`)

	fe := rule.FieldExtractor{
		Steps:    []rule.Step{{Kind: rule.StepCss, Css: ".missing"}, {Kind: rule.StepIndex, Index: mustIdx(0)}},
		Fallback: [][]rule.Step{{{Kind: rule.StepConst, Const: "should-not-run"}}},
		Nullable: true,
	}

	out, err := ExtractField(context.Background(), fe, input, ctx)
	require.NoError(t, err)
	assert.Equal(t, value.KindNull, out.Kind())
}

func TestExtractFieldErrorPathAlwaysTriesFallback(t *testing.T) {
	ctx := testCtx(t, nil, nil)
	input := value.JSON(nil)

	fe := rule.FieldExtractor{
		Steps:    []rule.Step{{Kind: rule.StepVar, Var: "undefined"}},
		Fallback: [][]rule.Step{{{Kind: rule.StepConst, Const: "rescued"}}},
		Nullable: true,
	}

	out, err := ExtractField(context.Background(), fe, input, ctx)
	require.NoError(t, err, "nullable does not suppress fallback on the error path")
	s, _ := out.AsStr()
	assert.Equal(t, "rescued", s)
}

func cssField(sel string, filters ...string) rule.FieldExtractor {
	steps := []rule.Step{
		{Kind: rule.StepCss, Css: sel},
		{Kind: rule.StepIndex, Index: mustIdx(0)},
	}
	for _, f := range filters {
		steps = append(steps, rule.Step{Kind: rule.StepFilter, Filter: &rule.FilterCall{Name: f}})
	}
	return rule.FieldExtractor{Steps: steps}
}

func attrField(sel, attr string) rule.FieldExtractor {
	return rule.FieldExtractor{Steps: []rule.Step{
		{Kind: rule.StepCss, Css: sel},
		{Kind: rule.StepIndex, Index: mustIdx(0)},
		{Kind: rule.StepAttr, Attr: attr},
		{Kind: rule.StepFilter, Filter: &rule.FilterCall{Name: "absolute_url", Args: []any{"https://site/"}}},
	}}
}

const bookFixture = `
<html><body>
  <div class="t">  My Book  </div>
  <div class="a">  Jane Author  </div>
  <img class="cover" src="/covers/x.jpg">
  <div class="chap"><a href="/b/1/c/1">Chapter <b>One</b></a></div>
  <div class="chap"><a href="/b/1/c/2">Chapter Two</a></div>
</body></html>`

func TestRunDetailBookEndToEnd(t *testing.T) {
	r := &rule.Rule{
		Meta: rule.Meta{MediaType: rule.MediaBook},
		Detail: rule.Flow{
			URLTemplate: rule.NewTemplate("https://site/b/{{ detail_url }}"),
			Fields: rule.Fields{
				Book: &rule.BookFields{
					Title:  cssField(".t", "strip_html", "trim"),
					Author: cssField(".a", "strip_html", "trim"),
					Cover:  ptrFE(attrField("img.cover", "src")),
					Chapters: &rule.ListFields{
						List:  rule.FieldExtractor{Steps: []rule.Step{{Kind: rule.StepCss, Css: ".chap"}}},
						Title: cssField("a", "strip_html", "trim"),
						URL:   attrField("a", "href"),
					},
				},
			},
		},
	}

	http := &stubHTTP{body: bookFixture}
	ctx := testCtx(t, r, http)

	result, err := RunDetail(context.Background(), r, "42", ctx)
	require.NoError(t, err)
	require.NotNil(t, result.Book)

	assert.Equal(t, "My Book", result.Book.Title)
	assert.Equal(t, "Jane Author", result.Book.Author)
	assert.Equal(t, "https://site/covers/x.jpg", result.Book.Cover)
	require.Len(t, result.Book.Chapters, 2)
	assert.Equal(t, "Chapter One", result.Book.Chapters[0].Title)
	assert.Equal(t, "https://site/b/1/c/1", result.Book.Chapters[0].URL)
	assert.Equal(t, "Chapter Two", result.Book.Chapters[1].Title)
	assert.Equal(t, "https://site/b/1/c/2", result.Book.Chapters[1].URL)

	require.Len(t, http.requested, 1)
	assert.Equal(t, "https://site/b/42", http.requested[0])
}

func TestRunDetailRequiredFieldMissingErrors(t *testing.T) {
	r := &rule.Rule{
		Meta: rule.Meta{MediaType: rule.MediaBook},
		Detail: rule.Flow{
			URLTemplate: rule.NewTemplate("https://site/b/{{ detail_url }}"),
			Fields: rule.Fields{
				Book: &rule.BookFields{
					Title:  cssField(".missing"),
					Author: cssField(".a"),
				},
			},
		},
	}
	ctx := testCtx(t, r, &stubHTTP{body: bookFixture})

	_, err := RunDetail(context.Background(), r, "1", ctx)
	require.Error(t, err)
}

func ptrFE(fe rule.FieldExtractor) *rule.FieldExtractor { return &fe }
