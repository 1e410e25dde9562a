package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickheyer/crawlkit/internal/flowctx"
	"github.com/nickheyer/crawlkit/internal/rule"
	"github.com/nickheyer/crawlkit/internal/value"
	"github.com/nickheyer/crawlkit/internal/webview"
)

func testCtx(t *testing.T, r *rule.Rule) *flowctx.Context {
	t.Helper()
	return flowctx.New(r, nil, nil, nil, nil, "https://ex.com/")
}

func mustIndex(i int) *rule.IndexSpec { return &rule.IndexSpec{Single: &i} }

func TestCssThenTrimFilter(t *testing.T) {
	ctx := testCtx(t, nil)
	input := value.HTML(`<div class="t">  Hello World  </div>`)

	out, err := RunPipeline(context.Background(), []rule.Step{
		{Kind: rule.StepCss, Css: ".t"},
		{Kind: rule.StepIndex, Index: mustIndex(0)},
		{Kind: rule.StepFilter, Filter: &rule.FilterCall{Name: "strip_html"}},
		{Kind: rule.StepFilter, Filter: &rule.FilterCall{Name: "trim"}},
	}, input, ctx)
	require.NoError(t, err)
	s, ok := out.AsStr()
	require.True(t, ok)
	assert.Equal(t, "Hello World", s)
}

func TestJsonStepWrapsScalarInArrayByDefault(t *testing.T) {
	ctx := testCtx(t, nil)
	input := value.JSON(map[string]any{"title": "hello"})

	out, err := Execute(context.Background(), rule.Step{Kind: rule.StepJSON, Json: "title"}, input, ctx)
	require.NoError(t, err)
	items, ok := out.AsArraySlice()
	require.True(t, ok)
	require.Len(t, items, 1)
	s, _ := items[0].AsStr()
	assert.Equal(t, "hello", s)
}

func TestJsonStepSingleReturnsScalarDirectly(t *testing.T) {
	ctx := testCtx(t, nil)
	input := value.JSON(map[string]any{"title": "hello"})

	out, err := Execute(context.Background(), rule.Step{Kind: rule.StepJSON, Json: "title", JsonSingle: true}, input, ctx)
	require.NoError(t, err)
	s, ok := out.AsStr()
	require.True(t, ok)
	assert.Equal(t, "hello", s)
}

func TestFallbackAndDefault(t *testing.T) {
	ctx := testCtx(t, nil)
	input := value.HTML(`<div></div>`)

	primary := []rule.Step{{Kind: rule.StepCss, Css: ".missing"}, {Kind: rule.StepIndex, Index: mustIndex(0)}}
	_, err := RunPipeline(context.Background(), primary, input, ctx)
	require.NoError(t, err, "css miss yields empty Array + Null index, not an error")

	fallback1 := []rule.Step{{Kind: rule.StepCss, Css: ".also-missing"}, {Kind: rule.StepIndex, Index: mustIndex(0)}}
	out1, _ := RunPipeline(context.Background(), fallback1, input, ctx)
	assert.True(t, out1.Kind() == value.KindNull)

	fallback2 := []rule.Step{{Kind: rule.StepConst, Const: "unknown"}}
	out2, err := RunPipeline(context.Background(), fallback2, input, ctx)
	require.NoError(t, err)
	s, _ := out2.AsStr()
	assert.Equal(t, "unknown", s)
}

func TestMapDropsFailingElements(t *testing.T) {
	ctx := testCtx(t, nil)
	input := value.Array([]value.Value{
		value.HTML(`<a href="/a">x</a>`),
		value.HTML(`<span></span>`),
		value.HTML(`<a href="/b">y</a>`),
	})

	base := "https://ex.com/"
	out, err := Execute(context.Background(), rule.Step{
		Kind: rule.StepMap,
		Map: []rule.Step{
			{Kind: rule.StepCss, Css: "a"},
			{Kind: rule.StepIndex, Index: mustIndex(0)},
			{Kind: rule.StepAttr, Attr: "href"},
			{Kind: rule.StepFilter, Filter: &rule.FilterCall{Name: "absolute_url", Args: []any{base}}},
		},
	}, input, ctx)
	require.NoError(t, err)

	arr, ok := out.AsArraySlice()
	require.True(t, ok)
	require.Len(t, arr, 2)
	s0, _ := arr[0].AsStr()
	s1, _ := arr[1].AsStr()
	assert.Equal(t, "https://ex.com/a", s0)
	assert.Equal(t, "https://ex.com/b", s1)
}

func TestConditionFalsy(t *testing.T) {
	ctx := testCtx(t, nil)
	input := value.JSON(nil)

	out, err := Execute(context.Background(), rule.Step{
		Kind: rule.StepCondition,
		Condition: &rule.ConditionSpec{
			When:      []rule.Step{{Kind: rule.StepConst, Const: false}},
			Then:      []rule.Step{{Kind: rule.StepConst, Const: "yes"}},
			Otherwise: []rule.Step{{Kind: rule.StepConst, Const: "no"}},
		},
	}, input, ctx)
	require.NoError(t, err)
	s, _ := out.AsStr()
	assert.Equal(t, "no", s)
}

func TestUseComponentWithOverridesInputDefault(t *testing.T) {
	r := &rule.Rule{
		Components: map[string]rule.Component{
			"greet": {
				Inputs:   map[string]any{"name": "world"},
				Pipeline: []rule.Step{{Kind: rule.StepVar, Var: "name"}},
			},
		},
	}
	ctx := testCtx(t, r)

	out, err := Execute(context.Background(), rule.Step{
		Kind:         rule.StepUseComponent,
		UseComponent: &rule.ComponentRef{Component: "greet", With: map[string]any{"name": "there"}},
	}, value.Null, ctx)
	require.NoError(t, err)
	s, _ := out.AsStr()
	assert.Equal(t, "there", s)
}

func TestUseComponentUndefined(t *testing.T) {
	r := &rule.Rule{}
	ctx := testCtx(t, r)

	_, err := Execute(context.Background(), rule.Step{
		Kind:         rule.StepUseComponent,
		UseComponent: &rule.ComponentRef{Component: "missing"},
	}, value.Null, ctx)
	require.Error(t, err)
}

func TestIndexNegativeAndOutOfBounds(t *testing.T) {
	ctx := testCtx(t, nil)
	arr := value.Array([]value.Value{value.String("a"), value.String("b"), value.String("c")})

	last := -1
	out, err := Execute(context.Background(), rule.Step{Kind: rule.StepIndex, Index: &rule.IndexSpec{Single: &last}}, arr, ctx)
	require.NoError(t, err)
	s, _ := out.AsStr()
	assert.Equal(t, "c", s)

	oob := 99
	out2, err := Execute(context.Background(), rule.Step{Kind: rule.StepIndex, Index: &rule.IndexSpec{Single: &oob}}, arr, ctx)
	require.NoError(t, err)
	assert.Equal(t, value.KindNull, out2.Kind())
}

func TestXpathWithoutWebViewErrors(t *testing.T) {
	ctx := testCtx(t, nil)
	_, err := Execute(context.Background(), rule.Step{Kind: rule.StepXpath, Xpath: "//a"}, value.HTML("<a>hi</a>"), ctx)
	require.Error(t, err)
}

func TestXpathEvaluatesThroughWebView(t *testing.T) {
	ctx := flowctx.New(nil, nil, nil, nil, fakeWebView{
		result: []any{"<a href=\"/x\">hi</a>"},
	}, "https://ex.com/")

	out, err := Execute(context.Background(), rule.Step{Kind: rule.StepXpath, Xpath: "//a"}, value.HTML(`<a href="/x">hi</a>`), ctx)
	require.NoError(t, err)
	items, ok := out.AsArraySlice()
	require.True(t, ok)
	require.Len(t, items, 1)
	s, _ := items[0].AsStr()
	assert.Equal(t, `<a href="/x">hi</a>`, s)
}

// fakeWebView satisfies webview.Provider for tests that exercise the xpath
// step's DOM-evaluation path without a real browser.
type fakeWebView struct{ result []any }

func (f fakeWebView) Render(_ context.Context, _ webview.Request) (webview.Response, error) {
	return webview.Response{Success: true, ScriptResult: f.result}, nil
}

func TestVarMissingErrors(t *testing.T) {
	ctx := testCtx(t, nil)
	_, err := Execute(context.Background(), rule.Step{Kind: rule.StepVar, Var: "nope"}, value.Null, ctx)
	require.Error(t, err)
}

func TestLoopForEachResolvesWholeVariableTemplate(t *testing.T) {
	ctx := testCtx(t, nil)
	ctx.Set("items", []any{"a", "b", "c"})
	ctx.Set("seen", []any{})

	out, err := Execute(context.Background(), rule.Step{
		Kind: rule.StepLoopForEach,
		LoopForEach: &rule.LoopForEachSpec{
			Input: rule.NewTemplate("{{ items }}"),
			As:    "item",
			Pipeline: []rule.Step{
				{Kind: rule.StepVar, Var: "item"},
			},
		},
	}, value.String("passthrough"), ctx)
	require.NoError(t, err)
	s, _ := out.AsStr()
	assert.Equal(t, "passthrough", s, "loop produces no output of its own")
}
