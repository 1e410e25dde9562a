package rule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nickheyer/crawlkit/internal/crawlerr"
)

func minimalRule() *Rule {
	return &Rule{
		Meta: Meta{
			Name:      "Test",
			Author:    "Test",
			Version:   "1.0.0",
			MediaType: MediaVideo,
			Domain:    "example.com",
		},
		Detail: Flow{
			URLTemplate: NewTemplate("https://example.com/detail"),
			Fields: Fields{Video: &VideoFields{
				Title: FieldExtractor{Steps: []Step{{Kind: StepConst, Const: "x"}}},
			}},
		},
		Search: Flow{
			URLTemplate: NewTemplate("https://example.com/search"),
			Fields: Fields{Search: &SearchFields{
				List:  FieldExtractor{Steps: []Step{{Kind: StepConst, Const: []any{}}}},
				ID:    FieldExtractor{Steps: []Step{{Kind: StepConst, Const: "x"}}},
				Title: FieldExtractor{Steps: []Step{{Kind: StepConst, Const: "x"}}},
			}},
		},
	}
}

func TestValidateEmptyRule(t *testing.T) {
	err := minimalRule().Validate()
	assert.Nil(t, err)
}

func TestValidateUndefinedComponent(t *testing.T) {
	r := minimalRule()
	r.Detail.Fields.Video.Title.Steps = append(r.Detail.Fields.Video.Title.Steps, Step{
		Kind:         StepUseComponent,
		UseComponent: &ComponentRef{Component: "undefined_component"},
	})

	err := r.Validate()
	require.NotNil(t, err)
	if err.Kind == crawlerr.KindMultipleErrors {
		found := false
		for _, sub := range err.Errors {
			if sub.Kind == crawlerr.KindUndefinedComponent {
				found = true
			}
		}
		assert.True(t, found, "expected an UndefinedComponent among multiple errors")
	} else {
		assert.Equal(t, crawlerr.KindUndefinedComponent, err.Kind)
	}
}

func TestValidateCircularReference(t *testing.T) {
	r := minimalRule()
	r.Components = map[string]Component{
		"A": {Pipeline: []Step{{Kind: StepUseComponent, UseComponent: &ComponentRef{Component: "B"}}}},
		"B": {Pipeline: []Step{{Kind: StepUseComponent, UseComponent: &ComponentRef{Component: "A"}}}},
	}

	err := r.Validate()
	require.NotNil(t, err)

	var circular *crawlerr.Error
	if err.Kind == crawlerr.KindMultipleErrors {
		for _, sub := range err.Errors {
			if sub.Kind == crawlerr.KindCircularReference {
				circular = sub
			}
		}
	} else if err.Kind == crawlerr.KindCircularReference {
		circular = err
	}
	require.NotNil(t, circular, "expected a CircularReference error, got: %v", err)
	assert.Equal(t, "A -> B -> A", circular.Path)
}

func TestValidateUndefinedScriptModule(t *testing.T) {
	r := minimalRule()
	r.Detail.Fields.Video.Title.Steps = append(r.Detail.Fields.Video.Title.Steps, Step{
		Kind:   StepScript,
		Script: &ScriptRef{Call: "missingModule.run"},
	})

	err := r.Validate()
	require.NotNil(t, err)
	assert.Equal(t, crawlerr.KindUndefinedScriptModule, err.Kind)
	assert.Equal(t, "missingModule", err.ScriptModule)
}

func TestValidateRecursesIntoLoopForEach(t *testing.T) {
	r := minimalRule()
	r.Detail.Fields.Video.Title.Steps = append(r.Detail.Fields.Video.Title.Steps, Step{
		Kind: StepLoopForEach,
		LoopForEach: &LoopForEachSpec{
			Input: NewTemplate("{{ items }}"),
			As:    "item",
			Pipeline: []Step{
				{Kind: StepUseComponent, UseComponent: &ComponentRef{Component: "missing"}},
			},
		},
	})

	err := r.Validate()
	require.NotNil(t, err)
	assert.Equal(t, crawlerr.KindUndefinedComponent, err.Kind)
}
