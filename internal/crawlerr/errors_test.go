package crawlerr

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidationErrorsEmpty(t *testing.T) {
	v := NewValidationErrors()
	assert.True(t, v.IsEmpty())
	assert.Equal(t, 0, v.Len())
	assert.Nil(t, v.IntoResult())
}

func TestValidationErrorsSingle(t *testing.T) {
	v := NewValidationErrors()
	v.Push(UndefinedComponent("missing"))
	require.True(t, v.HasErrors())
	require.Equal(t, 1, v.Len())

	got := v.IntoResult()
	require.NotNil(t, got)
	assert.Equal(t, KindUndefinedComponent, got.Kind)
}

func TestValidationErrorsMultiple(t *testing.T) {
	v := NewValidationErrors()
	v.Push(UndefinedComponent("a"))
	v.Push(UndefinedComponent("b"))

	got := v.IntoResult()
	require.NotNil(t, got)
	assert.Equal(t, KindMultipleErrors, got.Kind)
	assert.Equal(t, 2, len(got.Errors))
}

func TestValidationErrorsExtend(t *testing.T) {
	a := NewValidationErrors()
	a.Push(UndefinedComponent("a"))
	b := NewValidationErrors()
	b.Push(UndefinedComponent("b"))

	a.Extend(b)
	assert.Equal(t, 2, a.Len())
}

func TestCircularReferencePathFormat(t *testing.T) {
	err := CircularReference([]string{"A", "B", "A"})
	assert.Equal(t, "A -> B -> A", err.Path)
	assert.Contains(t, err.Error(), "A -> B -> A")
}

func TestErrorIsComparesKindOnly(t *testing.T) {
	a := Extraction("first message")
	b := Extraction("second message")
	assert.ErrorIs(t, a, b)
}

func TestTemporaryClassification(t *testing.T) {
	assert.True(t, HTTPRequest("timeout").Temporary())
	assert.True(t, IO("disk full").Temporary())
	assert.False(t, Extraction("missing field").Temporary())
	assert.False(t, UndefinedComponent("x").Temporary())
}

func TestMultipleErrorsTemporaryRequiresAllTemporary(t *testing.T) {
	v := NewValidationErrors()
	v.Push(HTTPRequest("a"))
	v.Push(HTTPRequest("b"))
	assert.True(t, v.IntoResult().Temporary())

	v2 := NewValidationErrors()
	v2.Push(HTTPRequest("a"))
	v2.Push(Extraction("b"))
	assert.False(t, v2.IntoResult().Temporary())
}

