package value

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTruthinessTable(t *testing.T) {
	cases := []struct {
		name string
		v    Value
		want bool
	}{
		{"null", Null, false},
		{"empty string", String(""), false},
		{"non-empty string", String("x"), true},
		{"empty array", Array(nil), false},
		{"json null", JSON(nil), false},
		{"json false", JSON(false), false},
		{"json empty string", JSON(""), false},
		{"json empty array", JSON([]any{}), false},
		{"json zero", JSON(float64(0)), true},
		{"json object", JSON(map[string]any{}), true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			assert.Equal(t, c.want, c.v.IsTruthy())
		})
	}
}

func TestEmptinessTable(t *testing.T) {
	assert.True(t, Null.IsEmpty())
	assert.True(t, String("").IsEmpty())
	assert.False(t, String("x").IsEmpty())
	assert.True(t, HTML("").IsEmpty())
	assert.True(t, Array(nil).IsEmpty())
	assert.False(t, Array([]Value{String("a")}).IsEmpty())
	assert.True(t, JSON(nil).IsEmpty())
	assert.False(t, JSON(false).IsEmpty())
	assert.False(t, JSON(float64(0)).IsEmpty())
}

func TestFromJSONPreferenceOrder(t *testing.T) {
	s := FromJSON("hello")
	assert.Equal(t, KindString, s.Kind())

	arr := FromJSON([]any{"a", float64(1)})
	require.True(t, arr.IsArray())
	items, ok := arr.AsArraySlice()
	require.True(t, ok)
	require.Len(t, items, 2)
	assert.Equal(t, KindString, items[0].Kind())
	assert.Equal(t, KindJSON, items[1].Kind())

	obj := FromJSON(map[string]any{"a": 1})
	assert.Equal(t, KindJSON, obj.Kind())

	n := FromJSON(nil)
	assert.Equal(t, KindJSON, n.Kind())
	assert.True(t, n.IsEmpty())
}

func TestArraySharesBackingSlice(t *testing.T) {
	items := []Value{String("a"), String("b")}
	v := Array(items)
	got, _ := v.AsArraySlice()
	got[0] = String("mutated-via-caller-slice")
	// Array() does not copy; this documents the O(1) sharing contract —
	// callers must not mutate a slice after constructing a Value from it.
	second, _ := v.AsArraySlice()
	assert.Equal(t, "mutated-via-caller-slice", func() string {
		s, _ := second[0].AsStr()
		return s
	}())
}

func TestRoundTripJSON(t *testing.T) {
	v := Array([]Value{String("a"), JSON(float64(2))})
	b, err := v.MarshalJSON()
	require.NoError(t, err)
	assert.JSONEq(t, `["a",2]`, string(b))

	var out Value
	require.NoError(t, out.UnmarshalJSON([]byte(`["a",2]`)))
	assert.True(t, out.IsArray())
}
