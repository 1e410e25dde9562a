// Package value implements the intermediate tagged-union value that flows
// through every extraction pipeline step.
package value

import (
	"encoding/json"
	"fmt"
)

// Kind identifies which variant of Value is populated.
type Kind uint8

const (
	KindNull Kind = iota
	KindString
	KindHTML
	KindJSON
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindString:
		return "string"
	case KindHTML:
		return "html"
	case KindJSON:
		return "json"
	case KindArray:
		return "array"
	default:
		return "unknown"
	}
}

// Value is an immutable tagged union over the five shapes an extraction step
// may produce: a plain string, an HTML/XML fragment, an arbitrary JSON
// document, an ordered array of values, or null. Every field read returns a
// new Value; nothing mutates a Value in place, so copies are always safe to
// share.
type Value struct {
	kind Kind
	str  string
	json any
	arr  []Value
}

// Null is the canonical empty value.
var Null = Value{kind: KindNull}

// String builds a plain-text value.
func String(s string) Value { return Value{kind: KindString, str: s} }

// HTML builds an HTML/XML-tagged text value.
func HTML(s string) Value { return Value{kind: KindHTML, str: s} }

// JSON builds a value wrapping an arbitrary decoded JSON document (the zero
// value `nil` represents JSON null).
func JSON(doc any) Value { return Value{kind: KindJSON, json: doc} }

// Array builds an ordered sequence value. The slice is not copied; callers
// must not mutate it after handing it to Array.
func Array(items []Value) Value { return Value{kind: KindArray, arr: items} }

// Kind reports which variant is populated.
func (v Value) Kind() Kind { return v.kind }

// AsStr returns the text content for String and HTML variants. Every other
// variant returns ("", false).
func (v Value) AsStr() (string, bool) {
	switch v.kind {
	case KindString, KindHTML:
		return v.str, true
	default:
		return "", false
	}
}

// AsArraySlice returns the backing slice for Array variants. The returned
// slice must be treated as read-only.
func (v Value) AsArraySlice() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.arr, true
}

// AsJSONRef returns the raw decoded JSON document backing a JSON variant.
func (v Value) AsJSONRef() (any, bool) {
	if v.kind != KindJSON {
		return nil, false
	}
	return v.json, true
}

// IsArray reports whether v is an Array variant.
func (v Value) IsArray() bool { return v.kind == KindArray }

// FromJSON builds a Value from a decoded JSON document, preferring the most
// specific variant: string scalars become String, arrays become Array
// (recursively converting each element), everything else (objects, numbers,
// bools, nil) becomes a JSON variant.
func FromJSON(doc any) Value {
	switch t := doc.(type) {
	case nil:
		return Value{kind: KindJSON, json: nil}
	case string:
		return String(t)
	case []any:
		items := make([]Value, len(t))
		for i, e := range t {
			items[i] = FromJSON(e)
		}
		return Array(items)
	default:
		return JSON(doc)
	}
}

// ToOwnedJSON materializes v into a plain JSON-compatible tree (the one
// deliberate deep-copy boundary in this model — every other operation is
// O(1)).
func (v Value) ToOwnedJSON() any {
	switch v.kind {
	case KindNull:
		return nil
	case KindString, KindHTML:
		return v.str
	case KindJSON:
		return v.json
	case KindArray:
		out := make([]any, len(v.arr))
		for i, e := range v.arr {
			out[i] = e.ToOwnedJSON()
		}
		return out
	default:
		return nil
	}
}

// IsEmpty reports whether v carries no meaningful content: null, the empty
// string/HTML fragment, the empty array, or a JSON null/empty-string/
// empty-array. Every other JSON value (including 0, false, and {}) is not
// empty.
func (v Value) IsEmpty() bool {
	switch v.kind {
	case KindNull:
		return true
	case KindString, KindHTML:
		return v.str == ""
	case KindArray:
		return len(v.arr) == 0
	case KindJSON:
		switch t := v.json.(type) {
		case nil:
			return true
		case string:
			return t == ""
		case []any:
			return len(t) == 0
		default:
			return false
		}
	default:
		return true
	}
}

// IsTruthy reports whether v should be treated as a logical true in a
// Condition step. This differs from !IsEmpty only for JSON false: false is
// not truthy even though it is not "empty". JSON 0 is both non-empty and
// truthy (it is a present number).
func (v Value) IsTruthy() bool {
	switch v.kind {
	case KindNull:
		return false
	case KindString, KindHTML:
		return v.str != ""
	case KindArray:
		return len(v.arr) != 0
	case KindJSON:
		switch t := v.json.(type) {
		case nil:
			return false
		case bool:
			return t
		case string:
			return t != ""
		case []any:
			return len(t) != 0
		default:
			return true
		}
	default:
		return false
	}
}

// MarshalJSON yields the canonical wire representation: String/HTML marshal
// as JSON strings, Array as a JSON array, Null as JSON null, and JSON as its
// own content.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindNull:
		return []byte("null"), nil
	case KindString, KindHTML:
		return json.Marshal(v.str)
	case KindArray:
		return json.Marshal(v.arr)
	case KindJSON:
		return json.Marshal(v.json)
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON decodes an arbitrary JSON value and normalizes it through
// FromJSON so round-tripped documents follow the same variant-preference
// rules as values built at runtime.
func (v *Value) UnmarshalJSON(data []byte) error {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	*v = FromJSON(doc)
	return nil
}

// String implements fmt.Stringer for debugging/log output; it is not the
// wire format.
func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "Null"
	case KindString:
		return fmt.Sprintf("String(%q)", v.str)
	case KindHTML:
		return fmt.Sprintf("Html(%q)", v.str)
	case KindJSON:
		b, _ := json.Marshal(v.json)
		return fmt.Sprintf("Json(%s)", b)
	case KindArray:
		return fmt.Sprintf("Array(len=%d)", len(v.arr))
	default:
		return "Unknown"
	}
}
